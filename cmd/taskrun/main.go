// Command taskrun executes a named task and its dependency closure from a
// declarative manifest, sequentially and fail-fast.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/andrej220/taskrun/internal/engine"
	"github.com/andrej220/taskrun/internal/lg"
	"github.com/andrej220/taskrun/pkg/config"
	"github.com/andrej220/taskrun/pkg/config/configstore"
	"github.com/andrej220/taskrun/pkg/report"
	"github.com/andrej220/taskrun/pkg/runner"
)

const serviceName = "taskrun"

func main() {
	os.Exit(run())
}

func run() int {
	fs := flag.NewFlagSet(serviceName, flag.ExitOnError)
	manifestPath := fs.String("f", "tasks.yaml", "path to the task manifest")
	source := fs.String("source", "file", "manifest source: file or mongo")
	mongoURI := fs.String("mongo-uri", "", "MongoDB URI (source=mongo)")
	mongoDB := fs.String("mongo-db", "taskrun", "MongoDB database (source=mongo)")
	mongoColl := fs.String("mongo-coll", "manifests", "MongoDB collection (source=mongo)")
	mongoID := fs.String("mongo-id", "", "manifest document ID (source=mongo)")
	brokers := fs.String("report-brokers", "", "comma-separated Kafka brokers for run reports, empty disables reporting")
	topic := fs.String("report-topic", "task-runs", "Kafka topic for run reports")
	debug := fs.Bool("debug", false, "enable debug logging")
	format := fs.String("log-format", "console", "json or console")
	fs.Parse(os.Args[1:])

	if fs.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <task>\n", serviceName)
		fs.PrintDefaults()
		return 2
	}
	root := fs.Arg(0)

	logger := lg.New(&lg.Config{ServiceName: serviceName, Debug: *debug, Format: *format})
	defer logger.Sync()

	store, err := newStore(*source, *manifestPath, *mongoURI, *mongoDB, *mongoColl, *mongoID)
	if err != nil {
		logger.Error("cannot open manifest store", lg.Err(err))
		return 1
	}

	manifest, err := config.LoadManifest(store)
	if err != nil {
		logger.Error("cannot load manifest", lg.Err(err))
		return 1
	}

	reg, err := manifest.BuildRegistry()
	if err != nil {
		logger.Error("cannot build task registry", lg.Err(err))
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = lg.Attach(ctx, logger)

	eng := engine.New(reg, runner.NewExecRunner(), logger)
	res, err := eng.Execute(ctx, root)
	if err != nil {
		logger.Error("run failed", lg.String("task", root), lg.Err(err))
		return 1
	}

	printResult(res)

	if *brokers != "" {
		publisher := report.NewPublisher(strings.Split(*brokers, ","), *topic, logger)
		defer publisher.Close()

		pubCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := publisher.Publish(pubCtx, res); err != nil {
			logger.Warn("run report not published", lg.Err(err))
		}
	}

	if !res.OK {
		return 1
	}
	return 0
}

func newStore(source, path, uri, db, coll, id string) (configstore.ConfigStore, error) {
	switch source {
	case "file":
		return config.NewStore(config.FileStore, &config.FileConfig{Path: path})
	case "mongo":
		return config.NewStore(config.MongoStore, &config.MongoConfig{
			URI:      uri,
			DBName:   db,
			CollName: coll,
			ID:       id,
		})
	default:
		return nil, fmt.Errorf("unknown manifest source %q", source)
	}
}

func printResult(res *engine.RunResult) {
	for _, t := range res.Tasks {
		switch t.Status {
		case engine.StatusFailed:
			fmt.Printf("%-12s %s (%s)\n", t.Status, t.Name, t.Reason)
		default:
			fmt.Printf("%-12s %s\n", t.Status, t.Name)
		}
	}
	if res.OK {
		fmt.Printf("ok: %d tasks\n", len(res.Tasks))
	} else {
		fmt.Println("failed")
	}
}
