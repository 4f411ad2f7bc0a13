package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"
	"golang.org/x/crypto/ssh"
	"golang.org/x/sync/errgroup"

	"github.com/andrej220/taskrun/internal/lg"
)

// SSHRunner runs actions on a remote host over an established SSH
// connection. Session creation is retried with exponential backoff behind a
// circuit breaker; a command that has started is never retried, so the
// at-most-once contract of ActionRunner holds.
type SSHRunner struct {
	client  *ssh.Client
	breaker *gobreaker.CircuitBreaker
	lg      lg.Logger

	Stdout io.Writer
	Stderr io.Writer
}

// NewSSHRunner dials addr ("host:port") with cfg and wraps the connection.
func NewSSHRunner(addr string, cfg *ssh.ClientConfig, logger lg.Logger) (*SSHRunner, error) {
	if logger == nil {
		logger = lg.Discard
	}
	client, err := ssh.Dial("tcp", addr, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", addr, err)
	}

	cbs := gobreaker.Settings{
		Name:        "ssh-session",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
	}

	return &SSHRunner{
		client:  client,
		breaker: gobreaker.NewCircuitBreaker(cbs),
		lg:      logger,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
	}, nil
}

func (r *SSHRunner) Close() error {
	return r.client.Close()
}

func (r *SSHRunner) Run(ctx context.Context, program string, args []string) error {
	session, err := r.newSession(ctx)
	if err != nil {
		return fmt.Errorf("ssh session for %s: %w", program, err)
	}
	defer session.Close()

	stdout, err := session.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := session.StderrPipe()
	if err != nil {
		return fmt.Errorf("stderr pipe: %w", err)
	}

	cmdline := commandLine(program, args)
	r.lg.Debug("starting remote command",
		lg.String("addr", r.client.RemoteAddr().String()),
		lg.String("command", cmdline))

	if err := session.Start(cmdline); err != nil {
		return fmt.Errorf("failed to start %s: %w", program, err)
	}

	g := new(errgroup.Group)
	g.Go(func() error {
		_, err := io.Copy(r.Stdout, stdout)
		return err
	})
	g.Go(func() error {
		_, err := io.Copy(r.Stderr, stderr)
		return err
	})

	waitErr := session.Wait()
	if err := g.Wait(); err != nil {
		r.lg.Warn("draining remote output", lg.Err(err))
	}

	if waitErr != nil {
		var exitErr *ssh.ExitError
		if errors.As(waitErr, &exitErr) {
			return fmt.Errorf("%s exited with status %d", program, exitErr.ExitStatus())
		}
		return fmt.Errorf("remote %s: %w", program, waitErr)
	}
	return nil
}

// newSession opens a session with backoff-retried attempts behind the
// circuit breaker. Stops as soon as ctx is cancelled.
func (r *SSHRunner) newSession(ctx context.Context) (*ssh.Session, error) {
	bo := backoff.WithContext(&backoff.ExponentialBackOff{
		InitialInterval:     500 * time.Millisecond,
		MaxInterval:         5 * time.Second,
		MaxElapsedTime:      30 * time.Second,
		Multiplier:          1.5,
		RandomizationFactor: 0.5,
		Stop:                backoff.Stop,
		Clock:               backoff.SystemClock,
	}, ctx)

	var session *ssh.Session
	op := func() error {
		res, err := r.breaker.Execute(func() (any, error) {
			return r.client.NewSession()
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				return backoff.Permanent(err)
			}
			return err
		}
		session = res.(*ssh.Session)
		return nil
	}
	if err := backoff.Retry(op, bo); err != nil {
		return nil, err
	}
	return session, nil
}

// commandLine renders program and args as a single shell command, single
// quoting every argument.
func commandLine(program string, args []string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, quote(program))
	for _, a := range args {
		parts = append(parts, quote(a))
	}
	return strings.Join(parts, " ")
}

func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
