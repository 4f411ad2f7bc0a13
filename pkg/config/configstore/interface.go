// Package configstore defines the storage boundary for task manifests.
package configstore

// ConfigStore loads and saves a manifest document. Concrete stores decide
// the encoding and the location (file, database).
type ConfigStore interface {
	Load(out any) error
	Save(in any) error
}
