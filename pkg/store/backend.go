// Package store persists model bundles as six independently addressable
// artifacts on a pluggable backend.
package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrArtifactNotFound is returned by Backend.Get for an absent artifact.
var ErrArtifactNotFound = errors.New("artifact not found")

// Backend is a flat key/value blob store addressed by artifact name.
type Backend interface {
	Put(ctx context.Context, name string, payload []byte) error
	Get(ctx context.Context, name string) ([]byte, error)
	Delete(ctx context.Context, name string) error
	io.Closer
}

// Driver names a Backend implementation.
type Driver string

const (
	DriverFile   Driver = "file"
	DriverBadger Driver = "badger"
	DriverS3     Driver = "s3"
)

// Config selects and configures a backend.
type Config struct {
	Driver     Driver   `koanf:"driver" validate:"required,oneof=file badger s3"`
	Dir        string   `koanf:"dir" validate:"required_if=Driver file"`
	BadgerPath string   `koanf:"badger_path" validate:"required_if=Driver badger"`
	S3         S3Config `koanf:"s3"`
}

// DefaultConfig stores artifacts as files under ./modelos.
func DefaultConfig() Config {
	return Config{Driver: DriverFile, Dir: "modelos", BadgerPath: "modelos/badger"}
}

// OpenBackend builds the backend named by cfg.Driver.
func OpenBackend(ctx context.Context, cfg Config) (Backend, error) {
	switch Driver(strings.ToLower(string(cfg.Driver))) {
	case DriverFile, "":
		return NewFileBackend(cfg.Dir)
	case DriverBadger:
		bc := DefaultBadgerConfig()
		bc.Path = cfg.BadgerPath
		return OpenBadger(bc)
	case DriverS3:
		return NewS3Backend(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("store: unknown driver %q", cfg.Driver)
	}
}

// Open builds the configured backend and wraps it in a Store.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	b, err := OpenBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return New(b), nil
}
