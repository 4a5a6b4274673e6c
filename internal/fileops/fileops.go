// Package fileops holds the plain file helpers used by io tasks. Nothing in
// here knows about tracing.
package fileops

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// Store performs the filesystem side of an io task. Errors are returned as
// produced by the underlying filesystem.
type Store interface {
	EnsureDir(ctx context.Context, dir string) error
	Write(ctx context.Context, path string, data []byte) error
	Read(ctx context.Context, path string) ([]byte, error)
	Delete(ctx context.Context, path string) error
}

type osStore struct{}

// NewStore returns a Store backed by the local filesystem.
func NewStore() Store {
	return osStore{}
}

// EnsureDir creates dir and any missing parents. It is a no-op when dir
// already exists.
func (osStore) EnsureDir(_ context.Context, dir string) error {
	return os.MkdirAll(dir, dirPerm)
}

// Write creates path and writes data to it. It fails if path already exists,
// so two requests can never overwrite each other's file.
func (osStore) Write(_ context.Context, path string, data []byte) (err error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, filePerm)
	if err != nil {
		return err
	}

	defer func() {
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
	}()

	_, err = f.Write(data)

	return err
}

func (osStore) Read(_ context.Context, path string) ([]byte, error) {
	return os.ReadFile(path)
}

func (osStore) Delete(_ context.Context, path string) error {
	return os.Remove(path)
}

// BuildFilePath names the transient file for a content id. The millisecond
// timestamp makes names unique across requests in practice, not by guarantee.
func BuildFilePath(dir, id string, now time.Time) (filename, path string) {
	filename = fmt.Sprintf("temp_%s_%d.json", id, now.UnixMilli())

	return filename, filepath.Join(dir, filename)
}
