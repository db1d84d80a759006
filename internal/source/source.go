// Package source retrieves the raw calendar export to be ingested.
package source

import (
	"context"
	"errors"
	"os"
)

// Source supplies the raw bytes of the calendar export.
type Source interface {
	Fetch(ctx context.Context) ([]byte, error)
}

// File reads the export from a local path.
type File struct {
	Path string
}

func (f File) Fetch(_ context.Context) ([]byte, error) {
	if f.Path == "" {
		return nil, errors.New("source path is empty")
	}
	return os.ReadFile(f.Path)
}
