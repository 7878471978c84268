// Package objstore is the durable object store behind the pipeline: a flat
// path contract ("OrderIntake/20260831/Images/x.jpg") over either the local
// filesystem or Google Drive.
package objstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var ErrNotFound = errors.New("object not found")

type Store interface {
	Get(ctx context.Context, path string) ([]byte, error)
	Put(ctx context.Context, path string, data []byte) error
	Exists(ctx context.Context, path string) (bool, error)
}

// UniquePath returns path if unused, otherwise the first "name001.ext" style
// variant that does not exist yet.
func UniquePath(ctx context.Context, s Store, path string) (string, error) {
	exists, err := s.Exists(ctx, path)
	if err != nil {
		return "", err
	}
	if !exists {
		return path, nil
	}

	base, ext := path, ""
	if i := strings.LastIndex(path, "."); i > strings.LastIndex(path, "/") {
		base, ext = path[:i], path[i:]
	}
	for n := 1; n < 1000; n++ {
		candidate := fmt.Sprintf("%s%03d%s", base, n, ext)
		exists, err := s.Exists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no unique name available for %s", path)
}
