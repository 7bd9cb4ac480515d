package archive

import (
	"context"
	"fmt"
)

// Storage defines the interface for snapshot storage backends
type Storage interface {
	// Write stores data at the given path
	Write(ctx context.Context, path string, data []byte) error

	// Read retrieves data from the given path
	Read(ctx context.Context, path string) ([]byte, error)

	// List returns all paths matching the prefix
	List(ctx context.Context, prefix string) ([]string, error)

	// Exists checks if data exists at the given path
	Exists(ctx context.Context, path string) (bool, error)
}

// Open creates the backend named by kind: "localfs" uses path, "s3" uses s3cfg.
func Open(kind, path string, s3cfg S3Config) (Storage, error) {
	switch kind {
	case "localfs":
		return NewLocalFS(path)
	case "s3":
		return NewS3(s3cfg)
	default:
		return nil, fmt.Errorf("unsupported archive type %q", kind)
	}
}
