package blob

import (
	"context"
	"io"
	"time"
)

type Object struct {
	Key         string
	Size        int64
	ContentType string
}

// Store guarda archivos de documentos. Las keys son paths opacos.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (Object, error)
	Delete(ctx context.Context, key string) error
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}
