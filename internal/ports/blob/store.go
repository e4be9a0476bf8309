package blob

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrNotFound lo devuelven Get/Head cuando la key no existe.
var ErrNotFound = errors.New("blob not found")

// Info describe un blob guardado.
type Info struct {
	Key          string
	Size         int64
	ContentType  string
	LastModified time.Time
}

// Store es la abstracción mínima tipo S3 para fotos de mascotas.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, contentType string) (Info, error)
	Get(ctx context.Context, key string) (Info, io.ReadCloser, error)
	Delete(ctx context.Context, key string) (bool, error)
}
