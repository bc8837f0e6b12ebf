package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrNotFound возвращается адаптерами, когда объекта с ключом нет в хранилище.
var ErrNotFound = errors.New("object not found")

// Object определяет интерфейс для объектов хранилища
type Object interface {
	io.ReadCloser
	ContentLength() int64
	ContentType() string
}

// Storage определяет интерфейс для работы с blob-хранилищем
type Storage interface {
	PutObject(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	GetObject(ctx context.Context, key string) (Object, error)
	// DeleteObject не считает ошибкой отсутствие объекта.
	DeleteObject(ctx context.Context, key string) error
	PresignGetObject(ctx context.Context, key string, expiry time.Duration) (string, error)
	Ping(ctx context.Context) error
}

// NewObject оборачивает поток с метаданными в Object.
func NewObject(body io.ReadCloser, contentLength int64, contentType string) Object {
	return &object{
		ReadCloser:    body,
		contentLength: contentLength,
		contentType:   contentType,
	}
}

type object struct {
	io.ReadCloser
	contentLength int64
	contentType   string
}

func (o *object) ContentLength() int64 {
	return o.contentLength
}

func (o *object) ContentType() string {
	return o.contentType
}
