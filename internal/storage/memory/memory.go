package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"filestorage/internal/storage"
)

type entry struct {
	data        []byte
	contentType string
}

// Storage хранит объекты в памяти процесса. Используется в тестах и при provider=memory.
// Поля *Err позволяют имитировать отказы хранилища.
type Storage struct {
	mu      sync.RWMutex
	objects map[string]entry

	PutErr     error
	GetErr     error
	DeleteErr  error
	PresignErr error

	puts     atomic.Int64
	gets     atomic.Int64
	deletes  atomic.Int64
	presigns atomic.Int64
}

var _ storage.Storage = (*Storage)(nil)

func New() *Storage {
	return &Storage{objects: make(map[string]entry)}
}

func (s *Storage) PutObject(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	s.puts.Add(1)
	if s.PutErr != nil {
		return s.PutErr
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("memory: read body: %w", err)
	}
	if size >= 0 && int64(len(data)) != size {
		return fmt.Errorf("memory: size mismatch: declared %d, read %d", size, len(data))
	}

	s.mu.Lock()
	s.objects[key] = entry{data: data, contentType: contentType}
	s.mu.Unlock()
	return nil
}

func (s *Storage) GetObject(ctx context.Context, key string) (storage.Object, error) {
	s.gets.Add(1)
	if s.GetErr != nil {
		return nil, s.GetErr
	}

	s.mu.RLock()
	e, ok := s.objects[key]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, key)
	}
	return storage.NewObject(io.NopCloser(bytes.NewReader(e.data)), int64(len(e.data)), e.contentType), nil
}

func (s *Storage) DeleteObject(ctx context.Context, key string) error {
	s.deletes.Add(1)
	if s.DeleteErr != nil {
		return s.DeleteErr
	}

	s.mu.Lock()
	delete(s.objects, key)
	s.mu.Unlock()
	return nil
}

func (s *Storage) PresignGetObject(ctx context.Context, key string, expiry time.Duration) (string, error) {
	s.presigns.Add(1)
	if s.PresignErr != nil {
		return "", s.PresignErr
	}
	q := url.Values{}
	q.Set("expires", fmt.Sprintf("%d", int64(expiry.Seconds())))
	return "memory://objects/" + url.PathEscape(key) + "?" + q.Encode(), nil
}

func (s *Storage) Ping(ctx context.Context) error {
	return nil
}

// Has сообщает, есть ли объект с ключом.
func (s *Storage) Has(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.objects[key]
	return ok
}

// Len возвращает число хранимых объектов.
func (s *Storage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}

func (s *Storage) Puts() int64     { return s.puts.Load() }
func (s *Storage) Gets() int64     { return s.gets.Load() }
func (s *Storage) Deletes() int64  { return s.deletes.Load() }
func (s *Storage) Presigns() int64 { return s.presigns.Load() }

// Calls возвращает суммарное число обращений к хранилищу.
func (s *Storage) Calls() int64 {
	return s.Puts() + s.Gets() + s.Deletes() + s.Presigns()
}
