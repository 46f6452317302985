package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"
	"time"

	"pet-records/internal/ports/blob"
)

type entry struct {
	obj  blob.Object
	data []byte
}

// Store guarda blobs en memoria. Para dev y tests.
type Store struct {
	mu   sync.RWMutex
	objs map[string]entry
	now  func() time.Time
}

func New() *Store {
	return &Store{objs: make(map[string]entry), now: time.Now}
}

func (s *Store) Put(_ context.Context, key string, r io.Reader, size int64, contentType string) (blob.Object, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return blob.Object{}, fmt.Errorf("blob key required")
	}
	b, err := io.ReadAll(io.LimitReader(r, size+1))
	if err != nil {
		return blob.Object{}, err
	}
	if int64(len(b)) != size {
		return blob.Object{}, fmt.Errorf("blob %s: size mismatch (declared %d, got %d)", key, size, len(b))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.objs[key]; exists {
		return blob.Object{}, fmt.Errorf("blob %s already exists", key)
	}
	obj := blob.Object{Key: key, Size: int64(len(b)), ContentType: contentType}
	s.objs[key] = entry{obj: obj, data: b}
	return obj, nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objs, key)
	return nil
}

// PresignGet devuelve una URL memory:// con la expiración; no es descargable por HTTP.
func (s *Store) PresignGet(_ context.Context, key string, ttl time.Duration) (string, error) {
	s.mu.RLock()
	_, ok := s.objs[key]
	s.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("blob %s not found", key)
	}
	exp := s.now().Add(ttl).UTC().Format(time.RFC3339)
	return "memory://" + key + "?expires=" + url.QueryEscape(exp), nil
}

// Get lee el contenido; solo lo usan los tests.
func (s *Store) Get(key string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.objs[key]
	if !ok {
		return nil, false
	}
	return bytes.Clone(e.data), true
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objs)
}
