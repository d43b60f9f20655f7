// Package memory is an in-process ObjectStore for tests and dry runs.
package memory

import (
	"context"
	"sync"

	"shinacap/internal/storage"
)

// Store keeps objects in a map.
type Store struct {
	mu       sync.Mutex
	objects  map[string]storage.Object
	getErrs  map[string]error
	putErrs  map[string]error
	puts     map[string]int
	putOrder []string
}

func NewStore() *Store {
	return &Store{
		objects: make(map[string]storage.Object),
		getErrs: make(map[string]error),
		putErrs: make(map[string]error),
		puts:    make(map[string]int),
	}
}

// Get returns a copy of the object at key.
func (s *Store) Get(ctx context.Context, key string) (storage.Object, error) {
	if err := ctx.Err(); err != nil {
		return storage.Object{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.getErrs[key]; ok {
		return storage.Object{}, err
	}
	obj, ok := s.objects[key]
	if !ok {
		return storage.Object{}, storage.ErrNotFound
	}
	return storage.Object{Data: append([]byte(nil), obj.Data...), ETag: obj.ETag}, nil
}

// Put stores data at key, honoring preconditions.
func (s *Store) Put(ctx context.Context, key string, data []byte, opts storage.PutOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.putErrs[key]; ok {
		return err
	}
	current, exists := s.objects[key]
	if err := storage.CheckPreconditions(current.ETag, exists, opts); err != nil {
		return err
	}
	s.objects[key] = storage.Object{
		Data: append([]byte(nil), data...),
		ETag: storage.ContentETag(data),
	}
	s.puts[key]++
	s.putOrder = append(s.putOrder, key)
	return nil
}

// Set seeds an object without counting it as a put.
func (s *Store) Set(key string, data []byte) {
	s.mu.Lock()
	s.objects[key] = storage.Object{Data: append([]byte(nil), data...), ETag: storage.ContentETag(data)}
	s.mu.Unlock()
}

// FailGet makes every Get of key return err.
func (s *Store) FailGet(key string, err error) {
	s.mu.Lock()
	s.getErrs[key] = err
	s.mu.Unlock()
}

// FailPut makes every Put of key return err.
func (s *Store) FailPut(key string, err error) {
	s.mu.Lock()
	s.putErrs[key] = err
	s.mu.Unlock()
}

// Puts returns how many successful puts key has received.
func (s *Store) Puts(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.puts[key]
}

// Keys returns the keys written, in put order.
func (s *Store) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.putOrder...)
}
