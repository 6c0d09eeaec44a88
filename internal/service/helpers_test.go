package service_test

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/pageza/foodgram/backend/internal/storage"
)

// fakeImages records uploads and removals in memory.
type fakeImages struct {
	mu      sync.Mutex
	next    int
	objects map[string]bool
	removed []string
	failPut bool
}

func newFakeImages() *fakeImages {
	return &fakeImages{objects: map[string]bool{}}
}

func (f *fakeImages) Upload(_ context.Context, prefix, dataURI string) (string, error) {
	if _, _, err := storage.DecodeDataURI(dataURI, 1<<20); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failPut {
		return "", errors.New("store unavailable")
	}
	f.next++
	key := fmt.Sprintf("%s/img-%d.png", prefix, f.next)
	f.objects[key] = true
	return key, nil
}

func (f *fakeImages) Remove(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	f.removed = append(f.removed, key)
	return nil
}

func (f *fakeImages) has(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.objects[key]
}
