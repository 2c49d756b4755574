package tle

import (
	"sync"
	"testing"
	"time"
)

func TestStoreEmpty(t *testing.T) {
	s := NewStore()
	if s.Get() != nil {
		t.Error("empty store returned a dataset")
	}
	if age := s.AgeSeconds(); age != -1 {
		t.Errorf("AgeSeconds = %v, want -1 for empty store", age)
	}
}

func TestStoreSetGet(t *testing.T) {
	s := NewStore()
	ds := &Dataset{
		Source:    "test",
		FetchedAt: time.Now().Add(-90 * time.Second),
	}
	s.Set(ds)

	if got := s.Get(); got != ds {
		t.Error("Get returned a different dataset pointer")
	}
	if age := s.AgeSeconds(); age < 89 || age > 92 {
		t.Errorf("AgeSeconds = %v, want ~90", age)
	}
}

func TestStoreConcurrentAccess(t *testing.T) {
	s := NewStore()
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s.Set(&Dataset{Source: "writer", FetchedAt: time.Now()})
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if ds := s.Get(); ds != nil && ds.Source != "writer" {
					t.Error("torn read from store")
					return
				}
			}
		}()
	}
	wg.Wait()
}
