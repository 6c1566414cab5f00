package credential

import (
	"errors"
	"testing"
)

func TestMockStore_GetSet(t *testing.T) {
	s := NewMockStore()
	if err := s.Set("service", "user", "password123"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := s.Get("service", "user")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != "password123" {
		t.Errorf("got %q, want %q", got, "password123")
	}
}

func TestMockStore_NotFound(t *testing.T) {
	s := NewMockStore()
	_, err := s.Get("service", "user")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMockStore_Delete(t *testing.T) {
	s := NewMockStore()
	_ = s.Set("service", "user", "password123")
	if err := s.Delete("service", "user"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	_, err := s.Get("service", "user")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestMockStore_DeleteNotFound(t *testing.T) {
	s := NewMockStore()
	err := s.Delete("service", "user")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestNewMockStoreWithCredentials(t *testing.T) {
	s := NewMockStoreWithCredentials([][3]string{
		{"svcA", "userA", "passA"},
		{"svcB", "userB", "passB"},
	})
	got, err := s.Get("svcA", "userA")
	if err != nil || got != "passA" {
		t.Errorf("Get(svcA, userA) = %q, %v", got, err)
	}
	got, err = s.Get("svcB", "userB")
	if err != nil || got != "passB" {
		t.Errorf("Get(svcB, userB) = %q, %v", got, err)
	}
}
