// Package credential stores and retrieves provider API keys, backed by the
// OS keychain in production and an in-memory map in tests.
package credential

import (
	"errors"
	"sync"

	"github.com/99designs/keyring"
)

// ErrNotFound is returned when no credential exists for the given service/user pair.
var ErrNotFound = errors.New("credential not found")

// Store is a credential storage backend.
type Store interface {
	Get(service, user string) (string, error)
	Set(service, user, password string) error
	Delete(service, user string) error
}

// KeyringStore stores credentials in the OS-native keychain via 99designs/keyring.
type KeyringStore struct {
	serviceName string
}

// NewKeyringStore creates a KeyringStore under the given keyring service
// namespace (e.g. "archive").
func NewKeyringStore(serviceName string) *KeyringStore {
	return &KeyringStore{serviceName: serviceName}
}

func (k *KeyringStore) open() (keyring.Keyring, error) {
	return keyring.Open(keyring.Config{ServiceName: k.serviceName})
}

// key namespaces a (service, user) pair into the single keyring item key
// space; keyring has no secondary index, so both parts fold into one key.
func key(service, user string) string {
	return service + "::" + user
}

func (k *KeyringStore) Get(service, user string) (string, error) {
	ring, err := k.open()
	if err != nil {
		return "", err
	}
	item, err := ring.Get(key(service, user))
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return "", ErrNotFound
		}
		return "", err
	}
	return string(item.Data), nil
}

func (k *KeyringStore) Set(service, user, password string) error {
	ring, err := k.open()
	if err != nil {
		return err
	}
	return ring.Set(keyring.Item{
		Key:  key(service, user),
		Data: []byte(password),
	})
}

func (k *KeyringStore) Delete(service, user string) error {
	ring, err := k.open()
	if err != nil {
		return err
	}
	if err := ring.Remove(key(service, user)); err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// MockStore is an in-memory Store for tests and offline runs.
type MockStore struct {
	mu    sync.Mutex
	items map[string]string
}

// NewMockStore creates an empty MockStore.
func NewMockStore() *MockStore {
	return &MockStore{items: make(map[string]string)}
}

// NewMockStoreWithCredentials creates a MockStore pre-populated with
// (service, user, password) triples.
func NewMockStoreWithCredentials(credentials [][3]string) *MockStore {
	m := NewMockStore()
	for _, c := range credentials {
		_ = m.Set(c[0], c[1], c[2])
	}
	return m
}

func (m *MockStore) Get(service, user string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.items[key(service, user)]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (m *MockStore) Set(service, user, password string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key(service, user)] = password
	return nil
}

func (m *MockStore) Delete(service, user string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := key(service, user)
	if _, ok := m.items[k]; !ok {
		return ErrNotFound
	}
	delete(m.items, k)
	return nil
}

// DefaultStore returns the production credential store (OS keychain).
func DefaultStore() Store {
	return NewKeyringStore("archive")
}
