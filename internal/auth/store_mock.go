package auth

import (
	"context"
	"sync"
)

// MockStore is an in-memory implementation of Store for testing.
type MockStore struct {
	cred *Credential
	mu   sync.Mutex

	// Track method calls for assertions
	LoadCalls  int
	SaveCalls  int
	CloseCalls int

	// Optional error injection for testing error paths
	LoadError error
	SaveError error
}

// NewMockStore creates a new MockStore, optionally pre-populated.
func NewMockStore(initial *Credential) *MockStore {
	return &MockStore{cred: initial.Clone()}
}

// Load returns the stored credential.
func (m *MockStore) Load(ctx context.Context) (*Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.LoadCalls++

	if m.LoadError != nil {
		return nil, m.LoadError
	}
	if m.cred == nil {
		return nil, ErrCredentialNotFound
	}
	return m.cred.Clone(), nil
}

// Save stores a copy of the credential.
func (m *MockStore) Save(ctx context.Context, cred *Credential) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.SaveCalls++

	if m.SaveError != nil {
		return m.SaveError
	}
	m.cred = cred.Clone()
	return nil
}

// Close counts calls.
func (m *MockStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CloseCalls++
	return nil
}

// Stored returns a copy of the current credential, or nil.
func (m *MockStore) Stored() *Credential {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.cred.Clone()
}

// Ensure MockStore implements Store.
var _ Store = (*MockStore)(nil)
