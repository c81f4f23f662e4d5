package testutil

import (
	"context"
	"errors"
	"io"
	"sync"

	"communityhub/internal/mailer"
)

// ErrStubFailure is returned by stubs configured to fail.
var ErrStubFailure = errors.New("stub failure")

// MemoryFileStore keeps uploaded bytes in memory.
type MemoryFileStore struct {
	mu       sync.Mutex
	files    map[string][]byte
	FailSave bool
}

// NewMemoryFileStore creates an empty MemoryFileStore.
func NewMemoryFileStore() *MemoryFileStore {
	return &MemoryFileStore{files: make(map[string][]byte)}
}

// Save stores the reader's bytes under name.
func (s *MemoryFileStore) Save(_ context.Context, name string, r io.Reader) (string, error) {
	if s.FailSave {
		return "", ErrStubFailure
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[name] = data
	return "/uploads/" + name, nil
}

// Remove drops name; missing names are ignored.
func (s *MemoryFileStore) Remove(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.files, name)
	return nil
}

// Has reports whether name is stored.
func (s *MemoryFileStore) Has(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.files[name]
	return ok
}

// Len returns the number of stored files.
func (s *MemoryFileStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.files)
}

// Bytes returns the stored content for name.
func (s *MemoryFileStore) Bytes(name string) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.files[name]
}

// RecordingMailer captures sent messages.
type RecordingMailer struct {
	mu   sync.Mutex
	sent []mailer.Message
	Err  error
}

// Send records msg and returns Err.
func (m *RecordingMailer) Send(_ context.Context, msg mailer.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return m.Err
}

// Sent returns a copy of the recorded messages.
func (m *RecordingMailer) Sent() []mailer.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mailer.Message(nil), m.sent...)
}

// Last returns the most recent message, if any.
func (m *RecordingMailer) Last() (mailer.Message, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return mailer.Message{}, false
	}
	return m.sent[len(m.sent)-1], true
}
