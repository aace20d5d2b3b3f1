package broadcast

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/pscheid92/scorecast/internal/domain"
)

type fakeClient struct {
	id string

	mu       sync.Mutex
	received [][]byte
	sendErr  error
	closed   bool
}

func newFakeClient(id string) *fakeClient {
	return &fakeClient{id: id}
}

func (f *fakeClient) ID() string { return f.id }

func (f *fakeClient) Send(payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.received = append(f.received, payload)
	return nil
}

func (f *fakeClient) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeClient) failWith(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sendErr = err
}

func (f *fakeClient) messages() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]byte, len(f.received))
	copy(out, f.received)
	return out
}

func (f *fakeClient) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// memorySnapshots records every saved document.
type memorySnapshots struct {
	mu      sync.Mutex
	saved   []domain.Document
	saveErr error
}

func (m *memorySnapshots) Load(context.Context) (domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.saved) == 0 {
		return domain.DefaultDocument(), nil
	}
	return m.saved[len(m.saved)-1], nil
}

func (m *memorySnapshots) Save(_ context.Context, doc domain.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved = append(m.saved, doc)
	return nil
}

func (m *memorySnapshots) saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.saved)
}

func messageType(t *testing.T, payload []byte) domain.MessageType {
	t.Helper()
	var envelope struct {
		Type domain.MessageType `json:"type"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	return envelope.Type
}
