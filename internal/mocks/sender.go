package mocks

import (
	"context"
	"strings"
	"sync"

	"github.com/phrazzld/faros-api/internal/platform/email"
)

// RecordingSender implements email.Sender by keeping every message.
type RecordingSender struct {
	mu   sync.Mutex
	sent []email.Message

	// Err, when set, is returned from Send and nothing is recorded.
	Err error
}

var _ email.Sender = (*RecordingSender)(nil)

// Send implements email.Sender.
func (s *RecordingSender) Send(_ context.Context, msg email.Message) (bool, error) {
	if strings.TrimSpace(msg.To) == "" {
		return false, email.ErrEmptyRecipient
	}
	if s.Err != nil {
		return false, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, msg)
	return true, nil
}

// Sent returns a copy of the recorded messages.
func (s *RecordingSender) Sent() []email.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]email.Message(nil), s.sent...)
}
