package session

import (
	"sync"
	"time"
)

// Level classifies a status message.
type Level string

const (
	LevelNone    Level = ""
	LevelBusy    Level = "busy"
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// StatusMessage is the user-visible save/upload status.
type StatusMessage struct {
	Text    string    `json:"text"`
	Level   Level     `json:"level"`
	Expires time.Time `json:"expires,omitempty"`
}

// Status is a single message slot that clears itself after a TTL.
type Status struct {
	mu      sync.Mutex
	msg     StatusMessage
	now     func() time.Time
	onSet   func(StatusMessage)
	expires bool
}

func newStatus(now func() time.Time) *Status {
	if now == nil {
		now = time.Now
	}
	return &Status{now: now}
}

// Set replaces the current message. A zero ttl keeps it until the next Set.
func (s *Status) Set(text string, level Level, ttl time.Duration) {
	s.mu.Lock()
	s.msg = StatusMessage{Text: text, Level: level}
	s.expires = ttl > 0
	if s.expires {
		s.msg.Expires = s.now().Add(ttl)
	}
	msg, hook := s.msg, s.onSet
	s.mu.Unlock()
	if hook != nil {
		hook(msg)
	}
}

// Current returns the message, or an empty one once it has expired.
func (s *Status) Current() StatusMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.expires && !s.now().Before(s.msg.Expires) {
		s.msg = StatusMessage{}
		s.expires = false
	}
	return s.msg
}

// Clear empties the slot.
func (s *Status) Clear() {
	s.mu.Lock()
	s.msg = StatusMessage{}
	s.expires = false
	s.mu.Unlock()
}
