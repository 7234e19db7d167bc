package chatclient

import "sync"

// Transcript is the append-only display surface for turns.
type Transcript interface {
	// Append adds turn at the end. Earlier turns are never touched.
	Append(turn Turn)
	ScrollToEnd()
}

// InputSource yields the message being composed and lets the client clear it.
type InputSource interface {
	Text() string
	Clear()
}

// DomainSource yields the selected domain tag, or "" for none.
type DomainSource interface {
	Domain() string
}

// ToggleSource reports whether domain context applies.
type ToggleSource interface {
	Enabled() bool
}

// MemoryTranscript keeps turns in memory. It is safe for concurrent use.
type MemoryTranscript struct {
	mu       sync.Mutex
	turns    []Turn
	scrolled int
}

var _ Transcript = &MemoryTranscript{}

func NewMemoryTranscript() *MemoryTranscript {
	return &MemoryTranscript{}
}

func (m *MemoryTranscript) Append(turn Turn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.turns = append(m.turns, turn)
}

func (m *MemoryTranscript) ScrollToEnd() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scrolled = len(m.turns)
}

// Turns returns a copy of the transcript.
func (m *MemoryTranscript) Turns() []Turn {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Turn, len(m.turns))
	copy(out, m.turns)
	return out
}

// ScrolledTo returns the number of turns visible at the last ScrollToEnd.
func (m *MemoryTranscript) ScrolledTo() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.scrolled
}

// TranscriptFuncs adapts plain functions to Transcript. The zero value
// discards every turn.
type TranscriptFuncs struct {
	AppendFunc func(Turn)
	ScrollFunc func()
}

func (f TranscriptFuncs) Append(turn Turn) {
	if f.AppendFunc != nil {
		f.AppendFunc(turn)
	}
}

func (f TranscriptFuncs) ScrollToEnd() {
	if f.ScrollFunc != nil {
		f.ScrollFunc()
	}
}

// StaticInput is an InputSource, DomainSource and ToggleSource holding plain
// values, for callers without an interactive surface.
type StaticInput struct {
	mu        sync.Mutex
	text      string
	domain    string
	useDomain bool
}

func NewStaticInput(text, domain string, useDomain bool) *StaticInput {
	return &StaticInput{text: text, domain: domain, useDomain: useDomain}
}

func (s *StaticInput) SetText(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.text = text
}

func (s *StaticInput) Text() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.text
}

func (s *StaticInput) Clear() { s.SetText("") }

func (s *StaticInput) Domain() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.domain
}

func (s *StaticInput) SetDomain(domain string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.domain = domain
}

func (s *StaticInput) SetEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.useDomain = enabled
}

func (s *StaticInput) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.useDomain
}
