package chatclient

import (
	"bytes"
	"encoding/json"
	"sync"

	"github.com/pkg/errors"
)

// Identifier is the opaque session token issued by the backend. Backends may
// use JSON strings (user IDs) or numbers (conversation IDs); the original
// JSON type is kept so the value is echoed back unchanged.
type Identifier struct {
	value   string
	numeric bool
}

// NewIdentifier wraps a string identifier.
func NewIdentifier(v string) Identifier {
	return Identifier{value: v}
}

// ParseIdentifier interprets v as a number when it is a valid JSON number,
// otherwise as a string. Used for identifiers typed by a user on the CLI.
func ParseIdentifier(v string) Identifier {
	if v != "" && json.Valid([]byte(v)) {
		var n json.Number
		if err := json.Unmarshal([]byte(v), &n); err == nil {
			return Identifier{value: n.String(), numeric: true}
		}
	}
	return Identifier{value: v}
}

func (i Identifier) String() string { return i.value }

func (i Identifier) IsZero() bool { return i.value == "" }

func (i Identifier) MarshalJSON() ([]byte, error) {
	if i.value == "" {
		return []byte("null"), nil
	}
	if i.numeric {
		return []byte(i.value), nil
	}
	return json.Marshal(i.value)
}

func (i *Identifier) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*i = Identifier{}
		return nil
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*i = Identifier{value: s}
		return nil
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return errors.Errorf("identifier must be a string or number, got %s", string(b))
		}
		*i = Identifier{value: n.String(), numeric: true}
		return nil
	}
}

// State of the session identifier.
type State int

const (
	Unestablished State = iota
	Established
)

func (s State) String() string {
	switch s {
	case Established:
		return "established"
	default:
		return "unestablished"
	}
}

// Session holds the identifier for one client. There is no transition back
// to Unestablished; a new identifier only ever replaces an old one.
type Session struct {
	mu sync.RWMutex
	id Identifier
}

func (s *Session) ID() (Identifier, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.id, !s.id.IsZero()
}

func (s *Session) State() State {
	if _, ok := s.ID(); ok {
		return Established
	}
	return Unestablished
}

// establish stores id. Zero identifiers are ignored so that a response
// without an identifier never unsets the session.
func (s *Session) establish(id Identifier) bool {
	if id.IsZero() {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	changed := s.id != id
	s.id = id
	return changed
}
