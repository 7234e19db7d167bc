package chatclient

import (
	"time"

	"github.com/google/uuid"
)

// Role attributes a turn to one side of the conversation.
type Role string

const (
	RoleUser Role = "user"
	RoleBot  Role = "bot"
)

// ErrorText is the bot turn rendered when an exchange fails, whatever the cause.
const ErrorText = "Error: Could not reach backend"

// Turn is one rendered unit of the transcript. Turns are never mutated once
// appended.
type Turn struct {
	ID        string
	Role      Role
	Text      string
	CreatedAt time.Time
	// Error marks bot turns produced by a failed exchange.
	Error bool
}

func newTurn(role Role, text string) Turn {
	return Turn{
		ID:        uuid.NewString(),
		Role:      role,
		Text:      text,
		CreatedAt: time.Now(),
	}
}

func newErrorTurn() Turn {
	t := newTurn(RoleBot, ErrorText)
	t.Error = true
	return t
}

// HistoryEntry is one stored message returned by the history endpoint.
type HistoryEntry struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

// DomainQA is the record returned after registering a domain question/answer pair.
type DomainQA struct {
	ID     Identifier `json:"id"`
	Domain string     `json:"domain"`
}
