package ui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-go-golems/parley/pkg/chatclient"
	"github.com/rs/zerolog/log"
)

// TurnMsg carries a turn appended by the chat client into the program.
type TurnMsg struct {
	Turn chatclient.Turn
}

// ScrollMsg asks the transcript viewport to jump to the newest turn.
type ScrollMsg struct{}

// ProgramTranscript is the chatclient.Transcript of a running bubbletea
// program. Appends are delivered as messages, so the model stays owned by the
// program's event loop.
type ProgramTranscript struct {
	mu sync.Mutex
	p  *tea.Program
}

var _ chatclient.Transcript = &ProgramTranscript{}

func NewProgramTranscript() *ProgramTranscript {
	return &ProgramTranscript{}
}

func (t *ProgramTranscript) Attach(p *tea.Program) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.p = p
}

func (t *ProgramTranscript) send(msg tea.Msg) {
	t.mu.Lock()
	p := t.p
	t.mu.Unlock()
	if p == nil {
		log.Warn().Msg("ui: transcript not attached to a program, dropping update")
		return
	}
	p.Send(msg)
}

func (t *ProgramTranscript) Append(turn chatclient.Turn) {
	t.send(TurnMsg{Turn: turn})
}

func (t *ProgramTranscript) ScrollToEnd() {
	t.send(ScrollMsg{})
}
