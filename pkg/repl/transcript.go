package repl

import (
	"fmt"
	"io"
	"sync"

	"github.com/go-go-golems/parley/pkg/chatclient"
)

// WriterTranscript prints each turn as a line. Scrolling is implicit.
type WriterTranscript struct {
	mu sync.Mutex
	w  io.Writer
}

var _ chatclient.Transcript = &WriterTranscript{}

func NewWriterTranscript(w io.Writer) *WriterTranscript {
	return &WriterTranscript{w: w}
}

func (t *WriterTranscript) Append(turn chatclient.Turn) {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, _ = fmt.Fprintf(t.w, "%s: %s\n", turn.Role, turn.Text)
}

func (t *WriterTranscript) ScrollToEnd() {}
