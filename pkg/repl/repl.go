// Package repl is the line-oriented surface of parley, used when stdin is not
// a terminal or a full-screen UI is not wanted.
package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/go-go-golems/parley/pkg/chatclient"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

type REPL struct {
	client *chatclient.Client
	input  *chatclient.StaticInput
	out    io.Writer
	prompt string
}

// New wires client to input, which must also be the client's input, domain
// and toggle source.
func New(client *chatclient.Client, input *chatclient.StaticInput, out io.Writer, prompt string) *REPL {
	return &REPL{client: client, input: input, out: out, prompt: prompt}
}

// Run reads one message per line until EOF, /quit or ctx is done. Lines
// starting with "/" are commands.
func (r *REPL) Run(ctx context.Context, in io.Reader) error {
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for {
		if r.prompt != "" {
			_, _ = fmt.Fprint(r.out, r.prompt)
		}
		if !sc.Scan() {
			return errors.Wrap(sc.Err(), "read input")
		}
		if err := ctx.Err(); err != nil {
			return nil
		}
		line := strings.TrimSpace(sc.Text())
		if strings.HasPrefix(line, "/") {
			quit, err := r.command(ctx, line)
			if err != nil {
				_, _ = fmt.Fprintf(r.out, "error: %v\n", err)
			}
			if quit {
				return nil
			}
			continue
		}

		r.input.SetText(line)
		if err := r.client.SubmitFromInput(ctx); err != nil {
			// already rendered as an error turn
			log.Debug().Err(err).Msg("repl: submission failed")
		}
	}
}

func (r *REPL) command(ctx context.Context, line string) (bool, error) {
	name, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)
	switch name {
	case "/quit", "/exit":
		return true, nil
	case "/session":
		if id, ok := r.client.SessionID(); ok {
			_, _ = fmt.Fprintf(r.out, "session: %s\n", id)
		} else {
			_, _ = fmt.Fprintln(r.out, "session: none")
		}
	case "/domain":
		r.input.SetDomain(arg)
		_, _ = fmt.Fprintf(r.out, "domain: %s\n", orNone(arg))
	case "/use-domain":
		switch arg {
		case "on", "true", "yes":
			r.input.SetEnabled(true)
		case "off", "false", "no":
			r.input.SetEnabled(false)
		default:
			return false, errors.Errorf("usage: /use-domain on|off")
		}
		_, _ = fmt.Fprintf(r.out, "use domain: %t\n", r.input.Enabled())
	case "/new":
		title := arg
		if title == "" {
			title = r.client.Profile().StartTitle
		}
		id, err := r.client.StartConversation(ctx, title)
		if err != nil {
			return false, err
		}
		_, _ = fmt.Fprintf(r.out, "started conversation #%s\n", id)
	case "/history":
		entries, err := r.client.History(ctx)
		if err != nil {
			return false, err
		}
		for _, e := range entries {
			_, _ = fmt.Fprintf(r.out, "[%s] %s: %s\n", e.Timestamp, e.Role, e.Content)
		}
	case "/help":
		_, _ = fmt.Fprintln(r.out, "commands: /session /domain [tag] /use-domain on|off /new [title] /history /quit")
	default:
		return false, errors.Errorf("unknown command %s (try /help)", name)
	}
	return false, nil
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}
