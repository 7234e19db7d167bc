// Package ui is the full-screen terminal surface of parley: an input box, a
// domain picker with its on/off toggle, and an append-only transcript.
package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/go-go-golems/parley/pkg/chatclient"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// ChatClient is the part of chatclient.Client the UI drives.
type ChatClient interface {
	Submit(ctx context.Context, text, domain string, useDomain bool) error
	StartConversation(ctx context.Context, title string) (chatclient.Identifier, error)
	SessionID() (chatclient.Identifier, bool)
	Profile() chatclient.EndpointProfile
}

type exchangeDoneMsg struct{ err error }

type conversationStartedMsg struct {
	id  chatclient.Identifier
	err error
}

type copiedMsg struct{ err error }

type Model struct {
	ctx    context.Context
	client ChatClient

	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model

	turns    []chatclient.Turn
	rendered map[string]string

	domains   []string
	domainIdx int
	useDomain bool

	pending bool
	status  string
	ready   bool
	width   int
	height  int

	renderMarkdown func(string) (string, error)
	copyToClip     func(string) error
}

type ModelOption func(*Model)

// WithDomains sets the tags the domain picker cycles through.
func WithDomains(domains []string) ModelOption {
	return func(m *Model) {
		m.domains = nil
		for _, d := range domains {
			if d = strings.TrimSpace(d); d != "" {
				m.domains = append(m.domains, d)
			}
		}
	}
}

// WithDomain preselects a domain; unknown tags are added to the picker.
func WithDomain(domain string, enabled bool) ModelOption {
	return func(m *Model) {
		m.useDomain = enabled
		domain = strings.TrimSpace(domain)
		if domain == "" {
			return
		}
		for i, d := range m.domains {
			if d == domain {
				m.domainIdx = i
				return
			}
		}
		m.domains = append(m.domains, domain)
		m.domainIdx = len(m.domains) - 1
	}
}

func WithMarkdownRenderer(fn func(string) (string, error)) ModelOption {
	return func(m *Model) { m.renderMarkdown = fn }
}

func WithClipboard(fn func(string) error) ModelOption {
	return func(m *Model) { m.copyToClip = fn }
}

func NewModel(ctx context.Context, client ChatClient, opts ...ModelOption) Model {
	ti := textinput.New()
	ti.Placeholder = "Type your message"
	ti.Prompt = "> "
	ti.CharLimit = 4000
	ti.Focus()

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))

	m := Model{
		ctx:       ctx,
		client:    client,
		input:     ti,
		spinner:   sp,
		rendered:  map[string]string{},
		domainIdx: -1,
		renderMarkdown: func(s string) (string, error) {
			return glamour.Render(s, "dark")
		},
		copyToClip: clipboard.WriteAll,
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Domain is the selected tag, "" when none.
func (m Model) Domain() string {
	if m.domainIdx < 0 || m.domainIdx >= len(m.domains) {
		return ""
	}
	return m.domains[m.domainIdx]
}

func (m Model) Turns() []chatclient.Turn { return m.turns }

func (m Model) Pending() bool { return m.pending }

func (m Model) Status() string { return m.status }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "enter":
			return m.submit()
		case "tab":
			m.domainIdx++
			if m.domainIdx >= len(m.domains) {
				m.domainIdx = -1
			}
			return m, nil
		case "ctrl+t":
			m.useDomain = !m.useDomain
			return m, nil
		case "ctrl+n":
			return m.newConversation()
		case "ctrl+y":
			return m.copyLastReply()
		case "pgup", "pgdown":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
		// The viewport binds letters such as j and k, so typing stays in the input.
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		w, h := m.viewportSize()
		if !m.ready {
			m.viewport = viewport.New(w, h)
			m.ready = true
		} else {
			m.viewport.Width = w
			m.viewport.Height = h
		}
		m.input.Width = max(10, msg.Width-4)
		m.refresh()

	case TurnMsg:
		follow := m.ready && m.viewport.AtBottom()
		m.turns = append(m.turns, msg.Turn)
		m.refresh()
		if follow {
			m.viewport.GotoBottom()
		}
		return m, nil

	case ScrollMsg:
		if m.ready {
			m.viewport.GotoBottom()
		}
		return m, nil

	case exchangeDoneMsg:
		m.pending = false
		m.status = ""
		if msg.err != nil {
			if errors.Is(msg.err, chatclient.ErrSubmissionPending) {
				m.status = "waiting for the previous reply"
			} else {
				log.Debug().Err(msg.err).Msg("ui: exchange failed")
			}
		}
		return m, m.input.Focus()

	case conversationStartedMsg:
		if msg.err != nil {
			m.status = "could not start a new conversation"
			log.Debug().Err(msg.err).Msg("ui: start conversation failed")
		} else {
			m.status = fmt.Sprintf("started conversation #%s", msg.id)
		}
		return m, nil

	case copiedMsg:
		if msg.err != nil {
			m.status = "clipboard unavailable"
			log.Debug().Err(msg.err).Msg("ui: clipboard write failed")
		} else {
			m.status = "copied last reply"
		}
		return m, nil

	case spinner.TickMsg:
		if !m.pending {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	if m.ready {
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return m, nil
	}
	if m.pending {
		m.status = "waiting for the previous reply"
		return m, nil
	}
	m.input.Reset()
	m.input.Blur()
	m.pending = true
	m.status = ""

	ctx, client := m.ctx, m.client
	domain, useDomain := m.Domain(), m.useDomain
	submit := func() tea.Msg {
		return exchangeDoneMsg{err: client.Submit(ctx, text, domain, useDomain)}
	}
	return m, tea.Batch(submit, m.spinner.Tick)
}

func (m Model) newConversation() (tea.Model, tea.Cmd) {
	if m.client.Profile().StartPath == "" {
		m.status = "this backend has no conversations to start"
		return m, nil
	}
	if m.pending {
		m.status = "waiting for the previous reply"
		return m, nil
	}
	ctx, client := m.ctx, m.client
	title := client.Profile().StartTitle
	return m, func() tea.Msg {
		id, err := client.StartConversation(ctx, title)
		return conversationStartedMsg{id: id, err: err}
	}
}

func (m Model) copyLastReply() (tea.Model, tea.Cmd) {
	var last string
	for i := len(m.turns) - 1; i >= 0; i-- {
		if m.turns[i].Role == chatclient.RoleBot && !m.turns[i].Error {
			last = m.turns[i].Text
			break
		}
	}
	if last == "" {
		m.status = "nothing to copy yet"
		return m, nil
	}
	copyFn := m.copyToClip
	return m, func() tea.Msg {
		return copiedMsg{err: copyFn(last)}
	}
}

func (m Model) viewportSize() (int, int) {
	// header, input line, status line and the pane border
	const chrome = 1 + 1 + 1 + 2
	return max(10, m.width-2), max(3, m.height-chrome)
}

func (m *Model) refresh() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.transcriptView())
}

func (m *Model) transcriptView() string {
	var sb strings.Builder
	for i, t := range m.turns {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(m.renderTurn(t))
	}
	return sb.String()
}

func (m *Model) renderTurn(t chatclient.Turn) string {
	switch {
	case t.Role == chatclient.RoleUser:
		return userLabelStyle.Render("you") + "\n" + userTextStyle.Render(t.Text)
	case t.Error:
		return botLabelStyle.Render("bot") + "\n" + errorTextStyle.Render(t.Text)
	}
	body, ok := m.rendered[t.ID]
	if !ok {
		out, err := m.renderMarkdown(t.Text)
		if err != nil {
			log.Debug().Err(err).Msg("ui: markdown rendering failed")
			out = userTextStyle.Render(t.Text)
		}
		body = strings.TrimRight(out, "\n")
		m.rendered[t.ID] = body
	}
	return botLabelStyle.Render("bot") + "\n" + body
}

func (m Model) header() string {
	p := m.client.Profile()
	session := "no session"
	if id, ok := m.client.SessionID(); ok {
		session = "session " + id.String()
	}
	domain := m.Domain()
	if domain == "" {
		domain = "none"
	}
	toggle := "off"
	if m.useDomain {
		toggle = "on"
	}
	return lipgloss.JoinHorizontal(lipgloss.Top,
		headerStyle.Render("parley · "+p.Name),
		headerInfoStyle.Render(fmt.Sprintf("%s · domain %s (%s)", session, domain, toggle)),
	)
}

func (m Model) View() string {
	if !m.ready {
		return "\n  Initializing..."
	}
	status := helpStyle.Render("enter send · tab domain · ctrl+t toggle domain · ctrl+n new · ctrl+y copy · esc quit")
	if m.pending {
		status = m.spinner.View() + " " + statusStyle.Render("waiting for reply")
	} else if m.status != "" {
		status = statusStyle.Render(m.status)
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		m.header(),
		transcriptPane.Render(m.viewport.View()),
		m.input.View(),
		status,
	)
}
