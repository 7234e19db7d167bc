package ui

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-go-golems/parley/pkg/chatclient"
	"github.com/stretchr/testify/require"
)

type submission struct {
	Text      string
	Domain    string
	UseDomain bool
}

type fakeClient struct {
	mu          sync.Mutex
	profile     chatclient.EndpointProfile
	submissions []submission
	starts      int
	submitErr   error
}

func (f *fakeClient) Submit(ctx context.Context, text, domain string, useDomain bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submissions = append(f.submissions, submission{Text: text, Domain: domain, UseDomain: useDomain})
	return f.submitErr
}

func (f *fakeClient) StartConversation(ctx context.Context, title string) (chatclient.Identifier, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts++
	return chatclient.ParseIdentifier("5"), nil
}

func (f *fakeClient) SessionID() (chatclient.Identifier, bool) {
	return chatclient.Identifier{}, false
}

func (f *fakeClient) Profile() chatclient.EndpointProfile { return f.profile }

func newTestModel(t *testing.T, client *fakeClient, opts ...ModelOption) Model {
	t.Helper()
	opts = append([]ModelOption{
		WithMarkdownRenderer(func(s string) (string, error) { return s, nil }),
		WithClipboard(func(string) error { return nil }),
	}, opts...)
	m := NewModel(context.Background(), client, opts...)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	return next.(Model)
}

// collect runs cmd and every command batched inside it.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collect(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func press(m Model, k tea.KeyType) (Model, tea.Cmd) {
	next, cmd := m.Update(tea.KeyMsg{Type: k})
	return next.(Model), cmd
}

func findMsg[T any](msgs []tea.Msg) (T, bool) {
	for _, msg := range msgs {
		if v, ok := msg.(T); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

func TestModel_EnterSubmitsAndDisablesInput(t *testing.T) {
	client := &fakeClient{profile: chatclient.UserProfile()}
	m := newTestModel(t, client)

	m.input.SetValue("  Hello  ")
	m, cmd := press(m, tea.KeyEnter)
	require.True(t, m.Pending())
	require.Equal(t, "", m.input.Value())
	require.False(t, m.input.Focused())

	m.input.SetValue("again")
	m2, cmd2 := press(m, tea.KeyEnter)
	require.Nil(t, cmd2)
	require.Equal(t, "waiting for the previous reply", m2.Status())

	done, ok := findMsg[exchangeDoneMsg](collect(cmd))
	require.True(t, ok)
	require.Equal(t, []submission{{Text: "Hello"}}, client.submissions)

	next, _ := m2.Update(done)
	m = next.(Model)
	require.False(t, m.Pending())
	require.True(t, m.input.Focused())
}

func TestModel_BlankEnterIsNoop(t *testing.T) {
	client := &fakeClient{profile: chatclient.UserProfile()}
	m := newTestModel(t, client)

	m.input.SetValue("   ")
	m, cmd := press(m, tea.KeyEnter)
	require.Nil(t, cmd)
	require.False(t, m.Pending())
	require.Empty(t, client.submissions)
}

func TestModel_DomainPickerAndToggle(t *testing.T) {
	client := &fakeClient{profile: chatclient.UserProfile()}
	m := newTestModel(t, client, WithDomains([]string{"finance", " ", "healthcare"}))
	require.Equal(t, "", m.Domain())

	m, _ = press(m, tea.KeyTab)
	require.Equal(t, "finance", m.Domain())
	m, _ = press(m, tea.KeyTab)
	require.Equal(t, "healthcare", m.Domain())
	m, _ = press(m, tea.KeyTab)
	require.Equal(t, "", m.Domain())
	m, _ = press(m, tea.KeyTab)
	m, _ = press(m, tea.KeyCtrlT)

	m.input.SetValue("rates?")
	_, cmd := press(m, tea.KeyEnter)
	collect(cmd)
	require.Equal(t, []submission{{Text: "rates?", Domain: "finance", UseDomain: true}}, client.submissions)
}

func TestModel_WithDomainPreselects(t *testing.T) {
	client := &fakeClient{profile: chatclient.UserProfile()}
	m := newTestModel(t, client, WithDomains([]string{"finance"}), WithDomain("legal", true))
	require.Equal(t, "legal", m.Domain())
	require.True(t, m.useDomain)
}

func TestModel_TurnsAreAppendedInOrder(t *testing.T) {
	client := &fakeClient{profile: chatclient.UserProfile()}
	m := newTestModel(t, client)

	for _, turn := range []chatclient.Turn{
		{ID: "1", Role: chatclient.RoleUser, Text: "Hello"},
		{ID: "2", Role: chatclient.RoleBot, Text: "Hi!"},
		{ID: "3", Role: chatclient.RoleUser, Text: "test"},
		{ID: "4", Role: chatclient.RoleBot, Text: chatclient.ErrorText, Error: true},
	} {
		next, _ := m.Update(TurnMsg{Turn: turn})
		m = next.(Model)
	}
	next, _ := m.Update(ScrollMsg{})
	m = next.(Model)

	require.Len(t, m.Turns(), 4)
	require.True(t, m.viewport.AtBottom())
	content := m.transcriptView()
	require.Less(t, strings.Index(content, "Hello"), strings.Index(content, "Hi!"))
	require.Less(t, strings.Index(content, "Hi!"), strings.Index(content, chatclient.ErrorText))
	require.Contains(t, m.View(), "parley · user")
}

func TestModel_CopyLastReplySkipsErrors(t *testing.T) {
	var copied string
	client := &fakeClient{profile: chatclient.UserProfile()}
	m := newTestModel(t, client, WithClipboard(func(s string) error {
		copied = s
		return nil
	}))

	m, cmd := press(m, tea.KeyCtrlY)
	require.Nil(t, cmd)
	require.Equal(t, "nothing to copy yet", m.Status())

	for _, turn := range []chatclient.Turn{
		{ID: "1", Role: chatclient.RoleBot, Text: "answer"},
		{ID: "2", Role: chatclient.RoleBot, Text: chatclient.ErrorText, Error: true},
	} {
		next, _ := m.Update(TurnMsg{Turn: turn})
		m = next.(Model)
	}
	m, cmd = press(m, tea.KeyCtrlY)
	msg, ok := findMsg[copiedMsg](collect(cmd))
	require.True(t, ok)
	require.Equal(t, "answer", copied)

	next, _ := m.Update(msg)
	require.Equal(t, "copied last reply", next.(Model).Status())
}

func TestModel_NewConversation(t *testing.T) {
	client := &fakeClient{profile: chatclient.UserProfile()}
	m := newTestModel(t, client)
	m, cmd := press(m, tea.KeyCtrlN)
	require.Nil(t, cmd)
	require.Equal(t, 0, client.starts)

	client = &fakeClient{profile: chatclient.ConversationProfile()}
	m = newTestModel(t, client)
	m, cmd = press(m, tea.KeyCtrlN)
	msg, ok := findMsg[conversationStartedMsg](collect(cmd))
	require.True(t, ok)
	require.Equal(t, 1, client.starts)

	next, _ := m.Update(msg)
	require.Equal(t, "started conversation #5", next.(Model).Status())
}

func fillTranscript(t *testing.T, m Model, n int) Model {
	t.Helper()
	for i := 0; i < n; i++ {
		next, _ := m.Update(TurnMsg{Turn: chatclient.Turn{
			ID:   fmt.Sprint(i),
			Role: chatclient.RoleUser,
			Text: fmt.Sprintf("message %d", i),
		}})
		m = next.(Model)
	}
	next, _ := m.Update(ScrollMsg{})
	return next.(Model)
}

func TestModel_TypingDoesNotScrollTranscript(t *testing.T) {
	client := &fakeClient{profile: chatclient.UserProfile()}
	m := fillTranscript(t, newTestModel(t, client), 40)
	require.True(t, m.viewport.AtBottom())
	require.Greater(t, m.viewport.YOffset, 0)

	for _, r := range "kkkkbu jd" {
		next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		m = next.(Model)
	}
	require.Equal(t, "kkkkbu jd", m.input.Value())
	require.True(t, m.viewport.AtBottom())

	m, _ = press(m, tea.KeyPgUp)
	require.False(t, m.viewport.AtBottom())
}

func TestModel_NewTurnFollowsWhenAtBottom(t *testing.T) {
	client := &fakeClient{profile: chatclient.UserProfile()}
	m := fillTranscript(t, newTestModel(t, client), 40)

	next, _ := m.Update(TurnMsg{Turn: chatclient.Turn{ID: "u", Role: chatclient.RoleUser, Text: "latest"}})
	m = next.(Model)
	require.True(t, m.viewport.AtBottom())
	require.Contains(t, m.viewport.View(), "latest")

	m, _ = press(m, tea.KeyPgUp)
	offset := m.viewport.YOffset
	next, _ = m.Update(TurnMsg{Turn: chatclient.Turn{ID: "b", Role: chatclient.RoleBot, Text: "reply"}})
	m = next.(Model)
	require.False(t, m.viewport.AtBottom())
	require.Equal(t, offset, m.viewport.YOffset)
}

func TestProgramTranscript_DropsWhenDetached(t *testing.T) {
	pt := NewProgramTranscript()
	require.NotPanics(t, func() {
		pt.Append(chatclient.Turn{Role: chatclient.RoleUser, Text: "x"})
		pt.ScrollToEnd()
	})
}

// recorder keeps the transcript messages it receives and quits on scroll.
type recorder struct {
	turns    []string
	scrolled bool
}

func (r recorder) Init() tea.Cmd { return nil }

func (r recorder) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case TurnMsg:
		r.turns = append(r.turns, msg.Turn.Text)
	case ScrollMsg:
		r.scrolled = true
		return r, tea.Quit
	}
	return r, nil
}

func (r recorder) View() string { return "" }

func TestProgramTranscript_DeliversToAttachedProgram(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	p := tea.NewProgram(recorder{},
		tea.WithContext(ctx),
		tea.WithInput(nil),
		tea.WithOutput(io.Discard),
		tea.WithoutRenderer(),
		tea.WithoutSignalHandler(),
	)
	pt := NewProgramTranscript()
	pt.Attach(p)

	type result struct {
		model tea.Model
		err   error
	}
	done := make(chan result, 1)
	go func() {
		m, err := p.Run()
		done <- result{m, err}
	}()

	pt.Append(chatclient.Turn{Role: chatclient.RoleUser, Text: "Hello"})
	pt.Append(chatclient.Turn{Role: chatclient.RoleBot, Text: "Hi!"})
	pt.ScrollToEnd()

	res := <-done
	require.NoError(t, res.err)
	got := res.model.(recorder)
	require.Equal(t, []string{"Hello", "Hi!"}, got.turns)
	require.True(t, got.scrolled)
}
