// Package chatclient implements the session-bound chat exchange with a remote
// chat backend: message submission, response rendering and keeping the
// backend-issued session identifier across calls.
package chatclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// Client mediates between a UI surface and the backend chat endpoint.
type Client struct {
	profile    EndpointProfile
	transport  Transport
	transcript Transcript

	input  InputSource
	domain DomainSource
	toggle ToggleSource

	session Session

	mu      sync.Mutex
	pending bool

	starts singleflight.Group
}

type Option func(*Client) error

func WithInputSource(in InputSource) Option {
	return func(c *Client) error {
		c.input = in
		return nil
	}
}

func WithDomainSource(d DomainSource) Option {
	return func(c *Client) error {
		c.domain = d
		return nil
	}
}

func WithToggleSource(t ToggleSource) Option {
	return func(c *Client) error {
		c.toggle = t
		return nil
	}
}

// WithSessionID resumes an existing session.
func WithSessionID(id Identifier) Option {
	return func(c *Client) error {
		c.session.establish(id)
		return nil
	}
}

func New(profile EndpointProfile, transport Transport, transcript Transcript, opts ...Option) (*Client, error) {
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	if transport == nil {
		return nil, errors.New("no transport provided to chat client")
	}
	if transcript == nil {
		return nil, errors.New("no transcript provided to chat client")
	}
	c := &Client{
		profile:    profile,
		transport:  transport,
		transcript: transcript,
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, errors.Wrap(err, "failed to apply client option")
		}
	}
	return c, nil
}

func (c *Client) Profile() EndpointProfile { return c.profile }

// SessionID returns the current identifier and whether one is established.
func (c *Client) SessionID() (Identifier, bool) { return c.session.ID() }

func (c *Client) State() State { return c.session.State() }

// Pending reports whether an exchange is in flight.
func (c *Client) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}

func (c *Client) begin() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending {
		return false
	}
	c.pending = true
	return true
}

func (c *Client) end() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = false
}

// SubmitFromInput reads the injected input, domain and toggle sources and
// submits the message. The input is cleared only once the submission holds the
// pending slot, so a rejected submission keeps the typed text.
func (c *Client) SubmitFromInput(ctx context.Context) error {
	if c.input == nil {
		return errors.New("no input source configured")
	}
	text := strings.TrimSpace(c.input.Text())
	if text == "" {
		return nil
	}
	if !c.begin() {
		return ErrSubmissionPending
	}
	defer c.end()
	c.input.Clear()

	var domain string
	if c.domain != nil {
		domain = c.domain.Domain()
	}
	useDomain := false
	if c.toggle != nil {
		useDomain = c.toggle.Enabled()
	}
	return c.submit(ctx, text, domain, useDomain)
}

// Submit sends text to the backend. Blank text is ignored. The user turn is
// appended before the request is issued. A failed exchange appends a single
// error turn and leaves the session identifier as it was; the returned error
// has already been rendered and is informational for the caller.
func (c *Client) Submit(ctx context.Context, text, domain string, useDomain bool) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if !c.begin() {
		return ErrSubmissionPending
	}
	defer c.end()
	return c.submit(ctx, text, domain, useDomain)
}

// submit runs one exchange. The caller holds the pending slot.
func (c *Client) submit(ctx context.Context, text, domain string, useDomain bool) error {
	c.transcript.Append(newTurn(RoleUser, text))

	reply, err := c.exchange(ctx, text, domain, useDomain)
	if err != nil {
		log.Debug().Err(err).
			Bool("transport_failure", IsTransportFailure(err)).
			Bool("decode_failure", IsDecodeFailure(err)).
			Msg("chatclient: exchange failed")
		c.transcript.Append(newErrorTurn())
		c.transcript.ScrollToEnd()
		return err
	}

	c.transcript.Append(newTurn(RoleBot, reply))
	c.transcript.ScrollToEnd()
	return nil
}

func (c *Client) exchange(ctx context.Context, text, domain string, useDomain bool) (string, error) {
	if c.profile.EnsureSession {
		if _, err := c.EnsureSession(ctx); err != nil {
			return "", err
		}
	}

	id, _ := c.session.ID()
	var domainValue any
	if domain = strings.TrimSpace(domain); domain != "" {
		domainValue = domain
	}
	body := map[string]any{
		c.profile.Request.ID:        id,
		c.profile.Request.Text:      text,
		c.profile.Request.Domain:    domainValue,
		c.profile.Request.UseDomain: useDomain,
	}

	resp, err := c.transport.Do(ctx, Call{
		Method:         http.MethodPost,
		Path:           c.profile.ChatPath,
		Body:           body,
		IdempotencyKey: uuid.NewString(),
	})
	if err != nil {
		return "", err
	}

	reply, err := decodeString(resp, c.profile.Response.Text)
	if err != nil {
		return "", err
	}

	// The identifier is only taken once the whole response has decoded, so
	// a malformed reply never moves the session.
	if f := c.profile.Response.ID; f != "" {
		if raw, ok := resp[f]; ok {
			var next Identifier
			if err := json.Unmarshal(raw, &next); err != nil {
				return "", &DecodeError{Field: f, Err: err}
			}
			if c.session.establish(next) {
				log.Debug().Str("session_id", next.String()).Msg("chatclient: session established")
			}
		}
	}
	return reply, nil
}

// EnsureSession creates a conversation when none exists yet. Concurrent
// callers share a single creation request.
func (c *Client) EnsureSession(ctx context.Context) (Identifier, error) {
	if id, ok := c.session.ID(); ok {
		return id, nil
	}
	v, err, _ := c.starts.Do("start", func() (any, error) {
		if id, ok := c.session.ID(); ok {
			return id, nil
		}
		return c.StartConversation(ctx, c.profile.StartTitle)
	})
	if err != nil {
		return Identifier{}, err
	}
	return v.(Identifier), nil
}

// StartConversation asks the backend for a new conversation and makes it the
// current session, replacing any previous one.
func (c *Client) StartConversation(ctx context.Context, title string) (Identifier, error) {
	if c.profile.StartPath == "" {
		return Identifier{}, errors.Wrap(ErrUnsupported, "start")
	}
	var body map[string]any
	if title != "" {
		body = map[string]any{"title": title}
	} else {
		body = map[string]any{}
	}
	resp, err := c.transport.Do(ctx, Call{
		Method: http.MethodPost,
		Path:   c.profile.StartPath,
		Body:   body,
	})
	if err != nil {
		return Identifier{}, err
	}

	raw, ok := resp[c.profile.StartIDField]
	if !ok {
		return Identifier{}, &DecodeError{Field: c.profile.StartIDField, Err: errors.New("missing")}
	}
	var id Identifier
	if err := json.Unmarshal(raw, &id); err != nil {
		return Identifier{}, &DecodeError{Field: c.profile.StartIDField, Err: err}
	}
	if id.IsZero() {
		return Identifier{}, &DecodeError{Field: c.profile.StartIDField, Err: errors.New("empty identifier")}
	}
	c.session.establish(id)
	log.Debug().Str("session_id", id.String()).Msg("chatclient: conversation started")
	return id, nil
}

// History fetches the stored messages of the current conversation.
func (c *Client) History(ctx context.Context) ([]HistoryEntry, error) {
	if c.profile.HistoryPath == "" {
		return nil, errors.Wrap(ErrUnsupported, "history")
	}
	id, ok := c.session.ID()
	if !ok {
		return nil, ErrNoSession
	}
	path := strings.ReplaceAll(c.profile.HistoryPath, "{id}", url.PathEscape(id.String()))
	resp, err := c.transport.Do(ctx, Call{Method: http.MethodGet, Path: path})
	if err != nil {
		return nil, err
	}
	raw, ok := resp["messages"]
	if !ok {
		return nil, &DecodeError{Field: "messages", Err: errors.New("missing")}
	}
	var entries []HistoryEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, &DecodeError{Field: "messages", Err: err}
	}
	return entries, nil
}

// AddDomainQA registers a question/answer pair for a domain.
func (c *Client) AddDomainQA(ctx context.Context, domain, question, answer string) (DomainQA, error) {
	if c.profile.DomainAddPath == "" {
		return DomainQA{}, errors.Wrap(ErrUnsupported, "domain add")
	}
	domain = strings.TrimSpace(domain)
	if domain == "" || strings.TrimSpace(question) == "" || strings.TrimSpace(answer) == "" {
		return DomainQA{}, errors.New("domain, question and answer are required")
	}
	resp, err := c.transport.Do(ctx, Call{
		Method: http.MethodPost,
		Path:   c.profile.DomainAddPath,
		Query: url.Values{
			"domain":   {domain},
			"question": {question},
			"answer":   {answer},
		},
	})
	if err != nil {
		return DomainQA{}, err
	}
	var out DomainQA
	if raw, ok := resp["id"]; ok {
		if err := json.Unmarshal(raw, &out.ID); err != nil {
			return DomainQA{}, &DecodeError{Field: "id", Err: err}
		}
	}
	out.Domain = domain
	if raw, ok := resp["domain"]; ok {
		if err := json.Unmarshal(raw, &out.Domain); err != nil {
			return DomainQA{}, &DecodeError{Field: "domain", Err: err}
		}
	}
	return out, nil
}

func decodeString(resp map[string]json.RawMessage, field string) (string, error) {
	raw, ok := resp[field]
	if !ok {
		return "", &DecodeError{Field: field, Err: errors.New("missing")}
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", &DecodeError{Field: field, Err: err}
	}
	return s, nil
}
