package chatclient

import (
	"strings"

	"github.com/pkg/errors"
)

// RequestFields names the JSON fields of an outgoing chat request.
type RequestFields struct {
	ID        string `yaml:"id_field" json:"id_field"`
	Text      string `yaml:"text_field" json:"text_field"`
	Domain    string `yaml:"domain_field" json:"domain_field"`
	UseDomain string `yaml:"use_domain_field" json:"use_domain_field"`
}

// ResponseFields names the JSON fields of an incoming chat response.
type ResponseFields struct {
	ID   string `yaml:"id_field" json:"id_field"`
	Text string `yaml:"text_field" json:"text_field"`
}

// EndpointProfile describes one backend variant: where its endpoints live and
// how its request and response bodies are spelled.
type EndpointProfile struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	BaseURL     string `yaml:"base_url" json:"base_url"`

	ChatPath      string `yaml:"chat_path" json:"chat_path"`
	StartPath     string `yaml:"start_path,omitempty" json:"start_path,omitempty"`
	HistoryPath   string `yaml:"history_path,omitempty" json:"history_path,omitempty"`
	DomainAddPath string `yaml:"domain_add_path,omitempty" json:"domain_add_path,omitempty"`

	// EnsureSession makes the client create a conversation through StartPath
	// before the first chat request.
	EnsureSession bool   `yaml:"ensure_session,omitempty" json:"ensure_session,omitempty"`
	StartTitle    string `yaml:"start_title,omitempty" json:"start_title,omitempty"`
	StartIDField  string `yaml:"start_id_field,omitempty" json:"start_id_field,omitempty"`
	// NumericID marks backends whose session identifiers are JSON numbers.
	NumericID bool `yaml:"numeric_id,omitempty" json:"numeric_id,omitempty"`

	Request  RequestFields  `yaml:"request" json:"request"`
	Response ResponseFields `yaml:"response" json:"response"`
}

// UserProfile talks to backends that hand out a user ID on the first reply.
func UserProfile() EndpointProfile {
	return EndpointProfile{
		Name:        "user",
		Description: "user-scoped memory; the backend assigns user_id on first reply",
		BaseURL:     "http://localhost:8000",
		ChatPath:    "/chat/",
		Request: RequestFields{
			ID:        "user_id",
			Text:      "question",
			Domain:    "domain",
			UseDomain: "use_domain",
		},
		Response: ResponseFields{
			ID:   "user_id",
			Text: "response",
		},
	}
}

// ConversationProfile talks to backends that create conversations up front.
func ConversationProfile() EndpointProfile {
	return EndpointProfile{
		Name:          "conversation",
		Description:   "explicit conversations created through /start",
		BaseURL:       "http://127.0.0.1:8000",
		ChatPath:      "/chat",
		StartPath:     "/start",
		HistoryPath:   "/history/{id}",
		DomainAddPath: "/domain/add",
		EnsureSession: true,
		StartTitle:    "New Conversation",
		StartIDField:  "conversation_id",
		NumericID:     true,
		Request: RequestFields{
			ID:        "conversation_id",
			Text:      "message",
			Domain:    "domain",
			UseDomain: "use_domain",
		},
		Response: ResponseFields{
			Text: "response",
		},
	}
}

// SessionID turns a user-supplied identifier into the JSON type the backend
// expects. Only profiles with NumericID read digits as a number.
func (p EndpointProfile) SessionID(v string) Identifier {
	if p.NumericID {
		return ParseIdentifier(v)
	}
	return NewIdentifier(v)
}

// Validate checks that every field the client relies on is present.
func (p EndpointProfile) Validate() error {
	var missing []string
	check := func(name, v string) {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, name)
		}
	}
	check("name", p.Name)
	check("base_url", p.BaseURL)
	check("chat_path", p.ChatPath)
	check("request.id_field", p.Request.ID)
	check("request.text_field", p.Request.Text)
	check("request.domain_field", p.Request.Domain)
	check("request.use_domain_field", p.Request.UseDomain)
	check("response.text_field", p.Response.Text)
	if p.EnsureSession {
		check("start_path", p.StartPath)
		check("start_id_field", p.StartIDField)
	}
	if p.StartPath != "" {
		check("start_id_field", p.StartIDField)
	}
	if p.HistoryPath != "" && !strings.Contains(p.HistoryPath, "{id}") {
		return errors.Errorf("profile %q: history_path must contain {id}", p.Name)
	}
	if len(missing) > 0 {
		return errors.Errorf("profile %q: missing %s", p.Name, strings.Join(dedupe(missing), ", "))
	}
	return nil
}

func dedupe(in []string) []string {
	seen := map[string]bool{}
	out := in[:0]
	for _, s := range in {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
