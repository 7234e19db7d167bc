package cmds

import (
	"io"
	"os"

	"github.com/go-go-golems/parley/pkg/chatclient"
	"github.com/go-go-golems/parley/pkg/logging"
	"github.com/go-go-golems/parley/pkg/profiles"
	"github.com/go-go-golems/parley/pkg/settings"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// app carries what PersistentPreRunE resolved for the running subcommand.
type app struct {
	settings  *settings.Settings
	registry  *profiles.Registry
	logCloser io.Closer
}

func NewRootCommand() *cobra.Command {
	a := &app{}
	rootCmd := &cobra.Command{
		Use:           "parley",
		Short:         "parley is a terminal client for session-bound chat backends",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logCloser != nil {
				_ = a.logCloser.Close()
			}
		},
	}
	settings.AddFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(
		newChatCommand(a),
		newSendCommand(a),
		newStartCommand(a),
		newHistoryCommand(a),
		newDomainCommand(a),
		newProfilesCommand(a),
	)
	return rootCmd
}

func (a *app) init(cmd *cobra.Command) error {
	s, err := settings.Load(cmd.Flags())
	if err != nil {
		return err
	}
	a.settings = s

	closer, err := logging.Init(logging.Settings{
		Level:      s.LogLevel,
		Format:     s.LogFormat,
		File:       s.LogFile,
		WithCaller: s.WithCaller,
	}, os.Stderr)
	if err != nil {
		return err
	}
	a.logCloser = closer

	a.registry = profiles.NewRegistry()
	if err := a.registry.LoadDir(s.ProfilesDir); err != nil {
		return err
	}
	log.Debug().Str("profile", s.Profile).Str("profiles_dir", s.ProfilesDir).Msg("parley: settings loaded")
	return nil
}

// profile resolves the selected endpoint profile with flag overrides applied.
func (a *app) profile() (chatclient.EndpointProfile, error) {
	p, err := a.registry.Get(a.settings.Profile)
	if err != nil {
		return chatclient.EndpointProfile{}, err
	}
	if a.settings.BaseURL != "" {
		p.BaseURL = a.settings.BaseURL
	}
	if err := p.Validate(); err != nil {
		return chatclient.EndpointProfile{}, err
	}
	return p, nil
}

// newClient builds a client rendering into transcript. The returned transport
// should have its idle connections closed when the command finishes.
func (a *app) newClient(transcript chatclient.Transcript, opts ...chatclient.Option) (*chatclient.Client, *chatclient.HTTPTransport, error) {
	p, err := a.profile()
	if err != nil {
		return nil, nil, err
	}
	tr, err := chatclient.NewHTTPTransport(p.BaseURL, chatclient.WithTimeout(a.settings.Timeout))
	if err != nil {
		return nil, nil, err
	}
	if a.settings.SessionID != "" {
		opts = append(opts, chatclient.WithSessionID(p.SessionID(a.settings.SessionID)))
	}
	c, err := chatclient.New(p, tr, transcript, opts...)
	if err != nil {
		return nil, nil, errors.Wrap(err, "create chat client")
	}
	return c, tr, nil
}
