package cmds

import (
	"os"

	"github.com/go-go-golems/parley/pkg/chatclient"
	"github.com/go-go-golems/parley/pkg/logging"
	"github.com/go-go-golems/parley/pkg/repl"
	"github.com/go-go-golems/parley/pkg/ui"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

func newChatCommand(a *app) *cobra.Command {
	var (
		lineMode   bool
		pickDomain bool
	)
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat interactively with the backend",
		Long: "Opens a full-screen chat when attached to a terminal, and a line-oriented " +
			"session otherwise (one message per input line, /help for commands).",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := a.settings
			domain, useDomain := s.Domain, s.UseDomain
			if pickDomain {
				picked, err := chooseDomain(s.Domains, domain)
				if err != nil {
					return err
				}
				domain, useDomain = picked, picked != ""
			}

			interactive := isTerminal(cmd.InOrStdin()) && isTerminal(cmd.OutOrStdout())
			if lineMode || !interactive {
				return runLineChat(cmd, a, domain, useDomain, interactive)
			}

			if s.LogFile == "" {
				logging.Discard()
			}
			transcript := ui.NewProgramTranscript()
			client, tr, err := a.newClient(transcript)
			if err != nil {
				return err
			}
			defer tr.CloseIdleConnections()

			m := ui.NewModel(cmd.Context(), client,
				ui.WithDomains(s.Domains),
				ui.WithDomain(domain, useDomain),
			)
			return ui.Run(cmd.Context(), m, transcript, ui.RunOptions{AltScreen: true})
		},
	}
	cmd.Flags().BoolVar(&lineMode, "line", false, "use the line-oriented interface even on a terminal")
	cmd.Flags().BoolVar(&pickDomain, "pick-domain", false, "choose the domain interactively before starting")
	return cmd
}

func runLineChat(cmd *cobra.Command, a *app, domain string, useDomain bool, interactive bool) error {
	out := cmd.OutOrStdout()
	input := chatclient.NewStaticInput("", domain, useDomain)
	client, tr, err := a.newClient(repl.NewWriterTranscript(out),
		chatclient.WithInputSource(input),
		chatclient.WithDomainSource(input),
		chatclient.WithToggleSource(input),
	)
	if err != nil {
		return err
	}
	defer tr.CloseIdleConnections()

	prompt := ""
	if interactive {
		prompt = "> "
	}
	return repl.New(client, input, out, prompt).Run(cmd.Context(), cmd.InOrStdin())
}

func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}
