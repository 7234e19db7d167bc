package cmds

import (
	"fmt"
	"strings"

	"github.com/go-go-golems/parley/pkg/chatclient"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/tcnksm/go-input"
)

func newDomainCommand(a *app) *cobra.Command {
	domainCmd := &cobra.Command{
		Use:   "domain",
		Short: "Manage domain knowledge on the backend",
	}

	var question, answer string
	addCmd := &cobra.Command{
		Use:   "add DOMAIN",
		Short: "Register a question/answer pair for DOMAIN",
		Long:  "Missing --question or --answer values are asked for on the terminal.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ui := &input.UI{
				Writer: cmd.ErrOrStderr(),
				Reader: cmd.InOrStdin(),
			}
			var err error
			if strings.TrimSpace(question) == "" {
				if question, err = ask(ui, "Question"); err != nil {
					return err
				}
			}
			if strings.TrimSpace(answer) == "" {
				if answer, err = ask(ui, "Answer"); err != nil {
					return err
				}
			}

			client, tr, err := a.newClient(chatclient.TranscriptFuncs{})
			if err != nil {
				return err
			}
			defer tr.CloseIdleConnections()

			qa, err := client.AddDomainQA(cmd.Context(), args[0], question, answer)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "added #%s to %s\n", qa.ID, qa.Domain)
			return nil
		},
	}
	addCmd.Flags().StringVar(&question, "question", "", "question text")
	addCmd.Flags().StringVar(&answer, "answer", "", "answer text")

	domainCmd.AddCommand(addCmd)
	return domainCmd
}

func ask(ui *input.UI, query string) (string, error) {
	v, err := ui.Ask(query, &input.Options{
		Required:  true,
		Loop:      true,
		HideOrder: true,
		ValidateFunc: func(s string) error {
			if strings.TrimSpace(s) == "" {
				return errors.Errorf("%s must not be blank", strings.ToLower(query))
			}
			return nil
		},
	})
	if err != nil {
		return "", errors.Wrapf(err, "read %s", strings.ToLower(query))
	}
	return v, nil
}
