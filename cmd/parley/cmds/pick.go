package cmds

import (
	"github.com/charmbracelet/huh"
	"github.com/pkg/errors"
)

func chooseDomain(domains []string, current string) (string, error) {
	options := []huh.Option[string]{huh.NewOption("none", "")}
	for _, d := range domains {
		options = append(options, huh.NewOption(d, d))
	}
	selected := current
	form := huh.NewForm(huh.NewGroup(
		huh.NewSelect[string]().
			Title("Domain context").
			Options(options...).
			Value(&selected),
	))
	if err := form.Run(); err != nil {
		return "", errors.Wrap(err, "choose domain")
	}
	return selected, nil
}
