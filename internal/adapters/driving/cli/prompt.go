package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/custodia-labs/testbrief/internal/core/domain"
)

// errPromptAborted stops prompting for the rest of the run.
var errPromptAborted = errors.New("prompt aborted")

// huhPrompt asks how to answer req and collects the value the option needs.
func huhPrompt(req domain.MissingSourceRequest) (domain.Resolution, error) {
	options := make([]huh.Option[string], len(req.Options))
	for i, o := range req.Options {
		options[i] = huh.NewOption(o.Describe(), string(o))
	}

	var choice string
	err := huh.NewForm(huh.NewGroup(
		huh.NewSelect[string]().
			Title(req.Message).
			Options(options...).
			Value(&choice),
	)).WithTheme(huh.ThemeDracula()).Run()
	if err != nil {
		return domain.Resolution{}, promptErr(err)
	}

	option := domain.ResolutionOption(choice)
	var value string
	switch option {
	case domain.OptionText:
		err = huh.NewForm(huh.NewGroup(
			huh.NewText().
				Title(req.Category.Label() + " content").
				Description("Paste the content to store").
				CharLimit(100000).
				Value(&value).
				Validate(required("content")),
		)).WithTheme(huh.ThemeDracula()).Run()
	case domain.OptionURL:
		err = huh.NewForm(huh.NewGroup(
			huh.NewInput().
				Title(req.Category.Label() + " location").
				Description("URLs or file paths, comma separated").
				Placeholder("https://example.atlassian.net/wiki/spaces/QA/pages/123/Design").
				Value(&value).
				Validate(required("location")),
		)).WithTheme(huh.ThemeDracula()).Run()
	}
	if err != nil {
		return domain.Resolution{}, promptErr(err)
	}

	return buildResolution(option, value)
}

func required(what string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", what)
		}
		return nil
	}
}

func promptErr(err error) error {
	if errors.Is(err, huh.ErrUserAborted) {
		return errPromptAborted
	}
	return fmt.Errorf("prompt: %w", err)
}
