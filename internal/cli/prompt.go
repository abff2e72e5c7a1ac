package cli

import (
	"fmt"
	"os"

	"github.com/AlecAivazis/survey/v2"
)

// prompter asks the user for values. Every method returns the default
// unchanged when the user just presses enter.
type prompter interface {
	Input(message, help, def string, validate func(string) error) (string, error)
	Password(message, help string) (string, error)
	Confirm(message string, def bool) (bool, error)
	Select(message string, options []string, def string) (string, error)
}

// interactive and newPrompter are replaced in tests.
var (
	interactive = func() bool {
		return isTerminal(os.Stdin) && isTerminal(os.Stdout)
	}
	newPrompter = func() prompter {
		if interactive() {
			return surveyPrompter{}
		}
		return defaultsPrompter{}
	}
)

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}

type surveyPrompter struct{}

func (surveyPrompter) Input(message, help, def string, validate func(string) error) (string, error) {
	var out string
	prompt := &survey.Input{Message: message, Help: help, Default: def}
	var opts []survey.AskOpt
	if validate != nil {
		opts = append(opts, survey.WithValidator(func(ans interface{}) error {
			s, ok := ans.(string)
			if !ok {
				return fmt.Errorf("expected text, got %T", ans)
			}
			return validate(s)
		}))
	}
	if err := survey.AskOne(prompt, &out, opts...); err != nil {
		return "", fmt.Errorf("prompt %q: %w", message, err)
	}
	return out, nil
}

func (surveyPrompter) Password(message, help string) (string, error) {
	var out string
	if err := survey.AskOne(&survey.Password{Message: message, Help: help}, &out); err != nil {
		return "", fmt.Errorf("prompt %q: %w", message, err)
	}
	return out, nil
}

func (surveyPrompter) Confirm(message string, def bool) (bool, error) {
	out := def
	if err := survey.AskOne(&survey.Confirm{Message: message, Default: def}, &out); err != nil {
		return false, fmt.Errorf("prompt %q: %w", message, err)
	}
	return out, nil
}

func (surveyPrompter) Select(message string, options []string, def string) (string, error) {
	var out string
	prompt := &survey.Select{Message: message, Options: options}
	if def != "" {
		prompt.Default = def
	}
	if err := survey.AskOne(prompt, &out); err != nil {
		return "", fmt.Errorf("prompt %q: %w", message, err)
	}
	return out, nil
}

// defaultsPrompter answers every question with its default. It is used when
// stdin is not a terminal.
type defaultsPrompter struct{}

func (defaultsPrompter) Input(_, _, def string, validate func(string) error) (string, error) {
	if validate != nil {
		if err := validate(def); err != nil {
			return "", err
		}
	}
	return def, nil
}

func (defaultsPrompter) Password(string, string) (string, error) { return "", nil }

func (defaultsPrompter) Confirm(_ string, def bool) (bool, error) { return def, nil }

func (defaultsPrompter) Select(_ string, options []string, def string) (string, error) {
	if def == "" && len(options) > 0 {
		return options[0], nil
	}
	return def, nil
}
