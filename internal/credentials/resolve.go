package credentials

import (
	"os"

	"github.com/AlecAivazis/survey/v2"

	"flarewatch/pkg/errors"
)

const (
	UsernameEnv = "FLAREWATCH_USERNAME"
	PasswordEnv = "FLAREWATCH_PASSWORD"
)

// Prompter asks the operator for a login.
type Prompter interface {
	Prompt() (Credentials, error)
}

// Loader is the subset of Manager used by Resolve.
type Loader interface {
	Load() (Credentials, error)
}

// SurveyPrompter prompts on the terminal.
type SurveyPrompter struct{}

// Prompt asks for a username and a hidden password.
func (SurveyPrompter) Prompt() (Credentials, error) {
	var answers struct {
		Username string
		Password string
	}
	qs := []*survey.Question{
		{
			Name:     "username",
			Prompt:   &survey.Input{Message: "Subscription username:"},
			Validate: survey.Required,
		},
		{
			Name:     "password",
			Prompt:   &survey.Password{Message: "Subscription password:"},
			Validate: survey.Required,
		},
	}
	if err := survey.Ask(qs, &answers); err != nil {
		return Credentials{}, errors.Wrap(err, errors.ErrCodeCredentialMissing, "credential prompt aborted")
	}
	return Credentials{Username: answers.Username, Password: answers.Password}, nil
}

// Resolve finds a login: the environment first, then the store, then the
// prompter. A nil prompter disables prompting.
func Resolve(store Loader, prompter Prompter) (Credentials, string, error) {
	env := Credentials{Username: os.Getenv(UsernameEnv), Password: os.Getenv(PasswordEnv)}
	if env.Complete() {
		return env, "environment", nil
	}

	if store != nil {
		stored, err := store.Load()
		if err == nil && stored.Complete() {
			return stored, "store", nil
		}
		if err != nil && errors.GetErrorCode(err) != errors.ErrCodeCredentialMissing {
			return Credentials{}, "", err
		}
	}

	if prompter == nil {
		return Credentials{}, "", missing()
	}
	c, err := prompter.Prompt()
	if err != nil {
		return Credentials{}, "", err
	}
	if !c.Complete() {
		return Credentials{}, "", missing()
	}
	return c, "prompt", nil
}
