// Package commands describes slash commands exposed by the bot.
package commands

import (
	"errors"
	"fmt"
	"strings"

	tele "gopkg.in/telebot.v4"
)

// ErrInvalid reports a command that cannot be registered.
var ErrInvalid = errors.New("invalid command")

// Command is a slash command with its handler and menu metadata.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	// AdminOnly commands run only for the configured admin.
	AdminOnly bool
	// Hidden commands are left out of the Telegram menu.
	Hidden  bool
	Aliases []string
}

// Validate checks that cmd can be registered under name.
func (c Command) Validate(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("%w: empty name", ErrInvalid)
	case !strings.HasPrefix(name, "/"):
		return fmt.Errorf("%w %q: missing slash prefix", ErrInvalid, name)
	case strings.ContainsAny(name, " \t\n"):
		return fmt.Errorf("%w %q: whitespace in name", ErrInvalid, name)
	case c.Handler == nil:
		return fmt.Errorf("%w %q: nil handler", ErrInvalid, name)
	case c.Description == "":
		return fmt.Errorf("%w %q: empty description", ErrInvalid, name)
	}
	return nil
}

// Listed reports whether the command belongs in the public menu.
func (c Command) Listed() bool {
	return !c.Hidden && !c.AdminOnly
}

// MatchesAlias reports whether text is one of the command aliases.
func (c Command) MatchesAlias(text string) bool {
	for _, alias := range c.Aliases {
		if strings.EqualFold(alias, text) {
			return true
		}
	}
	return false
}
