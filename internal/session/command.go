package session

import "strings"

// CommandKind classifies one line of operator input.
type CommandKind int

const (
	// CommandSkip is blank input; the loop prompts again.
	CommandSkip CommandKind = iota
	// CommandQuit ends the session.
	CommandQuit
	// CommandLocator asks for an access check of a presentation.
	CommandLocator
)

// Command is parsed operator input.
type Command struct {
	Kind    CommandKind
	Locator string
}

var quitWords = []string{"quit", "exit", "q"}

// ParseCommand classifies a line of input. Quit words are case-insensitive.
func ParseCommand(line string) Command {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return Command{Kind: CommandSkip}
	}
	for _, word := range quitWords {
		if strings.EqualFold(trimmed, word) {
			return Command{Kind: CommandQuit}
		}
	}
	return Command{Kind: CommandLocator, Locator: trimmed}
}

// isYes reports whether an answer to a yes/no question is affirmative.
func isYes(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
