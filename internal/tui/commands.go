package tui

import (
	"fmt"
	"strconv"
	"strings"
)

// CommandKind is what a line typed into the action box asks for
type CommandKind int

const (
	CommandFold CommandKind = iota
	CommandCheck
	CommandCall
	CommandRaise
	CommandJoin
	CommandLeave
	CommandTables
	CommandQuit
)

// Command is one parsed input line
type Command struct {
	Kind    CommandKind
	Amount  int
	TableID string
}

// ParseCommand reads fold, check, call, raise N, join [table], leave,
// tables or quit. Single letter shortcuts are accepted for the actions.
func ParseCommand(input string) (Command, error) {
	parts := strings.Fields(strings.ToLower(input))
	if len(parts) == 0 {
		return Command{}, fmt.Errorf("type a command: fold, check, call, raise N, leave, quit")
	}

	switch parts[0] {
	case "fold", "f":
		return Command{Kind: CommandFold}, nil
	case "check", "k":
		return Command{Kind: CommandCheck}, nil
	case "call", "c":
		return Command{Kind: CommandCall}, nil
	case "raise", "r", "bet":
		if len(parts) < 2 {
			return Command{}, fmt.Errorf("raise needs an amount, e.g. raise 40")
		}
		amount, err := strconv.Atoi(strings.TrimPrefix(parts[1], "$"))
		if err != nil || amount <= 0 {
			return Command{}, fmt.Errorf("invalid raise amount %q", parts[1])
		}
		return Command{Kind: CommandRaise, Amount: amount}, nil
	case "join", "sit":
		c := Command{Kind: CommandJoin}
		if len(parts) > 1 {
			// ids are case sensitive, take them from the raw input
			c.TableID = strings.Fields(input)[1]
		}
		return c, nil
	case "leave", "stand":
		return Command{Kind: CommandLeave}, nil
	case "tables", "list":
		return Command{Kind: CommandTables}, nil
	case "quit", "exit", "q":
		return Command{Kind: CommandQuit}, nil
	default:
		return Command{}, fmt.Errorf("unknown command %q", parts[0])
	}
}

// wireAction returns the protocol name of a betting command
func (c Command) wireAction() (string, bool) {
	switch c.Kind {
	case CommandFold:
		return "fold", true
	case CommandCheck:
		return "check", true
	case CommandCall:
		return "call", true
	case CommandRaise:
		return "raise", true
	default:
		return "", false
	}
}
