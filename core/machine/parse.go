package machine

import (
	"strings"
	"unicode"
)

// OutputMode is where a statement's output is delivered.
type OutputMode int

const (
	ModeEcho OutputMode = iota
	ModePipe
	ModeFileAppend
	ModeFileOverwrite
)

func (m OutputMode) String() string {
	switch m {
	case ModePipe:
		return "pipe"
	case ModeFileAppend:
		return "append"
	case ModeFileOverwrite:
		return "overwrite"
	default:
		return "echo"
	}
}

const (
	statementSeparator = ";"
	pipeSeparator      = "|"
	appendOperator     = ">>"
	overwriteOperator  = ">"
)

// SplitStatements splits a line on ";" and returns the first statement and
// the rest, which are queued unexpanded.
func SplitStatements(line string) (first string, rest []string) {
	parts := strings.Split(line, statementSeparator)
	return parts[0], parts[1:]
}

// Redirection is the parsed output routing of one statement.
type Redirection struct {
	// Command is the statement without its routing.
	Command string
	Mode    OutputMode
	// Destination is the trimmed target path of file modes.
	Destination string
	// Continuation holds the remaining pipe stages of pipe mode.
	Continuation string
}

// ParseRedirection finds the output routing of a statement. Only one kind
// applies, checked in the order pipe, append, overwrite.
func ParseRedirection(statement string) Redirection {
	if idx := strings.Index(statement, pipeSeparator); idx >= 0 {
		return Redirection{
			Command:      statement[:idx],
			Mode:         ModePipe,
			Continuation: strings.TrimSpace(statement[idx+len(pipeSeparator):]),
		}
	}
	if idx := strings.Index(statement, appendOperator); idx >= 0 {
		return Redirection{
			Command:     statement[:idx],
			Mode:        ModeFileAppend,
			Destination: strings.TrimSpace(statement[idx+len(appendOperator):]),
		}
	}
	if idx := strings.Index(statement, overwriteOperator); idx >= 0 {
		return Redirection{
			Command:     statement[:idx],
			Mode:        ModeFileOverwrite,
			Destination: strings.TrimSpace(statement[idx+len(overwriteOperator):]),
		}
	}
	return Redirection{Command: statement, Mode: ModeEcho}
}

// SplitVerb separates the first word of a statement from its arguments.
func SplitVerb(statement string) (verb, args string) {
	statement = strings.TrimSpace(statement)
	idx := strings.IndexFunc(statement, unicode.IsSpace)
	if idx < 0 {
		return statement, ""
	}
	return statement[:idx], strings.TrimSpace(statement[idx:])
}
