package machine

import (
	"errors"
	"io/fs"
	"strings"

	"github.com/josephlewis42/dooros/core/expr"
	"github.com/josephlewis42/dooros/core/vfs"
)

// Signal is the status a verb returns: OK, an error code ending in ERROR,
// or SignalExit.
type Signal string

const (
	OK         Signal = ""
	SignalExit Signal = "EXIT"

	SignalError          Signal = "ERROR"
	SigPathNotFound      Signal = "PATH_NOT_FOUND_ERROR"
	SigNotADirectory     Signal = "NOT_A_DIRECTORY_ERROR"
	SigPermission        Signal = "PERMISSION_ERROR"
	SigVariableNotFound  Signal = "VARIABLE_NOT_FOUND_ERROR"
	SigEvaluation        Signal = "EVALUATION_ERROR"
	SigInvalidPath       Signal = "INVALID_PATH_ERROR"
	SigCommandNotFound   Signal = "COMMAND_NOT_FOUND_ERROR"
	SigUserNotFound      Signal = "USER_NOT_FOUND_ERROR"
	SigInvalidName       Signal = "INVALID_NAME_ERROR"
	SigArgumentLength    Signal = "ARGUMENT_LENGTH_ERROR"
	SigScriptControl     Signal = "SCRIPT_CONTROL_ERROR"
	SigFileNotFound      Signal = "FILE_NOT_FOUND_ERROR"
	SigNotEmptyDirectory Signal = "NOT_EMPTY_DIRECTORY_ERROR"
	SigNoCondition       Signal = "NO_CONDITION_ERROR"
	SigModuleNotFound    Signal = "MODULE_NOT_FOUND_ERROR"
)

const terminatedMessagePrefix = "Process terminated with error code "

// IsError returns true if the signal aborts the command chain.
func (s Signal) IsError() bool {
	return strings.HasSuffix(string(s), string(SignalError))
}

// TerminatedMessage is the output that replaces a failed chain's output.
func (s Signal) TerminatedMessage() string {
	return terminatedMessagePrefix + string(s)
}

// SignalFor maps filesystem and expression errors to signals.
func SignalFor(err error) Signal {
	switch {
	case err == nil:
		return OK
	case errors.Is(err, vfs.ErrFileNotFound):
		return SigFileNotFound
	case errors.Is(err, vfs.ErrPathNotFound):
		return SigPathNotFound
	case errors.Is(err, vfs.ErrNotADirectory):
		return SigNotADirectory
	case errors.Is(err, vfs.ErrNotEmpty):
		return SigNotEmptyDirectory
	case errors.Is(err, vfs.ErrIsDirectory), errors.Is(err, vfs.ErrExist):
		return SigInvalidPath
	case errors.Is(err, fs.ErrPermission):
		return SigPermission
	case errors.Is(err, fs.ErrInvalid):
		return SigInvalidName
	case errors.Is(err, expr.ErrEvaluation):
		return SigEvaluation
	default:
		return SignalError
	}
}
