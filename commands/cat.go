package commands

import (
	"strconv"
	"strings"

	"github.com/josephlewis42/dooros/core/expr"
	"github.com/josephlewis42/dooros/core/machine"
	"github.com/josephlewis42/dooros/core/vfs"
)

// ReadContent returns the content of the file at path. The null device
// reads empty and the random device reads a random number.
func ReadContent(m *machine.Machine, path string) (string, machine.Signal) {
	file, err := m.FS().ReadFile(path, m.Cwd())
	if err != nil {
		m.Errorf("File %s not found.", path)
		return "", machine.SignalFor(err)
	}

	switch file.Device() {
	case vfs.DeviceNull:
		return "", machine.OK
	case vfs.DeviceRandom:
		return strconv.FormatFloat(m.Rand().Float64(), 'f', -1, 64), machine.OK
	default:
		return file.Content, machine.OK
	}
}

// Cat implements a doorOS cat: the files are joined with spaces.
func Cat(m *machine.Machine, args string) (expr.Value, machine.Signal) {
	cmd := &SimpleVerb{
		Use:   "cat FILE...",
		Short: "View the contents of files.",
	}

	return cmd.Run(m, args, func() (expr.Value, machine.Signal) {
		if sig := cmd.RequireOperands(m, 1); sig != machine.OK {
			return nil, sig
		}

		var out []string
		for _, path := range cmd.Operands() {
			content, sig := ReadContent(m, path)
			if sig != machine.OK {
				return nil, sig
			}
			out = append(out, content)
		}
		return expr.Str(strings.Join(out, " ")), machine.OK
	})
}

var _ machine.VerbFunc = Cat

func init() {
	addVerb("cat", Cat)
}
