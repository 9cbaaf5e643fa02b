// Package modules holds the optional verbs a machine's package manager can
// install.
package modules

import (
	"fmt"
	"sort"

	"github.com/josephlewis42/dooros/core/machine"
)

var directory = make(map[string]machine.Verb)

// mustAddModule registers a module, panicking if the name is taken.
func mustAddModule(name string, v machine.Verb) {
	if _, ok := directory[name]; ok {
		panic(fmt.Sprintf("module %q registered twice", name))
	}
	directory[name] = v
}

// Directory returns a copy of every available module.
func Directory() map[string]machine.Verb {
	out := make(map[string]machine.Verb, len(directory))
	for name, v := range directory {
		out[name] = v
	}
	return out
}

// Names returns the sorted module names.
func Names() []string {
	var out []string
	for name := range directory {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Preinstall installs the named modules on the machine.
func Preinstall(m *machine.Machine, names []string) error {
	for _, name := range names {
		v, ok := directory[name]
		if !ok {
			return fmt.Errorf("unknown module %q, expected one of %v", name, Names())
		}
		m.InstallVerb(name, v)
	}
	return nil
}
