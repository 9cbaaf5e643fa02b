// Package core assembles doorOS machines from a configuration and serves
// their consoles locally or over SSH.
package core

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/josephlewis42/dooros/commands"
	"github.com/josephlewis42/dooros/core/config"
	"github.com/josephlewis42/dooros/core/machine"
	"github.com/josephlewis42/dooros/modules"
)

// NewMachine boots a machine described by the configuration. Fields of opts
// the configuration covers are overwritten. If a saved state exists the
// machine resumes from it.
func NewMachine(cfg *config.Configuration, opts machine.Options) (*machine.Machine, error) {
	root, err := cfg.LoadFilesystem()
	if err != nil {
		return nil, err
	}
	users, err := cfg.MachineUsers()
	if err != nil {
		return nil, err
	}

	opts.Name = cfg.MachineName
	opts.OSVersion = cfg.OSVersion
	opts.Users = users
	opts.MaxScriptSteps = cfg.MaxScriptSteps
	opts.Modules = modules.Directory()
	opts.SaveState = func(s *machine.Snapshot) error {
		data, err := machine.EncodeSnapshot(s)
		if err != nil {
			return err
		}
		return cfg.SaveState(data)
	}

	m := machine.New(root, opts)
	commands.Install(m)
	if err := modules.Preinstall(m, cfg.Modules); err != nil {
		return nil, err
	}

	state, err := cfg.LoadState()
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return m, nil
	case err != nil:
		return nil, err
	}

	snapshot, err := machine.DecodeSnapshot(state)
	if err != nil {
		return nil, fmt.Errorf("loading saved state: %w", err)
	}
	if err := m.Restore(snapshot); err != nil {
		return nil, fmt.Errorf("restoring saved state: %w", err)
	}
	return m, nil
}
