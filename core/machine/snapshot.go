package machine

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/cespare/xxhash"
	"github.com/josephlewis42/dooros/core/expr"
	"github.com/josephlewis42/dooros/core/vfs"
	"sigs.k8s.io/yaml"
)

// ErrChecksumMismatch is returned when decoding a snapshot that was
// modified after it was written.
var ErrChecksumMismatch = errors.New("snapshot checksum mismatch")

// Snapshot is the persistent state of a machine.
type Snapshot struct {
	Filesystem map[string]interface{} `json:"filesystem"`
	Users      map[string]User        `json:"users"`
	// Variables hold expression literals so they restore with their type.
	Variables map[string]string `json:"variables"`
	Cwd       string            `json:"cwd"`
}

// Snapshot captures the machine's state.
func (m *Machine) Snapshot() *Snapshot {
	s := &Snapshot{
		Filesystem: vfs.ToMap(m.fs.Root()),
		Users:      make(map[string]User, len(m.users)),
		Variables:  make(map[string]string, len(m.vars)),
		Cwd:        m.Cwd(),
	}
	for name, u := range m.users {
		s.Users[name] = *u
	}
	for name, v := range m.vars {
		s.Variables[name] = v.Literal()
	}
	return s
}

// Restore replaces the machine's state with a snapshot. The machine is left
// unchanged if the snapshot is invalid.
func (m *Machine) Restore(s *Snapshot) error {
	root, err := vfs.FromMap(s.Filesystem)
	if err != nil {
		return err
	}
	vars := make(map[string]expr.Value, len(s.Variables))
	for name, literal := range s.Variables {
		v, err := expr.Eval(literal, nil)
		if err != nil {
			return fmt.Errorf("variable %q: %w", name, err)
		}
		vars[name] = v
	}

	m.fs = vfs.New(root)
	m.vars = vars
	if len(s.Users) > 0 {
		m.users = make(map[string]*User, len(s.Users))
		for name, u := range s.Users {
			u := u
			m.users[name] = &u
		}
	}
	m.cwd = s.Cwd
	m.Cwd()
	return nil
}

type snapshotFile struct {
	Checksum string    `json:"checksum"`
	State    *Snapshot `json:"state"`
}

func checksum(s *Snapshot) (string, error) {
	body, err := yaml.Marshal(s)
	if err != nil {
		return "", err
	}
	return strconv.FormatUint(xxhash.Sum64(body), 16), nil
}

// EncodeSnapshot renders a snapshot as YAML with an integrity checksum.
func EncodeSnapshot(s *Snapshot) ([]byte, error) {
	sum, err := checksum(s)
	if err != nil {
		return nil, err
	}
	return yaml.Marshal(&snapshotFile{Checksum: sum, State: s})
}

// DecodeSnapshot parses the output of EncodeSnapshot.
func DecodeSnapshot(data []byte) (*Snapshot, error) {
	var file snapshotFile
	if err := yaml.UnmarshalStrict(data, &file); err != nil {
		return nil, err
	}
	if file.State == nil {
		return nil, errors.New("snapshot has no state")
	}
	sum, err := checksum(file.State)
	if err != nil {
		return nil, err
	}
	if sum != file.Checksum {
		return nil, ErrChecksumMismatch
	}
	return file.State, nil
}
