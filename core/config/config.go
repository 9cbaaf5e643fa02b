package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/renameio/v2"
	"github.com/josephlewis42/dooros/core/machine"
	"github.com/josephlewis42/dooros/core/vfs"
	"github.com/spf13/afero"
	"sigs.k8s.io/yaml"
)

var (
	//go:embed default/config.yaml
	defaultConfigData []byte

	//go:embed default/filesystem.yaml
	defaultFilesystemData []byte
)

const (
	ConfigurationName = "config.yaml"
	FilesystemName    = "filesystem.yaml"
	LogsDirName       = "session_logs"
	PrivateKeyName    = "private_key"
	AppLogName        = "app.log"
	StateName         = "state.yaml"
)

type Configuration struct {
	configFs  afero.Fs
	configDir string

	MachineName           string `json:"machine_name" validate:"required,hostname_rfc1123"`
	OSVersion             string `json:"os_version" validate:"required"`
	Motd                  string `json:"motd"`
	SSHPort               int    `json:"ssh_port" validate:"gte=0,lte=65535"`
	SSHBanner             string `json:"ssh_banner"`
	ConsoleBytesPerSecond int64  `json:"console_bytes_per_second" validate:"gte=0"`
	BootDelayMs           int    `json:"boot_delay_ms" validate:"gte=0"`
	MaxScriptSteps        int    `json:"max_script_steps" validate:"gt=0"`
	Filesystem            string `json:"filesystem" validate:"required"`

	Modules []string `json:"modules" validate:"unique"`
	Users   []User   `json:"users" validate:"unique=Username,dive"`
}

// Validate the configuration for basic semantic errors.
func (c *Configuration) Validate() error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		return name
	})

	return validate.Struct(c)
}

type User struct {
	Username    string `json:"username" validate:"required,excludesall=/ >"`
	Password    string `json:"password"`
	Permissions string `json:"permissions" validate:"required,oneof=root sudo user"`
}

func (c *Configuration) fs() afero.Fs {
	return c.configFs
}

// Dir returns the configuration directory.
func (c *Configuration) Dir() string {
	return c.configDir
}

// BootDelay is the pause between boot messages.
func (c *Configuration) BootDelay() time.Duration {
	return time.Duration(c.BootDelayMs) * time.Millisecond
}

// MachineUsers converts the configured accounts for a machine.
func (c *Configuration) MachineUsers() (map[string]*machine.User, error) {
	out := make(map[string]*machine.User, len(c.Users))
	for _, u := range c.Users {
		perm, err := machine.ParsePermission(u.Permissions)
		if err != nil {
			return nil, fmt.Errorf("user %q: %w", u.Username, err)
		}
		out[u.Username] = &machine.User{Password: u.Password, Permission: perm}
	}
	return out, nil
}

// LoadFilesystem parses the initial filesystem document.
func (c *Configuration) LoadFilesystem() (*vfs.Dir, error) {
	data, err := afero.ReadFile(c.fs(), c.Filesystem)
	if err != nil {
		return nil, err
	}
	root, err := vfs.LoadDocument(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", c.Filesystem, err)
	}
	return root, nil
}

// CreateSessionLog creates a file in the session log directory.
func (c *Configuration) CreateSessionLog(name string) (afero.File, error) {
	if err := c.fs().MkdirAll(LogsDirName, 0700); err != nil {
		return nil, err
	}
	toCreate := filepath.Join(LogsDirName, name)
	return c.fs().Create(toCreate)
}

// OpenSessionLog opens a session log for reading.
func (c *Configuration) OpenSessionLog(name string) (afero.File, error) {
	return c.fs().Open(filepath.Join(LogsDirName, filepath.Base(name)))
}

// SessionLogs lists the recorded session logs.
func (c *Configuration) SessionLogs() ([]string, error) {
	infos, err := afero.ReadDir(c.fs(), LogsDirName)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var out []string
	for _, info := range infos {
		if !info.IsDir() {
			out = append(out, info.Name())
		}
	}
	sort.Strings(out)
	return out, nil
}

// PrivateKeyPem returns the bytes of the private key.
func (c *Configuration) PrivateKeyPem() ([]byte, error) {
	return afero.ReadFile(c.fs(), PrivateKeyName)
}

// OpenAppLog opens the application log in an append only state.
func (c *Configuration) OpenAppLog() (afero.File, error) {
	return c.fs().OpenFile(AppLogName, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
}

func (c *Configuration) ReadAppLog() (afero.File, error) {
	return c.fs().OpenFile(AppLogName, os.O_RDONLY, 0600)
}

// SaveState atomically replaces the saved machine state.
func (c *Configuration) SaveState(data []byte) error {
	return renameio.WriteFile(filepath.Join(c.configDir, StateName), data, 0600)
}

// LoadState reads the saved machine state. The error wraps
// fs.ErrNotExist if nothing was saved.
func (c *Configuration) LoadState() ([]byte, error) {
	return afero.ReadFile(c.fs(), StateName)
}

func defaultConfig() *Configuration {
	var out Configuration
	if err := yaml.UnmarshalStrict(defaultConfigData, &out); err != nil {
		panic(err)
	}
	return &out
}
