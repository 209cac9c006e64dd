// Package config reads the environments file. Each named environment
// provides the connection parameters: host, port, database, username and an
// optional password. Defaults apply to every environment; a password missing
// from the file may be resolved from the keyring, and is otherwise requested
// on login.
package config

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/oerplib/oerp/pkg/keyring"
)

// ServiceName is the keyring service under which passwords are stored.
const ServiceName = "oerp"

// DefaultFile is the environments file looked up in the working directory.
const DefaultFile = "oerp.yaml"

// Env is one environment section of the file.
type Env struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	Username string `yaml:"username"`
	Password string `yaml:"password,omitempty"`
}

// Environment is a resolved connection tuple.
type Environment struct {
	Name     string
	Server   string
	Database string
	Username string
	// Password is empty when neither the file nor the keyring has one; the
	// caller is expected to prompt.
	Password string
}

// File is a loaded environments file.
type File struct {
	Defaults     Env            `yaml:"defaults"`
	Environments map[string]Env `yaml:"environments"`

	secrets *keyring.Manager
}

// Load reads and parses the environments file at path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %v", err)
	}
	f := &File{}
	if err := yaml.Unmarshal(data, f); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %v", err)
	}
	return f, nil
}

// UseSecrets attaches a keyring manager for password lookup and storage.
func (f *File) UseSecrets(m *keyring.Manager) {
	f.secrets = m
}

// Names returns the configured environment names, sorted.
func (f *File) Names() []string {
	names := make([]string, 0, len(f.Environments))
	for name := range f.Environments {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Environment resolves the named environment against the defaults. The
// password comes from the file when present, else from the keyring, else it
// is left empty.
func (f *File) Environment(name string) (Environment, error) {
	env, ok := f.Environments[name]
	if !ok {
		return Environment{}, fmt.Errorf("environment %q not found in configuration", name)
	}
	merged := f.Defaults
	if env.Host != "" {
		merged.Host = env.Host
	}
	if env.Port != 0 {
		merged.Port = env.Port
	}
	if env.Database != "" {
		merged.Database = env.Database
	}
	if env.Username != "" {
		merged.Username = env.Username
	}
	if env.Password != "" {
		merged.Password = env.Password
	}
	if merged.Host == "" {
		return Environment{}, fmt.Errorf("environment %q has no host", name)
	}
	if merged.Port == 0 {
		merged.Port = 8069
	}

	resolved := Environment{
		Name:     name,
		Server:   fmt.Sprintf("http://%s:%d", merged.Host, merged.Port),
		Database: merged.Database,
		Username: merged.Username,
		Password: merged.Password,
	}
	if resolved.Password == "" && f.secrets != nil {
		if secret, err := f.secrets.Get(ServiceName, secretKey(name, resolved.Username)); err == nil {
			resolved.Password = secret
		}
	}
	return resolved, nil
}

// StorePassword saves the password for (environment, user) in the keyring.
func (f *File) StorePassword(name, user, password string) error {
	if f.secrets == nil {
		return fmt.Errorf("no keyring configured")
	}
	return f.secrets.Set(ServiceName, secretKey(name, user), password)
}

// ClearPassword removes the stored password for (environment, user).
func (f *File) ClearPassword(name, user string) error {
	if f.secrets == nil {
		return nil
	}
	return f.secrets.Delete(ServiceName, secretKey(name, user))
}

func secretKey(env, user string) string {
	return env + ":" + user
}
