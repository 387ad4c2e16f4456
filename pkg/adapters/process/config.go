package process

import (
	"fmt"
	"time"
)

// DefaultTimeout bounds a command that sets no timeout of its own.
const DefaultTimeout = 10 * time.Second

// Command is an allow-listed program run when a checklist finishes.
type Command struct {
	Name    string            `yaml:"name" json:"name"`
	Command string            `yaml:"command" json:"command"`
	Args    []string          `yaml:"args" json:"args"`
	Env     map[string]string `yaml:"env" json:"env"`
	// Timeout is a Go duration string; empty means DefaultTimeout.
	Timeout string `yaml:"timeout" json:"timeout"`
}

// Deadline returns the parsed timeout.
func (c Command) Deadline() (time.Duration, error) {
	if c.Timeout == "" {
		return DefaultTimeout, nil
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0, fmt.Errorf("command %q: %w", c.Name, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("command %q: timeout must be positive", c.Name)
	}
	return d, nil
}
