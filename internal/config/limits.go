package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Tunables are the operational knobs that rarely change between
// deployments. Defaults match the original editor's behavior; a YAML
// file named by INKWELL_TUNABLES overrides individual fields.
type Tunables struct {
	// DebounceDelay is the quiet period between the last keystroke and
	// the content write.
	DebounceDelay time.Duration `yaml:"debounce_delay"`

	// RoomSendBuffer is the per-session outbound queue; a session that
	// falls this far behind is dropped.
	RoomSendBuffer int `yaml:"room_send_buffer"`

	MaxMessageSize int64         `yaml:"max_message_size"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	PingInterval   time.Duration `yaml:"ping_interval"`
	PongTimeout    time.Duration `yaml:"pong_timeout"`
}

func DefaultTunables() Tunables {
	return Tunables{
		DebounceDelay:  850 * time.Millisecond,
		RoomSendBuffer: 256,
		MaxMessageSize: 1 << 20,
		WriteTimeout:   10 * time.Second,
		PingInterval:   54 * time.Second,
		PongTimeout:    60 * time.Second,
	}
}

// LoadTunables returns defaults overlaid with the YAML file named by
// INKWELL_TUNABLES, when set. A missing variable is not an error; a
// named but unreadable file is.
func LoadTunables() (Tunables, error) {
	t := DefaultTunables()

	path := os.Getenv("INKWELL_TUNABLES")
	if path == "" {
		return t, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return t, fmt.Errorf("read tunables file: %w", err)
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("parse tunables file: %w", err)
	}

	return t, nil
}
