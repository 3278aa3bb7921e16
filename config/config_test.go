package config

import (
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.RefreshInterval() != 5*time.Second {
		t.Errorf("RefreshInterval() = %v, want 5s", cfg.RefreshInterval())
	}
	if cfg.EscalationCommand != "sudo" {
		t.Errorf("EscalationCommand = %q, want sudo", cfg.EscalationCommand)
	}
	if !cfg.FileLogging {
		t.Error("FileLogging should default to true")
	}
	if !cfg.History {
		t.Error("History should default to true")
	}
}

func TestValidate_CoercesBadValues(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want Config
	}{
		{
			name: "refresh below floor",
			cfg:  Config{RefreshSeconds: 0, EscalationCommand: "sudo"},
			want: Config{RefreshSeconds: 5, EscalationCommand: "sudo"},
		},
		{
			name: "negative refresh",
			cfg:  Config{RefreshSeconds: -3, EscalationCommand: "doas"},
			want: Config{RefreshSeconds: 5, EscalationCommand: "doas"},
		},
		{
			name: "unknown escalation command",
			cfg:  Config{RefreshSeconds: 10, EscalationCommand: "rm -rf"},
			want: Config{RefreshSeconds: 10, EscalationCommand: "sudo"},
		},
		{
			name: "valid values untouched",
			cfg:  Config{RefreshSeconds: 2, EscalationCommand: "pkexec"},
			want: Config{RefreshSeconds: 2, EscalationCommand: "pkexec"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.cfg.validate()
			if tt.cfg.RefreshSeconds != tt.want.RefreshSeconds {
				t.Errorf("RefreshSeconds = %d, want %d", tt.cfg.RefreshSeconds, tt.want.RefreshSeconds)
			}
			if tt.cfg.EscalationCommand != tt.want.EscalationCommand {
				t.Errorf("EscalationCommand = %q, want %q", tt.cfg.EscalationCommand, tt.want.EscalationCommand)
			}
		})
	}
}

func TestConfig_YAMLRoundTrip(t *testing.T) {
	cfg := Config{
		WireGuardDir:      "/etc/wireguard",
		RefreshSeconds:    7,
		EscalationCommand: "doas",
		FileLogging:       true,
		History:           false,
	}

	data, err := yaml.Marshal(&cfg)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var decoded Config
	if err := yaml.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if decoded != cfg {
		t.Errorf("round trip = %+v, want %+v", decoded, cfg)
	}
}

func TestConfig_RejectsUnknownFields(t *testing.T) {
	input := "refresh_seconds: 5\nturbo_mode: true\n"

	var cfg Config
	dec := yaml.NewDecoder(strings.NewReader(input))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err == nil {
		t.Error("strict decode should reject unknown fields")
	}
}
