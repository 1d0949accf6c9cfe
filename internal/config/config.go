// Package config provides configuration loading for the timetabling run.
// Every protocol deadline and budget lives here so tests can shrink them.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete run configuration.
type Config struct {
	Negotiation NegotiationConfig `yaml:"negotiation"`
	Coordinator CoordinatorConfig `yaml:"coordinator"`
	Export      ExportConfig      `yaml:"export"`
	Telemetry   TelemetryConfig   `yaml:"telemetry"`
}

// NegotiationConfig bounds the request/offer/accept/confirm exchange.
type NegotiationConfig struct {
	// ProposalDeadline is how long a teacher collects offers for one request.
	ProposalDeadline time.Duration `yaml:"proposal_deadline"`
	// ConfirmDeadline is how long a teacher waits for a commit confirmation.
	ConfirmDeadline time.Duration `yaml:"confirm_deadline"`
	// ResponseDeadline is how long a room keeps a pending offer alive. Kept
	// shorter than ProposalDeadline so the room fails fast and a stale
	// acceptance cannot land after the requester gave up.
	ResponseDeadline time.Duration `yaml:"response_deadline"`
	// SweepInterval is how often a room purges expired pending requests.
	SweepInterval time.Duration `yaml:"sweep_interval"`
	// MaxAttemptsPerSubject caps the retries of a single subject.
	MaxAttemptsPerSubject int `yaml:"max_attempts_per_subject"`
	// RetryBudget caps total retries across all of one teacher's subjects.
	RetryBudget int `yaml:"retry_budget"`
	// MailboxCapacity sizes every agent inbox.
	MailboxCapacity int `yaml:"mailbox_capacity"`
}

// CoordinatorConfig bounds turn sequencing and finalization.
type CoordinatorConfig struct {
	// WatchdogTick is the liveness check period.
	WatchdogTick time.Duration `yaml:"watchdog_tick"`
	// InactivityTicks is how many ticks without progress the active teacher
	// may accumulate before it is forcibly terminated.
	InactivityTicks int `yaml:"inactivity_ticks"`
	// FinalizeGrace is the delay before finalization after the last teacher
	// finishes, giving export writes time to land.
	FinalizeGrace time.Duration `yaml:"finalize_grace"`
	// RoomDrainTimeout bounds the wait for rooms to self-terminate.
	RoomDrainTimeout time.Duration `yaml:"room_drain_timeout"`
}

// ExportConfig locates the output files.
type ExportConfig struct {
	Dir          string `yaml:"dir"`
	TeachersFile string `yaml:"teachers_file"`
	RoomsFile    string `yaml:"rooms_file"`
}

// TelemetryConfig enables the optional latency recording.
type TelemetryConfig struct {
	Enabled bool   `yaml:"enabled"`
	RTTDir  string `yaml:"rtt_dir"`
	// MetricsListen, when non-empty, serves Prometheus metrics during the run.
	MetricsListen string `yaml:"metrics_listen"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Negotiation: NegotiationConfig{
			ProposalDeadline:      2 * time.Second,
			ConfirmDeadline:       2 * time.Second,
			ResponseDeadline:      1500 * time.Millisecond,
			SweepInterval:         250 * time.Millisecond,
			MaxAttemptsPerSubject: 3,
			RetryBudget:           10,
			MailboxCapacity:       64,
		},
		Coordinator: CoordinatorConfig{
			WatchdogTick:     500 * time.Millisecond,
			InactivityTicks:  10,
			FinalizeGrace:    500 * time.Millisecond,
			RoomDrainTimeout: 5 * time.Second,
		},
		Export: ExportConfig{
			Dir:          "agent_output",
			TeachersFile: "teachers_schedule.json",
			RoomsFile:    "rooms_schedule.json",
		},
		Telemetry: TelemetryConfig{
			Enabled: false,
			RTTDir:  "agent_output/rtt_logs",
		},
	}
}

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	n := c.Negotiation
	if n.ProposalDeadline <= 0 {
		return fmt.Errorf("negotiation.proposal_deadline must be positive")
	}
	if n.ConfirmDeadline <= 0 {
		return fmt.Errorf("negotiation.confirm_deadline must be positive")
	}
	if n.ResponseDeadline <= 0 {
		return fmt.Errorf("negotiation.response_deadline must be positive")
	}
	if n.ResponseDeadline >= n.ProposalDeadline {
		return fmt.Errorf("negotiation.response_deadline must be shorter than proposal_deadline")
	}
	if n.SweepInterval <= 0 {
		return fmt.Errorf("negotiation.sweep_interval must be positive")
	}
	if n.MaxAttemptsPerSubject < 1 {
		return fmt.Errorf("negotiation.max_attempts_per_subject must be at least 1")
	}
	if n.RetryBudget < 0 {
		return fmt.Errorf("negotiation.retry_budget must not be negative")
	}
	if n.MailboxCapacity < 1 {
		return fmt.Errorf("negotiation.mailbox_capacity must be at least 1")
	}
	co := c.Coordinator
	if co.WatchdogTick <= 0 {
		return fmt.Errorf("coordinator.watchdog_tick must be positive")
	}
	if co.InactivityTicks < 1 {
		return fmt.Errorf("coordinator.inactivity_ticks must be at least 1")
	}
	if co.FinalizeGrace < 0 {
		return fmt.Errorf("coordinator.finalize_grace must not be negative")
	}
	if co.RoomDrainTimeout <= 0 {
		return fmt.Errorf("coordinator.room_drain_timeout must be positive")
	}
	if c.Export.Dir == "" {
		return fmt.Errorf("export.dir is required")
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file, layered over defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return config, nil
}
