// Package agent implements the two negotiating parties of the timetabling
// protocol: the teacher state machine that places subjects one by one, and
// the room state machine that answers requests and commits slots.
//
// Each agent runs as a single goroutine over its own mailbox. Agents share no
// memory; everything between them travels as protocol messages. The only
// state touched by concurrent negotiations is a room's own occupancy map,
// which serializes per day.
package agent

import (
	"log/slog"

	"github.com/Francoo86/Implementaciones-MAS/internal/config"
	"github.com/Francoo86/Implementaciones-MAS/internal/export"
	"github.com/Francoo86/Implementaciones-MAS/internal/protocol"
	"github.com/Francoo86/Implementaciones-MAS/internal/telemetry"
)

// Reasons recorded for subjects the negotiation could not place.
const (
	ReasonNoRooms           = "no rooms available"
	ReasonNoSuitableOffer   = "no suitable offer"
	ReasonNoConfirmation    = "no confirmation"
	ReasonRetryBudget       = "retry budget exhausted"
	ReasonForcedTermination = "forced termination"
)

// Dependencies carries the collaborators every agent is wired with.
type Dependencies struct {
	Registry *protocol.Registry
	Sink     export.Sink
	Recorder telemetry.Recorder
	Logger   *slog.Logger
	Config   config.NegotiationConfig
}

func (d *Dependencies) fillDefaults() {
	if d.Recorder == nil {
		d.Recorder = telemetry.Nop{}
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
}
