// Package protocol defines the messages the negotiation exchange is built
// from and the plumbing that carries them: per-agent mailboxes and the
// capability registry agents use to discover each other.
//
// A negotiation is a four-message exchange, every message tagged with the
// correlation id minted for the opening request:
//
//	teacher --Request--> every room
//	room    --Offer/Refuse--> teacher
//	teacher --Accept/Reject--> room
//	room    --Confirm--> teacher (only after a successful commit)
package protocol

import (
	"time"

	"github.com/google/uuid"

	"github.com/Francoo86/Implementaciones-MAS/internal/schedule"
)

type Kind int

const (
	KindRequest Kind = iota
	KindOffer
	KindRefuse
	KindAccept
	KindReject
	KindConfirm
	KindTurnGrant
)

var kindNames = map[Kind]string{
	KindRequest:   "request",
	KindOffer:     "offer",
	KindRefuse:    "refuse",
	KindAccept:    "accept",
	KindReject:    "reject",
	KindConfirm:   "confirm",
	KindTurnGrant: "turn-grant",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Message is the sum of everything a mailbox can carry.
type Message interface {
	Kind() Kind
	Correlation() string
}

// NewCorrelationID mints the id that ties a request to its offers, the chosen
// offer to its accept, and the accept to its confirmation.
func NewCorrelationID() string {
	return uuid.NewString()
}

// Request opens a negotiation for one subject. Broadcast by a teacher to
// every room known at that instant.
type Request struct {
	CorrelationID string
	Subject       schedule.Subject
	Requester     Handle
	SentAt        time.Time
}

func (Request) Kind() Kind            { return KindRequest }
func (r Request) Correlation() string { return r.CorrelationID }

// Offer proposes exactly one slot. Advisory: the room does not reserve the
// slot when offering.
type Offer struct {
	CorrelationID string
	RoomCode      string
	Slot          schedule.TimeSlot
	Capacity      int
	Room          Handle
	SentAt        time.Time
}

func (Offer) Kind() Kind            { return KindOffer }
func (o Offer) Correlation() string { return o.CorrelationID }

// Refuse is a room's explicit negative answer to a request.
type Refuse struct {
	CorrelationID string
	RoomCode      string
}

func (Refuse) Kind() Kind            { return KindRefuse }
func (r Refuse) Correlation() string { return r.CorrelationID }

// Accept claims a previously offered slot. The room re-validates the slot
// before committing; a lost race produces no reply at all.
type Accept struct {
	CorrelationID string
	Subject       string
	TeacherID     string
	Slot          schedule.TimeSlot
	Satisfaction  int
	Requester     Handle
}

func (Accept) Kind() Kind            { return KindAccept }
func (a Accept) Correlation() string { return a.CorrelationID }

// Reject releases an offer the teacher did not choose.
type Reject struct {
	CorrelationID string
	TeacherID     string
}

func (Reject) Kind() Kind            { return KindReject }
func (r Reject) Correlation() string { return r.CorrelationID }

// Confirm reports a successful commit back to the accepting teacher.
type Confirm struct {
	CorrelationID string
	RoomCode      string
	Slot          schedule.TimeSlot
}

func (Confirm) Kind() Kind            { return KindConfirm }
func (c Confirm) Correlation() string { return c.CorrelationID }

// TurnGrant hands a teacher the exclusive right to negotiate.
type TurnGrant struct {
	Position int
}

func (TurnGrant) Kind() Kind          { return KindTurnGrant }
func (TurnGrant) Correlation() string { return "" }
