package agent

import (
	"context"
	"log/slog"
	"slices"
	"sync/atomic"
	"time"

	"github.com/samber/lo"

	"github.com/Francoo86/Implementaciones-MAS/internal/export"
	"github.com/Francoo86/Implementaciones-MAS/internal/protocol"
	"github.com/Francoo86/Implementaciones-MAS/internal/schedule"
)

// Teacher negotiates room slots for its subjects, one subject at a time. It
// stays idle until it receives the turn token, negotiates every subject
// against all rooms known at that instant, exports its final schedule and
// terminates.
type Teacher struct {
	id       string
	name     string
	order    int
	deps     Dependencies
	logger   *slog.Logger
	subjects []schedule.Subject

	occupancy *schedule.OccupancyMap
	mailbox   *protocol.Mailbox

	assigned    []schedule.Entry
	unassigned  []export.UnassignedSubject
	retriesUsed int

	// progress advances on every subject handled; the coordinator's watchdog
	// reads it to detect a stalled turn.
	progress atomic.Int64
	active   atomic.Bool

	done chan struct{}
}

// receivedOffer is an offer as collected: the wire message plus the arrival
// bookkeeping the tie-break uses.
type receivedOffer struct {
	offer     protocol.Offer
	arrivedAt time.Time
	seq       int
}

type negotiationOutcome int

const (
	// outcomeAdvance: the subject was assigned or recorded unassigned; move on.
	outcomeAdvance negotiationOutcome = iota
	// outcomeBudget: the global retry budget is spent; abort remaining subjects.
	outcomeBudget
	// outcomeForced: the context was cancelled mid-negotiation.
	outcomeForced
)

// NewTeacher wires a teacher agent and registers it. order is the teacher's
// position in the turn sequence.
func NewTeacher(id, name string, order int, subjects []schedule.Subject, deps Dependencies) (*Teacher, error) {
	deps.fillDefaults()
	teacher := &Teacher{
		id:        id,
		name:      name,
		order:     order,
		deps:      deps,
		logger:    deps.Logger.With("teacher", id),
		subjects:  subjects,
		occupancy: schedule.NewOccupancyMap(id),
		mailbox:   protocol.NewMailbox(deps.Config.MailboxCapacity),
		done:      make(chan struct{}),
	}
	if err := deps.Registry.Register(id, protocol.CapabilityTeacher, teacher.mailbox); err != nil {
		return nil, err
	}
	return teacher, nil
}

// Mailbox exposes the inbox so the coordinator can grant the turn.
func (t *Teacher) Mailbox() *protocol.Mailbox {
	return t.mailbox
}

// Done closes when the teacher has exported and terminated.
func (t *Teacher) Done() <-chan struct{} {
	return t.done
}

// Progress is the number of subjects handled so far. Monotonic; read by the
// coordinator's liveness watchdog.
func (t *Teacher) Progress() int64 {
	return t.progress.Load()
}

// Active reports whether the teacher currently holds the turn and is
// negotiating.
func (t *Teacher) Active() bool {
	return t.active.Load()
}

// Run drives the teacher: idle until the turn token arrives, then one
// negotiation per subject, then finalization.
func (t *Teacher) Run(ctx context.Context) {
	defer close(t.done)

	if !t.awaitTurn(ctx) {
		t.abortFrom(0, ReasonForcedTermination)
		t.finalize()
		return
	}

	t.active.Store(true)
	t.logger.Info("turn granted", "order", t.order, "subjects", len(t.subjects))

	next := 0
	for next < len(t.subjects) {
		if ctx.Err() != nil {
			t.abortFrom(next, ReasonForcedTermination)
			break
		}
		outcome := t.negotiate(ctx, t.subjects[next])
		next++
		t.progress.Add(1)

		switch outcome {
		case outcomeBudget:
			t.logger.Warn("retry budget exhausted", "remaining", len(t.subjects)-next)
			t.abortFrom(next, ReasonRetryBudget)
			next = len(t.subjects)
		case outcomeForced:
			t.abortFrom(next, ReasonForcedTermination)
			next = len(t.subjects)
		}
	}

	t.active.Store(false)
	t.finalize()
}

// awaitTurn blocks until the turn token arrives. Anything else delivered
// while idle is discarded. Returns false on cancellation.
func (t *Teacher) awaitTurn(ctx context.Context) bool {
	for {
		select {
		case <-ctx.Done():
			return false
		case msg, ok := <-t.mailbox.Receive():
			if !ok {
				return false
			}
			if _, granted := msg.(protocol.TurnGrant); granted {
				return true
			}
		}
	}
}

// negotiate places one subject: broadcast a request, collect offers,
// evaluate, accept the best, await confirmation; retry within the attempt
// budget on failure.
func (t *Teacher) negotiate(ctx context.Context, subject schedule.Subject) negotiationOutcome {
	for attempt := 1; ; attempt++ {
		if attempt > 1 {
			if t.retriesUsed >= t.deps.Config.RetryBudget {
				t.unassign(subject, ReasonRetryBudget)
				return outcomeBudget
			}
			t.retriesUsed++
		}

		// Fresh registry snapshot for every request: rooms that terminated
		// since the last attempt are gone from it.
		rooms := t.deps.Registry.Lookup(protocol.CapabilityRoom)
		if len(rooms) == 0 {
			t.unassign(subject, ReasonNoRooms)
			return outcomeAdvance
		}

		correlation := protocol.NewCorrelationID()
		t.deps.Recorder.Start(correlation, "request", "broadcast")
		request := protocol.Request{
			CorrelationID: correlation,
			Subject:       subject,
			Requester:     protocol.Handle{ID: t.id, Mailbox: t.mailbox},
			SentAt:        time.Now(),
		}
		for _, room := range rooms {
			room.Mailbox.Deliver(request)
		}

		offers, interrupted := t.collectProposals(ctx, correlation, len(rooms))
		t.deps.Recorder.End(correlation, "collected", len(offers) > 0)
		if interrupted {
			t.unassign(subject, ReasonForcedTermination)
			return outcomeForced
		}

		viable := t.evaluate(subject, offers)
		if len(viable) == 0 {
			t.logger.Debug("no suitable offer", "subject", subject.Name, "attempt", attempt)
			if attempt >= t.deps.Config.MaxAttemptsPerSubject {
				t.unassign(subject, ReasonNoSuitableOffer)
				return outcomeAdvance
			}
			continue
		}

		best := viable[0]
		satisfaction := schedule.Satisfaction(best.offer.Capacity, subject.Vacancies)
		t.deps.Recorder.Start(correlation, "accept", best.offer.RoomCode)
		best.offer.Room.Mailbox.Deliver(protocol.Accept{
			CorrelationID: correlation,
			Subject:       subject.Name,
			TeacherID:     t.id,
			Slot:          best.offer.Slot,
			Satisfaction:  satisfaction,
			Requester:     protocol.Handle{ID: t.id, Mailbox: t.mailbox},
		})
		for _, other := range offers {
			if other.seq == best.seq {
				continue
			}
			other.offer.Room.Mailbox.Deliver(protocol.Reject{
				CorrelationID: other.offer.CorrelationID,
				TeacherID:     t.id,
			})
		}

		confirmed, interrupted := t.awaitConfirm(ctx, correlation)
		if interrupted {
			t.deps.Recorder.End(correlation, "cancelled", false)
			t.unassign(subject, ReasonForcedTermination)
			return outcomeForced
		}
		if confirmed {
			t.deps.Recorder.End(correlation, "confirm", true)
			entry := schedule.Entry{
				Subject:      subject.Name,
				TeacherID:    t.id,
				RoomCode:     best.offer.RoomCode,
				Satisfaction: satisfaction,
				Slot:         best.offer.Slot,
			}
			if t.occupancy.AssignIfFree(best.offer.Slot, entry) {
				t.assigned = append(t.assigned, entry)
				t.logger.Info("subject assigned", "subject", subject.Name,
					"room", best.offer.RoomCode, "slot", best.offer.Slot.String(),
					"satisfaction", satisfaction)
				return outcomeAdvance
			}
			// The evaluation filter makes this unreachable while the teacher
			// negotiates one subject at a time; treated as a failed attempt.
			t.logger.Warn("confirmed slot clashed with own schedule",
				"subject", subject.Name, "slot", best.offer.Slot.String())
		} else {
			// The room may have lost the slot race to another correlation id
			// and withheld confirmation.
			t.deps.Recorder.End(correlation, "timeout", false)
			t.logger.Debug("confirmation timed out", "subject", subject.Name, "attempt", attempt)
		}

		if attempt >= t.deps.Config.MaxAttemptsPerSubject {
			t.unassign(subject, ReasonNoConfirmation)
			return outcomeAdvance
		}
	}
}

// collectProposals accumulates offers and refusals for correlation until all
// expected replies arrived or the proposal deadline elapsed. Rooms that never
// reply count as implicit refusals once the deadline fires. The second return
// reports cancellation.
func (t *Teacher) collectProposals(ctx context.Context, correlation string, expected int) ([]receivedOffer, bool) {
	timer := time.NewTimer(t.deps.Config.ProposalDeadline)
	defer timer.Stop()

	var offers []receivedOffer
	replies := 0
	for replies < expected {
		select {
		case <-ctx.Done():
			return offers, true
		case <-timer.C:
			return offers, false
		case msg, ok := <-t.mailbox.Receive():
			if !ok {
				return offers, false
			}
			switch m := msg.(type) {
			case protocol.Offer:
				if m.CorrelationID != correlation {
					continue
				}
				offers = append(offers, receivedOffer{offer: m, arrivedAt: time.Now(), seq: len(offers)})
				replies++
			case protocol.Refuse:
				if m.CorrelationID != correlation {
					continue
				}
				replies++
			default:
				// Stale confirms or duplicate turn grants; not part of this
				// collection round.
			}
		}
	}
	return offers, false
}

// evaluate discards offers clashing with the teacher's own schedule and
// ranks the rest: satisfaction descending, earliest arrival first on ties.
func (t *Teacher) evaluate(subject schedule.Subject, offers []receivedOffer) []receivedOffer {
	viable := lo.Filter(offers, func(o receivedOffer, _ int) bool {
		return t.occupancy.IsFree(o.offer.Slot)
	})
	slices.SortStableFunc(viable, func(a, b receivedOffer) int {
		scoreA := schedule.Satisfaction(a.offer.Capacity, subject.Vacancies)
		scoreB := schedule.Satisfaction(b.offer.Capacity, subject.Vacancies)
		if scoreA != scoreB {
			return scoreB - scoreA
		}
		return a.seq - b.seq
	})
	return viable
}

// awaitConfirm waits for the commit confirmation, bounded by the
// confirmation deadline. The second return reports cancellation.
func (t *Teacher) awaitConfirm(ctx context.Context, correlation string) (bool, bool) {
	timer := time.NewTimer(t.deps.Config.ConfirmDeadline)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return false, true
		case <-timer.C:
			return false, false
		case msg, ok := <-t.mailbox.Receive():
			if !ok {
				return false, false
			}
			if confirm, isConfirm := msg.(protocol.Confirm); isConfirm && confirm.CorrelationID == correlation {
				return true, false
			}
		}
	}
}

func (t *Teacher) unassign(subject schedule.Subject, reason string) {
	t.unassigned = append(t.unassigned, export.UnassignedSubject{Subject: subject, Reason: reason})
}

// abortFrom records every subject from index on as unassigned with reason.
func (t *Teacher) abortFrom(index int, reason string) {
	for _, subject := range t.subjects[index:] {
		t.unassign(subject, reason)
	}
}

func (t *Teacher) finalize() {
	t.active.Store(false)
	t.deps.Registry.Deregister(t.id)
	t.mailbox.Close()

	if err := t.deps.Sink.TeacherSchedule(export.TeacherExport{
		TeacherID:  t.id,
		Name:       t.name,
		Assigned:   t.assigned,
		Unassigned: t.unassigned,
	}); err != nil {
		t.logger.Error("teacher export failed", "error", err)
	}
	t.logger.Info("teacher finished",
		"assigned", len(t.assigned),
		"total", len(t.subjects))
}
