package agent

import (
	"context"
	"log/slog"
	"time"

	"github.com/Francoo86/Implementaciones-MAS/internal/export"
	"github.com/Francoo86/Implementaciones-MAS/internal/protocol"
	"github.com/Francoo86/Implementaciones-MAS/internal/schedule"
)

// Room answers slot requests for one physical room. Offers are advisory: the
// slot is only claimed at acceptance time, after re-checking freedom under
// the day guard. The room terminates on its own once it has fully handled
// the number of requests the coordinator announced and nothing is pending.
type Room struct {
	code     string
	capacity int
	deps     Dependencies
	logger   *slog.Logger

	occupancy *schedule.OccupancyMap
	mailbox   *protocol.Mailbox

	totalExpected int
	processed     int
	pending       map[string]pendingRequest

	done chan struct{}
}

// pendingRequest tracks a request between offering and being accepted,
// rejected or expiring.
type pendingRequest struct {
	requester  protocol.Handle
	receivedAt time.Time
	slot       schedule.TimeSlot
}

// NewRoom wires a room agent and registers it. totalExpected is the number
// of requests the room should see this run, announced by the coordinator.
func NewRoom(code string, capacity, totalExpected int, deps Dependencies) (*Room, error) {
	deps.fillDefaults()
	room := &Room{
		code:          code,
		capacity:      capacity,
		deps:          deps,
		logger:        deps.Logger.With("room", code),
		occupancy:     schedule.NewOccupancyMap(code),
		mailbox:       protocol.NewMailbox(deps.Config.MailboxCapacity),
		totalExpected: totalExpected,
		pending:       make(map[string]pendingRequest),
		done:          make(chan struct{}),
	}
	if err := deps.Registry.Register(code, protocol.CapabilityRoom, room.mailbox); err != nil {
		return nil, err
	}
	return room, nil
}

// Done closes when the room has exported and terminated.
func (r *Room) Done() <-chan struct{} {
	return r.done
}

// Run drives the room until its liveness condition fires or ctx is
// cancelled. The expiry sweep runs only between message handling steps,
// never mid-step.
func (r *Room) Run(ctx context.Context) {
	defer close(r.done)
	r.logger.Info("room started", "capacity", r.capacity, "total_expected", r.totalExpected)

	ticker := time.NewTicker(r.deps.Config.SweepInterval)
	defer ticker.Stop()

	for {
		if r.processed >= r.totalExpected && len(r.pending) == 0 {
			r.finalize()
			return
		}
		select {
		case <-ctx.Done():
			r.logger.Warn("room cancelled before completing", "processed", r.processed, "pending", len(r.pending))
			r.finalize()
			return
		case <-ticker.C:
			r.sweep(time.Now())
		case msg, ok := <-r.mailbox.Receive():
			if !ok {
				r.finalize()
				return
			}
			r.handle(msg)
		}
	}
}

func (r *Room) handle(msg protocol.Message) {
	switch m := msg.(type) {
	case protocol.Request:
		r.handleRequest(m)
	case protocol.Accept:
		r.handleAccept(m)
	case protocol.Reject:
		r.handleReject(m)
	default:
		r.logger.Debug("ignoring unexpected message", "kind", msg.Kind().String())
	}
}

func (r *Room) handleRequest(request protocol.Request) {
	now := time.Now()
	r.sweep(now)

	slot, found := r.occupancy.FirstFree()
	if !found {
		r.logger.Debug("refusing request, no free slot", "correlation", request.CorrelationID)
		request.Requester.Mailbox.Deliver(protocol.Refuse{
			CorrelationID: request.CorrelationID,
			RoomCode:      r.code,
		})
		r.processed++
		return
	}

	r.pending[request.CorrelationID] = pendingRequest{
		requester:  request.Requester,
		receivedAt: now,
		slot:       slot,
	}
	delivered := request.Requester.Mailbox.Deliver(protocol.Offer{
		CorrelationID: request.CorrelationID,
		RoomCode:      r.code,
		Slot:          slot,
		Capacity:      r.capacity,
		Room:          protocol.Handle{ID: r.code, Mailbox: r.mailbox},
		SentAt:        now,
	})
	if !delivered {
		// The requester is gone or saturated; the sweep will reclaim this.
		r.logger.Debug("offer not delivered", "correlation", request.CorrelationID, "teacher", request.Requester.ID)
	}
	r.logger.Debug("offered slot", "correlation", request.CorrelationID, "slot", slot.String())
}

func (r *Room) handleAccept(accept protocol.Accept) {
	pending, ok := r.pending[accept.CorrelationID]
	if !ok {
		// Stale acceptance: the pending entry already expired. The teacher's
		// confirmation timeout drives its retry.
		r.logger.Debug("dropping stale acceptance", "correlation", accept.CorrelationID)
		return
	}
	delete(r.pending, accept.CorrelationID)
	r.processed++

	entry := schedule.Entry{
		Subject:      accept.Subject,
		TeacherID:    accept.TeacherID,
		RoomCode:     r.code,
		Satisfaction: accept.Satisfaction,
		Slot:         accept.Slot,
	}
	if !r.occupancy.AssignIfFree(accept.Slot, entry) {
		// The slot was claimed by a different correlation id after the offer
		// went out. Confirmation is withheld; no reply at all.
		r.logger.Debug("commit lost race, withholding confirmation",
			"correlation", accept.CorrelationID, "slot", accept.Slot.String())
		return
	}
	pending.requester.Mailbox.Deliver(protocol.Confirm{
		CorrelationID: accept.CorrelationID,
		RoomCode:      r.code,
		Slot:          accept.Slot,
	})
	r.logger.Debug("committed", "correlation", accept.CorrelationID,
		"subject", accept.Subject, "teacher", accept.TeacherID, "slot", accept.Slot.String())
}

func (r *Room) handleReject(reject protocol.Reject) {
	if _, ok := r.pending[reject.CorrelationID]; !ok {
		return
	}
	delete(r.pending, reject.CorrelationID)
	r.processed++
}

// sweep purges pending offers older than the response deadline. An expired
// request counts as processed: the implicit refusal the requester's own
// deadline already produced.
func (r *Room) sweep(now time.Time) {
	for correlation, pending := range r.pending {
		if now.Sub(pending.receivedAt) > r.deps.Config.ResponseDeadline {
			delete(r.pending, correlation)
			r.processed++
			r.logger.Debug("expired pending request", "correlation", correlation)
		}
	}
}

func (r *Room) finalize() {
	r.deps.Registry.Deregister(r.code)
	r.mailbox.Close()

	mapExport := r.occupancy.Export()
	if err := r.deps.Sink.RoomSchedule(export.RoomExport{
		RoomCode:    r.code,
		Capacity:    r.capacity,
		Assignments: mapExport.Entries,
	}); err != nil {
		r.logger.Error("room export failed", "error", err)
	}
	r.logger.Info("room finished", "assignments", len(mapExport.Entries), "processed", r.processed)
}
