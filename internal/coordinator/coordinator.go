// Package coordinator sequences the negotiation run: it spawns every agent,
// enforces the one-active-teacher turn chain, watches the active teacher for
// liveness and finalizes the export once everyone is done.
package coordinator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/Francoo86/Implementaciones-MAS/internal/agent"
	"github.com/Francoo86/Implementaciones-MAS/internal/config"
	"github.com/Francoo86/Implementaciones-MAS/internal/export"
	"github.com/Francoo86/Implementaciones-MAS/internal/input"
	"github.com/Francoo86/Implementaciones-MAS/internal/protocol"
	"github.com/Francoo86/Implementaciones-MAS/internal/telemetry"
)

// Dependencies carries the run-wide collaborators.
type Dependencies struct {
	Registry *protocol.Registry
	Sink     export.Sink
	Logger   *slog.Logger
	Config   *config.Config
	// NewRecorder builds the per-agent telemetry recorder. Optional.
	NewRecorder func(agentName string) telemetry.Recorder
}

// Coordinator owns the ordered teacher list and hands the turn token
// explicitly; teachers never look each other up.
type Coordinator struct {
	deps   Dependencies
	logger *slog.Logger

	mu       sync.RWMutex
	teachers []*agent.Teacher
	rooms    []*agent.Room

	teacherCancels []context.CancelFunc
	roomCancel     context.CancelFunc
}

func New(deps Dependencies) (*Coordinator, error) {
	if deps.Registry == nil {
		return nil, fmt.Errorf("registry is required")
	}
	if deps.Sink == nil {
		return nil, fmt.Errorf("export sink is required")
	}
	if deps.Config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.NewRecorder == nil {
		deps.NewRecorder = func(string) telemetry.Recorder { return telemetry.Nop{} }
	}
	return &Coordinator{
		deps:   deps,
		logger: deps.Logger.With("component", "coordinator"),
	}, nil
}

// Teachers exposes the spawned teacher agents, in turn order.
func (c *Coordinator) Teachers() []*agent.Teacher {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]*agent.Teacher(nil), c.teachers...)
}

// Rooms exposes the spawned room agents.
func (c *Coordinator) Rooms() []*agent.Room {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]*agent.Room(nil), c.rooms...)
}

// Run executes one complete negotiation: spawn rooms (informed of the total
// request count), spawn teachers inactive, grant the first turn, sequence
// the chain under the liveness watchdog, then finalize.
func (c *Coordinator) Run(ctx context.Context, teachers []input.TeacherRecord, rooms []input.RoomRecord) error {
	if len(teachers) == 0 {
		return fmt.Errorf("no teachers to schedule")
	}
	if len(rooms) == 0 {
		return fmt.Errorf("no rooms to schedule into")
	}

	totalRequests := lo.SumBy(teachers, func(t input.TeacherRecord) int { return len(t.Subjects) })
	c.logger.Info("starting run",
		"teachers", len(teachers), "rooms", len(rooms), "total_requests", totalRequests)

	if err := c.spawn(ctx, teachers, rooms, totalRequests); err != nil {
		return err
	}

	// Turn chain: exactly one teacher negotiates at a time.
	c.grantTurn(0)
	for i := range c.teachers {
		if err := c.superviseTurn(ctx, i); err != nil {
			c.stopAll()
			return err
		}
		if i+1 < len(c.teachers) {
			c.grantTurn(i + 1)
		}
	}

	// Grace delay so in-flight export writes land before finalization.
	select {
	case <-time.After(c.deps.Config.Coordinator.FinalizeGrace):
	case <-ctx.Done():
		c.stopAll()
		return ctx.Err()
	}

	c.drainRooms(ctx)

	if err := c.deps.Sink.Finalize(); err != nil {
		return fmt.Errorf("finalize export: %w", err)
	}
	c.logger.Info("run finished")
	return nil
}

func (c *Coordinator) spawn(ctx context.Context, teachers []input.TeacherRecord, rooms []input.RoomRecord, totalRequests int) error {
	agentDeps := func(name string) agent.Dependencies {
		return agent.Dependencies{
			Registry: c.deps.Registry,
			Sink:     c.deps.Sink,
			Recorder: c.deps.NewRecorder(name),
			Logger:   c.deps.Logger,
			Config:   c.deps.Config.Negotiation,
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	roomCtx, roomCancel := context.WithCancel(ctx)
	c.roomCancel = roomCancel
	for _, record := range rooms {
		room, err := agent.NewRoom(record.Code, record.Capacity, totalRequests, agentDeps(record.Code))
		if err != nil {
			return fmt.Errorf("spawn room %s: %w", record.Code, err)
		}
		c.rooms = append(c.rooms, room)
		go room.Run(roomCtx)
	}

	for order, record := range teachers {
		teacher, err := agent.NewTeacher(record.ID, record.Name, order, record.Subjects, agentDeps(record.ID))
		if err != nil {
			return fmt.Errorf("spawn teacher %s: %w", record.ID, err)
		}
		teacherCtx, cancel := context.WithCancel(ctx)
		c.teachers = append(c.teachers, teacher)
		c.teacherCancels = append(c.teacherCancels, cancel)
		go teacher.Run(teacherCtx)
	}
	return nil
}

func (c *Coordinator) grantTurn(position int) {
	teacher := c.teachers[position]
	teacher.Mailbox().Deliver(protocol.TurnGrant{Position: position})
	c.logger.Debug("turn granted", "position", position)
}

// superviseTurn waits for the teacher at position to finish, forcibly
// terminating it if its progress counter stalls for the inactivity budget.
func (c *Coordinator) superviseTurn(ctx context.Context, position int) error {
	teacher := c.teachers[position]
	ticker := time.NewTicker(c.deps.Config.Coordinator.WatchdogTick)
	defer ticker.Stop()

	lastProgress := teacher.Progress()
	staleTicks := 0
	forced := false

	for {
		select {
		case <-teacher.Done():
			return nil
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if forced {
				continue
			}
			progress := teacher.Progress()
			if progress != lastProgress {
				lastProgress = progress
				staleTicks = 0
				continue
			}
			staleTicks++
			if staleTicks >= c.deps.Config.Coordinator.InactivityTicks {
				c.logger.Warn("teacher stalled, forcing termination",
					"position", position, "progress", progress)
				c.teacherCancels[position]()
				forced = true
			}
		}
	}
}

// drainRooms waits for the rooms' own termination condition, bounded by the
// drain timeout, after which they are cancelled and export what they hold.
func (c *Coordinator) drainRooms(ctx context.Context) {
	deadline := time.NewTimer(c.deps.Config.Coordinator.RoomDrainTimeout)
	defer deadline.Stop()

	for _, room := range c.rooms {
		select {
		case <-room.Done():
		case <-deadline.C:
			c.logger.Warn("room drain timeout, cancelling remaining rooms")
			c.roomCancel()
			for _, remaining := range c.rooms {
				<-remaining.Done()
			}
			return
		case <-ctx.Done():
			c.roomCancel()
			for _, remaining := range c.rooms {
				<-remaining.Done()
			}
			return
		}
	}
}

func (c *Coordinator) stopAll() {
	for _, cancel := range c.teacherCancels {
		cancel()
	}
	if c.roomCancel != nil {
		c.roomCancel()
	}
}
