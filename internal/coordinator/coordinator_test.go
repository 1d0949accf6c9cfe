package coordinator

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/onsi/gomega"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Francoo86/Implementaciones-MAS/internal/agent"
	"github.com/Francoo86/Implementaciones-MAS/internal/config"
	"github.com/Francoo86/Implementaciones-MAS/internal/export"
	"github.com/Francoo86/Implementaciones-MAS/internal/input"
	"github.com/Francoo86/Implementaciones-MAS/internal/protocol"
	"github.com/Francoo86/Implementaciones-MAS/internal/schedule"
)

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Negotiation.ProposalDeadline = 300 * time.Millisecond
	cfg.Negotiation.ConfirmDeadline = 300 * time.Millisecond
	cfg.Negotiation.ResponseDeadline = 150 * time.Millisecond
	cfg.Negotiation.SweepInterval = 20 * time.Millisecond
	cfg.Coordinator.WatchdogTick = 50 * time.Millisecond
	cfg.Coordinator.InactivityTicks = 40
	cfg.Coordinator.FinalizeGrace = 50 * time.Millisecond
	cfg.Coordinator.RoomDrainTimeout = 3 * time.Second
	return cfg
}

func run(t *testing.T, cfg *config.Config, teachers []input.TeacherRecord, rooms []input.RoomRecord) *export.MemorySink {
	t.Helper()
	sink := export.NewMemorySink()
	coordinator, err := New(Dependencies{
		Registry: protocol.NewRegistry(),
		Sink:     sink,
		Logger:   slog.Default(),
		Config:   cfg,
	})
	require.NoError(t, err)
	require.NoError(t, coordinator.Run(context.Background(), teachers, rooms))
	require.True(t, sink.Finalized())
	return sink
}

func subjects(vacancies int, names ...string) []schedule.Subject {
	return lo.Map(names, func(name string, _ int) schedule.Subject {
		return schedule.Subject{Name: name, Hours: 2, Vacancies: vacancies}
	})
}

func TestRunProducesConsistentSchedules(t *testing.T) {
	teachers := []input.TeacherRecord{
		{ID: "T1", Name: "Ana", Subjects: subjects(30, "Algebra", "Geometry")},
		{ID: "T2", Name: "Luis", Subjects: subjects(40, "Physics", "Chemistry")},
		{ID: "T3", Name: "Eva", Subjects: subjects(25, "Biology")},
	}
	rooms := []input.RoomRecord{
		{Code: "R1", Capacity: 30},
		{Code: "R2", Capacity: 40},
	}

	sink := run(t, testConfig(), teachers, rooms)

	teacherExports := sink.Teachers()
	require.Len(t, teacherExports, 3)
	roomExports := sink.Rooms()
	require.Len(t, roomExports, 2)

	// Plenty of free slots: everything must be placed
	for _, teacher := range teacherExports {
		assert.Empty(t, teacher.Unassigned, "teacher %s", teacher.TeacherID)
	}

	roomMaps, teacherMaps := sink.Maps()
	assert.NoError(t, schedule.Verify(roomMaps, teacherMaps))
}

func TestRunCapacityPreference(t *testing.T) {
	// One subject, 30 vacancies: R1 (30) scores 10, R2 (40) scores 5, and the
	// first free slot of a fresh room is Monday block 1.
	teachers := []input.TeacherRecord{
		{ID: "T1", Name: "Ana", Subjects: subjects(30, "Algebra")},
	}
	rooms := []input.RoomRecord{
		{Code: "R1", Capacity: 30},
		{Code: "R2", Capacity: 40},
	}

	sink := run(t, testConfig(), teachers, rooms)

	teacherExports := sink.Teachers()
	require.Len(t, teacherExports, 1)
	require.Len(t, teacherExports[0].Assigned, 1)
	entry := teacherExports[0].Assigned[0]
	assert.Equal(t, "R1", entry.RoomCode)
	assert.Equal(t, schedule.TimeSlot{Day: schedule.Monday, Block: 1}, entry.Slot)
	assert.Equal(t, schedule.SatisfactionExact, entry.Satisfaction)
}

func TestRunProceedsPastFullyBookedRoom(t *testing.T) {
	// R1 (the capacity match) fills up after 25 subjects; the 26th placement
	// must come from R1's refusal being tolerated and R2's offer winning.
	names := make([]string, schedule.TotalDays*schedule.BlocksPerDay+1)
	for i := range names {
		names[i] = fmt.Sprintf("Subject-%02d", i)
	}
	teachers := []input.TeacherRecord{
		{ID: "T1", Name: "Ana", Subjects: subjects(30, names...)},
	}
	rooms := []input.RoomRecord{
		{Code: "R1", Capacity: 30},
		{Code: "R2", Capacity: 40},
	}

	sink := run(t, testConfig(), teachers, rooms)

	teacherExports := sink.Teachers()
	require.Len(t, teacherExports, 1)
	require.Len(t, teacherExports[0].Assigned, len(names))

	byRoom := lo.GroupBy(teacherExports[0].Assigned, func(e schedule.Entry) string { return e.RoomCode })
	assert.Len(t, byRoom["R1"], schedule.TotalDays*schedule.BlocksPerDay)
	require.Len(t, byRoom["R2"], 1)
	assert.Equal(t, schedule.SatisfactionLarger, byRoom["R2"][0].Satisfaction)

	roomMaps, teacherMaps := sink.Maps()
	assert.NoError(t, schedule.Verify(roomMaps, teacherMaps))
}

func TestRunAtMostOneActiveTeacher(t *testing.T) {
	g := gomega.NewWithT(t)
	teachers := []input.TeacherRecord{
		{ID: "T1", Name: "Ana", Subjects: subjects(30, "A1", "A2", "A3")},
		{ID: "T2", Name: "Luis", Subjects: subjects(30, "B1", "B2", "B3")},
		{ID: "T3", Name: "Eva", Subjects: subjects(30, "C1", "C2", "C3")},
	}
	rooms := []input.RoomRecord{
		{Code: "R1", Capacity: 30},
		{Code: "R2", Capacity: 30},
	}

	sink := export.NewMemorySink()
	coordinator, err := New(Dependencies{
		Registry: protocol.NewRegistry(),
		Sink:     sink,
		Config:   testConfig(),
	})
	require.NoError(t, err)

	runDone := make(chan error, 1)
	go func() { runDone <- coordinator.Run(context.Background(), teachers, rooms) }()

	// Trace property: at any observed instant at most one teacher negotiates
	g.Eventually(func() int { return len(coordinator.Teachers()) }).
		Within(time.Second).Should(gomega.Equal(3))
	activeCount := func() int {
		return lo.CountBy(coordinator.Teachers(), func(teacher *agent.Teacher) bool {
			return teacher.Active()
		})
	}
	g.Consistently(activeCount).WithTimeout(500 * time.Millisecond).
		Should(gomega.BeNumerically("<=", 1))

	require.NoError(t, <-runDone)
	roomMaps, teacherMaps := sink.Maps()
	assert.NoError(t, schedule.Verify(roomMaps, teacherMaps))
}

func TestWatchdogForcesStalledTeacher(t *testing.T) {
	// A ghost room that never answers makes the active teacher wait out a
	// proposal deadline far beyond the inactivity budget; the watchdog must
	// force-terminate it and the run must still finish.
	cfg := testConfig()
	cfg.Negotiation.ProposalDeadline = 30 * time.Second
	cfg.Negotiation.ResponseDeadline = 150 * time.Millisecond
	cfg.Coordinator.WatchdogTick = 30 * time.Millisecond
	cfg.Coordinator.InactivityTicks = 3

	registry := protocol.NewRegistry()
	require.NoError(t, registry.Register("ghost", protocol.CapabilityRoom, protocol.NewMailbox(1)))

	sink := export.NewMemorySink()
	coordinator, err := New(Dependencies{
		Registry: registry,
		Sink:     sink,
		Config:   cfg,
	})
	require.NoError(t, err)

	teachers := []input.TeacherRecord{
		{ID: "T1", Name: "Ana", Subjects: subjects(30, "Algebra")},
		{ID: "T2", Name: "Luis", Subjects: subjects(30, "Physics")},
	}
	rooms := []input.RoomRecord{{Code: "R1", Capacity: 30}}

	require.NoError(t, coordinator.Run(context.Background(), teachers, rooms))

	teacherExports := sink.Teachers()
	require.Len(t, teacherExports, 2, "the run must advance past the stalled teacher")
	byID := lo.KeyBy(teacherExports, func(e export.TeacherExport) string { return e.TeacherID })
	require.Len(t, byID["T1"].Unassigned, 1)
	assert.Equal(t, agent.ReasonForcedTermination, byID["T1"].Unassigned[0].Reason)
	require.Len(t, byID["T2"].Unassigned, 1)
	assert.Equal(t, agent.ReasonForcedTermination, byID["T2"].Unassigned[0].Reason)
	assert.True(t, sink.Finalized())
}

func TestNewValidatesDependencies(t *testing.T) {
	_, err := New(Dependencies{Sink: export.NewMemorySink(), Config: testConfig()})
	assert.Error(t, err)
	_, err = New(Dependencies{Registry: protocol.NewRegistry(), Config: testConfig()})
	assert.Error(t, err)
	_, err = New(Dependencies{Registry: protocol.NewRegistry(), Sink: export.NewMemorySink()})
	assert.Error(t, err)
}

func TestRunRejectsEmptyInput(t *testing.T) {
	coordinator, err := New(Dependencies{
		Registry: protocol.NewRegistry(),
		Sink:     export.NewMemorySink(),
		Config:   testConfig(),
	})
	require.NoError(t, err)

	err = coordinator.Run(context.Background(), nil, []input.RoomRecord{{Code: "R1", Capacity: 30}})
	assert.Error(t, err)
	err = coordinator.Run(context.Background(), []input.TeacherRecord{{ID: "T1", Name: "A"}}, nil)
	assert.Error(t, err)
}
