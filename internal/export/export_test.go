package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Francoo86/Implementaciones-MAS/internal/schedule"
)

func TestJSONSink(t *testing.T) {
	dir := t.TempDir()
	sink := NewJSONSink(dir, "teachers.json", "rooms.json")

	entry := schedule.Entry{
		Subject:      "Algebra",
		TeacherID:    "T1",
		RoomCode:     "R1",
		Satisfaction: 10,
		Slot:         schedule.TimeSlot{Day: schedule.Monday, Block: 1},
	}
	require.NoError(t, sink.TeacherSchedule(TeacherExport{
		TeacherID: "T1",
		Name:      "Ana",
		Assigned:  []schedule.Entry{entry},
		Unassigned: []UnassignedSubject{
			{Subject: schedule.Subject{Name: "Physics", Hours: 2, Vacancies: 25}, Reason: "no suitable offer"},
		},
	}))
	require.NoError(t, sink.RoomSchedule(RoomExport{
		RoomCode:    "R1",
		Capacity:    30,
		Assignments: []schedule.Entry{entry},
	}))
	require.NoError(t, sink.Finalize())

	var teachers []TeacherExport
	data, err := os.ReadFile(filepath.Join(dir, "teachers.json"))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &teachers))
	require.Len(t, teachers, 1)
	assert.Equal(t, "Ana", teachers[0].Name)
	assert.Equal(t, "no suitable offer", teachers[0].Unassigned[0].Reason)

	var rooms []RoomExport
	data, err = os.ReadFile(filepath.Join(dir, "rooms.json"))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &rooms))
	require.Len(t, rooms, 1)
	assert.Equal(t, entry, rooms[0].Assignments[0])
}

func TestMemorySinkMaps(t *testing.T) {
	sink := NewMemorySink()
	entry := schedule.Entry{
		Subject: "Algebra", TeacherID: "T1", RoomCode: "R1",
		Slot: schedule.TimeSlot{Day: schedule.Tuesday, Block: 2},
	}
	require.NoError(t, sink.RoomSchedule(RoomExport{RoomCode: "R1", Assignments: []schedule.Entry{entry}}))
	require.NoError(t, sink.TeacherSchedule(TeacherExport{TeacherID: "T1", Assigned: []schedule.Entry{entry}}))

	rooms, teachers := sink.Maps()
	require.Len(t, rooms, 1)
	require.Len(t, teachers, 1)
	assert.Equal(t, "R1", rooms[0].Owner)
	assert.Equal(t, "T1", teachers[0].Owner)
	assert.NoError(t, schedule.Verify(rooms, teachers))

	assert.False(t, sink.Finalized())
	require.NoError(t, sink.Finalize())
	assert.True(t, sink.Finalized())
}

func TestTeeFansOutAndLoadReadsBack(t *testing.T) {
	dir := t.TempDir()
	memory := NewMemorySink()
	sink := Tee{NewJSONSink(dir, "teachers.json", "rooms.json"), memory}

	entry := schedule.Entry{
		Subject: "Algebra", TeacherID: "T1", RoomCode: "R1", Satisfaction: 5,
		Slot: schedule.TimeSlot{Day: schedule.Friday, Block: 5},
	}
	require.NoError(t, sink.TeacherSchedule(TeacherExport{TeacherID: "T1", Name: "Ana", Assigned: []schedule.Entry{entry}}))
	require.NoError(t, sink.RoomSchedule(RoomExport{RoomCode: "R1", Capacity: 40, Assignments: []schedule.Entry{entry}}))
	require.NoError(t, sink.Finalize())

	assert.True(t, memory.Finalized())
	assert.Len(t, memory.Teachers(), 1)

	teachers, err := LoadTeacherExports(filepath.Join(dir, "teachers.json"))
	require.NoError(t, err)
	require.Len(t, teachers, 1)
	assert.Equal(t, "Ana", teachers[0].Name)

	rooms, err := LoadRoomExports(filepath.Join(dir, "rooms.json"))
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.Equal(t, 40, rooms[0].Capacity)

	_, err = LoadTeacherExports(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}
