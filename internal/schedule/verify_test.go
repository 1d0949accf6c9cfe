package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func consistentExports() ([]MapExport, []MapExport) {
	entry1 := Entry{Subject: "Algebra", TeacherID: "T1", RoomCode: "R1", Satisfaction: 10, Slot: TimeSlot{Day: Monday, Block: 1}}
	entry2 := Entry{Subject: "Physics", TeacherID: "T2", RoomCode: "R1", Satisfaction: 5, Slot: TimeSlot{Day: Monday, Block: 2}}
	entry3 := Entry{Subject: "Chemistry", TeacherID: "T1", RoomCode: "R2", Satisfaction: 3, Slot: TimeSlot{Day: Tuesday, Block: 1}}

	rooms := []MapExport{
		{Owner: "R1", Entries: []Entry{entry1, entry2}},
		{Owner: "R2", Entries: []Entry{entry3}},
	}
	teachers := []MapExport{
		{Owner: "T1", Entries: []Entry{entry1, entry3}},
		{Owner: "T2", Entries: []Entry{entry2}},
	}
	return rooms, teachers
}

func TestVerify(t *testing.T) {
	t.Run("consistent exports pass", func(t *testing.T) {
		rooms, teachers := consistentExports()
		assert.NoError(t, Verify(rooms, teachers))
	})

	t.Run("detects teacher double-booking", func(t *testing.T) {
		rooms, teachers := consistentExports()
		clash := teachers[0].Entries[0]
		clash.RoomCode = "R2"
		clash.Subject = "Chemistry"
		clash.Satisfaction = 3
		teachers[0].Entries[1] = clash
		rooms[1].Entries[0] = clash

		err := Verify(rooms, teachers)
		assert.ErrorContains(t, err, "double-booked")
	})

	t.Run("detects duplicate room cell", func(t *testing.T) {
		rooms, teachers := consistentExports()
		duplicate := rooms[0].Entries[0]
		duplicate.Subject = "Other"
		rooms[0].Entries = append(rooms[0].Entries, duplicate)

		err := Verify(rooms, teachers)
		assert.ErrorContains(t, err, "two entries")
	})

	t.Run("detects orphan teacher entry", func(t *testing.T) {
		rooms, teachers := consistentExports()
		rooms[1].Entries = nil

		err := Verify(rooms, teachers)
		assert.ErrorContains(t, err, "did not export")
	})

	t.Run("detects orphan room entry", func(t *testing.T) {
		rooms, teachers := consistentExports()
		teachers[1].Entries = nil

		err := Verify(rooms, teachers)
		assert.ErrorContains(t, err, "no teacher exported")
	})

	t.Run("detects score mismatch", func(t *testing.T) {
		rooms, teachers := consistentExports()
		teachers[0].Entries[0].Satisfaction = 5

		err := Verify(rooms, teachers)
		assert.ErrorContains(t, err, "mismatch")
	})
}
