package schedule

import (
	"fmt"

	"github.com/samber/lo"
)

type entryKey struct {
	Room string
	Slot TimeSlot
}

// Verify cross-checks the exported maps of all rooms and all teachers against
// the run's consistency properties:
//
//   - no room cell holds more than one entry,
//   - no teacher holds two entries in the same slot,
//   - every committed entry appears in exactly one room export and exactly
//     one teacher export, with matching slot, subject and satisfaction.
//
// It returns the first violation found, nil when the exports are consistent.
func Verify(rooms, teachers []MapExport) error {
	//** Room-side occupancy: at most one entry per (room, slot)
	roomEntries := make(map[entryKey]Entry)
	for _, room := range rooms {
		for _, entry := range room.Entries {
			if !entry.Slot.Valid() {
				return fmt.Errorf("room %v exported invalid slot %v", room.Owner, entry.Slot)
			}
			if entry.RoomCode != room.Owner {
				return fmt.Errorf("room %v exported entry owned by %v", room.Owner, entry.RoomCode)
			}
			key := entryKey{Room: room.Owner, Slot: entry.Slot}
			if _, occupied := roomEntries[key]; occupied {
				return fmt.Errorf("room %v has two entries at %v", room.Owner, entry.Slot)
			}
			roomEntries[key] = entry
		}
	}

	//** Teacher-side occupancy: no double-booking across rooms
	matched := make(map[entryKey]bool)
	for _, teacher := range teachers {
		slots := lo.CountValuesBy(teacher.Entries, func(e Entry) TimeSlot { return e.Slot })
		for slot, count := range slots {
			if count > 1 {
				return fmt.Errorf("teacher %v is double-booked at %v", teacher.Owner, slot)
			}
		}

		//** Every teacher entry must match a room entry exactly
		for _, entry := range teacher.Entries {
			if entry.TeacherID != teacher.Owner {
				return fmt.Errorf("teacher %v exported entry owned by %v", teacher.Owner, entry.TeacherID)
			}
			key := entryKey{Room: entry.RoomCode, Slot: entry.Slot}
			roomEntry, ok := roomEntries[key]
			if !ok {
				return fmt.Errorf("teacher %v has entry at %v in room %v that the room did not export",
					teacher.Owner, entry.Slot, entry.RoomCode)
			}
			if matched[key] {
				return fmt.Errorf("room entry %v at %v claimed by two teachers", entry.RoomCode, entry.Slot)
			}
			if roomEntry.Subject != entry.Subject ||
				roomEntry.TeacherID != entry.TeacherID ||
				roomEntry.Satisfaction != entry.Satisfaction {
				return fmt.Errorf("entry mismatch for room %v at %v: room has %+v, teacher has %+v",
					entry.RoomCode, entry.Slot, roomEntry, entry)
			}
			matched[key] = true
		}
	}

	//** Every room entry must belong to some teacher
	for key := range roomEntries {
		if !matched[key] {
			return fmt.Errorf("room %v has entry at %v that no teacher exported", key.Room, key.Slot)
		}
	}
	return nil
}
