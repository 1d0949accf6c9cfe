// Package input loads the teacher and room records a run starts from.
// A malformed or missing input file is the one fatal failure of the system:
// it is reported before any agent negotiates.
package input

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/mitchellh/mapstructure"

	"github.com/Francoo86/Implementaciones-MAS/internal/schedule"
)

// TeacherRecord describes one teacher: identity plus the ordered subject
// list it will negotiate, in list order.
type TeacherRecord struct {
	Name     string             `json:"name" mapstructure:"name"`
	ID       string             `json:"id" mapstructure:"id"`
	Subjects []schedule.Subject `json:"subjects" mapstructure:"subjects"`
}

// RoomRecord describes one room.
type RoomRecord struct {
	Code     string `json:"code" mapstructure:"code"`
	Capacity int    `json:"capacity" mapstructure:"capacity"`
}

// LoadTeachers reads and validates the teacher records file.
func LoadTeachers(file string) ([]TeacherRecord, error) {
	var teachers []TeacherRecord
	if err := loadInto(file, &teachers); err != nil {
		return nil, fmt.Errorf("load teachers: %w", err)
	}

	seen := map[string]bool{}
	for i, teacher := range teachers {
		if teacher.ID == "" {
			return nil, fmt.Errorf("teacher %d has no id", i)
		}
		if teacher.Name == "" {
			return nil, fmt.Errorf("teacher %q has no name", teacher.ID)
		}
		if seen[teacher.ID] {
			return nil, fmt.Errorf("duplicate teacher id %q", teacher.ID)
		}
		seen[teacher.ID] = true
		for j, subject := range teacher.Subjects {
			if subject.Name == "" {
				return nil, fmt.Errorf("teacher %q: subject %d has no name", teacher.ID, j)
			}
			if subject.Vacancies <= 0 {
				return nil, fmt.Errorf("teacher %q: subject %q needs a positive vacancy count", teacher.ID, subject.Name)
			}
		}
	}
	return teachers, nil
}

// LoadRooms reads and validates the room records file.
func LoadRooms(file string) ([]RoomRecord, error) {
	var rooms []RoomRecord
	if err := loadInto(file, &rooms); err != nil {
		return nil, fmt.Errorf("load rooms: %w", err)
	}

	seen := map[string]bool{}
	for i, room := range rooms {
		if room.Code == "" {
			return nil, fmt.Errorf("room %d has no code", i)
		}
		if seen[room.Code] {
			return nil, fmt.Errorf("duplicate room code %q", room.Code)
		}
		seen[room.Code] = true
		if room.Capacity <= 0 {
			return nil, fmt.Errorf("room %q needs a positive capacity", room.Code)
		}
	}
	return rooms, nil
}

func loadInto(file string, out any) error {
	bytes, err := os.ReadFile(file)
	if err != nil {
		return err
	}
	var raw []map[string]any
	if err := json.Unmarshal(bytes, &raw); err != nil {
		return fmt.Errorf("parse %s: %w", file, err)
	}
	if err := mapstructure.Decode(raw, out); err != nil {
		return fmt.Errorf("decode %s: %w", file, err)
	}
	return nil
}
