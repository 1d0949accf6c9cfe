// Package export receives the final schedules agents produce. The core only
// talks to the Sink interface; the file format is a detail of this package.
package export

import (
	"github.com/Francoo86/Implementaciones-MAS/internal/schedule"
)

// UnassignedSubject records a subject the negotiation could not place and why.
type UnassignedSubject struct {
	Subject schedule.Subject `json:"subject"`
	Reason  string           `json:"reason"`
}

// TeacherExport is one teacher's final schedule.
type TeacherExport struct {
	TeacherID  string              `json:"teacherId"`
	Name       string              `json:"name"`
	Assigned   []schedule.Entry    `json:"assigned"`
	Unassigned []UnassignedSubject `json:"unassigned"`
}

// RoomExport is one room's final schedule.
type RoomExport struct {
	RoomCode    string           `json:"roomCode"`
	Capacity    int              `json:"capacity"`
	Assignments []schedule.Entry `json:"assignments"`
}

// Sink persists final schedules. Each agent pushes its own export exactly
// once at termination; the coordinator calls Finalize once after the last
// agent is done.
type Sink interface {
	TeacherSchedule(TeacherExport) error
	RoomSchedule(RoomExport) error
	Finalize() error
}
