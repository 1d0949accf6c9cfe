package export

import (
	"sync"

	"github.com/samber/lo"

	"github.com/Francoo86/Implementaciones-MAS/internal/schedule"
)

// MemorySink keeps exports in memory. Used by tests and by the post-run
// consistency verification.
type MemorySink struct {
	mu        sync.Mutex
	teachers  []TeacherExport
	rooms     []RoomExport
	finalized bool
}

func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (s *MemorySink) TeacherSchedule(export TeacherExport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.teachers = append(s.teachers, export)
	return nil
}

func (s *MemorySink) RoomSchedule(export RoomExport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms = append(s.rooms, export)
	return nil
}

func (s *MemorySink) Finalize() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finalized = true
	return nil
}

func (s *MemorySink) Finalized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finalized
}

func (s *MemorySink) Teachers() []TeacherExport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]TeacherExport(nil), s.teachers...)
}

func (s *MemorySink) Rooms() []RoomExport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]RoomExport(nil), s.rooms...)
}

// Maps converts the accumulated exports into the occupancy-map view the
// schedule verifier checks.
func (s *MemorySink) Maps() (rooms, teachers []schedule.MapExport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rooms = lo.Map(s.rooms, func(r RoomExport, _ int) schedule.MapExport {
		return schedule.MapExport{Owner: r.RoomCode, Entries: r.Assignments}
	})
	teachers = lo.Map(s.teachers, func(t TeacherExport, _ int) schedule.MapExport {
		return schedule.MapExport{Owner: t.TeacherID, Entries: t.Assigned}
	})
	return rooms, teachers
}
