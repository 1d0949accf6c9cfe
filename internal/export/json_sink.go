package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// JSONSink accumulates exports in memory and writes two JSON documents at
// Finalize: one for teachers, one for rooms. Agents push concurrently, so the
// accumulators are guarded.
type JSONSink struct {
	mu       sync.Mutex
	teachers []TeacherExport
	rooms    []RoomExport

	dir          string
	teachersFile string
	roomsFile    string
}

func NewJSONSink(dir, teachersFile, roomsFile string) *JSONSink {
	return &JSONSink{
		dir:          dir,
		teachersFile: teachersFile,
		roomsFile:    roomsFile,
	}
}

func (s *JSONSink) TeacherSchedule(export TeacherExport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.teachers = append(s.teachers, export)
	return nil
}

func (s *JSONSink) RoomSchedule(export RoomExport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms = append(s.rooms, export)
	return nil
}

// Finalize writes both documents. Called once, after every agent has pushed
// its export.
func (s *JSONSink) Finalize() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}
	if err := writeJSON(filepath.Join(s.dir, s.teachersFile), s.teachers); err != nil {
		return fmt.Errorf("write teacher schedules: %w", err)
	}
	if err := writeJSON(filepath.Join(s.dir, s.roomsFile), s.rooms); err != nil {
		return fmt.Errorf("write room schedules: %w", err)
	}
	return nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
