package export

import (
	"encoding/json"
	"fmt"
	"os"
)

// LoadTeacherExports reads back a teacher schedule document written by a
// JSONSink, for offline verification.
func LoadTeacherExports(path string) ([]TeacherExport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read teacher schedules: %w", err)
	}
	var exports []TeacherExport
	if err := json.Unmarshal(data, &exports); err != nil {
		return nil, fmt.Errorf("parse teacher schedules %s: %w", path, err)
	}
	return exports, nil
}

// LoadRoomExports reads back a room schedule document written by a JSONSink.
func LoadRoomExports(path string) ([]RoomExport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read room schedules: %w", err)
	}
	var exports []RoomExport
	if err := json.Unmarshal(data, &exports); err != nil {
		return nil, fmt.Errorf("parse room schedules %s: %w", path, err)
	}
	return exports, nil
}
