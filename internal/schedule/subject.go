package schedule

// Subject is an immutable teaching assignment a teacher must place: a name,
// a weekly hour count and the vacancy count the room must accommodate.
type Subject struct {
	Name      string `json:"name" mapstructure:"name"`
	Hours     int    `json:"hours" mapstructure:"hours"`
	Vacancies int    `json:"vacancies" mapstructure:"vacancies"`
}

// Entry is a committed assignment. Entries are created only when a room
// confirms a commit, never speculatively.
type Entry struct {
	Subject      string   `json:"subject"`
	TeacherID    string   `json:"teacherId"`
	RoomCode     string   `json:"roomCode"`
	Satisfaction int      `json:"satisfaction"`
	Slot         TimeSlot `json:"slot"`
}
