package export

// Tee fans every export out to multiple sinks, so a run can persist JSON
// files and keep an in-memory copy for verification at the same time.
type Tee []Sink

func (t Tee) TeacherSchedule(export TeacherExport) error {
	for _, sink := range t {
		if err := sink.TeacherSchedule(export); err != nil {
			return err
		}
	}
	return nil
}

func (t Tee) RoomSchedule(export RoomExport) error {
	for _, sink := range t {
		if err := sink.RoomSchedule(export); err != nil {
			return err
		}
	}
	return nil
}

func (t Tee) Finalize() error {
	for _, sink := range t {
		if err := sink.Finalize(); err != nil {
			return err
		}
	}
	return nil
}
