package schedule

import (
	"sync"
)

// OccupancyMap is the 5x5 weekly grid one agent owns. Rooms and teachers each
// keep their own map; maps are never shared between agents. The grid is
// guarded per day so commits on different days never contend.
type OccupancyMap struct {
	owner string
	days  [TotalDays]dayPartition
}

type dayPartition struct {
	mu     sync.Mutex
	blocks [BlocksPerDay]*Entry
}

func NewOccupancyMap(owner string) *OccupancyMap {
	return &OccupancyMap{owner: owner}
}

func (m *OccupancyMap) Owner() string {
	return m.owner
}

// IsFree reports whether the cell holds no entry. The answer may be stale the
// instant it returns; callers that need the answer to hold must use
// AssignIfFree instead.
func (m *OccupancyMap) IsFree(slot TimeSlot) bool {
	if !slot.Valid() {
		return false
	}
	day := &m.days[slot.Day]
	day.mu.Lock()
	defer day.mu.Unlock()
	return day.blocks[slot.Block-1] == nil
}

// AssignIfFree atomically claims the cell for entry if it is still free. It
// never overwrites an occupied cell.
func (m *OccupancyMap) AssignIfFree(slot TimeSlot, entry Entry) bool {
	if !slot.Valid() {
		return false
	}
	day := &m.days[slot.Day]
	day.mu.Lock()
	defer day.mu.Unlock()
	if day.blocks[slot.Block-1] != nil {
		return false
	}
	e := entry
	day.blocks[slot.Block-1] = &e
	return true
}

// FirstFree scans the grid in fixed order (earliest day, then earliest block)
// and returns the first free slot. Each day is inspected under its own guard
// so the scan of a day is internally consistent.
func (m *OccupancyMap) FirstFree() (TimeSlot, bool) {
	for d := Monday; d <= Friday; d++ {
		day := &m.days[d]
		day.mu.Lock()
		for b := range day.blocks {
			if day.blocks[b] == nil {
				day.mu.Unlock()
				return TimeSlot{Day: d, Block: b + FirstBlock}, true
			}
		}
		day.mu.Unlock()
	}
	return TimeSlot{}, false
}

// Export reads out the committed entries in scan order. Called once at agent
// finalization.
func (m *OccupancyMap) Export() MapExport {
	export := MapExport{Owner: m.owner}
	for d := Monday; d <= Friday; d++ {
		day := &m.days[d]
		day.mu.Lock()
		for b := range day.blocks {
			if day.blocks[b] != nil {
				export.Entries = append(export.Entries, *day.blocks[b])
			}
		}
		day.mu.Unlock()
	}
	return export
}

// MapExport is the read-only view of a map produced at finalization.
type MapExport struct {
	Owner   string  `json:"owner"`
	Entries []Entry `json:"entries"`
}
