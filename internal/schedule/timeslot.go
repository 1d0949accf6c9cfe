package schedule

import "fmt"

type Day int

const (
	Monday Day = iota
	Tuesday
	Wednesday
	Thursday
	Friday
)

const (
	TotalDays    = 5
	BlocksPerDay = 5
	FirstBlock   = 1
)

var dayNames = [TotalDays]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"}

func (d Day) String() string {
	if d < Monday || d > Friday {
		return fmt.Sprintf("Day(%d)", int(d))
	}
	return dayNames[d]
}

func (d Day) Valid() bool {
	return d >= Monday && d <= Friday
}

// TimeSlot is one cell of the weekly grid: a day and a block within it.
// Blocks are numbered 1..5.
type TimeSlot struct {
	Day   Day `json:"day"`
	Block int `json:"block"`
}

func (t TimeSlot) Valid() bool {
	return t.Day.Valid() && t.Block >= FirstBlock && t.Block <= BlocksPerDay
}

func (t TimeSlot) String() string {
	return fmt.Sprintf("%v/%d", t.Day, t.Block)
}

// AllSlots returns every slot of the week in scan order: earliest day first,
// then earliest block. Proposal generation and tests rely on this order.
func AllSlots() []TimeSlot {
	slots := make([]TimeSlot, 0, TotalDays*BlocksPerDay)
	for day := Monday; day <= Friday; day++ {
		for block := FirstBlock; block <= BlocksPerDay; block++ {
			slots = append(slots, TimeSlot{Day: day, Block: block})
		}
	}
	return slots
}
