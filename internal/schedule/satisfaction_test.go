package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSatisfaction(t *testing.T) {
	scenarios := []struct {
		roomCapacity int
		vacancies    int
		expected     int
	}{
		{30, 30, SatisfactionExact},
		{40, 30, SatisfactionLarger},
		{20, 30, SatisfactionSmaller},
		{1, 1, SatisfactionExact},
		{0, 5, SatisfactionSmaller},
		{100, 1, SatisfactionLarger},
	}

	for _, scenario := range scenarios {
		assert.Equal(t, scenario.expected, Satisfaction(scenario.roomCapacity, scenario.vacancies),
			"capacity=%d vacancies=%d", scenario.roomCapacity, scenario.vacancies)
	}
}

func TestAllSlots(t *testing.T) {
	slots := AllSlots()
	assert.Len(t, slots, TotalDays*BlocksPerDay)
	assert.Equal(t, TimeSlot{Day: Monday, Block: 1}, slots[0])
	assert.Equal(t, TimeSlot{Day: Monday, Block: 5}, slots[4])
	assert.Equal(t, TimeSlot{Day: Tuesday, Block: 1}, slots[5])
	assert.Equal(t, TimeSlot{Day: Friday, Block: 5}, slots[24])
	for _, slot := range slots {
		assert.True(t, slot.Valid())
	}
}
