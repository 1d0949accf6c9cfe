package schedule

const (
	SatisfactionExact   = 10
	SatisfactionLarger  = 5
	SatisfactionSmaller = 3
)

// Satisfaction scores how well a room's capacity matches a subject's vacancy
// requirement. Pure function of its two arguments; offers are ranked by it.
func Satisfaction(roomCapacity, vacancies int) int {
	switch {
	case roomCapacity == vacancies:
		return SatisfactionExact
	case roomCapacity > vacancies:
		return SatisfactionLarger
	default:
		return SatisfactionSmaller
	}
}
