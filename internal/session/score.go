package session

// calculatePoints awards points for a correct answer as a function of
// response time only: 10 points under 5 seconds, 5 points up to and
// including 10 seconds, 2 points beyond that.
func calculatePoints(elapsedMillis int64) int {
	seconds := float64(elapsedMillis) / 1000

	switch {
	case seconds < 5:
		return 10
	case seconds <= 10:
		return 5
	default:
		return 2
	}
}
