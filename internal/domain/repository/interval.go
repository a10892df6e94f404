package repository

// IsValidInterval returns true if iv is a supported sampling interval.
func IsValidInterval(iv Interval) bool {
	switch iv {
	case IntervalDaily, IntervalWeekly, IntervalMonthly, IntervalEconomic:
		return true
	default:
		return false
	}
}

// DefaultInterval returns the default sampling interval.
func DefaultInterval() Interval { return IntervalDaily }

// NormalizeInterval converts raw string to a valid interval (or default).
func NormalizeInterval(s string) Interval {
	if s == "" {
		return DefaultInterval()
	}
	iv := Interval(s)
	if IsValidInterval(iv) {
		return iv
	}
	return DefaultInterval()
}
