package booking

import "time"

// Overlaps reports whether the half-open intervals [s1, e1) and [s2, e2)
// share at least one instant. Abutting intervals (e1 == s2) do not overlap,
// so back-to-back tours are allowed.
func Overlaps(s1, e1, s2, e2 time.Time) bool {
	return s1.Before(e2) && s2.Before(e1)
}
