package timetable

import "strings"

var guidanceKeywords = []string{"REHBER", "DANIŞMAN", "DANISMAN", "PDR", "GUIDANCE", "COUNSEL"}

// IsGuidanceBranch reports whether a branch label belongs to guidance or
// counseling staff.
func IsGuidanceBranch(branch string) bool {
	upper := strings.ToUpper(branch)
	// strings.ToUpper maps "ı" to "I" and "i" to "I"; Turkish dotted capitals
	// survive as-is, so both spellings are listed.
	return containsAny(upper, guidanceKeywords)
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
