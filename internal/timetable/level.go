package timetable

import (
	"strconv"
	"strings"
	"unicode"
)

// EducationLevel is the closed vocabulary of grade tags.
type EducationLevel string

const (
	LevelPreschool EducationLevel = "PRESCHOOL"
	LevelPrimary   EducationLevel = "PRIMARY"
	LevelMiddle    EducationLevel = "MIDDLE"
	LevelHigh      EducationLevel = "HIGH"
)

// Levels lists every known education level, youngest first.
var Levels = []EducationLevel{LevelPreschool, LevelPrimary, LevelMiddle, LevelHigh}

// ParseLevel normalises a stored or submitted tag.
func ParseLevel(raw string) (EducationLevel, bool) {
	level := EducationLevel(strings.ToUpper(strings.TrimSpace(raw)))
	for _, known := range Levels {
		if level == known {
			return level, true
		}
	}
	return "", false
}

// LevelForGrade maps a numeric grade index to its level.
func LevelForGrade(index int) (EducationLevel, bool) {
	switch {
	case index == 0:
		return LevelPreschool, true
	case index >= 1 && index <= 4:
		return LevelPrimary, true
	case index >= 5 && index <= 8:
		return LevelMiddle, true
	case index >= 9 && index <= 12:
		return LevelHigh, true
	default:
		return "", false
	}
}

var (
	preschoolKeywords = []string{"YAŞ", "YAS", "ANA", "KREŞ", "KRES", "KINDERGARTEN", "NURSERY", "PRESCHOOL"}
	highKeywords      = []string{"LİSE", "LISE", "HIGH"}
	middleKeywords    = []string{"ORTA", "MIDDLE"}
	primaryKeywords   = []string{"İLK", "ILK", "PRIMARY", "ELEMENTARY"}
)

// InferLevel derives a class's education level. The numeric grade index wins
// when present and in range; otherwise keywords and a leading grade number in
// the class name are tried, youngest keyword set first. A keyword only matches
// at the start of a word of the name.
func InferLevel(gradeIndex *int, className string) (EducationLevel, bool) {
	if gradeIndex != nil {
		if level, ok := LevelForGrade(*gradeIndex); ok {
			return level, true
		}
	}

	name := strings.ToUpper(strings.TrimSpace(className))
	if name == "" {
		return "", false
	}
	words := strings.FieldsFunc(name, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if startsAnyWord(words, preschoolKeywords) {
		return LevelPreschool, true
	}

	lead, hasLead := leadingNumber(name)
	switch {
	case startsAnyWord(words, highKeywords) || (hasLead && lead >= 9 && lead <= 12):
		return LevelHigh, true
	case startsAnyWord(words, middleKeywords) || (hasLead && lead >= 5 && lead <= 8):
		return LevelMiddle, true
	case startsAnyWord(words, primaryKeywords) || (hasLead && lead >= 1 && lead <= 4):
		return LevelPrimary, true
	}
	return "", false
}

// startsAnyWord matches Turkish compounds such as ANAOKULU or ORTAOKUL by
// their stem without hitting the stem inside unrelated words.
func startsAnyWord(words, keywords []string) bool {
	for _, word := range words {
		for _, kw := range keywords {
			if strings.HasPrefix(word, kw) {
				return true
			}
		}
	}
	return false
}

func leadingNumber(s string) (int, bool) {
	end := 0
	for end < len(s) && unicode.IsDigit(rune(s[end])) {
		end++
	}
	if end == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

// LevelSet is a small set of education levels.
type LevelSet map[EducationLevel]struct{}

// NewLevelSet builds a set from tags, ignoring unknown values.
func NewLevelSet(tags ...string) LevelSet {
	set := make(LevelSet, len(tags))
	for _, tag := range tags {
		if level, ok := ParseLevel(tag); ok {
			set[level] = struct{}{}
		}
	}
	return set
}

// Add inserts a level.
func (s LevelSet) Add(level EducationLevel) { s[level] = struct{}{} }

// Has reports membership.
func (s LevelSet) Has(level EducationLevel) bool {
	_, ok := s[level]
	return ok
}

// Intersects reports whether both sets share at least one level.
func (s LevelSet) Intersects(other LevelSet) bool {
	small, large := s, other
	if len(small) > len(large) {
		small, large = large, small
	}
	for level := range small {
		if large.Has(level) {
			return true
		}
	}
	return false
}

// Sorted returns the members in vocabulary order.
func (s LevelSet) Sorted() []EducationLevel {
	out := make([]EducationLevel, 0, len(s))
	for _, level := range Levels {
		if s.Has(level) {
			out = append(out, level)
		}
	}
	return out
}
