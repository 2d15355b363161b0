package timetable

import (
	"database/sql/driver"
	"fmt"
	"strings"
)

// DayMask is a weekly occurrence bitset. Bit i set means the slot runs on
// Weekday(i). The mask remembers how many weekdays it was declared with.
type DayMask struct {
	bits   uint8
	length uint8
}

// ParseDayMask decodes a string such as "01000" where position i is Weekday(i).
// Only 5 and 7 character masks are accepted.
func ParseDayMask(raw string) (DayMask, error) {
	raw = strings.TrimSpace(raw)
	if len(raw) != 5 && len(raw) != DaysInWeek {
		return DayMask{}, fmt.Errorf("day mask %q must have 5 or 7 positions", raw)
	}
	mask := DayMask{length: uint8(len(raw))}
	for i, ch := range raw {
		switch ch {
		case '1':
			mask.bits |= 1 << uint(i)
		case '0':
		default:
			return DayMask{}, fmt.Errorf("day mask %q contains %q at position %d", raw, ch, i)
		}
	}
	return mask, nil
}

// MustParseDayMask is ParseDayMask for fixtures and constants.
func MustParseDayMask(raw string) DayMask {
	mask, err := ParseDayMask(raw)
	if err != nil {
		panic(err)
	}
	return mask
}

// NewDayMask builds a mask of the given length with the listed days set.
func NewDayMask(length int, days ...Weekday) DayMask {
	mask := DayMask{length: uint8(length)}
	for _, d := range days {
		if int(d) < length {
			mask.bits |= 1 << uint(d)
		}
	}
	return mask
}

// Has reports whether the mask is set for day. Days beyond the mask length
// never match.
func (m DayMask) Has(day Weekday) bool {
	if uint8(day) >= m.length {
		return false
	}
	return m.bits&(1<<uint(day)) != 0
}

// Len returns the number of weekday positions in the mask.
func (m DayMask) Len() int { return int(m.length) }

// IsZero reports whether no day is set.
func (m DayMask) IsZero() bool { return m.bits == 0 }

func (m DayMask) String() string {
	var b strings.Builder
	b.Grow(int(m.length))
	for i := uint8(0); i < m.length; i++ {
		if m.bits&(1<<i) != 0 {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return b.String()
}

// MarshalText encodes the mask as its 0/1 string.
func (m DayMask) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText decodes a 0/1 string.
func (m *DayMask) UnmarshalText(text []byte) error {
	parsed, err := ParseDayMask(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Scan implements sql.Scanner for text columns.
func (m *DayMask) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		return m.UnmarshalText([]byte(v))
	case []byte:
		return m.UnmarshalText(v)
	case nil:
		*m = DayMask{}
		return nil
	default:
		return fmt.Errorf("day mask: unsupported scan type %T", src)
	}
}

// Value implements driver.Valuer.
func (m DayMask) Value() (driver.Value, error) {
	return m.String(), nil
}

// Slot is the part of a weekly card the occurrence rule needs.
type Slot interface {
	Days() DayMask
}

// OccursOn reports whether a weekly slot runs on the given weekday.
func OccursOn(slot Slot, day Weekday) bool {
	if slot == nil {
		return false
	}
	return slot.Days().Has(day)
}
