package rules

import (
	"fmt"
	"time"
)

// TimeSpec is an optional weekly window a rule applies in. An empty spec
// means no time restriction. Start and End are 24-hour HH:MM strings; string
// comparison is safe because the width is fixed.
type TimeSpec struct {
	Days  []string `json:"days,omitempty"`
	Start string   `json:"start,omitempty"`
	End   string   `json:"end,omitempty"`
	TZ    string   `json:"tz,omitempty"`
}

var weekdayCodes = map[string]time.Weekday{
	"MON": time.Monday,
	"TUE": time.Tuesday,
	"WED": time.Wednesday,
	"THU": time.Thursday,
	"FRI": time.Friday,
	"SAT": time.Saturday,
	"SUN": time.Sunday,
}

// IsZero reports whether no schedule field is set.
func (s *TimeSpec) IsZero() bool {
	return s == nil || (len(s.Days) == 0 && s.Start == "" && s.End == "" && s.TZ == "")
}

// Matches reports whether the instant falls inside the window. The instant is
// converted into the schedule's own timezone before the weekday and clock are
// extracted, so a rule authored for America/Guayaquil behaves the same no
// matter where the evaluator runs. The start edge is inclusive, the end edge
// exclusive.
func (s *TimeSpec) Matches(at time.Time) (bool, error) {
	if s.IsZero() {
		return true, nil
	}

	loc, err := time.LoadLocation(s.TZ)
	if err != nil {
		return false, fmt.Errorf("load timezone %q: %w", s.TZ, err)
	}

	local := at.In(loc)
	weekday := local.Weekday()

	dayMatches := false
	for _, code := range s.Days {
		if wd, ok := weekdayCodes[code]; ok && wd == weekday {
			dayMatches = true
			break
		}
	}
	if !dayMatches {
		return false, nil
	}

	clock := local.Format("15:04")
	return s.Start <= clock && clock < s.End, nil
}

// validClock checks the HH:MM shape with HH in 00-23 and MM in 00-59.
func validClock(s string) bool {
	if len(s) != 5 || s[2] != ':' {
		return false
	}
	for _, i := range []int{0, 1, 3, 4} {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	hh := int(s[0]-'0')*10 + int(s[1]-'0')
	mm := int(s[3]-'0')*10 + int(s[4]-'0')
	return hh <= 23 && mm <= 59
}
