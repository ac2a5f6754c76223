package schedule

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	MinutesPerDay  = 24 * 60
	MinutesPerWeek = 7 * MinutesPerDay
)

var (
	ErrInvalidClock   = errors.New("invalid clock time")
	ErrInvalidWeekday = errors.New("invalid weekday")
	ErrInvalidWindow  = errors.New("invalid time window")
)

// Window is a weekly recurring interval. Start and End are minutes since
// midnight; End <= Start means the window runs past midnight into the next day.
type Window struct {
	Day   time.Weekday
	Start int
	End   int
}

func NewWindow(day time.Weekday, start, end string) (Window, error) {
	s, err := ParseClock(start)
	if err != nil {
		return Window{}, err
	}
	e, err := ParseClock(end)
	if err != nil {
		return Window{}, err
	}
	w := Window{Day: day, Start: s, End: e}
	if err := w.Validate(); err != nil {
		return Window{}, err
	}
	return w, nil
}

// MustWindow is NewWindow for fixtures and constants.
func MustWindow(day time.Weekday, start, end string) Window {
	w, err := NewWindow(day, start, end)
	if err != nil {
		panic(err)
	}
	return w
}

func (w Window) Validate() error {
	if w.Day < time.Sunday || w.Day > time.Saturday {
		return ErrInvalidWeekday
	}
	if w.Start < 0 || w.Start >= MinutesPerDay {
		return fmt.Errorf("%w: start=%d", ErrInvalidWindow, w.Start)
	}
	if w.End < 0 || w.End > MinutesPerDay {
		return fmt.Errorf("%w: end=%d", ErrInvalidWindow, w.End)
	}
	if w.Start == w.End {
		return fmt.Errorf("%w: empty window", ErrInvalidWindow)
	}
	return nil
}

func (w Window) Minutes() int {
	if w.End > w.Start {
		return w.End - w.Start
	}
	return MinutesPerDay - w.Start + w.End
}

func (w Window) String() string {
	return fmt.Sprintf("%s %s-%s", strings.ToLower(w.Day.String()), FormatClock(w.Start), FormatClock(w.End))
}

// interval is a half-open range of minutes since Sunday 00:00.
type interval struct {
	start int
	end   int
}

// weekIntervals maps the window onto the week, splitting it when it wraps
// from Saturday night into Sunday.
func (w Window) weekIntervals() []interval {
	start := int(w.Day)*MinutesPerDay + w.Start
	end := start + w.Minutes()
	if end <= MinutesPerWeek {
		return []interval{{start: start, end: end}}
	}
	return []interval{
		{start: start, end: MinutesPerWeek},
		{start: 0, end: end - MinutesPerWeek},
	}
}

// Set is a normalised, merged set of weekly intervals.
type Set struct {
	intervals []interval
}

// Normalize merges overlapping and adjacent windows so that coverage can be
// checked against a single interval.
func Normalize(windows []Window) Set {
	all := make([]interval, 0, len(windows)+1)
	for _, w := range windows {
		if w.Validate() != nil {
			continue
		}
		all = append(all, w.weekIntervals()...)
	}
	if len(all) == 0 {
		return Set{}
	}

	sort.Slice(all, func(i, j int) bool {
		if all[i].start == all[j].start {
			return all[i].end < all[j].end
		}
		return all[i].start < all[j].start
	})

	merged := make([]interval, 0, len(all))
	cur := all[0]
	for _, it := range all[1:] {
		if it.start <= cur.end {
			if it.end > cur.end {
				cur.end = it.end
			}
			continue
		}
		merged = append(merged, cur)
		cur = it
	}
	merged = append(merged, cur)
	return Set{intervals: merged}
}

func (s Set) Empty() bool {
	return len(s.intervals) == 0
}

func (s Set) contains(it interval) bool {
	i := sort.Search(len(s.intervals), func(i int) bool { return s.intervals[i].end >= it.end })
	if i == len(s.intervals) {
		return false
	}
	return s.intervals[i].start <= it.start
}

func (s Set) overlap(it interval) int {
	total := 0
	for _, x := range s.intervals {
		if x.start >= it.end {
			break
		}
		lo := max(x.start, it.start)
		hi := min(x.end, it.end)
		if hi > lo {
			total += hi - lo
		}
	}
	return total
}

// OverlapMinutes returns how many minutes of w fall inside s.
func (s Set) OverlapMinutes(w Window) int {
	if w.Validate() != nil {
		return 0
	}
	total := 0
	for _, it := range w.weekIntervals() {
		total += s.overlap(it)
	}
	return total
}

// CoversWindow reports whether w lies entirely within s.
func (s Set) CoversWindow(w Window) bool {
	if w.Validate() != nil {
		return false
	}
	for _, it := range w.weekIntervals() {
		if !s.contains(it) {
			return false
		}
	}
	return true
}

// Covers reports whether the availability windows satisfy every required
// window. With minOverlap <= 0 each required window must be fully covered;
// otherwise each must overlap by at least minOverlap minutes (capped at the
// window's own length).
func Covers(required, available []Window, minOverlap int) bool {
	if len(required) == 0 {
		return true
	}
	set := Normalize(available)
	if set.Empty() {
		return false
	}
	for _, w := range required {
		if minOverlap <= 0 {
			if !set.CoversWindow(w) {
				return false
			}
			continue
		}
		need := min(minOverlap, w.Minutes())
		if set.OverlapMinutes(w) < need {
			return false
		}
	}
	return true
}

// ParseClock parses "HH:MM" into minutes since midnight. "24:00" is accepted
// as an end-of-day marker.
func ParseClock(s string) (int, error) {
	s = strings.TrimSpace(s)
	h, m, ok := strings.Cut(s, ":")
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	hour, err := strconv.Atoi(h)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	minute, err := strconv.Atoi(m)
	if err != nil || len(m) != 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	if hour == 24 && minute == 0 {
		return MinutesPerDay, nil
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	return hour*60 + minute, nil
}

func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

func ParseWeekday(s string) (time.Weekday, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for d := time.Sunday; d <= time.Saturday; d++ {
		name := strings.ToLower(d.String())
		if key == name || key == name[:3] {
			return d, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidWeekday, s)
}

type windowJSON struct {
	Day   string `json:"day"`
	Start string `json:"start"`
	End   string `json:"end"`
}

func (w Window) MarshalJSON() ([]byte, error) {
	return json.Marshal(windowJSON{
		Day:   strings.ToLower(w.Day.String()),
		Start: FormatClock(w.Start),
		End:   FormatClock(w.End),
	})
}

func (w *Window) UnmarshalJSON(b []byte) error {
	var raw windowJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	day, err := ParseWeekday(raw.Day)
	if err != nil {
		return err
	}
	parsed, err := NewWindow(day, raw.Start, raw.End)
	if err != nil {
		return err
	}
	*w = parsed
	return nil
}
