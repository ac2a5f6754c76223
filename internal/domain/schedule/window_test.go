package schedule

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestParseClock(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{in: "00:00", want: 0},
		{in: "09:30", want: 570},
		{in: " 17:00 ", want: 1020},
		{in: "24:00", want: 1440},
		{in: "24:01", wantErr: true},
		{in: "9", wantErr: true},
		{in: "09:5", wantErr: true},
		{in: "aa:bb", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, err := ParseClock(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidClock) {
					t.Fatalf("expected ErrInvalidClock, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected err: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestParseWeekday(t *testing.T) {
	for in, want := range map[string]time.Weekday{"monday": time.Monday, "Tue": time.Tuesday, " SUNDAY ": time.Sunday} {
		got, err := ParseWeekday(in)
		if err != nil {
			t.Fatalf("%q: unexpected err: %v", in, err)
		}
		if got != want {
			t.Fatalf("%q: expected %v, got %v", in, want, got)
		}
	}
	if _, err := ParseWeekday("funday"); !errors.Is(err, ErrInvalidWeekday) {
		t.Fatalf("expected ErrInvalidWeekday, got %v", err)
	}
}

func TestCovers_FullCoverage(t *testing.T) {
	t.Parallel()

	job := []Window{MustWindow(time.Monday, "09:00", "17:00")}

	tests := []struct {
		name  string
		avail []Window
		want  bool
	}{
		{name: "wider window", avail: []Window{MustWindow(time.Monday, "08:00", "18:00")}, want: true},
		{name: "exact window", avail: []Window{MustWindow(time.Monday, "09:00", "17:00")}, want: true},
		{name: "adjacent windows merge", avail: []Window{
			MustWindow(time.Monday, "08:00", "12:00"),
			MustWindow(time.Monday, "12:00", "17:30"),
		}, want: true},
		{name: "gap in the middle", avail: []Window{
			MustWindow(time.Monday, "08:00", "12:00"),
			MustWindow(time.Monday, "13:00", "18:00"),
		}, want: false},
		{name: "partial overlap", avail: []Window{MustWindow(time.Monday, "10:00", "18:00")}, want: false},
		{name: "other weekday", avail: []Window{MustWindow(time.Tuesday, "08:00", "18:00")}, want: false},
		{name: "no availability", avail: nil, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Covers(job, tt.avail, 0); got != tt.want {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestCovers_OvernightWrapsIntoNextDay(t *testing.T) {
	job := []Window{MustWindow(time.Saturday, "22:00", "02:00")}

	avail := []Window{
		MustWindow(time.Saturday, "20:00", "24:00"),
		MustWindow(time.Sunday, "00:00", "03:00"),
	}
	if !Covers(job, avail, 0) {
		t.Fatalf("expected Saturday night shift to be covered across the week boundary")
	}

	if Covers(job, []Window{MustWindow(time.Saturday, "20:00", "24:00")}, 0) {
		t.Fatalf("expected missing Sunday morning to fail coverage")
	}

	overnight := []Window{MustWindow(time.Saturday, "21:00", "04:00")}
	if !Covers(job, overnight, 0) {
		t.Fatalf("expected overnight availability to cover overnight job")
	}
}

func TestCovers_MinimumOverlapPolicy(t *testing.T) {
	job := []Window{MustWindow(time.Monday, "09:00", "17:00")}
	avail := []Window{MustWindow(time.Monday, "13:00", "20:00")}

	if !Covers(job, avail, 240) {
		t.Fatalf("expected 4h overlap to satisfy 240 minute minimum")
	}
	if Covers(job, avail, 241) {
		t.Fatalf("expected 241 minute minimum to fail")
	}

	short := []Window{MustWindow(time.Monday, "09:00", "10:00")}
	if !Covers(short, []Window{MustWindow(time.Monday, "08:00", "12:00")}, 600) {
		t.Fatalf("expected minimum to be capped at the window length")
	}
}

func TestSet_OverlapMinutes(t *testing.T) {
	set := Normalize([]Window{
		MustWindow(time.Wednesday, "08:00", "10:00"),
		MustWindow(time.Wednesday, "09:00", "11:00"),
		MustWindow(time.Wednesday, "14:00", "15:00"),
	})
	got := set.OverlapMinutes(MustWindow(time.Wednesday, "09:30", "14:30"))
	if got != 90+30 {
		t.Fatalf("expected 120 minutes, got %d", got)
	}
}

func TestWindow_JSONRoundTrip(t *testing.T) {
	in := MustWindow(time.Friday, "18:30", "23:00")
	b, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"day":"friday","start":"18:30","end":"23:00"}` {
		t.Fatalf("unexpected json: %s", b)
	}

	var bad Window
	if err := json.Unmarshal([]byte(`{"day":"friday","start":"10:00","end":"10:00"}`), &bad); !errors.Is(err, ErrInvalidWindow) {
		t.Fatalf("expected ErrInvalidWindow, got %v", err)
	}
}
