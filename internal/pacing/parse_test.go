package pacing

import (
	"math"
	"testing"
	"time"
)

// wednesday is 2025-06-04, a Wednesday, at 09:00 UTC.
var wednesday = time.Date(2025, 6, 4, 9, 0, 0, 0, time.UTC)

func TestParseSessionResetTime(t *testing.T) {
	tests := []struct {
		in     string
		want   int
		wantOK bool
	}{
		{"2h 15m", 135, true},
		{"45 min", 45, true},
		{"3 hr", 180, true},
		{"1H 5M", 65, true},
		{"4h", 240, true},
		{"", 0, false},
		{"0h 0m", 0, false},
		{"soon", 0, false},
		{"99999999999h", 0, false},
		{"1h 99999999999m", 0, false},
	}

	for _, tt := range tests {
		got, ok := ParseSessionResetTime(tt.in)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("ParseSessionResetTime(%q) = (%d, %v), want (%d, %v)", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestParseResetTime(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		now    time.Time
		want   float64
		wantOK bool
	}{
		{"later today", "Wed 10:00 AM", wednesday, 1, true},
		{"same minute rolls a week", "Wed 10:00 AM", wednesday.Add(time.Hour), 168, true},
		{"earlier today rolls a week", "Wed 8:00 AM", wednesday, 167, true},
		{"tomorrow", "Thu 9:00 AM", wednesday, 24, true},
		{"wraps past saturday", "Mon 3:00 AM", wednesday, 114, true},
		{"midnight hour", "Thu 12:30 AM", wednesday, 15.5, true},
		{"noon", "Wed 12:00 PM", wednesday, 3, true},
		{"pm", "Wed 3:30 pm", wednesday, 6.5, true},
		{"lowercase day", "wed 10:00 AM", wednesday, 0, false},
		{"empty", "", wednesday, 0, false},
		{"garbage", "next week", wednesday, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseResetTime(tt.in, tt.now)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("hours = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseResetTimeRange(t *testing.T) {
	days := []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}
	for _, d := range days {
		for _, clock := range []string{"12:00 AM", "9:00 AM", "11:59 PM"} {
			in := d + " " + clock
			got, ok := ParseResetTime(in, wednesday)
			if !ok {
				t.Fatalf("ParseResetTime(%q) failed", in)
			}
			if got <= 0 || got > 168 {
				t.Errorf("ParseResetTime(%q) = %v, want (0, 168]", in, got)
			}
		}
	}
}

func TestParseResetTimeKeepsLocation(t *testing.T) {
	loc := time.FixedZone("PDT", -7*3600)
	now := time.Date(2025, 6, 4, 9, 0, 30, 0, loc)

	got, ok := ParseResetTime("Wed 10:00 AM", now)
	if !ok {
		t.Fatal("expected parse to succeed")
	}
	want := 1 - 30.0/3600
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("hours = %v, want %v", got, want)
	}
}
