package cmd

import (
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/theirongolddev/ccpace/internal/claudeai"
	"github.com/theirongolddev/ccpace/internal/pacing"
)

func TestRateLimitRows(t *testing.T) {
	now := time.Date(2025, 6, 4, 12, 0, 0, 0, time.UTC)
	u := &claudeai.ParsedUsage{
		FiveHour: &claudeai.ParsedWindow{Pct: 0.42, ResetsAt: now.Add(150 * time.Minute)},
		SevenDay: &claudeai.ParsedWindow{Pct: 0.10},
	}
	rows := rateLimitRows(u, now)
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}

	session := rows[0]
	if session[0] != "5-hour window" || session[1] != "42%" {
		t.Errorf("session row = %q", session)
	}
	if session[3] != "2h 30m" {
		t.Errorf("session resets = %q, want 2h 30m", session[3])
	}
	// 150 of 300 minutes elapsed is 50%, used 42%.
	if !strings.HasSuffix(session[4], "8% ahead") {
		t.Errorf("session pacing = %q, want suffix 8%% ahead", session[4])
	}

	weekly := rows[1]
	if weekly[3] != "" || weekly[4] != "" {
		t.Errorf("weekly without reset = %q, want empty resets and pacing", weekly)
	}
}

func TestRateLimitRowsNil(t *testing.T) {
	if rows := rateLimitRows(nil, time.Now()); rows != nil {
		t.Errorf("rateLimitRows(nil) = %v", rows)
	}
}

func TestOverageRows(t *testing.T) {
	rows := overageRows(&claudeai.OverageLimit{IsEnabled: true, UsedCredits: 5, MonthlyCreditLimit: 20, Currency: "USD"})
	want := [][]string{
		{"Overage", "enabled"},
		{"Used Credits", "5.00 USD"},
		{"Monthly Limit", "20.00 USD"},
		{"Usage", "25.0%"},
	}
	if len(rows) != len(want) {
		t.Fatalf("rows = %q", rows)
	}
	for i := range want {
		if rows[i][0] != want[i][0] || rows[i][1] != want[i][1] {
			t.Errorf("row %d = %q, want %q", i, rows[i], want[i])
		}
	}

	rows = overageRows(&claudeai.OverageLimit{Currency: "USD"})
	if len(rows) != 3 || rows[0][1] != "disabled" {
		t.Errorf("disabled rows = %q", rows)
	}
}

func TestMaskKey(t *testing.T) {
	tests := map[string]string{
		"sk-ant-sid01-abcdefghijkl": "sk-ant-s...ijkl",
		"sk-ant":                    "sk-a...",
		"abc":                       "****",
	}
	for in, want := range tests {
		if got := maskKey(in); got != want {
			t.Errorf("maskKey(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRateLimitRowOutOfRangeHasNoPacing(t *testing.T) {
	now := time.Date(2025, 6, 4, 12, 0, 0, 0, time.UTC)
	row := rateLimitRow("5-hour window", &claudeai.ParsedWindow{Pct: 1.5, ResetsAt: now.Add(time.Hour)}, pacing.SessionWindow, now)
	if row[4] != "" {
		t.Errorf("pacing for 150%% = %q, want empty", row[4])
	}
}

func TestRunStatusWithoutKeyPrintsHelp(t *testing.T) {
	t.Setenv("CLAUDE_SESSION_KEY", "")
	saved := appCfg
	appCfg.ClaudeAI.SessionKey = ""
	t.Cleanup(func() { appCfg = saved })

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	stdout := os.Stdout
	os.Stdout = w
	runErr := runStatus(statusCmd, nil)
	os.Stdout = stdout
	_ = w.Close()
	out, _ := io.ReadAll(r)

	if runErr != nil {
		t.Fatalf("runStatus: %v", runErr)
	}
	if string(out) != sessionKeyHelp {
		t.Errorf("output = %q, want the session key help", out)
	}
}
