package tools

import (
	"context"
	"testing"
	"time"

	"github.com/yutinghan/calendar-assistant/internal/agent"
)

// fixNow pins the package clock for a test. Tuesday 2026-09-01 12:00 UTC.
func fixNow(t *testing.T) {
	t.Helper()
	fixed := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	orig := now
	now = func() time.Time { return fixed }
	t.Cleanup(func() { now = orig })
}

func findTool(t *testing.T, tools []agent.Tool, name string) agent.Tool {
	t.Helper()
	for _, tool := range tools {
		if tool.Name() == name {
			return tool
		}
	}
	t.Fatalf("tool %s not registered", name)
	return nil
}

func TestDatetimeTools_NoAuthRequired(t *testing.T) {
	for _, tool := range DatetimeTools() {
		if tool.RequiresAuth() {
			t.Errorf("tool %s must not require auth", tool.Name())
		}
	}
}

func TestGetCurrentTime(t *testing.T) {
	fixNow(t)
	tool := findTool(t, DatetimeTools(), "get_current_time")

	result, err := tool.Call(context.Background(), map[string]any{"timezone": "UTC"})
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if result["success"] != true {
		t.Fatalf("unexpected result %+v", result)
	}
	if result["date"] != "2026-09-01" {
		t.Errorf("date = %v, want 2026-09-01", result["date"])
	}
	if result["weekday"] != "Tuesday" {
		t.Errorf("weekday = %v, want Tuesday", result["weekday"])
	}
}

func TestGetCurrentTime_DefaultTimezone(t *testing.T) {
	fixNow(t)
	tool := findTool(t, DatetimeTools(), "get_current_time")

	result, err := tool.Call(context.Background(), map[string]any{})
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if result["timezone"] != "Asia/Taipei" {
		t.Errorf("timezone = %v, want Asia/Taipei", result["timezone"])
	}
	// 12:00 UTC is 20:00 in Taipei, same calendar day.
	if result["time"] != "20:00:00" {
		t.Errorf("time = %v, want 20:00:00", result["time"])
	}
}

func TestGetCurrentTime_BadTimezone(t *testing.T) {
	tool := findTool(t, DatetimeTools(), "get_current_time")
	result, err := tool.Call(context.Background(), map[string]any{"timezone": "Mars/Olympus"})
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if result["success"] != false {
		t.Fatalf("expected failure for unknown timezone, got %+v", result)
	}
}

func TestCalculateRelativeTime(t *testing.T) {
	fixNow(t)
	tool := findTool(t, DatetimeTools(), "calculate_relative_time")

	tests := []struct {
		desc        string
		wantDate    string
		wantWeekday string
	}{
		{"today", "2026-09-01", "Tuesday"},
		{"tomorrow", "2026-09-02", "Wednesday"},
		{"yesterday", "2026-08-31", "Monday"},
		{"day after tomorrow", "2026-09-03", "Thursday"},
		{"next week", "2026-09-08", "Tuesday"},
		{"friday", "2026-09-04", "Friday"},
		{"next monday", "2026-09-07", "Monday"},
		// A weekday matching the current day means next week's occurrence.
		{"tuesday", "2026-09-08", "Tuesday"},
		{"Tomorrow", "2026-09-02", "Wednesday"},
	}
	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			result, err := tool.Call(context.Background(), map[string]any{
				"relative_description": tt.desc,
				"timezone":             "UTC",
			})
			if err != nil {
				t.Fatalf("Call: %v", err)
			}
			if result["success"] != true {
				t.Fatalf("unexpected result %+v", result)
			}
			if result["date"] != tt.wantDate {
				t.Errorf("date = %v, want %s", result["date"], tt.wantDate)
			}
			if result["weekday"] != tt.wantWeekday {
				t.Errorf("weekday = %v, want %s", result["weekday"], tt.wantWeekday)
			}
		})
	}
}

func TestCalculateRelativeTime_Unknown(t *testing.T) {
	fixNow(t)
	tool := findTool(t, DatetimeTools(), "calculate_relative_time")

	result, err := tool.Call(context.Background(), map[string]any{
		"relative_description": "someday soon",
		"timezone":             "UTC",
	})
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if result["success"] != false {
		t.Fatalf("expected failure for unknown phrase, got %+v", result)
	}
}
