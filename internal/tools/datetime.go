package tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/yutinghan/calendar-assistant/internal/agent"
)

// datetimeTool answers time questions locally. It never touches user
// credentials, so the auth interceptor leaves it alone.
type datetimeTool struct {
	name        string
	description string
	params      map[string]any
	fn          func(args map[string]any) map[string]any
}

func (t *datetimeTool) Name() string               { return t.name }
func (t *datetimeTool) Description() string        { return t.description }
func (t *datetimeTool) Parameters() map[string]any { return t.params }
func (t *datetimeTool) RequiresAuth() bool         { return false }

func (t *datetimeTool) Call(_ context.Context, args map[string]any) (map[string]any, error) {
	return t.fn(args), nil
}

// now is swappable in tests.
var now = time.Now

// DatetimeTools returns the time helper tools.
func DatetimeTools() []agent.Tool {
	return []agent.Tool{
		&datetimeTool{
			name:        "get_current_time",
			description: "Get the current date and time in a given timezone.",
			params: objectSchema(map[string]any{
				"timezone": stringProp("IANA timezone, defaults to Asia/Taipei."),
			}, nil),
			fn: getCurrentTime,
		},
		&datetimeTool{
			name:        "calculate_relative_time",
			description: "Resolve a relative description like 'tomorrow' or 'next monday' to a concrete date.",
			params: objectSchema(map[string]any{
				"relative_description": stringProp("Phrase such as today, tomorrow, yesterday, day after tomorrow, next week, or a weekday name."),
				"timezone":             stringProp("IANA timezone, defaults to Asia/Taipei."),
			}, []string{"relative_description"}),
			fn: calculateRelativeTime,
		},
	}
}

func getCurrentTime(args map[string]any) map[string]any {
	loc, err := time.LoadLocation(timezoneArg(args))
	if err != nil {
		return map[string]any{"success": false, "error": err.Error()}
	}
	current := now().In(loc)
	return map[string]any{
		"success":      true,
		"current_time": current.Format(time.RFC3339),
		"date":         current.Format("2006-01-02"),
		"time":         current.Format("15:04:05"),
		"weekday":      current.Weekday().String(),
		"timezone":     loc.String(),
	}
}

var relativeDays = map[string]int{
	"today":              0,
	"tomorrow":           1,
	"yesterday":          -1,
	"day after tomorrow": 2,
	"next week":          7,
}

func calculateRelativeTime(args map[string]any) map[string]any {
	desc, _ := args["relative_description"].(string)
	desc = strings.ToLower(strings.TrimSpace(desc))

	loc, err := time.LoadLocation(timezoneArg(args))
	if err != nil {
		return map[string]any{"success": false, "error": err.Error()}
	}
	base := now().In(loc)

	days, ok := relativeDays[desc]
	if !ok {
		if offset, found := nextWeekdayOffset(base, strings.TrimPrefix(desc, "next ")); found {
			days = offset
			ok = true
		}
	}
	if !ok {
		return map[string]any{
			"success": false,
			"error":   fmt.Sprintf("cannot interpret relative description %q", desc),
		}
	}

	target := base.AddDate(0, 0, days)
	return map[string]any{
		"success":     true,
		"description": desc,
		"date":        target.Format("2006-01-02"),
		"weekday":     target.Weekday().String(),
		"timezone":    loc.String(),
	}
}

// nextWeekdayOffset maps a weekday name to the number of days until its next
// occurrence. The offset is always 1..7: "monday" on a Monday means next Monday.
func nextWeekdayOffset(from time.Time, name string) (int, bool) {
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		if strings.EqualFold(wd.String(), name) {
			offset := (int(wd) - int(from.Weekday()) + 7) % 7
			if offset == 0 {
				offset = 7
			}
			return offset, true
		}
	}
	return 0, false
}

func timezoneArg(args map[string]any) string {
	if tz, ok := args["timezone"].(string); ok && tz != "" {
		return tz
	}
	return "Asia/Taipei"
}
