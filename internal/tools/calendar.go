package tools

import (
	"context"
	"fmt"

	"github.com/yutinghan/calendar-assistant/internal/agent"
	"github.com/yutinghan/calendar-assistant/internal/calendar"
)

// calendarTool adapts one calendar operation to the agent.Tool interface.
// All calendar tools require credentials; the interceptor fills in the
// access_token argument before Call runs.
type calendarTool struct {
	name        string
	description string
	params      map[string]any
	fn          func(ctx context.Context, args map[string]any) (map[string]any, error)
}

func (t *calendarTool) Name() string               { return t.name }
func (t *calendarTool) Description() string        { return t.description }
func (t *calendarTool) Parameters() map[string]any { return t.params }
func (t *calendarTool) RequiresAuth() bool         { return true }

func (t *calendarTool) Call(ctx context.Context, args map[string]any) (map[string]any, error) {
	return t.fn(ctx, args)
}

// CalendarTools returns the four calendar CRUD tools backed by client.
func CalendarTools(client *calendar.Client) []agent.Tool {
	return []agent.Tool{
		&calendarTool{
			name:        "list_calendar_events",
			description: "List upcoming events from the user's Google Calendar, ordered by start time.",
			params: objectSchema(map[string]any{
				"time_min":    stringProp("Lower bound as an ISO 8601 timestamp; defaults to now."),
				"time_max":    stringProp("Upper bound as an ISO 8601 timestamp."),
				"max_results": map[string]any{"type": "integer", "description": "Maximum number of events to return (default 10)."},
			}, nil),
			fn: func(ctx context.Context, args map[string]any) (map[string]any, error) {
				events, err := client.ListEvents(ctx, stringArg(args, agent.AccessTokenArg), calendar.ListParams{
					TimeMin:    stringArg(args, "time_min"),
					TimeMax:    stringArg(args, "time_max"),
					MaxResults: intArg(args, "max_results"),
				})
				if err != nil {
					return nil, err
				}
				items := make([]map[string]any, 0, len(events))
				for _, ev := range events {
					items = append(items, map[string]any{
						"id":          ev.ID,
						"summary":     ev.Summary,
						"start":       ev.Start,
						"end":         ev.End,
						"description": ev.Description,
						"location":    ev.Location,
					})
				}
				return map[string]any{"success": true, "events": items}, nil
			},
		},
		&calendarTool{
			name:        "create_calendar_event",
			description: "Create a new event on the user's Google Calendar.",
			params: objectSchema(map[string]any{
				"summary":     stringProp("Event title."),
				"start":       stringProp("Start time as an ISO 8601 timestamp."),
				"end":         stringProp("End time as an ISO 8601 timestamp."),
				"description": stringProp("Optional event description."),
				"location":    stringProp("Optional event location."),
				"timezone":    stringProp("IANA timezone, defaults to Asia/Taipei."),
			}, []string{"summary", "start", "end"}),
			fn: func(ctx context.Context, args map[string]any) (map[string]any, error) {
				ev, err := client.CreateEvent(ctx, stringArg(args, agent.AccessTokenArg), calendar.EventInput{
					Summary:     stringArg(args, "summary"),
					Start:       stringArg(args, "start"),
					End:         stringArg(args, "end"),
					Description: stringArg(args, "description"),
					Location:    stringArg(args, "location"),
					Timezone:    stringArg(args, "timezone"),
				})
				if err != nil {
					return nil, err
				}
				return map[string]any{
					"success": true,
					"event": map[string]any{
						"id":       ev.ID,
						"summary":  ev.Summary,
						"start":    ev.Start,
						"end":      ev.End,
						"htmlLink": ev.HTMLLink,
					},
				}, nil
			},
		},
		&calendarTool{
			name:        "update_calendar_event",
			description: "Update fields of an existing calendar event; omitted fields keep their value.",
			params: objectSchema(map[string]any{
				"event_id":    stringProp("ID of the event to update."),
				"summary":     stringProp("New event title."),
				"start":       stringProp("New start time as an ISO 8601 timestamp."),
				"end":         stringProp("New end time as an ISO 8601 timestamp."),
				"description": stringProp("New event description."),
				"location":    stringProp("New event location."),
				"timezone":    stringProp("IANA timezone, defaults to Asia/Taipei."),
			}, []string{"event_id"}),
			fn: func(ctx context.Context, args map[string]any) (map[string]any, error) {
				ev, err := client.UpdateEvent(ctx, stringArg(args, agent.AccessTokenArg), stringArg(args, "event_id"), calendar.EventPatch{
					Summary:     optStringArg(args, "summary"),
					Start:       optStringArg(args, "start"),
					End:         optStringArg(args, "end"),
					Description: optStringArg(args, "description"),
					Location:    optStringArg(args, "location"),
					Timezone:    stringArg(args, "timezone"),
				})
				if err != nil {
					return nil, err
				}
				return map[string]any{
					"success": true,
					"event": map[string]any{
						"id":      ev.ID,
						"summary": ev.Summary,
						"start":   ev.Start,
						"end":     ev.End,
					},
				}, nil
			},
		},
		&calendarTool{
			name:        "delete_calendar_event",
			description: "Delete an event from the user's Google Calendar.",
			params: objectSchema(map[string]any{
				"event_id": stringProp("ID of the event to delete."),
			}, []string{"event_id"}),
			fn: func(ctx context.Context, args map[string]any) (map[string]any, error) {
				eventID := stringArg(args, "event_id")
				if err := client.DeleteEvent(ctx, stringArg(args, agent.AccessTokenArg), eventID); err != nil {
					return nil, err
				}
				return map[string]any{
					"success": true,
					"message": fmt.Sprintf("event %s deleted", eventID),
				}, nil
			},
		},
	}
}

func objectSchema(props map[string]any, required []string) map[string]any {
	schema := map[string]any{"type": "object", "properties": props}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func stringProp(description string) map[string]any {
	return map[string]any{"type": "string", "description": description}
}

func stringArg(args map[string]any, key string) string {
	v, _ := args[key].(string)
	return v
}

func optStringArg(args map[string]any, key string) *string {
	if v, ok := args[key].(string); ok {
		return &v
	}
	return nil
}

func intArg(args map[string]any, key string) int {
	switch v := args[key].(type) {
	case int:
		return v
	case float64:
		// JSON numbers decode as float64.
		return int(v)
	default:
		return 0
	}
}
