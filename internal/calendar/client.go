package calendar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// DefaultBaseURL is the Google Calendar v3 API root.
const DefaultBaseURL = "https://www.googleapis.com/calendar/v3"

const defaultTimezone = "Asia/Taipei"

// Client talks to the Google Calendar REST API for the primary calendar.
// Every call authenticates with the caller-supplied access token.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a calendar client against the production API.
func NewClient() *Client {
	return NewClientWithBaseURL(DefaultBaseURL)
}

// NewClientWithBaseURL creates a client against a custom API root.
func NewClientWithBaseURL(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Event is the subset of a Google Calendar event this assistant works with.
// Start and End hold either a dateTime or an all-day date.
type Event struct {
	ID          string `json:"id"`
	Summary     string `json:"summary"`
	Start       string `json:"start"`
	End         string `json:"end"`
	Description string `json:"description,omitempty"`
	Location    string `json:"location,omitempty"`
	HTMLLink    string `json:"htmlLink,omitempty"`
}

// EventInput describes a new event. Start and End are RFC 3339 date-times.
type EventInput struct {
	Summary     string
	Start       string
	End         string
	Description string
	Location    string
	Timezone    string
}

// EventPatch holds per-field updates for an existing event; nil fields keep
// their current value.
type EventPatch struct {
	Summary     *string
	Start       *string
	End         *string
	Description *string
	Location    *string
	Timezone    string
}

// ListParams narrows an event listing.
type ListParams struct {
	TimeMin    string
	TimeMax    string
	MaxResults int
}

type wireTime struct {
	DateTime string `json:"dateTime,omitempty"`
	Date     string `json:"date,omitempty"`
	TimeZone string `json:"timeZone,omitempty"`
}

type wireEvent struct {
	ID          string    `json:"id,omitempty"`
	Summary     string    `json:"summary,omitempty"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	HTMLLink    string    `json:"htmlLink,omitempty"`
	Start       *wireTime `json:"start,omitempty"`
	End         *wireTime `json:"end,omitempty"`
}

func (w wireEvent) toEvent() Event {
	ev := Event{
		ID:          w.ID,
		Summary:     w.Summary,
		Description: w.Description,
		Location:    w.Location,
		HTMLLink:    w.HTMLLink,
	}
	if ev.Summary == "" {
		ev.Summary = "(no title)"
	}
	if w.Start != nil {
		ev.Start = firstNonEmpty(w.Start.DateTime, w.Start.Date)
	}
	if w.End != nil {
		ev.End = firstNonEmpty(w.End.DateTime, w.End.Date)
	}
	return ev
}

// ListEvents returns upcoming events of the primary calendar ordered by start
// time. TimeMin defaults to now.
func (c *Client) ListEvents(ctx context.Context, accessToken string, p ListParams) ([]Event, error) {
	q := url.Values{}
	timeMin := p.TimeMin
	if timeMin == "" {
		timeMin = time.Now().UTC().Format(time.RFC3339)
	}
	q.Set("timeMin", timeMin)
	if p.TimeMax != "" {
		q.Set("timeMax", p.TimeMax)
	}
	maxResults := p.MaxResults
	if maxResults <= 0 {
		maxResults = 10
	}
	q.Set("maxResults", strconv.Itoa(maxResults))
	q.Set("singleEvents", "true")
	q.Set("orderBy", "startTime")

	var listing struct {
		Items []wireEvent `json:"items"`
	}
	if err := c.do(ctx, accessToken, http.MethodGet, "/calendars/primary/events?"+q.Encode(), nil, &listing); err != nil {
		return nil, err
	}

	events := make([]Event, 0, len(listing.Items))
	for _, item := range listing.Items {
		events = append(events, item.toEvent())
	}
	return events, nil
}

// CreateEvent inserts a new event into the primary calendar.
func (c *Client) CreateEvent(ctx context.Context, accessToken string, in EventInput) (*Event, error) {
	tz := in.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	body := wireEvent{
		Summary:     in.Summary,
		Description: in.Description,
		Location:    in.Location,
		Start:       &wireTime{DateTime: in.Start, TimeZone: tz},
		End:         &wireTime{DateTime: in.End, TimeZone: tz},
	}

	var created wireEvent
	if err := c.do(ctx, accessToken, http.MethodPost, "/calendars/primary/events", body, &created); err != nil {
		return nil, err
	}
	ev := created.toEvent()
	return &ev, nil
}

// UpdateEvent fetches the current event, merges the patch and writes it back,
// so untouched fields survive the update.
func (c *Client) UpdateEvent(ctx context.Context, accessToken, eventID string, patch EventPatch) (*Event, error) {
	path := "/calendars/primary/events/" + url.PathEscape(eventID)

	var existing wireEvent
	if err := c.do(ctx, accessToken, http.MethodGet, path, nil, &existing); err != nil {
		return nil, err
	}

	tz := patch.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	if patch.Summary != nil {
		existing.Summary = *patch.Summary
	}
	if patch.Start != nil {
		existing.Start = &wireTime{DateTime: *patch.Start, TimeZone: tz}
	}
	if patch.End != nil {
		existing.End = &wireTime{DateTime: *patch.End, TimeZone: tz}
	}
	if patch.Description != nil {
		existing.Description = *patch.Description
	}
	if patch.Location != nil {
		existing.Location = *patch.Location
	}

	var updated wireEvent
	if err := c.do(ctx, accessToken, http.MethodPut, path, existing, &updated); err != nil {
		return nil, err
	}
	ev := updated.toEvent()
	return &ev, nil
}

// DeleteEvent removes an event from the primary calendar.
func (c *Client) DeleteEvent(ctx context.Context, accessToken, eventID string) error {
	return c.do(ctx, accessToken, http.MethodDelete, "/calendars/primary/events/"+url.PathEscape(eventID), nil, nil)
}

// do runs one authenticated API call. Non-2xx responses become errors carrying
// the upstream status and message so callers can classify credential failures.
func (c *Client) do(ctx context.Context, accessToken, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("calendar API error (status %d): %s", resp.StatusCode, apiErrorMessage(raw))
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func apiErrorMessage(raw []byte) string {
	var wrapped struct {
		Error struct {
			Message string `json:"message"`
			Status  string `json:"status"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.Error.Message != "" {
		if wrapped.Error.Status != "" {
			return wrapped.Error.Status + ": " + wrapped.Error.Message
		}
		return wrapped.Error.Message
	}
	return string(raw)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
