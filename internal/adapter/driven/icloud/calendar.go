package icloud

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"icloudctl/internal/domain/model"
)

const calendarTimeFormat = "2006-01-02 15:04"

// wireEvent is the calendar web service's event record.
type wireEvent struct {
	GUID      string `json:"guid"`
	PGuid     string `json:"pGuid"` // owning calendar guid
	Title     string `json:"title"`
	Location  string `json:"location"`
	Notes     string `json:"description"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	AllDay    bool   `json:"allDay"`
	TZ        string `json:"tz"`
}

type eventListResponse struct {
	Events []wireEvent `json:"Event"`
}

// ListEvents returns calendar events in [from, to].
func (c *Client) ListEvents(ctx context.Context, sess *model.Session, from, to time.Time) ([]model.Event, error) {
	base, err := serviceURL(sess, "calendar")
	if err != nil {
		return nil, err
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetCookies(restyCookies(sess)).
		SetQueryParams(map[string]string{
			"startDate": from.UTC().Format("2006-01-02"),
			"endDate":   to.UTC().Format("2006-01-02"),
			"usertz":    "UTC",
		}).
		Get(base + "/ca/events")
	if err := mapRemoteStatus(resp, err); err != nil {
		return nil, err
	}

	var out eventListResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, malformed("event list", err)
	}

	events := make([]model.Event, 0, len(out.Events))
	for _, we := range out.Events {
		events = append(events, eventFromWire(we))
	}
	return events, nil
}

// CreateEvent creates a calendar event and returns it with the assigned guid.
func (c *Client) CreateEvent(ctx context.Context, sess *model.Session, ev model.Event) (*model.Event, error) {
	base, err := serviceURL(sess, "calendar")
	if err != nil {
		return nil, err
	}

	guid := ev.ID
	if guid == "" {
		guid = uuid.NewString()
	}
	body := wireEvent{
		GUID:      guid,
		PGuid:     ev.Calendar,
		Title:     ev.Title,
		Location:  ev.Location,
		Notes:     ev.Notes,
		StartDate: ev.Start.UTC().Format(calendarTimeFormat),
		EndDate:   ev.End.UTC().Format(calendarTimeFormat),
		AllDay:    ev.AllDay,
		TZ:        "UTC",
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetCookies(restyCookies(sess)).
		SetBody(map[string]any{"Event": body}).
		Post(base + "/ca/events/" + guid)
	if err := mapRemoteStatus(resp, err); err != nil {
		return nil, err
	}

	created := eventFromWire(body)
	return &created, nil
}

// DeleteEvent removes a calendar event by guid.
func (c *Client) DeleteEvent(ctx context.Context, sess *model.Session, eventID string) error {
	base, err := serviceURL(sess, "calendar")
	if err != nil {
		return err
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetCookies(restyCookies(sess)).
		Delete(base + "/ca/events/" + eventID)
	return mapRemoteStatus(resp, err)
}

func eventFromWire(we wireEvent) model.Event {
	ev := model.Event{
		ID:       we.GUID,
		Calendar: we.PGuid,
		Title:    we.Title,
		Location: we.Location,
		Notes:    we.Notes,
		AllDay:   we.AllDay,
	}
	if t, err := parseCalendarTime(we.StartDate); err == nil {
		ev.Start = t
	}
	if t, err := parseCalendarTime(we.EndDate); err == nil {
		ev.End = t
	}
	return ev
}

// parseCalendarTime accepts the calendar service's "2006-01-02 15:04" form
// and RFC 3339.
func parseCalendarTime(s string) (time.Time, error) {
	if t, err := time.Parse(calendarTimeFormat, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	return t.UTC(), err
}
