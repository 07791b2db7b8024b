package icloud

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"icloudctl/internal/domain/model"
)

// wireReminder is the reminders web service's task record.
type wireReminder struct {
	GUID          string `json:"guid"`
	PGuid         string `json:"pGuid"` // owning list guid
	Title         string `json:"title"`
	Description   string `json:"description"`
	DueDate       string `json:"dueDate"`
	Priority      int    `json:"priority"`
	CompletedDate string `json:"completedDate"`
}

type wireReminderList struct {
	GUID  string `json:"guid"`
	Title string `json:"title"`
}

type reminderStartupResponse struct {
	Collections []wireReminderList `json:"Collections"`
	Reminders   []wireReminder     `json:"Reminders"`
}

// ListReminders returns all reminders across lists. Completed items are
// included only when includeCompleted is set.
func (c *Client) ListReminders(ctx context.Context, sess *model.Session, includeCompleted bool) ([]model.Reminder, error) {
	base, err := serviceURL(sess, "reminders")
	if err != nil {
		return nil, err
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetCookies(restyCookies(sess)).
		Get(base + "/rd/startup")
	if err := mapRemoteStatus(resp, err); err != nil {
		return nil, err
	}

	var out reminderStartupResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, malformed("reminder startup", err)
	}

	listTitles := make(map[string]string, len(out.Collections))
	for _, col := range out.Collections {
		listTitles[col.GUID] = col.Title
	}

	reminders := make([]model.Reminder, 0, len(out.Reminders))
	for _, wr := range out.Reminders {
		rem := reminderFromWire(wr, listTitles[wr.PGuid])
		if rem.Completed && !includeCompleted {
			continue
		}
		reminders = append(reminders, rem)
	}
	return reminders, nil
}

// CreateReminder creates a reminder and returns it with the assigned guid.
func (c *Client) CreateReminder(ctx context.Context, sess *model.Session, rem model.Reminder) (*model.Reminder, error) {
	base, err := serviceURL(sess, "reminders")
	if err != nil {
		return nil, err
	}

	guid := rem.ID
	if guid == "" {
		guid = uuid.NewString()
	}
	body := wireReminder{
		GUID:        guid,
		PGuid:       rem.List,
		Title:       rem.Title,
		Description: rem.Description,
		Priority:    priorityToWire(rem.Priority),
	}
	if !rem.DueDate.IsZero() {
		body.DueDate = rem.DueDate.UTC().Format(time.RFC3339)
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetCookies(restyCookies(sess)).
		SetBody(map[string]any{"Reminders": body}).
		Post(base + "/rd/reminders/tasks")
	if err := mapRemoteStatus(resp, err); err != nil {
		return nil, err
	}

	created := reminderFromWire(body, rem.List)
	return &created, nil
}

// CompleteReminder marks a reminder as done.
func (c *Client) CompleteReminder(ctx context.Context, sess *model.Session, reminderID string) error {
	base, err := serviceURL(sess, "reminders")
	if err != nil {
		return err
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetCookies(restyCookies(sess)).
		SetBody(map[string]string{"completedDate": time.Now().UTC().Format(time.RFC3339)}).
		Post(base + "/rd/reminders/tasks/" + reminderID + "/complete")
	return mapRemoteStatus(resp, err)
}

// DeleteReminder removes a reminder by guid.
func (c *Client) DeleteReminder(ctx context.Context, sess *model.Session, reminderID string) error {
	base, err := serviceURL(sess, "reminders")
	if err != nil {
		return err
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetCookies(restyCookies(sess)).
		Delete(base + "/rd/reminders/tasks/" + reminderID)
	return mapRemoteStatus(resp, err)
}

func reminderFromWire(wr wireReminder, listTitle string) model.Reminder {
	rem := model.Reminder{
		ID:          wr.GUID,
		List:        listTitle,
		Title:       wr.Title,
		Description: wr.Description,
		Priority:    priorityFromWire(wr.Priority),
		Completed:   wr.CompletedDate != "",
	}
	if wr.DueDate != "" {
		if t, err := time.Parse(time.RFC3339, wr.DueDate); err == nil {
			rem.DueDate = t.UTC()
		}
	}
	if wr.CompletedDate != "" {
		if t, err := time.Parse(time.RFC3339, wr.CompletedDate); err == nil {
			rem.CompletedAt = t.UTC()
		}
	}
	return rem
}

// The provider encodes priority as 1 (high), 5 (medium), 9 (low), 0 (none).
func priorityFromWire(p int) model.ReminderPriority {
	switch p {
	case 1:
		return model.PriorityHigh
	case 5:
		return model.PriorityMedium
	case 9:
		return model.PriorityLow
	default:
		return model.PriorityNone
	}
}

func priorityToWire(p model.ReminderPriority) int {
	switch p {
	case model.PriorityHigh:
		return 1
	case model.PriorityMedium:
		return 5
	case model.PriorityLow:
		return 9
	default:
		return 0
	}
}
