package model

import "time"

// Event is a calendar event as exposed by the calendar web service.
type Event struct {
	ID       string    `json:"id"` // event guid, externally assigned
	Calendar string    `json:"calendar"`
	Title    string    `json:"title"`
	Location string    `json:"location,omitempty"`
	Notes    string    `json:"notes,omitempty"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	AllDay   bool      `json:"all_day"`
}

// ReminderPriority is the provider's priority encoding mapped to names.
type ReminderPriority string

const (
	PriorityNone   ReminderPriority = ""
	PriorityHigh   ReminderPriority = "high"
	PriorityMedium ReminderPriority = "medium"
	PriorityLow    ReminderPriority = "low"
)

// Reminder is a single reminder item.
type Reminder struct {
	ID          string           `json:"id"`
	List        string           `json:"list"`
	Title       string           `json:"title"`
	Description string           `json:"description,omitempty"`
	DueDate     time.Time        `json:"due_date,omitempty"`
	Priority    ReminderPriority `json:"priority,omitempty"`
	Completed   bool             `json:"completed"`
	CompletedAt time.Time        `json:"completed_at,omitempty"`
}

// Note is a single note.
type Note struct {
	ID         string    `json:"id"`
	Folder     string    `json:"folder,omitempty"`
	Subject    string    `json:"subject"`
	Body       string    `json:"body,omitempty"`
	ModifiedAt time.Time `json:"modified_at,omitempty"`
}

// Device is a Find My device with its last reported state.
type Device struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Model        string    `json:"model,omitempty"`
	Status       string    `json:"status,omitempty"`
	BatteryLevel float64   `json:"battery_level,omitempty"` // 0..1
	Latitude     float64   `json:"latitude,omitempty"`
	Longitude    float64   `json:"longitude,omitempty"`
	Accuracy     float64   `json:"accuracy,omitempty"` // meters
	LocatedAt    time.Time `json:"located_at,omitempty"`
	HasLocation  bool      `json:"has_location"`
}
