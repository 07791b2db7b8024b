package model

// Domain identifies one of the synced iCloud service areas.
type Domain string

const (
	DomainCalendar  Domain = "calendar"
	DomainReminders Domain = "reminders"
	DomainNotes     Domain = "notes"
	DomainFindMy    Domain = "findmy"
)

// AllDomains lists every domain in the fixed sync order used by a cycle.
func AllDomains() []Domain {
	return []Domain{DomainCalendar, DomainReminders, DomainNotes, DomainFindMy}
}

// Valid reports whether d is one of the known domains.
func (d Domain) Valid() bool {
	switch d {
	case DomainCalendar, DomainReminders, DomainNotes, DomainFindMy:
		return true
	}
	return false
}
