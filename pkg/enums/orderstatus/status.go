package orderstatus

import (
	"strings"
)

type Status struct {
	Name string
}

func (s Status) Code() string {
	return s.Name
}

func (s Status) Label() string {
	if s.Name == "" {
		return ""
	}
	lower := strings.ToLower(s.Name)
	return strings.ToUpper(lower[:1]) + lower[1:]
}

// IsTerminal reports the conventional end states. Nothing enforces them.
func (s Status) IsTerminal() bool {
	return s == Statuses.Rejected || s == Statuses.Finished
}

type Enum struct {
	Pending  Status
	Approved Status
	Rejected Status
	Finished Status
}

var Statuses = Enum{
	Pending:  Status{Name: "PENDING"},
	Approved: Status{Name: "APPROVED"},
	Rejected: Status{Name: "REJECTED"},
	Finished: Status{Name: "FINISHED"},
}

var All = []Status{
	Statuses.Pending,
	Statuses.Approved,
	Statuses.Rejected,
	Statuses.Finished,
}

// legacyPending is the spelling older storefront clients still send.
const legacyPending = "PENDDING"

// Normalize trims and upper-cases raw input and maps legacy spellings.
func Normalize(raw string) string {
	value := strings.ToUpper(strings.TrimSpace(raw))
	if value == legacyPending {
		return Statuses.Pending.Name
	}
	return value
}

// ByName returns the status for a given name, or nil if not found
func ByName(name string) *Status {
	for _, s := range All {
		if s.Name == name {
			return &s
		}
	}
	return nil
}

// Parse normalizes raw and resolves it against the allow-list.
func Parse(raw string) (Status, bool) {
	s := ByName(Normalize(raw))
	if s == nil {
		return Status{}, false
	}
	return *s, true
}
