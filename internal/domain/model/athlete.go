// Package model contains the roster entities shared by the server, the API
// client and the page view models.
package model

import (
	"strings"
)

// Grade is a high-school grade level. Valid grades are 9 through 12.
type Grade int

// Grade bounds.
const (
	MinGrade Grade = 9
	MaxGrade Grade = 12
)

// Valid reports whether g is a high-school grade.
func (g Grade) Valid() bool { return g >= MinGrade && g <= MaxGrade }

// Label returns the class name for the grade, or "" for invalid grades.
func (g Grade) Label() string {
	switch g {
	case 9:
		return "Freshman"
	case 10:
		return "Sophomore"
	case 11:
		return "Junior"
	case 12:
		return "Senior"
	default:
		return ""
	}
}

// Athlete is a roster member as served by /api/athletes.
type Athlete struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	Grade          Grade  `json:"grade"`
	PersonalRecord string `json:"personalRecord"`
	// Events is the comma-separated list of races the athlete runs.
	Events string `json:"events"`
}

// EventList splits Events into trimmed, non-empty names.
func (a Athlete) EventList() []string {
	if strings.TrimSpace(a.Events) == "" {
		return nil
	}
	parts := strings.Split(a.Events, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// AthleteInput is the create/update payload for an athlete.
type AthleteInput struct {
	Name           string `json:"name"`
	Grade          Grade  `json:"grade"`
	PersonalRecord string `json:"personalRecord"`
	Events         string `json:"events"`
}

// Credentials is the login payload. Username is optional; the demo backend
// only checks the password.
type Credentials struct {
	Username string `json:"username,omitempty"`
	Password string `json:"password"`
}
