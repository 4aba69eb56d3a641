package model

import (
	"errors"
	"fmt"
	"time"
)

// DateLayout is the wire format of meet dates.
const DateLayout = "2006-01-02"

// ErrUnknownCategory is returned when a race category slug is not recognised.
var ErrUnknownCategory = errors.New("unknown race category")

// Category is the race a meet entry belongs to. The zero value means no category.
type Category int

// Race categories.
const (
	CategoryUnspecified Category = iota
	CategoryVarsityBoys
	CategoryVarsityGirls
	CategoryJVBoys
	CategoryJVGirls
)

var categorySlugs = [...]string{
	CategoryUnspecified:  "",
	CategoryVarsityBoys:  "varsity-boys",
	CategoryVarsityGirls: "varsity-girls",
	CategoryJVBoys:       "jv-boys",
	CategoryJVGirls:      "jv-girls",
}

var categoryLabels = [...]string{
	CategoryUnspecified:  "",
	CategoryVarsityBoys:  "Varsity Boys",
	CategoryVarsityGirls: "Varsity Girls",
	CategoryJVBoys:       "JV Boys",
	CategoryJVGirls:      "JV Girls",
}

// Categories lists every concrete category in display order.
func Categories() []Category {
	return []Category{CategoryVarsityBoys, CategoryVarsityGirls, CategoryJVBoys, CategoryJVGirls}
}

// ParseCategory maps a slug to a Category. The empty string is CategoryUnspecified.
func ParseCategory(s string) (Category, error) {
	for c, slug := range categorySlugs {
		if slug == s {
			return Category(c), nil
		}
	}
	return CategoryUnspecified, fmt.Errorf("%w: %q", ErrUnknownCategory, s)
}

// String returns the slug.
func (c Category) String() string {
	if c < 0 || int(c) >= len(categorySlugs) {
		return fmt.Sprintf("Category(%d)", int(c))
	}
	return categorySlugs[c]
}

// Label returns the human readable category name.
func (c Category) Label() string {
	if c < 0 || int(c) >= len(categoryLabels) {
		return ""
	}
	return categoryLabels[c]
}

// MarshalText encodes the category as its slug.
func (c Category) MarshalText() ([]byte, error) {
	if c < 0 || int(c) >= len(categorySlugs) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownCategory, int(c))
	}
	return []byte(categorySlugs[c]), nil
}

// UnmarshalText decodes a slug.
func (c *Category) UnmarshalText(b []byte) error {
	parsed, err := ParseCategory(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Meet is a scheduled race day.
type Meet struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Date        string   `json:"date"`
	Location    string   `json:"location"`
	Description string   `json:"description,omitempty"`
	Category    Category `json:"category,omitempty"`
}

// Day parses Date in DateLayout, in UTC.
func (m Meet) Day() (time.Time, error) {
	return time.Parse(DateLayout, m.Date)
}

// Upcoming reports whether the meet is on or after the calendar day of now.
// Meets with unparsable dates are never upcoming.
func (m Meet) Upcoming(now time.Time) bool {
	day, err := m.Day()
	if err != nil {
		return false
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return !day.Before(today)
}

// MeetInput is the create/update payload for a meet.
type MeetInput struct {
	Name        string   `json:"name"`
	Date        string   `json:"date"`
	Location    string   `json:"location"`
	Description string   `json:"description,omitempty"`
	Category    Category `json:"category,omitempty"`
}
