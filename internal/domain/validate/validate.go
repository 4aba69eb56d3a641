// Package validate checks admin form input before any request is made.
package validate

import (
	"strconv"
	"strings"
	"time"

	"github.com/okian/xcroster/internal/domain/model"
)

// Field names used as FieldErrors keys.
const (
	FieldName           = "name"
	FieldGrade          = "grade"
	FieldPersonalRecord = "personalRecord"
	FieldDate           = "date"
	FieldLocation       = "location"
	FieldCategory       = "category"
	FieldMeetID         = "meetId"
	FieldAthleteID      = "athleteId"
	FieldTime           = "time"
	FieldPlace          = "place"
)

// Messages reported per field.
const (
	MsgRequired   = "is required"
	MsgRaceTime   = "must be in MM:SS format"
	MsgGrade      = "must be a number between 9 and 12"
	MsgDate       = "must be in YYYY-MM-DD format"
	MsgCategory   = "must be one of varsity-boys, varsity-girls, jv-boys, jv-girls"
	MsgPositiveID = "must be a positive number"
	MsgPlace      = "must be zero or a positive number"
)

// PersonalRecord reports whether s is a M:SS or MM:SS time.
func PersonalRecord(s string) (string, bool) {
	if _, err := model.ParseRaceTime(s); err != nil {
		return MsgRaceTime, false
	}
	return "", true
}

// Grade parses s as a grade between 9 and 12 inclusive.
func Grade(s string) (model.Grade, string, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, MsgGrade, false
	}
	g := model.Grade(n)
	if !g.Valid() {
		return 0, MsgGrade, false
	}
	return g, "", true
}

// AthleteForm is the raw athlete editor input.
type AthleteForm struct {
	Name           string
	Grade          string
	PersonalRecord string
	Events         string
}

// Validate returns the request payload or FieldErrors. The personal record is
// optional but must be well formed when given.
func (f AthleteForm) Validate() (model.AthleteInput, error) {
	errs := FieldErrors{}
	in := model.AthleteInput{
		Name:           strings.TrimSpace(f.Name),
		PersonalRecord: strings.TrimSpace(f.PersonalRecord),
		Events:         strings.TrimSpace(f.Events),
	}
	if in.Name == "" {
		errs[FieldName] = MsgRequired
	}
	if g, msg, ok := Grade(f.Grade); ok {
		in.Grade = g
	} else {
		errs[FieldGrade] = msg
	}
	if in.PersonalRecord != "" {
		if msg, ok := PersonalRecord(in.PersonalRecord); !ok {
			errs[FieldPersonalRecord] = msg
		}
	}
	if err := errs.orNil(); err != nil {
		return model.AthleteInput{}, err
	}
	return in, nil
}

// MeetForm is the raw meet editor input.
type MeetForm struct {
	Name        string
	Date        string
	Location    string
	Description string
	Category    string
}

// Validate returns the request payload or FieldErrors.
func (f MeetForm) Validate() (model.MeetInput, error) {
	errs := FieldErrors{}
	in := model.MeetInput{
		Name:        strings.TrimSpace(f.Name),
		Date:        strings.TrimSpace(f.Date),
		Location:    strings.TrimSpace(f.Location),
		Description: strings.TrimSpace(f.Description),
	}
	if in.Name == "" {
		errs[FieldName] = MsgRequired
	}
	if in.Location == "" {
		errs[FieldLocation] = MsgRequired
	}
	switch {
	case in.Date == "":
		errs[FieldDate] = MsgRequired
	default:
		if _, err := time.Parse(model.DateLayout, in.Date); err != nil {
			errs[FieldDate] = MsgDate
		}
	}
	if c, err := model.ParseCategory(strings.TrimSpace(f.Category)); err != nil {
		errs[FieldCategory] = MsgCategory
	} else {
		in.Category = c
	}
	if err := errs.orNil(); err != nil {
		return model.MeetInput{}, err
	}
	return in, nil
}

// ResultForm is the raw result editor input. Place may be blank.
type ResultForm struct {
	MeetID    string
	AthleteID string
	Time      string
	Place     string
}

// Validate returns the request payload or FieldErrors.
func (f ResultForm) Validate() (model.ResultInput, error) {
	errs := FieldErrors{}
	var in model.ResultInput

	if id, ok := positiveID(f.MeetID); ok {
		in.MeetID = id
	} else {
		errs[FieldMeetID] = MsgPositiveID
	}
	if id, ok := positiveID(f.AthleteID); ok {
		in.AthleteID = id
	} else {
		errs[FieldAthleteID] = MsgPositiveID
	}
	in.Time = strings.TrimSpace(f.Time)
	if in.Time == "" {
		errs[FieldTime] = MsgRequired
	} else if msg, ok := PersonalRecord(in.Time); !ok {
		errs[FieldTime] = msg
	}
	if p := strings.TrimSpace(f.Place); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			errs[FieldPlace] = MsgPlace
		} else {
			in.Place = n
		}
	}
	if err := errs.orNil(); err != nil {
		return model.ResultInput{}, err
	}
	return in, nil
}

func positiveID(s string) (int64, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
