package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidRaceTime is returned for times not in M:SS or MM:SS form.
var ErrInvalidRaceTime = errors.New("invalid race time")

// Result is one athlete's finish in a meet. Place 0 means unplaced.
type Result struct {
	ID          int64  `json:"id"`
	MeetID      int64  `json:"meetId"`
	AthleteID   int64  `json:"athleteId"`
	AthleteName string `json:"athleteName,omitempty"`
	Place       int    `json:"place"`
	Time        string `json:"time"`
}

// TopTime is one row of the fastest-times aggregate.
type TopTime struct {
	ID          int64  `json:"id"`
	AthleteID   int64  `json:"athleteId"`
	MeetID      int64  `json:"meetId"`
	AthleteName string `json:"athleteName"`
	MeetName    string `json:"meetName"`
	MeetDate    string `json:"meetDate"`
	Time        string `json:"time"`
	Place       int    `json:"place"`
}

// ResultInput is the create payload for a result.
type ResultInput struct {
	AthleteID int64  `json:"athleteId"`
	MeetID    int64  `json:"meetId"`
	Time      string `json:"time"`
	Place     int    `json:"place"`
}

// Created is the body returned by create endpoints.
type Created struct {
	ID      int64  `json:"id"`
	Message string `json:"message,omitempty"`
}

// ParseRaceTime parses "M:SS" or "MM:SS" into a duration. Seconds must be 00-59.
func ParseRaceTime(s string) (time.Duration, error) {
	mm, ss, ok := strings.Cut(s, ":")
	if !ok || len(mm) < 1 || len(mm) > 2 || len(ss) != 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidRaceTime, s)
	}
	minutes, err := strconv.Atoi(mm)
	if err != nil || minutes < 0 || !digits(mm) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidRaceTime, s)
	}
	seconds, err := strconv.Atoi(ss)
	if err != nil || seconds < 0 || seconds > 59 || !digits(ss) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidRaceTime, s)
	}
	return time.Duration(minutes)*time.Minute + time.Duration(seconds)*time.Second, nil
}

// FormatRaceTime renders d as MM:SS, truncating sub-second precision.
func FormatRaceTime(d time.Duration) string {
	total := int(d / time.Second)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

func digits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
