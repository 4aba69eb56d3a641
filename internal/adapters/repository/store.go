// Package repository persists the roster: athletes, meets and results.
package repository

import (
	"context"

	"github.com/okian/xcroster/internal/domain/model"
)

// Store provides read/write access to the roster.
type Store interface {
	ListAthletes(ctx context.Context) ([]model.Athlete, error)
	// GetAthlete returns ErrNotFound for unknown ids.
	GetAthlete(ctx context.Context, id int64) (model.Athlete, error)
	CreateAthlete(ctx context.Context, in model.AthleteInput) (int64, error)
	UpdateAthlete(ctx context.Context, id int64, in model.AthleteInput) error
	// DeleteAthlete also removes the athlete's results.
	DeleteAthlete(ctx context.Context, id int64) error

	// ListMeets returns meets ordered by date.
	ListMeets(ctx context.Context) ([]model.Meet, error)
	GetMeet(ctx context.Context, id int64) (model.Meet, error)
	CreateMeet(ctx context.Context, in model.MeetInput) (int64, error)
	UpdateMeet(ctx context.Context, id int64, in model.MeetInput) error
	// DeleteMeet also removes the meet's results.
	DeleteMeet(ctx context.Context, id int64) error

	// MeetResults returns results ordered by place, unplaced last, then time.
	MeetResults(ctx context.Context, meetID int64) ([]model.Result, error)
	// CreateResult returns ErrInvalidInput for unknown athletes or meets.
	CreateResult(ctx context.Context, in model.ResultInput) (int64, error)
	DeleteResult(ctx context.Context, id int64) error
	// TopTimes returns the fastest results across all meets.
	TopTimes(ctx context.Context) ([]model.TopTime, error)

	// Count returns the number of rows per table.
	Count(ctx context.Context) (Counts, error)
}

// Counts is the size of each table.
type Counts struct {
	Athletes int
	Meets    int
	Results  int
}
