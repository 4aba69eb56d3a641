package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/xcroster/internal/domain/model"
)

var demoAthletes = []model.AthleteInput{
	{Name: "Sarah Johnson", Grade: 12, PersonalRecord: "18:45", Events: "5K, 3200m"},
	{Name: "Mike Chen", Grade: 11, PersonalRecord: "16:32", Events: "5K, 1600m"},
	{Name: "Emily Davis", Grade: 10, PersonalRecord: "19:58", Events: "5K"},
	{Name: "Jake Wilson", Grade: 9, PersonalRecord: "17:50", Events: "5K, 800m"},
	{Name: "Olivia Martinez", Grade: 12, PersonalRecord: "19:12", Events: "5K, 3200m"},
	{Name: "Noah Thompson", Grade: 11, PersonalRecord: "16:58", Events: "5K"},
	{Name: "Ava Robinson", Grade: 10, PersonalRecord: "20:24", Events: "5K, 1600m"},
	{Name: "Liam Carter", Grade: 9, PersonalRecord: "18:10", Events: "5K"},
}

type demoMeet struct {
	in     model.MeetInput
	offset int // days from the seeding day
}

var demoMeets = []demoMeet{
	{model.MeetInput{Name: "Season Opener", Location: "Jones County High School", Description: "Home course time trial", Category: model.CategoryVarsityBoys}, -30},
	{model.MeetInput{Name: "County Invitational", Location: "Riverside Park", Description: "Twelve-team invitational", Category: model.CategoryVarsityGirls}, -16},
	{model.MeetInput{Name: "Lakeside Classic", Location: "Lakeside Trails", Category: model.CategoryJVBoys}, -2},
	{model.MeetInput{Name: "Region Championship", Location: "Macon Fairgrounds", Description: "Top 4 teams advance", Category: model.CategoryVarsityBoys}, 5},
	{model.MeetInput{Name: "JV Showcase", Location: "Jones County High School", Category: model.CategoryJVGirls}, 12},
	{model.MeetInput{Name: "State Championship", Location: "Carrollton", Description: "GHSA state meet"}, 26},
}

// demoResults maps a past meet index to finishes by athlete index.
var demoResults = map[int][]struct {
	athlete int
	time    string
	place   int
}{
	0: {{1, "16:40", 1}, {5, "17:05", 2}, {3, "17:58", 4}, {7, "18:22", 6}},
	1: {{0, "18:50", 2}, {4, "19:20", 5}, {2, "20:05", 9}, {6, "20:31", 12}},
	2: {{1, "16:32", 1}, {3, "17:50", 3}, {5, "16:58", 2}, {0, "18:45", 0}},
}

// Seed loads the demo roster into an empty database. now anchors meet
// dates so part of the season is always upcoming. It reports whether
// anything was written.
func Seed(ctx context.Context, s Store, now time.Time) (bool, error) {
	c, err := s.Count(ctx)
	if err != nil {
		return false, err
	}
	if c.Athletes > 0 || c.Meets > 0 {
		return false, nil
	}

	athleteIDs := make([]int64, len(demoAthletes))
	for i, a := range demoAthletes {
		id, err := s.CreateAthlete(ctx, a)
		if err != nil {
			return false, fmt.Errorf("seed athlete %q: %w", a.Name, err)
		}
		athleteIDs[i] = id
	}

	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	meetIDs := make([]int64, len(demoMeets))
	for i, m := range demoMeets {
		in := m.in
		in.Date = day.AddDate(0, 0, m.offset).Format(model.DateLayout)
		id, err := s.CreateMeet(ctx, in)
		if err != nil {
			return false, fmt.Errorf("seed meet %q: %w", in.Name, err)
		}
		meetIDs[i] = id
	}

	for meet, finishes := range demoResults {
		for _, f := range finishes {
			_, err := s.CreateResult(ctx, model.ResultInput{
				AthleteID: athleteIDs[f.athlete],
				MeetID:    meetIDs[meet],
				Time:      f.time,
				Place:     f.place,
			})
			if err != nil {
				return false, fmt.Errorf("seed result: %w", err)
			}
		}
	}

	return true, nil
}
