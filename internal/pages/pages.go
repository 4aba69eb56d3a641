// Package pages builds the view models for each routed page from fetched
// data. Builders are pure; the current time is passed in.
package pages

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/okian/xcroster/internal/domain/model"
	"github.com/okian/xcroster/internal/route"
)

// NoTime is shown when there is no best time yet.
const NoTime = "--:--"

const (
	homeTopTimes      = 5
	homeUpcoming      = 3
	dashboardAthletes = 5
	dashboardUpcoming = 5
)

// HomeView is the landing page.
type HomeView struct {
	AthleteCount  int
	UpcomingCount int
	MeetCount     int
	BestTime      string
	TopTimes      []model.TopTime
	Upcoming      []model.Meet
}

// Home summarizes the roster, the season and the fastest times.
func Home(athletes []model.Athlete, meets []model.Meet, top []model.TopTime, now time.Time) HomeView {
	upcoming := UpcomingMeets(meets, now)
	v := HomeView{
		AthleteCount:  len(athletes),
		UpcomingCount: len(upcoming),
		MeetCount:     len(meets),
		BestTime:      NoTime,
		TopTimes:      head(top, homeTopTimes),
		Upcoming:      head(upcoming, homeUpcoming),
	}
	if len(top) > 0 && top[0].Time != "" {
		v.BestTime = top[0].Time
	}
	return v
}

// GradeGroup is one tab of the athletes page.
type GradeGroup struct {
	Name string
	// Grade is 0 for the group holding everyone.
	Grade    model.Grade
	Athletes []model.Athlete
}

// AthletesView is the public roster.
type AthletesView struct {
	Query  string
	Total  int
	Groups []GradeGroup
}

// Athletes filters by name and splits the matches by grade, seniors first.
func Athletes(athletes []model.Athlete, query string) AthletesView {
	matched := FilterAthletes(athletes, query)
	v := AthletesView{
		Query:  query,
		Total:  len(athletes),
		Groups: []GradeGroup{{Name: "All", Athletes: matched}},
	}
	for _, g := range []struct {
		name  string
		grade model.Grade
	}{
		{"Seniors", 12},
		{"Juniors", 11},
		{"Sophomores", 10},
		{"Freshmen", 9},
	} {
		group := GradeGroup{Name: g.name, Grade: g.grade}
		for _, a := range matched {
			if a.Grade == g.grade {
				group.Athletes = append(group.Athletes, a)
			}
		}
		v.Groups = append(v.Groups, group)
	}
	return v
}

// FilterAthletes keeps athletes whose name contains query, ignoring case.
// An empty query keeps everyone.
func FilterAthletes(athletes []model.Athlete, query string) []model.Athlete {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]model.Athlete, 0, len(athletes))
	for _, a := range athletes {
		if q == "" || strings.Contains(strings.ToLower(a.Name), q) {
			out = append(out, a)
		}
	}
	return out
}

// MeetLink is a meet row with its results link. Link is empty for upcoming meets.
type MeetLink struct {
	model.Meet
	Link string
}

// ScheduleView is the season schedule.
type ScheduleView struct {
	Upcoming []MeetLink
	Past     []MeetLink
	Total    int
}

// Schedule splits meets into upcoming, soonest first, and past, latest first.
func Schedule(meets []model.Meet, now time.Time) ScheduleView {
	v := ScheduleView{Total: len(meets)}
	for _, m := range UpcomingMeets(meets, now) {
		v.Upcoming = append(v.Upcoming, MeetLink{Meet: m})
	}
	for _, m := range PastMeets(meets, now) {
		v.Past = append(v.Past, MeetLink{Meet: m, Link: route.ResultsFragment(m.ID)})
	}
	return v
}

// ResultsView is the results page for one meet plus the season top times.
type ResultsView struct {
	Meets    []model.Meet
	Selected *model.Meet
	// SelectedID may name a meet missing from Meets when the link is stale.
	SelectedID int64
	Results    []model.Result
	Summary    string
	TopTimes   []model.TopTime
}

// SelectMeet picks the meet the results page shows: the requested one, else
// the most recent past meet, else none (0).
func SelectMeet(meets []model.Meet, requested int64, now time.Time) int64 {
	if requested > 0 {
		return requested
	}
	if past := PastMeets(meets, now); len(past) > 0 {
		return past[0].ID
	}
	return 0
}

// Results assembles the results page. results belong to selectedID.
func Results(meets []model.Meet, selectedID int64, results []model.Result, top []model.TopTime) ResultsView {
	sorted := sortedMeets(meets, true)
	v := ResultsView{
		Meets:      sorted,
		SelectedID: selectedID,
		Results:    results,
		TopTimes:   top,
	}
	for i := range sorted {
		if sorted[i].ID == selectedID {
			v.Selected = &sorted[i]
			break
		}
	}
	switch len(results) {
	case 0:
	case 1:
		v.Summary = "1 result"
	default:
		v.Summary = fmt.Sprintf("%d results", len(results))
	}
	return v
}

// DashboardView is the admin landing page.
type DashboardView struct {
	AthleteCount   int
	MeetCount      int
	UpcomingCount  int
	TopTimeCount   int
	RecentAthletes []model.Athlete
	Upcoming       []model.Meet
}

// AdminDashboard summarizes what an admin can manage.
func AdminDashboard(athletes []model.Athlete, meets []model.Meet, top []model.TopTime, now time.Time) DashboardView {
	upcoming := UpcomingMeets(meets, now)
	return DashboardView{
		AthleteCount:   len(athletes),
		MeetCount:      len(meets),
		UpcomingCount:  len(upcoming),
		TopTimeCount:   len(top),
		RecentAthletes: head(athletes, dashboardAthletes),
		Upcoming:       head(upcoming, dashboardUpcoming),
	}
}

// AdminAthletesView is the athlete management table.
type AdminAthletesView struct {
	Query     string
	Athletes  []model.Athlete
	Matched   int
	Total     int
	Truncated bool
	// Summary reads "N of M athletes".
	Summary string
}

// AdminAthletes filters the roster. limit caps the rows shown; 0 means no cap.
func AdminAthletes(athletes []model.Athlete, query string, limit int) AdminAthletesView {
	matched := FilterAthletes(athletes, query)
	v := AdminAthletesView{
		Query:    query,
		Athletes: matched,
		Matched:  len(matched),
		Total:    len(athletes),
		Summary:  fmt.Sprintf("%d of %d athletes", len(matched), len(athletes)),
	}
	if limit > 0 && len(matched) > limit {
		v.Athletes = matched[:limit]
		v.Truncated = true
	}
	return v
}

// LoginView is the admin login form.
type LoginView struct {
	Error string
}

// Login shows the message of the last failed attempt, if any.
func Login(lastErr error) LoginView {
	if lastErr == nil {
		return LoginView{}
	}
	return LoginView{Error: lastErr.Error()}
}

// LoadingView stands in for an admin page while the session is being verified.
type LoadingView struct {
	Page route.Page
}

// UpcomingMeets returns meets on or after today, soonest first.
func UpcomingMeets(meets []model.Meet, now time.Time) []model.Meet {
	var out []model.Meet
	for _, m := range meets {
		if m.Upcoming(now) {
			out = append(out, m)
		}
	}
	return sortedMeets(out, false)
}

// PastMeets returns meets before today, latest first. Meets with unreadable
// dates are neither upcoming nor past.
func PastMeets(meets []model.Meet, now time.Time) []model.Meet {
	var out []model.Meet
	for _, m := range meets {
		if _, err := m.Day(); err == nil && !m.Upcoming(now) {
			out = append(out, m)
		}
	}
	return sortedMeets(out, true)
}

// sortedMeets orders by date; unparsable dates sort last either way.
func sortedMeets(meets []model.Meet, desc bool) []model.Meet {
	out := slices.Clone(meets)
	slices.SortStableFunc(out, func(a, b model.Meet) int {
		da, errA := a.Day()
		db, errB := b.Day()
		switch {
		case errA != nil && errB != nil:
			return 0
		case errA != nil:
			return 1
		case errB != nil:
			return -1
		}
		if desc {
			return db.Compare(da)
		}
		return cmp.Compare(da.Unix(), db.Unix())
	})
	return out
}

func head[T any](s []T, n int) []T {
	if len(s) > n {
		return s[:n]
	}
	return s
}
