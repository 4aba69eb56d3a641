package cli

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/okian/xcroster/internal/app"
	"github.com/okian/xcroster/internal/cache"
	"github.com/okian/xcroster/internal/domain/model"
	"github.com/okian/xcroster/internal/pages"
	"github.com/okian/xcroster/internal/route"
)

// Renderer writes views as styled text.
type Renderer struct {
	st Styles
}

// NewRenderer creates a Renderer using st.
func NewRenderer(st Styles) *Renderer {
	return &Renderer{st: st}
}

// Render writes the page in v followed by fetch errors and notices.
func (r *Renderer) Render(w io.Writer, v app.View) error {
	var sb strings.Builder
	sb.WriteString(r.st.Title.Render(v.Decision.Page.Title()))
	sb.WriteString("\n")

	switch {
	case v.Loading != nil:
		sb.WriteString(r.st.Muted.Render("Checking your session..."))
		sb.WriteString("\n")
	case v.Home != nil:
		r.home(&sb, v.Home)
	case v.Athletes != nil:
		r.athletes(&sb, v.Athletes)
	case v.Schedule != nil:
		r.schedule(&sb, v.Schedule)
	case v.Results != nil:
		r.results(&sb, v.Results)
	case v.Dashboard != nil:
		r.dashboard(&sb, v.Dashboard)
	case v.AdminAthletes != nil:
		r.adminAthletes(&sb, v.AdminAthletes)
	case v.Login != nil:
		r.login(&sb, v.Login)
	}

	r.errors(&sb, v.Errors)
	r.notices(&sb, v.Notices)
	_, err := io.WriteString(w, sb.String())
	return err
}

func (r *Renderer) stats(sb *strings.Builder, pairs ...string) {
	boxes := make([]string, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		boxes = append(boxes, r.st.Stat.Render(r.st.Bold.Render(pairs[i+1])+"\n"+r.st.Muted.Render(pairs[i])))
	}
	sb.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, boxes...))
	sb.WriteString("\n\n")
}

func (r *Renderer) home(sb *strings.Builder, v *pages.HomeView) {
	r.stats(sb,
		"Athletes", strconv.Itoa(v.AthleteCount),
		"Upcoming Meets", strconv.Itoa(v.UpcomingCount),
		"Total Meets", strconv.Itoa(v.MeetCount),
		"Best 5K", v.BestTime,
	)
	sb.WriteString(topTimesTable(v.TopTimes).View(r.st))
	sb.WriteString("\n")
	sb.WriteString(meetsTable("Upcoming Meets", v.Upcoming, "No upcoming meets scheduled").View(r.st))
}

func (r *Renderer) athletes(sb *strings.Builder, v *pages.AthletesView) {
	if v.Query != "" {
		sb.WriteString(r.st.Muted.Render(fmt.Sprintf("Search: %q", v.Query)))
		sb.WriteString("\n\n")
	}
	for _, g := range v.Groups {
		if g.Grade == 0 {
			continue
		}
		t := NewTable(fmt.Sprintf("%s (%d)", g.Name, len(g.Athletes)), "Name", "PR", "Events")
		t.Empty = "No athletes"
		for _, a := range g.Athletes {
			t.AddRow(a.Name, orDash(a.PersonalRecord), strings.Join(a.EventList(), ", "))
		}
		sb.WriteString(t.View(r.st))
		sb.WriteString("\n")
	}
}

func (r *Renderer) schedule(sb *strings.Builder, v *pages.ScheduleView) {
	up := NewTable("Upcoming Meets", "Date", "Meet", "Location", "Race")
	up.Empty = "No upcoming meets scheduled"
	for _, m := range v.Upcoming {
		up.AddRow(m.Date, m.Name, m.Location, m.Category.Label())
	}
	sb.WriteString(up.View(r.st))
	sb.WriteString("\n")

	past := NewTable("Past Meets", "Date", "Meet", "Location", "Results")
	past.Empty = "No past meets"
	for _, m := range v.Past {
		past.AddRow(m.Date, m.Name, m.Location, m.Link)
	}
	sb.WriteString(past.View(r.st))
}

func (r *Renderer) results(sb *strings.Builder, v *pages.ResultsView) {
	if v.Selected == nil {
		sb.WriteString(r.st.Muted.Render("No meet selected"))
		sb.WriteString("\n\n")
	} else {
		sb.WriteString(r.st.Bold.Render(v.Selected.Name))
		sb.WriteString(r.st.Muted.Render("  " + v.Selected.Date + "  " + v.Selected.Location + "  " + v.Summary))
		sb.WriteString("\n\n")
		t := NewTable("", "Place", "Athlete", "Time")
		t.Empty = "No results recorded for this meet"
		for _, res := range v.Results {
			t.AddRow(place(res.Place), res.AthleteName, res.Time)
		}
		sb.WriteString(t.View(r.st))
		sb.WriteString("\n")
	}

	others := NewTable("Meets", "ID", "Date", "Meet", "Link")
	for _, m := range v.Meets {
		marker := route.ResultsFragment(m.ID)
		if m.ID == v.SelectedID {
			marker += " *"
		}
		others.AddRow(strconv.FormatInt(m.ID, 10), m.Date, m.Name, marker)
	}
	sb.WriteString(others.View(r.st))
	sb.WriteString("\n")
	sb.WriteString(topTimesTable(v.TopTimes).View(r.st))
}

func (r *Renderer) dashboard(sb *strings.Builder, v *pages.DashboardView) {
	r.stats(sb,
		"Athletes", strconv.Itoa(v.AthleteCount),
		"Meets", strconv.Itoa(v.MeetCount),
		"Upcoming", strconv.Itoa(v.UpcomingCount),
		"Top Times", strconv.Itoa(v.TopTimeCount),
	)
	t := NewTable("Recent Athletes", "ID", "Name", "Grade")
	t.Empty = "No athletes yet"
	for _, a := range v.RecentAthletes {
		t.AddRow(strconv.FormatInt(a.ID, 10), a.Name, a.Grade.Label())
	}
	sb.WriteString(t.View(r.st))
	sb.WriteString("\n")
	sb.WriteString(meetsTable("Upcoming Meets", v.Upcoming, "No upcoming meets scheduled").View(r.st))
}

func (r *Renderer) adminAthletes(sb *strings.Builder, v *pages.AdminAthletesView) {
	sb.WriteString(r.st.Muted.Render(v.Summary))
	sb.WriteString("\n\n")
	t := NewTable("", "ID", "Name", "Grade", "PR", "Events")
	t.Empty = "No athletes match"
	for _, a := range v.Athletes {
		t.AddRow(strconv.FormatInt(a.ID, 10), a.Name, strconv.Itoa(int(a.Grade)), orDash(a.PersonalRecord), a.Events)
	}
	sb.WriteString(t.View(r.st))
}

func (r *Renderer) login(sb *strings.Builder, v *pages.LoginView) {
	if v.Error != "" {
		sb.WriteString(r.st.Error.Render(v.Error))
		sb.WriteString("\n")
	}
	sb.WriteString(r.st.Muted.Render("Run `xcctl login` to sign in as the team administrator."))
	sb.WriteString("\n")
}

func (r *Renderer) errors(sb *strings.Builder, errs map[cache.Key]error) {
	if len(errs) == 0 {
		return
	}
	keys := make([]cache.Key, 0, len(errs))
	for k := range errs {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	sb.WriteString("\n")
	for _, k := range keys {
		sb.WriteString(r.st.Error.Render(fmt.Sprintf("Could not load %s: %v", k, errs[k])))
		sb.WriteString("\n")
	}
}

func (r *Renderer) notices(sb *strings.Builder, ns []app.Notice) {
	for _, n := range ns {
		style := r.st.Success
		if n.Level == app.LevelError {
			style = r.st.Error
		}
		sb.WriteString(style.Render(n.Message))
		sb.WriteString("\n")
	}
}

func topTimesTable(top []model.TopTime) *Table {
	t := NewTable("Top Times", "#", "Athlete", "Time", "Meet", "Date")
	t.Empty = "No results recorded yet"
	for i, tt := range top {
		t.AddRow(strconv.Itoa(i+1), tt.AthleteName, tt.Time, tt.MeetName, tt.MeetDate)
	}
	return t
}

func meetsTable(title string, meets []model.Meet, empty string) *Table {
	t := NewTable(title, "Date", "Meet", "Location")
	t.Empty = empty
	for _, m := range meets {
		t.AddRow(m.Date, m.Name, m.Location)
	}
	return t
}

func place(p int) string {
	if p <= 0 {
		return "-"
	}
	return strconv.Itoa(p)
}

func orDash(s string) string {
	if s == "" {
		return pages.NoTime
	}
	return s
}
