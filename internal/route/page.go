// Package route maps navigation fragments to pages and keeps admin pages
// behind an authenticated session.
package route

import "strings"

// Page identifies a view.
type Page int

// Pages. Home is the default for unknown fragments.
const (
	Home Page = iota
	Athletes
	Schedule
	Results
	Login
	Admin
	AdminAthletes
)

var pageTokens = [...]string{
	Home:          "home",
	Athletes:      "athletes",
	Schedule:      "schedule",
	Results:       "results",
	Login:         "login",
	Admin:         "admin",
	AdminAthletes: "admin-athletes",
}

// Pages lists every page in navigation order.
func Pages() []Page {
	return []Page{Home, Athletes, Schedule, Results, Login, Admin, AdminAthletes}
}

// ParsePage maps a fragment token such as "admin-athletes" to its page.
func ParsePage(token string) (Page, bool) {
	token = strings.ToLower(strings.TrimSpace(token))
	for p, t := range pageTokens {
		if t == token {
			return Page(p), true
		}
	}
	return Home, false
}

// String returns the fragment token.
func (p Page) String() string {
	if p < 0 || int(p) >= len(pageTokens) {
		return "home"
	}
	return pageTokens[p]
}

// Fragment returns "#" plus the token.
func (p Page) Fragment() string { return "#" + p.String() }

// IsAdmin reports whether the page requires an authenticated session.
func (p Page) IsAdmin() bool {
	switch p {
	case Admin, AdminAthletes:
		return true
	default:
		return false
	}
}

// IsPublic reports whether the page is readable by anyone.
func (p Page) IsPublic() bool {
	switch p {
	case Home, Athletes, Schedule, Results:
		return true
	default:
		return false
	}
}

// Title is the navigation label.
func (p Page) Title() string {
	switch p {
	case Home:
		return "Home"
	case Athletes:
		return "Athletes"
	case Schedule:
		return "Schedule"
	case Results:
		return "Results"
	case Login:
		return "Admin Login"
	case Admin:
		return "Admin Dashboard"
	case AdminAthletes:
		return "Manage Athletes"
	default:
		return ""
	}
}
