package route

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/okian/xcroster/internal/session"
)

// Location is a parsed fragment.
type Location struct {
	Page Page
	// MeetID comes from a "?meet=<id>" suffix; 0 when absent.
	MeetID int64
	// Known is false when the token did not name a page and Home was assumed.
	Known bool
	Raw   string
}

// ParseFragment parses "#results?meet=3" style fragments. The leading "#"
// is optional. Unknown or empty tokens resolve to Home.
func ParseFragment(raw string) Location {
	frag := strings.TrimPrefix(strings.TrimSpace(raw), "#")
	token, query, _ := strings.Cut(frag, "?")
	page, known := ParsePage(token)
	loc := Location{Page: page, Known: known, Raw: raw}

	if query != "" {
		if values, err := url.ParseQuery(query); err == nil {
			if id, err := strconv.ParseInt(values.Get("meet"), 10, 64); err == nil && id > 0 {
				loc.MeetID = id
			}
		}
	}
	return loc
}

// ResultsFragment links to the results page for one meet.
func ResultsFragment(meetID int64) string {
	return Results.Fragment() + "?meet=" + strconv.FormatInt(meetID, 10)
}

// Kind is what the controller should do with a location.
type Kind int

// Decision kinds.
const (
	Render Kind = iota
	Redirect
	Loading
)

func (k Kind) String() string {
	switch k {
	case Render:
		return "render"
	case Redirect:
		return "redirect"
	case Loading:
		return "loading"
	default:
		return "unknown"
	}
}

// Decision is the outcome of resolving a location against a session.
type Decision struct {
	Kind     Kind
	Page     Page
	Location Location
	// Target is the fragment to replace the current one with on Redirect.
	Target string
}

// Resolve applies the routing rules:
//   - admin pages while verification is in flight render a loading state;
//   - admin pages without an authenticated session redirect to #login;
//   - #login with an authenticated session redirects to #admin;
//   - everything else renders its page.
func Resolve(loc Location, sess session.Session) Decision {
	switch {
	case loc.Page.IsAdmin() && sess.Loading():
		return Decision{Kind: Loading, Page: loc.Page, Location: loc}
	case loc.Page.IsAdmin() && !sess.Authenticated():
		return Decision{Kind: Redirect, Page: Login, Location: loc, Target: Login.Fragment()}
	case loc.Page == Login && sess.Authenticated():
		return Decision{Kind: Redirect, Page: Admin, Location: loc, Target: Admin.Fragment()}
	default:
		return Decision{Kind: Render, Page: loc.Page, Location: loc}
	}
}
