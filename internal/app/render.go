package app

import (
	"context"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/okian/xcroster/internal/cache"
	"github.com/okian/xcroster/internal/domain/model"
	"github.com/okian/xcroster/internal/pages"
	"github.com/okian/xcroster/internal/route"
	"github.com/okian/xcroster/internal/session"
)

// View is everything needed to draw the current page. Exactly one of the
// page fields is set.
type View struct {
	Decision route.Decision
	Session  session.Session

	Home          *pages.HomeView
	Athletes      *pages.AthletesView
	Schedule      *pages.ScheduleView
	Results       *pages.ResultsView
	Dashboard     *pages.DashboardView
	AdminAthletes *pages.AdminAthletesView
	Login         *pages.LoginView
	Loading       *pages.LoadingView

	// Keys lists the cache keys the page was built from.
	Keys []cache.Key
	// Errors holds failed fetches by key; the page shows them with a retry.
	Errors  map[cache.Key]error
	Notices []Notice
}

// Failed reports whether any fetch for the view failed.
func (v View) Failed() bool { return len(v.Errors) > 0 }

// Render builds the view for the current routing decision, fetching the
// page's data concurrently. Fetch failures land in View.Errors; only a
// cancelled ctx fails the render.
func (a *App) Render(ctx context.Context) (View, error) {
	d := a.router.Current()
	return a.RenderDecision(ctx, d)
}

// RenderDecision builds the view for d.
func (a *App) RenderDecision(ctx context.Context, d route.Decision) (View, error) {
	v := View{Decision: d, Session: a.session.Snapshot()}
	query, lastErr := a.snapshot()
	now := a.now()

	f := &fetchSet{app: a}
	var err error

	switch {
	case d.Kind == route.Loading:
		v.Loading = &pages.LoadingView{Page: d.Page}
	case d.Page == route.Home:
		if err = f.run(ctx, f.athletes, f.meets, f.topTimes); err == nil {
			h := pages.Home(f.athleteList, f.meetList, f.topList, now)
			v.Home = &h
		}
	case d.Page == route.Athletes:
		if err = f.run(ctx, f.athletes); err == nil {
			p := pages.Athletes(f.athleteList, query)
			v.Athletes = &p
		}
	case d.Page == route.Schedule:
		if err = f.run(ctx, f.meets); err == nil {
			p := pages.Schedule(f.meetList, now)
			v.Schedule = &p
		}
	case d.Page == route.Results:
		if err = f.run(ctx, f.meets, f.topTimes); err == nil {
			f.meetID = pages.SelectMeet(f.meetList, d.Location.MeetID, now)
			if f.meetID > 0 {
				err = f.run(ctx, f.results)
			}
		}
		if err == nil {
			p := pages.Results(f.meetList, f.meetID, f.resultList, f.topList)
			v.Results = &p
		}
	case d.Page == route.Admin:
		if err = f.run(ctx, f.athletes, f.meets, f.topTimes); err == nil {
			p := pages.AdminDashboard(f.athleteList, f.meetList, f.topList, now)
			v.Dashboard = &p
		}
	case d.Page == route.AdminAthletes:
		if err = f.run(ctx, f.athletes); err == nil {
			p := pages.AdminAthletes(f.athleteList, query, a.searchLimit)
			v.AdminAthletes = &p
		}
	case d.Page == route.Login:
		p := pages.Login(lastErr)
		v.Login = &p
	}
	if err != nil {
		return View{}, err
	}

	v.Keys = f.used()
	v.Errors = f.errs
	v.Notices = a.notices.Active()
	return v, nil
}

// fetchSet gathers one render's data. Each loader stores its own result so
// a failed key leaves the rest usable.
type fetchSet struct {
	app    *App
	meetID int64

	mu          sync.Mutex
	keys        []cache.Key
	errs        map[cache.Key]error
	athleteList []model.Athlete
	meetList    []model.Meet
	topList     []model.TopTime
	resultList  []model.Result
}

// loader fetches one key. It returns an error only when ctx is done; other
// failures are kept per key.
type loader func(ctx context.Context) error

func (f *fetchSet) run(ctx context.Context, loaders ...loader) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, load := range loaders {
		g.Go(func() error { return load(gctx) })
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// settle records the outcome of a fetch of k.
func (f *fetchSet) settle(ctx context.Context, k cache.Key, err error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys = append(f.keys, k)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if f.errs == nil {
		f.errs = make(map[cache.Key]error)
	}
	f.errs[k] = err
	return nil
}

func (f *fetchSet) used() []cache.Key {
	f.mu.Lock()
	defer f.mu.Unlock()
	keys := append([]cache.Key(nil), f.keys...)
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	return keys
}

func (f *fetchSet) athletes(ctx context.Context) error {
	v, err := f.app.Athletes(ctx)
	if err == nil {
		f.mu.Lock()
		f.athleteList = v
		f.mu.Unlock()
	}
	return f.settle(ctx, cache.Athletes(), err)
}

func (f *fetchSet) meets(ctx context.Context) error {
	v, err := f.app.Meets(ctx)
	if err == nil {
		f.mu.Lock()
		f.meetList = v
		f.mu.Unlock()
	}
	return f.settle(ctx, cache.Meets(), err)
}

func (f *fetchSet) topTimes(ctx context.Context) error {
	v, err := f.app.TopTimes(ctx)
	if err == nil {
		f.mu.Lock()
		f.topList = v
		f.mu.Unlock()
	}
	return f.settle(ctx, cache.TopTimes(), err)
}

func (f *fetchSet) results(ctx context.Context) error {
	v, err := f.app.MeetResults(ctx, f.meetID)
	if err == nil {
		f.mu.Lock()
		f.resultList = v
		f.mu.Unlock()
	}
	return f.settle(ctx, cache.MeetResults(f.meetID), err)
}
