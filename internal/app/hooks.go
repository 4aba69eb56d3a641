package app

import (
	"context"
	"errors"

	"github.com/okian/xcroster/internal/adapters/apiclient"
	"github.com/okian/xcroster/internal/cache"
	"github.com/okian/xcroster/internal/domain/model"
	"github.com/okian/xcroster/internal/domain/validate"
	"github.com/okian/xcroster/pkg/logger"
)

// Athletes returns the roster.
func (a *App) Athletes(ctx context.Context) ([]model.Athlete, error) {
	return cache.Get(ctx, a.cache, cache.Athletes(), a.api.ListAthletes)
}

// Athlete returns one athlete.
func (a *App) Athlete(ctx context.Context, id int64) (model.Athlete, error) {
	return cache.Get(ctx, a.cache, cache.Athlete(id), func(ctx context.Context) (model.Athlete, error) {
		return a.api.GetAthlete(ctx, id)
	})
}

// Meets returns the schedule.
func (a *App) Meets(ctx context.Context) ([]model.Meet, error) {
	return cache.Get(ctx, a.cache, cache.Meets(), a.api.ListMeets)
}

// Meet returns one meet.
func (a *App) Meet(ctx context.Context, id int64) (model.Meet, error) {
	return cache.Get(ctx, a.cache, cache.Meet(id), func(ctx context.Context) (model.Meet, error) {
		return a.api.GetMeet(ctx, id)
	})
}

// MeetResults returns the results of one meet.
func (a *App) MeetResults(ctx context.Context, meetID int64) ([]model.Result, error) {
	return cache.Get(ctx, a.cache, cache.MeetResults(meetID), func(ctx context.Context) ([]model.Result, error) {
		return a.api.MeetResults(ctx, meetID)
	})
}

// TopTimes returns the fastest recorded times.
func (a *App) TopTimes(ctx context.Context) ([]model.TopTime, error) {
	return cache.Get(ctx, a.cache, cache.TopTimes(), a.api.TopTimes)
}

// Watch calls fn on every change to key. Observed keys are refetched in the
// background after invalidation, including keys no page has fetched yet.
func (a *App) Watch(key cache.Key, fn func(cache.Snapshot)) func() {
	if f := a.fetcher(key); f != nil {
		a.cache.Register(key, f)
	}
	return a.cache.Subscribe(key, fn)
}

// Refresh marks keys stale. Watched keys refetch right away; the rest on
// their next read.
func (a *App) Refresh(keys ...cache.Key) {
	selectors := make([]cache.Selector, len(keys))
	for i, k := range keys {
		selectors[i] = cache.Exact(k)
	}
	a.cache.Invalidate(selectors...)
}

// fetcher returns the request behind key, or nil for keys no hook serves.
func (a *App) fetcher(k cache.Key) cache.Fetcher {
	switch {
	case k == cache.Athletes():
		return fetcherOf(a.api.ListAthletes)
	case k.Resource == cache.ResourceAthletes && k.Sub == "":
		return fetcherOf(func(ctx context.Context) (model.Athlete, error) { return a.api.GetAthlete(ctx, k.ID) })
	case k == cache.Meets():
		return fetcherOf(a.api.ListMeets)
	case k.Resource == cache.ResourceMeets && k.Sub == "":
		return fetcherOf(func(ctx context.Context) (model.Meet, error) { return a.api.GetMeet(ctx, k.ID) })
	case k.Resource == cache.ResourceMeets && k.Sub == cache.SubResults && k.ID > 0:
		return fetcherOf(func(ctx context.Context) ([]model.Result, error) { return a.api.MeetResults(ctx, k.ID) })
	case k == cache.TopTimes():
		return fetcherOf(a.api.TopTimes)
	}
	return nil
}

func fetcherOf[T any](fetch func(context.Context) (T, error)) cache.Fetcher {
	return func(ctx context.Context) (any, error) { return fetch(ctx) }
}

// Peek returns the cached state of key without fetching.
func (a *App) Peek(key cache.Key) (cache.Snapshot, bool) { return a.cache.Peek(key) }

// Retry refetches a key whose last fetch failed.
func (a *App) Retry(ctx context.Context, key cache.Key) error {
	_, err := a.cache.Fetch(ctx, key, nil)
	return err
}

// CreateAthlete validates form and adds the athlete.
func (a *App) CreateAthlete(ctx context.Context, form validate.AthleteForm) (model.Created, error) {
	in, err := form.Validate()
	if err != nil {
		return model.Created{}, err
	}
	var created model.Created
	err = a.mutate(ctx, "Athlete added successfully", "Failed to add athlete",
		func(ctx context.Context) (err error) {
			created, err = a.api.CreateAthlete(ctx, in)
			return err
		},
		cache.Exact(cache.Athletes()),
	)
	return created, err
}

// UpdateAthlete validates form and replaces athlete id.
func (a *App) UpdateAthlete(ctx context.Context, id int64, form validate.AthleteForm) error {
	in, err := form.Validate()
	if err != nil {
		return err
	}
	return a.mutate(ctx, "Athlete updated successfully", "Failed to update athlete",
		func(ctx context.Context) error { return a.api.UpdateAthlete(ctx, id, in) },
		cache.Exact(cache.Athletes()), cache.Exact(cache.Athlete(id)),
	)
}

// DeleteAthlete removes athlete id.
func (a *App) DeleteAthlete(ctx context.Context, id int64) error {
	return a.mutate(ctx, "Athlete deleted successfully", "Failed to delete athlete",
		func(ctx context.Context) error { return a.api.DeleteAthlete(ctx, id) },
		cache.Exact(cache.Athletes()),
	)
}

// CreateMeet validates form and schedules the meet.
func (a *App) CreateMeet(ctx context.Context, form validate.MeetForm) (model.Created, error) {
	in, err := form.Validate()
	if err != nil {
		return model.Created{}, err
	}
	var created model.Created
	err = a.mutate(ctx, "Meet added successfully", "Failed to add meet",
		func(ctx context.Context) (err error) {
			created, err = a.api.CreateMeet(ctx, in)
			return err
		},
		cache.Exact(cache.Meets()),
	)
	return created, err
}

// UpdateMeet validates form and replaces meet id. Top times carry the meet
// name and date, so they are invalidated too.
func (a *App) UpdateMeet(ctx context.Context, id int64, form validate.MeetForm) error {
	in, err := form.Validate()
	if err != nil {
		return err
	}
	return a.mutate(ctx, "Meet updated successfully", "Failed to update meet",
		func(ctx context.Context) error { return a.api.UpdateMeet(ctx, id, in) },
		cache.Exact(cache.Meets()), cache.Exact(cache.Meet(id)), cache.Exact(cache.TopTimes()),
	)
}

// DeleteMeet removes meet id and, on the server, its results.
func (a *App) DeleteMeet(ctx context.Context, id int64) error {
	return a.mutate(ctx, "Meet deleted successfully", "Failed to delete meet",
		func(ctx context.Context) error { return a.api.DeleteMeet(ctx, id) },
		cache.Prefix(cache.Meets()), cache.Exact(cache.TopTimes()),
	)
}

// CreateResult validates form and records the result.
func (a *App) CreateResult(ctx context.Context, form validate.ResultForm) (model.Created, error) {
	in, err := form.Validate()
	if err != nil {
		return model.Created{}, err
	}
	var created model.Created
	err = a.mutate(ctx, "Result added successfully", "Failed to add result",
		func(ctx context.Context) (err error) {
			created, err = a.api.CreateResult(ctx, in)
			return err
		},
		cache.Exact(cache.MeetResults(in.MeetID)), cache.Exact(cache.TopTimes()),
	)
	return created, err
}

// DeleteResult removes result id. The owning meet is unknown here, so every
// meet's results are invalidated.
func (a *App) DeleteResult(ctx context.Context, id int64) error {
	return a.mutate(ctx, "Result deleted successfully", "Failed to delete result",
		func(ctx context.Context) error { return a.api.DeleteResult(ctx, id) },
		cache.Prefix(cache.Meets()), cache.Exact(cache.TopTimes()),
	)
}

// mutate runs op through the cache and turns the outcome into a notice.
// Errors are returned to the caller and never stored in the cache.
func (a *App) mutate(ctx context.Context, okMsg, failMsg string, op func(context.Context) error, selectors ...cache.Selector) error {
	err := a.cache.Mutate(ctx, op, selectors...)
	if err != nil {
		msg := apiclient.Message(err)
		if msg == "" || errors.Is(err, apiclient.ErrTransport) {
			msg = failMsg
		}
		a.notices.Push(LevelError, msg)
		a.logger.Warn(ctx, "mutation failed", logger.String("notice", msg), logger.Error(err))
		return err
	}
	a.notices.Push(LevelSuccess, okMsg)
	return nil
}
