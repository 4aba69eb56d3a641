package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/okian/xcroster/internal/adapters/repository/migrations"
	"github.com/okian/xcroster/internal/domain/model"
	"github.com/okian/xcroster/pkg/logger"
	"github.com/okian/xcroster/pkg/metrics"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

const defaultTopTimes = 10

// SQLStore is a Store on SQLite.
type SQLStore struct {
	db *sql.DB

	metricsUpdateInterval time.Duration
	topTimesLimit         int
	logger                logger.Logger

	wg       sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
}

var _ Store = (*SQLStore)(nil)

// Open opens (creating if needed) the database at path and applies
// migrations. path may be MemoryPath.
func Open(ctx context.Context, path string, opts ...Option) (*SQLStore, error) {
	s := &SQLStore{
		metricsUpdateInterval: 30 * time.Second,
		topTimesLimit:         defaultTopTimes,
		logger:                logger.Nop(),
		stopChan:              make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if path == MemoryPath {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", path, err)
	}
	s.db = db

	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	s.logger.Info(ctx, "roster database ready", logger.String("path", path))

	s.updateMetrics(ctx)
	if s.metricsUpdateInterval > 0 {
		s.startMetricsUpdater(ctx)
	}
	return s, nil
}

func dsn(path string) string {
	const pragmas = "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	if path == MemoryPath {
		return "file::memory:?" + pragmas
	}
	return "file:" + path + "?" + pragmas
}

func (s *SQLStore) migrate(ctx context.Context) error {
	goose.SetBaseFS(migrations.FS)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	if err := goose.UpContext(ctx, s.db, "."); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// startMetricsUpdater exports row counts until Close or ctx is done.
func (s *SQLStore) startMetricsUpdater(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.metricsUpdateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				s.updateMetrics(ctx)
			}
		}
	}()
}

func (s *SQLStore) updateMetrics(ctx context.Context) {
	c, err := s.Count(ctx)
	if err != nil {
		s.logger.Warn(ctx, "counting rows failed", logger.Error(err))
		return
	}
	metrics.UpdateRecords("athletes", c.Athletes)
	metrics.UpdateRecords("meets", c.Meets)
	metrics.UpdateRecords("results", c.Results)
}

// Close stops the metrics updater and closes the database.
func (s *SQLStore) Close() error {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
	return s.db.Close()
}

// DB exposes the handle for maintenance commands.
func (s *SQLStore) DB() *sql.DB { return s.db }

// Count returns the number of rows per table.
func (s *SQLStore) Count(ctx context.Context) (Counts, error) {
	var c Counts
	err := s.db.QueryRowContext(ctx, `SELECT
		(SELECT COUNT(*) FROM athletes),
		(SELECT COUNT(*) FROM meets),
		(SELECT COUNT(*) FROM results)`).Scan(&c.Athletes, &c.Meets, &c.Results)
	if err != nil {
		return Counts{}, fmt.Errorf("count: %w", err)
	}
	return c, nil
}

// ListAthletes returns the roster ordered by name.
func (s *SQLStore) ListAthletes(ctx context.Context) ([]model.Athlete, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, grade, personal_record, events FROM athletes ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("list athletes: %w", err)
	}
	defer rows.Close()

	out := []model.Athlete{}
	for rows.Next() {
		var a model.Athlete
		if err := rows.Scan(&a.ID, &a.Name, &a.Grade, &a.PersonalRecord, &a.Events); err != nil {
			return nil, fmt.Errorf("list athletes: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// GetAthlete returns one athlete.
func (s *SQLStore) GetAthlete(ctx context.Context, id int64) (model.Athlete, error) {
	var a model.Athlete
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, grade, personal_record, events FROM athletes WHERE id = ?`, id).
		Scan(&a.ID, &a.Name, &a.Grade, &a.PersonalRecord, &a.Events)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Athlete{}, fmt.Errorf("athlete %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.Athlete{}, fmt.Errorf("get athlete: %w", err)
	}
	return a, nil
}

// CreateAthlete inserts an athlete and returns its id.
func (s *SQLStore) CreateAthlete(ctx context.Context, in model.AthleteInput) (int64, error) {
	if err := checkAthlete(in); err != nil {
		return 0, err
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO athletes (name, grade, personal_record, events) VALUES (?, ?, ?, ?)`,
		in.Name, in.Grade, in.PersonalRecord, in.Events)
	if err != nil {
		return 0, fmt.Errorf("create athlete: %w", err)
	}
	return res.LastInsertId()
}

// UpdateAthlete replaces every field of athlete id.
func (s *SQLStore) UpdateAthlete(ctx context.Context, id int64, in model.AthleteInput) error {
	if err := checkAthlete(in); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE athletes SET name = ?, grade = ?, personal_record = ?, events = ? WHERE id = ?`,
		in.Name, in.Grade, in.PersonalRecord, in.Events, id)
	if err != nil {
		return fmt.Errorf("update athlete: %w", err)
	}
	return affected(res, "athlete", id)
}

// DeleteAthlete removes athlete id and its results.
func (s *SQLStore) DeleteAthlete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM athletes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete athlete: %w", err)
	}
	return affected(res, "athlete", id)
}

const meetColumns = `id, name, meet_date, location, description, category`

func scanMeet(sc interface{ Scan(...any) error }) (model.Meet, error) {
	var (
		m        model.Meet
		category string
	)
	if err := sc.Scan(&m.ID, &m.Name, &m.Date, &m.Location, &m.Description, &category); err != nil {
		return model.Meet{}, err
	}
	// Rows written by older builds may carry slugs this build does not know.
	m.Category, _ = model.ParseCategory(category)
	return m, nil
}

// ListMeets returns meets ordered by date.
func (s *SQLStore) ListMeets(ctx context.Context) ([]model.Meet, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+meetColumns+` FROM meets ORDER BY meet_date, id`)
	if err != nil {
		return nil, fmt.Errorf("list meets: %w", err)
	}
	defer rows.Close()

	out := []model.Meet{}
	for rows.Next() {
		m, err := scanMeet(rows)
		if err != nil {
			return nil, fmt.Errorf("list meets: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// GetMeet returns one meet.
func (s *SQLStore) GetMeet(ctx context.Context, id int64) (model.Meet, error) {
	m, err := scanMeet(s.db.QueryRowContext(ctx, `SELECT `+meetColumns+` FROM meets WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Meet{}, fmt.Errorf("meet %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.Meet{}, fmt.Errorf("get meet: %w", err)
	}
	return m, nil
}

// CreateMeet inserts a meet and returns its id.
func (s *SQLStore) CreateMeet(ctx context.Context, in model.MeetInput) (int64, error) {
	if err := checkMeet(in); err != nil {
		return 0, err
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO meets (name, meet_date, location, description, category) VALUES (?, ?, ?, ?, ?)`,
		in.Name, in.Date, in.Location, in.Description, in.Category.String())
	if err != nil {
		return 0, fmt.Errorf("create meet: %w", err)
	}
	return res.LastInsertId()
}

// UpdateMeet replaces every field of meet id.
func (s *SQLStore) UpdateMeet(ctx context.Context, id int64, in model.MeetInput) error {
	if err := checkMeet(in); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE meets SET name = ?, meet_date = ?, location = ?, description = ?, category = ? WHERE id = ?`,
		in.Name, in.Date, in.Location, in.Description, in.Category.String(), id)
	if err != nil {
		return fmt.Errorf("update meet: %w", err)
	}
	return affected(res, "meet", id)
}

// DeleteMeet removes meet id and its results.
func (s *SQLStore) DeleteMeet(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM meets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete meet: %w", err)
	}
	return affected(res, "meet", id)
}

// MeetResults returns the results of one meet with athlete names.
func (s *SQLStore) MeetResults(ctx context.Context, meetID int64) ([]model.Result, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.meet_id, r.athlete_id, a.name, r.place, r.time
		FROM results r
		JOIN athletes a ON a.id = r.athlete_id
		WHERE r.meet_id = ?
		ORDER BY CASE WHEN r.place > 0 THEN 0 ELSE 1 END, r.place, r.time_seconds, r.id`, meetID)
	if err != nil {
		return nil, fmt.Errorf("meet results: %w", err)
	}
	defer rows.Close()

	out := []model.Result{}
	for rows.Next() {
		var r model.Result
		if err := rows.Scan(&r.ID, &r.MeetID, &r.AthleteID, &r.AthleteName, &r.Place, &r.Time); err != nil {
			return nil, fmt.Errorf("meet results: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// CreateResult records a finish. The athlete and meet must exist.
func (s *SQLStore) CreateResult(ctx context.Context, in model.ResultInput) (int64, error) {
	d, err := model.ParseRaceTime(in.Time)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if in.Place < 0 {
		return 0, fmt.Errorf("%w: negative place", ErrInvalidInput)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("create result: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var athleteOK, meetOK bool
	err = tx.QueryRowContext(ctx, `SELECT
		EXISTS (SELECT 1 FROM athletes WHERE id = ?),
		EXISTS (SELECT 1 FROM meets WHERE id = ?)`, in.AthleteID, in.MeetID).Scan(&athleteOK, &meetOK)
	if err != nil {
		return 0, fmt.Errorf("create result: %w", err)
	}
	switch {
	case !athleteOK:
		return 0, fmt.Errorf("%w: athlete %d does not exist", ErrInvalidInput, in.AthleteID)
	case !meetOK:
		return 0, fmt.Errorf("%w: meet %d does not exist", ErrInvalidInput, in.MeetID)
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO results (athlete_id, meet_id, time, time_seconds, place) VALUES (?, ?, ?, ?, ?)`,
		in.AthleteID, in.MeetID, in.Time, int64(d/time.Second), in.Place)
	if err != nil {
		return 0, fmt.Errorf("create result: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("create result: %w", err)
	}
	return id, tx.Commit()
}

// DeleteResult removes result id.
func (s *SQLStore) DeleteResult(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM results WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete result: %w", err)
	}
	return affected(res, "result", id)
}

// TopTimes returns the fastest results with athlete and meet details.
func (s *SQLStore) TopTimes(ctx context.Context) ([]model.TopTime, error) {
	start := time.Now()
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.athlete_id, r.meet_id, a.name, m.name, m.meet_date, r.time, r.place
		FROM results r
		JOIN athletes a ON a.id = r.athlete_id
		JOIN meets m ON m.id = r.meet_id
		ORDER BY r.time_seconds, r.id
		LIMIT ?`, s.topTimesLimit)
	if err != nil {
		return nil, fmt.Errorf("top times: %w", err)
	}
	defer rows.Close()

	out := []model.TopTime{}
	for rows.Next() {
		var t model.TopTime
		if err := rows.Scan(&t.ID, &t.AthleteID, &t.MeetID, &t.AthleteName, &t.MeetName, &t.MeetDate, &t.Time, &t.Place); err != nil {
			return nil, fmt.Errorf("top times: %w", err)
		}
		out = append(out, t)
	}
	s.logger.Debug(ctx, "top times query",
		logger.Int("rows", len(out)),
		logger.Duration("took", time.Since(start)),
	)
	return out, rows.Err()
}

func affected(res sql.Result, kind string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s %d: %w", kind, id, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", kind, id, ErrNotFound)
	}
	return nil
}

func checkAthlete(in model.AthleteInput) error {
	switch {
	case strings.TrimSpace(in.Name) == "":
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	case !in.Grade.Valid():
		return fmt.Errorf("%w: grade must be between 9 and 12", ErrInvalidInput)
	}
	return nil
}

func checkMeet(in model.MeetInput) error {
	switch {
	case strings.TrimSpace(in.Name) == "":
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	case strings.TrimSpace(in.Location) == "":
		return fmt.Errorf("%w: location is required", ErrInvalidInput)
	}
	if _, err := time.Parse(model.DateLayout, in.Date); err != nil {
		return fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidInput)
	}
	return nil
}
