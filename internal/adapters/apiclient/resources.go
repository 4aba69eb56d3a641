package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/okian/xcroster/internal/domain/model"
	"github.com/okian/xcroster/internal/domain/types"
)

// ListAthletes returns the full roster.
func (c *Client) ListAthletes(ctx context.Context) ([]model.Athlete, error) {
	var out []model.Athlete
	err := c.do(ctx, call{op: "list_athletes", method: http.MethodGet, path: "/athletes", out: &out})
	return out, err
}

// GetAthlete returns one athlete.
func (c *Client) GetAthlete(ctx context.Context, id int64) (model.Athlete, error) {
	var out model.Athlete
	err := c.do(ctx, call{op: "get_athlete", method: http.MethodGet, path: fmt.Sprintf("/athletes/%d", id), out: &out})
	return out, err
}

// CreateAthlete adds an athlete and returns its id.
func (c *Client) CreateAthlete(ctx context.Context, in model.AthleteInput) (model.Created, error) {
	var out model.Created
	err := c.do(ctx, call{op: "create_athlete", method: http.MethodPost, path: "/athletes", in: in, out: &out, auth: true})
	return out, err
}

// UpdateAthlete replaces an athlete's fields.
func (c *Client) UpdateAthlete(ctx context.Context, id int64, in model.AthleteInput) error {
	return c.do(ctx, call{op: "update_athlete", method: http.MethodPut, path: fmt.Sprintf("/athletes/%d", id), in: in, auth: true})
}

// DeleteAthlete removes an athlete and their results.
func (c *Client) DeleteAthlete(ctx context.Context, id int64) error {
	return c.do(ctx, call{op: "delete_athlete", method: http.MethodDelete, path: fmt.Sprintf("/athletes/%d", id), auth: true})
}

// ListMeets returns every meet.
func (c *Client) ListMeets(ctx context.Context) ([]model.Meet, error) {
	var out []model.Meet
	err := c.do(ctx, call{op: "list_meets", method: http.MethodGet, path: "/meets", out: &out})
	return out, err
}

// GetMeet returns one meet.
func (c *Client) GetMeet(ctx context.Context, id int64) (model.Meet, error) {
	var out model.Meet
	err := c.do(ctx, call{op: "get_meet", method: http.MethodGet, path: fmt.Sprintf("/meets/%d", id), out: &out})
	return out, err
}

// CreateMeet adds a meet and returns its id.
func (c *Client) CreateMeet(ctx context.Context, in model.MeetInput) (model.Created, error) {
	var out model.Created
	err := c.do(ctx, call{op: "create_meet", method: http.MethodPost, path: "/meets", in: in, out: &out, auth: true})
	return out, err
}

// UpdateMeet replaces a meet's fields.
func (c *Client) UpdateMeet(ctx context.Context, id int64, in model.MeetInput) error {
	return c.do(ctx, call{op: "update_meet", method: http.MethodPut, path: fmt.Sprintf("/meets/%d", id), in: in, auth: true})
}

// DeleteMeet removes a meet and its results.
func (c *Client) DeleteMeet(ctx context.Context, id int64) error {
	return c.do(ctx, call{op: "delete_meet", method: http.MethodDelete, path: fmt.Sprintf("/meets/%d", id), auth: true})
}

// MeetResults returns the results of one meet.
func (c *Client) MeetResults(ctx context.Context, meetID int64) ([]model.Result, error) {
	var out []model.Result
	err := c.do(ctx, call{op: "meet_results", method: http.MethodGet, path: fmt.Sprintf("/meets/%d/results", meetID), out: &out})
	return out, err
}

// CreateResult records a finish and returns its id.
func (c *Client) CreateResult(ctx context.Context, in model.ResultInput) (model.Created, error) {
	var out model.Created
	err := c.do(ctx, call{op: "create_result", method: http.MethodPost, path: "/results", in: in, out: &out, auth: true})
	return out, err
}

// DeleteResult removes a result.
func (c *Client) DeleteResult(ctx context.Context, id int64) error {
	return c.do(ctx, call{op: "delete_result", method: http.MethodDelete, path: fmt.Sprintf("/results/%d", id), auth: true})
}

// TopTimes returns the ten fastest times across all meets.
func (c *Client) TopTimes(ctx context.Context) ([]model.TopTime, error) {
	var out []model.TopTime
	err := c.do(ctx, call{op: "top_times", method: http.MethodGet, path: "/top-times", out: &out})
	return out, err
}

// Login exchanges credentials for a session token.
func (c *Client) Login(ctx context.Context, creds model.Credentials) (string, error) {
	var out types.LoginResponse
	if err := c.do(ctx, call{op: "login", method: http.MethodPost, path: "/auth/login", in: creds, out: &out}); err != nil {
		return "", err
	}
	if strings.TrimSpace(out.Token) == "" {
		return "", fmt.Errorf("login: %w: empty token", ErrDecode)
	}
	return out.Token, nil
}

// Verify checks token against the backend. Any non-2xx status is an error.
func (c *Client) Verify(ctx context.Context, token string) error {
	var out types.VerifyResponse
	return c.do(ctx, call{op: "verify", method: http.MethodGet, path: "/auth/verify", out: &out, bearer: token})
}

// Logout revokes token on the backend.
func (c *Client) Logout(ctx context.Context, token string) error {
	return c.do(ctx, call{op: "logout", method: http.MethodPost, path: "/auth/logout", bearer: token})
}
