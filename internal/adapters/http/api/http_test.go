package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/okian/xcroster/internal/adapters/http/api"
	"github.com/okian/xcroster/internal/adapters/repository"
	"github.com/okian/xcroster/internal/domain/auth"
	"github.com/okian/xcroster/internal/domain/model"
	"github.com/okian/xcroster/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

type harness struct {
	srv   *httptest.Server
	store *repository.SQLStore
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctx := context.Background()
	store, err := repository.Open(ctx, repository.MemoryPath, repository.WithMetricsUpdateInterval(0))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	issuer, err := auth.NewIssuer("admin123", auth.WithBcryptCost(bcrypt.MinCost))
	if err != nil {
		t.Fatalf("issuer: %v", err)
	}
	h := &harness{
		srv:   httptest.NewServer(api.NewServer(store, issuer).Router()),
		store: store,
	}
	t.Cleanup(func() {
		h.srv.Close()
		_ = store.Close()
	})
	return h
}

func (h *harness) do(method, path, token string, body any) (*http.Response, []byte) {
	var rd *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		rd = bytes.NewReader(raw)
	} else {
		rd = bytes.NewReader(nil)
	}
	req, _ := http.NewRequest(method, h.srv.URL+path, rd)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		panic(err)
	}
	defer resp.Body.Close()
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(resp.Body)
	return resp, buf.Bytes()
}

func (h *harness) login() string {
	_, raw := h.do(http.MethodPost, "/api/auth/login", "", model.Credentials{Password: "admin123"})
	var lr types.LoginResponse
	_ = json.Unmarshal(raw, &lr)
	return lr.Token
}

func errorOf(raw []byte) string {
	var e types.ErrorResponse
	_ = json.Unmarshal(raw, &e)
	return e.Text()
}

func TestHealthAndInfo(t *testing.T) {
	h := newHarness(t)
	Convey("Given a running API", t, func() {
		resp, raw := h.do(http.MethodGet, "/health", "", nil)
		So(resp.StatusCode, ShouldEqual, http.StatusOK)
		var health types.HealthResponse
		So(json.Unmarshal(raw, &health), ShouldBeNil)
		So(health.Status, ShouldEqual, "ok")
		So(resp.Header.Get(api.HeaderRequestID), ShouldNotBeEmpty)

		_, raw = h.do(http.MethodGet, "/api", "", nil)
		var info types.InfoResponse
		So(json.Unmarshal(raw, &info), ShouldBeNil)
		So(info.Version, ShouldEqual, api.Version)

		resp, _ = h.do(http.MethodGet, "/metrics", "", nil)
		So(resp.StatusCode, ShouldEqual, http.StatusOK)

		resp, raw = h.do(http.MethodGet, "/api/nowhere", "", nil)
		So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
		So(errorOf(raw), ShouldEqual, "Not found")
	})
}

func TestAuthEndpoints(t *testing.T) {
	h := newHarness(t)
	Convey("Given the auth endpoints", t, func() {
		Convey("When logging in without a password", func() {
			resp, raw := h.do(http.MethodPost, "/api/auth/login", "", map[string]string{})
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			So(errorOf(raw), ShouldEqual, "Password is required")
		})

		Convey("When logging in with the wrong password", func() {
			resp, raw := h.do(http.MethodPost, "/api/auth/login", "", model.Credentials{Password: "nope"})
			So(resp.StatusCode, ShouldEqual, http.StatusUnauthorized)
			So(errorOf(raw), ShouldEqual, "Invalid password")
		})

		Convey("When logging in, verifying and logging out", func() {
			token := h.login()
			So(token, ShouldNotBeEmpty)

			resp, raw := h.do(http.MethodGet, "/api/auth/verify", token, nil)
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			var vr types.VerifyResponse
			So(json.Unmarshal(raw, &vr), ShouldBeNil)
			So(vr.Valid, ShouldBeTrue)

			resp, _ = h.do(http.MethodPost, "/api/auth/logout", token, nil)
			So(resp.StatusCode, ShouldEqual, http.StatusOK)

			Convey("Then the token no longer verifies", func() {
				resp, raw := h.do(http.MethodGet, "/api/auth/verify", token, nil)
				So(resp.StatusCode, ShouldEqual, http.StatusUnauthorized)
				So(errorOf(raw), ShouldEqual, "Invalid or expired token")
			})
		})

		Convey("When verifying without a token", func() {
			resp, raw := h.do(http.MethodGet, "/api/auth/verify", "", nil)
			So(resp.StatusCode, ShouldEqual, http.StatusUnauthorized)
			So(errorOf(raw), ShouldEqual, "No token provided")
		})

		Convey("When logging out anonymously", func() {
			resp, _ := h.do(http.MethodPost, "/api/auth/logout", "", nil)
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
		})
	})
}

func TestRosterEndpoints(t *testing.T) {
	h := newHarness(t)
	Convey("Given an empty roster", t, func() {
		token := h.login()

		Convey("When mutating without a token", func() {
			resp, raw := h.do(http.MethodPost, "/api/athletes", "", model.AthleteInput{Name: "Ann", Grade: 10})
			So(resp.StatusCode, ShouldEqual, http.StatusUnauthorized)
			So(errorOf(raw), ShouldEqual, "Authorization header required")
		})

		Convey("When creating an athlete with a bad grade", func() {
			resp, raw := h.do(http.MethodPost, "/api/athletes", token, model.AthleteInput{Name: "Ann", Grade: 8})
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			So(errorOf(raw), ShouldEqual, "Grade must be between 9 and 12")
		})

		Convey("When running the full athlete, meet and result lifecycle", func() {
			resp, raw := h.do(http.MethodPost, "/api/athletes", token, model.AthleteInput{Name: "Ann", Grade: 10, Events: "5K"})
			So(resp.StatusCode, ShouldEqual, http.StatusCreated)
			var athlete model.Created
			So(json.Unmarshal(raw, &athlete), ShouldBeNil)
			So(athlete.Message, ShouldEqual, "Athlete created")

			resp, raw = h.do(http.MethodPost, "/api/meets", token, model.MeetInput{Name: "Invite", Date: "10/10/2025", Location: "Park"})
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			So(errorOf(raw), ShouldEqual, "Invalid date format. Use YYYY-MM-DD")

			resp, raw = h.do(http.MethodPost, "/api/meets", token, model.MeetInput{Name: "Invite", Date: "2025-10-10", Location: "Park"})
			So(resp.StatusCode, ShouldEqual, http.StatusCreated)
			var meet model.Created
			So(json.Unmarshal(raw, &meet), ShouldBeNil)

			resp, raw = h.do(http.MethodPost, "/api/results", token, model.ResultInput{AthleteID: athlete.ID, MeetID: meet.ID, Time: "18:40", Place: 1})
			So(resp.StatusCode, ShouldEqual, http.StatusCreated)
			var result model.Created
			So(json.Unmarshal(raw, &result), ShouldBeNil)

			_, raw = h.do(http.MethodGet, "/api/top-times", "", nil)
			var top []model.TopTime
			So(json.Unmarshal(raw, &top), ShouldBeNil)
			So(len(top), ShouldEqual, 1)
			So(top[0].AthleteName, ShouldEqual, "Ann")

			resp, _ = h.do(http.MethodPut, "/api/athletes/"+itoa(athlete.ID), token, model.AthleteInput{Name: "Ann B", Grade: 11})
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			_, raw = h.do(http.MethodGet, "/api/athletes/"+itoa(athlete.ID), "", nil)
			var got model.Athlete
			So(json.Unmarshal(raw, &got), ShouldBeNil)
			So(got.Name, ShouldEqual, "Ann B")
			So(got.Grade, ShouldEqual, model.Grade(11))

			Convey("Then deleting the meet removes its results", func() {
				resp, _ := h.do(http.MethodDelete, "/api/meets/"+itoa(meet.ID), token, nil)
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				_, raw := h.do(http.MethodGet, "/api/meets/"+itoa(meet.ID)+"/results", "", nil)
				var rs []model.Result
				So(json.Unmarshal(raw, &rs), ShouldBeNil)
				So(rs, ShouldBeEmpty)

				resp, raw = h.do(http.MethodDelete, "/api/results/"+itoa(result.ID), token, nil)
				So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
				So(errorOf(raw), ShouldEqual, "Result not found")
			})
		})

		Convey("When addressing missing or malformed ids", func() {
			resp, raw := h.do(http.MethodGet, "/api/athletes/abc", "", nil)
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			So(errorOf(raw), ShouldEqual, "Invalid athlete ID")

			resp, raw = h.do(http.MethodGet, "/api/meets/999", "", nil)
			So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
			So(errorOf(raw), ShouldEqual, "Meet not found")

			resp, raw = h.do(http.MethodDelete, "/api/athletes/999", token, nil)
			So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
			So(errorOf(raw), ShouldEqual, "Athlete not found")
		})

		Convey("When a result points at a missing athlete", func() {
			resp, _ := h.do(http.MethodPost, "/api/results", token, model.ResultInput{AthleteID: 999, MeetID: 999, Time: "18:40"})
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When a result has a malformed time", func() {
			resp, raw := h.do(http.MethodPost, "/api/results", token, model.ResultInput{AthleteID: 1, MeetID: 1, Time: "fast"})
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			So(errorOf(raw), ShouldEqual, "Time must be in MM:SS format")
		})
	})
}

func itoa(id int64) string {
	raw, _ := json.Marshal(id)
	return string(raw)
}
