package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/okian/xcroster/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

type stubAuth struct{}

func (stubAuth) Login(context.Context, string) (string, time.Time, error) { return "", time.Time{}, nil }
func (stubAuth) Verify(_ context.Context, token string) error {
	if token != "live" {
		return errors.New("Invalid or expired token")
	}
	return nil
}
func (stubAuth) Logout(context.Context, string) {}

func TestBearer(t *testing.T) {
	Convey("Given Authorization headers", t, func() {
		req := func(h string) *http.Request {
			r := httptest.NewRequest(http.MethodGet, "/api/auth/verify", nil)
			if h != "" {
				r.Header.Set("Authorization", h)
			}
			return r
		}

		Convey("Then a bearer token is extracted", func() {
			token, err := bearer(req("Bearer live"))
			So(err, ShouldBeNil)
			So(token, ShouldEqual, "live")
		})

		Convey("Then a missing header and a malformed one are told apart", func() {
			_, err := bearer(req(""))
			So(errors.Is(err, ErrNoAuthorization), ShouldBeTrue)
			for _, h := range []string{"Basic abc", "Bearer", "Bearer a b", "live"} {
				_, err := bearer(req(h))
				So(errors.Is(err, ErrAuthorizationFormat), ShouldBeTrue)
			}
		})

		Convey("When verify is called with each header", func() {
			s := NewServer(nil, stubAuth{})
			verify := func(h string) (int, types.VerifyResponse) {
				rec := httptest.NewRecorder()
				s.handleVerify(rec, req(h))
				var vr types.VerifyResponse
				_ = json.Unmarshal(rec.Body.Bytes(), &vr)
				return rec.Code, vr
			}

			Convey("Then the answers follow the header problem", func() {
				code, vr := verify("")
				So(code, ShouldEqual, http.StatusUnauthorized)
				So(vr.Error, ShouldEqual, "No token provided")

				code, vr = verify("Token live")
				So(code, ShouldEqual, http.StatusUnauthorized)
				So(vr.Error, ShouldEqual, "Invalid format")

				code, vr = verify("Bearer stale")
				So(code, ShouldEqual, http.StatusUnauthorized)
				So(vr.Error, ShouldEqual, "Invalid or expired token")

				code, vr = verify("Bearer live")
				So(code, ShouldEqual, http.StatusOK)
				So(vr.Valid, ShouldBeTrue)
			})
		})
	})
}

func TestRequestID(t *testing.T) {
	Convey("Given the request logging middleware", t, func() {
		s := NewServer(nil, stubAuth{})
		var seen string
		h := s.requestLogging(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = RequestID(r.Context())
		}))

		Convey("When the caller sends an id", func() {
			r := httptest.NewRequest(http.MethodGet, "/api", nil)
			r.Header.Set(HeaderRequestID, "req-1")
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, r)

			Convey("Then handlers see it and it is echoed", func() {
				So(seen, ShouldEqual, "req-1")
				So(rec.Header().Get(HeaderRequestID), ShouldEqual, "req-1")
			})
		})

		Convey("When the caller sends none", func() {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api", nil))

			Convey("Then one is generated", func() {
				So(seen, ShouldNotBeEmpty)
				So(rec.Header().Get(HeaderRequestID), ShouldEqual, seen)
			})
		})
	})
}
