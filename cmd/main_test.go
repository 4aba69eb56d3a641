package main

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/okian/xcroster/internal/adapters/repository"
	"github.com/okian/xcroster/internal/config"
	"github.com/okian/xcroster/internal/domain/model"
	"github.com/okian/xcroster/internal/domain/types"
	"github.com/okian/xcroster/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.InitWithWriter(io.Discard); err != nil {
		panic(err)
	}
}

func testConfig() *config.Config {
	cfg := config.New()
	cfg.DatabasePath = repository.MemoryPath
	cfg.LogLevel = "error"
	return cfg
}

func TestBuild(t *testing.T) {
	convey.Convey("Given an in-memory configuration", t, func() {
		ctx := context.Background()
		cfg := testConfig()

		convey.Convey("When the backend is built with demo data", func() {
			b, err := build(ctx, cfg, logger.Nop())
			convey.So(err, convey.ShouldBeNil)
			defer b.store.Close()

			srv := httptest.NewServer(b.srv.Handler)
			defer srv.Close()

			convey.Convey("Then the demo roster is served", func() {
				resp, err := http.Get(srv.URL + "/api/athletes")
				convey.So(err, convey.ShouldBeNil)
				defer resp.Body.Close()
				var athletes []model.Athlete
				convey.So(json.NewDecoder(resp.Body).Decode(&athletes), convey.ShouldBeNil)
				convey.So(len(athletes), convey.ShouldBeGreaterThan, 0)
			})

			convey.Convey("Then the configured password logs in", func() {
				body := `{"password":"admin123"}`
				resp, err := http.Post(srv.URL+"/api/auth/login", "application/json", strings.NewReader(body))
				convey.So(err, convey.ShouldBeNil)
				defer resp.Body.Close()
				convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)
				var lr types.LoginResponse
				convey.So(json.NewDecoder(resp.Body).Decode(&lr), convey.ShouldBeNil)
				convey.So(lr.Token, convey.ShouldNotBeEmpty)
			})

			convey.Convey("Then the server timeouts are set", func() {
				convey.So(b.srv.ReadHeaderTimeout, convey.ShouldEqual, readHeaderTimeout)
				convey.So(b.srv.Addr, convey.ShouldEqual, ":8080")
			})
		})

		convey.Convey("When seeding is disabled", func() {
			cfg.SeedDemoData = false
			b, err := build(ctx, cfg, logger.Nop())
			convey.So(err, convey.ShouldBeNil)
			defer b.store.Close()

			convey.Convey("Then the roster starts empty", func() {
				counts, err := b.store.Count(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(counts.Athletes, convey.ShouldEqual, 0)
			})
		})
	})
}

func TestRun(t *testing.T) {
	convey.Convey("Given a free port", t, func() {
		l, err := net.Listen("tcp", "127.0.0.1:0")
		convey.So(err, convey.ShouldBeNil)
		addr := l.Addr().String()
		convey.So(l.Close(), convey.ShouldBeNil)

		cfg := testConfig()
		cfg.Addr = addr
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- run(ctx, cfg) }()

		convey.Convey("When the server is up and the context is cancelled", func() {
			var status int
			for i := 0; i < 50; i++ {
				resp, err := http.Get("http://" + addr + "/health")
				if err == nil {
					status = resp.StatusCode
					_ = resp.Body.Close()
					break
				}
				time.Sleep(20 * time.Millisecond)
			}
			cancel()

			convey.Convey("Then it answered and shut down cleanly", func() {
				convey.So(status, convey.ShouldEqual, http.StatusOK)
				select {
				case err := <-done:
					convey.So(err, convey.ShouldBeNil)
				case <-time.After(5 * time.Second):
					t.Fatal("server did not stop")
				}
			})
		})
	})
}
