package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/smartystreets/goconvey/convey"

	service "github.com/okian/bracketry/internal/app"
	"github.com/okian/bracketry/internal/config"
	"github.com/okian/bracketry/internal/domain/model"
	"github.com/okian/bracketry/pkg/logger"
)

func init() {
	_ = logger.Init()
}

func TestOpenStore(t *testing.T) {
	convey.Convey("Given a configuration", t, func() {
		ctx := context.Background()
		cfg := config.New()

		convey.Convey("When the memory driver is selected", func() {
			store, err := openStore(ctx, cfg)
			convey.So(err, convey.ShouldBeNil)
			defer func() { _ = store.Close() }()

			n, err := store.EventCount(ctx)
			convey.So(err, convey.ShouldBeNil)
			convey.So(n, convey.ShouldEqual, 0)
		})

		convey.Convey("When the sqlite driver is selected", func() {
			cfg.StoreDriver = config.StoreSQLite
			cfg.SQLitePath = filepath.Join(t.TempDir(), "bracketry.db")

			store, err := openStore(ctx, cfg)
			convey.So(err, convey.ShouldBeNil)
			defer func() { _ = store.Close() }()

			saved, err := store.SaveMatches(ctx, []model.MatchStub{{
				ID: "ev-r1-m1", UUID: "u1", EventID: "ev", Format: model.FormatRoundRobin,
				SideA: model.Side{ID: "a"}, SideB: model.Side{ID: "b"},
				RoundNumber: 1, MatchNumber: 1, Status: model.StatusScheduled,
			}})
			convey.So(err, convey.ShouldBeNil)
			convey.So(saved, convey.ShouldEqual, 1)

			_, statErr := os.Stat(cfg.SQLitePath)
			convey.So(statErr, convey.ShouldBeNil)
		})

		convey.Convey("When the driver is unknown", func() {
			cfg.StoreDriver = "postgres"
			_, err := openStore(ctx, cfg)
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
		})
	})
}

func TestNewMux(t *testing.T) {
	convey.Convey("Given the server mux", t, func() {
		ctx := context.Background()
		svc := service.New(service.WithLogger(logger.Nop()))
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer svc.Stop()
		mux := newMux(ctx, svc)

		for _, path := range []string{"/healthz", "/openapi.yaml", "/api-docs", "/stats"} {
			convey.Convey("Then "+path+" is served", func() {
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, http.NoBody))
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
			})
		}
	})
}

func TestRegisterRuntimeCollectors(t *testing.T) {
	convey.Convey("Given a fresh registry", t, func() {
		reg := prometheus.NewRegistry()

		convey.Convey("When runtime collectors are registered twice", func() {
			convey.So(func() {
				registerRuntimeCollectors(reg)
				registerRuntimeCollectors(reg)
			}, convey.ShouldNotPanic)

			convey.Convey("Then goroutine metrics are gathered", func() {
				families, err := reg.Gather()
				convey.So(err, convey.ShouldBeNil)
				names := make([]string, 0, len(families))
				for _, f := range families {
					names = append(names, f.GetName())
				}
				convey.So(names, convey.ShouldContain, "go_goroutines")
			})
		})
	})
}

func TestRun(t *testing.T) {
	convey.Convey("Given a cancelled context", t, func() {
		t.Setenv("BRACKETRY_ADDR", "127.0.0.1:0")
		t.Setenv("BRACKETRY_SHUTDOWN_TIMEOUT_SECONDS", "1")
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		convey.Convey("Then run shuts down cleanly", func() {
			convey.So(run(ctx), convey.ShouldBeNil)
		})
	})

	convey.Convey("Given an invalid configuration", t, func() {
		t.Setenv("BRACKETRY_STORE_DRIVER", "postgres")

		convey.Convey("Then run fails before serving", func() {
			err := run(context.Background())
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
		})
	})
}
