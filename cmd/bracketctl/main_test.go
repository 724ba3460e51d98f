package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/bracketry/internal/adapters/http/api"
	service "github.com/okian/bracketry/internal/app"
	"github.com/okian/bracketry/internal/domain/model"
	"github.com/okian/bracketry/pkg/logger"
)

const roundRobinYAML = `
format: round_robin
event_id: club-night
participants:
  - {id: ana, name: Ana, rating: 4.5}
  - {id: ben, name: Ben, rating: 4.0}
  - {id: cat, name: Cat, rating: 3.5}
  - {id: dan, name: Dan, rating: 3.0}
`

func newTestServer() (*httptest.Server, *service.Service) {
	ctx := context.Background()
	svc := service.New(service.WithLogger(logger.Nop()))
	So(svc.Start(ctx), ShouldBeNil)
	mux := http.NewServeMux()
	api.NewServer(svc, svc).Register(ctx, mux)
	return httptest.NewServer(mux), svc
}

func execute(host, stdin string, args ...string) (string, error) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--host", host}, args...))
	err := root.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestCommands(t *testing.T) {
	Convey("Given a running server", t, func() {
		srv, svc := newTestServer()
		defer svc.Stop()
		defer srv.Close()

		Convey("When health is checked", func() {
			out, err := execute(srv.URL, "", "health")
			So(err, ShouldBeNil)
			So(out, ShouldContainSubstring, `"status": "ok"`)
		})

		Convey("When a YAML schedule is generated", func() {
			path := writeFile(t, "league.yaml", roundRobinYAML)
			out, err := execute(srv.URL, "", "generate", "-f", path)

			Convey("Then the schedule is stored", func() {
				So(err, ShouldBeNil)
				So(out, ShouldContainSubstring, `"saved": 6`)
			})

			Convey("Then results can be recorded and folded into standings", func() {
				out, err := execute(srv.URL, "", "matches", "club-night")
				So(err, ShouldBeNil)
				var listed struct {
					Matches []model.MatchStub `json:"matches"`
				}
				So(json.Unmarshal([]byte(out), &listed), ShouldBeNil)
				So(listed.Matches, ShouldHaveLength, 6)
				first := listed.Matches[0]

				_, err = execute(srv.URL, "", "record", "club-night", first.ID, "-s", "11-4", "-s", "11-9")
				So(err, ShouldBeNil)

				out, err = execute(srv.URL, roundRobinYAML, "standings")
				So(err, ShouldBeNil)
				var table struct {
					Rows []model.StandingRow `json:"rows"`
				}
				So(json.Unmarshal([]byte(out), &table), ShouldBeNil)
				So(table.Rows[0].Participant.ID, ShouldEqual, first.SideA.ID)
				So(table.Rows[0].GamesWon, ShouldEqual, 2)
			})

			Convey("Then a conflicting result is reported", func() {
				stored, err := svc.Matches(context.Background(), "club-night")
				So(err, ShouldBeNil)
				id := stored[0].ID

				_, err = execute(srv.URL, "", "record", "club-night", id, "-s", "11-4")
				So(err, ShouldBeNil)
				_, err = execute(srv.URL, "", "record", "club-night", id, "-s", "4-11")
				So(errors.Is(err, ErrRequestFailed), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "conflicting_result")
			})
		})

		Convey("When an elimination bracket is advanced from stdin", func() {
			request := `{"format":"elimination","event_id":"cup","participants":[{"id":"a","rating":4},{"id":"b","rating":3},{"id":"c","rating":2},{"id":"d","rating":1}]}`
			_, err := execute(srv.URL, request, "generate")
			So(err, ShouldBeNil)

			stored, err := svc.Matches(context.Background(), "cup")
			So(err, ShouldBeNil)
			for _, m := range stored {
				if m.RoundNumber == 1 {
					_, err = execute(srv.URL, "", "record", "cup", m.ID, "-s", "11-0")
					So(err, ShouldBeNil)
				}
			}

			out, err := execute(srv.URL, request, "advance", "cup")
			So(err, ShouldBeNil)
			So(out, ShouldContainSubstring, `"updated": 1`)
		})

		Convey("When a request file is missing", func() {
			_, err := execute(srv.URL, "", "generate", "-f", filepath.Join(t.TempDir(), "nope.yaml"))
			So(err, ShouldNotBeNil)
		})

		Convey("When the server rejects a request", func() {
			_, err := execute(srv.URL, `{"format":"darts","event_id":"x"}`, "generate")
			So(errors.Is(err, ErrRequestFailed), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "400 bad_request")
		})
	})
}

func TestParseScore(t *testing.T) {
	Convey("Scores are read as A-B", t, func() {
		g, err := parseScore(" 11-7 ")
		So(err, ShouldBeNil)
		So(g, ShouldResemble, model.GameScore{A: 11, B: 7})

		for _, bad := range []string{"11", "a-b", "11--3", ""} {
			_, err := parseScore(bad)
			So(err, ShouldNotBeNil)
		}
	})
}
