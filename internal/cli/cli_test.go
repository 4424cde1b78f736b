package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/samirrijal/isstrack/internal/adapters/memory"
	"github.com/samirrijal/isstrack/internal/adapters/oem"
	"github.com/samirrijal/isstrack/internal/core/domain"
	"github.com/samirrijal/isstrack/internal/core/usecases"
)

const testOEM = `<?xml version="1.0" encoding="UTF-8"?>
<ndm>
  <oem id="CCSDS_OEM_VERS" version="2.0">
    <header>
      <CREATION_DATE>2024-100T08:57:12.583Z</CREATION_DATE>
      <ORIGINATOR>JSC</ORIGINATOR>
    </header>
    <body>
      <segment>
        <metadata>
          <OBJECT_NAME>ISS</OBJECT_NAME>
          <OBJECT_ID>1998-067-A</OBJECT_ID>
          <CENTER_NAME>EARTH</CENTER_NAME>
          <REF_FRAME>EME2000</REF_FRAME>
          <TIME_SYSTEM>UTC</TIME_SYSTEM>
          <START_TIME>2024-100T12:00:00.000Z</START_TIME>
          <STOP_TIME>2024-100T12:08:00.000Z</STOP_TIME>
        </metadata>
        <data>
          <stateVector>
            <EPOCH>2024-100T12:00:00.000Z</EPOCH>
            <X>6791</X><Y>0</Y><Z>0</Z>
            <X_DOT>3</X_DOT><Y_DOT>4</Y_DOT><Z_DOT>0</Z_DOT>
          </stateVector>
          <stateVector>
            <EPOCH>2024-100T12:04:00.000Z</EPOCH>
            <X>0</X><Y>6791</Y><Z>0</Z>
            <X_DOT>0</X_DOT><Y_DOT>6</Y_DOT><Z_DOT>8</Z_DOT>
          </stateVector>
          <stateVector>
            <EPOCH>2024-100T12:08:00.000Z</EPOCH>
            <X>-6791</X><Y>0</Y><Z>0</Z>
            <X_DOT>1</X_DOT><Y_DOT>2</Y_DOT><Z_DOT>2</Z_DOT>
          </stateVector>
        </data>
      </segment>
    </body>
  </oem>
</ndm>`

type stubGeocoder struct{ name string }

func (g stubGeocoder) ReverseGeocode(ctx context.Context, lat, lon float64) (string, error) {
	return g.name, nil
}

// testEnv serves testOEM from an httptest server and backs the service with
// the in-memory store.
func testEnv(t *testing.T) *Env {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		_, _ = w.Write([]byte(testOEM))
	}))
	t.Cleanup(srv.Close)

	store := memory.New()
	clock := func() time.Time { return time.Date(2024, time.April, 9, 12, 3, 0, 0, time.UTC) }

	return &Env{
		Feed: func() (*oem.Fetcher, error) {
			return oem.NewFetcher(oem.WithURL(srv.URL)), nil
		},
		Service: func(ctx context.Context, geocode bool) (*usecases.EphemerisService, func(), error) {
			var svc *usecases.EphemerisService
			if geocode {
				svc = usecases.NewEphemerisService(store, oem.NewFetcher(oem.WithURL(srv.URL)), stubGeocoder{"Somewhere"}, nil, usecases.WithClock(clock))
			} else {
				svc = usecases.NewEphemerisService(store, oem.NewFetcher(oem.WithURL(srv.URL)), nil, nil, usecases.WithClock(clock))
			}
			return svc, func() {}, nil
		},
	}
}

func execute(t *testing.T, env *Env, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand(env)
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestRoot_InvalidFormat(t *testing.T) {
	_, err := execute(t, testEnv(t), "now", "--format", "yaml")
	if err == nil || !strings.Contains(err.Error(), "invalid format") {
		t.Fatalf("expected invalid format error, got %v", err)
	}
}

func TestFetch_Summary(t *testing.T) {
	out, err := execute(t, testEnv(t), "fetch")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	var s FeedSummary
	if err := json.Unmarshal([]byte(out), &s); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if s.StateVectors != 3 || s.FirstEpoch != "2024-100T12:00:00.000Z" || s.LastEpoch != "2024-100T12:08:00.000Z" {
		t.Errorf("summary = %+v", s)
	}
	if s.Metadata.ObjectName != "ISS" || s.Duplicates != 0 {
		t.Errorf("summary = %+v", s)
	}
}

func TestFetch_Raw(t *testing.T) {
	out, err := execute(t, testEnv(t), "fetch", "--raw")
	if err != nil {
		t.Fatal(err)
	}
	if out != testOEM {
		t.Error("raw output differs from the served document")
	}
}

func TestRefresh_Text(t *testing.T) {
	out, err := execute(t, testEnv(t), "refresh", "--format", "text")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "state vectors: 3") {
		t.Errorf("output = %q", out)
	}
}

func TestList_Paging(t *testing.T) {
	env := testEnv(t)

	out, err := execute(t, env, "list", "--offset", "1", "--limit", "1")
	if err != nil {
		t.Fatal(err)
	}
	var got []domain.StateVector
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Epoch != "2024-100T12:04:00.000Z" {
		t.Errorf("got %+v", got)
	}

	out, err = execute(t, env, "list", "--limit", "0")
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != "[]" {
		t.Errorf("limit 0 output = %q, want []", out)
	}

	out, err = execute(t, env, "list", "--format", "text")
	if err != nil {
		t.Fatal(err)
	}
	if lines := strings.Split(strings.TrimSpace(out), "\n"); len(lines) != 4 {
		t.Errorf("expected header + 3 rows, got %d lines", len(lines))
	}
}

func TestEpoch(t *testing.T) {
	env := testEnv(t)

	out, err := execute(t, env, "epoch", "2024-100T12:04:00.000Z", "--speed")
	if err != nil {
		t.Fatal(err)
	}
	var speed domain.SpeedReport
	if err := json.Unmarshal([]byte(out), &speed); err != nil {
		t.Fatal(err)
	}
	if speed.Speed != 10 {
		t.Errorf("speed = %v, want 10", speed.Speed)
	}

	out, err = execute(t, env, "epoch", "2024-100T12:04:00.000Z", "--location")
	if err != nil {
		t.Fatal(err)
	}
	var loc domain.LocationReport
	if err := json.Unmarshal([]byte(out), &loc); err != nil {
		t.Fatal(err)
	}
	if loc.Geoposition != "Somewhere" {
		t.Errorf("geoposition = %q", loc.Geoposition)
	}

	if _, err := execute(t, env, "epoch", "2024-100T12:04:00Z"); err == nil {
		t.Error("expected not found for a differently spelled epoch")
	}
	if _, err := execute(t, env, "epoch", "x", "--speed", "--location"); err == nil {
		t.Error("expected error for conflicting flags")
	}
	if _, err := execute(t, env, "epoch"); err == nil {
		t.Error("expected error without an epoch argument")
	}
}

func TestNow(t *testing.T) {
	out, err := execute(t, testEnv(t), "now")
	if err != nil {
		t.Fatal(err)
	}
	var rep domain.NowReport
	if err := json.Unmarshal([]byte(out), &rep); err != nil {
		t.Fatal(err)
	}
	// 12:03 is nearest to 12:04.
	if rep.Epoch != "2024-100T12:04:00.000Z" || rep.Geoposition != "Somewhere" {
		t.Errorf("now = %+v", rep)
	}
}
