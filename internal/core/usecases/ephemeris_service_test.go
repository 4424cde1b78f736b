package usecases_test

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/samirrijal/isstrack/internal/adapters/memory"
	"github.com/samirrijal/isstrack/internal/core/domain"
	"github.com/samirrijal/isstrack/internal/core/usecases"
)

// --- Mock FeedSource ---

type mockFeed struct {
	calls   atomic.Int32
	fetchFn func(ctx context.Context) (*domain.Snapshot, error)
}

func (m *mockFeed) URL() string { return "https://example.test/oem.xml" }

func (m *mockFeed) Fetch(ctx context.Context) (*domain.Snapshot, error) {
	m.calls.Add(1)
	if m.fetchFn != nil {
		return m.fetchFn(ctx)
	}
	return testSnapshot(), nil
}

// --- Mock Geocoder ---

type mockGeocoder struct {
	reverseFn func(ctx context.Context, lat, lon float64) (string, error)
}

func (m *mockGeocoder) ReverseGeocode(ctx context.Context, lat, lon float64) (string, error) {
	if m.reverseFn != nil {
		return m.reverseFn(ctx, lat, lon)
	}
	return "", nil
}

// --- Mock EventPublisher ---

type mockPublisher struct {
	mu     sync.Mutex
	events []*domain.FeedRefreshed
	err    error
}

func (m *mockPublisher) PublishFeedRefreshed(ctx context.Context, e *domain.FeedRefreshed) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
	return m.err
}

// --- Fixtures ---

var base = time.Date(2024, time.April, 9, 12, 0, 0, 0, time.UTC)

func testSnapshot() *domain.Snapshot {
	return &domain.Snapshot{
		FetchedAt: base,
		Source:    "https://example.test/oem.xml",
		Header:    domain.Header{CreationDate: "2024-100T11:00:00.000Z", Originator: "JSC"},
		Metadata:  domain.Metadata{ObjectName: "ISS", ObjectID: "1998-067-A", CenterName: "EARTH"},
		Comments:  []string{"MASS=459154.20"},
		StateVectors: []domain.StateVector{
			{Epoch: "2024-100T12:00:00.000Z", X: 6791, XDot: 3, YDot: 4},
			{Epoch: "2024-100T12:04:00.000Z", Z: 6791, XDot: 1, YDot: 2, ZDot: 2},
			{Epoch: "2024-100T12:08:00.000Z", Y: -6791, ZDot: 7.66},
		},
	}
}

func newService(feed *mockFeed, geo *mockGeocoder, pub *mockPublisher, opts ...usecases.Option) (*usecases.EphemerisService, *memory.Store) {
	store := memory.New()
	// Keep nil interfaces nil so the service sees an absent collaborator.
	var svc *usecases.EphemerisService
	switch {
	case geo == nil && pub == nil:
		svc = usecases.NewEphemerisService(store, feed, nil, nil, opts...)
	case geo == nil:
		svc = usecases.NewEphemerisService(store, feed, nil, pub, opts...)
	case pub == nil:
		svc = usecases.NewEphemerisService(store, feed, geo, nil, opts...)
	default:
		svc = usecases.NewEphemerisService(store, feed, geo, pub, opts...)
	}
	return svc, store
}

// --- Tests ---

func TestEphemerisService_ReadThroughOnMiss(t *testing.T) {
	feed := &mockFeed{}
	svc, store := newService(feed, nil, nil)
	ctx := context.Background()

	all, _, err := svc.List(ctx, domain.Page{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 vectors, got %d", len(all))
	}
	if ok, _ := store.Exists(ctx, usecases.DefaultCacheKey); !ok {
		t.Error("snapshot was not written to the store")
	}

	if _, _, err := svc.List(ctx, domain.Page{}); err != nil {
		t.Fatal(err)
	}
	if n := feed.calls.Load(); n != 1 {
		t.Errorf("expected 1 fetch, got %d", n)
	}
}

func TestEphemerisService_ConcurrentMissesFetchOnce(t *testing.T) {
	feed := &mockFeed{
		fetchFn: func(ctx context.Context) (*domain.Snapshot, error) {
			time.Sleep(20 * time.Millisecond)
			return testSnapshot(), nil
		},
	}
	svc, _ := newService(feed, nil, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Snapshot(context.Background()); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if n := feed.calls.Load(); n != 1 {
		t.Errorf("expected 1 fetch, got %d", n)
	}
}

func TestEphemerisService_CustomKey(t *testing.T) {
	svc, store := newService(&mockFeed{}, nil, nil, usecases.WithCacheKey("iss_test"))
	if _, err := svc.Snapshot(context.Background()); err != nil {
		t.Fatal(err)
	}
	if ok, _ := store.Exists(context.Background(), "iss_test"); !ok {
		t.Error("expected snapshot under custom key")
	}
}

func TestEphemerisService_List_Paging(t *testing.T) {
	svc, _ := newService(&mockFeed{}, nil, nil)
	limit := 1

	got, total, err := svc.List(context.Background(), domain.Page{Offset: 1, Limit: &limit})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Epoch != "2024-100T12:04:00.000Z" {
		t.Errorf("unexpected page: %+v", got)
	}
	if total != 3 {
		t.Errorf("total = %d, want 3", total)
	}
}

func TestEphemerisService_GetByEpoch(t *testing.T) {
	svc, _ := newService(&mockFeed{}, nil, nil)

	sv, err := svc.GetByEpoch(context.Background(), "2024-100T12:04:00.000Z")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sv.Z != 6791 {
		t.Errorf("unexpected record: %+v", sv)
	}

	if _, err := svc.GetByEpoch(context.Background(), "2024-100T12:04:00Z"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestEphemerisService_Speed(t *testing.T) {
	svc, _ := newService(&mockFeed{}, nil, nil)

	rep, err := svc.Speed(context.Background(), "2024-100T12:00:00.000Z")
	if err != nil {
		t.Fatal(err)
	}
	if rep.Epoch != "2024-100T12:00:00.000Z" || math.Abs(rep.Speed-5) > 1e-9 {
		t.Errorf("unexpected report: %+v", rep)
	}

	if _, err := svc.Speed(context.Background(), "nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestEphemerisService_Location(t *testing.T) {
	var gotLat, gotLon float64
	geo := &mockGeocoder{
		reverseFn: func(ctx context.Context, lat, lon float64) (string, error) {
			gotLat, gotLon = lat, lon
			return "Gulf of Guinea", nil
		},
	}
	svc, _ := newService(&mockFeed{}, geo, nil)

	rep, err := svc.Location(context.Background(), "2024-100T12:00:00.000Z")
	if err != nil {
		t.Fatal(err)
	}
	if rep.Geoposition != "Gulf of Guinea" {
		t.Errorf("geoposition = %q", rep.Geoposition)
	}
	if math.Abs(rep.Latitude) > 1e-9 || math.Abs(rep.Longitude) > 1e-9 || math.Abs(rep.Altitude-420) > 1e-9 {
		t.Errorf("unexpected position: %+v", rep)
	}
	if gotLat != rep.Latitude || gotLon != rep.Longitude {
		t.Errorf("geocoder called with (%v, %v)", gotLat, gotLon)
	}
}

func TestEphemerisService_Location_Unknown(t *testing.T) {
	tests := []struct {
		name string
		geo  *mockGeocoder
	}{
		{"no geocoder", nil},
		{"geocoder error", &mockGeocoder{reverseFn: func(ctx context.Context, lat, lon float64) (string, error) {
			return "", errors.New("connection refused")
		}}},
		{"no address", &mockGeocoder{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newService(&mockFeed{}, tt.geo, nil)
			rep, err := svc.Location(context.Background(), "2024-100T12:08:00.000Z")
			if err != nil {
				t.Fatalf("geocode failure must not surface: %v", err)
			}
			if rep.Geoposition != domain.UnknownGeoposition {
				t.Errorf("geoposition = %q, want Unknown", rep.Geoposition)
			}
			if math.Abs(rep.Longitude+90) > 1e-9 {
				t.Errorf("longitude = %v, want -90", rep.Longitude)
			}
		})
	}
}

func TestEphemerisService_Now(t *testing.T) {
	clock := func() time.Time { return base.Add(5 * time.Minute) }
	geo := &mockGeocoder{reverseFn: func(ctx context.Context, lat, lon float64) (string, error) {
		return "Arctic Ocean", nil
	}}
	svc, _ := newService(&mockFeed{}, geo, nil, usecases.WithClock(clock))

	rep, err := svc.Now(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if rep.Epoch != "2024-100T12:04:00.000Z" {
		t.Fatalf("nearest epoch = %s", rep.Epoch)
	}
	if rep.Z != 6791 || rep.ZDot != 2 {
		t.Errorf("record fields not copied: %+v", rep)
	}
	if math.Abs(rep.Speed-3) > 1e-9 {
		t.Errorf("speed = %v, want 3", rep.Speed)
	}
	if math.Abs(rep.Latitude-90) > 1e-9 || math.Abs(rep.Altitude-420) > 1e-9 {
		t.Errorf("position = %+v", rep)
	}
	if rep.Geoposition != "Arctic Ocean" {
		t.Errorf("geoposition = %q", rep.Geoposition)
	}
}

func TestEphemerisService_NearestSkipsGeocoder(t *testing.T) {
	clock := func() time.Time { return base.Add(5 * time.Minute) }
	var lookups atomic.Int32
	geo := &mockGeocoder{reverseFn: func(ctx context.Context, lat, lon float64) (string, error) {
		lookups.Add(1)
		return "Arctic Ocean", nil
	}}
	svc, _ := newService(&mockFeed{}, geo, nil, usecases.WithClock(clock))

	sv, err := svc.Nearest(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if sv.Epoch != "2024-100T12:04:00.000Z" {
		t.Errorf("nearest epoch = %s", sv.Epoch)
	}
	if n := lookups.Load(); n != 0 {
		t.Errorf("geocoder called %d times, want 0", n)
	}
}

func TestEphemerisService_Now_ClockNotMemoized(t *testing.T) {
	now := base
	svc, _ := newService(&mockFeed{}, nil, nil, usecases.WithClock(func() time.Time { return now }))

	first, err := svc.Now(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	now = base.Add(time.Hour)
	second, err := svc.Now(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if first.Epoch != "2024-100T12:00:00.000Z" || second.Epoch != "2024-100T12:08:00.000Z" {
		t.Errorf("epochs = %s, %s", first.Epoch, second.Epoch)
	}
}

func TestEphemerisService_Now_Empty(t *testing.T) {
	feed := &mockFeed{fetchFn: func(ctx context.Context) (*domain.Snapshot, error) {
		return &domain.Snapshot{FetchedAt: base}, nil
	}}
	svc, _ := newService(feed, nil, nil)

	if _, err := svc.Now(context.Background()); !errors.Is(err, domain.ErrDataUnavailable) {
		t.Errorf("expected ErrDataUnavailable, got %v", err)
	}
}

func TestEphemerisService_UpstreamFailure(t *testing.T) {
	feed := &mockFeed{fetchFn: func(ctx context.Context) (*domain.Snapshot, error) {
		return nil, fmt.Errorf("%w: status 503", domain.ErrUpstreamFetch)
	}}
	svc, store := newService(feed, nil, nil)

	if _, err := svc.GetByEpoch(context.Background(), "x"); !errors.Is(err, domain.ErrUpstreamFetch) {
		t.Errorf("expected ErrUpstreamFetch, got %v", err)
	}
	if ok, _ := store.Exists(context.Background(), usecases.DefaultCacheKey); ok {
		t.Error("nothing should be stored after a failed fetch")
	}
}

func TestEphemerisService_CorruptBlob(t *testing.T) {
	blobs := []string{
		"{not json",
		"null",
		"{}",
		`[{"EPOCH": "2024-100T12:00:00.000Z", "X": 1}]`,
	}
	for _, blob := range blobs {
		t.Run(blob, func(t *testing.T) {
			feed := &mockFeed{}
			svc, store := newService(feed, nil, nil)
			_ = store.Set(context.Background(), usecases.DefaultCacheKey, []byte(blob), 0)

			if _, err := svc.Now(context.Background()); !errors.Is(err, domain.ErrMalformedFeed) {
				t.Errorf("expected ErrMalformedFeed, got %v", err)
			}
			if feed.calls.Load() != 0 {
				t.Error("corrupt blob must not trigger a fetch")
			}
		})
	}
}

func TestEphemerisService_LegacyBlob(t *testing.T) {
	feed := &mockFeed{}
	svc, store := newService(feed, nil, nil)
	legacy := `[{"EPOCH": "2024-100T12:00:00.000Z", "X": {"#text": "6791"}, "Y": "0", "Z": 0, "X_DOT": 0, "Y_DOT": 7.66, "Z_DOT": 0}]`
	_ = store.Set(context.Background(), usecases.DefaultCacheKey, []byte(legacy), 0)

	rep, err := svc.Speed(context.Background(), "2024-100T12:00:00.000Z")
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(rep.Speed-7.66) > 1e-9 {
		t.Errorf("speed = %v", rep.Speed)
	}
	if feed.calls.Load() != 0 {
		t.Error("legacy blob should be served without fetching")
	}
}

func TestEphemerisService_Refresh_PublishesOneEvent(t *testing.T) {
	pub := &mockPublisher{}
	feed := &mockFeed{}
	svc, _ := newService(feed, nil, pub)

	snap, err := svc.Refresh(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if snap.Len() != 3 {
		t.Errorf("expected 3 vectors, got %d", snap.Len())
	}
	if len(pub.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(pub.events))
	}
	e := pub.events[0]
	if e.ID == "" || e.StateVectors != 3 {
		t.Errorf("unexpected event: %+v", e)
	}
	if e.FirstEpoch != "2024-100T12:00:00.000Z" || e.LastEpoch != "2024-100T12:08:00.000Z" {
		t.Errorf("epoch range = %s..%s", e.FirstEpoch, e.LastEpoch)
	}
}

func TestEphemerisService_Refresh_ReplacesSnapshot(t *testing.T) {
	var version atomic.Int32
	feed := &mockFeed{fetchFn: func(ctx context.Context) (*domain.Snapshot, error) {
		s := testSnapshot()
		if version.Add(1) > 1 {
			s.StateVectors = s.StateVectors[:1]
		}
		return s, nil
	}}
	svc, _ := newService(feed, nil, nil)
	ctx := context.Background()

	if _, n, _ := svc.List(ctx, domain.Page{}); n != 3 {
		t.Fatalf("initial total = %d", n)
	}
	if _, err := svc.Refresh(ctx); err != nil {
		t.Fatal(err)
	}
	if _, n, _ := svc.List(ctx, domain.Page{}); n != 1 {
		t.Errorf("total after refresh = %d, want 1", n)
	}
}

func TestEphemerisService_Refresh_PublisherErrorIgnored(t *testing.T) {
	pub := &mockPublisher{err: errors.New("nats: no responders")}
	svc, store := newService(&mockFeed{}, nil, pub)

	if _, err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("publish failure should not fail refresh: %v", err)
	}
	if ok, _ := store.Exists(context.Background(), usecases.DefaultCacheKey); !ok {
		t.Error("snapshot should be stored")
	}
}

func TestEphemerisService_TTL(t *testing.T) {
	feed := &mockFeed{}
	svc, _ := newService(feed, nil, nil, usecases.WithCacheTTL(10*time.Millisecond))
	ctx := context.Background()

	if _, err := svc.Snapshot(ctx); err != nil {
		t.Fatal(err)
	}
	time.Sleep(30 * time.Millisecond)
	if _, err := svc.Snapshot(ctx); err != nil {
		t.Fatal(err)
	}
	if n := feed.calls.Load(); n != 2 {
		t.Errorf("expected refetch after expiry, got %d fetches", n)
	}
}

func TestEphemerisService_StartRefresher(t *testing.T) {
	feed := &mockFeed{}
	svc, _ := newService(feed, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	svc.StartRefresher(ctx, 5*time.Millisecond)
	time.Sleep(40 * time.Millisecond)
	cancel()

	if n := feed.calls.Load(); n < 2 {
		t.Errorf("expected several scheduled refreshes, got %d", n)
	}
}

func TestEphemerisService_SectionsAndComments(t *testing.T) {
	feed := &mockFeed{fetchFn: func(ctx context.Context) (*domain.Snapshot, error) {
		s := testSnapshot()
		s.Comments = nil
		return s, nil
	}}
	svc, _ := newService(feed, nil, nil)
	ctx := context.Background()

	md, err := svc.Metadata(ctx)
	if err != nil || md.ObjectName != "ISS" {
		t.Errorf("metadata = %+v, %v", md, err)
	}
	h, err := svc.Header(ctx)
	if err != nil || h.Originator != "JSC" {
		t.Errorf("header = %+v, %v", h, err)
	}
	c, err := svc.Comments(ctx)
	if err != nil || c == nil || len(c) != 0 {
		t.Errorf("comments = %#v, %v", c, err)
	}
}

func TestEphemerisService_WarmDoesNotFetch(t *testing.T) {
	feed := &mockFeed{}
	svc, _ := newService(feed, nil, nil)
	ctx := context.Background()

	warm, err := svc.Warm(ctx)
	if err != nil || warm {
		t.Fatalf("Warm before load = %v, %v; want false, nil", warm, err)
	}
	if _, err := svc.Snapshot(ctx); err != nil {
		t.Fatal(err)
	}
	if warm, _ := svc.Warm(ctx); !warm {
		t.Error("expected warm after Snapshot")
	}
	if n := feed.calls.Load(); n != 1 {
		t.Errorf("feed fetched %d times, want 1", n)
	}
}
