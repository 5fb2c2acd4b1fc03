package weather

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/jonboulle/clockwork"
)

// fakeProvider is a scriptable provider for resolver tests.
type fakeProvider struct {
	name     string
	source   Source
	regions  []string
	err      error
	calls    int
	nowcast  *Nowcast
	nowcastE error
}

func (f *fakeProvider) Name() string          { return f.name }
func (f *fakeProvider) Source() Source        { return f.source }
func (f *fakeProvider) RequiresAPIKey() bool  { return false }
func (f *fakeProvider) SupportsNowcast() bool { return f.nowcast != nil }
func (f *fakeProvider) HomeRegions() []string { return f.regions }

func (f *fakeProvider) Resolve(ctx context.Context, req Request) (*Weather, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &Weather{Source: f.source, Nowcast: Nowcast{Available: false}}, nil
}

func (f *fakeProvider) FetchNowcast(ctx context.Context, req Request) (*Nowcast, error) {
	if f.nowcastE != nil {
		return nil, f.nowcastE
	}
	return f.nowcast, nil
}

func newTestResolver(provs ...Provider) *Resolver {
	return NewResolver(provs, slog.New(slog.NewTextHandler(io.Discard, nil)), clockwork.NewFakeClock())
}

func TestResolveFallsBackOnFailure(t *testing.T) {
	failing := &fakeProvider{name: "a", source: SourceOfficialStation, regions: []string{"US"},
		err: NewStageError("a", "forecast", errors.New("upstream 500"))}
	winner := &fakeProvider{name: "b", source: SourceConsolidatedGlobal}

	r := newTestResolver(failing, winner)

	w, err := r.Resolve(context.Background(), Request{Latitude: 40, Longitude: -75, CountryCode: "US"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w.Source != SourceConsolidatedGlobal {
		t.Errorf("source = %q, want %q", w.Source, SourceConsolidatedGlobal)
	}
	if failing.calls != 1 {
		t.Errorf("failed provider called %d times, want exactly 1", failing.calls)
	}
}

func TestResolveRegionalSkippedOutsideHomeRegion(t *testing.T) {
	regional := &fakeProvider{name: "official", source: SourceOfficialStation, regions: []string{"US"}}
	global := &fakeProvider{name: "global", source: SourceConsolidatedGlobal}

	r := newTestResolver(regional, global)

	w, err := r.Resolve(context.Background(), Request{Latitude: 48.85, Longitude: 2.35, CountryCode: "FR"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w.Source != SourceConsolidatedGlobal {
		t.Errorf("source = %q, want %q", w.Source, SourceConsolidatedGlobal)
	}
	if regional.calls != 0 {
		t.Errorf("regional provider called %d times outside home region", regional.calls)
	}
}

func TestResolveExhaustion(t *testing.T) {
	a := &fakeProvider{name: "a", source: SourceConsolidatedGlobal, err: errors.New("boom")}
	b := &fakeProvider{name: "b", source: SourceKeyGatedGlobal, err: NewStageError("b", "configuration", ErrNoAPIKey)}

	r := newTestResolver(a, b)

	_, err := r.Resolve(context.Background(), Request{Latitude: 40, Longitude: -75})
	if !errors.Is(err, ErrExhausted) {
		t.Fatalf("error = %v, want ErrExhausted", err)
	}
	if a.calls != 1 || b.calls != 1 {
		t.Errorf("each provider should be tried exactly once: a=%d b=%d", a.calls, b.calls)
	}
}

func TestResolveStampsIdentity(t *testing.T) {
	p := &fakeProvider{name: "p", source: SourceConsolidatedGlobal}
	r := newTestResolver(p)

	first, err := r.Resolve(context.Background(), Request{Latitude: 1, Longitude: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := r.Resolve(context.Background(), Request{Latitude: 1, Longitude: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if first.ResolutionID == "" || second.ResolutionID == "" {
		t.Fatalf("resolution IDs not stamped")
	}
	if first.ResolutionID == second.ResolutionID {
		t.Errorf("resolution IDs not unique")
	}
	if second.Generation <= first.Generation {
		t.Errorf("generation not monotonic: %d then %d", first.Generation, second.Generation)
	}
}

func TestNowcastBackfillFromCapableProvider(t *testing.T) {
	winner := &fakeProvider{name: "winner", source: SourceConsolidatedGlobal}
	filler := &fakeProvider{name: "filler", source: SourceMinuteResolutionGlobal,
		err: errors.New("resolve unused"),
		nowcast: &Nowcast{
			Available: true,
			Source:    SourceMinuteResolutionGlobal,
			Interval:  1,
		}}

	r := newTestResolver(winner, filler)

	w, err := r.Resolve(context.Background(), Request{Latitude: 40, Longitude: -75})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !w.Nowcast.Available {
		t.Fatalf("nowcast not backfilled: %+v", w.Nowcast)
	}
	if w.Nowcast.Source != SourceMinuteResolutionGlobal {
		t.Errorf("nowcast source = %q, want %q", w.Nowcast.Source, SourceMinuteResolutionGlobal)
	}
	// Backfill must not rerun the filler's full pipeline.
	if filler.calls != 0 {
		t.Errorf("filler Resolve called %d times during backfill", filler.calls)
	}
}

func TestNowcastBackfillFailureLeavesPending(t *testing.T) {
	winner := &fakeProvider{name: "winner", source: SourceConsolidatedGlobal}
	broken := &fakeProvider{name: "broken", source: SourceMinuteResolutionGlobal,
		nowcast:  &Nowcast{Available: true},
		nowcastE: errors.New("minutely endpoint down")}

	r := newTestResolver(winner, broken)

	w, err := r.Resolve(context.Background(), Request{Latitude: 40, Longitude: -75})
	if err != nil {
		t.Fatalf("nowcast failure must not fail the resolution: %v", err)
	}
	if w.Nowcast.Available {
		t.Errorf("nowcast marked available after failed backfill")
	}
	if !w.Nowcast.Pending {
		t.Errorf("nowcast not left pending after failed backfill")
	}
}

type recordingDispatcher struct {
	attribution Attribution
	dispatched  *Weather
}

func (d *recordingDispatcher) SetAttribution(a Attribution) { d.attribution = a }
func (d *recordingDispatcher) Dispatch(w *Weather)          { d.dispatched = w }

func TestResolveAndDispatchReportsAttributionFirst(t *testing.T) {
	p := &fakeProvider{name: "p", source: SourceConsolidatedGlobal}
	r := newTestResolver(p)

	d := &recordingDispatcher{}
	if err := r.ResolveAndDispatch(context.Background(), Request{Latitude: 1, Longitude: 2}, d); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.dispatched == nil {
		t.Fatalf("nothing dispatched")
	}
	if err := r.ResolveAndDispatch(context.Background(), Request{Latitude: 1, Longitude: 2}, d); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
