package weather

import (
	"context"
	"errors"
	"fmt"
)

// Request identifies what a caller wants resolved. CountryCode and
// LocationName are optional hints; providers must work from coordinates
// alone.
type Request struct {
	Latitude     float64
	Longitude    float64
	CountryCode  string // ISO 3166-1 alpha-2
	LocationName string // free-text display label
}

var (
	// ErrNoAPIKey is a configuration failure: the provider's key is absent
	// or a known placeholder. No network call is made.
	ErrNoAPIKey = errors.New("api key missing or placeholder")

	// ErrExhausted is the only error surfaced past the resolver: every
	// provider in the chain failed.
	ErrExhausted = errors.New("all weather providers failed")
)

// StageError wraps a failure at a named pipeline stage so logs and metrics
// can tell grid lookups from forecast fan-outs. Any StageError triggers
// fallback to the next provider.
type StageError struct {
	Provider string
	Stage    string
	Err      error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Provider, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// NewStageError builds a StageError; nil err yields nil.
func NewStageError(provider, stage string, err error) error {
	if err == nil {
		return nil
	}
	return &StageError{Provider: provider, Stage: stage, Err: err}
}

// Provider abstracts one upstream weather source. Resolve runs the
// provider's full fetch pipeline and normalization, returning a canonical
// Weather or an error that the resolver treats as "advance to the next
// provider".
type Provider interface {
	Name() string
	Source() Source
	RequiresAPIKey() bool
	SupportsNowcast() bool
	// HomeRegions lists country codes where this provider leads the
	// fallback chain; empty means global.
	HomeRegions() []string
	Resolve(ctx context.Context, req Request) (*Weather, error)
}

// NowcastProvider is a Provider that can also serve a narrow minute-level
// precipitation request, used to backfill a pending nowcast after another
// provider won the resolution.
type NowcastProvider interface {
	Provider
	FetchNowcast(ctx context.Context, req Request) (*Nowcast, error)
}

// Dispatcher receives successful resolutions, display-side. The resolver
// reports attribution before handing over the object.
type Dispatcher interface {
	SetAttribution(a Attribution)
	Dispatch(w *Weather)
}
