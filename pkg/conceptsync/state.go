package conceptsync

import (
	"errors"
	"fmt"
	"time"
)

type State int

const (
	StateIdle State = iota
	StateTracking
	StateSuppressed
)

func (s State) String() string {
	switch s {
	case StateTracking:
		return "tracking"
	case StateSuppressed:
		return "suppressed"
	default:
		return "idle"
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

var ErrUnknownState = errors.New("unknown sync state")

func (s *State) UnmarshalText(text []byte) error {
	switch string(text) {
	case "idle":
		*s = StateIdle
	case "tracking":
		*s = StateTracking
	case "suppressed":
		*s = StateSuppressed
	default:
		return fmt.Errorf("%w: %q", ErrUnknownState, text)
	}
	return nil
}

// Strategy decides how a scroll observation picks the active concept.
type Strategy string

const (
	// StrategyDirectional keeps a still-visible active concept and otherwise
	// breaks ties among visible concepts by scroll direction.
	StrategyDirectional Strategy = "directional"
	// StrategyNearestCenter always picks the visible concept closest to the
	// viewport centre.
	StrategyNearestCenter Strategy = "nearest-center"
)

func ParseStrategy(s string) Strategy {
	if Strategy(s) == StrategyNearestCenter {
		return StrategyNearestCenter
	}
	return StrategyDirectional
}

type Config struct {
	Throttle          time.Duration
	SuppressionWindow time.Duration
	Strategy          Strategy
}

func DefaultConfig() Config {
	return Config{
		Throttle:          150 * time.Millisecond,
		SuppressionWindow: 800 * time.Millisecond,
		Strategy:          StrategyDirectional,
	}
}

// SpanBox is the vertical extent of one highlight marker, in the same
// coordinate space as Observation.ScrollTop.
type SpanBox struct {
	Index  int     `json:"index"`
	Top    float64 `json:"top"`
	Bottom float64 `json:"bottom"`
}

type Observation struct {
	ScrollTop      float64   `json:"scroll_top"`
	ViewportHeight float64   `json:"viewport_height"`
	Spans          []SpanBox `json:"spans"`
}

func (o Observation) center() float64 {
	return o.ScrollTop + o.ViewportHeight/2
}

// Snapshot is the externally visible cursor.
type Snapshot struct {
	State       State `json:"state"`
	ActiveIndex int   `json:"active_index"`
	Count       int   `json:"count"`
}

// Event is a message fed to Reduce.
type Event interface{ isEvent() }

// Load starts tracking a new concept list. Positions holds each concept's
// start offset, by index.
type Load struct{ Positions []int }

type Reset struct{}

type Prev struct{}

type Next struct{}

// Jump moves to a concept and scrolls the text to it.
type Jump struct{ Index int }

// Click selects a concept the user clicked in the text.
type Click struct{ Index int }

type Scroll struct{ Observation Observation }

// Recompute is posted by the throttle timer.
type Recompute struct{}

type SuppressionExpired struct{ Seq uint64 }

func (Load) isEvent()               {}
func (Reset) isEvent()              {}
func (Prev) isEvent()               {}
func (Next) isEvent()               {}
func (Jump) isEvent()               {}
func (Click) isEvent()              {}
func (Scroll) isEvent()             {}
func (Recompute) isEvent()          {}
func (SuppressionExpired) isEvent() {}

// Effect is a side effect requested by Reduce.
type Effect interface{ isEffect() }

// ActiveChanged reports a new active index. Scroll is true only for jumps.
type ActiveChanged struct {
	Index  int
	Scroll bool
}

type ArmRecomputeTimer struct{}

type ArmSuppressionTimer struct{ Seq uint64 }

func (ActiveChanged) isEffect()       {}
func (ArmRecomputeTimer) isEffect()   {}
func (ArmSuppressionTimer) isEffect() {}

var ErrUnknownAction = errors.New("unknown navigation action")

// NavigationEvent maps a navigation action name to its event.
func NavigationEvent(action string, index int) (Event, error) {
	switch action {
	case "prev":
		return Prev{}, nil
	case "next":
		return Next{}, nil
	case "jump":
		return Jump{Index: index}, nil
	case "click":
		return Click{Index: index}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}
}
