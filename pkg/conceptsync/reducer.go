package conceptsync

import (
	"math"
	"sort"
)

const (
	directionNone = 0
	directionDown = 1
	directionUp   = -1
)

// Model is the synchronizer state. The zero value is idle.
type Model struct {
	State     State
	Active    int
	Positions []int
	Strategy  Strategy

	pending        *Observation
	lastScrollTop  float64
	seenScroll     bool
	direction      int
	recomputeArmed bool
	suppressSeq    uint64
	requested      int
}

func NewModel(strategy Strategy) Model {
	return Model{Strategy: strategy}
}

func (m Model) Snapshot() Snapshot {
	return Snapshot{State: m.State, ActiveIndex: m.Active, Count: len(m.Positions)}
}

func (m Model) inRange(i int) bool {
	return i >= 0 && i < len(m.Positions)
}

// Reduce applies one event and returns the next model plus the effects the
// caller must carry out. It never mutates m.
func Reduce(m Model, e Event) (Model, []Effect) {
	switch ev := e.(type) {
	case Load:
		return m.load(ev.Positions)
	case Reset:
		return m.load(nil)
	case SuppressionExpired:
		if m.State == StateSuppressed && ev.Seq == m.suppressSeq {
			m.State = StateTracking
		}
		return m, nil
	case Recompute:
		m.recomputeArmed = false
	}

	if m.State == StateIdle {
		return m, nil
	}

	switch ev := e.(type) {
	case Prev:
		if m.Active > 0 {
			m.Active--
			return m, []Effect{ActiveChanged{Index: m.Active}}
		}
	case Next:
		if m.Active < len(m.Positions)-1 {
			m.Active++
			return m, []Effect{ActiveChanged{Index: m.Active}}
		}
	case Click:
		if m.inRange(ev.Index) {
			m.Active = ev.Index
			return m, []Effect{ActiveChanged{Index: m.Active}}
		}
	case Jump:
		if !m.inRange(ev.Index) {
			return m, nil
		}
		m.Active = ev.Index
		m.requested = ev.Index
		m.State = StateSuppressed
		m.pending = nil
		m.suppressSeq++
		return m, []Effect{
			ActiveChanged{Index: m.Active, Scroll: true},
			ArmSuppressionTimer{Seq: m.suppressSeq},
		}
	case Scroll:
		obs := ev.Observation
		if m.seenScroll {
			switch {
			case obs.ScrollTop > m.lastScrollTop:
				m.direction = directionDown
			case obs.ScrollTop < m.lastScrollTop:
				m.direction = directionUp
			}
		}
		m.lastScrollTop = obs.ScrollTop
		m.seenScroll = true
		m.pending = &obs
		if m.recomputeArmed {
			return m, nil
		}
		m.recomputeArmed = true
		return m, []Effect{ArmRecomputeTimer{}}
	case Recompute:
		return m.recompute()
	}
	return m, nil
}

func (m Model) load(positions []int) (Model, []Effect) {
	next := Model{
		Strategy:       m.Strategy,
		Positions:      append([]int(nil), positions...),
		recomputeArmed: m.recomputeArmed,
		suppressSeq:    m.suppressSeq + 1,
	}
	if len(next.Positions) == 0 {
		next.Positions = nil
		return next, nil
	}
	next.State = StateTracking
	return next, []Effect{ActiveChanged{Index: 0}}
}

func (m Model) recompute() (Model, []Effect) {
	obs := m.pending
	m.pending = nil
	if obs == nil {
		return m, nil
	}

	visible := m.visible(*obs)
	if len(visible) == 0 {
		return m, nil
	}

	if m.State == StateSuppressed {
		if nearestCenter(*obs, visible) == m.requested {
			m.State = StateTracking
		}
		return m, nil
	}

	idx := m.choose(*obs, visible)
	if idx == m.Active {
		return m, nil
	}
	m.Active = idx
	return m, []Effect{ActiveChanged{Index: idx}}
}

// visible returns the markers intersecting the viewport, one per known
// concept index.
func (m Model) visible(obs Observation) []SpanBox {
	top, bottom := obs.ScrollTop, obs.ScrollTop+obs.ViewportHeight
	seen := make(map[int]bool, len(obs.Spans))
	out := make([]SpanBox, 0, len(obs.Spans))
	for _, s := range obs.Spans {
		if !m.inRange(s.Index) || seen[s.Index] {
			continue
		}
		if s.Bottom > top && s.Top < bottom {
			seen[s.Index] = true
			out = append(out, s)
		}
	}
	return out
}

func (m Model) choose(obs Observation, visible []SpanBox) int {
	if m.Strategy == StrategyNearestCenter || m.direction == directionNone {
		return nearestCenter(obs, visible)
	}
	for _, s := range visible {
		if s.Index == m.Active {
			return m.Active
		}
	}

	indices := make([]int, len(visible))
	for i, s := range visible {
		indices[i] = s.Index
	}
	sort.SliceStable(indices, func(a, b int) bool {
		return m.Positions[indices[a]] < m.Positions[indices[b]]
	})

	if m.direction == directionDown {
		ref := math.MaxInt
		if m.inRange(m.Active) {
			ref = m.Positions[m.Active]
		}
		for i := len(indices) - 1; i >= 0; i-- {
			if m.Positions[indices[i]] <= ref {
				return indices[i]
			}
		}
		return indices[0]
	}

	ref := 0
	if m.inRange(m.Active) {
		ref = m.Positions[m.Active]
	}
	for _, idx := range indices {
		if m.Positions[idx] >= ref {
			return idx
		}
	}
	return indices[len(indices)-1]
}

// nearestCenter picks the marker whose midpoint is closest to the viewport
// centre; ties go to the lower index.
func nearestCenter(obs Observation, visible []SpanBox) int {
	center := obs.center()
	best, bestDist := -1, math.Inf(1)
	for _, s := range visible {
		dist := math.Abs((s.Top+s.Bottom)/2 - center)
		if dist < bestDist || (dist == bestDist && s.Index < best) {
			best, bestDist = s.Index, dist
		}
	}
	return best
}
