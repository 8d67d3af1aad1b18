package orientation

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

const DefaultProjectorCacheSize = 256

// Projection is one element placed on screen.
type Projection struct {
	Element Element `json:"-"`
	Key     string  `json:"element"`
	World   float64 `json:"world"`
	Screen  float64 `json:"screen"`
	Locked  bool    `json:"locked,omitempty"`
	Lock    string  `json:"lock,omitempty"`
}

// SkipObserver is told how many elements a projection pass had to leave out.
type SkipObserver interface {
	ElementsSkipped(n int)
}

// Projector binds frames to snapshots and projects elements through them.
// Bound frames are cached by frame key and snapshot revision, so repeated
// passes over the same snapshot resolve the anchor once. It is safe for
// concurrent use.
type Projector struct {
	cache    *lru.Cache[string, BoundFrame]
	observer SkipObserver
}

func NewProjector(size int, observer SkipObserver) (*Projector, error) {
	if size <= 0 {
		size = DefaultProjectorCacheSize
	}
	cache, err := lru.New[string, BoundFrame](size)
	if err != nil {
		return nil, fmt.Errorf("creating projector cache: %w", err)
	}
	return &Projector{cache: cache, observer: observer}, nil
}

// Bind is the cached form of the package-level Bind. Snapshots without a
// revision are never cached.
func (p *Projector) Bind(f ViewFrame, snap *ChartSnapshot) (BoundFrame, bool) {
	if snap == nil || snap.Revision == "" {
		return Bind(f, snap)
	}
	key := FrameKey(f) + "@" + snap.Revision
	if bound, ok := p.cache.Get(key); ok {
		return bound, true
	}
	bound, ok := Bind(f, snap)
	if !ok {
		return BoundFrame{}, false
	}
	p.cache.Add(key, bound)
	return bound, true
}

// Project places each element on screen under f. Elements the snapshot cannot
// resolve, or every element when the frame's anchor is missing, are returned
// in skipped and must not be drawn this pass. Locks are matched with
// ResolveLock and reported on each projection.
func (p *Projector) Project(f ViewFrame, snap *ChartSnapshot, elements []Element, locks []LockRule) (projections []Projection, skipped []Element) {
	bound, ok := p.Bind(f, snap)
	if !ok {
		p.skipped(len(elements))
		return nil, append([]Element(nil), elements...)
	}

	projections = make([]Projection, 0, len(elements))
	for _, el := range elements {
		world, ok := el.Longitude(snap)
		if !ok {
			skipped = append(skipped, el)
			continue
		}
		proj := Projection{
			Element: el,
			Key:     el.Key(),
			World:   world,
			Screen:  bound.WorldToScreen(world),
		}
		if lock, ok := ResolveLock(locks, el); ok {
			proj.Locked = true
			proj.Lock = string(lock.Frame)
		}
		projections = append(projections, proj)
	}
	p.skipped(len(skipped))
	return projections, skipped
}

func (p *Projector) Len() int {
	return p.cache.Len()
}

func (p *Projector) skipped(n int) {
	if n > 0 && p.observer != nil {
		p.observer.ElementsSkipped(n)
	}
}
