package connector

import (
	"math"

	"board/internal/domain"
	"board/internal/elements"
	"board/internal/geom"
)

// Route is a resolved connector ready to render.
type Route struct {
	ID     string                `json:"id"`
	From   Anchor                `json:"from"`
	To     Anchor                `json:"to"`
	Bend   geom.Point            `json:"bend"`
	Path   geom.Cubic            `json:"path"`
	Mid    geom.Point            `json:"mid"`
	Style  domain.ConnectorStyle `json:"style"`
	ZIndex int                   `json:"zIndex"`
}

// DistTo returns the distance from p to the rendered curve.
func (r Route) DistTo(p geom.Point) float64 {
	return math.Sqrt(CurveDistSq(r.Path, p))
}

// Bounds returns the rectangle enclosing the curve.
func (r Route) Bounds() geom.Rect { return r.Path.Bounds() }

// Router resolves connector elements against the store.
type Router struct {
	store *elements.Store

	// FollowDrag makes resolution read visual overrides, so connectors track
	// targets that are mid-drag. It is set only while a gesture is moving
	// something.
	FollowDrag bool
}

func NewRouter(store *elements.Store) *Router {
	return &Router{store: store}
}

func (r *Router) bounds(ref domain.Ref) (geom.Rect, bool) {
	if r.FollowDrag {
		return r.store.VisualBounds(ref)
	}
	return r.store.Bounds(ref)
}

// Resolve computes the route of connector e. It reports false when e is not a
// connector or one of its targets no longer exists.
func (r *Router) Resolve(e domain.Element) (Route, bool) {
	c := e.Payload.Connector
	if e.Type != domain.ElementConnector || c == nil {
		return Route{}, false
	}
	fromRect, ok := r.bounds(c.From.Target)
	if !ok {
		return Route{}, false
	}
	toRect, ok := r.bounds(c.To.Target)
	if !ok {
		return Route{}, false
	}
	bend := c.Bend
	if r.FollowDrag {
		if b, ok := r.store.Overrides.Bend(domain.ElementRef(e.ID)); ok {
			bend = b
		}
	}
	from := AnchorFor(fromRect, c.From.Side)
	to := AnchorFor(toRect, c.To.Side)
	path := Path(from, to, bend)
	return Route{
		ID: e.ID, From: from, To: to, Bend: bend,
		Path: path, Mid: Midpoint(path), Style: c.Style, ZIndex: e.ZIndex,
	}, true
}

// ResolveID resolves a connector by id.
func (r *Router) ResolveID(id string) (Route, bool) {
	e, ok := r.store.Get(id)
	if !ok {
		return Route{}, false
	}
	return r.Resolve(e)
}

// Routes resolves every connector that has both targets. Dangling connectors
// are skipped.
func (r *Router) Routes() []Route {
	var out []Route
	for _, e := range r.store.All() {
		if rt, ok := r.Resolve(e); ok {
			out = append(out, rt)
		}
	}
	return out
}

// Targets lists every element and block that can be a connector endpoint.
func (r *Router) Targets() []Target {
	var out []Target
	for _, e := range r.store.All() {
		if !Eligible(e.Type) {
			continue
		}
		ref := domain.ElementRef(e.ID)
		rect, _ := r.bounds(ref)
		out = append(out, Target{Ref: ref, Rect: rect, ZIndex: e.ZIndex})
	}
	for _, b := range r.store.Blocks() {
		ref := domain.BlockRef(b.ID)
		rect, _ := r.bounds(ref)
		out = append(out, Target{Ref: ref, Rect: rect})
	}
	return out
}

// Refit recomputes the stored bounding box of every resolvable connector from
// its curve, so rectangle hit tests see connectors where they are drawn. It
// returns the ids whose geometry changed. The store update is local only.
func (r *Router) Refit() []string {
	var changed []string
	for _, e := range r.store.All() {
		rt, ok := r.Resolve(e)
		if !ok {
			continue
		}
		b := rt.Bounds()
		if b == e.Rect() {
			continue
		}
		r.store.Update(e.ID, domain.GeometryPatch(b))
		changed = append(changed, e.ID)
	}
	return changed
}
