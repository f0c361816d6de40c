// Package arena is a small reference physics world for the hide-and-seek
// environment. Static boxes live in an R-tree on the XZ ground plane and
// agents are circles; the arena answers ray and sphere queries and reports
// collision-enter events to agent callbacks.
package arena

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/dhconnelly/rtreego"

	"hideseek/internal/geom"
	"hideseek/internal/perception"
)

var ErrInvalidBox = errors.New("invalid arena box")

const minExtent = 1e-6

// Box is an axis-aligned static obstacle on the ground plane.
type Box struct {
	Tag  perception.Tag
	MinX float64
	MinZ float64
	MaxX float64
	MaxZ float64

	rect rtreego.Rect
}

func (b *Box) Bounds() rtreego.Rect {
	return b.rect
}

func (b *Box) Center() geom.Vec3 {
	return geom.V((b.MinX+b.MaxX)/2, 0, (b.MinZ+b.MaxZ)/2)
}

type Arena struct {
	index    *rtreego.Rtree
	bodies   []*Body
	contacts map[contactKey]bool
}

type contactKey struct {
	body  *Body
	other any
}

// New builds an arena from a layout, indexing every box.
func New(layout Layout) (*Arena, error) {
	a := &Arena{contacts: map[contactKey]bool{}}
	spatials := make([]rtreego.Spatial, 0, len(layout.Boxes))
	for i, def := range layout.Boxes {
		box := def
		if box.MaxX-box.MinX < minExtent || box.MaxZ-box.MinZ < minExtent {
			return nil, fmt.Errorf("%w: box %d has empty extent", ErrInvalidBox, i)
		}
		rect, err := rtreego.NewRect(rtreego.Point{box.MinX, box.MinZ}, []float64{box.MaxX - box.MinX, box.MaxZ - box.MinZ})
		if err != nil {
			return nil, fmt.Errorf("%w: box %d: %v", ErrInvalidBox, i, err)
		}
		box.rect = rect
		spatials = append(spatials, &box)
	}
	a.index = rtreego.NewTree(2, 4, 16, spatials...)
	return a, nil
}

// AddBody places a circular body in the arena.
func (a *Arena) AddBody(tag perception.Tag, radius float64, position geom.Vec3) *Body {
	b := &Body{
		arena:    a,
		tag:      tag,
		radius:   radius,
		position: position,
		rotation: geom.Identity,
		previous: position,
	}
	a.bodies = append(a.bodies, b)
	return b
}

// Raycast returns the nearest box or body struck by the ray. Bodies that
// contain the origin are ignored so an agent never sees itself.
func (a *Arena) Raycast(origin, direction geom.Vec3, maxDistance float64) (perception.Hit, bool) {
	dir := geom.V(direction.X, 0, direction.Z).Normalized()
	if dir == geom.Zero || maxDistance <= 0 {
		return perception.Hit{}, false
	}
	best := perception.Hit{Distance: math.Inf(1)}
	found := false

	for _, box := range a.boxesAlong(origin, dir, maxDistance) {
		if d, ok := rayBox(origin, dir, box); ok && d <= maxDistance && d < best.Distance {
			best = perception.Hit{Tag: box.Tag, Distance: d, Point: origin.Add(dir.Scale(d)), Position: box.Center()}
			found = true
		}
	}
	for _, body := range a.bodies {
		if planar(origin, body.position) <= body.radius {
			continue
		}
		if d, ok := rayCircle(origin, dir, body.position, body.radius); ok && d <= maxDistance && d < best.Distance {
			best = perception.Hit{Tag: body.tag, Distance: d, Point: origin.Add(dir.Scale(d)), Position: body.position}
			found = true
		}
	}
	return best, found
}

// OverlapSphere returns every object tagged mask within radius of center,
// nearest first. TagNone matches any tag.
func (a *Arena) OverlapSphere(center geom.Vec3, radius float64, mask perception.Tag) []perception.Hit {
	var hits []perception.Hit
	query, err := squareAround(center, radius)
	if err == nil {
		for _, s := range a.index.SearchIntersect(query) {
			box := s.(*Box)
			if mask != perception.TagNone && box.Tag != mask {
				continue
			}
			if d := boxDistance(center, box); d <= radius {
				hits = append(hits, perception.Hit{Tag: box.Tag, Distance: d, Point: center, Position: box.Center()})
			}
		}
	}
	for _, body := range a.bodies {
		if mask != perception.TagNone && body.tag != mask {
			continue
		}
		if d := math.Max(0, planar(center, body.position)-body.radius); d <= radius {
			hits = append(hits, perception.Hit{Tag: body.tag, Distance: d, Point: center, Position: body.position})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Distance < hits[j].Distance })
	return hits
}

// ResolveCollisions blocks bodies that moved into a box and dispatches
// collision-enter callbacks for contacts that began this step.
func (a *Arena) ResolveCollisions() {
	current := map[contactKey]bool{}
	for _, body := range a.bodies {
		touching := a.touchingBoxes(body)
		for _, box := range touching {
			current[contactKey{body, box}] = true
		}
		if len(touching) > 0 && body.previous != body.position {
			body.position = body.previous
		}
		body.previous = body.position
	}
	for i, body := range a.bodies {
		for _, other := range a.bodies[i+1:] {
			if planar(body.position, other.position) <= body.radius+other.radius {
				current[contactKey{body, other}] = true
				current[contactKey{other, body}] = true
			}
		}
	}

	for key := range current {
		if a.contacts[key] || key.body.onEnter == nil {
			continue
		}
		switch other := key.other.(type) {
		case *Box:
			key.body.onEnter(other.Tag)
		case *Body:
			key.body.onEnter(other.tag)
		}
	}
	a.contacts = current
}

func (a *Arena) touchingBoxes(body *Body) []*Box {
	query, err := squareAround(body.position, body.radius)
	if err != nil {
		return nil
	}
	var out []*Box
	for _, s := range a.index.SearchIntersect(query) {
		box := s.(*Box)
		if boxDistance(body.position, box) <= body.radius {
			out = append(out, box)
		}
	}
	sort.Slice(out, func(i, j int) bool { return boxDistance(body.position, out[i]) < boxDistance(body.position, out[j]) })
	return out
}

func (a *Arena) boxesAlong(origin, dir geom.Vec3, maxDistance float64) []*Box {
	end := origin.Add(dir.Scale(maxDistance))
	minX, maxX := math.Min(origin.X, end.X), math.Max(origin.X, end.X)
	minZ, maxZ := math.Min(origin.Z, end.Z), math.Max(origin.Z, end.Z)
	query, err := rtreego.NewRect(rtreego.Point{minX, minZ}, []float64{math.Max(maxX-minX, minExtent), math.Max(maxZ-minZ, minExtent)})
	if err != nil {
		return nil
	}
	matches := a.index.SearchIntersect(query)
	out := make([]*Box, 0, len(matches))
	for _, s := range matches {
		out = append(out, s.(*Box))
	}
	return out
}

func squareAround(center geom.Vec3, radius float64) (rtreego.Rect, error) {
	side := math.Max(2*radius, minExtent)
	return rtreego.NewRect(rtreego.Point{center.X - radius, center.Z - radius}, []float64{side, side})
}

func planar(a, b geom.Vec3) float64 {
	return math.Hypot(a.X-b.X, a.Z-b.Z)
}

func boxDistance(p geom.Vec3, box *Box) float64 {
	dx := math.Max(math.Max(box.MinX-p.X, 0), p.X-box.MaxX)
	dz := math.Max(math.Max(box.MinZ-p.Z, 0), p.Z-box.MaxZ)
	return math.Hypot(dx, dz)
}

// rayBox is the slab test on the XZ plane. A ray starting inside the box
// hits it at distance zero.
func rayBox(origin, dir geom.Vec3, box *Box) (float64, bool) {
	tMin, tMax := 0.0, math.Inf(1)
	origins := [2]float64{origin.X, origin.Z}
	dirs := [2]float64{dir.X, dir.Z}
	bounds := [2][2]float64{{box.MinX, box.MaxX}, {box.MinZ, box.MaxZ}}
	for i := range origins {
		o, d := origins[i], dirs[i]
		lo, hi := bounds[i][0], bounds[i][1]
		if math.Abs(d) < 1e-12 {
			if o < lo || o > hi {
				return 0, false
			}
			continue
		}
		t1, t2 := (lo-o)/d, (hi-o)/d
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tMin = math.Max(tMin, t1)
		tMax = math.Min(tMax, t2)
		if tMin > tMax {
			return 0, false
		}
	}
	return tMin, true
}

func rayCircle(origin, dir, center geom.Vec3, radius float64) (float64, bool) {
	ox, oz := origin.X-center.X, origin.Z-center.Z
	b := ox*dir.X + oz*dir.Z
	c := ox*ox + oz*oz - radius*radius
	disc := b*b - c
	if disc < 0 {
		return 0, false
	}
	t := -b - math.Sqrt(disc)
	if t < 0 {
		return 0, false
	}
	return t, true
}
