// Package planner builds tap plans around a target region.
package planner

import (
	"math"
	"math/rand"
	"time"

	"github.com/verte-zerg/adbtap/internal/model"
)

// Ring intervals, fastest at the center and slowing toward the edge.
const (
	CenterInterval    = 5500 * time.Microsecond
	InnerInterval     = 6 * time.Millisecond
	MiddleInterval    = 7 * time.Millisecond
	OuterInterval     = 8 * time.Millisecond
	StrategicInterval = 6500 * time.Microsecond
	InfillInterval    = 7 * time.Millisecond
)

// Pinned layout intervals.
const (
	PinnedCenterInterval   = 8 * time.Millisecond
	PinnedVerticalInterval = 9 * time.Millisecond
	PinnedSideInterval     = 8 * time.Millisecond
	PinnedDiagonalInterval = 7 * time.Millisecond
)

// Ring describes points evenly spaced on a circle around the center.
type Ring struct {
	Name     string
	Scale    float64
	Step     int
	Interval time.Duration
}

// Rings is the deterministic part of the ring layout, in build order.
var Rings = []Ring{
	{Name: "inner", Scale: 0.4, Step: 45, Interval: InnerInterval},
	{Name: "middle", Scale: 0.7, Step: 30, Interval: MiddleInterval},
	{Name: "outer", Scale: 1.0, Step: 22, Interval: OuterInterval},
}

const (
	strategicScale = 0.85
	infillCount    = 4
	infillMinScale = 0.1
	infillSpan     = 0.8
	diagonalScale  = 0.7
)

var cardinalAngles = []int{0, 90, 180, 270}

// Planner produces shuffled tap plans.
type Planner struct {
	rnd *rand.Rand
}

// New returns a Planner seeded with the current time.
func New() *Planner {
	return &Planner{rnd: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// NewWithRand returns a Planner drawing from the given source.
func NewWithRand(rnd *rand.Rand) *Planner {
	if rnd == nil {
		return New()
	}
	return &Planner{rnd: rnd}
}

// Build lays out the center point, the inner, middle and outer rings, four
// strategic cardinal points and four random infill points, then shuffles them.
func (p *Planner) Build(center model.Point, radius float64) []model.TapPoint {
	if radius < 0 {
		radius = 0
	}
	plan := make([]model.TapPoint, 0, PlanSize())
	plan = append(plan, model.TapPoint{X: center.X, Y: center.Y, Interval: CenterInterval})

	for _, ring := range Rings {
		r := radius * ring.Scale
		for angle := 0; angle < 360; angle += ring.Step {
			plan = append(plan, polar(center, r, degrees(angle), ring.Interval))
		}
	}

	strategic := radius * strategicScale
	for _, angle := range cardinalAngles {
		plan = append(plan, polar(center, strategic, degrees(angle), StrategicInterval))
	}

	for i := 0; i < infillCount; i++ {
		r := radius * (infillMinScale + infillSpan*p.rnd.Float64())
		theta := p.rnd.Float64() * 2 * math.Pi
		plan = append(plan, polar(center, r, theta, InfillInterval))
	}

	p.Shuffle(plan)
	return plan
}

// BuildPinned lays out a cross plus diagonals around a caller-pinned center.
func (p *Planner) BuildPinned(center model.Point, radius float64) []model.TapPoint {
	if radius < 0 {
		radius = 0
	}
	r := int(radius)
	d := int(radius * diagonalScale)
	cx, cy := center.X, center.Y
	plan := []model.TapPoint{
		{X: cx, Y: cy, Interval: PinnedCenterInterval},
		{X: cx, Y: cy - r, Interval: PinnedVerticalInterval},
		{X: cx + r, Y: cy, Interval: PinnedSideInterval},
		{X: cx, Y: cy + r, Interval: PinnedVerticalInterval},
		{X: cx - r, Y: cy, Interval: PinnedSideInterval},
		{X: cx + d, Y: cy + d, Interval: PinnedDiagonalInterval},
		{X: cx + d, Y: cy - d, Interval: PinnedDiagonalInterval},
		{X: cx - d, Y: cy + d, Interval: PinnedDiagonalInterval},
		{X: cx - d, Y: cy - d, Interval: PinnedDiagonalInterval},
	}
	p.Shuffle(plan)
	return plan
}

// Shuffle permutes the plan in place.
func (p *Planner) Shuffle(plan []model.TapPoint) {
	p.rnd.Shuffle(len(plan), func(i, j int) {
		plan[i], plan[j] = plan[j], plan[i]
	})
}

// PlanSize returns the number of points Build produces.
func PlanSize() int {
	n := 1 + len(cardinalAngles) + infillCount
	for _, ring := range Rings {
		n += RingSize(ring)
	}
	return n
}

// RingSize returns the number of angles visited for a ring.
func RingSize(ring Ring) int {
	if ring.Step <= 0 {
		return 0
	}
	return (359 / ring.Step) + 1
}

func polar(center model.Point, r, theta float64, interval time.Duration) model.TapPoint {
	return model.TapPoint{
		X:        center.X + int(r*math.Cos(theta)),
		Y:        center.Y + int(r*math.Sin(theta)),
		Interval: interval,
	}
}

func degrees(angle int) float64 {
	return float64(angle) * math.Pi / 180
}
