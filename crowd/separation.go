// Package crowd implements CrowdSeparation: a local steering correction
// blended into an AI entity's intended velocity so moving bodies flow
// around each other instead of overlapping, without fighting the path
// direction a PathfindingScheduler result already committed to.
package crowd

import (
	"math"
	"math/rand/v2"

	"github.com/arenacore/simcore/entities"
)

// QuantizeBucket is the query-cache key quantization grid (spec §6).
const QuantizeBucket = 8.0

const (
	minRadius        = 24.0
	maxQueryRadius    = 96.0
	emergencyDistance = 0.5
)

// Neighbor is a candidate body considered for separation. Callers
// pre-filter to dynamic/kinematic, non-trigger bodies excluding self,
// typically via a CollisionEngine area query.
type Neighbor struct {
	Position entities.Vec2
}

// Config tunes one entity's separation response.
type Config struct {
	Radius        float32 // base separation radius; spec default 24px
	Strength      float32 // base blend strength, pre-adaptive-scaling
	NeighborLimit int     // neighbors considered before saturation kicks in
	Wrap          *WorldBounds // non-nil enables toroidal-wrap distance/direction
}

// DefaultConfig mirrors the spec's stated defaults.
func DefaultConfig() Config {
	return Config{Radius: 24, Strength: 0.4, NeighborLimit: 6}
}

// QueryRadius computes the neighbor-fetch radius for the given speed and
// config, per spec §4.5 step 1: clamp(speed/120, 1, 1.5) * max(radius, 24),
// capped at 96.
func QueryRadius(speed float32, cfg Config) float32 {
	base := cfg.Radius
	if base < minRadius {
		base = minRadius
	}
	scale := speed / 120
	if scale < 1 {
		scale = 1
	}
	if scale > 1.5 {
		scale = 1.5
	}
	r := scale * base
	if r > maxQueryRadius {
		r = maxQueryRadius
	}
	return r
}

// Separate blends intendedVelocity with a repulsion term derived from
// neighbors, per spec §4.5 steps 2-5. rng supplies the emergency-push
// random direction; pass a per-tick seeded *rand.Rand for deterministic
// replay.
func Separate(position, intendedVelocity entities.Vec2, speed float32, cfg Config, neighbors []Neighbor, rng *rand.Rand) entities.Vec2 {
	radius := cfg.Radius
	if radius < minRadius {
		radius = minRadius
	}
	criticalHalf := radius * 0.5

	var criticalVec, normalVec entities.Vec2
	criticalCount := 0
	normalCount := 0
	closest := float32(math.MaxFloat32)

	considered := len(neighbors)
	if cfg.NeighborLimit > 0 && considered > cfg.NeighborLimit {
		considered = cfg.NeighborLimit
	}

	for i := 0; i < considered; i++ {
		n := neighbors[i]
		var dx, dy float32
		if cfg.Wrap != nil {
			// away-from-neighbor direction: delta from neighbor to self.
			dx, dy = toroidalDelta(n.Position.X, n.Position.Y, position.X, position.Y, cfg.Wrap.Width, cfg.Wrap.Height)
		} else {
			dx = position.X - n.Position.X
			dy = position.Y - n.Position.Y
		}
		dist := float32(math.Sqrt(float64(dx*dx + dy*dy)))
		if dist < closest {
			closest = dist
		}

		switch {
		case dist < emergencyDistance:
			dir := randomUnit(rng)
			criticalVec = criticalVec.Add(dir)
			criticalCount++
		case dist < criticalHalf:
			dir := entities.Vec2{X: dx / dist, Y: dy / dist}
			weight := 1 - dist/criticalHalf
			w := weight * weight * 3.0
			criticalVec = criticalVec.Add(entities.Vec2{X: dir.X * w, Y: dir.Y * w})
			criticalCount++
		case dist < radius:
			dir := entities.Vec2{X: dx / dist, Y: dy / dist}
			weight := 1 - dist/radius
			normalVec = normalVec.Add(entities.Vec2{X: dir.X * weight, Y: dir.Y * weight})
			normalCount++
		}
	}

	strength := adaptiveStrength(cfg, considered, closest, radius)

	sep := entities.Vec2{X: criticalVec.X + normalVec.X, Y: criticalVec.Y + normalVec.Y}
	targetSpeed := speed
	if targetSpeed == 0 {
		targetSpeed = length(intendedVelocity)
	}
	intendedDir := normalize(intendedVelocity)

	switch {
	case criticalCount > 0:
		perp := perpendicularToward(intendedDir, sep)
		out := entities.Vec2{
			X: intendedDir.X*0.6 + perp.X*0.8,
			Y: intendedDir.Y*0.6 + perp.Y*0.8,
		}
		return scaleTo(out, targetSpeed)

	// sep points away from the neighbors, so a neighbor ahead on the
	// direction of travel makes sep point backward: negate the dot so
	// "conflict" means "neighbor in the way", not "neighbor behind".
	case length(sep) > 0 && -dot(normalize(sep), intendedDir) > 0.7:
		perp := perpendicularToward(intendedDir, sep)
		out := entities.Vec2{
			X: intendedDir.X*0.85 + perp.X*strength*1.2,
			Y: intendedDir.Y*0.85 + perp.Y*strength*1.2,
		}
		return scaleTo(out, targetSpeed)

	default:
		out := entities.Vec2{
			X: intendedVelocity.X*(1-strength*0.35) + sep.X*strength*speed*0.5,
			Y: intendedVelocity.Y*(1-strength*0.35) + sep.Y*strength*speed*0.5,
		}
		return scaleTo(out, targetSpeed)
	}
}

// adaptiveStrength bumps the base strength when neighbor pressure is high,
// then caps the result to the spec's 0.5-0.6 band.
func adaptiveStrength(cfg Config, consideredCount int, closest, radius float32) float32 {
	s := cfg.Strength
	if cfg.NeighborLimit > 0 && consideredCount >= cfg.NeighborLimit {
		s *= 1.5
	}
	if closest < radius*0.7 {
		s *= 1.3
	}
	if s < 0.5 {
		s = 0.5
	}
	if s > 0.6 {
		s = 0.6
	}
	return s
}

// perpendicularToward picks whichever perpendicular to dir points more
// toward avoid, so the steer correction turns away from the crowding
// neighbors rather than an arbitrary fixed side.
func perpendicularToward(dir, avoid entities.Vec2) entities.Vec2 {
	left := entities.Vec2{X: -dir.Y, Y: dir.X}
	right := entities.Vec2{X: dir.Y, Y: -dir.X}
	if dot(left, avoid) >= dot(right, avoid) {
		return left
	}
	return right
}

func randomUnit(rng *rand.Rand) entities.Vec2 {
	var angle float64
	if rng != nil {
		angle = rng.Float64() * 2 * math.Pi
	}
	return entities.Vec2{X: float32(math.Cos(angle)), Y: float32(math.Sin(angle))}
}

func length(v entities.Vec2) float32 {
	return float32(math.Sqrt(float64(v.X*v.X + v.Y*v.Y)))
}

func normalize(v entities.Vec2) entities.Vec2 {
	l := length(v)
	if l == 0 {
		return entities.Vec2{}
	}
	return entities.Vec2{X: v.X / l, Y: v.Y / l}
}

func dot(a, b entities.Vec2) float32 {
	return a.X*b.X + a.Y*b.Y
}

func scaleTo(v entities.Vec2, target float32) entities.Vec2 {
	n := normalize(v)
	return entities.Vec2{X: n.X * target, Y: n.Y * target}
}
