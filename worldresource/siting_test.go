package worldresource

import (
	"testing"

	"github.com/arenacore/simcore/entities"
)

func TestHarvestableSiterDensityZeroNeverSites(t *testing.T) {
	s := NewHarvestableSiter(42, 0)
	for _, p := range []entities.Vec2{{X: 0, Y: 0}, {X: 500, Y: 500}, {X: 1234, Y: 77}} {
		if s.ShouldSiteAt(p) {
			t.Fatalf("density 0 siter should never site, got true at %v", p)
		}
	}
}

func TestHarvestableSiterDensityOneAlwaysSites(t *testing.T) {
	s := NewHarvestableSiter(42, 1)
	for _, p := range []entities.Vec2{{X: 0, Y: 0}, {X: 500, Y: 500}, {X: 1234, Y: 77}} {
		if !s.ShouldSiteAt(p) {
			t.Fatalf("density 1 siter should always site, got false at %v", p)
		}
	}
}

func TestHarvestableSiterIsDeterministicForSeed(t *testing.T) {
	a := NewHarvestableSiter(7, 0.5)
	b := NewHarvestableSiter(7, 0.5)
	pos := entities.Vec2{X: 321, Y: 654}
	if a.Sample(pos) != b.Sample(pos) {
		t.Fatalf("same seed should produce identical samples")
	}
}

func TestSiteHarvestablesInvokesPlaceAtLeastOnceAtFullDensity(t *testing.T) {
	s := NewHarvestableSiter(1, 1)
	var placed int
	SiteHarvestables(s, 256, 256, 64, func(pos entities.Vec2) { placed++ })
	if placed == 0 {
		t.Fatalf("expected full-density siting to place at least one harvestable")
	}
}
