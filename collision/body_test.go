package collision

import "testing"

func TestOverlapsDetectsEdgeTouchingAsNoCollision(t *testing.T) {
	a := AABB{MinX: 0, MinY: 0, MaxX: 10, MaxY: 10}
	b := AABB{MinX: 10, MinY: 0, MaxX: 20, MaxY: 10}

	if _, _, hit := overlaps(a, b); hit {
		t.Fatalf("expected edge-touching boxes to not collide")
	}
}

func TestOverlapsComputesSmallerAxisMTV(t *testing.T) {
	tests := []struct {
		name       string
		a, b       AABB
		wantX      float32
		wantY      float32
	}{
		{
			// x-penetration (2) exceeds y-penetration (1): MTV pushes along y.
			name:  "shallower penetration is along y",
			a:     AABB{MinX: 0, MinY: 0, MaxX: 10, MaxY: 10},
			b:     AABB{MinX: 8, MinY: 9, MaxX: 18, MaxY: 19},
			wantX: 0,
			wantY: -1,
		},
		{
			// y-penetration (8) exceeds x-penetration (1): MTV pushes along x.
			name:  "shallower penetration is along x",
			a:     AABB{MinX: 0, MinY: 0, MaxX: 10, MaxY: 10},
			b:     AABB{MinX: 9, MinY: 2, MaxX: 19, MaxY: 12},
			wantX: -1,
			wantY: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mtvX, mtvY, hit := overlaps(tt.a, tt.b)
			if !hit {
				t.Fatalf("expected a collision")
			}
			if mtvX != tt.wantX || mtvY != tt.wantY {
				t.Fatalf("MTV = (%f, %f), want (%f, %f)", mtvX, mtvY, tt.wantX, tt.wantY)
			}
		})
	}
}

func TestShouldCollideWithRequiresBothEnabledAndMaskOverlap(t *testing.T) {
	a := &Body{Enabled: true, Layer: 0b01, CollidesWith: 0b10}
	b := &Body{Enabled: true, Layer: 0b10, CollidesWith: 0b01}
	if !shouldCollideWith(a, b) {
		t.Fatalf("expected matching masks to collide")
	}

	b.Enabled = false
	if shouldCollideWith(a, b) {
		t.Fatalf("expected disabled body to never collide")
	}

	b.Enabled = true
	b.CollidesWith = 0b100
	if shouldCollideWith(a, b) {
		t.Fatalf("expected mismatched masks to not collide")
	}
}
