package math

import "testing"

func TestClamp(t *testing.T) {
	tests := []struct {
		name         string
		v, low, high int
		want         int
	}{
		{"below", -3, 0, 5, 0},
		{"inside", 3, 0, 5, 3},
		{"above", 9, 0, 5, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Clamp(tt.v, tt.low, tt.high); got != tt.want {
				t.Errorf("Clamp(%d, %d, %d) = %d, want %d", tt.v, tt.low, tt.high, got, tt.want)
			}
		})
	}
}

func TestIsPowerOfTwo(t *testing.T) {
	for _, v := range []int{1, 2, 4, 256, 4096} {
		if !IsPowerOfTwo(v) {
			t.Errorf("IsPowerOfTwo(%d) = false", v)
		}
	}
	for _, v := range []int{0, -2, 3, 6, 100} {
		if IsPowerOfTwo(v) {
			t.Errorf("IsPowerOfTwo(%d) = true", v)
		}
	}
}

func TestMat4MultiplyPoint(t *testing.T) {
	trs := NewMat4TRS(NewVec3(1, 2, 3), NewQuatIdentity(), NewVec3(2, 2, 2))
	got := trs.MultiplyPoint(NewVec3(1, 1, 1))
	want := NewVec3(3, 4, 5)
	if !got.Compare(want, 1e-5) {
		t.Errorf("MultiplyPoint = %+v, want %+v", got, want)
	}
	if v := trs.MultiplyVector(NewVec3(1, 0, 0)); !v.Compare(NewVec3(2, 0, 0), 1e-5) {
		t.Errorf("MultiplyVector ignored scale or applied translation: %+v", v)
	}
}

func TestMat4IdentityMul(t *testing.T) {
	m := NewMat4Translation(NewVec3(4, 5, 6))
	if got := m.Mul(NewMat4Identity()); got != m {
		t.Errorf("m * I = %+v, want %+v", got, m)
	}
	if !NewMat4Identity().IsIdentity() {
		t.Error("identity is not identity")
	}
}

func TestBoundsFromPoints(t *testing.T) {
	b := BoundsFromPoints([]Vec3{{-1, 0, 0}, {1, 2, 0}, {0, 0, 4}})
	if !b.Min().Compare(NewVec3(-1, 0, 0), 1e-6) || !b.Max().Compare(NewVec3(1, 2, 4), 1e-6) {
		t.Errorf("bounds = [%+v, %+v]", b.Min(), b.Max())
	}
	if (BoundsFromPoints(nil) != Bounds{}) {
		t.Error("empty point set should produce zero bounds")
	}
}

func TestColorRoundTrip(t *testing.T) {
	c := Color32{R: 10, G: 128, B: 255, A: 0}
	if got := c.ToColor().ToColor32(); got != c {
		t.Errorf("Color32 round trip = %+v, want %+v", got, c)
	}
}

func TestGeometryGenerateNormals(t *testing.T) {
	positions := []Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}
	normals := GeometryGenerateNormals(positions, []uint32{0, 1, 2})
	for i, n := range normals {
		if !n.Compare(NewVec3(0, 0, 1), 1e-6) {
			t.Errorf("normal[%d] = %+v, want +Z", i, n)
		}
	}
}

func TestQuatFromAxisAngleRotatesPoint(t *testing.T) {
	q := NewQuatFromAxisAngle(NewVec3(0, 0, 2), K_PI/2, true)
	got := NewMat4FromQuat(q).MultiplyPoint(NewVec3(1, 0, 0))
	if kabs(got.X) > 1e-5 || kabs(got.Y-1) > 1e-5 || kabs(got.Z) > 1e-5 {
		t.Errorf("rotating +X a quarter turn around +Z = %v, want +Y", got)
	}
	if id := NewQuatFromAxisAngle(NewVec3(0, 1, 0), 0, false); id != NewQuatIdentity() {
		t.Errorf("zero angle = %v, want identity", id)
	}
}
