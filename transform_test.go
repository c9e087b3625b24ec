package bones

import (
	"math"
	"testing"
)

const epsilon = 1e-9

func assertNear(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > epsilon {
		t.Errorf("%s = %v, want %v", name, got, want)
	}
}

func assertMatrix(t *testing.T, name string, got, want Matrix) {
	t.Helper()
	for i := range got {
		if math.Abs(got[i]-want[i]) > epsilon {
			t.Errorf("%s[%d] = %v, want %v (full: %v vs %v)", name, i, got[i], want[i], got, want)
		}
	}
}

func assertTransform(t *testing.T, name string, got, want Transform) {
	t.Helper()
	assertNear(t, name+".X", got.X, want.X)
	assertNear(t, name+".Y", got.Y, want.Y)
	assertNear(t, name+".Rotation", NormalizeRadian(got.Rotation-want.Rotation), 0)
	assertNear(t, name+".Skew", NormalizeRadian(got.Skew-want.Skew), 0)
	assertNear(t, name+".ScaleX", got.ScaleX, want.ScaleX)
	assertNear(t, name+".ScaleY", got.ScaleY, want.ScaleY)
}

// --- Transform.Matrix ---

func TestTransformMatrixIdentity(t *testing.T) {
	assertMatrix(t, "identity", IdentityTransform().Matrix(), IdentityMatrix)
}

func TestTransformMatrixTranslationScale(t *testing.T) {
	m := Transform{X: 10, Y: 20, ScaleX: 2, ScaleY: 3}.Matrix()
	assertMatrix(t, "m", m, Matrix{2, 0, 0, 3, 10, 20})
}

func TestTransformMatrixRotation90(t *testing.T) {
	m := Transform{Rotation: math.Pi / 2, ScaleX: 1, ScaleY: 1}.Matrix()
	assertMatrix(t, "rot90", m, Matrix{0, 1, -1, 0, 0, 0})
}

func TestTransformMatrixSkew(t *testing.T) {
	m := Transform{Skew: math.Pi / 2, ScaleX: 1, ScaleY: 2}.Matrix()
	// The y axis turns by rotation+skew.
	assertMatrix(t, "skew", m, Matrix{1, 0, -2, 0, 0, 0})
}

// --- TransformFromMatrix ---

func TestTransformFromMatrixRoundtrip(t *testing.T) {
	in := Transform{X: 5, Y: -7, Rotation: 0.7, Skew: 0.2, ScaleX: 1.5, ScaleY: 0.5}
	out := TransformFromMatrix(in.Matrix())
	assertTransform(t, "roundtrip", out, in)
}

func TestTransformFromMatrixMirrored(t *testing.T) {
	m := Matrix{-1, 0, 0, 1, 0, 0}
	tr := TransformFromMatrix(m)
	assertNear(t, "ScaleX", tr.ScaleX, 1)
	assertNear(t, "ScaleY", tr.ScaleY, 1)
	assertNear(t, "Rotation", tr.Rotation, math.Pi)
	assertNear(t, "Skew", tr.Skew, math.Pi)
	assertMatrix(t, "recomposed", tr.Matrix(), m)
}

// --- Matrix operations ---

func TestConcatIdentity(t *testing.T) {
	m := Matrix{2, 1, 3, 4, 5, 6}
	assertMatrix(t, "m.Concat(id)", m.Concat(IdentityMatrix), m)
	assertMatrix(t, "id.Concat(m)", IdentityMatrix.Concat(m), m)
}

func TestConcatTranslations(t *testing.T) {
	parent := Matrix{1, 0, 0, 1, 10, 20}
	child := Matrix{1, 0, 0, 1, 5, 3}
	assertMatrix(t, "translations", child.Concat(parent), Matrix{1, 0, 0, 1, 15, 23})
}

func TestConcatAssociative(t *testing.T) {
	a := Transform{X: 1, Y: 2, Rotation: 0.3, ScaleX: 2, ScaleY: 1}.Matrix()
	b := Transform{X: -4, Y: 0.5, Rotation: -1.1, Skew: 0.1, ScaleX: 1, ScaleY: 3}.Matrix()
	c := Transform{X: 7, Y: 7, Rotation: 2, ScaleX: 0.5, ScaleY: 0.5}.Matrix()
	left := c.Concat(b).Concat(a)
	right := c.Concat(b.Concat(a))
	assertMatrix(t, "associative", left, right)
}

func TestInvert(t *testing.T) {
	m := Transform{X: 10, Y: 20, Rotation: math.Pi / 3, ScaleX: 2, ScaleY: 3}.Matrix()
	assertMatrix(t, "m*inv", m.Invert().Concat(m), IdentityMatrix)
}

func TestInvertSingularReturnsIdentity(t *testing.T) {
	m := Matrix{0, 0, 0, 0, 5, 5}
	assertMatrix(t, "singular", m.Invert(), IdentityMatrix)
}

func TestTransformPointAndDeterminant(t *testing.T) {
	m := Matrix{0, 1, -1, 0, 10, 0}
	x, y := m.TransformPoint(1, 0)
	assertNear(t, "x", x, 10)
	assertNear(t, "y", y, 1)
	assertNear(t, "det", m.Determinant(), 1)
	assertNear(t, "mirrored det", Matrix{-1, 0, 0, 1, 0, 0}.Determinant(), -1)
}

func TestTransformAdd(t *testing.T) {
	a := Transform{X: 1, Y: 2, Rotation: 0.5, Skew: 0.1, ScaleX: 2, ScaleY: 3}
	b := Transform{X: 3, Y: 4, Rotation: 0.25, Skew: 0.2, ScaleX: 0.5, ScaleY: 2}
	got := a.Add(b)
	want := Transform{X: 4, Y: 6, Rotation: 0.75, Skew: 0.3, ScaleX: 1, ScaleY: 6}
	assertTransform(t, "add", got, want)
}

func TestNormalizeRadian(t *testing.T) {
	assertNear(t, "0", NormalizeRadian(0), 0)
	assertNear(t, "pi", NormalizeRadian(math.Pi), math.Pi)
	assertNear(t, "-pi", NormalizeRadian(-math.Pi), math.Pi)
	assertNear(t, "3pi/2", NormalizeRadian(3*math.Pi/2), -math.Pi/2)
	assertNear(t, "-5pi/2", NormalizeRadian(-5*math.Pi/2), -math.Pi/2)
}

func BenchmarkTransformMatrix(b *testing.B) {
	tr := Transform{X: 10, Y: 20, Rotation: 0.5, Skew: 0.1, ScaleX: 2, ScaleY: 3}
	b.ReportAllocs()
	for b.Loop() {
		_ = tr.Matrix()
	}
}

func BenchmarkConcat(b *testing.B) {
	p := Matrix{1, 0, 0, 1, 10, 20}
	c := Matrix{2, 0, 0, 2, 5, 3}
	b.ReportAllocs()
	for b.Loop() {
		_ = c.Concat(p)
	}
}
