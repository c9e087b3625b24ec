package bones

import "math"

// Matrix is a 2D affine matrix stored as [a, b, c, d, tx, ty]:
//
//	| a  c  tx |
//	| b  d  ty |
//	| 0  0   1 |
type Matrix [6]float64

// IdentityMatrix is the identity affine matrix.
var IdentityMatrix = Matrix{1, 0, 0, 1, 0, 0}

// Transform is a decomposed affine transform. Rotation is the direction of
// the x axis; Skew is the extra angle of the y axis relative to it.
// All angles are in radians.
type Transform struct {
	X, Y           float64
	Rotation, Skew float64
	ScaleX, ScaleY float64
}

// IdentityTransform returns a transform with unit scale and no translation,
// rotation or skew.
func IdentityTransform() Transform {
	return Transform{ScaleX: 1, ScaleY: 1}
}

// Matrix composes the transform: scale, then skew the y axis, then rotate,
// then translate.
func (t Transform) Matrix() Matrix {
	sin, cos := math.Sincos(t.Rotation)
	if t.Skew == 0 {
		return Matrix{
			cos * t.ScaleX, sin * t.ScaleX,
			-sin * t.ScaleY, cos * t.ScaleY,
			t.X, t.Y,
		}
	}
	sinY, cosY := math.Sincos(t.Rotation + t.Skew)
	return Matrix{
		cos * t.ScaleX, sin * t.ScaleX,
		-sinY * t.ScaleY, cosY * t.ScaleY,
		t.X, t.Y,
	}
}

// Add combines t with an offset the way bone poses stack: translation,
// rotation and skew are summed, scale is multiplied.
func (t Transform) Add(o Transform) Transform {
	return Transform{
		X:        t.X + o.X,
		Y:        t.Y + o.Y,
		Rotation: t.Rotation + o.Rotation,
		Skew:     t.Skew + o.Skew,
		ScaleX:   t.ScaleX * o.ScaleX,
		ScaleY:   t.ScaleY * o.ScaleY,
	}
}

// TransformFromMatrix decomposes m. Scales come back positive; a mirrored
// matrix (negative determinant) is expressed through rotation and skew.
func TransformFromMatrix(m Matrix) Transform {
	rotation := math.Atan2(m[1], m[0])
	yAngle := math.Atan2(-m[2], m[3])
	return Transform{
		X:        m[4],
		Y:        m[5],
		Rotation: rotation,
		Skew:     NormalizeRadian(yAngle - rotation),
		ScaleX:   math.Hypot(m[0], m[1]),
		ScaleY:   math.Hypot(m[2], m[3]),
	}
}

// Concat returns parent * m: m expressed in the space parent maps into.
func (m Matrix) Concat(parent Matrix) Matrix {
	return multiplyAffine(parent, m)
}

// Invert returns the inverse of m, or the identity if m is singular.
func (m Matrix) Invert() Matrix {
	return invertAffine(m)
}

// TransformPoint transforms the point (x, y) by m.
func (m Matrix) TransformPoint(x, y float64) (float64, float64) {
	return transformPoint(m, x, y)
}

// Determinant returns the determinant of the linear part.
func (m Matrix) Determinant() float64 {
	return m[0]*m[3] - m[2]*m[1]
}

// multiplyAffine multiplies two 2D affine matrices: result = parent * child.
func multiplyAffine(p, c Matrix) Matrix {
	return Matrix{
		p[0]*c[0] + p[2]*c[1],
		p[1]*c[0] + p[3]*c[1],
		p[0]*c[2] + p[2]*c[3],
		p[1]*c[2] + p[3]*c[3],
		p[0]*c[4] + p[2]*c[5] + p[4],
		p[1]*c[4] + p[3]*c[5] + p[5],
	}
}

// invertAffine computes the inverse of a 2D affine matrix.
// Returns the identity matrix if the matrix is singular (determinant ≈ 0).
func invertAffine(m Matrix) Matrix {
	det := m.Determinant()
	if det > -1e-12 && det < 1e-12 {
		return IdentityMatrix
	}
	invDet := 1.0 / det
	a := m[3] * invDet
	b := -m[1] * invDet
	c := -m[2] * invDet
	d := m[0] * invDet
	return Matrix{
		a, b, c, d,
		-(a*m[4] + c*m[5]),
		-(b*m[4] + d*m[5]),
	}
}

// transformPoint applies an affine matrix to a point.
func transformPoint(m Matrix, x, y float64) (float64, float64) {
	return m[0]*x + m[2]*y + m[4], m[1]*x + m[3]*y + m[5]
}

// NormalizeRadian wraps r into (-π, π].
func NormalizeRadian(r float64) float64 {
	r = math.Mod(r+math.Pi, 2*math.Pi)
	if r <= 0 {
		r += 2 * math.Pi
	}
	return r - math.Pi
}
