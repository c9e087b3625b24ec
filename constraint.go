package bones

import "math"

// IKConstraint rotates a bone (chain 0) or a bone and its parent (chain 1)
// so the end of the chain reaches the target bone. It is solved while the
// chain's root bone updates, after the target is resolved.
type IKConstraint struct {
	// Weight blends between the unconstrained pose (0) and the solution (1).
	Weight float64
	// BendPositive picks which of the two two-bone solutions is used.
	BendPositive bool

	data     *IKConstraintData
	armature *Armature
	target   *Bone
	bone     *Bone
	root     *Bone

	prevWeight float64
	prevBend   bool
}

func (c *IKConstraint) reset() {
	c.Weight = 0
	c.BendPositive = false
	c.data = nil
	c.armature = nil
	c.target = nil
	c.bone = nil
	c.root = nil
	c.prevWeight = 0
	c.prevBend = false
}

func (c *IKConstraint) init(a *Armature, data *IKConstraintData, target, bone, root *Bone) {
	c.data = data
	c.armature = a
	c.target = target
	c.bone = bone
	c.root = root
	c.Weight = data.Weight
	c.BendPositive = data.BendPositive
	// Differing from the current values forces a first solve.
	c.prevWeight = math.NaN()
	c.prevBend = !data.BendPositive
}

// Name returns the constraint's name.
func (c *IKConstraint) Name() string { return c.data.Name }

// Target returns the bone the chain reaches for.
func (c *IKConstraint) Target() *Bone { return c.target }

// Bone returns the end bone of the chain.
func (c *IKConstraint) Bone() *Bone { return c.bone }

// Root returns the first bone of the chain: Bone's parent for a two-bone
// chain, Bone itself otherwise.
func (c *IKConstraint) Root() *Bone { return c.root }

// pending reports whether the solution may have changed since the last tick.
func (c *IKConstraint) pending() bool {
	if c.Weight != c.prevWeight || c.BendPositive != c.prevBend {
		return true
	}
	if c.Weight <= 0 {
		return false
	}
	return c.target.dirty != dirtyNone || (c.bone != c.root && c.bone.dirty != dirtyNone)
}

// cacheable reports whether the solution only depends on cacheable inputs.
func (c *IKConstraint) cacheable() bool {
	return c.Weight == c.data.Weight && c.BendPositive == c.data.BendPositive &&
		c.target.cacheable && c.bone.offsetCacheable()
}

// apply solves the constraint. The root's global transform must be the
// unconstrained pose for this tick.
func (c *IKConstraint) apply() {
	c.prevWeight = c.Weight
	c.prevBend = c.BendPositive
	if c.Weight <= 0 {
		return
	}
	if c.bone == c.root {
		c.solveOne()
		return
	}
	c.bone.resolveGlobal()
	c.solveTwo()
	c.bone.constrained = true
}

// solveOne aims the bone's x axis at the target. Global rotation is the
// direction of the x axis, so mirrored bones need no extra correction.
func (c *IKConstraint) solveOne() {
	g := &c.root.global
	t := c.target.global
	radian := math.Atan2(t.Y-g.Y, t.X-g.X)
	g.Rotation += NormalizeRadian(radian-g.Rotation) * c.Weight
	c.root.globalMat = g.Matrix()
}

// solveTwo runs the law-of-cosines solve for a parent and child bone.
func (c *IKConstraint) solveTwo() {
	parent := c.root
	pg := &parent.global
	g := &c.bone.global
	t := c.target.global
	m := c.bone.globalMat

	x := m[0] * c.bone.data.Length
	y := m[1] * c.bone.data.Length
	lLL := x*x + y*y
	lL := math.Sqrt(lLL)
	dX := g.X - pg.X
	dY := g.Y - pg.Y
	lPP := dX*dX + dY*dY
	lP := math.Sqrt(lPP)
	rawRadian := g.Rotation
	rawParentRadian := pg.Rotation
	rawRadianA := math.Atan2(dY, dX)

	dX = t.X - pg.X
	dY = t.Y - pg.Y
	lTT := dX*dX + dY*dY
	lT := math.Sqrt(lTT)

	var radianA float64
	if lL+lP <= lT || lT+lL <= lP || lT+lP <= lL {
		// Out of reach (fully extended, ties included) or folded back.
		radianA = math.Atan2(dY, dX)
		if lL+lP > lT && lP < lL {
			radianA += math.Pi
		}
	} else {
		h := (lPP - lLL + lTT) / (2 * lTT)
		r := math.Sqrt(lPP-h*h*lTT) / lT
		hX := pg.X + dX*h
		hY := pg.Y + dY*h
		rX := -dY * r
		rY := dX * r
		var ex, ey float64
		if c.parentMirrored() != c.BendPositive {
			ex, ey = hX-rX, hY-rY
		} else {
			ex, ey = hX+rX, hY+rY
		}
		radianA = math.Atan2(ey-pg.Y, ex-pg.X)
	}

	dR := NormalizeRadian(radianA - rawRadianA)
	pg.Rotation = rawParentRadian + dR*c.Weight
	parent.globalMat = pg.Matrix()

	current := rawRadianA + dR*c.Weight
	g.X = pg.X + math.Cos(current)*lP
	g.Y = pg.Y + math.Sin(current)*lP
	radianB := math.Atan2(t.Y-g.Y, t.X-g.X)
	g.Rotation = pg.Rotation + rawRadian - rawParentRadian +
		NormalizeRadian(radianB-dR-rawRadian)*c.Weight
	c.bone.globalMat = g.Matrix()
}

// parentMirrored reports whether the space the chain root lives in is
// mirrored: the root's parent matrix, or the armature flip for root bones.
func (c *IKConstraint) parentMirrored() bool {
	if pp := c.root.parent; pp != nil {
		return pp.globalMat.Determinant() < 0
	}
	return c.armature.flipX != c.armature.flipY
}
