package bones

import "math"

// dirtyState tracks why a bone must recompute during the current tick.
type dirtyState uint8

const (
	dirtyNone dirtyState = iota // global transform is current
	dirtySelf                   // local inputs changed: recompute this bone
	dirtyAll                    // recomputed this tick: dependents must follow
)

// Bone is a runtime transform node of an Armature. Its local pose combines
// the bind pose, the procedural Offset and the blended animation pose; its
// global transform composes that with the parent according to the
// inheritance flags of its BoneData.
type Bone struct {
	// Offset is a procedural pose applied on top of the animation. Changes
	// are picked up on the next tick.
	Offset Transform
	// OffsetMode selects how Offset, bind pose and animation combine.
	OffsetMode OffsetMode

	data     *BoneData
	armature *Armature
	parent   *Bone
	visible  bool

	origin    Transform // bind pose with zero scales substituted
	pose      Transform // animation pose accumulated this tick
	prevPose  Transform
	blend     blendState
	prevOff   Transform
	prevMode  OffsetMode
	global    Transform
	globalMat Matrix
	dirty     dirtyState

	constraints []*IKConstraint // constraints solved when this bone updates
	constrained bool            // global already set by a constraint this tick

	cacheIndices []int // frame index -> cache entry for the cached animation
	cachedFrame  int   // cache entry the global was read from or written to
	cacheable    bool
}

func (b *Bone) reset() {
	b.Offset = IdentityTransform()
	b.OffsetMode = OffsetAdditive
	b.data = nil
	b.armature = nil
	b.parent = nil
	b.visible = true
	b.origin = IdentityTransform()
	b.pose = IdentityTransform()
	b.prevPose = IdentityTransform()
	b.blend.clear()
	b.prevOff = IdentityTransform()
	b.prevMode = OffsetAdditive
	b.global = IdentityTransform()
	b.globalMat = IdentityMatrix
	b.dirty = dirtyNone
	clear(b.constraints)
	b.constraints = b.constraints[:0]
	b.constrained = false
	b.cacheIndices = nil
	b.cachedFrame = -1
	b.cacheable = false
}

func (b *Bone) init(a *Armature, data *BoneData) {
	b.data = data
	b.armature = a
	b.origin = data.Pose
	// A zero scale collapses the basis and loses the rotation children inherit.
	if b.origin.ScaleX == 0 {
		b.origin.ScaleX = minBindScale
	}
	if b.origin.ScaleY == 0 {
		b.origin.ScaleY = minBindScale
	}
	b.dirty = dirtySelf
}

// Name returns the bone's name.
func (b *Bone) Name() string { return b.data.Name }

// Data returns the bone's static definition.
func (b *Bone) Data() *BoneData { return b.data }

// Parent returns the parent bone, or nil for a root bone.
func (b *Bone) Parent() *Bone { return b.parent }

// Armature returns the armature that owns the bone.
func (b *Bone) Armature() *Armature { return b.armature }

// Global returns the decomposed transform in armature space.
func (b *Bone) Global() Transform { return b.global }

// GlobalMatrix returns the bone's matrix in armature space.
func (b *Bone) GlobalMatrix() Matrix { return b.globalMat }

// AnimationPose returns the pose blended from all animation states during
// the last tick, relative to the bind pose.
func (b *Bone) AnimationPose() Transform { return b.pose }

// Visible reports whether slots attached to the bone are shown.
func (b *Bone) Visible() bool { return b.visible }

// SetVisible shows or hides every slot attached to the bone.
func (b *Bone) SetVisible(v bool) {
	if b.visible == v {
		return
	}
	b.visible = v
	for _, s := range b.armature.slots {
		if s.bone == b {
			s.changes |= changeVisible
		}
	}
}

// InvalidUpdate forces the bone to recompute on the next tick.
func (b *Bone) InvalidUpdate() {
	if b.dirty == dirtyNone {
		b.dirty = dirtySelf
	}
}

// Slots returns the slots attached to the bone.
func (b *Bone) Slots() []*Slot {
	var out []*Slot
	for _, s := range b.armature.slots {
		if s.bone == b {
			out = append(out, s)
		}
	}
	return out
}

// Contains reports whether child is b or one of its descendants.
func (b *Bone) Contains(child *Bone) bool {
	for p := child; p != nil; p = p.parent {
		if p == b {
			return true
		}
	}
	return false
}

// beginPose clears the accumulator before the animation states write it.
func (b *Bone) beginPose() {
	b.blend.clear()
}

// accumulate adds one weighted timeline sample to the pose.
func (b *Bone) accumulate(t Transform, weight float64, layer int) {
	if !b.blend.update(weight, layer) {
		return
	}
	w := b.blend.blendWeight
	if b.blend.first() {
		b.pose = Transform{
			X:        t.X * w,
			Y:        t.Y * w,
			Rotation: t.Rotation * w,
			Skew:     t.Skew * w,
			ScaleX:   (t.ScaleX-1)*w + 1,
			ScaleY:   (t.ScaleY-1)*w + 1,
		}
		return
	}
	b.pose.X += t.X * w
	b.pose.Y += t.Y * w
	b.pose.Rotation += t.Rotation * w
	b.pose.Skew += t.Skew * w
	b.pose.ScaleX += (t.ScaleX - 1) * w
	b.pose.ScaleY += (t.ScaleY - 1) * w
}

// commitPose finishes the accumulation. A bone no state wrote keeps its
// previous pose; any change to the pose or offset marks the bone dirty.
func (b *Bone) commitPose() {
	if b.pose != b.prevPose || b.Offset != b.prevOff || b.OffsetMode != b.prevMode {
		b.prevPose = b.pose
		b.prevOff = b.Offset
		b.prevMode = b.OffsetMode
		if b.dirty == dirtyNone {
			b.dirty = dirtySelf
		}
	}
}

// localPose combines bind pose, offset and animation pose per OffsetMode.
func (b *Bone) localPose() Transform {
	switch b.OffsetMode {
	case OffsetIndependent:
		return b.Offset
	case OffsetOverride:
		return b.origin.Add(b.pose)
	default:
		return b.origin.Add(b.Offset).Add(b.pose)
	}
}

// resolveGlobal recomputes the global transform from the local pose and the
// parent (or, for root bones, the armature flip).
func (b *Bone) resolveGlobal() {
	local := b.localPose()
	m := local.Matrix()
	d := b.data
	switch {
	case b.parent == nil:
		if b.armature.flipped() {
			m = multiplyAffine(b.armature.flipMatrix(), m)
		}
	case d.InheritTranslation && d.InheritRotation && d.InheritScale:
		m = multiplyAffine(b.parent.globalMat, m)
	default:
		m = b.inheritPartial(local, m)
	}
	b.globalMat = m
	b.global = TransformFromMatrix(m)
}

// inheritPartial composes m with the channels of the parent this bone
// inherits. Channels it does not inherit are taken from the armature basis.
func (b *Bone) inheritPartial(local Transform, m Matrix) Matrix {
	d := b.data
	p := b.parent.globalMat
	f := b.armature.flipMatrix()
	var basis Matrix
	switch {
	case d.InheritRotation && d.InheritScale:
		basis = Matrix{p[0], p[1], p[2], p[3], 0, 0}
	case d.InheritRotation:
		sin, cos := math.Sincos(b.parent.global.Rotation)
		sign := 1.0
		if p.Determinant() < 0 {
			sign = -1
		}
		basis = Matrix{cos, sin, -sin * sign, cos * sign, 0, 0}
	case d.InheritScale:
		g := b.parent.global
		basis = Matrix{f[0] * g.ScaleX, 0, 0, f[3] * g.ScaleY, 0, 0}
	default:
		basis = Matrix{f[0], f[1], f[2], f[3], 0, 0}
	}
	g := multiplyAffine(basis, m)
	if d.InheritTranslation {
		g[4], g[5] = transformPoint(p, local.X, local.Y)
	} else {
		g[4], g[5] = transformPoint(f, local.X, local.Y)
	}
	return g
}

// offsetCacheable reports whether the procedural offset leaves the pose a
// pure function of the animation time.
func (b *Bone) offsetCacheable() bool {
	return b.OffsetMode != OffsetIndependent && b.Offset == IdentityTransform()
}

func (b *Bone) canCache(cacheFrameIndex int) bool {
	if cacheFrameIndex < 0 || b.cacheIndices == nil || !b.offsetCacheable() {
		return false
	}
	if b.armature.constraintsEdited {
		return false
	}
	if b.parent != nil && !b.parent.cacheable {
		return false
	}
	for _, c := range b.constraints {
		if !c.cacheable() {
			return false
		}
	}
	return true
}

// chainCached reports whether every bone solved by this bone's constraints
// already has a cache entry for the frame.
func (b *Bone) chainCached(cacheFrameIndex int) bool {
	for _, c := range b.constraints {
		if c.bone != b && (c.bone.cacheIndices == nil || c.bone.cacheIndices[cacheFrameIndex] < 0) {
			return false
		}
	}
	return true
}

func (b *Bone) constraintsPending() bool {
	for _, c := range b.constraints {
		if c.pending() {
			return true
		}
	}
	return false
}

// update brings the global transform up to date for the current tick.
func (b *Bone) update(cacheFrameIndex int, stats *debugStats) {
	b.cacheable = b.canCache(cacheFrameIndex)
	store := &b.armature.data.cache
	if b.cacheable {
		if idx := b.cacheIndices[cacheFrameIndex]; idx >= 0 && b.chainCached(cacheFrameIndex) {
			if idx != b.cachedFrame {
				b.globalMat = store.matrices[idx]
				b.global = store.globals[idx]
				b.cachedFrame = idx
				b.dirty = dirtyAll
			} else {
				b.dirty = dirtyNone
			}
			b.constrained = false
			stats.bonesCached++
			return
		}
	}

	parentChanged := b.parent != nil && b.parent.dirty == dirtyAll
	switch {
	case b.constrained:
		b.constrained = false
		b.dirty = dirtyAll
		stats.bonesUpdated++
	case b.dirty != dirtyNone || parentChanged || b.constraintsPending():
		b.resolveGlobal()
		b.dirty = dirtyAll
		for _, c := range b.constraints {
			c.apply()
		}
		stats.bonesUpdated++
	default:
		stats.bonesSkipped++
	}

	b.cachedFrame = -1
	if b.cacheable {
		b.cachedFrame = store.add(b.globalMat, b.global)
		b.cacheIndices[cacheFrameIndex] = b.cachedFrame
	}
}
