package bones

import (
	"fmt"
	"slices"
	"time"
)

// Armature is one runtime instance of an ArmatureData: its bones, slots,
// constraints and animation states. Armatures are built by a Factory and
// advanced by AdvanceTime, directly or through a WorldClock.
//
// An Armature is not safe for concurrent use.
type Armature struct {
	// UserData is an arbitrary payload for the host.
	UserData any

	data      *ArmatureData
	pool      *Pool
	animation *Animation
	proxy     DisplayProxy
	parent    *Slot
	clock     *WorldClock

	bones       []*Bone // definition order
	sortedBones []*Bone // parents and IK targets first
	slots       []*Slot // definition order
	drawOrder   []*Slot
	constraints []*IKConstraint
	// constraintsEdited is set once constraints are added or removed at
	// runtime. The shared frame cache only holds poses of the data's
	// constraint set, so such an armature never reads or writes it.
	constraintsEdited bool

	flipX, flipY    bool
	bonesDirty      bool
	zOrder          []int // slot indexes in draw order, nil for the default
	zOrderDirty     bool
	zOrderWritten   bool
	cacheFrameIndex int

	listeners listenerRegistry
	sink      EventSink
	events    []*EventObject
	actions   []pendingAction

	locked         bool
	disposePending bool
	disposed       bool
	debug          bool
}

func newArmature(data *ArmatureData, pool *Pool, cfg Config) *Armature {
	a := &Armature{
		data:            data,
		pool:            pool,
		proxy:           NopProxy{},
		bonesDirty:      true,
		cacheFrameIndex: -1,
	}
	a.animation = newAnimation(a, cfg)
	for _, bd := range data.Bones {
		b := pool.bones.acquire()
		b.init(a, bd)
		a.bones = append(a.bones, b)
	}
	for i, bd := range data.Bones {
		if bd.parent >= 0 {
			a.bones[i].parent = a.bones[bd.parent]
		}
	}
	for _, sd := range data.Slots {
		s := pool.slots.acquire()
		s.init(a, sd, a.bones[sd.bone])
		a.slots = append(a.slots, s)
	}
	for _, cd := range data.Constraints {
		a.addConstraint(cd, a.bones[cd.target], a.bones[cd.bone], a.bones[cd.root])
	}
	a.applyDefaultZOrder()
	a.resortSlots()
	return a
}

// Name returns the armature's name.
func (a *Armature) Name() string { return a.data.Name }

// Data returns the armature's static definition.
func (a *Armature) Data() *ArmatureData { return a.data }

// Animation returns the armature's animation controller.
func (a *Armature) Animation() *Animation { return a.animation }

// Parent returns the slot hosting this armature as its display, or nil for
// a top-level armature.
func (a *Armature) Parent() *Slot { return a.parent }

// Proxy returns the display proxy receiving slot changes.
func (a *Armature) Proxy() DisplayProxy { return a.proxy }

// SetProxy routes slot changes to p, which also becomes the proxy of nested
// armatures. Every slot is reported as changed on the next tick. Nil
// installs a NopProxy.
func (a *Armature) SetProxy(p DisplayProxy) {
	if p == nil {
		p = NopProxy{}
	}
	a.proxy = p
	for _, s := range a.slots {
		s.changes = changeEverything
		for _, child := range s.children {
			if child != nil {
				child.SetProxy(p)
			}
		}
	}
	a.zOrderDirty = true
}

// SetDebugMode enables per-tick timing stats for this armature and turns
// package debug mode on or off. Package debug mode makes programmer errors
// panic and prints warnings to stderr.
func (a *Armature) SetDebugMode(enabled bool) {
	a.debug = enabled
	globalDebug = enabled
}

// IsDisposed reports whether Dispose has taken effect.
func (a *Armature) IsDisposed() bool { return a.disposed }

// GetBones returns the bones in definition order. The slice is owned by the
// armature.
func (a *Armature) GetBones() []*Bone { return a.bones }

// GetSlots returns the slots in definition order. The slice is owned by the
// armature.
func (a *Armature) GetSlots() []*Slot { return a.slots }

// Constraints returns the armature's IK constraints.
func (a *Armature) Constraints() []*IKConstraint { return a.constraints }

// GetBone returns the named bone, or nil.
func (a *Armature) GetBone(name string) *Bone {
	b := a.bone(name)
	if globalDebug {
		debugCheckFound(b != nil, "bone", name, "GetBone")
	}
	return b
}

// GetSlot returns the named slot, or nil.
func (a *Armature) GetSlot(name string) *Slot {
	s := a.slot(name)
	if globalDebug {
		debugCheckFound(s != nil, "slot", name, "GetSlot")
	}
	return s
}

// GetConstraint returns the named IK constraint, or nil.
func (a *Armature) GetConstraint(name string) *IKConstraint {
	for _, c := range a.constraints {
		if c.data.Name == name {
			return c
		}
	}
	return nil
}

// GetBoneByDisplay returns the bone of the slot that lists display, or nil.
func (a *Armature) GetBoneByDisplay(display *DisplayData) *Bone {
	if s := a.GetSlotByDisplay(display); s != nil {
		return s.bone
	}
	return nil
}

// GetSlotByDisplay returns the slot that lists display, or nil.
func (a *Armature) GetSlotByDisplay(display *DisplayData) *Slot {
	if display == nil {
		return nil
	}
	for _, s := range a.slots {
		if slices.Contains(s.data.Displays, display) {
			return s
		}
	}
	return nil
}

func (a *Armature) bone(name string) *Bone {
	if i, ok := a.data.boneIndex[name]; ok && !a.disposed {
		return a.bones[i]
	}
	return nil
}

func (a *Armature) slot(name string) *Slot {
	if i, ok := a.data.slotIndex[name]; ok && !a.disposed {
		return a.slots[i]
	}
	return nil
}

// FlipX reports whether the armature is mirrored horizontally.
func (a *Armature) FlipX() bool { return a.flipX }

// FlipY reports whether the armature is mirrored vertically.
func (a *Armature) FlipY() bool { return a.flipY }

// SetFlip mirrors the armature. Root bones take diag(±1, ±1) as their
// parent matrix; the frame cache is bypassed while flipped.
func (a *Armature) SetFlip(flipX, flipY bool) {
	if a.flipX == flipX && a.flipY == flipY {
		return
	}
	a.flipX, a.flipY = flipX, flipY
	for _, b := range a.bones {
		b.InvalidUpdate()
	}
}

func (a *Armature) flipped() bool { return a.flipX || a.flipY }

func (a *Armature) flipMatrix() Matrix {
	m := IdentityMatrix
	if a.flipX {
		m[0] = -1
	}
	if a.flipY {
		m[3] = -1
	}
	return m
}

// CacheFrameRate returns the frame cache rate of the armature's data, or 0
// when caching is off.
func (a *Armature) CacheFrameRate() float64 { return a.data.CacheFrameRate }

// SetCacheFrameRate rebuilds the frame cache of the armature's data at
// rate, or disables it for rate <= 0. The cache is shared by every armature
// built from the same data.
func (a *Armature) SetCacheFrameRate(rate float64) {
	a.data.setCacheFrameRate(rate)
}

// InvalidUpdate forces the named bone, or every bone when boneName is
// empty, to recompute on the next tick. With updateSlotDisplay the slots of
// those bones also report their display as changed.
func (a *Armature) InvalidUpdate(boneName string, updateSlotDisplay bool) {
	var target *Bone
	if boneName != "" {
		if target = a.GetBone(boneName); target == nil {
			return
		}
	}
	for _, b := range a.bones {
		if target == nil || b == target {
			b.InvalidUpdate()
		}
	}
	if !updateSlotDisplay {
		return
	}
	for _, s := range a.slots {
		if target == nil || s.bone == target {
			s.changes |= changeDisplay
		}
	}
}

// AddIKConstraint adds a constraint at runtime. It returns nil when a named
// bone does not exist. It panics if the target depends on the chain, which
// would make the bones impossible to order.
func (a *Armature) AddIKConstraint(data *IKConstraintData) *IKConstraint {
	if data == nil {
		panic("bones: cannot add nil constraint")
	}
	bone := a.GetBone(data.Bone)
	target := a.GetBone(data.Target)
	if bone == nil || target == nil {
		return nil
	}
	root := bone
	if data.Chain > 0 && bone.parent != nil {
		root = bone.parent
	}
	if a.dependsOn(target, root) {
		panic(fmt.Sprintf("bones: constraint %q target %q depends on its own chain", data.Name, data.Target))
	}
	a.constraintsEdited = true
	return a.addConstraint(data, target, bone, root)
}

// RemoveIKConstraint removes a constraint added to the armature.
func (a *Armature) RemoveIKConstraint(c *IKConstraint) {
	i := slices.Index(a.constraints, c)
	if i < 0 {
		return
	}
	a.constraints = slices.Delete(a.constraints, i, i+1)
	c.root.constraints = slices.DeleteFunc(c.root.constraints, func(x *IKConstraint) bool { return x == c })
	c.root.InvalidUpdate()
	c.bone.InvalidUpdate()
	a.bonesDirty = true
	a.constraintsEdited = true
	a.pool.constraints.release(c)
}

func (a *Armature) addConstraint(data *IKConstraintData, target, bone, root *Bone) *IKConstraint {
	c := a.pool.constraints.acquire()
	c.init(a, data, target, bone, root)
	root.constraints = append(root.constraints, c)
	a.constraints = append(a.constraints, c)
	a.bonesDirty = true
	return c
}

// dependsOn reports whether b must update after dep: dep is b, one of its
// ancestors, or a dependency of a constraint rooted on the way up.
func (a *Armature) dependsOn(b, dep *Bone) bool {
	seen := make(map[*Bone]bool)
	stack := []*Bone{b}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n == dep {
			return true
		}
		if seen[n] {
			continue
		}
		seen[n] = true
		if n.parent != nil {
			stack = append(stack, n.parent)
		}
		for _, c := range n.constraints {
			stack = append(stack, c.target)
		}
	}
	return false
}

// sortBones orders bones so that parents and IK targets update before the
// bones that depend on them. Ties keep definition order.
func (a *Armature) sortBones() {
	a.bonesDirty = false
	n := len(a.bones)
	indegree := make([]int, n)
	dependents := make([][]int, n)
	link := func(from, to *Bone) {
		dependents[from.data.index] = append(dependents[from.data.index], to.data.index)
		indegree[to.data.index]++
	}
	for _, b := range a.bones {
		if b.parent != nil {
			link(b.parent, b)
		}
		for _, c := range b.constraints {
			link(c.target, b)
		}
	}
	a.sortedBones = a.sortedBones[:0]
	queue := make([]int, 0, n)
	for i := range n {
		if indegree[i] == 0 {
			queue = append(queue, i)
		}
	}
	for len(queue) > 0 {
		slices.Sort(queue)
		i := queue[0]
		queue = queue[1:]
		b := a.bones[i]
		a.sortedBones = append(a.sortedBones, b)
		if globalDebug {
			debugCheckBoneDepth(b)
		}
		for _, j := range dependents[i] {
			indegree[j]--
			if indegree[j] == 0 {
				queue = append(queue, j)
			}
		}
	}
	if len(a.sortedBones) != n {
		panic(fmt.Sprintf("bones: armature %q has a dependency cycle", a.Name()))
	}
}

// applyZOrder sets the draw order sampled by an animation state. The first
// state to write during a tick wins. A nil order restores the default.
func (a *Armature) applyZOrder(order []int) {
	if a.zOrderWritten {
		return
	}
	a.zOrderWritten = true
	if slices.Equal(order, a.zOrder) {
		return
	}
	a.zOrder = order
	a.zOrderDirty = true
}

func (a *Armature) applyDefaultZOrder() {
	a.zOrder = nil
	a.zOrderDirty = true
}

// resortSlots rebuilds the draw order from the current z-order.
func (a *Armature) resortSlots() {
	a.zOrderDirty = false
	for i, s := range a.slots {
		s.zOrder = i
	}
	for pos, si := range a.zOrder {
		a.slots[si].zOrder = pos
	}
	a.drawOrder = append(a.drawOrder[:0], a.slots...)
	slices.SortStableFunc(a.drawOrder, func(x, y *Slot) int { return x.zOrder - y.zOrder })
}

// DrawOrder returns the slots back to front. The slice is owned by the
// armature and changes when the z-order does.
func (a *Armature) DrawOrder() []*Slot { return a.drawOrder }

// RemoveEventListener unregisters a listener. Equivalent to h.Remove().
func (a *Armature) RemoveEventListener(h ListenerHandle) {
	if h.reg == &a.listeners {
		h.Remove()
	}
}

// AdvanceTime advances the armature by passedTime seconds: animation
// states are sampled and blended, bones and slots are resolved, nested
// armatures advance, then buffered actions and events are delivered.
// Dispose calls made meanwhile take effect once the tick is over.
func (a *Armature) AdvanceTime(passedTime float64) {
	if globalDebug {
		debugCheckDisposed(a, "AdvanceTime")
	}
	if a.disposed || a.locked {
		return
	}
	a.locked = true

	var stats debugStats
	var t0 time.Time
	if a.debug {
		t0 = time.Now()
	}

	a.cacheFrameIndex = -1
	a.zOrderWritten = false
	for _, b := range a.bones {
		b.beginPose()
	}
	for _, s := range a.slots {
		s.beginPose()
	}
	a.animation.advanceTime(passedTime)
	for _, b := range a.bones {
		b.commitPose()
	}
	for _, s := range a.slots {
		s.commitPose()
	}
	if a.bonesDirty {
		a.sortBones()
	}
	if a.zOrderDirty {
		a.resortSlots()
		a.proxy.DrawOrderChanged(a)
	}
	if a.debug {
		now := time.Now()
		stats.animationTime = now.Sub(t0)
		t0 = now
	}

	cfi := a.cacheFrameIndex
	if a.flipped() {
		cfi = -1
	}
	for _, b := range a.sortedBones {
		b.update(cfi, &stats)
	}
	if a.debug {
		now := time.Now()
		stats.boneTime = now.Sub(t0)
		t0 = now
	}

	for _, s := range a.slots {
		s.update(a.proxy)
	}
	childTime := passedTime * a.animation.TimeScale
	for _, s := range a.slots {
		if child := s.ChildArmature(); child != nil {
			child.AdvanceTime(childTime)
		}
	}
	for _, b := range a.bones {
		b.dirty = dirtyNone
	}
	if a.debug {
		now := time.Now()
		stats.slotTime = now.Sub(t0)
		t0 = now
	}

	a.flush()
	if a.debug {
		stats.flushTime = time.Since(t0)
	}
	a.locked = false

	if a.disposePending {
		a.disposeNow()
	}
	a.debugLog(stats)
}

// Dispose releases the armature's bones, slots, states and nested
// armatures to the pool. Inside AdvanceTime (from a listener, say) the
// teardown waits until the tick is over. A disposed nested armature is
// detached from its slot.
func (a *Armature) Dispose() {
	if a.disposed {
		return
	}
	if a.locked {
		a.disposePending = true
		return
	}
	a.disposeNow()
}

func (a *Armature) disposeNow() {
	if a.disposed {
		return
	}
	a.disposed = true
	a.disposePending = false
	if a.clock != nil {
		a.clock.Remove(a)
	}
	if p := a.parent; p != nil {
		for i, child := range p.children {
			if child == a {
				p.children[i] = nil
				if i == p.displayIndex {
					p.changes |= changeDisplay
				}
			}
		}
		a.parent = nil
	}

	a.animation.release()
	for _, s := range a.slots {
		s.dispose(a.proxy)
		a.pool.slots.release(s)
	}
	for _, c := range a.constraints {
		a.pool.constraints.release(c)
	}
	for _, b := range a.bones {
		a.pool.bones.release(b)
	}
	for _, e := range a.events {
		a.pool.events.release(e)
	}
	clear(a.events)
	clear(a.actions)
	a.events, a.actions = nil, nil
	a.bones, a.sortedBones, a.slots, a.drawOrder, a.constraints = nil, nil, nil, nil, nil
	a.sink = nil
	a.listeners = listenerRegistry{}
	a.UserData = nil
}
