package bones

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"sort"
)

const (
	defaultFrameRate = 24
	curveSampleCount = 20
	minBindScale     = 1e-4
)

// PrepareReport lists the parts of a rig that Prepare skipped because they
// referenced bones, slots or displays that do not exist.
type PrepareReport struct {
	Skipped []string
}

func (r *PrepareReport) skip(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	r.Skipped = append(r.Skipped, msg)
	debugWarn("skipped %s", msg)
}

// Report returns what the last Prepare call skipped.
func (r *RigData) Report() PrepareReport { return r.report }

// Prepare resolves names to indexes and builds the lookup tables used during
// playback. Malformed entries are skipped and listed in Report. Prepare only
// fails when the rig cannot be used at all. Calling it again is a no-op.
func (r *RigData) Prepare() error {
	if r.prepared {
		return nil
	}
	if len(r.Armatures) == 0 {
		return fmt.Errorf("prepare rig %q: %w", r.Name, errors.New("no armatures"))
	}
	r.report = PrepareReport{}
	r.armatureIndex = make(map[string]*ArmatureData, len(r.Armatures))
	for _, d := range r.Armatures {
		if d == nil {
			return fmt.Errorf("prepare rig %q: %w", r.Name, errors.New("nil armature"))
		}
		if _, dup := r.armatureIndex[d.Name]; dup {
			return fmt.Errorf("prepare rig %q: duplicate armature %q", r.Name, d.Name)
		}
		r.armatureIndex[d.Name] = d
	}
	for _, d := range r.Armatures {
		d.rig = r
		d.prepare(&r.report)
	}
	r.prepared = true
	return nil
}

func (d *ArmatureData) prepare(report *PrepareReport) {
	if d.FrameRate <= 0 {
		d.FrameRate = d.rig.FrameRate
	}
	if d.FrameRate <= 0 {
		d.FrameRate = defaultFrameRate
	}
	d.prepareBones(report)
	d.prepareSlots(report)
	d.prepareConstraints(report)

	d.animationIndex = make(map[string]*AnimationData, len(d.Animations))
	anims := d.Animations[:0]
	for _, a := range d.Animations {
		if a == nil {
			continue
		}
		if _, dup := d.animationIndex[a.Name]; dup {
			report.skip("armature %q: duplicate animation %q", d.Name, a.Name)
			continue
		}
		a.armature = d
		a.prepare(report)
		d.animationIndex[a.Name] = a
		anims = append(anims, a)
	}
	d.Animations = anims
	if d.DefaultAnimation == "" && len(anims) > 0 {
		d.DefaultAnimation = anims[0].Name
	} else if d.DefaultAnimation != "" && d.animationIndex[d.DefaultAnimation] == nil {
		report.skip("armature %q: default animation %q", d.Name, d.DefaultAnimation)
		d.DefaultAnimation = ""
	}

	rate := d.CacheFrameRate
	d.CacheFrameRate = 0
	d.setCacheFrameRate(rate)
}

func (d *ArmatureData) prepareBones(report *PrepareReport) {
	d.boneIndex = make(map[string]int, len(d.Bones))
	bones := d.Bones[:0]
	for _, b := range d.Bones {
		if b == nil {
			continue
		}
		if _, dup := d.boneIndex[b.Name]; dup {
			report.skip("armature %q: duplicate bone %q", d.Name, b.Name)
			continue
		}
		b.index = len(bones)
		d.boneIndex[b.Name] = b.index
		bones = append(bones, b)
	}
	d.Bones = bones

	for _, b := range d.Bones {
		b.parent = -1
		if b.Parent == "" {
			continue
		}
		p, ok := d.boneIndex[b.Parent]
		if !ok {
			report.skip("armature %q: bone %q parent %q (bone kept as root)", d.Name, b.Name, b.Parent)
			continue
		}
		b.parent = p
	}
	// Parent loops cannot be sorted; cut each one at the bone that closes it.
	for _, b := range d.Bones {
		steps := 0
		for p := b.parent; p >= 0; p = d.Bones[p].parent {
			if p == b.index || steps > len(d.Bones) {
				report.skip("armature %q: bone %q parent loop (bone kept as root)", d.Name, b.Name)
				b.parent = -1
				break
			}
			steps++
		}
	}
}

func (d *ArmatureData) prepareSlots(report *PrepareReport) {
	d.slotIndex = make(map[string]int, len(d.Slots))
	slots := d.Slots[:0]
	for _, s := range d.Slots {
		if s == nil {
			continue
		}
		bi, ok := d.boneIndex[s.Bone]
		if !ok {
			report.skip("armature %q: slot %q bone %q", d.Name, s.Name, s.Bone)
			continue
		}
		if _, dup := d.slotIndex[s.Name]; dup {
			report.skip("armature %q: duplicate slot %q", d.Name, s.Name)
			continue
		}
		s.bone = bi
		s.index = len(slots)
		d.slotIndex[s.Name] = s.index
		if s.DisplayIndex >= len(s.Displays) {
			s.DisplayIndex = len(s.Displays) - 1
		}
		for _, disp := range s.Displays {
			if disp == nil || disp.Mesh == nil {
				continue
			}
			for vi, bindings := range disp.Mesh.Weights {
				for i := range bindings {
					b := &bindings[i]
					b.bone = -1
					if idx, ok := d.boneIndex[b.Bone]; ok {
						b.bone = idx
					} else {
						report.skip("armature %q: slot %q vertex %d binding to bone %q", d.Name, s.Name, vi, b.Bone)
					}
				}
			}
		}
		slots = append(slots, s)
	}
	d.Slots = slots
}

func (d *ArmatureData) prepareConstraints(report *PrepareReport) {
	constraints := d.Constraints[:0]
	for _, c := range d.Constraints {
		if c == nil {
			continue
		}
		bi, ok := d.boneIndex[c.Bone]
		if !ok {
			report.skip("armature %q: constraint %q bone %q", d.Name, c.Name, c.Bone)
			continue
		}
		ti, ok := d.boneIndex[c.Target]
		if !ok {
			report.skip("armature %q: constraint %q target %q", d.Name, c.Name, c.Target)
			continue
		}
		c.bone, c.target, c.root = bi, ti, bi
		if c.Chain > 1 {
			report.skip("armature %q: constraint %q chain %d (clamped to 1)", d.Name, c.Name, c.Chain)
			c.Chain = 1
		}
		if c.Chain == 1 {
			if p := d.Bones[bi].parent; p >= 0 {
				c.root = p
			} else {
				c.Chain = 0
			}
		}
		if d.isAncestor(c.root, ti) {
			report.skip("armature %q: constraint %q target %q depends on its own chain", d.Name, c.Name, c.Target)
			continue
		}
		constraints = append(constraints, c)
	}
	d.Constraints = constraints
}

// isAncestor reports whether bone a is b or one of b's ancestors.
func (d *ArmatureData) isAncestor(a, b int) bool {
	for p := b; p >= 0; p = d.Bones[p].parent {
		if p == a {
			return true
		}
	}
	return false
}

func (a *AnimationData) prepare(report *PrepareReport) {
	d := a.armature
	if a.FrameRate <= 0 {
		a.FrameRate = d.FrameRate
	}
	if a.Duration < 0 || math.IsNaN(a.Duration) {
		a.Duration = 0
	}
	rate := float64(a.FrameRate)

	bones := a.Bones[:0]
	for _, t := range a.Bones {
		if t == nil {
			continue
		}
		bi, ok := d.boneIndex[t.Bone]
		if !ok {
			report.skip("animation %q: bone timeline %q", a.Name, t.Bone)
			continue
		}
		t.bone = bi
		t.translate = buildTrack(t.Translate, rate, a.Duration)
		t.rotate = buildTrack(t.Rotate, rate, a.Duration)
		t.scale = buildTrack(t.Scale, rate, a.Duration)
		bones = append(bones, t)
	}
	a.Bones = bones

	slots := a.Slots[:0]
	for _, t := range a.Slots {
		if t == nil {
			continue
		}
		si, ok := d.slotIndex[t.Slot]
		if !ok {
			report.skip("animation %q: slot timeline %q", a.Name, t.Slot)
			continue
		}
		t.slot = si
		t.display = buildTrack(t.Display, rate, a.Duration)
		t.color = buildTrack(t.Color, rate, a.Duration)
		t.deform = buildTrack(t.Deform, rate, a.Duration)
		slots = append(slots, t)
	}
	a.Slots = slots

	for _, f := range a.ZOrder {
		f.order = d.drawOrder(f.Offsets, a.Name, report)
	}
	a.zOrder = buildTrack(a.ZOrder, rate, a.Duration)
	a.actions = buildTrack(a.Actions, rate, a.Duration)
}

// drawOrder turns per-slot offsets into the full list of slot indexes in
// draw order. Slots without an offset keep their relative order and fill the
// positions left free.
func (d *ArmatureData) drawOrder(offsets []ZOrderOffset, anim string, report *PrepareReport) []int {
	n := len(d.Slots)
	if len(offsets) == 0 {
		return nil
	}
	type move struct{ slot, offset int }
	moves := make([]move, 0, len(offsets))
	for _, o := range offsets {
		si, ok := d.slotIndex[o.Slot]
		if !ok {
			report.skip("animation %q: z-order slot %q", anim, o.Slot)
			continue
		}
		moves = append(moves, move{si, o.Offset})
	}
	sort.SliceStable(moves, func(i, j int) bool { return moves[i].slot < moves[j].slot })

	order := make([]int, n)
	for i := range order {
		order[i] = -1
	}
	unchanged := make([]int, 0, n)
	original := 0
	for _, m := range moves {
		for original < m.slot {
			unchanged = append(unchanged, original)
			original++
		}
		pos := original + m.offset
		if pos < 0 || pos >= n || order[pos] >= 0 {
			report.skip("animation %q: z-order offset %d for slot %q", anim, m.offset, d.Slots[m.slot].Name)
			unchanged = append(unchanged, original)
		} else {
			order[pos] = original
		}
		original++
	}
	for original < n {
		unchanged = append(unchanged, original)
		original++
	}
	for i := n - 1; i >= 0; i-- {
		if order[i] < 0 {
			order[i] = unchanged[len(unchanged)-1]
			unchanged = unchanged[:len(unchanged)-1]
		}
	}
	return order
}

// keyTrack locates keyframes by time. indices maps an integer frame (at the
// animation frame rate) to the last keyframe starting at or before it.
type keyTrack struct {
	frames    []*Frame
	indices   []int
	frameRate float64
}

type framer interface {
	frame() *Frame
}

func buildTrack[F framer](frames []F, frameRate, duration float64) keyTrack {
	if len(frames) == 0 {
		return keyTrack{}
	}
	slices.SortStableFunc(frames, func(a, b F) int {
		pa, pb := a.frame().Position, b.frame().Position
		switch {
		case pa < pb:
			return -1
		case pa > pb:
			return 1
		}
		return 0
	})
	t := keyTrack{
		frames:    make([]*Frame, len(frames)),
		frameRate: frameRate,
	}
	for i, f := range frames {
		t.frames[i] = f.frame()
	}
	for i, f := range t.frames {
		end := duration
		if i+1 < len(t.frames) {
			end = t.frames[i+1].Position
		}
		f.duration = math.Max(end-f.Position, 0)
		f.samples = nil
		if f.Tween == TweenCurve && f.Curve != nil {
			f.samples = SampleBezier(*f.Curve, curveSampleCount)
		}
	}

	count := int(math.Ceil(duration*frameRate)) + 1
	t.indices = make([]int, count)
	k := 0
	for i := range t.indices {
		at := float64(i) / frameRate
		for k+1 < len(t.frames) && t.frames[k+1].Position <= at {
			k++
		}
		t.indices[i] = k
	}
	return t
}

func (t *keyTrack) empty() bool { return len(t.frames) == 0 }

// locate returns the index of the keyframe active at time: the last one
// starting at or before it, or the first keyframe when time precedes it.
func (t *keyTrack) locate(time float64) int {
	n := len(t.frames)
	if n == 0 {
		return -1
	}
	if n == 1 || time <= t.frames[0].Position {
		return 0
	}
	fi := int(time * t.frameRate)
	if fi >= len(t.indices) {
		fi = len(t.indices) - 1
	}
	if fi < 0 {
		fi = 0
	}
	lo := t.indices[fi]
	for lo > 0 && t.frames[lo].Position > time {
		lo--
	}
	hi := n - 1
	if fi+1 < len(t.indices) {
		hi = max(t.indices[fi+1], lo)
	}
	return lo + sort.Search(hi-lo, func(i int) bool {
		return t.frames[lo+i+1].Position > time
	})
}

// progress returns the eased interpolation progress inside keyframe k.
// The last keyframe and step keyframes hold their value.
func (t *keyTrack) progress(k int, time float64) float64 {
	f := t.frames[k]
	if k+1 >= len(t.frames) || f.Tween == TweenNone || f.duration <= 0 {
		return 0
	}
	p := (time - f.Position) / f.duration
	if p <= 0 {
		return 0
	}
	if p >= 1 {
		p = 1
	}
	switch f.Tween {
	case TweenCurve:
		if f.samples != nil {
			return CurveValue(p, f.samples)
		}
		return p
	default:
		return EaseValue(p, f.Easing)
	}
}

// frameCacheStore holds resolved bone transforms shared by every armature
// built from the same ArmatureData.
type frameCacheStore struct {
	matrices []Matrix
	globals  []Transform
}

func (s *frameCacheStore) add(m Matrix, g Transform) int {
	s.matrices = append(s.matrices, m)
	s.globals = append(s.globals, g)
	return len(s.matrices) - 1
}

// animationCache maps (bone, frame index) to a frameCacheStore entry.
type animationCache struct {
	rate       float64
	frameCount int
	bones      [][]int
}

func newAnimationCache(rate, duration float64, boneCount int) *animationCache {
	c := &animationCache{
		rate:       rate,
		frameCount: int(math.Ceil(duration*rate)) + 1,
		bones:      make([][]int, boneCount),
	}
	for i := range c.bones {
		row := make([]int, c.frameCount)
		for j := range row {
			row[j] = -1
		}
		c.bones[i] = row
	}
	return c
}

// frameIndex quantizes a play-head time to a cache frame index.
func (c *animationCache) frameIndex(t float64) int {
	i := int(math.Floor(t * c.rate))
	if i < 0 {
		return 0
	}
	if i >= c.frameCount {
		return c.frameCount - 1
	}
	return i
}

// setCacheFrameRate rebuilds every animation's cache table at rate, or
// disables caching when rate <= 0. Entries cached at another rate are
// discarded.
func (d *ArmatureData) setCacheFrameRate(rate float64) {
	if rate < 0 || math.IsNaN(rate) {
		rate = 0
	}
	if rate == d.CacheFrameRate {
		return
	}
	d.CacheFrameRate = rate
	d.cache = frameCacheStore{}
	for _, a := range d.Animations {
		a.cache = nil
		if rate > 0 {
			a.cache = newAnimationCache(rate, a.Duration, len(d.Bones))
		}
	}
}
