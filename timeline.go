package bones

import "math"

// boneTimeline samples one bone's tracks for one animation state. A nil
// data holds the bind pose for states that reset untouched bones.
type boneTimeline struct {
	bone *Bone
	data *BoneTimelineData
}

func (t *boneTimeline) reset() {
	t.bone = nil
	t.data = nil
}

// sample returns the pose offset at time, relative to the bind pose.
func (t *boneTimeline) sample(time float64) Transform {
	out := IdentityTransform()
	d := t.data
	if d == nil {
		return out
	}
	if k := d.translate.locate(time); k >= 0 {
		f := d.Translate[k]
		out.X, out.Y = f.X, f.Y
		if p := d.translate.progress(k, time); p > 0 {
			n := d.Translate[k+1]
			out.X += (n.X - f.X) * p
			out.Y += (n.Y - f.Y) * p
		}
	}
	if k := d.rotate.locate(time); k >= 0 {
		f := d.Rotate[k]
		out.Rotation, out.Skew = f.Rotation, f.Skew
		if p := d.rotate.progress(k, time); p > 0 {
			n := d.Rotate[k+1]
			out.Rotation += rotationDelta(f.Rotation, n.Rotation, f.TweenRotate) * p
			out.Skew += (n.Skew - f.Skew) * p
		}
	}
	if k := d.scale.locate(time); k >= 0 {
		f := d.Scale[k]
		out.ScaleX, out.ScaleY = f.X, f.Y
		if p := d.scale.progress(k, time); p > 0 {
			n := d.Scale[k+1]
			out.ScaleX += (n.X - f.X) * p
			out.ScaleY += (n.Y - f.Y) * p
		}
	}
	return out
}

// rotationDelta returns the signed angle to interpolate through from one
// keyframe rotation to the next. turns == 0 takes the short way. Otherwise
// |turns| full revolutions are made in the sign's direction, counting the
// raw difference as one when it already points that way.
func rotationDelta(from, to float64, turns int) float64 {
	d := to - from
	if turns == 0 {
		return NormalizeRadian(d)
	}
	if turns > 0 && d >= 0 {
		turns--
	} else if turns < 0 && d <= 0 {
		turns++
	}
	return d + 2*math.Pi*float64(turns)
}

// slotTimeline samples one slot's tracks for one animation state. A nil
// data resets the slot to its defaults.
type slotTimeline struct {
	slot *Slot
	data *SlotTimelineData
}

func (t *slotTimeline) reset() {
	t.slot = nil
	t.data = nil
}

func (t *slotTimeline) sampleDisplay(time float64, group string) {
	s := t.slot
	index := s.data.DisplayIndex
	if t.data != nil {
		k := t.data.display.locate(time)
		if k < 0 {
			return
		}
		index = t.data.Display[k].Index
	}
	if s.controlsDisplay(group) {
		s.writeDisplay(index)
	}
}

func (t *slotTimeline) sampleColor(time, weight float64, layer int) {
	s := t.slot
	if t.data == nil {
		s.accumulateColor(s.data.Color, weight, layer)
		return
	}
	k := t.data.color.locate(time)
	if k < 0 {
		return
	}
	c := t.data.Color[k].Color
	if p := t.data.color.progress(k, time); p > 0 {
		n := t.data.Color[k+1].Color
		c = ColorTransform{
			AlphaMultiplier: c.AlphaMultiplier + (n.AlphaMultiplier-c.AlphaMultiplier)*p,
			RedMultiplier:   c.RedMultiplier + (n.RedMultiplier-c.RedMultiplier)*p,
			GreenMultiplier: c.GreenMultiplier + (n.GreenMultiplier-c.GreenMultiplier)*p,
			BlueMultiplier:  c.BlueMultiplier + (n.BlueMultiplier-c.BlueMultiplier)*p,
			AlphaOffset:     c.AlphaOffset + (n.AlphaOffset-c.AlphaOffset)*p,
			RedOffset:       c.RedOffset + (n.RedOffset-c.RedOffset)*p,
			GreenOffset:     c.GreenOffset + (n.GreenOffset-c.GreenOffset)*p,
			BlueOffset:      c.BlueOffset + (n.BlueOffset-c.BlueOffset)*p,
		}
	}
	s.accumulateColor(c, weight, layer)
}

func (t *slotTimeline) sampleDeform(time, weight float64, layer int) {
	s := t.slot
	if t.data == nil {
		// Contribute zero offsets so the mesh relaxes to its rest shape.
		if s.deformDisplay >= 0 {
			s.deformBuffer(s.deformDisplay, weight, layer)
		}
		return
	}
	k := t.data.deform.locate(time)
	if k < 0 {
		return
	}
	f := t.data.Deform[k]
	buf, w := s.deformBuffer(f.Display, weight, layer)
	if buf == nil {
		return
	}
	var n *DeformFrame
	p := t.data.deform.progress(k, time)
	if p > 0 && t.data.Deform[k+1].Display == f.Display {
		n = t.data.Deform[k+1]
	}
	for i := range buf {
		v := deformAt(f, i)
		if n != nil {
			v += (deformAt(n, i) - v) * p
		}
		buf[i] += v * w
	}
}

func deformAt(f *DeformFrame, i int) float64 {
	j := i - f.Offset
	if j < 0 || j >= len(f.Vertices) {
		return 0
	}
	return f.Vertices[j]
}

// sampleZOrder applies the draw order of the state's z-order track, or the
// default order when the state resets untouched properties.
func (s *AnimationState) sampleZOrder(time float64) {
	a := s.armature
	track := &s.data.zOrder
	if track.empty() {
		if s.ResetToPose {
			a.applyZOrder(nil)
		}
		return
	}
	k := track.locate(time)
	a.applyZOrder(s.data.ZOrder[k].order)
}

// sampleActions emits the action keyframes crossed since the previous
// sample. Forward the interval is (prev, cur], backward [cur, prev). The
// first sample also includes the start position. Loops are unrolled over
// the unbounded total time, at most one pass per call.
func (s *AnimationState) sampleActions() {
	cur := s.totalTime
	prev := s.prevTotal
	s.prevTotal = cur
	if !s.sampled {
		s.sampled = true
		if cur >= prev {
			prev = math.Nextafter(prev, math.Inf(-1))
		} else {
			prev = math.Nextafter(prev, math.Inf(1))
		}
	}
	if cur == prev || !s.ActionEnabled || s.data.actions.empty() {
		return
	}
	d := s.duration
	if d <= 0 {
		if cur > prev {
			s.fireForward(prev, cur)
		}
		return
	}
	if cur > prev {
		prev = math.Max(prev, cur-d)
		s.fireForward(prev, cur)
	} else {
		prev = math.Min(prev, cur+d)
		s.fireBackward(cur, prev)
	}
}

// loopInDomain reports whether loop l exists for the state's play count.
// An endless state has every loop, including the negative ones it reaches
// when playing in reverse.
func (s *AnimationState) loopInDomain(l int) bool {
	if s.playTimes <= 0 {
		return true
	}
	return l >= 0 && l < s.playTimes
}

func (s *AnimationState) fireForward(from, to float64) {
	frames := s.data.Actions
	d := s.duration
	if len(frames) == 0 {
		return
	}
	if d <= 0 {
		// A zero-length clip only has its start, reached by the first sample.
		if from < 0 && to >= 0 {
			for _, f := range frames {
				s.fireFrame(f)
			}
		}
		return
	}
	for l := int(math.Floor(from / d)); l <= int(math.Floor(to/d)); l++ {
		if !s.loopInDomain(l) {
			continue
		}
		base := float64(l) * d
		for _, f := range frames {
			t := base + f.Position
			if t > from && t <= to {
				s.fireFrame(f)
			}
		}
	}
}

func (s *AnimationState) fireBackward(from, to float64) {
	frames := s.data.Actions
	d := s.duration
	if len(frames) == 0 || d <= 0 {
		return
	}
	for l := int(math.Floor(to / d)); l >= int(math.Floor(from/d)); l-- {
		if !s.loopInDomain(l) {
			continue
		}
		base := float64(l) * d
		for i := len(frames) - 1; i >= 0; i-- {
			t := base + frames[i].Position
			if t >= from && t < to {
				s.fireFrame(frames[i])
			}
		}
	}
}

func (s *AnimationState) fireFrame(f *ActionFrame) {
	for _, action := range f.Actions {
		s.armature.queueAction(action, s, f.Position)
	}
}
