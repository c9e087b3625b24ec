package bones

import (
	"math"
	"slices"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// fadeState is the weight ramp phase of an AnimationState.
type fadeState uint8

const (
	fadeStateFadingIn  fadeState = iota // weight ramps up to full
	fadeStateSteady                     // full weight
	fadeStateFadingOut                  // weight ramps down to zero
	fadeStateRemoved                    // zero weight; retired on the next tick
)

// AnimationState is one playing instance of an animation. It owns the
// timelines that sample the animation into the armature's bones and slots,
// its play-head, and its fade ramp. States are pooled: a handle must not be
// used after EventFadeOutComplete or after Animation.Stop removed it.
type AnimationState struct {
	// TimeScale multiplies the time the state advances by; negative plays
	// backward, zero freezes the play-head.
	TimeScale float64
	// Weight scales the state's contribution to the blend.
	Weight float64
	// AutoFadeOutTime, when >= 0, starts a fade-out of that length once the
	// state completes.
	AutoFadeOutTime float64
	// ResetToPose drives bones and slots the animation does not key back to
	// their bind pose.
	ResetToPose bool
	// DisplayControl lets the state drive display and z-order timelines.
	DisplayControl bool
	// ActionEnabled lets the state emit action and event keyframes.
	ActionEnabled bool

	name      string
	group     string
	layer     int
	playTimes int
	duration  float64
	data      *AnimationData
	animation *Animation
	armature  *Armature
	order     int // insertion sequence, keeps same-layer order stable

	playing          bool
	started          bool
	completed        bool
	totalTime        float64
	currentTime      float64
	currentPlayTimes int

	fade          fadeState
	fadeTween     *gween.Tween
	fadeProgress  float64
	fadeAnnounced bool
	fadeCurve     ease.TweenFunc
	pauseOnFade   bool

	boneMask       []string
	timelinesDirty bool
	boneTimelines  []*boneTimeline
	slotTimelines  []*slotTimeline

	sampled   bool
	prevTotal float64
}

func (s *AnimationState) reset() {
	s.TimeScale = 1
	s.Weight = 1
	s.AutoFadeOutTime = -1
	s.ResetToPose = true
	s.DisplayControl = true
	s.ActionEnabled = true
	s.name = ""
	s.group = ""
	s.layer = 0
	s.playTimes = 0
	s.duration = 0
	s.data = nil
	s.animation = nil
	s.armature = nil
	s.order = 0
	s.playing = false
	s.started = false
	s.completed = false
	s.totalTime = 0
	s.currentTime = 0
	s.currentPlayTimes = 0
	s.fade = fadeStateFadingIn
	s.fadeTween = nil
	s.fadeProgress = 0
	s.fadeAnnounced = false
	s.fadeCurve = nil
	s.pauseOnFade = false
	s.boneMask = s.boneMask[:0]
	s.timelinesDirty = false
	s.boneTimelines = s.boneTimelines[:0]
	s.slotTimelines = s.slotTimelines[:0]
	s.sampled = false
	s.prevTotal = 0
}

func (s *AnimationState) init(anim *Animation, data *AnimationData, cfg AnimationConfig, fadeInTime float64) {
	s.animation = anim
	s.armature = anim.armature
	s.data = data
	s.name = data.Name
	s.group = cfg.Group
	s.layer = cfg.Layer
	s.duration = data.Duration
	s.playTimes = cfg.PlayTimes
	if s.playTimes < 0 {
		s.playTimes = data.PlayTimes
	}
	s.TimeScale = cfg.TimeScale
	s.Weight = cfg.Weight
	s.AutoFadeOutTime = cfg.AutoFadeOutTime
	s.ResetToPose = cfg.ResetToPose
	s.DisplayControl = cfg.DisplayControl
	s.playing = true
	s.boneMask = append(s.boneMask, cfg.BoneMask...)
	s.timelinesDirty = true

	s.fadeCurve = cfg.FadeCurve
	if s.fadeCurve == nil {
		s.fadeCurve = anim.fadeCurve
	}
	s.fade = fadeStateFadingIn
	s.fadeTween = gween.New(0, 1, float32(math.Max(fadeInTime, 0)), s.fadeCurve)

	pos := math.Max(0, math.Min(cfg.Position, s.duration))
	if s.TimeScale < 0 && cfg.Position <= 0 {
		// Playing backward from the start means starting at the end.
		end := s.duration
		if s.playTimes > 0 {
			end *= float64(s.playTimes)
		}
		s.totalTime = end
	} else {
		s.totalTime = pos
	}
	s.resolvePlayhead(s.totalTime, false)
	s.prevTotal = s.totalTime
}

// Name returns the animation's name.
func (s *AnimationState) Name() string { return s.name }

// Data returns the animation definition being played.
func (s *AnimationState) Data() *AnimationData { return s.data }

// Group returns the group the state was started with.
func (s *AnimationState) Group() string { return s.group }

// Layer returns the blend layer. Higher layers take weight first.
func (s *AnimationState) Layer() int { return s.layer }

// PlayTimes returns the loop count; 0 loops forever.
func (s *AnimationState) PlayTimes() int { return s.playTimes }

// Duration returns the length of one loop in seconds.
func (s *AnimationState) Duration() float64 { return s.duration }

// TotalTime returns the unbounded play-head across all loops.
func (s *AnimationState) TotalTime() float64 { return s.totalTime }

// CurrentPlayTimes returns the number of loops completed so far.
func (s *AnimationState) CurrentPlayTimes() int { return s.currentPlayTimes }

// CurrentTime returns the play-head within the current loop.
func (s *AnimationState) CurrentTime() float64 { return s.currentTime }

// SetCurrentTime moves the play-head within the current loop. Action
// keyframes crossed by the move fire on the next tick.
func (s *AnimationState) SetCurrentTime(t float64) {
	if s.duration <= 0 {
		return
	}
	t = math.Max(0, math.Min(t, s.duration))
	loop := s.currentPlayTimes
	if s.playTimes > 0 && loop >= s.playTimes {
		loop = s.playTimes - 1
	}
	total := float64(loop)*s.duration + t
	s.completed = false
	s.totalTime = total
	s.resolvePlayhead(total, false)
}

// FadeProgress returns the fade ramp value in [0, 1].
func (s *AnimationState) FadeProgress() float64 { return s.fadeProgress }

// BlendWeight returns Weight scaled by the fade ramp: the weight the state
// blends with this tick.
func (s *AnimationState) BlendWeight() float64 { return s.Weight * s.fadeProgress }

// Play resumes the play-head.
func (s *AnimationState) Play() { s.playing = true }

// Stop pauses the play-head. The state keeps blending its current pose.
func (s *AnimationState) Stop() { s.playing = false }

// IsPlaying reports whether the play-head is running.
func (s *AnimationState) IsPlaying() bool { return s.playing && !s.completed }

// IsCompleted reports whether a finite state played all its loops.
func (s *AnimationState) IsCompleted() bool { return s.completed }

// IsFadeIn reports whether the state is fading in.
func (s *AnimationState) IsFadeIn() bool { return s.fade == fadeStateFadingIn }

// IsFadeOut reports whether the state is fading out.
func (s *AnimationState) IsFadeOut() bool { return s.fade == fadeStateFadingOut }

// IsFadeComplete reports whether the fade ramp reached its end.
func (s *AnimationState) IsFadeComplete() bool {
	return s.fade == fadeStateSteady || s.fade == fadeStateRemoved
}

// FadeOut ramps the state's weight to zero over fadeOutTime seconds, then
// removes it. pausePlayhead freezes the play-head during the fade.
func (s *AnimationState) FadeOut(fadeOutTime float64, pausePlayhead bool) {
	if s.fade == fadeStateFadingOut || s.fade == fadeStateRemoved {
		return
	}
	s.fade = fadeStateFadingOut
	s.fadeAnnounced = false
	s.DisplayControl = false
	s.pauseOnFade = pausePlayhead
	s.fadeTween = gween.New(float32(s.fadeProgress), 0, float32(math.Max(fadeOutTime, 0)), s.fadeCurve)
}

// remove drops the state without a fade. It is retired on the next tick.
func (s *AnimationState) remove() {
	s.fade = fadeStateRemoved
	s.fadeProgress = 0
	s.DisplayControl = false
	s.ActionEnabled = false
}

// AddBoneMask restricts the state to the named bone, and with recursive to
// its descendants too. A state without masks animates every bone.
func (s *AnimationState) AddBoneMask(name string, recursive bool) {
	root := s.armature.bone(name)
	if root == nil {
		if globalDebug {
			debugCheckFound(false, "bone", name, "AddBoneMask")
		}
		return
	}
	for _, b := range s.armature.bones {
		if b == root || (recursive && root.Contains(b)) {
			if !slices.Contains(s.boneMask, b.Name()) {
				s.boneMask = append(s.boneMask, b.Name())
			}
		}
	}
	s.timelinesDirty = true
}

// RemoveBoneMask removes the named bone, and with recursive its
// descendants, from the mask.
func (s *AnimationState) RemoveBoneMask(name string, recursive bool) {
	root := s.armature.bone(name)
	s.boneMask = slices.DeleteFunc(s.boneMask, func(n string) bool {
		if n == name {
			return true
		}
		if recursive && root != nil {
			if b := s.armature.bone(n); b != nil && root.Contains(b) {
				return true
			}
		}
		return false
	})
	s.timelinesDirty = true
}

// RemoveAllBoneMask clears the mask so the state animates every bone.
func (s *AnimationState) RemoveAllBoneMask() {
	s.boneMask = s.boneMask[:0]
	s.timelinesDirty = true
}

// ContainsBoneMask reports whether the state animates the named bone.
func (s *AnimationState) ContainsBoneMask(name string) bool {
	return len(s.boneMask) == 0 || slices.Contains(s.boneMask, name)
}

func (s *AnimationState) releaseTimelines() {
	pool := s.armature.pool
	for _, t := range s.boneTimelines {
		pool.boneTimelines.release(t)
	}
	clear(s.boneTimelines)
	s.boneTimelines = s.boneTimelines[:0]
	for _, t := range s.slotTimelines {
		pool.slotTimelines.release(t)
	}
	clear(s.slotTimelines)
	s.slotTimelines = s.slotTimelines[:0]
}

// buildTimelines creates the timelines for every masked bone and slot the
// animation keys, plus pose timelines for the rest when ResetToPose is set.
func (s *AnimationState) buildTimelines() {
	s.timelinesDirty = false
	s.releaseTimelines()
	a := s.armature
	pool := a.pool

	covered := make([]bool, len(a.bones))
	for _, td := range s.data.Bones {
		b := a.bones[td.bone]
		if !s.ContainsBoneMask(b.Name()) {
			continue
		}
		t := pool.boneTimelines.acquire()
		t.bone, t.data = b, td
		s.boneTimelines = append(s.boneTimelines, t)
		covered[td.bone] = true
	}
	if s.ResetToPose {
		for i, b := range a.bones {
			if !covered[i] && s.ContainsBoneMask(b.Name()) {
				t := pool.boneTimelines.acquire()
				t.bone = b
				s.boneTimelines = append(s.boneTimelines, t)
			}
		}
	}

	slotCovered := make([]bool, len(a.slots))
	for _, td := range s.data.Slots {
		sl := a.slots[td.slot]
		if !s.ContainsBoneMask(sl.bone.Name()) {
			continue
		}
		t := pool.slotTimelines.acquire()
		t.slot, t.data = sl, td
		s.slotTimelines = append(s.slotTimelines, t)
		slotCovered[td.slot] = true
	}
	if s.ResetToPose {
		for i, sl := range a.slots {
			if !slotCovered[i] && s.ContainsBoneMask(sl.bone.Name()) {
				t := pool.slotTimelines.acquire()
				t.slot = sl
				s.slotTimelines = append(s.slotTimelines, t)
			}
		}
	}
}

// cacheEligible reports whether the state's output is a pure function of
// its play-head, so resolved bones may be cached per frame.
func (s *AnimationState) cacheEligible() bool {
	return s.data.cache != nil && s.fade == fadeStateSteady && s.Weight == 1 &&
		s.ResetToPose && len(s.boneMask) == 0
}

func (s *AnimationState) advanceFade(dt float64) {
	if s.fade == fadeStateSteady || s.fade == fadeStateRemoved {
		return
	}
	if !s.fadeAnnounced {
		s.fadeAnnounced = true
		if s.fade == fadeStateFadingIn {
			s.armature.queueEvent(EventFadeIn, s, s.currentTime)
		} else {
			s.armature.queueEvent(EventFadeOut, s, s.currentTime)
		}
	}
	v, done := s.fadeTween.Update(float32(math.Abs(dt)))
	s.fadeProgress = float64(v)
	if !done {
		return
	}
	if s.fade == fadeStateFadingIn {
		s.fade = fadeStateSteady
		s.fadeProgress = 1
		s.armature.queueEvent(EventFadeInComplete, s, s.currentTime)
		return
	}
	s.fade = fadeStateRemoved
	s.fadeProgress = 0
	s.armature.queueEvent(EventFadeOutComplete, s, s.currentTime)
}

// advancePlayhead moves the play-head by delta and queues start, loop and
// completion events.
func (s *AnimationState) advancePlayhead(delta float64) {
	if !s.started {
		s.started = true
		s.armature.queueEvent(EventStart, s, s.currentTime)
	}
	if s.completed {
		return
	}
	prev := s.totalTime
	s.totalTime += delta
	s.resolvePlayhead(prev, true)
}

// resolvePlayhead clamps a finite play-head, derives the loop count and the
// time within the loop, and (with emit) queues crossed loop boundaries and
// completion. prev is the total time before the move.
func (s *AnimationState) resolvePlayhead(prev float64, emit bool) {
	d := s.duration
	if d <= 0 {
		s.currentTime = 0
		if emit && s.playTimes > 0 && !s.completed {
			s.completed = true
			s.currentPlayTimes = s.playTimes
			s.armature.queueEvent(EventComplete, s, 0)
			s.autoFadeOut()
		}
		return
	}
	completed := false
	end := float64(s.playTimes) * d
	if s.playTimes > 0 {
		switch {
		case s.totalTime >= end:
			s.totalTime = end
			completed = true
		case s.totalTime <= 0 && s.totalTime < prev:
			s.totalTime = 0
			completed = true
		}
	}

	loops := int(math.Floor(s.totalTime / d))
	if s.playTimes > 0 {
		loops = min(loops, s.playTimes)
	}
	s.currentPlayTimes = max(loops, 0)
	switch {
	case completed && s.totalTime >= end:
		s.currentTime = d
	case completed:
		s.currentTime = 0
	default:
		t := math.Mod(s.totalTime, d)
		if t < 0 {
			t += d
		}
		s.currentTime = t
	}
	if !emit {
		return
	}

	var crossed int
	if s.totalTime > prev {
		crossed = int(math.Floor(s.totalTime/d) - math.Floor(prev/d))
	} else if s.totalTime < prev {
		crossed = int(math.Ceil(prev/d) - math.Ceil(s.totalTime/d))
	}
	if completed && crossed > 0 {
		// The boundary that completes the state reports complete instead.
		crossed--
	}
	for range crossed {
		s.armature.queueEvent(EventLoopComplete, s, s.currentTime)
	}
	if completed && !s.completed {
		s.completed = true
		s.armature.queueEvent(EventComplete, s, s.currentTime)
		s.autoFadeOut()
	}
}

func (s *AnimationState) autoFadeOut() {
	if s.AutoFadeOutTime >= 0 {
		s.FadeOut(s.AutoFadeOutTime, false)
	}
}

// advanceTime runs one tick of the state: fade, play-head, then sampling.
// cache is non-nil when the state is the only one playing and its
// animation has a frame cache.
func (s *AnimationState) advanceTime(passedTime float64, cache *animationCache) {
	if s.fade == fadeStateRemoved {
		return
	}
	if s.timelinesDirty {
		s.buildTimelines()
	}
	s.advanceFade(passedTime)
	if s.playing && !(s.fade == fadeStateFadingOut && s.pauseOnFade) {
		s.advancePlayhead(passedTime * s.TimeScale)
	}

	sampleTime := s.currentTime
	if cache != nil {
		idx := cache.frameIndex(sampleTime)
		sampleTime = float64(idx) / cache.rate
		s.armature.cacheFrameIndex = idx
	}

	if weight := s.BlendWeight(); weight > 0 {
		for _, t := range s.boneTimelines {
			t.bone.accumulate(t.sample(sampleTime), weight, s.layer)
		}
		for _, t := range s.slotTimelines {
			if s.DisplayControl && (t.data == nil || !t.data.display.empty()) {
				t.sampleDisplay(sampleTime, s.group)
			}
			if t.data == nil || !t.data.color.empty() {
				t.sampleColor(sampleTime, weight, s.layer)
			}
			if t.data == nil || !t.data.deform.empty() {
				t.sampleDeform(sampleTime, weight, s.layer)
			}
		}
		if s.DisplayControl {
			s.sampleZOrder(sampleTime)
		}
	}
	s.sampleActions()
}
