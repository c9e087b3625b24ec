package bones

import (
	"math"
	"slices"

	"github.com/tanema/gween/ease"
)

// AnimationConfig describes how PlayConfig starts an animation. Build one
// with NewAnimationConfig; its zero value is not a sensible default.
type AnimationConfig struct {
	Name  string
	Group string
	Layer int
	// PlayTimes is the loop count: 0 loops forever, < 0 uses the
	// animation's own count.
	PlayTimes int
	// FadeInTime < 0 uses the animation's fade-in time, or the armature's
	// default when the animation has none.
	FadeInTime float64
	// FadeOutTime < 0 fades other states out over FadeInTime.
	FadeOutTime float64
	FadeOutMode FadeOutMode
	// Position is the start time within the first loop.
	Position        float64
	TimeScale       float64
	Weight          float64
	AutoFadeOutTime float64
	ResetToPose     bool
	DisplayControl  bool
	// BoneMask restricts the state to the named bones.
	BoneMask []string
	// FadeCurve shapes the fade ramps. Nil uses the armature's curve.
	FadeCurve ease.TweenFunc
}

// NewAnimationConfig returns the config Play uses for name.
func NewAnimationConfig(name string) AnimationConfig {
	return AnimationConfig{
		Name:            name,
		PlayTimes:       -1,
		FadeInTime:      -1,
		FadeOutTime:     -1,
		FadeOutMode:     FadeOutSameLayerAndGroup,
		TimeScale:       1,
		Weight:          1,
		AutoFadeOutTime: -1,
		ResetToPose:     true,
		DisplayControl:  true,
	}
}

// Animation controls the animation states of one armature. States are kept
// sorted by layer, highest first, and blended in that order every tick.
type Animation struct {
	// TimeScale multiplies the time every state advances by.
	TimeScale float64

	armature      *Armature
	states        []*AnimationState
	lastState     *AnimationState
	fadeCurve     ease.TweenFunc
	defaultFadeIn float64
	resetToPose   bool
	boundCache    *animationCache
	statesDirty   bool
	nextOrder     int
}

func newAnimation(a *Armature, cfg Config) *Animation {
	curve, err := FadeCurve(cfg.FadeCurve)
	if err != nil {
		curve = ease.Linear
	}
	return &Animation{
		TimeScale:     cfg.TimeScale,
		armature:      a,
		fadeCurve:     curve,
		defaultFadeIn: cfg.DefaultFadeInTime,
		resetToPose:   cfg.ResetToPose,
	}
}

// Play starts the named animation alone: every other state fades out over
// the default fade-in time. If name is already playing and not fading out,
// that state is returned unchanged. An empty name plays the armature's
// default animation, or resumes the last state.
func (an *Animation) Play(name string, playTimes int) *AnimationState {
	if name == "" {
		if an.lastState != nil && an.lastState.fade != fadeStateRemoved {
			an.lastState.Play()
			return an.lastState
		}
		name = an.armature.data.DefaultAnimation
		if name == "" {
			return nil
		}
	}
	cfg := NewAnimationConfig(name)
	cfg.PlayTimes = playTimes
	cfg.FadeOutMode = FadeOutSingle
	return an.PlayConfig(cfg)
}

// FadeIn starts the named animation with a fade-in of fadeInTime seconds
// and fades out the states fadeOutMode selects.
func (an *Animation) FadeIn(name string, fadeInTime float64, playTimes, layer int, group string, fadeOutMode FadeOutMode) *AnimationState {
	cfg := NewAnimationConfig(name)
	cfg.FadeInTime = fadeInTime
	cfg.PlayTimes = playTimes
	cfg.Layer = layer
	cfg.Group = group
	cfg.FadeOutMode = fadeOutMode
	return an.PlayConfig(cfg)
}

// PlayConfig starts an animation as described by cfg and returns its state,
// or nil when the armature has no such animation.
func (an *Animation) PlayConfig(cfg AnimationConfig) *AnimationState {
	a := an.armature
	if globalDebug {
		debugCheckDisposed(a, "Play")
	}
	if a.disposed {
		return nil
	}
	data := a.data.Animation(cfg.Name)
	if data == nil {
		if globalDebug {
			debugCheckFound(false, "animation", cfg.Name, "Play")
		}
		return nil
	}

	if cfg.FadeOutMode == FadeOutSingle {
		for _, s := range an.states {
			if s.data == data && !s.completed && s.fade != fadeStateFadingOut && s.fade != fadeStateRemoved {
				an.lastState = s
				return s
			}
		}
	}

	fadeIn := cfg.FadeInTime
	if fadeIn < 0 {
		fadeIn = an.defaultFadeIn
		if data.FadeInTime > 0 {
			fadeIn = data.FadeInTime
		}
	}
	fadeOut := cfg.FadeOutTime
	if fadeOut < 0 {
		fadeOut = fadeIn
	}
	an.fadeOut(cfg, fadeOut)

	s := a.pool.states.acquire()
	s.order = an.nextOrder
	an.nextOrder++
	if !an.resetToPose {
		cfg.ResetToPose = false
	}
	s.init(an, data, cfg, fadeIn)
	an.states = append(an.states, s)
	an.statesDirty = true
	an.lastState = s
	return s
}

// fadeOut applies cfg's fade-out policy to the running states.
func (an *Animation) fadeOut(cfg AnimationConfig, fadeOutTime float64) {
	for _, s := range an.states {
		if s.fade == fadeStateRemoved {
			continue
		}
		var match bool
		switch cfg.FadeOutMode {
		case FadeOutSameLayer:
			match = s.layer == cfg.Layer
		case FadeOutSameGroup:
			match = s.group == cfg.Group
		case FadeOutSameLayerAndGroup:
			match = s.layer == cfg.Layer && s.group == cfg.Group
		case FadeOutAll:
			match = true
		case FadeOutSingle:
			s.FadeOut(0, false)
		}
		if match {
			s.FadeOut(fadeOutTime, false)
		}
	}
}

// Stop pauses the named state and returns it, or nil when name is not
// playing. An empty name pauses every state and returns the last one
// started.
func (an *Animation) Stop(name string) *AnimationState {
	if name == "" {
		for _, s := range an.states {
			s.Stop()
		}
		if an.lastState != nil && an.lastState.fade != fadeStateRemoved {
			return an.lastState
		}
		return nil
	}
	s := an.GetState(name)
	if s != nil {
		s.Stop()
	}
	return s
}

// StopAll removes every state without fading. Bones keep their last pose.
func (an *Animation) StopAll() {
	for _, s := range an.states {
		s.remove()
	}
	an.lastState = nil
}

// Reset removes every state and returns bones and slots to the bind pose on
// the next tick.
func (an *Animation) Reset() {
	an.StopAll()
	a := an.armature
	for _, b := range a.bones {
		b.pose = IdentityTransform()
		b.InvalidUpdate()
	}
	for _, s := range a.slots {
		s.SetDisplayIndex(s.data.DisplayIndex)
		if s.color != s.data.Color {
			s.color = s.data.Color
			s.changes |= changeColor
		}
		if len(s.deform) > 0 {
			s.deform = s.deform[:0]
			s.changes |= changeMesh
		}
	}
	a.applyDefaultZOrder()
}

// GotoAndPlayByTime plays name starting at time seconds into the first loop.
func (an *Animation) GotoAndPlayByTime(name string, time float64, playTimes int) *AnimationState {
	cfg := NewAnimationConfig(name)
	cfg.PlayTimes = playTimes
	cfg.Position = time
	cfg.FadeInTime = 0
	cfg.FadeOutMode = FadeOutAll
	return an.PlayConfig(cfg)
}

// GotoAndPlayByFrame plays name starting at the given frame.
func (an *Animation) GotoAndPlayByFrame(name string, frame, playTimes int) *AnimationState {
	data := an.armature.data.Animation(name)
	if data == nil {
		return an.GotoAndPlayByTime(name, 0, playTimes)
	}
	return an.GotoAndPlayByTime(name, float64(frame)/float64(data.FrameRate), playTimes)
}

// GotoAndPlayByProgress plays name starting at progress in [0, 1] of the
// first loop.
func (an *Animation) GotoAndPlayByProgress(name string, progress float64, playTimes int) *AnimationState {
	data := an.armature.data.Animation(name)
	if data == nil {
		return an.GotoAndPlayByTime(name, 0, playTimes)
	}
	return an.GotoAndPlayByTime(name, clamp01(progress)*data.Duration, playTimes)
}

// GotoAndStopByTime shows name paused at time seconds.
func (an *Animation) GotoAndStopByTime(name string, time float64) *AnimationState {
	s := an.GotoAndPlayByTime(name, time, 1)
	if s != nil {
		s.Stop()
	}
	return s
}

// GotoAndStopByFrame shows name paused at the given frame.
func (an *Animation) GotoAndStopByFrame(name string, frame int) *AnimationState {
	s := an.GotoAndPlayByFrame(name, frame, 1)
	if s != nil {
		s.Stop()
	}
	return s
}

// GotoAndStopByProgress shows name paused at progress in [0, 1].
func (an *Animation) GotoAndStopByProgress(name string, progress float64) *AnimationState {
	s := an.GotoAndPlayByProgress(name, progress, 1)
	if s != nil {
		s.Stop()
	}
	return s
}

// GetState returns the most recently started live state of the named
// animation, or nil.
func (an *Animation) GetState(name string) *AnimationState {
	for i := len(an.states) - 1; i >= 0; i-- {
		if s := an.states[i]; s.name == name && s.fade != fadeStateRemoved {
			return s
		}
	}
	return nil
}

// States returns the live states, highest layer first.
func (an *Animation) States() []*AnimationState {
	out := make([]*AnimationState, 0, len(an.states))
	for _, s := range an.states {
		if s.fade != fadeStateRemoved {
			out = append(out, s)
		}
	}
	return out
}

// LastAnimationState returns the state most recently started by Play.
func (an *Animation) LastAnimationState() *AnimationState {
	if an.lastState != nil && an.lastState.fade == fadeStateRemoved {
		return nil
	}
	return an.lastState
}

// LastAnimationName returns the name of LastAnimationState, or "".
func (an *Animation) LastAnimationName() string {
	if s := an.LastAnimationState(); s != nil {
		return s.name
	}
	return ""
}

// AnimationNames returns the names of the armature's animations in
// definition order.
func (an *Animation) AnimationNames() []string {
	out := make([]string, 0, len(an.armature.data.Animations))
	for _, d := range an.armature.data.Animations {
		out = append(out, d.Name)
	}
	return out
}

// HasAnimation reports whether the armature defines name.
func (an *Animation) HasAnimation(name string) bool {
	return an.armature.data.Animation(name) != nil
}

// IsPlaying reports whether any state's play-head is running.
func (an *Animation) IsPlaying() bool {
	for _, s := range an.states {
		if s.fade != fadeStateRemoved && s.IsPlaying() {
			return true
		}
	}
	return false
}

// IsCompleted reports whether every live state completed.
func (an *Animation) IsCompleted() bool {
	live := false
	for _, s := range an.states {
		if s.fade == fadeStateRemoved {
			continue
		}
		live = true
		if !s.completed {
			return false
		}
	}
	return live
}

// retire returns removed states to the pool.
func (an *Animation) retire() {
	pool := an.armature.pool
	kept := an.states[:0]
	for _, s := range an.states {
		if s.fade != fadeStateRemoved {
			kept = append(kept, s)
			continue
		}
		if s == an.lastState {
			an.lastState = nil
		}
		s.releaseTimelines()
		pool.states.release(s)
	}
	clear(an.states[len(kept):])
	an.states = kept
}

// cacheState returns the only live state when it may use the frame cache.
func (an *Animation) cacheState() *AnimationState {
	if len(an.states) != 1 {
		return nil
	}
	if s := an.states[0]; s.cacheEligible() {
		return s
	}
	return nil
}

// bindCache points every bone at the cache table of c, or detaches them.
func (an *Animation) bindCache(c *animationCache) {
	if c == an.boundCache {
		return
	}
	an.boundCache = c
	for _, b := range an.armature.bones {
		b.cachedFrame = -1
		if c == nil {
			b.cacheIndices = nil
			continue
		}
		b.cacheIndices = c.bones[b.data.index]
	}
}

// advanceTime retires finished states, then advances and samples the live
// ones in layer order.
func (an *Animation) advanceTime(passedTime float64) {
	an.retire()
	if an.statesDirty {
		an.statesDirty = false
		slices.SortStableFunc(an.states, func(x, y *AnimationState) int {
			if x.layer != y.layer {
				return y.layer - x.layer
			}
			return x.order - y.order
		})
	}
	passedTime *= an.TimeScale
	if math.IsNaN(passedTime) || math.IsInf(passedTime, 0) {
		passedTime = 0
	}

	var cache *animationCache
	cs := an.cacheState()
	if cs != nil {
		cache = cs.data.cache
	}
	an.bindCache(cache)

	for _, s := range an.states {
		if s == cs {
			s.advanceTime(passedTime, cache)
		} else {
			s.advanceTime(passedTime, nil)
		}
	}
}

// release returns every state to the pool. Used when the armature is
// disposed.
func (an *Animation) release() {
	for _, s := range an.states {
		s.remove()
	}
	an.retire()
	an.lastState = nil
	an.boundCache = nil
}
