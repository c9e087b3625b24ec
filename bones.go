package bones

// Vec2 is a 2D vector used for pivots, points and directions.
type Vec2 struct {
	X, Y float64
}

// Color represents an RGBA color with components in [0, 1]. Not premultiplied.
type Color struct {
	R, G, B, A float64
}

// ColorWhite is the default tint (no color modification).
var ColorWhite = Color{1, 1, 1, 1}

// ColorTransform tints a slot: each channel is multiplied then offset.
// Offsets are in the same [0, 1] units as Color.
type ColorTransform struct {
	AlphaMultiplier, RedMultiplier, GreenMultiplier, BlueMultiplier float64
	AlphaOffset, RedOffset, GreenOffset, BlueOffset                 float64
}

// IdentityColor leaves colors untouched.
var IdentityColor = ColorTransform{
	AlphaMultiplier: 1, RedMultiplier: 1, GreenMultiplier: 1, BlueMultiplier: 1,
}

// Apply returns c transformed by ct, clamped to [0, 1].
func (ct ColorTransform) Apply(c Color) Color {
	return Color{
		R: clamp01(c.R*ct.RedMultiplier + ct.RedOffset),
		G: clamp01(c.G*ct.GreenMultiplier + ct.GreenOffset),
		B: clamp01(c.B*ct.BlueMultiplier + ct.BlueOffset),
		A: clamp01(c.A*ct.AlphaMultiplier + ct.AlphaOffset),
	}
}

// BlendMode selects a compositing operation for a slot's display.
type BlendMode uint8

const (
	BlendNormal   BlendMode = iota // source-over (standard alpha blending)
	BlendAdd                       // additive / lighter
	BlendMultiply                  // multiply (source * destination; only darkens)
	BlendScreen                    // screen (1 - (1-src)*(1-dst); only brightens)
	BlendErase                     // destination-out (punch transparent holes)
	BlendMask                      // clip destination to source alpha
	BlendBelow                     // destination-over (draw behind existing content)
	BlendNone                      // opaque copy (skip blending)
)

// DisplayType tags the variant stored in a DisplayData.
type DisplayType uint8

const (
	DisplayImage       DisplayType = iota // textured quad
	DisplayMesh                           // deformable triangle mesh
	DisplayArmature                       // nested armature owned by the slot
	DisplayBoundingBox                    // invisible hit area
)

// OffsetMode selects how a bone combines its bind pose, procedural offset and
// animation pose into a local pose.
type OffsetMode uint8

const (
	// OffsetAdditive sums translation, rotation and skew and multiplies scale.
	OffsetAdditive OffsetMode = iota
	// OffsetOverride lets the animation pose replace the procedural offset.
	// Timeline values are relative to the bind pose, so the result is bind ⊕ pose.
	OffsetOverride
	// OffsetIndependent ignores bind pose and animation: the local pose is Offset.
	OffsetIndependent
)

// FadeOutMode decides which running states fade out when a new one fades in.
type FadeOutMode uint8

const (
	FadeOutNone              FadeOutMode = iota // leave every running state alone
	FadeOutSameLayer                            // states on the new state's layer
	FadeOutSameGroup                            // states in the new state's group
	FadeOutSameLayerAndGroup                    // states matching both layer and group
	FadeOutAll                                  // every running state
	FadeOutSingle                               // every running state, removed without a fade
)

// TweenType selects how a keyframe interpolates toward the next one.
type TweenType uint8

const (
	TweenNone  TweenType = iota // step: hold the keyframe value
	TweenLine                   // parametric easing driven by Frame.Easing
	TweenCurve                  // sampled cubic bezier (Frame.Curve)
)

// ActionType identifies what an action keyframe does.
type ActionType uint8

const (
	ActionPlay  ActionType = iota // play an animation on a nested armature (or self)
	ActionEvent                   // emit EventFrame
	ActionSound                   // emit EventSound
)

// EventType identifies an animation event.
type EventType uint8

const (
	EventStart           EventType = iota // a state advanced for the first time
	EventLoopComplete                     // a state finished one loop
	EventComplete                         // a state finished all its loops
	EventFadeIn                           // a state started fading in
	EventFadeInComplete                   // a state reached full weight
	EventFadeOut                          // a state started fading out
	EventFadeOutComplete                  // a state reached zero weight and was removed
	EventFrame                            // custom frame event from an action keyframe
	EventSound                            // sound event from an action keyframe
	eventTypeCount
)

var eventTypeNames = [eventTypeCount]string{
	"start", "loopComplete", "complete", "fadeIn", "fadeInComplete",
	"fadeOut", "fadeOutComplete", "frameEvent", "soundEvent",
}

// String returns the event's wire name, e.g. "loopComplete".
func (t EventType) String() string {
	if t < eventTypeCount {
		return eventTypeNames[t]
	}
	return "unknown"
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
