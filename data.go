package bones

// UserData carries arbitrary values attached to bones, actions and events.
type UserData struct {
	Ints    []int
	Floats  []float64
	Strings []string
}

// RigData is a parsed rig: a named collection of armature definitions.
// Call Prepare (or Factory.AddRig) before building armatures from it.
// RigData is shared, read-mostly data; the frame cache tables it owns are
// written by armatures during playback, so a rig must not be animated from
// more than one goroutine at a time.
type RigData struct {
	Name      string
	FrameRate int
	Armatures []*ArmatureData

	armatureIndex map[string]*ArmatureData
	report        PrepareReport
	prepared      bool
}

// Armature returns the named armature definition, or nil.
func (r *RigData) Armature(name string) *ArmatureData {
	return r.armatureIndex[name]
}

// ArmatureData defines a skeleton: bones, slots, constraints and animations.
type ArmatureData struct {
	Name             string
	FrameRate        int
	CacheFrameRate   float64
	DefaultAnimation string
	DefaultActions   []*ActionData

	Bones       []*BoneData
	Slots       []*SlotData
	Constraints []*IKConstraintData
	Animations  []*AnimationData

	rig            *RigData
	boneIndex      map[string]int
	slotIndex      map[string]int
	animationIndex map[string]*AnimationData
	cache          frameCacheStore
}

// Rig returns the rig this armature belongs to (set by Prepare).
func (d *ArmatureData) Rig() *RigData { return d.rig }

// Animation returns the named animation definition, or nil.
func (d *ArmatureData) Animation(name string) *AnimationData {
	return d.animationIndex[name]
}

// Bone returns the named bone definition, or nil.
func (d *ArmatureData) Bone(name string) *BoneData {
	if i, ok := d.boneIndex[name]; ok {
		return d.Bones[i]
	}
	return nil
}

// Slot returns the named slot definition, or nil.
func (d *ArmatureData) Slot(name string) *SlotData {
	if i, ok := d.slotIndex[name]; ok {
		return d.Slots[i]
	}
	return nil
}

// BoneData is a bone's bind pose and inheritance settings.
type BoneData struct {
	Name   string
	Parent string // empty for a root bone
	Pose   Transform
	Length float64

	InheritTranslation bool
	InheritRotation    bool
	InheritScale       bool

	UserData *UserData

	index  int
	parent int // -1 for roots
}

// NewBoneData returns a bone that inherits translation, rotation and scale.
func NewBoneData(name, parent string, pose Transform) *BoneData {
	return &BoneData{
		Name:               name,
		Parent:             parent,
		Pose:               pose,
		InheritTranslation: true,
		InheritRotation:    true,
		InheritScale:       true,
	}
}

// SlotData attaches a list of displays to a bone.
type SlotData struct {
	Name         string
	Bone         string
	DisplayIndex int // -1 shows nothing
	Displays     []*DisplayData
	Color        ColorTransform
	BlendMode    BlendMode

	index int
	bone  int
}

// NewSlotData returns a slot showing its first display with no tint.
func NewSlotData(name, bone string, displays ...*DisplayData) *SlotData {
	return &SlotData{
		Name:     name,
		Bone:     bone,
		Displays: displays,
		Color:    IdentityColor,
	}
}

// DisplayData is one entry of a slot's display list. Type selects which of
// the optional fields is meaningful.
type DisplayData struct {
	Type DisplayType
	Name string // texture name, or armature name for DisplayArmature
	Path string // texture path; falls back to Name when empty

	Transform Transform // relative to the slot's bone; the zero value means none
	Pivot     Vec2      // normalized image pivot, (0.5, 0.5) is the center
	Width     float64
	Height    float64

	Mesh        *MeshData
	BoundingBox *BoundingBoxData
	Actions     []*ActionData // played on the nested armature when it is built
}

// TexturePath returns Path, or Name when Path is empty.
func (d *DisplayData) TexturePath() string {
	if d.Path != "" {
		return d.Path
	}
	return d.Name
}

// MeshData is a triangle mesh. Vertices are x,y pairs in slot space for
// unweighted meshes. A weighted mesh lists, per vertex, the bones it follows;
// its deform timelines then offset each binding rather than each vertex.
type MeshData struct {
	Vertices  []float64
	UVs       []float64
	Triangles []uint16
	Weights   [][]BoneBinding
}

// VertexCount returns the number of vertices of the mesh.
func (m *MeshData) VertexCount() int {
	if len(m.Weights) > 0 {
		return len(m.Weights)
	}
	return len(m.Vertices) / 2
}

// deformLength is the number of float offsets a deform timeline may drive.
func (m *MeshData) deformLength() int {
	if len(m.Weights) == 0 {
		return len(m.Vertices)
	}
	n := 0
	for _, w := range m.Weights {
		n += 2 * len(w)
	}
	return n
}

// BoneBinding ties a weighted vertex to a bone. X and Y are the vertex
// position in that bone's space.
type BoneBinding struct {
	Bone   string
	Weight float64
	X, Y   float64

	bone int
}

// IKConstraintData solves Bone (and with Chain 1 its parent) toward Target.
type IKConstraintData struct {
	Name         string
	Target       string
	Bone         string
	Chain        int // 0: one-bone aim, 1: two-bone solve
	BendPositive bool
	Weight       float64

	target int
	bone   int
	root   int
}

// AnimationData is a named clip: per-bone and per-slot keyframe tracks plus
// draw-order and action tracks.
type AnimationData struct {
	Name       string
	FrameRate  int
	Duration   float64 // seconds
	PlayTimes  int     // 0 loops forever
	FadeInTime float64

	Bones   []*BoneTimelineData
	Slots   []*SlotTimelineData
	ZOrder  []*ZOrderFrame
	Actions []*ActionFrame

	armature *ArmatureData
	zOrder   keyTrack
	actions  keyTrack
	cache    *animationCache
}

// Armature returns the armature definition that owns the animation.
func (a *AnimationData) Armature() *ArmatureData { return a.armature }

// CacheFrameRate returns the rate of the animation's frame cache, or 0.
func (a *AnimationData) CacheFrameRate() float64 {
	if a.cache == nil {
		return 0
	}
	return a.cache.rate
}

// Bezier is a cubic bezier easing curve from (0,0) to (1,1) with control
// points (X1,Y1) and (X2,Y2).
type Bezier struct {
	X1, Y1, X2, Y2 float64
}

// Frame is the common part of every keyframe.
type Frame struct {
	Position float64 // seconds from the animation start
	Tween    TweenType
	Easing   float64 // TweenLine: 0 linear, <0 ease in, >0 ease out, see EaseValue
	Curve    *Bezier // TweenCurve

	duration float64
	samples  []float64
}

func (f *Frame) frame() *Frame { return f }

// Duration returns the time until the next keyframe (or the animation end).
func (f *Frame) Duration() float64 { return f.duration }

// BoneTimelineData animates one bone. Each track is optional and holds
// values relative to the bind pose.
type BoneTimelineData struct {
	Bone      string
	Translate []*TranslateFrame
	Rotate    []*RotateFrame
	Scale     []*ScaleFrame

	bone      int
	translate keyTrack
	rotate    keyTrack
	scale     keyTrack
}

// TranslateFrame offsets a bone's position.
type TranslateFrame struct {
	Frame
	X, Y float64
}

// RotateFrame offsets a bone's rotation and skew. TweenRotate forces extra
// full turns toward the next keyframe: positive counts clockwise turns,
// negative counter-clockwise, 0 takes the shortest path.
type RotateFrame struct {
	Frame
	Rotation, Skew float64
	TweenRotate    int
}

// ScaleFrame multiplies a bone's scale.
type ScaleFrame struct {
	Frame
	X, Y float64
}

// SlotTimelineData animates one slot.
type SlotTimelineData struct {
	Slot    string
	Display []*DisplayFrame
	Color   []*ColorFrame
	Deform  []*DeformFrame

	slot    int
	display keyTrack
	color   keyTrack
	deform  keyTrack
}

// DisplayFrame switches the slot's active display. Index -1 hides it.
type DisplayFrame struct {
	Frame
	Index int
}

// ColorFrame sets the slot's color transform.
type ColorFrame struct {
	Frame
	Color ColorTransform
}

// DeformFrame offsets the vertices of a mesh display. Vertices holds
// offsets starting at float index Offset; values outside are zero.
type DeformFrame struct {
	Frame
	Display  int
	Offset   int
	Vertices []float64
}

// ZOrderFrame reorders slots. Each offset moves a slot relative to its
// default position; an empty frame restores the default order.
type ZOrderFrame struct {
	Frame
	Offsets []ZOrderOffset

	order []int
}

// ZOrderOffset moves Slot by Offset positions in the draw order.
type ZOrderOffset struct {
	Slot   string
	Offset int
}

// ActionFrame triggers actions and events when the play-head crosses it.
type ActionFrame struct {
	Frame
	Actions []*ActionData
}

// ActionData is one action: play an animation, or emit a frame/sound event.
type ActionData struct {
	Type ActionType
	Name string // animation name for ActionPlay, event name otherwise
	Bone string
	Slot string
	Data *UserData
}
