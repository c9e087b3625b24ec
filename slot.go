package bones

import "slices"

// slotChange is a set of slot properties changed since the proxy was last
// notified.
type slotChange uint8

const (
	changeDisplay slotChange = 1 << iota
	changeTransform
	changeColor
	changeBlend
	changeVisible
	changeMesh

	changeEverything = changeDisplay | changeTransform | changeColor | changeBlend | changeVisible | changeMesh
)

// Slot attaches a list of displays to a bone. Exactly one display (or none)
// is active at a time; an armature display is a nested Armature owned by the
// slot.
type Slot struct {
	// DisplayController, when set, restricts display and z-order timelines
	// to animation states of that group.
	DisplayController string

	data     *SlotData
	armature *Armature
	bone     *Bone
	children []*Armature // nested armature per display index, nil otherwise

	displayIndex int
	blendMode    BlendMode
	zOrder       int
	globalMat    Matrix
	changes      slotChange

	color      ColorTransform
	colorPose  ColorTransform // weighted delta from the default color
	colorBlend blendState

	deform        []float64
	deformNext    []float64
	deformDisplay int
	deformBlend   blendState

	displayWritten bool
}

func (s *Slot) reset() {
	s.DisplayController = ""
	s.data = nil
	s.armature = nil
	s.bone = nil
	clear(s.children)
	s.children = s.children[:0]
	s.displayIndex = -1
	s.blendMode = BlendNormal
	s.zOrder = 0
	s.globalMat = IdentityMatrix
	s.changes = 0
	s.color = IdentityColor
	s.colorPose = ColorTransform{}
	s.colorBlend.clear()
	s.deform = s.deform[:0]
	s.deformNext = s.deformNext[:0]
	s.deformDisplay = -1
	s.deformBlend.clear()
	s.displayWritten = false
}

func (s *Slot) init(a *Armature, data *SlotData, bone *Bone) {
	s.data = data
	s.armature = a
	s.bone = bone
	s.displayIndex = data.DisplayIndex
	s.blendMode = data.BlendMode
	s.zOrder = data.index
	s.color = data.Color
	s.changes = changeEverything
	for range data.Displays {
		s.children = append(s.children, nil)
	}
}

// Name returns the slot's name.
func (s *Slot) Name() string { return s.data.Name }

// Data returns the slot's static definition.
func (s *Slot) Data() *SlotData { return s.data }

// Bone returns the bone the slot is attached to.
func (s *Slot) Bone() *Bone { return s.bone }

// Armature returns the armature that owns the slot.
func (s *Slot) Armature() *Armature { return s.armature }

// DisplayIndex returns the index of the active display, or -1.
func (s *Slot) DisplayIndex() int { return s.displayIndex }

// SetDisplayIndex activates the display at i. Out of range values hide the
// slot. Animations with display timelines override it on their next tick
// unless DisplayController names another group.
func (s *Slot) SetDisplayIndex(i int) {
	if i < -1 || i >= len(s.data.Displays) {
		i = -1
	}
	if i == s.displayIndex {
		return
	}
	s.displayIndex = i
	s.changes |= changeDisplay | changeTransform | changeVisible | changeMesh
}

// Display returns the active display, or nil.
func (s *Slot) Display() *DisplayData {
	if s.displayIndex < 0 {
		return nil
	}
	return s.data.Displays[s.displayIndex]
}

// DisplayType returns the type of the active display. The second result is
// false when nothing is displayed.
func (s *Slot) DisplayType() (DisplayType, bool) {
	d := s.Display()
	if d == nil {
		return 0, false
	}
	return d.Type, true
}

// ChildArmature returns the nested armature of the active display, or nil.
func (s *Slot) ChildArmature() *Armature {
	if s.displayIndex < 0 {
		return nil
	}
	return s.children[s.displayIndex]
}

// Color returns the slot's color transform after animation.
func (s *Slot) Color() ColorTransform { return s.color }

// BlendMode returns the slot's blend mode.
func (s *Slot) BlendMode() BlendMode { return s.blendMode }

// SetBlendMode changes the slot's blend mode.
func (s *Slot) SetBlendMode(m BlendMode) {
	if s.blendMode != m {
		s.blendMode = m
		s.changes |= changeBlend
	}
}

// ZOrder returns the slot's position in the draw order.
func (s *Slot) ZOrder() int { return s.zOrder }

// GlobalMatrix returns the active display's matrix in armature space.
func (s *Slot) GlobalMatrix() Matrix { return s.globalMat }

// Visible reports whether the slot shows anything.
func (s *Slot) Visible() bool {
	return s.displayIndex >= 0 && s.bone.visible
}

// DeformVertices returns the deform offsets applied to the active mesh, or
// nil when no deform timeline drives it. The slice is reused every tick.
func (s *Slot) DeformVertices() []float64 {
	if s.deformDisplay < 0 || s.deformDisplay != s.displayIndex {
		return nil
	}
	return s.deform
}

// DeformedVertices appends the active mesh's vertex positions to dst and
// returns it. Weighted meshes yield armature-space positions, unweighted
// meshes slot-space positions (transform them with GlobalMatrix).
func (s *Slot) DeformedVertices(dst []float64) []float64 {
	d := s.Display()
	if d == nil || d.Mesh == nil {
		return dst
	}
	mesh := d.Mesh
	offsets := s.DeformVertices()
	if len(mesh.Weights) == 0 {
		for i, v := range mesh.Vertices {
			if i < len(offsets) {
				v += offsets[i]
			}
			dst = append(dst, v)
		}
		return dst
	}
	bones := s.armature.bones
	k := 0
	for _, bindings := range mesh.Weights {
		var x, y float64
		for _, b := range bindings {
			bx, by := b.X, b.Y
			if k+1 < len(offsets) {
				bx += offsets[k]
				by += offsets[k+1]
			}
			k += 2
			if b.bone < 0 {
				continue
			}
			px, py := transformPoint(bones[b.bone].globalMat, bx, by)
			x += px * b.Weight
			y += py * b.Weight
		}
		dst = append(dst, x, y)
	}
	return dst
}

// beginPose clears the color and deform accumulators.
func (s *Slot) beginPose() {
	s.colorBlend.clear()
	s.deformBlend.clear()
	s.displayWritten = false
}

// controlsDisplay reports whether a state of group may drive the slot's
// display during this tick. The first (highest layer) writer wins.
func (s *Slot) controlsDisplay(group string) bool {
	if s.displayWritten {
		return false
	}
	return s.DisplayController == "" || s.DisplayController == group
}

func (s *Slot) writeDisplay(index int) {
	s.displayWritten = true
	s.SetDisplayIndex(index)
}

// accumulateColor blends one color sample, stored as a delta from the
// slot's default color.
func (s *Slot) accumulateColor(c ColorTransform, weight float64, layer int) {
	if !s.colorBlend.update(weight, layer) {
		return
	}
	w := s.colorBlend.blendWeight
	d := s.data.Color
	delta := ColorTransform{
		AlphaMultiplier: (c.AlphaMultiplier - d.AlphaMultiplier) * w,
		RedMultiplier:   (c.RedMultiplier - d.RedMultiplier) * w,
		GreenMultiplier: (c.GreenMultiplier - d.GreenMultiplier) * w,
		BlueMultiplier:  (c.BlueMultiplier - d.BlueMultiplier) * w,
		AlphaOffset:     (c.AlphaOffset - d.AlphaOffset) * w,
		RedOffset:       (c.RedOffset - d.RedOffset) * w,
		GreenOffset:     (c.GreenOffset - d.GreenOffset) * w,
		BlueOffset:      (c.BlueOffset - d.BlueOffset) * w,
	}
	if s.colorBlend.first() {
		s.colorPose = delta
		return
	}
	s.colorPose.AlphaMultiplier += delta.AlphaMultiplier
	s.colorPose.RedMultiplier += delta.RedMultiplier
	s.colorPose.GreenMultiplier += delta.GreenMultiplier
	s.colorPose.BlueMultiplier += delta.BlueMultiplier
	s.colorPose.AlphaOffset += delta.AlphaOffset
	s.colorPose.RedOffset += delta.RedOffset
	s.colorPose.GreenOffset += delta.GreenOffset
	s.colorPose.BlueOffset += delta.BlueOffset
}

// deformBuffer returns the accumulation buffer for a deform timeline that
// drives display, or nil when another display already claimed this tick.
func (s *Slot) deformBuffer(display int, weight float64, layer int) ([]float64, float64) {
	if display < 0 || display >= len(s.data.Displays) {
		return nil, 0
	}
	mesh := s.data.Displays[display].Mesh
	if mesh == nil {
		return nil, 0
	}
	if s.deformBlend.count > 0 && s.deformDisplay != display {
		return nil, 0
	}
	if !s.deformBlend.update(weight, layer) {
		return nil, 0
	}
	if s.deformBlend.first() {
		n := mesh.deformLength()
		s.deformNext = s.deformNext[:0]
		for range n {
			s.deformNext = append(s.deformNext, 0)
		}
		if s.deformDisplay != display {
			s.deformDisplay = display
			s.changes |= changeMesh
		}
	}
	return s.deformNext, s.deformBlend.blendWeight
}

// commitPose resolves the blended color and deform values and records what
// changed. Values no state wrote this tick are kept.
func (s *Slot) commitPose() {
	if s.colorBlend.count > 0 {
		color := s.data.Color
		p := s.colorPose
		color.AlphaMultiplier += p.AlphaMultiplier
		color.RedMultiplier += p.RedMultiplier
		color.GreenMultiplier += p.GreenMultiplier
		color.BlueMultiplier += p.BlueMultiplier
		color.AlphaOffset += p.AlphaOffset
		color.RedOffset += p.RedOffset
		color.GreenOffset += p.GreenOffset
		color.BlueOffset += p.BlueOffset
		if color != s.color {
			s.color = color
			s.changes |= changeColor
		}
	}

	if s.deformBlend.count == 0 {
		return
	}
	if !slices.Equal(s.deform, s.deformNext) {
		s.deform, s.deformNext = s.deformNext, s.deform
		s.changes |= changeMesh
	}
}

// update refreshes the global matrix after the bone pass and notifies the
// proxy of everything that changed during the tick.
func (s *Slot) update(proxy DisplayProxy) {
	if s.bone.dirty == dirtyAll || s.changes&changeDisplay != 0 {
		s.updateGlobal()
		s.changes |= changeTransform
	}
	if d := s.Display(); d != nil && d.Mesh != nil && len(d.Mesh.Weights) > 0 && s.skinChanged(d.Mesh) {
		s.changes |= changeMesh
	}
	if s.changes == 0 {
		return
	}
	c := s.changes
	s.changes = 0
	if c&changeDisplay != 0 {
		proxy.DisplayChanged(s)
	}
	if c&changeTransform != 0 {
		proxy.TransformChanged(s)
	}
	if c&changeColor != 0 {
		proxy.ColorChanged(s)
	}
	if c&changeBlend != 0 {
		proxy.BlendModeChanged(s)
	}
	if c&changeVisible != 0 {
		proxy.VisibleChanged(s)
	}
	if c&changeMesh != 0 {
		proxy.MeshChanged(s)
	}
}

func (s *Slot) updateGlobal() {
	s.globalMat = s.bone.globalMat
	if d := s.Display(); d != nil && d.Transform != (Transform{}) {
		s.globalMat = multiplyAffine(s.bone.globalMat, d.Transform.Matrix())
	}
}

// skinChanged reports whether any bone a weighted mesh follows moved.
func (s *Slot) skinChanged(mesh *MeshData) bool {
	bones := s.armature.bones
	for _, bindings := range mesh.Weights {
		for _, b := range bindings {
			if b.bone >= 0 && bones[b.bone].dirty == dirtyAll {
				return true
			}
		}
	}
	return false
}

// dispose releases the slot's nested armatures, then the slot.
func (s *Slot) dispose(proxy DisplayProxy) {
	for i, child := range s.children {
		if child != nil {
			child.disposeNow()
			s.children[i] = nil
		}
	}
	proxy.SlotDisposed(s)
}
