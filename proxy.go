package bones

// DisplayProxy is implemented by the host to mirror slots onto renderable
// objects. The armature calls it after each tick's bone and slot pass, once
// per changed property. Implementations read the new values from the slot.
type DisplayProxy interface {
	// DisplayChanged reports a new active display (or none).
	DisplayChanged(s *Slot)
	// TransformChanged reports a new slot global matrix.
	TransformChanged(s *Slot)
	// ColorChanged reports a new color transform.
	ColorChanged(s *Slot)
	// BlendModeChanged reports a new blend mode.
	BlendModeChanged(s *Slot)
	// VisibleChanged reports that the slot was shown or hidden.
	VisibleChanged(s *Slot)
	// MeshChanged reports new deformed or skinned vertices.
	MeshChanged(s *Slot)
	// DrawOrderChanged reports that DrawOrder returns a new order.
	DrawOrderChanged(a *Armature)
	// SlotDisposed is the last call made for a slot.
	SlotDisposed(s *Slot)
}

// NopProxy ignores every notification. It is the default proxy of new
// armatures.
type NopProxy struct{}

func (NopProxy) DisplayChanged(*Slot) {}
func (NopProxy) TransformChanged(*Slot) {}
func (NopProxy) ColorChanged(*Slot) {}
func (NopProxy) BlendModeChanged(*Slot) {}
func (NopProxy) VisibleChanged(*Slot) {}
func (NopProxy) MeshChanged(*Slot) {}
func (NopProxy) DrawOrderChanged(*Armature) {}
func (NopProxy) SlotDisposed(*Slot) {}
