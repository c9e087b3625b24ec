package bones

// BoundingBoxType selects the shape of a bounding box display.
type BoundingBoxType uint8

const (
	BoundingBoxRectangle BoundingBoxType = iota
	BoundingBoxEllipse
	BoundingBoxPolygon
)

// BoundingBoxData is an invisible hit area in slot space. Rectangles and
// ellipses are centered on the slot origin; polygons list x,y pairs.
type BoundingBoxData struct {
	Type     BoundingBoxType
	Width    float64
	Height   float64
	Vertices []float64
}

// Contains reports whether the slot-space point (x, y) lies inside the box.
func (b *BoundingBoxData) Contains(x, y float64) bool {
	switch b.Type {
	case BoundingBoxRectangle:
		hw, hh := b.Width*0.5, b.Height*0.5
		return x >= -hw && x <= hw && y >= -hh && y <= hh
	case BoundingBoxEllipse:
		hw, hh := b.Width*0.5, b.Height*0.5
		if hw <= 0 || hh <= 0 {
			return false
		}
		nx, ny := x/hw, y/hh
		return nx*nx+ny*ny <= 1
	case BoundingBoxPolygon:
		return polygonContains(b.Vertices, x, y)
	}
	return false
}

// polygonContains runs the even-odd rule, so concave outlines work too.
func polygonContains(v []float64, x, y float64) bool {
	n := len(v) / 2
	if n < 3 {
		return false
	}
	inside := false
	j := n - 1
	for i := 0; i < n; i++ {
		xi, yi := v[i*2], v[i*2+1]
		xj, yj := v[j*2], v[j*2+1]
		if (yi > y) != (yj > y) && x < (xj-xi)*(y-yi)/(yj-yi)+xi {
			inside = !inside
		}
		j = i
	}
	return inside
}

// BoundingBox returns the active display's bounding box, or nil when the
// slot is not showing one.
func (s *Slot) BoundingBox() *BoundingBoxData {
	d := s.Display()
	if d == nil || d.Type != DisplayBoundingBox {
		return nil
	}
	return d.BoundingBox
}

// ContainsPoint reports whether the armature-space point (x, y) lies inside
// the slot's bounding box.
func (s *Slot) ContainsPoint(x, y float64) bool {
	bb := s.BoundingBox()
	if bb == nil || !s.bone.visible {
		return false
	}
	lx, ly := transformPoint(invertAffine(s.globalMat), x, y)
	return bb.Contains(lx, ly)
}

// ContainsPoint returns the topmost slot whose bounding box contains the
// armature-space point (x, y), or nil.
func (a *Armature) ContainsPoint(x, y float64) *Slot {
	order := a.DrawOrder()
	// Reverse draw order: topmost first.
	for i := len(order) - 1; i >= 0; i-- {
		if s := order[i]; s.ContainsPoint(x, y) {
			return s
		}
	}
	return nil
}
