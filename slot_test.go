package bones

import (
	"fmt"
	"testing"
)

// recordingProxy logs every notification as "kind:name".
type recordingProxy struct {
	calls []string
}

func (p *recordingProxy) record(kind, name string) {
	p.calls = append(p.calls, kind+":"+name)
}

func (p *recordingProxy) DisplayChanged(s *Slot)       { p.record("display", s.Name()) }
func (p *recordingProxy) TransformChanged(s *Slot)     { p.record("transform", s.Name()) }
func (p *recordingProxy) ColorChanged(s *Slot)         { p.record("color", s.Name()) }
func (p *recordingProxy) BlendModeChanged(s *Slot)     { p.record("blend", s.Name()) }
func (p *recordingProxy) VisibleChanged(s *Slot)       { p.record("visible", s.Name()) }
func (p *recordingProxy) MeshChanged(s *Slot)          { p.record("mesh", s.Name()) }
func (p *recordingProxy) DrawOrderChanged(a *Armature) { p.record("order", a.Name()) }
func (p *recordingProxy) SlotDisposed(s *Slot)         { p.record("disposed", s.Name()) }

func (p *recordingProxy) reset() { p.calls = p.calls[:0] }

func (p *recordingProxy) count(kind, name string) int {
	n := 0
	for _, c := range p.calls {
		if c == kind+":"+name {
			n++
		}
	}
	return n
}

func assertFloats(t *testing.T, name string, got, want []float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("%s: len = %d, want %d (%v)", name, len(got), len(want), got)
	}
	for i := range got {
		assertNear(t, fmt.Sprintf("%s[%d]", name, i), got[i], want[i])
	}
}

func TestSlotFirstTickNotifiesEverything(t *testing.T) {
	a := buildTest(t, walkerData())
	p := &recordingProxy{}
	a.SetProxy(p)
	a.AdvanceTime(0)
	for _, kind := range []string{"display", "transform", "color", "blend", "visible", "mesh"} {
		for _, slot := range []string{"body", "foot"} {
			if n := p.count(kind, slot); n != 1 {
				t.Errorf("%s:%s calls = %d, want 1", kind, slot, n)
			}
		}
	}

	p.reset()
	a.AdvanceTime(1.0 / 60)
	if len(p.calls) != 0 {
		t.Errorf("idle tick notified %v", p.calls)
	}
}

func TestSlotSetDisplayIndex(t *testing.T) {
	a := buildTest(t, walkerData())
	p := &recordingProxy{}
	a.SetProxy(p)
	a.AdvanceTime(0)
	p.reset()

	foot := a.GetSlot("foot")
	foot.SetDisplayIndex(1)
	a.AdvanceTime(0)
	if foot.DisplayIndex() != 1 || foot.Display().Name != "boot" {
		t.Errorf("display = %d", foot.DisplayIndex())
	}
	if p.count("display", "foot") != 1 || p.count("transform", "foot") != 1 {
		t.Errorf("calls = %v", p.calls)
	}
	if p.count("display", "body") != 0 {
		t.Error("untouched slot notified")
	}

	foot.SetDisplayIndex(5)
	a.AdvanceTime(0)
	if foot.DisplayIndex() != -1 || foot.Display() != nil || foot.Visible() {
		t.Error("out of range index should hide the slot")
	}
	if _, ok := foot.DisplayType(); ok {
		t.Error("DisplayType of a hidden slot")
	}
}

func TestSlotBlendMode(t *testing.T) {
	a := buildTest(t, walkerData())
	p := &recordingProxy{}
	a.SetProxy(p)
	a.AdvanceTime(0)
	p.reset()

	body := a.GetSlot("body")
	body.SetBlendMode(BlendAdd)
	body.SetBlendMode(BlendAdd)
	a.AdvanceTime(0)
	if p.count("blend", "body") != 1 || body.BlendMode() != BlendAdd {
		t.Errorf("calls = %v", p.calls)
	}
}

func TestSlotColorTimeline(t *testing.T) {
	d := walkerData()
	faded := IdentityColor
	faded.AlphaMultiplier = 0
	d.Animations = append(d.Animations, &AnimationData{
		Name: "fade", Duration: 1,
		Slots: []*SlotTimelineData{{
			Slot: "body",
			Color: []*ColorFrame{
				{Frame: line(0), Color: IdentityColor},
				{Frame: line(1), Color: faded},
			},
		}},
	})
	a := buildTest(t, d)
	p := &recordingProxy{}
	a.SetProxy(p)
	a.AdvanceTime(0)
	p.reset()

	a.Animation().GotoAndStopByTime("fade", 0.5)
	a.AdvanceTime(0)
	assertNear(t, "alpha", a.GetSlot("body").Color().AlphaMultiplier, 0.5)
	assertNear(t, "red", a.GetSlot("body").Color().RedMultiplier, 1)
	if p.count("color", "body") != 1 || p.count("color", "foot") != 0 {
		t.Errorf("calls = %v", p.calls)
	}

	// A state that does not key the slot resets it to the default color.
	a.Animation().Play("walk", 0)
	a.AdvanceTime(0)
	assertNear(t, "reset alpha", a.GetSlot("body").Color().AlphaMultiplier, 1)
}

func TestSlotDeformTimeline(t *testing.T) {
	mesh := &MeshData{
		Vertices:  []float64{0, 0, 10, 0, 0, 10},
		UVs:       []float64{0, 0, 1, 0, 0, 1},
		Triangles: []uint16{0, 1, 2},
	}
	d := &ArmatureData{
		Name:  "flag",
		Bones: []*BoneData{NewBoneData("pole", "", pose(100, 0, 0))},
		Slots: []*SlotData{NewSlotData("cloth", "pole", &DisplayData{Type: DisplayMesh, Name: "cloth", Mesh: mesh})},
		Animations: []*AnimationData{{
			Name: "wave", Duration: 1,
			Slots: []*SlotTimelineData{{
				Slot: "cloth",
				Deform: []*DeformFrame{
					{Frame: line(0), Offset: 2, Vertices: []float64{0, 0}},
					{Frame: line(1), Offset: 2, Vertices: []float64{10, 20}},
				},
			}},
		}},
	}
	a := buildTest(t, d)
	p := &recordingProxy{}
	a.SetProxy(p)
	a.AdvanceTime(0)
	p.reset()

	a.Animation().GotoAndStopByTime("wave", 0.5)
	a.AdvanceTime(0)
	cloth := a.GetSlot("cloth")
	assertFloats(t, "offsets", cloth.DeformVertices(), []float64{0, 0, 5, 10, 0, 0})
	assertFloats(t, "vertices", cloth.DeformedVertices(nil), []float64{0, 0, 15, 10, 0, 10})
	if p.count("mesh", "cloth") != 1 {
		t.Errorf("calls = %v", p.calls)
	}

	p.reset()
	a.AdvanceTime(0)
	if p.count("mesh", "cloth") != 0 {
		t.Error("unchanged deform notified again")
	}
}

func TestSlotWeightedMesh(t *testing.T) {
	mesh := &MeshData{
		UVs:       []float64{0.5, 0.5},
		Triangles: []uint16{0, 0, 0},
		Weights: [][]BoneBinding{{
			{Bone: "a", Weight: 0.5},
			{Bone: "b", Weight: 0.5, Y: 2},
		}},
	}
	d := &ArmatureData{
		Name: "skin",
		Bones: []*BoneData{
			NewBoneData("a", "", pose(0, 0, 0)),
			NewBoneData("b", "", pose(10, 0, 0)),
		},
		Slots: []*SlotData{NewSlotData("web", "a", &DisplayData{Type: DisplayMesh, Name: "web", Mesh: mesh})},
	}
	a := buildTest(t, d)
	p := &recordingProxy{}
	a.SetProxy(p)
	a.AdvanceTime(0)
	web := a.GetSlot("web")
	assertFloats(t, "rest", web.DeformedVertices(nil), []float64{5, 1})
	if mesh.VertexCount() != 1 {
		t.Errorf("VertexCount = %d", mesh.VertexCount())
	}

	p.reset()
	a.GetBone("b").Offset = Transform{X: 10, ScaleX: 1, ScaleY: 1}
	a.AdvanceTime(0)
	assertFloats(t, "moved", web.DeformedVertices(nil), []float64{10, 1})
	if p.count("mesh", "web") != 1 || p.count("transform", "web") != 0 {
		t.Errorf("calls = %v", p.calls)
	}
}

func TestSlotDisplayTransform(t *testing.T) {
	d := walkerData()
	d.Bones[0].Pose = pose(10, 0, 0)
	d.Slots[0].Displays[0].Transform = pose(0, 5, 0)
	a := buildTest(t, d)
	a.AdvanceTime(0)
	x, y := a.GetSlot("body").GlobalMatrix().TransformPoint(0, 0)
	assertNear(t, "x", x, 10)
	assertNear(t, "y", y, 5)
}
