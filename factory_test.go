package bones

import (
	"slices"
	"strings"
	"testing"
)

// nestedData returns a host armature whose "mount" slot shows a nested
// rider armature, and a "loop" armature that tries to nest itself.
func nestedData() []*ArmatureData {
	rider := &ArmatureData{
		Name:  "rider",
		Bones: []*BoneData{NewBoneData("root", "", pose(0, 0, 0))},
		Slots: []*SlotData{NewSlotData("flag", "root", &DisplayData{Type: DisplayImage, Name: "flag"})},
		Animations: []*AnimationData{
			{
				Name: "wave", Duration: 1,
				Bones: []*BoneTimelineData{{
					Bone: "root",
					Translate: []*TranslateFrame{
						{Frame: line(0), X: 0},
						{Frame: line(1), X: 10},
					},
				}},
			},
			{Name: "idle", Duration: 1},
		},
	}
	host := &ArmatureData{
		Name:  "host",
		Bones: []*BoneData{NewBoneData("root", "", pose(0, 0, 0))},
		Slots: []*SlotData{NewSlotData("mount", "root", &DisplayData{Type: DisplayArmature, Name: "rider"})},
	}
	loop := &ArmatureData{
		Name:  "loop",
		Bones: []*BoneData{NewBoneData("root", "", pose(0, 0, 0))},
		Slots: []*SlotData{NewSlotData("self", "root", &DisplayData{Type: DisplayArmature, Name: "loop"})},
	}
	return []*ArmatureData{host, rider, loop}
}

func TestFactoryBuildUnknown(t *testing.T) {
	f := newTestFactory(t, DefaultConfig(), walkerData())
	if f.BuildArmature("nobody", "") != nil {
		t.Error("unknown armature should build nil")
	}
	if f.BuildArmature("walker", "other") != nil {
		t.Error("unknown rig should build nil")
	}
	if f.BuildArmature("walker", "test") == nil {
		t.Error("explicit rig name")
	}
}

func TestFactoryRigRegistry(t *testing.T) {
	f := NewFactory(nil, DefaultConfig())
	if f.Pool() == nil {
		t.Fatal("nil pool should be replaced")
	}
	if err := f.AddRig(nil); err == nil {
		t.Error("nil rig: expected error")
	}
	for _, name := range []string{"b", "a"} {
		if err := f.AddRig(&RigData{Name: name, Armatures: []*ArmatureData{walkerData()}}); err != nil {
			t.Fatalf("AddRig(%q): %v", name, err)
		}
	}
	err := f.AddRig(&RigData{Name: "a", Armatures: []*ArmatureData{walkerData()}})
	if err == nil || !strings.Contains(err.Error(), "already registered") {
		t.Errorf("duplicate rig: err = %v", err)
	}
	if err := f.AddRig(&RigData{Name: "empty"}); err == nil || !strings.Contains(err.Error(), "add rig") {
		t.Errorf("empty rig: err = %v", err)
	}
	if got := f.RigNames(); !slices.Equal(got, []string{"a", "b"}) {
		t.Errorf("RigNames = %v", got)
	}
	// Without a rig name the first rig by name wins.
	if a := f.BuildArmature("walker", ""); a.Data() != f.Rig("a").Armature("walker") {
		t.Error("BuildArmature picked the wrong rig")
	}
	f.RemoveRig("a")
	if f.Rig("a") != nil || len(f.RigNames()) != 1 {
		t.Error("RemoveRig")
	}
}

func TestFactoryAppliesCacheFrameRate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CacheFrameRate = 30
	own := walkerData()
	own.CacheFrameRate = 12
	f := newTestFactory(t, cfg, walkerData(), armData())
	if got := f.BuildArmature("walker", "").CacheFrameRate(); got != 30 {
		t.Errorf("CacheFrameRate = %v, want 30", got)
	}
	g := NewFactory(nil, cfg)
	if err := g.AddRig(&RigData{Name: "own", Armatures: []*ArmatureData{own}}); err != nil {
		t.Fatal(err)
	}
	if got := g.BuildArmature("walker", "").CacheFrameRate(); got != 12 {
		t.Errorf("own CacheFrameRate = %v, want 12", got)
	}
}

func TestFactoryZeroConfig(t *testing.T) {
	f := newTestFactory(t, Config{}, walkerData())
	if got := f.Config(); got != DefaultConfig() {
		t.Errorf("Config = %+v, want defaults", got)
	}
	a := f.BuildArmature("walker", "")
	a.Animation().Play("walk", 0)
	a.AdvanceTime(0.5)
	assertNear(t, "leg x", legX(a), 5)

	cfg := Config{CacheFrameRate: 10}
	g := NewFactory(nil, cfg)
	if got := g.Config(); got.TimeScale != 1 || got.FadeCurve != "linear" || got.CacheFrameRate != 10 {
		t.Errorf("partial Config = %+v", got)
	}
}

func TestFactoryDefaultActions(t *testing.T) {
	d := walkerData()
	d.DefaultActions = []*ActionData{{Type: ActionPlay, Name: "run"}}
	a := buildTest(t, d)
	if a.Animation().LastAnimationName() != "run" {
		t.Errorf("default action did not play run: %q", a.Animation().LastAnimationName())
	}
	if buildTest(t, walkerData()).Animation().LastAnimationState() != nil {
		t.Error("armature without default actions should not play")
	}
}

func TestFactoryNestedArmature(t *testing.T) {
	f := newTestFactory(t, DefaultConfig(), nestedData()...)
	host := f.BuildArmature("host", "")
	mount := host.GetSlot("mount")
	child := mount.ChildArmature()
	if child == nil {
		t.Fatal("nested armature was not built")
	}
	if child.Parent() != mount || child.Name() != "rider" {
		t.Error("nested armature links")
	}
	if kind, ok := mount.DisplayType(); !ok || kind != DisplayArmature {
		t.Error("DisplayType")
	}
	if child.Animation().LastAnimationName() != "wave" {
		t.Errorf("nested armature plays %q, want its default animation", child.Animation().LastAnimationName())
	}

	host.Animation().TimeScale = 2
	host.AdvanceTime(0.25)
	assertNear(t, "child time", child.Animation().LastAnimationState().CurrentTime(), 0.5)
	assertNear(t, "child x", child.GetBone("root").Global().X, 5)
}

func TestFactoryDisplayActions(t *testing.T) {
	data := nestedData()
	data[0].Slots[0].Displays[0].Actions = []*ActionData{{Type: ActionPlay, Name: "idle"}}
	f := newTestFactory(t, DefaultConfig(), data...)
	child := f.BuildArmature("host", "").GetSlot("mount").ChildArmature()
	if child.Animation().LastAnimationName() != "idle" {
		t.Errorf("display action not run: %q", child.Animation().LastAnimationName())
	}
}

func TestFactorySelfNestingIsSkipped(t *testing.T) {
	f := newTestFactory(t, DefaultConfig(), nestedData()...)
	a := f.BuildArmature("loop", "")
	if a == nil {
		t.Fatal("loop armature not built")
	}
	if a.GetSlot("self").ChildArmature() != nil {
		t.Error("armature nested itself")
	}
}

func TestFactoryDisposeChain(t *testing.T) {
	f := newTestFactory(t, DefaultConfig(), nestedData()...)
	host := f.BuildArmature("host", "")
	child := host.GetSlot("mount").ChildArmature()
	p := &recordingProxy{}
	host.SetProxy(p)
	if child.Proxy() != p {
		t.Fatal("proxy not propagated to the nested armature")
	}

	host.Dispose()
	if !host.IsDisposed() || !child.IsDisposed() {
		t.Error("disposing the host should dispose the nested armature")
	}
	flag, mount := slices.Index(p.calls, "disposed:flag"), slices.Index(p.calls, "disposed:mount")
	if flag < 0 || mount < 0 || flag > mount {
		t.Errorf("dispose order = %v, want nested slots first", p.calls)
	}
}

func TestFactoryDisposeNestedDetaches(t *testing.T) {
	f := newTestFactory(t, DefaultConfig(), nestedData()...)
	host := f.BuildArmature("host", "")
	mount := host.GetSlot("mount")
	child := mount.ChildArmature()
	child.Dispose()
	if mount.ChildArmature() != nil || child.Parent() != nil {
		t.Error("disposed nested armature still attached")
	}
	host.AdvanceTime(0.1)
	if host.IsDisposed() {
		t.Error("host disposed with its child")
	}
}

func TestFactoryGetByDisplay(t *testing.T) {
	a := buildTest(t, walkerData())
	boot := a.Data().Slot("foot").Displays[1]
	if a.GetSlotByDisplay(boot) != a.GetSlot("foot") || a.GetBoneByDisplay(boot) != a.GetBone("leg") {
		t.Error("lookup by display")
	}
	if a.GetSlotByDisplay(&DisplayData{}) != nil || a.GetBoneByDisplay(nil) != nil {
		t.Error("unknown display")
	}
}
