package bones

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
)

// captureDebug enables debug mode and collects its output until the
// returned function is called.
func captureDebug(t *testing.T) (*bytes.Buffer, func()) {
	t.Helper()
	var buf bytes.Buffer
	old := debugOutput
	debugOutput = &buf
	SetDebugMode(true)
	return &buf, func() {
		SetDebugMode(false)
		debugOutput = old
	}
}

func expectPanic(t *testing.T, contains string, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		if r == nil {
			t.Fatalf("expected panic containing %q, got none", contains)
		}
		if msg := fmt.Sprint(r); !strings.Contains(msg, contains) {
			t.Errorf("panic message should mention %q, got: %s", contains, msg)
		}
	}()
	fn()
}

// ---- Debug mode tests ------------------------------------------------------

func TestDebugMode_DisposedArmaturePanics(t *testing.T) {
	a := buildTest(t, walkerData())
	a.Dispose()
	_, done := captureDebug(t)
	defer done()
	expectPanic(t, "disposed", func() { a.AdvanceTime(0.1) })
}

func TestDebugMode_DisposedArmatureSilentWithoutDebug(t *testing.T) {
	a := buildTest(t, walkerData())
	a.Dispose()
	a.AdvanceTime(0.1)
	if a.Animation().Play("walk", 0) != nil {
		t.Error("Play on a disposed armature should return nil")
	}
}

func TestDebugMode_UnknownNamesPanic(t *testing.T) {
	a := buildTest(t, walkerData())
	_, done := captureDebug(t)
	defer done()
	expectPanic(t, `unknown animation "fly"`, func() { a.Animation().Play("fly", 0) })
	expectPanic(t, `unknown bone "tail"`, func() { a.GetBone("tail") })
	expectPanic(t, `unknown slot "hat"`, func() { a.GetSlot("hat") })
}

func TestDebugMode_UnknownNamesSilentWithoutDebug(t *testing.T) {
	a := buildTest(t, walkerData())
	if a.GetBone("tail") != nil || a.GetSlot("hat") != nil {
		t.Error("unknown lookups should return nil")
	}
}

func TestDebugMode_PrepareWarnings(t *testing.T) {
	buf, done := captureDebug(t)
	defer done()
	d := walkerData()
	d.Slots = append(d.Slots, NewSlotData("ghost", "missing"))
	r := &RigData{Name: "warn", Armatures: []*ArmatureData{d}}
	if err := r.Prepare(); err != nil {
		t.Fatal(err)
	}
	if out := buf.String(); !strings.Contains(out, "[bones] warning: skipped") || !strings.Contains(out, `slot "ghost"`) {
		t.Errorf("expected skip warning, got: %q", out)
	}
}

func TestDebugMode_BoneDepthWarning(t *testing.T) {
	buf, done := captureDebug(t)
	defer done()
	d := &ArmatureData{Name: "deep"}
	parent := ""
	for i := range debugMaxBoneDepth + 5 {
		name := fmt.Sprintf("b%d", i)
		d.Bones = append(d.Bones, NewBoneData(name, parent, pose(1, 0, 0)))
		parent = name
	}
	a := buildTest(t, d)
	a.AdvanceTime(0)
	if !strings.Contains(buf.String(), "warning: bone depth") {
		t.Errorf("expected depth warning, got: %q", buf.String())
	}
}

func TestDebugStats_PrintedPerTick(t *testing.T) {
	buf, done := captureDebug(t)
	defer done()
	a := buildTest(t, walkerData())
	a.SetDebugMode(true)
	a.Animation().Play("walk", 0)
	a.AdvanceTime(0.1)
	out := buf.String()
	for _, want := range []string{"[bones] walker animation:", "| bones:", "| flush:", "updated: 2"} {
		if !strings.Contains(out, want) {
			t.Errorf("stats output missing %q: %q", want, out)
		}
	}

	buf.Reset()
	a.AdvanceTime(0.1)
	if !strings.Contains(buf.String(), "skipped: 1") {
		t.Errorf("root bone should be skipped on the second tick: %q", buf.String())
	}
}

func TestDebugMode_NestedArmatureOnClockPanics(t *testing.T) {
	f := newTestFactory(t, DefaultConfig(), nestedData()...)
	host := f.BuildArmature("host", "")
	child := host.GetSlot("mount").ChildArmature()
	if child == nil {
		t.Fatal("no nested armature")
	}
	_, done := captureDebug(t)
	defer done()
	expectPanic(t, "nested", func() { NewWorldClock(0.1).Add(child) })
}
