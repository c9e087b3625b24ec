package bones

import (
	"slices"
	"testing"
)

type sinkRecorder struct {
	events []EventObject
}

func (s *sinkRecorder) EmitEvent(e EventObject) { s.events = append(s.events, e) }

func TestEventListenerRemove(t *testing.T) {
	a := buildTest(t, walkerData())
	var calls int
	h := a.AddEventListener(EventStart, func(*EventObject) { calls++ })
	if !a.HasEventListener(EventStart) || a.HasEventListener(EventComplete) {
		t.Error("HasEventListener")
	}
	a.Animation().Play("walk", 0)
	a.AdvanceTime(0.1)
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}

	a.RemoveEventListener(h)
	a.Animation().Play("run", 0)
	a.AdvanceTime(0.1)
	if calls != 1 {
		t.Errorf("removed listener fired: calls = %d", calls)
	}
	if a.HasEventListener(EventStart) {
		t.Error("HasEventListener after removal")
	}
}

func TestEventListenerRemovesItselfDuringFlush(t *testing.T) {
	a := buildTest(t, walkerData())
	var order []string
	var h ListenerHandle
	h = a.AddEventListener(EventLoopComplete, func(*EventObject) {
		order = append(order, "first")
		h.Remove()
	})
	a.AddEventListener(EventLoopComplete, func(*EventObject) { order = append(order, "second") })

	a.Animation().Play("walk", 0)
	a.AdvanceTime(2.5)
	// Two loops completed in one tick: the first listener sees only one.
	want := []string{"first", "second", "second"}
	if !slices.Equal(order, want) {
		t.Errorf("order = %v, want %v", order, want)
	}
}

func TestEventObjectFields(t *testing.T) {
	a := buildTest(t, walkerData())
	var got []EventObject
	a.AddEventListener(EventFrame, func(e *EventObject) { got = append(got, *e) })
	a.Animation().Play("once", 1)
	a.AdvanceTime(0.75)

	if len(got) != 1 {
		t.Fatalf("frame events = %d, want 1", len(got))
	}
	e := got[0]
	if e.Name != "step" || e.Armature != a || e.Bone != a.GetBone("leg") || e.Slot != nil {
		t.Errorf("event = %+v", e)
	}
	assertNear(t, "Time", e.Time, 0.5)
}

func TestEventSinkReceivesCopies(t *testing.T) {
	a := buildTest(t, walkerData())
	sink := &sinkRecorder{}
	a.SetEventSink(sink)
	if !a.HasEventListener(EventSound) {
		t.Error("a sink listens to every type")
	}
	var listened []EventType
	a.AddEventListener(EventStart, func(e *EventObject) { listened = append(listened, e.Type) })

	a.Animation().Play("once", 1)
	a.AdvanceTime(1)
	types := make([]EventType, 0, len(sink.events))
	for _, e := range sink.events {
		types = append(types, e.Type)
	}
	for _, want := range []EventType{EventFadeIn, EventFadeInComplete, EventStart, EventComplete, EventFrame} {
		if !slices.Contains(types, want) {
			t.Errorf("sink missed %v (got %v)", want, types)
		}
	}
	if len(listened) != 1 {
		t.Errorf("listener calls = %d", len(listened))
	}
	// Copies stay valid after the flush returned the pooled objects.
	for _, e := range sink.events {
		if e.Armature != a || e.AnimationName() != "once" {
			t.Errorf("copied event = %+v", e)
		}
	}

	a.SetEventSink(nil)
	n := len(sink.events)
	a.Animation().Play("walk", 0)
	a.AdvanceTime(0.1)
	if len(sink.events) != n {
		t.Error("removed sink still receives events")
	}
}

func TestEventPlayActionRunsBeforeListeners(t *testing.T) {
	d := walkerData()
	d.Animations[2].Actions = append(d.Animations[2].Actions, &ActionFrame{
		Frame:   Frame{Position: 0.5},
		Actions: []*ActionData{{Type: ActionPlay, Name: "run"}},
	})
	a := buildTest(t, d)
	var seen string
	a.AddEventListener(EventFrame, func(*EventObject) {
		seen = a.Animation().LastAnimationName()
	})
	a.Animation().Play("once", 1)
	a.AdvanceTime(0.75)
	if seen != "run" {
		t.Errorf("listener saw %q, want run", seen)
	}
}

func TestEventListenerStartsAnimation(t *testing.T) {
	a := buildTest(t, walkerData())
	var log eventLog
	log.listen(a, EventStart)
	a.AddEventListener(EventComplete, func(e *EventObject) {
		if e.AnimationName() == "once" {
			e.Armature.Animation().Play("walk", 0)
		}
	})
	a.Animation().Play("once", 1)
	a.AdvanceTime(1)
	a.AdvanceTime(0.25)
	assertNear(t, "walk playing", legX(a), 2.5)
	if log.count("start:walk") != 1 {
		t.Errorf("log = %v", log.entries)
	}
}

func TestEventTypeString(t *testing.T) {
	if EventLoopComplete.String() != "loopComplete" || EventFrame.String() != "frameEvent" {
		t.Error("EventType names")
	}
	if EventType(200).String() != "unknown" {
		t.Error("out of range EventType")
	}
}

func TestEventDisposeInsideListener(t *testing.T) {
	a := buildTest(t, walkerData())
	var after int
	a.AddEventListener(EventStart, func(e *EventObject) {
		e.Armature.Dispose()
		if e.Armature.IsDisposed() {
			t.Error("disposed during the tick")
		}
	})
	a.AddEventListener(EventStart, func(*EventObject) { after++ })
	a.Animation().Play("walk", 0)
	a.AdvanceTime(0.1)
	if after != 1 {
		t.Error("later listeners should still run")
	}
	if !a.IsDisposed() {
		t.Error("dispose should apply after the tick")
	}
}
