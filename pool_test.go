package bones

import "testing"

func TestFreeListReuses(t *testing.T) {
	l := newFreeList(func(e *EventObject) { e.reset() })
	e := l.acquire()
	e.Name = "dirty"
	l.release(e)
	got := l.acquire()
	if got != e {
		t.Error("released object was not reused")
	}
	if got.Name != "" {
		t.Error("reused object was not reset")
	}
	if l.made != 1 {
		t.Errorf("made = %d, want 1", l.made)
	}
	l.release(nil)
	if len(l.free) != 0 {
		t.Error("nil was stored")
	}
}

func TestFreeListNeedsReset(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	newFreeList[Bone](nil)
}

func TestPoolRecyclesDisposedArmature(t *testing.T) {
	f := newTestFactory(t, DefaultConfig(), walkerData())
	a := f.BuildArmature("walker", "")
	a.Animation().Play("walk", 0)
	a.AdvanceTime(0.1)
	allocated := f.Pool().Stats().Allocated

	a.Dispose()
	st := f.Pool().Stats()
	if st.FreeBones != 2 || st.FreeSlots != 2 || st.FreeStates != 1 {
		t.Errorf("stats after dispose = %+v", st)
	}

	b := f.BuildArmature("walker", "")
	b.Animation().Play("walk", 0)
	b.AdvanceTime(0.1)
	if got := f.Pool().Stats().Allocated; got != allocated {
		t.Errorf("rebuilding allocated %d new objects", got-allocated)
	}
}

func TestPoolSteadyStateDoesNotAllocate(t *testing.T) {
	a := buildTest(t, walkerData())
	a.AddEventListener(EventLoopComplete, func(*EventObject) {})
	a.Animation().Play("walk", 0)
	for range 120 {
		a.AdvanceTime(1.0 / 60)
	}
	allocs := testing.AllocsPerRun(100, func() {
		a.AdvanceTime(1.0 / 60)
	})
	if allocs != 0 {
		t.Errorf("AdvanceTime allocates %v times per tick", allocs)
	}
}
