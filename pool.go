package bones

// freeList is a stack of released objects of one type. Every released object
// passes through reset before it is stored, so Acquire always hands out an
// object in its initial state. After warmup, acquire/release are zero-alloc.
type freeList[T any] struct {
	free  []*T
	reset func(*T)
	made  int
}

func newFreeList[T any](reset func(*T)) freeList[T] {
	if reset == nil {
		panic("bones: free list needs a reset function")
	}
	return freeList[T]{reset: reset}
}

func (l *freeList[T]) acquire() *T {
	if n := len(l.free); n > 0 {
		obj := l.free[n-1]
		l.free[n-1] = nil
		l.free = l.free[:n-1]
		return obj
	}
	l.made++
	obj := new(T)
	l.reset(obj)
	return obj
}

func (l *freeList[T]) release(obj *T) {
	if obj == nil {
		return
	}
	l.reset(obj)
	l.free = append(l.free, obj)
}

// Pool recycles the runtime objects of armatures: bones, slots,
// constraints, animation states, timelines and event objects. A Pool is
// passed to NewFactory; separate factories may share one pool or use their
// own. A Pool is not safe for concurrent use.
type Pool struct {
	bones         freeList[Bone]
	slots         freeList[Slot]
	constraints   freeList[IKConstraint]
	states        freeList[AnimationState]
	boneTimelines freeList[boneTimeline]
	slotTimelines freeList[slotTimeline]
	events        freeList[EventObject]
}

// NewPool returns an empty pool.
func NewPool() *Pool {
	return &Pool{
		bones:         newFreeList((*Bone).reset),
		slots:         newFreeList((*Slot).reset),
		constraints:   newFreeList((*IKConstraint).reset),
		states:        newFreeList((*AnimationState).reset),
		boneTimelines: newFreeList((*boneTimeline).reset),
		slotTimelines: newFreeList((*slotTimeline).reset),
		events:        newFreeList((*EventObject).reset),
	}
}

// PoolStats reports how many objects of each kind are waiting for reuse and
// how many were ever allocated.
type PoolStats struct {
	FreeBones, FreeSlots, FreeStates, FreeTimelines, FreeEvents int
	Allocated                                                   int
}

// Stats returns the pool's current counters.
func (p *Pool) Stats() PoolStats {
	return PoolStats{
		FreeBones:     len(p.bones.free),
		FreeSlots:     len(p.slots.free),
		FreeStates:    len(p.states.free),
		FreeTimelines: len(p.boneTimelines.free) + len(p.slotTimelines.free),
		FreeEvents:    len(p.events.free),
		Allocated: p.bones.made + p.slots.made + p.constraints.made + p.states.made +
			p.boneTimelines.made + p.slotTimelines.made + p.events.made,
	}
}
