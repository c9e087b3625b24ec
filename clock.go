package bones

import (
	"slices"

	"github.com/hajimehoshi/ebiten/v2"
)

// Animatable is anything a WorldClock can advance: armatures, or other
// clocks.
type Animatable interface {
	AdvanceTime(passedTime float64)
}

// WorldClock advances many armatures once per host tick. Items added or
// removed while the clock is advancing take effect on the next tick.
type WorldClock struct {
	// TimeScale multiplies the time passed to every item.
	TimeScale float64
	// Time is the scaled time advanced so far.
	Time float64

	fixedStep float64
	items     []Animatable
	advancing bool
	holes     bool
}

// NewWorldClock returns a clock whose AdvanceTime(-1) steps by fixedStep
// seconds. fixedStep <= 0 uses one Ebitengine tick (1/TPS).
func NewWorldClock(fixedStep float64) *WorldClock {
	if fixedStep <= 0 {
		fixedStep = 1 / float64(ebiten.TPS())
	}
	return &WorldClock{TimeScale: 1, fixedStep: fixedStep}
}

// FixedStep returns the step used for negative passed times.
func (c *WorldClock) FixedStep() float64 { return c.fixedStep }

// Add schedules item on the clock. An armature is moved off any clock it
// was on. Nested armatures advance with their host and cannot be added.
func (c *WorldClock) Add(item Animatable) {
	if item == nil || c.Contains(item) {
		return
	}
	if a, ok := item.(*Armature); ok {
		if a.disposed {
			if globalDebug {
				debugCheckDisposed(a, "WorldClock.Add")
			}
			return
		}
		if a.parent != nil {
			if globalDebug {
				panic("bones debug: WorldClock.Add: armature " + a.Name() + " is nested in a slot")
			}
			return
		}
		if a.clock != nil {
			a.clock.Remove(a)
		}
		a.clock = c
	}
	if item == Animatable(c) {
		panic("bones: cannot add a clock to itself")
	}
	c.items = append(c.items, item)
}

// Remove unschedules item.
func (c *WorldClock) Remove(item Animatable) {
	i := slices.Index(c.items, item)
	if i < 0 {
		return
	}
	if a, ok := item.(*Armature); ok && a.clock == c {
		a.clock = nil
	}
	if c.advancing {
		c.items[i] = nil
		c.holes = true
		return
	}
	c.items = slices.Delete(c.items, i, i+1)
}

// Contains reports whether item is scheduled on the clock.
func (c *WorldClock) Contains(item Animatable) bool {
	return item != nil && slices.Contains(c.items, item)
}

// Len returns the number of scheduled items.
func (c *WorldClock) Len() int {
	n := 0
	for _, it := range c.items {
		if it != nil {
			n++
		}
	}
	return n
}

// Clear unschedules every item.
func (c *WorldClock) Clear() {
	for _, it := range slices.Clone(c.items) {
		if it != nil {
			c.Remove(it)
		}
	}
}

// AdvanceTime advances every item by passedTime scaled by TimeScale. A
// negative passedTime uses the fixed step.
func (c *WorldClock) AdvanceTime(passedTime float64) {
	if passedTime < 0 {
		passedTime = c.fixedStep
	}
	passedTime *= c.TimeScale
	c.Time += passedTime
	if c.advancing {
		return
	}
	c.advancing = true
	n := len(c.items)
	for i := 0; i < n; i++ {
		if it := c.items[i]; it != nil {
			it.AdvanceTime(passedTime)
		}
	}
	c.advancing = false
	if c.holes {
		c.holes = false
		c.items = slices.DeleteFunc(c.items, func(it Animatable) bool { return it == nil })
	}
}
