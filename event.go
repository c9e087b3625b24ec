package bones

// EventObject describes one animation event. Objects are pooled: they are
// only valid for the duration of the listener call.
type EventObject struct {
	Type           EventType
	Name           string // frame or sound event name
	Armature       *Armature
	AnimationState *AnimationState
	Bone           *Bone
	Slot           *Slot
	Data           *UserData
	Time           float64 // keyframe position, or the state's current time
}

func (e *EventObject) reset() {
	e.Type = 0
	e.Name = ""
	e.Armature = nil
	e.AnimationState = nil
	e.Bone = nil
	e.Slot = nil
	e.Data = nil
	e.Time = 0
}

// AnimationName returns the name of the event's animation state, or "".
func (e *EventObject) AnimationName() string {
	if e.AnimationState == nil {
		return ""
	}
	return e.AnimationState.Name()
}

// EventSink receives a copy of every event an armature flushes, after its
// listeners ran. It bridges events into a host event bus.
type EventSink interface {
	EmitEvent(e EventObject)
}

type listener struct {
	id uint32
	fn func(*EventObject)
}

type listenerRegistry struct {
	byType [eventTypeCount][]listener
	nextID uint32
}

// ListenerHandle removes a listener registered with AddEventListener.
type ListenerHandle struct {
	id    uint32
	reg   *listenerRegistry
	event EventType
}

// Remove unregisters the listener so it no longer fires. It is safe to call
// from inside a listener.
func (h ListenerHandle) Remove() {
	if h.reg == nil || h.event >= eventTypeCount {
		return
	}
	old := h.reg.byType[h.event]
	// Build a new slice: a flush in progress keeps iterating the old one.
	out := make([]listener, 0, len(old))
	for _, l := range old {
		if l.id != h.id {
			out = append(out, l)
		}
	}
	h.reg.byType[h.event] = out
}

// AddEventListener calls fn for every event of type t flushed by the
// armature.
func (a *Armature) AddEventListener(t EventType, fn func(*EventObject)) ListenerHandle {
	if t >= eventTypeCount || fn == nil {
		return ListenerHandle{}
	}
	a.listeners.nextID++
	id := a.listeners.nextID
	a.listeners.byType[t] = append(a.listeners.byType[t], listener{id: id, fn: fn})
	return ListenerHandle{id: id, reg: &a.listeners, event: t}
}

// HasEventListener reports whether any listener or sink receives events of
// type t.
func (a *Armature) HasEventListener(t EventType) bool {
	if a.sink != nil {
		return true
	}
	return t < eventTypeCount && len(a.listeners.byType[t]) > 0
}

// SetEventSink forwards every flushed event to sink. Nil removes it.
func (a *Armature) SetEventSink(sink EventSink) {
	a.sink = sink
}

// pendingAction is an ActionPlay crossed during sampling.
type pendingAction struct {
	action *ActionData
	state  *AnimationState
}

func (a *Armature) queueEvent(t EventType, state *AnimationState, time float64) *EventObject {
	e := a.pool.events.acquire()
	e.Type = t
	e.Armature = a
	e.AnimationState = state
	e.Time = time
	a.events = append(a.events, e)
	return e
}

// queueAction buffers the actions of a crossed keyframe. Frame and sound
// actions become events; play actions run before the events are flushed.
func (a *Armature) queueAction(action *ActionData, state *AnimationState, position float64) {
	switch action.Type {
	case ActionPlay:
		a.actions = append(a.actions, pendingAction{action: action, state: state})
	case ActionEvent, ActionSound:
		t := EventFrame
		if action.Type == ActionSound {
			t = EventSound
		}
		e := a.queueEvent(t, state, position)
		e.Name = action.Name
		e.Data = action.Data
		if action.Bone != "" {
			e.Bone = a.bone(action.Bone)
		}
		if action.Slot != "" {
			e.Slot = a.slot(action.Slot)
		}
	}
}

// runAction plays the action's animation on the nested armature of the named
// slot, on every nested armature attached to the named bone, or on the
// armature itself.
func (a *Armature) runAction(action *ActionData) {
	switch {
	case action.Slot != "":
		if s := a.slot(action.Slot); s != nil {
			if child := s.ChildArmature(); child != nil {
				child.animation.Play(action.Name, -1)
			}
		}
	case action.Bone != "":
		for _, s := range a.slots {
			if s.bone.data.Name != action.Bone {
				continue
			}
			if child := s.ChildArmature(); child != nil {
				child.animation.Play(action.Name, -1)
			}
		}
	default:
		a.animation.Play(action.Name, -1)
	}
}

// flush runs buffered actions, then delivers buffered events. Listeners may
// start animations; the events that causes are delivered in the same flush.
func (a *Armature) flush() {
	for i := 0; i < len(a.actions); i++ {
		a.runAction(a.actions[i].action)
	}
	clear(a.actions)
	a.actions = a.actions[:0]

	for i := 0; i < len(a.events); i++ {
		e := a.events[i]
		for _, l := range a.listeners.byType[e.Type] {
			l.fn(e)
		}
		if a.sink != nil {
			a.sink.EmitEvent(*e)
		}
	}
	for _, e := range a.events {
		a.pool.events.release(e)
	}
	clear(a.events)
	a.events = a.events[:0]
}
