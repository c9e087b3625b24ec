package ecs

import (
	"github.com/phanxgames/bones"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
)

// AnimationEvent is a detached copy of a [bones.EventObject]. Donburi
// delivers events after the tick that produced them, when pooled animation
// states may already be reused, so states, bones and slots are referenced
// by name.
type AnimationEvent struct {
	Type      bones.EventType
	Name      string // frame or sound event name
	Armature  *bones.Armature
	Animation string // name of the animation state
	Layer     int
	Bone      string
	Slot      string
	Data      *bones.UserData
	Time      float64
}

// AnimationEventType is the Donburi event type for armature events.
var AnimationEventType = events.NewEventType[AnimationEvent]()

type donburiSink struct {
	world donburi.World
}

// NewDonburiSink creates an EventSink backed by a Donburi world. Events are
// published to AnimationEventType and can be consumed with events.Subscribe
// and ProcessEvents.
func NewDonburiSink(world donburi.World) bones.EventSink {
	return &donburiSink{world: world}
}

func (s *donburiSink) EmitEvent(e bones.EventObject) {
	AnimationEventType.Publish(s.world, detach(e))
}

func detach(e bones.EventObject) AnimationEvent {
	out := AnimationEvent{
		Type:     e.Type,
		Name:     e.Name,
		Armature: e.Armature,
		Data:     e.Data,
		Time:     e.Time,
	}
	if e.AnimationState != nil {
		out.Animation = e.AnimationState.Name()
		out.Layer = e.AnimationState.Layer()
	}
	if e.Bone != nil {
		out.Bone = e.Bone.Name()
	}
	if e.Slot != nil {
		out.Slot = e.Slot.Name()
	}
	return out
}
