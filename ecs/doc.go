// Package ecs provides ECS adapters for bones armature events.
//
// The primary adapter is [NewDonburiSink], which bridges animation events
// (start, loop, complete, fades, frame and sound events) into a [Donburi]
// world as typed events. Subscribe to [AnimationEventType] in your ECS
// systems to receive them.
//
// Usage:
//
//	sink := ecs.NewDonburiSink(world)
//	hero.SetEventSink(sink)
//
// [Donburi]: https://github.com/yohamta/donburi
package ecs
