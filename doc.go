// Package bones is a skeletal 2D animation runtime for Go.
//
// Static rig data ([RigData], produced by a loader of your choice) describes
// skeletons: bone hierarchies with bind poses, slots holding displays,
// IK constraints, and keyframed animations. A [Factory] builds runtime
// [Armature] instances from it. Every tick, an armature blends its playing
// animation states, resolves bone transforms in dependency order, solves IK,
// updates slots, and then delivers the events the tick produced.
//
// # Quick start
//
//	factory := bones.NewFactory(nil, bones.DefaultConfig())
//	if err := factory.AddRig(rig); err != nil {
//		log.Fatal(err)
//	}
//	hero := factory.BuildArmature("hero", "")
//	hero.Animation().Play("walk", 0)
//
//	clock := bones.NewWorldClock(0)
//	clock.Add(hero)
//
//	// once per frame:
//	clock.AdvanceTime(-1)
//
// Rendering is up to the host: implement [DisplayProxy] to hear about slot
// changes, or read [Armature.DrawOrder] and [Slot.GlobalMatrix] directly.
// The render sub-package does this with Ebitengine.
//
// # Blending
//
// [Animation.FadeIn] starts a state that ramps its weight up while the
// states selected by a [FadeOutMode] ramp down. States are blended from the
// highest layer down: each layer takes what it needs of the remaining
// weight and lower layers share the rest. States on the same layer add up,
// which makes cross-fades linear. A state restricted with
// [AnimationState.AddBoneMask] only writes the masked bones.
//
// # Procedural control
//
// [Bone.Offset] is applied on top of the animation each tick; its
// [OffsetMode] decides whether it adds to, gives way to, or replaces the
// animated pose. [IKConstraint.Weight] and [IKConstraint.BendPositive] can
// be changed at any time.
//
// # Frame cache
//
// With [Config.CacheFrameRate] (or [Armature.SetCacheFrameRate]) above
// zero, an armature playing a single animation at full weight quantizes its
// play-head to the cache rate and stores resolved bone transforms per frame.
// Later visits to a frame, by any armature sharing the data, reuse them.
// Bones with a procedural offset or a modified constraint are computed as
// usual.
//
// # Events
//
// Listeners added with [Armature.AddEventListener] run after the tick's
// transforms are final. [EventObject] values are pooled and only valid
// during the call. [Armature.SetEventSink] forwards copies elsewhere; the
// ecs sub-module publishes them to a Donburi world.
//
// # Debug mode
//
// [SetDebugMode] makes programmer errors such as naming an unknown bone or
// using a disposed armature panic, and prints warnings for data that was
// skipped while preparing a rig. [Armature.SetDebugMode] also prints
// per-tick timings.
package bones
