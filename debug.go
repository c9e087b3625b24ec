package bones

import (
	"fmt"
	"io"
	"os"
	"time"
)

// globalDebug enables assertion panics and warnings for the whole package.
// Armatures additionally log per-tick stats when their own debug flag is set.
var globalDebug bool

// debugOutput receives warnings and stats. Tests swap it for a buffer.
var debugOutput io.Writer = os.Stderr

// SetDebugMode turns debug assertions and warnings on or off. Programmer
// errors such as using a disposed armature or naming an unknown animation
// panic in debug mode and are silent no-ops otherwise.
func SetDebugMode(enabled bool) {
	globalDebug = enabled
}

// DebugMode reports whether debug mode is on.
func DebugMode() bool { return globalDebug }

// debugStats holds per-tick timing and bone counters.
// Only populated when the armature's debug flag is true.
type debugStats struct {
	animationTime time.Duration
	boneTime      time.Duration
	slotTime      time.Duration
	flushTime     time.Duration
	bonesUpdated  int
	bonesCached   int
	bonesSkipped  int
}

// debugLog prints timing and bone stats.
func (a *Armature) debugLog(stats debugStats) {
	if !a.debug {
		return
	}
	total := stats.animationTime + stats.boneTime + stats.slotTime + stats.flushTime
	_, _ = fmt.Fprintf(debugOutput,
		"[bones] %s animation: %v | bones: %v | slots: %v | flush: %v | total: %v\n",
		a.Name(), stats.animationTime, stats.boneTime, stats.slotTime, stats.flushTime, total)
	_, _ = fmt.Fprintf(debugOutput,
		"[bones] %s updated: %d | cached: %d | skipped: %d\n",
		a.Name(), stats.bonesUpdated, stats.bonesCached, stats.bonesSkipped)
}

// debugWarn prints a warning when debug mode is on.
func debugWarn(format string, args ...any) {
	if !globalDebug {
		return
	}
	_, _ = fmt.Fprintf(debugOutput, "[bones] warning: "+format+"\n", args...)
}

// debugCheckDisposed panics when a disposed armature is used.
// Callers only invoke it when globalDebug is set.
func debugCheckDisposed(a *Armature, op string) {
	if a.disposed {
		panic(fmt.Sprintf("bones debug: %s on disposed armature %q", op, a.Name()))
	}
}

// debugCheckFound panics when a name lookup failed.
// Callers only invoke it when globalDebug is set.
func debugCheckFound(found bool, kind, name, op string) {
	if !found {
		panic(fmt.Sprintf("bones debug: %s: unknown %s %q", op, kind, name))
	}
}

// debugMaxBoneDepth is the hierarchy depth beyond which a warning is printed.
const debugMaxBoneDepth = 64

func debugCheckBoneDepth(b *Bone) {
	depth := 0
	for p := b; p != nil; p = p.parent {
		depth++
	}
	if depth > debugMaxBoneDepth {
		debugWarn("bone depth %d exceeds %d (bone %q)", depth, debugMaxBoneDepth, b.Name())
	}
}
