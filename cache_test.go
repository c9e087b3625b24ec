package bones

import "testing"

func cachedWalker(t *testing.T) (*Factory, *ArmatureData) {
	t.Helper()
	d := walkerData()
	d.CacheFrameRate = 8
	f := newTestFactory(t, DefaultConfig(), d)
	return f, d
}

func TestCacheMatchesUncached(t *testing.T) {
	f, d := cachedWalker(t)
	cached := f.BuildArmature("walker", "")
	plain := buildTest(t, walkerData())
	cached.Animation().Play("walk", 0)
	plain.Animation().Play("walk", 0)

	var grown int
	for tick := 1; tick <= 20; tick++ {
		cached.AdvanceTime(0.125)
		plain.AdvanceTime(0.125)
		for _, name := range []string{"root", "leg"} {
			got, want := cached.GetBone(name).GlobalMatrix(), plain.GetBone(name).GlobalMatrix()
			if got != want {
				t.Fatalf("tick %d: %s matrix %v, want %v", tick, name, got, want)
			}
		}
		if tick == 9 {
			grown = len(d.cache.matrices)
		}
	}
	if grown == 0 {
		t.Fatal("nothing was cached")
	}
	if n := len(d.cache.matrices); n != grown {
		t.Errorf("cache grew during the second loop: %d -> %d", grown, n)
	}
}

func TestCacheSharedBetweenArmatures(t *testing.T) {
	f, d := cachedWalker(t)
	first := f.BuildArmature("walker", "")
	first.Animation().Play("walk", 0)
	for range 10 {
		first.AdvanceTime(0.125)
	}
	n := len(d.cache.matrices)

	second := f.BuildArmature("walker", "")
	second.Animation().Play("walk", 0)
	for range 10 {
		second.AdvanceTime(0.125)
	}
	if len(d.cache.matrices) != n {
		t.Errorf("second armature added %d entries", len(d.cache.matrices)-n)
	}
	assertMatrix(t, "leg", second.GetBone("leg").GlobalMatrix(), first.GetBone("leg").GlobalMatrix())
}

func TestCacheSkipsRuntimeConstraints(t *testing.T) {
	f, d := cachedWalker(t)
	solved := f.BuildArmature("walker", "")
	if solved.AddIKConstraint(&IKConstraintData{Name: "aim", Target: "root", Bone: "leg", Weight: 1}) == nil {
		t.Fatal("AddIKConstraint returned nil")
	}
	solved.Animation().Play("walk", 0)
	for range 6 {
		solved.AdvanceTime(0.125)
	}
	if n := len(d.cache.matrices); n != 0 {
		t.Fatalf("armature with a runtime constraint wrote %d cache entries", n)
	}

	free := f.BuildArmature("walker", "")
	plain := buildTest(t, walkerData())
	free.Animation().Play("walk", 0)
	plain.Animation().Play("walk", 0)
	for tick := 1; tick <= 6; tick++ {
		free.AdvanceTime(0.125)
		plain.AdvanceTime(0.125)
		assertMatrix(t, "leg", free.GetBone("leg").GlobalMatrix(), plain.GetBone("leg").GlobalMatrix())
	}

	// Removing a constraint also takes the armature off the shared cache.
	removed := f.BuildArmature("walker", "")
	removed.RemoveIKConstraint(removed.AddIKConstraint(&IKConstraintData{Name: "aim", Target: "root", Bone: "leg", Weight: 1}))
	removed.Animation().Play("walk", 0)
	before := len(d.cache.matrices)
	// 0.9s lands in cache frame 7, which no armature has written yet.
	removed.AdvanceTime(0.9)
	if len(d.cache.matrices) != before {
		t.Error("armature with edited constraints wrote to the shared cache")
	}
}

func TestCacheQuantizesPlayhead(t *testing.T) {
	f, _ := cachedWalker(t)
	a := f.BuildArmature("walker", "")
	a.Animation().Play("walk", 0)
	a.AdvanceTime(0.125)
	a.AdvanceTime(0.2)
	// 0.325s falls in cache frame 2, sampled at 0.25s.
	assertNear(t, "x", legX(a), 2.5)
}

func TestCacheBypassedByOffset(t *testing.T) {
	f, d := cachedWalker(t)
	a := f.BuildArmature("walker", "")
	a.Animation().Play("walk", 0)
	a.AdvanceTime(0.125)
	a.AdvanceTime(0.125)
	a.GetBone("leg").Offset = Transform{X: 100, ScaleX: 1, ScaleY: 1}
	before := len(d.cache.matrices)
	a.AdvanceTime(0.125)
	assertNear(t, "x with offset", legX(a), 103.75)
	// Only the root was stored.
	if got := len(d.cache.matrices) - before; got != 1 {
		t.Errorf("stored %d entries, want 1", got)
	}

	a.GetBone("leg").Offset = IdentityTransform()
	a.AdvanceTime(0.125)
	assertNear(t, "x without offset", legX(a), 5)
}

func TestCacheDisabledWhenFlippedOrWeighted(t *testing.T) {
	f, d := cachedWalker(t)
	a := f.BuildArmature("walker", "")
	s := a.Animation().Play("walk", 0)
	a.SetFlip(true, false)
	for range 4 {
		a.AdvanceTime(0.125)
	}
	if len(d.cache.matrices) != 0 {
		t.Error("flipped armature wrote the cache")
	}
	assertNear(t, "flipped x", legX(a), -5)

	a.SetFlip(false, false)
	s.Weight = 0.5
	for range 4 {
		a.AdvanceTime(0.125)
	}
	if len(d.cache.matrices) != 0 {
		t.Error("partially weighted state wrote the cache")
	}
}

func TestSetCacheFrameRateResetsStore(t *testing.T) {
	f, d := cachedWalker(t)
	a := f.BuildArmature("walker", "")
	a.Animation().Play("walk", 0)
	for range 4 {
		a.AdvanceTime(0.125)
	}
	if len(d.cache.matrices) == 0 {
		t.Fatal("nothing cached")
	}
	a.SetCacheFrameRate(0)
	if len(d.cache.matrices) != 0 || a.CacheFrameRate() != 0 {
		t.Error("disabling the cache should drop its entries")
	}
	a.AdvanceTime(0.125)
	assertNear(t, "uncached x", legX(a), 6.25)
}

func BenchmarkArmatureCached(b *testing.B) {
	d := walkerData()
	d.CacheFrameRate = 24
	a := newTestFactory(b, DefaultConfig(), d).BuildArmature("walker", "")
	a.Animation().Play("walk", 0)
	for b.Loop() {
		a.AdvanceTime(1.0 / 60)
	}
}
