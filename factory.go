package bones

import (
	"errors"
	"fmt"
	"slices"
)

// Factory owns a registry of prepared rigs and builds armatures from them.
// Armatures built by one factory share its Pool.
type Factory struct {
	pool *Pool
	cfg  Config
	rigs map[string]*RigData
}

// NewFactory returns a factory that builds armatures from pool with the
// defaults in cfg. A nil pool gets a fresh one. The zero Config means
// DefaultConfig; otherwise a TimeScale <= 0 becomes 1 and an empty FadeCurve
// becomes "linear".
func NewFactory(pool *Pool, cfg Config) *Factory {
	if pool == nil {
		pool = NewPool()
	}
	if cfg == (Config{}) {
		cfg = DefaultConfig()
	}
	if cfg.TimeScale <= 0 {
		cfg.TimeScale = 1
	}
	if cfg.FadeCurve == "" {
		cfg.FadeCurve = "linear"
	}
	if cfg.Debug {
		SetDebugMode(true)
	}
	return &Factory{pool: pool, cfg: cfg, rigs: make(map[string]*RigData)}
}

// Pool returns the factory's object pool.
func (f *Factory) Pool() *Pool { return f.pool }

// Config returns the factory's defaults.
func (f *Factory) Config() Config { return f.cfg }

// AddRig prepares r and registers it under its name. Armatures without a
// cache frame rate of their own take the factory's.
func (f *Factory) AddRig(r *RigData) error {
	if r == nil {
		return errors.New("add rig: nil rig")
	}
	if _, dup := f.rigs[r.Name]; dup {
		return fmt.Errorf("add rig %q: already registered", r.Name)
	}
	if err := r.Prepare(); err != nil {
		return fmt.Errorf("add rig: %w", err)
	}
	if f.cfg.CacheFrameRate > 0 {
		for _, d := range r.Armatures {
			if d.CacheFrameRate <= 0 {
				d.setCacheFrameRate(f.cfg.CacheFrameRate)
			}
		}
	}
	f.rigs[r.Name] = r
	return nil
}

// Rig returns the registered rig, or nil.
func (f *Factory) Rig(name string) *RigData { return f.rigs[name] }

// RemoveRig unregisters a rig. Armatures already built keep working.
func (f *Factory) RemoveRig(name string) { delete(f.rigs, name) }

// RigNames returns the registered rig names, sorted.
func (f *Factory) RigNames() []string {
	names := make([]string, 0, len(f.rigs))
	for name := range f.rigs {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// BuildArmature builds the named armature from rigName, or from the first
// rig (by name) defining it when rigName is empty. Nested armature displays
// are built too. The armature's default actions run before it is returned.
// It returns nil when no such armature is registered.
func (f *Factory) BuildArmature(name, rigName string) *Armature {
	data := f.findArmature(name, rigName)
	if data == nil {
		if globalDebug {
			debugCheckFound(false, "armature", name, "BuildArmature")
		}
		return nil
	}
	a := f.build(data, []*ArmatureData{data})
	for _, action := range data.DefaultActions {
		if action.Type == ActionPlay {
			a.runAction(action)
		}
	}
	return a
}

func (f *Factory) findArmature(name, rigName string) *ArmatureData {
	if rigName != "" {
		if r := f.rigs[rigName]; r != nil {
			return r.Armature(name)
		}
		return nil
	}
	for _, rn := range f.RigNames() {
		if d := f.rigs[rn].Armature(name); d != nil {
			return d
		}
	}
	return nil
}

// build creates an armature and its nested armatures. stack holds the
// armatures being built above this one; a display naming one of them is
// left empty.
func (f *Factory) build(data *ArmatureData, stack []*ArmatureData) *Armature {
	a := newArmature(data, f.pool, f.cfg)
	for _, s := range a.slots {
		for i, disp := range s.data.Displays {
			if disp == nil || disp.Type != DisplayArmature {
				continue
			}
			childName := disp.Path
			if childName == "" {
				childName = disp.Name
			}
			childData := data.rig.Armature(childName)
			if childData == nil {
				childData = f.findArmature(childName, "")
			}
			if childData == nil {
				debugWarn("slot %q: unknown armature %q", s.Name(), childName)
				continue
			}
			if slices.Contains(stack, childData) {
				debugWarn("slot %q: armature %q nests itself", s.Name(), childName)
				continue
			}
			child := f.build(childData, append(stack, childData))
			child.parent = s
			s.children[i] = child
			f.startChild(child, disp)
		}
	}
	return a
}

// startChild runs the display's actions on a nested armature, or plays its
// default animation when the display has none.
func (f *Factory) startChild(child *Armature, disp *DisplayData) {
	ran := false
	for _, action := range disp.Actions {
		if action.Type == ActionPlay {
			child.runAction(action)
			ran = true
		}
	}
	if ran {
		return
	}
	for _, action := range child.data.DefaultActions {
		if action.Type == ActionPlay {
			child.runAction(action)
			ran = true
		}
	}
	if !ran {
		child.animation.Play("", -1)
	}
}
