package bones

// blendState is the per-tick weight budget of one blended target (a bone's
// pose, a slot's color or deform buffer). States are applied in descending
// layer order. Each layer consumes part of the budget left by the layers
// above it; states sharing a layer add up.
type blendState struct {
	count       int     // contributions this tick; 0 means untouched
	layer       int     // layer currently being accumulated
	leftWeight  float64 // budget left for the current layer
	layerWeight float64 // weight consumed by the current layer so far
	blendWeight float64 // effective weight of the latest contribution
}

// update registers a contribution of weight on layer and reports whether
// the caller should write it. blendWeight holds the effective weight.
func (b *blendState) update(weight float64, layer int) bool {
	if b.count == 0 {
		b.count = 1
		b.layer = layer
		b.layerWeight = weight
		b.leftWeight = 1
		b.blendWeight = weight
		return true
	}
	if b.leftWeight <= 0 {
		return false
	}
	if b.layer != layer {
		if b.layerWeight >= b.leftWeight {
			b.leftWeight = 0
			return false
		}
		b.layer = layer
		b.leftWeight -= b.layerWeight
		b.layerWeight = 0
	}
	weight *= b.leftWeight
	b.count++
	b.layerWeight += weight
	b.blendWeight = weight
	return true
}

// first reports whether the latest accepted contribution seeds the value.
func (b *blendState) first() bool { return b.count == 1 }

func (b *blendState) clear() { *b = blendState{} }
