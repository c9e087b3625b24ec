// Package render draws bones armatures with Ebitengine.
//
// A [Renderer] is installed as an armature's display proxy and mirrors every
// slot into a sprite: the texture of the active display, its matrix, color
// and blend mode. [Renderer.Draw] then paints the sprites in the armature's
// draw order, recursing into nested armatures.
//
//	r := render.New(atlas)
//	hero.SetProxy(r)
//	...
//	r.Draw(screen, hero, view)
package render

import (
	"github.com/hajimehoshi/ebiten/v2"

	"github.com/phanxgames/bones"
)

// sprite is the renderer's copy of one slot.
type sprite struct {
	tex    Texture
	hasTex bool
	mesh   *bones.MeshData
	frame  ebiten.GeoM // stored pixels to slot space, images only
	world  ebiten.GeoM // slot space to armature space

	color   bones.ColorTransform
	blend   ebiten.Blend
	visible bool

	positions []float64 // mesh vertex positions, see Slot.DeformedVertices
	weighted  bool
}

// Renderer implements [bones.DisplayProxy] and draws the armatures it
// serves. A renderer may serve any number of armatures.
type Renderer struct {
	textures TextureSource
	sprites  map[*bones.Slot]*sprite

	imgOp    ebiten.DrawImageOptions
	triOp    ebiten.DrawTrianglesOptions
	shaderOp ebiten.DrawTrianglesShaderOptions

	uniforms   map[string]any
	multiplier [4]float32
	offset     [4]float32

	verts []ebiten.Vertex
}

var _ bones.DisplayProxy = (*Renderer)(nil)

// New creates a renderer resolving display textures through textures.
func New(textures TextureSource) *Renderer {
	r := &Renderer{
		textures: textures,
		sprites:  make(map[*bones.Slot]*sprite),
		uniforms: make(map[string]any, 2),
	}
	r.uniforms["Multiplier"] = r.multiplier[:]
	r.uniforms["Offset"] = r.offset[:]
	r.triOp.ColorScaleMode = ebiten.ColorScaleModePremultipliedAlpha
	return r
}

// Len returns the number of slots the renderer currently mirrors.
func (r *Renderer) Len() int { return len(r.sprites) }

func (r *Renderer) sprite(s *bones.Slot) *sprite {
	sp := r.sprites[s]
	if sp == nil {
		sp = &sprite{color: bones.IdentityColor, blend: ebiten.BlendSourceOver}
		r.sprites[s] = sp
	}
	return sp
}

// DisplayChanged resolves the texture of the slot's new display.
func (r *Renderer) DisplayChanged(s *bones.Slot) {
	sp := r.sprite(s)
	sp.hasTex = false
	sp.mesh = nil
	sp.frame.Reset()

	d := s.Display()
	if d == nil || (d.Type != bones.DisplayImage && d.Type != bones.DisplayMesh) {
		return
	}
	tex, ok := r.textures.Texture(d.TexturePath())
	if !ok || tex.Image == nil {
		return
	}
	sp.tex, sp.hasTex = tex, true

	if d.Type == bones.DisplayMesh && d.Mesh != nil {
		sp.mesh = d.Mesh
		sp.weighted = len(d.Mesh.Weights) > 0
		sp.positions = s.DeformedVertices(sp.positions[:0])
		return
	}
	sp.frame = imageFrame(tex, d)
}

// imageFrame places a texture's stored pixels in slot space: the untrimmed
// frame is sized to the display and its pivot moved to the origin.
func imageFrame(tex Texture, d *bones.DisplayData) ebiten.GeoM {
	m := tex.geoM()
	w, h := tex.Width, tex.Height
	if d.Width > 0 && d.Height > 0 && w > 0 && h > 0 {
		m.Scale(d.Width/w, d.Height/h)
		w, h = d.Width, d.Height
	}
	m.Translate(-d.Pivot.X*w, -d.Pivot.Y*h)
	return m
}

// TransformChanged records the slot's new global matrix.
func (r *Renderer) TransformChanged(s *bones.Slot) {
	r.sprite(s).world = geoM(s.GlobalMatrix())
}

// ColorChanged records the slot's color transform.
func (r *Renderer) ColorChanged(s *bones.Slot) {
	r.sprite(s).color = s.Color()
}

// BlendModeChanged records the slot's blend mode.
func (r *Renderer) BlendModeChanged(s *bones.Slot) {
	r.sprite(s).blend = Blend(s.BlendMode())
}

// VisibleChanged records whether the slot shows anything.
func (r *Renderer) VisibleChanged(s *bones.Slot) {
	r.sprite(s).visible = s.Visible()
}

// MeshChanged refreshes deformed or skinned vertex positions.
func (r *Renderer) MeshChanged(s *bones.Slot) {
	sp := r.sprite(s)
	if sp.mesh != nil {
		sp.positions = s.DeformedVertices(sp.positions[:0])
	}
}

// DrawOrderChanged is a no-op: Draw reads the order from the armature.
func (r *Renderer) DrawOrderChanged(*bones.Armature) {}

// SlotDisposed forgets the slot.
func (r *Renderer) SlotDisposed(s *bones.Slot) {
	delete(r.sprites, s)
}

// Draw paints arm onto screen in draw order. view maps armature space to
// screen space.
func (r *Renderer) Draw(screen *ebiten.Image, arm *bones.Armature, view ebiten.GeoM) {
	if arm == nil || arm.IsDisposed() {
		return
	}
	for _, s := range arm.DrawOrder() {
		sp := r.sprites[s]
		if sp == nil || !sp.visible {
			continue
		}
		if child := s.ChildArmature(); child != nil {
			g := sp.world
			g.Concat(view)
			r.Draw(screen, child, g)
			continue
		}
		if !sp.hasTex {
			continue
		}
		if sp.mesh == nil && !hasOffset(sp.color) {
			r.drawImage(screen, sp, view)
			continue
		}
		r.drawTriangles(screen, sp, view)
	}
}

func (r *Renderer) drawImage(screen *ebiten.Image, sp *sprite, view ebiten.GeoM) {
	op := &r.imgOp
	op.GeoM = sp.frame
	op.GeoM.Concat(sp.world)
	op.GeoM.Concat(view)

	c := sp.color
	a := float32(c.AlphaMultiplier)
	op.ColorScale.Reset()
	op.ColorScale.Scale(float32(c.RedMultiplier)*a, float32(c.GreenMultiplier)*a, float32(c.BlueMultiplier)*a, a)
	op.Blend = sp.blend
	screen.DrawImage(sp.tex.Image, op)
}

func (r *Renderer) drawTriangles(screen *ebiten.Image, sp *sprite, view ebiten.GeoM) {
	var indices []uint16
	if sp.mesh != nil {
		r.verts = appendMeshVertices(r.verts[:0], sp, view)
		indices = sp.mesh.Triangles
	} else {
		r.verts = appendQuadVertices(r.verts[:0], sp, view)
		indices = quadIndices
	}
	if len(r.verts) == 0 || len(indices) == 0 {
		return
	}

	if hasOffset(sp.color) {
		r.setUniforms(sp.color)
		r.shaderOp.Images[0] = sp.tex.Image
		r.shaderOp.Uniforms = r.uniforms
		r.shaderOp.Blend = sp.blend
		screen.DrawTrianglesShader(r.verts, indices, ensureColorTransformShader(), &r.shaderOp)
		return
	}
	tintVertices(r.verts, sp.color)
	r.triOp.Blend = sp.blend
	screen.DrawTriangles(r.verts, indices, sp.tex.Image, &r.triOp)
}

func (r *Renderer) setUniforms(c bones.ColorTransform) {
	r.multiplier = [4]float32{
		float32(c.RedMultiplier), float32(c.GreenMultiplier),
		float32(c.BlueMultiplier), float32(c.AlphaMultiplier),
	}
	r.offset = [4]float32{
		float32(c.RedOffset), float32(c.GreenOffset),
		float32(c.BlueOffset), float32(c.AlphaOffset),
	}
}

var quadIndices = []uint16{0, 1, 2, 1, 3, 2}

// appendQuadVertices emits the image's four corners (TL, TR, BL, BR) in
// screen space with white vertex colors.
func appendQuadVertices(dst []ebiten.Vertex, sp *sprite, view ebiten.GeoM) []ebiten.Vertex {
	m := sp.frame
	m.Concat(sp.world)
	m.Concat(view)
	b := sp.tex.Image.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())
	corners := [4][2]float64{{0, 0}, {w, 0}, {0, h}, {w, h}}
	for _, c := range corners {
		x, y := m.Apply(c[0], c[1])
		dst = append(dst, ebiten.Vertex{
			DstX:   float32(x),
			DstY:   float32(y),
			SrcX:   float32(float64(b.Min.X) + c[0]),
			SrcY:   float32(float64(b.Min.Y) + c[1]),
			ColorR: 1, ColorG: 1, ColorB: 1, ColorA: 1,
		})
	}
	return dst
}

// appendMeshVertices emits a mesh's vertices in screen space. Weighted
// positions are already in armature space; the others are in slot space.
func appendMeshVertices(dst []ebiten.Vertex, sp *sprite, view ebiten.GeoM) []ebiten.Vertex {
	m := view
	if !sp.weighted {
		m = sp.world
		m.Concat(view)
	}
	uvs := sp.mesh.UVs
	for i := 0; i+1 < len(sp.positions); i += 2 {
		x, y := m.Apply(sp.positions[i], sp.positions[i+1])
		var sx, sy float32
		if i+1 < len(uvs) {
			sx, sy = sp.tex.source(uvs[i], uvs[i+1])
		}
		dst = append(dst, ebiten.Vertex{
			DstX:   float32(x),
			DstY:   float32(y),
			SrcX:   sx,
			SrcY:   sy,
			ColorR: 1, ColorG: 1, ColorB: 1, ColorA: 1,
		})
	}
	return dst
}

// tintVertices applies a multiplier-only color transform as premultiplied
// vertex colors.
func tintVertices(verts []ebiten.Vertex, c bones.ColorTransform) {
	a := float32(c.AlphaMultiplier)
	cr := float32(c.RedMultiplier) * a
	cg := float32(c.GreenMultiplier) * a
	cb := float32(c.BlueMultiplier) * a
	for i := range verts {
		v := &verts[i]
		v.ColorR *= cr
		v.ColorG *= cg
		v.ColorB *= cb
		v.ColorA *= a
	}
}

func hasOffset(c bones.ColorTransform) bool {
	return c.RedOffset != 0 || c.GreenOffset != 0 || c.BlueOffset != 0 || c.AlphaOffset != 0
}

// geoM converts a bones matrix into an ebiten.GeoM.
func geoM(m bones.Matrix) ebiten.GeoM {
	var g ebiten.GeoM
	g.SetElement(0, 0, m[0])
	g.SetElement(1, 0, m[1])
	g.SetElement(0, 1, m[2])
	g.SetElement(1, 1, m[3])
	g.SetElement(0, 2, m[4])
	g.SetElement(1, 2, m[5])
	return g
}
