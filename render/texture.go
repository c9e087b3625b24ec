package render

import (
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"log"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/phanxgames/bones"
)

// TextureSource resolves a display's texture path (see
// [bones.DisplayData.TexturePath]) to a drawable texture.
type TextureSource interface {
	Texture(path string) (Texture, bool)
}

// Texture is an image plus its placement inside the untrimmed sprite frame.
// Atlas regions may be trimmed and stored rotated; loose images are neither.
type Texture struct {
	Image *ebiten.Image

	Width, Height    float64 // untrimmed sprite size as authored
	OffsetX, OffsetY float64 // trimmed rectangle's position inside the frame
	Rotated          bool    // stored 90 degrees clockwise in Image
}

// NewTexture wraps a whole image.
func NewTexture(img *ebiten.Image) Texture {
	b := img.Bounds()
	return Texture{Image: img, Width: float64(b.Dx()), Height: float64(b.Dy())}
}

// trimmedSize returns the size of the trimmed sprite before it was rotated
// into storage.
func (t Texture) trimmedSize() (w, h float64) {
	b := t.Image.Bounds()
	if t.Rotated {
		return float64(b.Dy()), float64(b.Dx())
	}
	return float64(b.Dx()), float64(b.Dy())
}

// geoM maps the stored pixels into frame space.
func (t Texture) geoM() ebiten.GeoM {
	var m ebiten.GeoM
	if t.Rotated {
		// Rotated regions are stored 90 degrees clockwise: rotate back and
		// shift down by the trimmed height.
		_, h := t.trimmedSize()
		m.Rotate(-1.5707963267948966)
		m.Translate(0, h)
	}
	if t.OffsetX != 0 || t.OffsetY != 0 {
		m.Translate(t.OffsetX, t.OffsetY)
	}
	return m
}

// source converts a normalized frame coordinate to a source pixel in Image.
func (t Texture) source(u, v float64) (float32, float32) {
	lx := u*t.Width - t.OffsetX
	ly := v*t.Height - t.OffsetY
	o := t.Image.Bounds().Min
	if t.Rotated {
		_, h := t.trimmedSize()
		return float32(float64(o.X) + h - ly), float32(float64(o.Y) + lx)
	}
	return float32(float64(o.X) + lx), float32(float64(o.Y) + ly)
}

// Images serves loose images by path.
type Images map[string]*ebiten.Image

// Texture implements [TextureSource].
func (m Images) Texture(path string) (Texture, bool) {
	img, ok := m[path]
	if !ok || img == nil {
		return Texture{}, false
	}
	return NewTexture(img), true
}

// TextureRegion is a named sprite inside an atlas page, in pixels.
type TextureRegion struct {
	Page                 int
	X, Y                 int // stored rectangle, rotated when Rotated is set
	Width, Height        int // trimmed sprite size before rotation
	OriginalW, OriginalH int
	OffsetX, OffsetY     int // trimmed rectangle inside the original frame
	Rotated              bool
}

func (r TextureRegion) bounds() image.Rectangle {
	w, h := r.Width, r.Height
	if r.Rotated {
		w, h = h, w
	}
	return image.Rect(r.X, r.Y, r.X+w, r.Y+h)
}

// Atlas is a TexturePacker atlas: page images and the regions cut from them.
type Atlas struct {
	Pages   []*ebiten.Image
	regions map[string]TextureRegion
}

// Region returns the named region.
func (a *Atlas) Region(name string) (TextureRegion, bool) {
	r, ok := a.regions[name]
	return r, ok
}

// Texture implements [TextureSource]. Unknown names and missing pages
// resolve to a 1x1 magenta placeholder, with a log line in debug mode.
func (a *Atlas) Texture(path string) (Texture, bool) {
	r, ok := a.regions[path]
	if !ok || r.Page >= len(a.Pages) || a.Pages[r.Page] == nil {
		if bones.DebugMode() {
			log.Printf("bones/render: atlas region %q not found, using magenta placeholder", path)
		}
		return NewTexture(ensureMagentaImage()), true
	}
	return Texture{
		Image:   a.Pages[r.Page].SubImage(r.bounds()).(*ebiten.Image),
		Width:   float64(r.OriginalW),
		Height:  float64(r.OriginalH),
		OffsetX: float64(r.OffsetX),
		OffsetY: float64(r.OffsetY),
		Rotated: r.Rotated,
	}, true
}

var magentaImage *ebiten.Image

func ensureMagentaImage() *ebiten.Image {
	if magentaImage == nil {
		magentaImage = ebiten.NewImage(1, 1)
		magentaImage.Fill(color.RGBA{R: 255, G: 0, B: 255, A: 255})
	}
	return magentaImage
}

// LoadAtlas decodes a TexturePacker JSON export. A "frames" object puts
// every region on page 0; a "textures" list gives each page its own frames,
// indexed like pages.
func LoadAtlas(jsonData []byte, pages []*ebiten.Image) (*Atlas, error) {
	var file struct {
		Frames   map[string]packedFrame `json:"frames"`
		Textures []struct {
			Frames map[string]packedFrame `json:"frames"`
		} `json:"textures"`
	}
	if err := json.Unmarshal(jsonData, &file); err != nil {
		return nil, fmt.Errorf("bones/render: parse atlas: %w", err)
	}
	a := &Atlas{Pages: pages, regions: make(map[string]TextureRegion)}
	switch {
	case file.Textures != nil:
		for page, t := range file.Textures {
			a.addFrames(page, t.Frames)
		}
	case file.Frames != nil:
		a.addFrames(0, file.Frames)
	default:
		return nil, fmt.Errorf("bones/render: atlas has no frames")
	}
	return a, nil
}

type packedRect struct {
	X, Y, W, H int
}

type packedFrame struct {
	Frame            packedRect `json:"frame"`
	Rotated          bool       `json:"rotated"`
	SpriteSourceSize packedRect `json:"spriteSourceSize"`
	SourceSize       packedRect `json:"sourceSize"`
}

func (a *Atlas) addFrames(page int, frames map[string]packedFrame) {
	for name, f := range frames {
		r := TextureRegion{
			Page: page, X: f.Frame.X, Y: f.Frame.Y,
			Width: f.Frame.W, Height: f.Frame.H,
			OriginalW: f.SourceSize.W, OriginalH: f.SourceSize.H,
			OffsetX: f.SpriteSourceSize.X, OffsetY: f.SpriteSourceSize.Y,
			Rotated: f.Rotated,
		}
		if r.OriginalW == 0 && r.OriginalH == 0 {
			r.OriginalW, r.OriginalH = r.Width, r.Height
		}
		a.regions[name] = r
	}
}
