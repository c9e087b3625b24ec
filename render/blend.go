package render

import (
	"github.com/hajimehoshi/ebiten/v2"

	"github.com/phanxgames/bones"
)

// Blend returns the ebiten.Blend value corresponding to a slot blend mode.
func Blend(m bones.BlendMode) ebiten.Blend {
	switch m {
	case bones.BlendNormal:
		return ebiten.BlendSourceOver
	case bones.BlendAdd:
		return ebiten.BlendLighter
	case bones.BlendMultiply:
		return ebiten.Blend{
			BlendFactorSourceRGB:        ebiten.BlendFactorDestinationColor,
			BlendFactorSourceAlpha:      ebiten.BlendFactorDestinationAlpha,
			BlendFactorDestinationRGB:   ebiten.BlendFactorOneMinusSourceAlpha,
			BlendFactorDestinationAlpha: ebiten.BlendFactorOneMinusSourceAlpha,
			BlendOperationRGB:           ebiten.BlendOperationAdd,
			BlendOperationAlpha:         ebiten.BlendOperationAdd,
		}
	case bones.BlendScreen:
		return ebiten.Blend{
			BlendFactorSourceRGB:        ebiten.BlendFactorOne,
			BlendFactorSourceAlpha:      ebiten.BlendFactorOne,
			BlendFactorDestinationRGB:   ebiten.BlendFactorOneMinusSourceColor,
			BlendFactorDestinationAlpha: ebiten.BlendFactorOneMinusSourceAlpha,
			BlendOperationRGB:           ebiten.BlendOperationAdd,
			BlendOperationAlpha:         ebiten.BlendOperationAdd,
		}
	case bones.BlendErase:
		return ebiten.BlendDestinationOut
	case bones.BlendMask:
		return ebiten.Blend{
			BlendFactorSourceRGB:        ebiten.BlendFactorZero,
			BlendFactorSourceAlpha:      ebiten.BlendFactorZero,
			BlendFactorDestinationRGB:   ebiten.BlendFactorSourceAlpha,
			BlendFactorDestinationAlpha: ebiten.BlendFactorSourceAlpha,
			BlendOperationRGB:           ebiten.BlendOperationAdd,
			BlendOperationAlpha:         ebiten.BlendOperationAdd,
		}
	case bones.BlendBelow:
		return ebiten.BlendDestinationOver
	case bones.BlendNone:
		return ebiten.BlendCopy
	default:
		return ebiten.BlendSourceOver
	}
}

// --- Kage shader ---
// Ebitengine uses premultiplied alpha; the shader un-premultiplies, applies
// the color transform, clamps, and premultiplies again.

const colorTransformShaderSrc = `//kage:unit pixels
package main

var Multiplier vec4
var Offset vec4

func Fragment(dst vec4, src vec2, color vec4) vec4 {
	c := imageSrc0At(src)
	if c.a > 0 {
		c.rgb /= c.a
	}
	c = clamp(c*Multiplier+Offset, vec4(0), vec4(1))
	return vec4(c.rgb*c.a, c.a)
}
`

var colorTransformShader *ebiten.Shader

func ensureColorTransformShader() *ebiten.Shader {
	if colorTransformShader == nil {
		s, err := ebiten.NewShader([]byte(colorTransformShaderSrc))
		if err != nil {
			panic("bones/render: failed to compile color transform shader: " + err.Error())
		}
		colorTransformShader = s
	}
	return colorTransformShader
}
