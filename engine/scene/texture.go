package scene

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"

	// Overlay images arrive as PNG, JPEG, or WebP.
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"github.com/google/uuid"
	"github.com/spaghettifunk/atelier/engine/core"
)

// decodeTexture turns encoded image bytes into an owned RGBA texture.
func decodeTexture(name string, data []byte) (*Texture, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding texture %s: %w", name, err)
	}

	bounds := img.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return nil, fmt.Errorf("texture %s has degenerate dimensions", name)
	}

	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)

	core.LogDebug("decoded %s texture %s: %dx%d", format, name, bounds.Dx(), bounds.Dy())
	return &Texture{
		ID:           uuid.NewString(),
		Name:         name,
		Width:        uint32(bounds.Dx()),
		Height:       uint32(bounds.Dy()),
		ChannelCount: 4,
		Pixels:       rgba.Pix,
	}, nil
}
