package scene

import (
	"github.com/google/uuid"
	"github.com/spaghettifunk/atelier/engine/core"
	"github.com/spaghettifunk/atelier/engine/math"
)

/**
 * @brief Geometry owns the vertex data of one renderable object. It is
 * exclusively owned by the scene that created it and must be destroyed
 * exactly once, when replaced or on scene teardown.
 */
type Geometry struct {
	ID          string
	Name        string
	VertexCount int
	Extents     math.Extents3D

	released bool
}

// NewPlaneGeometry builds a flat quad of the given dimensions, centered at
// the local origin in the XY plane.
func NewPlaneGeometry(name string, width, height float32) *Geometry {
	return &Geometry{
		ID:          uuid.NewString(),
		Name:        name,
		VertexCount: 4,
		Extents: math.Extents3D{
			Min: math.NewVec3(-width/2, -height/2, 0),
			Max: math.NewVec3(width/2, height/2, 0),
		},
	}
}

// NewMeshGeometry wraps extents computed from a loaded model.
func NewMeshGeometry(name string, vertexCount int, extents math.Extents3D) *Geometry {
	return &Geometry{
		ID:          uuid.NewString(),
		Name:        name,
		VertexCount: vertexCount,
		Extents:     extents,
	}
}

// Destroy releases the geometry. Destroying twice is a logged warning.
func (g *Geometry) Destroy() {
	if g.released {
		core.LogWarn("geometry %s (%s) destroyed more than once", g.Name, g.ID)
		return
	}
	g.released = true
}

func (g *Geometry) Released() bool {
	return g.released
}

/**
 * @brief Material holds the surface appearance of one renderable object:
 * either a flat (possibly transparent) color or a reference to a texture.
 * The material does not own its texture; the overlay releases both.
 */
type Material struct {
	ID          string
	Name        string
	Color       string
	Opacity     float32
	Transparent bool
	DoubleSided bool
	Texture     *Texture

	released bool
}

func NewFlatMaterial(name, color string, opacity float32) *Material {
	return &Material{
		ID:          uuid.NewString(),
		Name:        name,
		Color:       color,
		Opacity:     opacity,
		Transparent: opacity < 1.0,
	}
}

func NewTexturedMaterial(name string, texture *Texture) *Material {
	return &Material{
		ID:          uuid.NewString(),
		Name:        name,
		Opacity:     1.0,
		Transparent: true,
		DoubleSided: true,
		Texture:     texture,
	}
}

func (m *Material) Destroy() {
	if m.released {
		core.LogWarn("material %s (%s) destroyed more than once", m.Name, m.ID)
		return
	}
	m.released = true
	m.Texture = nil
}

func (m *Material) Released() bool {
	return m.released
}

/**
 * @brief Texture holds decoded pixel data for an overlay image.
 */
type Texture struct {
	ID           string
	Name         string
	Width        uint32
	Height       uint32
	ChannelCount uint8
	Pixels       []uint8

	released bool
}

// AspectRatio returns width/height. A released or degenerate texture reports 1.
func (t *Texture) AspectRatio() float32 {
	if t.Height == 0 {
		return 1
	}
	return float32(t.Width) / float32(t.Height)
}

func (t *Texture) Destroy() {
	if t.released {
		core.LogWarn("texture %s (%s) destroyed more than once", t.Name, t.ID)
		return
	}
	t.released = true
	t.Pixels = nil
}

func (t *Texture) Released() bool {
	return t.released
}
