package scene

import (
	"github.com/spaghettifunk/atelier/engine/catalog"
	"github.com/spaghettifunk/atelier/engine/math"
)

// Pushed in front of the avatar's forward face so the quad never z-fights
// with the mesh.
const overlayFrontEpsilon = 0.01

// Flat-color fallback stays translucent so the avatar reads through it.
const fallbackOpacity = 0.75

/**
 * @brief placementRule sizes and anchors a garment quad relative to the
 * avatar's bounding box. Width and height are fractions of the avatar's
 * width and height; yOffset is a fraction of the avatar's height measured
 * from the box center.
 */
type placementRule struct {
	width   float32
	height  float32
	yOffset float32
}

var placementRules = map[catalog.Category]placementRule{
	catalog.CategoryTops:        {width: 0.55, height: 0.45, yOffset: 0.15},
	catalog.CategoryBottoms:     {width: 0.50, height: 0.45, yOffset: -0.10},
	catalog.CategoryDresses:     {width: 0.60, height: 0.80, yOffset: 0},
	catalog.CategoryOuterwear:   {width: 0.60, height: 0.50, yOffset: 0.15},
	catalog.CategoryAccessories: {width: 0.30, height: 0.20, yOffset: 0.35},
}

var defaultPlacementRule = placementRule{width: 0.60, height: 0.40, yOffset: 0.15}

func ruleForCategory(c catalog.Category) placementRule {
	if rule, ok := placementRules[c]; ok {
		return rule
	}
	return defaultPlacementRule
}

/**
 * @brief Overlay is the flat garment quad anchored in front of the avatar.
 * It exclusively owns its geometry, material, and optional texture; the
 * scene disposes all three before installing a replacement.
 */
type Overlay struct {
	Garment  catalog.GarmentDescriptor
	Color    catalog.Swatch
	Size     string
	Position math.Vec3
	Width    float32
	Height   float32
	Textured bool

	geometry *Geometry
	material *Material
	texture  *Texture
}

// overlayFrame computes the quad dimensions and world position for a garment
// category against the avatar's world-space bounds.
func overlayFrame(rule placementRule, bounds math.Extents3D) (width, height float32, position math.Vec3) {
	size := bounds.Size()
	center := bounds.Center()
	width = rule.width * size.X
	height = rule.height * size.Y
	position = math.NewVec3(
		center.X,
		center.Y+rule.yOffset*size.Y,
		bounds.Max.Z+overlayFrontEpsilon,
	)
	return width, height, position
}

// dispose releases every resource the overlay owns. Idempotent per resource
// through the released flags.
func (o *Overlay) dispose() {
	if o.geometry != nil {
		o.geometry.Destroy()
		o.geometry = nil
	}
	if o.material != nil {
		o.material.Destroy()
		o.material = nil
	}
	if o.texture != nil {
		o.texture.Destroy()
		o.texture = nil
	}
}
