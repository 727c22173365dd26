package math

/**
 * @brief Computes the axis-aligned extents of a set of positions.
 * Returns a zero-volume box at the origin for an empty set.
 */
func ExtentsFromPositions(positions []Vec3) Extents3D {
	if len(positions) == 0 {
		return Extents3D{}
	}
	e := Extents3D{Min: positions[0], Max: positions[0]}
	for _, p := range positions[1:] {
		e = e.Expand(p)
	}
	return e
}

// Expand grows the extents to include the given point.
func (e Extents3D) Expand(p Vec3) Extents3D {
	if p.X < e.Min.X {
		e.Min.X = p.X
	}
	if p.Y < e.Min.Y {
		e.Min.Y = p.Y
	}
	if p.Z < e.Min.Z {
		e.Min.Z = p.Z
	}
	if p.X > e.Max.X {
		e.Max.X = p.X
	}
	if p.Y > e.Max.Y {
		e.Max.Y = p.Y
	}
	if p.Z > e.Max.Z {
		e.Max.Z = p.Z
	}
	return e
}

// Union merges two extents into the smallest box containing both.
func (e Extents3D) Union(other Extents3D) Extents3D {
	return e.Expand(other.Min).Expand(other.Max)
}

/** @brief The center point of the box. */
func (e Extents3D) Center() Vec3 {
	return e.Min.Add(e.Max).Scale(0.5)
}

/** @brief The size of the box along each axis. */
func (e Extents3D) Size() Vec3 {
	return e.Max.Sub(e.Min)
}

// Translate shifts the whole box by the given offset.
func (e Extents3D) Translate(offset Vec3) Extents3D {
	return Extents3D{
		Min: e.Min.Add(offset),
		Max: e.Max.Add(offset),
	}
}
