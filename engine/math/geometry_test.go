package math

import "testing"

func TestExtentsFromPositions(t *testing.T) {
	positions := []Vec3{
		NewVec3(1, -2, 3),
		NewVec3(-4, 5, 0),
		NewVec3(2, 2, -1),
	}
	e := ExtentsFromPositions(positions)
	if e.Min != NewVec3(-4, -2, -1) {
		t.Fatalf("wrong min: %+v", e.Min)
	}
	if e.Max != NewVec3(2, 5, 3) {
		t.Fatalf("wrong max: %+v", e.Max)
	}
}

func TestExtentsFromPositionsEmpty(t *testing.T) {
	e := ExtentsFromPositions(nil)
	if e.Min != (Vec3{}) || e.Max != (Vec3{}) {
		t.Fatalf("empty set should collapse to the origin, got %+v", e)
	}
}

func TestExtentsCenterAndSize(t *testing.T) {
	e := Extents3D{Min: NewVec3(-1, 0, -2), Max: NewVec3(3, 4, 2)}
	if c := e.Center(); c != NewVec3(1, 2, 0) {
		t.Fatalf("wrong center: %+v", c)
	}
	if s := e.Size(); s != NewVec3(4, 4, 4) {
		t.Fatalf("wrong size: %+v", s)
	}
}

func TestExtentsTranslate(t *testing.T) {
	e := Extents3D{Min: NewVec3(0, 0, 0), Max: NewVec3(1, 1, 1)}
	moved := e.Translate(NewVec3(2, -1, 0))
	if moved.Min != NewVec3(2, -1, 0) || moved.Max != NewVec3(3, 0, 1) {
		t.Fatalf("wrong translation: %+v", moved)
	}
}

func TestExtentsUnion(t *testing.T) {
	a := Extents3D{Min: NewVec3(0, 0, 0), Max: NewVec3(1, 1, 1)}
	b := Extents3D{Min: NewVec3(-1, 0.5, 0), Max: NewVec3(0.5, 2, 3)}
	u := a.Union(b)
	if u.Min != NewVec3(-1, 0, 0) || u.Max != NewVec3(1, 2, 3) {
		t.Fatalf("wrong union: %+v", u)
	}
}
