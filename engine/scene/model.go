package scene

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spaghettifunk/atelier/engine/math"
)

// Binary glTF container constants.
const (
	glbMagic         = 0x46546C67 // "glTF"
	glbChunkTypeJSON = 0x4E4F534A // "JSON"
)

var ErrNotModel = errors.New("data is not a glTF model")
var ErrNoPositions = errors.New("model has no position data")

// The subset of the glTF document needed to size an avatar: mesh primitives
// point at accessors, and VEC3 position accessors carry min/max bounds.
type gltfDocument struct {
	Accessors []gltfAccessor `json:"accessors"`
	Meshes    []gltfMesh     `json:"meshes"`
}

type gltfAccessor struct {
	Count int       `json:"count"`
	Type  string    `json:"type"`
	Min   []float64 `json:"min"`
	Max   []float64 `json:"max"`
}

type gltfMesh struct {
	Primitives []gltfPrimitive `json:"primitives"`
}

type gltfPrimitive struct {
	Attributes map[string]int `json:"attributes"`
}

// parseModelExtents reads a GLB (or bare glTF JSON) document and returns the
// union of all mesh position bounds plus the total vertex count. It never
// touches the binary buffer chunk; accessor min/max is authoritative.
func parseModelExtents(data []byte) (math.Extents3D, int, error) {
	jsonDoc, err := extractJSONChunk(data)
	if err != nil {
		return math.Extents3D{}, 0, err
	}

	var doc gltfDocument
	if err := json.Unmarshal(jsonDoc, &doc); err != nil {
		return math.Extents3D{}, 0, fmt.Errorf("%w: %s", ErrNotModel, err.Error())
	}

	var (
		extents     math.Extents3D
		vertexCount int
		found       bool
	)
	for _, mesh := range doc.Meshes {
		for _, prim := range mesh.Primitives {
			idx, ok := prim.Attributes["POSITION"]
			if !ok || idx < 0 || idx >= len(doc.Accessors) {
				continue
			}
			acc := doc.Accessors[idx]
			if acc.Type != "VEC3" || len(acc.Min) < 3 || len(acc.Max) < 3 {
				continue
			}
			e := math.Extents3D{
				Min: math.NewVec3(float32(acc.Min[0]), float32(acc.Min[1]), float32(acc.Min[2])),
				Max: math.NewVec3(float32(acc.Max[0]), float32(acc.Max[1]), float32(acc.Max[2])),
			}
			if !found {
				extents = e
				found = true
			} else {
				extents = extents.Union(e)
			}
			vertexCount += acc.Count
		}
	}
	if !found {
		return math.Extents3D{}, 0, ErrNoPositions
	}
	return extents, vertexCount, nil
}

// extractJSONChunk returns the JSON document from a GLB container, or the
// input itself when it is already bare glTF JSON.
func extractJSONChunk(data []byte) ([]byte, error) {
	if len(data) < 12 || binary.LittleEndian.Uint32(data[0:4]) != glbMagic {
		// Bare glTF: must at least look like a JSON object.
		if len(data) > 0 && data[0] == '{' {
			return data, nil
		}
		return nil, ErrNotModel
	}

	total := binary.LittleEndian.Uint32(data[8:12])
	if int(total) > len(data) {
		return nil, fmt.Errorf("%w: truncated container", ErrNotModel)
	}

	offset := 12
	for offset+8 <= int(total) {
		chunkLen := binary.LittleEndian.Uint32(data[offset : offset+4])
		chunkType := binary.LittleEndian.Uint32(data[offset+4 : offset+8])
		offset += 8
		if offset+int(chunkLen) > len(data) {
			return nil, fmt.Errorf("%w: truncated chunk", ErrNotModel)
		}
		if chunkType == glbChunkTypeJSON {
			return data[offset : offset+int(chunkLen)], nil
		}
		offset += int(chunkLen)
	}
	return nil, fmt.Errorf("%w: no JSON chunk", ErrNotModel)
}
