// Package scene defines the in-memory mesh scene consumed by the BOJ encoder.
package scene

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// Scene validation errors.
var (
	ErrIndexOutOfRange = errors.New("vertex index out of range")
)

// TextureID identifies a texture. The empty identifier is invalid and means
// that no texture is bound to a slot.
type TextureID string

// NoTexture is the invalid texture identifier.
const NoTexture TextureID = ""

// Valid returns true if the identifier names a texture.
func (t TextureID) Valid() bool {
	return t != NoTexture
}

// String returns the identifier text.
func (t TextureID) String() string {
	return string(t)
}

// Topology selects how an index group is assembled into triangles.
type Topology int

const (
	TriangleList  Topology = iota // Independent triangles
	TriangleFan                   // Fan around the first index
	TriangleStrip                 // Strip of adjacent triangles
)

// String returns a human-readable topology name.
func (t Topology) String() string {
	switch t {
	case TriangleFan:
		return "Fan"
	case TriangleStrip:
		return "Strip"
	case TriangleList:
		return "List"
	default:
		return fmt.Sprintf("Unknown(%d)", int(t))
	}
}

// Code returns the wire code of the topology. Anything that is not a fan or
// a strip is written as a list.
func (t Topology) Code() uint32 {
	switch t {
	case TriangleFan:
		return 1
	case TriangleStrip:
		return 2
	default:
		return 3
	}
}

// TopologyFromCode maps a wire code back to a topology.
func TopologyFromCode(code uint32) Topology {
	switch code {
	case 1:
		return TriangleFan
	case 2:
		return TriangleStrip
	default:
		return TriangleList
	}
}

// Vertex is a single mesh vertex.
type Vertex struct {
	Position mgl32.Vec3 // X, Y, Z
	Color    mgl32.Vec4 // R, G, B, A
	TexCoord mgl32.Vec2 // U, V
	Normal   mgl32.Vec3 // X, Y, Z
}

// IndexGroup is a run of vertex indices sharing one topology.
type IndexGroup struct {
	Topology Topology
	Indices  []uint32 // Indices into the owning mesh's vertices
}

// Mesh is one object of a scene.
type Mesh struct {
	Comments []string
	Vertices []Vertex
	Indices  []IndexGroup
	Material Material
}

// TriangleCount returns the number of triangles described by the mesh's
// index groups.
func (m *Mesh) TriangleCount() int {
	count := 0
	for _, g := range m.Indices {
		n := len(g.Indices)
		switch g.Topology {
		case TriangleFan, TriangleStrip:
			if n >= 3 {
				count += n - 2
			}
		default:
			count += n / 3
		}
	}
	return count
}

// Scene is an ordered sequence of meshes.
type Scene []Mesh

// Textures returns every distinct valid texture referenced by the scene's
// materials, in the order they are first seen.
func (s Scene) Textures() []TextureID {
	seen := make(map[TextureID]struct{})
	var textures []TextureID
	for i := range s {
		for _, id := range s[i].Material.Textures() {
			if !id.Valid() {
				continue
			}
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			textures = append(textures, id)
		}
	}
	return textures
}

// VertexCount returns the total number of vertices in the scene.
func (s Scene) VertexCount() int {
	count := 0
	for i := range s {
		count += len(s[i].Vertices)
	}
	return count
}

// Validate checks that every index refers to a vertex of its mesh.
// The encoder does not call this; indices are written as given.
func (s Scene) Validate() error {
	for mi := range s {
		n := uint32(len(s[mi].Vertices))
		for gi, g := range s[mi].Indices {
			for ii, idx := range g.Indices {
				if idx >= n {
					return fmt.Errorf("%w: mesh %d group %d index %d = %d (vertices: %d)",
						ErrIndexOutOfRange, mi, gi, ii, idx, n)
				}
			}
		}
	}
	return nil
}
