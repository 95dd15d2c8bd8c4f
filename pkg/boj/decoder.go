package boj

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/Faultbox/bojexport/pkg/scene"
)

// reader walks a BOJ blob. The first failure sticks; later reads return
// zero values.
type reader struct {
	data []byte
	off  int
	err  error
}

func (r *reader) remaining() int {
	return len(r.data) - r.off
}

func (r *reader) fail(what string, need uint64) {
	if r.err == nil {
		r.err = fmt.Errorf("%w: %s at offset %d needs %d bytes, %d left",
			ErrTruncated, what, r.off, need, r.remaining())
	}
}

func (r *reader) uint32(what string) uint32 {
	if r.err != nil {
		return 0
	}
	if r.remaining() < fieldSize {
		r.fail(what, fieldSize)
		return 0
	}
	v := binary.LittleEndian.Uint32(r.data[r.off:])
	r.off += fieldSize
	return v
}

func (r *reader) float32(what string) float32 {
	return math.Float32frombits(r.uint32(what))
}

func (r *reader) string(what string) string {
	n := uint64(r.uint32(what))
	if r.err != nil {
		return ""
	}
	if n > uint64(r.remaining()) {
		r.fail(what, n)
		return ""
	}
	s := string(r.data[r.off : r.off+int(n)])
	r.off += int(n)
	return s
}

// count reads an element count and checks that at least minSize bytes per
// element are left, so corrupt counts cannot trigger huge allocations.
func (r *reader) count(what string, minSize int) int {
	n := uint64(r.uint32(what))
	if r.err != nil {
		return 0
	}
	if minSize > 0 && n > uint64(r.remaining()/minSize) {
		r.fail(what, n*uint64(minSize))
		return 0
	}
	return int(n)
}

// Decode parses a version 6 BOJ blob. Topology codes other than 1 and 2
// decode as triangle lists, and texture slots decode to the sanitized names
// that were written.
func Decode(data []byte) (scene.Scene, error) {
	r := &reader{data: data}

	version := r.uint32("version")
	if r.err != nil {
		return nil, r.err
	}
	if version != versionMarker {
		return nil, fmt.Errorf("%w: 0x%08x", ErrInvalidVersion, version)
	}

	// Smallest mesh: four counts, empty name, floats, tile flag, empty slots.
	const minMeshSize = 3*fieldSize + fieldSize + materialFloats*fieldSize + fieldSize + textureSlotCount*fieldSize

	meshCount := r.count("mesh count", minMeshSize)
	if r.err != nil {
		return nil, r.err
	}
	s := make(scene.Scene, meshCount)
	for i := range s {
		readMesh(r, &s[i])
		if r.err != nil {
			return nil, fmt.Errorf("mesh %d: %w", i, r.err)
		}
	}

	if r.remaining() != 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrTrailingData, r.remaining())
	}
	return s, nil
}

func readMesh(r *reader, m *scene.Mesh) {
	if n := r.count("comment count", fieldSize); n > 0 {
		m.Comments = make([]string, n)
		for i := range m.Comments {
			m.Comments[i] = r.string("comment")
		}
	}

	if n := r.count("vertex count", vertexFloats*fieldSize); n > 0 {
		m.Vertices = make([]scene.Vertex, n)
		for i := range m.Vertices {
			v := &m.Vertices[i]
			for j := range v.Position {
				v.Position[j] = r.float32("position")
			}
			for j := range v.Color {
				v.Color[j] = r.float32("color")
			}
			for j := range v.TexCoord {
				v.TexCoord[j] = r.float32("texcoord")
			}
			for j := range v.Normal {
				v.Normal[j] = r.float32("normal")
			}
		}
	}

	if n := r.count("index group count", 2*fieldSize); n > 0 {
		m.Indices = make([]scene.IndexGroup, n)
		for i := range m.Indices {
			g := &m.Indices[i]
			g.Topology = scene.TopologyFromCode(r.uint32("topology"))
			if c := r.count("index count", fieldSize); c > 0 {
				g.Indices = make([]uint32, c)
				for j := range g.Indices {
					g.Indices[j] = r.uint32("index")
				}
			}
		}
	}

	readMaterial(r, &m.Material)
}

func readMaterial(r *reader, mat *scene.Material) {
	mat.Name = r.string("material name")

	for j := range mat.Albedo {
		mat.Albedo[j] = r.float32("albedo")
	}
	mat.Alpha = r.float32("alpha")
	mat.Roughness = r.float32("roughness")
	mat.Metalness = r.float32("metalness")
	mat.Transmission = r.float32("transmission")
	mat.IOR = r.float32("ior")
	mat.SSSScale = r.float32("sss scale")
	for j := range mat.SSSRadius {
		mat.SSSRadius[j] = r.float32("sss radius")
	}
	for j := range mat.SSS {
		mat.SSS[j] = r.float32("sss color")
	}
	for j := range mat.Emission {
		mat.Emission[j] = r.float32("emission")
	}
	mat.EmissionScale = r.float32("emission scale")
	mat.HeightScale = r.float32("height scale")
	mat.HeightMidlevel = r.float32("height midlevel")

	var toggles [lightingToggles]bool
	for j := range toggles {
		toggles[j] = r.float32("lighting toggle") != 0
	}
	mat.SetToggles(toggles)

	mat.AlbedoScale = r.float32("albedo scale")
	mat.TileTextures = r.uint32("tile flag") != 0

	for slot := scene.TextureSlot(0); slot < textureSlotCount; slot++ {
		mat.SetTexture(slot, scene.TextureID(r.string("texture "+slot.String())))
	}
}
