package boj

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/Faultbox/bojexport/pkg/scene"
	"github.com/Faultbox/bojexport/pkg/texname"
)

// fieldWriter receives the fields of a scene in wire order.
type fieldWriter interface {
	putUint32(v uint32)
	putFloat32(v float32)
	putString(s string)
}

// sizer counts the bytes a walk would produce.
type sizer struct {
	total uint64
	err   error
}

func (s *sizer) add(n uint64) {
	s.total += n
	if s.err == nil && s.total > math.MaxInt {
		s.err = fmt.Errorf("%w: more than %d bytes", ErrSceneTooLarge, math.MaxInt)
	}
}

func (s *sizer) putUint32(uint32)   { s.add(fieldSize) }
func (s *sizer) putFloat32(float32) { s.add(fieldSize) }

func (s *sizer) putString(str string) {
	if s.err == nil && uint64(len(str)) > math.MaxUint32 {
		s.err = fmt.Errorf("%w: string of %d bytes", ErrSceneTooLarge, len(str))
	}
	s.add(fieldSize + uint64(len(str)))
}

// bufWriter fills a buffer allocated from a sizer total.
type bufWriter struct {
	buf []byte
	off int
}

func (w *bufWriter) putUint32(v uint32) {
	binary.LittleEndian.PutUint32(w.buf[w.off:], v)
	w.off += fieldSize
}

func (w *bufWriter) putFloat32(v float32) {
	w.putUint32(math.Float32bits(v))
}

func (w *bufWriter) putString(s string) {
	w.putUint32(uint32(len(s)))
	w.off += copy(w.buf[w.off:], s)
}

// Encoder serializes scenes into BOJ blobs. An Encoder holds no per-call
// state and may be used from multiple goroutines.
type Encoder struct {
	sanitize SanitizeFunc
}

// NewEncoder creates an encoder that names texture slots with sanitize.
// A nil sanitize uses texname.Clean.
func NewEncoder(sanitize SanitizeFunc) *Encoder {
	if sanitize == nil {
		sanitize = texname.Clean
	}
	return &Encoder{sanitize: sanitize}
}

// Measure returns the exact number of bytes Encode produces for s.
func (e *Encoder) Measure(s scene.Scene) (int, error) {
	var sz sizer
	if err := walk(s, e.sanitize, &sz); err != nil {
		return 0, err
	}
	if sz.err != nil {
		return 0, sz.err
	}
	return int(sz.total), nil
}

// Encode serializes s. After the buffer is complete, onTexture is called
// once for every distinct valid texture referenced by the scene; an error
// from onTexture aborts the encode. A nil onTexture is allowed.
func (e *Encoder) Encode(s scene.Scene, onTexture TextureFunc) ([]byte, error) {
	size, err := e.Measure(s)
	if err != nil {
		return nil, err
	}

	w := &bufWriter{buf: make([]byte, size)}
	if err := walk(s, e.sanitize, w); err != nil {
		return nil, err
	}
	if w.off != len(w.buf) {
		return nil, fmt.Errorf("%w: wrote %d of %d bytes", ErrSizeMismatch, w.off, len(w.buf))
	}

	if onTexture != nil {
		for _, id := range s.Textures() {
			if err := onTexture(id); err != nil {
				return nil, err
			}
		}
	}

	return w.buf, nil
}

var defaultEncoder = NewEncoder(nil)

// Encode serializes s with the default texture name sanitizer.
func Encode(s scene.Scene, onTexture TextureFunc) ([]byte, error) {
	return defaultEncoder.Encode(s, onTexture)
}

// Measure returns the encoded size of s with the default sanitizer.
func Measure(s scene.Scene) (int, error) {
	return defaultEncoder.Measure(s)
}

// count converts a slice length to its wire form.
func count(n int) (uint32, error) {
	if uint64(n) > math.MaxUint32 {
		return 0, fmt.Errorf("%w: %d elements", ErrSceneTooLarge, n)
	}
	return uint32(n), nil
}

// walk visits every field of s in wire order. Both the measuring and the
// writing pass go through here, so they cannot disagree on layout.
func walk(s scene.Scene, sanitize SanitizeFunc, w fieldWriter) error {
	w.putUint32(versionMarker)

	n, err := count(len(s))
	if err != nil {
		return err
	}
	w.putUint32(n)

	for i := range s {
		if err := walkMesh(&s[i], sanitize, w); err != nil {
			return fmt.Errorf("mesh %d: %w", i, err)
		}
	}
	return nil
}

func walkMesh(m *scene.Mesh, sanitize SanitizeFunc, w fieldWriter) error {
	n, err := count(len(m.Comments))
	if err != nil {
		return err
	}
	w.putUint32(n)
	for _, c := range m.Comments {
		w.putString(c)
	}

	if n, err = count(len(m.Vertices)); err != nil {
		return err
	}
	w.putUint32(n)
	for i := range m.Vertices {
		v := &m.Vertices[i]
		w.putFloat32(v.Position[0])
		w.putFloat32(v.Position[1])
		w.putFloat32(v.Position[2])

		w.putFloat32(v.Color[0])
		w.putFloat32(v.Color[1])
		w.putFloat32(v.Color[2])
		w.putFloat32(v.Color[3])

		w.putFloat32(v.TexCoord[0])
		w.putFloat32(v.TexCoord[1])

		w.putFloat32(v.Normal[0])
		w.putFloat32(v.Normal[1])
		w.putFloat32(v.Normal[2])
	}

	if n, err = count(len(m.Indices)); err != nil {
		return err
	}
	w.putUint32(n)
	for _, g := range m.Indices {
		w.putUint32(g.Topology.Code())
		if n, err = count(len(g.Indices)); err != nil {
			return err
		}
		w.putUint32(n)
		for _, idx := range g.Indices {
			w.putUint32(idx)
		}
	}

	walkMaterial(&m.Material, sanitize, w)
	return nil
}

func walkMaterial(mat *scene.Material, sanitize SanitizeFunc, w fieldWriter) {
	w.putString(mat.Name)

	w.putFloat32(mat.Albedo[0])
	w.putFloat32(mat.Albedo[1])
	w.putFloat32(mat.Albedo[2])

	w.putFloat32(mat.Alpha)

	w.putFloat32(mat.Roughness)
	w.putFloat32(mat.Metalness)
	w.putFloat32(mat.Transmission)
	w.putFloat32(mat.IOR)

	w.putFloat32(mat.SSSScale)

	w.putFloat32(mat.SSSRadius[0])
	w.putFloat32(mat.SSSRadius[1])
	w.putFloat32(mat.SSSRadius[2])

	w.putFloat32(mat.SSS[0])
	w.putFloat32(mat.SSS[1])
	w.putFloat32(mat.SSS[2])

	w.putFloat32(mat.Emission[0])
	w.putFloat32(mat.Emission[1])
	w.putFloat32(mat.Emission[2])

	w.putFloat32(mat.EmissionScale)
	w.putFloat32(mat.HeightScale)
	w.putFloat32(mat.HeightMidlevel)

	for _, on := range mat.Toggles() {
		w.putFloat32(boolToFloat(on))
	}

	w.putFloat32(mat.AlbedoScale)

	if mat.TileTextures {
		w.putUint32(1)
	} else {
		w.putUint32(0)
	}

	for _, id := range mat.Textures() {
		w.putString(sanitize(id))
	}
}

func boolToFloat(b bool) float32 {
	if b {
		return 1
	}
	return 0
}
