package boj

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/Faultbox/bojexport/pkg/scene"
)

func float32Bits(v float32) uint32 { return math.Float32bits(v) }

func TestDecode_RoundTrip(t *testing.T) {
	want := makeTexturedScene()

	data, err := Encode(want, nil)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	got, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if len(got) != len(want) {
		t.Fatalf("expected %d meshes, got %d", len(want), len(got))
	}

	for mi := range want {
		w, g := &want[mi], &got[mi]

		if len(g.Comments) != len(w.Comments) {
			t.Fatalf("mesh %d: expected %d comments, got %d", mi, len(w.Comments), len(g.Comments))
		}
		for i := range w.Comments {
			if g.Comments[i] != w.Comments[i] {
				t.Errorf("mesh %d comment %d: got %q, want %q", mi, i, g.Comments[i], w.Comments[i])
			}
		}

		if len(g.Vertices) != len(w.Vertices) {
			t.Fatalf("mesh %d: expected %d vertices, got %d", mi, len(w.Vertices), len(g.Vertices))
		}
		for i := range w.Vertices {
			wv, gv := w.Vertices[i], g.Vertices[i]
			wf := append(append(append(wv.Position[:], wv.Color[:]...), wv.TexCoord[:]...), wv.Normal[:]...)
			gf := append(append(append(gv.Position[:], gv.Color[:]...), gv.TexCoord[:]...), gv.Normal[:]...)
			for j := range wf {
				if float32Bits(gf[j]) != float32Bits(wf[j]) {
					t.Errorf("mesh %d vertex %d float %d: got %v, want %v", mi, i, j, gf[j], wf[j])
				}
			}
		}

		if len(g.Indices) != len(w.Indices) {
			t.Fatalf("mesh %d: expected %d index groups, got %d", mi, len(w.Indices), len(g.Indices))
		}
		for i := range w.Indices {
			if g.Indices[i].Topology != w.Indices[i].Topology {
				t.Errorf("mesh %d group %d: topology %v, want %v", mi, i, g.Indices[i].Topology, w.Indices[i].Topology)
			}
			if len(g.Indices[i].Indices) != len(w.Indices[i].Indices) {
				t.Fatalf("mesh %d group %d: index count mismatch", mi, i)
			}
			for j := range w.Indices[i].Indices {
				if g.Indices[i].Indices[j] != w.Indices[i].Indices[j] {
					t.Errorf("mesh %d group %d index %d mismatch", mi, i, j)
				}
			}
		}

		if g.Material != w.Material {
			t.Errorf("mesh %d material:\n got  %+v\n want %+v", mi, g.Material, w.Material)
		}
	}
}

func TestDecode_UnknownTopologyIsList(t *testing.T) {
	s := makeExampleScene()
	data, err := Encode(s, nil)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	// Topology code follows version, counts, one vertex and the group count.
	off := 4 + 4 + 4 + 4 + 48 + 4
	binary.LittleEndian.PutUint32(data[off:], 77)

	got, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if got[0].Indices[0].Topology != scene.TriangleList {
		t.Errorf("topology = %v, want List", got[0].Indices[0].Topology)
	}
}

func TestDecode_Errors(t *testing.T) {
	valid, err := Encode(makeExampleScene(), nil)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	badVersion := make([]byte, 8)
	binary.LittleEndian.PutUint32(badVersion, 5)

	hugeCount := make([]byte, 8)
	binary.LittleEndian.PutUint32(hugeCount, versionMarker)
	binary.LittleEndian.PutUint32(hugeCount[4:], 0xFFFFFFFF)

	// One mesh whose first count or string length is 0xFFFFFFFF, padded so
	// the mesh count itself passes.
	hugeField := func(fields ...uint32) []byte {
		b := make([]byte, 8+4*len(fields)+256)
		binary.LittleEndian.PutUint32(b, versionMarker)
		binary.LittleEndian.PutUint32(b[4:], 1)
		for i, f := range fields {
			binary.LittleEndian.PutUint32(b[8+4*i:], f)
		}
		return b
	}

	tests := []struct {
		name    string
		data    []byte
		wantErr error
	}{
		{"huge comment count", hugeField(0xFFFFFFFF), ErrTruncated},
		{"huge comment length", hugeField(1, 0xFFFFFFFF), ErrTruncated},
		{"huge comment length high bit", hugeField(1, 0x80000000), ErrTruncated},
		{"empty data", nil, ErrTruncated},
		{"short header", []byte{0xFA, 0xFF}, ErrTruncated},
		{"wrong version", badVersion, ErrInvalidVersion},
		{"huge mesh count", hugeCount, ErrTruncated},
		{"truncated mesh", valid[:len(valid)-3], ErrTruncated},
		{"trailing data", append(append([]byte{}, valid...), 0), ErrTrailingData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.data)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestDecode_EmptyScene(t *testing.T) {
	data, err := Encode(scene.Scene{}, nil)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	s, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(s) != 0 {
		t.Errorf("expected no meshes, got %d", len(s))
	}
}
