package boj

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Faultbox/bojexport/pkg/scene"
)

func TestEmitter_WriteObjectAndTextures(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "models", "rock.boj")

	s := makeTexturedScene()
	s[0].Material.AlbedoTexture = "tex/stone diffuse"

	saved := make(map[scene.TextureID]string)
	var e Emitter
	err := e.WriteObjectAndTextures(s, out, func(id scene.TextureID, path string) error {
		if _, dup := saved[id]; dup {
			t.Errorf("texture %q saved twice", id)
		}
		saved[id] = path
		return nil
	})
	if err != nil {
		t.Fatalf("WriteObjectAndTextures failed: %v", err)
	}

	base := filepath.Join(dir, "models") + string(filepath.Separator)
	want := map[scene.TextureID]string{
		"tex/stone diffuse": base + "tex_stone_diffuse.png",
		"stone":             base + "stone.png",
		"stone_h":           base + "stone_h.png",
		"moss":              base + "moss.png",
	}
	if len(saved) != len(want) {
		t.Fatalf("saved %d textures, want %d: %v", len(saved), len(want), saved)
	}
	for id, path := range want {
		if saved[id] != path {
			t.Errorf("texture %q saved to %q, want %q", id, saved[id], path)
		}
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	encoded, err := Encode(s, nil)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if string(data) != string(encoded) {
		t.Error("file contents differ from Encode output")
	}
}

func TestEmitter_Collaborators(t *testing.T) {
	s := scene.Scene{{Material: scene.Material{AlbedoTexture: "A", HeightTexture: "A"}}}

	var written string
	var order []string
	e := Emitter{
		Sanitize:    func(id scene.TextureID) string { return "s" + id.String() },
		DirectoryOf: func(string) string { return "out/" },
		WriteFile: func(path string, data []byte) error {
			written = path
			order = append(order, "write")
			return nil
		},
	}

	var gotPath string
	err := e.WriteObjectAndTextures(s, "scene.boj", func(id scene.TextureID, path string) error {
		gotPath = path
		order = append(order, "texture")
		return nil
	})
	if err != nil {
		t.Fatalf("WriteObjectAndTextures failed: %v", err)
	}
	if gotPath != "out/sA.png" {
		t.Errorf("texture path = %q, want %q", gotPath, "out/sA.png")
	}
	if written != "scene.boj" {
		t.Errorf("written path = %q", written)
	}
	if len(order) != 2 || order[0] != "texture" || order[1] != "write" {
		t.Errorf("call order = %v, want [texture write]", order)
	}
}

func TestEmitter_TextureErrorStopsWrite(t *testing.T) {
	errSave := errors.New("no space")
	wrote := false
	e := Emitter{WriteFile: func(string, []byte) error {
		wrote = true
		return nil
	}}

	s := scene.Scene{{Material: scene.Material{AlbedoTexture: "a"}}}
	err := e.WriteObjectAndTextures(s, "x.boj", func(scene.TextureID, string) error { return errSave })
	if !errors.Is(err, errSave) {
		t.Fatalf("expected save error, got %v", err)
	}
	if wrote {
		t.Error("file written after texture failure")
	}
}

func TestEmitter_WriteErrorPropagates(t *testing.T) {
	errWrite := errors.New("read-only")
	saved := 0
	e := Emitter{WriteFile: func(string, []byte) error { return errWrite }}

	s := scene.Scene{{Material: scene.Material{AlbedoTexture: "a"}}}
	err := e.WriteObjectAndTextures(s, "x.boj", func(scene.TextureID, string) error {
		saved++
		return nil
	})
	if !errors.Is(err, errWrite) {
		t.Fatalf("expected write error, got %v", err)
	}
	if saved != 1 {
		t.Errorf("expected texture saved before the write, got %d saves", saved)
	}
}

func TestDirectoryOf(t *testing.T) {
	sep := string(filepath.Separator)
	tests := []struct {
		path string
		want string
	}{
		{"model.boj", ""},
		{filepath.Join("a", "model.boj"), "a" + sep},
		{filepath.Join("a", "b", "model.boj"), filepath.Join("a", "b") + sep},
	}

	for _, tt := range tests {
		if got := DirectoryOf(tt.path); got != tt.want {
			t.Errorf("DirectoryOf(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "scene.boj")

	if err := WriteFileAtomic(path, []byte("first")); err != nil {
		t.Fatalf("WriteFileAtomic failed: %v", err)
	}
	if err := WriteFileAtomic(path, []byte("second")); err != nil {
		t.Fatalf("WriteFileAtomic failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading file: %v", err)
	}
	if string(data) != "second" {
		t.Errorf("got %q, want %q", data, "second")
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("reading dir: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected only the target file, found %d entries", len(entries))
	}
}
