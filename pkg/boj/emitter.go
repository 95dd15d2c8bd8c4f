package boj

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/Faultbox/bojexport/pkg/scene"
	"github.com/Faultbox/bojexport/pkg/texname"
)

// TextureExt is appended to sanitized texture names to form texture paths.
const TextureExt = ".png"

// SaveTextureFunc persists the texture id to path.
type SaveTextureFunc func(id scene.TextureID, path string) error

// WriteFileFunc writes a complete file.
type WriteFileFunc func(path string, data []byte) error

// Emitter writes a scene to a BOJ file and hands each referenced texture to
// a saver together with its destination path next to the file.
//
// Nil fields use the package defaults. If the file write fails, textures
// that were already saved are left in place.
type Emitter struct {
	Sanitize    SanitizeFunc
	DirectoryOf func(path string) string
	WriteFile   WriteFileFunc
	Log         *zap.Logger
}

// WriteObjectAndTextures encodes s, calls save for every distinct valid
// texture with the path <dir><sanitized name>.png, and writes the encoded
// blob to filePath.
func (e *Emitter) WriteObjectAndTextures(s scene.Scene, filePath string, save SaveTextureFunc) error {
	sanitize := e.Sanitize
	if sanitize == nil {
		sanitize = texname.Clean
	}
	directoryOf := e.DirectoryOf
	if directoryOf == nil {
		directoryOf = DirectoryOf
	}
	writeFile := e.WriteFile
	if writeFile == nil {
		writeFile = WriteFile
	}
	log := e.Log
	if log == nil {
		log = zap.NewNop()
	}

	directory := directoryOf(filePath)

	textures := 0
	data, err := NewEncoder(sanitize).Encode(s, func(id scene.TextureID) error {
		if !id.Valid() {
			return nil
		}
		path := directory + sanitize(id) + TextureExt
		log.Debug("saving texture", zap.Stringer("texture", id), zap.String("path", path))
		if err := save(id, path); err != nil {
			return fmt.Errorf("saving texture %q: %w", id, err)
		}
		textures++
		return nil
	})
	if err != nil {
		return err
	}

	if err := writeFile(filePath, data); err != nil {
		return fmt.Errorf("writing %s: %w", filePath, err)
	}

	log.Info("exported scene",
		zap.String("path", filePath),
		zap.Int("meshes", len(s)),
		zap.Int("textures", textures),
		zap.Int("bytes", len(data)))
	return nil
}

// DirectoryOf returns the directory part of path with a trailing separator,
// or the empty string for a bare file name.
func DirectoryOf(path string) string {
	dir := filepath.Dir(path)
	if dir == "." && filepath.Base(path) == path {
		return ""
	}
	return dir + string(filepath.Separator)
}

// WriteFile writes data to path, creating parent directories.
func WriteFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// WriteFileAtomic writes data to a temporary file in the target directory
// and renames it over path, so readers never see a partial file.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
