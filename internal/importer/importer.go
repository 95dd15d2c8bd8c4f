// Package importer builds scenes from glTF documents and YAML scene files.
package importer

import (
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Faultbox/bojexport/internal/texture"
	"github.com/Faultbox/bojexport/pkg/scene"
)

// ErrUnsupportedFormat is returned for input files with an unknown extension.
var ErrUnsupportedFormat = errors.New("unsupported scene format")

// Options configures scene loading.
type Options struct {
	Textures       *texture.Store // Receives images embedded in or next to the input
	PrimitiveCells int            // Marching cubes resolution for generated primitives
	Log            *zap.Logger
}

func (o Options) logger() *zap.Logger {
	if o.Log == nil {
		return zap.NewNop()
	}
	return o.Log
}

// Load reads a scene, choosing the importer by file extension.
func Load(path string, opts Options) (scene.Scene, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gltf", ".glb":
		return LoadGLTF(path, opts)
	case ".yaml", ".yml":
		return LoadSceneFile(path, opts)
	default:
		return nil, errors.Wrapf(ErrUnsupportedFormat, "%s", path)
	}
}
