// Package texture locates the source images behind texture identifiers and
// writes them out as PNG files.
package texture

import (
	"bytes"
	"image"
	_ "image/jpeg" // JPEG decoder registration
	"image/png"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	_ "golang.org/x/image/bmp" // BMP decoder registration

	"github.com/Faultbox/bojexport/pkg/scene"
)

// ErrTextureNotFound is returned in strict mode when no source image exists.
var ErrTextureNotFound = errors.New("texture not found")

// sourceExts are tried in order when an identifier has no usable extension.
var sourceExts = []string{".png", ".tga", ".bmp", ".jpg", ".jpeg"}

// archiveRoots are prefixes tried for identifiers inside archives.
var archiveRoots = []string{"", "data/texture/"}

// Store resolves texture identifiers to images and saves them as PNG.
// Registered in-memory images take priority over the search directories,
// which take priority over archives.
type Store struct {
	Dirs       []string   // Search directories
	Archives   []*Archive // Searched after Dirs, in order
	Overwrite  bool       // Replace existing destination files
	Strict     bool       // Missing textures are errors instead of warnings
	MagentaKey bool       // Treat pure magenta as transparent

	log *zap.Logger

	mu  sync.Mutex
	mem map[scene.TextureID]memSource
}

type memSource struct {
	data []byte
	ext  string
}

// NewStore creates a store searching dirs. A nil log disables logging.
func NewStore(dirs []string, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		Dirs: dirs,
		log:  log,
		mem:  make(map[scene.TextureID]memSource),
	}
}

// Close closes every archive and returns the first error.
func (s *Store) Close() error {
	var first error
	for _, a := range s.Archives {
		if err := a.Close(); err != nil && first == nil {
			first = err
		}
	}
	s.Archives = nil
	return first
}

// Register makes encoded image data available under id. The format is
// taken from ext (".png", ".tga", ...) or sniffed when ext is empty.
func (s *Store) Register(id scene.TextureID, data []byte, ext string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mem[id] = memSource{data: data, ext: strings.ToLower(ext)}
}

// Registered reports whether id has in-memory data.
func (s *Store) Registered(id scene.TextureID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.mem[id]
	return ok
}

// Save writes the image for id to dest as PNG. It matches the
// boj.SaveTextureFunc signature.
func (s *Store) Save(id scene.TextureID, dest string) error {
	if !s.Overwrite {
		if _, err := os.Stat(dest); err == nil {
			s.log.Debug("texture exists, skipping", zap.String("path", dest))
			return nil
		}
	}

	img, err := s.Load(id)
	if errors.Is(err, ErrTextureNotFound) && !s.Strict {
		s.log.Warn("texture not found, skipping", zap.Stringer("texture", id))
		return nil
	}
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return errors.Wrapf(err, "creating directory for %s", dest)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return errors.Wrapf(err, "encoding %q as PNG", id)
	}
	if err := os.WriteFile(dest, buf.Bytes(), 0644); err != nil {
		return errors.Wrapf(err, "writing %s", dest)
	}

	s.log.Debug("texture saved", zap.Stringer("texture", id), zap.String("path", dest))
	return nil
}

// Load decodes the image behind id.
func (s *Store) Load(id scene.TextureID) (image.Image, error) {
	data, ext, err := s.find(id)
	if err != nil {
		return nil, err
	}

	img, err := Decode(data, ext)
	if err != nil {
		return nil, errors.Wrapf(err, "decoding %q", id)
	}
	if s.MagentaKey {
		img = toNRGBA(img, true)
	}
	return img, nil
}

// find returns the encoded bytes for id and their extension.
func (s *Store) find(id scene.TextureID) ([]byte, string, error) {
	s.mu.Lock()
	src, ok := s.mem[id]
	s.mu.Unlock()
	if ok {
		return src.data, src.ext, nil
	}

	names := relNames(id)
	for _, dir := range s.Dirs {
		for _, n := range names {
			file := filepath.Join(dir, filepath.FromSlash(n))
			data, err := os.ReadFile(file)
			if err == nil {
				return data, strings.ToLower(filepath.Ext(file)), nil
			}
			if !os.IsNotExist(err) {
				return nil, "", errors.Wrapf(err, "reading %s", file)
			}
		}
	}

	for _, a := range s.Archives {
		for _, root := range archiveRoots {
			for _, n := range names {
				if !a.Contains(root + n) {
					continue
				}
				data, err := a.Read(root + n)
				if err != nil {
					return nil, "", errors.Wrapf(err, "archive %s", a.Path())
				}
				return data, strings.ToLower(path.Ext(n)), nil
			}
		}
	}

	return nil, "", errors.Wrapf(ErrTextureNotFound, "%q", id)
}

// relNames lists the relative names tried for id, with forward slashes.
func relNames(id scene.TextureID) []string {
	name := strings.ReplaceAll(id.String(), "\\", "/")
	ext := strings.ToLower(path.Ext(name))

	bases := []string{name}
	if legacy, ok := legacyName(name); ok {
		bases = append(bases, legacy)
	}

	var names []string
	for _, b := range bases {
		if isSourceExt(ext) {
			names = append(names, b)
		}
		for _, e := range sourceExts {
			names = append(names, b+e)
		}
	}
	return names
}

func isSourceExt(ext string) bool {
	for _, e := range sourceExts {
		if e == ext {
			return true
		}
	}
	return false
}

// Decode decodes image data. TGA has no signature, so it is selected by
// extension; every other format is sniffed.
func Decode(data []byte, ext string) (image.Image, error) {
	if strings.EqualFold(ext, ".tga") {
		return DecodeTGA(data)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return img, nil
}
