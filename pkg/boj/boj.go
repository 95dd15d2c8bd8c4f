// Package boj writes and reads the BOJ binary scene format.
//
// A BOJ blob is a flat little-endian stream of 32-bit fields:
//
//	version    uint32 (bit pattern of -6)
//	meshCount  uint32
//	meshes     meshCount × mesh
//
// Strings are a uint32 byte length followed by the raw bytes with no
// terminator and no padding. There is no texture table; every texture slot
// carries its own sanitized name.
package boj

import (
	"errors"

	"github.com/Faultbox/bojexport/pkg/scene"
)

// Version is the BOJ format version written by this package.
const Version = 6

// versionMarker is -Version stored as an unsigned 32-bit value, so it never
// looks like a small element count.
const versionMarker uint32 = 1<<32 - Version

// Wire sizes.
const (
	fieldSize        = 4
	vertexFloats     = 12
	lightingToggles  = scene.ToggleCount
	materialFloats   = 22 + lightingToggles
	textureSlotCount = scene.SlotCount
)

// BOJ format errors.
var (
	ErrSceneTooLarge  = errors.New("scene too large for BOJ encoding")
	ErrSizeMismatch   = errors.New("encoded size does not match measured size")
	ErrInvalidVersion = errors.New("invalid BOJ version marker")
	ErrTruncated      = errors.New("truncated BOJ data")
	ErrTrailingData   = errors.New("trailing bytes after BOJ data")
)

// SanitizeFunc maps a texture identifier to a filesystem-safe base name.
// Invalid identifiers must map to the empty string.
type SanitizeFunc func(scene.TextureID) string

// TextureFunc is called once for each distinct valid texture of a scene.
type TextureFunc func(scene.TextureID) error
