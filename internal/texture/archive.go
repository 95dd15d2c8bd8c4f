package texture

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/transform"
)

// GRF 0x200 layout.
const (
	grfMagic        = "Master of Magic"
	grfHeaderSize   = 46
	grfVersion      = 0x200
	grfEntryTail    = 17 // compressed, aligned, uncompressed sizes + flags + offset
	grfFlagFile     = 0x01
	grfFlagMixCrypt = 0x02
	grfFlagDES      = 0x04
)

// Archive errors.
var (
	ErrInvalidArchive   = errors.New("invalid GRF archive")
	ErrEncryptedEntry   = errors.New("encrypted archive entry")
	ErrNotInArchive     = errors.New("file not in archive")
	errTruncatedArchive = errors.New("truncated file table")
)

// Archive is a read-only GRF 0x200 archive used as a texture source.
// Entry names are decoded from EUC-KR and matched case-insensitively.
// Reads use ReadAt, so an Archive is safe for concurrent use.
type Archive struct {
	path    string
	file    *os.File
	entries map[string]archiveEntry
}

type archiveEntry struct {
	compressedSize   uint32
	alignedSize      uint32
	uncompressedSize uint32
	flags            uint8
	offset           uint32
}

type grfHeader struct {
	Magic         [15]byte
	EncryptionKey [15]byte
	TableOffset   uint32
	Seed          uint32
	FileCount     uint32
	Version       uint32
}

// OpenArchive opens a GRF archive and reads its file table.
func OpenArchive(path string) (*Archive, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening archive %s", path)
	}

	a := &Archive{
		path:    path,
		file:    file,
		entries: make(map[string]archiveEntry),
	}
	if err := a.readTable(); err != nil {
		file.Close()
		return nil, errors.Wrapf(err, "reading archive %s", path)
	}
	return a, nil
}

// Close closes the underlying file.
func (a *Archive) Close() error {
	return a.file.Close()
}

// Path returns the file the archive was opened from.
func (a *Archive) Path() string {
	return a.path
}

// Len returns the number of files in the archive.
func (a *Archive) Len() int {
	return len(a.entries)
}

// Names returns the normalized entry names in sorted order.
func (a *Archive) Names() []string {
	names := make([]string, 0, len(a.entries))
	for name := range a.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Contains reports whether name is a file in the archive.
func (a *Archive) Contains(name string) bool {
	_, ok := a.entries[normalizeEntryName(name)]
	return ok
}

// Read returns the uncompressed contents of name.
func (a *Archive) Read(name string) ([]byte, error) {
	entry, ok := a.entries[normalizeEntryName(name)]
	if !ok {
		return nil, errors.Wrapf(ErrNotInArchive, "%s", name)
	}
	if entry.flags&(grfFlagMixCrypt|grfFlagDES) != 0 {
		return nil, errors.Wrapf(ErrEncryptedEntry, "%s", name)
	}

	raw := make([]byte, entry.alignedSize)
	if _, err := a.file.ReadAt(raw, int64(entry.offset)+grfHeaderSize); err != nil {
		return nil, errors.Wrapf(err, "reading %s", name)
	}
	if entry.compressedSize > entry.alignedSize {
		return nil, errors.Wrapf(ErrInvalidArchive, "%s: compressed size exceeds aligned size", name)
	}

	if entry.compressedSize == entry.uncompressedSize {
		return raw[:entry.uncompressedSize], nil
	}
	return inflate(raw[:entry.compressedSize], entry.uncompressedSize)
}

func (a *Archive) readTable() error {
	var h grfHeader
	if err := binary.Read(io.NewSectionReader(a.file, 0, grfHeaderSize), binary.LittleEndian, &h); err != nil {
		return errors.Wrap(err, "reading header")
	}
	if string(h.Magic[:]) != grfMagic {
		return errors.Wrap(ErrInvalidArchive, "bad magic")
	}
	if h.Version != grfVersion {
		return errors.Wrapf(ErrInvalidArchive, "unsupported version 0x%x", h.Version)
	}

	tableOffset := int64(h.TableOffset) + grfHeaderSize
	var sizes [2]uint32
	if err := binary.Read(io.NewSectionReader(a.file, tableOffset, 8), binary.LittleEndian, &sizes); err != nil {
		return errors.Wrap(err, "reading table sizes")
	}

	compressed := make([]byte, sizes[0])
	if _, err := a.file.ReadAt(compressed, tableOffset+8); err != nil {
		return errors.Wrap(err, "reading file table")
	}
	table, err := inflate(compressed, sizes[1])
	if err != nil {
		return errors.Wrap(err, "inflating file table")
	}

	count := int64(h.FileCount) - int64(h.Seed) - 7
	if count < 0 {
		return errors.Wrapf(ErrInvalidArchive, "file count %d", count)
	}

	off := 0
	for i := int64(0); i < count; i++ {
		end := bytes.IndexByte(table[off:], 0)
		if end < 0 || off+end+1+grfEntryTail > len(table) {
			return errTruncatedArchive
		}
		name := decodeEntryName(table[off : off+end])
		off += end + 1

		e := archiveEntry{
			compressedSize:   binary.LittleEndian.Uint32(table[off:]),
			alignedSize:      binary.LittleEndian.Uint32(table[off+4:]),
			uncompressedSize: binary.LittleEndian.Uint32(table[off+8:]),
			flags:            table[off+12],
			offset:           binary.LittleEndian.Uint32(table[off+13:]),
		}
		off += grfEntryTail

		if e.flags&grfFlagFile != 0 {
			a.entries[normalizeEntryName(name)] = e
		}
	}
	return nil
}

func inflate(data []byte, size uint32) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	out := make([]byte, size)
	if _, err := io.ReadFull(zr, out); err != nil {
		return nil, err
	}
	return out, nil
}

// decodeEntryName converts an EUC-KR entry name to UTF-8, keeping the raw
// bytes when they do not decode.
func decodeEntryName(raw []byte) string {
	name, _, err := transform.Bytes(korean.EUCKR.NewDecoder(), raw)
	if err != nil {
		return string(raw)
	}
	return string(name)
}

func normalizeEntryName(name string) string {
	return strings.ToLower(strings.ReplaceAll(name, "\\", "/"))
}
