package index

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"

	"github.com/meigma/bundles/bundle"
	"github.com/meigma/bundles/internal/sizing"
)

// ErrMalformed is returned when the index tables cannot be parsed or are
// inconsistent with each other.
var ErrMalformed = errors.New("index: malformed")

const (
	fileRecordSize      = 20
	directoryRecordSize = 20
	// minBundleRecordSize is a zero-length name plus the size field.
	minBundleRecordSize = 8
)

// Read parses a decompressed index blob.
//
// The bundle, file and directory tables are parsed first; a declared count
// that cannot fit in the remaining bytes is a fatal ErrMalformed. The
// remaining bytes are a bundle whose payload is decoded with d and walked
// once to attach paths to the file table. Paths that match no file hash are
// dropped. The Index is published only after that pass completes.
func Read(data []byte, d bundle.Decompressor, opts ...Option) (*Index, error) {
	cfg := config{}
	for _, opt := range opts {
		opt(&cfg)
	}
	log := cfg.log()

	if d == nil {
		return nil, errors.New("index: nil decompressor")
	}

	dec := &decoder{data: data}
	bundles, err := readBundles(dec)
	if err != nil {
		return nil, err
	}
	files, err := readFiles(dec)
	if err != nil {
		return nil, err
	}
	dirs, err := readDirectories(dec)
	if err != nil {
		return nil, err
	}

	algo := DetectAlgorithm(dirs)
	log.Debug("parsed index tables",
		"bundles", len(bundles),
		"files", len(files),
		"directories", len(dirs),
		"algorithm", algo.String())

	payload, err := bundle.ReadAll(bytes.NewReader(dec.rest()), d)
	switch {
	case err != nil && cfg.strictPaths:
		return nil, fmt.Errorf("index: directory bundle: %w", err)
	case err != nil:
		log.Warn("directory bundle unreadable, paths left unresolved", "error", err)
	default:
		resolvePaths(dirs, payload, files, algo)
	}

	idx := &Index{bundles: bundles, files: files, algorithm: algo}
	log.Debug("resolved index paths", "resolved", idx.Resolved(), "files", idx.Len())
	return idx, nil
}

func readBundles(dec *decoder) ([]BundleInfo, error) {
	n, err := dec.count("bundle", minBundleRecordSize)
	if err != nil {
		return nil, err
	}
	bundles := make([]BundleInfo, 0, n)
	for i := range n {
		nameLen, err := dec.count("bundle name", 1)
		if err != nil {
			return nil, fmt.Errorf("bundle %d: %w", i, err)
		}
		name, err := dec.bytes(nameLen)
		if err != nil {
			return nil, fmt.Errorf("bundle %d: %w", i, err)
		}
		size, err := dec.u32()
		if err != nil {
			return nil, fmt.Errorf("bundle %d: %w", i, err)
		}
		bundles = append(bundles, BundleInfo{
			Name:             strings.ToValidUTF8(string(name), "\uFFFD"),
			UncompressedSize: size,
		})
	}
	return bundles, nil
}

func readFiles(dec *decoder) (map[uint64]FileInfo, error) {
	n, err := dec.count("file", fileRecordSize)
	if err != nil {
		return nil, err
	}
	rec, _ := dec.bytes(n * fileRecordSize) //nolint:errcheck // count checked the length
	le := binary.LittleEndian
	files := make(map[uint64]FileInfo, n)
	for i := range n {
		r := rec[i*fileRecordSize:]
		hash := le.Uint64(r)
		files[hash] = FileInfo{
			PathHash:    hash,
			BundleIndex: le.Uint32(r[8:]),
			FileOffset:  le.Uint32(r[12:]),
			FileSize:    le.Uint32(r[16:]),
		}
	}
	return files, nil
}

func readDirectories(dec *decoder) ([]DirectoryInfo, error) {
	n, err := dec.count("directory", directoryRecordSize)
	if err != nil {
		return nil, err
	}
	rec, _ := dec.bytes(n * directoryRecordSize) //nolint:errcheck // count checked the length
	le := binary.LittleEndian
	dirs := make([]DirectoryInfo, n)
	for i := range dirs {
		r := rec[i*directoryRecordSize:]
		dirs[i] = DirectoryInfo{
			PathHash:      le.Uint64(r),
			Offset:        le.Uint32(r[8:]),
			Size:          le.Uint32(r[12:]),
			RecursiveSize: le.Uint32(r[16:]),
		}
	}
	return dirs, nil
}

// decoder is a bounds-checked little-endian cursor.
type decoder struct {
	data []byte
	off  int
}

func (d *decoder) remaining() int {
	return len(d.data) - d.off
}

func (d *decoder) rest() []byte {
	return d.data[d.off:]
}

func (d *decoder) bytes(n int) ([]byte, error) {
	if n < 0 || n > d.remaining() {
		return nil, fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrMalformed, n, d.off, d.remaining())
	}
	b := d.data[d.off : d.off+n]
	d.off += n
	return b, nil
}

func (d *decoder) u32() (uint32, error) {
	b, err := d.bytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// count reads an i32 record count and checks that count records of at
// least recordSize bytes fit in the remaining data.
func (d *decoder) count(what string, recordSize int) (int, error) {
	v, err := d.u32()
	if err != nil {
		return 0, fmt.Errorf("%s count: %w", what, err)
	}
	n := int32(v) //nolint:gosec // the format stores counts as i32
	if n < 0 {
		return 0, fmt.Errorf("%w: negative %s count %d", ErrMalformed, what, n)
	}
	need, ok := sizing.MulUint64(uint64(n), uint64(recordSize))
	if !ok || need > uint64(d.remaining()) {
		return 0, fmt.Errorf("%w: %d %s records do not fit in %d bytes", ErrMalformed, n, what, d.remaining())
	}
	return int(n), nil
}
