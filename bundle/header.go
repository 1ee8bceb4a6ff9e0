package bundle

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const (
	// HeaderSize is the size of the fixed bundle header in bytes.
	HeaderSize = 60

	// MaxBlockCount bounds the block table allocated by ReadHeader.
	// 1<<22 blocks of the usual 256KiB chunk size covers a 1TiB payload.
	MaxBlockCount = 1 << 22
)

// Sentinel errors for bundle decoding.
var (
	// ErrInvalidData is returned when a block decodes to the wrong size or the
	// header describes an inconsistent block layout.
	ErrInvalidData = errors.New("bundle: invalid data")

	// ErrTooManyBlocks is returned when the header declares more blocks than
	// MaxBlockCount.
	ErrTooManyBlocks = errors.New("bundle: too many blocks")
)

// CompressorType is the codec tag recorded in the bundle header.
type CompressorType uint32

// Known Oodle codec tags.
const (
	CompressorKraken    CompressorType = 8
	CompressorMermaid   CompressorType = 9
	CompressorSelkie    CompressorType = 11
	CompressorHydra     CompressorType = 12
	CompressorLeviathan CompressorType = 13
)

// String returns the human-readable codec name.
func (c CompressorType) String() string {
	switch c {
	case CompressorKraken:
		return "kraken"
	case CompressorMermaid:
		return "mermaid"
	case CompressorSelkie:
		return "selkie"
	case CompressorHydra:
		return "hydra"
	case CompressorLeviathan:
		return "leviathan"
	default:
		return "unknown"
	}
}

// Bundle describes one bundle container.
//
// A Bundle is immutable once ReadHeader returns it.
type Bundle struct {
	UncompressedSize  uint32
	TotalPayloadSize  uint32
	HeadPayloadSize   uint32
	CompressorType    CompressorType
	UncompressedSize2 uint64
	TotalPayloadSize2 uint64
	BlockCount        uint32
	ChunkSize         uint32

	// BlockSizes holds the compressed size of each block, in order.
	BlockSizes []uint32

	// DataOffset is the stream position of the first compressed block.
	DataOffset int64
}

// ReadHeader reads the fixed header and the block size table from r.
//
// On return, r is positioned at the first compressed block and DataOffset
// records that position. A truncated header or block table returns an error
// wrapping io.EOF or io.ErrUnexpectedEOF.
func ReadHeader(r io.ReadSeeker) (*Bundle, error) {
	var hdr [HeaderSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, fmt.Errorf("bundle: read header: %w", err)
	}

	le := binary.LittleEndian
	b := &Bundle{
		UncompressedSize: le.Uint32(hdr[0:4]),
		TotalPayloadSize: le.Uint32(hdr[4:8]),
		HeadPayloadSize:  le.Uint32(hdr[8:12]),
		CompressorType:   CompressorType(le.Uint32(hdr[12:16])),
		// hdr[16:20] reserved
		UncompressedSize2: le.Uint64(hdr[20:28]),
		TotalPayloadSize2: le.Uint64(hdr[28:36]),
		BlockCount:        le.Uint32(hdr[36:40]),
		ChunkSize:         le.Uint32(hdr[40:44]),
		// hdr[44:60] reserved
	}

	if b.BlockCount > MaxBlockCount {
		return nil, fmt.Errorf("%w: %d", ErrTooManyBlocks, b.BlockCount)
	}

	tableLen := int64(b.BlockCount) * 4
	if err := ensureRemaining(r, tableLen); err != nil {
		return nil, fmt.Errorf("bundle: read block table: %w", err)
	}
	table := make([]byte, tableLen)
	if _, err := io.ReadFull(r, table); err != nil {
		return nil, fmt.Errorf("bundle: read block table: %w", err)
	}
	b.BlockSizes = make([]uint32, b.BlockCount)
	for i := range b.BlockSizes {
		b.BlockSizes[i] = le.Uint32(table[i*4:])
	}

	pos, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, fmt.Errorf("bundle: data offset: %w", err)
	}
	b.DataOffset = pos
	return b, nil
}

// ensureRemaining checks that at least n bytes follow the current position
// of r, leaving the position unchanged.
func ensureRemaining(r io.ReadSeeker, n int64) error {
	pos, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}
	end, err := r.Seek(0, io.SeekEnd)
	if err != nil {
		return err
	}
	if _, err := r.Seek(pos, io.SeekStart); err != nil {
		return err
	}
	if end-pos < n {
		return fmt.Errorf("%w: %d bytes for a %d byte table", io.ErrUnexpectedEOF, end-pos, n)
	}
	return nil
}

// BlockLen returns the decompressed length of block i: ChunkSize for every
// block except the last, which holds the remainder.
func (b *Bundle) BlockLen(i int) int {
	if i < 0 || b.ChunkSize == 0 {
		return 0
	}
	written := uint64(i) * uint64(b.ChunkSize)
	if written >= uint64(b.UncompressedSize) {
		return 0
	}
	return int(min(uint64(b.ChunkSize), uint64(b.UncompressedSize)-written))
}

// Validate checks that the block layout covers UncompressedSize exactly:
// every block but the last is ChunkSize bytes and the lengths sum to the
// declared size.
func (b *Bundle) Validate() error {
	if int(b.BlockCount) != len(b.BlockSizes) {
		return fmt.Errorf("%w: block count %d, table has %d entries", ErrInvalidData, b.BlockCount, len(b.BlockSizes))
	}
	if b.UncompressedSize == 0 {
		if b.BlockCount != 0 {
			return fmt.Errorf("%w: %d blocks for an empty payload", ErrInvalidData, b.BlockCount)
		}
		return nil
	}
	if b.ChunkSize == 0 {
		return fmt.Errorf("%w: zero chunk size", ErrInvalidData)
	}
	want := (uint64(b.UncompressedSize) + uint64(b.ChunkSize) - 1) / uint64(b.ChunkSize)
	if uint64(b.BlockCount) != want {
		return fmt.Errorf("%w: %d blocks of %d bytes cannot hold %d bytes", ErrInvalidData, b.BlockCount, b.ChunkSize, b.UncompressedSize)
	}
	return nil
}
