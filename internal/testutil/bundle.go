package testutil

import (
	"encoding/binary"
	"testing"

	"github.com/klauspost/compress/zstd"
)

// DefaultChunkSize is the block size used by the game's bundles (256KiB).
const DefaultChunkSize = 256 << 10

// BundleHeader holds the header fields written by RawBundle. Fields left
// zero are derived from the blocks where that makes sense.
type BundleHeader struct {
	UncompressedSize uint32
	CompressorType   uint32
	ChunkSize        uint32
}

// RawBundle assembles a bundle container from already-encoded blocks.
func RawBundle(h BundleHeader, blocks [][]byte) []byte {
	var total uint32
	for _, b := range blocks {
		total += uint32(len(b)) //nolint:gosec // fixtures are small
	}

	le := binary.LittleEndian
	out := make([]byte, 0, 60+4*len(blocks)+int(total))
	out = le.AppendUint32(out, h.UncompressedSize)
	out = le.AppendUint32(out, total+uint32(4*len(blocks))+48) //nolint:gosec // fixtures are small
	out = le.AppendUint32(out, uint32(4*len(blocks))+48)       //nolint:gosec // fixtures are small
	out = le.AppendUint32(out, h.CompressorType)
	out = le.AppendUint32(out, 1)
	out = le.AppendUint64(out, uint64(h.UncompressedSize))
	out = le.AppendUint64(out, uint64(total))
	out = le.AppendUint32(out, uint32(len(blocks))) //nolint:gosec // fixtures are small
	out = le.AppendUint32(out, h.ChunkSize)
	out = append(out, make([]byte, 16)...)
	for _, b := range blocks {
		out = le.AppendUint32(out, uint32(len(b))) //nolint:gosec // fixtures are small
	}
	for _, b := range blocks {
		out = append(out, b...)
	}
	return out
}

// BuildBundle returns a bundle container holding payload split into
// chunkSize blocks, each encoded as an independent zstd frame.
func BuildBundle(tb testing.TB, payload []byte, chunkSize int) []byte {
	tb.Helper()
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		tb.Fatalf("create zstd encoder: %v", err)
	}
	defer enc.Close()

	var blocks [][]byte
	for off := 0; off < len(payload); off += chunkSize {
		end := min(off+chunkSize, len(payload))
		blocks = append(blocks, enc.EncodeAll(payload[off:end], nil))
	}
	return RawBundle(BundleHeader{
		UncompressedSize: uint32(len(payload)), //nolint:gosec // fixtures are small
		CompressorType:   8,
		ChunkSize:        uint32(chunkSize), //nolint:gosec // fixtures are small
	}, blocks)
}
