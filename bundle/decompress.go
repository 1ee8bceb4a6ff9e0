package bundle

import (
	"fmt"
	"io"
)

// Decompressor is the block decompression primitive.
//
// DecompressBlock decodes the compressed block src into dst and returns the
// number of bytes written. len(dst) is the exact expected decompressed size;
// any other return value, including a negative one, is treated as failure.
// Implementations must not retain src or dst.
type Decompressor interface {
	DecompressBlock(src, dst []byte) int
}

// DecompressorFunc adapts a function to the Decompressor interface.
type DecompressorFunc func(src, dst []byte) int

// DecompressBlock calls f(src, dst).
func (f DecompressorFunc) DecompressBlock(src, dst []byte) int {
	return f(src, dst)
}

// BlockError reports a block whose decompressed size did not match the
// expected length. It matches ErrInvalidData with errors.Is.
type BlockError struct {
	Block int
	Got   int
	Want  int
}

func (e *BlockError) Error() string {
	return fmt.Sprintf("bundle: block %d decompressed to %d bytes, expected %d", e.Block, e.Got, e.Want)
}

// Is reports whether target is ErrInvalidData.
func (e *BlockError) Is(target error) bool {
	return target == ErrInvalidData
}

// ReadAll reads a bundle header from r and returns the decompressed payload.
func ReadAll(r io.ReadSeeker, d Decompressor) ([]byte, error) {
	b, err := ReadHeader(r)
	if err != nil {
		return nil, err
	}
	return b.Decompress(r, d)
}

// Decompress returns the full decompressed payload of the bundle read from r.
func (b *Bundle) Decompress(r io.ReadSeeker, d Decompressor) ([]byte, error) {
	out := make([]byte, b.UncompressedSize)
	if err := b.DecompressInto(r, d, out); err != nil {
		return nil, err
	}
	return out, nil
}

// DecompressInto decompresses every block from r into out, which must hold
// at least UncompressedSize bytes.
//
// Blocks are decoded in order. The first block that does not decode to
// exactly its expected length aborts the call with a *BlockError; the
// contents of out are then unspecified.
func (b *Bundle) DecompressInto(r io.ReadSeeker, d Decompressor, out []byte) error {
	if d == nil {
		return fmt.Errorf("bundle: nil decompressor")
	}
	if err := b.Validate(); err != nil {
		return err
	}
	if len(out) < int(b.UncompressedSize) {
		return fmt.Errorf("bundle: output buffer holds %d bytes, need %d", len(out), b.UncompressedSize)
	}
	if _, err := r.Seek(b.DataOffset, io.SeekStart); err != nil {
		return fmt.Errorf("bundle: seek to data: %w", err)
	}

	var src []byte
	written := 0
	for i, size := range b.BlockSizes {
		if cap(src) < int(size) {
			src = make([]byte, size)
		}
		src = src[:size]
		if _, err := io.ReadFull(r, src); err != nil {
			return fmt.Errorf("bundle: read block %d: %w", i, err)
		}

		want := min(int(b.ChunkSize), int(b.UncompressedSize)-written)
		got := d.DecompressBlock(src, out[written:written+want])
		if got != want {
			return &BlockError{Block: i, Got: got, Want: want}
		}
		written += want
	}
	return nil
}
