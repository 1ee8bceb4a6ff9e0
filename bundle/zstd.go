package bundle

import (
	"sync"

	"github.com/klauspost/compress/zstd"
)

// DefaultMaxDecoderMemory is the default zstd decoder memory limit (256MB).
const DefaultMaxDecoderMemory = 256 << 20

// ZstdDecompressor decodes blocks stored as independent zstd frames.
//
// Decoders are pooled; a ZstdDecompressor is safe for concurrent use.
type ZstdDecompressor struct {
	pool             sync.Pool
	maxDecoderMemory uint64
	lowmem           bool
}

// ZstdOption configures a ZstdDecompressor.
type ZstdOption func(*ZstdDecompressor)

// WithMaxDecoderMemory limits the memory a single decoder may allocate.
// Set limit to 0 to disable the limit.
func WithMaxDecoderMemory(limit uint64) ZstdOption {
	return func(z *ZstdDecompressor) {
		z.maxDecoderMemory = limit
	}
}

// WithDecoderLowmem sets whether decoders use low-memory mode (default: false).
func WithDecoderLowmem(enabled bool) ZstdOption {
	return func(z *ZstdDecompressor) {
		z.lowmem = enabled
	}
}

// NewZstdDecompressor creates a pooled zstd block decompressor.
func NewZstdDecompressor(opts ...ZstdOption) *ZstdDecompressor {
	z := &ZstdDecompressor{maxDecoderMemory: DefaultMaxDecoderMemory}
	for _, opt := range opts {
		opt(z)
	}
	z.pool.New = func() any {
		dec, err := z.newDecoder()
		if err != nil {
			return nil
		}
		return dec
	}
	return z
}

// DecompressBlock implements Decompressor. It returns -1 if src is not a
// valid zstd frame, and the decoded length otherwise; a frame that decodes
// to more than len(dst) bytes reports its full length so the caller sees
// the mismatch.
func (z *ZstdDecompressor) DecompressBlock(src, dst []byte) int {
	dec, release, err := z.get()
	if err != nil {
		return -1
	}
	defer release()

	out, err := dec.DecodeAll(src, dst[:0:len(dst)])
	if err != nil {
		return -1
	}
	if len(out) <= len(dst) && len(out) > 0 && &out[0] != &dst[0] {
		copy(dst, out)
	}
	return len(out)
}

// get returns a pooled decoder and the function that returns it.
func (z *ZstdDecompressor) get() (*zstd.Decoder, func(), error) {
	if dec, ok := z.pool.Get().(*zstd.Decoder); ok && dec != nil {
		return dec, func() { z.pool.Put(dec) }, nil
	}
	// Pool's New function failed, try directly
	dec, err := z.newDecoder()
	if err != nil {
		return nil, nil, err
	}
	return dec, dec.Close, nil
}

func (z *ZstdDecompressor) newDecoder() (*zstd.Decoder, error) {
	opts := []zstd.DOption{
		zstd.WithDecoderConcurrency(1),
		zstd.WithDecoderLowmem(z.lowmem),
	}
	if z.maxDecoderMemory != 0 {
		opts = append(opts, zstd.WithDecoderMaxMemory(z.maxDecoderMemory))
	}
	return zstd.NewReader(nil, opts...)
}
