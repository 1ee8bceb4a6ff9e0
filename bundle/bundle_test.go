package bundle

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/bundles/internal/testutil"
)

// recorder is a Decompressor that fills dst with a marker byte and records
// every requested destination length.
type recorder struct {
	calls [][2]int // compressed length, destination length
	ret   func(call, dstLen int) int
}

func (r *recorder) DecompressBlock(src, dst []byte) int {
	call := len(r.calls)
	r.calls = append(r.calls, [2]int{len(src), len(dst)})
	for i := range dst {
		dst[i] = byte(call + 1)
	}
	if r.ret != nil {
		return r.ret(call, len(dst))
	}
	return len(dst)
}

func TestReadHeader(t *testing.T) {
	t.Parallel()

	data := testutil.RawBundle(testutil.BundleHeader{
		UncompressedSize: 300,
		CompressorType:   uint32(CompressorLeviathan),
		ChunkSize:        128,
	}, [][]byte{[]byte("aaaa"), []byte("bb"), []byte("c")})

	r := bytes.NewReader(data)
	b, err := ReadHeader(r)
	require.NoError(t, err)

	assert.Equal(t, uint32(300), b.UncompressedSize)
	assert.Equal(t, CompressorLeviathan, b.CompressorType)
	assert.Equal(t, "leviathan", b.CompressorType.String())
	assert.Equal(t, uint64(300), b.UncompressedSize2)
	assert.Equal(t, uint64(7), b.TotalPayloadSize2)
	assert.Equal(t, uint32(3), b.BlockCount)
	assert.Equal(t, uint32(128), b.ChunkSize)
	assert.Equal(t, []uint32{4, 2, 1}, b.BlockSizes)
	assert.Equal(t, int64(HeaderSize+3*4), b.DataOffset)

	pos, err := r.Seek(0, io.SeekCurrent)
	require.NoError(t, err)
	assert.Equal(t, b.DataOffset, pos)
}

func TestReadHeaderTruncated(t *testing.T) {
	t.Parallel()

	data := testutil.RawBundle(testutil.BundleHeader{UncompressedSize: 10, ChunkSize: 10}, [][]byte{[]byte("xyz")})

	tests := []struct {
		name string
		n    int
	}{
		{"empty", 0},
		{"partial header", HeaderSize - 1},
		{"header only", HeaderSize},
		{"partial block table", HeaderSize + 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadHeader(bytes.NewReader(data[:tt.n]))
			require.Error(t, err)
			assert.True(t, errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF), "got %v", err)
		})
	}
}

func TestReadHeaderTooManyBlocks(t *testing.T) {
	t.Parallel()

	data := testutil.RawBundle(testutil.BundleHeader{UncompressedSize: 10, ChunkSize: 10}, nil)
	data[36], data[37], data[38], data[39] = 0xFF, 0xFF, 0xFF, 0xFF

	_, err := ReadHeader(bytes.NewReader(data))
	require.ErrorIs(t, err, ErrTooManyBlocks)
}

// readSizeRecorder records the largest buffer passed to Read.
type readSizeRecorder struct {
	*bytes.Reader
	largest int
}

func (r *readSizeRecorder) Read(p []byte) (int, error) {
	r.largest = max(r.largest, len(p))
	return r.Reader.Read(p)
}

func TestReadHeaderBlockTableLongerThanStream(t *testing.T) {
	t.Parallel()

	data := testutil.RawBundle(testutil.BundleHeader{UncompressedSize: 10, ChunkSize: 10}, nil)
	data[36], data[37], data[38], data[39] = 0x00, 0x00, 0x40, 0x00 // MaxBlockCount

	r := &readSizeRecorder{Reader: bytes.NewReader(data)}
	_, err := ReadHeader(r)
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.Equal(t, HeaderSize, r.largest, "block table must not be read past the stream")
}

func TestBlockLen(t *testing.T) {
	t.Parallel()

	b := &Bundle{UncompressedSize: 250, ChunkSize: 100, BlockCount: 3, BlockSizes: []uint32{1, 1, 1}}
	assert.Equal(t, 100, b.BlockLen(0))
	assert.Equal(t, 100, b.BlockLen(1))
	assert.Equal(t, 50, b.BlockLen(2))
	assert.Equal(t, 0, b.BlockLen(3))
	assert.Equal(t, 0, b.BlockLen(-1))
	require.NoError(t, b.Validate())
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		b    Bundle
		ok   bool
	}{
		{"exact multiple", Bundle{UncompressedSize: 200, ChunkSize: 100, BlockCount: 2, BlockSizes: []uint32{1, 1}}, true},
		{"empty", Bundle{}, true},
		{"too few blocks", Bundle{UncompressedSize: 201, ChunkSize: 100, BlockCount: 2, BlockSizes: []uint32{1, 1}}, false},
		{"too many blocks", Bundle{UncompressedSize: 100, ChunkSize: 100, BlockCount: 2, BlockSizes: []uint32{1, 1}}, false},
		{"zero chunk", Bundle{UncompressedSize: 1, BlockCount: 1, BlockSizes: []uint32{1}}, false},
		{"table mismatch", Bundle{UncompressedSize: 1, ChunkSize: 1, BlockCount: 1}, false},
		{"blocks for empty payload", Bundle{ChunkSize: 1, BlockCount: 1, BlockSizes: []uint32{1}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.b.Validate()
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrInvalidData)
		})
	}
}

func TestDecompressSingleBlock(t *testing.T) {
	t.Parallel()

	data := testutil.RawBundle(testutil.BundleHeader{
		UncompressedSize: 100,
		ChunkSize:        262144,
	}, [][]byte{bytes.Repeat([]byte{0x5A}, 37)})

	rec := &recorder{}
	out, err := ReadAll(bytes.NewReader(data), rec)
	require.NoError(t, err)
	require.Len(t, rec.calls, 1)
	assert.Equal(t, [2]int{37, 100}, rec.calls[0])
	assert.Len(t, out, 100)
	assert.Equal(t, bytes.Repeat([]byte{1}, 100), out)
}

func TestDecompressSingleBlockShortReturn(t *testing.T) {
	t.Parallel()

	data := testutil.RawBundle(testutil.BundleHeader{
		UncompressedSize: 100,
		ChunkSize:        262144,
	}, [][]byte{[]byte("compressed")})

	rec := &recorder{ret: func(_, dstLen int) int { return dstLen - 1 }}
	out, err := ReadAll(bytes.NewReader(data), rec)
	require.Error(t, err)
	assert.Nil(t, out)
	assert.ErrorIs(t, err, ErrInvalidData)

	var blockErr *BlockError
	require.ErrorAs(t, err, &blockErr)
	assert.Equal(t, 0, blockErr.Block)
	assert.Equal(t, 99, blockErr.Got)
	assert.Equal(t, 100, blockErr.Want)
	assert.Len(t, rec.calls, 1)
}

func TestDecompressBlockLengthsSumToSize(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		size, chunk uint32
	}{
		{1, 1}, {100, 7}, {4096, 1024}, {4097, 1024}, {300000, 262144},
	} {
		blocks := make([][]byte, (tc.size+tc.chunk-1)/tc.chunk)
		for i := range blocks {
			blocks[i] = []byte{byte(i)}
		}
		data := testutil.RawBundle(testutil.BundleHeader{UncompressedSize: tc.size, ChunkSize: tc.chunk}, blocks)

		rec := &recorder{}
		out, err := ReadAll(bytes.NewReader(data), rec)
		require.NoError(t, err)
		assert.Len(t, out, int(tc.size))

		total := 0
		for i, call := range rec.calls {
			if i < len(rec.calls)-1 {
				assert.Equal(t, int(tc.chunk), call[1])
			}
			total += call[1]
		}
		assert.Equal(t, int(tc.size), total)
	}
}

func TestDecompressStopsAtFirstBadBlock(t *testing.T) {
	t.Parallel()

	data := testutil.RawBundle(testutil.BundleHeader{UncompressedSize: 30, ChunkSize: 10},
		[][]byte{{1}, {2}, {3}})

	rec := &recorder{ret: func(call, dstLen int) int {
		if call == 1 {
			return -1
		}
		return dstLen
	}}
	_, err := ReadAll(bytes.NewReader(data), rec)

	var blockErr *BlockError
	require.ErrorAs(t, err, &blockErr)
	assert.Equal(t, 1, blockErr.Block)
	assert.Equal(t, -1, blockErr.Got)
	assert.Len(t, rec.calls, 2)
}

func TestDecompressTruncatedBlockData(t *testing.T) {
	t.Parallel()

	data := testutil.RawBundle(testutil.BundleHeader{UncompressedSize: 20, ChunkSize: 10},
		[][]byte{[]byte("abcd"), []byte("efgh")})

	_, err := ReadAll(bytes.NewReader(data[:len(data)-2]), &recorder{})
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestDecompressRejectsInconsistentLayout(t *testing.T) {
	t.Parallel()

	data := testutil.RawBundle(testutil.BundleHeader{UncompressedSize: 25, ChunkSize: 10},
		[][]byte{{1}, {2}})

	rec := &recorder{}
	_, err := ReadAll(bytes.NewReader(data), rec)
	require.ErrorIs(t, err, ErrInvalidData)
	assert.Empty(t, rec.calls)
}

func TestDecompressEmpty(t *testing.T) {
	t.Parallel()

	data := testutil.RawBundle(testutil.BundleHeader{ChunkSize: 10}, nil)
	out, err := ReadAll(bytes.NewReader(data), &recorder{})
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestDecompressIntoShortBuffer(t *testing.T) {
	t.Parallel()

	data := testutil.RawBundle(testutil.BundleHeader{UncompressedSize: 10, ChunkSize: 10}, [][]byte{{1}})
	r := bytes.NewReader(data)
	b, err := ReadHeader(r)
	require.NoError(t, err)
	require.Error(t, b.DecompressInto(r, &recorder{}, make([]byte, 9)))
	require.Error(t, b.DecompressInto(r, nil, make([]byte, 10)))
}

func TestDecompressorFunc(t *testing.T) {
	t.Parallel()

	data := testutil.RawBundle(testutil.BundleHeader{UncompressedSize: 4, ChunkSize: 4}, [][]byte{{9}})
	out, err := ReadAll(bytes.NewReader(data), DecompressorFunc(func(src, dst []byte) int {
		return copy(dst, bytes.Repeat(src, len(dst)))
	}))
	require.NoError(t, err)
	assert.Equal(t, []byte{9, 9, 9, 9}, out)
}

func TestCompressorTypeString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "kraken", CompressorKraken.String())
	assert.Equal(t, "mermaid", CompressorMermaid.String())
	assert.Equal(t, "selkie", CompressorSelkie.String())
	assert.Equal(t, "hydra", CompressorHydra.String())
	assert.Equal(t, "unknown", CompressorType(0).String())
}
