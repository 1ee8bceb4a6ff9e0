package index

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	flatbuffers "github.com/google/flatbuffers/go"
	"github.com/klauspost/compress/zstd"

	"github.com/meigma/bundles/index/internal/fb"
)

// cacheVersion is bumped whenever the serialized layout changes meaning.
const cacheVersion = 1

// maxCacheSize bounds the decompressed size of an encoded index.
const maxCacheSize = 1 << 31

// ErrCacheVersion is returned when a serialized index was written by an
// incompatible version.
var ErrCacheVersion = errors.New("index: unsupported cache version")

// MarshalBinary serializes the index, including resolved paths, as a
// size-prefixed FlatBuffers buffer.
func (idx *Index) MarshalBinary() ([]byte, error) {
	builder := flatbuffers.NewBuilder(64 + 48*len(idx.files))

	bundleOffsets := make([]flatbuffers.UOffsetT, len(idx.bundles))
	for i := len(idx.bundles) - 1; i >= 0; i-- {
		b := idx.bundles[i]
		name := builder.CreateString(b.Name)
		fb.BundleStart(builder)
		fb.BundleAddName(builder, name)
		fb.BundleAddUncompressedSize(builder, b.UncompressedSize)
		bundleOffsets[i] = fb.BundleEnd(builder)
	}
	fb.IndexStartBundlesVector(builder, len(bundleOffsets))
	for i := len(bundleOffsets) - 1; i >= 0; i-- {
		builder.PrependUOffsetT(bundleOffsets[i])
	}
	bundlesVec := builder.EndVector(len(bundleOffsets))

	fileOffsets := make([]flatbuffers.UOffsetT, 0, len(idx.files))
	for _, fi := range idx.files {
		var path flatbuffers.UOffsetT
		if fi.Path != "" {
			path = builder.CreateString(fi.Path)
		}
		fb.FileStart(builder)
		fb.FileAddPathHash(builder, fi.PathHash)
		fb.FileAddBundleIndex(builder, fi.BundleIndex)
		fb.FileAddFileOffset(builder, fi.FileOffset)
		fb.FileAddFileSize(builder, fi.FileSize)
		if path != 0 {
			fb.FileAddPath(builder, path)
		}
		fileOffsets = append(fileOffsets, fb.FileEnd(builder))
	}
	fb.IndexStartFilesVector(builder, len(fileOffsets))
	for i := len(fileOffsets) - 1; i >= 0; i-- {
		builder.PrependUOffsetT(fileOffsets[i])
	}
	filesVec := builder.EndVector(len(fileOffsets))

	fb.IndexStart(builder)
	fb.IndexAddVersion(builder, cacheVersion)
	fb.IndexAddAlgorithm(builder, fb.HashAlgorithm(idx.algorithm))
	fb.IndexAddBundles(builder, bundlesVec)
	fb.IndexAddFiles(builder, filesVec)
	fb.FinishSizePrefixedIndexBuffer(builder, fb.IndexEnd(builder))
	return builder.FinishedBytes(), nil
}

// Unmarshal restores an Index written by MarshalBinary. Corrupt input
// returns an error; it never panics.
func Unmarshal(data []byte) (idx *Index, err error) {
	defer func() {
		if r := recover(); r != nil {
			idx = nil
			err = fmt.Errorf("index: failed to parse cache: %v", r)
		}
	}()
	if len(data) < 8 {
		return nil, errors.New("index: cache data too short")
	}
	if size := binary.LittleEndian.Uint32(data); uint64(size)+4 != uint64(len(data)) {
		return nil, fmt.Errorf("index: cache size prefix %d does not match %d bytes", size, len(data)-4)
	}

	root := fb.GetSizePrefixedRootAsIndex(data, 0)
	if v := root.Version(); v != cacheVersion {
		return nil, fmt.Errorf("%w: %d", ErrCacheVersion, v)
	}
	algo := HashAlgorithm(root.Algorithm())
	if algo > FNV1a {
		return nil, fmt.Errorf("index: cache has unknown algorithm %d", algo)
	}

	// Every vector element is at least a 4-byte offset.
	if root.BundlesLength() > len(data)/4 || root.FilesLength() > len(data)/4 {
		return nil, errors.New("index: cache vector length exceeds buffer")
	}

	bundles := make([]BundleInfo, root.BundlesLength())
	var b fb.Bundle
	for i := range bundles {
		if !root.Bundles(&b, i) {
			return nil, errors.New("index: cache bundle table missing")
		}
		bundles[i] = BundleInfo{Name: string(b.Name()), UncompressedSize: b.UncompressedSize()}
	}

	n := root.FilesLength()
	files := make(map[uint64]FileInfo, n)
	var f fb.File
	for i := range n {
		if !root.Files(&f, i) {
			return nil, errors.New("index: cache file table missing")
		}
		files[f.PathHash()] = FileInfo{
			PathHash:    f.PathHash(),
			BundleIndex: f.BundleIndex(),
			FileOffset:  f.FileOffset(),
			FileSize:    f.FileSize(),
			Path:        string(f.Path()),
		}
	}
	return New(bundles, files, algo), nil
}

// Encode writes the serialized index to w as a single zstd frame.
func (idx *Index) Encode(w io.Writer) error {
	data, err := idx.MarshalBinary()
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		return fmt.Errorf("create zstd encoder: %w", err)
	}
	if _, err := enc.Write(data); err != nil {
		enc.Close()
		return fmt.Errorf("write index cache: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("close zstd encoder: %w", err)
	}
	return nil
}

// Decode reads an index written by Encode.
func Decode(r io.Reader) (*Index, error) {
	dec, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1), zstd.WithDecoderMaxMemory(maxCacheSize))
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	defer dec.Close()

	data, err := io.ReadAll(io.LimitReader(dec, maxCacheSize+1))
	if err != nil {
		return nil, fmt.Errorf("read index cache: %w", err)
	}
	if len(data) > maxCacheSize {
		return nil, errors.New("index: cache exceeds size limit")
	}
	return Unmarshal(data)
}
