//go:build !(ooz && cgo)

package main

import "github.com/meigma/bundles/bundle"

// newDecompressor returns the zstd block decoder. Build with -tags ooz and
// cgo enabled to link the native Oodle-compatible decoder instead.
func newDecompressor() bundle.Decompressor {
	return bundle.NewZstdDecompressor()
}
