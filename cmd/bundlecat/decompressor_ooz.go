//go:build ooz && cgo

package main

import "github.com/meigma/bundles/bundle"

func newDecompressor() bundle.Decompressor {
	return bundle.Ooz{}
}
