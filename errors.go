package bundles

import (
	"errors"
	"io/fs"

	"github.com/meigma/bundles/bundle"
	"github.com/meigma/bundles/dat"
	"github.com/meigma/bundles/index"
)

// Sentinel errors specific to the bundles package.
var (
	// ErrNotFound is returned when a path, hash, or bundle is not in the
	// archive. It is fs.ErrNotExist, so either works with errors.Is.
	ErrNotFound = fs.ErrNotExist

	// ErrNoDecompressor is returned by Open when no block decompressor was
	// configured.
	ErrNoDecompressor = errors.New("bundles: no decompressor configured")

	// ErrOutOfRange is returned when a file's range lies outside its
	// bundle's decompressed payload.
	ErrOutOfRange = errors.New("bundles: file range outside bundle")
)

// Errors re-exported from the format packages.
var (
	// ErrInvalidData is returned when a bundle's block layout is
	// inconsistent or a block decompresses to the wrong size.
	ErrInvalidData = bundle.ErrInvalidData

	// ErrMalformed is returned when the index tables cannot be parsed.
	ErrMalformed = index.ErrMalformed

	// ErrInvalidTable is returned when a DAT table's row layout cannot be
	// established.
	ErrInvalidTable = dat.ErrInvalidData
)
