//go:build ooz && cgo

package bundle

/*
#cgo LDFLAGS: -looz -lstdc++
#include <stddef.h>
#include <stdint.h>

int Ooz_Decompress(const uint8_t *src_buf, int src_len, uint8_t *dst, size_t dst_size,
	int fuzz, int crc, int verbose, uint8_t *dst_base, size_t e, void *cb, void *cb_ctx,
	void *scratch, size_t scratch_size, int thread_phase);
*/
import "C"

import (
	"math"
	"unsafe"
)

// Ooz decodes Oodle-compressed blocks through the native ooz library.
type Ooz struct{}

// DecompressBlock implements Decompressor.
func (Ooz) DecompressBlock(src, dst []byte) int {
	if len(src) == 0 || len(src) > math.MaxInt32 || len(dst) == 0 {
		return -1
	}
	ret := C.Ooz_Decompress(
		(*C.uint8_t)(unsafe.Pointer(&src[0])), C.int(len(src)),
		(*C.uint8_t)(unsafe.Pointer(&dst[0])), C.size_t(len(dst)),
		0, 0, 0, nil, 0, nil, nil, nil, 0, 0,
	)
	return int(ret)
}
