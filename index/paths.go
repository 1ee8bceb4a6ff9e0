package index

import (
	"bytes"
	"encoding/binary"
	"iter"
	"slices"
	"strings"

	"github.com/meigma/bundles/internal/sizing"
)

// MaxFragmentLen caps the length of one null-terminated path fragment.
// A longer fragment ends the walk of its span.
const MaxFragmentLen = 4096

// DecodePaths walks one directory span and yields every complete path it
// encodes.
//
// The span is a sequence of little-endian u32 tokens. Token 0 toggles base
// mode; entering base mode clears the list of base fragments. Any other
// token v is followed by a null-terminated string s and forms
// base[v-1]+s, or s alone when v-1 is past the end of the list. In base
// mode the result is appended to the list; otherwise it is a full path and
// is yielded. A string left unterminated at the end of the span reads as
// empty. Empty paths are never yielded.
//
// The yielded slice is only valid until the next iteration.
func DecodePaths(span []byte) iter.Seq[[]byte] {
	return func(yield func([]byte) bool) {
		var (
			base    bool
			temp    [][]byte
			scratch []byte
		)
		for p := 0; p+4 <= len(span); {
			token := binary.LittleEndian.Uint32(span[p:])
			p += 4

			if token == 0 {
				base = !base
				if base {
					temp = temp[:0]
				}
				continue
			}

			window := span[p:min(len(span), p+MaxFragmentLen+1)]
			var frag []byte
			switch n := bytes.IndexByte(window, 0); {
			case n >= 0:
				frag = span[p : p+n]
				p += n + 1
			case len(window) > MaxFragmentLen:
				return
			default:
				// Unterminated at the end of the span: the fragment
				// reads as empty and this is the last token.
				p = len(span)
			}

			var prefix []byte
			if idx := uint64(token) - 1; idx < uint64(len(temp)) {
				prefix = temp[idx]
			}

			if base {
				if prefix == nil {
					temp = append(temp, frag)
				} else {
					temp = append(temp, slices.Concat(prefix, frag))
				}
				continue
			}

			if len(prefix)+len(frag) == 0 {
				continue
			}
			scratch = append(append(scratch[:0], prefix...), frag...)
			if !yield(scratch) {
				return
			}
		}
	}
}

// resolvePaths walks every directory span of payload and sets the Path of
// each file whose hash one of algo's variants reproduces.
func resolvePaths(dirs []DirectoryInfo, payload []byte, files map[uint64]FileInfo, algo HashAlgorithm) {
	var m matcher
	for _, d := range dirs {
		start, end, ok := sizing.Span(uint64(d.Offset), uint64(d.Size), len(payload))
		if !ok {
			continue
		}
		for path := range DecodePaths(payload[start:end]) {
			hash, ok := m.match(files, path, algo)
			if !ok {
				continue
			}
			fi := files[hash]
			fi.Path = strings.ToValidUTF8(string(path), "\uFFFD")
			files[hash] = fi
		}
	}
}

// matcher tries a path's hash variants against a file table, stopping at
// the first hit.
type matcher struct {
	lower []byte
}

func (m *matcher) match(files map[uint64]FileInfo, path []byte, algo HashAlgorithm) (uint64, bool) {
	lowered := false
	for _, v := range algo.variants() {
		key := path
		if v.lower {
			if !hasUpper(path) {
				// Same bytes as the original-case variant already tried.
				continue
			}
			if !lowered {
				m.lower = asciiLower(m.lower, path)
				lowered = true
			}
			key = m.lower
		}
		h := v.fn(key)
		if _, ok := files[h]; ok {
			return h, true
		}
	}
	return 0, false
}

func hasUpper(b []byte) bool {
	for _, c := range b {
		if 'A' <= c && c <= 'Z' {
			return true
		}
	}
	return false
}
