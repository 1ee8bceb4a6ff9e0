package index

import "encoding/binary"

// Root directory hashes identifying the path hash algorithm of an index.
const (
	MurmurRootHash uint64 = 0xF42A94E69CFF42FE
	FNVRootHash    uint64 = 0x07E47507B4A92E53
)

const (
	murmurSeed = 0x1337B33F
	murmurM    = 0xc6a4a7935bd1e995
	murmurR    = 47

	fnvOffset = 0xcbf29ce484222325
	fnvPrime  = 0x100000001b3
)

// HashAlgorithm identifies the function used to hash file paths.
type HashAlgorithm uint8

const (
	// Unknown means the root hash matched neither known magic; every
	// algorithm and casing is tried per path.
	Unknown HashAlgorithm = iota
	Murmur64A
	FNV1a
)

// String returns the human-readable algorithm name.
func (a HashAlgorithm) String() string {
	switch a {
	case Murmur64A:
		return "murmur64a"
	case FNV1a:
		return "fnv1a64"
	default:
		return "unknown"
	}
}

// DetectAlgorithm selects the path hash algorithm from the first
// directory's path hash.
func DetectAlgorithm(dirs []DirectoryInfo) HashAlgorithm {
	if len(dirs) == 0 {
		return Unknown
	}
	switch dirs[0].PathHash {
	case MurmurRootHash:
		return Murmur64A
	case FNVRootHash:
		return FNV1a
	default:
		return Unknown
	}
}

// MurmurHash64A hashes key with MurmurHash64A using the archive's fixed
// seed 0x1337B33F.
func MurmurHash64A(key []byte) uint64 {
	h := uint64(murmurSeed) ^ (uint64(len(key)) * murmurM)

	data := key
	for len(data) >= 8 {
		k := binary.LittleEndian.Uint64(data)
		k *= murmurM
		k ^= k >> murmurR
		k *= murmurM

		h ^= k
		h *= murmurM
		data = data[8:]
	}

	if len(data) > 0 {
		for i := len(data) - 1; i >= 1; i-- {
			h ^= uint64(data[i]) << (8 * i)
		}
		h ^= uint64(data[0])
		h *= murmurM
	}

	h ^= h >> murmurR
	h *= murmurM
	h ^= h >> murmurR
	return h
}

// FNV1a64 hashes key with 64-bit FNV-1a.
func FNV1a64(key []byte) uint64 {
	h := uint64(fnvOffset)
	for _, c := range key {
		h ^= uint64(c)
		h *= fnvPrime
	}
	return h
}

// hashVariant is one candidate (function, casing) pair.
type hashVariant struct {
	fn    func([]byte) uint64
	lower bool
}

var (
	murmurTier  = []hashVariant{{MurmurHash64A, false}, {MurmurHash64A, true}}
	fnvTier     = []hashVariant{{FNV1a64, false}, {FNV1a64, true}}
	unknownTier = []hashVariant{{MurmurHash64A, false}, {MurmurHash64A, true}, {FNV1a64, false}, {FNV1a64, true}}
)

// variants returns the candidates tried, in order, for a path under a.
// Both known algorithms fall back to the lower-cased path. For FNV this is a
// best-effort guess at how names were hashed; for Murmur, where stored
// hashes use the original case, it lets Lookup accept paths typed in the
// wrong case.
func (a HashAlgorithm) variants() []hashVariant {
	switch a {
	case Murmur64A:
		return murmurTier
	case FNV1a:
		return fnvTier
	default:
		return unknownTier
	}
}

// asciiLower returns b with ASCII letters lower-cased, reusing buf.
func asciiLower(buf, b []byte) []byte {
	buf = append(buf[:0], b...)
	for i, c := range buf {
		if 'A' <= c && c <= 'Z' {
			buf[i] = c + ('a' - 'A')
		}
	}
	return buf
}
