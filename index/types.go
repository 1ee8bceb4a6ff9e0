package index

// BundleInfo is one entry in the bundle table.
type BundleInfo struct {
	// Name is the bundle's logical name, without directory or extension.
	Name string

	// UncompressedSize is the declared size of the bundle's payload.
	UncompressedSize uint32
}

// FileInfo locates one file inside a bundle's decompressed payload.
type FileInfo struct {
	PathHash    uint64
	BundleIndex uint32
	FileOffset  uint32
	FileSize    uint32

	// Path is empty when no directory entry reproduced PathHash.
	Path string
}

// DirectoryInfo is a span of the directory payload. It is only used while
// resolving paths.
type DirectoryInfo struct {
	PathHash      uint64
	Offset        uint32
	Size          uint32
	RecursiveSize uint32
}
