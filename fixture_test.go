package bundles

import (
	"bytes"
	"io/fs"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meigma/bundles/bundle"
	"github.com/meigma/bundles/index"
	"github.com/meigma/bundles/internal/testutil"
)

// installFixture is a synthetic install: an index bundle and the bundles it
// references, keyed by member name.
type installFixture struct {
	members map[string][]byte

	mods, readme, a, b []byte
	unresolved         uint64
}

func newInstall(t *testing.T) *installFixture {
	t.Helper()

	dt := new(testutil.DatBuilder)
	life, mana := dt.String("Life"), dt.String("Mana")
	dt.AddRow(new(testutil.Row).U32(life).U32(10).Bytes())
	dt.AddRow(new(testutil.Row).U32(mana).U32(20).Bytes())

	f := &installFixture{
		members:    make(map[string][]byte),
		mods:       dt.Bytes(),
		readme:     []byte("hello from the data bundle\n"),
		a:          bytes.Repeat([]byte("texture-a "), 40),
		b:          []byte("texture-b"),
		unresolved: 0x1234,
	}
	data := append(bytes.Clone(f.mods), f.readme...)
	art := append(bytes.Clone(f.a), f.b...)

	span := new(testutil.PathEncoder).
		Toggle().
		Fragment(1, "Data/").
		Fragment(9, "Art/").
		Fragment(2, "sub/").
		Toggle().
		Fragment(1, "Mods.dat").
		Fragment(1, "readme.txt").
		Fragment(2, "a.dds").
		Fragment(3, "b.dds").
		Fragment(99, "Broken/x.bin").
		Fragment(99, "Gone/x").
		Fragment(99, "../evil.txt").
		Bytes()

	h := func(p string) uint64 { return index.MurmurHash64A([]byte(p)) }
	u32 := func(n int) uint32 { return uint32(n) } //nolint:gosec // small fixture

	blob := testutil.BuildIndex(t,
		[]testutil.IndexBundle{
			{Name: "Data", Size: u32(len(data))},
			{Name: "Art", Size: u32(len(art))},
			{Name: "Missing", Size: 10},
		},
		[]testutil.IndexFile{
			{Hash: h("Data/Mods.dat"), Bundle: 0, Offset: 0, Size: u32(len(f.mods))},
			{Hash: h("Data/readme.txt"), Bundle: 0, Offset: u32(len(f.mods)), Size: u32(len(f.readme))},
			{Hash: h("Art/a.dds"), Bundle: 1, Offset: 0, Size: u32(len(f.a))},
			{Hash: h("Art/sub/b.dds"), Bundle: 1, Offset: u32(len(f.a)), Size: u32(len(f.b))},
			{Hash: f.unresolved, Bundle: 1, Offset: 0, Size: 4},
			{Hash: h("Broken/x.bin"), Bundle: 0, Offset: u32(len(data) - 2), Size: 10},
			{Hash: h("Gone/x"), Bundle: 2, Offset: 0, Size: 5},
			{Hash: h("../evil.txt"), Bundle: 0, Offset: 0, Size: 3},
		},
		[]testutil.IndexDirectory{{Hash: index.MurmurRootHash, Offset: 0, Size: u32(len(span))}},
		span)

	f.members[DefaultIndexPath] = testutil.BuildBundle(t, blob, 0)
	f.members["Bundles2/Data.bundle.bin"] = testutil.BuildBundle(t, data, 64)
	f.members["Bundles2/Art"] = testutil.BuildBundle(t, art, 0)
	return f
}

// source packs the members into one byte source and serves them by range.
func (f *installFixture) source() *RangeSource {
	type span struct{ off, n int64 }
	var (
		buf   []byte
		spans = make(map[string]span)
	)
	for name, data := range f.members {
		spans[name] = span{int64(len(buf)), int64(len(data))}
		buf = append(buf, data...)
	}
	return NewRangeSource(testutil.NewMockByteSource(buf), func(name string) (int64, int64, error) {
		s, ok := spans[name]
		if !ok {
			return 0, 0, fs.ErrNotExist
		}
		return s.off, s.n, nil
	})
}

// writeDir writes the members below a temporary install directory.
func (f *installFixture) writeDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for name, data := range f.members {
		p := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
		require.NoError(t, os.WriteFile(p, data, 0o600))
	}
	return dir
}

// countingDecompressor counts block decompressions.
type countingDecompressor struct {
	inner bundle.Decompressor
	calls atomic.Int64
}

func newCountingDecompressor() *countingDecompressor {
	return &countingDecompressor{inner: bundle.NewZstdDecompressor()}
}

func (c *countingDecompressor) DecompressBlock(src, dst []byte) int {
	c.calls.Add(1)
	return c.inner.DecompressBlock(src, dst)
}
