package index

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/bundles/internal/testutil"
)

func collect(span []byte) []string {
	var out []string
	for p := range DecodePaths(span) {
		out = append(out, string(p))
	}
	return out
}

func TestDecodePaths(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		span []byte
		want []string
	}{
		{
			name: "base then file",
			span: new(testutil.PathEncoder).
				Toggle().Fragment(1, "Art/").Toggle().
				Fragment(1, "a.dds").
				Bytes(),
			want: []string{"Art/a.dds"},
		},
		{
			name: "nested bases",
			span: new(testutil.PathEncoder).
				Toggle().
				Fragment(1, "Data/").
				Fragment(1, "Sub/").
				Toggle().
				Fragment(2, "x.dat").
				Fragment(1, "y.dat").
				Bytes(),
			want: []string{"Data/Sub/x.dat", "Data/y.dat"},
		},
		{
			name: "reference past the list stands alone",
			span: new(testutil.PathEncoder).Fragment(7, "loose.txt").Bytes(),
			want: []string{"loose.txt"},
		},
		{
			name: "entering base mode clears the list",
			span: new(testutil.PathEncoder).
				Toggle().Fragment(1, "Old/").Toggle().
				Toggle().Fragment(5, "New/").Toggle().
				Fragment(1, "f").
				Bytes(),
			want: []string{"New/f"},
		},
		{
			name: "leaving base mode keeps the list",
			span: new(testutil.PathEncoder).
				Toggle().Fragment(1, "A/").Toggle().
				Fragment(1, "1").
				Fragment(1, "2").
				Bytes(),
			want: []string{"A/1", "A/2"},
		},
		{
			name: "unterminated fragment without a base yields nothing",
			span: new(testutil.PathEncoder).
				Fragment(1, "ok").
				Raw(1, 0, 0, 0, 'x', 'y').
				Bytes(),
			want: []string{"ok"},
		},
		{
			name: "unterminated fragment keeps its base",
			span: new(testutil.PathEncoder).
				Toggle().Fragment(1, "Art/a.dds").Toggle().
				Raw(1, 0, 0, 0, 'x').
				Bytes(),
			want: []string{"Art/a.dds"},
		},
		{
			name: "unterminated fragment in base mode is the last token",
			span: new(testutil.PathEncoder).
				Toggle().Fragment(1, "Art/").
				Raw(1, 0, 0, 0, 'x').
				Bytes(),
			want: nil,
		},
		{
			name: "trailing partial token is ignored",
			span: new(testutil.PathEncoder).Fragment(1, "ok").Raw(1, 0).Bytes(),
			want: []string{"ok"},
		},
		{
			name: "empty span",
			span: nil,
			want: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, collect(tt.span))
		})
	}
}

func TestDecodePathsFragmentLimit(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("x", MaxFragmentLen)
	span := new(testutil.PathEncoder).
		Fragment(1, long).
		Fragment(1, long+"y").
		Fragment(1, "never").
		Bytes()
	got := collect(span)
	require.Len(t, got, 1)
	assert.Equal(t, long, got[0])
}

func TestDecodePathsEarlyStop(t *testing.T) {
	t.Parallel()

	span := new(testutil.PathEncoder).Fragment(1, "a").Fragment(1, "b").Bytes()
	var got []string
	for p := range DecodePaths(span) {
		got = append(got, string(p))
		break
	}
	assert.Equal(t, []string{"a"}, got)
}

func TestResolvePaths(t *testing.T) {
	t.Parallel()

	hit := MurmurHash64A([]byte("Art/a.dds"))
	other := MurmurHash64A([]byte("Data/b.dat"))
	files := map[uint64]FileInfo{
		hit:   {PathHash: hit},
		other: {PathHash: other},
	}

	span := new(testutil.PathEncoder).
		Toggle().Fragment(1, "Art/").Toggle().
		Fragment(1, "a.dds").
		Fragment(1, "missing.dds").
		Bytes()
	payload := append([]byte("pad!"), span...)
	dirs := []DirectoryInfo{
		{PathHash: MurmurRootHash, Offset: 4, Size: uint32(len(span))}, //nolint:gosec // small fixture
		{PathHash: 1, Offset: 1 << 30, Size: 16},                         // out of range, skipped
	}

	resolvePaths(dirs, payload, files, Murmur64A)
	assert.Equal(t, "Art/a.dds", files[hit].Path)
	assert.Empty(t, files[other].Path)
	assert.Len(t, files, 2)
}
