package index

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/bundles/bundle"
	"github.com/meigma/bundles/index/internal/fb"
)

func TestMarshalRoundTrip(t *testing.T) {
	t.Parallel()

	idx, err := Read(newFixture(t).blob, bundle.NewZstdDecompressor())
	require.NoError(t, err)

	data, err := idx.MarshalBinary()
	require.NoError(t, err)

	got, err := Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, idx.Algorithm(), got.Algorithm())
	assert.Equal(t, idx.Bundles(), got.Bundles())
	assert.Equal(t, idx.Len(), got.Len())
	assert.Equal(t, idx.Resolved(), got.Resolved())
	for fi := range idx.Files() {
		g, ok := got.File(fi.PathHash)
		require.True(t, ok)
		assert.Equal(t, fi, g)
	}
}

func TestEncodeDecode(t *testing.T) {
	t.Parallel()

	idx := newTestIndex()
	var buf bytes.Buffer
	require.NoError(t, idx.Encode(&buf))

	got, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, idx.Len(), got.Len())

	fi, ok := got.Lookup("Data/Sub/Deep.dat64")
	require.True(t, ok)
	assert.Equal(t, "Data/Sub/Deep.dat64", fi.Path)
}

func TestUnmarshalEmptyIndex(t *testing.T) {
	t.Parallel()

	data, err := New(nil, nil, Unknown).MarshalBinary()
	require.NoError(t, err)
	got, err := Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Len())
	assert.Equal(t, Unknown, got.Algorithm())
}

func TestUnmarshalCorrupt(t *testing.T) {
	t.Parallel()

	good, err := newTestIndex().MarshalBinary()
	require.NoError(t, err)

	future := bytes.Clone(good)
	require.True(t, fb.GetSizePrefixedRootAsIndex(future, 0).MutateVersion(cacheVersion+1))

	tests := []struct {
		name string
		data []byte
	}{
		{"nil", nil},
		{"short", []byte{1, 2, 3}},
		{"truncated", good[:len(good)/2]},
		{"bad size prefix", append([]byte{0xff, 0, 0, 0}, good[4:]...)},
		{"future version", future},
		{"root offset out of range", append(bytes.Clone(good[:4]), append([]byte{0xff, 0xff, 0xff, 0x7f}, good[8:]...)...)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.NotPanics(t, func() {
				_, err := Unmarshal(tt.data)
				assert.Error(t, err)
			})
		})
	}
}

func TestDecodeNotZstd(t *testing.T) {
	t.Parallel()
	_, err := Decode(bytes.NewReader([]byte("plain text, not a frame")))
	require.Error(t, err)
}
