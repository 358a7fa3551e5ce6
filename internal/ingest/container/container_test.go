package container

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildSample() *Builder {
	return NewBuilder().
		PutStrings("metadata/songs", "song_id", "SOABC123").
		PutStrings("metadata/songs", "title", "Test Title").
		PutStrings("metadata/songs", "artist_id", "ARXYZ789").
		PutInts("metadata/songs", "year", 2004).
		PutFloats("analysis/songs", "duration", 212.5)
}

func TestRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, buildSample().Encode(&buf))

	file, err := Decode(&buf)
	require.NoError(t, err)

	rec := NewRecord(file)
	assert.Equal(t, "SOABC123", rec.String("metadata/songs", "song_id", ""))
	assert.Equal(t, "Test Title", rec.String("metadata/songs", "title", ""))
	assert.Equal(t, int64(2004), rec.Int("metadata/songs", "year", 0))
	assert.Equal(t, 212.5, rec.Float("analysis/songs", "duration", 0))
}

func TestRecordDefaults(t *testing.T) {
	file := buildSample().File()
	rec := NewRecord(file)

	// Absent field, absent group, empty array.
	assert.Equal(t, "fallback", rec.String("metadata/songs", "no_such_field", "fallback"))
	assert.Equal(t, 7.5, rec.Float("no/such/group", "duration", 7.5))

	empty := NewBuilder().PutStrings("metadata/songs", "title").File()
	assert.Equal(t, "d", NewRecord(empty).String("metadata/songs", "title", "d"))
}

func TestRecordTypeCoercion(t *testing.T) {
	file := NewBuilder().
		PutInts("g", "count", 42).
		PutFloats("g", "whole", 3).
		PutFloats("g", "fractional", 3.7).
		PutStrings("g", "text", "hi").
		File()
	rec := NewRecord(file)

	// Ints coerce to float, integral floats coerce to int.
	assert.Equal(t, 42.0, rec.Float("g", "count", 0))
	assert.Equal(t, int64(3), rec.Int("g", "whole", 0))

	// Fractional floats and strings do not coerce to int.
	assert.Equal(t, int64(-1), rec.Int("g", "fractional", -1))
	assert.Equal(t, int64(-1), rec.Int("g", "text", -1))
	assert.Equal(t, "d", rec.String("g", "count", "d"))
}

func TestDecodeRejectsCorruptInput(t *testing.T) {
	cases := map[string][]byte{
		"empty":     {},
		"bad magic": []byte("NOPE\x01\x00\x00\x00\x00\x00"),
		"truncated": func() []byte {
			var buf bytes.Buffer
			if err := buildSample().Encode(&buf); err != nil {
				t.Fatal(err)
			}
			return buf.Bytes()[:buf.Len()/2]
		}(),
	}

	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(bytes.NewReader(data))
			assert.Error(t, err)
		})
	}
}

func TestHas(t *testing.T) {
	rec := NewRecord(buildSample().File())
	assert.True(t, rec.Has("analysis/songs", "duration"))
	assert.False(t, rec.Has("analysis/songs", "tempo"))
	assert.False(t, rec.Has("nope", "duration"))
}
