package serializer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testRecord struct {
	ID         string `codec:"id" json:"id"`
	Rank       int    `codec:"rank" json:"rank"`
	OccurredAt int64  `codec:"occurred_at" json:"occurred_at"`
}

func TestEncodeDecode(t *testing.T) {
	original := []testRecord{
		{ID: "1700000000000000001", Rank: 4, OccurredAt: 1720094400},
		{ID: "1700000000000000002", Rank: 2, OccurredAt: 1720094401},
	}

	data, err := Encode(original)
	require.NoError(t, err)
	assert.NotEmpty(t, data)

	var decoded []testRecord
	require.NoError(t, Decode(data, &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, original[0].ID, decoded[0].ID)
	assert.Equal(t, original[1].Rank, decoded[1].Rank)
	assert.Equal(t, original[0].OccurredAt, decoded[0].OccurredAt)
}

func TestEncode_BufferNotShared(t *testing.T) {
	a, err := Encode("first")
	require.NoError(t, err)
	b, err := Encode("second")
	require.NoError(t, err)

	var s string
	require.NoError(t, Decode(a, &s))
	assert.Equal(t, "first", s)
	require.NoError(t, Decode(b, &s))
	assert.Equal(t, "second", s)
}

func TestNew(t *testing.T) {
	for _, name := range []string{"", NameMsgpack, NameJSON} {
		s, err := New(name)
		require.NoError(t, err)

		rec := testRecord{ID: "42", Rank: 3}
		data, err := s.Serialize(&rec)
		require.NoError(t, err)

		var got testRecord
		require.NoError(t, s.Deserialize(data, &got))
		assert.Equal(t, rec.ID, got.ID)
		assert.Equal(t, rec.Rank, got.Rank)
	}

	_, err := New("xml")
	assert.Error(t, err)
}

func BenchmarkEncode(b *testing.B) {
	rec := &testRecord{ID: "1700000000000000001", Rank: 4, OccurredAt: 1720094400}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_, _ = Encode(rec)
	}
}
