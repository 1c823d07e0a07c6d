package checksum

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	for _, typ := range []Type{TypeCRC32C, TypeXXHash} {
		h, err := New(typ)
		require.NoError(t, err)
		assert.Equal(t, string(typ), h.Name())
	}

	_, err := New("md5")
	assert.Error(t, err)
	assert.Panics(t, func() { MustNew("md5") })
}

func TestKnownValues(t *testing.T) {
	// RFC 3720 附录 B.4 的 CRC32C 测试向量
	assert.Equal(t, uint32(0xe3069283), MustNew(TypeCRC32C).Sum([]byte("123456789")))
	assert.Equal(t, uint32(0), MustNew(TypeCRC32C).Sum(nil))
}

func TestSealOpen(t *testing.T) {
	for _, typ := range []Type{TypeCRC32C, TypeXXHash} {
		t.Run(string(typ), func(t *testing.T) {
			h := MustNew(typ)
			data := []byte("gacha history payload")

			frame := Seal(h, data)
			require.Len(t, frame, len(data)+TrailerSize)
			assert.Equal(t, "gacha history payload", string(data), "input must not be modified")

			got, err := Open(h, frame)
			require.NoError(t, err)
			assert.Equal(t, data, got)

			frame[3] ^= 0xff
			_, err = Open(h, frame)
			assert.ErrorIs(t, err, ErrMismatch)
		})
	}
}

func TestOpenShortFrame(t *testing.T) {
	_, err := Open(MustNew(TypeXXHash), []byte{1, 2})
	assert.ErrorIs(t, err, ErrShortFrame)

	// 空数据也有完整的校验尾
	got, err := Open(MustNew(TypeXXHash), Seal(MustNew(TypeXXHash), nil))
	require.NoError(t, err)
	assert.Empty(t, got)
}
