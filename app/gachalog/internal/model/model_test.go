package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePool(t *testing.T) {
	for _, p := range Pools {
		got, err := ParsePool(p.String())
		require.NoError(t, err)
		assert.Equal(t, p, got)

		got, err = ParsePool(p.GachaType())
		require.NoError(t, err)
		assert.Equal(t, p, got)

		assert.NotEmpty(t, p.DisplayName())
	}

	_, err := ParsePool("4")
	assert.Error(t, err)
	_, err = ParsePool("limited")
	assert.Error(t, err)
	assert.Equal(t, "pool(9)", Pool(9).String())
}

func TestPoolAsJSONKey(t *testing.T) {
	data, err := json.Marshal(map[Pool]int{PoolCharacter: 3})
	require.NoError(t, err)
	assert.JSONEq(t, `{"character":3}`, string(data))

	var back map[Pool]int
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, 3, back[PoolCharacter])
}

func TestCompareID(t *testing.T) {
	assert.Equal(t, -1, CompareID("9", "10"))
	assert.Equal(t, 1, CompareID("1700000000000000002", "1700000000000000001"))
	assert.Equal(t, 0, CompareID("42", "42"))
}

func TestRecordOrder(t *testing.T) {
	base := time.Date(2024, 7, 4, 12, 0, 0, 0, time.UTC)
	a := &GachaRecord{ID: "100", OccurredAt: base}
	b := &GachaRecord{ID: "101", OccurredAt: base}
	c := &GachaRecord{ID: "99", OccurredAt: base.Add(time.Second)}

	assert.True(t, a.Before(b))
	assert.False(t, b.Before(a))
	assert.True(t, b.Before(c))

	assert.True(t, PoolHistory{a, b, c}.Sorted())
	assert.False(t, PoolHistory{c, a}.Sorted())
	assert.Equal(t, c, PoolHistory{a, b, c}.Latest())
	assert.Nil(t, PoolHistory{}.Latest())
}

func TestSyncResult(t *testing.T) {
	r := NewSyncResult("10001")
	r.InsertedCount[PoolStandard] = 2
	r.InsertedCount[PoolWeapon] = 3
	r.FailedPools[PoolBangboo] = assert.AnError
	r.FailedPools[PoolCharacter] = assert.AnError

	assert.Equal(t, 5, r.Inserted())
	assert.Equal(t, []Pool{PoolCharacter, PoolBangboo}, r.Failed())
}
