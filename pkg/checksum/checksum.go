package checksum

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"

	"github.com/cespare/xxhash/v2"
)

// TrailerSize 校验尾的字节数
const TrailerSize = 4

var (
	// ErrMismatch 数据与校验和不一致
	ErrMismatch = errors.New("checksum: mismatch")
	// ErrShortFrame 数据不足以包含校验尾
	ErrShortFrame = errors.New("checksum: frame too short")
)

// Hasher 32 位校验和计算器
type Hasher interface {
	Sum(data []byte) uint32
	Name() string
}

// Type 校验算法
type Type string

const (
	// TypeCRC32C Castagnoli 多项式，有硬件加速
	TypeCRC32C Type = "crc32c"
	// TypeXXHash xxhash64 取低 32 位
	TypeXXHash Type = "xxhash"
)

// New 创建校验器
func New(t Type) (Hasher, error) {
	switch t {
	case TypeCRC32C:
		return crc32cHasher{table: crc32.MakeTable(crc32.Castagnoli)}, nil
	case TypeXXHash:
		return xxhashHasher{}, nil
	default:
		return nil, fmt.Errorf("unsupported checksum type: %s", t)
	}
}

// MustNew 创建校验器，失败时 panic
func MustNew(t Type) Hasher {
	h, err := New(t)
	if err != nil {
		panic(err)
	}
	return h
}

// Seal 在 data 尾部追加大端校验和
func Seal(h Hasher, data []byte) []byte {
	out := make([]byte, len(data), len(data)+TrailerSize)
	copy(out, data)
	return binary.BigEndian.AppendUint32(out, h.Sum(data))
}

// Open 校验并去掉尾部校验和
func Open(h Hasher, frame []byte) ([]byte, error) {
	if len(frame) < TrailerSize {
		return nil, ErrShortFrame
	}
	n := len(frame) - TrailerSize
	data := frame[:n]
	if want := binary.BigEndian.Uint32(frame[n:]); h.Sum(data) != want {
		return nil, fmt.Errorf("%w: %s", ErrMismatch, h.Name())
	}
	return data, nil
}

type crc32cHasher struct {
	table *crc32.Table
}

func (h crc32cHasher) Sum(data []byte) uint32 {
	return crc32.Checksum(data, h.table)
}

func (crc32cHasher) Name() string { return string(TypeCRC32C) }

type xxhashHasher struct{}

func (xxhashHasher) Sum(data []byte) uint32 {
	return uint32(xxhash.Sum64(data))
}

func (xxhashHasher) Name() string { return string(TypeXXHash) }
