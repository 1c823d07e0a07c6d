// pkg/compress/compress.go
package compress

import (
	"errors"
	"fmt"
	"sync"
)

// Compressor 压缩器接口
type Compressor interface {
	Compress(src []byte) ([]byte, error)
	Decompress(src []byte) ([]byte, error)
	Type() Type
}

// Factory 压缩器工厂函数类型
type Factory func() (Compressor, error)

// Type 压缩算法类型
type Type string

const (
	TypeNone   Type = "none"
	TypeSnappy Type = "snappy"
	TypeZstd   Type = "zstd"
	TypeLZ4    Type = "lz4"
)

// 帧头标识，写入 Pack 输出的第一个字节，数值一经使用不可修改
var typeTags = map[Type]byte{
	TypeNone:   0x00,
	TypeSnappy: 0x01,
	TypeZstd:   0x02,
	TypeLZ4:    0x03,
}

var (
	// ErrUnsupportedType 未注册的压缩算法
	ErrUnsupportedType = errors.New("compress: unsupported compression type")
	// ErrCorruptFrame 帧格式错误
	ErrCorruptFrame = errors.New("compress: corrupt frame")
)

var (
	mu        sync.RWMutex
	factories = make(map[Type]Factory)
	instances = make(map[Type]Compressor)
)

func init() {
	Register(TypeNone, func() (Compressor, error) { return noneCompressor{}, nil })
	Register(TypeSnappy, func() (Compressor, error) { return snappyCompressor{}, nil })
	Register(TypeZstd, func() (Compressor, error) { return newZstdCompressor() })
	Register(TypeLZ4, func() (Compressor, error) { return lz4Compressor{}, nil })
}

// Register 注册压缩器工厂
func Register(t Type, factory Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[t] = factory
	delete(instances, t)
}

// New 获取压缩器，同一类型复用同一个实例（所有实现均并发安全）
func New(t Type) (Compressor, error) {
	if t == "" {
		t = TypeNone
	}

	mu.RLock()
	c, ok := instances[t]
	factory, registered := factories[t]
	mu.RUnlock()
	if ok {
		return c, nil
	}
	if !registered {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, t)
	}

	c, err := factory()
	if err != nil {
		return nil, err
	}

	mu.Lock()
	defer mu.Unlock()
	if existing, ok := instances[t]; ok {
		return existing, nil
	}
	instances[t] = c
	return c, nil
}

// Pack 压缩并写入一字节的算法标识
func Pack(c Compressor, src []byte) ([]byte, error) {
	tag, ok := typeTags[c.Type()]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, c.Type())
	}
	body, err := c.Compress(src)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(body)+1)
	out = append(out, tag)
	return append(out, body...), nil
}

// Unpack 读取算法标识并解压，与写入时的配置无关
func Unpack(src []byte) ([]byte, error) {
	if len(src) == 0 {
		return nil, ErrCorruptFrame
	}
	for t, tag := range typeTags {
		if tag != src[0] {
			continue
		}
		c, err := New(t)
		if err != nil {
			return nil, err
		}
		return c.Decompress(src[1:])
	}
	return nil, fmt.Errorf("%w: unknown tag 0x%02x", ErrCorruptFrame, src[0])
}
