// pkg/compress/lz4.go
package compress

import (
	"encoding/binary"
	"fmt"

	"github.com/pierrec/lz4/v4"
)

// lz4Compressor 块格式：uvarint(原始长度) + lz4 block
// 不可压缩的数据 block 长度为 0，原样跟在长度后面
type lz4Compressor struct{}

func (lz4Compressor) Compress(src []byte) ([]byte, error) {
	head := make([]byte, binary.MaxVarintLen64)
	hn := binary.PutUvarint(head, uint64(len(src)))

	dst := make([]byte, hn+1+lz4.CompressBlockBound(len(src)))
	copy(dst, head[:hn])

	var c lz4.Compressor
	n, err := c.CompressBlock(src, dst[hn+1:])
	if err != nil {
		return nil, err
	}
	if n == 0 || n >= len(src) {
		dst[hn] = 0
		return append(dst[:hn+1], src...), nil
	}
	dst[hn] = 1
	return dst[:hn+1+n], nil
}

func (lz4Compressor) Decompress(src []byte) ([]byte, error) {
	size, hn := binary.Uvarint(src)
	if hn <= 0 || len(src) < hn+1 {
		return nil, ErrCorruptFrame
	}
	body := src[hn+1:]

	if src[hn] == 0 {
		if uint64(len(body)) != size {
			return nil, ErrCorruptFrame
		}
		return append([]byte(nil), body...), nil
	}

	dst := make([]byte, size)
	n, err := lz4.UncompressBlock(body, dst)
	if err != nil {
		return nil, err
	}
	if uint64(n) != size {
		return nil, fmt.Errorf("%w: lz4 size mismatch", ErrCorruptFrame)
	}
	return dst, nil
}

func (lz4Compressor) Type() Type { return TypeLZ4 }
