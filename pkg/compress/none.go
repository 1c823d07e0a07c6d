// pkg/compress/none.go
package compress

type noneCompressor struct{}

func (noneCompressor) Compress(src []byte) ([]byte, error) {
	return append([]byte(nil), src...), nil
}

func (noneCompressor) Decompress(src []byte) ([]byte, error) {
	return append([]byte(nil), src...), nil
}

func (noneCompressor) Type() Type { return TypeNone }
