// pkg/serializer/msgpack.go
package serializer

import (
	"bytes"
	"reflect"

	"github.com/hashicorp/go-msgpack/v2/codec"
	"github.com/valyala/bytebufferpool"
)

// msgpackHandle RawToString=true, MapType=map[string]interface{}
var msgpackHandle = &codec.MsgpackHandle{}

func init() {
	msgpackHandle.MapType = reflect.TypeOf(map[string]interface{}{})
	msgpackHandle.RawToString = true
}

var bufferPool bytebufferpool.Pool

// Encode 使用 msgpack 编码数据
func Encode(v interface{}) ([]byte, error) {
	buf := bufferPool.Get()
	defer bufferPool.Put(buf)

	enc := codec.NewEncoder(buf, msgpackHandle)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}

	// buf 会被回收复用，必须复制
	result := make([]byte, buf.Len())
	copy(result, buf.Bytes())
	return result, nil
}

// Decode 使用 msgpack 解码数据
func Decode(data []byte, v interface{}) error {
	dec := codec.NewDecoder(bytes.NewReader(data), msgpackHandle)
	return dec.Decode(v)
}

// Msgpack 基于 Encode/Decode 的 Serializer 实现
type Msgpack struct{}

func NewMsgpack() *Msgpack {
	return &Msgpack{}
}

func (s *Msgpack) Serialize(v any) ([]byte, error) {
	return Encode(v)
}

func (s *Msgpack) Deserialize(data []byte, v any) error {
	return Decode(data, v)
}

func (s *Msgpack) Name() string {
	return NameMsgpack
}
