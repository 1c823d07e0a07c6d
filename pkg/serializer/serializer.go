package serializer

import (
	"encoding/json"
	"fmt"
)

// Serializer 序列化器接口
type Serializer interface {
	Serialize(v any) ([]byte, error)
	Deserialize(data []byte, v any) error
	// Name 序列化格式名称（用于配置与日志）
	Name() string
}

const (
	NameJSON    = "json"
	NameMsgpack = "msgpack"
)

// New 按名称创建序列化器，空名称返回 msgpack
func New(name string) (Serializer, error) {
	switch name {
	case "", NameMsgpack:
		return NewMsgpack(), nil
	case NameJSON:
		return NewJSON(), nil
	default:
		return nil, fmt.Errorf("serializer: unsupported format %q", name)
	}
}

// JSON 序列化器
type JSON struct{}

func NewJSON() *JSON {
	return &JSON{}
}

func (s *JSON) Serialize(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (s *JSON) Deserialize(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (s *JSON) Name() string {
	return NameJSON
}
