package config

import (
	"fmt"
	"reflect"
)

// MergeConfig 将 src 深度合并到 dst
// - 两者都为 nil 时返回错误
// - 任一为 nil 时返回另一个
// - src 中的零值不会覆盖 dst，切片整体覆盖，map 按 key 合并
func MergeConfig[T any](dst, src *T) (*T, error) {
	if dst == nil && src == nil {
		return nil, fmt.Errorf("%w: both dst and src are nil", ErrMergeFailed)
	}
	if dst == nil {
		return src, nil
	}
	if src == nil {
		return dst, nil
	}

	if err := mergeValues(reflect.ValueOf(dst).Elem(), reflect.ValueOf(src).Elem()); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMergeFailed, err)
	}
	return dst, nil
}

func mergeValues(dst, src reflect.Value) error {
	if !src.IsValid() || src.IsZero() {
		return nil
	}

	switch dst.Kind() {
	case reflect.Struct:
		return mergeStruct(dst, src)
	case reflect.Map:
		return mergeMap(dst, src)
	case reflect.Ptr:
		if dst.IsNil() {
			dst.Set(reflect.New(dst.Type().Elem()))
		}
		return mergeValues(dst.Elem(), src.Elem())
	default:
		// 基本类型与切片直接覆盖
		if dst.CanSet() {
			dst.Set(src)
		}
		return nil
	}
}

func mergeStruct(dst, src reflect.Value) error {
	t := src.Type()
	for i := 0; i < src.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		dstField := dst.Field(i)
		if !dstField.CanSet() {
			continue
		}
		if err := mergeValues(dstField, src.Field(i)); err != nil {
			return fmt.Errorf("field %s: %w", field.Name, err)
		}
	}
	return nil
}

func mergeMap(dst, src reflect.Value) error {
	if dst.IsNil() {
		dst.Set(reflect.MakeMap(dst.Type()))
	}

	iter := src.MapRange()
	for iter.Next() {
		key := iter.Key()
		existing := dst.MapIndex(key)
		if !existing.IsValid() {
			dst.SetMapIndex(key, iter.Value())
			continue
		}

		merged := reflect.New(dst.Type().Elem()).Elem()
		merged.Set(existing)
		if err := mergeValues(merged, iter.Value()); err != nil {
			return err
		}
		dst.SetMapIndex(key, merged)
	}
	return nil
}
