package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator 配置验证器
type Validator struct {
	validate *validator.Validate
}

// NewValidator 创建验证器
func NewValidator() *Validator {
	return &Validator{
		validate: validator.New(),
	}
}

// Validate 按 validate tag 验证配置结构体
func (v *Validator) Validate(cfg any) error {
	if cfg == nil {
		return ErrNilConfig
	}
	if err := v.validate.Struct(cfg); err != nil {
		return fmt.Errorf("%w: %s", ErrValidationFailed, formatValidationErrors(err))
	}
	return nil
}

// RegisterValidation 注册自定义验证规则
func (v *Validator) RegisterValidation(tag string, fn validator.Func) error {
	if err := v.validate.RegisterValidation(tag, fn); err != nil {
		return fmt.Errorf("failed to register custom validation %s: %w", tag, err)
	}
	return nil
}

func formatValidationErrors(err error) string {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}

	msgs := make([]string, 0, len(validationErrors))
	for _, fe := range validationErrors {
		field := fe.Namespace()
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("field '%s' is required", field))
		case "min", "gte":
			msgs = append(msgs, fmt.Sprintf("field '%s' must be at least %s", field, fe.Param()))
		case "max", "lte":
			msgs = append(msgs, fmt.Sprintf("field '%s' must be at most %s", field, fe.Param()))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("field '%s' must be one of [%s]", field, fe.Param()))
		case "url":
			msgs = append(msgs, fmt.Sprintf("field '%s' must be a valid URL", field))
		default:
			msgs = append(msgs, fmt.Sprintf("field '%s' failed validation '%s'", field, fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}
