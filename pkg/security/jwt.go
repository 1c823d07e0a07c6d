package security

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/strawxiguan/zzz-gachalog/pkg/config"
)

// 接口权限
const (
	// ScopeRead 查询分析结果与会话状态
	ScopeRead = "gacha:read"
	// ScopeWrite 触发刷新与提交链接
	ScopeWrite = "gacha:write"
)

// JWTConfig API 访问令牌配置
type JWTConfig struct {
	// Enabled 关闭时不校验令牌
	Enabled bool `mapstructure:"enabled"`

	// SecretKey HMAC 签名密钥
	SecretKey string `mapstructure:"secret_key" validate:"required_if=Enabled true"`

	// Algorithm HS256 / HS384 / HS512
	Algorithm string `mapstructure:"algorithm" validate:"omitempty,oneof=HS256 HS384 HS512"`

	// ExpiresIn 签发时未指定有效期时使用
	ExpiresIn time.Duration `mapstructure:"expires_in"`

	Issuer string `mapstructure:"issuer"`

	// SkipPaths 不校验的路径，支持末尾 * 前缀匹配
	SkipPaths []string `mapstructure:"skip_paths"`
}

// Claims 访问令牌载荷
type Claims struct {
	jwt.RegisteredClaims

	Scopes []string `json:"scopes,omitempty"`
}

// HasScope 是否拥有权限
func (c *Claims) HasScope(scope string) bool {
	return slices.Contains(c.Scopes, scope)
}

// DefaultJWTConfig 默认配置
func DefaultJWTConfig() *JWTConfig {
	return &JWTConfig{
		Algorithm: "HS256",
		ExpiresIn: 24 * time.Hour,
		Issuer:    "gachalog",
		SkipPaths: []string{"/healthz", "/metrics"},
	}
}

// JWTManager 签发与校验访问令牌
type JWTManager struct {
	config *JWTConfig
	method jwt.SigningMethod
	now    func() time.Time
}

// NewJWTManager 创建令牌管理器
func NewJWTManager(cfg *JWTConfig) (*JWTManager, error) {
	newCfg, err := config.MergeConfig(DefaultJWTConfig(), cfg)
	if err != nil {
		return nil, err
	}
	if newCfg.SecretKey == "" {
		return nil, ErrSecretKeyEmpty
	}

	method := jwt.GetSigningMethod(strings.ToUpper(newCfg.Algorithm))
	if _, ok := method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("%w: %s", ErrAlgorithmInvalid, newCfg.Algorithm)
	}

	return &JWTManager{config: newCfg, method: method, now: time.Now}, nil
}

// GenerateToken 签发令牌，ttl 为 0 时使用 ExpiresIn
func (m *JWTManager) GenerateToken(subject string, scopes []string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = m.config.ExpiresIn
	}
	now := m.now()

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    m.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Scopes: scopes,
	}
	return jwt.NewWithClaims(m.method, claims).SignedString([]byte(m.config.SecretKey))
}

// ValidateToken 校验令牌，接受带 "Bearer " 前缀的值
func (m *JWTManager) ValidateToken(tokenString string) (*Claims, error) {
	tokenString = strings.TrimSpace(strings.TrimPrefix(tokenString, "Bearer "))
	if tokenString == "" {
		return nil, ErrTokenMissing
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{m.method.Alg()}),
		jwt.WithTimeFunc(m.now),
	}
	if m.config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.config.Issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(*jwt.Token) (any, error) {
		return []byte(m.config.SecretKey), nil
	}, opts...)
	if err != nil {
		return nil, wrapError(err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// ShouldSkip 路径是否免校验
func (m *JWTManager) ShouldSkip(path string) bool {
	for _, pattern := range m.config.SkipPaths {
		if matchPath(pattern, path) {
			return true
		}
	}
	return false
}

func wrapError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		return ErrTokenNotValidYet
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrTokenMalformed
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrSignatureInvalid
	default:
		return fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
}

// matchPath 精确匹配，或以 * 结尾的前缀匹配
func matchPath(pattern, path string) bool {
	if pattern == path {
		return true
	}
	if prefix, ok := strings.CutSuffix(pattern, "*"); ok {
		return strings.HasPrefix(path, prefix)
	}
	return false
}

type claimsKey struct{}

// ContextWithClaims 将 Claims 存入 context
func ContextWithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, claims)
}

// ClaimsFromContext 从 context 读取 Claims
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(*Claims)
	return claims, ok
}
