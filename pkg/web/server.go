package web

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/strawxiguan/zzz-gachalog/pkg/logger"
	"github.com/strawxiguan/zzz-gachalog/pkg/web/middleware"
)

var registerTagNameOnce sync.Once

// Server Web 服务，实现 app.Server
type Server struct {
	engine  *gin.Engine
	config  *Config
	logger  logger.Logger
	limiter *middleware.RateLimiter

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
}

// NewServer 创建 Web 服务
func NewServer(cfg *Config, l logger.Logger) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if l == nil {
		l = logger.Default()
	}

	gin.SetMode(cfg.Mode)
	useJSONFieldNames()

	engine := gin.New()
	engine.Use(middleware.RequestID())
	engine.Use(middleware.Logger(l.Named("web.access")))
	engine.Use(middleware.Recovery(l.Named("web.recovery")))
	if cfg.EnableCORS {
		engine.Use(middleware.CORS(cfg.CORSOrigins...))
	}

	s := &Server{
		engine: engine,
		config: cfg,
		logger: l.Named("web.server"),
	}

	if cfg.RateLimit.RequestsPerSecond > 0 {
		s.limiter = middleware.NewRateLimiter(l.Named("web.ratelimit"), &middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
			SkipPaths:         []string{"/healthz", "/metrics"},
			KeyParam:          cfg.RateLimit.KeyParam,
			MaxLimiters:       cfg.RateLimit.MaxLimiters,
			LimiterTTL:        cfg.RateLimit.LimiterTTL,
		})
		engine.Use(middleware.RateLimit(s.limiter))
	}

	return s
}

// useJSONFieldNames 校验错误信息使用 json tag 而非结构体字段名
func useJSONFieldNames() {
	registerTagNameOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			v.RegisterTagNameFunc(func(fld reflect.StructField) string {
				name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
				if name == "-" {
					return ""
				}
				return name
			})
		}
	})
}

// Router 返回 Gin 引擎，用于注册路由
func (s *Server) Router() *gin.Engine {
	return s.engine
}

// Handler 返回 http.Handler
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Addr 实际监听地址（Start 之后有效）
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Start 监听端口并在后台提供服务
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server != nil {
		return ErrServerAlreadyStarted
	}

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.config.Port))
	if err != nil {
		return fmt.Errorf("web: listen: %w", err)
	}

	s.listener = ln
	s.server = &http.Server{
		Handler:        s.engine,
		ReadTimeout:    s.config.ReadTimeout,
		WriteTimeout:   s.config.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}

	srv := s.server
	go func() {
		var err error
		if s.config.EnableTLS {
			s.logger.Info("starting https server", "addr", ln.Addr().String())
			err = srv.ServeTLS(ln, s.config.CertFile, s.config.KeyFile)
		} else {
			s.logger.Info("starting http server", "addr", ln.Addr().String())
			err = srv.Serve(ln)
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("server exited unexpectedly", "error", err)
		}
	}()

	return nil
}

// Stop 立即关闭
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server == nil {
		return ErrServerNotStarted
	}
	s.closeLimiter()
	return s.server.Close()
}

// GracefulStop 等待进行中的请求完成，最长 StopTimeout
func (s *Server) GracefulStop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server == nil {
		return ErrServerNotStarted
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.config.StopTimeout)
	defer cancel()

	s.closeLimiter()
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	s.logger.Info("server exited")
	return nil
}

func (s *Server) closeLimiter() {
	if s.limiter != nil {
		_ = s.limiter.Close()
	}
}
