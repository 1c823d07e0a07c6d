package app

import (
	"github.com/google/wire"
)

// AppComponents 收集 Wire 注入的所有组件
type AppComponents struct {
	Servers []Server
	Closers []Closer
}

// ProviderSet 导出给 Wire 使用
var ProviderSet = wire.NewSet(
	NewBaseApp,
	InitApp,
)

// InitApp 将 Wire 注入的组件绑定到 BaseApp
func InitApp(app *BaseApp, comps AppComponents) *BaseApp {
	app.AppendServer(comps.Servers...)
	app.AppendCloser(comps.Closers...)
	return app
}

// CloserFunc 函数式 Closer
type CloserFunc func() error

func (f CloserFunc) Close() error { return f() }

// ServerFuncs 将启停函数包装为 Server
type ServerFuncs struct {
	StartFunc func() error
	StopFunc  func() error
}

func (s ServerFuncs) Start() error {
	if s.StartFunc == nil {
		return nil
	}
	return s.StartFunc()
}

func (s ServerFuncs) Stop() error {
	if s.StopFunc == nil {
		return nil
	}
	return s.StopFunc()
}
