// Package conc 基于 ants 的协程池与 Future
package conc

import (
	"fmt"

	"github.com/panjf2000/ants/v2"
)

// PanicError 任务 panic 时 Future 返回的错误
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("conc: task panicked: %v", e.Value)
}

type poolOptions struct {
	preAlloc    bool
	nonBlocking bool
}

// Option 协程池选项
type Option func(*poolOptions)

// WithPreAlloc 预分配 worker 队列
func WithPreAlloc(v bool) Option {
	return func(o *poolOptions) { o.preAlloc = v }
}

// WithNonBlocking 池满时 Submit 立即失败而不是等待
func WithNonBlocking(v bool) Option {
	return func(o *poolOptions) { o.nonBlocking = v }
}

// Pool 固定容量的协程池
type Pool[T any] struct {
	inner *ants.Pool
}

// NewPool 创建协程池，size<=0 时不限容量
func NewPool[T any](size int, opts ...Option) *Pool[T] {
	o := &poolOptions{}
	for _, opt := range opts {
		opt(o)
	}

	// 任务内的 panic 由 Submit 自行捕获并写入 Future
	p, err := ants.NewPool(size,
		ants.WithPreAlloc(o.preAlloc && size > 0),
		ants.WithNonblocking(o.nonBlocking),
	)
	if err != nil {
		panic(fmt.Sprintf("conc: create pool: %v", err))
	}
	return &Pool[T]{inner: p}
}

// Submit 提交任务；池已关闭或非阻塞模式下已满时 Future 直接返回错误
func (p *Pool[T]) Submit(fn func() (T, error)) *Future[T] {
	f := newFuture[T]()
	err := p.inner.Submit(func() {
		var (
			v   T
			err error
		)
		defer func() {
			if r := recover(); r != nil {
				f.complete(v, &PanicError{Value: r})
			}
		}()
		v, err = fn()
		f.complete(v, err)
	})
	if err != nil {
		var zero T
		f.complete(zero, err)
	}
	return f
}

// Cap 容量
func (p *Pool[T]) Cap() int {
	return p.inner.Cap()
}

// Running 正在运行的任务数
func (p *Pool[T]) Running() int {
	return p.inner.Running()
}

// Release 关闭协程池，已提交的任务继续执行
func (p *Pool[T]) Release() {
	p.inner.Release()
}
