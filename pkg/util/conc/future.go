package conc

// Future 异步任务结果
type Future[T any] struct {
	ch    chan struct{}
	value T
	err   error
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{ch: make(chan struct{})}
}

// Await 阻塞直到任务完成
func (f *Future[T]) Await() (T, error) {
	<-f.ch
	return f.value, f.err
}

// Done 任务完成时关闭的通道
func (f *Future[T]) Done() <-chan struct{} {
	return f.ch
}

// OK 任务是否成功完成（阻塞）
func (f *Future[T]) OK() bool {
	<-f.ch
	return f.err == nil
}

func (f *Future[T]) complete(value T, err error) {
	f.value = value
	f.err = err
	close(f.ch)
}

// Go 在新协程中执行任务
func Go[T any](fn func() (T, error)) *Future[T] {
	f := newFuture[T]()
	go func() {
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
	}()
	return f
}

// AwaitAll 等待全部任务，返回第一个错误
func AwaitAll[T any](futures ...*Future[T]) error {
	var first error
	for _, f := range futures {
		if _, err := f.Await(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
