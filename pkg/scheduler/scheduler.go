package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/strawxiguan/zzz-gachalog/pkg/config"
	"github.com/strawxiguan/zzz-gachalog/pkg/logger"
)

// JobFunc 任务函数，ctx 在调度器停止时取消
type JobFunc func(ctx context.Context) error

// JobInfo 任务快照
type JobInfo struct {
	ID        cron.EntryID
	Name      string
	Spec      string
	NextRun   time.Time
	PrevRun   time.Time
	RunCount  int64
	FailCount int64
}

type job struct {
	id      cron.EntryID
	name    string
	spec    string
	fn      JobFunc
	options JobOptions

	runs  atomic.Int64
	fails atomic.Int64
}

// Scheduler 基于 cron 表达式的定时任务调度器
type Scheduler struct {
	config *Config
	cron   *cron.Cron
	logger logger.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.RWMutex
	jobs    map[string]*job
	started bool
}

// Option 调度器选项
type Option func(*Scheduler)

func WithLogger(l logger.Logger) Option {
	return func(s *Scheduler) { s.logger = l }
}

// New 创建调度器，cfg 可只包含部分字段
func New(cfg *Config, opts ...Option) (*Scheduler, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}
	merged, err := config.MergeConfig(DefaultConfig(), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to merge scheduler config: %w", err)
	}

	s := &Scheduler{
		config: merged,
		logger: logger.NewNoop(),
		jobs:   make(map[string]*job),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named("scheduler")

	loc := time.Local
	if merged.Timezone != "" {
		loc, err = time.LoadLocation(merged.Timezone)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidTimezone, merged.Timezone)
		}
	}

	cl := cronLogger{s.logger}
	wrappers := []cron.JobWrapper{cron.Recover(cl)}
	if merged.SkipIfStillRunning {
		wrappers = append(wrappers, cron.SkipIfStillRunning(cl))
	}
	cronOpts := []cron.Option{
		cron.WithLocation(loc),
		cron.WithLogger(cl),
		cron.WithChain(wrappers...),
	}
	if merged.WithSeconds {
		cronOpts = append(cronOpts, cron.WithSeconds())
	}

	s.cron = cron.New(cronOpts...)
	s.ctx, s.cancel = context.WithCancel(context.Background())
	return s, nil
}

// AddFunc 注册任务，名称唯一
func (s *Scheduler) AddFunc(name, spec string, fn JobFunc, opts ...JobOption) (cron.EntryID, error) {
	if name == "" {
		return 0, ErrEmptyJobName
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[name]; ok {
		return 0, fmt.Errorf("%w: %s", ErrDuplicateJob, name)
	}

	j := &job{name: name, spec: spec, fn: fn, options: s.config.DefaultJobOptions}
	for _, opt := range opts {
		opt(&j.options)
	}

	id, err := s.cron.AddFunc(spec, func() { s.run(j) })
	if err != nil {
		return 0, fmt.Errorf("invalid spec %q for job %s: %w", spec, name, err)
	}
	j.id = id
	s.jobs[name] = j
	return id, nil
}

// Remove 移除任务
func (s *Scheduler) Remove(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[name]
	if !ok {
		return false
	}
	s.cron.Remove(j.id)
	delete(s.jobs, name)
	return true
}

// RunNow 立即同步执行一次任务，含重试
func (s *Scheduler) RunNow(name string) error {
	s.mu.RLock()
	j, ok := s.jobs[name]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("scheduler: job %s not found", name)
	}
	return s.run(j)
}

func (s *Scheduler) run(j *job) error {
	j.runs.Add(1)
	start := time.Now()

	var err error
	for attempt := 0; ; attempt++ {
		if err = j.fn(s.ctx); err == nil {
			break
		}
		if attempt >= j.options.MaxRetries || s.ctx.Err() != nil {
			break
		}

		wait := j.options.backoff(attempt + 1)
		s.logger.Warn("job failed, retrying", "job", j.name, "attempt", attempt+1, "backoff", wait, "error", err)
		select {
		case <-time.After(wait):
		case <-s.ctx.Done():
		}
	}

	if err != nil {
		j.fails.Add(1)
		s.logger.Error("job failed", "job", j.name, "duration", time.Since(start), "error", err)
		return err
	}
	s.logger.Debug("job finished", "job", j.name, "duration", time.Since(start))
	return nil
}

// ListJobs 返回所有任务快照
func (s *Scheduler) ListJobs() []JobInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	infos := make([]JobInfo, 0, len(s.jobs))
	for _, j := range s.jobs {
		e := s.cron.Entry(j.id)
		infos = append(infos, JobInfo{
			ID:        j.id,
			Name:      j.name,
			Spec:      j.spec,
			NextRun:   e.Next,
			PrevRun:   e.Prev,
			RunCount:  j.runs.Load(),
			FailCount: j.fails.Load(),
		})
	}
	return infos
}

// Start 启动调度，不阻塞
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return ErrAlreadyStarted
	}
	s.started = true
	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.jobs))
	return nil
}

// Stop 停止触发并等待运行中的任务，最长 StopTimeout
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		s.cancel()
		return nil
	}
	s.started = false
	s.mu.Unlock()

	done := s.cron.Stop()
	s.cancel()

	timer := time.NewTimer(s.config.StopTimeout)
	defer timer.Stop()
	select {
	case <-done.Done():
		s.logger.Info("scheduler stopped")
		return nil
	case <-timer.C:
		return ErrStopTimeout
	}
}

// cronLogger 适配 cron.Logger
type cronLogger struct {
	l logger.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error(msg, append(keysAndValues, "error", err)...)
}
