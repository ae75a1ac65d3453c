// Package cron 定时任务：阅读量落库与布隆过滤器持久化
package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/nsxzhou1114/blog-platform/internal/config"
	robfig "github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const jobTimeout = 30 * time.Second

// ArticleJobs 文章相关的周期任务
type ArticleJobs interface {
	FlushViews(ctx context.Context) (int, error)
	SaveBloom(ctx context.Context) error
}

// Scheduler 定时任务调度器
type Scheduler struct {
	cron *robfig.Cron
	jobs ArticleJobs
	log  *zap.SugaredLogger
}

// cronLogger 把 cron 内部日志接到 zap
type cronLogger struct {
	log *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Errorw(msg, append(keysAndValues, "error", err)...)
}

// New 创建调度器并注册任务，cron 表达式带秒
func New(cfg config.CronConfig, jobs ArticleJobs, log *zap.SugaredLogger) (*Scheduler, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	loc := time.Local
	if cfg.Timezone != "" {
		l, err := time.LoadLocation(cfg.Timezone)
		if err != nil {
			log.Warnf("加载时区 %s 失败，使用本地时区: %v", cfg.Timezone, err)
		} else {
			loc = l
		}
	}

	logger := cronLogger{log: log}
	s := &Scheduler{
		cron: robfig.New(
			robfig.WithSeconds(),
			robfig.WithLocation(loc),
			robfig.WithLogger(logger),
			robfig.WithChain(robfig.Recover(logger), robfig.SkipIfStillRunning(logger)),
		),
		jobs: jobs,
		log:  log,
	}

	if _, err := s.cron.AddFunc(cfg.FlushViews, s.flushViews); err != nil {
		return nil, fmt.Errorf("注册阅读量落库任务失败: %w", err)
	}
	if _, err := s.cron.AddFunc(cfg.SaveBloom, s.saveBloom); err != nil {
		return nil, fmt.Errorf("注册布隆过滤器保存任务失败: %w", err)
	}
	return s, nil
}

// Start 启动调度
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Infof("定时任务已启动，共 %d 个", len(s.cron.Entries()))
}

// Stop 停止调度并等待运行中的任务结束
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		s.log.Warn("等待定时任务结束超时")
	}
}

func (s *Scheduler) flushViews() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	n, err := s.jobs.FlushViews(ctx)
	if err != nil {
		s.log.Errorf("阅读量落库失败: %v", err)
		return
	}
	if n > 0 {
		s.log.Infof("阅读量落库完成，更新 %d 篇文章", n)
	}
}

func (s *Scheduler) saveBloom() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	if err := s.jobs.SaveBloom(ctx); err != nil {
		s.log.Errorf("保存布隆过滤器失败: %v", err)
	}
}
