package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/cryptoinsight/backend/internal/resolver"
	"github.com/cryptoinsight/backend/internal/service"
)

// Scheduler runs the background cache-warming jobs: a daily refresh of the
// coin catalog and a five-minute refresh of the top-assets listing. Job
// failures are logged and retried on the next tick, never fatal.
type Scheduler struct {
	cron          *cron.Cron
	resolver      *resolver.Resolver
	marketService *service.MarketService
	topAssetsLim  int
	logger        *zap.Logger
}

// New creates a Scheduler with the provided dependencies. topAssetsLim is
// how many top assets each refresh keeps warm.
func New(resolver *resolver.Resolver, marketService *service.MarketService, topAssetsLim int, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:          cron.New(),
		resolver:      resolver,
		marketService: marketService,
		topAssetsLim:  topAssetsLim,
		logger:        logger,
	}
}

// Start registers the jobs and begins the cron loop. The jobs also run once
// immediately so a fresh process starts with warm caches.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("0 2 * * *", s.refreshCatalog); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc("*/5 * * * *", s.refreshTopAssets); err != nil {
		return err
	}

	go func() {
		s.refreshCatalog()
		s.refreshTopAssets()
	}()

	s.cron.Start()
	s.logger.Info("scheduler started")
	return nil
}

// Stop halts the cron loop and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) refreshCatalog() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	catalog, err := s.resolver.Catalog(ctx)
	if err != nil {
		s.logger.Warn("catalog refresh failed", zap.Error(err))
		return
	}
	s.logger.Info("coin catalog refreshed", zap.Int("entries", len(catalog)))
}

func (s *Scheduler) refreshTopAssets() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	assets, err := s.marketService.TopAssets(ctx, s.topAssetsLim)
	if err != nil {
		s.logger.Warn("top assets refresh failed", zap.Error(err))
		return
	}
	s.logger.Info("top assets refreshed", zap.Int("assets", len(assets)))
}
