package sync

import (
	"context"
	"time"

	"golang.org/x/exp/slog"
)

// HealthChecker - проверка доступности сервера
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// ConnectivityMonitor опрашивает сервер и сообщает движку о смене доступности сети
type ConnectivityMonitor struct {
	checker  HealthChecker
	engine   *Engine
	clock    Clock
	interval time.Duration
	timeout  time.Duration
	log      *slog.Logger
}

func NewConnectivityMonitor(checker HealthChecker, engine *Engine, clock Clock, interval time.Duration, log *slog.Logger) *ConnectivityMonitor {
	if clock == nil {
		clock = RealClock()
	}
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &ConnectivityMonitor{
		checker:  checker,
		engine:   engine,
		clock:    clock,
		interval: interval,
		timeout:  interval / 2,
		log:      log.With("component", "connectivity"),
	}
}

// Probe выполняет одну проверку и передает результат движку
func (m *ConnectivityMonitor) Probe(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	err := m.checker.HealthCheck(ctx)
	online := err == nil
	if err != nil {
		m.log.Debug("server unreachable", "error", err)
	}
	m.engine.SetOnline(online)
	return online
}

// Run опрашивает сервер до отмены контекста
func (m *ConnectivityMonitor) Run(ctx context.Context) {
	m.Probe(ctx)

	ticker := m.clock.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			m.Probe(ctx)
		}
	}
}
