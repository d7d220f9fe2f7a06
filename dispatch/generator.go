package dispatch

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"fleet-dispatch-system/geo"
	"fleet-dispatch-system/logger"
)

// autoOrderPrefix marks synthesized orders apart from manual ones.
const autoOrderPrefix = "auto_order"

// GeneratorConfig shapes the synthesized demand.
type GeneratorConfig struct {
	CenterLat     float64
	CenterLon     float64
	PickupRadiusM float64
	DestRadiusM   float64
	MinInterval   time.Duration
	MaxInterval   time.Duration
}

// AutoOrderGenerator synthesizes orders at randomized intervals and
// feeds them through the engine. Start is idempotent; Stop cancels
// the loop and is observed within one sleep cycle.
type AutoOrderGenerator struct {
	engine *Engine
	cfg    GeneratorConfig
	log    logger.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewAutoOrderGenerator(engine *Engine, cfg GeneratorConfig, log logger.Logger) *AutoOrderGenerator {
	if cfg.MinInterval <= 0 {
		cfg.MinInterval = 10 * time.Second
	}
	if cfg.MaxInterval < cfg.MinInterval {
		cfg.MaxInterval = cfg.MinInterval
	}
	return &AutoOrderGenerator{engine: engine, cfg: cfg, log: log}
}

// Start launches the generation loop. Calling it while running is a
// no-op.
func (g *AutoOrderGenerator) Start() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	g.cancel = cancel
	g.done = make(chan struct{})
	go g.run(ctx, g.done)
	g.log.Infof("automatic order generation started")
}

// Stop cancels the loop and waits for it to exit. Safe to call when
// not running.
func (g *AutoOrderGenerator) Stop() {
	g.mu.Lock()
	cancel, done := g.cancel, g.done
	g.cancel = nil
	g.done = nil
	g.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	g.log.Infof("automatic order generation stopped")
}

// Running reports whether the loop is active.
func (g *AutoOrderGenerator) Running() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.cancel != nil
}

// IntervalWindow returns the configured sleep bounds.
func (g *AutoOrderGenerator) IntervalWindow() (min, max time.Duration) {
	return g.cfg.MinInterval, g.cfg.MaxInterval
}

func (g *AutoOrderGenerator) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	for {
		g.generateOne(ctx)

		sleep := g.cfg.MinInterval
		if spread := g.cfg.MaxInterval - g.cfg.MinInterval; spread > 0 {
			sleep += time.Duration(rand.Int63n(int64(spread) + 1))
		}
		timer := time.NewTimer(sleep)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

func (g *AutoOrderGenerator) generateOne(ctx context.Context) {
	pickupLat, pickupLon := geo.OffsetPoint(g.cfg.CenterLat, g.cfg.CenterLon, g.cfg.PickupRadiusM, rand.Float64)
	destLat, destLon := geo.OffsetPoint(pickupLat, pickupLon, g.cfg.DestRadiusM, rand.Float64)

	order, err := NewOrder(autoOrderPrefix, pickupLat, pickupLon, destLat, destLon)
	if err != nil {
		g.log.Errorf("auto order synthesis failed: %v", err)
		return
	}

	if _, err := g.engine.Assign(ctx, order); err != nil {
		if errors.Is(err, ErrNoCapacity) {
			g.log.Infof("auto order %s pending (no drivers available)", order.ID)
			return
		}
		g.log.Errorf("auto order %s failed: %v", order.ID, err)
	}
}
