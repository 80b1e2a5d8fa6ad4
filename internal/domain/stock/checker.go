package stock

import (
	"context"
	"sync"
	"time"

	"care-coordination/internal/platform/logger"
)

const (
	defaultCheckEvery = time.Hour
	checkTimeout      = 30 * time.Second
)

// Checker corre CheckAlerts periódicamente. El throttle de 24h vive en
// el service; acá solo se decide cada cuánto mirar.
type Checker struct {
	svc        *Service
	log        logger.Logger
	checkEvery time.Duration

	stopOnce sync.Once
	stopCh   chan struct{}
}

func NewChecker(svc *Service, log logger.Logger, checkEvery time.Duration) *Checker {
	if log == nil {
		log = logger.Nop{}
	}
	if checkEvery <= 0 {
		checkEvery = defaultCheckEvery
	}
	return &Checker{
		svc:        svc,
		log:        log,
		checkEvery: checkEvery,
		stopCh:     make(chan struct{}),
	}
}

// Start hace una pasada inmediata y arranca el loop periódico.
func (c *Checker) Start(ctx context.Context) {
	c.checkSafe()
	go c.loop()
	c.log.Info("stock alert checker started", map[string]any{"every": c.checkEvery.String()})
}

func (c *Checker) Stop() {
	c.stopOnce.Do(func() { close(c.stopCh) })
}

func (c *Checker) loop() {
	ticker := time.NewTicker(c.checkEvery)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.checkSafe()
		}
	}
}

// checkSafe no deja que un error o panic mate el loop.
func (c *Checker) checkSafe() {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("stock alert check panicked", map[string]any{"panic": r})
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
	defer cancel()

	if err := c.svc.CheckAlerts(ctx); err != nil {
		c.log.Error("stock alert check failed", map[string]any{"error": err.Error()})
	}
}
