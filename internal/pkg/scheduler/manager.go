package scheduler

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/MaxKoenig/ClubSync/internal/pkg/googlecal"
)

type renewalRunner interface {
	RenewExpiring(ctx context.Context, within time.Duration) (googlecal.BatchSummary, error)
}

const renewalRunTimeout = 10 * time.Minute

// Manager runs the watch renewal loop in-process for deployments without an
// external cron. The HTTP trigger stays the primary mechanism; this is an
// opt-in fallback (RENEWAL_INTERNAL_TICKER=1).
type Manager struct {
	runner   renewalRunner
	window   time.Duration
	interval time.Duration

	ticker  *time.Ticker
	stopCh  chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
}

// NewManager creates a renewal manager that fires every interval and renews
// channels expiring within window.
func NewManager(runner renewalRunner, interval, window time.Duration) *Manager {
	if interval <= 0 {
		interval = time.Hour
	}
	if window <= 0 {
		window = googlecal.DefaultRenewalWindow
	}
	return &Manager{
		runner:   runner,
		window:   window,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start starts the renewal ticker. Safe to call on a running manager.
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return
	}

	// Recreate stop channel for each start cycle so the manager can be
	// restarted safely.
	m.stopCh = make(chan struct{})
	m.running = true
	log.Print("[Scheduler] Starting internal watch renewal ticker")

	m.ticker = time.NewTicker(m.interval)
	m.wg.Add(1)
	go m.renewalWorker()
}

// Stop stops the ticker and waits for an in-flight run to finish.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}

	log.Print("[Scheduler] Stopping internal watch renewal ticker...")
	if m.ticker != nil {
		m.ticker.Stop()
	}
	close(m.stopCh)
	m.wg.Wait()
	m.running = false
	log.Print("[Scheduler] Stopped")
}

func (m *Manager) renewalWorker() {
	defer m.wg.Done()

	for {
		select {
		case <-m.ticker.C:
			m.runOnce()
		case <-m.stopCh:
			return
		}
	}
}

func (m *Manager) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), renewalRunTimeout)
	defer cancel()

	summary, err := m.runner.RenewExpiring(ctx, m.window)
	if err != nil {
		log.Printf("[Scheduler] Renewal run failed: %v", err)
		return
	}
	if summary.Total() == 0 {
		return
	}
	log.Printf("[Scheduler] Renewal run finished: %d renewed, %d failed", summary.Renewed, summary.Failed)
}
