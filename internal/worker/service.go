package worker

import (
	"context"
	"log"
	"os"
	"strconv"
	"sync"
	"time"

	"share-counts/internal/models"
	"share-counts/internal/services"

	"gorm.io/gorm"
)

// WorkerService owns the periodic refresh of stale content records. The
// request-driven refresh endpoint stays synchronous; this worker only keeps
// cached counts from going stale between editor visits.
type WorkerService struct {
	db      *gorm.DB
	counts  *services.CountsService
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
	mu      sync.RWMutex

	refreshInterval time.Duration
	batchSize       int
}

// NewWorkerService creates a new worker service
func NewWorkerService(db *gorm.DB, counts *services.CountsService) *WorkerService {
	ctx, cancel := context.WithCancel(context.Background())

	return &WorkerService{
		db:              db,
		counts:          counts,
		ctx:             ctx,
		cancel:          cancel,
		refreshInterval: envDuration("REFRESH_INTERVAL", 6*time.Hour),
		batchSize:       envInt("REFRESH_BATCH_SIZE", 25),
	}
}

// Start starts the background refresh worker
func (ws *WorkerService) Start() error {
	ws.mu.Lock()
	defer ws.mu.Unlock()

	if ws.running {
		return nil // Already running
	}

	log.Println("Starting background workers...")

	ws.wg.Add(1)
	go func() {
		defer ws.wg.Done()
		ws.runRefreshWorker()
	}()

	ws.running = true
	log.Println("Background workers started successfully")

	return nil
}

// Stop stops all background workers
func (ws *WorkerService) Stop() {
	ws.mu.Lock()
	defer ws.mu.Unlock()

	if !ws.running {
		return // Not running
	}

	log.Println("Stopping background workers...")

	ws.cancel()
	ws.wg.Wait()

	ws.running = false
	log.Println("Background workers stopped")
}

// IsRunning returns whether the worker service is currently running
func (ws *WorkerService) IsRunning() bool {
	ws.mu.RLock()
	defer ws.mu.RUnlock()
	return ws.running
}

// runRefreshWorker periodically refreshes content records whose counts are
// older than the refresh interval. Excluded records still refresh: the
// exclusion flag only suppresses display, not tracking.
func (ws *WorkerService) runRefreshWorker() {
	log.Println("Starting counts refresh worker...")

	ticker := time.NewTicker(ws.refreshInterval / 4)
	defer ticker.Stop()

	for {
		select {
		case <-ws.ctx.Done():
			log.Println("Counts refresh worker stopped")
			return
		case <-ticker.C:
			ws.refreshStaleRecords()
		}
	}
}

// refreshStaleRecords refreshes one batch of stale records.
func (ws *WorkerService) refreshStaleRecords() {
	cutoff := time.Now().Add(-ws.refreshInterval)

	var records []models.ContentRecord
	err := ws.db.Where("last_updated IS NULL OR last_updated < ?", cutoff).
		Limit(ws.batchSize).
		Find(&records).Error
	if err != nil {
		log.Printf("Failed to query stale content records: %v", err)
		return
	}

	if len(records) == 0 {
		return
	}

	log.Printf("Refreshing counts for %d stale content records", len(records))

	for _, record := range records {
		if ws.ctx.Err() != nil {
			return
		}
		if _, err := ws.counts.RefreshCached(ws.ctx, record.ContentID); err != nil {
			log.Printf("Failed to refresh counts for %s: %v", record.ContentID, err)
			// Continue with the remaining records even if one fails
		}
	}
}

// envDuration returns a duration environment variable value or default
func envDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// envInt returns an integer environment variable value or default
func envInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
