package websocket

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// SessionCleanupService closes sessions that have been idle for too long
type SessionCleanupService struct {
	hub      *Hub
	maxIdle  time.Duration
	interval time.Duration
	logger   *zap.Logger
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewSessionCleanupService creates a new session cleanup service
func NewSessionCleanupService(hub *Hub, maxIdle, interval time.Duration, logger *zap.Logger) *SessionCleanupService {
	if interval <= 0 {
		interval = time.Minute
	}
	return &SessionCleanupService{
		hub:      hub,
		maxIdle:  maxIdle,
		interval: interval,
		logger:   logger,
		stopChan: make(chan struct{}),
	}
}

// Start begins the background cleanup process
func (s *SessionCleanupService) Start() {
	if s.maxIdle <= 0 {
		s.logger.Info("Session cleanup disabled")
		return
	}
	go s.cleanupLoop()
	s.logger.Info("Session cleanup service started",
		zap.Duration("maxIdle", s.maxIdle),
		zap.Duration("interval", s.interval))
}

// Stop gracefully stops the cleanup service
func (s *SessionCleanupService) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
		s.logger.Info("Session cleanup service stopped")
	})
}

// cleanupLoop runs the cleanup process periodically
func (s *SessionCleanupService) cleanupLoop() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case now := <-ticker.C:
			s.runCleanup(now)
		}
	}
}

// runCleanup closes every client idle since before now-maxIdle
func (s *SessionCleanupService) runCleanup(now time.Time) int {
	closed := 0
	for _, client := range s.hub.snapshotClients() {
		if now.Sub(client.idleSince()) < s.maxIdle {
			continue
		}
		s.logger.Info("Closing idle session",
			zap.String("clientID", client.id),
			zap.Time("lastActivity", client.idleSince()))
		client.shutdown()
		closed++
	}

	if closed > 0 {
		s.logger.Info("Session cleanup completed", zap.Int("closed", closed))
	}
	return closed
}
