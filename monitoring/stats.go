package monitoring

import (
	"sync"
	"time"
)

// LastPrediction is the most recent prediction seen by the tracker.
type LastPrediction struct {
	Value     float64   `json:"value"`
	Level     string    `json:"level"`
	Timestamp time.Time `json:"timestamp"`
}

// StatsSnapshot is a point-in-time copy of the prediction counters.
type StatsSnapshot struct {
	Total         int64            `json:"total"`
	ByLevel       map[string]int64 `json:"by_level"`
	Last          *LastPrediction  `json:"last,omitempty"`
	UptimeSeconds float64          `json:"uptime_seconds"`
}

// PredictionStats counts served predictions per power level.
type PredictionStats struct {
	mu        sync.RWMutex
	total     int64
	byLevel   map[string]int64
	last      *LastPrediction
	startTime time.Time
}

func NewPredictionStats() *PredictionStats {
	return &PredictionStats{
		byLevel:   make(map[string]int64),
		startTime: time.Now(),
	}
}

// Record counts one served prediction.
func (s *PredictionStats) Record(level string, value float64) {
	s.mu.Lock()
	s.total++
	s.byLevel[level]++
	s.last = &LastPrediction{Value: value, Level: level, Timestamp: time.Now().UTC()}
	s.mu.Unlock()
}

// Snapshot returns a copy safe to serialize.
func (s *PredictionStats) Snapshot() StatsSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byLevel := make(map[string]int64, len(s.byLevel))
	for level, count := range s.byLevel {
		byLevel[level] = count
	}
	var last *LastPrediction
	if s.last != nil {
		copied := *s.last
		last = &copied
	}
	return StatsSnapshot{
		Total:         s.total,
		ByLevel:       byLevel,
		Last:          last,
		UptimeSeconds: time.Since(s.startTime).Seconds(),
	}
}
