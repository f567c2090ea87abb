package numerator

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Mock is an in-memory Generator for tests.
type Mock struct {
	mu   sync.Mutex
	seqs map[string]int64
}

// NewMock creates a new mock generator.
func NewMock() *Mock {
	return &Mock{seqs: make(map[string]int64)}
}

// GetNextNumber implements Generator.
func (m *Mock) GetNextNumber(_ context.Context, cfg Config, _ *Options, period time.Time) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := cfg.Prefix + period.Format("2006")
	m.seqs[key]++

	padWidth := cfg.PadWidth
	if padWidth == 0 {
		padWidth = 5
	}
	if cfg.IncludeYear {
		return fmt.Sprintf("%s-%s-%0*d", cfg.Prefix, period.Format("2006"), padWidth, m.seqs[key]), nil
	}
	return fmt.Sprintf("%s-%0*d", cfg.Prefix, padWidth, m.seqs[key]), nil
}

var _ Generator = (*Mock)(nil)
