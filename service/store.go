package service

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/VoltaiLTD/voltdesigns/config"
	"github.com/VoltaiLTD/voltdesigns/model"
)

// QuoteStore is an in-memory store for submitted quotes. It exists for the
// sales team to inspect recent submissions; the authoritative copy of every
// quote is the emailed PDF.
type QuoteStore struct {
	quotes    map[string]*model.QuoteRecord
	mu        sync.RWMutex
	maxQuotes int // Maximum records to keep, 0 = unlimited
}

var (
	globalStore *QuoteStore
	storeOnce   sync.Once
)

// InitQuoteStore initializes the global quote store with configuration
func InitQuoteStore(cfg *config.StoreConfig) {
	storeOnce.Do(func() {
		maxQuotes := cfg.MaxQuotes
		if maxQuotes < 0 {
			maxQuotes = 0
		}
		globalStore = &QuoteStore{
			quotes:    make(map[string]*model.QuoteRecord),
			maxQuotes: maxQuotes,
		}
		slog.Info("quote store initialized", "max_quotes", maxQuotes)
	})
}

// GetQuoteStore returns the global quote store
func GetQuoteStore() *QuoteStore {
	if globalStore == nil {
		globalStore = &QuoteStore{
			quotes:    make(map[string]*model.QuoteRecord),
			maxQuotes: 200,
		}
	}
	return globalStore
}

func (s *QuoteStore) Save(record *model.QuoteRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record.UpdatedAt = time.Now()
	s.quotes[record.ID] = record

	s.cleanupIfNeeded()
}

func (s *QuoteStore) Get(id string) *model.QuoteRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.quotes[id]
}

// List returns all records, newest first.
func (s *QuoteStore) List() []*model.QuoteRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*model.QuoteRecord, 0, len(s.quotes))
	for _, r := range s.quotes {
		result = append(result, r)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result
}

func (s *QuoteStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.quotes, id)
}

func (s *QuoteStore) UpdateStatus(id, status string, errMsg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.quotes[id]; ok {
		r.Status = status
		r.ErrorMsg = errMsg
		r.UpdatedAt = time.Now()
	}
}

// SetArchiveURL records where the generated PDF was archived.
func (s *QuoteStore) SetArchiveURL(id, url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.quotes[id]; ok {
		r.ArchiveURL = url
		r.UpdatedAt = time.Now()
	}
}

// cleanupIfNeeded removes oldest records if store exceeds maxQuotes
// Must be called with lock held
func (s *QuoteStore) cleanupIfNeeded() {
	if s.maxQuotes <= 0 {
		return // Unlimited
	}

	if len(s.quotes) <= s.maxQuotes {
		return
	}

	records := make([]*model.QuoteRecord, 0, len(s.quotes))
	for _, r := range s.quotes {
		records = append(records, r)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.Before(records[j].CreatedAt)
	})

	removeCount := len(records) - s.maxQuotes
	for i := 0; i < removeCount; i++ {
		slog.Info("auto-cleaning old quote record",
			"quote_id", records[i].ID,
			"created_at", records[i].CreatedAt,
		)
		delete(s.quotes, records[i].ID)
	}
}

// Count returns the number of records in the store
func (s *QuoteStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.quotes)
}
