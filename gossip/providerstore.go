package gossip

import (
	"sync"

	"github.com/google/btree"
)

// providerItem orders one content hash's known providers by provider_id so
// enumeration is deterministic; RankProviders re-scores the enumerated set
// at query time rather than trying to keep the tree itself freshness-
// ordered (freshness/latency/load all drift independently of provider_id).
type providerItem struct {
	record ProviderRecord
}

func (p providerItem) Less(than btree.Item) bool {
	other, ok := than.(providerItem)
	if !ok {
		return false
	}
	return p.record.ProviderID < other.record.ProviderID
}

// ProviderStore is a DHT-style map of content_hash -> known providers,
// backed by a btree per hash for deterministic ordered enumeration.
type ProviderStore struct {
	mu      sync.Mutex
	degree  int
	entries map[string]*btree.BTree
}

// NewProviderStore constructs an empty store.
func NewProviderStore() *ProviderStore {
	return &ProviderStore{degree: 16, entries: make(map[string]*btree.BTree)}
}

// Announce records (or replaces) one provider's advertisement for
// contentHash.
func (s *ProviderStore) Announce(contentHash string, record ProviderRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tree, ok := s.entries[contentHash]
	if !ok {
		tree = btree.New(s.degree)
		s.entries[contentHash] = tree
	}
	tree.ReplaceOrInsert(providerItem{record: record})
}

// Remove drops one provider's advertisement for contentHash, if present.
func (s *ProviderStore) Remove(contentHash, providerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tree, ok := s.entries[contentHash]
	if !ok {
		return
	}
	tree.Delete(providerItem{record: ProviderRecord{ProviderID: providerID}})
	if tree.Len() == 0 {
		delete(s.entries, contentHash)
	}
}

// Providers returns every known provider for contentHash, ordered by
// provider_id ascending.
func (s *ProviderStore) Providers(contentHash string) []ProviderRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	tree, ok := s.entries[contentHash]
	if !ok {
		return nil
	}
	out := make([]ProviderRecord, 0, tree.Len())
	tree.Ascend(func(item btree.Item) bool {
		out = append(out, item.(providerItem).record)
		return true
	})
	return out
}

// RankedProviders returns contentHash's providers ranked best-first by
// policy, evaluated as of nowMS.
func (s *ProviderStore) RankedProviders(contentHash string, policy ProviderSelectionPolicy, nowMS int64) []ProviderRecord {
	return policy.RankProviders(s.Providers(contentHash), nowMS)
}
