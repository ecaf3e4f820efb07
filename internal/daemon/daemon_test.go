package daemon

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ZilDuck/marketplace-indexer/internal/config"
	"github.com/ZilDuck/marketplace-indexer/internal/elastic_search"
	"github.com/ZilDuck/marketplace-indexer/internal/entity"
	"github.com/ZilDuck/marketplace-indexer/internal/projection"
)

type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, name)
}

func (l *callLog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string{}, l.calls...)
}

type mockSubgraph struct {
	head uint64
	logs []entity.RawLog
}

func (m mockSubgraph) GetLatestBlockNum() (uint64, error) {
	return m.head, nil
}

func (m mockSubgraph) GetEvents(contractAddr string, chainId, fromBlock, toBlock uint64) ([]entity.RawLog, error) {
	return m.logs, nil
}

type mockNormalizer struct {
	events []entity.MarketplaceEvent
}

func (m mockNormalizer) Normalize(logs []entity.RawLog) []entity.MarketplaceEvent {
	return m.events
}

type mockEngine struct {
	mu        sync.Mutex
	applied   int
	failAfter int
	err       error
	discarded int
	log       *callLog
	block     chan struct{}
}

func (m *mockEngine) Apply(e entity.MarketplaceEvent) error {
	m.mu.Lock()
	m.applied++
	applied := m.applied
	m.mu.Unlock()

	if m.block != nil {
		<-m.block
	}

	if m.err != nil && applied > m.failAfter {
		return m.err
	}
	return nil
}

func (m *mockEngine) FlushEvents() {
	if m.log != nil {
		m.log.add("flush")
	}
}

func (m *mockEngine) DiscardEvents() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.discarded++
}

func (m *mockEngine) appliedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.applied
}

type mockIndex struct {
	elastic_search.Index

	mu       sync.Mutex
	persists int
	clears   int
	log      *callLog
}

func (m *mockIndex) Persist() int {
	m.mu.Lock()
	m.persists++
	m.mu.Unlock()
	if m.log != nil {
		m.log.add("persist")
	}
	return 0
}

func (m *mockIndex) ClearRequests() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clears++
}

func (m *mockIndex) persistCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.persists
}

type mockChecker struct {
	mu     sync.Mutex
	sweeps int
}

func (m *mockChecker) CheckListing(listing entity.Listing) (entity.Reconciliation, error) {
	return entity.Reconciliation{}, nil
}

func (m *mockChecker) CheckActive(ctx context.Context, size int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweeps++
	return nil
}

func testDaemon(eng *mockEngine, index *mockIndex, store projection.Store) daemon {
	return daemon{
		subgraph:   mockSubgraph{head: 1000, logs: []entity.RawLog{{}}},
		normalizer: mockNormalizer{events: []entity.MarketplaceEvent{{Id: "e1"}, {Id: "e2"}}},
		engine:     eng,
		store:      store,
		elastic:    index,
		checker:    &mockChecker{},
		stage:      &sync.Mutex{},
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestIngestHaltsWhenApplyFails(t *testing.T) {
	store := projection.NewMemoryStore()
	eng := &mockEngine{err: errors.New("elastic: connection refused"), failAfter: 1}
	index := &mockIndex{}
	d := testDaemon(eng, index, store)

	marketplace := config.MarketplaceConfig{ContractAddr: "0xmarketplace", ChainId: 1}
	if err := d.ingest(marketplace); err == nil {
		t.Fatal("ingest returned nil on a storage failure, cursor would advance past a lost event")
	}

	if index.clears != 1 {
		t.Errorf("ClearRequests calls = %d, want 1, the staged half batch must be dropped", index.clears)
	}
	if eng.discarded != 1 {
		t.Errorf("DiscardEvents calls = %d, want 1", eng.discarded)
	}
	if index.persistCount() != 0 {
		t.Errorf("Persist calls = %d, want 0 after a failed batch", index.persistCount())
	}

	cursor, err := store.GetCursor(1, "0xmarketplace")
	if err != nil {
		t.Fatalf("GetCursor error = %v", err)
	}
	if cursor != 0 {
		t.Errorf("cursor = %d, want 0, a failed batch must not advance the cursor", cursor)
	}
}

func TestIngestCommitsBatch(t *testing.T) {
	store := projection.NewMemoryStore()
	log := &callLog{}
	eng := &mockEngine{log: log}
	index := &mockIndex{log: log}
	d := testDaemon(eng, index, store)

	marketplace := config.MarketplaceConfig{ContractAddr: "0xmarketplace", ChainId: 1}
	if err := d.ingest(marketplace); err != nil {
		t.Fatalf("ingest error = %v", err)
	}

	cursor, err := store.GetCursor(1, "0xmarketplace")
	if err != nil {
		t.Fatalf("GetCursor error = %v", err)
	}
	if cursor == 0 {
		t.Error("cursor did not advance after a committed batch")
	}

	calls := log.snapshot()
	want := []string{"persist", "flush"}
	if len(calls) != len(want) || calls[0] != want[0] || calls[1] != want[1] {
		t.Errorf("calls = %v, want persist then flush, events fire only after commit", calls)
	}
}

func TestSweepWaitsForStagedBatch(t *testing.T) {
	store := projection.NewMemoryStore()
	log := &callLog{}
	release := make(chan struct{})
	eng := &mockEngine{log: log, block: release}
	index := &mockIndex{log: log}
	d := testDaemon(eng, index, store)

	marketplace := config.MarketplaceConfig{ContractAddr: "0xmarketplace", ChainId: 1}

	ingestDone := make(chan error, 1)
	go func() {
		ingestDone <- d.ingest(marketplace)
	}()

	waitFor(t, func() bool { return eng.appliedCount() >= 1 })

	sweepDone := make(chan struct{})
	go func() {
		d.sweep(context.Background())
		close(sweepDone)
	}()

	time.Sleep(50 * time.Millisecond)
	if got := index.persistCount(); got != 0 {
		t.Fatalf("Persist calls = %d while a batch was mid staging, want 0", got)
	}

	close(release)
	if err := <-ingestDone; err != nil {
		t.Fatalf("ingest error = %v", err)
	}
	<-sweepDone

	calls := log.snapshot()
	want := []string{"persist", "flush", "persist"}
	if len(calls) != len(want) {
		t.Fatalf("calls = %v, want %v", calls, want)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Fatalf("calls = %v, want %v, the sweep must not flush inside another batch", calls, want)
		}
	}
}

func TestWithJitterBounds(t *testing.T) {
	base := 10 * time.Second
	for i := 0; i < 100; i++ {
		got := withJitter(base)
		if got < base || got > base+base/4 {
			t.Fatalf("withJitter(%s) = %s, want within [%s, %s]", base, got, base, base+base/4)
		}
	}
}
