package daemon

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/ZilDuck/marketplace-indexer/internal/config"
	"github.com/ZilDuck/marketplace-indexer/internal/elastic_search"
	"github.com/ZilDuck/marketplace-indexer/internal/normalizer"
	"github.com/ZilDuck/marketplace-indexer/internal/projection"
	"github.com/ZilDuck/marketplace-indexer/internal/reconciliation"
	"github.com/ZilDuck/marketplace-indexer/internal/subgraph"
	"go.uber.org/zap"
)

const maxBackoff = 5 * time.Minute

type Daemon interface {
	Execute(ctx context.Context)
}

type daemon struct {
	subgraph   subgraph.Service
	normalizer normalizer.Normalizer
	engine     projection.Engine
	store      projection.Store
	elastic    elastic_search.Index
	checker    reconciliation.Checker

	// stage serializes every stage-and-persist section on the shared elastic
	// request buffer. Without it one goroutine's Persist could flush another's
	// half staged event, and a ClearRequests could wipe another's batch.
	stage *sync.Mutex
}

func NewDaemon(
	subgraph subgraph.Service,
	normalizer normalizer.Normalizer,
	engine projection.Engine,
	store projection.Store,
	elastic elastic_search.Index,
	checker reconciliation.Checker,
) Daemon {
	return daemon{subgraph, normalizer, engine, store, elastic, checker, &sync.Mutex{}}
}

func (d daemon) Execute(ctx context.Context) {
	d.elastic.InstallMappings()

	if config.Get().Reindex == true {
		zap.L().Info("Reindex complete")
		return
	}

	var wg sync.WaitGroup

	for _, marketplace := range config.Get().Marketplaces {
		wg.Add(1)
		go func(marketplace config.MarketplaceConfig) {
			defer wg.Done()
			d.watch(ctx, marketplace)
		}(marketplace)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		d.reconcile(ctx)
	}()

	wg.Wait()
}

// watch polls the subgraph for a single marketplace contract. The cursor only
// advances after a batch is fully applied and persisted, so a source outage
// stalls ingestion rather than skipping blocks.
func (d daemon) watch(ctx context.Context, marketplace config.MarketplaceConfig) {
	zap.L().With(
		zap.String("contractAddr", marketplace.ContractAddr),
		zap.Uint64("chainId", marketplace.ChainId),
	).Info("Daemon: Watching marketplace")

	poll := time.Duration(config.Get().PollInterval) * time.Second
	backoff := poll

	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(withJitter(backoff)):
		}

		if err := d.ingest(marketplace); err != nil {
			backoff = backoff * 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
			zap.L().With(
				zap.Error(err),
				zap.String("contractAddr", marketplace.ContractAddr),
				zap.Duration("backoff", backoff),
			).Warn("Daemon: Ingestion failed")
			continue
		}

		backoff = poll
	}
}

func (d daemon) ingest(marketplace config.MarketplaceConfig) error {
	head, err := d.subgraph.GetLatestBlockNum()
	if err != nil {
		return err
	}

	if head < config.Get().Confirmations {
		return nil
	}
	target := head - config.Get().Confirmations

	cursor, err := d.store.GetCursor(marketplace.ChainId, marketplace.ContractAddr)
	if err != nil {
		return err
	}

	from := cursor + 1
	if cursor == 0 && config.Get().FirstBlockNum != 0 {
		from = config.Get().FirstBlockNum
	}

	if from > target {
		return nil
	}

	to := target
	if batchSize := config.Get().BatchSize; to-from+1 > batchSize {
		to = from + batchSize - 1
	}

	logs, err := d.subgraph.GetEvents(marketplace.ContractAddr, marketplace.ChainId, from, to)
	if err != nil {
		return err
	}

	d.stage.Lock()
	defer d.stage.Unlock()

	for _, marketplaceEvent := range d.normalizer.Normalize(logs) {
		if err := d.engine.Apply(marketplaceEvent); err != nil {
			d.elastic.ClearRequests()
			d.engine.DiscardEvents()
			return err
		}
	}

	d.store.SetCursor(marketplace.ChainId, marketplace.ContractAddr, to)
	d.elastic.Persist()
	d.engine.FlushEvents()

	zap.L().With(
		zap.String("contractAddr", marketplace.ContractAddr),
		zap.Uint64("from", from),
		zap.Uint64("to", to),
		zap.Int("logs", len(logs)),
	).Info("Daemon: Batch applied")

	return nil
}

func (d daemon) reconcile(ctx context.Context) {
	interval := time.Duration(config.Get().ReconcileInterval) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.sweep(ctx)
		}
	}
}

// sweep runs one reconciliation pass. It stages reports into the shared
// request buffer, so it takes the staging lock for the whole pass.
func (d daemon) sweep(ctx context.Context) {
	d.stage.Lock()
	defer d.stage.Unlock()

	if err := d.checker.CheckActive(ctx, config.Get().ReconcileSize); err != nil {
		zap.L().With(zap.Error(err)).Error("Daemon: Reconciliation sweep failed")
		return
	}
	d.elastic.Persist()
}

// withJitter spreads waits by up to a quarter so stalled pipelines do not
// retry in lockstep.
func withJitter(d time.Duration) time.Duration {
	return d + time.Duration(rand.Int63n(int64(d/4)+1))
}
