package di

import (
	"github.com/ZilDuck/marketplace-indexer/internal/config"
	"github.com/ZilDuck/marketplace-indexer/internal/daemon"
	"github.com/ZilDuck/marketplace-indexer/internal/elastic_search"
	"github.com/ZilDuck/marketplace-indexer/internal/ethereum"
	"github.com/ZilDuck/marketplace-indexer/internal/messenger"
	"github.com/ZilDuck/marketplace-indexer/internal/normalizer"
	"github.com/ZilDuck/marketplace-indexer/internal/projection"
	"github.com/ZilDuck/marketplace-indexer/internal/reconciliation"
	"github.com/ZilDuck/marketplace-indexer/internal/repository"
	"github.com/ZilDuck/marketplace-indexer/internal/subgraph"
	"github.com/sarulabs/di/v2"
	"go.uber.org/zap"
)

type Container struct {
	ctn di.Container
}

func NewContainer() (*Container, error) {
	builder, err := di.NewBuilder()
	if err != nil {
		return nil, err
	}

	if err := builder.Add(definitions...); err != nil {
		return nil, err
	}

	return &Container{ctn: builder.Build()}, nil
}

func (c *Container) GetElastic() elastic_search.Index {
	return c.ctn.Get("elastic").(elastic_search.Index)
}

func (c *Container) GetListingRepo() repository.ListingRepository {
	return c.ctn.Get("listing.repo").(repository.ListingRepository)
}

func (c *Container) GetBidRepo() repository.BidRepository {
	return c.ctn.Get("bid.repo").(repository.BidRepository)
}

func (c *Container) GetOfferRepo() repository.OfferRepository {
	return c.ctn.Get("offer.repo").(repository.OfferRepository)
}

func (c *Container) GetPurchaseRepo() repository.PurchaseRepository {
	return c.ctn.Get("purchase.repo").(repository.PurchaseRepository)
}

func (c *Container) GetEscrowRepo() repository.EscrowRepository {
	return c.ctn.Get("escrow.repo").(repository.EscrowRepository)
}

func (c *Container) GetCursorRepo() repository.CursorRepository {
	return c.ctn.Get("cursor.repo").(repository.CursorRepository)
}

func (c *Container) GetErrorRepo() repository.ErrorRepository {
	return c.ctn.Get("error.repo").(repository.ErrorRepository)
}

func (c *Container) GetReconciliationRepo() repository.ReconciliationRepository {
	return c.ctn.Get("reconciliation.repo").(repository.ReconciliationRepository)
}

func (c *Container) GetRewinder() repository.Rewinder {
	return c.ctn.Get("rewinder").(repository.Rewinder)
}

func (c *Container) GetProjectionStore() projection.Store {
	return c.ctn.Get("projection.store").(projection.Store)
}

func (c *Container) GetEngine() projection.Engine {
	return c.ctn.Get("projection.engine").(projection.Engine)
}

func (c *Container) GetNormalizer() normalizer.Normalizer {
	return c.ctn.Get("normalizer").(normalizer.Normalizer)
}

func (c *Container) GetEthereum() ethereum.Service {
	return c.ctn.Get("ethereum").(ethereum.Service)
}

func (c *Container) GetSubgraph() subgraph.Service {
	return c.ctn.Get("subgraph").(subgraph.Service)
}

func (c *Container) GetChecker() reconciliation.Checker {
	return c.ctn.Get("reconciliation.checker").(reconciliation.Checker)
}

func (c *Container) GetMessenger() messenger.MessageService {
	return c.ctn.Get("messenger").(messenger.MessageService)
}

func (c *Container) GetDaemon() daemon.Daemon {
	return c.ctn.Get("daemon").(daemon.Daemon)
}

var definitions = []di.Def{
	{
		Name: "elastic",
		Build: func(ctn di.Container) (interface{}, error) {
			elastic, err := elastic_search.New()
			if err != nil {
				zap.L().With(zap.Error(err)).Fatal("Failed to start ES")
			}

			return elastic, nil
		},
	},
	{
		Name: "listing.repo",
		Build: func(ctn di.Container) (interface{}, error) {
			return repository.NewListingRepository(ctn.Get("elastic").(elastic_search.Index)), nil
		},
	},
	{
		Name: "bid.repo",
		Build: func(ctn di.Container) (interface{}, error) {
			return repository.NewBidRepository(ctn.Get("elastic").(elastic_search.Index)), nil
		},
	},
	{
		Name: "offer.repo",
		Build: func(ctn di.Container) (interface{}, error) {
			return repository.NewOfferRepository(ctn.Get("elastic").(elastic_search.Index)), nil
		},
	},
	{
		Name: "purchase.repo",
		Build: func(ctn di.Container) (interface{}, error) {
			return repository.NewPurchaseRepository(ctn.Get("elastic").(elastic_search.Index)), nil
		},
	},
	{
		Name: "escrow.repo",
		Build: func(ctn di.Container) (interface{}, error) {
			return repository.NewEscrowRepository(ctn.Get("elastic").(elastic_search.Index)), nil
		},
	},
	{
		Name: "cursor.repo",
		Build: func(ctn di.Container) (interface{}, error) {
			return repository.NewCursorRepository(ctn.Get("elastic").(elastic_search.Index)), nil
		},
	},
	{
		Name: "error.repo",
		Build: func(ctn di.Container) (interface{}, error) {
			return repository.NewErrorRepository(ctn.Get("elastic").(elastic_search.Index)), nil
		},
	},
	{
		Name: "reconciliation.repo",
		Build: func(ctn di.Container) (interface{}, error) {
			return repository.NewReconciliationRepository(ctn.Get("elastic").(elastic_search.Index)), nil
		},
	},
	{
		Name: "rewinder",
		Build: func(ctn di.Container) (interface{}, error) {
			return repository.NewRewinder(
				ctn.Get("elastic").(elastic_search.Index),
				ctn.Get("listing.repo").(repository.ListingRepository),
				ctn.Get("cursor.repo").(repository.CursorRepository),
			), nil
		},
	},
	{
		Name: "projection.store",
		Build: func(ctn di.Container) (interface{}, error) {
			return repository.NewProjectionStore(
				ctn.Get("elastic").(elastic_search.Index),
				ctn.Get("listing.repo").(repository.ListingRepository),
				ctn.Get("bid.repo").(repository.BidRepository),
				ctn.Get("offer.repo").(repository.OfferRepository),
				ctn.Get("cursor.repo").(repository.CursorRepository),
			), nil
		},
	},
	{
		Name: "projection.engine",
		Build: func(ctn di.Container) (interface{}, error) {
			return projection.NewEngine(ctn.Get("projection.store").(projection.Store)), nil
		},
	},
	{
		Name: "normalizer",
		Build: func(ctn di.Container) (interface{}, error) {
			return normalizer.NewNormalizer(ctn.Get("error.repo").(repository.ErrorRepository)), nil
		},
	},
	{
		Name: "ethereum",
		Build: func(ctn di.Container) (interface{}, error) {
			client, err := ethereum.NewClient(
				config.Get().Ethereum.Url,
				config.Get().Ethereum.Timeout,
				config.Get().Ethereum.Debug,
			)
			if err != nil {
				zap.L().With(zap.Error(err)).Fatal("Failed to create ethereum client")
			}

			return ethereum.NewEthereumService(client), nil
		},
	},
	{
		Name: "subgraph",
		Build: func(ctn di.Container) (interface{}, error) {
			service, err := subgraph.NewSubgraphService(
				config.Get().Subgraph.Url,
				config.Get().Subgraph.Timeout,
			)
			if err != nil {
				zap.L().With(zap.Error(err)).Fatal("Failed to create subgraph service")
			}

			return service, nil
		},
	},
	{
		Name: "reconciliation.checker",
		Build: func(ctn di.Container) (interface{}, error) {
			return reconciliation.NewChecker(
				ctn.Get("ethereum").(ethereum.Service),
				ctn.Get("listing.repo").(repository.ListingRepository),
				ctn.Get("reconciliation.repo").(repository.ReconciliationRepository),
			), nil
		},
	},
	{
		Name: "messenger",
		Build: func(ctn di.Container) (interface{}, error) {
			return messenger.NewMessenger(config.Get().Amqp.Uri), nil
		},
	},
	{
		Name: "daemon",
		Build: func(ctn di.Container) (interface{}, error) {
			return daemon.NewDaemon(
				ctn.Get("subgraph").(subgraph.Service),
				ctn.Get("normalizer").(normalizer.Normalizer),
				ctn.Get("projection.engine").(projection.Engine),
				ctn.Get("projection.store").(projection.Store),
				ctn.Get("elastic").(elastic_search.Index),
				ctn.Get("reconciliation.checker").(reconciliation.Checker),
			), nil
		},
	},
}
