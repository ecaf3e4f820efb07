package repository

import (
	"encoding/json"

	"github.com/ZilDuck/marketplace-indexer/internal/elastic_search"
	"github.com/ZilDuck/marketplace-indexer/internal/entity"
	"github.com/olivere/elastic/v7"
)

type PurchaseRepository interface {
	GetPurchasesByListing(chainId uint64, marketplaceAddr string, listingId uint64, size, page int) ([]entity.Purchase, int64, error)
	GetPurchasesByBuyer(buyer string, size, page int) ([]entity.Purchase, int64, error)
}

type purchaseRepository struct {
	elastic elastic_search.Index
}

func NewPurchaseRepository(elastic elastic_search.Index) PurchaseRepository {
	return purchaseRepository{elastic}
}

func (r purchaseRepository) GetPurchasesByListing(chainId uint64, marketplaceAddr string, listingId uint64, size, page int) ([]entity.Purchase, int64, error) {
	query := elastic.NewBoolQuery().Must(
		elastic.NewTermQuery("chainId", chainId),
		elastic.NewTermQuery("marketplaceAddr.keyword", marketplaceAddr),
		elastic.NewTermQuery("listingId", listingId),
	)

	from := size*page - size

	result, err := search(r.elastic.GetClient().
		Search(elastic_search.PurchaseIndex.Get()).
		Query(query).
		Sort("blockNum", true).
		Sort("logIndex", true).
		TrackTotalHits(true).
		Size(size).
		From(from))

	return r.findMany(result, err)
}

func (r purchaseRepository) GetPurchasesByBuyer(buyer string, size, page int) ([]entity.Purchase, int64, error) {
	from := size*page - size

	result, err := search(r.elastic.GetClient().
		Search(elastic_search.PurchaseIndex.Get()).
		Query(elastic.NewTermQuery("buyer.keyword", buyer)).
		Sort("blockNum", false).
		TrackTotalHits(true).
		Size(size).
		From(from))

	return r.findMany(result, err)
}

func (r purchaseRepository) findMany(results *elastic.SearchResult, err error) ([]entity.Purchase, int64, error) {
	purchases := make([]entity.Purchase, 0)

	if err != nil {
		return purchases, 0, err
	}

	for _, hit := range results.Hits.Hits {
		var purchase entity.Purchase
		if err := json.Unmarshal(hit.Source, &purchase); err == nil {
			purchases = append(purchases, purchase)
		}
	}

	return purchases, results.TotalHits(), nil
}
