package repository

import (
	"encoding/json"

	"github.com/ZilDuck/marketplace-indexer/internal/elastic_search"
	"github.com/ZilDuck/marketplace-indexer/internal/entity"
	"github.com/olivere/elastic/v7"
)

type EscrowRepository interface {
	GetEscrowsByListing(chainId uint64, marketplaceAddr string, listingId uint64, size, page int) ([]entity.Escrow, int64, error)
	GetEscrowsByReceiver(receiver string, size, page int) ([]entity.Escrow, int64, error)
}

type escrowRepository struct {
	elastic elastic_search.Index
}

func NewEscrowRepository(elastic elastic_search.Index) EscrowRepository {
	return escrowRepository{elastic}
}

func (r escrowRepository) GetEscrowsByListing(chainId uint64, marketplaceAddr string, listingId uint64, size, page int) ([]entity.Escrow, int64, error) {
	query := elastic.NewBoolQuery().Must(
		elastic.NewTermQuery("chainId", chainId),
		elastic.NewTermQuery("marketplaceAddr.keyword", marketplaceAddr),
		elastic.NewTermQuery("listingId", listingId),
	)

	from := size*page - size

	result, err := search(r.elastic.GetClient().
		Search(elastic_search.EscrowIndex.Get()).
		Query(query).
		Sort("sourceEventId.keyword", true).
		TrackTotalHits(true).
		Size(size).
		From(from))

	return r.findMany(result, err)
}

func (r escrowRepository) GetEscrowsByReceiver(receiver string, size, page int) ([]entity.Escrow, int64, error) {
	from := size*page - size

	result, err := search(r.elastic.GetClient().
		Search(elastic_search.EscrowIndex.Get()).
		Query(elastic.NewTermQuery("receiver.keyword", receiver)).
		Sort("sourceEventId.keyword", true).
		TrackTotalHits(true).
		Size(size).
		From(from))

	return r.findMany(result, err)
}

func (r escrowRepository) findMany(results *elastic.SearchResult, err error) ([]entity.Escrow, int64, error) {
	escrows := make([]entity.Escrow, 0)

	if err != nil {
		return escrows, 0, err
	}

	for _, hit := range results.Hits.Hits {
		var escrow entity.Escrow
		if err := json.Unmarshal(hit.Source, &escrow); err == nil {
			escrows = append(escrows, escrow)
		}
	}

	return escrows, results.TotalHits(), nil
}
