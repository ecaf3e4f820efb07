package repository

import (
	"encoding/json"
	"errors"

	"github.com/ZilDuck/marketplace-indexer/internal/elastic_search"
	"github.com/ZilDuck/marketplace-indexer/internal/entity"
	"github.com/olivere/elastic/v7"
)

var (
	ErrOfferNotFound = errors.New("offer not found")
)

type OfferRepository interface {
	GetOffer(chainId uint64, marketplaceAddr string, listingId uint64, offerer string) (*entity.Offer, error)
	GetOffersByListing(chainId uint64, marketplaceAddr string, listingId uint64, size, page int) ([]entity.Offer, int64, error)
	GetOffersByOfferer(offerer string, size, page int) ([]entity.Offer, int64, error)
}

type offerRepository struct {
	elastic elastic_search.Index
}

func NewOfferRepository(elastic elastic_search.Index) OfferRepository {
	return offerRepository{elastic}
}

func (r offerRepository) GetOffer(chainId uint64, marketplaceAddr string, listingId uint64, offerer string) (*entity.Offer, error) {
	if req := r.elastic.GetRequest(entity.CreateOfferSlug(chainId, marketplaceAddr, listingId, offerer)); req != nil {
		offer := req.Entity.(entity.Offer)
		return &offer, nil
	}

	query := elastic.NewBoolQuery().Must(
		elastic.NewTermQuery("chainId", chainId),
		elastic.NewTermQuery("marketplaceAddr.keyword", marketplaceAddr),
		elastic.NewTermQuery("listingId", listingId),
		elastic.NewTermQuery("offerer.keyword", offerer),
	)

	result, err := search(r.elastic.GetClient().
		Search(elastic_search.OfferIndex.Get()).
		Query(query).
		Size(1))

	if err != nil {
		return nil, err
	}

	if len(result.Hits.Hits) == 0 {
		return nil, ErrOfferNotFound
	}

	var offer entity.Offer
	if err = json.Unmarshal(result.Hits.Hits[0].Source, &offer); err != nil {
		return nil, err
	}

	return &offer, nil
}

func (r offerRepository) GetOffersByListing(chainId uint64, marketplaceAddr string, listingId uint64, size, page int) ([]entity.Offer, int64, error) {
	query := elastic.NewBoolQuery().Must(
		elastic.NewTermQuery("chainId", chainId),
		elastic.NewTermQuery("marketplaceAddr.keyword", marketplaceAddr),
		elastic.NewTermQuery("listingId", listingId),
	)

	from := size*page - size

	result, err := search(r.elastic.GetClient().
		Search(elastic_search.OfferIndex.Get()).
		Query(query).
		Sort("timestamp", true).
		TrackTotalHits(true).
		Size(size).
		From(from))

	return r.findMany(result, err)
}

func (r offerRepository) GetOffersByOfferer(offerer string, size, page int) ([]entity.Offer, int64, error) {
	from := size*page - size

	result, err := search(r.elastic.GetClient().
		Search(elastic_search.OfferIndex.Get()).
		Query(elastic.NewTermQuery("offerer.keyword", offerer)).
		Sort("timestamp", false).
		TrackTotalHits(true).
		Size(size).
		From(from))

	return r.findMany(result, err)
}

func (r offerRepository) findMany(results *elastic.SearchResult, err error) ([]entity.Offer, int64, error) {
	offers := make([]entity.Offer, 0)

	if err != nil {
		return offers, 0, err
	}

	for _, hit := range results.Hits.Hits {
		var offer entity.Offer
		if err := json.Unmarshal(hit.Source, &offer); err == nil {
			offers = append(offers, offer)
		}
	}

	return offers, results.TotalHits(), nil
}
