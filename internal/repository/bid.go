package repository

import (
	"encoding/json"
	"errors"

	"github.com/ZilDuck/marketplace-indexer/internal/elastic_search"
	"github.com/ZilDuck/marketplace-indexer/internal/entity"
	"github.com/olivere/elastic/v7"
)

var (
	ErrBidNotFound = errors.New("bid not found")
)

type BidRepository interface {
	GetBid(slug string) (*entity.Bid, error)
	GetBidsByListing(chainId uint64, marketplaceAddr string, listingId uint64, size, page int) ([]entity.Bid, int64, error)
	GetBidsByBidder(bidder string, size, page int) ([]entity.Bid, int64, error)
}

type bidRepository struct {
	elastic elastic_search.Index
}

func NewBidRepository(elastic elastic_search.Index) BidRepository {
	return bidRepository{elastic}
}

func (r bidRepository) GetBid(slug string) (*entity.Bid, error) {
	if req := r.elastic.GetRequest(slug); req != nil {
		bid := req.Entity.(entity.Bid)
		return &bid, nil
	}

	result, err := search(r.elastic.GetClient().
		Search(elastic_search.BidIndex.Get()).
		Query(elastic.NewTermQuery("_id", slug)).
		Size(1))

	if err != nil {
		return nil, err
	}

	if len(result.Hits.Hits) == 0 {
		return nil, ErrBidNotFound
	}

	var bid entity.Bid
	if err = json.Unmarshal(result.Hits.Hits[0].Source, &bid); err != nil {
		return nil, err
	}

	return &bid, nil
}

func (r bidRepository) GetBidsByListing(chainId uint64, marketplaceAddr string, listingId uint64, size, page int) ([]entity.Bid, int64, error) {
	query := elastic.NewBoolQuery().Must(
		elastic.NewTermQuery("chainId", chainId),
		elastic.NewTermQuery("marketplaceAddr.keyword", marketplaceAddr),
		elastic.NewTermQuery("listingId", listingId),
	)

	from := size*page - size

	result, err := search(r.elastic.GetClient().
		Search(elastic_search.BidIndex.Get()).
		Query(query).
		Sort("blockNum", true).
		Sort("logIndex", true).
		TrackTotalHits(true).
		Size(size).
		From(from))

	return r.findMany(result, err)
}

func (r bidRepository) GetBidsByBidder(bidder string, size, page int) ([]entity.Bid, int64, error) {
	from := size*page - size

	result, err := search(r.elastic.GetClient().
		Search(elastic_search.BidIndex.Get()).
		Query(elastic.NewTermQuery("bidder.keyword", bidder)).
		Sort("blockNum", false).
		TrackTotalHits(true).
		Size(size).
		From(from))

	return r.findMany(result, err)
}

func (r bidRepository) findMany(results *elastic.SearchResult, err error) ([]entity.Bid, int64, error) {
	bids := make([]entity.Bid, 0)

	if err != nil {
		return bids, 0, err
	}

	for _, hit := range results.Hits.Hits {
		var bid entity.Bid
		if err := json.Unmarshal(hit.Source, &bid); err == nil {
			bids = append(bids, bid)
		}
	}

	return bids, results.TotalHits(), nil
}
