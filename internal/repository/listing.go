package repository

import (
	"encoding/json"
	"errors"

	"github.com/ZilDuck/marketplace-indexer/internal/elastic_search"
	"github.com/ZilDuck/marketplace-indexer/internal/entity"
	"github.com/olivere/elastic/v7"
)

var (
	ErrListingNotFound = errors.New("listing not found")
)

type ListingFilter struct {
	Status      entity.ListingStatus
	ListingType entity.ListingType
	Seller      string
	TokenAddr   string
}

type ListingRepository interface {
	GetListing(chainId uint64, marketplaceAddr string, listingId uint64) (*entity.Listing, error)
	QueryListings(filter ListingFilter, size, page int, orderBy string) ([]entity.Listing, int64, error)
	GetActiveListings(size, page int) ([]entity.Listing, int64, error)
	GetListingsBySeller(seller string, size, page int) ([]entity.Listing, int64, error)
	GetListingsTouchedAfter(chainId uint64, marketplaceAddr string, blockNum uint64, size, page int) ([]entity.Listing, int64, error)
}

type listingRepository struct {
	elastic elastic_search.Index
}

func NewListingRepository(elastic elastic_search.Index) ListingRepository {
	return listingRepository{elastic}
}

func (r listingRepository) GetListing(chainId uint64, marketplaceAddr string, listingId uint64) (*entity.Listing, error) {
	// A listing touched earlier in the current batch lives in the request
	// buffer, not yet in the index.
	if req := r.elastic.GetRequest(entity.CreateListingSlug(chainId, marketplaceAddr, listingId)); req != nil {
		listing := req.Entity.(entity.Listing)
		return &listing, nil
	}

	query := elastic.NewBoolQuery().Must(
		elastic.NewTermQuery("chainId", chainId),
		elastic.NewTermQuery("marketplaceAddr.keyword", marketplaceAddr),
		elastic.NewTermQuery("listingId", listingId),
	)

	result, err := search(r.elastic.GetClient().
		Search(elastic_search.ListingIndex.Get()).
		Query(query).
		Size(1))

	return r.findOne(result, err)
}

func (r listingRepository) QueryListings(filter ListingFilter, size, page int, orderBy string) ([]entity.Listing, int64, error) {
	query := elastic.NewBoolQuery()
	if filter.Status != "" {
		query.Must(elastic.NewTermQuery("status.keyword", string(filter.Status)))
	}
	if filter.ListingType != "" {
		query.Must(elastic.NewTermQuery("listingType.keyword", string(filter.ListingType)))
	}
	if filter.Seller != "" {
		query.Must(elastic.NewTermQuery("seller.keyword", filter.Seller))
	}
	if filter.TokenAddr != "" {
		query.Must(elastic.NewTermQuery("tokenAddr.keyword", filter.TokenAddr))
	}

	if orderBy == "" {
		orderBy = "listingId"
	}

	from := size*page - size

	result, err := search(r.elastic.GetClient().
		Search(elastic_search.ListingIndex.Get()).
		Query(query).
		Sort(orderBy, false).
		TrackTotalHits(true).
		Size(size).
		From(from))

	return r.findMany(result, err)
}

func (r listingRepository) GetActiveListings(size, page int) ([]entity.Listing, int64, error) {
	return r.QueryListings(ListingFilter{Status: entity.ListingActive}, size, page, "listingId")
}

func (r listingRepository) GetListingsBySeller(seller string, size, page int) ([]entity.Listing, int64, error) {
	return r.QueryListings(ListingFilter{Seller: seller}, size, page, "listingId")
}

func (r listingRepository) GetListingsTouchedAfter(chainId uint64, marketplaceAddr string, blockNum uint64, size, page int) ([]entity.Listing, int64, error) {
	query := elastic.NewBoolQuery().Must(
		elastic.NewTermQuery("chainId", chainId),
		elastic.NewTermQuery("marketplaceAddr.keyword", marketplaceAddr),
		elastic.NewRangeQuery("lastEventBlock").Gt(blockNum),
	)

	from := size*page - size

	result, err := search(r.elastic.GetClient().
		Search(elastic_search.ListingIndex.Get()).
		Query(query).
		Sort("listingId", true).
		TrackTotalHits(true).
		Size(size).
		From(from))

	return r.findMany(result, err)
}

func (r listingRepository) findOne(results *elastic.SearchResult, err error) (*entity.Listing, error) {
	if err != nil {
		return nil, err
	}

	if len(results.Hits.Hits) == 0 {
		return nil, ErrListingNotFound
	}

	var listing entity.Listing
	hit := results.Hits.Hits[0]
	if err = json.Unmarshal(hit.Source, &listing); err != nil {
		return nil, err
	}

	return &listing, nil
}

func (r listingRepository) findMany(results *elastic.SearchResult, err error) ([]entity.Listing, int64, error) {
	listings := make([]entity.Listing, 0)

	if err != nil {
		return listings, 0, err
	}

	for _, hit := range results.Hits.Hits {
		var listing entity.Listing
		if err := json.Unmarshal(hit.Source, &listing); err == nil {
			listings = append(listings, listing)
		}
	}

	return listings, results.TotalHits(), nil
}
