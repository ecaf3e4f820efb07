package repository

import (
	"encoding/json"
	"errors"

	"github.com/ZilDuck/marketplace-indexer/internal/elastic_search"
	"github.com/ZilDuck/marketplace-indexer/internal/entity"
	"github.com/olivere/elastic/v7"
)

var (
	ErrCursorNotFound = errors.New("cursor not found")
)

type CursorRepository interface {
	GetCursor(chainId uint64, contractAddr string) (*entity.Cursor, error)
	SetCursor(cursor entity.Cursor)
}

type cursorRepository struct {
	elastic elastic_search.Index
}

func NewCursorRepository(elastic elastic_search.Index) CursorRepository {
	return cursorRepository{elastic}
}

func (r cursorRepository) GetCursor(chainId uint64, contractAddr string) (*entity.Cursor, error) {
	if req := r.elastic.GetRequest(entity.CreateCursorSlug(chainId, contractAddr)); req != nil {
		cursor := req.Entity.(entity.Cursor)
		return &cursor, nil
	}

	query := elastic.NewBoolQuery().Must(
		elastic.NewTermQuery("chainId", chainId),
		elastic.NewTermQuery("contractAddr.keyword", contractAddr),
	)

	result, err := search(r.elastic.GetClient().
		Search(elastic_search.CursorIndex.Get()).
		Query(query).
		Size(1))

	if err != nil {
		return nil, err
	}

	if len(result.Hits.Hits) == 0 {
		return nil, ErrCursorNotFound
	}

	var cursor entity.Cursor
	if err = json.Unmarshal(result.Hits.Hits[0].Source, &cursor); err != nil {
		return nil, err
	}

	return &cursor, nil
}

func (r cursorRepository) SetCursor(cursor entity.Cursor) {
	r.elastic.AddIndexRequest(elastic_search.CursorIndex.Get(), cursor)
}
