package repository

import (
	"github.com/ZilDuck/marketplace-indexer/internal/dev"
	"github.com/ZilDuck/marketplace-indexer/internal/elastic_search"
)

type ErrorRepository interface {
	RecordError(err dev.Error)
}

type errorRepository struct {
	elastic elastic_search.Index
}

func NewErrorRepository(elastic elastic_search.Index) ErrorRepository {
	return errorRepository{elastic}
}

func (r errorRepository) RecordError(err dev.Error) {
	r.elastic.AddIndexRequest(elastic_search.ErrorIndex.Get(), err)
}
