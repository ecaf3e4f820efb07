package repository

import (
	"encoding/json"

	"github.com/ZilDuck/marketplace-indexer/internal/elastic_search"
	"github.com/ZilDuck/marketplace-indexer/internal/entity"
	"github.com/olivere/elastic/v7"
)

type ReconciliationRepository interface {
	SaveReconciliation(reconciliation entity.Reconciliation)
	GetMismatches(size, page int) ([]entity.Reconciliation, int64, error)
}

type reconciliationRepository struct {
	elastic elastic_search.Index
}

func NewReconciliationRepository(elastic elastic_search.Index) ReconciliationRepository {
	return reconciliationRepository{elastic}
}

func (r reconciliationRepository) SaveReconciliation(reconciliation entity.Reconciliation) {
	r.elastic.AddIndexRequest(elastic_search.ReconciliationIndex.Get(), reconciliation)
}

func (r reconciliationRepository) GetMismatches(size, page int) ([]entity.Reconciliation, int64, error) {
	from := size*page - size

	result, err := search(r.elastic.GetClient().
		Search(elastic_search.ReconciliationIndex.Get()).
		Query(elastic.NewTermQuery("match", false)).
		Sort("checkedAt", false).
		TrackTotalHits(true).
		Size(size).
		From(from))

	reconciliations := make([]entity.Reconciliation, 0)

	if err != nil {
		return reconciliations, 0, err
	}

	for _, hit := range result.Hits.Hits {
		var reconciliation entity.Reconciliation
		if err := json.Unmarshal(hit.Source, &reconciliation); err == nil {
			reconciliations = append(reconciliations, reconciliation)
		}
	}

	return reconciliations, result.TotalHits(), nil
}
