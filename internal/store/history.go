// internal/store/history.go

// Package store holds the persistence adapters: ranking history snapshots in
// Elasticsearch, model artifacts and collaborator records in Postgres.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/google/uuid"

	"talentrank-workers/internal/common/errors"
	"talentrank-workers/internal/common/logger"
	"talentrank-workers/internal/models"
)

const defaultHistoryIndex = "ranking-history"

// windowQuerySize caps one window query. Snapshots are per ranking run, so
// even a busy quarter stays well under this.
const windowQuerySize = 1000

// RankingHistory persists ranking snapshots so bias reports can re-audit past
// runs. Snapshots are append-only; nothing updates a stored ranking.
type RankingHistory struct {
	es     *elasticsearch.Client
	index  string
	logger logger.Logger
}

func NewRankingHistory(es *elasticsearch.Client, index string, log logger.Logger) *RankingHistory {
	if index == "" {
		index = defaultHistoryIndex
	}
	return &RankingHistory{es: es, index: index, logger: log}
}

// SaveSnapshot appends one ranking result to the history index.
func (h *RankingHistory) SaveSnapshot(ctx context.Context, result *models.RankingResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return errors.NewHistoryWriteFailedError(err)
	}

	res, err := h.es.Index(
		h.index,
		bytes.NewReader(payload),
		h.es.Index.WithDocumentID(uuid.New().String()),
		h.es.Index.WithContext(ctx),
	)
	if err != nil {
		return errors.NewHistoryWriteFailedError(err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return errors.NewHistoryWriteFailedError(fmt.Errorf("index snapshot: %s", res.Status()))
	}

	h.logger.Debug("ranking snapshot saved", map[string]interface{}{
		"jobId":   result.JobID,
		"entries": len(result.Entries),
		"index":   h.index,
	})
	return nil
}

// Window returns every snapshot ranked at or after from, newest first.
// An empty jobID spans all jobs.
func (h *RankingHistory) Window(ctx context.Context, jobID string, from time.Time) ([]models.RankingResult, error) {
	query, err := json.Marshal(BuildWindowQuery(jobID, from, windowQuerySize))
	if err != nil {
		return nil, errors.NewHistoryQueryFailedError(err)
	}

	res, err := h.es.Search(
		h.es.Search.WithContext(ctx),
		h.es.Search.WithIndex(h.index),
		h.es.Search.WithBody(bytes.NewReader(query)),
	)
	if err != nil {
		return nil, errors.NewHistoryQueryFailedError(err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, errors.NewHistoryQueryFailedError(fmt.Errorf("window search: %s", res.Status()))
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				Source models.RankingResult `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, errors.NewHistoryQueryFailedError(err)
	}

	snapshots := make([]models.RankingResult, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		snapshots = append(snapshots, hit.Source)
	}
	return snapshots, nil
}

// BuildWindowQuery assembles the search body for a trailing-window lookup.
func BuildWindowQuery(jobID string, from time.Time, size int) map[string]interface{} {
	filters := []map[string]interface{}{
		{
			"range": map[string]interface{}{
				"rankedAt": map[string]interface{}{
					"gte": from.UTC().Format(time.RFC3339),
				},
			},
		},
	}
	if jobID != "" {
		filters = append(filters, map[string]interface{}{
			"term": map[string]interface{}{
				"jobId": jobID,
			},
		})
	}

	return map[string]interface{}{
		"size": size,
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"filter": filters,
			},
		},
		"sort": []map[string]interface{}{
			{"rankedAt": map[string]interface{}{"order": "desc"}},
		},
	}
}
