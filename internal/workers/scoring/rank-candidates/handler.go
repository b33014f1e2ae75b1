// internal/workers/scoring/rank-candidates/handler.go
package rankcandidates

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"talentrank-workers/internal/common/errors"
	"talentrank-workers/internal/common/logger"
	"talentrank-workers/internal/common/metrics"
	"talentrank-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "rank-candidates"
)

// Ranker produces the ordered candidate list for a job.
type Ranker interface {
	Rank(ctx context.Context, jobID string) (*models.RankingResult, error)
}

// SnapshotStore persists ranking results for later bias audits.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, result *models.RankingResult) error
}

type Handler struct {
	cfg          *Config
	ranker       Ranker
	history      SnapshotStore
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(cfg *Config, ranker Ranker, history SnapshotStore, log logger.Logger) *Handler {
	workerLogger := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		cfg:          cfg,
		ranker:       ranker,
		history:      history,
		errorHandler: errors.NewErrorHandler(workerLogger),
		logger:       workerLogger,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(client, job, "PARSE_ERROR", fmt.Sprintf("parse input: %v", err))
		return
	}
	if input.JobID == "" {
		h.failJob(client, job, "PARSE_ERROR", "jobId is required")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.cfg.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(errors.CodeOf(err))).Inc()
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return
	}

	h.completeJob(client, job, output)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	result, err := h.ranker.Rank(ctx, input.JobID)
	if err != nil {
		return nil, err
	}

	// The ranking is still valid when the snapshot write fails; history
	// catches up on the next run.
	if err := h.history.SaveSnapshot(ctx, result); err != nil {
		h.logger.Error("ranking snapshot write failed", map[string]interface{}{
			"jobId": input.JobID,
			"error": err.Error(),
		})
	}

	h.logger.Info("candidates ranked", map[string]interface{}{
		"jobId":    input.JobID,
		"ranked":   len(result.Entries),
		"unranked": len(result.Unranked),
	})

	return &Output{
		Ranking:       result,
		RankedCount:   len(result.Entries),
		UnrankedCount: len(result.Unranked),
	}, nil
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	_, err = cmd.Send(context.Background())
	if err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
	}
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, errorCode, errorMessage string) {
	h.logger.Error("job failed", map[string]interface{}{
		"jobKey":       job.Key,
		"errorCode":    errorCode,
		"errorMessage": errorMessage,
	})

	_, err := client.NewThrowErrorCommand().
		JobKey(job.Key).
		ErrorCode(errorCode).
		ErrorMessage(errorMessage).
		Send(context.Background())
	if err != nil {
		h.logger.Error("failed to throw error", map[string]interface{}{
			"error": err,
		})
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
