// internal/workers/scoring/train-models/handler.go
package trainmodels

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"talentrank-workers/internal/common/errors"
	"talentrank-workers/internal/common/logger"
	"talentrank-workers/internal/common/metrics"
	"talentrank-workers/internal/scoring"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "train-models"
)

// ArtifactStore persists trained ensembles and hands out version numbers.
type ArtifactStore interface {
	NextVersion(ctx context.Context) (int, error)
	SaveArtifact(ctx context.Context, version int, payload []byte) error
}

// ModelSwapper installs a freshly trained ensemble into the live scorer.
type ModelSwapper interface {
	Swap(e *scoring.Ensemble)
}

type Handler struct {
	cfg          *Config
	store        ArtifactStore
	scorer       ModelSwapper
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(cfg *Config, store ArtifactStore, scorer ModelSwapper, log logger.Logger) *Handler {
	workerLogger := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		cfg:          cfg,
		store:        store,
		scorer:       scorer,
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

// execute trains, persists, then swaps. Training failures leave the
// previously active model serving; a half-trained ensemble is never visible.
func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	version, err := h.store.NextVersion(ctx)
	if err != nil {
		return nil, errors.NewTrainingFailedError(err.Error())
	}
	versionTag := fmt.Sprintf("v%d", version)

	ensemble, err := scoring.TrainEnsemble(versionTag, input.Examples)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(ensemble)
	if err != nil {
		return nil, errors.NewTrainingFailedError(fmt.Sprintf("serialize artifact: %v", err))
	}
	if err := h.store.SaveArtifact(ctx, version, payload); err != nil {
		return nil, errors.NewTrainingFailedError(err.Error())
	}

	h.scorer.Swap(ensemble)

	h.logger.Info("model ensemble trained and activated", map[string]interface{}{
		"version": versionTag,
		"samples": ensemble.Samples,
	})
	return &Output{ModelVersion: versionTag, SamplesUsed: ensemble.Samples}, nil
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
