// internal/workers/bias/generate-bias-report/handler.go
package generatebiasreport

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
	TaskType = "generate-bias-report"
)

// ReportGenerator builds a bias report over a trailing window.
type ReportGenerator interface {
	Generate(ctx context.Context, jobID string, periodDays int) (*models.BiasReport, error)
}

// Alerter escalates reports that require attention.
type Alerter interface {
	AlertRequiresAttention(ctx context.Context, report *models.BiasReport) error
}

type Handler struct {
	cfg          *Config
	generator    ReportGenerator
	alerter      Alerter
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(cfg *Config, generator ReportGenerator, alerter Alerter, log logger.Logger) *Handler {
	workerLogger := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		cfg:          cfg,
		generator:    generator,
		alerter:      alerter,
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
	if input.PeriodDays < 0 {
		h.failJob(client, job, "PARSE_ERROR", "periodDays must not be negative")
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
	periodDays := input.PeriodDays
	if periodDays == 0 {
		periodDays = h.cfg.DefaultPeriodDays
	}

	report, err := h.generator.Generate(ctx, input.JobID, periodDays)
	if err != nil {
		return nil, err
	}

	// Alerting is best-effort; the report itself is the deliverable.
	if report.RequiresAttention {
		if err := h.alerter.AlertRequiresAttention(ctx, report); err != nil {
			h.logger.Error("bias attention alert failed", map[string]interface{}{
				"jobId": input.JobID,
				"error": err.Error(),
			})
		}
	}

	return &Output{Report: report}, nil
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
