// internal/scoring/contextual.go

package scoring

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"

	"talentrank-workers/internal/common/config"
	"talentrank-workers/internal/common/errors"
	commonhttp "talentrank-workers/internal/common/http"
	"talentrank-workers/internal/common/logger"
	"talentrank-workers/internal/models"
)

const contextualScorerVersion = "1"

// contextualResponseSchema validates the assessment service payload before
// any field is trusted. A response that fails validation is treated the same
// as an unreachable service.
const contextualResponseSchema = `{
	"type": "object",
	"required": ["score", "assessment"],
	"properties": {
		"score": {"type": "number", "minimum": 0, "maximum": 100},
		"assessment": {"type": "string"},
		"strengths": {"type": "array", "items": {"type": "string"}},
		"weaknesses": {"type": "array", "items": {"type": "string"}},
		"interviewQuestions": {"type": "array", "items": {"type": "string"}},
		"confidence": {"type": "number", "minimum": 0, "maximum": 1}
	}
}`

type contextualRequest struct {
	CandidateID    string   `json:"candidateId"`
	ResumeText     string   `json:"resumeText"`
	Skills         []string `json:"skills"`
	JobTitle       string   `json:"jobTitle"`
	JobDescription string   `json:"jobDescription"`
	RequiredSkills []string `json:"requiredSkills"`
}

type contextualResponse struct {
	Score              float64  `json:"score"`
	Assessment         string   `json:"assessment"`
	Strengths          []string `json:"strengths"`
	Weaknesses         []string `json:"weaknesses"`
	InterviewQuestions []string `json:"interviewQuestions"`
	Confidence         float64  `json:"confidence"`
}

// ContextualScorer calls the external qualitative-assessment service. Every
// failure mode (disabled, timeout, transport error, schema violation) maps to
// PROVIDER_UNAVAILABLE so one slow dependency degrades the composite instead
// of sinking it. A semaphore caps in-flight calls.
type ContextualScorer struct {
	cfg    config.ContextualConfig
	client *commonhttp.Client
	schema *gojsonschema.Schema
	sem    chan struct{}
	logger logger.Logger
}

func NewContextualScorer(cfg config.ContextualConfig, log logger.Logger) (*ContextualScorer, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(contextualResponseSchema))
	if err != nil {
		return nil, fmt.Errorf("compile contextual response schema: %w", err)
	}
	concurrency := cfg.MaxConcurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	return &ContextualScorer{
		cfg:    cfg,
		client: commonhttp.NewClient(cfg.Timeout),
		schema: schema,
		sem:    make(chan struct{}, concurrency),
		logger: log,
	}, nil
}

func (s *ContextualScorer) ID() models.ProviderID { return models.ProviderContextual }

func (s *ContextualScorer) Version() string { return contextualScorerVersion }

func (s *ContextualScorer) Score(ctx context.Context, resume *models.ParsedResume, job *models.JobRequirements) (*models.ComponentScore, error) {
	if !s.cfg.Enabled {
		return nil, errors.NewProviderUnavailableError(string(models.ProviderContextual), fmt.Errorf("contextual scoring disabled"))
	}

	select {
	case s.sem <- struct{}{}:
		defer func() { <-s.sem }()
	case <-ctx.Done():
		return nil, errors.NewProviderUnavailableError(string(models.ProviderContextual), ctx.Err())
	}

	// The hard ceiling holds regardless of the caller's deadline; a stuck
	// assessment service must not stall a whole ranking run.
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	response, err := s.callWithRetries(ctx, resume, job)
	if err != nil {
		return nil, err
	}

	return &models.ComponentScore{
		ProviderID:      models.ProviderContextual,
		ProviderVersion: contextualScorerVersion,
		Value:           clampScore(response.Score),
		Coverage:        1.0,
		Detail: map[string]interface{}{
			"assessment":         response.Assessment,
			"strengths":          response.Strengths,
			"weaknesses":         response.Weaknesses,
			"interviewQuestions": response.InterviewQuestions,
			"serviceConfidence":  response.Confidence,
		},
	}, nil
}

func (s *ContextualScorer) callWithRetries(ctx context.Context, resume *models.ParsedResume, job *models.JobRequirements) (*contextualResponse, error) {
	payload, err := json.Marshal(contextualRequest{
		CandidateID:    resume.CandidateID,
		ResumeText:     resumeText(resume),
		Skills:         resume.SkillNames(),
		JobTitle:       job.Title,
		JobDescription: job.Description,
		RequiredSkills: job.RequiredSkillNames(),
	})
	if err != nil {
		return nil, errors.NewProviderUnavailableError(string(models.ProviderContextual), err)
	}

	var lastErr error
	for attempt := 0; attempt <= s.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt) * 500 * time.Millisecond
			s.logger.Warn("retrying contextual assessment", map[string]interface{}{
				"attempt": attempt,
				"backoff": backoff.String(),
				"error":   lastErr.Error(),
			})
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, s.unavailable(ctx.Err())
			}
		}

		response, err := s.callOnce(ctx, payload)
		if err == nil {
			return response, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	return nil, s.unavailable(lastErr)
}

func (s *ContextualScorer) callOnce(ctx context.Context, payload []byte) (*contextualResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("assessment service returned status %d", resp.StatusCode)
	}

	result, err := s.schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return nil, fmt.Errorf("validate assessment response: %w", err)
	}
	if !result.Valid() {
		return nil, fmt.Errorf("assessment response failed schema validation: %v", result.Errors())
	}

	var response contextualResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, err
	}
	return &response, nil
}

func (s *ContextualScorer) unavailable(cause error) *errors.StandardError {
	if stderrors.Is(cause, context.DeadlineExceeded) {
		cause = errors.NewContextualTimeoutError(s.cfg.Endpoint)
	}
	return errors.NewProviderUnavailableError(string(models.ProviderContextual), cause)
}

// resumeText flattens the parsed sections into the free-text body the
// assessment service expects.
func resumeText(resume *models.ParsedResume) string {
	headings := make([]string, 0, len(resume.Sections))
	for heading := range resume.Sections {
		headings = append(headings, heading)
	}
	sort.Strings(headings)

	var b strings.Builder
	for _, heading := range headings {
		b.WriteString(heading)
		b.WriteString("\n")
		b.WriteString(resume.Sections[heading])
		b.WriteString("\n\n")
	}
	return b.String()
}
