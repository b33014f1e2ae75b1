// internal/notify/notifier.go

// Package notify escalates bias reports that require attention to the HR
// review channel over SES email and an SNS topic.
package notify

import (
	"context"
	"fmt"
	"sort"
	"strings"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	"talentrank-workers/internal/common/config"
	"talentrank-workers/internal/common/errors"
	"talentrank-workers/internal/common/logger"
	"talentrank-workers/internal/models"
)

// SESService and SNSService abstract the AWS clients for testing.
type SESService interface {
	SendEmail(ctx context.Context, input *ses.SendEmailInput) (*ses.SendEmailOutput, error)
}

type SNSService interface {
	Publish(ctx context.Context, input *sns.PublishInput) (*sns.PublishOutput, error)
}

// Notifier sends attention alerts. It is advisory: a delivery failure is
// logged and returned, but callers never fail report generation over it.
type Notifier struct {
	cfg    config.NotificationConfig
	ses    SESService
	sns    SNSService
	logger logger.Logger
}

func NewNotifier(cfg config.NotificationConfig, sesSvc SESService, snsSvc SNSService, log logger.Logger) *Notifier {
	return &Notifier{cfg: cfg, ses: sesSvc, sns: snsSvc, logger: log}
}

// AlertRequiresAttention delivers the report summary to HR. Both channels are
// attempted; the first failure is returned after the other channel has had
// its chance.
func (n *Notifier) AlertRequiresAttention(ctx context.Context, report *models.BiasReport) error {
	if !n.cfg.Enabled {
		n.logger.Debug("notifications disabled, skipping bias alert", nil)
		return nil
	}

	subject := alertSubject(report)
	body := alertBody(report)

	var firstErr error
	if n.ses != nil {
		if err := n.sendEmail(ctx, subject, body); err != nil {
			firstErr = errors.NewNotificationFailedError("ses", err)
			n.logger.Error("bias alert email failed", map[string]interface{}{"error": err.Error()})
		}
	}
	if n.sns != nil && n.cfg.SNSTopicARN != "" {
		if err := n.publishTopic(ctx, subject, body); err != nil {
			if firstErr == nil {
				firstErr = errors.NewNotificationFailedError("sns", err)
			}
			n.logger.Error("bias alert publish failed", map[string]interface{}{"error": err.Error()})
		}
	}
	if firstErr == nil {
		n.logger.Info("bias attention alert sent", map[string]interface{}{
			"jobId":         report.JobID,
			"periodDays":    report.PeriodDays,
			"detectionRate": report.BiasDetectionRate,
		})
	}
	return firstErr
}

func (n *Notifier) sendEmail(ctx context.Context, subject, body string) error {
	_, err := n.ses.SendEmail(ctx, &ses.SendEmailInput{
		Source: awssdk.String(n.cfg.FromAddress),
		Destination: &sestypes.Destination{
			ToAddresses: []string{n.cfg.HRAddress},
		},
		Message: &sestypes.Message{
			Subject: &sestypes.Content{Data: awssdk.String(subject)},
			Body: &sestypes.Body{
				Text: &sestypes.Content{Data: awssdk.String(body)},
			},
		},
	})
	return err
}

func (n *Notifier) publishTopic(ctx context.Context, subject, body string) error {
	_, err := n.sns.Publish(ctx, &sns.PublishInput{
		TopicArn: awssdk.String(n.cfg.SNSTopicARN),
		Subject:  awssdk.String(subject),
		Message:  awssdk.String(body),
	})
	return err
}

func alertSubject(report *models.BiasReport) string {
	scope := "all jobs"
	if report.JobID != "" {
		scope = "job " + report.JobID
	}
	return fmt.Sprintf("Bias audit requires attention: %s (%dd window)", scope, report.PeriodDays)
}

func alertBody(report *models.BiasReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Bias detection rate %.1f%% across %d candidates in the last %d days.\n\n",
		report.BiasDetectionRate*100, report.TotalCandidates, report.PeriodDays)

	if len(report.BiasTypes) > 0 {
		b.WriteString("Indicators by type:\n")
		types := make([]string, 0, len(report.BiasTypes))
		for biasType := range report.BiasTypes {
			types = append(types, string(biasType))
		}
		sort.Strings(types)
		for _, biasType := range types {
			fmt.Fprintf(&b, "  %s: %d\n", biasType, report.BiasTypes[models.BiasType(biasType)])
		}
		b.WriteString("\n")
	}

	if len(report.Recommendations) > 0 {
		b.WriteString("Recommendations:\n")
		for _, rec := range report.Recommendations {
			fmt.Fprintf(&b, "  - %s\n", rec)
		}
	}
	return b.String()
}
