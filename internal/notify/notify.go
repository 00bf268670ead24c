// Package notify delivers short text messages to farmers' phones.
package notify

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/google/uuid"

	"github.com/Brownie44l1/agrosathi-api/internal/apperror"
	"github.com/Brownie44l1/agrosathi-api/internal/metrics"
)

// MaxMessageLength is the longest body sent to a provider, in characters.
const MaxMessageLength = 1600

// Message is one outbound text.
type Message struct {
	Phone string `json:"phone"`
	Body  string `json:"message"`
}

// Sender hands a message to a delivery provider and returns its message id.
type Sender interface {
	Send(ctx context.Context, msg Message) (string, error)
}

const ellipsis = "..."

// Truncate keeps bodies of up to MaxMessageLength-3 characters. Longer ones are
// cut to that length and end with "...", so no result exceeds MaxMessageLength.
func Truncate(body string) string {
	keep := MaxMessageLength - len(ellipsis)
	if utf8.RuneCountInString(body) <= keep {
		return body
	}
	runes := []rune(body)
	return string(runes[:keep]) + ellipsis
}

// LogSender only logs messages. It is the default when no provider is configured.
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSender{logger: logger.With("component", "notify")}
}

func (s *LogSender) Send(ctx context.Context, msg Message) (string, error) {
	id := uuid.New().String()
	s.logger.InfoContext(ctx, "sending message",
		"message_id", id,
		"phone", maskPhone(msg.Phone),
		"length", utf8.RuneCountInString(msg.Body),
	)
	metrics.Notifications.WithLabelValues(metrics.OutcomeSuccess).Inc()
	return id, nil
}

// SNSPublisher is the subset of the SNS client used here.
type SNSPublisher interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSSender delivers messages as SMS through AWS SNS.
type SNSSender struct {
	client SNSPublisher
	logger *slog.Logger
}

// NewSNSSender builds a sender from the default AWS credential chain.
func NewSNSSender(ctx context.Context, region string, logger *slog.Logger) (*SNSSender, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, err
	}
	return NewSNSSenderWithClient(sns.NewFromConfig(cfg), logger), nil
}

func NewSNSSenderWithClient(client SNSPublisher, logger *slog.Logger) *SNSSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &SNSSender{client: client, logger: logger.With("component", "notify")}
}

func (s *SNSSender) Send(ctx context.Context, msg Message) (string, error) {
	out, err := s.client.Publish(ctx, &sns.PublishInput{
		PhoneNumber: aws.String(msg.Phone),
		Message:     aws.String(msg.Body),
	})
	metrics.Notifications.WithLabelValues(metrics.Outcome(err)).Inc()
	if err != nil {
		s.logger.ErrorContext(ctx, "sns publish failed", "phone", maskPhone(msg.Phone), "error", err)
		return "", apperror.DeliveryFailed(err)
	}

	id := aws.ToString(out.MessageId)
	s.logger.InfoContext(ctx, "message sent", "message_id", id, "phone", maskPhone(msg.Phone))
	return id, nil
}

func maskPhone(phone string) string {
	phone = strings.TrimSpace(phone)
	if len(phone) <= 4 {
		return strings.Repeat("*", len(phone))
	}
	return strings.Repeat("*", len(phone)-4) + phone[len(phone)-4:]
}
