package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/eduwrite/apiserver/internal/ai"
	"github.com/eduwrite/apiserver/internal/greeting"
	"github.com/eduwrite/apiserver/internal/metrics"
	"github.com/eduwrite/apiserver/internal/store"
	"github.com/eduwrite/apiserver/types"
	"github.com/sirupsen/logrus"
)

const (
	DefaultContentType = "Explanation"
	DefaultLevel       = "Intermediate"

	// FallbackContent is returned and recorded when the model cannot be
	// reached.
	FallbackContent = "AI service not configured."
)

// UsageRepository defines persistence operations for the usage ledger.
type UsageRepository interface {
	Create(ctx context.Context, record types.UsageRecord) (types.UsageRecord, error)
	ListByUser(ctx context.Context, userID, offset, limit int) ([]types.UsageRecord, int, error)
}

// UsagePublisher forwards completed usage records to downstream consumers.
type UsagePublisher interface {
	PublishUsage(ctx context.Context, record types.UsageRecord) error
}

// GenerateRequest is a content request. Topic is required; ContentType and
// Level fall back to DefaultContentType and DefaultLevel when blank.
type GenerateRequest struct {
	Topic       string
	ContentType string
	Level       string
}

// GenerateResult is the content returned to the caller with the balance
// after the request.
type GenerateResult struct {
	Content     string
	CreditsLeft int
	Greeting    bool
	Fallback    bool
}

// ContentService orchestrates a generation request: validation, greeting
// shortcut, credit gate, model call, debit and ledger write.
type ContentService struct {
	users     UserRepository
	usage     UsageRepository
	credits   *CreditAccountant
	generator ai.Generator
	publisher UsagePublisher
	logger    logrus.FieldLogger
}

// NewContentService wires the service. generator and publisher may be nil:
// a nil generator yields FallbackContent, a nil publisher skips publishing.
func NewContentService(
	users UserRepository,
	usage UsageRepository,
	credits *CreditAccountant,
	generator ai.Generator,
	publisher UsagePublisher,
	logger logrus.FieldLogger,
) *ContentService {
	return &ContentService{
		users:     users,
		usage:     usage,
		credits:   credits,
		generator: generator,
		publisher: publisher,
		logger:    logger,
	}
}

func (s *ContentService) Generate(ctx context.Context, userID int, req GenerateRequest) (GenerateResult, error) {
	req = normalizeRequest(req)
	if req.Topic == "" {
		metrics.RecordGenerate(metrics.OutcomeInvalid)
		return GenerateResult{}, fmt.Errorf("%w: topic is required", ErrValidation)
	}

	log := s.logger.WithFields(logrus.Fields{
		"user_id":      userID,
		"content_type": req.ContentType,
		"level":        req.Level,
	})

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			metrics.RecordGenerate(metrics.OutcomeUserNotFound)
			return GenerateResult{}, ErrUserNotFound
		}
		metrics.RecordGenerate(metrics.OutcomeError)
		return GenerateResult{}, fmt.Errorf("load user: %w", err)
	}

	if kind, ok := greeting.Classify(req.Topic); ok {
		metrics.RecordGenerate(metrics.OutcomeGreeting)
		log.WithField("greeting", kind.String()).Debug("answered with canned reply")
		return GenerateResult{
			Content:     greeting.Reply(kind),
			CreditsLeft: user.Credits,
			Greeting:    true,
		}, nil
	}

	if user.Credits <= 0 {
		metrics.RecordGenerate(metrics.OutcomeNoCredits)
		return GenerateResult{}, ErrInsufficientCredits
	}

	content, fallback := s.generate(ctx, log, req)

	// A model call that ran into the request deadline has already fallen
	// back; the debit and the ledger write must still land.
	ctx = context.WithoutCancel(ctx)

	user, err = s.credits.Debit(ctx, user)
	if err != nil {
		if errors.Is(err, ErrInsufficientCredits) {
			metrics.RecordGenerate(metrics.OutcomeNoCredits)
		} else {
			metrics.RecordGenerate(metrics.OutcomeError)
		}
		return GenerateResult{}, err
	}

	record, err := s.usage.Create(ctx, types.UsageRecord{
		UserID:      user.ID,
		Topic:       req.Topic,
		ContentType: req.ContentType,
		Level:       req.Level,
		Response:    content,
	})
	if err != nil {
		// The debit above is not rolled back.
		log.WithError(err).WithField("credits", user.Credits).
			Error("usage record not written after debit")
		metrics.RecordGenerate(metrics.OutcomeError)
		return GenerateResult{}, fmt.Errorf("write usage record: %w", err)
	}

	s.publish(ctx, log, record)

	if fallback {
		metrics.RecordGenerate(metrics.OutcomeFallback)
	} else {
		metrics.RecordGenerate(metrics.OutcomeGenerated)
	}
	log.WithFields(logrus.Fields{
		"usage_id": record.ID,
		"chars":    len(content),
		"credits":  user.Credits,
	}).Info("content generated")

	return GenerateResult{
		Content:     content,
		CreditsLeft: user.Credits,
		Fallback:    fallback,
	}, nil
}

func (s *ContentService) generate(ctx context.Context, log logrus.FieldLogger, req GenerateRequest) (string, bool) {
	if s.generator == nil {
		log.Warn("ai client not configured, using fallback content")
		return FallbackContent, true
	}

	start := time.Now()
	content, err := s.generator.Generate(ctx, ai.Prompt{
		Topic:       req.Topic,
		ContentType: req.ContentType,
		Level:       req.Level,
	})
	metrics.RecordAIRequest(time.Since(start).Seconds())
	if err != nil {
		log.WithError(err).Warn("ai request failed, using fallback content")
		return FallbackContent, true
	}
	return content, false
}

func (s *ContentService) publish(ctx context.Context, log logrus.FieldLogger, record types.UsageRecord) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishUsage(ctx, record); err != nil {
		metrics.RecordUsagePublished("failed")
		log.WithError(err).WithField("usage_id", record.ID).Warn("usage event not published")
		return
	}
	metrics.RecordUsagePublished("ok")
}

func normalizeRequest(req GenerateRequest) GenerateRequest {
	req.Topic = strings.TrimSpace(req.Topic)
	req.ContentType = strings.TrimSpace(req.ContentType)
	req.Level = strings.TrimSpace(req.Level)
	if req.ContentType == "" {
		req.ContentType = DefaultContentType
	}
	if req.Level == "" {
		req.Level = DefaultLevel
	}
	return req
}
