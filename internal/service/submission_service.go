package service

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/prosiga/enrollment-gateway/internal/models"
	appErrors "github.com/prosiga/enrollment-gateway/pkg/errors"
)

type enrollmentSubmitter interface {
	Enroll(ctx context.Context, token string, sectionID int64) error
}

// SubmissionService converts a staging set into independent enrollment
// requests and aggregates their outcomes. Enrollment across sections is not
// transactional: each request settles on its own, successes are kept even
// when siblings fail, and nothing is retried automatically.
type SubmissionService struct {
	upstream enrollmentSubmitter
	staging  *StagingService
	metrics  *MetricsService
	logger   *zap.Logger
}

// NewSubmissionService constructs a SubmissionService.
func NewSubmissionService(up enrollmentSubmitter, staging *StagingService, metrics *MetricsService, logger *zap.Logger) *SubmissionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubmissionService{upstream: up, staging: staging, metrics: metrics, logger: logger}
}

// Submit fires one concurrent enrollment request per staged entry, waits for
// every request to settle, removes the succeeded entries from staging and
// returns the aggregated report. Failed entries stay staged so the user can
// retry or remove them manually.
func (s *SubmissionService) Submit(ctx context.Context, session *models.SessionClaims) (*models.SubmissionReport, error) {
	if session == nil || session.Token == "" {
		return nil, appErrors.ErrAuthenticationMissing
	}

	entries, err := s.staging.beginSubmission(session.Subject)
	if err != nil {
		return nil, err
	}

	report := &models.SubmissionReport{
		BatchID:  uuid.NewString(),
		Failures: []models.SubmissionFailure{},
	}

	if len(entries) == 0 {
		// Nothing staged: resolve locally without touching the network.
		s.staging.finishSubmission(session.Subject, nil)
		return report, nil
	}

	// Collected by staged position so the failure list follows staging order
	// regardless of completion order.
	results := make([]models.SubmissionResult, len(entries))
	var wg sync.WaitGroup
	for i, entry := range entries {
		wg.Add(1)
		go func(pos int, entry models.StagingEntry) {
			defer wg.Done()
			results[pos] = s.submitOne(ctx, session.Token, entry)
		}(i, entry)
	}
	wg.Wait()

	var succeeded []int64
	for _, result := range results {
		if result.Outcome == models.SubmissionOutcomeSuccess {
			report.SuccessCount++
			succeeded = append(succeeded, result.SectionID)
			continue
		}
		report.Failures = append(report.Failures, models.SubmissionFailure{
			SectionID:  result.SectionID,
			CourseName: result.CourseName,
			Reason:     result.Reason,
		})
	}

	s.staging.finishSubmission(session.Subject, succeeded)
	s.metrics.ObserveSubmissionBatch(report.SuccessCount, len(report.Failures))

	s.logger.Info("enrollment batch settled",
		zap.String("batch_id", report.BatchID),
		zap.String("user_id", session.Subject),
		zap.Int("requested", len(entries)),
		zap.Int("succeeded", report.SuccessCount),
		zap.Int("failed", len(report.Failures)),
	)
	return report, nil
}

func (s *SubmissionService) submitOne(ctx context.Context, token string, entry models.StagingEntry) models.SubmissionResult {
	result := models.SubmissionResult{
		SectionID:  entry.Section.SectionID,
		CourseName: entry.Section.CourseName,
	}

	if err := s.upstream.Enroll(ctx, token, entry.Section.SectionID); err != nil {
		result.Outcome = models.SubmissionOutcomeFailure
		result.Reason = rejectionReason(err)
		return result
	}

	result.Outcome = models.SubmissionOutcomeSuccess
	return result
}

// rejectionReason picks the user-facing failure text: the backend's detail
// when the refusal was structured, a generic message otherwise.
func rejectionReason(err error) string {
	appErr := appErrors.FromError(err)
	if appErr.Code == appErrors.ErrServerRejected.Code && appErr.Message != "" {
		return appErr.Message
	}
	if appErr.Code == appErrors.ErrNetwork.Code {
		return "enrollment request could not reach the academic system"
	}
	return appErr.Message
}
