package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/skynet-legal/legaleagle-api/internal/models"
	"github.com/skynet-legal/legaleagle-api/pkg/config"
	appErrors "github.com/skynet-legal/legaleagle-api/pkg/errors"
)

type notificationAgreementReader interface {
	ListAll(ctx context.Context, userID string) ([]models.Agreement, error)
}

type notificationLogRepository interface {
	Create(ctx context.Context, log *models.NotificationLog) error
	List(ctx context.Context, userID string, page, pageSize int) ([]models.NotificationLog, int, error)
	HasSent(ctx context.Context, userID, agreementID string, status models.AgreementStatus) (bool, error)
}

type notifierSettingsResolver interface {
	ResolveNotifier(ctx context.Context, userID string) (models.NotifierSettings, error)
}

type dispatchMetricsRecorder interface {
	RecordDispatch(channel string, success bool)
}

// NotificationService scans the agreement portfolio and pushes expiry alerts
// through the configured channels.
type NotificationService struct {
	agreements notificationAgreementReader
	logs       notificationLogRepository
	settings   notifierSettingsResolver
	metrics    dispatchMetricsRecorder
	httpClient *http.Client
	logger     *zap.Logger
	config     config.NotifierConfig
	now        func() time.Time
}

// NewNotificationService constructs a NotificationService.
func NewNotificationService(agreements notificationAgreementReader, logs notificationLogRepository, settings notifierSettingsResolver, metrics dispatchMetricsRecorder, logger *zap.Logger, cfg config.NotifierConfig) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.GatewayTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &NotificationService{
		agreements: agreements,
		logs:       logs,
		settings:   settings,
		metrics:    metrics,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
		config:     cfg,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Dispatch walks every agreement, classifies it at the current time and sends
// alerts for those expiring soon or already expired. Each delivery attempt is
// counted and recorded; one failing channel never aborts the run.
func (s *NotificationService) Dispatch(ctx context.Context, userID string) (*models.DispatchSummary, error) {
	resolved, err := s.settings.ResolveNotifier(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !resolved.GatewayConfigured() && resolved.AdminEmail == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no notification channel configured")
	}

	agreements, err := s.agreements.ListAll(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load agreements")
	}

	now := s.now()
	summary := &models.DispatchSummary{Details: []string{}}

	for _, agreement := range agreements {
		status := agreement.Status
		if status != models.StatusPendingApproval {
			status = ClassifyStatus(agreement.ExpiryDate, now)
		}
		if status != models.StatusExpiringSoon && status != models.StatusExpired {
			continue
		}

		if s.config.Dedupe {
			sent, err := s.logs.HasSent(ctx, userID, agreement.ID, status)
			if err != nil {
				s.logger.Warn("failed to check sent log", zap.String("agreement_id", agreement.ID), zap.Error(err))
			} else if sent {
				summary.Details = append(summary.Details, fmt.Sprintf("%s: already notified for %s, skipped", agreement.FileName, status))
				continue
			}
		}

		message := buildAlertMessage(agreement, status, now)

		if resolved.GatewayConfigured() && resolved.AdminPhone != "" {
			err := s.sendChatAlert(ctx, resolved, message)
			s.record(ctx, userID, agreement, status, models.ChannelChat, resolved.AdminPhone, message, err)
			if err != nil {
				summary.Errors++
				summary.Details = append(summary.Details, fmt.Sprintf("%s: chat alert failed: %v", agreement.FileName, err))
			} else {
				summary.Sent++
				summary.Details = append(summary.Details, fmt.Sprintf("%s: chat alert sent", agreement.FileName))
			}
		}

		if resolved.AdminEmail != "" {
			err := s.sendEmailAlert(ctx, resolved.AdminEmail, message)
			s.record(ctx, userID, agreement, status, models.ChannelEmail, resolved.AdminEmail, message, err)
			if err != nil {
				summary.Errors++
				summary.Details = append(summary.Details, fmt.Sprintf("%s: email alert failed: %v", agreement.FileName, err))
			} else {
				summary.Sent++
				summary.Details = append(summary.Details, fmt.Sprintf("%s: email alert sent", agreement.FileName))
			}
		}
	}

	s.logger.Info("notification dispatch finished",
		zap.String("user_id", userID),
		zap.Int("sent", summary.Sent),
		zap.Int("errors", summary.Errors))
	return summary, nil
}

// History returns the delivery log for the user.
func (s *NotificationService) History(ctx context.Context, userID string, page, pageSize int) ([]models.NotificationLog, *models.Pagination, error) {
	logs, total, err := s.logs.List(ctx, userID, page, pageSize)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notification logs")
	}
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	return logs, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// sendChatAlert pushes the message through the WhatsApp-style HTTP gateway.
// The gateway expects everything as query parameters on a GET request.
func (s *NotificationService) sendChatAlert(ctx context.Context, settings models.NotifierSettings, message string) error {
	endpoint, err := url.Parse(settings.GatewayURL)
	if err != nil {
		return fmt.Errorf("invalid gateway url: %w", err)
	}

	query := endpoint.Query()
	query.Set("number", settings.AdminPhone)
	query.Set("type", "text")
	query.Set("message", message)
	query.Set("instance_id", settings.GatewayInstanceID)
	query.Set("access_token", settings.GatewayAccessToken)
	endpoint.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return fmt.Errorf("create gateway request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("gateway unreachable: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("gateway returned status %d", resp.StatusCode)
	}
	return nil
}

// sendEmailAlert is a placeholder transport. It simulates provider latency
// and reports success; swapping in a real SMTP or API sender only needs this
// method replaced.
func (s *NotificationService) sendEmailAlert(ctx context.Context, recipient, message string) error {
	delay := s.config.EmailDelay
	if delay <= 0 {
		delay = 500 * time.Millisecond
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(delay):
	}
	s.logger.Info("email alert dispatched", zap.String("recipient", recipient), zap.Int("message_len", len(message)))
	return nil
}

func (s *NotificationService) record(ctx context.Context, userID string, agreement models.Agreement, status models.AgreementStatus, channel, recipient, message string, sendErr error) {
	if s.metrics != nil {
		s.metrics.RecordDispatch(channel, sendErr == nil)
	}
	detail := message
	if sendErr != nil {
		detail = sendErr.Error()
	}
	log := &models.NotificationLog{
		UserID:      userID,
		AgreementID: agreement.ID,
		Status:      status,
		Channel:     channel,
		Recipient:   recipient,
		Detail:      detail,
		Success:     sendErr == nil,
	}
	if err := s.logs.Create(ctx, log); err != nil {
		s.logger.Warn("failed to persist notification log",
			zap.String("agreement_id", agreement.ID), zap.Error(err))
	}
}

func buildAlertMessage(a models.Agreement, status models.AgreementStatus, now time.Time) string {
	expiry := "unknown date"
	if a.ExpiryDate != nil {
		expiry = a.ExpiryDate.Format("2006-01-02")
	}
	if status == models.StatusExpired {
		return fmt.Sprintf("URGENT: agreement with %s (%s) expired on %s. Immediate review required.",
			a.PartyB, a.Type, expiry)
	}
	days := 0
	if a.ExpiryDate != nil {
		days = DaysUntil(*a.ExpiryDate, now)
	}
	return fmt.Sprintf("Reminder: agreement with %s (%s) expires in %d days on %s. Please review for renewal.",
		a.PartyB, a.Type, days, expiry)
}
