package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/skynet-legal/legaleagle-api/internal/dto"
	"github.com/skynet-legal/legaleagle-api/internal/models"
	appErrors "github.com/skynet-legal/legaleagle-api/pkg/errors"
)

type settingsRepository interface {
	ListByUser(ctx context.Context, userID string) ([]models.Setting, error)
	Get(ctx context.Context, userID, key string) (*models.Setting, error)
	Upsert(ctx context.Context, s *models.Setting) error
	BulkUpsert(ctx context.Context, settings []models.Setting) error
}

type settingsAuditLogger interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type allowedSetting struct {
	Key    string
	Type   models.SettingType
	Secret bool
}

var allowedSettingKeys = []string{
	models.SettingGatewayURL,
	models.SettingGatewayInstanceID,
	models.SettingGatewayAccessToken,
	models.SettingAdminEmail,
	models.SettingAdminPhone,
	models.SettingAutoNotify,
}

var allowedSettings = map[string]allowedSetting{
	models.SettingGatewayURL:         {Key: models.SettingGatewayURL, Type: models.SettingTypeString},
	models.SettingGatewayInstanceID:  {Key: models.SettingGatewayInstanceID, Type: models.SettingTypeString},
	models.SettingGatewayAccessToken: {Key: models.SettingGatewayAccessToken, Type: models.SettingTypeString, Secret: true},
	models.SettingAdminEmail:         {Key: models.SettingAdminEmail, Type: models.SettingTypeString},
	models.SettingAdminPhone:         {Key: models.SettingAdminPhone, Type: models.SettingTypeString},
	models.SettingAutoNotify:         {Key: models.SettingAutoNotify, Type: models.SettingTypeBoolean},
}

var settingDefaults = map[string]string{
	models.SettingAutoNotify: "false",
}

// SettingsService manages the per-user notification settings form. Values are
// stored server side so gateway credentials never reach the browser.
type SettingsService struct {
	repo      settingsRepository
	audit     settingsAuditLogger
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSettingsService constructs a SettingsService.
func NewSettingsService(repo settingsRepository, audit settingsAuditLogger, validate *validator.Validate, logger *zap.Logger) *SettingsService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettingsService{repo: repo, audit: audit, validator: validate, logger: logger}
}

// List returns every known setting for the user, masking secret values.
func (s *SettingsService) List(ctx context.Context, userID string) ([]dto.SettingItem, error) {
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list settings")
	}
	existing := make(map[string]models.Setting, len(rows))
	for _, row := range rows {
		existing[row.Key] = row
	}

	items := make([]dto.SettingItem, 0, len(allowedSettingKeys))
	for _, key := range allowedSettingKeys {
		meta := allowedSettings[key]
		item := dto.SettingItem{Key: key, Type: string(meta.Type)}
		if row, ok := existing[key]; ok {
			item.Value = row.Value
		} else if def, ok := settingDefaults[key]; ok {
			item.Value = def
		}
		if meta.Secret {
			item.Value = maskSecret(item.Value)
		}
		items = append(items, item)
	}
	return items, nil
}

// Update upserts a single setting entry.
func (s *SettingsService) Update(ctx context.Context, userID string, req dto.UpdateSettingRequest) (*dto.SettingItem, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid setting payload")
	}
	meta, err := requireAllowedSetting(req.Key)
	if err != nil {
		return nil, err
	}
	value, err := s.validateSettingValue(meta, req.Value)
	if err != nil {
		return nil, err
	}

	setting := &models.Setting{UserID: userID, Key: meta.Key, Value: value, Type: meta.Type}
	if err := s.repo.Upsert(ctx, setting); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update setting")
	}
	s.emitAudit(ctx, userID, []string{meta.Key})

	item := &dto.SettingItem{Key: meta.Key, Value: value, Type: string(meta.Type)}
	if meta.Secret {
		item.Value = maskSecret(value)
	}
	return item, nil
}

// BulkUpdate applies multiple settings in one transaction. Last write wins.
func (s *SettingsService) BulkUpdate(ctx context.Context, userID string, req dto.BulkUpdateSettingsRequest) ([]dto.SettingItem, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid bulk settings payload")
	}

	toUpsert := make([]models.Setting, 0, len(req.Items))
	keys := make([]string, 0, len(req.Items))
	for _, item := range req.Items {
		meta, err := requireAllowedSetting(item.Key)
		if err != nil {
			return nil, err
		}
		value, err := s.validateSettingValue(meta, item.Value)
		if err != nil {
			return nil, err
		}
		toUpsert = append(toUpsert, models.Setting{UserID: userID, Key: meta.Key, Value: value, Type: meta.Type})
		keys = append(keys, meta.Key)
	}

	if err := s.repo.BulkUpsert(ctx, toUpsert); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to bulk update settings")
	}
	s.emitAudit(ctx, userID, keys)

	result := make([]dto.SettingItem, 0, len(toUpsert))
	for _, setting := range toUpsert {
		item := dto.SettingItem{Key: setting.Key, Value: setting.Value, Type: string(setting.Type)}
		if allowedSettings[setting.Key].Secret {
			item.Value = maskSecret(setting.Value)
		}
		result = append(result, item)
	}
	return result, nil
}

// ResolveNotifier materialises the raw settings into the view the dispatcher
// consumes. Unlike List it never masks values.
func (s *SettingsService) ResolveNotifier(ctx context.Context, userID string) (models.NotifierSettings, error) {
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return models.NotifierSettings{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load settings")
	}

	resolved := models.NotifierSettings{}
	for _, row := range rows {
		switch row.Key {
		case models.SettingGatewayURL:
			resolved.GatewayURL = row.Value
		case models.SettingGatewayInstanceID:
			resolved.GatewayInstanceID = row.Value
		case models.SettingGatewayAccessToken:
			resolved.GatewayAccessToken = row.Value
		case models.SettingAdminEmail:
			resolved.AdminEmail = row.Value
		case models.SettingAdminPhone:
			resolved.AdminPhone = row.Value
		case models.SettingAutoNotify:
			resolved.AutoNotify = row.Value == "true"
		}
	}
	return resolved, nil
}

// AutoNotifyEnabled reports whether the user opted into scheduled dispatch.
func (s *SettingsService) AutoNotifyEnabled(ctx context.Context, userID string) (bool, error) {
	setting, err := s.repo.Get(ctx, userID, models.SettingAutoNotify)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load auto notify setting")
	}
	return setting.Value == "true", nil
}

func (s *SettingsService) validateSettingValue(meta allowedSetting, value string) (string, error) {
	value = strings.TrimSpace(value)
	switch meta.Type {
	case models.SettingTypeBoolean:
		switch strings.ToLower(value) {
		case "true":
			return "true", nil
		case "false":
			return "false", nil
		default:
			return "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s expects boolean value", meta.Key))
		}
	case models.SettingTypeString:
		if meta.Key == models.SettingAdminEmail && value != "" {
			if err := s.validator.Var(value, "email"); err != nil {
				return "", appErrors.Clone(appErrors.ErrValidation, "admin_email must be a valid email address")
			}
		}
		if meta.Key == models.SettingGatewayURL && value != "" {
			if err := s.validator.Var(value, "url"); err != nil {
				return "", appErrors.Clone(appErrors.ErrValidation, "gateway_url must be a valid URL")
			}
		}
		return value, nil
	default:
		return "", appErrors.Clone(appErrors.ErrValidation, "unsupported setting type")
	}
}

func (s *SettingsService) emitAudit(ctx context.Context, userID string, keys []string) {
	if s.audit == nil {
		return
	}
	payload, _ := json.Marshal(map[string][]string{"keys": keys})
	log := &models.AuditLog{
		UserID:    &userID,
		Action:    models.AuditActionSettingsUpdate,
		Resource:  "settings",
		NewValues: payload,
		IPAddress: "system",
		UserAgent: "settings-service",
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to record settings audit", zap.Error(err))
	}
}

func requireAllowedSetting(key string) (allowedSetting, error) {
	meta, ok := allowedSettings[key]
	if !ok {
		return allowedSetting{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported setting key %s", key))
	}
	return meta, nil
}

// maskSecret keeps the last four characters visible so the user can confirm
// which token is stored without exposing it.
func maskSecret(value string) string {
	if value == "" {
		return ""
	}
	if len(value) <= 4 {
		return "****"
	}
	return "****" + value[len(value)-4:]
}
