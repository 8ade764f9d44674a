package models

import "time"

// SettingType defines supported types for setting values.
type SettingType string

const (
	SettingTypeString  SettingType = "STRING"
	SettingTypeBoolean SettingType = "BOOLEAN"
)

// Setting represents a persisted per-user settings entry. Last write wins.
type Setting struct {
	UserID    string      `db:"user_id" json:"-"`
	Key       string      `db:"key" json:"key"`
	Value     string      `db:"value" json:"value"`
	Type      SettingType `db:"type" json:"type"`
	UpdatedAt time.Time   `db:"updated_at" json:"updated_at"`
}

// Setting keys recognised by the settings form.
const (
	SettingGatewayURL         = "gateway_url"
	SettingGatewayInstanceID  = "gateway_instance_id"
	SettingGatewayAccessToken = "gateway_access_token"
	SettingAdminEmail         = "admin_email"
	SettingAdminPhone         = "admin_phone"
	SettingAutoNotify         = "auto_notify"
)

// NotifierSettings is the resolved settings view the dispatcher consumes.
type NotifierSettings struct {
	GatewayURL         string
	GatewayInstanceID  string
	GatewayAccessToken string
	AdminEmail         string
	AdminPhone         string
	AutoNotify         bool
}

// GatewayConfigured reports whether all chat-gateway fields are present.
func (s NotifierSettings) GatewayConfigured() bool {
	return s.GatewayURL != "" && s.GatewayInstanceID != "" && s.GatewayAccessToken != ""
}
