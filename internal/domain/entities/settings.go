package entities

import (
	"database/sql/driver"
	"time"

	"github.com/google/uuid"
)

// DefaultMaxFileSize is the upload size limit when settings name none (5 MiB).
const DefaultMaxFileSize int64 = 5 * 1024 * 1024

type ThemeSettings struct {
	PrimaryColor   string `json:"primaryColor"`
	SecondaryColor string `json:"secondaryColor"`
	SuccessColor   string `json:"successColor"`
	WarningColor   string `json:"warningColor"`
	DangerColor    string `json:"dangerColor"`
}

func (t ThemeSettings) Value() (driver.Value, error) { return jsonValue(t) }

func (t *ThemeSettings) Scan(src any) error { return jsonScan(src, t) }

type FeatureSettings struct {
	AllowGuestUsers    bool     `json:"allowGuestUsers"`
	AllowFileUploads   bool     `json:"allowFileUploads"`
	MaxFileSize        int64    `json:"maxFileSize"`
	AllowedFileTypes   []string `json:"allowedFileTypes"`
	GuestTaskLimit     int      `json:"guestTaskLimit"`
	GuestCommentLimit  int      `json:"guestCommentLimit"`
	EnableRealTimeSync bool     `json:"enableRealTimeSync"`
	EnableActivityLogs bool     `json:"enableActivityLogs"`
}

func (f FeatureSettings) Value() (driver.Value, error) { return jsonValue(f) }

func (f *FeatureSettings) Scan(src any) error { return jsonScan(src, f) }

// AllowsFileType reports whether mimetype is on the upload allow-list.
func (f FeatureSettings) AllowsFileType(mimetype string) bool {
	for _, t := range f.AllowedFileTypes {
		if t == mimetype {
			return true
		}
	}
	return false
}

type MaintenanceSettings struct {
	Enabled bool   `json:"enabled"`
	Message string `json:"message"`
}

func (m MaintenanceSettings) Value() (driver.Value, error) { return jsonValue(m) }

func (m *MaintenanceSettings) Scan(src any) error { return jsonScan(src, m) }

// AppSettings is the singleton application configuration editable by admins
type AppSettings struct {
	ID             int                 `json:"-" db:"id"`
	AppTitle       string              `json:"appTitle" db:"app_title"`
	WelcomeMessage string              `json:"welcomeMessage" db:"welcome_message"`
	HeroTitle      string              `json:"heroTitle" db:"hero_title"`
	HeroTagline    string              `json:"heroTagline" db:"hero_tagline"`
	Theme          ThemeSettings       `json:"theme" db:"theme"`
	Features       FeatureSettings     `json:"features" db:"features"`
	Maintenance    MaintenanceSettings `json:"maintenance" db:"maintenance"`
	UpdatedBy      *uuid.UUID          `json:"updatedBy,omitempty" db:"updated_by"`
	UpdatedAt      time.Time           `json:"updatedAt" db:"updated_at"`
}

// DefaultAppSettings returns the settings used before an admin edits anything.
func DefaultAppSettings() *AppSettings {
	return &AppSettings{
		ID:             1,
		AppTitle:       "TaskFlow",
		WelcomeMessage: "Welcome to TaskFlow!",
		HeroTitle:      "Collaborate in Real-Time",
		HeroTagline:    "Manage tasks together with your team, track progress instantly, and achieve more with seamless collaboration.",
		Theme: ThemeSettings{
			PrimaryColor:   "#6366f1",
			SecondaryColor: "#ec4899",
			SuccessColor:   "#10b981",
			WarningColor:   "#f59e0b",
			DangerColor:    "#ef4444",
		},
		Features: FeatureSettings{
			AllowGuestUsers:  true,
			AllowFileUploads: true,
			MaxFileSize:      DefaultMaxFileSize,
			AllowedFileTypes: []string{
				"image/jpeg",
				"image/png",
				"image/gif",
				"image/webp",
				"application/pdf",
				"text/plain",
				"application/msword",
				"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
				"application/vnd.ms-excel",
				"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			},
			GuestTaskLimit:     1,
			GuestCommentLimit:  1,
			EnableRealTimeSync: true,
			EnableActivityLogs: true,
		},
		Maintenance: MaintenanceSettings{
			Message: "The application is currently under maintenance. Please check back later.",
		},
	}
}

// PublicSettings is the subset of AppSettings exposed without authentication.
type PublicSettings struct {
	AppTitle       string              `json:"appTitle"`
	WelcomeMessage string              `json:"welcomeMessage"`
	HeroTitle      string              `json:"heroTitle"`
	HeroTagline    string              `json:"heroTagline"`
	Theme          ThemeSettings       `json:"theme"`
	Maintenance    MaintenanceSettings `json:"maintenance"`
	Features       struct {
		AllowGuestUsers    bool  `json:"allowGuestUsers"`
		AllowFileUploads   bool  `json:"allowFileUploads"`
		MaxFileSize        int64 `json:"maxFileSize"`
		EnableRealTimeSync bool  `json:"enableRealTimeSync"`
	} `json:"features"`
}

func (s *AppSettings) Public() PublicSettings {
	p := PublicSettings{
		AppTitle:       s.AppTitle,
		WelcomeMessage: s.WelcomeMessage,
		HeroTitle:      s.HeroTitle,
		HeroTagline:    s.HeroTagline,
		Theme:          s.Theme,
		Maintenance:    s.Maintenance,
	}
	p.Features.AllowGuestUsers = s.Features.AllowGuestUsers
	p.Features.AllowFileUploads = s.Features.AllowFileUploads
	p.Features.MaxFileSize = s.Features.MaxFileSize
	p.Features.EnableRealTimeSync = s.Features.EnableRealTimeSync
	return p
}
