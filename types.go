package usercore

import (
	"context"
	"time"
)

// UserRecord is the authoritative account snapshot as cached and returned
// by read-through operations.
type UserRecord struct {
	UserID      string    `json:"user_id"`
	Email       string    `json:"email"`
	Username    string    `json:"username"`
	PhoneNumber string    `json:"phone_number,omitempty"`
	Verified    bool      `json:"is_verified"`
	LastLoginIP string    `json:"last_login_ip,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ProfileRecord is the extended profile attached to an account.
type ProfileRecord struct {
	UserID    string    `json:"user_id"`
	FirstName string    `json:"first_name,omitempty"`
	LastName  string    `json:"last_name,omitempty"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	Timezone  string    `json:"timezone"`
	Language  string    `json:"language"`
	Bio       string    `json:"bio,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PreferenceRecord holds per-channel, per-type notification switches.
type PreferenceRecord struct {
	UserID string `json:"user_id"`

	EmailEnabled       bool `json:"email_enabled"`
	EmailMarketing     bool `json:"email_marketing"`
	EmailTransactional bool `json:"email_transactional"`
	EmailSecurity      bool `json:"email_security"`
	EmailSystem        bool `json:"email_system"`

	PushEnabled       bool `json:"push_enabled"`
	PushMarketing     bool `json:"push_marketing"`
	PushTransactional bool `json:"push_transactional"`
	PushSecurity      bool `json:"push_security"`
	PushSystem        bool `json:"push_system"`

	DoNotDisturbStart string `json:"do_not_disturb_start,omitempty"`
	DoNotDisturbEnd   string `json:"do_not_disturb_end,omitempty"`

	// FrequencyLimit caps notifications per day.
	FrequencyLimit int `json:"frequency_limit"`

	UpdatedAt time.Time `json:"updated_at"`
}

// DefaultPreferences returns the record created for a user with no stored
// preferences: every channel on except marketing push, 50 notifications a
// day.
func DefaultPreferences(userID string) PreferenceRecord {
	return PreferenceRecord{
		UserID:             userID,
		EmailEnabled:       true,
		EmailMarketing:     true,
		EmailTransactional: true,
		EmailSecurity:      true,
		EmailSystem:        true,
		PushEnabled:        true,
		PushMarketing:      false,
		PushTransactional:  true,
		PushSecurity:       true,
		PushSystem:         true,
		FrequencyLimit:     50,
	}
}

// PushTokenRecord is one device's push delivery token.
type PushTokenRecord struct {
	TokenID    string    `json:"token_id"`
	UserID     string    `json:"user_id"`
	Token      string    `json:"token"`
	TokenType  string    `json:"token_type"` // fcm, onesignal, vapid
	Platform   string    `json:"platform"`   // web, android, ios
	DeviceID   string    `json:"device_id,omitempty"`
	DeviceName string    `json:"device_name,omitempty"`
	Active     bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// RegisterInput is the request for [Engine.Register]. ClientIP is the
// rate-limit identifier for registration bursts.
type RegisterInput struct {
	Email       string `json:"email"`
	Username    string `json:"username"`
	PhoneNumber string `json:"phone_number,omitempty"`
	Password    string `json:"password"`
	ClientIP    string `json:"-"`
}

// LoginInput is the request for [Engine.Login]. The login window is keyed
// by user ID; ClientIP is recorded on the account.
type LoginInput struct {
	UserID   string
	ClientIP string
}

// CreateUserInput is handed to [UserProvider.CreateUser]. The password
// arrives pre-hashed; the provider never sees plaintext.
type CreateUserInput struct {
	Email        string
	Username     string
	PhoneNumber  string
	PasswordHash string
}

// ProfilePatch is a partial profile update; nil fields are untouched.
type ProfilePatch struct {
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	AvatarURL *string `json:"avatar_url,omitempty"`
	Timezone  *string `json:"timezone,omitempty"`
	Language  *string `json:"language,omitempty"`
	Bio       *string `json:"bio,omitempty"`
}

// diff returns the changed-field map for the update event: JSON field name
// to new value, only for fields that actually differ from current.
func (p ProfilePatch) diff(current ProfileRecord) map[string]any {
	changed := map[string]any{}
	set := func(name string, next *string, prev string) {
		if next != nil && *next != prev {
			changed[name] = *next
		}
	}
	set("first_name", p.FirstName, current.FirstName)
	set("last_name", p.LastName, current.LastName)
	set("avatar_url", p.AvatarURL, current.AvatarURL)
	set("timezone", p.Timezone, current.Timezone)
	set("language", p.Language, current.Language)
	set("bio", p.Bio, current.Bio)
	return changed
}

// CreatePushTokenInput is the request for [Engine.AddPushToken].
type CreatePushTokenInput struct {
	UserID     string `json:"-"`
	Token      string `json:"token"`
	TokenType  string `json:"token_type"`
	Platform   string `json:"platform"`
	DeviceID   string `json:"device_id,omitempty"`
	DeviceName string `json:"device_name,omitempty"`
}

// PushTokenPatch is a partial push-token update; nil fields are untouched.
type PushTokenPatch struct {
	TokenType  *string
	Platform   *string
	DeviceID   *string
	DeviceName *string
	Active     *bool
}

// PageMeta describes one page of a list result.
type PageMeta struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// UserProvider is the authoritative relational store, the sole source of
// truth this core derives from. Implementations are assumed transactional
// and strongly consistent; their errors are the only hard failures the
// engine surfaces. Domain absences must map to the package sentinels
// ([ErrUserNotFound], [ErrDuplicateEmail], [ErrPreferencesNotFound],
// [ErrPushTokenNotFound]).
type UserProvider interface {
	Ping(ctx context.Context) error

	CreateUser(ctx context.Context, input CreateUserInput) (UserRecord, error)
	GetUserByID(ctx context.Context, userID string) (UserRecord, error)
	RecordLogin(ctx context.Context, userID, ip string) (UserRecord, error)
	RevokeSession(ctx context.Context, userID, refreshToken string) error
	UpdatePasswordHash(ctx context.Context, userID, newHash string) error

	GetProfile(ctx context.Context, userID string) (ProfileRecord, error)
	UpdateProfile(ctx context.Context, userID string, patch ProfilePatch) (ProfileRecord, error)

	GetPreferences(ctx context.Context, userID string) (PreferenceRecord, error)
	CreatePreferences(ctx context.Context, prefs PreferenceRecord) (PreferenceRecord, error)
	UpdatePreferences(ctx context.Context, userID string, prefs PreferenceRecord) (PreferenceRecord, error)

	ListPushTokens(ctx context.Context, userID string) ([]PushTokenRecord, error)
	GetPushToken(ctx context.Context, userID, tokenID string) (PushTokenRecord, error)
	FindPushTokenByValue(ctx context.Context, userID, token string) (PushTokenRecord, error)
	CreatePushToken(ctx context.Context, input CreatePushTokenInput) (PushTokenRecord, error)
	UpdatePushToken(ctx context.Context, userID, tokenID string, patch PushTokenPatch) (PushTokenRecord, error)
	DeletePushToken(ctx context.Context, userID, tokenID string) (PushTokenRecord, error)
	DeactivateAllPushTokens(ctx context.Context, userID string) (int, error)
}
