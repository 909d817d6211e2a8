// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"time"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for MemberHub.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, registry_key, etc.
//   - Environment variables: MEMBERHUB_MONGO_URI, MEMBERHUB_REGISTRY_KEY, etc.
//   - Command-line flags: --mongo_uri, --registry_key, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "memberhub", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size"},

	// Email/SMTP configuration
	{Name: "mail_smtp_host", Default: "localhost", Desc: "SMTP server host"},
	{Name: "mail_smtp_port", Default: 1025, Desc: "SMTP server port"},
	{Name: "mail_smtp_user", Default: "", Desc: "SMTP username"},
	{Name: "mail_smtp_pass", Default: "", Desc: "SMTP password"},
	{Name: "mail_from", Default: "noreply@example.com", Desc: "Default from email address"},
	{Name: "mail_from_name", Default: "MemberHub", Desc: "From display name"},

	// Membership registry API
	{Name: "registry_url", Default: "", Desc: "Membership registry API base URL"},
	{Name: "registry_key", Default: "", Desc: "Membership registry API key"},
	{Name: "registry_secret", Default: "", Desc: "Membership registry API secret"},
	{Name: "registry_club_id", Default: 0, Desc: "Registry club id for membership download"},

	// Discussion forum API
	{Name: "forum_url", Default: "", Desc: "Forum API base URL"},
	{Name: "forum_username", Default: "", Desc: "Forum API username"},
	{Name: "forum_api_key", Default: "", Desc: "Forum API key"},
	{Name: "forum_max_retries", Default: 0, Desc: "Retries after a forum rate-limit response"},
	{Name: "forum_retry_backoff", Default: "5s", Desc: "Wait between forum rate-limit retries"},
	{Name: "forum_query_user_emails", Default: 0, Desc: "Forum data-explorer query id: user emails"},
	{Name: "forum_query_invites", Default: 0, Desc: "Forum data-explorer query id: open invites"},
	{Name: "forum_query_invite_groups", Default: 0, Desc: "Forum data-explorer query id: invite groups"},

	// Mailing list API
	{Name: "maillist_url", Default: "", Desc: "Mailing list API base URL (including version prefix)"},
	{Name: "maillist_key", Default: "", Desc: "Mailing list API key"},
	{Name: "maillist_name", Default: "", Desc: "Audience (list) name"},
	{Name: "maillist_shadow_category", Default: "", Desc: "Interest category mirroring member-only groups"},
	{Name: "maillist_current_group", Default: "", Desc: "Group marking current members"},
	{Name: "maillist_past_group", Default: "", Desc: "Group marking current and past members"},

	// Links embedded in reminder email
	{Name: "checklist_url", Default: "", Desc: "URL of the member task checklist"},
	{Name: "details_url", Default: "", Desc: "URL of the leadership task details view"},

	// Inter-process locks
	{Name: "lock_dir", Default: "/tmp/memberhub", Desc: "Directory for lock files"},

	// Outbound HTTP
	{Name: "http_timeout", Default: "30s", Desc: "Timeout for outbound service API requests"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, MEMBERHUB_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "MEMBERHUB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		MailSMTPHost: appValues.String("mail_smtp_host"),
		MailSMTPPort: appValues.Int("mail_smtp_port"),
		MailSMTPUser: appValues.String("mail_smtp_user"),
		MailSMTPPass: appValues.String("mail_smtp_pass"),
		MailFrom:     appValues.String("mail_from"),
		MailFromName: appValues.String("mail_from_name"),

		RegistryURL:    appValues.String("registry_url"),
		RegistryKey:    appValues.String("registry_key"),
		RegistrySecret: appValues.String("registry_secret"),
		RegistryClubID: int64(appValues.Int("registry_club_id")),

		ForumURL:          appValues.String("forum_url"),
		ForumUsername:     appValues.String("forum_username"),
		ForumAPIKey:       appValues.String("forum_api_key"),
		ForumMaxRetries:   appValues.Int("forum_max_retries"),
		ForumRetryBackoff: appValues.Duration("forum_retry_backoff", 5*time.Second),

		ForumQueryUserEmails:   int64(appValues.Int("forum_query_user_emails")),
		ForumQueryInvites:      int64(appValues.Int("forum_query_invites")),
		ForumQueryInviteGroups: int64(appValues.Int("forum_query_invite_groups")),

		MailListURL:            appValues.String("maillist_url"),
		MailListKey:            appValues.String("maillist_key"),
		MailListName:           appValues.String("maillist_name"),
		MailListShadowCategory: appValues.String("maillist_shadow_category"),
		MailListCurrentGroup:   appValues.String("maillist_current_group"),
		MailListPastGroup:      appValues.String("maillist_past_group"),

		ChecklistURL: appValues.String("checklist_url"),
		DetailsURL:   appValues.String("details_url"),

		LockDir: appValues.String("lock_dir"),

		HTTPTimeout: appValues.Duration("http_timeout", 30*time.Second),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation. It catches
// configuration errors early, before attempting to connect anywhere.
func ValidateConfig(appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	return nil
}
