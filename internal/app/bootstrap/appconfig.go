// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for MemberHub.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig handles
// framework-level settings such as logging level and format; AppConfig is
// everything specific to this application: database connection, external
// service credentials, and mail settings.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string
	MongoDatabase    string
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Email/SMTP configuration
	MailSMTPHost string
	MailSMTPPort int
	MailSMTPUser string
	MailSMTPPass string
	MailFrom     string
	MailFromName string

	// Membership registry API
	RegistryURL    string
	RegistryKey    string
	RegistrySecret string
	RegistryClubID int64

	// Discussion forum API
	ForumURL          string
	ForumUsername     string
	ForumAPIKey       string
	ForumMaxRetries   int
	ForumRetryBackoff time.Duration

	// Saved forum data-explorer query ids
	ForumQueryUserEmails   int64
	ForumQueryInvites      int64
	ForumQueryInviteGroups int64

	// Mailing list API
	MailListURL            string
	MailListKey            string
	MailListName           string
	MailListShadowCategory string
	MailListCurrentGroup   string
	MailListPastGroup      string

	// Links embedded in reminder email
	ChecklistURL string
	DetailsURL   string

	// Directory for inter-process lock files
	LockDir string

	// Timeout applied to outbound service API requests
	HTTPTimeout time.Duration
}
