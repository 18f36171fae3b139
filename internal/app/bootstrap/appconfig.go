// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). They represent *app-level*
// configuration, not WAFFLE core configuration.
//
// WAFFLE's CoreConfig handles framework-level settings like:
//   - HTTP/HTTPS ports and TLS configuration
//   - Logging level and format
//   - CORS settings
//   - Request body size limits
//
// AppConfig is where everything specific to ClubHub lives: the MongoDB
// connection, session token signing, the campus email domain policy, and
// outbound mail.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Session token configuration
	SessionKey    string        // Secret for signing session tokens (must be strong in production)
	SessionName   string        // Session cookie name
	SessionMaxAge time.Duration // Session lifetime (default: 14 days)

	// Registration policy
	EmailDomain string // Campus email domain registrations must carry (e.g., "emory.edu")

	// Site identity, used in outbound mail and links
	SiteName string
	BaseURL  string // e.g., "https://clubhub.emory.edu" or "http://localhost:3000"

	// Email/SMTP configuration
	MailMode     string // "dev" logs outbound mail, "smtp" sends it
	MailSMTPHost string
	MailSMTPPort int
	MailSMTPUser string
	MailSMTPPass string
	MailFrom     string // From email address (e.g., noreply@clubhub.emory.edu)
}
