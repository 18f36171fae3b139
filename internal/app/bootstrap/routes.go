// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	authfeature "github.com/dalemusser/clubhub/internal/app/features/auth"
	clubsfeature "github.com/dalemusser/clubhub/internal/app/features/clubs"
	eventsfeature "github.com/dalemusser/clubhub/internal/app/features/events"
	healthfeature "github.com/dalemusser/clubhub/internal/app/features/health"
	membersfeature "github.com/dalemusser/clubhub/internal/app/features/members"
	studentsfeature "github.com/dalemusser/clubhub/internal/app/features/students"
	"github.com/dalemusser/clubhub/internal/app/ledger"
	"github.com/dalemusser/clubhub/internal/app/query"
	clubstore "github.com/dalemusser/clubhub/internal/app/store/clubs"
	eventstore "github.com/dalemusser/clubhub/internal/app/store/events"
	reviewstore "github.com/dalemusser/clubhub/internal/app/store/reviews"
	studentstore "github.com/dalemusser/clubhub/internal/app/store/students"
	"github.com/dalemusser/clubhub/internal/app/system/mailer"
	"github.com/dalemusser/clubhub/internal/app/system/session"
	"github.com/dalemusser/clubhub/internal/app/system/token"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. At this point you have access to:
//   - coreCfg: WAFFLE core configuration (ports, env, timeouts, etc.)
//   - appCfg: app-specific configuration defined in AppConfig
//   - deps: any DB or backend clients bundled in DBDeps
//   - logger: the fully configured zap.Logger for this app
//
// ClubHub builds the store layer, the membership ledger and query service
// on top of it, then mounts the JSON feature routers. The clubs and
// members features share the /clubs prefix, so both register on the same
// sub-router.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	db := deps.MongoDatabase

	students := studentstore.New(db)
	clubs := clubstore.New(db)
	events := eventstore.New(db)
	reviews := reviewstore.New(db)

	led := ledger.New(deps.MongoClient, db, logger)
	queries := query.New(db, logger)

	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr := session.NewManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionMaxAge, secure, students, logger)

	var mail mailer.Sender
	if appCfg.MailMode == "smtp" {
		mail = &mailer.SMTPSender{
			Host: appCfg.MailSMTPHost,
			Port: appCfg.MailSMTPPort,
			From: appCfg.MailFrom,
			User: appCfg.MailSMTPUser,
			Pass: appCfg.MailSMTPPass,
		}
	} else {
		mail = &mailer.DevSender{Log: logger}
	}

	r := chi.NewRouter()

	// Global auth middleware: loads the session user into context when a
	// valid cookie is present. Handlers read it via session.CurrentUser(r).
	r.Use(sessionMgr.LoadSessionUser)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Verification links are signed with the same process secret as
	// sessions; the claim shapes are disjoint.
	tokens := token.NewCodec(appCfg.SessionKey)
	authHandler := authfeature.NewHandler(students, sessionMgr, tokens, mail, appCfg.EmailDomain, appCfg.BaseURL, appCfg.SiteName, logger)
	r.Mount("/auth", authfeature.Routes(authHandler))

	clubsHandler := clubsfeature.NewHandler(clubs, events, reviews, queries, led, logger)
	membersHandler := membersfeature.NewHandler(led, queries, logger)
	r.Route("/clubs", func(r chi.Router) {
		clubsfeature.Mount(r, clubsHandler)
		membersfeature.Mount(r, membersHandler)
	})

	eventsHandler := eventsfeature.NewHandler(deps.MongoClient, events, students, queries, logger)
	r.Mount("/events", eventsfeature.Routes(eventsHandler))

	studentsHandler := studentsfeature.NewHandler(students, clubs, queries, logger)
	r.Mount("/students", studentsfeature.Routes(studentsHandler))

	return r, nil
}
