package app

import (
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/study-on/billing/internal/billing"
	billingpostgres "github.com/study-on/billing/internal/billing/postgres"
	"github.com/study-on/billing/internal/catalog"
	catalogpostgres "github.com/study-on/billing/internal/catalog/postgres"
	"github.com/study-on/billing/internal/config"
	"github.com/study-on/billing/internal/identity"
	"github.com/study-on/billing/internal/identity/jwt"
	identitypostgres "github.com/study-on/billing/internal/identity/postgres"
	"github.com/study-on/billing/internal/jobs"
	"github.com/study-on/billing/internal/mail"
	"github.com/study-on/billing/internal/mail/sendgrid"
	"github.com/study-on/billing/internal/mail/smtp"
)

// Services holds the business services shared by the HTTP server and the
// command-line tool.
type Services struct {
	Identity *identity.Service
	Catalog  *catalog.Service
	Billing  *billing.Service
}

// NewServices wires repositories and services on top of db.
func NewServices(cfg *config.Config, db *pgxpool.Pool) *Services {
	catalogService := catalog.NewService(catalogpostgres.NewRepository(db))

	billingService := billing.NewService(
		billingpostgres.NewRepository(db),
		catalogService,
		billing.Config{WelcomeDeposit: decimal.NewFromFloat(cfg.Billing.WelcomeDeposit)},
	)

	identityRepo := identitypostgres.NewRepository(db)
	jwtAuth := jwt.NewAuthenticator(jwt.Config{
		SecretKey:            cfg.JWT.SecretKey,
		AccessTokenDuration:  cfg.JWT.AccessTokenDuration,
		RefreshTokenDuration: cfg.JWT.RefreshTokenDuration,
	}, identityRepo)

	return &Services{
		Identity: identity.NewService(identityRepo, jwtAuth, billingService),
		Catalog:  catalogService,
		Billing:  billingService,
	}
}

// NewMailSender creates the sender selected by mail.transport.
func NewMailSender(cfg config.MailConfig) (mail.Sender, error) {
	switch cfg.Transport {
	case config.TransportSMTP:
		sender, err := smtp.NewSender(smtp.Config{
			Host:        cfg.SMTP.Host,
			Port:        cfg.SMTP.Port,
			User:        cfg.SMTP.User,
			Password:    cfg.SMTP.Password,
			FromAddress: cfg.FromAddress,
		})
		if err != nil {
			return nil, err
		}
		return sender, nil
	case config.TransportSendGrid:
		sender, err := sendgrid.NewSender(sendgrid.Config{
			APIKey:      cfg.SendGrid.APIKey,
			FromAddress: cfg.FromAddress,
		})
		if err != nil {
			return nil, err
		}
		return sender, nil
	case config.TransportDisabled, "":
		return mail.DisabledSender{}, nil
	default:
		return nil, fmt.Errorf("unknown mail transport %q", cfg.Transport)
	}
}

// NewJobRunner creates the batch job runner.
func NewJobRunner(cfg *config.Config, services *Services) (*jobs.Runner, error) {
	sender, err := NewMailSender(cfg.Mail)
	if err != nil {
		return nil, fmt.Errorf("create mail sender: %w", err)
	}

	renderer, err := jobs.NewRenderer()
	if err != nil {
		return nil, fmt.Errorf("create renderer: %w", err)
	}

	return jobs.NewRunner(services.Identity, services.Billing, sender, renderer, jobs.Config{
		AdminAddress: cfg.Mail.AdminAddress,
		RateLimit:    cfg.Mail.RateLimit,
	}), nil
}
