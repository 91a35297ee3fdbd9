package testutil

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	postgresImage = "postgres:16-alpine"
	mailpitImage  = "ghcr.io/axllent/mailpit:latest"

	mailpitSMTPPort = "1025/tcp"
	mailpitAPIPort  = "8025/tcp"

	startupTimeout = 30 * time.Second
)

// Containers holds the PostgreSQL database and the Mailpit inbox used by
// integration tests.
type Containers struct {
	DatabaseURL string
	SMTPHost    string
	SMTPPort    int
	MailpitURL  string

	postgres *postgres.PostgresContainer
	mailpit  testcontainers.Container
}

// StartContainers starts PostgreSQL and Mailpit. On failure every
// container started so far is terminated.
func StartContainers(ctx context.Context) (*Containers, error) {
	c := &Containers{}

	if err := c.startPostgres(ctx); err != nil {
		return nil, err
	}
	if err := c.startMailpit(ctx); err != nil {
		return nil, errors.Join(err, c.Terminate(ctx))
	}
	return c, nil
}

// Terminate stops all started containers.
func (c *Containers) Terminate(ctx context.Context) error {
	var errs []error
	if c.mailpit != nil {
		if err := c.mailpit.Terminate(ctx); err != nil {
			errs = append(errs, fmt.Errorf("terminate mailpit: %w", err))
		}
	}
	if c.postgres != nil {
		if err := c.postgres.Terminate(ctx); err != nil {
			errs = append(errs, fmt.Errorf("terminate postgres: %w", err))
		}
	}
	return errors.Join(errs...)
}

func (c *Containers) startPostgres(ctx context.Context) error {
	container, err := postgres.Run(ctx, postgresImage,
		postgres.WithDatabase("billing_test"),
		postgres.WithUsername("billing"),
		postgres.WithPassword("billing"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(startupTimeout),
		),
	)
	if err != nil {
		return fmt.Errorf("start postgres container: %w", err)
	}
	c.postgres = container

	c.DatabaseURL, err = container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return errors.Join(fmt.Errorf("postgres connection string: %w", err), c.Terminate(ctx))
	}
	return nil
}

func (c *Containers) startMailpit(ctx context.Context) error {
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        mailpitImage,
			ExposedPorts: []string{mailpitSMTPPort, mailpitAPIPort},
			WaitingFor: wait.ForAll(
				wait.ForListeningPort(mailpitSMTPPort),
				wait.ForHTTP("/api/v1/info").WithPort(mailpitAPIPort),
			).WithDeadline(startupTimeout),
		},
		Started: true,
	})
	if err != nil {
		return fmt.Errorf("start mailpit container: %w", err)
	}
	c.mailpit = container

	host, err := container.Host(ctx)
	if err != nil {
		return fmt.Errorf("mailpit host: %w", err)
	}
	smtpPort, err := container.MappedPort(ctx, mailpitSMTPPort)
	if err != nil {
		return fmt.Errorf("mailpit smtp port: %w", err)
	}
	apiPort, err := container.MappedPort(ctx, mailpitAPIPort)
	if err != nil {
		return fmt.Errorf("mailpit api port: %w", err)
	}

	c.SMTPHost = host
	c.SMTPPort = smtpPort.Int()
	c.MailpitURL = fmt.Sprintf("http://%s:%d", host, apiPort.Int())
	return nil
}
