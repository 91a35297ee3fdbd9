// Package jobs implements the batch mail jobs: expiring-rental notices and
// the billing report.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/study-on/billing/internal/domain"
	"github.com/study-on/billing/internal/mail"
	"github.com/study-on/billing/internal/mail/smtp"
)

// Job names used in logs and metrics.
const (
	JobNotifyExpiring = "notify_expiring"
	JobReport         = "report"
)

// Mail subjects.
const (
	SubjectExpiring = "Course rental expiring"
	SubjectReport   = "Billing report"
)

// ErrNoAdminAddress is returned by MonthlyReport when no recipient is configured.
var ErrNoAdminAddress = errors.New("admin address is not configured")

// UserLister lists all users.
type UserLister interface {
	ListUsers(ctx context.Context) ([]domain.User, error)
}

// Ledger reads the transactions the jobs report on.
type Ledger interface {
	ListExpiringTransactions(ctx context.Context, userID string, now time.Time) ([]domain.Transaction, error)
	ListTransactionsSince(ctx context.Context, since time.Time) ([]domain.Transaction, error)
}

// Config contains job settings.
type Config struct {
	AdminAddress string
	// RateLimit caps sends per second. Zero means unlimited.
	RateLimit float64
}

// Runner executes batch jobs. Jobs run sequentially and stop at the first
// failed send.
type Runner struct {
	users    UserLister
	ledger   Ledger
	sender   mail.Sender
	renderer *Renderer
	limiter  *rate.Limiter
	config   Config
	now      func() time.Time
}

// NewRunner creates a new job runner.
func NewRunner(users UserLister, ledger Ledger, sender mail.Sender, renderer *Renderer, config Config) *Runner {
	limiter := rate.NewLimiter(rate.Inf, 0)
	if config.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(config.RateLimit), 1)
	}

	return &Runner{
		users:    users,
		ledger:   ledger,
		sender:   sender,
		renderer: renderer,
		limiter:  limiter,
		config:   config,
		now:      time.Now,
	}
}

// NotifyResult summarizes a NotifyExpiring run.
type NotifyResult struct {
	UsersChecked int
	MailsSent    int
}

// NotifyExpiring mails every user who has entries expiring within the next
// day. The run aborts on the first failure.
func (r *Runner) NotifyExpiring(ctx context.Context) (NotifyResult, error) {
	var result NotifyResult

	users, err := r.users.ListUsers(ctx)
	if err != nil {
		return result, fmt.Errorf("list users: %w", err)
	}

	now := r.now()
	for _, user := range users {
		result.UsersChecked++

		transactions, err := r.ledger.ListExpiringTransactions(ctx, user.ID, now)
		if err != nil {
			return result, fmt.Errorf("list expiring transactions for %s: %w", user.ID, err)
		}
		if len(transactions) == 0 {
			continue
		}

		body, err := r.renderer.RenderExpiring(transactions)
		if err != nil {
			return result, err
		}

		msg := mail.Message{
			To:      user.Email,
			Subject: SubjectExpiring,
			Body:    body,
			HTML:    true,
		}
		if err := r.send(ctx, JobNotifyExpiring, msg); err != nil {
			return result, fmt.Errorf("notify %s: %w", user.Email, err)
		}
		result.MailsSent++
	}

	slog.Info("expiring rentals notified",
		"users_checked", result.UsersChecked,
		"mails_sent", result.MailsSent,
	)
	return result, nil
}

// MonthlyReport aggregates course payments over ReportPeriod and mails the
// report to the admin address.
func (r *Runner) MonthlyReport(ctx context.Context) (Report, error) {
	if r.config.AdminAddress == "" {
		return Report{}, ErrNoAdminAddress
	}

	to := r.now().UTC()
	from := to.Add(-ReportPeriod)

	transactions, err := r.ledger.ListTransactionsSince(ctx, from)
	if err != nil {
		return Report{}, fmt.Errorf("list transactions: %w", err)
	}

	report := BuildReport(transactions, from, to)

	body, err := r.renderer.RenderReport(report)
	if err != nil {
		return report, err
	}

	msg := mail.Message{
		To:      r.config.AdminAddress,
		Subject: SubjectReport,
		Body:    body,
		HTML:    true,
	}
	if err := r.send(ctx, JobReport, msg); err != nil {
		return report, fmt.Errorf("send report: %w", err)
	}

	slog.Info("billing report sent",
		"courses", len(report.Courses),
		"total_count", report.TotalCount,
		"total_amount", report.TotalAmount.String(),
	)
	return report, nil
}

func (r *Runner) send(ctx context.Context, job string, msg mail.Message) error {
	if err := r.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit: %w", err)
	}

	start := time.Now()
	err := r.sender.Send(ctx, msg)
	mailSendDuration.WithLabelValues(job).Observe(time.Since(start).Seconds())

	if err != nil {
		mailsSent.WithLabelValues(job, "failed").Inc()
		slog.Error("failed to send mail",
			"job", job,
			"to", msg.To,
			"temporary", smtp.IsTemporary(err),
			"error", err,
		)
		return err
	}

	mailsSent.WithLabelValues(job, "success").Inc()
	return nil
}
