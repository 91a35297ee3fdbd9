package main

import (
	"context"

	"github.com/study-on/billing/internal/app"
	"github.com/study-on/billing/internal/domain"
	"github.com/study-on/billing/internal/fixtures"
	"github.com/study-on/billing/internal/jobs"
)

// serviceTasks runs tasks against the wired services.
type serviceTasks struct {
	services *app.Services
	runner   *jobs.Runner
	loader   *fixtures.Loader
}

func (t *serviceTasks) Seed(ctx context.Context) (fixtures.Result, error) {
	return t.loader.Load(ctx)
}

func (t *serviceTasks) CreateAdmin(ctx context.Context, email, password string) (*domain.User, error) {
	return t.services.Identity.CreateAdmin(ctx, email, password)
}

func (t *serviceTasks) NotifyExpiring(ctx context.Context) (jobs.NotifyResult, error) {
	return t.runner.NotifyExpiring(ctx)
}

func (t *serviceTasks) Report(ctx context.Context) (jobs.Report, error) {
	return t.runner.MonthlyReport(ctx)
}
