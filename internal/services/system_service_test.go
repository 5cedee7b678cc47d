package services

import (
	"context"
	"errors"
	"testing"
	"time"

	domain "github.com/uniqmaker/api/internal/domain"
)

type fakeHealthRepo struct {
	report domain.SystemHealthReport
	err    error
}

func (f *fakeHealthRepo) Collect(context.Context) (domain.SystemHealthReport, error) {
	return f.report, f.err
}

func TestSystemServiceHealthReport(t *testing.T) {
	generated := time.Date(2025, 4, 1, 9, 30, 0, 0, time.UTC)
	repo := &fakeHealthRepo{
		report: domain.SystemHealthReport{
			Status: domain.HealthStatusDegraded,
			Checks: map[string]domain.SystemHealthCheck{
				"firestore": {Status: domain.HealthStatusOK},
				"supplier":  {Status: domain.HealthStatusDegraded, Error: "timeout"},
			},
			GeneratedAt: generated,
		},
	}
	svc, err := NewSystemService(SystemServiceDeps{HealthRepository: repo})
	if err != nil {
		t.Fatalf("NewSystemService: %v", err)
	}

	report, err := svc.HealthReport(context.Background())
	if err != nil {
		t.Fatalf("HealthReport: %v", err)
	}
	if report.Status != domain.HealthStatusDegraded {
		t.Fatalf("unexpected status %q", report.Status)
	}
	if !report.GeneratedAt.Equal(generated) {
		t.Fatalf("expected repository timestamp preserved, got %v", report.GeneratedAt)
	}
	if report.Checks["supplier"].Error != "timeout" {
		t.Fatalf("unexpected checks %+v", report.Checks)
	}
}

func TestSystemServiceHealthReportDefaults(t *testing.T) {
	now := time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)
	repo := &fakeHealthRepo{report: domain.SystemHealthReport{}}
	svc, err := NewSystemService(SystemServiceDeps{
		HealthRepository: repo,
		Clock:            fixedClock(now),
	})
	if err != nil {
		t.Fatalf("NewSystemService: %v", err)
	}

	report, err := svc.HealthReport(context.Background())
	if err != nil {
		t.Fatalf("HealthReport: %v", err)
	}
	if report.Status != domain.HealthStatusOK {
		t.Fatalf("expected ok default, got %q", report.Status)
	}
	if !report.GeneratedAt.Equal(now) {
		t.Fatalf("expected clock timestamp, got %v", report.GeneratedAt)
	}
}

func TestSystemServiceHealthReportError(t *testing.T) {
	repo := &fakeHealthRepo{err: errors.New("probe failed")}
	svc, err := NewSystemService(SystemServiceDeps{HealthRepository: repo})
	if err != nil {
		t.Fatalf("NewSystemService: %v", err)
	}

	if _, err := svc.HealthReport(context.Background()); err == nil {
		t.Fatal("expected collect error to propagate")
	}
}

func TestNewSystemServiceRequiresRepository(t *testing.T) {
	if _, err := NewSystemService(SystemServiceDeps{}); err == nil {
		t.Fatal("expected error without health repository")
	}
}
