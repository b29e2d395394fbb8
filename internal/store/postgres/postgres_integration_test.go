//go:build integration

package postgres

// go test -tags=integration ./internal/store/postgres -count=1

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/hamed0406/sitewatch/internal/domain"
	"github.com/hamed0406/sitewatch/internal/store"
)

func TestStoreRoundTrip(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL empty")
	}

	ctx := context.Background()
	s, err := New(ctx, dsn)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer s.Close()

	tgt := &domain.Target{
		Name:           "integration",
		Types:          []domain.CheckType{domain.CheckHTTP, domain.CheckSSL},
		Address:        "https://example.com",
		Headers:        map[string]string{"X-Probe": "1"},
		NotifyChannels: []string{"ch-1"},
		Tags:           []string{"it"},
		Enabled:        true,
	}
	if err := s.CreateTarget(ctx, tgt); err != nil {
		t.Fatalf("create target: %v", err)
	}
	defer s.DeleteTarget(ctx, tgt.ID)

	got, err := s.Target(ctx, tgt.ID)
	if err != nil {
		t.Fatalf("get target: %v", err)
	}
	if len(got.Types) != 2 || got.Headers["X-Probe"] != "1" {
		t.Fatalf("jsonb round trip: %+v", got)
	}

	got.Name = "renamed"
	if err := s.UpdateTarget(ctx, got); err != nil {
		t.Fatalf("update target: %v", err)
	}

	days := 12
	log := &domain.CheckLog{
		TargetID:     tgt.ID,
		CheckType:    domain.CheckSSL,
		Status:       domain.StatusUp,
		ResponseTime: 33,
		CertDaysLeft: &days,
	}
	if err := s.AppendLog(ctx, log); err != nil {
		t.Fatalf("append log: %v", err)
	}
	if log.ID == 0 {
		t.Fatal("expected log ID from RETURNING")
	}

	latest, err := s.LatestLog(ctx, tgt.ID, domain.CheckSSL)
	if err != nil || latest == nil || latest.CertDaysLeft == nil || *latest.CertDaysLeft != 12 {
		t.Fatalf("latest log: %+v err=%v", latest, err)
	}
	up, err := s.Uptime(ctx, tgt.ID, 30, "")
	if err != nil || up != 100.0 {
		t.Fatalf("uptime: %v err=%v", up, err)
	}

	if err := s.AppendHeartbeat(ctx, &domain.Heartbeat{TargetID: tgt.ID, Status: domain.StatusUp, Message: "OK"}); err != nil {
		t.Fatalf("append heartbeat: %v", err)
	}
	hb, err := s.LastHeartbeat(ctx, tgt.ID)
	if err != nil || hb == nil || hb.Message != "OK" {
		t.Fatalf("last heartbeat: %+v err=%v", hb, err)
	}

	ch := &domain.Channel{Name: "it-hook", Provider: "webhook", Config: map[string]string{"webhook_url": "http://localhost/hook"}, Enabled: true}
	if err := s.CreateChannel(ctx, ch); err != nil {
		t.Fatalf("create channel: %v", err)
	}
	if err := s.DeleteChannel(ctx, ch.ID); err != nil {
		t.Fatalf("delete channel: %v", err)
	}
	if err := s.DeleteChannel(ctx, ch.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("double channel delete: %v", err)
	}

	if err := s.AppendEvent(ctx, &domain.Event{TargetID: tgt.ID, Kind: domain.EventUp, Message: "integration up"}); err != nil {
		t.Fatalf("append event: %v", err)
	}
	events, err := s.RecentEvents(ctx, 5)
	if err != nil || len(events) == 0 {
		t.Fatalf("recent events: %d err=%v", len(events), err)
	}

	old := &domain.CheckLog{TargetID: tgt.ID, CheckType: domain.CheckHTTP, Status: domain.StatusUp, CreatedAt: time.Now().UTC().AddDate(0, 0, -400)}
	if err := s.AppendLog(ctx, old); err != nil {
		t.Fatalf("append old log: %v", err)
	}
	removed, err := s.Cleanup(ctx, 365)
	if err != nil || removed < 1 {
		t.Fatalf("cleanup: removed=%d err=%v", removed, err)
	}
}
