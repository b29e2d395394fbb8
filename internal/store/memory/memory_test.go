package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hamed0406/sitewatch/internal/domain"
	"github.com/hamed0406/sitewatch/internal/store"
)

func TestStore_TargetCRUD(t *testing.T) {
	ctx := context.Background()
	s := New()

	tgt := &domain.Target{
		Name:    "example",
		Types:   []domain.CheckType{domain.CheckHTTP},
		Address: "https://example.com",
		Enabled: true,
	}
	if err := s.CreateTarget(ctx, tgt); err != nil {
		t.Fatalf("CreateTarget: %v", err)
	}
	if tgt.ID == "" {
		t.Fatal("expected target ID to be set")
	}
	if tgt.CreatedAt.IsZero() || tgt.UpdatedAt.IsZero() {
		t.Fatal("expected timestamps to be set")
	}

	got, err := s.Target(ctx, tgt.ID)
	if err != nil {
		t.Fatalf("Target: %v", err)
	}
	if got.Name != "example" {
		t.Fatalf("unexpected name: %s", got.Name)
	}

	// mutating the returned copy must not leak into the store
	got.Name = "changed"
	again, _ := s.Target(ctx, tgt.ID)
	if again.Name != "example" {
		t.Fatal("store leaked a mutable reference")
	}

	got.Name = "renamed"
	if err := s.UpdateTarget(ctx, got); err != nil {
		t.Fatalf("UpdateTarget: %v", err)
	}
	again, _ = s.Target(ctx, tgt.ID)
	if again.Name != "renamed" {
		t.Fatalf("update not applied: %s", again.Name)
	}

	all, err := s.ListTargets(ctx)
	if err != nil || len(all) != 1 {
		t.Fatalf("ListTargets: %v, n=%d", err, len(all))
	}

	if err := s.DeleteTarget(ctx, tgt.ID); err != nil {
		t.Fatalf("DeleteTarget: %v", err)
	}
	if _, err := s.Target(ctx, tgt.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	if err := s.DeleteTarget(ctx, tgt.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("double delete: want ErrNotFound, got %v", err)
	}
}

func TestStore_LogsAndLatest(t *testing.T) {
	ctx := context.Background()
	s := New()
	now := time.Now().UTC()

	rows := []*domain.CheckLog{
		{TargetID: "t1", CheckType: domain.CheckHTTP, Status: domain.StatusUp, ResponseTime: 100, CreatedAt: now.Add(-3 * time.Minute)},
		{TargetID: "t1", CheckType: domain.CheckSSL, Status: domain.StatusUp, ResponseTime: 40, CreatedAt: now.Add(-2 * time.Minute)},
		{TargetID: "t1", CheckType: domain.CheckHTTP, Status: domain.StatusDown, ResponseTime: 0, CreatedAt: now.Add(-1 * time.Minute)},
		{TargetID: "t2", CheckType: domain.CheckHTTP, Status: domain.StatusUp, ResponseTime: 80, CreatedAt: now},
	}
	for _, r := range rows {
		if err := s.AppendLog(ctx, r); err != nil {
			t.Fatalf("AppendLog: %v", err)
		}
	}

	latest, err := s.LatestLog(ctx, "t1", "")
	if err != nil {
		t.Fatalf("LatestLog: %v", err)
	}
	if latest == nil || latest.Status != domain.StatusDown {
		t.Fatalf("latest any-type: %+v", latest)
	}
	latest, _ = s.LatestLog(ctx, "t1", domain.CheckSSL)
	if latest == nil || latest.CheckType != domain.CheckSSL {
		t.Fatalf("latest ssl: %+v", latest)
	}
	latest, _ = s.LatestLog(ctx, "missing", "")
	if latest != nil {
		t.Fatalf("latest for unknown target: want nil, got %+v", latest)
	}

	recent, err := s.RecentLogs(ctx, "t1", 24, "")
	if err != nil {
		t.Fatalf("RecentLogs: %v", err)
	}
	if len(recent) != 3 {
		t.Fatalf("recent rows: want 3, got %d", len(recent))
	}
	if !recent[0].CreatedAt.Before(recent[1].CreatedAt) {
		t.Fatal("recent logs must be oldest first")
	}

	newest, err := s.Logs(ctx, "t1", 2)
	if err != nil {
		t.Fatalf("Logs: %v", err)
	}
	if len(newest) != 2 || newest[0].Status != domain.StatusDown {
		t.Fatalf("Logs newest-first: %+v", newest)
	}
}

func TestStore_UptimeAndAvg(t *testing.T) {
	ctx := context.Background()
	s := New()
	now := time.Now().UTC()

	// empty window reads as fully up
	up, err := s.Uptime(ctx, "t1", 30, "")
	if err != nil || up != 100.0 {
		t.Fatalf("empty uptime: want 100, got %v (%v)", up, err)
	}
	avg, err := s.AvgResponseTime(ctx, "t1", 24)
	if err != nil || avg != 0 {
		t.Fatalf("empty avg: want 0, got %v (%v)", avg, err)
	}

	logs := []*domain.CheckLog{
		{TargetID: "t1", CheckType: domain.CheckHTTP, Status: domain.StatusUp, ResponseTime: 100, CreatedAt: now.Add(-2 * time.Hour)},
		{TargetID: "t1", CheckType: domain.CheckHTTP, Status: domain.StatusUp, ResponseTime: 300, CreatedAt: now.Add(-1 * time.Hour)},
		{TargetID: "t1", CheckType: domain.CheckHTTP, Status: domain.StatusDown, ResponseTime: 0, CreatedAt: now.Add(-30 * time.Minute)},
		{TargetID: "t1", CheckType: domain.CheckSSL, Status: domain.StatusUp, ResponseTime: 50, CreatedAt: now.Add(-20 * time.Minute)},
		// outside every window below
		{TargetID: "t1", CheckType: domain.CheckHTTP, Status: domain.StatusDown, ResponseTime: 0, CreatedAt: now.AddDate(0, 0, -40)},
	}
	for _, l := range logs {
		if err := s.AppendLog(ctx, l); err != nil {
			t.Fatalf("AppendLog: %v", err)
		}
	}

	up, _ = s.Uptime(ctx, "t1", 30, "")
	if up != 75.0 {
		t.Fatalf("uptime all types: want 75, got %v", up)
	}
	up, _ = s.Uptime(ctx, "t1", 30, domain.CheckSSL)
	if up != 100.0 {
		t.Fatalf("uptime ssl: want 100, got %v", up)
	}

	avg, _ = s.AvgResponseTime(ctx, "t1", 24)
	if avg != 150.0 { // (100+300+50)/3
		t.Fatalf("avg response: want 150, got %v", avg)
	}
}

func TestStore_HeartbeatsChannelsEvents(t *testing.T) {
	ctx := context.Background()
	s := New()

	hb, err := s.LastHeartbeat(ctx, "t1")
	if err != nil || hb != nil {
		t.Fatalf("no heartbeat yet: got %+v (%v)", hb, err)
	}
	if err := s.AppendHeartbeat(ctx, &domain.Heartbeat{TargetID: "t1", Status: domain.StatusUp, Message: "OK"}); err != nil {
		t.Fatalf("AppendHeartbeat: %v", err)
	}
	if err := s.AppendHeartbeat(ctx, &domain.Heartbeat{TargetID: "t1", Status: domain.StatusDown, Message: "degraded"}); err != nil {
		t.Fatalf("AppendHeartbeat: %v", err)
	}
	hb, _ = s.LastHeartbeat(ctx, "t1")
	if hb == nil || hb.Message != "degraded" {
		t.Fatalf("last heartbeat: %+v", hb)
	}

	ch := &domain.Channel{Name: "ops", Provider: "webhook", Config: map[string]string{"url": "http://example.com/hook"}, Enabled: true}
	if err := s.CreateChannel(ctx, ch); err != nil {
		t.Fatalf("CreateChannel: %v", err)
	}
	if ch.ID == "" {
		t.Fatal("expected channel ID to be set")
	}
	chans, _ := s.ListChannels(ctx)
	if len(chans) != 1 || chans[0].Config["url"] == "" {
		t.Fatalf("ListChannels: %+v", chans)
	}
	if err := s.DeleteChannel(ctx, ch.ID); err != nil {
		t.Fatalf("DeleteChannel: %v", err)
	}
	if err := s.DeleteChannel(ctx, ch.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("double channel delete: %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := s.AppendEvent(ctx, &domain.Event{TargetID: "t1", Kind: domain.EventDown, Message: "down"}); err != nil {
			t.Fatalf("AppendEvent: %v", err)
		}
	}
	events, _ := s.RecentEvents(ctx, 2)
	if len(events) != 2 {
		t.Fatalf("RecentEvents limit: got %d", len(events))
	}
	if events[0].ID < events[1].ID {
		t.Fatal("events must be newest first")
	}
}

func TestStore_Cleanup(t *testing.T) {
	ctx := context.Background()
	s := New()
	old := time.Now().UTC().AddDate(0, 0, -100)

	s.AppendLog(ctx, &domain.CheckLog{TargetID: "t1", CheckType: domain.CheckHTTP, Status: domain.StatusUp, CreatedAt: old})
	s.AppendLog(ctx, &domain.CheckLog{TargetID: "t1", CheckType: domain.CheckHTTP, Status: domain.StatusUp})
	s.AppendHeartbeat(ctx, &domain.Heartbeat{TargetID: "t1", Status: domain.StatusUp, CreatedAt: old})
	s.AppendEvent(ctx, &domain.Event{TargetID: "t1", Kind: domain.EventUp, Message: "up", CreatedAt: old})

	removed, err := s.Cleanup(ctx, 90)
	if err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	if removed != 3 {
		t.Fatalf("removed: want 3, got %d", removed)
	}
	logs, _ := s.Logs(ctx, "t1", 0)
	if len(logs) != 1 {
		t.Fatalf("logs after cleanup: want 1, got %d", len(logs))
	}
}
