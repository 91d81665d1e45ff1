package storage

import (
	"path/filepath"
	"testing"
	"time"

	"bds_scrooper/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "scrooper.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func finishRun(t *testing.T, store *SQLiteStore, platform string, started time.Time, status models.RunStatus, found int, durationMS int64) int64 {
	t.Helper()
	run := &models.ScrapeRun{Platform: platform, Query: "nhà Cầu Giấy", StartedAt: started, Status: models.RunStatusRunning}
	id, err := store.CreateRun(run)
	if err != nil {
		t.Fatalf("create run: %v", err)
	}
	finished := started.Add(time.Duration(durationMS) * time.Millisecond)
	run.ID = id
	run.FinishedAt = &finished
	run.Status = status
	run.ListingsFound = found
	run.DurationMS = durationMS
	if status == models.RunStatusFailed {
		run.Error = "navigation timeout"
	}
	if err := store.UpdateRun(run); err != nil {
		t.Fatalf("update run: %v", err)
	}
	return id
}

func TestRunHistory(t *testing.T) {
	store := newTestStore(t)
	base := time.Date(2026, 3, 1, 2, 0, 0, 0, time.UTC)

	finishRun(t, store, "batdongsan", base, models.RunStatusCompleted, 12, 4000)
	finishRun(t, store, "chotot", base.Add(time.Minute), models.RunStatusCompleted, 5, 2000)
	failedID := finishRun(t, store, "batdongsan", base.Add(2*time.Minute), models.RunStatusFailed, 0, 1000)

	runs, err := store.RecentRuns(2)
	if err != nil {
		t.Fatalf("recent runs: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	latest := runs[0]
	if latest.ID != failedID || latest.Status != models.RunStatusFailed || latest.Error != "navigation timeout" {
		t.Fatalf("unexpected latest run %+v", latest)
	}
	if latest.FinishedAt == nil || !latest.StartedAt.Equal(base.Add(2*time.Minute)) {
		t.Fatalf("timestamps not round-tripped: %+v", latest)
	}
	if runs[1].Platform != "chotot" || runs[1].Error != "" {
		t.Fatalf("unexpected second run %+v", runs[1])
	}

	stats, err := store.PlatformStats()
	if err != nil {
		t.Fatalf("platform stats: %v", err)
	}
	if len(stats) != 2 || stats[0].Platform != "batdongsan" {
		t.Fatalf("unexpected stats %+v", stats)
	}
	bds := stats[0]
	if bds.TotalRuns != 2 || bds.TotalListings != 12 || bds.SuccessRate != 0.5 || bds.AvgDurationMS != 2500 {
		t.Fatalf("unexpected batdongsan stats %+v", bds)
	}
	if bds.LastRunStatus != string(models.RunStatusFailed) {
		t.Fatalf("expected last status failed, got %q", bds.LastRunStatus)
	}
	if bds.LastRunAt == nil || !bds.LastRunAt.Equal(base.Add(2*time.Minute)) {
		t.Fatalf("unexpected last run time %v", bds.LastRunAt)
	}
}

func TestCommandQueue(t *testing.T) {
	store := newTestStore(t)

	first, err := store.EnqueueCommand(models.CmdSearchNow, models.CommandParams{Query: "căn hộ Quận 7", Platforms: []string{"chotot"}})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if _, err := store.EnqueueCommand(models.CmdPause, models.CommandParams{}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	pending, err := store.GetPendingCommands()
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 2 || pending[0].ID != first || pending[0].Command != models.CmdSearchNow {
		t.Fatalf("unexpected pending commands %+v", pending)
	}
	params, err := pending[0].ParseParams()
	if err != nil {
		t.Fatalf("parse params: %v", err)
	}
	if params.Query != "căn hộ Quận 7" || len(params.Platforms) != 1 {
		t.Fatalf("unexpected params %+v", params)
	}

	if err := store.MarkCommandProcessed(first); err != nil {
		t.Fatalf("mark processed: %v", err)
	}
	pending, err = store.GetPendingCommands()
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 1 || pending[0].Command != models.CmdPause {
		t.Fatalf("expected only pause pending, got %+v", pending)
	}
}

func TestLogWithoutRun(t *testing.T) {
	store := newTestStore(t)
	if err := store.Log(nil, models.LogLevelInfo, "Indexed 3 listings", ""); err != nil {
		t.Fatalf("log: %v", err)
	}
	runID := int64(7)
	if err := store.Log(&runID, models.LogLevelError, "blocked", "mogi"); err != nil {
		t.Fatalf("log: %v", err)
	}

	logs, err := store.RecentLogs(10)
	if err != nil {
		t.Fatalf("recent logs: %v", err)
	}
	if len(logs) != 2 {
		t.Fatalf("expected 2 log lines, got %d", len(logs))
	}
	latest := logs[0]
	if latest.RunID == nil || *latest.RunID != 7 || latest.Level != models.LogLevelError || latest.Platform != "mogi" {
		t.Fatalf("unexpected latest log %+v", latest)
	}
	if logs[1].RunID != nil || logs[1].Message != "Indexed 3 listings" {
		t.Fatalf("unexpected first log %+v", logs[1])
	}
}

func TestParseSQLiteTime(t *testing.T) {
	want := time.Date(2026, 3, 1, 2, 0, 0, 0, time.UTC)
	for _, s := range []string{
		"2026-03-01 02:00:00+00:00",
		"2026-03-01T02:00:00+00:00",
		"2026-03-01 02:00:00",
		"2026-03-01T02:00:00Z",
	} {
		got, ok := parseSQLiteTime(s)
		if !ok || !got.Equal(want) {
			t.Errorf("parseSQLiteTime(%q) = %v, %v", s, got, ok)
		}
	}
	if _, ok := parseSQLiteTime(""); ok {
		t.Error("empty string parsed")
	}
	if _, ok := parseSQLiteTime("yesterday"); ok {
		t.Error("garbage parsed")
	}
}
