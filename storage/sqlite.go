package storage

import (
	"database/sql"
	"encoding/json"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"bds_scrooper/models"
)

// SQLiteStore holds the operational state: scrape runs, their log lines
// and the operator command queue.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS scrape_runs (
		id INTEGER PRIMARY KEY,
		platform TEXT,
		query TEXT,
		started_at DATETIME,
		finished_at DATETIME,
		status TEXT,
		listings_found INTEGER DEFAULT 0,
		duration_ms INTEGER DEFAULT 0,
		error TEXT
	);

	CREATE TABLE IF NOT EXISTS scrape_logs (
		id INTEGER PRIMARY KEY,
		run_id INTEGER,
		timestamp DATETIME,
		level TEXT,
		message TEXT,
		platform TEXT
	);

	CREATE TABLE IF NOT EXISTS commands (
		id INTEGER PRIMARY KEY,
		command TEXT,
		params JSON,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		processed_at DATETIME
	);

	CREATE INDEX IF NOT EXISTS idx_commands_pending ON commands(processed_at) WHERE processed_at IS NULL;
	CREATE INDEX IF NOT EXISTS idx_logs_run ON scrape_logs(run_id, timestamp);
	CREATE INDEX IF NOT EXISTS idx_runs_platform ON scrape_runs(platform, started_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) CreateRun(run *models.ScrapeRun) (int64, error) {
	result, err := s.db.Exec(`
		INSERT INTO scrape_runs (platform, query, started_at, status)
		VALUES (?, ?, ?, ?)`,
		run.Platform, run.Query, run.StartedAt, run.Status)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

func (s *SQLiteStore) UpdateRun(run *models.ScrapeRun) error {
	_, err := s.db.Exec(`
		UPDATE scrape_runs SET finished_at = ?, status = ?, listings_found = ?,
			duration_ms = ?, error = ?
		WHERE id = ?`,
		run.FinishedAt, run.Status, run.ListingsFound, run.DurationMS, nullString(run.Error), run.ID)
	return err
}

func (s *SQLiteStore) Log(runID *int64, level models.LogLevel, message, platform string) error {
	_, err := s.db.Exec(`
		INSERT INTO scrape_logs (run_id, timestamp, level, message, platform)
		VALUES (?, ?, ?, ?, ?)`,
		runID, time.Now(), level, message, platform)
	return err
}

func (s *SQLiteStore) RecentLogs(limit int) ([]models.ScrapeLog, error) {
	rows, err := s.db.Query(`
		SELECT id, run_id, timestamp, level, message, platform
		FROM scrape_logs ORDER BY timestamp DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []models.ScrapeLog
	for rows.Next() {
		var l models.ScrapeLog
		var platform sql.NullString
		if err := rows.Scan(&l.ID, &l.RunID, &l.Timestamp, &l.Level, &l.Message, &platform); err != nil {
			return nil, err
		}
		l.Platform = platform.String
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

// RecentRuns returns the latest runs, newest first.
func (s *SQLiteStore) RecentRuns(limit int) ([]models.ScrapeRun, error) {
	rows, err := s.db.Query(`
		SELECT id, platform, query, started_at, finished_at, status, listings_found, duration_ms, error
		FROM scrape_runs ORDER BY started_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []models.ScrapeRun
	for rows.Next() {
		var run models.ScrapeRun
		var runErr sql.NullString
		if err := rows.Scan(&run.ID, &run.Platform, &run.Query, &run.StartedAt, &run.FinishedAt,
			&run.Status, &run.ListingsFound, &run.DurationMS, &runErr); err != nil {
			return nil, err
		}
		run.Error = runErr.String
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// PlatformStats aggregates run history per platform.
func (s *SQLiteStore) PlatformStats() ([]models.PlatformStats, error) {
	rows, err := s.db.Query(`
		SELECT platform,
			MAX(started_at),
			(SELECT r2.status FROM scrape_runs r2 WHERE r2.platform = r.platform ORDER BY r2.started_at DESC, r2.id DESC LIMIT 1),
			COUNT(*),
			COALESCE(SUM(listings_found), 0),
			COALESCE(CAST(SUM(CASE WHEN status = 'completed' THEN 1 ELSE 0 END) AS REAL) / NULLIF(COUNT(*), 0), 0),
			COALESCE(CAST(AVG(duration_ms) AS INTEGER), 0)
		FROM scrape_runs r
		GROUP BY platform
		ORDER BY platform`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []models.PlatformStats
	for rows.Next() {
		var st models.PlatformStats
		var lastRun sql.NullString
		var lastStatus sql.NullString
		if err := rows.Scan(&st.Platform, &lastRun, &lastStatus, &st.TotalRuns, &st.TotalListings,
			&st.SuccessRate, &st.AvgDurationMS); err != nil {
			return nil, err
		}
		if t, ok := parseSQLiteTime(lastRun.String); ok {
			st.LastRunAt = &t
		}
		st.LastRunStatus = lastStatus.String
		stats = append(stats, st)
	}
	return stats, rows.Err()
}

// EnqueueCommand adds an operator command for the daemon to pick up.
func (s *SQLiteStore) EnqueueCommand(cmd models.CommandType, params models.CommandParams) (int64, error) {
	data, err := json.Marshal(params)
	if err != nil {
		return 0, err
	}
	result, err := s.db.Exec(`INSERT INTO commands (command, params, created_at) VALUES (?, ?, ?)`,
		cmd, string(data), time.Now())
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

func (s *SQLiteStore) GetPendingCommands() ([]models.Command, error) {
	rows, err := s.db.Query(`
		SELECT id, command, params, created_at, processed_at
		FROM commands WHERE processed_at IS NULL ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cmds []models.Command
	for rows.Next() {
		var cmd models.Command
		var params sql.NullString
		if err := rows.Scan(&cmd.ID, &cmd.Command, &params, &cmd.CreatedAt, &cmd.ProcessedAt); err != nil {
			return nil, err
		}
		if params.Valid {
			cmd.Params = json.RawMessage(params.String)
		}
		cmds = append(cmds, cmd)
	}
	return cmds, rows.Err()
}

func (s *SQLiteStore) MarkCommandProcessed(id int64) error {
	_, err := s.db.Exec(`UPDATE commands SET processed_at = ? WHERE id = ?`, time.Now(), id)
	return err
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

var sqliteTimeFormats = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02T15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	time.RFC3339Nano,
}

// parseSQLiteTime reads a timestamp produced by an aggregate, which the
// driver returns as text rather than time.Time.
func parseSQLiteTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range sqliteTimeFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
