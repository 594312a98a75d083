package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"github.com/spoolfm/spool/models"
)

// DB is a wrapper around sql.DB bound to one plays table.
type DB struct {
	*sql.DB
	table string
}

// New creates a new database connection. The table name is logical
// configuration, so it is validated here rather than interpolated blindly.
func New(dbPath, table string) (*DB, error) {
	if !validTableName(table) {
		return nil, fmt.Errorf("invalid table name: %q", table)
	}

	if dir := filepath.Dir(dbPath); dbPath != ":memory:" && dir != "." && dir != "/" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	// Test the connection
	if err = db.Ping(); err != nil {
		return nil, err
	}

	return &DB{db, table}, nil
}

func validTableName(table string) bool {
	if table == "" {
		return false
	}
	for _, r := range table {
		if !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return false
		}
	}
	return true
}

// Initialize sets up the plays table
func (db *DB) Initialize() error {
	_, err := db.Exec(fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS %s (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		artist TEXT NOT NULL,
		title TEXT NOT NULL,
		album TEXT NOT NULL,
		played_at TEXT NOT NULL UNIQUE,
		duration TEXT NOT NULL,
		time_taken TEXT
	)`, db.table))

	return err
}

// UpsertPlay stores a play keyed by its played_at text. If a play with the
// same played_at already exists its descriptive fields are overwritten;
// time_taken is never touched here, so a backfilled estimate survives
// re-ingestion of the same play.
func (db *DB) UpsertPlay(play *models.Play) error {
	_, err := db.Exec(fmt.Sprintf(`
	INSERT INTO %s (artist, title, album, played_at, duration)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(played_at) DO UPDATE SET
		artist = excluded.artist,
		title = excluded.title,
		album = excluded.album,
		duration = excluded.duration`, db.table),
		play.Artist, play.Title, play.Album, play.PlayedAt, play.Duration)

	return err
}

// AllPlaysByRecency returns every stored play, newest first. The played_at
// format sorts lexicographically in chronological order, so text ordering
// is timestamp ordering.
func (db *DB) AllPlaysByRecency() ([]*models.Play, error) {
	rows, err := db.Query(fmt.Sprintf(`
    SELECT id, artist, title, album, played_at, duration, time_taken
    FROM %s
    ORDER BY played_at DESC`, db.table))

	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var plays []*models.Play

	for rows.Next() {
		play := &models.Play{}
		err := rows.Scan(
			&play.ID,
			&play.Artist,
			&play.Title,
			&play.Album,
			&play.PlayedAt,
			&play.Duration,
			&play.TimeTaken,
		)

		if err != nil {
			return nil, err
		}

		plays = append(plays, play)
	}

	return plays, rows.Err()
}

// SetTimeTaken writes the computed listening estimate for a single play.
func (db *DB) SetTimeTaken(id int64, value string) error {
	result, err := db.Exec(fmt.Sprintf(`
	UPDATE %s SET time_taken = ? WHERE id = ?`, db.table), value, id)

	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("no play with id %d", id)
	}

	return nil
}

// GetPlayByPlayedAt retrieves a single play by its upsert key.
func (db *DB) GetPlayByPlayedAt(playedAt string) (*models.Play, error) {
	play := &models.Play{}

	err := db.QueryRow(fmt.Sprintf(`
	SELECT id, artist, title, album, played_at, duration, time_taken
	FROM %s WHERE played_at = ?`, db.table), playedAt).Scan(
		&play.ID, &play.Artist, &play.Title, &play.Album,
		&play.PlayedAt, &play.Duration, &play.TimeTaken)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	return play, nil
}

// CountPlays returns the number of stored plays.
func (db *DB) CountPlays() (int, error) {
	var count int
	err := db.QueryRow(fmt.Sprintf(`SELECT COUNT(*) FROM %s`, db.table)).Scan(&count)
	return count, err
}
