package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"chorebuddy/backend"

	_ "modernc.org/sqlite"
)

// timeLayout is a fixed-width UTC layout so stored timestamps sort lexically
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Backend implements backend.ChoreStore using SQLite
type Backend struct {
	db     *sql.DB
	path   string
	closed bool
}

// New opens (or creates) the database at path and initializes the schema
func New(path string) (*Backend, error) {
	b := &Backend{path: path}
	if err := b.open(); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *Backend) open() error {
	db, err := sql.Open("sqlite", b.path)
	if err != nil {
		return err
	}
	// A single connection keeps :memory: databases coherent and serializes writers.
	db.SetMaxOpenConns(1)

	b.db = db
	b.closed = false
	if err := b.initSchema(); err != nil {
		_ = db.Close()
		b.closed = true
		return err
	}
	return nil
}

// migrations are applied in order; user_version records how many have run
var migrations = []string{
	`
	CREATE TABLE IF NOT EXISTS chores (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		uid TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL COLLATE NOCASE UNIQUE,
		last_completed TEXT,
		is_active INTEGER NOT NULL DEFAULT 1,
		last_note TEXT NOT NULL DEFAULT '',
		next_due TEXT,
		recurrence TEXT NOT NULL DEFAULT 'none',
		notifications_enabled INTEGER NOT NULL DEFAULT 1,
		created TEXT NOT NULL,
		modified TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS tags (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		color TEXT NOT NULL DEFAULT '#007ACC'
	);

	CREATE TABLE IF NOT EXISTS chore_tags (
		chore_id INTEGER NOT NULL,
		tag_id INTEGER NOT NULL,
		PRIMARY KEY (chore_id, tag_id),
		FOREIGN KEY (chore_id) REFERENCES chores(id) ON DELETE CASCADE,
		FOREIGN KEY (tag_id) REFERENCES tags(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS completion_records (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		chore_id INTEGER NOT NULL,
		completed_at TEXT NOT NULL,
		note TEXT NOT NULL DEFAULT '',
		FOREIGN KEY (chore_id) REFERENCES chores(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_completion_records_chore_id ON completion_records(chore_id);
	CREATE INDEX IF NOT EXISTS idx_chores_is_active ON chores(is_active);
	`,
	`
	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`,
}

// SchemaVersion is the user_version of a fully migrated database
var SchemaVersion = len(migrations)

// initSchema enables pragmas and applies pending migrations
func (b *Backend) initSchema() error {
	if _, err := b.db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return err
	}
	if b.path != ":memory:" && b.path != "" {
		if _, err := b.db.Exec("PRAGMA journal_mode = WAL"); err != nil {
			return err
		}
		if _, err := b.db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
			return err
		}
	}

	var version int
	if err := b.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return err
	}

	for i := version; i < len(migrations); i++ {
		if _, err := b.db.Exec(migrations[i]); err != nil {
			return fmt.Errorf("migration %d: %w", i+1, err)
		}
		if _, err := b.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", i+1)); err != nil {
			return err
		}
	}
	return nil
}

// Path returns the database file path
func (b *Backend) Path() string {
	return b.path
}

// DB exposes the underlying handle for packages that keep their own tables
func (b *Backend) DB() *sql.DB {
	return b.db
}

// Close closes the database connection. The closed handle is kept, so later
// calls fail with sql's "database is closed" error until Reopen succeeds.
func (b *Backend) Close() error {
	if b.closed {
		return nil
	}
	b.closed = true
	return b.db.Close()
}

// Reopen opens the database file again after Close, e.g. once a backup was restored
func (b *Backend) Reopen() error {
	if !b.closed {
		return errors.New("database is still open")
	}
	return b.open()
}

// Checkpoint flushes the write-ahead log into the main database file
func (b *Backend) Checkpoint(ctx context.Context) error {
	_, err := b.db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)")
	return err
}

// formatTime converts t to the stored representation
func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// timeToNullString converts a *time.Time to sql.NullString for database storage.
func timeToNullString(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

// parseTime parses a stored timestamp and returns it in local time
func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t.Local()
}

// parseOptionalTime parses a nullable timestamp
func parseOptionalTime(str sql.NullString) *time.Time {
	if str.Valid && str.String != "" {
		t := parseTime(str.String)
		if !t.IsZero() {
			return &t
		}
	}
	return nil
}

// scanner is an interface satisfied by both *sql.Rows and *sql.Row
type scanner interface {
	Scan(dest ...any) error
}

const choreColumns = "c.id, c.uid, c.name, c.last_completed, c.is_active, c.last_note, c.next_due, c.recurrence, c.notifications_enabled, c.created, c.modified"

// choreScanTargets returns the scan destinations for choreColumns and a
// finisher that copies the nullable columns into the chore
func choreScanTargets(c *backend.Chore) ([]any, func()) {
	var lastCompleted, nextDue sql.NullString
	var created, modified, recurrence string
	targets := []any{
		&c.ID, &c.UID, &c.Name, &lastCompleted, &c.IsActive, &c.LastNote,
		&nextDue, &recurrence, &c.NotificationsEnabled, &created, &modified,
	}
	return targets, func() {
		c.LastCompleted = parseOptionalTime(lastCompleted)
		c.NextDueDate = parseOptionalTime(nextDue)
		c.Recurrence = backend.RecurrenceType(recurrence)
		c.Created = parseTime(created)
		c.Modified = parseTime(modified)
	}
}

// scanChore scans a chore from any scanner (Rows or Row)
func scanChore(s scanner) (*backend.Chore, error) {
	var c backend.Chore
	targets, finish := choreScanTargets(&c)
	if err := s.Scan(targets...); err != nil {
		return nil, err
	}
	finish()
	return &c, nil
}

func (b *Backend) queryChores(ctx context.Context, where string, args ...any) ([]backend.Chore, error) {
	rows, err := b.db.QueryContext(ctx, "SELECT "+choreColumns+" FROM chores c WHERE "+where+" ORDER BY c.name", args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	chores := []backend.Chore{}
	for rows.Next() {
		c, err := scanChore(rows)
		if err != nil {
			return nil, err
		}
		chores = append(chores, *c)
	}
	return chores, rows.Err()
}

// ListActiveChores returns all chores that are not archived
func (b *Backend) ListActiveChores(ctx context.Context) ([]backend.Chore, error) {
	return b.queryChores(ctx, "c.is_active = 1")
}

// ListArchivedChores returns all archived chores
func (b *Backend) ListArchivedChores(ctx context.Context) ([]backend.Chore, error) {
	return b.queryChores(ctx, "c.is_active = 0")
}

// ListActiveChoreItems returns active chores with their tags using one join query
func (b *Backend) ListActiveChoreItems(ctx context.Context) ([]backend.ChoreItem, error) {
	rows, err := b.db.QueryContext(ctx, `
		SELECT `+choreColumns+`, t.id, t.name, t.color
		FROM chores c
		LEFT JOIN chore_tags ct ON c.id = ct.chore_id
		LEFT JOIN tags t ON ct.tag_id = t.id
		WHERE c.is_active = 1
		ORDER BY c.name, t.name`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	items := []backend.ChoreItem{}
	index := make(map[int64]int)
	for rows.Next() {
		var c backend.Chore
		var tagID sql.NullInt64
		var tagName, tagColor sql.NullString
		targets, finish := choreScanTargets(&c)
		targets = append(targets, &tagID, &tagName, &tagColor)
		if err := rows.Scan(targets...); err != nil {
			return nil, err
		}
		finish()

		i, ok := index[c.ID]
		if !ok {
			items = append(items, backend.ChoreItem{Chore: c, Tags: []backend.Tag{}})
			i = len(items) - 1
			index[c.ID] = i
		}
		if tagID.Valid {
			items[i].Tags = append(items[i].Tags, backend.Tag{ID: tagID.Int64, Name: tagName.String, Color: tagColor.String})
		}
	}
	return items, rows.Err()
}

// GetChore returns a chore by id or backend.ErrNotFound
func (b *Backend) GetChore(ctx context.Context, id int64) (*backend.Chore, error) {
	row := b.db.QueryRowContext(ctx, "SELECT "+choreColumns+" FROM chores c WHERE c.id = ?", id)
	c, err := scanChore(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, backend.ErrNotFound
	}
	return c, err
}

// GetChoreByName returns a chore by name (case-insensitive) or backend.ErrNotFound
func (b *Backend) GetChoreByName(ctx context.Context, name string) (*backend.Chore, error) {
	row := b.db.QueryRowContext(ctx,
		"SELECT "+choreColumns+" FROM chores c WHERE LOWER(c.name) = LOWER(?)",
		strings.TrimSpace(name))
	c, err := scanChore(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, backend.ErrNotFound
	}
	return c, err
}

// querier is satisfied by both *sql.DB and *sql.Tx
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// checkChoreName validates a chore name and rejects a case-insensitive clash
// with any chore other than id.
func checkChoreName(ctx context.Context, q querier, name string, id int64) error {
	if name == "" {
		return backend.ErrEmptyName
	}
	var existingID int64
	err := q.QueryRowContext(ctx, "SELECT id FROM chores WHERE LOWER(name) = LOWER(?)", name).Scan(&existingID)
	switch {
	case err == nil && existingID != id:
		return backend.ErrDuplicateName
	case err != nil && !errors.Is(err, sql.ErrNoRows):
		return err
	}
	return nil
}

func insertChore(ctx context.Context, q querier, chore *backend.Chore) (int64, error) {
	name := strings.TrimSpace(chore.Name)
	if err := checkChoreName(ctx, q, name, 0); err != nil {
		return 0, err
	}
	if chore.Recurrence == "" {
		chore.Recurrence = backend.RecurNone
	}
	uid := chore.UID
	if uid == "" {
		uid = backend.GenerateUID()
	}
	nowStr := formatTime(time.Now())
	res, err := q.ExecContext(ctx,
		`INSERT INTO chores (uid, name, last_completed, is_active, last_note, next_due, recurrence, notifications_enabled, created, modified)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		uid, name, timeToNullString(chore.LastCompleted), chore.IsActive, chore.LastNote,
		timeToNullString(chore.NextDueDate), string(chore.Recurrence), chore.NotificationsEnabled, nowStr, nowStr,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// SaveChore inserts a chore when its ID is zero and updates it otherwise.
// Another chore with the same name (case-insensitive) yields backend.ErrDuplicateName.
func (b *Backend) SaveChore(ctx context.Context, chore *backend.Chore) (*backend.Chore, error) {
	if chore.ID == 0 {
		id, err := insertChore(ctx, b.db, chore)
		if err != nil {
			return nil, err
		}
		return b.GetChore(ctx, id)
	}

	name := strings.TrimSpace(chore.Name)
	if err := checkChoreName(ctx, b.db, name, chore.ID); err != nil {
		return nil, err
	}
	if chore.Recurrence == "" {
		chore.Recurrence = backend.RecurNone
	}
	res, err := b.db.ExecContext(ctx,
		`UPDATE chores SET name = ?, last_completed = ?, is_active = ?, last_note = ?, next_due = ?, recurrence = ?, notifications_enabled = ?, modified = ?
		 WHERE id = ?`,
		name, timeToNullString(chore.LastCompleted), chore.IsActive, chore.LastNote,
		timeToNullString(chore.NextDueDate), string(chore.Recurrence), chore.NotificationsEnabled, formatTime(time.Now()),
		chore.ID,
	)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, backend.ErrNotFound
	}
	return b.GetChore(ctx, chore.ID)
}

// CreateChore inserts chore, creates the tags that have no ID yet and links
// all of them, atomically. Nothing is written when any step fails.
func (b *Backend) CreateChore(ctx context.Context, chore *backend.Chore, tags []backend.Tag) (*backend.Chore, error) {
	var id int64
	err := b.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		if id, err = insertChore(ctx, tx, chore); err != nil {
			return err
		}
		for _, tag := range tags {
			tagID := tag.ID
			if tagID == 0 {
				created, err := insertTag(ctx, tx, &tag)
				if err != nil {
					return err
				}
				tagID = created.ID
			}
			if _, err := tx.ExecContext(ctx,
				"INSERT OR IGNORE INTO chore_tags (chore_id, tag_id) VALUES (?, ?)", id, tagID,
			); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return b.GetChore(ctx, id)
}

// SetChoreActive archives (false) or unarchives (true) a chore
func (b *Backend) SetChoreActive(ctx context.Context, id int64, active bool) error {
	res, err := b.db.ExecContext(ctx, "UPDATE chores SET is_active = ?, modified = ? WHERE id = ?", active, formatTime(time.Now()), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return backend.ErrNotFound
	}
	return nil
}

// DeleteChore removes a chore together with its history and tag links
func (b *Backend) DeleteChore(ctx context.Context, id int64) error {
	return b.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM completion_records WHERE chore_id = ?", id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM chore_tags WHERE chore_id = ?", id); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, "DELETE FROM chores WHERE id = ?", id)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return backend.ErrNotFound
		}
		return nil
	})
}

// DeleteAllChores removes every chore, completion record and tag link
func (b *Backend) DeleteAllChores(ctx context.Context) error {
	return b.withTx(ctx, func(tx *sql.Tx) error {
		for _, stmt := range []string{"DELETE FROM completion_records", "DELETE FROM chore_tags", "DELETE FROM chores"} {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return err
			}
		}
		return nil
	})
}

// CompleteChore records a completion and updates the chore's last-completed
// details and next due date atomically. Returns the new record id.
func (b *Backend) CompleteChore(ctx context.Context, choreID int64, completedAt time.Time, note string, nextDue *time.Time) (int64, error) {
	var recordID int64
	err := b.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			"UPDATE chores SET last_completed = ?, last_note = ?, next_due = ?, modified = ? WHERE id = ?",
			formatTime(completedAt), note, timeToNullString(nextDue), formatTime(time.Now()), choreID,
		)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return backend.ErrNotFound
		}

		res, err = tx.ExecContext(ctx,
			"INSERT INTO completion_records (chore_id, completed_at, note) VALUES (?, ?, ?)",
			choreID, formatTime(completedAt), note,
		)
		if err != nil {
			return err
		}
		recordID, err = res.LastInsertId()
		return err
	})
	return recordID, err
}

// History returns a chore's completion records, newest first
func (b *Backend) History(ctx context.Context, choreID int64) ([]backend.CompletionRecord, error) {
	rows, err := b.db.QueryContext(ctx,
		"SELECT id, chore_id, completed_at, note FROM completion_records WHERE chore_id = ? ORDER BY completed_at DESC, id DESC",
		choreID,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	records := []backend.CompletionRecord{}
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *r)
	}
	return records, rows.Err()
}

func scanRecord(s scanner) (*backend.CompletionRecord, error) {
	var r backend.CompletionRecord
	var completedAt string
	if err := s.Scan(&r.ID, &r.ChoreID, &completedAt, &r.Note); err != nil {
		return nil, err
	}
	r.CompletedAt = parseTime(completedAt)
	return &r, nil
}

// GetCompletionRecord returns a record by id or backend.ErrNotFound
func (b *Backend) GetCompletionRecord(ctx context.Context, recordID int64) (*backend.CompletionRecord, error) {
	row := b.db.QueryRowContext(ctx, "SELECT id, chore_id, completed_at, note FROM completion_records WHERE id = ?", recordID)
	r, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, backend.ErrNotFound
	}
	return r, err
}

// UpdateCompletionNote changes a record's note and refreshes the chore's last note
func (b *Backend) UpdateCompletionNote(ctx context.Context, recordID int64, note string) error {
	return b.withTx(ctx, func(tx *sql.Tx) error {
		choreID, err := recordChoreID(ctx, tx, recordID)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "UPDATE completion_records SET note = ? WHERE id = ?", note, recordID); err != nil {
			return err
		}
		return refreshLastCompletion(ctx, tx, choreID)
	})
}

// DeleteCompletionRecord removes a record and recomputes the chore's last completion
func (b *Backend) DeleteCompletionRecord(ctx context.Context, recordID int64) error {
	return b.withTx(ctx, func(tx *sql.Tx) error {
		choreID, err := recordChoreID(ctx, tx, recordID)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM completion_records WHERE id = ?", recordID); err != nil {
			return err
		}
		return refreshLastCompletion(ctx, tx, choreID)
	})
}

func recordChoreID(ctx context.Context, tx *sql.Tx, recordID int64) (int64, error) {
	var choreID int64
	err := tx.QueryRowContext(ctx, "SELECT chore_id FROM completion_records WHERE id = ?", recordID).Scan(&choreID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, backend.ErrNotFound
	}
	return choreID, err
}

// refreshLastCompletion copies the newest remaining record onto the chore
func refreshLastCompletion(ctx context.Context, tx *sql.Tx, choreID int64) error {
	var completedAt sql.NullString
	var note string
	err := tx.QueryRowContext(ctx,
		"SELECT completed_at, note FROM completion_records WHERE chore_id = ? ORDER BY completed_at DESC, id DESC LIMIT 1",
		choreID,
	).Scan(&completedAt, &note)
	if errors.Is(err, sql.ErrNoRows) {
		completedAt = sql.NullString{}
		note = ""
	} else if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		"UPDATE chores SET last_completed = ?, last_note = ?, modified = ? WHERE id = ?",
		completedAt, note, formatTime(time.Now()), choreID,
	)
	return err
}

// ListTags returns all tags ordered by name
func (b *Backend) ListTags(ctx context.Context) ([]backend.Tag, error) {
	return b.queryTags(ctx, "SELECT id, name, color FROM tags ORDER BY name")
}

// TagsForChore returns the tags attached to a chore ordered by name
func (b *Backend) TagsForChore(ctx context.Context, choreID int64) ([]backend.Tag, error) {
	return b.queryTags(ctx, `
		SELECT t.id, t.name, t.color FROM tags t
		JOIN chore_tags ct ON ct.tag_id = t.id
		WHERE ct.chore_id = ?
		ORDER BY t.name`, choreID)
}

func (b *Backend) queryTags(ctx context.Context, query string, args ...any) ([]backend.Tag, error) {
	rows, err := b.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	tags := []backend.Tag{}
	for rows.Next() {
		var t backend.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Color); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// GetTagByName returns a tag by (normalized) name or backend.ErrNotFound
func (b *Backend) GetTagByName(ctx context.Context, name string) (*backend.Tag, error) {
	return getTagByName(ctx, b.db, name)
}

func getTagByName(ctx context.Context, q querier, name string) (*backend.Tag, error) {
	var t backend.Tag
	err := q.QueryRowContext(ctx, "SELECT id, name, color FROM tags WHERE name = ?", backend.NormalizeTagName(name)).
		Scan(&t.ID, &t.Name, &t.Color)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, backend.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// checkTag normalizes and validates tag, rejecting a name clash with any tag
// other than tag itself.
func checkTag(ctx context.Context, q querier, tag *backend.Tag) (name, color string, err error) {
	name = backend.NormalizeTagName(tag.Name)
	if name == "" {
		return "", "", backend.ErrEmptyName
	}
	if len([]rune(name)) > backend.MaxTagNameLength {
		return "", "", backend.ErrTagNameTooLong
	}
	color = tag.Color
	if color == "" {
		color = backend.DefaultTagColor
	}

	existing, err := getTagByName(ctx, q, name)
	switch {
	case err == nil && existing.ID != tag.ID:
		return "", "", backend.ErrDuplicateName
	case err != nil && !errors.Is(err, backend.ErrNotFound):
		return "", "", err
	}
	return name, color, nil
}

func insertTag(ctx context.Context, q querier, tag *backend.Tag) (*backend.Tag, error) {
	name, color, err := checkTag(ctx, q, &backend.Tag{Name: tag.Name, Color: tag.Color})
	if err != nil {
		return nil, err
	}
	res, err := q.ExecContext(ctx, "INSERT INTO tags (name, color) VALUES (?, ?)", name, color)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &backend.Tag{ID: id, Name: name, Color: color}, nil
}

// SaveTag inserts a tag when its ID is zero and updates it otherwise.
// Names are stored lower-cased and trimmed.
func (b *Backend) SaveTag(ctx context.Context, tag *backend.Tag) (*backend.Tag, error) {
	if tag.ID == 0 {
		return insertTag(ctx, b.db, tag)
	}

	name, color, err := checkTag(ctx, b.db, tag)
	if err != nil {
		return nil, err
	}
	res, err := b.db.ExecContext(ctx, "UPDATE tags SET name = ?, color = ? WHERE id = ?", name, color, tag.ID)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, backend.ErrNotFound
	}
	return &backend.Tag{ID: tag.ID, Name: name, Color: color}, nil
}

// DeleteTag removes a tag and detaches it from all chores
func (b *Backend) DeleteTag(ctx context.Context, id int64) error {
	return b.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM chore_tags WHERE tag_id = ?", id); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, "DELETE FROM tags WHERE id = ?", id)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return backend.ErrNotFound
		}
		return nil
	})
}

// DeleteAllTags removes every tag and tag link
func (b *Backend) DeleteAllTags(ctx context.Context) error {
	return b.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM chore_tags"); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, "DELETE FROM tags")
		return err
	})
}

// SetChoreTags replaces the tags attached to a chore
func (b *Backend) SetChoreTags(ctx context.Context, choreID int64, tagIDs []int64) error {
	return b.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM chore_tags WHERE chore_id = ?", choreID); err != nil {
			return err
		}
		for _, tagID := range tagIDs {
			if _, err := tx.ExecContext(ctx,
				"INSERT OR IGNORE INTO chore_tags (chore_id, tag_id) VALUES (?, ?)", choreID, tagID,
			); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetSetting returns a stored preference value and whether it was set
func (b *Backend) GetSetting(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := b.db.QueryRowContext(ctx, "SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// SetSetting stores a preference value
func (b *Backend) SetSetting(ctx context.Context, key, value string) error {
	_, err := b.db.ExecContext(ctx,
		"INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	return err
}

// DeleteSetting removes a preference so its default applies again
func (b *Backend) DeleteSetting(ctx context.Context, key string) error {
	_, err := b.db.ExecContext(ctx, "DELETE FROM settings WHERE key = ?", key)
	return err
}

// withTx runs fn inside a transaction, rolling back on error
func (b *Backend) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Verify interface compliance at compile time
var _ backend.ChoreStore = (*Backend)(nil)
