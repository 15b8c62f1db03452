package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"taleloom/internal/store/migrations"
	"taleloom/internal/tale"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteStore implements the tale.Store interface using SQLite. Lists
// are serialized as JSON text columns; story library order is kept in an
// explicit position column (head = max).
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore opens a SQLite-backed store and applies pending
// migrations. path can be a file path or ":memory:".
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}

	if err := migrations.Up(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating store: %w", err)
	}

	return &SQLiteStore{db: db, path: path}, nil
}

// NewSQLiteStoreFromDB wraps an existing database connection. The caller
// is responsible for schema setup and for closing the connection.
func NewSQLiteStoreFromDB(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// OpenConnection opens and configures a SQLite connection with the
// PRAGMAs the store relies on.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable foreign key constraints (SQLite default is OFF for backward compatibility)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// Compile-time check that SQLiteStore implements tale.Store
var _ tale.Store = (*SQLiteStore)(nil)

func marshalList(items []string) (string, error) {
	if items == nil {
		items = []string{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("marshaling list: %w", err)
	}
	return string(data), nil
}

func unmarshalList(data string) ([]string, error) {
	var items []string
	if err := json.Unmarshal([]byte(data), &items); err != nil {
		return nil, fmt.Errorf("unmarshaling list: %w", err)
	}
	return items, nil
}

func (s *SQLiteStore) CreateChild(c *tale.Child) error {
	interests, err := marshalList(c.Interests)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`
		INSERT INTO children (id, name, age, interests, avatar, avatar_color, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.Age, interests, c.Avatar, c.AvatarColor, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("creating child: %w", err)
	}
	return nil
}

func (s *SQLiteStore) UpdateChild(c *tale.Child) error {
	interests, err := marshalList(c.Interests)
	if err != nil {
		return err
	}
	res, err := s.db.Exec(`
		UPDATE children
		SET name = ?, age = ?, interests = ?, avatar = ?, avatar_color = ?, updated_at = ?
		WHERE id = ?`,
		c.Name, c.Age, interests, c.Avatar, c.AvatarColor, c.UpdatedAt, c.ID)
	if err != nil {
		return fmt.Errorf("updating child: %w", err)
	}
	return requireRow(res)
}

func (s *SQLiteStore) DeleteChild(id string) error {
	res, err := s.db.Exec(`DELETE FROM children WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting child: %w", err)
	}
	return requireRow(res)
}

func (s *SQLiteStore) FindChild(id string) (*tale.Child, error) {
	row := s.db.QueryRow(`
		SELECT id, name, age, interests, avatar, avatar_color, created_at, updated_at
		FROM children WHERE id = ?`, id)
	child, err := scanChild(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return child, err
}

func (s *SQLiteStore) ListChildren() ([]*tale.Child, error) {
	rows, err := s.db.Query(`
		SELECT id, name, age, interests, avatar, avatar_color, created_at, updated_at
		FROM children ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("listing children: %w", err)
	}
	defer rows.Close()

	var children []*tale.Child
	for rows.Next() {
		child, err := scanChild(rows)
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}
	return children, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanChild(row rowScanner) (*tale.Child, error) {
	var c tale.Child
	var interests string
	if err := row.Scan(&c.ID, &c.Name, &c.Age, &interests, &c.Avatar, &c.AvatarColor, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning child: %w", err)
	}
	list, err := unmarshalList(interests)
	if err != nil {
		return nil, err
	}
	c.Interests = list
	return &c, nil
}

func (s *SQLiteStore) SaveStory(story *tale.Story) (bool, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return false, fmt.Errorf("saving story: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRow(`SELECT COUNT(1) FROM stories WHERE id = ?`, story.ID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking for existing story: %w", err)
	}
	if exists > 0 {
		return false, nil
	}

	themes, err := marshalList(story.Themes)
	if err != nil {
		return false, err
	}

	_, err = tx.Exec(`
		INSERT INTO stories (id, title, child_id, child_name, child_avatar, created_at,
			duration_label, lesson, tone, language, themes, content, excerpt, is_favorite, position)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?,
			(SELECT COALESCE(MAX(position), 0) + 1 FROM stories))`,
		story.ID, story.Title, story.ChildID, story.ChildName, story.ChildAvatar, story.CreatedAt,
		story.DurationLabel, story.Lesson, story.Tone, story.Language, themes, story.Content,
		story.Excerpt, story.IsFavorite)
	if err != nil {
		return false, fmt.Errorf("inserting story: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("saving story: %w", err)
	}
	return true, nil
}

func (s *SQLiteStore) DeleteStory(id string) error {
	res, err := s.db.Exec(`DELETE FROM stories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting story: %w", err)
	}
	return requireRow(res)
}

func (s *SQLiteStore) FindStory(id string) (*tale.Story, error) {
	row := s.db.QueryRow(storySelect+` WHERE id = ?`, id)
	story, err := scanStory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return story, err
}

func (s *SQLiteStore) ListStories() ([]*tale.Story, error) {
	rows, err := s.db.Query(storySelect + ` ORDER BY position DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing stories: %w", err)
	}
	defer rows.Close()

	var stories []*tale.Story
	for rows.Next() {
		story, err := scanStory(rows)
		if err != nil {
			return nil, err
		}
		stories = append(stories, story)
	}
	return stories, rows.Err()
}

const storySelect = `
	SELECT id, title, child_id, child_name, child_avatar, created_at,
		duration_label, lesson, tone, language, themes, content, excerpt, is_favorite
	FROM stories`

func scanStory(row rowScanner) (*tale.Story, error) {
	var st tale.Story
	var themes string
	err := row.Scan(&st.ID, &st.Title, &st.ChildID, &st.ChildName, &st.ChildAvatar, &st.CreatedAt,
		&st.DurationLabel, &st.Lesson, &st.Tone, &st.Language, &themes, &st.Content, &st.Excerpt, &st.IsFavorite)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning story: %w", err)
	}
	list, err := unmarshalList(themes)
	if err != nil {
		return nil, err
	}
	st.Themes = list
	return &st, nil
}

func (s *SQLiteStore) SetFavorite(id string, favorite bool) error {
	res, err := s.db.Exec(`UPDATE stories SET is_favorite = ? WHERE id = ?`, favorite, id)
	if err != nil {
		return fmt.Errorf("setting favorite: %w", err)
	}
	return requireRow(res)
}

func (s *SQLiteStore) GetSetting(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading setting %q: %w", key, err)
	}
	return value, nil
}

func (s *SQLiteStore) SetSetting(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("writing setting %q: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) LoadUsage() (*tale.Usage, error) {
	var u tale.Usage
	err := s.db.QueryRow(`
		SELECT plan_id, used_this_month, used_today, day_signature
		FROM usage_state WHERE id = 1`).
		Scan(&u.PlanID, &u.UsedThisMonth, &u.UsedToday, &u.DaySignature)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading usage: %w", err)
	}
	return &u, nil
}

func (s *SQLiteStore) SaveUsage(u *tale.Usage) error {
	_, err := s.db.Exec(`
		INSERT INTO usage_state (id, plan_id, used_this_month, used_today, day_signature)
		VALUES (1, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			plan_id = excluded.plan_id,
			used_this_month = excluded.used_this_month,
			used_today = excluded.used_today,
			day_signature = excluded.day_signature`,
		u.PlanID, u.UsedThisMonth, u.UsedToday, u.DaySignature)
	if err != nil {
		return fmt.Errorf("saving usage: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// requireRow converts a zero-row update/delete into ErrNotFound.
func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}
	if n == 0 {
		return tale.ErrNotFound
	}
	return nil
}
