package catalog

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"campus-map/internal/mapdoc"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// ============================================================
// SQLite Catalog
// ============================================================

//go:embed migrations/*.sql
var migrations embed.FS

const DefaultSearchLimit = 50

// Entry: элемент карты в каталоге.
type Entry struct {
	Source    string      `json:"source"`
	ID        string      `json:"id"`
	Kind      mapdoc.Kind `json:"kind"`
	Label     string      `json:"label"`
	UpdatedAt string      `json:"updated_at"`
}

// Repository хранит последний инвентарь каждого документа.
type Repository struct {
	db *sql.DB
}

func New(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Init применяет встроенные миграции по порядку имён.
func (r *Repository) Init(ctx context.Context) error {
	if err := r.runMigrations(ctx); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	return nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// SaveInventory заменяет все строки документа src новым инвентарём в одной транзакции.
// При повторяющихся id побеждает первое вхождение.
func (r *Repository) SaveInventory(ctx context.Context, src string, items []mapdoc.Item) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM map_elements WHERE source = ?`, src); err != nil {
		return fmt.Errorf("clear source: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
        INSERT OR IGNORE INTO map_elements (source, element_id, position, kind, label)
        VALUES (?, ?, ?, ?, ?)
    `)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, it := range items {
		if _, err := stmt.ExecContext(ctx, src, it.ID, i, string(it.Kind), it.Label); err != nil {
			return fmt.Errorf("insert %q: %w", it.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Search ищет элементы по подстроке id или подписи (без учёта регистра ASCII).
// Пустой source означает все документы.
func (r *Repository) Search(ctx context.Context, query, source string, limit int) ([]Entry, error) {
	if limit <= 0 || limit > DefaultSearchLimit {
		limit = DefaultSearchLimit
	}
	pattern := "%" + escapeLike(strings.TrimSpace(query)) + "%"

	rows, err := r.db.QueryContext(ctx, `
        SELECT source, element_id, kind, label, updated_at
        FROM map_elements
        WHERE (? = '' OR source = ?)
          AND (element_id LIKE ? ESCAPE '\' OR label LIKE ? ESCAPE '\')
        ORDER BY source, position
        LIMIT ?
    `, source, source, pattern, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("query catalog: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		var kind string
		if err := rows.Scan(&e.Source, &e.ID, &kind, &e.Label, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		e.Kind = mapdoc.Kind(kind)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate catalog: %w", err)
	}
	return entries, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// ============================================================
// Migrations
// ============================================================

func (r *Repository) runMigrations(ctx context.Context) error {
	names, err := migrations.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	files := make([]string, 0, len(names))
	for _, n := range names {
		files = append(files, n.Name())
	}
	sort.Strings(files)

	for _, name := range files {
		data, err := migrations.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if _, err := r.db.ExecContext(ctx, string(data)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
	}
	return nil
}

// OpenSQLite открывает sqlite по указанному пути.
func OpenSQLite(dbPath string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir db dir: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?cache=shared&mode=rwc&_pragma=busy_timeout=5000", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	return db, nil
}
