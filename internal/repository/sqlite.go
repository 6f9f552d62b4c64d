package repository

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"sort"
	"time"

	_ "modernc.org/sqlite" // pure Go SQLite driver, no CGO

	"github.com/weswalla/logjam/internal/domain"
	"github.com/weswalla/logjam/internal/errs"
)

// blockRow is a block's raw, unreconstructed form as loaded from the
// blocks table.
type blockRow struct {
	id       string
	parentID sql.NullString
	content  string
	indent   int
	position int
}

// SQLiteRepository is the relational Repository implementation: five
// tables round-trip a page tree including URLs, references, and
// parent/child ordering. Schema initialization is idempotent.
type SQLiteRepository struct {
	db *sql.DB
}

var _ Repository = (*SQLiteRepository)(nil)

// NewSQLiteRepository opens (creating if absent) a SQLite database at
// path in WAL mode with foreign keys enabled, and ensures the schema
// exists. An empty path opens an in-memory database, for tests.
func NewSQLiteRepository(path string) (*SQLiteRepository, error) {
	dsn := ":memory:"
	if path != "" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, errs.Wrap(errs.InvalidOperation, "create database directory", err)
			}
		}
		dsn = path + "?_journal_mode=WAL&_busy_timeout=5000"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errs.Wrap(errs.InvalidOperation, "open database", err)
	}
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, errs.Wrap(errs.InvalidOperation, "set pragma", err)
		}
	}

	repo := &SQLiteRepository{db: db}
	if err := repo.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

func (r *SQLiteRepository) initSchema() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS pages (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_pages_title ON pages(title);

	CREATE TABLE IF NOT EXISTS blocks (
		id TEXT PRIMARY KEY,
		page_id TEXT NOT NULL REFERENCES pages(id) ON DELETE CASCADE,
		parent_id TEXT,
		content TEXT NOT NULL,
		indent_level INTEGER NOT NULL,
		position INTEGER NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_blocks_page_id ON blocks(page_id);
	CREATE INDEX IF NOT EXISTS idx_blocks_parent_id ON blocks(parent_id);

	CREATE TABLE IF NOT EXISTS block_children (
		parent_id TEXT NOT NULL REFERENCES blocks(id) ON DELETE CASCADE,
		child_id TEXT NOT NULL REFERENCES blocks(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		PRIMARY KEY (parent_id, child_id)
	);

	CREATE TABLE IF NOT EXISTS urls (
		auto_id INTEGER PRIMARY KEY AUTOINCREMENT,
		block_id TEXT NOT NULL REFERENCES blocks(id) ON DELETE CASCADE,
		url TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_urls_block_id ON urls(block_id);
	CREATE INDEX IF NOT EXISTS idx_urls_url ON urls(url);

	CREATE TABLE IF NOT EXISTS page_references (
		auto_id INTEGER PRIMARY KEY AUTOINCREMENT,
		block_id TEXT NOT NULL REFERENCES blocks(id) ON DELETE CASCADE,
		title TEXT NOT NULL,
		is_tag INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_refs_block_id ON page_references(block_id);
	CREATE INDEX IF NOT EXISTS idx_refs_title ON page_references(title);

	CREATE TABLE IF NOT EXISTS kv_state (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	_, err := r.db.Exec(schema)
	if err != nil {
		return errs.Wrap(errs.InvalidOperation, "initialize schema", err)
	}
	return nil
}

// Close releases the underlying database connection.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

// Save upserts page in a single transaction: replace the page row,
// delete every existing block row for the page (cascading to
// block_children/urls/page_references), then re-insert blocks in
// ascending indent order, child ordering, and URL/reference rows.
func (r *SQLiteRepository) Save(ctx context.Context, page *domain.Page) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return errs.Wrap(errs.InvalidOperation, "begin transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := nowUnix()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO pages(id, title, created_at, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET title = excluded.title, updated_at = excluded.updated_at`,
		string(page.ID()), page.Title(), now, now); err != nil {
		return errs.Wrap(errs.InvalidOperation, "upsert page row", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM blocks WHERE page_id = ?`, string(page.ID())); err != nil {
		return errs.Wrap(errs.InvalidOperation, "clear existing blocks", err)
	}

	blocks := page.AllBlocks()
	sort.SliceStable(blocks, func(i, j int) bool { return blocks[i].Indent() < blocks[j].Indent() })

	rootPosition := make(map[domain.BlockID]int)
	for i, id := range page.RootBlockIDs() {
		rootPosition[id] = i
	}

	blockStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO blocks(id, page_id, parent_id, content, indent_level, position, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return errs.Wrap(errs.InvalidOperation, "prepare block insert", err)
	}
	defer blockStmt.Close()

	childStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO block_children(parent_id, child_id, position) VALUES (?, ?, ?)`)
	if err != nil {
		return errs.Wrap(errs.InvalidOperation, "prepare child insert", err)
	}
	defer childStmt.Close()

	urlStmt, err := tx.PrepareContext(ctx, `INSERT INTO urls(block_id, url) VALUES (?, ?)`)
	if err != nil {
		return errs.Wrap(errs.InvalidOperation, "prepare url insert", err)
	}
	defer urlStmt.Close()

	refStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO page_references(block_id, title, is_tag) VALUES (?, ?, ?)`)
	if err != nil {
		return errs.Wrap(errs.InvalidOperation, "prepare reference insert", err)
	}
	defer refStmt.Close()

	for _, b := range blocks {
		var parentID any
		position := 0
		if b.ParentID() != nil {
			parentID = string(*b.ParentID())
		} else {
			position = rootPosition[b.ID()]
		}

		if _, err := blockStmt.ExecContext(ctx, string(b.ID()), string(page.ID()), parentID,
			b.Content().String(), int(b.Indent()), position, now, now); err != nil {
			return errs.Wrap(errs.InvalidOperation, "insert block row", err)
		}

		for _, u := range b.Urls() {
			if _, err := urlStmt.ExecContext(ctx, string(b.ID()), u.String()); err != nil {
				return errs.Wrap(errs.InvalidOperation, "insert url row", err)
			}
		}

		for _, ref := range b.PageReferences() {
			isTag := 0
			if ref.Kind == domain.ReferenceKindTag {
				isTag = 1
			}
			if _, err := refStmt.ExecContext(ctx, string(b.ID()), ref.Title, isTag); err != nil {
				return errs.Wrap(errs.InvalidOperation, "insert reference row", err)
			}
		}
	}

	// Child-order rows reference both ends, so they go in once every block
	// row exists.
	for _, b := range blocks {
		for pos, childID := range b.ChildIDs() {
			if _, err := childStmt.ExecContext(ctx, string(b.ID()), string(childID), pos); err != nil {
				return errs.Wrap(errs.InvalidOperation, "insert child row", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return errs.Wrap(errs.InvalidOperation, "commit transaction", err)
	}
	return nil
}

// FindByID loads the page with id, reconstructing its block tree.
func (r *SQLiteRepository) FindByID(ctx context.Context, id domain.PageID) (*domain.Page, bool, error) {
	var title string
	err := r.db.QueryRowContext(ctx, `SELECT title FROM pages WHERE id = ?`, string(id)).Scan(&title)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errs.Wrap(errs.InvalidOperation, "query page row", err)
	}

	page, err := r.loadPage(ctx, id, title)
	if err != nil {
		return nil, false, err
	}
	return page, true, nil
}

// FindByTitle returns the first page matching title by row order.
func (r *SQLiteRepository) FindByTitle(ctx context.Context, title string) (*domain.Page, bool, error) {
	var id string
	err := r.db.QueryRowContext(ctx, `SELECT id FROM pages WHERE title = ? LIMIT 1`, title).Scan(&id)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errs.Wrap(errs.InvalidOperation, "query page by title", err)
	}
	return r.FindByID(ctx, domain.PageID(id))
}

// FindAll loads every stored page.
func (r *SQLiteRepository) FindAll(ctx context.Context) ([]*domain.Page, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, title FROM pages`)
	if err != nil {
		return nil, errs.Wrap(errs.InvalidOperation, "query all pages", err)
	}
	type idTitle struct{ id, title string }
	var all []idTitle
	for rows.Next() {
		var it idTitle
		if err := rows.Scan(&it.id, &it.title); err != nil {
			rows.Close()
			return nil, errs.Wrap(errs.InvalidOperation, "scan page row", err)
		}
		all = append(all, it)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, errs.Wrap(errs.InvalidOperation, "iterate page rows", err)
	}

	pages := make([]*domain.Page, 0, len(all))
	for _, it := range all {
		page, err := r.loadPage(ctx, domain.PageID(it.id), it.title)
		if err != nil {
			return nil, err
		}
		pages = append(pages, page)
	}
	return pages, nil
}

// Delete removes the page row; ON DELETE CASCADE removes its blocks and
// their dependent rows.
func (r *SQLiteRepository) Delete(ctx context.Context, id domain.PageID) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM pages WHERE id = ?`, string(id))
	if err != nil {
		return false, errs.Wrap(errs.InvalidOperation, "delete page row", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errs.Wrap(errs.InvalidOperation, "read rows affected", err)
	}
	return n > 0, nil
}

// loadPage runs one select per table scoped to id, builds hash indexes
// for urls/references/child-ordering, then constructs blocks in
// ascending indent order via Page.AddBlock, which re-establishes
// invariants.
func (r *SQLiteRepository) loadPage(ctx context.Context, id domain.PageID, title string) (*domain.Page, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, parent_id, content, indent_level, position FROM blocks WHERE page_id = ? ORDER BY indent_level ASC`,
		string(id))
	if err != nil {
		return nil, errs.Wrap(errs.InvalidOperation, "query blocks", err)
	}
	var blockRows []blockRow
	for rows.Next() {
		var br blockRow
		if err := rows.Scan(&br.id, &br.parentID, &br.content, &br.indent, &br.position); err != nil {
			rows.Close()
			return nil, errs.Wrap(errs.InvalidOperation, "scan block row", err)
		}
		blockRows = append(blockRows, br)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, errs.Wrap(errs.InvalidOperation, "iterate block rows", err)
	}

	urlsByBlock, err := r.loadUrls(ctx, id)
	if err != nil {
		return nil, err
	}
	refsByBlock, err := r.loadReferences(ctx, id)
	if err != nil {
		return nil, err
	}
	childOrder, err := r.loadChildOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	// Stable-sort root blocks by their recorded position, and children
	// within a parent by the block_children ordering.
	sort.SliceStable(blockRows, func(i, j int) bool {
		a, b := blockRows[i], blockRows[j]
		if a.indent != b.indent {
			return a.indent < b.indent
		}
		return childPosition(a, childOrder) < childPosition(b, childOrder)
	})

	page := domain.NewPage(id, title)
	for _, br := range blockRows {
		var parentID *domain.BlockID
		if br.parentID.Valid {
			p := domain.BlockID(br.parentID.String)
			parentID = &p
		}
		block := domain.NewBlock(domain.BlockID(br.id), domain.NewBlockContent(br.content), domain.IndentLevel(br.indent), parentID)
		block.SetUrls(urlsByBlock[br.id])
		block.SetPageReferences(refsByBlock[br.id])
		if err := page.AddBlock(block); err != nil {
			return nil, err
		}
	}
	return page, nil
}

func childPosition(br blockRow, childOrder map[string]int) int {
	if !br.parentID.Valid {
		return br.position
	}
	if pos, ok := childOrder[br.id]; ok {
		return pos
	}
	return br.position
}

func (r *SQLiteRepository) loadUrls(ctx context.Context, id domain.PageID) (map[string][]domain.Url, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT u.block_id, u.url FROM urls u JOIN blocks b ON b.id = u.block_id WHERE b.page_id = ?`, string(id))
	if err != nil {
		return nil, errs.Wrap(errs.InvalidOperation, "query urls", err)
	}
	defer rows.Close()

	out := make(map[string][]domain.Url)
	for rows.Next() {
		var blockID, raw string
		if err := rows.Scan(&blockID, &raw); err != nil {
			return nil, errs.Wrap(errs.InvalidOperation, "scan url row", err)
		}
		u, err := domain.NewUrl(raw)
		if err != nil {
			continue
		}
		out[blockID] = append(out[blockID], u)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) loadReferences(ctx context.Context, id domain.PageID) (map[string][]domain.PageReference, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT r.block_id, r.title, r.is_tag FROM page_references r JOIN blocks b ON b.id = r.block_id WHERE b.page_id = ?`,
		string(id))
	if err != nil {
		return nil, errs.Wrap(errs.InvalidOperation, "query references", err)
	}
	defer rows.Close()

	out := make(map[string][]domain.PageReference)
	for rows.Next() {
		var blockID, title string
		var isTag int
		if err := rows.Scan(&blockID, &title, &isTag); err != nil {
			return nil, errs.Wrap(errs.InvalidOperation, "scan reference row", err)
		}
		kind := domain.ReferenceKindPage
		if isTag != 0 {
			kind = domain.ReferenceKindTag
		}
		ref, err := domain.NewPageReference(title, kind)
		if err != nil {
			continue
		}
		out[blockID] = append(out[blockID], ref)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) loadChildOrder(ctx context.Context, id domain.PageID) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT c.child_id, c.position FROM block_children c JOIN blocks b ON b.id = c.parent_id WHERE b.page_id = ?`,
		string(id))
	if err != nil {
		return nil, errs.Wrap(errs.InvalidOperation, "query child order", err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var childID string
		var pos int
		if err := rows.Scan(&childID, &pos); err != nil {
			return nil, errs.Wrap(errs.InvalidOperation, "scan child order row", err)
		}
		out[childID] = pos
	}
	return out, rows.Err()
}

// State key constants for the kv_state table, grounded on the teacher's
// StateKeyIndexDimension/StateKeyIndexModel pattern: the embedding
// service uses these to detect a model change across runs and decide
// whether existing vectors must be invalidated.
const (
	StateKeyEmbeddingModel     = "embedding_model"
	StateKeyEmbeddingDimension = "embedding_dimension"
)

// GetState returns the value stored under key, or ok=false if absent.
func (r *SQLiteRepository) GetState(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM kv_state WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, errs.Wrap(errs.InvalidOperation, "query kv_state", err)
	}
	return value, true, nil
}

// SetState upserts key/value in the kv_state table.
func (r *SQLiteRepository) SetState(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO kv_state(key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value)
	if err != nil {
		return errs.Wrap(errs.InvalidOperation, "upsert kv_state", err)
	}
	return nil
}

func nowUnix() int64 {
	return time.Now().Unix()
}
