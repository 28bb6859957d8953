// Package store persists code index runs in SQLite so that indexed trees can
// be listed and queried after the fact.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"pageindex/internal/codeindex"
	"pageindex/internal/logging"
)

// ErrRunNotFound is returned when a run id is not in the store.
var ErrRunNotFound = errors.New("run not found")

// Run is one stored invocation of the indexer.
type Run struct {
	ID         string
	DocName    string
	SourcePath string
	CreatedAt  time.Time
	NodeCount  int
	Result     *codeindex.Result // nil in ListRuns
}

// NodeRecord is one indexed node row.
type NodeRecord struct {
	RunID        string
	DocName      string
	NodeID       string
	ParentNodeID string
	Title        string
	Type         codeindex.NodeType
	StartLine    int
	EndLine      int
	Summary      string
}

// Query filters FindNodes.
type Query struct {
	Title string             // substring, case-insensitive
	Type  codeindex.NodeType // optional exact type
	Limit int                // 0 means 100
}

// Store is a SQLite-backed run store.
type Store struct {
	db     *sql.DB
	mu     sync.RWMutex
	dbPath string
	now    func() time.Time
}

// Open creates or opens the database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db, dbPath: path, now: time.Now}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logging.StoreDebug("opened run store at %s", path)
	return s, nil
}

func (s *Store) initialize() error {
	runsTable := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		doc_name TEXT NOT NULL,
		source_path TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		node_count INTEGER NOT NULL,
		result_json TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_runs_doc ON runs(doc_name, created_at);
	`

	nodesTable := `
	CREATE TABLE IF NOT EXISTS nodes (
		run_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		node_id TEXT NOT NULL,
		parent_node_id TEXT NOT NULL,
		title TEXT NOT NULL,
		type TEXT NOT NULL,
		start_line INTEGER NOT NULL,
		end_line INTEGER NOT NULL,
		summary TEXT NOT NULL,
		PRIMARY KEY (run_id, seq),
		FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_nodes_type ON nodes(type);
	`

	for _, table := range []string{runsTable, nodesTable} {
		if _, err := s.db.Exec(table); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.dbPath
}

// SaveRun stores result and its flattened nodes, returning the new run.
func (s *Store) SaveRun(ctx context.Context, sourcePath string, result *codeindex.Result) (*Run, error) {
	if result == nil {
		return nil, fmt.Errorf("nil result")
	}
	data, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}

	type row struct {
		node   *codeindex.Node
		parent string
	}
	var rows []row
	for _, root := range result.Structure {
		codeindex.Walk(root, func(n, parent *codeindex.Node) bool {
			p := ""
			if parent != nil {
				p = parent.NodeID
			}
			rows = append(rows, row{node: n, parent: p})
			return true
		})
	}

	run := &Run{
		ID:         uuid.NewString(),
		DocName:    result.DocName,
		SourcePath: sourcePath,
		CreatedAt:  s.now().UTC(),
		NodeCount:  len(rows),
		Result:     result,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, doc_name, source_path, created_at, node_count, result_json) VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.DocName, run.SourcePath, run.CreatedAt.UnixNano(), run.NodeCount, string(data))
	if err != nil {
		return nil, fmt.Errorf("failed to insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO nodes (run_id, seq, node_id, parent_node_id, title, type, start_line, end_line, summary)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare node insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range rows {
		summary := r.node.Summary
		if summary == "" {
			summary = r.node.PrefixSummary
		}
		if _, err := stmt.ExecContext(ctx, run.ID, i, r.node.NodeID, r.parent, r.node.Title,
			string(r.node.Type), r.node.StartLine, r.node.EndLine, summary); err != nil {
			return nil, fmt.Errorf("failed to insert node %s: %w", r.node.Title, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit run: %w", err)
	}

	logging.Store("saved run %s for %s (%d nodes)", run.ID, run.DocName, run.NodeCount)
	return run, nil
}

// ListRuns returns stored runs, newest first. A positive limit caps the count.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT id, doc_name, source_path, created_at, node_count FROM runs ORDER BY created_at DESC, rowid DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var created int64
		if err := rows.Scan(&r.ID, &r.DocName, &r.SourcePath, &created, &r.NodeCount); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.CreatedAt = time.Unix(0, created).UTC()
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// GetRun loads one run including its result.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var r Run
	var created int64
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, doc_name, source_path, created_at, node_count, result_json FROM runs WHERE id = ?`, id,
	).Scan(&r.ID, &r.DocName, &r.SourcePath, &created, &r.NodeCount, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load run %s: %w", id, err)
	}

	r.CreatedAt = time.Unix(0, created).UTC()
	r.Result = &codeindex.Result{}
	if err := json.Unmarshal([]byte(data), r.Result); err != nil {
		return nil, fmt.Errorf("failed to decode run %s: %w", id, err)
	}
	return &r, nil
}

// FindNodes searches the nodes of the latest run of every document.
func (s *Store) FindNodes(ctx context.Context, q Query) ([]NodeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}

	query := `
	SELECT n.run_id, r.doc_name, n.node_id, n.parent_node_id, n.title, n.type, n.start_line, n.end_line, n.summary
	FROM nodes n
	JOIN runs r ON r.id = n.run_id
	WHERE r.rowid = (
		SELECT r2.rowid FROM runs r2 WHERE r2.doc_name = r.doc_name
		ORDER BY r2.created_at DESC, r2.rowid DESC LIMIT 1
	)`
	var args []any
	if q.Type != "" {
		query += ` AND n.type = ?`
		args = append(args, string(q.Type))
	}
	query += ` ORDER BY r.doc_name, n.seq`
	// SQLite's LOWER only folds ASCII, so titles are matched in Go
	title := strings.ToLower(q.Title)
	if title == "" {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query nodes: %w", err)
	}
	defer rows.Close()

	var out []NodeRecord
	for rows.Next() {
		var rec NodeRecord
		var typ string
		if err := rows.Scan(&rec.RunID, &rec.DocName, &rec.NodeID, &rec.ParentNodeID, &rec.Title,
			&typ, &rec.StartLine, &rec.EndLine, &rec.Summary); err != nil {
			return nil, fmt.Errorf("failed to scan node: %w", err)
		}
		if title != "" && !strings.Contains(strings.ToLower(rec.Title), title) {
			continue
		}
		rec.Type = codeindex.NodeType(typ)
		out = append(out, rec)
		if len(out) == limit {
			break
		}
	}
	return out, rows.Err()
}
