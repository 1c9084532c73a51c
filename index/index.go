// Package index implements the Symbol & Call-Graph Index (SCI): a durable,
// incrementally refreshed on-disk store of files, symbols, and call edges
// for one repository root.
package index

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "github.com/glebarez/go-sqlite"

	"github.com/rhizome-lab/moss/ignore"
	"github.com/rhizome-lab/moss/lang"
	"github.com/rhizome-lab/moss/model"
	"github.com/rhizome-lab/moss/walk"
)

// hotDirs are the conventionally "hot" top-level directory names the
// staleness heuristic checks by default.
var hotDirs = []string{"src", "lib", "crates"}

// Index is the SCI's handle on one repository root's on-disk store. The
// core assumes single-writer-per-process semantics: writeMu serializes
// write transactions within this process; cross-process coordination is
// out of scope.
type Index struct {
	root     string
	db       *sql.DB
	writeMu  sync.Mutex
	registry *lang.Registry
	pool     *lang.ParserPool
	log      *slog.Logger
}

// Open opens (creating if necessary) the index file at
// <root>/.moss/index.db, applies the schema, and resets it if the stored
// schema version differs from SchemaVersion.
func Open(root string, registry *lang.Registry, logger *slog.Logger) (*Index, error) {
	if logger == nil {
		logger = slog.Default()
	}
	dir := filepath.Join(root, ".moss")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, model.NewError(model.ErrIo, dir, "creating index directory", err)
	}
	dbPath := filepath.Join(dir, "index.db")

	dsn := fmt.Sprintf("%s?_busy_timeout=5000&_foreign_keys=ON&_journal_mode=WAL&_synchronous=NORMAL&_temp_store=MEMORY", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, model.NewError(model.ErrIo, dbPath, "opening index", err)
	}

	idx := &Index{root: root, db: db, registry: registry, pool: lang.DefaultPool, log: logger}
	if err := idx.init(); err != nil {
		db.Close()
		return nil, err
	}
	return idx, nil
}

func (idx *Index) init() error {
	if _, err := idx.db.Exec(schemaDDL); err != nil {
		return model.NewError(model.ErrIo, idx.root, "applying schema", err)
	}

	var stored string
	err := idx.db.QueryRow(`SELECT value FROM meta WHERE key = 'schema_version'`).Scan(&stored)
	switch {
	case err == sql.ErrNoRows:
		return idx.resetSchema()
	case err != nil:
		return model.NewError(model.ErrIo, idx.root, "reading schema_version", err)
	case stored != SchemaVersion:
		idx.log.Info("index schema version mismatch, resetting", "stored", stored, "current", SchemaVersion)
		return idx.resetSchema()
	}
	return nil
}

// resetSchema truncates files/symbols/calls and writes the current schema
// version, per §4.2 ("IndexStale" — silently reset and mark refresh-required).
func (idx *Index) resetSchema() error {
	idx.writeMu.Lock()
	defer idx.writeMu.Unlock()

	tx, err := idx.db.Begin()
	if err != nil {
		return model.NewError(model.ErrIo, idx.root, "beginning reset transaction", err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		`DELETE FROM files`,
		`DELETE FROM symbols`,
		`DELETE FROM calls`,
		`INSERT INTO meta(key, value) VALUES ('schema_version', ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		`INSERT INTO meta(key, value) VALUES ('last_indexed', '0') ON CONFLICT(key) DO NOTHING`,
	} {
		args := []any{}
		if strings.Contains(stmt, "schema_version") {
			args = append(args, SchemaVersion)
		}
		if _, err := tx.Exec(stmt, args...); err != nil {
			return model.NewError(model.ErrIo, idx.root, "resetting schema", err)
		}
	}
	return tx.Commit()
}

// Close checkpoints the WAL and closes the database handle.
func (idx *Index) Close() error {
	_, _ = idx.db.Exec(`PRAGMA wal_checkpoint(TRUNCATE)`)
	return idx.db.Close()
}

// NeedsRefresh is the heuristic staleness check of §4.2: true if files is
// empty, if last_indexed is 0, or if any hot top-level directory has an
// mtime greater than last_indexed. Per the broadened heuristic (REDESIGN
// FLAG, option b), when none of the conventional hot directory names are
// present at the root, every top-level non-dotfile directory is checked
// instead.
func (idx *Index) NeedsRefresh() (bool, error) {
	var count int
	if err := idx.db.QueryRow(`SELECT COUNT(*) FROM files`).Scan(&count); err != nil {
		return false, model.NewError(model.ErrIo, idx.root, "counting files", err)
	}
	if count == 0 {
		return true, nil
	}

	lastIndexed, err := idx.lastIndexed()
	if err != nil {
		return false, err
	}
	if lastIndexed == 0 {
		return true, nil
	}

	dirs := idx.candidateHotDirs()
	for _, d := range dirs {
		info, err := os.Stat(filepath.Join(idx.root, d))
		if err != nil {
			continue
		}
		if info.ModTime().Unix() > lastIndexed {
			return true, nil
		}
	}
	return false, nil
}

func (idx *Index) candidateHotDirs() []string {
	var present []string
	for _, d := range hotDirs {
		if info, err := os.Stat(filepath.Join(idx.root, d)); err == nil && info.IsDir() {
			present = append(present, d)
		}
	}
	if len(present) > 0 {
		return present
	}

	entries, err := os.ReadDir(idx.root)
	if err != nil {
		return nil
	}
	var all []string
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			all = append(all, e.Name())
		}
	}
	return all
}

func (idx *Index) lastIndexed() (int64, error) {
	var raw string
	err := idx.db.QueryRow(`SELECT value FROM meta WHERE key = 'last_indexed'`).Scan(&raw)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, model.NewError(model.ErrIo, idx.root, "reading last_indexed", err)
	}
	var v int64
	fmt.Sscanf(raw, "%d", &v)
	return v, nil
}

// Refresh performs a full reindex: it walks the filesystem under root
// (respecting .gitignore/.git-info-exclude/global excludes), truncates
// files, inserts the current snapshot, then rebuilds symbols and calls for
// every source file the registry recognizes. All writes are wrapped in one
// transaction; a canceled context aborts the transaction and the previous
// committed state is preserved.
func (idx *Index) Refresh(ctx context.Context) error {
	idx.writeMu.Lock()
	defer idx.writeMu.Unlock()

	matcher := ignore.Load(idx.root)
	w := walk.New()

	var entries []walk.Entry
	for e := range w.Walk(ctx, idx.root, matcher) {
		if e.Err != nil {
			continue
		}
		entries = append(entries, e)
	}
	if err := ctx.Err(); err != nil {
		return model.NewError(model.ErrIo, idx.root, "refresh canceled", err)
	}

	tx, err := idx.db.Begin()
	if err != nil {
		return model.NewError(model.ErrIo, idx.root, "beginning refresh transaction", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM files`); err != nil {
		return model.NewError(model.ErrIo, idx.root, "truncating files", err)
	}
	if _, err := tx.Exec(`DELETE FROM symbols`); err != nil {
		return model.NewError(model.ErrIo, idx.root, "truncating symbols", err)
	}
	if _, err := tx.Exec(`DELETE FROM calls`); err != nil {
		return model.NewError(model.ErrIo, idx.root, "truncating calls", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO files(path, is_dir, mtime) VALUES (?, ?, ?)`)
	if err != nil {
		return model.NewError(model.ErrIo, idx.root, "preparing files insert", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		isDir := 0
		if e.IsDir {
			isDir = 1
		}
		if _, err := stmt.Exec(e.RelPath, isDir, e.Mtime); err != nil {
			return model.NewError(model.ErrIo, idx.root, "inserting file row", err)
		}
	}

	for _, e := range entries {
		if e.IsDir {
			continue
		}
		if err := ctx.Err(); err != nil {
			return model.NewError(model.ErrIo, idx.root, "refresh canceled", err)
		}
		provider, ok := idx.registry.GetForFile(e.RelPath)
		if !ok {
			continue
		}
		if err := idx.indexFileTx(ctx, tx, e.RelPath, provider); err != nil {
			idx.log.Warn("parse failed during refresh", "path", e.RelPath, "error", err)
		}
	}

	if err := idx.setMeta(tx, "last_indexed", fmt.Sprintf("%d", time.Now().Unix())); err != nil {
		return err
	}

	return tx.Commit()
}

// IncrementalRefresh compares current filesystem mtimes against stored
// ones: new paths are inserted, changed paths updated (and reindexed if a
// source file), removed paths deleted (cascading their symbol/call rows).
func (idx *Index) IncrementalRefresh(ctx context.Context) error {
	idx.writeMu.Lock()
	defer idx.writeMu.Unlock()

	stored := make(map[string]int64)
	rows, err := idx.db.Query(`SELECT path, mtime FROM files`)
	if err != nil {
		return model.NewError(model.ErrIo, idx.root, "reading stored files", err)
	}
	for rows.Next() {
		var path string
		var mtime int64
		if err := rows.Scan(&path, &mtime); err != nil {
			rows.Close()
			return model.NewError(model.ErrIo, idx.root, "scanning stored files", err)
		}
		stored[path] = mtime
	}
	rows.Close()

	matcher := ignore.Load(idx.root)
	w := walk.New()
	current := make(map[string]walk.Entry)
	for e := range w.Walk(ctx, idx.root, matcher) {
		if e.Err != nil {
			continue
		}
		current[e.RelPath] = e
	}
	if err := ctx.Err(); err != nil {
		return model.NewError(model.ErrIo, idx.root, "incremental refresh canceled", err)
	}

	tx, err := idx.db.Begin()
	if err != nil {
		return model.NewError(model.ErrIo, idx.root, "beginning incremental transaction", err)
	}
	defer tx.Rollback()

	for path, oldMtime := range stored {
		if _, ok := current[path]; !ok {
			if err := idx.deleteFileTx(tx, path); err != nil {
				return err
			}
			_ = oldMtime
		}
	}

	upsert, err := tx.Prepare(`INSERT INTO files(path, is_dir, mtime) VALUES (?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET is_dir = excluded.is_dir, mtime = excluded.mtime`)
	if err != nil {
		return model.NewError(model.ErrIo, idx.root, "preparing files upsert", err)
	}
	defer upsert.Close()

	for path, e := range current {
		oldMtime, existed := stored[path]
		changed := !existed || oldMtime != e.Mtime
		isDir := 0
		if e.IsDir {
			isDir = 1
		}
		if changed {
			if _, err := upsert.Exec(path, isDir, e.Mtime); err != nil {
				return model.NewError(model.ErrIo, idx.root, "upserting file row", err)
			}
		}
		if changed && !e.IsDir {
			if err := ctx.Err(); err != nil {
				return model.NewError(model.ErrIo, idx.root, "incremental refresh canceled", err)
			}
			provider, ok := idx.registry.GetForFile(path)
			if !ok {
				continue
			}
			if err := idx.refreshFileSymbolsTx(ctx, tx, path, provider); err != nil {
				idx.log.Warn("parse failed during incremental refresh", "path", path, "error", err)
			}
		}
	}

	if err := idx.setMeta(tx, "last_indexed", fmt.Sprintf("%d", time.Now().Unix())); err != nil {
		return err
	}

	return tx.Commit()
}

func (idx *Index) setMeta(tx *sql.Tx, key, value string) error {
	_, err := tx.Exec(`INSERT INTO meta(key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return model.NewError(model.ErrIo, idx.root, "writing meta "+key, err)
	}
	return nil
}

func (idx *Index) deleteFileTx(tx *sql.Tx, path string) error {
	for _, stmt := range []string{
		`DELETE FROM files WHERE path = ?`,
		`DELETE FROM symbols WHERE file = ?`,
		`DELETE FROM calls WHERE caller_file = ?`,
	} {
		if _, err := tx.Exec(stmt, path); err != nil {
			return model.NewError(model.ErrIo, path, "deleting file rows", err)
		}
	}
	return nil
}

// RefreshFileSymbols re-parses path and replaces its symbols/calls rows.
// Exposed for callers that already know a single file changed (e.g. an
// editor-driven refresh) without running a whole incremental pass.
func (idx *Index) RefreshFileSymbols(ctx context.Context, path string) error {
	idx.writeMu.Lock()
	defer idx.writeMu.Unlock()

	provider, ok := idx.registry.GetForFile(path)
	if !ok {
		return model.NewError(model.ErrUnsupported, path, "no language support for extension", nil)
	}

	tx, err := idx.db.Begin()
	if err != nil {
		return model.NewError(model.ErrIo, idx.root, "beginning symbol refresh transaction", err)
	}
	defer tx.Rollback()

	if err := idx.refreshFileSymbolsTx(ctx, tx, path, provider); err != nil {
		return err
	}
	return tx.Commit()
}

func (idx *Index) refreshFileSymbolsTx(ctx context.Context, tx *sql.Tx, path string, provider lang.Provider) error {
	if err := idx.deleteSymbolRowsTx(tx, path); err != nil {
		return err
	}
	return idx.indexFileTx(ctx, tx, path, provider)
}

func (idx *Index) deleteSymbolRowsTx(tx *sql.Tx, path string) error {
	if _, err := tx.Exec(`DELETE FROM symbols WHERE file = ?`, path); err != nil {
		return model.NewError(model.ErrIo, path, "deleting symbol rows", err)
	}
	if _, err := tx.Exec(`DELETE FROM calls WHERE caller_file = ?`, path); err != nil {
		return model.NewError(model.ErrIo, path, "deleting call rows", err)
	}
	return nil
}

// indexFileTx parses path and writes its symbol/call rows. Parse failures
// are recoverable per §7 (ParseFailed): it logs and returns nil, leaving
// the file indexed with zero symbols rather than aborting the transaction.
func (idx *Index) indexFileTx(ctx context.Context, tx *sql.Tx, path string, provider lang.Provider) error {
	source, err := os.ReadFile(filepath.Join(idx.root, path))
	if err != nil {
		return model.NewError(model.ErrIo, path, "reading file", err)
	}

	tree, err := idx.pool.Parse(ctx, provider, source)
	if err != nil || tree == nil {
		idx.log.Warn("grammar rejected file", "path", path)
		return nil
	}
	defer tree.Close()

	symbols := lang.ExtractSymbols(tree.RootNode(), source, provider)

	symStmt, err := tx.Prepare(`INSERT INTO symbols(file, name, kind, start_line, end_line, parent) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return model.NewError(model.ErrIo, path, "preparing symbol insert", err)
	}
	defer symStmt.Close()

	callStmt, err := tx.Prepare(`INSERT INTO calls(caller_file, caller_symbol, callee_name, line) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return model.NewError(model.ErrIo, path, "preparing call insert", err)
	}
	defer callStmt.Close()

	var insert func(sym *model.Symbol) error
	insert = func(sym *model.Symbol) error {
		var parent any
		if sym.Parent != "" {
			parent = sym.Parent
		}
		if _, err := symStmt.Exec(path, sym.Name, string(sym.Kind), sym.StartLine, sym.EndLine, parent); err != nil {
			return model.NewError(model.ErrIo, path, "inserting symbol row", err)
		}
		for _, callee := range callsWithinRange(tree.RootNode(), source, sym.StartLine, sym.EndLine) {
			if _, err := callStmt.Exec(path, sym.Name, callee.Name, callee.Line); err != nil {
				return model.NewError(model.ErrIo, path, "inserting call row", err)
			}
		}
		for _, child := range sym.Children {
			if err := insert(child); err != nil {
				return err
			}
		}
		return nil
	}

	for _, sym := range symbols {
		if err := insert(sym); err != nil {
			return err
		}
	}
	return nil
}
