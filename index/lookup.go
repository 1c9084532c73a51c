package index

import (
	"strings"

	"github.com/rhizome-lab/moss/model"
)

// FindByName implements §4.2's files-table find_by_name(name): a row
// whose path's exact trailing segment (basename) equals name, or whose
// full path equals name exactly.
func (idx *Index) FindByName(name string) ([]model.IndexedFile, error) {
	return idx.queryFiles(`SELECT path, is_dir, mtime FROM files WHERE path = ? OR path LIKE '%/' || ? ORDER BY path`, name, name)
}

// FindLike implements §4.2's files-table find_like(query): query is
// split on whitespace/`_`/`-`/`.`, and every resulting part must appear
// as a case-insensitive substring of path. Results are capped at 50 to
// bound response size.
func (idx *Index) FindLike(query string) ([]model.IndexedFile, error) {
	parts := strings.FieldsFunc(query, func(r rune) bool {
		return r == ' ' || r == '_' || r == '-' || r == '.'
	})
	if len(parts) == 0 {
		return nil, nil
	}

	clauses := make([]string, len(parts))
	args := make([]any, len(parts))
	for i, part := range parts {
		clauses[i] = "path LIKE ? ESCAPE '\\' COLLATE NOCASE"
		args[i] = "%" + part + "%"
	}
	query2 := "SELECT path, is_dir, mtime FROM files WHERE " + strings.Join(clauses, " AND ") + " ORDER BY path LIMIT 50"
	return idx.queryFiles(query2, args...)
}

// FindSymbol returns the single best match for name in file, or
// model.ErrNotFound / model.ErrAmbiguous.
func (idx *Index) FindSymbol(file, name string) (model.SymbolRow, error) {
	rows, err := idx.querySymbols(`SELECT file, name, kind, start_line, end_line, COALESCE(parent, '') FROM symbols WHERE file = ? AND name = ? ORDER BY start_line`, file, name)
	if err != nil {
		return model.SymbolRow{}, err
	}
	switch len(rows) {
	case 0:
		return model.SymbolRow{}, model.NewError(model.ErrNotFound, name, "no symbol with that name in "+file, nil)
	case 1:
		return rows[0], nil
	default:
		return model.SymbolRow{}, model.NewError(model.ErrAmbiguous, name, "multiple symbols with that name in "+file, nil)
	}
}

// findSymbolsExact and findSymbolsLike back FindSymbols' tiered match;
// unlike FindByName/FindLike (§4.2 files-table contracts) these match
// against symbols.name and are not part of the spec'd lookup surface in
// their own right.
func (idx *Index) findSymbolsExact(name string) ([]model.SymbolRow, error) {
	return idx.querySymbols(`SELECT file, name, kind, start_line, end_line, COALESCE(parent, '') FROM symbols WHERE name = ? ORDER BY file, start_line`, name)
}

func (idx *Index) findSymbolsLike(pattern string, limit int) ([]model.SymbolRow, error) {
	like := "%" + pattern + "%"
	query := `SELECT file, name, kind, start_line, end_line, COALESCE(parent, '') FROM symbols WHERE name LIKE ? ESCAPE '\' COLLATE NOCASE ORDER BY file, start_line`
	if limit > 0 {
		query += " LIMIT ?"
		return idx.querySymbols(query, like, limit)
	}
	return idx.querySymbols(query, like)
}

// FindSymbols performs the tiered lookup of §4.2's find_symbols(pattern,
// kind_filter, case_insensitive, limit): exact match first; if empty,
// case-insensitive exact match; if still empty, substring match —
// stopping as soon as a tier yields results. kindFilter, when non-empty,
// restricts every tier to that kind; limit, when > 0, caps the final
// result (0 means unbounded). caseInsensitive skips the case-sensitive
// exact tier, starting at the case-insensitive exact match.
func (idx *Index) FindSymbols(name string, kindFilter model.Kind, caseInsensitive bool, limit int) ([]model.SymbolRow, error) {
	apply := func(rows []model.SymbolRow) []model.SymbolRow {
		if kindFilter != "" {
			filtered := rows[:0:0]
			for _, r := range rows {
				if r.KindStr == string(kindFilter) {
					filtered = append(filtered, r)
				}
			}
			rows = filtered
		}
		if limit > 0 && len(rows) > limit {
			rows = rows[:limit]
		}
		return rows
	}

	if !caseInsensitive {
		exact, err := idx.findSymbolsExact(name)
		if err != nil {
			return nil, err
		}
		if rows := apply(exact); len(rows) > 0 {
			return rows, nil
		}
	}

	ci, err := idx.querySymbols(`SELECT file, name, kind, start_line, end_line, COALESCE(parent, '') FROM symbols WHERE name = ? COLLATE NOCASE ORDER BY file, start_line`, name)
	if err != nil {
		return nil, err
	}
	if rows := apply(ci); len(rows) > 0 {
		return rows, nil
	}

	like, err := idx.findSymbolsLike(name, 0)
	if err != nil {
		return nil, err
	}
	return apply(like), nil
}

// FindCallers performs the same tiered lookup against callee_name.
func (idx *Index) FindCallers(name string) ([]model.CallEdge, error) {
	exact, err := idx.queryCalls(`SELECT caller_file, caller_symbol, callee_name, line FROM calls WHERE callee_name = ? ORDER BY caller_file, line`, name)
	if err != nil {
		return nil, err
	}
	if len(exact) > 0 {
		return exact, nil
	}

	ci, err := idx.queryCalls(`SELECT caller_file, caller_symbol, callee_name, line FROM calls WHERE callee_name = ? COLLATE NOCASE ORDER BY caller_file, line`, name)
	if err != nil {
		return nil, err
	}
	if len(ci) > 0 {
		return ci, nil
	}

	like := "%" + name + "%"
	return idx.queryCalls(`SELECT caller_file, caller_symbol, callee_name, line FROM calls WHERE callee_name LIKE ? COLLATE NOCASE ORDER BY caller_file, line`, like)
}

// FindCallees returns every call edge whose caller_symbol exactly matches
// name, within the given file.
func (idx *Index) FindCallees(file, callerSymbol string) ([]model.CallEdge, error) {
	return idx.queryCalls(`SELECT caller_file, caller_symbol, callee_name, line FROM calls WHERE caller_file = ? AND caller_symbol = ? ORDER BY line`, file, callerSymbol)
}

func (idx *Index) querySymbols(query string, args ...any) ([]model.SymbolRow, error) {
	rows, err := idx.db.Query(query, args...)
	if err != nil {
		return nil, model.NewError(model.ErrIo, strings.Join(stringArgs(args), ","), "querying symbols", err)
	}
	defer rows.Close()

	var out []model.SymbolRow
	for rows.Next() {
		var r model.SymbolRow
		if err := rows.Scan(&r.File, &r.Name, &r.KindStr, &r.StartLine, &r.EndLine, &r.Parent); err != nil {
			return nil, model.NewError(model.ErrIo, "", "scanning symbol row", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (idx *Index) queryFiles(query string, args ...any) ([]model.IndexedFile, error) {
	rows, err := idx.db.Query(query, args...)
	if err != nil {
		return nil, model.NewError(model.ErrIo, strings.Join(stringArgs(args), ","), "querying files", err)
	}
	defer rows.Close()

	var out []model.IndexedFile
	for rows.Next() {
		var f model.IndexedFile
		if err := rows.Scan(&f.Path, &f.IsDir, &f.Mtime); err != nil {
			return nil, model.NewError(model.ErrIo, "", "scanning file row", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (idx *Index) queryCalls(query string, args ...any) ([]model.CallEdge, error) {
	rows, err := idx.db.Query(query, args...)
	if err != nil {
		return nil, model.NewError(model.ErrIo, strings.Join(stringArgs(args), ","), "querying calls", err)
	}
	defer rows.Close()

	var out []model.CallEdge
	for rows.Next() {
		var e model.CallEdge
		if err := rows.Scan(&e.CallerFile, &e.CallerSymbol, &e.CalleeName, &e.Line); err != nil {
			return nil, model.NewError(model.ErrIo, "", "scanning call row", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func stringArgs(args []any) []string {
	out := make([]string, 0, len(args))
	for _, a := range args {
		if s, ok := a.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
