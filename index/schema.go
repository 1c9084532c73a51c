package index

// SchemaVersion is written to meta.schema_version on first open. A stored
// version that differs triggers a full truncate-and-reset (§4.2 schema
// versioning).
const SchemaVersion = "1"

const schemaDDL = `
CREATE TABLE IF NOT EXISTS meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS files (
	path   TEXT PRIMARY KEY,
	is_dir INTEGER NOT NULL,
	mtime  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_files_path ON files(path);

CREATE TABLE IF NOT EXISTS symbols (
	file       TEXT NOT NULL,
	name       TEXT NOT NULL,
	kind       TEXT NOT NULL,
	start_line INTEGER NOT NULL,
	end_line   INTEGER NOT NULL,
	parent     TEXT
);
CREATE INDEX IF NOT EXISTS idx_symbols_name ON symbols(name);
CREATE INDEX IF NOT EXISTS idx_symbols_file ON symbols(file);

CREATE TABLE IF NOT EXISTS calls (
	caller_file   TEXT NOT NULL,
	caller_symbol TEXT NOT NULL,
	callee_name   TEXT NOT NULL,
	line          INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_calls_callee ON calls(callee_name);
CREATE INDEX IF NOT EXISTS idx_calls_caller ON calls(caller_file, caller_symbol);
`
