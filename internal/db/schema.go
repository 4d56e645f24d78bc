package db

// The exclusion constraint makes Postgres itself refuse overlapping closed ranges, so two server
// processes cannot both pass the conflict check and insert.
var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS campaigns (
        id BIGSERIAL PRIMARY KEY,
        name TEXT NOT NULL,
        start_date DATE NOT NULL,
        end_date DATE NOT NULL,
        created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
        CONSTRAINT campaigns_name_present CHECK (name <> ''),
        CONSTRAINT campaigns_valid_range CHECK (start_date <= end_date),
        CONSTRAINT campaigns_no_overlap EXCLUDE USING gist (daterange(start_date, end_date, '[]') WITH &&)
    )`,
	`CREATE INDEX IF NOT EXISTS idx_campaigns_start_date ON campaigns (start_date, id)`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS campaigns (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        name TEXT NOT NULL CHECK (name <> ''),
        start_date TEXT NOT NULL,
        end_date TEXT NOT NULL,
        created_at TEXT NOT NULL,
        CHECK (start_date <= end_date)
    )`,
	`CREATE INDEX IF NOT EXISTS idx_campaigns_range ON campaigns (start_date, end_date)`,
}
