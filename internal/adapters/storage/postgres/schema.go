package postgres

// schema es idempotente; se aplica al arrancar.
const schema = `
CREATE TABLE IF NOT EXISTS pets (
	id             TEXT PRIMARY KEY,
	owner          TEXT NOT NULL,
	name           TEXT NOT NULL,
	species        TEXT NOT NULL DEFAULT '',
	breed          TEXT NOT NULL DEFAULT '',
	gender         TEXT NOT NULL DEFAULT '',
	birth_date     DATE,
	is_neutered    BOOLEAN NOT NULL DEFAULT FALSE,
	photo_ref      TEXT NOT NULL DEFAULT '',
	tiles_settings JSONB,
	created_at     TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS pets_owner_idx ON pets (owner);

CREATE TABLE IF NOT EXISTS pet_shares (
	pet_id   TEXT NOT NULL REFERENCES pets (id) ON DELETE CASCADE,
	username TEXT NOT NULL,
	PRIMARY KEY (pet_id, username)
);
CREATE INDEX IF NOT EXISTS pet_shares_username_idx ON pet_shares (username);

CREATE TABLE IF NOT EXISTS health_records (
	id         TEXT PRIMARY KEY,
	collection TEXT NOT NULL,
	pet_id     TEXT NOT NULL,
	date_time  TIMESTAMPTZ NOT NULL,
	username   TEXT NOT NULL,
	comment    TEXT NOT NULL DEFAULT '',
	fields     JSONB NOT NULL DEFAULT '{}'
);
CREATE INDEX IF NOT EXISTS health_records_pet_idx ON health_records (collection, pet_id, date_time DESC);

CREATE TABLE IF NOT EXISTS medications (
	id                          TEXT PRIMARY KEY,
	pet_id                      TEXT NOT NULL,
	owner                       TEXT NOT NULL,
	name                        TEXT NOT NULL,
	type                        TEXT NOT NULL DEFAULT '',
	dosage                      TEXT NOT NULL DEFAULT '',
	unit                        TEXT NOT NULL DEFAULT '',
	schedule                    JSONB NOT NULL DEFAULT '{}',
	comment                     TEXT NOT NULL DEFAULT '',
	inventory_enabled           BOOLEAN NOT NULL DEFAULT FALSE,
	inventory_total             DOUBLE PRECISION,
	inventory_current           DOUBLE PRECISION CHECK (inventory_current >= 0),
	inventory_warning_threshold DOUBLE PRECISION,
	is_active                   BOOLEAN NOT NULL DEFAULT TRUE,
	created_at                  TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS medications_pet_idx ON medications (pet_id);

CREATE TABLE IF NOT EXISTS medication_intakes (
	id            TEXT PRIMARY KEY,
	medication_id TEXT NOT NULL,
	pet_id        TEXT NOT NULL,
	date_time     TIMESTAMPTZ NOT NULL,
	dose_taken    DOUBLE PRECISION NOT NULL,
	username      TEXT NOT NULL,
	comment       TEXT NOT NULL DEFAULT '',
	created_at    TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS medication_intakes_med_idx ON medication_intakes (medication_id, date_time DESC);
CREATE INDEX IF NOT EXISTS medication_intakes_pet_idx ON medication_intakes (pet_id);

CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	username      TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	full_name     TEXT NOT NULL DEFAULT '',
	email         TEXT NOT NULL DEFAULT '',
	is_active     BOOLEAN NOT NULL DEFAULT TRUE,
	is_admin      BOOLEAN NOT NULL DEFAULT FALSE,
	created_by    TEXT NOT NULL DEFAULT '',
	created_at    TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS refresh_tokens (
	token      TEXT PRIMARY KEY,
	username   TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	expires_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS refresh_tokens_username_idx ON refresh_tokens (username);
`
