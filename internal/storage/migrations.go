package storage

// Migration represents a database migration
type Migration struct {
	Version     string
	Description string
	SQL         string
}

// GetSQLiteMigrations returns SQLite migration scripts
func GetSQLiteMigrations() []*Migration {
	return []*Migration{
		{
			Version:     "001",
			Description: "Create alerts table",
			SQL: `
				CREATE TABLE IF NOT EXISTS alerts (
					id TEXT PRIMARY KEY,
					user_id TEXT NOT NULL,
					type TEXT NOT NULL,
					status TEXT NOT NULL DEFAULT 'active',
					filters TEXT NOT NULL, -- JSON
					alert_end DATETIME,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
				);

				CREATE INDEX IF NOT EXISTS idx_alerts_user_id ON alerts(user_id);
				CREATE INDEX IF NOT EXISTS idx_alerts_status ON alerts(status);
				CREATE INDEX IF NOT EXISTS idx_alerts_alert_end ON alerts(alert_end);
			`,
		},
		{
			Version:     "002",
			Description: "Create notification log table",
			SQL: `
				CREATE TABLE IF NOT EXISTS notification_log (
					id TEXT PRIMARY KEY,
					alert_id TEXT NOT NULL,
					user_id TEXT NOT NULL,
					kind TEXT NOT NULL,
					sent_at DATETIME NOT NULL,
					FOREIGN KEY (alert_id) REFERENCES alerts (id)
				);

				CREATE INDEX IF NOT EXISTS idx_notification_log_alert ON notification_log(alert_id, sent_at);
				CREATE INDEX IF NOT EXISTS idx_notification_log_user ON notification_log(user_id, sent_at);
			`,
		},
		{
			Version:     "003",
			Description: "Create users table",
			SQL: `
				CREATE TABLE IF NOT EXISTS users (
					id TEXT PRIMARY KEY,
					email TEXT NOT NULL,
					display_name TEXT,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				);
			`,
		},
		{
			Version:     "004",
			Description: "Create airports table",
			SQL: `
				CREATE TABLE IF NOT EXISTS airports (
					iata TEXT PRIMARY KEY,
					city TEXT NOT NULL
				);
			`,
		},
		{
			Version:     "005",
			Description: "Seed common airports",
			SQL:         airportSeedSQLite,
		},
	}
}

// GetPostgresMigrations returns Postgres migration scripts
func GetPostgresMigrations() []*Migration {
	return []*Migration{
		{
			Version:     "001",
			Description: "Create alerts table",
			SQL: `
				CREATE TABLE IF NOT EXISTS alerts (
					id TEXT PRIMARY KEY,
					user_id TEXT NOT NULL,
					type TEXT NOT NULL,
					status TEXT NOT NULL DEFAULT 'active',
					filters JSONB NOT NULL,
					alert_end TIMESTAMPTZ,
					created_at TIMESTAMPTZ DEFAULT NOW(),
					updated_at TIMESTAMPTZ DEFAULT NOW()
				);

				CREATE INDEX IF NOT EXISTS idx_alerts_user_id ON alerts(user_id);
				CREATE INDEX IF NOT EXISTS idx_alerts_status ON alerts(status);
				CREATE INDEX IF NOT EXISTS idx_alerts_alert_end ON alerts(alert_end);
			`,
		},
		{
			Version:     "002",
			Description: "Create notification log table",
			SQL: `
				CREATE TABLE IF NOT EXISTS notification_log (
					id TEXT PRIMARY KEY,
					alert_id TEXT NOT NULL REFERENCES alerts (id),
					user_id TEXT NOT NULL,
					kind TEXT NOT NULL,
					sent_at TIMESTAMPTZ NOT NULL
				);

				CREATE INDEX IF NOT EXISTS idx_notification_log_alert ON notification_log(alert_id, sent_at);
				CREATE INDEX IF NOT EXISTS idx_notification_log_user ON notification_log(user_id, sent_at);
			`,
		},
		{
			Version:     "003",
			Description: "Create users table",
			SQL: `
				CREATE TABLE IF NOT EXISTS users (
					id TEXT PRIMARY KEY,
					email TEXT NOT NULL,
					display_name TEXT,
					created_at TIMESTAMPTZ DEFAULT NOW()
				);
			`,
		},
		{
			Version:     "004",
			Description: "Create airports table",
			SQL: `
				CREATE TABLE IF NOT EXISTS airports (
					iata TEXT PRIMARY KEY,
					city TEXT NOT NULL
				);
			`,
		},
		{
			Version:     "005",
			Description: "Seed common airports",
			SQL:         airportSeedPostgres,
		},
	}
}

// Airports are reference data; route labels fall back to raw IATA codes for
// anything not seeded here.
const airportSeedValues = `
	('AMS', 'Amsterdam'),
	('ATL', 'Atlanta'),
	('BCN', 'Barcelona'),
	('BOS', 'Boston'),
	('CDG', 'Paris'),
	('DEN', 'Denver'),
	('DFW', 'Dallas'),
	('DXB', 'Dubai'),
	('FCO', 'Rome'),
	('FRA', 'Frankfurt'),
	('GRU', 'Sao Paulo'),
	('HND', 'Tokyo'),
	('JFK', 'New York'),
	('LAX', 'Los Angeles'),
	('LHR', 'London'),
	('LIS', 'Lisbon'),
	('MAD', 'Madrid'),
	('MEX', 'Mexico City'),
	('MIA', 'Miami'),
	('MUC', 'Munich'),
	('ORD', 'Chicago'),
	('OPO', 'Porto'),
	('SEA', 'Seattle'),
	('SFO', 'San Francisco'),
	('SIN', 'Singapore'),
	('YYZ', 'Toronto')`

const airportSeedSQLite = `INSERT OR IGNORE INTO airports (iata, city) VALUES` + airportSeedValues + `;`

const airportSeedPostgres = `INSERT INTO airports (iata, city) VALUES` + airportSeedValues + `
	ON CONFLICT (iata) DO NOTHING;`
