package timescaledb

const createExtensionSQL = `CREATE EXTENSION IF NOT EXISTS timescaledb CASCADE;`

// Runs are partitioned by start time so retention policies can drop old
// simulation runs in whole chunks.
const createHypertableSQL = `SELECT create_hypertable('hydrosim_runs', 'started_at', if_not_exists => TRUE, migrate_data => TRUE);`
