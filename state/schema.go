package state

var (
	// single-row cursor table; id is pinned to 0
	cursorTable = `CREATE TABLE IF NOT EXISTS scan_cursor (
		id INTEGER PRIMARY KEY NOT NULL,
		lastScannedBlock BIGINT NOT NULL,
		CONSTRAINT chk_id CHECK (id = 0),
		CONSTRAINT chk_block CHECK (lastScannedBlock >= 0)
	);`

	// one row per deposit nonce handed to the destination side
	processedNonceTable = `CREATE TABLE IF NOT EXISTS processed_nonce (
		nonce BIGINT PRIMARY KEY NOT NULL,
		CONSTRAINT chk_nonce CHECK (nonce >= 0)
	);`
)
