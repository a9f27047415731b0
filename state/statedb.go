// Package state persists the orchestrator's scan cursor and processed-nonce
// set in sqlite. CommitWindow is the only write path and runs in a single
// transaction, which is what makes a crash between cycles safe.
package state

import (
	"database/sql"

	"github.com/lockmint-io/bridge-oracle/database"
)

type StateDB struct {
	db        *sql.DB
	stmtCache *database.StmtCache
}

func NewStateDB(db *sql.DB) (*StateDB, error) {
	if _, err := db.Exec(cursorTable + processedNonceTable); err != nil {
		return nil, err
	}

	return &StateDB{
		db:        db,
		stmtCache: database.NewStmtCache(db),
	}, nil
}

func (st *StateDB) Close() {
	st.stmtCache.Clear()
}

// SeedCursor sets the initial cursor. A no-op when a cursor already exists,
// so a configured retro-scan start never clobbers real progress.
func (st *StateDB) SeedCursor(startBlock uint64) error {
	query := `INSERT OR IGNORE INTO scan_cursor (id, lastScannedBlock) VALUES (0, ?)`
	stmt, err := st.stmtCache.Prepare(query)
	if err != nil {
		return err
	}
	_, err = stmt.Exec(int64(startBlock))
	return err
}

// Load reads the durable state. A fresh database yields block 0 and an
// empty nonce set.
func (st *StateDB) Load() (*OrchestratorState, error) {
	s := NewOrchestratorState()

	block, err := st.LastScannedBlock()
	if err != nil {
		return nil, err
	}
	s.LastScannedBlock = block

	rows, err := st.db.Query(`SELECT nonce FROM processed_nonce`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var nonce int64
		if err := rows.Scan(&nonce); err != nil {
			return nil, err
		}
		if nonce < 0 {
			return nil, ErrStateCorruption
		}
		s.ProcessedNonces[uint64(nonce)] = struct{}{}
	}
	return s, rows.Err()
}

func (st *StateDB) LastScannedBlock() (uint64, error) {
	query := `SELECT lastScannedBlock FROM scan_cursor WHERE id = 0`
	stmt, err := st.stmtCache.Prepare(query)
	if err != nil {
		return 0, err
	}

	var block int64
	if err := stmt.QueryRow().Scan(&block); err != nil {
		if err == sql.ErrNoRows {
			return 0, nil
		}
		return 0, err
	}
	if block < 0 {
		return 0, ErrStateCorruption
	}
	return uint64(block), nil
}

// CommitWindow atomically advances the cursor to toBlock and records the
// nonces dispatched inside the window. Re-committing the same window after a
// crash is harmless; moving the cursor backwards is corruption.
func (st *StateDB) CommitWindow(toBlock uint64, nonces []uint64) error {
	stored, err := st.LastScannedBlock()
	if err != nil {
		return err
	}
	if toBlock < stored {
		return ErrCursorRegression(stored, toBlock)
	}

	tx, err := st.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`INSERT OR REPLACE INTO scan_cursor (id, lastScannedBlock) VALUES (0, ?)`,
		int64(toBlock),
	); err != nil {
		return err
	}

	for _, nonce := range nonces {
		if _, err := tx.Exec(
			`INSERT OR IGNORE INTO processed_nonce (nonce) VALUES (?)`,
			int64(nonce),
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (st *StateDB) HasProcessedNonce(nonce uint64) (bool, error) {
	query := `SELECT 1 FROM processed_nonce WHERE nonce = ?`
	stmt, err := st.stmtCache.Prepare(query)
	if err != nil {
		return false, err
	}

	var one int
	if err := stmt.QueryRow(int64(nonce)).Scan(&one); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (st *StateDB) CountProcessedNonces() (int64, error) {
	query := `SELECT COUNT(*) FROM processed_nonce`
	stmt, err := st.stmtCache.Prepare(query)
	if err != nil {
		return 0, err
	}

	var count int64
	if err := stmt.QueryRow().Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}
