package orchestrator

import (
	"context"
	"database/sql"
	"math/big"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lockmint-io/bridge-oracle/backoff"
	"github.com/lockmint-io/bridge-oracle/common"
	"github.com/lockmint-io/bridge-oracle/etherman"
	"github.com/lockmint-io/bridge-oracle/riskoracle"
	"github.com/lockmint-io/bridge-oracle/state"
	"github.com/lockmint-io/bridge-oracle/txprocessor"
	"github.com/lockmint-io/bridge-oracle/validator"
)

var oneEther = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

type testOracle struct {
	ledger    *etherman.SimulatedLedger
	risk      *riskoracle.SimulatedOracle
	submitter *txprocessor.SimulatedSubmitter
	sqldb     *sql.DB
	stateDB   *state.StateDB
	orc       *Orchestrator
}

func newTestOracle(t *testing.T, height uint64) *testOracle {
	t.Helper()

	o := &testOracle{
		ledger:    etherman.NewSimulatedLedger(height),
		risk:      riskoracle.NewSimulatedOracle(),
		submitter: txprocessor.NewSimulatedSubmitter(),
	}

	var err error
	o.sqldb, err = sql.Open("sqlite3", filepath.Join(t.TempDir(), "oracle.db"))
	require.NoError(t, err)
	t.Cleanup(func() { o.sqldb.Close() })

	o.stateDB, err = state.NewStateDB(o.sqldb)
	require.NoError(t, err)
	t.Cleanup(o.stateDB.Close)

	o.orc = o.newOrchestrator(t)
	return o
}

func (o *testOracle) newOrchestrator(t *testing.T) *Orchestrator {
	t.Helper()

	val := validator.New(&validator.Config{MaxDepositAmount: oneEther}, o.risk)
	orc, err := New(&Config{
		ConfirmationDepth: 5,
		ChunkSize:         200,
		PollingInterval:   MinPollingInterval,
		Retry:             backoff.Policy{MaxAttempts: 3, Base: time.Millisecond, Cap: time.Millisecond},
	}, o.ledger, val, txprocessor.New(o.submitter), o.stateDB)
	require.NoError(t, err)
	return orc
}

func (o *testOracle) plantDeposit(block, nonce uint64, amount *big.Int) {
	o.ledger.AppendDeposit(&etherman.SimDeposit{
		BlockNumber:        block,
		Nonce:              nonce,
		Token:              common.RandEthAddress(),
		Sender:             common.RandEthAddress(),
		Recipient:          common.RandEthAddress().Hex(),
		Amount:             amount,
		DestinationChainID: 137,
	})
}

func TestCycleDispatchesConfirmedDeposits(t *testing.T) {
	o := newTestOracle(t, 110)
	o.plantDeposit(103, 2, big.NewInt(500))
	o.plantDeposit(100, 1, big.NewInt(500))
	o.plantDeposit(108, 3, big.NewInt(500)) // above the confirmed window

	require.NoError(t, o.orc.runCycle(context.Background()))

	assert.Equal(t, uint64(105), o.orc.LastScannedBlock())
	assert.True(t, o.submitter.Dispatched(1))
	assert.True(t, o.submitter.Dispatched(2))
	assert.False(t, o.submitter.Dispatched(3))

	// dispatched in source order, not discovery order
	require.Len(t, o.submitter.SubmitLog, 2)
	assert.Equal(t, uint64(1), o.submitter.SubmitLog[0].Nonce)
	assert.Equal(t, uint64(2), o.submitter.SubmitLog[1].Nonce)

	// the deposit confirms once the chain grows past it
	o.ledger.Advance(5)
	require.NoError(t, o.orc.runCycle(context.Background()))
	assert.Equal(t, uint64(110), o.orc.LastScannedBlock())
	assert.True(t, o.submitter.Dispatched(3))
}

func TestCycleSkipsUnconfirmedHead(t *testing.T) {
	o := newTestOracle(t, 4) // head below the confirmation depth

	require.NoError(t, o.orc.runCycle(context.Background()))
	assert.Equal(t, uint64(0), o.orc.LastScannedBlock())
	assert.Equal(t, 0, o.ledger.FilterCallCount)

	// nothing new confirmed since the last cycle
	o.ledger.SetHeight(110)
	require.NoError(t, o.orc.runCycle(context.Background()))
	require.NoError(t, o.orc.runCycle(context.Background()))
	assert.Equal(t, uint64(105), o.orc.LastScannedBlock())
}

func TestCycleRejectionAdvancesCursor(t *testing.T) {
	o := newTestOracle(t, 110)
	over := new(big.Int).Mul(oneEther, big.NewInt(10))
	o.plantDeposit(102, 9, over)

	require.NoError(t, o.orc.runCycle(context.Background()))

	assert.Equal(t, uint64(105), o.orc.LastScannedBlock())
	assert.False(t, o.submitter.Dispatched(9))
	ok, err := o.stateDB.HasProcessedNonce(9)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestReplayedNonceRejected(t *testing.T) {
	o := newTestOracle(t, 110)
	o.plantDeposit(100, 42, big.NewInt(500))

	require.NoError(t, o.orc.runCycle(context.Background()))
	require.Len(t, o.submitter.SubmitLog, 1)

	// same nonce emitted again in a later block
	o.plantDeposit(112, 42, big.NewInt(500))
	o.ledger.SetHeight(120)

	require.NoError(t, o.orc.runCycle(context.Background()))
	assert.Equal(t, uint64(115), o.orc.LastScannedBlock())
	assert.Len(t, o.submitter.SubmitLog, 1)
}

func TestHeightFailureRetried(t *testing.T) {
	o := newTestOracle(t, 110)
	o.plantDeposit(100, 1, big.NewInt(500))
	o.ledger.FailNextHeightCalls(2)

	require.NoError(t, o.orc.runCycle(context.Background()))
	assert.True(t, o.submitter.Dispatched(1))
}

func TestScanFailureHoldsWindow(t *testing.T) {
	o := newTestOracle(t, 110)
	o.plantDeposit(100, 1, big.NewInt(500))
	o.ledger.FailNextFilterCalls(3) // one failure per retry attempt

	err := o.orc.runCycle(context.Background())
	require.Error(t, err)
	assert.Equal(t, uint64(0), o.orc.LastScannedBlock())
	assert.False(t, o.submitter.Dispatched(1))

	// next cycle re-queries the same window and succeeds
	require.NoError(t, o.orc.runCycle(context.Background()))
	assert.Equal(t, uint64(105), o.orc.LastScannedBlock())
	assert.True(t, o.submitter.Dispatched(1))
}

func TestProcessingFailureHoldsWindow(t *testing.T) {
	o := newTestOracle(t, 110)
	o.plantDeposit(100, 1, big.NewInt(500))
	o.submitter.FailNextCalls(3)

	err := o.orc.runCycle(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, errWindowBlocked)
	assert.Equal(t, uint64(0), o.orc.LastScannedBlock())
	ok, dberr := o.stateDB.HasProcessedNonce(1)
	require.NoError(t, dberr)
	assert.False(t, ok)

	require.NoError(t, o.orc.runCycle(context.Background()))
	assert.Equal(t, uint64(105), o.orc.LastScannedBlock())
	assert.True(t, o.submitter.Dispatched(1))
}

// rejectingSubmitter refuses every mint with a terminal reason.
type rejectingSubmitter struct{ reason string }

func (s *rejectingSubmitter) Submit(ctx context.Context, action *txprocessor.MintAction) (*txprocessor.SubmitResult, error) {
	return &txprocessor.SubmitResult{Accepted: false, Reason: s.reason}, nil
}

func TestDestinationRejectionHoldsWindow(t *testing.T) {
	o := newTestOracle(t, 110)
	o.plantDeposit(100, 1, big.NewInt(500))

	val := validator.New(&validator.Config{MaxDepositAmount: oneEther}, o.risk)
	orc, err := New(&Config{
		ConfirmationDepth: 5,
		Retry:             backoff.Policy{MaxAttempts: 2, Base: time.Millisecond, Cap: time.Millisecond},
	}, o.ledger, val, txprocessor.New(&rejectingSubmitter{reason: "unsupported_token"}), o.stateDB)
	require.NoError(t, err)

	err = orc.runCycle(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, errWindowBlocked)
	assert.Equal(t, uint64(0), orc.LastScannedBlock())
}

func TestRedispatchAfterLostCommit(t *testing.T) {
	o := newTestOracle(t, 110)
	o.plantDeposit(100, 7, big.NewInt(500))

	// the destination saw the mint but the cursor commit was lost
	_, err := o.submitter.Submit(context.Background(), &txprocessor.MintAction{
		Nonce:     7,
		Recipient: common.RandEthAddress().Hex(),
		Amount:    "500",
	})
	require.NoError(t, err)

	require.NoError(t, o.orc.runCycle(context.Background()))

	// re-submitted, deduplicated downstream, now durably recorded
	assert.Len(t, o.submitter.SubmitLog, 1)
	assert.Equal(t, uint64(105), o.orc.LastScannedBlock())
	ok, err := o.stateDB.HasProcessedNonce(7)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestStateSurvivesRestart(t *testing.T) {
	o := newTestOracle(t, 110)
	o.plantDeposit(100, 5, big.NewInt(500))
	require.NoError(t, o.orc.runCycle(context.Background()))

	// a fresh orchestrator over the same database resumes, not restarts
	restarted := o.newOrchestrator(t)
	assert.Equal(t, uint64(105), restarted.LastScannedBlock())

	o.plantDeposit(112, 5, big.NewInt(500)) // replay across restart
	o.ledger.SetHeight(120)
	require.NoError(t, restarted.runCycle(context.Background()))
	assert.Len(t, o.submitter.SubmitLog, 1)
}

func TestPersistFailureIsFatal(t *testing.T) {
	o := newTestOracle(t, 110)
	o.plantDeposit(100, 1, big.NewInt(500))
	require.NoError(t, o.sqldb.Close())

	err := o.orc.runCycle(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPersist)
	assert.Equal(t, uint64(0), o.orc.LastScannedBlock())
}

func TestRunStopsOnCancel(t *testing.T) {
	o := newTestOracle(t, 110)
	o.plantDeposit(100, 1, big.NewInt(500))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- o.orc.Run(ctx) }()

	require.Eventually(t, func() bool {
		return o.submitter.Dispatched(1)
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("orchestrator did not stop on cancel")
	}
	assert.Equal(t, string(PhaseStopped), o.orc.Phase())
}
