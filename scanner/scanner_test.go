package scanner

import (
	"context"
	"math/big"
	"testing"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lockmint-io/bridge-oracle/common"
	"github.com/lockmint-io/bridge-oracle/etherman"
)

func plantDeposit(sim *etherman.SimulatedLedger, block uint64, idx uint, nonce uint64) {
	sim.AppendDeposit(&etherman.SimDeposit{
		BlockNumber:        block,
		LogIndex:           idx,
		Nonce:              nonce,
		Token:              common.RandEthAddress(),
		Sender:             common.RandEthAddress(),
		Recipient:          common.RandEthAddress().Hex(),
		Amount:             big.NewInt(1000),
		DestinationChainID: 4242,
	})
}

func TestScanEmptyWindow(t *testing.T) {
	sim := etherman.NewSimulatedLedger(100)
	s := New(sim)

	// fromBlock > toBlock is not an error
	events, err := s.Scan(context.Background(), 50, 40, 10)
	assert.NoError(t, err)
	assert.Empty(t, events)
	assert.Equal(t, 0, sim.FilterCallCount)
}

func TestScanOrderedAcrossChunks(t *testing.T) {
	sim := etherman.NewSimulatedLedger(100)
	plantDeposit(sim, 25, 0, 3)
	plantDeposit(sim, 10, 1, 2)
	plantDeposit(sim, 10, 0, 1)
	plantDeposit(sim, 31, 0, 4)

	s := New(sim)
	events, err := s.Scan(context.Background(), 1, 40, 10)
	require.NoError(t, err)
	require.Len(t, events, 4)

	// [1,10] [11,20] [21,30] [31,40]
	assert.Equal(t, 4, sim.FilterCallCount)

	for i, wantNonce := range []uint64{1, 2, 3, 4} {
		assert.Equal(t, wantNonce, events[i].Nonce)
	}
	assert.Equal(t, uint64(10), events[0].BlockNumber)
	assert.Equal(t, uint(0), events[0].LogIndex)
	assert.Equal(t, uint(1), events[1].LogIndex)
}

func TestScanRestartable(t *testing.T) {
	sim := etherman.NewSimulatedLedger(100)
	plantDeposit(sim, 5, 0, 7)
	plantDeposit(sim, 6, 0, 8)

	s := New(sim)
	first, err := s.Scan(context.Background(), 1, 10, 3)
	require.NoError(t, err)
	second, err := s.Scan(context.Background(), 1, 10, 3)
	require.NoError(t, err)

	require.Len(t, first, 2)
	assert.Equal(t, first, second)
}

func TestScanChunkFailurePropagates(t *testing.T) {
	sim := etherman.NewSimulatedLedger(100)
	plantDeposit(sim, 5, 0, 1)
	plantDeposit(sim, 15, 0, 2)
	plantDeposit(sim, 25, 0, 3)

	s := New(sim)

	// chunk 2 of 3 fails; no partial result comes back
	sim.FailOnFilterCall(2)
	events, err := s.Scan(context.Background(), 1, 30, 10)
	assert.Error(t, err)
	assert.Nil(t, events)
	assert.Equal(t, 2, sim.FilterCallCount)

	// the retry re-queries all three chunks in full
	events, err = s.Scan(context.Background(), 1, 30, 10)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, 5, sim.FilterCallCount)
}

func TestScanSkipsUndecodableLog(t *testing.T) {
	sim := etherman.NewSimulatedLedger(100)
	plantDeposit(sim, 5, 0, 1)

	// a log with the right signature but a truncated payload
	sim.AppendRawLog(types.Log{
		BlockNumber: 6,
		Index:       0,
		TxHash:      ethcommon.Hash(common.RandBytes32()),
		Topics: []ethcommon.Hash{
			etherman.TokensLockedSignatureHash,
			ethcommon.Hash{},
			ethcommon.Hash{},
			ethcommon.Hash{},
		},
		Data: []byte{0x01, 0x02},
	})
	plantDeposit(sim, 7, 0, 2)

	s := New(sim)
	events, err := s.Scan(context.Background(), 1, 10, 100)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, uint64(1), events[0].Nonce)
	assert.Equal(t, uint64(2), events[1].Nonce)
}

func TestScanCancelled(t *testing.T) {
	sim := etherman.NewSimulatedLedger(100)
	s := New(sim)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Scan(ctx, 1, 10, 2)
	assert.ErrorIs(t, err, context.Canceled)
}
