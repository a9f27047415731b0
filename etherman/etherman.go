// Package etherman is the ledger-access client of the oracle. It owns the
// TokensLocked wire format (signature hash and data layout) and answers two
// questions: how tall is the chain, and which bridge logs sit in a block range.
package etherman

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/lockmint-io/bridge-oracle/common"
)

// TokensLocked(address indexed token, address indexed sender,
// uint256 indexed nonce, string recipient, uint256 amount,
// uint256 destinationChainId)
const TokensLockedSignature = "TokensLocked(address,address,uint256,string,uint256,uint256)"

var TokensLockedSignatureHash = crypto.Keccak256Hash([]byte(TokensLockedSignature))

// DepositDataArguments is the layout of the non-indexed event fields.
// Indexed fields (token, sender, nonce) travel in topics 1..3.
var DepositDataArguments = abi.Arguments{
	{Name: "recipient", Type: mustNewType("string")},
	{Name: "amount", Type: mustNewType("uint256")},
	{Name: "destinationChainId", Type: mustNewType("uint256")},
}

func mustNewType(t string) abi.Type {
	typ, err := abi.NewType(t, "", nil)
	if err != nil {
		panic(err)
	}
	return typ
}

type ethereumClient interface {
	ChainID(ctx context.Context) (*big.Int, error)
	BlockNumber(ctx context.Context) (uint64, error)
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error)
}

type Etherman struct {
	ethClient     ethereumClient
	bridgeAddress ethcommon.Address
	rpcTimeout    time.Duration
}

func NewEtherman(cfg *Config) (*Etherman, error) {
	if !ethcommon.IsHexAddress(cfg.BridgeContractAddress) {
		return nil, fmt.Errorf("invalid bridge contract address: %s", cfg.BridgeContractAddress)
	}

	ethClient, err := ethclient.Dial(cfg.URL)
	if err != nil {
		return nil, err
	}

	timeout := cfg.RPCTimeout
	if timeout <= 0 {
		timeout = DefaultRPCTimeout
	}

	return &Etherman{
		ethClient:     ethClient,
		bridgeAddress: ethcommon.HexToAddress(cfg.BridgeContractAddress),
		rpcTimeout:    timeout,
	}, nil
}

// NewEthermanWithClient injects a client directly. Used by tests.
func NewEthermanWithClient(client ethereumClient, bridgeAddress ethcommon.Address, rpcTimeout time.Duration) *Etherman {
	if rpcTimeout <= 0 {
		rpcTimeout = DefaultRPCTimeout
	}
	return &Etherman{
		ethClient:     client,
		bridgeAddress: bridgeAddress,
		rpcTimeout:    rpcTimeout,
	}
}

func (etherman *Etherman) BridgeAddress() ethcommon.Address {
	return etherman.bridgeAddress
}

func (etherman *Etherman) ChainID(ctx context.Context) (*big.Int, error) {
	ctx, cancel := context.WithTimeout(ctx, etherman.rpcTimeout)
	defer cancel()

	chainID, err := etherman.ethClient.ChainID(ctx)
	if err != nil {
		return nil, common.WrapTransport("eth_chainId", err)
	}
	return chainID, nil
}

// CurrentHeight returns the height of the chain head.
func (etherman *Etherman) CurrentHeight(ctx context.Context) (uint64, error) {
	ctx, cancel := context.WithTimeout(ctx, etherman.rpcTimeout)
	defer cancel()

	height, err := etherman.ethClient.BlockNumber(ctx)
	if err != nil {
		return 0, common.WrapTransport("eth_blockNumber", err)
	}
	return height, nil
}

// FilterDepositLogs returns the raw TokensLocked logs emitted by the bridge
// contract in [fromBlock, toBlock], in the node's (blockNumber, logIndex) order.
func (etherman *Etherman) FilterDepositLogs(ctx context.Context, fromBlock, toBlock uint64) ([]types.Log, error) {
	ctx, cancel := context.WithTimeout(ctx, etherman.rpcTimeout)
	defer cancel()

	logs, err := etherman.ethClient.FilterLogs(ctx, ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(fromBlock),
		ToBlock:   new(big.Int).SetUint64(toBlock),
		Addresses: []ethcommon.Address{etherman.bridgeAddress},
		Topics:    [][]ethcommon.Hash{{TokensLockedSignatureHash}},
	})
	if err != nil {
		return nil, common.WrapTransport("eth_getLogs", err)
	}
	return logs, nil
}
