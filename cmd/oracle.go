// Oracle server = event source + validator + processor + orchestrator
// + db/state + http reporter.
// All components are configured via environment variables (strings!).

package cmd

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	_ "github.com/mattn/go-sqlite3"
	logger "github.com/sirupsen/logrus"

	"github.com/lockmint-io/bridge-oracle/backoff"
	"github.com/lockmint-io/bridge-oracle/common"
	"github.com/lockmint-io/bridge-oracle/etherman"
	"github.com/lockmint-io/bridge-oracle/orchestrator"
	"github.com/lockmint-io/bridge-oracle/reporter"
	"github.com/lockmint-io/bridge-oracle/riskoracle"
	"github.com/lockmint-io/bridge-oracle/scanner"
	"github.com/lockmint-io/bridge-oracle/state"
	"github.com/lockmint-io/bridge-oracle/txprocessor"
	"github.com/lockmint-io/bridge-oracle/validator"
)

// Default params for the oracle server.
// More often we don't recommend users to tweak those.
// So we list them here.
const (
	// orchestrator config
	defaultConfirmationDepth = 12
	defaultChunkSize         = 1000
	defaultPollingInterval   = 5 * time.Second

	// retry config, applied to rpc, risk oracle and relayer calls
	defaultRetryMaxAttempts = 5
	defaultRetryBase        = 500 * time.Millisecond
	defaultRetryCap         = 30 * time.Second

	// outbound http config
	defaultRelayerTimeout = 10 * time.Second
	defaultRiskTimeout    = 10 * time.Second
)

// Keep the configuration's fields as "text" as possible.
// Its easier to load it from env vars or a config file.
type OracleServerConfig struct {
	// eth side
	EthRpcUrl          string // json rpc url
	BridgeContractAddr string // address emitting TokensLocked events
	EthRetroScanBlk    int64  // start scanning from this block, -1 to honor the value in statedb.
	ConfirmationDepth  int64  // blocks withheld from the scan window, 0 = default
	ChunkSize          int64  // blocks per log query, 0 = default
	PollingIntervalSec int64  // pause between cycles in seconds, 0 = default

	// retry side, 0 = defaults
	RetryMaxAttempts int64
	BackoffBaseMs    int64
	BackoffCapSec    int64

	// state side
	DbFilePath string // db file path

	// destination side
	RelayerApiUrl string // relayer endpoint receiving mint actions

	// validation side
	MaxDepositEth string // per-deposit cap in ether units, "" = uncapped
	RiskOracleUrl string // risk screening endpoint
	RiskFailOpen  bool   // pass events through when the risk oracle is down

	// Http side
	HttpIp   string // eg. 0.0.0.0
	HttpPort string // eg. 8080

	// Simulate replaces the relayer and risk oracle with in-memory twins.
	Simulate bool
}

// OracleServer holds the objects that consists of the oracle server.
type OracleServer struct {
	MyEtherman     *etherman.Etherman
	MyStateDb      *state.StateDB
	MyOrchestrator *orchestrator.Orchestrator
}

// NewOracleServer creates a new oracle server.
// ctx is used for parental context to cancel the operation of the server.
// wg is used to wait for the goroutines inside the server to finish.
func NewOracleServer(osc *OracleServerConfig, ctx context.Context, wg *sync.WaitGroup) (*OracleServer, error) {
	// 1) Connect to the source chain.
	myEtherman, err := etherman.NewEtherman(&etherman.Config{
		URL:                   osc.EthRpcUrl,
		BridgeContractAddress: osc.BridgeContractAddr,
	})
	if err != nil {
		logger.Fatalf("failed to create etherman: %v", err)
		return nil, err
	}
	logger.WithField("address", myEtherman.BridgeAddress().Hex()).Info("Bridge contract address")

	// 2) Create sql db and the state db over it.
	sqldb, err := sql.Open("sqlite3", osc.DbFilePath)
	if err != nil {
		logger.Fatalf("failed to open db file: %v", err)
		return nil, err
	}

	myStateDb, err := state.NewStateDB(sqldb)
	if err != nil {
		logger.Fatalf("failed to create state db: %v", err)
		return nil, err
	}

	// Honor a configured retro-scan start, unless the db already has progress.
	if osc.EthRetroScanBlk >= 0 {
		if err := myStateDb.SeedCursor(uint64(osc.EthRetroScanBlk)); err != nil {
			logger.Fatalf("failed to seed scan cursor: %v", err)
			return nil, err
		}
	}

	// 3) Risk oracle + mint submitter, real or simulated.
	var riskOracle riskoracle.Oracle
	var submitter txprocessor.Submitter
	if osc.Simulate {
		logger.Warn("simulate mode: mints are recorded in memory, not dispatched")
		riskOracle = riskoracle.NewSimulatedOracle()
		submitter = txprocessor.NewSimulatedSubmitter()
	} else {
		riskOracle = riskoracle.NewHttpOracle(osc.RiskOracleUrl, defaultRiskTimeout)
		submitter = txprocessor.NewHttpSubmitter(osc.RelayerApiUrl, defaultRelayerTimeout)
	}

	// 4) Validator.
	valCfg := &validator.Config{RiskFailOpen: osc.RiskFailOpen}
	if osc.MaxDepositEth != "" {
		maxWei, err := common.EtherToWei(osc.MaxDepositEth)
		if err != nil {
			logger.Fatalf("bad max deposit amount %q: %v", osc.MaxDepositEth, err)
			return nil, err
		}
		valCfg.MaxDepositAmount = maxWei
	}
	myValidator := validator.New(valCfg, riskOracle)

	// 5) Orchestrator over the whole pipeline.
	orcCfg := &orchestrator.Config{
		ConfirmationDepth: uint64(defaultConfirmationDepth),
		ChunkSize:         uint64(defaultChunkSize),
		PollingInterval:   defaultPollingInterval,
		Retry: backoff.Policy{
			MaxAttempts: defaultRetryMaxAttempts,
			Base:        defaultRetryBase,
			Cap:         defaultRetryCap,
		},
	}
	if osc.ConfirmationDepth > 0 {
		orcCfg.ConfirmationDepth = uint64(osc.ConfirmationDepth)
	}
	if osc.ChunkSize > 0 {
		orcCfg.ChunkSize = uint64(osc.ChunkSize)
	}
	if osc.PollingIntervalSec > 0 {
		orcCfg.PollingInterval = time.Duration(osc.PollingIntervalSec) * time.Second
	}
	if osc.RetryMaxAttempts > 0 {
		orcCfg.Retry.MaxAttempts = int(osc.RetryMaxAttempts)
	}
	if osc.BackoffBaseMs > 0 {
		orcCfg.Retry.Base = time.Duration(osc.BackoffBaseMs) * time.Millisecond
	}
	if osc.BackoffCapSec > 0 {
		orcCfg.Retry.Cap = time.Duration(osc.BackoffCapSec) * time.Second
	}

	var source scanner.EventSource = myEtherman
	myOrchestrator, err := orchestrator.New(orcCfg, source, myValidator, txprocessor.New(submitter), myStateDb)
	if err != nil {
		logger.Fatalf("failed to create orchestrator: %v", err)
		return nil, err
	}

	// Important: turn on the cycle loop!
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := myOrchestrator.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Fatalf("orchestrator stopped: %v", err)
		}
	}()

	// *** Setup a http server to report status ***
	http_server := reporter.NewHttpReporter(
		osc.HttpIp,
		osc.HttpPort,
		myStateDb,
		myOrchestrator,
	)
	// Turn on the http server
	go http_server.Run()

	// Give it some time to start the http server
	time.Sleep(1 * time.Second)
	// *** End the setup of http server ***

	return &OracleServer{
		MyEtherman:     myEtherman,
		MyStateDb:      myStateDb,
		MyOrchestrator: myOrchestrator,
	}, nil
}

// Create, then start the oracle server and wait.
// Press Ctrl-C to kill the server.
func StartOracleServerAndWait(osc *OracleServerConfig) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up a signal channel to listen for Ctrl-C (SIGINT) or SIGTERM
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	// Launch a new goroutine to handle the signal
	go func() {
		sig := <-sigCh
		fmt.Printf("Received signal: %v, cancelling context...\n", sig)
		cancel()
	}()

	var wg sync.WaitGroup

	_, err := NewOracleServer(osc, ctx, &wg)
	if err != nil {
		logger.Fatalf("failed to create oracle server: %v", err)
		return
	}

	// wait for all routines to finish
	wg.Wait()
}
