// Package orchestrator runs the oracle's cycle loop: scan a confirmed block
// window, validate each event, dispatch the accepted ones, then commit the
// window atomically. A single goroutine drives the whole pipeline, so the
// only concurrency to reason about lives inside the collaborators.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	logger "github.com/sirupsen/logrus"

	"github.com/lockmint-io/bridge-oracle/backoff"
	"github.com/lockmint-io/bridge-oracle/common"
	"github.com/lockmint-io/bridge-oracle/scanner"
	"github.com/lockmint-io/bridge-oracle/state"
	"github.com/lockmint-io/bridge-oracle/txprocessor"
	"github.com/lockmint-io/bridge-oracle/validator"
)

type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseScanning   Phase = "scanning"
	PhaseValidating Phase = "validating"
	PhaseProcessing Phase = "processing"
	PhasePersisting Phase = "persisting"
	PhaseSleeping   Phase = "sleeping"
	PhaseStopped    Phase = "stopped"
)

// errWindowBlocked marks a cycle that ended without advancing the cursor.
// The next cycle re-scans the same window; that is the recovery path.
var errWindowBlocked = errors.New("window not advanced")

// ErrPersist marks a failed durable commit. The orchestrator must not start
// another cycle on top of state it could not persist, so Run stops on it.
var ErrPersist = errors.New("state persistence failed")

type Orchestrator struct {
	cfg       *Config
	source    scanner.EventSource
	scanner   *scanner.EventScanner
	validator *validator.Validator
	processor *txprocessor.Processor
	stateDB   *state.StateDB

	st *state.OrchestratorState

	mu    sync.Mutex
	phase Phase
}

func New(
	cfg *Config,
	source scanner.EventSource,
	val *validator.Validator,
	proc *txprocessor.Processor,
	stateDB *state.StateDB,
) (*Orchestrator, error) {
	st, err := stateDB.Load()
	if err != nil {
		return nil, fmt.Errorf("load orchestrator state: %w", err)
	}

	logger.WithFields(logger.Fields{
		"lastScannedBlock": st.LastScannedBlock,
		"processedNonces":  len(st.ProcessedNonces),
	}).Info("orchestrator state loaded")

	return &Orchestrator{
		cfg:       cfg.withDefaults(),
		source:    source,
		scanner:   scanner.New(source),
		validator: val,
		processor: proc,
		stateDB:   stateDB,
		st:        st,
		phase:     PhaseIdle,
	}, nil
}

func (o *Orchestrator) Phase() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return string(o.phase)
}

func (o *Orchestrator) setPhase(p Phase) {
	o.mu.Lock()
	o.phase = p
	o.mu.Unlock()
}

// LastScannedBlock returns the in-memory cursor, which trails the durable
// one only inside a running cycle.
func (o *Orchestrator) LastScannedBlock() uint64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.st.LastScannedBlock
}

// Run drives cycles until the context is cancelled or persistence fails.
// Every other failure is logged and retried on the next tick.
func (o *Orchestrator) Run(ctx context.Context) error {
	ticker := time.NewTicker(o.cfg.PollingInterval)
	defer ticker.Stop()

	logger.WithFields(logger.Fields{
		"confirmationDepth": o.cfg.ConfirmationDepth,
		"chunkSize":         o.cfg.ChunkSize,
		"pollingInterval":   o.cfg.PollingInterval.String(),
	}).Info("orchestrator started")

	for {
		if err := o.runCycle(ctx); err != nil {
			switch {
			case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
				o.setPhase(PhaseStopped)
				return ctx.Err()
			case errors.Is(err, ErrPersist):
				o.setPhase(PhaseStopped)
				logger.Errorf("stopping orchestrator: %v", err)
				return err
			default:
				logger.Warnf("cycle failed, will retry: %v", err)
			}
		}

		o.setPhase(PhaseSleeping)
		select {
		case <-ctx.Done():
			o.setPhase(PhaseStopped)
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// runCycle performs one scan->validate->process->persist pass. The cursor
// only moves in the final CommitWindow, so a crash anywhere earlier replays
// the window from scratch.
func (o *Orchestrator) runCycle(ctx context.Context) error {
	o.setPhase(PhaseScanning)

	var head uint64
	err := backoff.Retry(ctx, o.cfg.Retry, "current_height", func() error {
		h, err := o.source.CurrentHeight(ctx)
		if err != nil {
			return err
		}
		head = h
		return nil
	})
	if err != nil {
		return err
	}

	if head < o.cfg.ConfirmationDepth {
		return nil
	}
	toBlock := head - o.cfg.ConfirmationDepth
	fromBlock := o.st.LastScannedBlock + 1
	if toBlock < fromBlock {
		return nil
	}

	var events []*scanner.DepositEvent
	err = backoff.Retry(ctx, o.cfg.Retry, "scan_window", func() error {
		evs, err := o.scanner.Scan(ctx, fromBlock, toBlock, o.cfg.ChunkSize)
		if err != nil {
			return err
		}
		events = evs
		return nil
	})
	if err != nil {
		return fmt.Errorf("scan [%d, %d]: %w", fromBlock, toBlock, err)
	}

	accepted, err := o.validate(ctx, events)
	if err != nil {
		return err
	}

	dispatched, err := o.process(ctx, accepted)
	if err != nil {
		return err
	}

	o.setPhase(PhasePersisting)
	if err := o.stateDB.CommitWindow(toBlock, dispatched); err != nil {
		return fmt.Errorf("%w: commit window [%d, %d]: %v", ErrPersist, fromBlock, toBlock, err)
	}

	o.mu.Lock()
	o.st.LastScannedBlock = toBlock
	o.st.AddNonces(dispatched)
	o.mu.Unlock()

	if len(events) > 0 {
		logger.WithFields(logger.Fields{
			"fromBlock":  fromBlock,
			"toBlock":    toBlock,
			"events":     len(events),
			"dispatched": len(dispatched),
		}).Info("window committed")
	}
	return nil
}

func (o *Orchestrator) validate(ctx context.Context, events []*scanner.DepositEvent) ([]*scanner.DepositEvent, error) {
	o.setPhase(PhaseValidating)

	accepted := make([]*scanner.DepositEvent, 0, len(events))
	for _, ev := range events {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		res := o.validator.Validate(ctx, ev, o.st)
		if !res.Accepted {
			logger.WithFields(logger.Fields{
				"nonce":    ev.Nonce,
				"sourceTx": common.Shorten(ev.SourceTxHash.Hex(), 8),
				"reason":   res.Reason,
			}).Info("deposit rejected")
			continue
		}
		accepted = append(accepted, ev)
	}
	return accepted, nil
}

// process dispatches accepted events in source order. A deposit that cannot
// reach a dispatched state blocks the whole window: advancing past it would
// silently drop locked funds.
func (o *Orchestrator) process(ctx context.Context, accepted []*scanner.DepositEvent) ([]uint64, error) {
	o.setPhase(PhaseProcessing)

	dispatched := make([]uint64, 0, len(accepted))
	for _, ev := range accepted {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var out *txprocessor.Outcome
		err := backoff.Retry(ctx, o.cfg.Retry, "process_deposit", func() error {
			res, err := o.processor.Process(ctx, ev)
			if err != nil {
				return err
			}
			out = res
			return nil
		})
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			logger.WithField("nonce", ev.Nonce).
				Errorf("deposit processing exhausted retries: %v", err)
			return nil, fmt.Errorf("nonce %d: %w", ev.Nonce, errWindowBlocked)
		}

		if out.Status != txprocessor.StatusDispatched {
			logger.WithFields(logger.Fields{
				"nonce":  ev.Nonce,
				"reason": out.Reason,
			}).Error("destination rejected deposit, holding window for operator")
			return nil, fmt.Errorf("nonce %d rejected (%s): %w", ev.Nonce, out.Reason, errWindowBlocked)
		}
		dispatched = append(dispatched, ev.Nonce)
	}
	return dispatched, nil
}
