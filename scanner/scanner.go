// Package scanner turns raw log queries against an event source into an
// ordered stream of decoded deposit events, one bounded chunk at a time.
package scanner

import (
	"context"
	"sort"

	logger "github.com/sirupsen/logrus"
)

type EventScanner struct {
	source EventSource
}

func New(source EventSource) *EventScanner {
	return &EventScanner{source: source}
}

func (s *EventScanner) Source() EventSource {
	return s.source
}

// Scan queries [fromBlock, toBlock] in chunks of at most chunkSize blocks and
// returns the decoded deposits ordered by (blockNumber, logIndex).
//
// A chunk failure propagates to the caller untouched; retry policy lives with
// the orchestrator, so re-invoking with the same range re-queries every chunk.
// An undecodable log is logged and skipped, terminal for that log only.
// fromBlock > toBlock means no new confirmed blocks and yields an empty result.
func (s *EventScanner) Scan(ctx context.Context, fromBlock, toBlock, chunkSize uint64) ([]*DepositEvent, error) {
	if fromBlock > toBlock {
		return nil, nil
	}
	if chunkSize == 0 {
		chunkSize = 1
	}

	var events []*DepositEvent
	for start := fromBlock; start <= toBlock; {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		end := start + chunkSize - 1
		if end < start || end > toBlock {
			end = toBlock
		}

		logs, err := s.source.FilterDepositLogs(ctx, start, end)
		if err != nil {
			return nil, err
		}

		for _, log := range logs {
			ev, err := DecodeDepositLog(log)
			if err != nil {
				logger.WithFields(logger.Fields{
					"blockNum": log.BlockNumber,
					"txHash":   log.TxHash.Hex(),
					"logIndex": log.Index,
				}).Warnf("skipping undecodable bridge log: %v", err)
				continue
			}
			events = append(events, ev)
		}

		if end == toBlock {
			break
		}
		start = end + 1
	}

	sort.SliceStable(events, func(i, j int) bool {
		if events[i].BlockNumber != events[j].BlockNumber {
			return events[i].BlockNumber < events[j].BlockNumber
		}
		return events[i].LogIndex < events[j].LogIndex
	})

	return events, nil
}
