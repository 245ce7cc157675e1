package scheduler

import (
	"context"
)

// Scheduler defines the interface for a component that enqueues a settlement for
// asynchronous finalization (ledger completion and bank transfer).
type Scheduler interface {
	// ScheduleFinalization enqueues a settlement id for the finalize worker.
	ScheduleFinalization(ctx context.Context, settlementID string) error
}

// FinalizationMessage is the queue payload consumed by the finalize worker.
type FinalizationMessage struct {
	SettlementID string `json:"settlement_id"`
}
