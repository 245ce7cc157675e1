package payout

import (
	"context"
	"log/slog"

	"github.com/resellpay/wallet-engine/pkg/models"
)

// Transferer is the boundary to the external bank-transfer provider. The engine only
// sees success or failure; protocol details live entirely outside this module.
type Transferer interface {
	// Transfer pushes the settlement's net amount to the configured bank account.
	Transfer(ctx context.Context, s *models.Settlement) error
}

// LogTransferer is a stand-in Transferer that only logs. Used in development and in
// environments where the payout provider is disabled.
type LogTransferer struct{}

// Transfer logs the would-be transfer and succeeds.
func (LogTransferer) Transfer(ctx context.Context, s *models.Settlement) error {
	slog.Info("payout transfer (no-op)",
		"settlement_id", s.ID,
		"net_amount", s.NetAmount,
		"bank_account", s.BankAccountNumber,
		"ifsc", s.BankIFSC,
	)
	return nil
}

// Make sure we conform to the interface
var _ Transferer = LogTransferer{}
