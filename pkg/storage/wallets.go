package storage

import (
	"context"

	"github.com/resellpay/wallet-engine/pkg/models"
)

// WalletStore defines the interface for managing wallet control rows.
// Wallets carry flags, never balances.
type WalletStore interface {
	// EnsureWallet returns the wallet for (user, wallet type), creating it if missing.
	EnsureWallet(ctx context.Context, userID string, walletType models.WalletType) (*models.Wallet, error)

	// GetWallet retrieves a wallet, or ErrWalletNotFound.
	GetWallet(ctx context.Context, userID string, walletType models.WalletType) (*models.Wallet, error)

	// SetFrozen sets or clears the frozen flag.
	SetFrozen(ctx context.Context, userID string, walletType models.WalletType, frozen bool) error

	// SetSettlementHold sets or clears the settlement-held flag.
	SetSettlementHold(ctx context.Context, userID string, walletType models.WalletType, held bool) error

	// ListWallets retrieves all wallets.
	ListWallets(ctx context.Context) ([]models.Wallet, error)
}
