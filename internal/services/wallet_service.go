package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/predictarena/arena-backend/internal/models"
	"github.com/predictarena/arena-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Compile-time check to ensure WalletServiceImpl implements WalletService
var _ WalletService = (*WalletServiceImpl)(nil)

// WalletServiceImpl fronts the wallet ledger. All mutations go through the
// repository's atomic debit/credit; this service never writes balances.
type WalletServiceImpl struct {
	walletRepo repositories.WalletRepository
}

// NewWalletService creates a new WalletServiceImpl
func NewWalletService(walletRepo repositories.WalletRepository) *WalletServiceImpl {
	return &WalletServiceImpl{walletRepo: walletRepo}
}

// GetByUserID retrieves a wallet, creating an empty one on first read
func (s *WalletServiceImpl) GetByUserID(ctx context.Context, userID primitive.ObjectID) (*models.Wallet, error) {
	wallet, err := s.walletRepo.FindByUserID(ctx, userID)
	if err != nil {
		if models.IsNotFound(err) {
			if err := s.walletRepo.Credit(ctx, userID, 0); err != nil {
				return nil, fmt.Errorf("failed to initialize wallet: %w", err)
			}
			return s.walletRepo.FindByUserID(ctx, userID)
		}
		return nil, err
	}
	return wallet, nil
}

// Deposit credits coins into the wallet and records the first-deposit flag
func (s *WalletServiceImpl) Deposit(ctx context.Context, userID primitive.ObjectID, amount int64) (*models.Wallet, error) {
	if amount <= 0 {
		return nil, &models.ValidationError{Field: "amount", Message: "must be positive"}
	}
	if err := s.walletRepo.Credit(ctx, userID, amount); err != nil {
		return nil, fmt.Errorf("failed to credit deposit: %w", err)
	}
	if err := s.walletRepo.MarkFirstDeposit(ctx, userID); err != nil {
		slog.Warn("Failed to mark first deposit", "error", err, "userId", userID.Hex())
	}
	slog.Info("Deposit credited", "userId", userID.Hex(), "amount", amount)
	return s.walletRepo.FindByUserID(ctx, userID)
}

// UpdatePayoutDetails stores where winnings should be withdrawn to
func (s *WalletServiceImpl) UpdatePayoutDetails(ctx context.Context, userID primitive.ObjectID, details models.PayoutDetails) error {
	return s.walletRepo.UpdatePayoutDetails(ctx, userID, details)
}
