// internal/application/usecase/wallet_usecase.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	signerdom "github.com/xm-cse/tirios-solanaSW/internal/domain/signer"
	walletdom "github.com/xm-cse/tirios-solanaSW/internal/domain/wallet"
)

var ErrWalletNotConfigured = errors.New("wallet_uc: not configured")

// WalletUsecase は admin signer 付きのスマートウォレット作成・取得を行います。
type WalletUsecase struct {
	gateway walletdom.Gateway
	admin   signerdom.KeyPair
	logger  *zap.Logger
}

func NewWalletUsecase(gateway walletdom.Gateway, admin signerdom.KeyPair, logger *zap.Logger) *WalletUsecase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WalletUsecase{gateway: gateway, admin: admin, logger: logger.Named("wallet_uc")}
}

// AdminSigner は admin keypair を Crossmint の signer 表現で返します。
func (u *WalletUsecase) AdminSigner() (walletdom.AdminSigner, error) {
	if u == nil || u.admin.IsZero() {
		return walletdom.AdminSigner{}, walletdom.ErrInvalidAdminSigner
	}
	return walletdom.NewKeypairAdminSigner(u.admin.Address())
}

// Create は admin signer を管理者とする solana-smart-wallet を作成します。
func (u *WalletUsecase) Create(ctx context.Context) (walletdom.Wallet, error) {
	if u == nil || u.gateway == nil {
		return walletdom.Wallet{}, ErrWalletNotConfigured
	}
	admin, err := u.AdminSigner()
	if err != nil {
		return walletdom.Wallet{}, err
	}

	w, err := u.gateway.CreateWallet(ctx, walletdom.CreateInput{
		Type:        walletdom.TypeSolanaSmartWallet,
		AdminSigner: admin,
	})
	if err != nil {
		return walletdom.Wallet{}, fmt.Errorf("wallet_uc: create: %w", err)
	}
	if err := w.Validate(); err != nil {
		return walletdom.Wallet{}, fmt.Errorf("wallet_uc: create returned %q: %w", w.Address, err)
	}

	u.logger.Info("smart wallet created",
		zap.String("address", w.Address),
		zap.String("adminSigner", admin.Locator),
	)
	return w, nil
}

// Get は locator（アドレス or "type:address"）でウォレットを取得します。
func (u *WalletUsecase) Get(ctx context.Context, locator string) (walletdom.Wallet, error) {
	if u == nil || u.gateway == nil {
		return walletdom.Wallet{}, ErrWalletNotConfigured
	}
	loc := strings.TrimSpace(locator)
	if loc == "" {
		return walletdom.Wallet{}, walletdom.ErrInvalidWalletAddress
	}

	w, err := u.gateway.GetWallet(ctx, loc)
	if err != nil {
		return walletdom.Wallet{}, fmt.Errorf("wallet_uc: get %s: %w", loc, err)
	}
	return w, nil
}
