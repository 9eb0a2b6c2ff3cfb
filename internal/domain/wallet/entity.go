// internal/domain/wallet/entity.go
package wallet

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

// Domain errors
var (
	ErrInvalidWalletAddress = errors.New("wallet: invalid walletAddress")
	ErrInvalidAdminSigner   = errors.New("wallet: invalid adminSigner")
	ErrNotFound             = errors.New("wallet: not found")
)

// WalletType は Crossmint のウォレット種別です。
type WalletType string

const (
	TypeSolanaSmartWallet WalletType = "solana-smart-wallet"
)

// SignerType は admin signer の種別です。
type SignerType string

const (
	SignerSolanaKeypair SignerType = "solana-keypair"
)

// Solana-like base58 address format (approximation).
var base58Re = regexp.MustCompile(`^[1-9A-HJ-NP-Za-km-z]{32,44}$`)

// IsValidAddress は Solana の base58 アドレスらしい文字列かを判定します。
func IsValidAddress(s string) bool {
	return base58Re.MatchString(strings.TrimSpace(s))
}

// AdminSigner はスマートウォレットの管理者署名者です。
//
//	{ "type": "solana-keypair", "address": "<base58>", "locator": "solana-keypair:<base58>" }
type AdminSigner struct {
	Type    SignerType
	Address string
	Locator string
}

// NewKeypairAdminSigner はローカル keypair を admin signer として表現します。
func NewKeypairAdminSigner(address string) (AdminSigner, error) {
	addr := strings.TrimSpace(address)
	if !IsValidAddress(addr) {
		return AdminSigner{}, ErrInvalidAdminSigner
	}
	return AdminSigner{
		Type:    SignerSolanaKeypair,
		Address: addr,
		Locator: Locator(SignerSolanaKeypair, addr),
	}, nil
}

// Locator は Crossmint の "type:address" 形式の locator を組み立てます。
func Locator(t SignerType, address string) string {
	return string(t) + ":" + strings.TrimSpace(address)
}

// Wallet は Crossmint 上のカストディアルウォレット（手数料支払者）です。
type Wallet struct {
	Address     string
	Type        WalletType
	AdminSigner AdminSigner
	CreatedAt   time.Time
}

// Validate はウォレットアドレスの形式を検証します。
func (w Wallet) Validate() error {
	if !IsValidAddress(w.Address) {
		return ErrInvalidWalletAddress
	}
	return nil
}
