// internal/domain/signer/entity.go
package signer

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"strings"

	"github.com/blocto/solana-go-sdk/types"

	"github.com/xm-cse/tirios-solanaSW/internal/domain/common"
)

var (
	ErrInvalidSecretKey = errors.New("signer: invalid secret key")
	ErrInvalidAddress   = errors.New("signer: invalid address")
)

// KeyPair は ed25519 の署名鍵ペア（Solana の keypair）です。
// 秘密鍵はプロセス内メモリにのみ保持します。
type KeyPair struct {
	account types.Account
}

// Generate は新しい keypair を生成します。
func Generate() KeyPair {
	return KeyPair{account: types.NewAccount()}
}

// FromAccount は blocto SDK の Account から KeyPair を作ります。
func FromAccount(acc types.Account) (KeyPair, error) {
	if len(acc.PrivateKey) != ed25519.PrivateKeySize {
		return KeyPair{}, fmt.Errorf("%w: want %d bytes, got %d", ErrInvalidSecretKey, ed25519.PrivateKeySize, len(acc.PrivateKey))
	}
	return KeyPair{account: acc}, nil
}

// FromSecret は 64 バイト（seed + public key）の秘密鍵から KeyPair を復元します。
func FromSecret(secret []byte) (KeyPair, error) {
	if len(secret) != ed25519.PrivateKeySize {
		return KeyPair{}, fmt.Errorf("%w: want %d bytes, got %d", ErrInvalidSecretKey, ed25519.PrivateKeySize, len(secret))
	}
	acc, err := types.AccountFromBytes(secret)
	if err != nil {
		return KeyPair{}, fmt.Errorf("%w: %v", ErrInvalidSecretKey, err)
	}
	return KeyPair{account: acc}, nil
}

// Address は base58 の公開鍵（= Solana アドレス）を返します。
func (k KeyPair) Address() string {
	return k.account.PublicKey.ToBase58()
}

// Account は blocto SDK の署名者として使うための Account を返します。
func (k KeyPair) Account() types.Account {
	return k.account
}

// Secret は秘密鍵のコピーを返します。
func (k KeyPair) Secret() []byte {
	out := make([]byte, len(k.account.PrivateKey))
	copy(out, k.account.PrivateKey)
	return out
}

// IsZero は未初期化の KeyPair かどうかを返します。
func (k KeyPair) IsZero() bool {
	return len(k.account.PrivateKey) == 0
}

// Sign は message に対する detached な ed25519 署名（64 bytes）を返します。
func (k KeyPair) Sign(message []byte) []byte {
	return k.account.Sign(message)
}

// Verify は base58 アドレスを公開鍵として signature を検証します。
func Verify(address string, message, signature []byte) (bool, error) {
	pub, err := common.DecodeBase58(strings.TrimSpace(address))
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	if len(pub) != ed25519.PublicKeySize {
		return false, fmt.Errorf("%w: want %d bytes, got %d", ErrInvalidAddress, ed25519.PublicKeySize, len(pub))
	}
	return ed25519.Verify(ed25519.PublicKey(pub), message, signature), nil
}
