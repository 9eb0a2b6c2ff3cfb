// internal/infra/solana/signer_loader.go
package solana

import (
	"crypto/ed25519"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	domcommon "github.com/xm-cse/tirios-solanaSW/internal/domain/common"
	signerdom "github.com/xm-cse/tirios-solanaSW/internal/domain/signer"
)

var (
	ErrSecretNotConfigured = errors.New("signer_loader: secret key is not configured")
	ErrInvalidKeypairJSON  = errors.New("signer_loader: invalid keypair json")
)

// .env.example に入っているプレースホルダ
const walletSecretPlaceholder = "your_wallet_private_key_here"

// LoadSignerFromBase58 は WALLET_SECRET_KEY（base58 の 64 バイト秘密鍵）から
// admin signer を復元します。空文字・プレースホルダは ErrSecretNotConfigured。
func LoadSignerFromBase58(secret string) (signerdom.KeyPair, error) {
	s := strings.TrimSpace(secret)
	if s == "" || s == walletSecretPlaceholder {
		return signerdom.KeyPair{}, ErrSecretNotConfigured
	}

	raw, err := domcommon.DecodeBase58(s)
	if err != nil {
		return signerdom.KeyPair{}, fmt.Errorf("signer_loader: decode secret: %w", err)
	}

	kp, err := signerdom.FromSecret(raw)
	if err != nil {
		return signerdom.KeyPair{}, fmt.Errorf("signer_loader: %w", err)
	}
	return kp, nil
}

// DecodeKeypairJSON は solana-keygen の keypair JSON から 64 バイトの鍵配列を復元します。
// - 正: [u8;64] を []byte で受け取る
// - 互換: [int,...] を []int で受けてから []byte に変換
func DecodeKeypairJSON(data []byte) ([]byte, error) {
	// まずは []byte としてのデコードを試みる（JSON では base64 文字列）
	var keyBytes []byte
	if err := json.Unmarshal(data, &keyBytes); err == nil && len(keyBytes) == ed25519.PrivateKeySize {
		return keyBytes, nil
	}

	// フォールバック: [int,int,...] の形式
	var ints []int
	if err := json.Unmarshal(data, &ints); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKeypairJSON, err)
	}
	if len(ints) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("%w: got %d entries, want %d", ErrInvalidKeypairJSON, len(ints), ed25519.PrivateKeySize)
	}

	keyBytes = make([]byte, len(ints))
	for i, v := range ints {
		if v < 0 || v > 255 {
			return nil, fmt.Errorf("%w: byte out of range at %d: %d", ErrInvalidKeypairJSON, i, v)
		}
		keyBytes[i] = byte(v)
	}
	return keyBytes, nil
}

// EncodeKeypairJSON は solana-keygen 互換の [int,int,...] 形式で秘密鍵を出力します。
func EncodeKeypairJSON(kp signerdom.KeyPair) ([]byte, error) {
	secret := kp.Secret()
	ints := make([]int, len(secret))
	for i, v := range secret {
		ints[i] = int(v)
	}
	return json.Marshal(ints)
}

// KeyPairFromJSON は keypair JSON を KeyPair に変換します。
func KeyPairFromJSON(data []byte) (signerdom.KeyPair, error) {
	raw, err := DecodeKeypairJSON(data)
	if err != nil {
		return signerdom.KeyPair{}, err
	}
	return signerdom.FromSecret(raw)
}
