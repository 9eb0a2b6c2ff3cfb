// internal/domain/mint/entity.go
package mint

import (
	"errors"
	"strings"
	"time"

	"github.com/xm-cse/tirios-solanaSW/internal/domain/signer"
)

// ------------------------------------------------------
// TokenProgram
// ------------------------------------------------------

// TokenProgram はミントを所有させるトークンプログラムの種類です。
type TokenProgram string

const (
	// ProgramToken2022 は SPL Token-2022（既定）
	ProgramToken2022 TokenProgram = "token-2022"
	// ProgramToken は従来の SPL Token（Tokenkeg...）
	ProgramToken TokenProgram = "token"
)

// ParseTokenProgram は CLI 等の文字列表現を TokenProgram に変換します。空文字は Token-2022。
func ParseTokenProgram(s string) (TokenProgram, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "token-2022", "token2022", "2022":
		return ProgramToken2022, nil
	case "token", "spl-token", "legacy":
		return ProgramToken, nil
	default:
		return "", ErrInvalidTokenProgram
	}
}

// DefaultDecimals はトークンの既定 decimals です。
const DefaultDecimals uint8 = 9

// ------------------------------------------------------
// Plan: 組み立てるミント作成トランザクションの指定
// ------------------------------------------------------
//
// 含める命令:
//  1. create account（mint アカウント作成、payer が rent を負担）
//  2. initialize mint
//  3. create associated token account（CreateRecipientAccount が true の時のみ）
type Plan struct {
	// Payer はカストディアルウォレット（手数料支払者）のアドレス
	Payer string
	// Mint はミントの恒久的な ID となる keypair
	Mint signer.KeyPair

	Decimals uint8

	// MintAuthority が空なら Payer
	MintAuthority string
	// FreezeAuthority が空なら Payer（DisableFreezeAuthority の場合は設定しない）
	FreezeAuthority        string
	DisableFreezeAuthority bool

	Program TokenProgram

	// CreateRecipientAccount が true なら RecipientOwner（空なら Payer）の ATA を作成
	CreateRecipientAccount bool
	RecipientOwner         string

	// PreSignMint が true ならローカルで mint keypair による部分署名を行う
	PreSignMint bool
}

// Normalize は既定値を埋めた Plan を返します。
func (p Plan) Normalize() Plan {
	p.Payer = strings.TrimSpace(p.Payer)
	p.MintAuthority = strings.TrimSpace(p.MintAuthority)
	p.FreezeAuthority = strings.TrimSpace(p.FreezeAuthority)
	p.RecipientOwner = strings.TrimSpace(p.RecipientOwner)

	if p.MintAuthority == "" {
		p.MintAuthority = p.Payer
	}
	if p.FreezeAuthority == "" && !p.DisableFreezeAuthority {
		p.FreezeAuthority = p.Payer
	}
	if p.DisableFreezeAuthority {
		p.FreezeAuthority = ""
	}
	if p.Program == "" {
		p.Program = ProgramToken2022
	}
	if p.CreateRecipientAccount && p.RecipientOwner == "" {
		p.RecipientOwner = p.Payer
	}
	return p
}

// Validate は Normalize 済みの Plan を検証します。
func (p Plan) Validate() error {
	if p.Payer == "" {
		return ErrInvalidPayer
	}
	if p.Mint.IsZero() {
		return ErrInvalidMintKey
	}
	if p.Program != ProgramToken2022 && p.Program != ProgramToken {
		return ErrInvalidTokenProgram
	}
	if p.CreateRecipientAccount && p.RecipientOwner == "" {
		return ErrInvalidRecipient
	}
	return nil
}

// BuiltTransaction は Builder の出力です。
type BuiltTransaction struct {
	// Encoded は base58 のシリアライズ済みトランザクション（未署名部分はゼロ埋め）
	Encoded string

	Payer                 string
	Mint                  string
	RecipientTokenAccount string // ATA を作らない場合は空
	Program               TokenProgram
	Blockhash             string

	// RequiredSigners はまだ署名していないローカル署名者（PreSignMint=false の mint など）
	RequiredSigners []string
}

// ------------------------------------------------------
// Record: 実行結果の監査レコード
// ------------------------------------------------------

type Record struct {
	MintAddress           string
	PayerWallet           string
	RecipientTokenAccount string
	TransactionID         string
	Status                string
	OnChainTxID           string
	Decimals              uint8
	Program               TokenProgram
	Cluster               string
	CreatedAt             time.Time
}

// ------------------------------------------------------
// Errors
// ------------------------------------------------------

var (
	ErrInvalidPayer        = errors.New("mint: invalid payer")
	ErrInvalidMintKey      = errors.New("mint: mint keypair is empty")
	ErrInvalidTokenProgram = errors.New("mint: invalid token program")
	ErrInvalidRecipient    = errors.New("mint: invalid recipient owner")
	ErrInvalidMintAddress  = errors.New("mint: invalid mintAddress")
	ErrNotFound            = errors.New("mint: not found")
)
