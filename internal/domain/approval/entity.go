// internal/domain/approval/entity.go
package approval

import (
	"errors"
	"fmt"
)

// Pending は Crossmint が返す「署名待ち」要求です。
// Signer は "solana-keypair:<address>" のような複合 locator の場合があります。
// Message は base58 エンコードされた署名対象バイト列です。
type Pending struct {
	Signer  string `json:"signer"`
	Message string `json:"message"`
}

// Approval は Pending に対してローカルで作成した署名です。
// Signer には Pending.Signer をそのまま返します（アドレス単体に変換しません）。
type Approval struct {
	Signer    string `json:"signer"`
	Signature string `json:"signature"`
}

var (
	ErrMissingSigner  = errors.New("approval: missing signer")
	ErrMalformedInput = errors.New("approval: malformed input")
)

// MissingSignerError は Pool 内に一致する署名者が見つからなかった要求を保持します。
type MissingSignerError struct {
	Signer string
	Index  int
}

func (e *MissingSignerError) Error() string {
	return fmt.Sprintf("%s: no keypair in pool matches %q (pending[%d])", ErrMissingSigner.Error(), e.Signer, e.Index)
}

func (e *MissingSignerError) Unwrap() error { return ErrMissingSigner }
