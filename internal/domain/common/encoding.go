// internal/domain/common/encoding.go
package common

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mr-tron/base58"
)

// ErrMalformedEncoding は base58 文字列として解釈できない入力を表します。
var ErrMalformedEncoding = errors.New("encoding: malformed base58")

// EncodeBase58 はバイト列を Solana / Crossmint と同じ base58 表現にします。
func EncodeBase58(b []byte) string {
	return base58.Encode(b)
}

// DecodeBase58 は base58 文字列をバイト列に戻します。
// 空文字・空白のみ・alphabet 外の文字は ErrMalformedEncoding になります。
func DecodeBase58(s string) ([]byte, error) {
	if strings.TrimSpace(s) == "" {
		return nil, fmt.Errorf("%w: empty input", ErrMalformedEncoding)
	}
	b, err := base58.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEncoding, err)
	}
	return b, nil
}

// MaskShort はログ出力用にアドレス等を短縮します（先頭4文字 + *** + 末尾4文字）。
func MaskShort(s string) string {
	t := strings.TrimSpace(s)
	if t == "" {
		return ""
	}
	if len(t) <= 10 {
		return t
	}
	return t[:4] + "***" + t[len(t)-4:]
}
