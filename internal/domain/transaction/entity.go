// internal/domain/transaction/entity.go
package transaction

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xm-cse/tirios-solanaSW/internal/domain/approval"
)

// Status は Crossmint 側のトランザクション状態です。
type Status string

const (
	StatusAwaitingApproval Status = "awaiting-approval"
	StatusPending          Status = "pending"
	StatusSuccess          Status = "success"
	StatusFailed           Status = "failed"
)

// InFlight はポーリングを継続すべき状態かを返します。
// "pending" 以外はすべて呼び出し側へ返す終端状態として扱います。
func (s Status) InFlight() bool {
	return Status(strings.TrimSpace(string(s))) == StatusPending
}

// Transaction は Crossmint に送信したトランザクションのスナップショットです。
type Transaction struct {
	ID        string
	Status    Status
	Pending   []approval.Pending
	Submitted []approval.Approval

	// OnChainTransaction は Crossmint が組み立てたオンチェーン送信用トランザクション（base58）
	OnChainTransaction string
	// OnChainTxID はチェーン上のトランザクション署名（確定後のみ）
	OnChainTxID string

	CreatedAt time.Time

	// Raw は API レスポンスそのもの（表示・デバッグ用）
	Raw json.RawMessage
}

// HasPendingApprovals は署名待ちが残っているかを返します。
func (t Transaction) HasPendingApprovals() bool {
	return len(t.Pending) > 0
}

// Errors
var (
	ErrInvalidID         = errors.New("transaction: invalid id")
	ErrInvalidWallet     = errors.New("transaction: invalid wallet locator")
	ErrEmptyTransaction  = errors.New("transaction: serialized transaction is empty")
	ErrNoApprovals       = errors.New("transaction: no approvals to submit")
	ErrPollTimeout       = errors.New("transaction: timed out waiting for completion")
	ErrTransactionFailed = errors.New("transaction: failed")
)

// PollTimeoutError は期限内に "pending" を抜けなかったことを表します。
// 「まだ pending」というレスポンスそのものとは区別されるエラーです。
type PollTimeoutError struct {
	TransactionID string
	LastStatus    Status
	Attempts      int
	Elapsed       time.Duration
}

func (e *PollTimeoutError) Error() string {
	return fmt.Sprintf("%s: id=%s lastStatus=%s attempts=%d elapsed=%s",
		ErrPollTimeout.Error(), e.TransactionID, e.LastStatus, e.Attempts, e.Elapsed.Round(time.Millisecond))
}

func (e *PollTimeoutError) Unwrap() error { return ErrPollTimeout }
