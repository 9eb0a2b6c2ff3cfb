// internal/application/usecase/transaction_usecase.go
package usecase

/*
責任と機能:
- カストディアルウォレットへのトランザクション送信（CreateTransaction）
- 署名待ち（approvals.pending）をローカルの SignerPool で解決して送信
- 完了までのポーリング（指数バックオフ + 最大試行回数 + 全体期限 + キャンセル）

ポーリングの終了条件:
- "pending" 以外のステータス → そのまま返す（failed も含め呼び出し側で判断）
- リモートエラー → 即座に中断（リトライしない）
- 試行回数 / 期限切れ → *txdom.PollTimeoutError（txdom.ErrPollTimeout）
- 呼び出し元 ctx のキャンセル → ctx.Err() をラップして返す
*/

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/xm-cse/tirios-solanaSW/internal/application/resolver"
	approvaldom "github.com/xm-cse/tirios-solanaSW/internal/domain/approval"
	signerdom "github.com/xm-cse/tirios-solanaSW/internal/domain/signer"
	txdom "github.com/xm-cse/tirios-solanaSW/internal/domain/transaction"
)

var (
	ErrTransactionNotConfigured = errors.New("transaction_uc: not configured")

	// ポーリング継続用の内部エラー（外には出さない）
	errStillPending = errors.New("transaction_uc: still pending")
)

// PollPolicy はポーリングの間隔と上限です。
type PollPolicy struct {
	InitialInterval     time.Duration
	MaxInterval         time.Duration
	Multiplier          float64
	RandomizationFactor float64

	// MaxAttempts は GET の最大回数（0 = 無制限、Timeout のみで打ち切り）
	MaxAttempts uint64
	// Timeout はポーリング全体の期限（0 = 無制限、MaxAttempts のみで打ち切り）
	Timeout time.Duration
}

func DefaultPollPolicy() PollPolicy {
	return PollPolicy{
		InitialInterval:     time.Second,
		MaxInterval:         10 * time.Second,
		Multiplier:          1.5,
		RandomizationFactor: 0.2,
		MaxAttempts:         60,
		Timeout:             3 * time.Minute,
	}
}

func (p PollPolicy) withDefaults() PollPolicy {
	d := DefaultPollPolicy()
	if p.InitialInterval <= 0 {
		p.InitialInterval = d.InitialInterval
	}
	if p.MaxInterval <= 0 {
		p.MaxInterval = d.MaxInterval
	}
	if p.MaxInterval < p.InitialInterval {
		p.MaxInterval = p.InitialInterval
	}
	if p.Multiplier < 1 {
		p.Multiplier = d.Multiplier
	}
	// 0 は未設定扱い（ジッタなしのポーリングは行わない）
	if p.RandomizationFactor <= 0 || p.RandomizationFactor >= 1 {
		p.RandomizationFactor = d.RandomizationFactor
	}
	// 両方 0 だと終わらないので既定値に戻す
	if p.MaxAttempts == 0 && p.Timeout <= 0 {
		p.MaxAttempts = d.MaxAttempts
		p.Timeout = d.Timeout
	}
	return p
}

func (p PollPolicy) newBackOff(ctx context.Context) backoff.BackOff {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = p.InitialInterval
	eb.MaxInterval = p.MaxInterval
	eb.Multiplier = p.Multiplier
	eb.RandomizationFactor = p.RandomizationFactor
	// 全体期限は ctx 側で管理する
	eb.MaxElapsedTime = 0

	var b backoff.BackOff = eb
	if p.MaxAttempts > 0 {
		b = backoff.WithMaxRetries(b, p.MaxAttempts-1)
	}
	return backoff.WithContext(b, ctx)
}

// TransactionUsecase はトランザクション送信・承認・完了待ちを担います。
type TransactionUsecase struct {
	gateway  txdom.Gateway
	resolver *resolver.ApprovalResolver
	policy   PollPolicy
	logger   *zap.Logger
}

func NewTransactionUsecase(gateway txdom.Gateway, res *resolver.ApprovalResolver, policy PollPolicy, logger *zap.Logger) *TransactionUsecase {
	if logger == nil {
		logger = zap.NewNop()
	}
	if res == nil {
		res = resolver.NewApprovalResolver(logger)
	}
	return &TransactionUsecase{
		gateway:  gateway,
		resolver: res,
		policy:   policy.withDefaults(),
		logger:   logger.Named("transaction_uc"),
	}
}

func (u *TransactionUsecase) Policy() PollPolicy { return u.policy }

// Submit はシリアライズ済みトランザクションをウォレットに送信します。
func (u *TransactionUsecase) Submit(ctx context.Context, walletLocator string, in txdom.SubmitInput) (txdom.Transaction, error) {
	if u == nil || u.gateway == nil {
		return txdom.Transaction{}, ErrTransactionNotConfigured
	}
	tx, err := u.gateway.CreateTransaction(ctx, walletLocator, in)
	if err != nil {
		return txdom.Transaction{}, fmt.Errorf("transaction_uc: submit: %w", err)
	}
	u.logger.Info("transaction submitted",
		zap.String("id", tx.ID),
		zap.String("status", string(tx.Status)),
		zap.Int("pendingApprovals", len(tx.Pending)),
	)
	return tx, nil
}

// Approve は署名済み approvals を送信します。
func (u *TransactionUsecase) Approve(ctx context.Context, walletLocator, txID string, approvals []approvaldom.Approval) (txdom.Transaction, error) {
	if u == nil || u.gateway == nil {
		return txdom.Transaction{}, ErrTransactionNotConfigured
	}
	if len(approvals) == 0 {
		return txdom.Transaction{}, txdom.ErrNoApprovals
	}
	tx, err := u.gateway.SubmitApprovals(ctx, walletLocator, txID, approvals)
	if err != nil {
		return txdom.Transaction{}, fmt.Errorf("transaction_uc: approve %s: %w", txID, err)
	}
	u.logger.Info("approvals submitted",
		zap.String("id", txID),
		zap.Int("approvals", len(approvals)),
		zap.String("status", string(tx.Status)),
	)
	return tx, nil
}

// ResolveAndApprove は tx.Pending を pool で署名して送信します。
// 1 件でも解決できなければ何も送信しません。
func (u *TransactionUsecase) ResolveAndApprove(ctx context.Context, walletLocator string, tx txdom.Transaction, pool *signerdom.Pool) (txdom.Transaction, []approvaldom.Approval, error) {
	if u == nil || u.gateway == nil {
		return txdom.Transaction{}, nil, ErrTransactionNotConfigured
	}
	approvals, err := u.resolver.Resolve(tx.Pending, pool)
	if err != nil {
		return txdom.Transaction{}, nil, fmt.Errorf("transaction_uc: resolve approvals for %s: %w", tx.ID, err)
	}
	if len(approvals) == 0 {
		return tx, approvals, nil
	}
	updated, err := u.Approve(ctx, walletLocator, tx.ID, approvals)
	if err != nil {
		return txdom.Transaction{}, approvals, err
	}
	return updated, approvals, nil
}

// WaitForCompletion は "pending" を抜けるまでポーリングします。
func (u *TransactionUsecase) WaitForCompletion(ctx context.Context, walletLocator, txID string) (txdom.Transaction, error) {
	if u == nil || u.gateway == nil {
		return txdom.Transaction{}, ErrTransactionNotConfigured
	}
	return u.WaitForCompletionWithPolicy(ctx, walletLocator, txID, u.policy)
}

func (u *TransactionUsecase) WaitForCompletionWithPolicy(ctx context.Context, walletLocator, txID string, policy PollPolicy) (txdom.Transaction, error) {
	if u == nil || u.gateway == nil {
		return txdom.Transaction{}, ErrTransactionNotConfigured
	}
	id := strings.TrimSpace(txID)
	if id == "" {
		return txdom.Transaction{}, txdom.ErrInvalidID
	}
	policy = policy.withDefaults()

	pollCtx := ctx
	if policy.Timeout > 0 {
		var cancel context.CancelFunc
		pollCtx, cancel = context.WithTimeout(ctx, policy.Timeout)
		defer cancel()
	}

	start := time.Now()
	attempts := 0
	var last txdom.Transaction

	op := func() (txdom.Transaction, error) {
		attempts++
		tx, err := u.gateway.GetTransaction(pollCtx, walletLocator, id)
		if err != nil {
			if pollCtx.Err() != nil {
				// 期限切れ / キャンセル中の失敗は backoff 側で ctx.Err() に寄せる
				return last, err
			}
			return last, backoff.Permanent(fmt.Errorf("transaction_uc: poll %s: %w", id, err))
		}
		last = tx
		if tx.Status.InFlight() {
			return tx, errStillPending
		}
		return tx, nil
	}

	notify := func(err error, next time.Duration) {
		u.logger.Debug("transaction still in flight",
			zap.String("id", id),
			zap.String("status", string(last.Status)),
			zap.Int("attempt", attempts),
			zap.Duration("next", next),
		)
	}

	tx, err := backoff.RetryNotifyWithData(op, policy.newBackOff(pollCtx), notify)
	if err == nil {
		u.logger.Info("transaction settled",
			zap.String("id", id),
			zap.String("status", string(tx.Status)),
			zap.Int("attempts", attempts),
			zap.String("onChainTxId", tx.OnChainTxID),
		)
		return tx, nil
	}

	// 呼び出し元のキャンセル / 期限はタイムアウトとは区別する
	if cerr := ctx.Err(); cerr != nil {
		return last, fmt.Errorf("transaction_uc: poll %s: %w", id, cerr)
	}

	if errors.Is(err, errStillPending) || errors.Is(err, context.DeadlineExceeded) || pollCtx.Err() != nil {
		terr := &txdom.PollTimeoutError{
			TransactionID: id,
			LastStatus:    last.Status,
			Attempts:      attempts,
			Elapsed:       time.Since(start),
		}
		u.logger.Warn("transaction poll timed out", zap.Error(terr))
		return last, terr
	}

	return last, err
}
