// internal/application/usecase/token_usecase.go
package usecase

/*
責任と機能:
- SPL Token-2022 のミント作成を 1 本のパイプラインで実行する
  1. 手数料支払者ウォレットの決定（指定 or 新規作成）
  2. ミント作成トランザクションの組み立て
  3. カストディアルウォレットへ送信
  4. 署名待ちがあれば SignerPool（mint, admin, 追加署名者の順）で署名して送信し、完了までポーリング
     署名待ちが無ければ「外部承認待ち」として返す（ポーリングしない）
  5. 実行結果を記録（Firestore 未設定時は何もしない）
- 鍵・外部 API は Port に閉じ込め、Usecase は手順のみを担う
*/

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	approvaldom "github.com/xm-cse/tirios-solanaSW/internal/domain/approval"
	"github.com/xm-cse/tirios-solanaSW/internal/domain/common"
	mintdom "github.com/xm-cse/tirios-solanaSW/internal/domain/mint"
	signerdom "github.com/xm-cse/tirios-solanaSW/internal/domain/signer"
	txdom "github.com/xm-cse/tirios-solanaSW/internal/domain/transaction"
	walletdom "github.com/xm-cse/tirios-solanaSW/internal/domain/wallet"
)

// ============================================================
// Ports
// ============================================================

// MintTransactionBuilder はミント作成トランザクションを組み立てます。
type MintTransactionBuilder interface {
	Build(ctx context.Context, plan mintdom.Plan) (mintdom.BuiltTransaction, error)
}

// ExplorerURLFunc はアドレスからエクスプローラの URL を作ります。
type ExplorerURLFunc func(address string) string

var (
	ErrTokenNotConfigured = errors.New("token_uc: not configured")
	ErrRecordNotSaved     = errors.New("token_uc: mint record not saved")
)

// CreateTokenInput は 1 回のミント作成の指定です。
type CreateTokenInput struct {
	// WalletAddress が空なら admin signer で新しいスマートウォレットを作成
	WalletAddress string

	// MintKey が空なら新規生成
	MintKey signerdom.KeyPair

	Decimals               uint8
	Program                mintdom.TokenProgram
	CreateRecipientAccount bool
	RecipientOwner         string
	DisableFreezeAuthority bool
	PreSignMint            bool
}

// CreateTokenResult は実行結果のサマリです。
type CreateTokenResult struct {
	WalletAddress         string
	WalletCreated         bool
	MintAddress           string
	RecipientTokenAccount string
	Program               mintdom.TokenProgram
	Decimals              uint8

	TransactionID string
	Status        txdom.Status
	OnChainTxID   string

	Approvals []approvaldom.Approval
	// AwaitingExternalApproval は署名待ちが返らず、ポーリングしなかったことを表す
	AwaitingExternalApproval bool

	ExplorerURL string
}

// TokenCreationUsecase はミント作成パイプラインです。
type TokenCreationUsecase struct {
	wallets  *WalletUsecase
	builder  MintTransactionBuilder
	txs      *TransactionUsecase
	pool     *signerdom.Pool
	records  mintdom.RecordRepository
	explorer ExplorerURLFunc
	cluster  string
	logger   *zap.Logger
	now      func() time.Time
}

// NewTokenCreationUsecase は pool（admin signer + 追加署名者）を受け取ります。
// mint keypair は実行ごとに先頭へ追加されます。
func NewTokenCreationUsecase(
	wallets *WalletUsecase,
	builder MintTransactionBuilder,
	txs *TransactionUsecase,
	pool *signerdom.Pool,
	records mintdom.RecordRepository,
	explorer ExplorerURLFunc,
	cluster string,
	logger *zap.Logger,
) *TokenCreationUsecase {
	if logger == nil {
		logger = zap.NewNop()
	}
	if records == nil {
		records = mintdom.NopRecordRepository{}
	}
	if explorer == nil {
		explorer = func(string) string { return "" }
	}
	return &TokenCreationUsecase{
		wallets:  wallets,
		builder:  builder,
		txs:      txs,
		pool:     pool,
		records:  records,
		explorer: explorer,
		cluster:  strings.TrimSpace(cluster),
		logger:   logger.Named("token_uc"),
		now:      time.Now,
	}
}

// Run はミント作成を最後まで実行します。
// 記録の保存に失敗した場合は、結果とともに ErrRecordNotSaved をラップしたエラーを返します。
func (u *TokenCreationUsecase) Run(ctx context.Context, in CreateTokenInput) (*CreateTokenResult, error) {
	if u == nil || u.wallets == nil || u.builder == nil || u.txs == nil {
		return nil, ErrTokenNotConfigured
	}

	// 1) payer wallet
	walletAddr := strings.TrimSpace(in.WalletAddress)
	created := false
	if walletAddr == "" {
		w, err := u.wallets.Create(ctx)
		if err != nil {
			return nil, err
		}
		walletAddr = w.Address
		created = true
	} else if !walletdom.IsValidAddress(walletAddr) {
		return nil, fmt.Errorf("token_uc: %w: %q", walletdom.ErrInvalidWalletAddress, walletAddr)
	}

	// 2) build
	mintKey := in.MintKey
	if mintKey.IsZero() {
		mintKey = signerdom.Generate()
	}

	built, err := u.builder.Build(ctx, mintdom.Plan{
		Payer:                  walletAddr,
		Mint:                   mintKey,
		Decimals:               in.Decimals,
		DisableFreezeAuthority: in.DisableFreezeAuthority,
		Program:                in.Program,
		CreateRecipientAccount: in.CreateRecipientAccount,
		RecipientOwner:         in.RecipientOwner,
		PreSignMint:            in.PreSignMint,
	})
	if err != nil {
		return nil, fmt.Errorf("token_uc: build: %w", err)
	}

	res := &CreateTokenResult{
		WalletAddress:         walletAddr,
		WalletCreated:         created,
		MintAddress:           built.Mint,
		RecipientTokenAccount: built.RecipientTokenAccount,
		Program:               built.Program,
		Decimals:              in.Decimals,
		ExplorerURL:           u.explorer(built.Mint),
	}

	u.logger.Info("mint transaction ready",
		zap.String("payer", walletAddr),
		zap.String("mint", built.Mint),
		zap.String("recipientTokenAccount", built.RecipientTokenAccount),
	)

	// 3) submit
	tx, err := u.txs.Submit(ctx, walletAddr, txdom.SubmitInput{
		Transaction:     built.Encoded,
		RequiredSigners: built.RequiredSigners,
	})
	if err != nil {
		return res, err
	}
	res.TransactionID = tx.ID
	res.Status = tx.Status

	// 4) approve + poll
	if tx.HasPendingApprovals() {
		pool := u.pool.With(mintKey)

		approved, approvals, err := u.txs.ResolveAndApprove(ctx, walletAddr, tx, pool)
		if err != nil {
			return res, err
		}
		res.Approvals = approvals
		res.Status = approved.Status

		final, err := u.txs.WaitForCompletion(ctx, walletAddr, tx.ID)
		if final.Status != "" {
			res.Status = final.Status
		}
		res.OnChainTxID = final.OnChainTxID
		if err != nil {
			return res, err
		}
	} else {
		res.AwaitingExternalApproval = true
		u.logger.Warn("no pending approvals returned; transaction awaits external approval",
			zap.String("id", tx.ID),
			zap.String("status", string(tx.Status)),
		)
	}

	// 5) record
	if err := u.records.Save(ctx, mintdom.Record{
		MintAddress:           res.MintAddress,
		PayerWallet:           res.WalletAddress,
		RecipientTokenAccount: res.RecipientTokenAccount,
		TransactionID:         res.TransactionID,
		Status:                string(res.Status),
		OnChainTxID:           res.OnChainTxID,
		Decimals:              res.Decimals,
		Program:               res.Program,
		Cluster:               u.cluster,
		CreatedAt:             u.now().UTC(),
	}); err != nil {
		u.logger.Error("mint record save failed", zap.String("mint", common.MaskShort(res.MintAddress)), zap.Error(err))
		return res, fmt.Errorf("%w: %w", ErrRecordNotSaved, err)
	}

	if res.Status == txdom.StatusFailed {
		return res, fmt.Errorf("%w: id=%s", txdom.ErrTransactionFailed, res.TransactionID)
	}
	return res, nil
}

// GetRecord は保存済みのミント記録を mint アドレスで取得します。
// 記録先が未設定の場合は mintdom.ErrNotFound になります。
func (u *TokenCreationUsecase) GetRecord(ctx context.Context, mintAddress string) (mintdom.Record, error) {
	if u == nil || u.records == nil {
		return mintdom.Record{}, ErrTokenNotConfigured
	}
	addr := strings.TrimSpace(mintAddress)
	if !walletdom.IsValidAddress(addr) {
		return mintdom.Record{}, mintdom.ErrInvalidMintAddress
	}
	rec, err := u.records.GetByMint(ctx, addr)
	if err != nil {
		return mintdom.Record{}, err
	}
	return rec, nil
}
