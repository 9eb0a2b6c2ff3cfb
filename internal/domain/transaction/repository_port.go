package transaction

import (
	"context"

	"github.com/xm-cse/tirios-solanaSW/internal/domain/approval"
)

// SubmitInput はウォレットへ送るトランザクションです。
type SubmitInput struct {
	// Transaction は base58 でシリアライズ済みのトランザクション
	Transaction string
	// RequiredSigners は Crossmint 側で追加署名を要求すべきローカル署名者のアドレス
	RequiredSigners []string
}

// Gateway はリモートウォレットサービスのトランザクション API へのポートです。
type Gateway interface {
	CreateTransaction(ctx context.Context, walletLocator string, in SubmitInput) (Transaction, error)
	GetTransaction(ctx context.Context, walletLocator, id string) (Transaction, error)
	SubmitApprovals(ctx context.Context, walletLocator, id string, approvals []approval.Approval) (Transaction, error)
}
