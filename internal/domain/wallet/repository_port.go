package wallet

import "context"

// CreateInput はウォレット作成 API への入力です。
type CreateInput struct {
	Type        WalletType
	AdminSigner AdminSigner
}

// Gateway はリモートのウォレットサービス（Crossmint）へのポートです。
type Gateway interface {
	// CreateWallet は新しいスマートウォレットを作成します。
	CreateWallet(ctx context.Context, in CreateInput) (Wallet, error)

	// GetWallet は locator（アドレス等）でウォレットを取得します。
	GetWallet(ctx context.Context, locator string) (Wallet, error)
}
