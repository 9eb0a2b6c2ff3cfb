// internal/platform/di/container.go
package di

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	fs "github.com/xm-cse/tirios-solanaSW/internal/adapters/out/firestore"
	httpout "github.com/xm-cse/tirios-solanaSW/internal/adapters/out/http"
	"github.com/xm-cse/tirios-solanaSW/internal/application/resolver"
	uc "github.com/xm-cse/tirios-solanaSW/internal/application/usecase"
	mintdom "github.com/xm-cse/tirios-solanaSW/internal/domain/mint"
	signerdom "github.com/xm-cse/tirios-solanaSW/internal/domain/signer"
	appcfg "github.com/xm-cse/tirios-solanaSW/internal/infra/config"
	firestoreinfra "github.com/xm-cse/tirios-solanaSW/internal/infra/firestore"
	"github.com/xm-cse/tirios-solanaSW/internal/infra/keystore"
	solanainfra "github.com/xm-cse/tirios-solanaSW/internal/infra/solana"
)

// ========================================
// Container
// ========================================

// Container は cmd から使う依存オブジェクトの束です。
// 鍵（SignerPool）はここで組み立てて usecase に明示的に渡します。
type Container struct {
	Config *appcfg.Config
	Logger *zap.Logger

	Admin signerdom.KeyPair
	Pool  *signerdom.Pool

	Wallets      *uc.WalletUsecase
	Transactions *uc.TransactionUsecase
	Tokens       *uc.TokenCreationUsecase

	Keystore *keystore.FileKeystore

	closers []func() error
}

// NewContainer は設定を検証してから外部クライアントを組み立てます。
// 設定エラーはネットワーク I/O より前に返します。
func NewContainer(ctx context.Context, cfg *appcfg.Config, logger *zap.Logger) (*Container, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	log := logger.Named("container")

	// 1. Config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// 2. Admin signer (WALLET_SECRET_KEY)
	admin, err := solanainfra.LoadSignerFromBase58(cfg.WalletSecretKey)
	if err != nil {
		return nil, fmt.Errorf("admin signer: %w", err)
	}
	log.Info("admin signer loaded", zap.String("address", admin.Address()))

	c := &Container{
		Config:   cfg,
		Logger:   logger,
		Admin:    admin,
		Pool:     signerdom.NewPool(admin),
		Keystore: keystore.NewFileKeystore(cfg.KeysDir, logger),
	}

	// 3. Crossmint
	crossmint, err := httpout.NewCrossmintClient(cfg.CrossmintBaseURL, cfg.CrossmintAPIKey, httpout.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	// 4. Solana RPC (read only)
	rpc := solanainfra.NewRPCClient(cfg.SolanaRPCURL)
	builder := solanainfra.NewMintTransactionBuilder(rpc, logger)
	log.Info("solana rpc configured", zap.String("endpoint", rpc.Endpoint), zap.String("cluster", cfg.SolanaCluster))

	// 5. 追加署名者 (Secret Manager, optional)
	if cfg.SignerSecretName != "" {
		store, err := solanainfra.NewSignerSecretStoreSM(ctx, cfg.GCPCreds, logger)
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, store.Close)

		extra, err := store.LoadKeyPair(ctx, cfg.SignerSecretName)
		if err != nil {
			_ = c.Close()
			return nil, fmt.Errorf("extra signer: %w", err)
		}
		c.Pool.Add(extra)
	} else {
		log.Debug("extra signer not configured (SOLANA_SIGNER_SECRET empty)")
	}

	// 6. Mint record store (Firestore, optional)
	var records mintdom.RecordRepository = mintdom.NopRecordRepository{}
	if cfg.FirestoreProjectID != "" {
		fsClient, err := firestoreinfra.NewClient(ctx, cfg.FirestoreProjectID, cfg.GCPCreds, logger)
		if err != nil {
			_ = c.Close()
			return nil, err
		}
		c.closers = append(c.closers, fsClient.Close)
		records = fs.NewMintRecordRepositoryFS(fsClient.Client)
	} else {
		log.Debug("mint records disabled (FIRESTORE_PROJECT_ID empty)")
	}

	// 7. Usecases
	c.Wallets = uc.NewWalletUsecase(crossmint, admin, logger)
	c.Transactions = uc.NewTransactionUsecase(
		crossmint,
		resolver.NewApprovalResolver(logger),
		uc.PollPolicy{
			InitialInterval:     cfg.Poll.InitialInterval,
			MaxInterval:         cfg.Poll.MaxInterval,
			MaxAttempts:         cfg.Poll.MaxAttempts,
			Timeout:             cfg.Poll.Timeout,
			RandomizationFactor: cfg.Poll.Jitter,
		},
		logger,
	)
	c.Tokens = uc.NewTokenCreationUsecase(
		c.Wallets,
		builder,
		c.Transactions,
		c.Pool,
		records,
		cfg.ExplorerURL,
		cfg.SolanaCluster,
		logger,
	)

	log.Info("container ready", zap.Int("signers", c.Pool.Len()))
	return c, nil
}

// ========================================
// Close
// ========================================

func (c *Container) Close() error {
	if c == nil {
		return nil
	}
	var first error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	c.closers = nil
	return first
}
