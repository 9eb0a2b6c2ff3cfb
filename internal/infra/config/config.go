// internal/infra/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	mintdom "github.com/xm-cse/tirios-solanaSW/internal/domain/mint"
)

const (
	DefaultCrossmintBaseURL = "https://staging.crossmint.com/api/2022-06-09"
	DefaultSolanaRPCURL     = "https://api.devnet.solana.com"
	DefaultSolanaCluster    = "devnet"
	DefaultKeysDir          = "./keys"

	// .env.example のプレースホルダ（未設定扱い）
	apiKeyPlaceholder       = "YOUR_API_KEY"
	walletSecretPlaceholder = "your_wallet_private_key_here"
)

var (
	ErrMissingAPIKey       = errors.New("config: CROSSMINT_API_KEY is not set")
	ErrMissingWalletSecret = errors.New("config: WALLET_SECRET_KEY is not set")
	ErrInvalidValue        = errors.New("config: invalid value")
)

// PollConfig はトランザクション完了待ちのポーリング設定です。
type PollConfig struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxAttempts     uint64
	Timeout         time.Duration
	// Jitter は間隔のランダム化係数（0 < x < 1）
	Jitter float64
}

// Config はアプリケーション全体の環境変数設定を保持します。
type Config struct {
	CrossmintAPIKey  string
	CrossmintBaseURL string

	// WalletSecretKey は admin signer の base58 秘密鍵（64 bytes）
	WalletSecretKey string

	SolanaRPCURL  string
	SolanaCluster string

	// ★ 任意: Secret Manager 上の追加署名者（"projects/<PROJECT>/secrets/<ID>/versions/latest"）
	SignerSecretName string
	GCPCreds         string

	// ★ 任意: 実行結果を Firestore に記録する場合のプロジェクト ID
	FirestoreProjectID string

	KeysDir       string
	TokenDecimals uint8

	Poll PollConfig

	LogEnv   string
	LogLevel string
}

// LoadDotenv は .env ファイルを読み込みます（存在しない場合は何もしません）。
// 既に設定済みの環境変数は上書きしません。
func LoadDotenv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("config: load %s: %w", p, err)
		}
	}
	return nil
}

// Load は環境変数を読み込み Config を返します。
// 必須項目の検証は Validate で行います（keygen のように API キーが不要なコマンドがあるため）。
func Load() (*Config, error) {
	cfg := &Config{
		CrossmintAPIKey:    strings.TrimSpace(os.Getenv("CROSSMINT_API_KEY")),
		CrossmintBaseURL:   getenvDefault("CROSSMINT_BASE_URL", DefaultCrossmintBaseURL),
		WalletSecretKey:    strings.TrimSpace(os.Getenv("WALLET_SECRET_KEY")),
		SolanaRPCURL:       getenvDefault("SOLANA_RPC_URL", DefaultSolanaRPCURL),
		SolanaCluster:      getenvDefault("SOLANA_CLUSTER", DefaultSolanaCluster),
		SignerSecretName:   strings.TrimSpace(os.Getenv("SOLANA_SIGNER_SECRET")),
		GCPCreds:           strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")),
		FirestoreProjectID: strings.TrimSpace(os.Getenv("FIRESTORE_PROJECT_ID")),
		KeysDir:            getenvDefault("KEYS_DIR", DefaultKeysDir),
		LogEnv:             getenvDefault("LOG_ENV", "dev"),
		LogLevel:           getenvDefault("LOG_LEVEL", "info"),
	}

	if cfg.CrossmintAPIKey == apiKeyPlaceholder {
		cfg.CrossmintAPIKey = ""
	}
	if cfg.WalletSecretKey == walletSecretPlaceholder {
		cfg.WalletSecretKey = ""
	}

	decimals, err := getenvUint("TOKEN_DECIMALS", uint64(mintdom.DefaultDecimals), 8)
	if err != nil {
		return nil, err
	}
	cfg.TokenDecimals = uint8(decimals)

	if cfg.Poll.InitialInterval, err = getenvDuration("POLL_INITIAL_INTERVAL", time.Second); err != nil {
		return nil, err
	}
	if cfg.Poll.MaxInterval, err = getenvDuration("POLL_MAX_INTERVAL", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.Poll.MaxAttempts, err = getenvUint("POLL_MAX_ATTEMPTS", 60, 64); err != nil {
		return nil, err
	}
	if cfg.Poll.Timeout, err = getenvDuration("POLL_TIMEOUT", 3*time.Minute); err != nil {
		return nil, err
	}
	if cfg.Poll.Jitter, err = getenvFloat("POLL_JITTER", 0.2); err != nil {
		return nil, err
	}
	if cfg.Poll.Jitter <= 0 || cfg.Poll.Jitter >= 1 {
		return nil, fmt.Errorf("%w: POLL_JITTER=%v must be in (0, 1)", ErrInvalidValue, cfg.Poll.Jitter)
	}

	return cfg, nil
}

// Validate はリモート呼び出しを行うコマンドの必須設定を検証します。
// ネットワーク I/O の前に呼び出してください。
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("%w: config is nil", ErrInvalidValue)
	}
	if c.CrossmintAPIKey == "" {
		return ErrMissingAPIKey
	}
	if c.WalletSecretKey == "" {
		return ErrMissingWalletSecret
	}
	if strings.TrimSpace(c.CrossmintBaseURL) == "" {
		return fmt.Errorf("%w: CROSSMINT_BASE_URL is empty", ErrInvalidValue)
	}
	return nil
}

// ExplorerURL は Solana Explorer 上のアドレスページ URL を返します。
func (c *Config) ExplorerURL(address string) string {
	cluster := strings.TrimSpace(c.SolanaCluster)
	if cluster == "" || cluster == "mainnet-beta" || cluster == "mainnet" {
		return fmt.Sprintf("https://explorer.solana.com/address/%s", address)
	}
	return fmt.Sprintf("https://explorer.solana.com/address/%s?cluster=%s", address, cluster)
}

func getenvDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getenvUint(key string, def uint64, bits int) (uint64, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.ParseUint(v, 10, bits)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q: %v", ErrInvalidValue, key, v, err)
	}
	return n, nil
}

func getenvDuration(key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q: %v", ErrInvalidValue, key, v, err)
	}
	return d, nil
}

func getenvFloat(key string, def float64) (float64, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q: %v", ErrInvalidValue, key, v, err)
	}
	return f, nil
}
