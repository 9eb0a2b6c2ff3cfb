// internal/infra/solana/signer_secret_store_sm.go
package solana

import (
	"context"
	"errors"
	"fmt"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	secretspb "cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/googleapis/gax-go/v2"
	"go.uber.org/zap"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	domcommon "github.com/xm-cse/tirios-solanaSW/internal/domain/common"
	signerdom "github.com/xm-cse/tirios-solanaSW/internal/domain/signer"
)

var (
	ErrSignerSecretNotConfigured = errors.New("signer_secret_store: not configured")
	ErrSecretNotFound            = errors.New("signer_secret_store: secret not found")
	ErrSecretNameEmpty           = errors.New("signer_secret_store: secret name is empty")
)

// SecretClient は secretmanager.Client のうち本ストアが使うメソッドだけを切り出したものです。
type SecretClient interface {
	AccessSecretVersion(ctx context.Context, req *secretspb.AccessSecretVersionRequest, opts ...gax.CallOption) (*secretspb.AccessSecretVersionResponse, error)
	GetSecret(ctx context.Context, req *secretspb.GetSecretRequest, opts ...gax.CallOption) (*secretspb.Secret, error)
	CreateSecret(ctx context.Context, req *secretspb.CreateSecretRequest, opts ...gax.CallOption) (*secretspb.Secret, error)
	AddSecretVersion(ctx context.Context, req *secretspb.AddSecretVersionRequest, opts ...gax.CallOption) (*secretspb.SecretVersion, error)
	Close() error
}

var _ SecretClient = (*secretmanager.Client)(nil)

// SignerSecretStoreSM は GCP Secret Manager 上の Solana keypair を読み書きします。
// - 秘密鍵の実体は Secret Manager、プロセス外には公開鍵だけを出す
// - 形式は solana-keygen 互換の JSON 配列
type SignerSecretStoreSM struct {
	client SecretClient
	logger *zap.Logger
}

// NewSignerSecretStoreSM は Secret Manager クライアントを作成します。
// credsFile が空なら ADC（GOOGLE_APPLICATION_CREDENTIALS / metadata server）を使います。
func NewSignerSecretStoreSM(ctx context.Context, credsFile string, logger *zap.Logger) (*SignerSecretStoreSM, error) {
	var opts []option.ClientOption
	if cf := strings.TrimSpace(credsFile); cf != "" {
		opts = append(opts, option.WithCredentialsFile(cf))
	}

	c, err := secretmanager.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("signer_secret_store: secretmanager.NewClient: %w", err)
	}
	return NewSignerSecretStoreWithClient(c, logger), nil
}

// NewSignerSecretStoreWithClient は既存のクライアント（テストではフェイク）から作成します。
func NewSignerSecretStoreWithClient(c SecretClient, logger *zap.Logger) *SignerSecretStoreSM {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SignerSecretStoreSM{client: c, logger: logger.Named("signer_secret_store")}
}

// LoadKeyPair は Secret Version のフルパス
//
//	"projects/<PROJECT_ID>/secrets/<SECRET_ID>/versions/latest"
//
// から keypair を復元します。
func (s *SignerSecretStoreSM) LoadKeyPair(ctx context.Context, versionName string) (signerdom.KeyPair, error) {
	if s == nil || s.client == nil {
		return signerdom.KeyPair{}, ErrSignerSecretNotConfigured
	}
	name := strings.TrimSpace(versionName)
	if name == "" {
		return signerdom.KeyPair{}, ErrSecretNameEmpty
	}

	res, err := s.client.AccessSecretVersion(ctx, &secretspb.AccessSecretVersionRequest{Name: name})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return signerdom.KeyPair{}, fmt.Errorf("%w: %s", ErrSecretNotFound, name)
		}
		return signerdom.KeyPair{}, fmt.Errorf("signer_secret_store: AccessSecretVersion %s: %w", name, err)
	}

	data := res.GetPayload().GetData()
	if len(data) == 0 {
		return signerdom.KeyPair{}, fmt.Errorf("%w: %s has empty payload", ErrSecretNotFound, name)
	}

	kp, err := KeyPairFromJSON(data)
	if err != nil {
		return signerdom.KeyPair{}, fmt.Errorf("signer_secret_store: %s: %w", name, err)
	}

	// ★ 公開鍵のみログ
	s.logger.Info("signer loaded from secret manager",
		zap.String("secret", name),
		zap.String("pubkey", kp.Address()),
	)
	return kp, nil
}

// OpenKeyPair は secretID の keypair を返します（冪等）。
//   - versions/latest が読めればそれを復元して返す（再生成しない）
//   - NotFound の場合のみ Secret を作成し、新規 keypair を Version として追加
//
// 返り値の 2 つ目は実際に読み書きした Version 名です。
func (s *SignerSecretStoreSM) OpenKeyPair(ctx context.Context, projectID, secretID string) (signerdom.KeyPair, string, error) {
	if s == nil || s.client == nil {
		return signerdom.KeyPair{}, "", ErrSignerSecretNotConfigured
	}
	pid := strings.TrimSpace(projectID)
	sid := strings.TrimSpace(secretID)
	if pid == "" || sid == "" {
		return signerdom.KeyPair{}, "", ErrSecretNameEmpty
	}

	parent := fmt.Sprintf("projects/%s", pid)
	secretName := fmt.Sprintf("%s/secrets/%s", parent, sid)
	latestVersionName := secretName + "/versions/latest"

	// 0) 既存があれば復元
	res, aerr := s.client.AccessSecretVersion(ctx, &secretspb.AccessSecretVersionRequest{Name: latestVersionName})
	if aerr == nil {
		kp, err := KeyPairFromJSON(res.GetPayload().GetData())
		if err != nil {
			return signerdom.KeyPair{}, "", fmt.Errorf("signer_secret_store: %s: %w", latestVersionName, err)
		}
		return kp, res.GetName(), nil
	}
	// NotFound のみ新規作成へ
	if status.Code(aerr) != codes.NotFound {
		return signerdom.KeyPair{}, "", fmt.Errorf("signer_secret_store: AccessSecretVersion latest: %w", aerr)
	}

	// 1) Secret が無ければ作成
	if _, err := s.client.GetSecret(ctx, &secretspb.GetSecretRequest{Name: secretName}); err != nil {
		if status.Code(err) != codes.NotFound {
			return signerdom.KeyPair{}, "", fmt.Errorf("signer_secret_store: GetSecret %s: %w", sid, err)
		}
		_, cerr := s.client.CreateSecret(ctx, &secretspb.CreateSecretRequest{
			Parent:   parent,
			SecretId: sid,
			Secret: &secretspb.Secret{
				Replication: &secretspb.Replication{
					Replication: &secretspb.Replication_Automatic_{
						Automatic: &secretspb.Replication_Automatic{},
					},
				},
			},
		})
		if cerr != nil {
			return signerdom.KeyPair{}, "", fmt.Errorf("signer_secret_store: CreateSecret %s: %w", sid, cerr)
		}
	}

	// 2) 新規 keypair → Version 追加
	kp := signerdom.Generate()
	payload, err := EncodeKeypairJSON(kp)
	if err != nil {
		return signerdom.KeyPair{}, "", fmt.Errorf("signer_secret_store: marshal keypair: %w", err)
	}

	addRes, err := s.client.AddSecretVersion(ctx, &secretspb.AddSecretVersionRequest{
		Parent:  secretName,
		Payload: &secretspb.SecretPayload{Data: payload},
	})
	if err != nil {
		return signerdom.KeyPair{}, "", fmt.Errorf("signer_secret_store: AddSecretVersion: %w", err)
	}

	s.logger.Info("signer created in secret manager",
		zap.String("secret", addRes.GetName()),
		zap.String("pubkey", domcommon.MaskShort(kp.Address())),
	)
	return kp, addRes.GetName(), nil
}

func (s *SignerSecretStoreSM) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}
