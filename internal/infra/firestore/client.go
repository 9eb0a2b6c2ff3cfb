// internal/infra/firestore/client.go
package firestoreinfra

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/firestore"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

var ErrProjectIDEmpty = errors.New("firestore: projectID is empty")

// ClientWrapper は Firestore クライアントとその設定をラップします。
type ClientWrapper struct {
	Client    *firestore.Client
	ProjectID string
}

// NewClient は Firestore クライアントを初期化します。
// credentialsFile が空文字の場合、ADC(Application Default Credentials)を使用します。
// FIRESTORE_EMULATOR_HOST が設定されていればエミュレータに接続されます。
func NewClient(ctx context.Context, projectID, credentialsFile string, logger *zap.Logger) (*ClientWrapper, error) {
	pid := strings.TrimSpace(projectID)
	if pid == "" {
		return nil, ErrProjectIDEmpty
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	var opts []option.ClientOption
	if cf := strings.TrimSpace(credentialsFile); cf != "" {
		opts = append(opts, option.WithCredentialsFile(cf))
	}

	client, err := firestore.NewClient(ctx, pid, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}

	logger.Info("firestore connected", zap.String("project", pid))
	return &ClientWrapper{Client: client, ProjectID: pid}, nil
}

// Close は Firestore クライアントをクローズします。
func (cw *ClientWrapper) Close() error {
	if cw == nil || cw.Client == nil {
		return nil
	}
	return cw.Client.Close()
}
