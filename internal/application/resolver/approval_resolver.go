// internal/application/resolver/approval_resolver.go
package resolver

import (
	"fmt"

	"go.uber.org/zap"

	approvaldom "github.com/xm-cse/tirios-solanaSW/internal/domain/approval"
	"github.com/xm-cse/tirios-solanaSW/internal/domain/common"
	signerdom "github.com/xm-cse/tirios-solanaSW/internal/domain/signer"
)

// ResolveApprovals は Crossmint から返された署名待ち要求を、Pool 内の keypair で署名します。
//
//   - pending の順に処理し、各要求について Pool を先頭から走査して
//     アドレスが signer に含まれる最初の keypair を使う
//   - message は base58 をデコードした生バイト列に ed25519 で署名し、署名も base58 で返す
//   - 出力の Signer は要求の signer 文字列をそのまま返す
//   - 1 件でも一致しない / デコードできない要求があれば、部分結果は返さずエラー
func ResolveApprovals(pending []approvaldom.Pending, pool *signerdom.Pool) ([]approvaldom.Approval, error) {
	out := make([]approvaldom.Approval, 0, len(pending))

	for i, p := range pending {
		kp, ok := pool.Match(p.Signer)
		if !ok {
			return nil, &approvaldom.MissingSignerError{Signer: p.Signer, Index: i}
		}

		msg, err := common.DecodeBase58(p.Message)
		if err != nil {
			return nil, fmt.Errorf("%w: pending[%d] message for %q: %w", approvaldom.ErrMalformedInput, i, p.Signer, err)
		}

		out = append(out, approvaldom.Approval{
			Signer:    p.Signer,
			Signature: common.EncodeBase58(kp.Sign(msg)),
		})
	}

	return out, nil
}

// ApprovalResolver は ResolveApprovals にログ出力を付けたラッパです。
type ApprovalResolver struct {
	logger *zap.Logger
}

func NewApprovalResolver(logger *zap.Logger) *ApprovalResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ApprovalResolver{logger: logger.Named("approval_resolver")}
}

func (r *ApprovalResolver) Resolve(pending []approvaldom.Pending, pool *signerdom.Pool) ([]approvaldom.Approval, error) {
	r.logger.Debug("resolving approvals",
		zap.Int("pending", len(pending)),
		zap.Strings("pool", maskAll(pool.Addresses())),
	)

	out, err := ResolveApprovals(pending, pool)
	if err != nil {
		r.logger.Error("approval resolution failed", zap.Error(err))
		return nil, err
	}

	for _, a := range out {
		r.logger.Info("approval signed", zap.String("signer", a.Signer))
	}
	return out, nil
}

func maskAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		out = append(out, common.MaskShort(s))
	}
	return out
}
