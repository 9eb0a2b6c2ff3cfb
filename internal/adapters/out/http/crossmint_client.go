// internal/adapters/out/http/crossmint_client.go
package httpout

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	approvaldom "github.com/xm-cse/tirios-solanaSW/internal/domain/approval"
	txdom "github.com/xm-cse/tirios-solanaSW/internal/domain/transaction"
	walletdom "github.com/xm-cse/tirios-solanaSW/internal/domain/wallet"
)

const DefaultCrossmintBaseURL = "https://staging.crossmint.com/api/2022-06-09"

var (
	ErrMissingAPIKey = errors.New("crossmint: api key is empty")
	ErrRemoteCall    = errors.New("crossmint: remote call failed")
)

// RemoteError は 2xx 以外のレスポンスです（status text と body を保持）。
type RemoteError struct {
	Op         string
	StatusCode int
	Status     string
	Body       string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("crossmint: %s failed status=%d (%s) body=%s", e.Op, e.StatusCode, e.Status, e.Body)
}

func (e *RemoteError) Unwrap() error { return ErrRemoteCall }

// CrossmintClient は Crossmint Wallets API のクライアントです。
// walletdom.Gateway / txdom.Gateway を実装します。
type CrossmintClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  *zap.Logger
	newKey  func() string
}

var (
	_ walletdom.Gateway = (*CrossmintClient)(nil)
	_ txdom.Gateway     = (*CrossmintClient)(nil)
)

type Option func(*CrossmintClient)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *CrossmintClient) {
		if hc != nil {
			c.client = hc
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(c *CrossmintClient) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithIdempotencyKeyFunc は x-idempotency-key の生成関数を差し替えます。
func WithIdempotencyKeyFunc(f func() string) Option {
	return func(c *CrossmintClient) {
		if f != nil {
			c.newKey = f
		}
	}
}

// baseURL example:
// - staging: https://staging.crossmint.com/api/2022-06-09
// - local:   httptest server URL
func NewCrossmintClient(baseURL, apiKey string, opts ...Option) (*CrossmintClient, error) {
	key := strings.TrimSpace(apiKey)
	if key == "" {
		return nil, ErrMissingAPIKey
	}
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultCrossmintBaseURL
	}

	c := &CrossmintClient{
		baseURL: baseURL,
		apiKey:  key,
		client:  &http.Client{Timeout: 30 * time.Second},
		logger:  zap.NewNop(),
		newKey:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.Named("crossmint")
	return c, nil
}

// ============================================================
// Wire types
// ============================================================

type adminSignerJSON struct {
	Type    string `json:"type"`
	Address string `json:"address"`
	Locator string `json:"locator,omitempty"`
}

type walletJSON struct {
	Type   string `json:"type"`
	Config struct {
		AdminSigner adminSignerJSON `json:"adminSigner"`
	} `json:"config"`
	Address   string `json:"address"`
	CreatedAt string `json:"createdAt"`
}

type createWalletRequest struct {
	Type   string `json:"type"`
	Config struct {
		AdminSigner adminSignerJSON `json:"adminSigner"`
	} `json:"config"`
}

type createTransactionRequest struct {
	Params struct {
		Transaction     string   `json:"transaction"`
		RequiredSigners []string `json:"requiredSigners,omitempty"`
	} `json:"params"`
}

type submitApprovalsRequest struct {
	Approvals []approvaldom.Approval `json:"approvals"`
}

type transactionJSON struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	CreatedAt string `json:"createdAt"`
	Approvals *struct {
		Pending   []approvaldom.Pending  `json:"pending"`
		Submitted []approvaldom.Approval `json:"submitted"`
	} `json:"approvals"`
	OnChain *struct {
		Transaction string `json:"transaction"`
		TxID        string `json:"txId"`
	} `json:"onChain"`
}

// ============================================================
// Wallets
// ============================================================

func (c *CrossmintClient) CreateWallet(ctx context.Context, in walletdom.CreateInput) (walletdom.Wallet, error) {
	if in.Type == "" {
		in.Type = walletdom.TypeSolanaSmartWallet
	}
	if strings.TrimSpace(in.AdminSigner.Address) == "" {
		return walletdom.Wallet{}, walletdom.ErrInvalidAdminSigner
	}
	if in.AdminSigner.Type == "" {
		in.AdminSigner.Type = walletdom.SignerSolanaKeypair
	}

	var body createWalletRequest
	body.Type = string(in.Type)
	body.Config.AdminSigner = adminSignerJSON{
		Type:    string(in.AdminSigner.Type),
		Address: strings.TrimSpace(in.AdminSigner.Address),
	}

	var out walletJSON
	hdr := http.Header{}
	hdr.Set("x-idempotency-key", c.newKey())
	if err := c.do(ctx, "create wallet", http.MethodPost, "/wallets", hdr, body, &out); err != nil {
		return walletdom.Wallet{}, err
	}

	w := toWallet(out)
	c.logger.Info("wallet created", zap.String("address", w.Address), zap.String("type", string(w.Type)))
	return w, nil
}

func (c *CrossmintClient) GetWallet(ctx context.Context, locator string) (walletdom.Wallet, error) {
	loc := strings.TrimSpace(locator)
	if loc == "" {
		return walletdom.Wallet{}, walletdom.ErrInvalidWalletAddress
	}

	var out walletJSON
	if err := c.do(ctx, "get wallet", http.MethodGet, "/wallets/"+url.PathEscape(loc), nil, nil, &out); err != nil {
		var re *RemoteError
		if errors.As(err, &re) && re.StatusCode == http.StatusNotFound {
			return walletdom.Wallet{}, fmt.Errorf("%w: %w", walletdom.ErrNotFound, err)
		}
		return walletdom.Wallet{}, err
	}
	return toWallet(out), nil
}

func toWallet(in walletJSON) walletdom.Wallet {
	as := walletdom.AdminSigner{
		Type:    walletdom.SignerType(in.Config.AdminSigner.Type),
		Address: in.Config.AdminSigner.Address,
		Locator: in.Config.AdminSigner.Locator,
	}
	if as.Locator == "" && as.Address != "" {
		as.Locator = walletdom.Locator(as.Type, as.Address)
	}
	return walletdom.Wallet{
		Address:     in.Address,
		Type:        walletdom.WalletType(in.Type),
		AdminSigner: as,
		CreatedAt:   parseTime(in.CreatedAt),
	}
}

// ============================================================
// Transactions
// ============================================================

func (c *CrossmintClient) CreateTransaction(ctx context.Context, walletLocator string, in txdom.SubmitInput) (txdom.Transaction, error) {
	wl := strings.TrimSpace(walletLocator)
	if wl == "" {
		return txdom.Transaction{}, txdom.ErrInvalidWallet
	}
	if strings.TrimSpace(in.Transaction) == "" {
		return txdom.Transaction{}, txdom.ErrEmptyTransaction
	}

	var body createTransactionRequest
	body.Params.Transaction = in.Transaction
	body.Params.RequiredSigners = in.RequiredSigners

	return c.doTransaction(ctx, "create transaction", http.MethodPost, c.txPath(wl, ""), body)
}

func (c *CrossmintClient) GetTransaction(ctx context.Context, walletLocator, id string) (txdom.Transaction, error) {
	wl := strings.TrimSpace(walletLocator)
	if wl == "" {
		return txdom.Transaction{}, txdom.ErrInvalidWallet
	}
	tid := strings.TrimSpace(id)
	if tid == "" {
		return txdom.Transaction{}, txdom.ErrInvalidID
	}
	return c.doTransaction(ctx, "get transaction", http.MethodGet, c.txPath(wl, tid), nil)
}

func (c *CrossmintClient) SubmitApprovals(ctx context.Context, walletLocator, id string, approvals []approvaldom.Approval) (txdom.Transaction, error) {
	wl := strings.TrimSpace(walletLocator)
	if wl == "" {
		return txdom.Transaction{}, txdom.ErrInvalidWallet
	}
	tid := strings.TrimSpace(id)
	if tid == "" {
		return txdom.Transaction{}, txdom.ErrInvalidID
	}
	if len(approvals) == 0 {
		return txdom.Transaction{}, txdom.ErrNoApprovals
	}

	return c.doTransaction(ctx, "submit approvals", http.MethodPost, c.txPath(wl, tid)+"/approvals", submitApprovalsRequest{Approvals: approvals})
}

func (c *CrossmintClient) txPath(walletLocator, id string) string {
	p := "/wallets/" + url.PathEscape(walletLocator) + "/transactions"
	if id != "" {
		p += "/" + url.PathEscape(id)
	}
	return p
}

func (c *CrossmintClient) doTransaction(ctx context.Context, op, method, path string, body any) (txdom.Transaction, error) {
	var raw json.RawMessage
	if err := c.do(ctx, op, method, path, nil, body, &raw); err != nil {
		return txdom.Transaction{}, err
	}

	var tj transactionJSON
	if err := json.Unmarshal(raw, &tj); err != nil {
		return txdom.Transaction{}, fmt.Errorf("crossmint: %s: decode response: %w", op, err)
	}

	tx := txdom.Transaction{
		ID:        tj.ID,
		Status:    txdom.Status(tj.Status),
		CreatedAt: parseTime(tj.CreatedAt),
		Raw:       raw,
	}
	if tj.Approvals != nil {
		tx.Pending = tj.Approvals.Pending
		tx.Submitted = tj.Approvals.Submitted
	}
	if tj.OnChain != nil {
		tx.OnChainTransaction = tj.OnChain.Transaction
		tx.OnChainTxID = tj.OnChain.TxID
	}

	c.logger.Debug(op,
		zap.String("id", tx.ID),
		zap.String("status", string(tx.Status)),
		zap.Int("pendingApprovals", len(tx.Pending)),
	)
	return tx, nil
}

// ============================================================
// transport
// ============================================================

func (c *CrossmintClient) do(ctx context.Context, op, method, path string, hdr http.Header, body, out any) error {
	if c == nil || c.client == nil {
		return fmt.Errorf("crossmint: client is nil")
	}

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("crossmint: %s: encode request: %w", op, err)
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return fmt.Errorf("crossmint: %s: %w", op, err)
	}
	req.Header.Set("X-API-KEY", c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	for k, vs := range hdr {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	res, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("crossmint: %s: %w", op, err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("crossmint: %s: read body: %w", op, err)
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		c.logger.Warn("remote call failed",
			zap.String("op", op),
			zap.Int("status", res.StatusCode),
		)
		return &RemoteError{
			Op:         op,
			StatusCode: res.StatusCode,
			Status:     res.Status,
			Body:       strings.TrimSpace(string(data)),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("crossmint: %s: decode response: %w", op, err)
	}
	return nil
}

func parseTime(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}
