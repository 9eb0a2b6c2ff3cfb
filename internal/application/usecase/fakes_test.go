package usecase

import (
	"context"
	"errors"
	"sync"

	approvaldom "github.com/xm-cse/tirios-solanaSW/internal/domain/approval"
	mintdom "github.com/xm-cse/tirios-solanaSW/internal/domain/mint"
	txdom "github.com/xm-cse/tirios-solanaSW/internal/domain/transaction"
	walletdom "github.com/xm-cse/tirios-solanaSW/internal/domain/wallet"
)

// fakeGateway は wallet / transaction の両 Gateway をメモリ上で再現します。
type fakeGateway struct {
	mu sync.Mutex

	wallet    walletdom.Wallet
	walletErr error
	createdIn []walletdom.CreateInput

	created    txdom.Transaction
	createErr  error
	submitted  []txdom.SubmitInput
	approvals  [][]approvaldom.Approval
	approveErr error

	// polls は GetTransaction が順に返す値（尽きたら最後の値を返し続ける）
	polls    []pollStep
	getCalls int
	onGet    func(call int)
}

type pollStep struct {
	tx  txdom.Transaction
	err error
}

func (f *fakeGateway) CreateWallet(ctx context.Context, in walletdom.CreateInput) (walletdom.Wallet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createdIn = append(f.createdIn, in)
	if f.walletErr != nil {
		return walletdom.Wallet{}, f.walletErr
	}
	w := f.wallet
	w.AdminSigner = in.AdminSigner
	return w, nil
}

func (f *fakeGateway) GetWallet(ctx context.Context, locator string) (walletdom.Wallet, error) {
	if f.walletErr != nil {
		return walletdom.Wallet{}, f.walletErr
	}
	return f.wallet, nil
}

func (f *fakeGateway) CreateTransaction(ctx context.Context, walletLocator string, in txdom.SubmitInput) (txdom.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitted = append(f.submitted, in)
	if f.createErr != nil {
		return txdom.Transaction{}, f.createErr
	}
	return f.created, nil
}

func (f *fakeGateway) GetTransaction(ctx context.Context, walletLocator, id string) (txdom.Transaction, error) {
	f.mu.Lock()
	call := f.getCalls
	f.getCalls++
	var step pollStep
	if len(f.polls) > 0 {
		if call < len(f.polls) {
			step = f.polls[call]
		} else {
			step = f.polls[len(f.polls)-1]
		}
	}
	onGet := f.onGet
	f.mu.Unlock()

	if onGet != nil {
		onGet(call)
	}
	if err := ctx.Err(); err != nil {
		return txdom.Transaction{}, err
	}
	return step.tx, step.err
}

func (f *fakeGateway) SubmitApprovals(ctx context.Context, walletLocator, id string, approvals []approvaldom.Approval) (txdom.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.approvals = append(f.approvals, approvals)
	if f.approveErr != nil {
		return txdom.Transaction{}, f.approveErr
	}
	return txdom.Transaction{ID: id, Status: txdom.StatusPending}, nil
}

func (f *fakeGateway) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.getCalls
}

// fakeBuilder は Plan を記録して固定の結果を返します。
type fakeBuilder struct {
	plans []mintdom.Plan
	err   error
}

func (b *fakeBuilder) Build(ctx context.Context, plan mintdom.Plan) (mintdom.BuiltTransaction, error) {
	b.plans = append(b.plans, plan)
	if b.err != nil {
		return mintdom.BuiltTransaction{}, b.err
	}
	plan = plan.Normalize()
	out := mintdom.BuiltTransaction{
		Encoded: "encoded-tx",
		Payer:   plan.Payer,
		Mint:    plan.Mint.Address(),
		Program: plan.Program,
	}
	if plan.CreateRecipientAccount {
		out.RecipientTokenAccount = "ata-of-" + plan.RecipientOwner
	}
	if !plan.PreSignMint {
		out.RequiredSigners = []string{out.Mint}
	}
	return out, nil
}

// fakeRecords は保存された Record を保持します。
type fakeRecords struct {
	saved []mintdom.Record
	err   error
}

func (r *fakeRecords) Save(ctx context.Context, rec mintdom.Record) error {
	if r.err != nil {
		return r.err
	}
	r.saved = append(r.saved, rec)
	return nil
}

func (r *fakeRecords) GetByMint(ctx context.Context, mintAddress string) (mintdom.Record, error) {
	for _, rec := range r.saved {
		if rec.MintAddress == mintAddress {
			return rec, nil
		}
	}
	return mintdom.Record{}, mintdom.ErrNotFound
}

var errRemote = errors.New("remote: 500 internal error")
