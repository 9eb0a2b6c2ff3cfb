package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	approvaldom "github.com/xm-cse/tirios-solanaSW/internal/domain/approval"
	"github.com/xm-cse/tirios-solanaSW/internal/domain/common"
	mintdom "github.com/xm-cse/tirios-solanaSW/internal/domain/mint"
	signerdom "github.com/xm-cse/tirios-solanaSW/internal/domain/signer"
	txdom "github.com/xm-cse/tirios-solanaSW/internal/domain/transaction"
	walletdom "github.com/xm-cse/tirios-solanaSW/internal/domain/wallet"
)

type pipeline struct {
	uc      *TokenCreationUsecase
	gw      *fakeGateway
	builder *fakeBuilder
	records *fakeRecords
	admin   signerdom.KeyPair
}

func newPipeline(t *testing.T, gw *fakeGateway) pipeline {
	t.Helper()
	admin := signerdom.Generate()
	builder := &fakeBuilder{}
	records := &fakeRecords{}

	uc := NewTokenCreationUsecase(
		NewWalletUsecase(gw, admin, nil),
		builder,
		NewTransactionUsecase(gw, nil, fastPolicy(), nil),
		signerdom.NewPool(admin),
		records,
		func(addr string) string { return "https://explorer.solana.com/address/" + addr + "?cluster=devnet" },
		"devnet",
		nil,
	)
	uc.now = func() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC) }
	return pipeline{uc: uc, gw: gw, builder: builder, records: records, admin: admin}
}

func TestRunHappyPath(t *testing.T) {
	gw := &fakeGateway{
		wallet: walletdom.Wallet{Address: testWalletAddr, Type: walletdom.TypeSolanaSmartWallet},
		polls: []pollStep{
			pending(),
			{tx: txdom.Transaction{ID: "tx-1", Status: txdom.StatusSuccess, OnChainTxID: "onchain-sig"}},
		},
	}
	p := newPipeline(t, gw)
	mintKey := signerdom.Generate()

	// Crossmint は admin signer と mint の署名を要求する
	gw.created = txdom.Transaction{ID: "tx-1", Status: txdom.StatusAwaitingApproval, Pending: []approvaldom.Pending{
		{Signer: "solana-keypair:" + p.admin.Address(), Message: common.EncodeBase58([]byte("admin msg"))},
		{Signer: "solana-keypair:" + mintKey.Address(), Message: common.EncodeBase58([]byte("mint msg"))},
	}}

	res, err := p.uc.Run(context.Background(), CreateTokenInput{
		MintKey:                mintKey,
		Decimals:               9,
		CreateRecipientAccount: true,
	})
	require.NoError(t, err)

	assert.True(t, res.WalletCreated)
	assert.Equal(t, testWalletAddr, res.WalletAddress)
	assert.Equal(t, mintKey.Address(), res.MintAddress)
	assert.Equal(t, "ata-of-"+testWalletAddr, res.RecipientTokenAccount)
	assert.Equal(t, "tx-1", res.TransactionID)
	assert.Equal(t, txdom.StatusSuccess, res.Status)
	assert.Equal(t, "onchain-sig", res.OnChainTxID)
	assert.False(t, res.AwaitingExternalApproval)
	assert.Contains(t, res.ExplorerURL, mintKey.Address())

	// plan: payer = created wallet
	require.Len(t, p.builder.plans, 1)
	assert.Equal(t, testWalletAddr, p.builder.plans[0].Payer)

	// submit carries the encoded tx and the mint as required signer
	require.Len(t, gw.submitted, 1)
	assert.Equal(t, "encoded-tx", gw.submitted[0].Transaction)
	assert.Equal(t, []string{mintKey.Address()}, gw.submitted[0].RequiredSigners)

	// approvals: one per pending, signed by the matching key
	require.Len(t, gw.approvals, 1)
	require.Len(t, res.Approvals, 2)
	owners := []signerdom.KeyPair{p.admin, mintKey}
	msgs := []string{"admin msg", "mint msg"}
	for i, a := range res.Approvals {
		sig, err := common.DecodeBase58(a.Signature)
		require.NoError(t, err)
		ok, err := signerdom.Verify(owners[i].Address(), []byte(msgs[i]), sig)
		require.NoError(t, err)
		assert.True(t, ok)
	}

	require.Len(t, p.records.saved, 1)
	rec := p.records.saved[0]
	assert.Equal(t, mintKey.Address(), rec.MintAddress)
	assert.Equal(t, "success", rec.Status)
	assert.Equal(t, "devnet", rec.Cluster)
	assert.Equal(t, uint8(9), rec.Decimals)
}

func TestRunWithoutPendingApprovalsDoesNotPoll(t *testing.T) {
	gw := &fakeGateway{created: txdom.Transaction{ID: "tx-2", Status: txdom.StatusAwaitingApproval}}
	p := newPipeline(t, gw)

	res, err := p.uc.Run(context.Background(), CreateTokenInput{WalletAddress: testWalletAddr, Decimals: 6})
	require.NoError(t, err)

	assert.False(t, res.WalletCreated)
	assert.Empty(t, gw.createdIn)
	assert.True(t, res.AwaitingExternalApproval)
	assert.Equal(t, txdom.StatusAwaitingApproval, res.Status)
	assert.Equal(t, 0, gw.calls())
	assert.Empty(t, gw.approvals)
	assert.NotEmpty(t, res.MintAddress, "mint key is generated when none is given")
	require.Len(t, p.records.saved, 1)
}

func TestRunMissingSignerSubmitsNothing(t *testing.T) {
	gw := &fakeGateway{created: txdom.Transaction{ID: "tx-3", Pending: []approvaldom.Pending{
		{Signer: "solana-keypair:" + signerdom.Generate().Address(), Message: common.EncodeBase58([]byte("m"))},
	}}}
	p := newPipeline(t, gw)

	res, err := p.uc.Run(context.Background(), CreateTokenInput{WalletAddress: testWalletAddr})
	require.ErrorIs(t, err, approvaldom.ErrMissingSigner)
	assert.Equal(t, "tx-3", res.TransactionID)
	assert.Empty(t, gw.approvals)
	assert.Equal(t, 0, gw.calls())
	assert.Empty(t, p.records.saved)
}

func TestRunPollTimeoutKeepsPartialResult(t *testing.T) {
	admin := signerdom.Generate()
	gw := &fakeGateway{polls: []pollStep{pending()}}
	p := newPipeline(t, gw)
	p.uc.pool = signerdom.NewPool(admin)
	p.uc.txs = NewTransactionUsecase(gw, nil, PollPolicy{InitialInterval: time.Millisecond, MaxAttempts: 2}, nil)
	gw.created = txdom.Transaction{ID: "tx-4", Pending: []approvaldom.Pending{
		{Signer: admin.Address(), Message: common.EncodeBase58([]byte("m"))},
	}}

	res, err := p.uc.Run(context.Background(), CreateTokenInput{WalletAddress: testWalletAddr})
	require.ErrorIs(t, err, txdom.ErrPollTimeout)
	require.NotNil(t, res)
	assert.Equal(t, txdom.StatusPending, res.Status)
	assert.Equal(t, 2, gw.calls())
}

func TestRunFailedTransaction(t *testing.T) {
	gw := &fakeGateway{polls: []pollStep{{tx: txdom.Transaction{ID: "tx-5", Status: txdom.StatusFailed}}}}
	p := newPipeline(t, gw)
	gw.created = txdom.Transaction{ID: "tx-5", Pending: []approvaldom.Pending{
		{Signer: p.admin.Address(), Message: common.EncodeBase58([]byte("m"))},
	}}

	res, err := p.uc.Run(context.Background(), CreateTokenInput{WalletAddress: testWalletAddr})
	require.ErrorIs(t, err, txdom.ErrTransactionFailed)
	assert.Equal(t, txdom.StatusFailed, res.Status)
	require.Len(t, p.records.saved, 1, "failed runs are still recorded")
}

func TestRunRecordFailureStillReturnsResult(t *testing.T) {
	gw := &fakeGateway{created: txdom.Transaction{ID: "tx-6", Status: txdom.StatusAwaitingApproval}}
	p := newPipeline(t, gw)
	p.records.err = errors.New("firestore unavailable")

	res, err := p.uc.Run(context.Background(), CreateTokenInput{WalletAddress: testWalletAddr})
	require.ErrorIs(t, err, ErrRecordNotSaved)
	require.NotNil(t, res)
	assert.Equal(t, "tx-6", res.TransactionID)
}

func TestRunValidation(t *testing.T) {
	p := newPipeline(t, &fakeGateway{})

	_, err := p.uc.Run(context.Background(), CreateTokenInput{WalletAddress: "bad"})
	assert.ErrorIs(t, err, walletdom.ErrInvalidWalletAddress)
	assert.Empty(t, p.builder.plans)

	p.builder.err = mintdom.ErrInvalidTokenProgram
	_, err = p.uc.Run(context.Background(), CreateTokenInput{WalletAddress: testWalletAddr})
	assert.ErrorIs(t, err, mintdom.ErrInvalidTokenProgram)

	var nilUC *TokenCreationUsecase
	_, err = nilUC.Run(context.Background(), CreateTokenInput{})
	assert.ErrorIs(t, err, ErrTokenNotConfigured)
}

func TestGetRecordReadsSavedMint(t *testing.T) {
	p := newPipeline(t, &fakeGateway{})
	mint := signerdom.Generate().Address()
	p.records.saved = append(p.records.saved, mintdom.Record{MintAddress: mint, Status: "success", Cluster: "devnet"})

	rec, err := p.uc.GetRecord(context.Background(), " "+mint+" ")
	require.NoError(t, err)
	assert.Equal(t, "success", rec.Status)

	_, err = p.uc.GetRecord(context.Background(), signerdom.Generate().Address())
	assert.ErrorIs(t, err, mintdom.ErrNotFound)

	_, err = p.uc.GetRecord(context.Background(), "not-an-address")
	assert.ErrorIs(t, err, mintdom.ErrInvalidMintAddress)

	var nilUC *TokenCreationUsecase
	_, err = nilUC.GetRecord(context.Background(), mint)
	assert.ErrorIs(t, err, ErrTokenNotConfigured)
}
