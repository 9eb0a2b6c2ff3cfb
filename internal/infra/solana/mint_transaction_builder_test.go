package solana

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domcommon "github.com/xm-cse/tirios-solanaSW/internal/domain/common"
	mintdom "github.com/xm-cse/tirios-solanaSW/internal/domain/mint"
	signerdom "github.com/xm-cse/tirios-solanaSW/internal/domain/signer"
)

const testRentLamports uint64 = 1_461_600

type fakeChain struct {
	blockhash string
	rent      uint64
	err       error
	rentLen   uint64
}

func (f *fakeChain) LatestBlockhash(ctx context.Context) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.blockhash, nil
}

func (f *fakeChain) MinimumBalanceForRentExemption(ctx context.Context, dataLen uint64) (uint64, error) {
	f.rentLen = dataLen
	if f.err != nil {
		return 0, f.err
	}
	return f.rent, nil
}

func newFakeChain() *fakeChain {
	return &fakeChain{
		blockhash: types.NewAccount().PublicKey.ToBase58(),
		rent:      testRentLamports,
	}
}

func decodeBuilt(t *testing.T, built mintdom.BuiltTransaction) types.Transaction {
	t.Helper()
	raw, err := domcommon.DecodeBase58(built.Encoded)
	require.NoError(t, err)
	tx, err := types.TransactionDeserialize(raw)
	require.NoError(t, err)
	return tx
}

func programOf(tx types.Transaction, i int) common.PublicKey {
	return tx.Message.Accounts[tx.Message.Instructions[i].ProgramIDIndex]
}

func accountIndex(tx types.Transaction, pk common.PublicKey) int {
	for i, a := range tx.Message.Accounts {
		if a == pk {
			return i
		}
	}
	return -1
}

func TestBuildToken2022WithRecipientAccount(t *testing.T) {
	chain := newFakeChain()
	b := NewMintTransactionBuilder(chain, nil)

	payer := signerdom.Generate()
	mintKey := signerdom.Generate()

	built, err := b.Build(context.Background(), mintdom.Plan{
		Payer:                  payer.Address(),
		Mint:                   mintKey,
		Decimals:               9,
		CreateRecipientAccount: true,
	})
	require.NoError(t, err)

	assert.Equal(t, payer.Address(), built.Payer)
	assert.Equal(t, mintKey.Address(), built.Mint)
	assert.Equal(t, mintdom.ProgramToken2022, built.Program)
	assert.Equal(t, chain.blockhash, built.Blockhash)
	assert.Equal(t, []string{mintKey.Address()}, built.RequiredSigners)
	assert.Equal(t, uint64(82), chain.rentLen)

	tx := decodeBuilt(t, built)
	require.Len(t, tx.Message.Instructions, 3)

	// fee payer comes first
	assert.Equal(t, payer.Address(), tx.Message.Accounts[0].ToBase58())
	assert.Equal(t, chain.blockhash, tx.Message.RecentBlockHash)

	assert.Equal(t, common.PublicKeyFromString(systemProgramID), programOf(tx, 0))
	assert.Equal(t, Token2022ProgramID, programOf(tx, 1))
	assert.Equal(t, AssociatedTokenProgramID, programOf(tx, 2))

	// create account: [u32 ix][u64 lamports][u64 space][32 owner]
	createData := tx.Message.Instructions[0].Data
	require.Len(t, createData, 52)
	assert.Equal(t, testRentLamports, binary.LittleEndian.Uint64(createData[4:12]))
	assert.Equal(t, uint64(82), binary.LittleEndian.Uint64(createData[12:20]))
	assert.Equal(t, Token2022ProgramID.Bytes(), createData[20:52])

	// initialize mint: [u8 ix][u8 decimals][32 mint authority][option][32 freeze authority]
	initData := tx.Message.Instructions[1].Data
	require.GreaterOrEqual(t, len(initData), 67)
	assert.Equal(t, byte(0), initData[0])
	assert.Equal(t, byte(9), initData[1])
	assert.Equal(t, tx.Message.Accounts[0].Bytes(), initData[2:34])
	assert.Equal(t, byte(1), initData[34])
	assert.Equal(t, tx.Message.Accounts[0].Bytes(), initData[35:67])

	ata, err := FindAssociatedTokenAddress(tx.Message.Accounts[0], common.PublicKeyFromString(built.Mint), Token2022ProgramID)
	require.NoError(t, err)
	assert.Equal(t, ata.ToBase58(), built.RecipientTokenAccount)
	assert.Empty(t, tx.Message.Instructions[2].Data)
	assert.GreaterOrEqual(t, accountIndex(tx, ata), 0)

	// nothing is signed locally
	for i, sig := range tx.Signatures {
		assert.True(t, bytes.Equal(make([]byte, 64), sig), "signature %d should be zero-filled", i)
	}
	assert.Equal(t, uint8(2), tx.Message.Header.NumRequireSignatures)
}

func TestBuildWithoutRecipientAccount(t *testing.T) {
	b := NewMintTransactionBuilder(newFakeChain(), nil)

	built, err := b.Build(context.Background(), mintdom.Plan{
		Payer:    signerdom.Generate().Address(),
		Mint:     signerdom.Generate(),
		Decimals: 6,
	})
	require.NoError(t, err)
	assert.Empty(t, built.RecipientTokenAccount)

	tx := decodeBuilt(t, built)
	require.Len(t, tx.Message.Instructions, 2)
	assert.Equal(t, byte(6), tx.Message.Instructions[1].Data[1])
}

func TestBuildLegacyProgramMatchesSDKAssociatedAddress(t *testing.T) {
	b := NewMintTransactionBuilder(newFakeChain(), nil)

	payer := signerdom.Generate()
	owner := signerdom.Generate()
	mintKey := signerdom.Generate()

	built, err := b.Build(context.Background(), mintdom.Plan{
		Payer:                  payer.Address(),
		Mint:                   mintKey,
		Program:                mintdom.ProgramToken,
		CreateRecipientAccount: true,
		RecipientOwner:         owner.Address(),
	})
	require.NoError(t, err)

	want, _, err := common.FindAssociatedTokenAddress(owner.Account().PublicKey, mintKey.Account().PublicKey)
	require.NoError(t, err)
	assert.Equal(t, want.ToBase58(), built.RecipientTokenAccount)

	tx := decodeBuilt(t, built)
	assert.Equal(t, common.TokenProgramID, programOf(tx, 1))
}

func TestBuildPreSignMintProducesValidPartialSignature(t *testing.T) {
	b := NewMintTransactionBuilder(newFakeChain(), nil)

	payer := signerdom.Generate()
	mintKey := signerdom.Generate()

	built, err := b.Build(context.Background(), mintdom.Plan{
		Payer:       payer.Address(),
		Mint:        mintKey,
		Decimals:    9,
		PreSignMint: true,
	})
	require.NoError(t, err)
	assert.Empty(t, built.RequiredSigners)

	tx := decodeBuilt(t, built)
	msg, err := tx.Message.Serialize()
	require.NoError(t, err)

	idx := accountIndex(tx, mintKey.Account().PublicKey)
	require.Greater(t, idx, 0)
	require.Less(t, idx, len(tx.Signatures))

	assert.True(t, ed25519.Verify(ed25519.PublicKey(mintKey.Account().PublicKey.Bytes()), msg, tx.Signatures[idx]))
	assert.True(t, bytes.Equal(make([]byte, 64), tx.Signatures[0]), "payer signature is left for the remote wallet")
}

func TestBuildDisableFreezeAuthority(t *testing.T) {
	b := NewMintTransactionBuilder(newFakeChain(), nil)

	built, err := b.Build(context.Background(), mintdom.Plan{
		Payer:                  signerdom.Generate().Address(),
		Mint:                   signerdom.Generate(),
		DisableFreezeAuthority: true,
	})
	require.NoError(t, err)

	tx := decodeBuilt(t, built)
	assert.Equal(t, byte(0), tx.Message.Instructions[1].Data[34])
}

func TestBuildErrors(t *testing.T) {
	ctx := context.Background()

	_, err := NewMintTransactionBuilder(nil, nil).Build(ctx, mintdom.Plan{})
	assert.ErrorIs(t, err, ErrBuilderNotConfigured)

	b := NewMintTransactionBuilder(newFakeChain(), nil)

	_, err = b.Build(ctx, mintdom.Plan{Mint: signerdom.Generate()})
	assert.ErrorIs(t, err, mintdom.ErrInvalidPayer)

	_, err = b.Build(ctx, mintdom.Plan{Payer: signerdom.Generate().Address()})
	assert.ErrorIs(t, err, mintdom.ErrInvalidMintKey)

	_, err = b.Build(ctx, mintdom.Plan{Payer: "not-an-address", Mint: signerdom.Generate()})
	assert.ErrorIs(t, err, ErrInvalidAddress)

	rpcErr := errors.New("connection refused")
	_, err = NewMintTransactionBuilder(&fakeChain{err: rpcErr}, nil).Build(ctx, mintdom.Plan{
		Payer: signerdom.Generate().Address(),
		Mint:  signerdom.Generate(),
	})
	assert.ErrorIs(t, err, rpcErr)
}

func TestParseAddress(t *testing.T) {
	kp := signerdom.Generate()
	pk, err := ParseAddress("  " + kp.Address() + " ")
	require.NoError(t, err)
	assert.Equal(t, kp.Address(), pk.ToBase58())

	_, err = ParseAddress(domcommon.EncodeBase58([]byte{1, 2, 3}))
	assert.ErrorIs(t, err, ErrInvalidAddress)

	_, err = ParseAddress("")
	assert.ErrorIs(t, err, ErrInvalidAddress)
}
