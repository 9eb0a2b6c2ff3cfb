// internal/infra/solana/mint_transaction_builder.go
package solana

import (
	"context"
	"crypto/ed25519"
	"errors"
	"fmt"
	"strings"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/program/system"
	"github.com/blocto/solana-go-sdk/program/token"
	"github.com/blocto/solana-go-sdk/types"
	"go.uber.org/zap"

	domcommon "github.com/xm-cse/tirios-solanaSW/internal/domain/common"
	mintdom "github.com/xm-cse/tirios-solanaSW/internal/domain/mint"
)

const (
	// SPL Token-2022 program
	token2022ProgramID = "TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBqCXEpPxuEb"

	// Associated Token Account Program
	associatedTokenProgramID = "ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL"

	systemProgramID = "11111111111111111111111111111111"
	rentSysvarID    = "SysvarRent111111111111111111111111111111111"
)

var (
	Token2022ProgramID       = common.PublicKeyFromString(token2022ProgramID)
	AssociatedTokenProgramID = common.PublicKeyFromString(associatedTokenProgramID)
)

var (
	ErrBuilderNotConfigured = errors.New("mint_tx_builder: not configured")
	ErrInvalidAddress       = errors.New("mint_tx_builder: invalid address")
)

// MintTransactionBuilder assembles the mint creation transaction whose fee payer is
// a remote custodial wallet. It only reads chain state; it never sends anything.
type MintTransactionBuilder struct {
	chain  ChainReader
	logger *zap.Logger
}

func NewMintTransactionBuilder(chain ChainReader, logger *zap.Logger) *MintTransactionBuilder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MintTransactionBuilder{chain: chain, logger: logger.Named("mint_tx_builder")}
}

// Build does:
// - rent exemption for the mint account + latest blockhash
// - create account (payer funds the mint account, owned by the token program)
// - initialize mint (decimals, mint authority, optional freeze authority)
// - create associated token account for the recipient (optional)
// - serialize with zero-filled signatures for the remote payer (mint optionally pre-signed)
func (b *MintTransactionBuilder) Build(ctx context.Context, plan mintdom.Plan) (mintdom.BuiltTransaction, error) {
	if b == nil || b.chain == nil {
		return mintdom.BuiltTransaction{}, ErrBuilderNotConfigured
	}

	plan = plan.Normalize()
	if err := plan.Validate(); err != nil {
		return mintdom.BuiltTransaction{}, err
	}

	payer, err := ParseAddress(plan.Payer)
	if err != nil {
		return mintdom.BuiltTransaction{}, fmt.Errorf("payer: %w", err)
	}
	mintAuth, err := ParseAddress(plan.MintAuthority)
	if err != nil {
		return mintdom.BuiltTransaction{}, fmt.Errorf("mint authority: %w", err)
	}
	var freezeAuth *common.PublicKey
	if plan.FreezeAuthority != "" {
		fa, err := ParseAddress(plan.FreezeAuthority)
		if err != nil {
			return mintdom.BuiltTransaction{}, fmt.Errorf("freeze authority: %w", err)
		}
		freezeAuth = &fa
	}

	programID := TokenProgramFor(plan.Program)
	mintAcc := plan.Mint.Account()

	lamports, err := b.chain.MinimumBalanceForRentExemption(ctx, token.MintAccountSize)
	if err != nil {
		return mintdom.BuiltTransaction{}, fmt.Errorf("mint_tx_builder: rent exemption: %w", err)
	}
	blockhash, err := b.chain.LatestBlockhash(ctx)
	if err != nil {
		return mintdom.BuiltTransaction{}, fmt.Errorf("mint_tx_builder: latest blockhash: %w", err)
	}

	ins := make([]types.Instruction, 0, 3)

	ins = append(ins, system.CreateAccount(system.CreateAccountParam{
		From:     payer,
		New:      mintAcc.PublicKey,
		Owner:    programID,
		Lamports: lamports,
		Space:    token.MintAccountSize,
	}))

	initMint := token.InitializeMint(token.InitializeMintParam{
		Decimals:   plan.Decimals,
		Mint:       mintAcc.PublicKey,
		MintAuth:   mintAuth,
		FreezeAuth: freezeAuth,
	})
	// same instruction layout for both programs; only the target program differs
	initMint.ProgramID = programID
	ins = append(ins, initMint)

	out := mintdom.BuiltTransaction{
		Payer:     payer.ToBase58(),
		Mint:      mintAcc.PublicKey.ToBase58(),
		Program:   plan.Program,
		Blockhash: blockhash,
	}

	if plan.CreateRecipientAccount {
		owner, err := ParseAddress(plan.RecipientOwner)
		if err != nil {
			return mintdom.BuiltTransaction{}, fmt.Errorf("recipient owner: %w", err)
		}
		ata, err := FindAssociatedTokenAddress(owner, mintAcc.PublicKey, programID)
		if err != nil {
			return mintdom.BuiltTransaction{}, fmt.Errorf("mint_tx_builder: derive ATA: %w", err)
		}
		ins = append(ins, buildCreateAssociatedTokenAccountIx(payer, owner, mintAcc.PublicKey, ata, programID))
		out.RecipientTokenAccount = ata.ToBase58()
	}

	signers := []types.Account{}
	if plan.PreSignMint {
		signers = append(signers, mintAcc)
	} else {
		out.RequiredSigners = append(out.RequiredSigners, out.Mint)
	}

	tx, err := types.NewTransaction(types.NewTransactionParam{
		Message: types.NewMessage(types.NewMessageParam{
			FeePayer:        payer,
			RecentBlockhash: blockhash,
			Instructions:    ins,
		}),
		Signers: signers,
	})
	if err != nil {
		return mintdom.BuiltTransaction{}, fmt.Errorf("mint_tx_builder: NewTransaction: %w", err)
	}

	raw, err := tx.Serialize()
	if err != nil {
		return mintdom.BuiltTransaction{}, fmt.Errorf("mint_tx_builder: Serialize: %w", err)
	}
	out.Encoded = domcommon.EncodeBase58(raw)

	b.logger.Info("mint transaction built",
		zap.String("payer", domcommon.MaskShort(out.Payer)),
		zap.String("mint", out.Mint),
		zap.String("program", string(plan.Program)),
		zap.Uint8("decimals", plan.Decimals),
		zap.Int("instructions", len(ins)),
		zap.String("recipientTokenAccount", out.RecipientTokenAccount),
		zap.Bool("mintPreSigned", plan.PreSignMint),
	)

	return out, nil
}

// TokenProgramFor maps the domain program kind to its on-chain id.
func TokenProgramFor(p mintdom.TokenProgram) common.PublicKey {
	if p == mintdom.ProgramToken {
		return common.TokenProgramID
	}
	return Token2022ProgramID
}

// ParseAddress decodes a base58 Solana address and checks it is 32 bytes.
func ParseAddress(s string) (common.PublicKey, error) {
	raw, err := domcommon.DecodeBase58(strings.TrimSpace(s))
	if err != nil {
		return common.PublicKey{}, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	if len(raw) != ed25519.PublicKeySize {
		return common.PublicKey{}, fmt.Errorf("%w: %q has %d bytes", ErrInvalidAddress, s, len(raw))
	}
	return common.PublicKeyFromBytes(raw), nil
}

// FindAssociatedTokenAddress derives the ATA for (owner, mint) under the given token program.
// Seeds: [owner, tokenProgram, mint]; program: associated token account program.
func FindAssociatedTokenAddress(owner, mint, tokenProgram common.PublicKey) (common.PublicKey, error) {
	ata, _, err := common.FindProgramAddress(
		[][]byte{owner.Bytes(), tokenProgram.Bytes(), mint.Bytes()},
		AssociatedTokenProgramID,
	)
	if err != nil {
		return common.PublicKey{}, err
	}
	return ata, nil
}

// buildCreateAssociatedTokenAccountIx builds ATA creation instruction for either token program.
// Accounts:
// 0. [writable,signer] payer
// 1. [writable] associated token account address
// 2. [] owner
// 3. [] mint
// 4. [] system program
// 5. [] token program
// 6. [] rent sysvar
func buildCreateAssociatedTokenAccountIx(payer, owner, mint, ata, tokenProgram common.PublicKey) types.Instruction {
	return types.Instruction{
		ProgramID: AssociatedTokenProgramID,
		Accounts: []types.AccountMeta{
			{PubKey: payer, IsSigner: true, IsWritable: true},
			{PubKey: ata, IsSigner: false, IsWritable: true},
			{PubKey: owner, IsSigner: false, IsWritable: false},
			{PubKey: mint, IsSigner: false, IsWritable: false},
			{PubKey: common.PublicKeyFromString(systemProgramID), IsSigner: false, IsWritable: false},
			{PubKey: tokenProgram, IsSigner: false, IsWritable: false},
			{PubKey: common.PublicKeyFromString(rentSysvarID), IsSigner: false, IsWritable: false},
		},
		// ATA program: Create instruction has empty data (0 bytes)
		Data: []byte{},
	}
}
