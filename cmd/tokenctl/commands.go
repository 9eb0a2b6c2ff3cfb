// cmd/tokenctl/commands.go
package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	uc "github.com/xm-cse/tirios-solanaSW/internal/application/usecase"
	domcommon "github.com/xm-cse/tirios-solanaSW/internal/domain/common"
	mintdom "github.com/xm-cse/tirios-solanaSW/internal/domain/mint"
	signerdom "github.com/xm-cse/tirios-solanaSW/internal/domain/signer"
	"github.com/xm-cse/tirios-solanaSW/internal/infra/keystore"
	solanainfra "github.com/xm-cse/tirios-solanaSW/internal/infra/solana"
)

// ------------------------------------------------------------
// create-token
// ------------------------------------------------------------

type createTokenFlags struct {
	wallet      string
	decimals    int
	recipient   string
	noATA       bool
	program     string
	mintKey     string
	preSignMint bool
	noFreeze    bool
}

func newCreateTokenCmd(a *app) *cobra.Command {
	f := &createTokenFlags{}

	cmd := &cobra.Command{
		Use:   "create-token",
		Short: "Create a new token mint via the custodial wallet and wait for confirmation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			in, err := f.input(a)
			if err != nil {
				return err
			}

			c, err := a.container(ctx)
			if err != nil {
				return err
			}
			defer c.Close()

			if f.mintKey != "" {
				kp, created, err := c.Keystore.LoadOrCreate(f.mintKey)
				if err != nil {
					return err
				}
				a.logger.Info("mint key", zap.String("name", f.mintKey), zap.Bool("created", created), zap.String("address", kp.Address()))
				in.MintKey = kp
			}

			res, runErr := c.Tokens.Run(ctx, in)
			if res == nil {
				return runErr
			}
			if err := a.print(res, func() { printCreateTokenResult(res) }); err != nil {
				return err
			}
			return runErr
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.wallet, "wallet", "", "existing smart wallet address (empty: create a new one)")
	fl.IntVar(&f.decimals, "decimals", -1, "mint decimals (default TOKEN_DECIMALS)")
	fl.StringVar(&f.recipient, "recipient", "", "owner of the associated token account (default: the wallet)")
	fl.BoolVar(&f.noATA, "no-ata", false, "skip associated token account creation")
	fl.StringVar(&f.program, "program", "token-2022", "token program: token-2022|token")
	fl.StringVar(&f.mintKey, "mint-key", "", "keystore name for the mint keypair (empty: ephemeral)")
	fl.BoolVar(&f.preSignMint, "pre-sign-mint", false, "sign with the mint key locally instead of via approvals")
	fl.BoolVar(&f.noFreeze, "no-freeze", false, "do not set a freeze authority")
	return cmd
}

func (f *createTokenFlags) input(a *app) (uc.CreateTokenInput, error) {
	program, err := mintdom.ParseTokenProgram(f.program)
	if err != nil {
		return uc.CreateTokenInput{}, fmt.Errorf("--program %q: %w", f.program, err)
	}

	// -1 は TOKEN_DECIMALS を使う
	decimals := int(a.cfg.TokenDecimals)
	if f.decimals >= 0 {
		decimals = f.decimals
	}
	if f.decimals < -1 || decimals > 255 {
		return uc.CreateTokenInput{}, fmt.Errorf("--decimals %d out of range (0-255, -1 for TOKEN_DECIMALS)", f.decimals)
	}

	return uc.CreateTokenInput{
		WalletAddress:          strings.TrimSpace(f.wallet),
		Decimals:               uint8(decimals),
		Program:                program,
		CreateRecipientAccount: !f.noATA,
		RecipientOwner:         strings.TrimSpace(f.recipient),
		DisableFreezeAuthority: f.noFreeze,
		PreSignMint:            f.preSignMint,
	}, nil
}

func printCreateTokenResult(r *uc.CreateTokenResult) {
	fmt.Println("✅ token mint submitted")
	fmt.Printf("  wallet:          %s", r.WalletAddress)
	if r.WalletCreated {
		fmt.Print(" (created)")
	}
	fmt.Println()
	fmt.Printf("  mint:            %s\n", r.MintAddress)
	fmt.Printf("  program:         %s\n", r.Program)
	fmt.Printf("  decimals:        %d\n", r.Decimals)
	if r.RecipientTokenAccount != "" {
		fmt.Printf("  token account:   %s\n", r.RecipientTokenAccount)
	}
	fmt.Printf("  transaction id:  %s\n", r.TransactionID)
	fmt.Printf("  status:          %s\n", r.Status)
	if r.OnChainTxID != "" {
		fmt.Printf("  signature:       %s\n", r.OnChainTxID)
	}
	fmt.Printf("  approvals sent:  %d\n", len(r.Approvals))
	if r.AwaitingExternalApproval {
		fmt.Println("  ⚠ no pending approvals were returned; the transaction is waiting for an external signer")
	}
	if r.ExplorerURL != "" {
		fmt.Printf("  explorer:        %s\n", r.ExplorerURL)
	}
}

// get-token は保存済みのミント記録を表示します（FIRESTORE_PROJECT_ID が必要）。
func newGetTokenCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get-token <mint>",
		Short: "Show the stored record of a created mint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := a.container(ctx)
			if err != nil {
				return err
			}
			defer c.Close()

			rec, err := c.Tokens.GetRecord(ctx, args[0])
			if errors.Is(err, mintdom.ErrNotFound) && a.cfg.FirestoreProjectID == "" {
				return fmt.Errorf("%w (mint records are disabled: FIRESTORE_PROJECT_ID is empty)", err)
			}
			if err != nil {
				return err
			}
			return a.print(rec, func() {
				fmt.Printf("mint:            %s\n", rec.MintAddress)
				fmt.Printf("program:         %s\n", rec.Program)
				fmt.Printf("decimals:        %d\n", rec.Decimals)
				fmt.Printf("payer wallet:    %s\n", rec.PayerWallet)
				if rec.RecipientTokenAccount != "" {
					fmt.Printf("token account:   %s\n", rec.RecipientTokenAccount)
				}
				fmt.Printf("transaction id:  %s\n", rec.TransactionID)
				fmt.Printf("status:          %s\n", rec.Status)
				if rec.OnChainTxID != "" {
					fmt.Printf("signature:       %s\n", rec.OnChainTxID)
				}
				fmt.Printf("cluster:         %s\n", rec.Cluster)
				fmt.Printf("created at:      %s\n", rec.CreatedAt.Format(time.RFC3339))
			})
		},
	}
}

// ------------------------------------------------------------
// create-wallet / get-wallet
// ------------------------------------------------------------

func newCreateWalletCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "create-wallet",
		Short: "Create a smart wallet administered by WALLET_SECRET_KEY",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := a.container(ctx)
			if err != nil {
				return err
			}
			defer c.Close()

			w, err := c.Wallets.Create(ctx)
			if err != nil {
				return err
			}
			return a.print(w, func() {
				fmt.Println("✅ wallet created")
				fmt.Printf("  address:      %s\n", w.Address)
				fmt.Printf("  type:         %s\n", w.Type)
				fmt.Printf("  admin signer: %s\n", w.AdminSigner.Locator)
				fmt.Printf("  explorer:     %s\n", a.cfg.ExplorerURL(w.Address))
			})
		},
	}
}

func newGetWalletCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get-wallet <locator>",
		Short: "Show a smart wallet by address or locator",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := a.container(ctx)
			if err != nil {
				return err
			}
			defer c.Close()

			w, err := c.Wallets.Get(ctx, args[0])
			if err != nil {
				return err
			}
			return a.print(w, func() {
				fmt.Printf("address:      %s\n", w.Address)
				fmt.Printf("type:         %s\n", w.Type)
				if w.AdminSigner.Locator != "" {
					fmt.Printf("admin signer: %s\n", w.AdminSigner.Locator)
				}
			})
		},
	}
}

// ------------------------------------------------------------
// keygen
// ------------------------------------------------------------

var errKeygenTarget = errors.New("keygen: --secret-project and --secret-id must be set together")

type keygenOutput struct {
	Name        string `json:"name,omitempty"`
	Address     string `json:"address"`
	Created     bool   `json:"created"`
	Location    string `json:"location"`
	SecretKey   string `json:"secretKey,omitempty"`
	KeypairJSON string `json:"keypairJson,omitempty"`
}

func newKeygenCmd(a *app) *cobra.Command {
	var (
		secretProject string
		secretID      string
		printSecret   bool
	)

	cmd := &cobra.Command{
		Use:   "keygen [name]",
		Short: "Create (or reuse) a Solana keypair in the local keystore or Secret Manager",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if (secretProject == "") != (secretID == "") {
				return errKeygenTarget
			}

			var (
				kp  signerdom.KeyPair
				out keygenOutput
			)

			if secretProject != "" {
				store, err := solanainfra.NewSignerSecretStoreSM(ctx, a.cfg.GCPCreds, a.logger)
				if err != nil {
					return err
				}
				defer store.Close()

				var version string
				kp, version, err = store.OpenKeyPair(ctx, secretProject, secretID)
				if err != nil {
					return err
				}
				out = keygenOutput{Name: secretID, Location: version}
			} else {
				name := "admin"
				if len(args) == 1 {
					name = args[0]
				}
				ks := keystore.NewFileKeystore(a.cfg.KeysDir, a.logger)
				k, created, err := ks.LoadOrCreate(name)
				if err != nil {
					return err
				}
				kp = k
				out = keygenOutput{Name: name, Created: created, Location: ks.Dir()}
			}

			out.Address = kp.Address()
			if printSecret {
				out.SecretKey = domcommon.EncodeBase58(kp.Secret())
				b, err := solanainfra.EncodeKeypairJSON(kp)
				if err != nil {
					return err
				}
				out.KeypairJSON = string(b)
			}

			return a.print(out, func() {
				fmt.Printf("public key: %s\n", out.Address)
				fmt.Printf("stored in:  %s\n", out.Location)
				if out.SecretKey != "" {
					fmt.Printf("secret key: %s\n", out.SecretKey)
					fmt.Println("⚠ keep the secret key private; set it as WALLET_SECRET_KEY to use it as admin signer")
				}
			})
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&secretProject, "secret-project", "", "GCP project for Secret Manager storage")
	fl.StringVar(&secretID, "secret-id", "", "Secret Manager secret id")
	fl.BoolVar(&printSecret, "print-secret", false, "print the base58 secret key and keypair JSON")
	return cmd
}
