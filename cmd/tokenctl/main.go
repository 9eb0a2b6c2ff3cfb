// cmd/tokenctl/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	appcfg "github.com/xm-cse/tirios-solanaSW/internal/infra/config"
	"github.com/xm-cse/tirios-solanaSW/internal/platform/di"
	"github.com/xm-cse/tirios-solanaSW/internal/platform/logger"
)

type app struct {
	envFile string
	out     string // "text" | "json"

	cfg    *appcfg.Config
	logger *zap.Logger
}

func main() {
	// Ctrl-C でポーリングを中断できるようにする
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{}
	root := newRootCmd(a)

	err := root.ExecuteContext(ctx)
	if a.logger != nil {
		_ = a.logger.Sync()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err.Error())
		stop()
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "tokenctl",
		Short:         "Create SPL Token-2022 mints paid by a Crossmint custodial wallet",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
	}

	root.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "dotenv file to load (missing file is ignored)")
	root.PersistentFlags().StringVar(&a.out, "out", "text", "output format: text|json")

	root.AddCommand(
		newCreateTokenCmd(a),
		newGetTokenCmd(a),
		newCreateWalletCmd(a),
		newGetWalletCmd(a),
		newKeygenCmd(a),
	)
	return root
}

// init は .env → Config → logger の順に初期化します（必須項目の検証は container 側）。
func (a *app) init() error {
	if err := appcfg.LoadDotenv(a.envFile); err != nil {
		return err
	}
	cfg, err := appcfg.Load()
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logger.New(logger.Config{
		Env:         cfg.LogEnv,
		Level:       cfg.LogLevel,
		ServiceName: "tokenctl",
	})
	if a.out != "text" && a.out != "json" {
		return fmt.Errorf("invalid --out %q (text|json)", a.out)
	}
	return nil
}

func (a *app) container(ctx context.Context) (*di.Container, error) {
	return di.NewContainer(ctx, a.cfg, a.logger)
}

// print は json 指定なら v を、そうでなければ text() の出力を表示します。
func (a *app) print(v any, text func()) error {
	if a.out == "json" {
		b, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(b))
		return nil
	}
	text()
	return nil
}
