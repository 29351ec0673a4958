package main

import (
	"errors"
	"fmt"
	"io"
	"math/big"
	"os"
	"text/tabwriter"
	"time"

	"github.com/nspcc-dev/neo-go/pkg/encoding/address"
	"github.com/nspcc-dev/neo-go/pkg/encoding/fixedn"
	"github.com/nspcc-dev/neo-go/pkg/util"
	rpcvault "github.com/nspcc-dev/vault-contract/rpc/vault"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	rpcFlag      = "rpc"
	contractFlag = "contract"
	timeoutFlag  = "timeout"
	debugFlag    = "debug"
	pageFlag     = "page"

	gasDecimals = 8
)

type config struct {
	endpoint string
	contract util.Uint160
	timeout  time.Duration
}

func main() {
	app := &cli.App{
		Name:  "vault-inspect",
		Usage: "Inspect vaults kept by the Vault contract",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     rpcFlag,
				Usage:    "Network address of the Neo RPC server",
				EnvVars:  []string{"VAULT_RPC"},
				Required: true,
			},
			&cli.StringFlag{
				Name:     contractFlag,
				Usage:    "Vault contract address or script hash in LE",
				EnvVars:  []string{"VAULT_CONTRACT"},
				Required: true,
			},
			&cli.DurationFlag{
				Name:  timeoutFlag,
				Usage: "Timeout for dialing and every RPC request",
				Value: 15 * time.Second,
			},
			&cli.BoolFlag{
				Name:  debugFlag,
				Usage: "Enable debug logs",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "Print all vaults with owners and balances",
				Action: listAction,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  pageFlag,
						Usage: "Number of vaults requested at once",
						Value: rpcvault.DefaultPageSize,
					},
				},
			},
			{
				Name:      "show",
				Usage:     "Print owner and balance of the vault",
				ArgsUsage: "<vault>",
				Action:    showAction,
			},
			{
				Name:   "audit",
				Usage:  "Check that the contract holds exactly the sum of vault balances",
				Action: auditAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger(debug bool) (*zap.Logger, error) {
	c := zap.NewProductionConfig()
	c.Encoding = "console"
	c.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	c.DisableStacktrace = true
	if debug {
		c.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}

	return c.Build()
}

// parseHash160 accepts both Neo address and LE script hash.
func parseHash160(s string) (util.Uint160, error) {
	if u, err := address.StringToUint160(s); err == nil {
		return u, nil
	}

	u, err := util.Uint160DecodeStringLE(s)
	if err != nil {
		return util.Uint160{}, fmt.Errorf("neither address nor script hash: %s", s)
	}
	return u, nil
}

// withVault connects to the RPC server and runs f with Vault contract reader.
func withVault(c *cli.Context, f func(*remoteBlockchain, *rpcvault.ContractReader, *zap.Logger) error) error {
	log, err := newLogger(c.Bool(debugFlag))
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	contract, err := parseHash160(c.String(contractFlag))
	if err != nil {
		return fmt.Errorf("invalid contract: %w", err)
	}

	cfg := config{
		endpoint: c.String(rpcFlag),
		contract: contract,
		timeout:  c.Duration(timeoutFlag),
	}

	b, err := newRemoteBlockChain(c.Context, log, cfg)
	if err != nil {
		return fmt.Errorf("init remote blockchain: %w", err)
	}
	defer b.close()

	reader := rpcvault.NewReader(b.actor, cfg.contract)

	v, err := reader.Version()
	if err != nil {
		return fmt.Errorf("get contract version: %w", err)
	}
	log.Debug("vault contract found",
		zap.String("address", address.Uint160ToString(cfg.contract)),
		zap.Stringer("version", v))

	return f(b, reader, log)
}

func listAction(c *cli.Context) error {
	return withVault(c, func(_ *remoteBlockchain, reader *rpcvault.ContractReader, log *zap.Logger) error {
		entries, err := reader.Entries(c.Int(pageFlag))
		if err != nil {
			return fmt.Errorf("list vaults: %w", err)
		}

		log.Info("vaults listed", zap.Int("count", len(entries)))

		w := newTable(c.App.Writer)
		for _, e := range entries {
			balance, err := reader.BalanceOf(e.ID)
			if err != nil {
				return fmt.Errorf("get balance of %s: %w", address.Uint160ToString(e.ID), err)
			}
			printVault(w, e.ID, e.Record.Owner, balance)
		}
		return w.Flush()
	})
}

func showAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("exactly one vault must be specified")
	}

	id, err := parseHash160(c.Args().First())
	if err != nil {
		return fmt.Errorf("invalid vault: %w", err)
	}

	return withVault(c, func(_ *remoteBlockchain, reader *rpcvault.ContractReader, _ *zap.Logger) error {
		owner, err := reader.OwnerOf(id)
		if err != nil {
			return fmt.Errorf("get owner: %w", err)
		}

		balance, err := reader.BalanceOf(id)
		if err != nil {
			return fmt.Errorf("get balance: %w", err)
		}

		w := newTable(c.App.Writer)
		printVault(w, id, owner, balance)
		return w.Flush()
	})
}

func auditAction(c *cli.Context) error {
	return withVault(c, func(b *remoteBlockchain, reader *rpcvault.ContractReader, log *zap.Logger) error {
		snap, err := collectHoldings(b, reader.Hash())
		if err != nil {
			return err
		}

		err = auditHoldings(snap.holdings, snap.total, snap.held)
		if err != nil {
			return fmt.Errorf("state at height %d: %w", snap.height, err)
		}

		log.Info("holding invariant holds",
			zap.Uint32("height", snap.height),
			zap.Int("vaults", len(snap.holdings.records)),
			zap.String("held", fixedn.ToString(snap.held, gasDecimals)))
		return nil
	})
}

func newTable(out io.Writer) *tabwriter.Writer {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "VAULT\tOWNER\tBALANCE")
	return w
}

func printVault(w io.Writer, id, owner util.Uint160, balance *big.Int) {
	fmt.Fprintf(w, "%s\t%s\t%s\n", address.Uint160ToString(id), address.Uint160ToString(owner), fixedn.ToString(balance, gasDecimals))
}
