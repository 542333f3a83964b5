// offersctl drives BOLT12 offers on a Core Lightning node from the command
// line: list and create offers, disable them, and exchange invoices against
// them. Node access is configured through the environment (or a .env file),
// operation inputs through flags.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"golang.org/x/time/rate"

	"clnoffers/internal/backup"
	"clnoffers/internal/bolt12"
	"clnoffers/internal/history"
	"clnoffers/internal/logging"
	"clnoffers/internal/offers"
	"clnoffers/internal/rpc"
)

// Config is loaded from the environment, optionally seeded from a .env file.
type Config struct {
	RestURL      string        `env:"CLN_REST_URL"`
	Rune         string        `env:"CLN_RUNE"`
	RPCTimeout   time.Duration `env:"CLN_RPC_TIMEOUT" envDefault:"30s"`
	RPCRate      float64       `env:"CLN_RPC_RATE" envDefault:"10"`
	RPCBurst     int           `env:"CLN_RPC_BURST" envDefault:"5"`
	ConnectionID string        `env:"CLN_CONNECTION_ID" envDefault:"default"`
	NodeID       string        `env:"CLN_NODE_ID"`

	S3Endpoint string `env:"BACKUP_S3_ENDPOINT"`
	S3KeyID    string `env:"BACKUP_S3_KEY_ID"`
	S3AppKey   string `env:"BACKUP_S3_APP_KEY"`
	S3Bucket   string `env:"BACKUP_S3_BUCKET"`
	S3Prefix   string `env:"BACKUP_S3_PREFIX"`
}

func loadConfig(envPath string) (Config, error) {
	if err := godotenv.Load(envPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, err
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, err
	}
	if cfg.RestURL == "" {
		return Config{}, errors.New("CLN_REST_URL is required")
	}
	if cfg.Rune == "" {
		return Config{}, errors.New("CLN_RUNE is required")
	}
	return cfg, nil
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: offersctl [flags] <command>

commands:
  list              list offers and invoice requests
  create-pay        create a pay offer (-amount, -description, -label, ...)
  disable-pay       disable a pay offer (-id)
  create-withdraw   create an invoice request (-amount, -description, -label, ...)
  disable-withdraw  disable an invoice request (-id)
  fetch             fetch an invoice for an offer (-offer, -amount, ...)
  send              send an invoice against a withdraw offer (-offer, -label, ...)
  pay               pay a fetched bolt12 invoice (-invoice)
  export            export this connection's history snapshot
  errors            print the connection's recent error history`)
	flag.PrintDefaults()
}

func main() {
	envPath := flag.String("env", ".env", "Path to .env file")
	dbPath := flag.String("db", "clnoffers.db", "SQLite history database path")
	backupDir := flag.String("backup-dir", "./snapshots", "Directory for filesystem snapshots")
	useS3 := flag.Bool("s3", false, "Export snapshots to S3 instead of the local filesystem")

	amountFlag := flag.String("amount", "", "Amount in whole sats (empty means any amount where allowed)")
	description := flag.String("description", "", "Offer description")
	issuer := flag.String("issuer", "", "Offer issuer")
	label := flag.String("label", "", "Offer or invoice label")
	quantityMax := flag.Uint64("quantity-max", 0, "Maximum quantity per invoice (pay offers)")
	expiry := flag.Uint64("expiry", 0, "Absolute expiry as a unix timestamp")
	singleUse := flag.Bool("single-use", false, "Offer can be used only once")
	offerFlag := flag.String("offer", "", "BOLT12 offer or invoice request string")
	amountMsats := flag.String("amount-msat", "", "Amount in msats for send (passed through verbatim)")
	timeout := flag.Uint64("timeout", 0, "Timeout in seconds for fetch/send")
	quantity := flag.Uint64("quantity", 0, "Quantity for fetch/send")
	payerNote := flag.String("payer-note", "", "Note attached when fetching an invoice")
	invoice := flag.String("invoice", "", "BOLT12 invoice string to pay")
	id := flag.String("id", "", "Offer or invoice request id to disable")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() != 1 {
		usage()
		os.Exit(2)
	}
	command := flag.Arg(0)

	cfg, err := loadConfig(*envPath)
	if err != nil {
		logging.Internal.Fatalf("config: %v", err)
	}

	st, err := history.NewSQLiteStore(*dbPath)
	if err != nil {
		logging.Internal.Fatalf("failed to open history database: %v", err)
	}
	defer st.Close()

	caller, err := rpc.NewHTTPCaller(rpc.HTTPConfig{
		BaseURL: cfg.RestURL,
		Rune:    cfg.Rune,
		Timeout: cfg.RPCTimeout,
	})
	if err != nil {
		logging.Internal.Fatalf("failed to initialize transport: %v", err)
	}

	limited := rpc.NewRateLimitedCaller(caller, rate.Limit(cfg.RPCRate), cfg.RPCBurst)
	conn := rpc.NewConn(cfg.ConnectionID, cfg.NodeID, limited)

	// Passive error surface, independent of the failing call's own result.
	unsubscribe := conn.Errors().Subscribe(func(ce *rpc.ConnError) {
		logging.Internal.Printf("connection error: %v", ce)
	})
	defer unsubscribe()

	manager := offers.NewManager(conn, bolt12.NewRPCDecoder(conn), offers.WithRecorder(st))

	ctx := context.Background()
	switch command {
	case "list":
		list, err := manager.Get(ctx)
		if err != nil {
			logging.Internal.Fatalf("list failed: %v", err)
		}
		printJSON(list)

	case "create-pay":
		offer, err := manager.CreatePay(ctx, offers.CreatePayOptions{
			AmountSats:     *amountFlag,
			Description:    *description,
			Issuer:         *issuer,
			Label:          *label,
			QuantityMax:    *quantityMax,
			AbsoluteExpiry: *expiry,
			SingleUse:      *singleUse,
		})
		if err != nil {
			logging.Internal.Fatalf("create-pay failed: %v", err)
		}
		printJSON(offer)

	case "disable-pay":
		if err := manager.DisablePay(ctx, *id); err != nil {
			logging.Internal.Fatalf("disable-pay failed: %v", err)
		}

	case "create-withdraw":
		offer, err := manager.CreateWithdraw(ctx, offers.CreateWithdrawOptions{
			AmountSats:     *amountFlag,
			Description:    *description,
			Issuer:         *issuer,
			Label:          *label,
			AbsoluteExpiry: *expiry,
			SingleUse:      *singleUse,
		})
		if err != nil {
			logging.Internal.Fatalf("create-withdraw failed: %v", err)
		}
		printJSON(offer)

	case "disable-withdraw":
		if err := manager.DisableWithdraw(ctx, *id); err != nil {
			logging.Internal.Fatalf("disable-withdraw failed: %v", err)
		}

	case "fetch":
		inv, err := manager.FetchInvoice(ctx, offers.FetchInvoiceOptions{
			Offer:      *offerFlag,
			AmountSats: *amountFlag,
			Quantity:   *quantity,
			Timeout:    *timeout,
			PayerNote:  *payerNote,
		})
		if err != nil {
			logging.Internal.Fatalf("fetch failed: %v", err)
		}
		fmt.Println(inv)

	case "send":
		inv, err := manager.SendInvoice(ctx, offers.SendInvoiceOptions{
			Offer:       *offerFlag,
			Label:       *label,
			AmountMsats: *amountMsats,
			Timeout:     *timeout,
			Quantity:    *quantity,
		})
		if err != nil {
			logging.Internal.Fatalf("send failed: %v", err)
		}
		printJSON(inv)

	case "pay":
		inv, err := manager.PayInvoice(ctx, *invoice)
		if err != nil {
			logging.Internal.Fatalf("pay failed: %v", err)
		}
		printJSON(inv)

	case "export":
		var storage backup.Storage
		if *useS3 {
			storage, err = backup.NewS3Storage(backup.S3Config{
				Endpoint: cfg.S3Endpoint,
				KeyID:    cfg.S3KeyID,
				AppKey:   cfg.S3AppKey,
				Bucket:   cfg.S3Bucket,
				Prefix:   cfg.S3Prefix,
			})
			if err != nil {
				logging.Internal.Fatalf("failed to initialize S3 storage: %v", err)
			}
		} else {
			storage, err = backup.NewFSStorage(*backupDir)
			if err != nil {
				logging.Internal.Fatalf("failed to initialize snapshot directory: %v", err)
			}
		}

		name, err := backup.NewExporter(st, storage).Export(ctx, cfg.ConnectionID)
		if err != nil {
			logging.Internal.Fatalf("export failed: %v", err)
		}
		fmt.Println(name)

	case "errors":
		printJSON(conn.Errors().Recent())

	default:
		usage()
		os.Exit(2)
	}
}

func printJSON(v any) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		logging.Internal.Fatalf("failed to render output: %v", err)
	}
	fmt.Println(string(out))
}
