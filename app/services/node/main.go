package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/ardanlabs/conf/v3"
	"github.com/ardanlabs/tnb/app/services/node/handlers"
	"github.com/ardanlabs/tnb/business/core/ledger"
	"github.com/ardanlabs/tnb/business/core/ledger/db"
	"github.com/ardanlabs/tnb/business/core/ledger/genesis"
	"github.com/ardanlabs/tnb/foundation/events"
	"github.com/ardanlabs/tnb/foundation/keystore"
	"github.com/ardanlabs/tnb/foundation/logger"
	"github.com/ardanlabs/tnb/foundation/nameservice"
	"github.com/ardanlabs/tnb/foundation/tnb/models"
	"github.com/ardanlabs/tnb/foundation/tnb/nodes"
	"go.uber.org/zap"
)

// build is the git version of this program. It is set using build flags in the makefile.
var build = "develop"

func main() {

	// Construct the application logger.
	log, err := logger.New("NODE")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer log.Sync()

	// Perform the startup and shutdown sequence.
	if err := run(log); err != nil {
		log.Errorw("startup", "ERROR", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(log *zap.SugaredLogger) error {

	// =========================================================================
	// Configuration

	cfg := struct {
		conf.Version
		Web struct {
			ReadTimeout     time.Duration `conf:"default:5s"`
			WriteTimeout    time.Duration `conf:"default:10s"`
			IdleTimeout     time.Duration `conf:"default:120s"`
			ShutdownTimeout time.Duration `conf:"default:20s"`
			DebugHost       string        `conf:"default:0.0.0.0:7080"`
			BankHost        string        `conf:"default:0.0.0.0:8080"`
			ValidatorHost   string        `conf:"default:0.0.0.0:9080"`
			PublicIP        string        `conf:"default:127.0.0.1"`
			Protocol        string        `conf:"default:http"`
			CORSOrigins     []string      `conf:"default:*"`
		}
		State struct {
			GenesisPath   string `conf:"default:zblock/genesis.json"`
			DBPath        string `conf:"default:zblock/blocks.db"`
			BankName      string `conf:"default:bank"`
			ValidatorName string `conf:"default:validator"`
		}
		Keystore struct {
			Folder     string `conf:"default:zblock/accounts/"`
			Passphrase string `conf:"mask"`
			Light      bool   `conf:"default:true"`
		}
	}{
		Version: conf.Version{
			Build: build,
			Desc:  "development node for thenewboston network",
		},
	}

	const prefix = "NODE"
	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	// =========================================================================
	// App Starting

	log.Infow("starting service", "version", build)
	defer log.Infow("shutdown complete")

	out, err := conf.String(&cfg)
	if err != nil {
		return fmt.Errorf("generating config for output: %w", err)
	}
	log.Infow("startup", "config", out)

	// =========================================================================
	// Node Identities

	// The bank and validator sign with their node identifiers. The keys are
	// created the first time the node starts.
	ks := keystore.New(cfg.Keystore.Folder, cfg.Keystore.Light)

	bankNID, created, err := ks.LoadOrCreate(cfg.State.BankName, cfg.Keystore.Passphrase)
	if err != nil {
		return fmt.Errorf("loading bank node identifier: %w", err)
	}
	log.Infow("startup", "status", "bank identity", "node_identifier", bankNID.AccountNumber(), "created", created)

	pvNID, created, err := ks.LoadOrCreate(cfg.State.ValidatorName, cfg.Keystore.Passphrase)
	if err != nil {
		return fmt.Errorf("loading validator node identifier: %w", err)
	}
	log.Infow("startup", "status", "validator identity", "node_identifier", pvNID.AccountNumber(), "created", created)

	// =========================================================================
	// Name Service Support

	// The nameservice package provides name resolution for account numbers.
	// The names come from the key files in the keystore folder.
	ns, err := nameservice.New(ks)
	if err != nil {
		return fmt.Errorf("unable to load account name service: %w", err)
	}

	for accountNumber, name := range ns.Copy() {
		log.Infow("startup", "status", "nameservice", "name", name, "account", accountNumber)
	}

	// =========================================================================
	// Ledger Support

	gen, err := genesis.Load(cfg.State.GenesisPath)
	if err != nil {
		return fmt.Errorf("loading genesis: %w", err)
	}

	store, err := db.Open(cfg.State.DBPath)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer store.Close()

	// The ledger accepts a function of this signature to allow the
	// application to log. These raw messages are also sent to any websocket
	// client that is connected into the system through the events package.
	evts := events.New()
	ev := func(v string, args ...any) {
		s := fmt.Sprintf(v, args...)
		log.Infow(s, "traceid", "00000000-0000-0000-0000-000000000000")
		evts.Send(s)
	}

	ldg, err := ledger.New(context.Background(), ledger.Config{
		Genesis:            gen,
		Storer:             store,
		BankNodeIdentifier: bankNID.AccountNumber(),
		EvHandler:          ev,
	})
	if err != nil {
		return fmt.Errorf("starting ledger: %w", err)
	}

	// =========================================================================
	// Node Configs

	bankPort, err := hostPort(cfg.Web.BankHost)
	if err != nil {
		return err
	}

	pvPort, err := hostPort(cfg.Web.ValidatorHost)
	if err != nil {
		return err
	}

	pvCfg := nodes.ConfigResponse{
		AccountNumber:         gen.PrimaryValidator.AccountNumber,
		IPAddress:             cfg.Web.PublicIP,
		NodeIdentifier:        pvNID.AccountNumber(),
		Port:                  pvPort,
		Protocol:              cfg.Web.Protocol,
		Version:               build,
		DefaultTransactionFee: gen.PrimaryValidator.DefaultTransactionFee,
		NodeType:              models.PrimaryValidator,
	}

	bankCfg := nodes.ConfigResponse{
		PrimaryValidator: &nodes.PrimaryValidatorConfig{
			AccountNumber:         pvCfg.AccountNumber,
			IPAddress:             pvCfg.IPAddress,
			NodeIdentifier:        pvCfg.NodeIdentifier,
			Port:                  pvCfg.Port,
			Protocol:              pvCfg.Protocol,
			Version:               pvCfg.Version,
			DefaultTransactionFee: pvCfg.DefaultTransactionFee,
			Trust:                 "100.00",
		},
		AccountNumber:         gen.Bank.AccountNumber,
		IPAddress:             cfg.Web.PublicIP,
		NodeIdentifier:        bankNID.AccountNumber(),
		Port:                  bankPort,
		Protocol:              cfg.Web.Protocol,
		Version:               build,
		DefaultTransactionFee: gen.Bank.DefaultTransactionFee,
		NodeType:              models.Bank,
	}

	// =========================================================================
	// Start Debug Service

	log.Infow("startup", "status", "debug router started", "host", cfg.Web.DebugHost)

	debugMux := handlers.DebugMux(build, log, store)

	// Not concerned with shutting this down with load shedding.
	go func() {
		if err := http.ListenAndServe(cfg.Web.DebugHost, debugMux); err != nil {
			log.Errorw("shutdown", "status", "debug router closed", "host", cfg.Web.DebugHost, "ERROR", err)
		}
	}()

	// =========================================================================
	// Service Start/Stop Support

	// Make a channel to listen for an interrupt or terminate signal from the OS.
	// Use a buffered channel because the signal package requires it.
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	// Make a channel to listen for errors coming from the listener. Use a
	// buffered channel so the goroutine can exit if we don't collect this error.
	serverErrors := make(chan error, 1)

	// =========================================================================
	// Start Bank Service

	log.Infow("startup", "status", "initializing bank API support")

	bankMux := handlers.BankMux(handlers.MuxConfig{
		Shutdown:    shutdown,
		Log:         log,
		Ledger:      ldg,
		NodeConfig:  bankCfg,
		Evts:        evts,
		CORSOrigins: cfg.Web.CORSOrigins,
	})

	bank := http.Server{
		Addr:         cfg.Web.BankHost,
		Handler:      bankMux,
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
		ErrorLog:     zap.NewStdLog(log.Desugar()),
	}

	go func() {
		log.Infow("startup", "status", "bank api router started", "host", bank.Addr)
		serverErrors <- bank.ListenAndServe()
	}()

	// =========================================================================
	// Start Validator Service

	log.Infow("startup", "status", "initializing validator API support")

	validatorMux := handlers.ValidatorMux(handlers.MuxConfig{
		Shutdown:    shutdown,
		Log:         log,
		Ledger:      ldg,
		NodeConfig:  pvCfg,
		CORSOrigins: cfg.Web.CORSOrigins,
	})

	validator := http.Server{
		Addr:         cfg.Web.ValidatorHost,
		Handler:      validatorMux,
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
		ErrorLog:     zap.NewStdLog(log.Desugar()),
	}

	go func() {
		log.Infow("startup", "status", "validator api router started", "host", validator.Addr)
		serverErrors <- validator.ListenAndServe()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		log.Infow("shutdown", "status", "shutdown started", "signal", sig)
		defer log.Infow("shutdown", "status", "shutdown complete", "signal", sig)

		// Release any web sockets that are currently active.
		log.Infow("shutdown", "status", "shutdown web socket channels")
		evts.Shutdown()

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancel()

		log.Infow("shutdown", "status", "shutdown validator API started")
		if err := validator.Shutdown(ctx); err != nil {
			validator.Close()
			return fmt.Errorf("could not stop validator service gracefully: %w", err)
		}

		log.Infow("shutdown", "status", "shutdown bank API started")
		if err := bank.Shutdown(ctx); err != nil {
			bank.Close()
			return fmt.Errorf("could not stop bank service gracefully: %w", err)
		}
	}

	return nil
}

func hostPort(host string) (uint16, error) {
	_, port, err := net.SplitHostPort(host)
	if err != nil {
		return 0, fmt.Errorf("parsing host %q: %w", host, err)
	}

	p, err := strconv.ParseUint(port, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("parsing port %q: %w", port, err)
	}

	return uint16(p), nil
}
