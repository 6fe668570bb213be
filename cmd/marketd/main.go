package main

import (
	"flag"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"os"
	"strings"

	"pullmarket/config"
	"pullmarket/core/events"
	"pullmarket/gateway"
	gwmiddleware "pullmarket/gateway/middleware"
	"pullmarket/native/market"
	"pullmarket/observability/logging"
	"pullmarket/rpc"
	"pullmarket/storage"
	"pullmarket/storage/marketstate"
)

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	flag.Parse()

	env := strings.TrimSpace(os.Getenv("MARKET_ENV"))
	logger := logging.Setup("marketd", env)

	cfg, err := config.Load(*configFile)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}

	db, err := storage.NewLevelDB(cfg.DataDir)
	if err != nil {
		panic(fmt.Sprintf("Failed to open database: %v", err))
	}
	defer db.Close()

	store := marketstate.NewStore(db)
	engine := market.NewEngine(store)
	engine.SetEmitter(events.LogEmitter{Logger: logger})
	engine.SetTokenResolver(market.NewStaticTokenResolver())
	engine.SetNativeTransferrer(market.NativeTransferFunc(func(to [20]byte, amount *big.Int) error {
		return fmt.Errorf("native payout rail not configured")
	}))

	owner, err := engine.Owner()
	if err != nil {
		logger.Error("Failed to read ledger owner", slog.Any("error", err))
		os.Exit(1)
	}
	if owner == ([20]byte{}) {
		if err := engine.Initialize(cfg.OwnerAddress(), cfg.FeeRecipientAddress(), cfg.FeeBasisPoints); err != nil {
			logger.Error("Failed to seed ledger state", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("Seeded ledger state",
			slog.String("owner", cfg.Owner),
			slog.String("feeRecipient", cfg.FeeRecipient),
			slog.Uint64("feeBasisPoints", uint64(cfg.FeeBasisPoints)))
	} else {
		logger.Info("Resuming existing ledger state")
	}

	authToken := strings.TrimSpace(os.Getenv(cfg.RPCTokenEnv))
	if authToken == "" {
		logger.Warn("RPC auth token not set; administrative methods are unreachable",
			slog.String("env", cfg.RPCTokenEnv))
	}

	rpcServer := rpc.NewServer(engine, authToken)

	gatewayHandler := gateway.New(gateway.Config{
		RPCHandler:  rpcServer.Handler(),
		RateLimiter: gwmiddleware.NewRateLimiter(gwmiddleware.RateLimit{RequestsPerMinute: 600, Burst: 30}),
	})

	go func() {
		logger.Info("Starting gateway", slog.String("address", cfg.GatewayAddress))
		if err := http.ListenAndServe(cfg.GatewayAddress, gatewayHandler); err != nil {
			logger.Error("Gateway terminated", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	logger.Info("Starting JSON-RPC server", slog.String("address", cfg.RPCAddress))
	if err := rpcServer.Start(cfg.RPCAddress); err != nil {
		logger.Error("RPC server terminated", slog.Any("error", err))
		os.Exit(1)
	}
}
