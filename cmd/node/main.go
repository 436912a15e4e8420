package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/phoenixwade/xpr-prediction-market-sub000/params"
	"github.com/phoenixwade/xpr-prediction-market-sub000/pkg/api"
	"github.com/phoenixwade/xpr-prediction-market-sub000/pkg/app/predict"
	"github.com/phoenixwade/xpr-prediction-market-sub000/pkg/storage"
	"github.com/phoenixwade/xpr-prediction-market-sub000/pkg/util"
)

func main() {
	cfg, err := params.LoadFromEnv("")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := util.NewLoggerWithFile(cfg.Node.LogFile)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	store, err := storage.Open(cfg.Node.DBPath)
	if err != nil {
		sugar.Fatalw("store_open_failed", "path", cfg.Node.DBPath, "err", err)
	}
	defer store.Close()

	bridge := newBridge(os.Getenv("BRIDGE_URL"), cfg.Engine.CollateralSymbol, sugar)

	app, err := predict.New(predict.Config{
		Admin:            cfg.Engine.Admin,
		Self:             cfg.Engine.Self,
		CollateralSymbol: cfg.Engine.CollateralSymbol,
	}, store, bridge, sugar)
	if err != nil {
		sugar.Fatalw("engine_init_failed", "err", err)
	}

	sugar.Infow("node_started",
		"admin", cfg.Engine.Admin.Hex(),
		"self", cfg.Engine.Self.Hex(),
		"collateral", cfg.Engine.CollateralSymbol,
		"db", cfg.Node.DBPath,
	)

	server := api.NewServer(app, sugar)
	if err := server.Start(cfg.Node.ListenAddr); err != nil {
		sugar.Fatalw("api_server_failed", "err", err)
	}
}

// httpBridge posts outbound transfers to the bridge relayer. Without a
// BRIDGE_URL it degrades to logging, which is enough for a devnet where
// balances only exist inside the engine.
type httpBridge struct {
	url    string
	symbol string
	client *http.Client
	log    *zap.SugaredLogger
}

func newBridge(url, symbol string, log *zap.SugaredLogger) *httpBridge {
	return &httpBridge{
		url:    url,
		symbol: symbol,
		client: &http.Client{Timeout: 10 * time.Second},
		log:    log,
	}
}

func (b *httpBridge) Transfer(to common.Address, amount int64, memo string) error {
	if b.url == "" {
		b.log.Infow("bridge_transfer", "to", to.Hex(), "amount", amount, "memo", memo)
		return nil
	}

	body, err := json.Marshal(map[string]any{
		"to":     to.Hex(),
		"symbol": b.symbol,
		"amount": amount,
		"memo":   memo,
	})
	if err != nil {
		return err
	}
	resp, err := b.client.Post(b.url, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("bridge post: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("bridge rejected transfer: status %d", resp.StatusCode)
	}
	return nil
}
