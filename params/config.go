package params

import (
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
)

// Node configures the process: where state lives and where the gateway
// listens.
type Node struct {
	DBPath     string
	ListenAddr string
	LogFile    string
}

// Engine configures the market engine's deployment identity.
type Engine struct {
	// Admin may create/resolve markets and sweep fees.
	Admin common.Address
	// Self is the engine's own address on the external currency ledger.
	Self common.Address
	// CollateralSymbol is the only currency accepted for deposits.
	CollateralSymbol string
}

type Config struct {
	Node   Node
	Engine Engine
}

func Default() Config {
	return Config{
		Node: Node{
			DBPath:     "./data/engine.db",
			ListenAddr: ":8080",
			LogFile:    "data/node.log",
		},
		Engine: Engine{
			CollateralSymbol: "XUSDC",
		},
	}
}

// LoadFromEnv loads configuration from a .env file (if present) and
// environment variables. Priority: ENV > .env file > defaults.
func LoadFromEnv(envPath string) (Config, error) {
	cfg := Default()

	if envPath != "" {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load()
	}

	if v := os.Getenv("DB_PATH"); v != "" {
		cfg.Node.DBPath = v
	}
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		cfg.Node.ListenAddr = v
	}
	if v := os.Getenv("LOG_FILE"); v != "" {
		cfg.Node.LogFile = v
	}
	if v := os.Getenv("COLLATERAL_SYMBOL"); v != "" {
		cfg.Engine.CollateralSymbol = v
	}

	admin := os.Getenv("ADMIN_ADDRESS")
	if admin == "" {
		return cfg, fmt.Errorf("ADMIN_ADDRESS is required")
	}
	if !common.IsHexAddress(admin) {
		return cfg, fmt.Errorf("ADMIN_ADDRESS %q is not a valid address", admin)
	}
	cfg.Engine.Admin = common.HexToAddress(admin)

	self := os.Getenv("SELF_ADDRESS")
	if self == "" {
		return cfg, fmt.Errorf("SELF_ADDRESS is required")
	}
	if !common.IsHexAddress(self) {
		return cfg, fmt.Errorf("SELF_ADDRESS %q is not a valid address", self)
	}
	cfg.Engine.Self = common.HexToAddress(self)

	return cfg, nil
}
