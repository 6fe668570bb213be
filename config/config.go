package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/ethereum/go-ethereum/common"
)

const maxFeeBasisPoints = 10_000

type Config struct {
	RPCAddress     string `toml:"RPCAddress"`
	GatewayAddress string `toml:"GatewayAddress"`
	DataDir        string `toml:"DataDir"`
	NetworkName    string `toml:"NetworkName"`
	RPCTokenEnv    string `toml:"RPCTokenEnv"`
	Owner          string `toml:"Owner"`
	FeeRecipient   string `toml:"FeeRecipient"`
	FeeBasisPoints uint32 `toml:"FeeBasisPoints"`
}

// Load loads the configuration from the given path, creating a commented
// default file when none exists yet.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}

	applyDefaults(cfg)
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.RPCAddress) == "" {
		cfg.RPCAddress = "127.0.0.1:8645"
	}
	if strings.TrimSpace(cfg.GatewayAddress) == "" {
		cfg.GatewayAddress = "127.0.0.1:8680"
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		cfg.DataDir = "./marketdata"
	}
	if strings.TrimSpace(cfg.NetworkName) == "" {
		cfg.NetworkName = "market-local"
	}
	if strings.TrimSpace(cfg.RPCTokenEnv) == "" {
		cfg.RPCTokenEnv = "MARKET_RPC_TOKEN"
	}
}

// Validate checks the bootstrap parameters. The owner and fee recipient seed
// the ledger on first run only; later changes happen through administrative
// operations, not the config file.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("config: nil config")
	}
	if err := validateAddress("Owner", c.Owner); err != nil {
		return err
	}
	if err := validateAddress("FeeRecipient", c.FeeRecipient); err != nil {
		return err
	}
	if c.FeeBasisPoints > maxFeeBasisPoints {
		return fmt.Errorf("config: FeeBasisPoints %d exceeds %d", c.FeeBasisPoints, maxFeeBasisPoints)
	}
	return nil
}

// OwnerAddress returns the parsed bootstrap owner.
func (c *Config) OwnerAddress() [20]byte {
	return common.HexToAddress(c.Owner)
}

// FeeRecipientAddress returns the parsed bootstrap fee recipient.
func (c *Config) FeeRecipientAddress() [20]byte {
	return common.HexToAddress(c.FeeRecipient)
}

func validateAddress(field, value string) error {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fmt.Errorf("config: %s is required", field)
	}
	if !common.IsHexAddress(trimmed) {
		return fmt.Errorf("config: %s is not a valid hex address", field)
	}
	if common.HexToAddress(trimmed) == (common.Address{}) {
		return fmt.Errorf("config: %s must not be the zero address", field)
	}
	return nil
}

func createDefault(path string) (*Config, error) {
	cfg := &Config{FeeBasisPoints: 100}
	applyDefaults(cfg)

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if _, err := f.WriteString("# marketd configuration\n# Owner and FeeRecipient seed the ledger on first start.\n\n"); err != nil {
		return nil, err
	}
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
