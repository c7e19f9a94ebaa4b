package emulator

import (
	gethVM "github.com/ethereum/go-ethereum/core/vm"
	gethParams "github.com/ethereum/go-ethereum/params"
)

// Config sets the required parameters for running transactions
type Config struct {
	// Chain Config
	ChainConfig *gethParams.ChainConfig
	// EVMConfig is the config used when building the evm
	EVMConfig gethVM.Config
	// FundSenders credits each sender, inside its own fork, with enough balance
	// to cover gas*price+value before the transaction runs
	FundSenders bool
}

func defaultConfig() *Config {
	return &Config{
		ChainConfig: gethParams.MainnetChainConfig,
		EVMConfig:   gethVM.Config{},
	}
}

// NewConfig initializes a new config
func NewConfig(opts ...Option) *Config {
	ctx := defaultConfig()
	for _, applyOption := range opts {
		ctx = applyOption(ctx)
	}
	return ctx
}

// Option is a function that updates the config
type Option func(*Config) *Config

// WithChainConfig sets the chain config used to select the active forks
func WithChainConfig(cc *gethParams.ChainConfig) Option {
	return func(c *Config) *Config {
		c.ChainConfig = cc
		return c
	}
}

// WithEVMConfig sets the config of the evm interpreter
func WithEVMConfig(cfg gethVM.Config) Option {
	return func(c *Config) *Config {
		c.EVMConfig = cfg
		return c
	}
}

// WithSenderFunding enables or disables crediting senders before execution
func WithSenderFunding(enabled bool) Option {
	return func(c *Config) *Config {
		c.FundSenders = enabled
		return c
	}
}
