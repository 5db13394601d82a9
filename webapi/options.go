package webapi

import (
	"github.com/arcadialabs-io/actionbridge/core/dispatch"
	"github.com/arcadialabs-io/actionbridge/core/ingress"
	"github.com/arcadialabs-io/actionbridge/core/ledger"
)

type Config struct {
	Gate       *ingress.Gate
	Dispatcher *dispatch.Dispatcher
	Ledger     *ledger.Store
}

type Option func(*Config)

func WithGate(g *ingress.Gate) Option {
	return func(c *Config) {
		c.Gate = g
	}
}

func WithDispatcher(d *dispatch.Dispatcher) Option {
	return func(c *Config) {
		c.Dispatcher = d
	}
}

func WithLedger(l *ledger.Store) Option {
	return func(c *Config) {
		c.Ledger = l
	}
}

func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}

func NewConfig(opts ...Option) *Config {
	c := &Config{}
	c.Apply(opts...)
	return c
}
