// SPDX-License-Identifier: MIT

package checkpoint

import (
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Default FileStore prefixes.
const (
	DefaultConfigPrefix = "ckpoint_lat"
	DefaultRNGPrefix    = "ckpoint_rng"
)

type options struct {
	runID        uuid.UUID
	log          *zap.Logger
	configPrefix string
	rngPrefix    string
	inMemory     bool
}

// Option configures a store.
type Option func(*options)

// WithRunID stamps id into every saved configuration.
func WithRunID(id uuid.UUID) Option {
	return func(o *options) { o.runID = id }
}

// WithLogger sets the logger; nil is ignored. BadgerStore forwards the
// database's own messages to it.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// WithPrefixes sets the FileStore file name prefixes. Panics on empty strings.
func WithPrefixes(config, rng string) Option {
	if config == "" || rng == "" || config == rng {
		panic("checkpoint: WithPrefixes needs two distinct non-empty prefixes")
	}

	return func(o *options) { o.configPrefix, o.rngPrefix = config, rng }
}

// WithInMemory opens a BadgerStore without disk persistence (tests).
func WithInMemory() Option {
	return func(o *options) { o.inMemory = true }
}

func buildOptions(opts []Option) options {
	o := options{
		log:          zap.NewNop(),
		configPrefix: DefaultConfigPrefix,
		rngPrefix:    DefaultRNGPrefix,
	}
	for _, opt := range opts {
		opt(&o)
	}

	return o
}
