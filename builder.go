package goSession

import (
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/MrEthical07/goSession/credential"
	"github.com/MrEthical07/goSession/policy"
	"github.com/MrEthical07/goSession/storage"
)

// Builder defines a public type used by goSession APIs.
//
// Builder instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Builder struct {
	config Config
	api    AuthAPI
	medium storage.Medium
	logger zerolog.Logger
	clock  func() time.Time

	built bool
}

// New describes the new operation and its observable behavior.
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
		logger: zerolog.Nop(),
	}
}

// WithConfig describes the withconfig operation and its observable behavior.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithAPI describes the withapi operation and its observable behavior.
//
// If the provided client also implements [SubscriptionAPI], the capability is
// detected here, once; the Manager never probes per call.
func (b *Builder) WithAPI(api AuthAPI) *Builder {
	b.api = api
	return b
}

// WithStorage describes the withstorage operation and its observable behavior.
//
// Absent a medium, credentials are confined to process memory and "remember
// me" degrades to a session-lifetime login.
func (b *Builder) WithStorage(medium storage.Medium) *Builder {
	b.medium = medium
	return b
}

// WithLogger describes the withlogger operation and its observable behavior.
func (b *Builder) WithLogger(logger zerolog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithClock describes the withclock operation and its observable behavior.
//
// Intended for tests; production builds use the wall clock.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.clock = now
	return b
}

// Build validates the configuration and assembles the Manager. Build is
// one-shot: a Builder cannot produce a second Manager.
func (b *Builder) Build() (*Manager, error) {
	if b.built {
		return nil, errors.New("builder already built")
	}
	if b.api == nil {
		return nil, errors.New("auth API client is required")
	}
	if err := b.config.Validate(); err != nil {
		return nil, err
	}
	b.built = true

	clock := b.clock
	if clock == nil {
		clock = time.Now
	}

	subAPI, _ := b.api.(SubscriptionAPI)

	m := &Manager{
		config:  b.config,
		api:     b.api,
		subAPI:  subAPI,
		log:     b.logger,
		metrics: NewMetrics(b.config.Metrics),
		creds:   credential.NewStore(b.medium, b.config.Credentials.ExpirySkew, clock, b.logger),
		state:   StateUnknown,
		sub:     policy.DefaultSubscription(),
		ready:   make(chan struct{}),
	}
	return m, nil
}
