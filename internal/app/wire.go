package app

import (
	"go.uber.org/zap"

	"e2ee/internal/crypto"
	"e2ee/internal/domain"
	identitysvc "e2ee/internal/services/identity"
	messagesvc "e2ee/internal/services/message"
	prekeysvc "e2ee/internal/services/prekey"
	sessionsvc "e2ee/internal/services/session"
	"e2ee/internal/store"
	"e2ee/internal/tunnel"
)

// Wire bundles all stores and services for the CLI.
type Wire struct {
	Provider *crypto.Provider
	Stores   *store.Stores
	Identity domain.IdentityService
	Prekeys  domain.PreKeyService
	Sessions *sessionsvc.Service
	Messages domain.MessageService
}

// NewWire constructs the dependency graph from cfg. The caller owns the
// returned Wire and must Close it.
func NewWire(cfg Config, logger *zap.Logger) (*Wire, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	provider := crypto.NewProvider()
	x3dhCfg, err := cfg.X3DH(provider)
	if err != nil {
		return nil, err
	}
	mode, err := tunnel.ParseMode(cfg.Mode)
	if err != nil {
		return nil, err
	}

	stores, err := store.Open(store.Backend(cfg.Storage), cfg.Home, cfg.KDF)
	if err != nil {
		return nil, err
	}

	// High-level services
	identitySvc := identitysvc.New(stores.Identity, provider, logger)
	prekeySvc := prekeysvc.New(stores.Identity, stores.PreKeys, provider, logger)
	sessionSvc := sessionsvc.New(x3dhCfg, stores.Identity, stores.PreKeys, stores.Sessions,
		sessionsvc.Options{Limits: cfg.Limits(), Mode: mode}, logger)
	messageSvc := messagesvc.New(sessionSvc, stores.Sessions, logger)

	return &Wire{
		Provider: provider,
		Stores:   stores,
		Identity: identitySvc,
		Prekeys:  prekeySvc,
		Sessions: sessionSvc,
		Messages: messageSvc,
	}, nil
}

// Close releases the stores.
func (w *Wire) Close() error { return w.Stores.Close() }
