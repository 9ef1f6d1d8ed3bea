package app

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"e2ee/internal/crypto"
)

// App is a wired application together with its configuration and logger.
type App struct {
	*Wire
	Config Config
	Logger *zap.Logger
}

// New validates cfg, builds the logger and wires the services.
func New(cfg Config) (*App, error) {
	logger, err := NewLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	w, err := NewWire(cfg, logger)
	if err != nil {
		return nil, err
	}
	return &App{Wire: w, Config: cfg, Logger: logger}, nil
}

// Suite returns the suite a new identity is generated with: the first entry
// of every preference list.
func (a *App) Suite() (crypto.SuiteID, error) {
	x, err := a.Config.X3DH(a.Provider)
	if err != nil {
		return crypto.SuiteID{}, err
	}
	return x.Preferred(), nil
}

// Close flushes the logger and releases the stores.
func (a *App) Close() error {
	_ = a.Logger.Sync()
	return a.Wire.Close()
}

// NewLogger returns a console logger at level writing to stderr. Debug
// enables the development encoder.
func NewLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, errors.Wrapf(err, "log level %q", level)
	}
	var cfg zap.Config
	if lvl == zapcore.DebugLevel {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
		cfg.Encoding = "console"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}
