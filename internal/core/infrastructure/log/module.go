package log

import (
	"fmt"

	logconfig "github.com/weisyn/keyring/internal/config/log"
	"github.com/weisyn/keyring/pkg/interfaces/config"
	logInterface "github.com/weisyn/keyring/pkg/interfaces/infrastructure/log"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// ModuleParams log module inputs.
type ModuleParams struct {
	fx.In

	Provider config.Provider
}

// ModuleOutput log module outputs.
type ModuleOutput struct {
	fx.Out

	Logger    logInterface.Logger
	ZapLogger *zap.Logger
}

// Module returns the log fx module.
func Module() fx.Option {
	return fx.Module("log",
		fx.Provide(ProvideServices),
		fx.Invoke(func(lc fx.Lifecycle, logger logInterface.Logger) {
			lc.Append(fx.StopHook(func() {
				// stderr/stdout sync errors are not actionable
				_ = logger.Sync()
			}))
		}),
	)
}

// ProvideServices builds the logger from configuration and installs it as the
// global logger.
func ProvideServices(params ModuleParams) (ModuleOutput, error) {
	logger, err := New(logconfig.NewFromOptions(params.Provider.GetLog()))
	if err != nil {
		return ModuleOutput{}, fmt.Errorf("create logger from config: %w", err)
	}
	SetLogger(logger)
	return ModuleOutput{
		Logger:    logger,
		ZapLogger: logger.GetZapLogger(),
	}, nil
}

// NewModuleLogger returns baseLogger tagged with a module field.
func NewModuleLogger(baseLogger logInterface.Logger, module string) logInterface.Logger {
	return OrNop(baseLogger).With("module", module)
}
