package protoasm

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/reoring/protoasm/schema"
)

// FXModule provides, from a Config supplied by the application, the logger,
// schema registry (also as Navigator), metrics, Options and ReadOpt. Metrics
// register with the application's prometheus.Registerer when one is provided.
//
//	app := fx.New(
//		fx.Supply(cfg),
//		protoasm.FXModule,
//		fx.Invoke(func(nav protoasm.Navigator, opt protoasm.Options) { ... }),
//	)
var FXModule = fx.Module("protoasm",
	fx.Provide(
		NewLoggerFromConfig,
		NewMetricsFromParams,
		NewOptionsFromConfig,
		Config.ReadOpt,
		Config.Registry,
		func(r *schema.Registry) Navigator { return r },
	),
	fx.Invoke(RegisterLoggerLifecycle),
)

// NewLoggerFromConfig builds the logger from Config.Log.
func NewLoggerFromConfig(c Config) (*zap.Logger, error) { return NewLogger(c.Log) }

// MetricsParams is the fx input of NewMetricsFromParams.
type MetricsParams struct {
	fx.In
	Registerer prometheus.Registerer `optional:"true"`
}

// NewMetricsFromParams creates Metrics registered with the optional
// Registerer.
func NewMetricsFromParams(p MetricsParams) (*Metrics, error) { return NewMetrics(p.Registerer) }

// NewOptionsFromConfig projects c and attaches log and m.
func NewOptionsFromConfig(c Config, log *zap.Logger, m *Metrics) (Options, error) {
	opt, err := c.Options()
	if err != nil {
		return Options{}, err
	}
	opt.Logger, opt.Metrics = log, m
	return opt, nil
}

// RegisterLoggerLifecycle flushes the logger on stop.
func RegisterLoggerLifecycle(lc fx.Lifecycle, log *zap.Logger) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			_ = log.Sync() // stderr sync fails on some platforms
			return nil
		},
	})
}
