package protoasm_test

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"

	"github.com/reoring/protoasm"
)

func TestFXModule(t *testing.T) {
	reg := prometheus.NewRegistry()
	cfg := protoasm.Config{
		Mode: "compatible",
		Read: protoasm.ReadConfig{MaxDepth: 16, DuplicateKeys: "error"},
		Log:  protoasm.LogConfig{Level: protoasm.LogError},
	}

	var (
		nav protoasm.Navigator
		opt protoasm.Options
		ro  protoasm.ReadOpt
		log *zap.Logger
	)
	app := fxtest.New(t,
		fx.Supply(cfg),
		fx.Provide(func() prometheus.Registerer { return reg }),
		protoasm.FXModule,
		fx.Populate(&nav, &opt, &ro, &log),
	)
	app.RequireStart()

	require.NotNil(t, nav)
	require.NotNil(t, log)
	assert.Equal(t, protoasm.Compatible, opt.Mode)
	assert.Same(t, log, opt.Logger)
	require.NotNil(t, opt.Metrics)
	assert.Equal(t, 16, ro.MaxDepth)
	assert.Equal(t, protoasm.Error, ro.Strictness.OnDuplicateKey)

	a := protoasm.NewAssembler(nav, opt)
	out, err := protoasm.ReadNamed(context.Background(), a,
		protoasm.JSONBytes([]byte(`{"google.protobuf.FileDescriptorSet": {"file": [{"name": "a.proto", "unknown": 1}]}}`)), ro)
	require.NoError(t, err)
	assert.Len(t, out, 1)
	assert.Equal(t, 1.0, counterValue(t, reg, "protoasm_assemblies_total"))
	assert.Equal(t, 1.0, counterValue(t, reg, "protoasm_unknown_fields_total"))

	app.RequireStop()
}

func TestFXModule_InvalidConfig(t *testing.T) {
	app := fx.New(
		fx.NopLogger,
		fx.Supply(protoasm.Config{Mode: "loose"}),
		protoasm.FXModule,
		fx.Invoke(func(protoasm.Options) {}),
	)
	assert.Error(t, app.Err())
}
