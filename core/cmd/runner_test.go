package cmd

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreconfig "github.com/m3rciful/tosbook/core/config"
	coretelegram "github.com/m3rciful/tosbook/core/telegram"
)

type fakeConfig struct{ core *coreconfig.Config }

func (f fakeConfig) CoreConfig() *coreconfig.Config { return f.core }

type fakeApp struct {
	closed bool
	hooks  []string
}

func (a *fakeApp) TelegramRunOptions() (coretelegram.RunOptions, error) {
	return coretelegram.RunOptions{
		OnStart: func(context.Context, coretelegram.Runtime) error {
			a.hooks = append(a.hooks, "app.start")
			return nil
		},
	}, nil
}

func (a *fakeApp) Close() error {
	a.closed = true
	return nil
}

func TestRunContextWiresHooks(t *testing.T) {
	t.Setenv("TOSBOOK_TEST_CONFIG", "config.yaml")
	app := &fakeApp{}
	var loadedPath string

	err := RunContext(context.Background(), Options{
		ConfigEnvVar: "TOSBOOK_TEST_CONFIG",
		LoadConfig: func(path string) (ConfigCarrier, error) {
			loadedPath = path
			return fakeConfig{core: &coreconfig.Config{}}, nil
		},
		Bootstrap: func(context.Context, ConfigCarrier) (TelegramApp, error) {
			return app, nil
		},
		ShutdownLogger: func() error { return nil },
		RunTelegram: func(ctx context.Context, opts coretelegram.RunOptions) error {
			require.NoError(t, opts.OnStart(ctx, coretelegram.Runtime{}))
			require.NoError(t, opts.OnStop(ctx, coretelegram.Runtime{}))
			return nil
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "config.yaml", loadedPath)
	assert.Equal(t, []string{"app.start"}, app.hooks)
	assert.True(t, app.closed)
}

func TestRunContextErrors(t *testing.T) {
	assert.Error(t, RunContext(context.Background(), Options{}))

	t.Setenv("TOSBOOK_TEST_CONFIG", "")
	err := RunContext(context.Background(), Options{
		ConfigEnvVar: "TOSBOOK_TEST_CONFIG",
		LoadConfig:   func(string) (ConfigCarrier, error) { return nil, errors.New("unused") },
		Bootstrap:    func(context.Context, ConfigCarrier) (TelegramApp, error) { return nil, nil },
	})
	assert.ErrorContains(t, err, "config path not provided")

	err = RunContext(context.Background(), Options{
		DefaultConfigPath: "missing.yaml",
		ConfigEnvVar:      "TOSBOOK_TEST_CONFIG",
		LoadConfig:        func(string) (ConfigCarrier, error) { return nil, errors.New("no such file") },
		Bootstrap:         func(context.Context, ConfigCarrier) (TelegramApp, error) { return nil, nil },
	})
	assert.ErrorContains(t, err, "failed to load config")
}
