package app

import (
	"context"
	"fmt"

	"github.com/m3rciful/tosbook/core/bootstrap"
	"github.com/m3rciful/tosbook/core/cmd"
	coretelegram "github.com/m3rciful/tosbook/core/telegram"
	"github.com/m3rciful/tosbook/core/telegram/router"
	tgsender "github.com/m3rciful/tosbook/core/telegram/sender"
	"github.com/m3rciful/tosbook/internal/booking"
	"github.com/m3rciful/tosbook/internal/bot"
	"github.com/m3rciful/tosbook/internal/journal"
	"github.com/m3rciful/tosbook/internal/receipt"
)

// App holds the wired components of the bot.
type App struct {
	cfg      *Config
	infra    *bootstrap.Result
	engine   *booking.Engine
	registry *coretelegram.Registry
	sender   *tgsender.Dispatcher
}

// Bootstrap implements the cmd bootstrap hook.
func Bootstrap(ctx context.Context, carrier cmd.ConfigCarrier) (cmd.TelegramApp, error) {
	cfg, ok := carrier.(*Config)
	if !ok {
		return nil, fmt.Errorf("app: unexpected config type %T", carrier)
	}
	a, err := New(ctx, cfg, nil)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// New initializes the logger, the optional journal database and the engine.
// run overrides the bootstrap pipeline in tests.
func New(ctx context.Context, cfg *Config, run func(context.Context, bootstrap.Options) (*bootstrap.Result, error)) (*App, error) {
	if run == nil {
		run = bootstrap.Run
	}
	infra, err := run(ctx, bootstrap.Options{Config: &cfg.Config, Database: cfg.Database})
	if err != nil {
		return nil, err
	}

	client, err := receipt.New(receipt.Options{URL: cfg.Receipt.URL, Timeout: cfg.Receipt.Timeout()})
	if err != nil {
		_ = infra.Close()
		return nil, err
	}

	var j journal.Journal = journal.Nop{}
	if infra.DB != nil {
		j = journal.NewPostgres(infra.DB)
	}

	a := &App{
		cfg:      cfg,
		infra:    infra,
		registry: coretelegram.NewRegistry(),
		sender:   tgsender.NewDispatcher(tgsender.Options{MaxRetries: 2}),
		engine: booking.NewEngine(booking.EngineOptions{
			Dialog:     booking.NewDialog(booking.DefaultFields(booking.FieldOptions{StrictSchedule: cfg.Booking.StrictSchedule})),
			Dispatcher: journal.Recording(client, j),
		}),
	}

	opts := bot.Options{Engine: a.engine, SendFailures: a.sender.ErrorCount}
	if pg, ok := j.(*journal.Postgres); ok {
		opts.DeliveryStats = pg.Stats
	}
	if err := bot.New(opts).Register(a.registry); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

// Engine exposes the booking engine.
func (a *App) Engine() *booking.Engine { return a.engine }

// TelegramRunOptions implements cmd.TelegramApp.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	routes := router.CommandRoutes(a.registry, router.CommandRouteOptions{AdminID: a.cfg.Telegram.AdminID})
	routes = append(routes, router.TextRoutes(a.registry)...)
	routes = append(routes, router.CallbackRoute(a.registry))

	return coretelegram.RunOptions{
		Config:      &a.cfg.Config,
		Registry:    a.registry,
		Dispatcher:  a.sender,
		Middlewares: coretelegram.DefaultMiddlewares(&a.cfg.Config, bot.OnRateLimited),
		Routes:      routes,
		// acknowledgements of in-flight deliveries go out before the sender stops
		OnStop: func(context.Context, coretelegram.Runtime) error {
			a.engine.Wait()
			return nil
		},
	}, nil
}

// Close releases the database connection and stops the sender.
func (a *App) Close() error {
	a.sender.Close()
	return a.infra.Close()
}
