package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/alecthomas/kong"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/terraincognita07/moodify/internal/api"
	"github.com/terraincognita07/moodify/internal/cli"
	"github.com/terraincognita07/moodify/internal/config"
	"github.com/terraincognita07/moodify/internal/db"
	"github.com/terraincognita07/moodify/internal/inference"
	"github.com/terraincognita07/moodify/internal/logger"
	"github.com/terraincognita07/moodify/internal/realtime"
	"github.com/terraincognita07/moodify/internal/services"
	"golang.org/x/sync/errgroup"
)

const version = "v0.1.0"

var CLI struct {
	Version kong.VersionFlag

	Serve         serveCmd         `cmd:"" default:"1" help:"Run the HTTP API server."`
	ResetPassword resetPasswordCmd `cmd:"" name:"reset-password" help:"Reset a user's password."`
}

type appContext struct {
	cfg *config.Config
	log *logger.Logger
}

type serveCmd struct{}

type resetPasswordCmd struct {
	Email  string `required:"" help:"Email of the account to reset."`
	Prompt bool   `help:"Type the new password instead of generating a temporary one."`
}

func main() {
	kctx := kong.Parse(&CLI,
		kong.Name("moodify"),
		kong.Description("Mood journal backend: journaling, task spins and sleep tracking."),
		kong.UsageOnError(),
		kong.Vars{"version": version},
	)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log, err := logger.New(logger.Options{Mode: cfg.Env, LogFile: cfg.LogFile})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := kctx.Run(&appContext{cfg: cfg, log: log}); err != nil {
		log.Error("command failed", "command", kctx.Command(), "error", err)
		log.Sync()
		os.Exit(1)
	}
}

func (cmd *resetPasswordCmd) Run(app *appContext) error {
	database, err := db.OpenSQLite(app.cfg.DBPath, app.log)
	if err != nil {
		return fmt.Errorf("database init failed: %w", err)
	}
	return cli.ResetPassword(context.Background(), db.NewUserRepository(database), cli.ResetOptions{
		Email:  cmd.Email,
		Prompt: cmd.Prompt,
	})
}

func (cmd *serveCmd) Run(app *appContext) error {
	cfg, log := app.cfg, app.log
	secretKey, err := config.ResolveSecretKey()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	time.Local = cfg.Location

	port, err := resolvePort(cfg.Port)
	if err != nil {
		return err
	}

	database, err := db.OpenSQLite(cfg.DBPath, log)
	if err != nil {
		return fmt.Errorf("database init failed: %w", err)
	}
	repos := db.NewRepositories(database)

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()

	hub := realtime.NewHub(log)
	if cfg.RedisAddr != "" {
		bus, err := realtime.NewRedisBus(sigCtx, cfg.RedisAddr, cfg.RedisChannel, log)
		if err != nil {
			return fmt.Errorf("redis init failed: %w", err)
		}
		hub.UseBus(bus)
	}

	emotions := inference.NewEmotionClient(cfg.HFBaseURL, cfg.HFToken, cfg.EmotionModel)
	chat := inference.NewChatClient(cfg.ChatBaseURL, cfg.ChatAPIKey, cfg.ChatModel, cfg.ChatTemperature)

	journal := services.NewJournalService(repos.Journal, emotions, chat, hub, log)
	tasks := services.NewTaskService(chat, repos.DailyTasks, journal, hub, cfg.SpinSessionTTL, log)
	notifier := services.NewTelegramNotifier(cfg.TelegramBotToken)

	handler, err := api.NewHandler(secretKey, cfg.CookieSecure, api.Dependencies{
		Auth:    services.NewAuthService(repos.Users, log),
		Account: services.NewAccountService(repos.Users),
		Journal: journal,
		Tasks:   tasks,
		Sleep:   services.NewSleepService(repos.SleepSchedules, repos.SleepLogs, hub),
		Hub:     hub,
		Log:     log,
	})
	if err != nil {
		return fmt.Errorf("handler init failed: %w", err)
	}

	server := newApp(handler)

	group, groupCtx := errgroup.WithContext(sigCtx)
	group.Go(func() error {
		log.Info("moodify listening", "port", port, "db", cfg.DBPath, "tz", cfg.Location.String())
		return server.Listen(":" + port)
	})
	group.Go(func() error {
		<-groupCtx.Done()
		handler.CloseStreams()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.ShutdownWithContext(shutdownCtx)
	})
	group.Go(func() error { return hub.Forward(groupCtx) })
	group.Go(func() error { return tasks.RunSessionSweeper(groupCtx) })
	if notifier.Enabled() {
		reminders := services.NewReminderService(repos.SleepSchedules, repos.Users, notifier, cfg.Location, log)
		group.Go(func() error { return reminders.Run(groupCtx) })
	} else {
		log.Info("bedtime reminders disabled; TELEGRAM_BOT_TOKEN missing")
	}

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("moodify stopped")
	return nil
}

func newApp(handler *api.Handler) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "Moodify " + version,
		DisableStartupMessage: true,
	})
	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(compress.New(compress.Config{
		Next: func(c *fiber.Ctx) bool {
			return strings.HasSuffix(c.Path(), "/stream")
		},
	}))
	api.RegisterRoutes(app, handler)
	return app
}

func resolvePort(raw string) (string, error) {
	port, err := strconv.Atoi(raw)
	if err != nil || port < 1 || port > 65535 {
		return "", fmt.Errorf("invalid PORT %q", raw)
	}
	return strconv.Itoa(port), nil
}
