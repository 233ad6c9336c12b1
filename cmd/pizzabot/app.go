package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"pizzabot/internal/ai"
	"pizzabot/internal/bot"
	"pizzabot/internal/config"
	"pizzabot/internal/infra"
	"pizzabot/internal/maps"
	"pizzabot/internal/messaging"
	"pizzabot/internal/messaging/facebook"
	"pizzabot/internal/messaging/telegram"
	"pizzabot/internal/modules/aiusage"
	"pizzabot/internal/modules/catalog"
	"pizzabot/internal/modules/order"
	"pizzabot/internal/modules/payment"
	"pizzabot/internal/modules/pricing"
	"pizzabot/internal/modules/reminder"
	"pizzabot/internal/modules/session"
	"pizzabot/internal/types"
)

// app is the wired process shared by both commands.
type app struct {
	cfg       config.Config
	log       *slog.Logger
	db        *pgxpool.Pool
	redis     *redis.Client
	gemini    *ai.GeminiProvider
	engine    *bot.Engine
	reminders *reminder.Service
	telegram  *telegram.Client
}

func newApp(ctx context.Context, cfg config.Config, log *slog.Logger) (*app, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		return nil, err
	}
	redisClient := infra.NewRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	a := &app{cfg: cfg, log: log, db: dbPool, redis: redisClient}

	geocoder, err := maps.NewGeocoderService(cfg.Maps.APIKey, cfg.Maps.Language, cfg.Maps.Region)
	if err != nil {
		a.Close()
		return nil, err
	}

	messengers := map[messaging.Channel]bot.Messenger{}
	if cfg.Telegram.Token != "" {
		a.telegram = telegram.NewClient(cfg.Telegram.APIBase, cfg.Telegram.Token, cfg.Telegram.PaymentToken)
		messengers[messaging.ChannelTelegram] = a.telegram
	}
	if cfg.Facebook.PageToken != "" {
		messengers[messaging.ChannelFacebook] = facebook.NewClient(cfg.Facebook.APIBase, cfg.Facebook.PageToken, cfg.Facebook.LogoURL)
	}

	a.reminders = reminder.NewService(reminder.NewStore(redisClient), cfg.Bot.ReminderTick, cfg.Bot.CallTimeout, log.With("component", "reminder"))

	deps := storeDeps(cfg, dbPool, redisClient)
	deps.Geocoder = geocoder
	deps.Reminders = a.reminders
	deps.Messengers = messengers

	if cfg.AI.GeminiKey != "" {
		a.gemini, err = ai.NewGeminiProvider(ctx, cfg.AI.GeminiKey)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("gemini init: %w", err)
		}
		quota := aiusage.NewService(aiusage.NewStore(dbPool, cfg.AI.MonthlyQuota))
		deps.Helper = ai.NewAssistant(a.gemini, quota)
	}

	a.engine = bot.NewEngine(deps, bot.Options{
		PageSize:      cfg.Bot.PageSize,
		CallTimeout:   cfg.Bot.CallTimeout,
		ReminderDelay: cfg.Bot.ReminderDelay,
		FlowKey:       cfg.Bot.FlowKey,
	}, log.With("component", "bot"))
	a.reminders.SetNotifier(a.engine)
	return a, nil
}

func (a *app) Close() {
	if a.gemini != nil {
		a.gemini.Close()
	}
	if err := a.redis.Close(); err != nil {
		a.log.Warn("redis close", "err", err)
	}
	a.db.Close()
}

// storeDeps builds the engine collaborators backed by Postgres and Redis.
func storeDeps(cfg config.Config, dbPool *pgxpool.Pool, redisClient *redis.Client) bot.Deps {
	return bot.Deps{
		Catalog:  catalog.NewStore(dbPool, cfg.Bot.Currency),
		Payments: payment.NewService(payment.NewStore(redisClient)),
		Sessions: session.NewStore(redisClient),
		Pricing: pricing.NewService(pricing.Fees{
			Near: types.Money{Amount: cfg.Bot.FeeNear, Currency: cfg.Bot.Currency},
			Far:  types.Money{Amount: cfg.Bot.FeeFar, Currency: cfg.Bot.Currency},
		}),
		Orders: order.NewService(order.NewStore(dbPool)),
	}
}
