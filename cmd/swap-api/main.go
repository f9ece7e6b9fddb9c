package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/rajivgeraev/swapit-api/internal/config"
	"github.com/rajivgeraev/swapit-api/internal/db"
	"github.com/rajivgeraev/swapit-api/internal/middleware"
	"github.com/rajivgeraev/swapit-api/internal/services/auth"
	"github.com/rajivgeraev/swapit-api/internal/services/chat"
	"github.com/rajivgeraev/swapit-api/internal/services/cloudinary"
	"github.com/rajivgeraev/swapit-api/internal/services/item"
	"github.com/rajivgeraev/swapit-api/internal/services/ngo"
	"github.com/rajivgeraev/swapit-api/internal/services/notification"
	"github.com/rajivgeraev/swapit-api/internal/services/rating"
	"github.com/rajivgeraev/swapit-api/internal/services/report"
	"github.com/rajivgeraev/swapit-api/internal/services/swap"
	"github.com/rajivgeraev/swapit-api/internal/services/user"
	"github.com/rajivgeraev/swapit-api/internal/utils"
	"github.com/rajivgeraev/swapit-api/internal/websocket"
)

const shutdownTimeout = 10 * time.Second

func main() {
	envFile := pflag.String("env-file", "", "путь к .env файлу")
	migrateOnly := pflag.Bool("migrate", false, "применить схему базы данных и выйти")
	pflag.Parse()

	// Загружаем конфигурацию
	cfg := config.LoadConfig(*envFile)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Инициализируем базу данных
	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("❌ Ошибка при инициализации базы данных: %v", err)
	}
	store, err := db.NewStore(pool)
	if err != nil {
		log.Fatalf("❌ Ошибка при создании хранилища: %v", err)
	}
	defer store.Close()

	if err := store.Migrate(ctx); err != nil {
		log.Fatalf("❌ Ошибка при применении схемы: %v", err)
	}
	if *migrateOnly {
		return
	}

	// Создаём сервисы
	jwtService := utils.NewJWTService(cfg.JWTSecret, cfg.JWTTTL)
	authMiddleware := middleware.AuthMiddleware(jwtService)

	dispatcher := notification.NewDispatcher(store, cfg.NotifyQueueSize, cfg.NotifyWorkers)
	wsManager := websocket.NewManager()

	chatService := chat.NewChatService(store)
	chatService.SetBroadcaster(wsManager)
	itemService := item.NewItemService(store)
	cloudinaryService := cloudinary.NewCloudinaryService(cfg.CloudinaryConfig)
	if !cloudinaryService.Enabled() {
		log.Println("⚠️ Cloudinary не настроен, загрузка изображений недоступна")
	}
	if !cfg.TelegramEnabled() {
		log.Println("⚠️ TELEGRAM_BOT_TOKEN не задан, вход через Telegram отключён")
	}

	// Создаём экземпляр Fiber
	app := fiber.New(fiber.Config{
		AppName:      "SwapIt API",
		ErrorHandler: middleware.ErrorHandler(cfg.IsProduction()),
	})

	// Добавляем middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.FrontendOrigins,
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowCredentials: false,
	}))

	app.Get("/health", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Регистрируем маршруты
	api := app.Group("/api")
	auth.NewHandler(auth.NewAuthService(store, jwtService, cfg.TelegramBotToken)).SetupRoutes(api)
	user.NewHandler(user.NewUserService(store), itemService).SetupRoutes(api, authMiddleware)
	item.NewHandler(itemService).SetupRoutes(api, authMiddleware)
	swap.NewHandler(swap.NewSwapService(store, dispatcher, cfg.SwapRewardPoints)).SetupRoutes(api, authMiddleware)
	rating.NewHandler(rating.NewRatingService(store)).SetupRoutes(api, authMiddleware)
	chat.NewHandler(chatService).SetupRoutes(api, authMiddleware)
	notification.NewHandler(notification.NewNotificationService(store)).SetupRoutes(api, authMiddleware)
	ngo.NewHandler(ngo.NewNGOService(store)).SetupRoutes(api, authMiddleware)
	report.NewHandler(report.NewReportService(store)).SetupRoutes(api, authMiddleware)
	cloudinaryService.SetupRoutes(api, authMiddleware)

	// Отдельный listener для WebSocket
	mux := http.NewServeMux()
	mux.Handle("/ws", websocket.NewHandler(jwtService, chatService, wsManager, cfg.FrontendOrigins))
	wsServer := &http.Server{
		Addr:              cfg.WSAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	// Очередь уведомлений живёт дольше серверов, см. stopAll
	dispatchCtx, stopDispatch := context.WithCancel(context.Background())
	defer stopDispatch()
	g.Go(func() error {
		return dispatcher.Run(dispatchCtx)
	})

	g.Go(func() error {
		log.Printf("✅ SwapIt API запущен на %s", cfg.HTTPAddr)
		return app.Listen(cfg.HTTPAddr, fiber.ListenConfig{DisableStartupMessage: true})
	})

	g.Go(func() error {
		log.Printf("✅ WebSocket сервер запущен на %s", cfg.WSAddr)
		if err := wsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// Корректное завершение по сигналу или при падении одного из серверов
	g.Go(func() error {
		<-gctx.Done()
		log.Println("Завершение работы...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		wsManager.Shutdown()
		return stopAll(shutdownCtx, stopDispatch, app.ShutdownWithContext, wsServer.Shutdown)
	})

	if err := g.Wait(); err != nil {
		log.Printf("❌ Сервер остановлен с ошибкой: %v", err)
		store.Close()
		os.Exit(1)
	}
	log.Println("✅ Сервер остановлен")
}

// stopAll останавливает серверы и только после них очередь уведомлений
func stopAll(ctx context.Context, stopDispatch context.CancelFunc, stops ...func(context.Context) error) error {
	errs := make([]error, 0, len(stops))
	for _, stop := range stops {
		errs = append(errs, stop(ctx))
	}
	stopDispatch()
	return errors.Join(errs...)
}
