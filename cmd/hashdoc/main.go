// Точка входа hashdoc — сервиса загрузки документов с дедупликацией.
// Загружает конфигурацию, подключается к PostgreSQL, применяет миграции,
// создаёт клиент object store, сервисный слой и API handlers,
// запускает topologymetrics и HTTP-сервер с graceful shutdown.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/stdlib"

	"github.com/avkuzmin/hashdoc/internal/api/handlers"
	"github.com/avkuzmin/hashdoc/internal/api/middleware"
	"github.com/avkuzmin/hashdoc/internal/config"
	"github.com/avkuzmin/hashdoc/internal/database"
	"github.com/avkuzmin/hashdoc/internal/objectstore"
	"github.com/avkuzmin/hashdoc/internal/repository"
	"github.com/avkuzmin/hashdoc/internal/server"
	"github.com/avkuzmin/hashdoc/internal/service"
)

func main() {
	// 1. Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Ошибка загрузки конфигурации", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 2. Настройка логирования
	logger := config.SetupLogger(cfg)
	logger.Info("hashdoc запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
	)

	// Предупреждение о дефолтном значении группы topologymetrics
	if os.Getenv("HD_DEPHEALTH_GROUP") == "" {
		logger.Warn("HD_DEPHEALTH_GROUP не задана, используется значение по умолчанию",
			slog.String("default", cfg.DephealthGroup),
		)
	}

	// 3. Применение миграций БД
	logger.Info("Применение миграций БД...")
	if err := database.Migrate(cfg, logger); err != nil {
		logger.Error("Ошибка миграций БД", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Подключение к PostgreSQL (pgxpool)
	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		logger.Error("Ошибка подключения к PostgreSQL", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	// 4.1 Адаптер pgxpool → *sql.DB для topologymetrics (connection pool mode).
	// Проверка здоровья PostgreSQL идёт через существующий пул соединений,
	// что позволяет обнаружить его исчерпание.
	pgDB := stdlib.OpenDBFromPool(pool)
	defer pgDB.Close()

	// 5. Клиент object store
	objStore, err := objectstore.NewHTTPClient(
		cfg.ObjectStoreURL,
		cfg.ObjectStoreCACertPath,
		cfg.ObjectStoreToken,
		cfg.ObjectStoreTimeout,
		logger,
	)
	if err != nil {
		logger.Error("Ошибка создания клиента object store", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("Клиент object store создан", slog.String("url", cfg.ObjectStoreURL))

	// 6. Repository
	fileRepo := repository.NewFileRepository(pool)

	// 7. Services
	detector := service.NewDuplicateDetector(fileRepo, logger)
	ingestSvc := service.NewIngestService(fileRepo, objStore, detector, logger)
	listSvc := service.NewListService(fileRepo, objStore, cfg.SignTTL, logger)
	deleteSvc := service.NewDeleteService(fileRepo, objStore, logger)

	// 8. topologymetrics — мониторинг зависимостей (PostgreSQL + object store)
	dephealthSvc, dephealthErr := service.NewDephealthService(
		cfg.DephealthGroup,
		pgDB,
		cfg.DatabaseURL(),
		cfg.ObjectStoreURL,
		cfg.DephealthCheckInterval,
		logger,
	)
	if dephealthErr != nil {
		logger.Warn("topologymetrics недоступен, запуск без мониторинга зависимостей",
			slog.String("error", dephealthErr.Error()),
		)
	} else {
		if startErr := dephealthSvc.Start(ctx); startErr != nil {
			logger.Warn("Ошибка запуска topologymetrics",
				slog.String("error", startErr.Error()),
			)
		} else {
			logger.Info("topologymetrics запущен",
				slog.String("group", cfg.DephealthGroup),
				slog.String("check_interval", cfg.DephealthCheckInterval.String()),
			)
			defer dephealthSvc.Stop()
		}
	}

	// 9. Handlers. Readiness требует обеих зависимостей:
	// PostgreSQL (metadata store) и object store.
	pgChecker := database.NewReadinessChecker(pool)
	healthHandler := handlers.NewHealthHandler(pgChecker, objStore)
	documentsHandler := handlers.NewDocumentsHandler(
		ingestSvc, listSvc, deleteSvc,
		cfg.MaxUploadSize,
		logger,
	)
	apiHandler := handlers.NewAPIHandler(documentsHandler, healthHandler)

	// 10. HTTP-сервер с middleware (metrics, logging)
	srv := server.New(cfg, logger, apiHandler,
		middleware.MetricsMiddleware(),
		middleware.RequestLogger(logger),
	)

	// 11. Запуск сервера (блокирующий вызов с graceful shutdown)
	if err := srv.Run(); err != nil {
		logger.Error("Ошибка сервера", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("hashdoc остановлен")
}
