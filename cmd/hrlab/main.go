package main

import (
	"context"
	"database/sql"
	"net/http"

	config "github.com/davicafu/hrlab/internal/config"
	employeeApp "github.com/davicafu/hrlab/internal/employee/application"
	employeeDomain "github.com/davicafu/hrlab/internal/employee/domain"
	employeeEvents "github.com/davicafu/hrlab/internal/employee/infra/inbound/events"
	employeeHttp "github.com/davicafu/hrlab/internal/employee/infra/inbound/http"
	"github.com/davicafu/hrlab/internal/employee/infra/outbound/authsvc"
	employeeRepo "github.com/davicafu/hrlab/internal/employee/infra/outbound/db/sqlite"
	sharedDomain "github.com/davicafu/hrlab/internal/shared/domain"
	sharedEvents "github.com/davicafu/hrlab/internal/shared/events"
	infraCache "github.com/davicafu/hrlab/internal/shared/infra/cache"
	infraEvents "github.com/davicafu/hrlab/internal/shared/infra/events"
	sharedBus "github.com/davicafu/hrlab/internal/shared/infra/platform/bus"
	sharedCache "github.com/davicafu/hrlab/internal/shared/infra/platform/cache"
	infraRelayer "github.com/davicafu/hrlab/internal/shared/infra/relayer"
	taskApp "github.com/davicafu/hrlab/internal/task/application"
	taskDomain "github.com/davicafu/hrlab/internal/task/domain"
	taskEvents "github.com/davicafu/hrlab/internal/task/infra/inbound/events"
	taskHttp "github.com/davicafu/hrlab/internal/task/infra/inbound/http"
	"github.com/davicafu/hrlab/internal/task/infra/outbound/analytics/clickhouse"
	"github.com/davicafu/hrlab/internal/task/infra/outbound/db/mongodb"
	taskPostgres "github.com/davicafu/hrlab/internal/task/infra/outbound/db/postgre"
	taskSqlite "github.com/davicafu/hrlab/internal/task/infra/outbound/db/sqlite"

	"github.com/davicafu/hrlab/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/segmentio/kafka-go"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	_ "github.com/jackc/pgx/v5/stdlib"
	// _ "github.com/mattn/go-sqlite3" // requires gcc
	_ "modernc.org/sqlite"
)

// ---------------- Main ----------------
func main() {
	logger.Init()          // inicializa zap
	log := logger.Logger() // obtiene logger estructurado
	defer log.Sync()       // flush buffers al salir

	ctx := context.Background()
	cfg := config.LoadConfig()

	// ---------------- DB: contexto de tareas ----------------
	var taskRepository taskDomain.TaskRepository
	var taskOutboxRepo sharedDomain.OutboxRepository

	taskDB, err := sql.Open("sqlite", cfg.TaskDBPath)
	if err != nil {
		log.Fatal("failed to open task SQLite", zap.Error(err))
	}
	defer taskDB.Close()

	if err := taskSqlite.InitSQLite(taskDB); err != nil {
		log.Fatal("failed to initialize task SQLite", zap.Error(err))
	}

	activityRepoSQLite := taskSqlite.NewActivityRepoSQLite(taskDB)
	commentRepoSQLite := taskSqlite.NewCommentRepoSQLite(taskDB)

	if cfg.LocalDeployment || cfg.PostgresDSN == "" {
		repo := taskSqlite.NewTaskRepoSQLite(taskDB)
		taskRepository = repo
		taskOutboxRepo = repo
	} else {
		pgDB, err := sql.Open("pgx", cfg.PostgresDSN)
		if err != nil {
			log.Fatal("failed to open Postgres", zap.Error(err))
		}
		defer pgDB.Close()

		if err := taskPostgres.InitPostgres(pgDB); err != nil {
			log.Fatal("failed to initialize Postgres", zap.Error(err))
		}

		repo := taskPostgres.NewTaskRepoPostgres(pgDB)
		taskRepository = repo
		taskOutboxRepo = repo
		log.Info("✅ Postgres conectado para el agregado de tareas")
	}

	// ---------------- DB: contexto de empleados ----------------
	employeeDB, err := sql.Open("sqlite", cfg.EmployeeDBPath)
	if err != nil {
		log.Fatal("failed to open employee SQLite", zap.Error(err))
	}
	defer employeeDB.Close()

	if err := employeeRepo.InitSQLite(employeeDB); err != nil {
		log.Fatal("failed to initialize employee SQLite", zap.Error(err))
	}

	employeeRepoSQLite := employeeRepo.NewEmployeeRepoSQLite(employeeDB)
	documentRepoSQLite := employeeRepo.NewDocumentRepoSQLite(employeeDB)

	// ---------------- Cache ----------------
	var cacheInstance sharedCache.Cache
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn("⚠️ Redis no disponible, cache en memoria:", zap.Error(err))
		cacheInstance = infraCache.NewInMemoryCache(cfg.CacheTTL, 3*cfg.CacheTTL)
	} else {
		cacheInstance = infraCache.NewRedisCache(rdb, cfg.CacheTTL)
		log.Info("✅ Redis conectado, cache habilitado")
	}

	// ---------- Archivo documental y analítica de actividad ----------
	var archive taskDomain.ActivityArchive
	if cfg.MongoURI != "" {
		mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			log.Warn("⚠️ MongoDB no disponible, archivo de actividad deshabilitado", zap.Error(err))
		} else {
			defer mongoClient.Disconnect(ctx)
			mongoArchive, err := mongodb.NewActivityArchiveMongoDB(ctx, mongoClient, cfg.MongoDB)
			if err != nil {
				log.Warn("⚠️ MongoDB no disponible, archivo de actividad deshabilitado", zap.Error(err))
			} else {
				archive = mongoArchive
				log.Info("✅ MongoDB conectado, archivo de actividad habilitado")
			}
		}
	}

	var analytics taskDomain.ActivityAnalyticsRepository
	if cfg.ClickHouseAddr != "" {
		analyticsRepo, err := clickhouse.NewActivityAnalyticsRepo(cfg.ClickHouseAddr, cfg.ClickHouseDB)
		if err != nil {
			log.Warn("⚠️ ClickHouse no disponible, analítica deshabilitada", zap.Error(err))
		} else if err := analyticsRepo.InitSchema(); err != nil {
			log.Warn("⚠️ No se pudo crear el esquema de ClickHouse", zap.Error(err))
		} else {
			analytics = analyticsRepo
			log.Info("✅ ClickHouse conectado, analítica de actividad habilitada")
		}
	}

	activityRepo := taskApp.NewActivityFanout(activityRepoSQLite, archive, analytics, log)

	// --------------- Servicios --------------
	employeeService := employeeApp.NewEmployeeService(employeeRepoSQLite, documentRepoSQLite, cacheInstance, log)
	reviewService := employeeApp.NewAdminReviewService(employeeRepoSQLite, documentRepoSQLite, cacheInstance, log)

	// El servicio de empleados resuelve los actores del contexto de tareas.
	taskService := taskApp.NewTaskService(taskRepository, activityRepo, employeeService, cacheInstance, log)
	workflowService := taskApp.NewWorkflowService(taskRepository, activityRepo, employeeService, cacheInstance, log)
	commentService := taskApp.NewCommentService(taskRepository, commentRepoSQLite, activityRepo, employeeService, log)

	// ---------------- Events ---------------
	var taskPublisher sharedBus.EventBus
	var employeePublisher sharedBus.EventBus

	if cfg.UseKafka {
		log.Info("🚀 Usando Kafka como bus de eventos")

		taskWriter := kafka.NewWriter(kafka.WriterConfig{
			Brokers: cfg.KafkaBrokers,
			Topic:   taskDomain.TaskTopic,
		})
		employeeWriter := kafka.NewWriter(kafka.WriterConfig{
			Brokers: cfg.KafkaBrokers,
			Topic:   employeeDomain.EmployeeTopic,
		})
		defer taskWriter.Close()
		defer employeeWriter.Close()

		taskPublisher = infraEvents.NewKafkaPublisher(taskWriter, log)
		employeePublisher = infraEvents.NewKafkaPublisher(employeeWriter, log)

		taskConsumer := taskEvents.NewTaskConsumer(cacheInstance, log)
		employeeConsumer := employeeEvents.NewEmployeeConsumer(cacheInstance, log)

		taskReader := kafka.NewReader(kafka.ReaderConfig{
			Brokers:  cfg.KafkaBrokers,
			Topic:    taskDomain.TaskTopic,
			GroupID:  "hrlab-task-service",
			MinBytes: 10e3, // 10KB
			MaxBytes: 10e6, // 10MB
		})
		defer taskReader.Close()

		employeeReader := kafka.NewReader(kafka.ReaderConfig{
			Brokers:  cfg.KafkaBrokers,
			Topic:    employeeDomain.EmployeeTopic,
			GroupID:  "hrlab-employee-service",
			MinBytes: 10e3, // 10KB
			MaxBytes: 10e6, // 10MB
		})
		defer employeeReader.Close()

		infraEvents.NewConsumerAdapter(taskReader, taskConsumer, log).Start(ctx)
		infraEvents.NewConsumerAdapter(employeeReader, employeeConsumer, log).Start(ctx)

	} else {
		log.Info("⚡️Usando bus de eventos en memoria (canales de Go)")

		taskBus := infraEvents.NewInMemoryEventBus(taskDomain.TaskTopic)
		employeeBus := infraEvents.NewInMemoryEventBus(employeeDomain.EmployeeTopic)

		taskPublisher = taskBus
		employeePublisher = employeeBus

		taskConsumer := taskEvents.NewTaskConsumer(cacheInstance, log)
		employeeConsumer := employeeEvents.NewEmployeeConsumer(cacheInstance, log)

		log.Info("🎧 Iniciando listener en memoria para eventos de tarea")
		taskEvents.BackgroundConsumerChan(ctx, taskBus.Subscribe(10), taskConsumer)

		log.Info("🎧 Iniciando listener en memoria para eventos de empleado")
		employeeEvents.BackgroundConsumerChan(ctx, employeeBus.Subscribe(10), employeeConsumer)
	}

	// ------------ Outbox Workers ------------
	// Cada contexto publica desde su propia tabla outbox hacia su topic.
	taskRegistry := make(map[string]sharedEvents.EventMetadata)
	for k, v := range taskDomain.NewEventRegistry() {
		taskRegistry[k] = v
	}
	employeeRegistry := make(map[string]sharedEvents.EventMetadata)
	for k, v := range employeeDomain.NewEventRegistry() {
		employeeRegistry[k] = v
	}

	taskWorker := infraRelayer.NewOutboxWorker(taskOutboxRepo, taskPublisher, taskRegistry, cfg.OutboxPeriod, cfg.OutboxLimit, log)
	go taskWorker.Start(ctx)

	employeeWorker := infraRelayer.NewOutboxWorker(employeeRepoSQLite, employeePublisher, employeeRegistry, cfg.OutboxPeriod, cfg.OutboxLimit, log)
	go employeeWorker.Start(ctx)

	// ------------- Auth externo -------------
	var authClient *authsvc.Client
	if cfg.AuthServiceURL != "" {
		authClient = authsvc.NewClient(cfg.AuthServiceURL, log)
		log.Info("✅ Auth service configurado", zap.String("url", cfg.AuthServiceURL))
	}

	// ---------------- HTTP ----------------
	router := gin.Default()

	if authClient != nil {
		router.Use(authMiddleware(authClient))
	}

	taskHandler := taskHttp.NewTaskHandler(taskService, workflowService, commentService)
	employeeHandler := employeeHttp.NewEmployeeHandler(employeeService, reviewService)
	taskHttp.RegisterTaskRoutes(router, taskHandler)
	employeeHttp.RegisterEmployeeRoutes(router, employeeHandler)

	if analytics != nil {
		taskHttp.RegisterAnalyticsRoutes(router, taskHttp.NewAnalyticsHandler(analytics))
	}

	router.GET("/health", func(c *gin.Context) {
		status := gin.H{"status": "ok"}
		if authClient != nil {
			status["auth_breaker"] = authClient.State().String()
		}
		c.JSON(200, status)
	})

	log.Info("🚀 Server running",
		zap.String("url", "http://localhost:"+cfg.HTTPPort),
	)
	if err := router.Run(":" + cfg.HTTPPort); err != nil {
		log.Fatal("failed to start server", zap.Error(err))
	}
}

// authMiddleware valida el token Bearer contra el servicio de autenticación
// y propaga la identidad en la cabecera X-User-ID que leen los handlers.
// Si no llega token se asume que un gateway previo ya fijó la cabecera.
func authMiddleware(client *authsvc.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		authz := c.GetHeader("Authorization")
		if len(authz) < 8 || authz[:7] != "Bearer " {
			c.Next()
			return
		}

		identity, err := client.VerifyToken(c.Request.Context(), authz[7:])
		if err != nil {
			switch err {
			case authsvc.ErrTokenInvalid:
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			default:
				// Breaker abierto o servicio caído: no degradamos a 500 genérico.
				c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "auth service unavailable"})
			}
			return
		}

		c.Request.Header.Set("X-User-ID", identity.UserID.String())
		c.Next()
	}
}
