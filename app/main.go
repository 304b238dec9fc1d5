package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/inceCheng/GigaLike/internal/broker"
	"github.com/inceCheng/GigaLike/internal/consumer"
	mysqlRepo "github.com/inceCheng/GigaLike/internal/repository/mysql"
	myRedisCache "github.com/inceCheng/GigaLike/internal/repository/redis"
	"github.com/inceCheng/GigaLike/internal/workers"
	"github.com/inceCheng/GigaLike/internal/ws"

	"github.com/inceCheng/GigaLike/domain"
	"github.com/inceCheng/GigaLike/internal/rest"
	"github.com/inceCheng/GigaLike/internal/rest/middleware"
	"github.com/inceCheng/GigaLike/internal/usecase/blog"
	"github.com/inceCheng/GigaLike/internal/usecase/notification"
	"github.com/inceCheng/GigaLike/internal/usecase/thumb"
	"github.com/inceCheng/GigaLike/internal/usecase/user"
	"github.com/joho/godotenv"
)

const (
	defaultTimeout      = 30
	defaultAddress      = ":9090"
	defaultCacheDB      = 0
	defaultBloomBitSize = 10000000
	dbMaxRetry          = 10
	dbRetryIntervalSec  = 2
)

func init() {
	err := godotenv.Load()
	if err != nil {
		log.Fatal("Error loading .env file")
	}
}

func main() {
	//prepare database
	dbHost := os.Getenv("DATABASE_HOST")
	dbPort := os.Getenv("DATABASE_PORT")
	dbUser := os.Getenv("DATABASE_USER")
	dbPass := os.Getenv("DATABASE_PASS")
	dbName := os.Getenv("DATABASE_NAME")
	connection := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s", dbUser, dbPass, dbHost, dbPort, dbName)
	val := url.Values{}
	val.Add("parseTime", "1")
	val.Add("loc", "Asia/Shanghai")
	dsn := fmt.Sprintf("%s?%s", connection, val.Encode())

	var (
		db  *gorm.DB
		err error
	)

	for i := range dbMaxRetry {
		// TranslateError 让唯一索引冲突映射成 gorm.ErrDuplicatedKey
		db, err = gorm.Open(mysql.Open(dsn), &gorm.Config{TranslateError: true})
		if err != nil {
			log.Printf("failed to open connection to database (attempt %d/%d): %v", i+1, dbMaxRetry, err)
		} else {
			sqlDB, err := db.DB()
			if err != nil {
				log.Printf("failed to get sql.DB from gorm.DB (attempt %d/%d): %v", i+1, dbMaxRetry, err)
				continue
			}
			err = sqlDB.Ping()
			if err == nil {
				break
			}
			log.Printf("failed to ping database (attempt %d/%d): %v", i+1, dbMaxRetry, err)
			_ = sqlDB.Close()
		}

		time.Sleep(dbRetryIntervalSec * time.Second)
	}

	if err != nil {
		log.Fatal("could not connect to database after retries:", err)
	}

	defer func() {
		sqlDB, err := db.DB()
		if err != nil {
			log.Fatal("got error when getting sql.DB from gorm.DB", err)
		}
		if err := sqlDB.Close(); err != nil {
			log.Fatal("got error when closing the DB connection", err)
		}
	}()

	// prepare cache
	cacheHost := os.Getenv("CACHE_HOST")
	cachePort := os.Getenv("CACHE_PORT")
	cachePass := os.Getenv("CACHE_PASS")
	cacheDBStr := os.Getenv("CACHE_DB")
	cacheDB, err := strconv.Atoi(cacheDBStr)
	if err != nil {
		log.Println("failed to parse cacheDB, using default cacheDB")
		cacheDB = defaultCacheDB
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cacheHost + ":" + cachePort,
		Password: cachePass,
		DB:       cacheDB,
	})
	defer func() {
		err = client.Close()
		if err != nil {
			log.Fatal("got error when closing the cache connection", err)
		}
	}()

	_, err = client.Ping(context.Background()).Result()
	if err != nil {
		log.Fatal("failed to open connection to cache", err)
		return
	}

	// Prepare Repository
	userRepo := mysqlRepo.NewUserRepository(db)
	blogRepo := mysqlRepo.NewBlogRepository(db)
	thumbRepo := mysqlRepo.NewThumbRepository(db)
	notificationRepo := mysqlRepo.NewNotificationRepository(db)
	thumbCache := myRedisCache.NewThumbCache(client)

	bloomBitSizeStr := os.Getenv("BLOOM_FILTER_SIZE")
	bloomBitSize, err := strconv.ParseUint(bloomBitSizeStr, 10, 64)
	if err != nil {
		log.Printf("failed to parse bloom bit size, using default size")
		bloomBitSize = defaultBloomBitSize
	}
	bloomRepo := myRedisCache.NewRedisBloomRepo(client, bloomBitSize)

	// Prepare broker
	var eventBroker domain.EventBroker
	switch os.Getenv("BROKER") {
	case "memory":
		eventBroker = broker.NewMemoryBroker()
	default:
		eventBroker = broker.NewRedisStreamBroker(client)
	}

	// Websocket registry, one per process
	hub := ws.NewHub()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start workers and consumers before the server accepts requests,
	// 内存 broker 要求订阅者先于发布者就位
	aggregator := workers.NewThumbAggregator(blogRepo)
	go aggregator.Start(ctx)

	notificationSvc := notification.NewService(notificationRepo, userRepo, hub)

	thumbConsumer := consumer.NewThumbConsumer(thumbRepo, thumbCache, aggregator, eventBroker)
	go func() {
		if err := thumbConsumer.Start(ctx); err != nil && ctx.Err() == nil {
			log.Printf("thumb consumer stopped: %v", err)
		}
	}()
	notificationConsumer := consumer.NewNotificationConsumer(notificationSvc, eventBroker)
	go func() {
		if err := notificationConsumer.Start(ctx); err != nil && ctx.Err() == nil {
			log.Printf("notification consumer stopped: %v", err)
		}
	}()

	// Build service Layer
	var thumbSvc domain.ThumbService
	switch os.Getenv("THUMB_ENGINE") {
	case "db":
		thumbSvc = thumb.NewDBService(thumbRepo, thumbCache, bloomRepo, aggregator)
	default:
		thumbSvc = thumb.NewService(thumbCache, blogRepo, bloomRepo, eventBroker)
	}

	blogSvc := blog.NewService(blogRepo, bloomRepo, thumbSvc)

	jwtSecret := []byte(os.Getenv("JWT_SECRET"))
	jwtTTLStr := os.Getenv("JWT_EXPIRE_HOURS")
	jwtTTL, err := strconv.Atoi(jwtTTLStr)
	if err != nil {
		log.Println("failed to parse JWT TTL, using default 24 hours")
		jwtTTL = 24
	}
	userSvc := user.NewService(userRepo, jwtSecret, time.Duration(jwtTTL)*time.Hour)

	thumbHandler := rest.NewThumbHandler(thumbSvc)
	blogHandler := rest.NewBlogHandler(blogSvc)
	notificationHandler := rest.NewNotificationHandler(notificationSvc)
	monitorHandler := rest.NewMonitorHandler(hub)
	userHandler := rest.NewUserHandler(userSvc)
	wsHandler := ws.NewHandler(hub, userRepo)

	authMiddleware := middleware.AuthMiddleware(string(jwtSecret))

	// Prepare bloom filter
	if err := blogSvc.InitBloomFilter(ctx); err != nil {
		log.Printf("failed to init bloom filter: %v\n", err)
		return
	}

	// prepare gin
	route := gin.Default()
	route.Use(middleware.CORS())

	// websocket 是长连接, 不挂请求超时中间件
	route.GET("/ws/notification", wsHandler.Serve)

	timeoutStr := os.Getenv("CONTEXT_TIMEOUT")
	timeout, err := strconv.Atoi(timeoutStr)
	if err != nil {
		log.Println("failed to parse timeout, using default timeout")
		timeout = defaultTimeout
	}
	timeoutContext := time.Duration(timeout) * time.Second

	api := route.Group("/", middleware.SetRequestContextWithTimeout(timeoutContext))

	// Register routes
	api.POST("/login", userHandler.Login)
	api.GET("/blogs/:id", blogHandler.GetByID)
	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authorized := api.Group("/")
	authorized.Use(authMiddleware)
	{
		authorized.POST("/thumb/do", thumbHandler.Do)
		authorized.POST("/thumb/undo", thumbHandler.Undo)

		authorized.GET("/notifications", notificationHandler.Fetch)
		authorized.GET("/notifications/unread/count", notificationHandler.UnreadCount)
		authorized.POST("/notifications/:id/read", notificationHandler.MarkRead)
		authorized.POST("/notifications/read/all", notificationHandler.MarkAllRead)
		authorized.DELETE("/notifications/:id", notificationHandler.Delete)
		authorized.POST("/notifications/cleanup", notificationHandler.Cleanup)

		authorized.GET("/realtime/status", monitorHandler.Status)
		authorized.POST("/realtime/test", monitorHandler.Test)
		authorized.POST("/realtime/broadcast", monitorHandler.Broadcast)

		authorized.GET("/ws/monitor/online-users", monitorHandler.OnlineUsers)
		authorized.GET("/ws/monitor/stats", monitorHandler.Stats)
		authorized.GET("/ws/monitor/user/:userId", monitorHandler.UserInfo)
		authorized.GET("/ws/monitor/history", monitorHandler.History)
		authorized.POST("/ws/monitor/disconnect/:userId", monitorHandler.Disconnect)
		authorized.POST("/ws/monitor/cleanup", monitorHandler.Cleanup)
	}

	// Start Server
	address := os.Getenv("SERVER_ADDRESS")
	if address == "" {
		address = defaultAddress
	}
	srv := &http.Server{
		Addr:    address,
		Handler: route,
	}
	go func() {
		log.Printf("Server is running on %s\n", address)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err) // nolint
		}
	}()

	// shutdown
	<-ctx.Done()
	log.Println("Shutdown signal received, stopping server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown: ", err)
	}

	log.Println("Waiting for workers to flush...")
	time.Sleep(2 * time.Second)

	log.Println("Server exiting")
}
