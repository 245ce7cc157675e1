package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	adminsvc "github.com/resellpay/wallet-engine/pkg/admin"
	"github.com/resellpay/wallet-engine/pkg/events"
	"github.com/resellpay/wallet-engine/pkg/handlers"
	adminhandler "github.com/resellpay/wallet-engine/pkg/handlers/admin"
	"github.com/resellpay/wallet-engine/pkg/handlers/entries"
	"github.com/resellpay/wallet-engine/pkg/handlers/settlements"
	"github.com/resellpay/wallet-engine/pkg/handlers/wallets"
	"github.com/resellpay/wallet-engine/pkg/ledger"
	"github.com/resellpay/wallet-engine/pkg/limits"
	"github.com/resellpay/wallet-engine/pkg/locks"
	"github.com/resellpay/wallet-engine/pkg/middleware"
	"github.com/resellpay/wallet-engine/pkg/payout"
	"github.com/resellpay/wallet-engine/pkg/scheduler"
	"github.com/resellpay/wallet-engine/pkg/settlement"
	dydbstore "github.com/resellpay/wallet-engine/pkg/storage/dynamodb"
)

func tablesFromEnv() dydbstore.Tables {
	tables := dydbstore.Tables{
		Ledger:      os.Getenv("DYNAMODB_LEDGER_TABLE_NAME"),
		Wallets:     os.Getenv("DYNAMODB_WALLETS_TABLE_NAME"),
		Settlements: os.Getenv("DYNAMODB_SETTLEMENTS_TABLE_NAME"),
		Limits:      os.Getenv("DYNAMODB_LIMITS_TABLE_NAME"),
		Slabs:       os.Getenv("DYNAMODB_SLABS_TABLE_NAME"),
		Commissions: os.Getenv("DYNAMODB_COMMISSIONS_TABLE_NAME"),
		Audit:       os.Getenv("DYNAMODB_AUDIT_TABLE_NAME"),
	}
	if tables.Ledger == "" || tables.Wallets == "" || tables.Settlements == "" ||
		tables.Limits == "" || tables.Slabs == "" || tables.Commissions == "" || tables.Audit == "" {
		log.Fatal("One or more DynamoDB table name environment variables are not set")
	}
	return tables
}

func main() {
	// Load environment variables from .env file
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found, using environment variables")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// AWS Session
	cfg, err := config.LoadDefaultConfig(context.TODO())
	if err != nil {
		log.Fatalf("unable to load SDK config, %v", err)
	}

	dbClient := dynamodb.NewFromConfig(cfg)
	store := dydbstore.New(dbClient, tablesFromEnv())

	// SQS Client and Scheduler
	sqsClient := sqs.NewFromConfig(cfg)
	sqsQueueURL := os.Getenv("SQS_FINALIZE_QUEUE_URL")
	if sqsQueueURL == "" {
		log.Fatal("SQS_FINALIZE_QUEUE_URL environment variable not set")
	}
	sqsScheduler := scheduler.NewSQSScheduler(sqsClient, sqsQueueURL)

	// Wallet locks: Redis when configured, in-process otherwise.
	var locker locks.Locker = locks.NewKeyedMutex()
	if redisAddr := os.Getenv("REDIS_ADDR"); redisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     redisAddr,
			Password: os.Getenv("REDIS_PASSWORD"),
		})
		locker = locks.NewRedisLocker(rdb, 30*time.Second)
		log.Printf("Using Redis wallet locks at %s", redisAddr)
	}

	// Ledger entry events: Kafka when configured, no-op otherwise.
	var publisher events.Publisher = events.Nop{}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		kafkaPublisher, err := events.NewKafkaPublisherForBrokers(strings.Split(brokers, ","))
		if err != nil {
			log.Fatalf("failed to connect to Kafka: %v", err)
		}
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher
		log.Printf("Publishing ledger events to Kafka at %s", brokers)
	}

	ledgerEngine := ledger.New(store, store, locker, publisher)
	enforcer := limits.New(store, store, store)
	settlementEngine := settlement.New(store, store, store, store, ledgerEngine, enforcer, locker, sqsScheduler, payout.LogTransferer{})
	adminService := adminsvc.New(ledgerEngine, store, store, store)

	router := handlers.NewRouter(handlers.Handlers{
		Wallets:     wallets.NewWalletsHandler(ledgerEngine, enforcer, store, store),
		Entries:     entries.NewEntriesHandler(ledgerEngine, store),
		Settlements: settlements.NewSettlementsHandler(settlementEngine, store),
		Admin:       adminhandler.NewAdminHandler(adminService, store),
	}, middleware.RequestLogger(logger))

	port := os.Getenv("HTTP_PORT")
	if port == "" {
		port = "8080" // Default port if not specified
	}

	log.Printf("Starting server on port %s", port)

	// Start the server
	err = http.ListenAndServe(":"+port, router)
	if err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
