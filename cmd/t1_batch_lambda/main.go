package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/joho/godotenv"
	ledgerevents "github.com/resellpay/wallet-engine/pkg/events"
	"github.com/resellpay/wallet-engine/pkg/ledger"
	"github.com/resellpay/wallet-engine/pkg/limits"
	"github.com/resellpay/wallet-engine/pkg/locks"
	"github.com/resellpay/wallet-engine/pkg/payout"
	"github.com/resellpay/wallet-engine/pkg/scheduler"
	"github.com/resellpay/wallet-engine/pkg/settlement"
	dydbstore "github.com/resellpay/wallet-engine/pkg/storage/dynamodb"
)

var settlementEngine *settlement.Engine

func init() {
	// Load environment variables for local testing.
	godotenv.Load()

	cfg, err := config.LoadDefaultConfig(context.TODO())
	if err != nil {
		log.Fatalf("unable to load SDK config, %v", err)
	}

	dbClient := dynamodb.NewFromConfig(cfg)
	sqsClient := sqs.NewFromConfig(cfg)

	// Initialize dependencies.
	sqsQueueURL := os.Getenv("SQS_FINALIZE_QUEUE_URL")
	if sqsQueueURL == "" {
		log.Fatal("SQS_FINALIZE_QUEUE_URL environment variable not set")
	}
	sqsScheduler := scheduler.NewSQSScheduler(sqsClient, sqsQueueURL)

	tables := dydbstore.Tables{
		Ledger:      os.Getenv("DYNAMODB_LEDGER_TABLE_NAME"),
		Wallets:     os.Getenv("DYNAMODB_WALLETS_TABLE_NAME"),
		Settlements: os.Getenv("DYNAMODB_SETTLEMENTS_TABLE_NAME"),
		Limits:      os.Getenv("DYNAMODB_LIMITS_TABLE_NAME"),
		Slabs:       os.Getenv("DYNAMODB_SLABS_TABLE_NAME"),
		Commissions: os.Getenv("DYNAMODB_COMMISSIONS_TABLE_NAME"),
		Audit:       os.Getenv("DYNAMODB_AUDIT_TABLE_NAME"),
	}
	store := dydbstore.New(dbClient, tables)

	locker := locks.NewKeyedMutex()
	ledgerEngine := ledger.New(store, store, locker, ledgerevents.Nop{})
	enforcer := limits.New(store, store, store)
	settlementEngine = settlement.New(store, store, store, store, ledgerEngine, enforcer, locker, sqsScheduler, payout.LogTransferer{})
}

// HandleRequest is triggered by an EventBridge Schedule. It releases every pending
// T+1 settlement created before today's midnight to the finalize queue.
func HandleRequest(ctx context.Context) error {
	log.Println("Starting T+1 settlement batch...")

	now := time.Now()
	cutoff := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	dispatched, err := settlementEngine.RunT1Batch(ctx, cutoff)
	if err != nil {
		log.Printf("ERROR: T+1 batch failed: %v", err)
		return err
	}

	log.Printf("T+1 batch finished: %d settlements dispatched", dispatched)
	return nil
}

func main() {
	lambda.Start(HandleRequest)
}
