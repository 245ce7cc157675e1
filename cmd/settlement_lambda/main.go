package main

import (
	"context"
	"encoding/json"
	"log"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
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
	// Load environment variables from .env file (useful for local testing).
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Initialize dependencies once.
	cfg, err := config.LoadDefaultConfig(context.TODO())
	if err != nil {
		log.Fatalf("unable to load SDK config, %v", err)
	}

	dbClient := dynamodb.NewFromConfig(cfg)
	tables := dydbstore.Tables{
		Ledger:      os.Getenv("DYNAMODB_LEDGER_TABLE_NAME"),
		Wallets:     os.Getenv("DYNAMODB_WALLETS_TABLE_NAME"),
		Settlements: os.Getenv("DYNAMODB_SETTLEMENTS_TABLE_NAME"),
		Limits:      os.Getenv("DYNAMODB_LIMITS_TABLE_NAME"),
		Slabs:       os.Getenv("DYNAMODB_SLABS_TABLE_NAME"),
		Commissions: os.Getenv("DYNAMODB_COMMISSIONS_TABLE_NAME"),
		Audit:       os.Getenv("DYNAMODB_AUDIT_TABLE_NAME"),
	}
	if tables.Ledger == "" || tables.Wallets == "" || tables.Settlements == "" {
		log.Fatal("One or more DynamoDB table name environment variables are not set")
	}
	store := dydbstore.New(dbClient, tables)

	// Finalization runs per-message, so no scheduler is needed here. The conditional
	// writes on entry and settlement status keep concurrent workers safe with the
	// in-process locker.
	locker := locks.NewKeyedMutex()
	ledgerEngine := ledger.New(store, store, locker, ledgerevents.Nop{})
	enforcer := limits.New(store, store, store)
	settlementEngine = settlement.New(store, store, store, store, ledgerEngine, enforcer, locker, nil, payout.LogTransferer{})
}

// HandleRequest processes SQS messages and finalizes the settlements they name.
func HandleRequest(ctx context.Context, sqsEvent events.SQSEvent) error {
	for _, message := range sqsEvent.Records {
		log.Printf("Processing message %s", message.MessageId)

		var msg scheduler.FinalizationMessage
		if err := json.Unmarshal([]byte(message.Body), &msg); err != nil {
			log.Printf("ERROR: failed to unmarshal finalization message %s: %v", message.MessageId, err)
			// Returning an error will cause SQS to retry the message, which is appropriate here.
			return err
		}

		log.Printf("Attempting to finalize settlement %s", msg.SettlementID)

		if err := settlementEngine.Finalize(ctx, msg.SettlementID); err != nil {
			log.Printf("ERROR: failed to finalize settlement %s: %v", msg.SettlementID, err)
			// In a production system, persistent failures would be sent to a DLQ.
			return err
		}

		log.Printf("Successfully finalized settlement %s", msg.SettlementID)
	}

	return nil
}

func main() {
	lambda.Start(HandleRequest)
}
