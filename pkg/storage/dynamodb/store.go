package dynamodb

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/resellpay/wallet-engine/pkg/storage"
)

// DynamoDBAPI defines the subset of the DynamoDB client used by the store.
// It exists so the store can be tested against a mock client.
type DynamoDBAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
}

// Tables names the DynamoDB tables backing the engine.
type Tables struct {
	Ledger      string
	Wallets     string
	Settlements string
	Limits      string
	Slabs       string
	Commissions string
	Audit       string
}

// Store implements the storage interfaces using AWS DynamoDB.
type Store struct {
	Client DynamoDBAPI
	Tables Tables
}

// New creates a new Store.
func New(client DynamoDBAPI, tables Tables) *Store {
	return &Store{Client: client, Tables: tables}
}

// Make sure we conform to the interface
var _ storage.Storage = (*Store)(nil)

const (
	entryIDIndex          = "entry_id-index"
	settlementStatusIndex = "status-created_at-index"
	settlementUserIndex   = "user_id-created_at-index"
)
