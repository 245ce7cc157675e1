package dynamodb

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/resellpay/wallet-engine/pkg/models"
	"github.com/resellpay/wallet-engine/pkg/storage"
	"github.com/resellpay/wallet-engine/pkg/storage/dynamodb/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestCreateSettlementWithDebit(t *testing.T) {
	settlement := &models.Settlement{
		ID:        "stl-1",
		UserID:    "user-1",
		Mode:      models.SettlementInstant,
		Amount:    50000,
		Charge:    500,
		NetAmount: 49500,
		Status:    models.SettlementProcessing,
	}
	debit := &models.LedgerEntry{
		EntryID:  "entry-1",
		WalletID: "user-1#primary",
		RefKey:   "stl-1#SETTLEMENT_DEBIT",
		Debit:    50000,
		Status:   models.EntryPending,
	}

	t.Run("Success", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		mockClient.On("TransactWriteItems", mock.Anything, mock.Anything).Return(&dynamodb.TransactWriteItemsOutput{}, nil)

		store := New(mockClient, testTables)
		err := store.CreateSettlementWithDebit(context.Background(), settlement, debit)

		assert.NoError(t, err)
		mockClient.AssertExpectations(t)
	})

	t.Run("Duplicate Settlement", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		cancellationReasons := []types.CancellationReason{
			{Code: aws.String("ConditionalCheckFailed")},
			{Code: aws.String("None")},
		}
		mockClient.On("TransactWriteItems", mock.Anything, mock.Anything).Return(nil, &types.TransactionCanceledException{CancellationReasons: cancellationReasons})

		store := New(mockClient, testTables)
		err := store.CreateSettlementWithDebit(context.Background(), settlement, debit)

		assert.ErrorIs(t, err, storage.ErrDuplicateEntry)
		mockClient.AssertExpectations(t)
	})

	t.Run("Storage Error", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		mockClient.On("TransactWriteItems", mock.Anything, mock.Anything).Return(nil, errors.New("some other storage error"))

		store := New(mockClient, testTables)
		err := store.CreateSettlementWithDebit(context.Background(), settlement, debit)

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to create settlement with debit")
		mockClient.AssertExpectations(t)
	})
}

func TestGetSettlement(t *testing.T) {
	settlement := &models.Settlement{ID: "stl-1", UserID: "user-1", Amount: 50000, Status: models.SettlementPending}

	t.Run("Success", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		settlementAV, _ := attributevalue.MarshalMap(settlement)
		mockClient.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{Item: settlementAV}, nil)

		store := New(mockClient, testTables)
		got, err := store.GetSettlement(context.Background(), "stl-1")

		assert.NoError(t, err)
		assert.Equal(t, settlement, got)
		mockClient.AssertExpectations(t)
	})

	t.Run("Not Found", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		mockClient.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{Item: nil}, nil)

		store := New(mockClient, testTables)
		_, err := store.GetSettlement(context.Background(), "missing")

		assert.ErrorIs(t, err, storage.ErrSettlementNotFound)
		mockClient.AssertExpectations(t)
	})
}

func TestUpdateSettlementStatus(t *testing.T) {
	from := []models.SettlementStatus{models.SettlementPending, models.SettlementProcessing}

	t.Run("Success", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		mockClient.On("UpdateItem", mock.Anything, mock.Anything).Return(&dynamodb.UpdateItemOutput{}, nil)

		store := New(mockClient, testTables)
		err := store.UpdateSettlementStatus(context.Background(), "stl-1", from, models.SettlementSuccess, "")

		assert.NoError(t, err)
		mockClient.AssertExpectations(t)
	})

	t.Run("Status Conflict", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		mockClient.On("UpdateItem", mock.Anything, mock.Anything).Return(nil, &types.ConditionalCheckFailedException{})

		store := New(mockClient, testTables)
		err := store.UpdateSettlementStatus(context.Background(), "stl-1", from, models.SettlementSuccess, "")

		assert.ErrorIs(t, err, storage.ErrStatusConflict)
		mockClient.AssertExpectations(t)
	})

	t.Run("Storage Error", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		mockClient.On("UpdateItem", mock.Anything, mock.Anything).Return(nil, errors.New("some other storage error"))

		store := New(mockClient, testTables)
		err := store.UpdateSettlementStatus(context.Background(), "stl-1", from, models.SettlementFailed, "bank transfer failed")

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to update settlement status")
		mockClient.AssertExpectations(t)
	})
}

func TestListPendingT1Before(t *testing.T) {
	settlements := []models.Settlement{
		{ID: "stl-1", UserID: "user-1", Mode: models.SettlementT1, Status: models.SettlementPending},
		{ID: "stl-2", UserID: "user-2", Mode: models.SettlementT1, Status: models.SettlementPending},
	}

	t.Run("Success", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		var items []map[string]types.AttributeValue
		for _, s := range settlements {
			av, err := attributevalue.MarshalMap(s)
			assert.NoError(t, err)
			items = append(items, av)
		}
		mockClient.On("Query", mock.Anything, mock.Anything).Return(&dynamodb.QueryOutput{Items: items}, nil)

		store := New(mockClient, testTables)
		got, err := store.ListPendingT1Before(context.Background(), time.Now())

		assert.NoError(t, err)
		assert.Equal(t, settlements, got)
		mockClient.AssertExpectations(t)
	})

	t.Run("Storage Error", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		mockClient.On("Query", mock.Anything, mock.Anything).Return(nil, errors.New("some other storage error"))

		store := New(mockClient, testTables)
		_, err := store.ListPendingT1Before(context.Background(), time.Now())

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to query pending settlements")
		mockClient.AssertExpectations(t)
	})
}

func TestSumSettledSince(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		var items []map[string]types.AttributeValue
		for _, s := range []models.Settlement{
			{ID: "stl-1", Amount: 30000, Status: models.SettlementSuccess},
			{ID: "stl-2", Amount: 20000, Status: models.SettlementPending},
		} {
			av, err := attributevalue.MarshalMap(s)
			assert.NoError(t, err)
			items = append(items, av)
		}
		mockClient.On("Query", mock.Anything, mock.Anything).Return(&dynamodb.QueryOutput{Items: items}, nil)

		store := New(mockClient, testTables)
		sum, err := store.SumSettledSince(context.Background(), "user-1", time.Now().Add(-24*time.Hour))

		assert.NoError(t, err)
		assert.Equal(t, int64(50000), sum)
		mockClient.AssertExpectations(t)
	})

	t.Run("Storage Error", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		mockClient.On("Query", mock.Anything, mock.Anything).Return(nil, errors.New("some other storage error"))

		store := New(mockClient, testTables)
		_, err := store.SumSettledSince(context.Background(), "user-1", time.Now())

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to query user settlements")
		mockClient.AssertExpectations(t)
	})
}
