package dynamodb

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/resellpay/wallet-engine/pkg/models"
	"github.com/resellpay/wallet-engine/pkg/storage"
	"github.com/resellpay/wallet-engine/pkg/storage/dynamodb/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestGetLimit(t *testing.T) {
	limit := &models.UserLimit{
		UserID:      "user-1",
		WalletType:  models.WalletPrimary,
		LimitType:   models.LimitDailyTransaction,
		LimitAmount: 500000,
		IsEnabled:   true,
	}

	t.Run("Success", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		limitAV, _ := attributevalue.MarshalMap(limit)
		mockClient.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{Item: limitAV}, nil)

		store := New(mockClient, testTables)
		got, err := store.GetLimit(context.Background(), "user-1", models.WalletPrimary, models.LimitDailyTransaction)

		assert.NoError(t, err)
		assert.Equal(t, limit, got)
		mockClient.AssertExpectations(t)
	})

	t.Run("Missing Row Means No Limit", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		mockClient.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{Item: nil}, nil)

		store := New(mockClient, testTables)
		got, err := store.GetLimit(context.Background(), "user-1", models.WalletPrimary, models.LimitDailyTransaction)

		assert.NoError(t, err)
		assert.Nil(t, got)
		mockClient.AssertExpectations(t)
	})

	t.Run("Storage Error", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		mockClient.On("GetItem", mock.Anything, mock.Anything).Return(nil, errors.New("some other storage error"))

		store := New(mockClient, testTables)
		_, err := store.GetLimit(context.Background(), "user-1", models.WalletPrimary, models.LimitDailyTransaction)

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to get user limit")
		mockClient.AssertExpectations(t)
	})
}

func TestListActiveSlabs(t *testing.T) {
	slabs := []models.ChargeSlab{
		{ID: "slab-1", MinAmount: 10000, MaxAmount: 100000, ChargeType: models.ChargeFixed, Charge: 50, IsActive: true},
	}

	t.Run("Success", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		var items []map[string]types.AttributeValue
		for _, s := range slabs {
			av, err := attributevalue.MarshalMap(s)
			assert.NoError(t, err)
			items = append(items, av)
		}
		mockClient.On("Scan", mock.Anything, mock.Anything).Return(&dynamodb.ScanOutput{Items: items}, nil)

		store := New(mockClient, testTables)
		got, err := store.ListActiveSlabs(context.Background())

		assert.NoError(t, err)
		assert.Len(t, got, 1)
		assert.Equal(t, slabs[0].ID, got[0].ID)
		assert.Equal(t, slabs[0].Charge, got[0].Charge)
		mockClient.AssertExpectations(t)
	})

	t.Run("Storage Error", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		mockClient.On("Scan", mock.Anything, mock.Anything).Return(nil, errors.New("some other storage error"))

		store := New(mockClient, testTables)
		_, err := store.ListActiveSlabs(context.Background())

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to scan charge slabs")
		mockClient.AssertExpectations(t)
	})
}

func TestPutCommission(t *testing.T) {
	commission := &models.CommissionEntry{
		ID:            "pay-001_distributor",
		UserID:        "distributor-1",
		UserRole:      models.RoleDistributor,
		ReferenceID:   "pay-001_distributor",
		LedgerEntryID: "entry-1",
	}

	t.Run("Success", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		mockClient.On("PutItem", mock.Anything, mock.Anything).Return(&dynamodb.PutItemOutput{}, nil)

		store := New(mockClient, testTables)
		err := store.PutCommission(context.Background(), commission)

		assert.NoError(t, err)
		mockClient.AssertExpectations(t)
	})

	t.Run("Duplicate Row", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		mockClient.On("PutItem", mock.Anything, mock.Anything).Return(nil, &types.ConditionalCheckFailedException{})

		store := New(mockClient, testTables)
		err := store.PutCommission(context.Background(), commission)

		assert.ErrorIs(t, err, storage.ErrDuplicateEntry)
		mockClient.AssertExpectations(t)
	})

	t.Run("Storage Error", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		mockClient.On("PutItem", mock.Anything, mock.Anything).Return(nil, errors.New("some other storage error"))

		store := New(mockClient, testTables)
		err := store.PutCommission(context.Background(), commission)

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to put commission entry")
		mockClient.AssertExpectations(t)
	})
}

func TestListAudit(t *testing.T) {
	records := []models.AuditRecord{
		{ID: "audit-1", ActorID: "admin-1", Action: "push_funds", TargetUserID: "user-1"},
	}

	t.Run("Filtered By User", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		var items []map[string]types.AttributeValue
		for _, r := range records {
			av, err := attributevalue.MarshalMap(r)
			assert.NoError(t, err)
			items = append(items, av)
		}
		mockClient.On("Scan", mock.Anything, mock.MatchedBy(func(input *dynamodb.ScanInput) bool {
			return input.FilterExpression != nil
		})).Return(&dynamodb.ScanOutput{Items: items}, nil)

		store := New(mockClient, testTables)
		got, err := store.ListAudit(context.Background(), "user-1", 10)

		assert.NoError(t, err)
		assert.Equal(t, records, got)
		mockClient.AssertExpectations(t)
	})

	t.Run("Unfiltered", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		mockClient.On("Scan", mock.Anything, mock.MatchedBy(func(input *dynamodb.ScanInput) bool {
			return input.FilterExpression == nil
		})).Return(&dynamodb.ScanOutput{}, nil)

		store := New(mockClient, testTables)
		got, err := store.ListAudit(context.Background(), "", 10)

		assert.NoError(t, err)
		assert.Empty(t, got)
		mockClient.AssertExpectations(t)
	})
}
