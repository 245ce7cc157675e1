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

func TestEnsureWallet(t *testing.T) {
	t.Run("Creates On First Reference", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		mockClient.On("PutItem", mock.Anything, mock.Anything).Return(&dynamodb.PutItemOutput{}, nil)

		store := New(mockClient, testTables)
		wallet, err := store.EnsureWallet(context.Background(), "user-1", models.WalletPrimary)

		assert.NoError(t, err)
		assert.Equal(t, "user-1", wallet.UserID)
		assert.Equal(t, models.WalletPrimary, wallet.WalletType)
		assert.False(t, wallet.IsFrozen)
		mockClient.AssertExpectations(t)
	})

	t.Run("Existing Wallet Wins The Race", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		mockClient.On("PutItem", mock.Anything, mock.Anything).Return(nil, &types.ConditionalCheckFailedException{})

		existing := &models.Wallet{UserID: "user-1", WalletType: models.WalletPrimary, IsFrozen: true}
		existingAV, _ := attributevalue.MarshalMap(existing)
		mockClient.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{Item: existingAV}, nil)

		store := New(mockClient, testTables)
		wallet, err := store.EnsureWallet(context.Background(), "user-1", models.WalletPrimary)

		assert.NoError(t, err)
		assert.True(t, wallet.IsFrozen)
		mockClient.AssertExpectations(t)
	})

	t.Run("Storage Error", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		mockClient.On("PutItem", mock.Anything, mock.Anything).Return(nil, errors.New("some other storage error"))

		store := New(mockClient, testTables)
		_, err := store.EnsureWallet(context.Background(), "user-1", models.WalletPrimary)

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to create wallet")
		mockClient.AssertExpectations(t)
	})
}

func TestGetWallet(t *testing.T) {
	wallet := &models.Wallet{UserID: "user-1", WalletType: models.WalletPrimary}

	t.Run("Success", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		walletAV, _ := attributevalue.MarshalMap(wallet)
		mockClient.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{Item: walletAV}, nil)

		store := New(mockClient, testTables)
		got, err := store.GetWallet(context.Background(), "user-1", models.WalletPrimary)

		assert.NoError(t, err)
		assert.Equal(t, wallet, got)
		mockClient.AssertExpectations(t)
	})

	t.Run("Not Found", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		mockClient.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{Item: nil}, nil)

		store := New(mockClient, testTables)
		_, err := store.GetWallet(context.Background(), "user-1", models.WalletPrimary)

		assert.ErrorIs(t, err, storage.ErrWalletNotFound)
		mockClient.AssertExpectations(t)
	})

	t.Run("Storage Error", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		mockClient.On("GetItem", mock.Anything, mock.Anything).Return(nil, errors.New("some other storage error"))

		store := New(mockClient, testTables)
		_, err := store.GetWallet(context.Background(), "user-1", models.WalletPrimary)

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to get wallet")
		mockClient.AssertExpectations(t)
	})
}

func TestSetFrozen(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		mockClient.On("UpdateItem", mock.Anything, mock.Anything).Return(&dynamodb.UpdateItemOutput{}, nil)

		store := New(mockClient, testTables)
		err := store.SetFrozen(context.Background(), "user-1", models.WalletPrimary, true)

		assert.NoError(t, err)
		mockClient.AssertExpectations(t)
	})

	t.Run("Wallet Missing", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		mockClient.On("UpdateItem", mock.Anything, mock.Anything).Return(nil, &types.ConditionalCheckFailedException{})

		store := New(mockClient, testTables)
		err := store.SetFrozen(context.Background(), "user-1", models.WalletPrimary, true)

		assert.ErrorIs(t, err, storage.ErrWalletNotFound)
		mockClient.AssertExpectations(t)
	})

	t.Run("Storage Error", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		mockClient.On("UpdateItem", mock.Anything, mock.Anything).Return(nil, errors.New("some other storage error"))

		store := New(mockClient, testTables)
		err := store.SetSettlementHold(context.Background(), "user-1", models.WalletPrimary, true)

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to update wallet flag")
		mockClient.AssertExpectations(t)
	})
}

func TestListWallets(t *testing.T) {
	wallets := []models.Wallet{
		{UserID: "user-1", WalletType: models.WalletPrimary},
		{UserID: "user-2", WalletType: models.WalletAeps},
	}

	t.Run("Success", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		var walletsAV []map[string]types.AttributeValue
		for _, w := range wallets {
			av, err := attributevalue.MarshalMap(w)
			assert.NoError(t, err)
			walletsAV = append(walletsAV, av)
		}
		mockClient.On("Scan", mock.Anything, mock.Anything).Return(&dynamodb.ScanOutput{Items: walletsAV}, nil)

		store := New(mockClient, testTables)
		got, err := store.ListWallets(context.Background())

		assert.NoError(t, err)
		assert.Equal(t, wallets, got)
		mockClient.AssertExpectations(t)
	})

	t.Run("Storage Error", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		mockClient.On("Scan", mock.Anything, mock.Anything).Return(nil, errors.New("some other storage error"))

		store := New(mockClient, testTables)
		_, err := store.ListWallets(context.Background())

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to scan wallets")
		mockClient.AssertExpectations(t)
	})
}
