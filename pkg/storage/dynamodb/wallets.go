package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/resellpay/wallet-engine/pkg/models"
	"github.com/resellpay/wallet-engine/pkg/storage"
)

func walletKey(userID string, walletType models.WalletType) (map[string]types.AttributeValue, error) {
	return attributevalue.MarshalMap(map[string]string{
		"user_id":     userID,
		"wallet_type": string(walletType),
	})
}

// EnsureWallet returns the wallet for (user, wallet type), creating it lazily on first
// reference. Creation races resolve to the existing row.
func (s *Store) EnsureWallet(ctx context.Context, userID string, walletType models.WalletType) (*models.Wallet, error) {
	wallet := &models.Wallet{
		UserID:     userID,
		WalletType: walletType,
		CreatedAt:  time.Now(),
	}

	item, err := attributevalue.MarshalMap(wallet)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal wallet: %w", err)
	}

	_, err = s.Client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.Tables.Wallets),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(user_id)"),
	})
	if err != nil {
		var condCheckFailed *types.ConditionalCheckFailedException
		if errors.As(err, &condCheckFailed) {
			return s.GetWallet(ctx, userID, walletType)
		}
		return nil, fmt.Errorf("failed to create wallet: %w", err)
	}

	return wallet, nil
}

// GetWallet retrieves a wallet control row.
func (s *Store) GetWallet(ctx context.Context, userID string, walletType models.WalletType) (*models.Wallet, error) {
	key, err := walletKey(userID, walletType)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal wallet key: %w", err)
	}

	result, err := s.Client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.Tables.Wallets),
		Key:            key,
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	if result.Item == nil {
		return nil, storage.ErrWalletNotFound
	}

	var wallet models.Wallet
	if err := attributevalue.UnmarshalMap(result.Item, &wallet); err != nil {
		return nil, fmt.Errorf("failed to unmarshal wallet: %w", err)
	}
	return &wallet, nil
}

// SetFrozen sets or clears the frozen flag on a wallet.
func (s *Store) SetFrozen(ctx context.Context, userID string, walletType models.WalletType, frozen bool) error {
	return s.setFlag(ctx, userID, walletType, "is_frozen", frozen)
}

// SetSettlementHold sets or clears the settlement-held flag on a wallet.
func (s *Store) SetSettlementHold(ctx context.Context, userID string, walletType models.WalletType, held bool) error {
	return s.setFlag(ctx, userID, walletType, "is_settlement_held", held)
}

func (s *Store) setFlag(ctx context.Context, userID string, walletType models.WalletType, attr string, value bool) error {
	key, err := walletKey(userID, walletType)
	if err != nil {
		return fmt.Errorf("failed to marshal wallet key: %w", err)
	}

	_, err = s.Client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                aws.String(s.Tables.Wallets),
		Key:                      key,
		UpdateExpression:         aws.String("SET #flag = :value"),
		ConditionExpression:      aws.String("attribute_exists(user_id)"),
		ExpressionAttributeNames: map[string]string{"#flag": attr},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":value": &types.AttributeValueMemberBOOL{Value: value},
		},
	})
	if err != nil {
		var condCheckFailed *types.ConditionalCheckFailedException
		if errors.As(err, &condCheckFailed) {
			return storage.ErrWalletNotFound
		}
		return fmt.Errorf("failed to update wallet flag %s: %w", attr, err)
	}
	return nil
}

// ListWallets retrieves all wallet control rows.
func (s *Store) ListWallets(ctx context.Context) ([]models.Wallet, error) {
	var wallets []models.Wallet

	input := &dynamodb.ScanInput{TableName: aws.String(s.Tables.Wallets)}
	for {
		result, err := s.Client.Scan(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("failed to scan wallets: %w", err)
		}

		var page []models.Wallet
		if err := attributevalue.UnmarshalListOfMaps(result.Items, &page); err != nil {
			return nil, fmt.Errorf("failed to unmarshal wallets: %w", err)
		}
		wallets = append(wallets, page...)

		if result.LastEvaluatedKey == nil {
			break
		}
		input.ExclusiveStartKey = result.LastEvaluatedKey
	}

	return wallets, nil
}
