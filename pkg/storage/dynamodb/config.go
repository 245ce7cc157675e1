package dynamodb

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/resellpay/wallet-engine/pkg/models"
	"github.com/resellpay/wallet-engine/pkg/storage"
)

func limitKey(walletType models.WalletType, limitType models.LimitType) string {
	return string(walletType) + "#" + string(limitType)
}

// GetLimit retrieves the configured limit row for (user, wallet type, limit type).
// A missing row is not an error: it means no limit is configured.
func (s *Store) GetLimit(ctx context.Context, userID string, walletType models.WalletType, limitType models.LimitType) (*models.UserLimit, error) {
	key, err := attributevalue.MarshalMap(map[string]string{
		"user_id":   userID,
		"limit_key": limitKey(walletType, limitType),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal limit key: %w", err)
	}

	result, err := s.Client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.Tables.Limits),
		Key:       key,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get user limit: %w", err)
	}
	if result.Item == nil {
		return nil, nil
	}

	var limit models.UserLimit
	if err := attributevalue.UnmarshalMap(result.Item, &limit); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user limit: %w", err)
	}
	return &limit, nil
}

// PutLimit creates or replaces a limit row.
func (s *Store) PutLimit(ctx context.Context, limit *models.UserLimit) error {
	item, err := attributevalue.MarshalMap(limit)
	if err != nil {
		return fmt.Errorf("failed to marshal user limit: %w", err)
	}
	item["limit_key"] = &types.AttributeValueMemberS{
		Value: limitKey(limit.WalletType, limit.LimitType),
	}

	if _, err := s.Client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.Tables.Limits),
		Item:      item,
	}); err != nil {
		return fmt.Errorf("failed to put user limit: %w", err)
	}
	return nil
}

// ListActiveSlabs retrieves all active settlement charge slabs.
func (s *Store) ListActiveSlabs(ctx context.Context) ([]models.ChargeSlab, error) {
	input := &dynamodb.ScanInput{
		TableName:        aws.String(s.Tables.Slabs),
		FilterExpression: aws.String("is_active = :active"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":active": &types.AttributeValueMemberBOOL{Value: true},
		},
	}

	var slabs []models.ChargeSlab
	for {
		result, err := s.Client.Scan(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("failed to scan charge slabs: %w", err)
		}

		var page []models.ChargeSlab
		if err := attributevalue.UnmarshalListOfMaps(result.Items, &page); err != nil {
			return nil, fmt.Errorf("failed to unmarshal charge slabs: %w", err)
		}
		slabs = append(slabs, page...)

		if result.LastEvaluatedKey == nil {
			break
		}
		input.ExclusiveStartKey = result.LastEvaluatedKey
	}

	return slabs, nil
}

// PutCommission appends a commission entry.
func (s *Store) PutCommission(ctx context.Context, c *models.CommissionEntry) error {
	item, err := attributevalue.MarshalMap(c)
	if err != nil {
		return fmt.Errorf("failed to marshal commission entry: %w", err)
	}

	if _, err := s.Client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.Tables.Commissions),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(id)"),
	}); err != nil {
		var conditionFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			return storage.ErrDuplicateEntry
		}
		return fmt.Errorf("failed to put commission entry: %w", err)
	}
	return nil
}

// PutAudit appends an audit record. Audit rows are never updated or deleted.
func (s *Store) PutAudit(ctx context.Context, rec *models.AuditRecord) error {
	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal audit record: %w", err)
	}

	if _, err := s.Client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.Tables.Audit),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(id)"),
	}); err != nil {
		return fmt.Errorf("failed to put audit record: %w", err)
	}
	return nil
}

// ListAudit retrieves the most recent audit records, optionally filtered to one user.
func (s *Store) ListAudit(ctx context.Context, targetUserID string, limit int32) ([]models.AuditRecord, error) {
	input := &dynamodb.ScanInput{
		TableName: aws.String(s.Tables.Audit),
		Limit:     aws.Int32(limit),
	}
	if targetUserID != "" {
		input.FilterExpression = aws.String("target_user_id = :user")
		input.ExpressionAttributeValues = map[string]types.AttributeValue{
			":user": &types.AttributeValueMemberS{Value: targetUserID},
		}
	}

	result, err := s.Client.Scan(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to scan audit records: %w", err)
	}

	var records []models.AuditRecord
	if err := attributevalue.UnmarshalListOfMaps(result.Items, &records); err != nil {
		return nil, fmt.Errorf("failed to unmarshal audit records: %w", err)
	}
	return records, nil
}
