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

// CreateSettlementWithDebit persists the settlement row and its reserving ledger debit
// in a single TransactWriteItems call so a storage failure can never leave a
// settlement without its paired debit, or the other way around.
func (s *Store) CreateSettlementWithDebit(ctx context.Context, settlement *models.Settlement, debit *models.LedgerEntry) error {
	settlementAV, err := attributevalue.MarshalMap(settlement)
	if err != nil {
		return fmt.Errorf("failed to marshal settlement: %w", err)
	}
	debitAV, err := attributevalue.MarshalMap(debit)
	if err != nil {
		return fmt.Errorf("failed to marshal settlement debit: %w", err)
	}

	input := &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{
				Put: &types.Put{
					TableName:           aws.String(s.Tables.Settlements),
					Item:                settlementAV,
					ConditionExpression: aws.String("attribute_not_exists(id)"),
				},
			},
			{
				Put: &types.Put{
					TableName:           aws.String(s.Tables.Ledger),
					Item:                debitAV,
					ConditionExpression: aws.String("attribute_not_exists(wallet_id) AND attribute_not_exists(ref_key)"),
				},
			},
		},
	}

	if _, err := s.Client.TransactWriteItems(ctx, input); err != nil {
		var tce *types.TransactionCanceledException
		if errors.As(err, &tce) {
			for _, reason := range tce.CancellationReasons {
				if reason.Code != nil && *reason.Code == "ConditionalCheckFailed" {
					return storage.ErrDuplicateEntry
				}
			}
		}
		return fmt.Errorf("failed to create settlement with debit: %w", err)
	}

	return nil
}

// GetSettlement retrieves a settlement by id.
func (s *Store) GetSettlement(ctx context.Context, id string) (*models.Settlement, error) {
	key, err := attributevalue.MarshalMap(map[string]string{"id": id})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal settlement key: %w", err)
	}

	result, err := s.Client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.Tables.Settlements),
		Key:            key,
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get settlement: %w", err)
	}
	if result.Item == nil {
		return nil, storage.ErrSettlementNotFound
	}

	var settlement models.Settlement
	if err := attributevalue.UnmarshalMap(result.Item, &settlement); err != nil {
		return nil, fmt.Errorf("failed to unmarshal settlement: %w", err)
	}
	return &settlement, nil
}

// UpdateSettlementStatus transitions a settlement's status, guarded by its current
// status. The guard is what makes batch re-runs and duplicate queue deliveries no-ops.
func (s *Store) UpdateSettlementStatus(ctx context.Context, id string, from []models.SettlementStatus, to models.SettlementStatus, failureReason string) error {
	key, err := attributevalue.MarshalMap(map[string]string{"id": id})
	if err != nil {
		return fmt.Errorf("failed to marshal settlement key: %w", err)
	}

	nowAV, err := attributevalue.Marshal(time.Now())
	if err != nil {
		return fmt.Errorf("failed to marshal timestamp: %w", err)
	}

	values := map[string]types.AttributeValue{
		":to":  &types.AttributeValueMemberS{Value: string(to)},
		":now": nowAV,
	}
	cond := "#status IN ("
	for i, st := range from {
		placeholder := fmt.Sprintf(":from%d", i)
		values[placeholder] = &types.AttributeValueMemberS{Value: string(st)}
		if i > 0 {
			cond += ", "
		}
		cond += placeholder
	}
	cond += ")"

	update := "SET #status = :to, updated_at = :now"
	if failureReason != "" {
		update += ", failure_reason = :reason"
		values[":reason"] = &types.AttributeValueMemberS{Value: failureReason}
	}

	input := &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.Tables.Settlements),
		Key:                       key,
		UpdateExpression:          aws.String(update),
		ConditionExpression:       aws.String(cond),
		ExpressionAttributeNames:  map[string]string{"#status": "status"},
		ExpressionAttributeValues: values,
	}

	if _, err := s.Client.UpdateItem(ctx, input); err != nil {
		var condCheckFailed *types.ConditionalCheckFailedException
		if errors.As(err, &condCheckFailed) {
			return storage.ErrStatusConflict
		}
		return fmt.Errorf("failed to update settlement status: %w", err)
	}
	return nil
}

// ListPendingT1Before retrieves pending T+1 settlements created before the cutoff.
func (s *Store) ListPendingT1Before(ctx context.Context, cutoff time.Time) ([]models.Settlement, error) {
	cutoffStr, err := cutoff.MarshalText()
	if err != nil {
		return nil, fmt.Errorf("failed to marshal cutoff time: %w", err)
	}

	input := &dynamodb.QueryInput{
		TableName:                aws.String(s.Tables.Settlements),
		IndexName:                aws.String(settlementStatusIndex),
		KeyConditionExpression:   aws.String("#status = :pending AND created_at < :cutoff"),
		FilterExpression:         aws.String("settlement_mode = :t1"),
		ExpressionAttributeNames: map[string]string{"#status": "status"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pending": &types.AttributeValueMemberS{Value: string(models.SettlementPending)},
			":cutoff":  &types.AttributeValueMemberS{Value: string(cutoffStr)},
			":t1":      &types.AttributeValueMemberS{Value: string(models.SettlementT1)},
		},
	}

	var settlements []models.Settlement
	for {
		result, err := s.Client.Query(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("failed to query pending settlements: %w", err)
		}

		var page []models.Settlement
		if err := attributevalue.UnmarshalListOfMaps(result.Items, &page); err != nil {
			return nil, fmt.Errorf("failed to unmarshal settlements: %w", err)
		}
		settlements = append(settlements, page...)

		if result.LastEvaluatedKey == nil {
			break
		}
		input.ExclusiveStartKey = result.LastEvaluatedKey
	}

	return settlements, nil
}

// SumSettledSince sums settlement amounts requested by the user at or after the given
// time. Failed settlements are excluded; their funds were returned by reversal.
func (s *Store) SumSettledSince(ctx context.Context, userID string, since time.Time) (int64, error) {
	sinceStr, err := since.MarshalText()
	if err != nil {
		return 0, fmt.Errorf("failed to marshal cutoff time: %w", err)
	}

	input := &dynamodb.QueryInput{
		TableName:                aws.String(s.Tables.Settlements),
		IndexName:                aws.String(settlementUserIndex),
		KeyConditionExpression:   aws.String("user_id = :user_id AND created_at >= :since"),
		FilterExpression:         aws.String("#status <> :failed"),
		ExpressionAttributeNames: map[string]string{"#status": "status"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":user_id": &types.AttributeValueMemberS{Value: userID},
			":since":   &types.AttributeValueMemberS{Value: string(sinceStr)},
			":failed":  &types.AttributeValueMemberS{Value: string(models.SettlementFailed)},
		},
	}

	var sum int64
	for {
		result, err := s.Client.Query(ctx, input)
		if err != nil {
			return 0, fmt.Errorf("failed to query user settlements: %w", err)
		}

		var page []models.Settlement
		if err := attributevalue.UnmarshalListOfMaps(result.Items, &page); err != nil {
			return 0, fmt.Errorf("failed to unmarshal settlements: %w", err)
		}
		for _, st := range page {
			sum += st.Amount
		}

		if result.LastEvaluatedKey == nil {
			break
		}
		input.ExclusiveStartKey = result.LastEvaluatedKey
	}

	return sum, nil
}
