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

// PutEntry appends a new ledger entry. The (wallet_id, ref_key) key makes the write
// a natural idempotency barrier: a second write with the same business reference
// fails the condition and surfaces as ErrDuplicateEntry.
func (s *Store) PutEntry(ctx context.Context, entry *models.LedgerEntry) error {
	item, err := attributevalue.MarshalMap(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal ledger entry: %w", err)
	}

	input := &dynamodb.PutItemInput{
		TableName:           aws.String(s.Tables.Ledger),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(wallet_id) AND attribute_not_exists(ref_key)"),
	}

	if _, err := s.Client.PutItem(ctx, input); err != nil {
		var condCheckFailed *types.ConditionalCheckFailedException
		if errors.As(err, &condCheckFailed) {
			return storage.ErrDuplicateEntry
		}
		return fmt.Errorf("failed to put ledger entry: %w", err)
	}

	return nil
}

// GetEntryByRefKey retrieves the entry with the given idempotency key. The read is
// strongly consistent so a replayed operation always sees its first application.
func (s *Store) GetEntryByRefKey(ctx context.Context, walletID, refKey string) (*models.LedgerEntry, error) {
	key, err := attributevalue.MarshalMap(map[string]string{"wallet_id": walletID, "ref_key": refKey})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal ledger entry key: %w", err)
	}

	result, err := s.Client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.Tables.Ledger),
		Key:            key,
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger entry: %w", err)
	}
	if result.Item == nil {
		return nil, storage.ErrEntryNotFound
	}

	var entry models.LedgerEntry
	if err := attributevalue.UnmarshalMap(result.Item, &entry); err != nil {
		return nil, fmt.Errorf("failed to unmarshal ledger entry: %w", err)
	}
	return &entry, nil
}

// GetEntryByID retrieves an entry by its unique entry id via the entry_id GSI.
func (s *Store) GetEntryByID(ctx context.Context, entryID string) (*models.LedgerEntry, error) {
	result, err := s.Client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.Tables.Ledger),
		IndexName:              aws.String(entryIDIndex),
		KeyConditionExpression: aws.String("entry_id = :entry_id"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":entry_id": &types.AttributeValueMemberS{Value: entryID},
		},
		Limit: aws.Int32(1),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger entry by id: %w", err)
	}
	if len(result.Items) == 0 {
		return nil, storage.ErrEntryNotFound
	}

	var entry models.LedgerEntry
	if err := attributevalue.UnmarshalMap(result.Items[0], &entry); err != nil {
		return nil, fmt.Errorf("failed to unmarshal ledger entry: %w", err)
	}
	return &entry, nil
}

// UpdateEntryStatus transitions an entry's status, guarded by its current status.
func (s *Store) UpdateEntryStatus(ctx context.Context, walletID, refKey string, from []models.EntryStatus, to models.EntryStatus) error {
	key, err := attributevalue.MarshalMap(map[string]string{"wallet_id": walletID, "ref_key": refKey})
	if err != nil {
		return fmt.Errorf("failed to marshal ledger entry key: %w", err)
	}

	values := map[string]types.AttributeValue{
		":to": &types.AttributeValueMemberS{Value: string(to)},
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

	input := &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.Tables.Ledger),
		Key:                       key,
		UpdateExpression:          aws.String("SET #status = :to"),
		ConditionExpression:       aws.String(cond),
		ExpressionAttributeNames:  map[string]string{"#status": "status"},
		ExpressionAttributeValues: values,
	}

	if _, err := s.Client.UpdateItem(ctx, input); err != nil {
		var condCheckFailed *types.ConditionalCheckFailedException
		if errors.As(err, &condCheckFailed) {
			return storage.ErrStatusConflict
		}
		return fmt.Errorf("failed to update ledger entry status: %w", err)
	}
	return nil
}

// WalletTotals sums the wallet's ledger partition with strongly consistent reads.
// The balance is always derived here, never cached, so it cannot drift from the log.
func (s *Store) WalletTotals(ctx context.Context, walletID string) (storage.WalletTotals, error) {
	var totals storage.WalletTotals

	input := &dynamodb.QueryInput{
		TableName:              aws.String(s.Tables.Ledger),
		KeyConditionExpression: aws.String("wallet_id = :wallet_id"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":wallet_id": &types.AttributeValueMemberS{Value: walletID},
		},
		ConsistentRead: aws.Bool(true),
	}

	for {
		result, err := s.Client.Query(ctx, input)
		if err != nil {
			return storage.WalletTotals{}, fmt.Errorf("failed to query wallet ledger partition: %w", err)
		}

		var entries []models.LedgerEntry
		if err := attributevalue.UnmarshalListOfMaps(result.Items, &entries); err != nil {
			return storage.WalletTotals{}, fmt.Errorf("failed to unmarshal ledger entries: %w", err)
		}

		for _, e := range entries {
			switch e.Status {
			case models.EntryCompleted:
				totals.Completed += e.Credit - e.Debit
			case models.EntryPending, models.EntryHold:
				totals.ReservedDebits += e.Debit
			}
		}

		if result.LastEvaluatedKey == nil {
			break
		}
		input.ExclusiveStartKey = result.LastEvaluatedKey
	}

	return totals, nil
}

// SumCompletedDebitsSince sums completed debits created at or after the given time.
func (s *Store) SumCompletedDebitsSince(ctx context.Context, walletID string, since time.Time) (int64, error) {
	sinceStr, err := since.MarshalText()
	if err != nil {
		return 0, fmt.Errorf("failed to marshal cutoff time: %w", err)
	}

	input := &dynamodb.QueryInput{
		TableName:                aws.String(s.Tables.Ledger),
		KeyConditionExpression:   aws.String("wallet_id = :wallet_id"),
		FilterExpression:         aws.String("#status = :completed AND debit > :zero AND created_at >= :since"),
		ExpressionAttributeNames: map[string]string{"#status": "status"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":wallet_id": &types.AttributeValueMemberS{Value: walletID},
			":completed": &types.AttributeValueMemberS{Value: string(models.EntryCompleted)},
			":zero":      &types.AttributeValueMemberN{Value: "0"},
			":since":     &types.AttributeValueMemberS{Value: string(sinceStr)},
		},
		ConsistentRead: aws.Bool(true),
	}

	var sum int64
	for {
		result, err := s.Client.Query(ctx, input)
		if err != nil {
			return 0, fmt.Errorf("failed to query wallet debits: %w", err)
		}

		var entries []models.LedgerEntry
		if err := attributevalue.UnmarshalListOfMaps(result.Items, &entries); err != nil {
			return 0, fmt.Errorf("failed to unmarshal ledger entries: %w", err)
		}
		for _, e := range entries {
			sum += e.Debit
		}

		if result.LastEvaluatedKey == nil {
			break
		}
		input.ExclusiveStartKey = result.LastEvaluatedKey
	}

	return sum, nil
}

// ListEntries retrieves the most recent entries for a wallet.
func (s *Store) ListEntries(ctx context.Context, walletID string, limit int32) ([]models.LedgerEntry, error) {
	result, err := s.Client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.Tables.Ledger),
		KeyConditionExpression: aws.String("wallet_id = :wallet_id"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":wallet_id": &types.AttributeValueMemberS{Value: walletID},
		},
		Limit: aws.Int32(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger entries: %w", err)
	}

	var entries []models.LedgerEntry
	if err := attributevalue.UnmarshalListOfMaps(result.Items, &entries); err != nil {
		return nil, fmt.Errorf("failed to unmarshal ledger entries: %w", err)
	}
	return entries, nil
}
