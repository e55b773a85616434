package dynamodb

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/chris/teller-queue/pkg/models"
	"github.com/chris/teller-queue/pkg/storage"
)

// InsertTransaction allocates an ID, stamps the creation time and writes the row.
func (s *Store) InsertTransaction(ctx context.Context, tx *models.Transaction) (*models.Transaction, error) {
	id, err := s.nextID(ctx, transactionsCounter)
	if err != nil {
		return nil, err
	}

	row := *tx
	row.ID = id
	row.Created = s.now()
	row.DeleteStatus = models.Live
	row.Status = row.Status.Normalize()

	txAV, err := attributevalue.MarshalMap(row)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal transaction: %w", err)
	}

	_, err = s.Client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.TransactionsTableName),
		Item:                txAV,
		ConditionExpression: aws.String("attribute_not_exists(id)"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create transaction in DynamoDB: %w", err)
	}

	return &row, nil
}

// GetTransaction retrieves a live transaction from DynamoDB by its ID.
func (s *Store) GetTransaction(ctx context.Context, id int64) (*models.Transaction, error) {
	result, err := s.Client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.TransactionsTableName),
		Key:            idKey(id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction from DynamoDB: %w", err)
	}

	if result.Item == nil {
		return nil, fmt.Errorf("transaction %d: %w", id, storage.ErrNotFound)
	}

	tx, err := unmarshalTransaction(result.Item)
	if err != nil {
		return nil, err
	}
	if tx.DeleteStatus != models.Live {
		return nil, fmt.Errorf("transaction %d: %w", id, storage.ErrNotFound)
	}
	return tx, nil
}

// ListTransactions scans the table for live rows of the given types and returns
// them newest first.
func (s *Store) ListTransactions(ctx context.Context, txTypes []models.TransactionType) ([]models.Transaction, error) {
	input := &dynamodb.ScanInput{
		TableName:        aws.String(s.TransactionsTableName),
		FilterExpression: aws.String("delete_status = :live"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":live": &types.AttributeValueMemberN{Value: strconv.Itoa(models.Live)},
		},
	}
	if len(txTypes) > 0 {
		placeholders := make([]string, len(txTypes))
		for i, t := range txTypes {
			placeholders[i] = fmt.Sprintf(":t%d", i)
			input.ExpressionAttributeValues[placeholders[i]] = &types.AttributeValueMemberS{Value: string(t)}
		}
		input.FilterExpression = aws.String(fmt.Sprintf("delete_status = :live AND transaction_type IN (%s)", strings.Join(placeholders, ", ")))
	}

	var transactions []models.Transaction
	for {
		result, err := s.Client.Scan(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transactions: %w", err)
		}

		var page []models.Transaction
		if err := attributevalue.UnmarshalListOfMaps(result.Items, &page); err != nil {
			return nil, fmt.Errorf("failed to unmarshal transactions: %w", err)
		}
		transactions = append(transactions, page...)

		if len(result.LastEvaluatedKey) == 0 {
			break
		}
		input.ExclusiveStartKey = result.LastEvaluatedKey
	}

	for i := range transactions {
		transactions[i].Status = transactions[i].Status.Normalize()
	}
	slices.SortStableFunc(transactions, func(a, b models.Transaction) int {
		if c := b.Created.Compare(a.Created); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})

	return transactions, nil
}

func unmarshalTransaction(item map[string]types.AttributeValue) (*models.Transaction, error) {
	var tx models.Transaction
	if err := attributevalue.UnmarshalMap(item, &tx); err != nil {
		return nil, fmt.Errorf("failed to unmarshal transaction: %w", err)
	}
	tx.Status = tx.Status.Normalize()
	return &tx, nil
}
