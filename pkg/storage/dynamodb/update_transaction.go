package dynamodb

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/chris/teller-queue/pkg/models"
	"github.com/chris/teller-queue/pkg/storage"
)

const liveCondition = "attribute_exists(id) AND delete_status = :live"

// UpdateStatus sets the status of a live transaction in a single conditional write.
// A type restriction is folded into the same condition.
func (s *Store) UpdateStatus(ctx context.Context, id int64, status models.TransactionStatus, txTypes []models.TransactionType) (*models.Transaction, error) {
	values := map[string]types.AttributeValue{
		":status": &types.AttributeValueMemberS{Value: string(status)},
		":live":   liveValue(),
	}
	condition := liveCondition
	if len(txTypes) > 0 {
		placeholders := make([]string, len(txTypes))
		for i, t := range txTypes {
			placeholders[i] = fmt.Sprintf(":t%d", i)
			values[placeholders[i]] = &types.AttributeValueMemberS{Value: string(t)}
		}
		condition += fmt.Sprintf(" AND transaction_type IN (%s)", strings.Join(placeholders, ", "))
	}

	input := &dynamodb.UpdateItemInput{
		TableName:           aws.String(s.TransactionsTableName),
		Key:                 idKey(id),
		UpdateExpression:    aws.String("SET #status = :status"),
		ConditionExpression: aws.String(condition),
		ExpressionAttributeNames: map[string]string{
			"#status": "status",
		},
		ExpressionAttributeValues: values,
		ReturnValues:              types.ReturnValueAllNew,
	}

	result, err := s.Client.UpdateItem(ctx, input)
	if err != nil {
		if isConditionFailed(err) {
			if len(txTypes) == 0 {
				return nil, fmt.Errorf("transaction %d: %w", id, storage.ErrNotFound)
			}
			// The condition covers both a missing row and a row of another type.
			if _, getErr := s.GetTransaction(ctx, id); getErr != nil {
				return nil, getErr
			}
			return nil, fmt.Errorf("transaction %d: %w", id, storage.ErrTypeNotAllowed)
		}
		return nil, fmt.Errorf("failed to update transaction status: %w", err)
	}

	return unmarshalTransaction(result.Attributes)
}

// UpdateDetails rewrites the correctable fields of a live, Open transaction.
// Sub-type attributes that details leaves nil are removed from the item.
func (s *Store) UpdateDetails(ctx context.Context, id int64, details models.Details) (*models.Transaction, error) {
	values := map[string]types.AttributeValue{
		":account_number":   &types.AttributeValueMemberS{Value: details.AccountNumber},
		":name":             &types.AttributeValueMemberS{Value: details.Name},
		":transaction_type": &types.AttributeValueMemberS{Value: string(details.TransactionType)},
		":account_type":     &types.AttributeValueMemberS{Value: string(details.AccountType)},
		":live":             liveValue(),
		":open":             &types.AttributeValueMemberS{Value: string(models.StatusOpen)},
	}
	set := []string{
		"account_number = :account_number",
		"#name = :name",
		"transaction_type = :transaction_type",
		"account_type = :account_type",
	}
	var remove []string

	subTypes := []struct {
		attr  string
		value *string
	}{
		{"deposit_type", details.DepositType},
		{"payment_type", details.PaymentType},
		{"disbursement_type", details.DisbursementType},
	}
	for _, st := range subTypes {
		if st.value == nil {
			remove = append(remove, st.attr)
			continue
		}
		values[":"+st.attr] = &types.AttributeValueMemberS{Value: *st.value}
		set = append(set, st.attr+" = :"+st.attr)
	}

	expr := "SET " + strings.Join(set, ", ")
	if len(remove) > 0 {
		expr += " REMOVE " + strings.Join(remove, ", ")
	}

	input := &dynamodb.UpdateItemInput{
		TableName:           aws.String(s.TransactionsTableName),
		Key:                 idKey(id),
		UpdateExpression:    aws.String(expr),
		ConditionExpression: aws.String(liveCondition + " AND (attribute_not_exists(#status) OR #status = :open)"),
		ExpressionAttributeNames: map[string]string{
			"#status": "status",
			"#name":   "name",
		},
		ExpressionAttributeValues: values,
		ReturnValues:              types.ReturnValueAllNew,
	}

	result, err := s.Client.UpdateItem(ctx, input)
	if err != nil {
		if isConditionFailed(err) {
			// The condition covers both a missing row and a non-Open status.
			if _, getErr := s.GetTransaction(ctx, id); getErr != nil {
				return nil, getErr
			}
			return nil, fmt.Errorf("transaction %d: %w", id, storage.ErrNotCorrectable)
		}
		return nil, fmt.Errorf("failed to update transaction details: %w", err)
	}

	return unmarshalTransaction(result.Attributes)
}

// SoftDelete flags a live transaction as deleted. The flag never goes back.
func (s *Store) SoftDelete(ctx context.Context, id int64) (*models.Transaction, error) {
	input := &dynamodb.UpdateItemInput{
		TableName:           aws.String(s.TransactionsTableName),
		Key:                 idKey(id),
		UpdateExpression:    aws.String("SET delete_status = :deleted"),
		ConditionExpression: aws.String(liveCondition),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":deleted": &types.AttributeValueMemberN{Value: strconv.Itoa(models.Deleted)},
			":live":    liveValue(),
		},
		ReturnValues: types.ReturnValueAllNew,
	}

	result, err := s.Client.UpdateItem(ctx, input)
	if err != nil {
		if isConditionFailed(err) {
			return nil, fmt.Errorf("transaction %d: %w", id, storage.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to delete transaction: %w", err)
	}

	return unmarshalTransaction(result.Attributes)
}

func liveValue() types.AttributeValue {
	return &types.AttributeValueMemberN{Value: strconv.Itoa(models.Live)}
}
