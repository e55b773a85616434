package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/chris/teller-queue/pkg/models"
	"github.com/chris/teller-queue/pkg/storage"
)

// FindUserByUsername retrieves a user from the users table, which is keyed by
// username.
func (s *Store) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	result, err := s.Client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.UsersTableName),
		Key: map[string]types.AttributeValue{
			"username": &types.AttributeValueMemberS{Value: username},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get user from DynamoDB: %w", err)
	}

	if result.Item == nil {
		return nil, fmt.Errorf("user %q: %w", username, storage.ErrNotFound)
	}

	var user models.User
	if err := attributevalue.UnmarshalMap(result.Item, &user); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user: %w", err)
	}
	return &user, nil
}

// InsertUser allocates an ID and writes the user unless the username is taken.
func (s *Store) InsertUser(ctx context.Context, user *models.User) (*models.User, error) {
	id, err := s.nextID(ctx, usersCounter)
	if err != nil {
		return nil, err
	}

	row := *user
	row.ID = id

	userAV, err := attributevalue.MarshalMap(row)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal user: %w", err)
	}

	_, err = s.Client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.UsersTableName),
		Item:                userAV,
		ConditionExpression: aws.String("attribute_not_exists(username)"),
	})
	if err != nil {
		if isConditionFailed(err) {
			return nil, fmt.Errorf("user %q: %w", user.Username, storage.ErrDuplicateUsername)
		}
		return nil, fmt.Errorf("failed to create user in DynamoDB: %w", err)
	}

	return &row, nil
}

// UpdateUser rewrites the user with user.ID. The users table is keyed by
// username, so a rename puts the new item and deletes the old one in a single
// transaction.
func (s *Store) UpdateUser(ctx context.Context, user *models.User) (*models.User, error) {
	current, err := s.findUserByID(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	row := *user
	userAV, err := attributevalue.MarshalMap(row)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal user: %w", err)
	}
	sameID := map[string]types.AttributeValue{
		":id": &types.AttributeValueMemberN{Value: strconv.FormatInt(user.ID, 10)},
	}

	if current.Username == user.Username {
		_, err = s.Client.PutItem(ctx, &dynamodb.PutItemInput{
			TableName:                 aws.String(s.UsersTableName),
			Item:                      userAV,
			ConditionExpression:       aws.String("id = :id"),
			ExpressionAttributeValues: sameID,
		})
		if err != nil {
			if isConditionFailed(err) {
				return nil, fmt.Errorf("user %d: %w", user.ID, storage.ErrNotFound)
			}
			return nil, fmt.Errorf("failed to update user in DynamoDB: %w", err)
		}
		return &row, nil
	}

	_, err = s.Client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Put: &types.Put{
				TableName:           aws.String(s.UsersTableName),
				Item:                userAV,
				ConditionExpression: aws.String("attribute_not_exists(username)"),
			}},
			{Delete: &types.Delete{
				TableName: aws.String(s.UsersTableName),
				Key: map[string]types.AttributeValue{
					"username": &types.AttributeValueMemberS{Value: current.Username},
				},
				ConditionExpression:       aws.String("id = :id"),
				ExpressionAttributeValues: sameID,
			}},
		},
	})
	if err != nil {
		var canceled *types.TransactionCanceledException
		if errors.As(err, &canceled) {
			switch {
			case conditionFailedAt(canceled, 0):
				return nil, fmt.Errorf("user %q: %w", user.Username, storage.ErrDuplicateUsername)
			case conditionFailedAt(canceled, 1):
				return nil, fmt.Errorf("user %d: %w", user.ID, storage.ErrNotFound)
			}
		}
		return nil, fmt.Errorf("failed to rename user in DynamoDB: %w", err)
	}

	return &row, nil
}

// findUserByID scans the users table for the item carrying id.
func (s *Store) findUserByID(ctx context.Context, id int64) (*models.User, error) {
	input := &dynamodb.ScanInput{
		TableName:        aws.String(s.UsersTableName),
		FilterExpression: aws.String("id = :id"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":id": &types.AttributeValueMemberN{Value: strconv.FormatInt(id, 10)},
		},
	}
	for {
		result, err := s.Client.Scan(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("failed to scan users: %w", err)
		}
		if len(result.Items) > 0 {
			var user models.User
			if err := attributevalue.UnmarshalMap(result.Items[0], &user); err != nil {
				return nil, fmt.Errorf("failed to unmarshal user: %w", err)
			}
			return &user, nil
		}
		if len(result.LastEvaluatedKey) == 0 {
			return nil, fmt.Errorf("user %d: %w", id, storage.ErrNotFound)
		}
		input.ExclusiveStartKey = result.LastEvaluatedKey
	}
}

func conditionFailedAt(canceled *types.TransactionCanceledException, i int) bool {
	return i < len(canceled.CancellationReasons) &&
		aws.ToString(canceled.CancellationReasons[i].Code) == "ConditionalCheckFailed"
}
