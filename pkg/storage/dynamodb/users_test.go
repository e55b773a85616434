package dynamodb

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/chris/teller-queue/pkg/models"
	"github.com/chris/teller-queue/pkg/storage"
	"github.com/chris/teller-queue/pkg/storage/dynamodb/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestFindUserByUsername(t *testing.T) {
	user := models.User{ID: 4, Name: "Ana", LastName: "Cruz", Username: "teller4", PasswordHash: "$2a$10$hash", TellerNumber: 4}

	t.Run("Success", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := newTestStore(mockClient)

		userAV, _ := attributevalue.MarshalMap(user)
		mockClient.On("GetItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.GetItemInput) bool {
			key, ok := in.Key["username"].(*types.AttributeValueMemberS)
			return *in.TableName == "users" && ok && key.Value == "teller4"
		})).Return(&dynamodb.GetItemOutput{Item: userAV}, nil)

		result, err := store.FindUserByUsername(context.Background(), "teller4")

		require.NoError(t, err)
		assert.Equal(t, &user, result)
		mockClient.AssertExpectations(t)
	})

	t.Run("Not Found", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := newTestStore(mockClient)

		mockClient.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{}, nil)

		_, err := store.FindUserByUsername(context.Background(), "ghost")

		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("Storage Error", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := newTestStore(mockClient)

		mockClient.On("GetItem", mock.Anything, mock.Anything).Return(nil, errors.New("boom"))

		_, err := store.FindUserByUsername(context.Background(), "teller4")

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to get user from DynamoDB")
	})
}

func TestInsertUser(t *testing.T) {
	user := &models.User{Name: "Ana", LastName: "Cruz", Username: "teller4", PasswordHash: "$2a$10$hash", TellerNumber: 4}

	t.Run("Success", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := newTestStore(mockClient)

		mockClient.On("UpdateItem", mock.Anything, mock.MatchedBy(isCounterUpdate)).Return(counterOutput("12"), nil).Once()
		mockClient.On("PutItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.PutItemInput) bool {
			_, hasHash := in.Item["password"]
			return *in.TableName == "users" && hasHash
		})).Return(&dynamodb.PutItemOutput{}, nil).Once()

		result, err := store.InsertUser(context.Background(), user)

		require.NoError(t, err)
		assert.Equal(t, int64(12), result.ID)
		assert.Equal(t, "teller4", result.Username)
		mockClient.AssertExpectations(t)
	})

	t.Run("Duplicate Username", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := newTestStore(mockClient)

		mockClient.On("UpdateItem", mock.Anything, mock.Anything).Return(counterOutput("13"), nil)
		mockClient.On("PutItem", mock.Anything, mock.Anything).Return(nil, &types.ConditionalCheckFailedException{})

		_, err := store.InsertUser(context.Background(), user)

		assert.ErrorIs(t, err, storage.ErrDuplicateUsername)
		mockClient.AssertExpectations(t)
	})
}

func TestUpdateUser(t *testing.T) {
	current := models.User{ID: 4, Name: "Ana", LastName: "Cruz", Username: "teller4", PasswordHash: "$2a$10$old", TellerNumber: 4}
	currentAV, _ := attributevalue.MarshalMap(current)

	isUserScan := mock.MatchedBy(func(in *dynamodb.ScanInput) bool {
		id, ok := in.ExpressionAttributeValues[":id"].(*types.AttributeValueMemberN)
		return *in.TableName == "users" && ok && id.Value == "4"
	})

	t.Run("Same Username", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := newTestStore(mockClient)

		mockClient.On("Scan", mock.Anything, isUserScan).
			Return(&dynamodb.ScanOutput{Items: []map[string]types.AttributeValue{currentAV}}, nil).Once()
		mockClient.On("PutItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.PutItemInput) bool {
			hash, ok := in.Item["password"].(*types.AttributeValueMemberS)
			return ok && hash.Value == "$2a$10$new" && *in.ConditionExpression == "id = :id"
		})).Return(&dynamodb.PutItemOutput{}, nil).Once()

		updated := current
		updated.PasswordHash = "$2a$10$new"
		result, err := store.UpdateUser(context.Background(), &updated)

		require.NoError(t, err)
		assert.Equal(t, &updated, result)
		mockClient.AssertExpectations(t)
	})

	t.Run("Rename Is One Transaction", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := newTestStore(mockClient)

		mockClient.On("Scan", mock.Anything, isUserScan).
			Return(&dynamodb.ScanOutput{Items: []map[string]types.AttributeValue{currentAV}}, nil).Once()
		mockClient.On("TransactWriteItems", mock.Anything, mock.MatchedBy(func(in *dynamodb.TransactWriteItemsInput) bool {
			if len(in.TransactItems) != 2 || in.TransactItems[0].Put == nil || in.TransactItems[1].Delete == nil {
				return false
			}
			newName, ok := in.TransactItems[0].Put.Item["username"].(*types.AttributeValueMemberS)
			oldName, okOld := in.TransactItems[1].Delete.Key["username"].(*types.AttributeValueMemberS)
			return ok && okOld && newName.Value == "ana.cruz" && oldName.Value == "teller4"
		})).Return(&dynamodb.TransactWriteItemsOutput{}, nil).Once()

		renamed := current
		renamed.Username = "ana.cruz"
		result, err := store.UpdateUser(context.Background(), &renamed)

		require.NoError(t, err)
		assert.Equal(t, "ana.cruz", result.Username)
		mockClient.AssertExpectations(t)
	})

	t.Run("Rename To Taken Username", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := newTestStore(mockClient)

		mockClient.On("Scan", mock.Anything, mock.Anything).
			Return(&dynamodb.ScanOutput{Items: []map[string]types.AttributeValue{currentAV}}, nil)
		mockClient.On("TransactWriteItems", mock.Anything, mock.Anything).Return(nil, &types.TransactionCanceledException{
			CancellationReasons: []types.CancellationReason{
				{Code: aws.String("ConditionalCheckFailed")},
				{Code: aws.String("None")},
			},
		})

		renamed := current
		renamed.Username = "teller5"
		_, err := store.UpdateUser(context.Background(), &renamed)

		assert.ErrorIs(t, err, storage.ErrDuplicateUsername)
	})

	t.Run("Renamed Concurrently", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := newTestStore(mockClient)

		mockClient.On("Scan", mock.Anything, mock.Anything).
			Return(&dynamodb.ScanOutput{Items: []map[string]types.AttributeValue{currentAV}}, nil)
		mockClient.On("TransactWriteItems", mock.Anything, mock.Anything).Return(nil, &types.TransactionCanceledException{
			CancellationReasons: []types.CancellationReason{
				{Code: aws.String("None")},
				{Code: aws.String("ConditionalCheckFailed")},
			},
		})

		renamed := current
		renamed.Username = "teller5"
		_, err := store.UpdateUser(context.Background(), &renamed)

		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("Not Found Across Pages", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := newTestStore(mockClient)

		lastKey := map[string]types.AttributeValue{"username": &types.AttributeValueMemberS{Value: "m"}}
		mockClient.On("Scan", mock.Anything, mock.MatchedBy(func(in *dynamodb.ScanInput) bool {
			return in.ExclusiveStartKey == nil
		})).Return(&dynamodb.ScanOutput{LastEvaluatedKey: lastKey}, nil).Once()
		mockClient.On("Scan", mock.Anything, mock.MatchedBy(func(in *dynamodb.ScanInput) bool {
			return in.ExclusiveStartKey != nil
		})).Return(&dynamodb.ScanOutput{}, nil).Once()

		_, err := store.UpdateUser(context.Background(), &models.User{ID: 99, Username: "ghost"})

		assert.ErrorIs(t, err, storage.ErrNotFound)
		mockClient.AssertExpectations(t)
	})
}
