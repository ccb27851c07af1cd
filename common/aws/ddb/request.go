package ddb

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/tradepost/go-mediation/models"
)

var _ models.RequestRepository = &RequestDatabase{}

const StatusIndex = "status-index"

type RequestDatabase struct {
	client       *dynamodb.Client
	logger       models.Logger
	requestTable string
}

func NewRequestDb(ctx context.Context, logger models.Logger, client *dynamodb.Client, env string) (*RequestDatabase, error) {
	rdb := RequestDatabase{
		client,
		logger,
		"mediation-" + env + "-request",
	}
	if err := rdb.createRequestTable(ctx); err != nil {
		return nil, fmt.Errorf("request table creation failed: %w", err)
	}
	return &rdb, nil
}

func (rdb *RequestDatabase) createRequestTable(ctx context.Context) error {
	createTableInput := dynamodb.CreateTableInput{
		AttributeDefinitions: []types.AttributeDefinition{
			{
				AttributeName: aws.String("id"),
				AttributeType: "S",
			},
			{
				AttributeName: aws.String("status"),
				AttributeType: "S",
			},
		},
		KeySchema: []types.KeySchemaElement{
			{
				AttributeName: aws.String("id"),
				KeyType:       "HASH",
			},
		},
		GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
			{
				IndexName: aws.String(StatusIndex),
				KeySchema: []types.KeySchemaElement{
					{
						AttributeName: aws.String("status"),
						KeyType:       "HASH",
					},
				},
				Projection: &types.Projection{ProjectionType: types.ProjectionTypeKeysOnly},
			},
		},
		BillingMode: types.BillingModePayPerRequest,
		TableName:   aws.String(rdb.requestTable),
	}
	return createTable(ctx, rdb.logger, rdb.client, &createTableInput)
}

func (rdb *RequestDatabase) GetRequest(ctx context.Context, id string) (*models.MediationRequest, error) {
	getItemIn := dynamodb.GetItemInput{
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
		TableName: aws.String(rdb.requestTable),
		// Transitions must decide on the latest committed state
		ConsistentRead: aws.Bool(true),
	}

	httpCtx, httpCancel := context.WithTimeout(ctx, models.DefaultRpcWaitTime)
	defer httpCancel()

	getItemOut, err := rdb.client.GetItem(httpCtx, &getItemIn)
	if err != nil {
		return nil, err
	}
	if getItemOut.Item == nil {
		return nil, models.ErrRequestNotFound
	}
	return unmarshalRequest(getItemOut.Item)
}

func (rdb *RequestDatabase) CreateRequest(ctx context.Context, req *models.MediationRequest) error {
	if err := req.ValidForCreate(); err != nil {
		return err
	}
	attributeValues, err := marshalRequest(req)
	if err != nil {
		return err
	}
	putItemIn := dynamodb.PutItemInput{
		TableName:                aws.String(rdb.requestTable),
		ConditionExpression:      aws.String("attribute_not_exists(#id)"),
		ExpressionAttributeNames: map[string]string{"#id": "id"},
		Item:                     attributeValues,
	}

	httpCtx, httpCancel := context.WithTimeout(ctx, models.DefaultRpcWaitTime)
	defer httpCancel()

	if _, err = rdb.client.PutItem(httpCtx, &putItemIn); err != nil {
		var condUpdErr *types.ConditionalCheckFailedException
		if errors.As(err, &condUpdErr) {
			return models.ErrRequestExists
		}
		rdb.logger.Errorf("create: error writing to db: %v", err)
		return err
	}
	return nil
}

func (rdb *RequestDatabase) UpdateRequest(ctx context.Context, expected *models.MediationRequest, next *models.MediationRequest) (bool, error) {
	if err := next.Valid(); err != nil {
		return false, err
	}
	attributeValues, err := marshalRequest(next)
	if err != nil {
		return false, err
	}
	putItemIn := dynamodb.PutItemInput{
		TableName:           aws.String(rdb.requestTable),
		ConditionExpression: aws.String(updateCondition),
		ExpressionAttributeNames: map[string]string{
			"#id":      "id",
			"#status":  "status",
			"#version": "version",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":status":  &types.AttributeValueMemberS{Value: string(expected.Status)},
			":version": &types.AttributeValueMemberN{Value: strconv.FormatInt(expected.Version, 10)},
		},
		Item: attributeValues,
	}

	httpCtx, httpCancel := context.WithTimeout(ctx, models.DefaultRpcWaitTime)
	defer httpCancel()

	if _, err = rdb.client.PutItem(httpCtx, &putItemIn); err != nil {
		// To get a specific API error
		var condUpdErr *types.ConditionalCheckFailedException
		if errors.As(err, &condUpdErr) {
			// Not an error, just indicate that we couldn't update the entry
			rdb.logger.Debugf("update: conditional write skipped for %s: %v", expected.Id, err)
			return false, nil
		}
		rdb.logger.Errorf("update: error writing to db: %v", err)
		return false, err
	}
	return true, nil
}

// The item must already exist: a request deleted out from under a transition is never recreated.
const updateCondition = "attribute_exists(#id) AND #status = :status AND #version = :version"

func (rdb *RequestDatabase) RequestCount(ctx context.Context, status models.RequestStatus) (int, error) {
	p := dynamodb.NewQueryPaginator(rdb.client, &dynamodb.QueryInput{
		TableName:              aws.String(rdb.requestTable),
		IndexName:              aws.String(StatusIndex),
		KeyConditionExpression: aws.String("#status = :status"),
		ExpressionAttributeNames: map[string]string{
			"#status": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":status": &types.AttributeValueMemberS{Value: string(status)},
		},
		Select: types.SelectCount,
	})
	count := 0
	for p.HasMorePages() {
		if err := func() error {
			httpCtx, httpCancel := context.WithTimeout(ctx, models.DefaultRpcWaitTime)
			defer httpCancel()

			page, err := p.NextPage(httpCtx)
			if err != nil {
				return err
			}
			count += int(page.Count)
			return nil
		}(); err != nil {
			return 0, err
		}
	}
	return count, nil
}
