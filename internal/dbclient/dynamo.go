package dbclient

import (
	"context"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbattribute"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"

	"casetrack/internal/awsutil"
	"casetrack/internal/domain"
	"casetrack/internal/etl"
)

// dynamoRepository stores items in a DynamoDB table whose partition key is
// "dataset" (N) and sort key is "date" (S).
type dynamoRepository struct {
	api   dynamodbiface.DynamoDBAPI
	table string
}

func newDynamoRepository(conn *domain.RepositoryConnection) (*dynamoRepository, error) {
	sess, err := awsutil.NewSession(conn.Region, conn.Endpoint)
	if err != nil {
		return nil, err
	}
	return dynamoWithAPI(dynamodb.New(sess), conn.TableName()), nil
}

// dynamoWithAPI wraps an existing DynamoDB client.
func dynamoWithAPI(api dynamodbiface.DynamoDBAPI, table string) *dynamoRepository {
	return &dynamoRepository{api: api, table: table}
}

func (r *dynamoRepository) QueryPage(ctx context.Context, partition int, startKey string) (etl.Page, error) {
	in := &dynamodb.QueryInput{
		TableName:                aws.String(r.table),
		KeyConditionExpression:   aws.String("#p = :p"),
		ExpressionAttributeNames: map[string]*string{"#p": aws.String("dataset")},
		ExpressionAttributeValues: map[string]*dynamodb.AttributeValue{
			":p": {N: aws.String(strconv.Itoa(partition))},
		},
		ScanIndexForward: aws.Bool(true),
	}
	if startKey != "" {
		in.ExclusiveStartKey = map[string]*dynamodb.AttributeValue{
			"dataset": {N: aws.String(strconv.Itoa(partition))},
			"date":    {S: aws.String(startKey)},
		}
	}

	out, err := r.api.QueryWithContext(ctx, in)
	if err != nil {
		return etl.Page{}, fmt.Errorf("query %s: %w", r.table, err)
	}

	var items []etl.Item
	if err := dynamodbattribute.UnmarshalListOfMaps(out.Items, &items); err != nil {
		return etl.Page{}, fmt.Errorf("unmarshal items: %w", err)
	}

	page := etl.Page{Items: items}
	if last, ok := out.LastEvaluatedKey["date"]; ok && last.S != nil {
		page.NextKey = *last.S
	}
	return page, nil
}

func (r *dynamoRepository) PutItem(ctx context.Context, item etl.Item) error {
	av, err := dynamodbattribute.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("marshal item: %w", err)
	}
	_, err = r.api.PutItemWithContext(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.table),
		Item:      av,
	})
	if err != nil {
		return fmt.Errorf("put item %s: %w", item.Date, err)
	}
	return nil
}

// BatchWriteItems issues one BatchWriteItem call. Items the service
// reports as unprocessed are not retried: they fail the batch.
func (r *dynamoRepository) BatchWriteItems(ctx context.Context, items []etl.Item) error {
	if len(items) > etl.MaxBatchSize {
		return fmt.Errorf("batch of %d items exceeds %d", len(items), etl.MaxBatchSize)
	}
	reqs := make([]*dynamodb.WriteRequest, 0, len(items))
	for _, it := range items {
		av, err := dynamodbattribute.MarshalMap(it)
		if err != nil {
			return fmt.Errorf("marshal item: %w", err)
		}
		reqs = append(reqs, &dynamodb.WriteRequest{PutRequest: &dynamodb.PutRequest{Item: av}})
	}

	out, err := r.api.BatchWriteItemWithContext(ctx, &dynamodb.BatchWriteItemInput{
		RequestItems: map[string][]*dynamodb.WriteRequest{r.table: reqs},
	})
	if err != nil {
		return fmt.Errorf("batch write: %w", err)
	}
	if n := len(out.UnprocessedItems[r.table]); n > 0 {
		return fmt.Errorf("batch write: %d of %d items unprocessed", n, len(items))
	}
	return nil
}

func (r *dynamoRepository) Close() error { return nil }
