package dbclient

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"casetrack/internal/etl"
)

// fakeDynamo records the requests it receives. Unimplemented methods of
// the embedded interface panic.
type fakeDynamo struct {
	dynamodbiface.DynamoDBAPI

	queries     []*dynamodb.QueryInput
	queryOut    []*dynamodb.QueryOutput
	puts        []*dynamodb.PutItemInput
	batches     []*dynamodb.BatchWriteItemInput
	unprocessed int
}

func (f *fakeDynamo) QueryWithContext(_ aws.Context, in *dynamodb.QueryInput, _ ...request.Option) (*dynamodb.QueryOutput, error) {
	f.queries = append(f.queries, in)
	out := f.queryOut[0]
	f.queryOut = f.queryOut[1:]
	return out, nil
}

func (f *fakeDynamo) PutItemWithContext(_ aws.Context, in *dynamodb.PutItemInput, _ ...request.Option) (*dynamodb.PutItemOutput, error) {
	f.puts = append(f.puts, in)
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) BatchWriteItemWithContext(_ aws.Context, in *dynamodb.BatchWriteItemInput, _ ...request.Option) (*dynamodb.BatchWriteItemOutput, error) {
	f.batches = append(f.batches, in)
	out := &dynamodb.BatchWriteItemOutput{}
	if f.unprocessed > 0 {
		reqs := in.RequestItems["covid"]
		out.UnprocessedItems = map[string][]*dynamodb.WriteRequest{"covid": reqs[:f.unprocessed]}
	}
	return out, nil
}

func dynamoItem(date string, cases string) map[string]*dynamodb.AttributeValue {
	return map[string]*dynamodb.AttributeValue{
		"dataset":   {N: aws.String("1")},
		"date":      {S: aws.String(date)},
		"cases":     {N: aws.String(cases)},
		"deaths":    {N: aws.String("0")},
		"recovered": {N: aws.String("0")},
	}
}

func TestDynamo_QueryPageFollowsLastEvaluatedKey(t *testing.T) {
	fake := &fakeDynamo{queryOut: []*dynamodb.QueryOutput{
		{
			Items:            []map[string]*dynamodb.AttributeValue{dynamoItem("2020-01-22", "1")},
			LastEvaluatedKey: map[string]*dynamodb.AttributeValue{"dataset": {N: aws.String("1")}, "date": {S: aws.String("2020-01-22")}},
		},
		{Items: []map[string]*dynamodb.AttributeValue{dynamoItem("2020-01-23", "4")}},
	}}
	repo := dynamoWithAPI(fake, "covid")

	records, err := etl.NewLoader(repo, nil, nil).Snapshot(context.Background())
	require.NoError(t, err)

	require.Len(t, records, 2)
	assert.EqualValues(t, 4, records[1].Cases)
	require.Len(t, fake.queries, 2)
	assert.Nil(t, fake.queries[0].ExclusiveStartKey)
	assert.Equal(t, "2020-01-22", *fake.queries[1].ExclusiveStartKey["date"].S)
	assert.Equal(t, "1", *fake.queries[1].ExpressionAttributeValues[":p"].N)
	assert.True(t, *fake.queries[0].ScanIndexForward)
}

func TestDynamo_PutItem(t *testing.T) {
	fake := &fakeDynamo{}
	repo := dynamoWithAPI(fake, "covid")

	err := repo.PutItem(context.Background(), etl.Item{Dataset: 1, Date: "2020-02-03", Cases: 11, Deaths: 1, Recovered: 3})
	require.NoError(t, err)

	require.Len(t, fake.puts, 1)
	got := fake.puts[0]
	assert.Equal(t, "covid", *got.TableName)
	assert.Equal(t, "2020-02-03", *got.Item["date"].S)
	assert.Equal(t, "11", *got.Item["cases"].N)
	assert.Equal(t, "1", *got.Item["dataset"].N)
}

func TestDynamo_BatchWrite(t *testing.T) {
	fake := &fakeDynamo{}
	repo := dynamoWithAPI(fake, "covid")

	require.NoError(t, repo.BatchWriteItems(context.Background(), items("2020-01-22", 25)))
	require.Len(t, fake.batches, 1)
	assert.Len(t, fake.batches[0].RequestItems["covid"], 25)

	fake.unprocessed = 2
	err := repo.BatchWriteItems(context.Background(), items("2020-03-01", 5))
	assert.EqualError(t, err, "batch write: 2 of 5 items unprocessed")
}
