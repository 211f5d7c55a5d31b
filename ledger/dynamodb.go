package ledger

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"sync"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
)

const (
	// Schema of the DynamoDB table
	tablePartitionKey = "namespace"
	tableSortKey      = "key"
	itemJSONAttribute = "item"
)

// DynamoDBLedger stores entries in a table whose partition key is the namespace and whose sort
// key is the entity id.
type DynamoDBLedger struct {
	dynamodb    *dynamodb.DynamoDB
	table       string
	region      string
	endpoint    string
	createTable bool
	tableReady  bool
	lock        sync.Mutex
}

// NewDynamoDBLedger creates a client for the table. An empty region or endpoint uses the AWS
// SDK's defaults.
func NewDynamoDBLedger(table, region, endpoint string) (*DynamoDBLedger, error) {
	if table == "" {
		return nil, errors.New("DynamoDB table name is required")
	}
	config := aws.NewConfig()
	if region != "" {
		config = config.WithRegion(region)
	}
	if endpoint != "" {
		config = config.WithEndpoint(endpoint)
	}
	sess, err := session.NewSession(config)
	if err != nil {
		return nil, err
	}
	return &DynamoDBLedger{
		dynamodb: dynamodb.New(sess),
		table:    table,
		region:   region,
		endpoint: endpoint,
	}, nil
}

func (d *DynamoDBLedger) DSN() string {
	query := url.Values{}
	if d.region != "" {
		query.Set("region", d.region)
	}
	if d.endpoint != "" {
		query.Set("endpoint", d.endpoint)
	}
	if d.createTable {
		query.Set("create", "true")
	}
	u := url.URL{Scheme: dynamoDBScheme, Host: d.table, RawQuery: query.Encode()}
	return u.String()
}

// WithTableCreation makes the ledger create its table, if it does not exist yet, before the
// first operation.
func (d *DynamoDBLedger) WithTableCreation() *DynamoDBLedger {
	d.createTable = true
	return d
}

func (d *DynamoDBLedger) ensureTable(ctx context.Context) error {
	if !d.createTable {
		return nil
	}
	d.lock.Lock()
	defer d.lock.Unlock()
	if d.tableReady {
		return nil
	}
	_, err := d.dynamodb.CreateTableWithContext(ctx, &dynamodb.CreateTableInput{
		AttributeDefinitions: []*dynamodb.AttributeDefinition{
			{AttributeName: aws.String(tablePartitionKey), AttributeType: aws.String("S")},
			{AttributeName: aws.String(tableSortKey), AttributeType: aws.String("S")},
		},
		KeySchema: []*dynamodb.KeySchemaElement{
			{AttributeName: aws.String(tablePartitionKey), KeyType: aws.String("HASH")},
			{AttributeName: aws.String(tableSortKey), KeyType: aws.String("RANGE")},
		},
		ProvisionedThroughput: &dynamodb.ProvisionedThroughput{
			ReadCapacityUnits:  aws.Int64(1),
			WriteCapacityUnits: aws.Int64(1),
		},
		TableName: aws.String(d.table),
	})
	var awsErr awserr.Error
	if err != nil && !(errors.As(err, &awsErr) && awsErr.Code() == dynamodb.ErrCodeResourceInUseException) {
		return err
	}
	err = d.dynamodb.WaitUntilTableExistsWithContext(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(d.table)})
	if err != nil {
		return err
	}
	d.tableReady = true
	return nil
}

func (d *DynamoDBLedger) Record(ctx context.Context, entry Entry) error {
	if err := d.ensureTable(ctx); err != nil {
		return err
	}
	data, err := entry.MarshalJSON()
	if err != nil {
		return err
	}
	_, err = d.dynamodb.PutItemWithContext(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(d.table),
		Item: map[string]*dynamodb.AttributeValue{
			tablePartitionKey: {S: aws.String(entry.Namespace)},
			tableSortKey:      {S: aws.String(entry.key())},
			itemJSONAttribute: {S: aws.String(string(data))},
		},
	})
	return err
}

func (d *DynamoDBLedger) Forget(ctx context.Context, namespace string, id int64) error {
	if err := d.ensureTable(ctx); err != nil {
		return err
	}
	_, err := d.dynamodb.DeleteItemWithContext(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(d.table),
		Key: map[string]*dynamodb.AttributeValue{
			tablePartitionKey: {S: aws.String(namespace)},
			tableSortKey:      {S: aws.String(strconv.FormatInt(id, 10))},
		},
	})
	return err
}

func (d *DynamoDBLedger) Pending(ctx context.Context, namespace string) ([]Entry, error) {
	if err := d.ensureTable(ctx); err != nil {
		return nil, err
	}
	query := &dynamodb.QueryInput{
		TableName:      aws.String(d.table),
		ConsistentRead: aws.Bool(true),
		KeyConditions: map[string]*dynamodb.Condition{
			tablePartitionKey: {
				ComparisonOperator: aws.String(dynamodb.ComparisonOperatorEq),
				AttributeValueList: []*dynamodb.AttributeValue{{S: aws.String(namespace)}},
			},
		},
	}
	values := make(map[string][]byte)
	err := d.dynamodb.QueryPagesWithContext(ctx, query, func(page *dynamodb.QueryOutput, _ bool) bool {
		for _, item := range page.Items {
			key, value := item[tableSortKey], item[itemJSONAttribute]
			if key == nil || key.S == nil || value == nil || value.S == nil {
				continue
			}
			values[*key.S] = []byte(*value.S)
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	return parseEntries(namespace, values)
}

func (d *DynamoDBLedger) Close() error { return nil }
