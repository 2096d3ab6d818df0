package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	log "github.com/sirupsen/logrus"

	"amora_server/utils"
)

// KeyAttribute is the partition key of every table.
const KeyAttribute = "id"

// DynamoAPI is the subset of *dynamodb.Client used by DynamoStore.
type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// DynamoStore keeps each collection in its own DynamoDB table.
type DynamoStore struct {
	Client DynamoAPI
	// TablePrefix is prepended to every collection name, e.g. "prod-".
	TablePrefix string
	// Indexes maps collection -> attribute -> GSI name. Queries whose first
	// equality filter has an index use Query instead of Scan.
	Indexes map[string]map[string]string
}

// NewDynamoStore wraps a DynamoDB client.
func NewDynamoStore(client DynamoAPI, tablePrefix string, indexes map[string]map[string]string) *DynamoStore {
	return &DynamoStore{Client: client, TablePrefix: tablePrefix, Indexes: indexes}
}

func (ds *DynamoStore) table(collection string) string {
	return ds.TablePrefix + collection
}

func keyOf(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		KeyAttribute: &types.AttributeValueMemberS{Value: id},
	}
}

// Put marshals doc and writes it under id.
func (ds *DynamoStore) Put(ctx context.Context, collection, id string, doc interface{}) error {
	tableName := ds.table(collection)
	item, err := attributevalue.MarshalMap(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal item for table '%s': %w", tableName, err)
	}
	item[KeyAttribute] = &types.AttributeValueMemberS{Value: id}

	_, err = ds.Client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("failed to put item in table '%s': %w", tableName, err)
	}
	log.Debugf("put %s/%s", tableName, id)
	return nil
}

// Create is a PutItem conditional on the key being unused.
func (ds *DynamoStore) Create(ctx context.Context, collection, id string, doc interface{}) error {
	tableName := ds.table(collection)
	item, err := attributevalue.MarshalMap(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal item for table '%s': %w", tableName, err)
	}
	item[KeyAttribute] = &types.AttributeValueMemberS{Value: id}

	_, err = ds.Client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(tableName),
		Item:                     item,
		ConditionExpression:      aws.String("attribute_not_exists(#pk)"),
		ExpressionAttributeNames: map[string]string{"#pk": KeyAttribute},
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("failed to create item in table '%s': %w", tableName, err)
	}
	log.Debugf("create %s/%s", tableName, id)
	return nil
}

// Get reads the item with the given id.
func (ds *DynamoStore) Get(ctx context.Context, collection, id string, out interface{}) error {
	tableName := ds.table(collection)
	output, err := ds.Client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(tableName),
		Key:       keyOf(id),
	})
	if err != nil {
		return fmt.Errorf("failed to get item from table '%s': %w", tableName, err)
	}
	if output.Item == nil {
		return ErrNotFound
	}
	if err := attributevalue.UnmarshalMap(output.Item, out); err != nil {
		return fmt.Errorf("failed to unmarshal item from table '%s': %w", tableName, err)
	}
	return nil
}

// Update builds a SET expression from fields. The write is conditional on the
// item existing so that updates never create partial documents.
func (ds *DynamoStore) Update(ctx context.Context, collection, id string, fields map[string]interface{}) error {
	tableName := ds.table(collection)
	if len(fields) == 0 {
		return errors.New("update failed: no fields to set")
	}

	// sorted for stable expressions in logs
	names := make([]string, 0, len(fields))
	for k := range fields {
		names = append(names, k)
	}
	sort.Strings(names)

	var sets []string
	expressionAttributeNames := map[string]string{"#pk": KeyAttribute}
	expressionAttributeValues := map[string]types.AttributeValue{}
	for i, name := range names {
		av, err := attributevalue.Marshal(fields[name])
		if err != nil {
			return fmt.Errorf("failed to marshal field '%s': %w", name, err)
		}
		n := fmt.Sprintf("#f%d", i)
		v := fmt.Sprintf(":v%d", i)
		expressionAttributeNames[n] = name
		expressionAttributeValues[v] = av
		sets = append(sets, n+" = "+v)
	}
	updateExpression := "SET " + strings.Join(sets, ", ")

	log.Debugf("update %s/%s: %s", tableName, id, updateExpression)
	_, err := ds.Client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(tableName),
		Key:                       keyOf(id),
		UpdateExpression:          aws.String(updateExpression),
		ConditionExpression:       aws.String("attribute_exists(#pk)"),
		ExpressionAttributeNames:  expressionAttributeNames,
		ExpressionAttributeValues: expressionAttributeValues,
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to update item in table '%s': %w", tableName, err)
	}
	return nil
}

// Delete removes an item from DynamoDB
func (ds *DynamoStore) Delete(ctx context.Context, collection, id string) error {
	tableName := ds.table(collection)
	_, err := ds.Client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(tableName),
		Key:       keyOf(id),
	})
	if err != nil {
		return fmt.Errorf("failed to delete item from table '%s': %w", tableName, err)
	}
	return nil
}

// Query answers filters with a GSI query when possible, otherwise a full
// paginated scan with a filter expression.
func (ds *DynamoStore) Query(ctx context.Context, collection string, filters []Filter, out interface{}) error {
	tableName := ds.table(collection)

	keyIdx, indexName := ds.indexFor(collection, filters)
	expr, err := buildExpression(filters, keyIdx)
	if err != nil {
		return fmt.Errorf("failed to build query for table '%s': %w", tableName, err)
	}

	var items []map[string]types.AttributeValue
	if keyIdx >= 0 {
		log.Debugf("query %s via %s", tableName, indexName)
		input := &dynamodb.QueryInput{
			TableName:                 aws.String(tableName),
			IndexName:                 aws.String(indexName),
			KeyConditionExpression:    aws.String(expr.keyCondition),
			ExpressionAttributeNames:  expr.names,
			ExpressionAttributeValues: expr.values,
		}
		if expr.filter != "" {
			input.FilterExpression = aws.String(expr.filter)
		}
		paginator := dynamodb.NewQueryPaginator(ds.Client, input)
		for paginator.HasMorePages() {
			page, err := paginator.NextPage(ctx)
			if err != nil {
				return fmt.Errorf("failed to query GSI '%s': %w", indexName, err)
			}
			items = append(items, page.Items...)
		}
	} else {
		log.Debugf("scan %s", tableName)
		input := &dynamodb.ScanInput{TableName: aws.String(tableName)}
		if expr.filter != "" {
			input.FilterExpression = aws.String(expr.filter)
			input.ExpressionAttributeNames = expr.names
			input.ExpressionAttributeValues = expr.values
		}
		paginator := dynamodb.NewScanPaginator(ds.Client, input)
		for paginator.HasMorePages() {
			page, err := paginator.NextPage(ctx)
			if err != nil {
				return fmt.Errorf("failed to scan table '%s': %w", tableName, err)
			}
			items = append(items, page.Items...)
		}
	}

	// Results are ordered by id, as in MemoryStore.
	sort.SliceStable(items, func(i, j int) bool {
		return utils.ExtractString(items[i], KeyAttribute) < utils.ExtractString(items[j], KeyAttribute)
	})

	if err := attributevalue.UnmarshalListOfMaps(items, out); err != nil {
		return fmt.Errorf("failed to unmarshal results from table '%s': %w", tableName, err)
	}
	return nil
}

// indexFor returns the position of the first equality filter backed by a GSI.
func (ds *DynamoStore) indexFor(collection string, filters []Filter) (int, string) {
	indexes := ds.Indexes[collection]
	for i, f := range filters {
		if f.Op != OpEquals && f.Op != "" {
			continue
		}
		if name, ok := indexes[f.Field]; ok {
			return i, name
		}
	}
	return -1, ""
}

type expression struct {
	keyCondition string
	filter       string
	names        map[string]string
	values       map[string]types.AttributeValue
}

func buildExpression(filters []Filter, keyIdx int) (expression, error) {
	expr := expression{
		names:  map[string]string{},
		values: map[string]types.AttributeValue{},
	}
	var parts []string
	for i, f := range filters {
		av, err := attributevalue.Marshal(f.Value)
		if err != nil {
			return expr, fmt.Errorf("marshal filter value for '%s': %w", f.Field, err)
		}
		n := fmt.Sprintf("#f%d", i)
		v := fmt.Sprintf(":v%d", i)
		expr.names[n] = f.Field
		expr.values[v] = av

		var cond string
		switch f.Op {
		case OpEquals, "":
			cond = n + " = " + v
		case OpContains:
			cond = "contains(" + n + ", " + v + ")"
		default:
			return expr, fmt.Errorf("unsupported filter operator %q", f.Op)
		}

		if i == keyIdx {
			expr.keyCondition = cond
			continue
		}
		parts = append(parts, cond)
	}
	expr.filter = strings.Join(parts, " AND ")
	return expr, nil
}
