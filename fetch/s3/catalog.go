package s3

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/hupe1980/manifoldscan/fetch"
)

// ErrVersionConflict is returned by Commit when the version being
// published already exists for the graph.
var ErrVersionConflict = errors.New("catalog version already exists")

// DDBClient is the subset of the DynamoDB API the catalog uses.
type DDBClient interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// NewDefaultDDBClient creates a DynamoDB client from the ambient AWS
// configuration, same as NewDefaultClient does for S3.
func NewDefaultDDBClient(ctx context.Context) (*dynamodb.Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return dynamodb.NewFromConfig(cfg), nil
}

// Catalog tracks published graph versions in a DynamoDB table keyed by
// graph_name (partition) and version (numeric sort key). Readers resolve
// a name to its newest version; writers publish immutable versions with
// a conditional put, so two exporters can never claim the same one.
type Catalog struct {
	client DDBClient
	table  string
}

// NewCatalog creates a Catalog over the given table.
func NewCatalog(client DDBClient, table string) *Catalog {
	return &Catalog{client: client, table: table}
}

// Resolve returns the object key of the newest published version of the
// named graph.
func (c *Catalog) Resolve(ctx context.Context, name string) (string, error) {
	res, err := c.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(c.table),
		KeyConditionExpression: aws.String("graph_name = :name"),
		ExpressionAttributeValues: map[string]ddbtypes.AttributeValue{
			":name": &ddbtypes.AttributeValueMemberS{Value: name},
		},
		ScanIndexForward: aws.Bool(false), // newest version first
		Limit:            aws.Int32(1),
	})
	if err != nil {
		return "", fmt.Errorf("query catalog for %q: %w", name, err)
	}
	if len(res.Items) == 0 {
		return "", fmt.Errorf("graph %q: %w", name, fetch.ErrNotFound)
	}

	keyAttr, ok := res.Items[0]["object_key"].(*ddbtypes.AttributeValueMemberS)
	if !ok {
		return "", fmt.Errorf("catalog entry for %q has no object key", name)
	}
	return keyAttr.Value, nil
}

// Commit publishes version of the named graph pointing at objectKey.
func (c *Catalog) Commit(ctx context.Context, name string, version uint64, objectKey string) error {
	_, err := c.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(c.table),
		Item: map[string]ddbtypes.AttributeValue{
			"graph_name":   &ddbtypes.AttributeValueMemberS{Value: name},
			"version":      &ddbtypes.AttributeValueMemberN{Value: strconv.FormatUint(version, 10)},
			"object_key":   &ddbtypes.AttributeValueMemberS{Value: objectKey},
			"committed_at": &ddbtypes.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339)},
		},
		ConditionExpression: aws.String("attribute_not_exists(version)"),
	})
	if err != nil {
		var condErr *ddbtypes.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return fmt.Errorf("graph %q version %d: %w", name, version, ErrVersionConflict)
		}
		return fmt.Errorf("commit catalog entry for %q: %w", name, err)
	}
	return nil
}

// CatalogStore resolves logical graph names through a Catalog before
// opening the object in the underlying store. Mounted under a prefix
// such as "manifold://", it lets a location like "manifold://social"
// always follow the newest published version.
type CatalogStore struct {
	catalog *Catalog
	store   fetch.Store
}

var _ fetch.Store = (*CatalogStore)(nil)

// NewCatalogStore composes a Catalog with the store holding the objects
// it points at.
func NewCatalogStore(catalog *Catalog, store fetch.Store) *CatalogStore {
	return &CatalogStore{catalog: catalog, store: store}
}

func (s *CatalogStore) Open(ctx context.Context, name string) (fetch.Object, error) {
	key, err := s.catalog.Resolve(ctx, name)
	if err != nil {
		return nil, err
	}
	return s.store.Open(ctx, key)
}
