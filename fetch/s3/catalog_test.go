package s3

import (
	"context"
	"strconv"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/manifoldscan/fetch"
)

// fakeCatalogTable implements DDBClient over a slice, enough to exercise
// conditional puts and newest-first queries.
type fakeCatalogTable struct {
	rows []catalogRow
}

type catalogRow struct {
	name    string
	version uint64
	key     string
}

func (f *fakeCatalogTable) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	name := in.Item["graph_name"].(*ddbtypes.AttributeValueMemberS).Value
	version, err := strconv.ParseUint(in.Item["version"].(*ddbtypes.AttributeValueMemberN).Value, 10, 64)
	if err != nil {
		return nil, err
	}

	for _, row := range f.rows {
		if row.name == name && row.version == version {
			return nil, &ddbtypes.ConditionalCheckFailedException{Message: aws.String("exists")}
		}
	}

	f.rows = append(f.rows, catalogRow{
		name:    name,
		version: version,
		key:     in.Item["object_key"].(*ddbtypes.AttributeValueMemberS).Value,
	})
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeCatalogTable) Query(_ context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	name := in.ExpressionAttributeValues[":name"].(*ddbtypes.AttributeValueMemberS).Value

	var best *catalogRow
	for i := range f.rows {
		row := &f.rows[i]
		if row.name != name {
			continue
		}
		if best == nil || row.version > best.version {
			best = row
		}
	}
	if best == nil {
		return &dynamodb.QueryOutput{}, nil
	}

	return &dynamodb.QueryOutput{
		Items: []map[string]ddbtypes.AttributeValue{{
			"graph_name": &ddbtypes.AttributeValueMemberS{Value: best.name},
			"version":    &ddbtypes.AttributeValueMemberN{Value: strconv.FormatUint(best.version, 10)},
			"object_key": &ddbtypes.AttributeValueMemberS{Value: best.key},
		}},
	}, nil
}

func TestCatalogResolveNewest(t *testing.T) {
	catalog := NewCatalog(&fakeCatalogTable{}, "graph-catalog")
	ctx := context.Background()

	require.NoError(t, catalog.Commit(ctx, "social", 1, "social/v1.manifold"))
	require.NoError(t, catalog.Commit(ctx, "social", 2, "social/v2.manifold"))
	require.NoError(t, catalog.Commit(ctx, "billing", 7, "billing/v7.manifold"))

	key, err := catalog.Resolve(ctx, "social")
	require.NoError(t, err)
	assert.Equal(t, "social/v2.manifold", key)

	key, err = catalog.Resolve(ctx, "billing")
	require.NoError(t, err)
	assert.Equal(t, "billing/v7.manifold", key)
}

func TestCatalogResolveMissing(t *testing.T) {
	catalog := NewCatalog(&fakeCatalogTable{}, "graph-catalog")

	_, err := catalog.Resolve(context.Background(), "nope")
	assert.ErrorIs(t, err, fetch.ErrNotFound)
}

func TestCatalogCommitConflict(t *testing.T) {
	catalog := NewCatalog(&fakeCatalogTable{}, "graph-catalog")
	ctx := context.Background()

	require.NoError(t, catalog.Commit(ctx, "social", 1, "social/v1.manifold"))

	err := catalog.Commit(ctx, "social", 1, "social/v1-retry.manifold")
	assert.ErrorIs(t, err, ErrVersionConflict)
}

func TestCatalogStore(t *testing.T) {
	objects := fetch.NewMemoryStore()
	objects.Put(context.Background(), "social/v2.manifold", []byte("graph bytes"))

	catalog := NewCatalog(&fakeCatalogTable{}, "graph-catalog")
	ctx := context.Background()
	require.NoError(t, catalog.Commit(ctx, "social", 1, "social/v1.manifold"))
	require.NoError(t, catalog.Commit(ctx, "social", 2, "social/v2.manifold"))

	store := NewCatalogStore(catalog, objects)

	obj, err := store.Open(ctx, "social")
	require.NoError(t, err)
	assert.Equal(t, int64(len("graph bytes")), obj.Size())

	_, err = store.Open(ctx, "unknown")
	assert.ErrorIs(t, err, fetch.ErrNotFound)
}
