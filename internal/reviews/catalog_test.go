package reviews

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})
	return client, mr
}

func TestDefaultsAreValid(t *testing.T) {
	set := Defaults()
	require.NoError(t, ValidateSet(set))
	assert.Len(t, set, 5)
	for _, r := range set {
		assert.Equal(t, 5, r.Rating)
		assert.NotEmpty(t, r.Text)
	}

	set[0].Name = "mutated"
	assert.Equal(t, "Sarah Johnson", Defaults()[0].Name, "Defaults returns a copy")
}

func TestValidateSet(t *testing.T) {
	assert.ErrorIs(t, ValidateSet(nil), ErrEmpty)
	assert.Error(t, ValidateSet([]Review{{ID: "1", Name: "A", Rating: 6}}))
	assert.Error(t, ValidateSet([]Review{{ID: "1", Name: "A", Rating: 5}, {ID: "1", Name: "B", Rating: 4}}))
	assert.Error(t, ValidateSet([]Review{{ID: " ", Name: "A", Rating: 5}}))
}

func TestCatalogNilClientServesDefaults(t *testing.T) {
	set, err := NewCatalog(nil).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Defaults(), set)

	err = NewCatalog(nil).Publish(context.Background(), Defaults())
	assert.Error(t, err)
}

func TestCatalogFallsBackWhenUnpublished(t *testing.T) {
	client, _ := setupTestRedis(t)
	set, err := NewCatalog(client).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Defaults(), set)
}

func TestCatalogPublishThenLoad(t *testing.T) {
	client, _ := setupTestRedis(t)
	catalog := NewCatalog(client)
	ctx := context.Background()

	custom := []Review{
		{ID: "a", Name: "Pat", Rating: 4, Text: "Quick ride to ALB."},
		{ID: "b", Name: "Lee", Rating: 5, Text: "Great driver."},
	}
	require.NoError(t, catalog.Publish(ctx, custom))

	got, err := catalog.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, custom, got)
}

func TestCatalogPublishRejectsInvalid(t *testing.T) {
	client, mr := setupTestRedis(t)
	catalog := NewCatalog(client)

	err := catalog.Publish(context.Background(), []Review{{ID: "a", Name: "Pat", Rating: 0}})
	require.Error(t, err)
	assert.False(t, mr.Exists(catalogKey))
}

func TestCatalogLoadRejectsCorruptValue(t *testing.T) {
	client, mr := setupTestRedis(t)
	require.NoError(t, mr.Set(catalogKey, "{not json"))

	_, err := NewCatalog(client).Load(context.Background())
	assert.Error(t, err)

	require.NoError(t, mr.Set(catalogKey, "[]"))
	_, err = NewCatalog(client).Load(context.Background())
	assert.ErrorIs(t, err, ErrEmpty)
}
