package redis

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupStream(t *testing.T) *redis.Client {
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestCreateConsumerGroup_Idempotent(t *testing.T) {
	client := setupStream(t)
	ctx := context.Background()

	require.NoError(t, CreateConsumerGroup(ctx, client, "glucose:readings:stream", "companion"))
	require.NoError(t, CreateConsumerGroup(ctx, client, "glucose:readings:stream", "companion"))
}

func TestPublishJSONToStream_ReadAndAck(t *testing.T) {
	client := setupStream(t)
	ctx := context.Background()
	stream := "glucose:readings:stream"

	require.NoError(t, CreateConsumerGroup(ctx, client, stream, "companion"))

	id, err := PublishJSONToStream(ctx, client, stream, map[string]interface{}{"value": 123.0})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	msgs, err := ReadFromStream(ctx, client, stream, "companion", "c1", 10, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, id, msgs[0].ID)

	var decoded map[string]float64
	require.NoError(t, json.Unmarshal([]byte(msgs[0].Values["data"].(string)), &decoded))
	assert.Equal(t, 123.0, decoded["value"])

	require.NoError(t, Ack(ctx, client, stream, "companion", id))

	msgs, err = ReadFromStream(ctx, client, stream, "companion", "c1", 10, 0)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestPublishToStream_StringifiesValues(t *testing.T) {
	client := setupStream(t)
	ctx := context.Background()

	_, err := PublishToStream(ctx, client, "s", map[string]interface{}{
		"int":   7,
		"float": 5.5,
		"bool":  true,
		"bytes": []byte("raw"),
	})
	require.NoError(t, err)

	entries, err := client.XRange(ctx, "s", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "7", entries[0].Values["int"])
	assert.Equal(t, "5.5", entries[0].Values["float"])
	assert.Equal(t, "true", entries[0].Values["bool"])
	assert.Equal(t, "raw", entries[0].Values["bytes"])
}
