package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewClient(t *testing.T) {
	t.Run("Valid Config", func(t *testing.T) {
		client, err := NewClient(Config{
			Endpoint:  "http://localhost:9000",
			AccessKey: "minioadmin",
			SecretKey: "minioadmin",
			Bucket:    "ingest-drops",
		})
		// Connection is lazy, so construction succeeds without a server.
		assert.NoError(t, err)
		assert.NotNil(t, client)
	})

	t.Run("Empty Endpoint", func(t *testing.T) {
		client, err := NewClient(Config{Endpoint: ""})
		assert.Error(t, err)
		assert.Nil(t, client)
	})
}
