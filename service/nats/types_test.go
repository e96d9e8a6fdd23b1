package nats

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmissionEvent_Subject(t *testing.T) {
	event := &SubmissionEvent{FeePayer: "DevWa11et"}
	assert.Equal(t, "submissions.DevWa11et", event.Subject())
}

func TestSubmissionEvent_JSON(t *testing.T) {
	to := "Target"
	event := &SubmissionEvent{
		Signature:   "sig",
		Kind:        "transfer",
		Cluster:     "devnet",
		FeePayer:    "DevWa11et",
		To:          &to,
		Amount:      100_000_000,
		Commitment:  "confirmed",
		ExplorerURL: "https://explorer.solana.com/tx/sig?cluster=devnet",
		PublishedAt: time.Unix(0, 0).UTC(),
	}

	data, err := json.Marshal(event)
	require.NoError(t, err)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "Target", got["to"])
	assert.Equal(t, float64(100_000_000), got["amount"])
	assert.NotContains(t, got, "fee")
	assert.NotContains(t, got, "derived_address")
}

func TestMockPublisher(t *testing.T) {
	m := NewMockPublisher()
	ctx := context.Background()

	require.NoError(t, m.PublishSubmission(ctx, &SubmissionEvent{FeePayer: "a", Signature: "1"}))
	require.NoError(t, m.PublishSubmission(ctx, &SubmissionEvent{FeePayer: "b", Signature: "2"}))
	assert.Len(t, m.GetPublishedEvents(), 2)
	assert.Len(t, m.GetPublishedEventsForFeePayer("a"), 1)

	m.SetPublishError(errors.New("nats down"))
	assert.Error(t, m.PublishSubmission(ctx, &SubmissionEvent{FeePayer: "a"}))
	assert.Len(t, m.GetPublishedEvents(), 2)

	require.NoError(t, m.Close())
	assert.True(t, m.IsClosed())
}
