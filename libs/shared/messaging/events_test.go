package messaging

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getlisted/platform/libs/shared/mq"
)

func TestEventRoundTripThroughMessage(t *testing.T) {
	evt, err := NewEvent(ListingSaved, "startup-1", map[string]string{"name": "Acme"})
	require.NoError(t, err)
	require.NotEmpty(t, evt.ID)

	raw, err := json.Marshal(evt)
	require.NoError(t, err)

	decoded, err := Decode(mq.Message{Value: raw})
	require.NoError(t, err)
	assert.Equal(t, ListingSaved, decoded.Type)
	assert.Equal(t, "startup-1", decoded.EntityID)
	assert.JSONEq(t, `{"name":"Acme"}`, string(decoded.Payload))
}

func TestDecodeFallsBackToHeaderType(t *testing.T) {
	decoded, err := Decode(mq.Message{
		Value:   []byte(`{"entityId":"deck-9"}`),
		Headers: map[string]string{"type": DeckSaved},
	})
	require.NoError(t, err)
	assert.Equal(t, DeckSaved, decoded.Type)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := Decode(mq.Message{Value: []byte("nope")})
	assert.Error(t, err)
}
