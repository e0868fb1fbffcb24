package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seatserve/internal/model"
)

func TestEventEnvelope(t *testing.T) {
	ev := model.AlertEvent{
		Type:      model.EventFeeOverdue,
		MemberID:  "m1",
		Title:     "Fee overdue",
		Body:      "Please pay",
		Data:      map[string]string{"k": "v"},
		Timestamp: 1750000000,
	}

	values, err := ToMap(ev)
	require.NoError(t, err)
	assert.Equal(t, model.EventFeeOverdue, values["type"])

	got, err := ParseEvent(values)
	require.NoError(t, err)
	assert.Equal(t, ev, got)
}

func TestParseEventRejectsMissingData(t *testing.T) {
	_, err := ParseEvent(map[string]interface{}{"type": "x"})
	assert.Error(t, err)

	_, err = ParseEvent(map[string]interface{}{"data": "{not json"})
	assert.Error(t, err)
}
