package queue

import (
	"encoding/json"
	"fmt"

	"seatserve/internal/model"
)

// Stream and consumer group names for the alert pipeline.
const (
	StreamAlerts       = "stream:alerts"
	ConsumerGroupAlert = "alert_workers"
)

// ToMap serializes an alert event for XADD. Streams store field-value pairs,
// so the full event rides as JSON in a "data" field with the type duplicated
// for cheap filtering.
func ToMap(ev model.AlertEvent) (map[string]interface{}, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return map[string]interface{}{
		"type": ev.Type,
		"data": string(data),
	}, nil
}

// ParseEvent parses an alert event from stream message values.
func ParseEvent(values map[string]interface{}) (model.AlertEvent, error) {
	data, ok := values["data"].(string)
	if !ok {
		return model.AlertEvent{}, fmt.Errorf("missing or invalid 'data' field")
	}

	var ev model.AlertEvent
	if err := json.Unmarshal([]byte(data), &ev); err != nil {
		return model.AlertEvent{}, fmt.Errorf("unmarshal event: %w", err)
	}
	return ev, nil
}
