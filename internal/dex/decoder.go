package dex

import (
	"encoding/base64"
	"unicode/utf8"

	"tickScope/internal/model"
)

// DecodeEvent decodes the attribute list of a raw event. It never fails: attributes that
// cannot be decoded keep their raw value and are recorded as anomalies.
func DecodeEvent(raw model.RawEvent) model.DecodedEvent {
	event := model.DecodedEvent{
		Type:       raw.Type,
		Attributes: make([]model.Attribute, 0, len(raw.Attributes)),
	}

	for _, attr := range raw.Attributes {
		if !attr.Encoded {
			event.Attributes = append(event.Attributes, model.Attribute{Key: attr.Key, Value: attr.Value})
			continue
		}

		key, keyErr := decodeBase64Text(attr.Key)
		if keyErr != "" {
			key = attr.Key
			event.Anomalies = append(event.Anomalies, model.DecodeAnomaly{Key: attr.Key, Value: attr.Key, Reason: "key: " + keyErr})
		}
		value, valueErr := decodeBase64Text(attr.Value)
		if valueErr != "" {
			value = attr.Value
			event.Anomalies = append(event.Anomalies, model.DecodeAnomaly{Key: key, Value: attr.Value, Reason: "value: " + valueErr})
		}
		event.Attributes = append(event.Attributes, model.Attribute{Key: key, Value: value})
	}

	return event
}

// DecodeEvents decodes every event of a transaction, preserving order.
func DecodeEvents(raw []model.RawEvent) []model.DecodedEvent {
	out := make([]model.DecodedEvent, 0, len(raw))
	for _, ev := range raw {
		out = append(out, DecodeEvent(ev))
	}
	return out
}

func decodeBase64Text(input string) (string, string) {
	if input == "" {
		return "", ""
	}
	data, err := base64.StdEncoding.DecodeString(input)
	if err != nil {
		return "", "invalid base64"
	}
	if !utf8.Valid(data) {
		return "", "decoded bytes are not utf-8"
	}
	return string(data), ""
}
