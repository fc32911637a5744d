package dex

import (
	"encoding/base64"
	"testing"

	"tickScope/internal/model"
)

func b64(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}

func TestDecodeEventPlainAttributes(t *testing.T) {
	raw := model.RawEvent{
		Type: "transfer",
		Attributes: []model.RawAttribute{
			{Key: "recipient", Value: "addr1"},
			{Key: "amount", Value: "10tokenA"},
			{Key: "amount", Value: "20tokenB"},
		},
	}

	event := DecodeEvent(raw)
	if event.Type != "transfer" || len(event.Attributes) != 3 || len(event.Anomalies) != 0 {
		t.Fatalf("unexpected event: %+v", event)
	}
	if event.Attributes[1].Value != "10tokenA" || event.Attributes[2].Value != "20tokenB" {
		t.Fatalf("repeated keys not kept in order: %+v", event.Attributes)
	}
}

func TestDecodeEventBase64Attributes(t *testing.T) {
	raw := model.RawEvent{
		Type: "TickUpdate",
		Attributes: []model.RawAttribute{
			{Key: b64("TokenZero"), Value: b64("tokenA"), Encoded: true},
			{Key: b64("Reserves"), Value: b64("1000"), Encoded: true},
			{Key: b64("Fee"), Value: "", Encoded: true},
		},
	}

	event := DecodeEvent(raw)
	if len(event.Anomalies) != 0 {
		t.Fatalf("unexpected anomalies: %+v", event.Anomalies)
	}
	if event.Value("TokenZero") != "tokenA" || event.Value("Reserves") != "1000" {
		t.Fatalf("unexpected attributes: %+v", event.Attributes)
	}
	if v, ok := event.Get("Fee"); !ok || v != "" {
		t.Fatalf("empty value should decode to empty, got %q %v", v, ok)
	}
}

func TestDecodeEventAnomalyPassThrough(t *testing.T) {
	raw := model.RawEvent{
		Type: "message",
		Attributes: []model.RawAttribute{
			{Key: b64("action"), Value: "not*base64", Encoded: true},
			{Key: "%%%", Value: b64("dex"), Encoded: true},
			{Key: b64("blob"), Value: base64.StdEncoding.EncodeToString([]byte{0xff, 0xfe}), Encoded: true},
		},
	}

	event := DecodeEvent(raw)
	if len(event.Attributes) != 3 {
		t.Fatalf("attributes dropped: %+v", event.Attributes)
	}
	if event.Attributes[0].Key != "action" || event.Attributes[0].Value != "not*base64" {
		t.Fatalf("undecodable value not passed through: %+v", event.Attributes[0])
	}
	if event.Attributes[1].Key != "%%%" || event.Attributes[1].Value != "dex" {
		t.Fatalf("undecodable key not passed through: %+v", event.Attributes[1])
	}
	if len(event.Anomalies) != 3 {
		t.Fatalf("expected 3 anomalies, got %+v", event.Anomalies)
	}
	if event.Anomalies[0].Reason != "value: invalid base64" {
		t.Fatalf("unexpected reason: %q", event.Anomalies[0].Reason)
	}
	if event.Anomalies[1].Reason != "key: invalid base64" {
		t.Fatalf("unexpected reason: %q", event.Anomalies[1].Reason)
	}
	if event.Anomalies[2].Reason != "value: decoded bytes are not utf-8" {
		t.Fatalf("unexpected reason: %q", event.Anomalies[2].Reason)
	}
}

func TestDecodeEventsKeepsOrder(t *testing.T) {
	events := DecodeEvents([]model.RawEvent{{Type: "a"}, {Type: "b"}, {Type: "c"}})
	if len(events) != 3 || events[0].Type != "a" || events[2].Type != "c" {
		t.Fatalf("unexpected order: %+v", events)
	}
}
