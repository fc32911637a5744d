package model

import "testing"

func TestCursorNextIndex(t *testing.T) {
	var c Cursor
	if !c.IsZero() {
		t.Fatalf("zero cursor not reported as zero")
	}
	if got := c.NextIndex(10); got != 0 {
		t.Fatalf("fresh cursor next index = %d", got)
	}

	c = c.Advance(10, 0, "AA")
	if c.IsZero() || c.UpdatedAt.IsZero() {
		t.Fatalf("advanced cursor: %+v", c)
	}
	if got := c.NextIndex(10); got != 1 {
		t.Fatalf("same height next index = %d, want 1", got)
	}
	if got := c.NextIndex(11); got != 0 {
		t.Fatalf("new height next index = %d, want 0", got)
	}
}

func TestEventKeyLess(t *testing.T) {
	keys := []EventKey{
		{Height: 1, TxIndex: 0, EventIndex: 0},
		{Height: 1, TxIndex: 0, EventIndex: 5},
		{Height: 1, TxIndex: 2, EventIndex: 0},
		{Height: 2, TxIndex: 0, EventIndex: 0},
	}
	for i := 0; i+1 < len(keys); i++ {
		if !keys[i].Less(keys[i+1]) {
			t.Fatalf("%+v should sort before %+v", keys[i], keys[i+1])
		}
		if keys[i+1].Less(keys[i]) {
			t.Fatalf("%+v should not sort before %+v", keys[i+1], keys[i])
		}
	}
	if keys[0].Less(keys[0]) {
		t.Fatalf("key must not be less than itself")
	}
}

func TestParseHeight(t *testing.T) {
	h, err := TransactionResult{Height: " 42 "}.ParseHeight()
	if err != nil || h != 42 {
		t.Fatalf("ParseHeight = %d, %v", h, err)
	}
	for _, bad := range []string{"", "0", "-1", "abc"} {
		if _, err := (TransactionResult{Height: bad}).ParseHeight(); err == nil {
			t.Fatalf("expected error for height %q", bad)
		}
	}
}

func TestDecodedEventLookups(t *testing.T) {
	ev := DecodedEvent{
		Type: "message",
		Attributes: []Attribute{
			{Key: "amount", Value: "1"},
			{Key: "Token0", Value: ""},
			{Key: "TokenZero", Value: "tokenA"},
			{Key: "amount", Value: "2"},
		},
	}

	if v, ok := ev.Get("amount"); !ok || v != "2" {
		t.Fatalf("Get returns last value, got %q %v", v, ok)
	}
	if _, ok := ev.Get("missing"); ok {
		t.Fatalf("missing key reported present")
	}
	if v, ok := ev.First("Token0", "TokenZero"); !ok || v != "tokenA" {
		t.Fatalf("First should skip empty values, got %q %v", v, ok)
	}
}

func TestActionKindString(t *testing.T) {
	if ActionNone.String() != "none" || ActionTickUpdate.String() != "TickUpdate" {
		t.Fatalf("unexpected names: %s %s", ActionNone, ActionTickUpdate)
	}
}
