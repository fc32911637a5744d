package dex

import (
	"testing"

	"tickScope/internal/model"
)

func event(typ string, kv ...string) model.DecodedEvent {
	ev := model.DecodedEvent{Type: typ}
	for i := 0; i+1 < len(kv); i += 2 {
		ev.Attributes = append(ev.Attributes, model.Attribute{Key: kv[i], Value: kv[i+1]})
	}
	return ev
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name  string
		event model.DecodedEvent
		want  model.ActionKind
	}{
		{"dex message deposit", event("message", "module", "dex", "action", "DepositLP"), model.ActionDepositLP},
		{"dex message withdraw", event("message", "module", "dex", "action", "WithdrawLP"), model.ActionWithdrawLP},
		{"dex message limit order", event("message", "module", "dex", "action", "PlaceLimitOrder"), model.ActionPlaceLimitOrder},
		{"dex message tick update", event("message", "module", "dex", "action", "TickUpdate"), model.ActionTickUpdate},
		{"typed tick update", event("TickUpdate", "TokenZero", "a"), model.ActionTickUpdate},
		{"typed with dex module", event("DepositLP", "module", "dex"), model.ActionDepositLP},
		{"typed with other module", event("DepositLP", "module", "bank"), model.ActionNone},
		{"other module message", event("message", "module", "bank", "action", "DepositLP"), model.ActionNone},
		{"message without module", event("message", "action", "DepositLP"), model.ActionNone},
		{"unknown dex action", event("message", "module", "dex", "action", "Swap"), model.ActionNone},
		{"transfer", event("transfer", "amount", "1tokenA"), model.ActionNone},
	}

	for _, tc := range cases {
		if got := Classify(tc.event); got != tc.want {
			t.Fatalf("%s: got %s, want %s", tc.name, got, tc.want)
		}
	}
}

func TestActionsCoversEveryKind(t *testing.T) {
	seen := make(map[model.ActionKind]bool)
	for _, kind := range Actions() {
		if kind == model.ActionNone {
			t.Fatalf("Actions must not include ActionNone")
		}
		seen[kind] = true
	}
	for name, kind := range actionNames {
		if !seen[kind] {
			t.Fatalf("action %s missing from Actions()", name)
		}
		if kind.String() != name {
			t.Fatalf("kind %d prints %q, want %q", kind, kind.String(), name)
		}
	}
}

func TestIsMessageEvent(t *testing.T) {
	if !IsMessageEvent(event("message", "action", "/dex.MsgDeposit", "module", "bank")) {
		t.Fatalf("msg event not recognized")
	}
	if IsMessageEvent(event("message", "module", "dex", "action", "DepositLP")) {
		t.Fatalf("dex action event must not start a message")
	}
	if IsMessageEvent(event("message", "sender", "addr1")) {
		t.Fatalf("message without action must not start a message")
	}
	if IsMessageEvent(event("transfer", "action", "x")) {
		t.Fatalf("non-message event must not start a message")
	}

	action, module, sender := MessageFields(event("message", "action", "/dex.MsgDeposit", "module", "bank", "sender", "addr1"))
	if action != "/dex.MsgDeposit" || module != "bank" || sender != "addr1" {
		t.Fatalf("unexpected fields: %q %q %q", action, module, sender)
	}
}

func TestIsDexEvent(t *testing.T) {
	if !IsDexEvent(event("message", "module", "dex", "action", "Swap")) {
		t.Fatalf("unclassified dex event should still be a dex event")
	}
	if IsDexEvent(event("transfer", "module", "bank")) {
		t.Fatalf("bank event is not a dex event")
	}
}
