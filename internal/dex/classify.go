package dex

import (
	"strings"

	"tickScope/internal/model"
)

var actionNames = map[string]model.ActionKind{
	"DepositLP":       model.ActionDepositLP,
	"WithdrawLP":      model.ActionWithdrawLP,
	"PlaceLimitOrder": model.ActionPlaceLimitOrder,
	"TickUpdate":      model.ActionTickUpdate,
}

// Actions lists every action kind that has specialized processing.
func Actions() []model.ActionKind {
	return []model.ActionKind{
		model.ActionDepositLP,
		model.ActionWithdrawLP,
		model.ActionPlaceLimitOrder,
		model.ActionTickUpdate,
	}
}

// Classify maps a decoded event to the DEX action it represents, or ActionNone.
//
// A "message" event is classified by its module and action attributes. An event whose type
// is itself an action name is classified directly unless it declares a different module.
func Classify(event model.DecodedEvent) model.ActionKind {
	module, hasModule := event.Get(AttrModule)

	if event.Type == EventTypeMessage {
		if module != ModuleDex {
			return model.ActionNone
		}
		return actionNames[event.Value(AttrAction)]
	}

	kind, ok := actionNames[event.Type]
	if !ok {
		return model.ActionNone
	}
	if hasModule && module != ModuleDex {
		return model.ActionNone
	}
	return kind
}

// IsDexEvent reports whether the event was emitted by the dex module.
func IsDexEvent(event model.DecodedEvent) bool {
	if Classify(event) != model.ActionNone {
		return true
	}
	return event.Value(AttrModule) == ModuleDex
}

// IsMessageEvent reports whether the event introduces a new message row. DEX action
// events reuse the "message" type but belong to the preceding message.
func IsMessageEvent(event model.DecodedEvent) bool {
	if event.Type != EventTypeMessage {
		return false
	}
	if strings.TrimSpace(event.Value(AttrAction)) == "" {
		return false
	}
	return Classify(event) == model.ActionNone
}

// MessageFields extracts the message row fields of a message event.
func MessageFields(event model.DecodedEvent) (action, module, sender string) {
	return event.Value(AttrAction), event.Value(AttrModule), event.Value(AttrSender)
}
