package model

// Attribute is a decoded event attribute.
type Attribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// DecodeAnomaly records an attribute that could not be decoded and was passed through as-is.
type DecodeAnomaly struct {
	Key    string `json:"key"`
	Value  string `json:"value"`
	Reason string `json:"reason"`
}

// DecodedEvent is a chain event with its attribute list decoded. Attribute order is kept,
// including repeated keys.
type DecodedEvent struct {
	Type       string          `json:"type"`
	Attributes []Attribute     `json:"attributes"`
	Anomalies  []DecodeAnomaly `json:"anomalies,omitempty"`
}

// Get returns the value of the last attribute named key.
func (e DecodedEvent) Get(key string) (string, bool) {
	for i := len(e.Attributes) - 1; i >= 0; i-- {
		if e.Attributes[i].Key == key {
			return e.Attributes[i].Value, true
		}
	}
	return "", false
}

// Value returns Get(key) without the presence flag.
func (e DecodedEvent) Value(key string) string {
	v, _ := e.Get(key)
	return v
}

// First returns the value of the first present key among keys.
func (e DecodedEvent) First(keys ...string) (string, bool) {
	for _, key := range keys {
		if v, ok := e.Get(key); ok && v != "" {
			return v, true
		}
	}
	return "", false
}
