package protocol

import (
	jsoniter "github.com/json-iterator/go"
)

var codec = jsoniter.ConfigCompatibleWithStandardLibrary

// Marshal and Unmarshal encode envelopes. They behave like encoding/json.
var (
	Marshal   = codec.Marshal
	Unmarshal = codec.Unmarshal
)

// MarshalIndent is used for human-facing output.
func MarshalIndent(v interface{}) ([]byte, error) {
	return codec.MarshalIndent(v, "", "  ")
}
