package logic

import (
	"encoding/json"
	"errors"
	"fmt"
)

// StatusField is the document field holding the remote signal.
const StatusField = "status"

// onToken is the only field value that classifies as ON. Matching is exact
// and case-sensitive; anything else present in a valid document is OFF.
const onToken = "on"

// ErrParse is returned when a payload is not a JSON object.
var ErrParse = errors.New("payload is not a JSON object")

// Parse classifies a raw status payload.
//
// A well-formed JSON object always classifies as ON or OFF: ON only when the
// status field is the string "on", OFF when the field is missing, not a
// string, or any other value. Anything that is not a JSON object (empty body,
// truncated bytes, arrays, scalars, null) returns StatusParseError and an
// error wrapping ErrParse.
func Parse(payload []byte) (Status, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(payload, &doc); err != nil {
		return StatusParseError, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if doc == nil {
		return StatusParseError, fmt.Errorf("%w: null document", ErrParse)
	}

	raw, ok := doc[StatusField]
	if !ok {
		return StatusOff, nil
	}

	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		// Present but not a string
		return StatusOff, nil
	}

	if value == onToken {
		return StatusOn, nil
	}
	return StatusOff, nil
}
