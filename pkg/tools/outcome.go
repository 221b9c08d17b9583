package tools

import "encoding/json"

// Outcome is the result of a dispatch. It encodes as {"result": ...} on
// success and {"error": "..."} on failure, never both.
type Outcome struct {
	result any
	err    string
	ok     bool
}

// Success wraps a handler result.
func Success(v any) Outcome {
	return Outcome{result: v, ok: true}
}

// Failure builds a soft error outcome.
func Failure(msg string) Outcome {
	return Outcome{err: msg}
}

// OK reports whether the outcome is a success.
func (o Outcome) OK() bool { return o.ok }

// Result returns the success value, nil on failure.
func (o Outcome) Result() any { return o.result }

// Err returns the failure message, empty on success.
func (o Outcome) Err() string { return o.err }

func (o Outcome) MarshalJSON() ([]byte, error) {
	if o.ok {
		return json.Marshal(struct {
			Result any `json:"result"`
		}{o.result})
	}
	return json.Marshal(struct {
		Error string `json:"error"`
	}{o.err})
}
