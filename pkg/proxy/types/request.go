package types

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Roles accepted in ChatRequest messages.
var validRoles = map[string]bool{
	"system":    true,
	"user":      true,
	"assistant": true,
	"function":  true,
	"tool":      true,
}

// Field is one top-level member of a request object with its value exactly
// as the client encoded it.
type Field struct {
	Key   string
	Value json.RawMessage
}

// ChatRequest is a chat completion request kept as an ordered list of raw
// fields. Only stream is ever rewritten when the request is forwarded.
type ChatRequest struct {
	Fields []Field

	// Stream is the normalized stream flag.
	Stream bool

	// Model is the requested model, empty when absent.
	Model string

	// MessageCount is the number of messages in the conversation.
	MessageCount int
}

// ValidationError reports an invalid request field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// DecodeChatRequest parses data as a JSON object, keeping field order and
// encoding. It validates stream, model and messages.
func DecodeChatRequest(data []byte) (*ChatRequest, error) {
	fields, err := decodeObject(data)
	if err != nil {
		return nil, err
	}

	req := &ChatRequest{Fields: fields}
	if err := req.validate(); err != nil {
		return nil, err
	}
	return req, nil
}

// Get returns the raw value of key.
func (r *ChatRequest) Get(key string) (json.RawMessage, bool) {
	for _, f := range r.Fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// Encode renders the request for the backend. Fields keep their order and
// bytes; stream is written as an explicit boolean and appended when the
// client omitted it.
func (r *ChatRequest) Encode() []byte {
	streamLit := []byte("false")
	if r.Stream {
		streamLit = []byte("true")
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	seenStream := false
	for i, f := range r.Fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, _ := json.Marshal(f.Key)
		buf.Write(key)
		buf.WriteByte(':')
		if f.Key == "stream" {
			buf.Write(streamLit)
			seenStream = true
			continue
		}
		buf.Write(f.Value)
	}
	if !seenStream {
		if len(r.Fields) > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(`"stream":`)
		buf.Write(streamLit)
	}
	buf.WriteByte('}')
	return buf.Bytes()
}

func (r *ChatRequest) validate() error {
	if raw, ok := r.Get("stream"); ok {
		switch string(bytes.TrimSpace(raw)) {
		case "true":
			r.Stream = true
		case "false", "null":
			r.Stream = false
		default:
			return &ValidationError{Field: "stream", Message: "stream must be a boolean"}
		}
	}

	if raw, ok := r.Get("model"); ok && !isNull(raw) {
		if err := json.Unmarshal(raw, &r.Model); err != nil {
			return &ValidationError{Field: "model", Message: "model must be a string"}
		}
	}

	raw, ok := r.Get("messages")
	if !ok || isNull(raw) {
		return &ValidationError{Field: "messages", Message: "messages is required"}
	}
	var messages []json.RawMessage
	if err := json.Unmarshal(raw, &messages); err != nil {
		return &ValidationError{Field: "messages", Message: "messages must be an array"}
	}
	if len(messages) == 0 {
		return &ValidationError{Field: "messages", Message: "messages must contain at least one message"}
	}
	for i, m := range messages {
		var msg struct {
			Role *string `json:"role"`
		}
		if err := json.Unmarshal(m, &msg); err != nil {
			return &ValidationError{
				Field:   fmt.Sprintf("messages[%d]", i),
				Message: fmt.Sprintf("messages[%d] must be an object with a string role", i),
			}
		}
		if msg.Role == nil {
			return &ValidationError{
				Field:   fmt.Sprintf("messages[%d].role", i),
				Message: fmt.Sprintf("messages[%d].role is required", i),
			}
		}
		if !validRoles[*msg.Role] {
			return &ValidationError{
				Field:   fmt.Sprintf("messages[%d].role", i),
				Message: fmt.Sprintf("messages[%d].role %q is not one of system, user, assistant, function, tool", i, *msg.Role),
			}
		}
	}
	r.MessageCount = len(messages)
	return nil
}

// decodeObject splits a JSON object into its members. A repeated key keeps
// its first position and its last value.
func decodeObject(data []byte) ([]Field, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, &ValidationError{Field: "body", Message: fmt.Sprintf("invalid JSON: %v", err)}
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, &ValidationError{Field: "body", Message: "request body must be a JSON object"}
	}

	var fields []Field
	index := make(map[string]int)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, &ValidationError{Field: "body", Message: fmt.Sprintf("invalid JSON: %v", err)}
		}
		key, _ := tok.(string)

		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, &ValidationError{Field: "body", Message: fmt.Sprintf("invalid JSON: %v", err)}
		}
		if i, dup := index[key]; dup {
			fields[i].Value = value
			continue
		}
		index[key] = len(fields)
		fields = append(fields, Field{Key: key, Value: value})
	}
	if _, err := dec.Token(); err != nil {
		return nil, &ValidationError{Field: "body", Message: fmt.Sprintf("invalid JSON: %v", err)}
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, &ValidationError{Field: "body", Message: "invalid JSON: trailing data after object"}
	}
	return fields, nil
}

func isNull(raw json.RawMessage) bool {
	return string(bytes.TrimSpace(raw)) == "null"
}
