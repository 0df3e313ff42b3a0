package codec

import (
	"bytes"
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/palemoky/trivia-rush/internal/protocol"
)

// Format selects the frame encoding used on the websocket.
type Format string

const (
	// FormatJSON sends text frames holding the Message as JSON.
	FormatJSON Format = "json"
	// FormatProtobuf sends binary frames holding a google.protobuf.Struct
	// with "type" and "payload" fields.
	FormatProtobuf Format = "protobuf"
)

// ParseFormat validates a configured wire format.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", FormatJSON:
		return FormatJSON, nil
	case FormatProtobuf:
		return FormatProtobuf, nil
	default:
		return "", fmt.Errorf("unknown wire format %q", s)
	}
}

// Binary reports whether frames of this format are binary.
func (f Format) Binary() bool {
	return f == FormatProtobuf
}

// NewMessage builds a message with a JSON payload.
func NewMessage(msgType protocol.MessageType, payload any) (*protocol.Message, error) {
	msg := GetMessage()
	msg.Type = msgType

	if payload != nil {
		buf := GetBuffer()
		defer PutBuffer(buf)

		if err := json.NewEncoder(buf).Encode(payload); err != nil {
			PutMessage(msg)
			return nil, err
		}
		msg.Payload = append(json.RawMessage(nil), bytes.TrimRight(buf.Bytes(), "\n")...)
	}
	return msg, nil
}

// MustNewMessage builds a message and panics on encoding failure
func MustNewMessage(msgType protocol.MessageType, payload any) *protocol.Message {
	msg, err := NewMessage(msgType, payload)
	if err != nil {
		panic(err)
	}
	return msg
}

// NewErrorMessage builds an error message with the default text for code
func NewErrorMessage(code int) *protocol.Message {
	return NewErrorMessageWithText(code, protocol.ErrorMessages[code])
}

// NewErrorMessageWithText builds an error message with custom text
func NewErrorMessageWithText(code int, text string) *protocol.Message {
	msg, _ := NewMessage(protocol.MsgError, protocol.ErrorPayload{
		Code:    code,
		Message: text,
	})
	return msg
}

// ParsePayload decodes the payload of msg into T
func ParsePayload[T any](msg *protocol.Message) (*T, error) {
	var payload T
	if len(msg.Payload) == 0 {
		return &payload, nil
	}
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// Encode serializes a message in the given format.
func Encode(f Format, m *protocol.Message) ([]byte, error) {
	if f != FormatProtobuf {
		return json.Marshal(m)
	}

	st := GetStruct()
	defer PutStruct(st)

	st.Fields = map[string]*structpb.Value{
		"type": structpb.NewStringValue(string(m.Type)),
	}
	if len(m.Payload) > 0 {
		payload := &structpb.Value{}
		if err := protojson.Unmarshal(m.Payload, payload); err != nil {
			return nil, fmt.Errorf("payload to struct: %w", err)
		}
		st.Fields["payload"] = payload
	}
	return proto.Marshal(st)
}

// Decode parses a frame in the given format. The returned message comes from
// the pool; callers may hand it back with PutMessage when done.
func Decode(f Format, data []byte) (*protocol.Message, error) {
	if f != FormatProtobuf {
		msg := GetMessage()
		if err := json.Unmarshal(data, msg); err != nil {
			PutMessage(msg)
			return nil, err
		}
		return msg, nil
	}

	st := GetStruct()
	defer PutStruct(st)

	if err := proto.Unmarshal(data, st); err != nil {
		return nil, err
	}

	msg := GetMessage()
	msg.Type = protocol.MessageType(st.GetFields()["type"].GetStringValue())
	if payload, ok := st.GetFields()["payload"]; ok {
		raw, err := protojson.Marshal(payload)
		if err != nil {
			PutMessage(msg)
			return nil, fmt.Errorf("struct to payload: %w", err)
		}
		msg.Payload = raw
	}
	return msg, nil
}
