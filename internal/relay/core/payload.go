package core

import (
	"bytes"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Inbound JSON keys, matched exactly
const (
	FieldSecretToken = "secret_token"
	FieldBotToken    = "bot_token"
	FieldChatID      = "chat_id"
	FieldMessage     = "message"
)

// InboundPayload is the decoded relay request body. Values are kept as raw
// JSON so chat_id and message can be forwarded untouched.
type InboundPayload struct {
	SecretToken json.RawMessage
	BotToken    json.RawMessage
	ChatID      json.RawMessage
	Message     json.RawMessage
}

// ParseInboundPayload decodes a relay request body. Malformed JSON and null
// are errors. Any other non-object value carries no fields and yields an
// empty payload.
func ParseInboundPayload(body []byte) (*InboundPayload, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		var value any
		if err := json.Unmarshal(trimmed, &value); err != nil {
			return nil, err
		}
		if value == nil {
			return nil, ErrNotJSONObject
		}
		return &InboundPayload{}, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return nil, err
	}

	return &InboundPayload{
		SecretToken: fields[FieldSecretToken],
		BotToken:    fields[FieldBotToken],
		ChatID:      fields[FieldChatID],
		Message:     fields[FieldMessage],
	}, nil
}

// SecretMatches reports whether secret_token is a JSON string equal to secret
func (p *InboundPayload) SecretMatches(secret string) bool {
	token, ok := jsonString(p.SecretToken)
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(secret)) == 1
}

// HasRequiredFields reports whether bot_token, chat_id and message are all
// present and truthy
func (p *InboundPayload) HasRequiredFields() bool {
	return isTruthy(p.BotToken) && isTruthy(p.ChatID) && isTruthy(p.Message)
}

// BotTokenValue returns the bot token as it is placed in the provider URL.
// Non-string values take their script string form: 1e2 becomes "100",
// [1,2] becomes "1,2".
func (p *InboundPayload) BotTokenValue() string {
	var value any
	if err := json.Unmarshal(p.BotToken, &value); err != nil {
		return string(bytes.TrimSpace(p.BotToken))
	}
	return scriptString(value)
}

// Notification derives the provider request body
func (p *InboundPayload) Notification() OutboundNotification {
	return OutboundNotification{
		ChatID: p.ChatID,
		Text:   p.Message,
	}
}

// MessageLength is used for logging only
func (p *InboundPayload) MessageLength() int {
	if s, ok := jsonString(p.Message); ok {
		return len(s)
	}
	return len(p.Message)
}

func (p *InboundPayload) String() string {
	return fmt.Sprintf("InboundPayload{chat_id=%s, message_length=%d}", p.ChatID, p.MessageLength())
}

func jsonString(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '"' {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// scriptString renders a decoded JSON value in ECMAScript String() form
func scriptString(value any) string {
	switch v := value.(type) {
	case nil:
		return "null"
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return scriptNumber(v)
	case []any:
		parts := make([]string, len(v))
		for i, elem := range v {
			// null elements join as empty strings
			if elem != nil {
				parts[i] = scriptString(elem)
			}
		}
		return strings.Join(parts, ",")
	default:
		return "[object Object]"
	}
}

func scriptNumber(f float64) string {
	abs := math.Abs(f)
	if abs != 0 && (abs >= 1e21 || abs < 1e-6) {
		// exponent without zero padding: 1e-7, 1e+21
		mantissa, exponent, _ := strings.Cut(strconv.FormatFloat(f, 'e', -1, 64), "e")
		sign := exponent[0]
		digits := strings.TrimLeft(exponent[1:], "0")
		return mantissa + "e" + string(sign) + digits
	}
	if f == 0 {
		return "0"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// isTruthy treats absent, null, false, zero and the empty string as missing
func isTruthy(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return false
	}

	switch raw[0] {
	case 'n', 'f':
		// null, false
		return false
	case 't', '{', '[':
		return true
	case '"':
		s, ok := jsonString(raw)
		return ok && s != ""
	default:
		f, err := strconv.ParseFloat(string(raw), 64)
		if err != nil && f == 0 {
			return true
		}
		return f != 0
	}
}
