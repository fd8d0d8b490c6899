package ws

import (
	"encoding/json"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/playmatatu/billiards/internal/game"
)

// Format selects how frames are encoded for a client.
type Format string

const (
	FormatJSON    Format = "json"
	FormatMsgpack Format = "msgpack"
)

// ParseFormat maps the ?format= query value; anything unknown is JSON.
func ParseFormat(s string) Format {
	if Format(s) == FormatMsgpack {
		return FormatMsgpack
	}
	return FormatJSON
}

// Envelope wraps every server-to-client message.
type Envelope struct {
	Type string      `json:"type" msgpack:"type"`
	Data interface{} `json:"data,omitempty" msgpack:"data,omitempty"`
}

// EncodeFrame serializes a frame message in the given format.
func EncodeFrame(f game.Frame, format Format) ([]byte, error) {
	return encode(Envelope{Type: MsgFrame, Data: f}, format)
}

func encode(env Envelope, format Format) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	switch format {
	case FormatMsgpack:
		data, err = msgpack.Marshal(&env)
	default:
		data, err = json.Marshal(env)
	}
	if err != nil {
		return nil, fmt.Errorf("encode %s message: %w", env.Type, err)
	}
	return data, nil
}
