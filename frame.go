package sender

import (
	"bytes"
	"encoding/binary"
	"errors"
)

const (
	// headerLen is the magic, the version byte and the 8 byte length field.
	headerLen = 13

	senderDataRequest = "sender data"
)

var magic = []byte("ZBXD\x01")

// EncodeFrame prefixes payload with the protocol header. Only the low 4 bytes of
// the length field are used, the high 4 bytes are always zero.
func EncodeFrame(payload []byte) []byte {
	frame := make([]byte, headerLen+len(payload))
	copy(frame, magic)
	binary.LittleEndian.PutUint32(frame[5:9], uint32(len(payload)))
	copy(frame[headerLen:], payload)
	return frame
}

// DecodeFrame checks the magic and version of a received frame and returns
// everything after the header. The declared length is not checked against
// the number of bytes received.
func DecodeFrame(data []byte) ([]byte, error) {
	if !bytes.HasPrefix(data, magic) {
		return nil, &ProtocolError{Received: data}
	}
	if len(data) < headerLen {
		return nil, &DecodeError{Payload: data, Err: errors.New("response ended inside the header")}
	}
	return data[headerLen:], nil
}

type request struct {
	Request string   `json:"request"`
	Data    []Item   `json:"data"`
	Clock   *float64 `json:"clock,omitempty"`
	NS      *int64   `json:"ns,omitempty"`
}

// Response is the acknowledgement returned by the server. Both fields are
// passed through as received.
type Response struct {
	Response string `json:"response"`
	Info     string `json:"info"`
}

// Success reports whether the server accepted the request.
func (r *Response) Success() bool {
	return r.Response == "success"
}
