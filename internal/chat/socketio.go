package chat

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Engine.IO packet types
const (
	engineOpen    byte = '0'
	engineClose   byte = '1'
	enginePing    byte = '2'
	enginePong    byte = '3'
	engineMessage byte = '4'
)

// Socket.IO packet types carried inside an Engine.IO message
const (
	socketConnect      byte = '0'
	socketDisconnect   byte = '1'
	socketEvent        byte = '2'
	socketConnectError byte = '4'
)

var errMalformedPacket = errors.New("malformed socket.io packet")

// packet is one decoded websocket frame
type packet struct {
	engine    byte
	socket    byte
	namespace string
	event     string
	data      json.RawMessage
}

// handshake is the payload of the Engine.IO open packet
type handshake struct {
	SID          string `json:"sid"`
	PingInterval int    `json:"pingInterval"`
	PingTimeout  int    `json:"pingTimeout"`
}

// readTimeout is how long the server may stay silent before the connection
// is considered dead
func (h handshake) readTimeout() time.Duration {
	if h.PingInterval <= 0 {
		return 0
	}
	return time.Duration(h.PingInterval+h.PingTimeout) * time.Millisecond
}

func normalizeNamespace(ns string) string {
	if ns == "" || ns == "/" {
		return "/"
	}
	return ns
}

// prefix writes the "4<type>[/ns,]" header of a Socket.IO frame
func prefix(buf *bytes.Buffer, kind byte, namespace string) {
	buf.WriteByte(engineMessage)
	buf.WriteByte(kind)
	if ns := normalizeNamespace(namespace); ns != "/" {
		buf.WriteString(ns)
		buf.WriteByte(',')
	}
}

func encodeConnect(namespace string, auth interface{}) ([]byte, error) {
	var buf bytes.Buffer
	prefix(&buf, socketConnect, namespace)
	if auth != nil {
		data, err := json.Marshal(auth)
		if err != nil {
			return nil, err
		}
		buf.Write(data)
	}
	return buf.Bytes(), nil
}

func encodeDisconnect(namespace string) []byte {
	var buf bytes.Buffer
	prefix(&buf, socketDisconnect, namespace)
	return buf.Bytes()
}

func encodeEvent(namespace, event string, payload interface{}) ([]byte, error) {
	args := []interface{}{event}
	if payload != nil {
		args = append(args, payload)
	}
	data, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", event, err)
	}
	var buf bytes.Buffer
	prefix(&buf, socketEvent, namespace)
	buf.Write(data)
	return buf.Bytes(), nil
}

func decodePacket(frame []byte) (packet, error) {
	if len(frame) == 0 {
		return packet{}, errMalformedPacket
	}
	p := packet{engine: frame[0]}
	rest := frame[1:]
	if p.engine != engineMessage {
		p.data = rest
		return p, nil
	}
	if len(rest) == 0 {
		return packet{}, errMalformedPacket
	}
	p.socket = rest[0]
	rest = rest[1:]

	p.namespace = "/"
	if len(rest) > 0 && rest[0] == '/' {
		i := bytes.IndexByte(rest, ',')
		if i < 0 {
			p.namespace = string(rest)
			rest = nil
		} else {
			p.namespace = string(rest[:i])
			rest = rest[i+1:]
		}
	}
	// ack ids are not used but may precede the payload
	for len(rest) > 0 && rest[0] >= '0' && rest[0] <= '9' {
		rest = rest[1:]
	}

	if p.socket != socketEvent {
		p.data = rest
		return p, nil
	}

	var args []json.RawMessage
	if err := json.Unmarshal(rest, &args); err != nil || len(args) == 0 {
		return packet{}, errMalformedPacket
	}
	if err := json.Unmarshal(args[0], &p.event); err != nil {
		return packet{}, errMalformedPacket
	}
	if len(args) > 1 {
		p.data = args[1]
	}
	return p, nil
}
