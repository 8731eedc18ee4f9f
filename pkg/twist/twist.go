// Package twist converts velocity commands to the geometry_msgs/Twist JSON
// layout and wraps them in OttMessage envelopes for the wire.
package twist

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/golang/geo/r3"
	flatbuffers "github.com/google/flatbuffers/go"

	"github.com/open-teleop/keyboard-teleop/domain/teleop"
	message "github.com/open-teleop/keyboard-teleop/pkg/flatbuffers/open_teleop/message"
)

// EnvelopeVersion is written into every OttMessage.
const EnvelopeVersion = 1

// ErrUnexpectedContent is returned when an envelope does not carry a command.
var ErrUnexpectedContent = errors.New("envelope does not carry a JSON command")

// Vector3 defines a standard 3D vector.
type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Msg represents a command velocity message, matching geometry_msgs/Twist.
type Msg struct {
	Linear  Vector3 `json:"linear"`
	Angular Vector3 `json:"angular"`
}

// FromCommand converts a velocity command into its Twist form.
func FromCommand(cmd teleop.VelocityCommand) Msg {
	return Msg{
		Linear:  Vector3{X: cmd.Linear.X, Y: cmd.Linear.Y, Z: cmd.Linear.Z},
		Angular: Vector3{X: cmd.Angular.X, Y: cmd.Angular.Y, Z: cmd.Angular.Z},
	}
}

// Command converts the Twist back into a velocity command.
func (m Msg) Command() teleop.VelocityCommand {
	return teleop.VelocityCommand{
		Linear:  r3.Vector{X: m.Linear.X, Y: m.Linear.Y, Z: m.Linear.Z},
		Angular: r3.Vector{X: m.Angular.X, Y: m.Angular.Y, Z: m.Angular.Z},
	}
}

// Envelope is a decoded OttMessage carrying a Twist.
type Envelope struct {
	Topic       string
	TimestampNs int64
	Version     byte
	Twist       Msg
}

// EncodeOttMessage serializes cmd as Twist JSON inside an OttMessage
// addressed to topic.
func EncodeOttMessage(topic string, cmd teleop.VelocityCommand, timestampNs int64) ([]byte, error) {
	payload, err := json.Marshal(FromCommand(cmd))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal twist: %w", err)
	}

	builder := flatbuffers.NewBuilder(256)
	topicOffset := builder.CreateString(topic)
	payloadOffset := builder.CreateByteVector(payload)

	message.OttMessageStart(builder)
	message.OttMessageAddVersion(builder, EnvelopeVersion)
	message.OttMessageAddOtt(builder, topicOffset)
	message.OttMessageAddTimestampNs(builder, timestampNs)
	message.OttMessageAddContentType(builder, message.ContentTypeJSON_COMMAND)
	message.OttMessageAddPayload(builder, payloadOffset)
	ottMessageOffset := message.OttMessageEnd(builder)

	message.FinishOttMessageBuffer(builder, ottMessageOffset)
	return builder.FinishedBytes(), nil
}

// DecodeOttMessage parses an envelope produced by EncodeOttMessage.
func DecodeOttMessage(data []byte) (env Envelope, err error) {
	if len(data) < flatbuffers.SizeUOffsetT {
		return Envelope{}, fmt.Errorf("envelope too short: %d bytes", len(data))
	}
	// Malformed buffers make the generated accessors index out of range.
	defer func() {
		if r := recover(); r != nil {
			env, err = Envelope{}, fmt.Errorf("malformed envelope: %v", r)
		}
	}()

	ottMsg := message.GetRootAsOttMessage(data, 0)
	if ct := ottMsg.ContentType(); ct != message.ContentTypeJSON_COMMAND {
		return Envelope{}, fmt.Errorf("%w: content type %s", ErrUnexpectedContent, ct)
	}

	var twist Msg
	if err := json.Unmarshal(ottMsg.PayloadBytes(), &twist); err != nil {
		return Envelope{}, fmt.Errorf("failed to unmarshal twist payload: %w", err)
	}

	return Envelope{
		Topic:       string(ottMsg.Ott()),
		TimestampNs: ottMsg.TimestampNs(),
		Version:     ottMsg.Version(),
		Twist:       twist,
	}, nil
}
