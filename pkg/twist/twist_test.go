package twist

import (
	"encoding/json"
	"testing"

	"github.com/golang/geo/r3"
	flatbuffers "github.com/google/flatbuffers/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-teleop/keyboard-teleop/domain/teleop"
	message "github.com/open-teleop/keyboard-teleop/pkg/flatbuffers/open_teleop/message"
)

func TestTwistJSONLayout(t *testing.T) {
	cmd := teleop.VelocityCommand{Linear: r3.Vector{X: 0.5}, Angular: r3.Vector{Z: -1}}

	data, err := json.Marshal(FromCommand(cmd))
	require.NoError(t, err)
	assert.JSONEq(t, `{"linear":{"x":0.5,"y":0,"z":0},"angular":{"x":0,"y":0,"z":-1}}`, string(data))
}

func TestEnvelopeCarriesCommand(t *testing.T) {
	cmd := teleop.VelocityCommand{Linear: r3.Vector{X: -0.55}, Angular: r3.Vector{Z: 1.1}}

	data, err := EncodeOttMessage("cmd_vel", cmd, 1234567890)
	require.NoError(t, err)

	env, err := DecodeOttMessage(data)
	require.NoError(t, err)
	assert.Equal(t, "cmd_vel", env.Topic)
	assert.Equal(t, int64(1234567890), env.TimestampNs)
	assert.Equal(t, byte(EnvelopeVersion), env.Version)
	assert.Equal(t, cmd, env.Twist.Command())
}

func TestDecodeRejectsOtherContent(t *testing.T) {
	builder := flatbuffers.NewBuilder(64)
	topic := builder.CreateString("teleop.sensor.battery")
	message.OttMessageStart(builder)
	message.OttMessageAddOtt(builder, topic)
	message.OttMessageAddContentType(builder, message.ContentTypeROS2_MESSAGE)
	builder.Finish(message.OttMessageEnd(builder))

	_, err := DecodeOttMessage(builder.FinishedBytes())
	assert.ErrorIs(t, err, ErrUnexpectedContent)
}

func TestDecodeShortBuffer(t *testing.T) {
	_, err := DecodeOttMessage([]byte{1, 2})
	assert.Error(t, err)
}
