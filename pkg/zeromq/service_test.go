package zeromq

import (
	"io"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang/geo/r3"
	"github.com/pebbe/zmq4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-teleop/keyboard-teleop/domain/teleop"
	customlog "github.com/open-teleop/keyboard-teleop/pkg/log"
	"github.com/open-teleop/keyboard-teleop/pkg/twist"
)

func newTestPublisher(t *testing.T, clk clock.Clock) *VelocityPublisher {
	t.Helper()
	pub, err := NewVelocityPublisher(Options{
		BindAddress: "tcp://127.0.0.1:*",
		Topic:       "cmd_vel",
		SendHWM:     1,
	}, clk, customlog.NewWriterLogger("error", io.Discard))
	require.NoError(t, err)
	t.Cleanup(func() { pub.Close() })
	return pub
}

// TestPublishReachesSubscriber keeps publishing until the subscriber has
// joined, since PUB drops messages sent before the subscription lands.
func TestPublishReachesSubscriber(t *testing.T) {
	clk := clock.NewMock()
	clk.Set(time.Unix(1700000000, 42))
	pub := newTestPublisher(t, clk)

	endpoint, err := pub.Endpoint()
	require.NoError(t, err)

	sub, err := zmq4.NewSocket(zmq4.SUB)
	require.NoError(t, err)
	defer sub.Close()
	require.NoError(t, sub.SetLinger(0))
	require.NoError(t, sub.SetSubscribe("cmd_vel"))
	require.NoError(t, sub.SetRcvtimeo(50*time.Millisecond))
	require.NoError(t, sub.Connect(endpoint))

	cmd := teleop.VelocityCommand{Linear: r3.Vector{X: 0.5}, Angular: r3.Vector{Z: 1}}

	var frames [][]byte
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		require.NoError(t, pub.Publish(cmd))
		frames, err = sub.RecvMessageBytes(0)
		if err == nil {
			break
		}
	}
	require.NoError(t, err, "subscriber never received a command")
	require.Len(t, frames, 2)
	assert.Equal(t, "cmd_vel", string(frames[0]))

	env, err := twist.DecodeOttMessage(frames[1])
	require.NoError(t, err)
	assert.Equal(t, "cmd_vel", env.Topic)
	assert.Equal(t, clk.Now().UnixNano(), env.TimestampNs)
	assert.Equal(t, cmd, env.Twist.Command())
	assert.GreaterOrEqual(t, pub.Sent(), uint64(1))
}

func TestPublishAfterClose(t *testing.T) {
	pub := newTestPublisher(t, nil)
	require.NoError(t, pub.Close())
	require.NoError(t, pub.Close())

	err := pub.Publish(teleop.VelocityCommand{})
	assert.ErrorIs(t, err, ErrServiceClosed)
	assert.ErrorIs(t, err, teleop.ErrPublisherClosed)

	_, err = pub.Endpoint()
	assert.ErrorIs(t, err, ErrServiceClosed)
}

func TestEmptyTopicRejected(t *testing.T) {
	_, err := NewVelocityPublisher(Options{BindAddress: "inproc://none"}, nil,
		customlog.NewWriterLogger("error", io.Discard))
	assert.Error(t, err)
}
