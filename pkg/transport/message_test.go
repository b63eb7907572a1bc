package transport

import (
	"io"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageRoundTrip(t *testing.T) {
	msgs := []*Message{
		{Type: MsgHello, ID: "node-a"},
		{Type: MsgWelcome, ID: "2b0f7c1e"},
		{Type: MsgTune, Page: 0, Channel: 15},
		{Type: MsgFrame, Seq: 7, Page: 2, Channel: 1, Data: []byte{0x41, 0x88, 0x01}, LQI: 0xff},
		{Type: MsgTxDone, Seq: 7, Status: StatusNoAck},
		{Type: MsgSetParam, Seq: 3, Param: ParamTxPower, Value: -1200},
		{Type: MsgResponse, Seq: 3, Status: StatusError, Error: "boom"},
	}
	for _, m := range msgs {
		t.Run(m.Type.String(), func(t *testing.T) {
			data, err := EncodeMessage(m)
			require.NoError(t, err)
			got, err := DecodeMessage(data)
			require.NoError(t, err)
			assert.Equal(t, m, got)
		})
	}
}

func TestMessageValidate(t *testing.T) {
	bad := []*Message{
		{Type: 0},
		{Type: 99},
		{Type: MsgWelcome},
		{Type: MsgFrame},
		{Type: MsgSetParam, Param: 0},
	}
	for _, m := range bad {
		_, err := EncodeMessage(m)
		assert.ErrorIs(t, err, ErrInvalidMessage, "type %v", m.Type)
	}
}

func TestStatusErr(t *testing.T) {
	assert.NoError(t, StatusOK.Err("ignored"))
	assert.ErrorIs(t, StatusBusy.Err(""), ErrBusy)
	assert.ErrorIs(t, StatusNoAck.Err("3 retries"), ErrNoAck)
	assert.ErrorIs(t, StatusChannelAccessFailure.Err(""), ErrChannelAccess)
	assert.ErrorIs(t, Status(42).Err("x"), ErrRemote)
	assert.Equal(t, "SET_PARAM", MsgSetParam.String())
	assert.Equal(t, "TX_POWER", ParamTxPower.String())
}

func TestConnExchange(t *testing.T) {
	a, b := net.Pipe()
	ca, cb := NewConn(a), NewConn(b)
	defer cb.Close()

	go func() {
		_ = ca.Send(&Message{Type: MsgPing, Seq: ca.NextSeq()})
	}()
	m, err := cb.Receive()
	require.NoError(t, err)
	assert.Equal(t, MsgPing, m.Type)
	assert.Equal(t, uint32(1), m.Seq)

	require.NoError(t, ca.Close())
	require.NoError(t, ca.Close())
	assert.ErrorIs(t, ca.Send(&Message{Type: MsgPing}), ErrConnClosed)

	_, err = cb.Receive()
	assert.ErrorIs(t, err, io.EOF)
}
