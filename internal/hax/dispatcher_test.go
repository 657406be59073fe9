package hax

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/RelayHax/internal/photon"
)

func encode(t *testing.T, msg photon.Message) []byte {
	t.Helper()
	b, err := photon.Encode(msg)
	require.NoError(t, err)
	return b
}

func gameListFrame(t *testing.T, rooms photon.Hashtable) []byte {
	t.Helper()
	return encode(t, &photon.EventData{
		EventCode: photon.EvGameList,
		Params: photon.Parameters{
			{Code: photon.ParamGameList, Value: rooms},
			{Code: 1, Value: int32(5)},
		},
	})
}

func authFrame(t *testing.T, version string) []byte {
	t.Helper()
	return encode(t, &photon.OperationRequest{
		OpCode: photon.OpAuthenticate,
		Params: photon.Parameters{
			{Code: photon.ParamAppVersion, Value: version},
			{Code: photon.ParamUserID, Value: "user-1"},
		},
	})
}

func newDispatcher(ch Channel, t Toggles) *Dispatcher {
	return NewDispatcher(ch, NewSession(t), Options{Log: zerolog.Nop(), Trace: zerolog.Nop()})
}

func TestHandleCorruptFrameForwards(t *testing.T) {
	t.Parallel()

	full := gameListFrame(t, photon.Hashtable{{Key: "r1", Value: room(PropPassword, "pw")}})
	frames := [][]byte{nil, {0x01, 0x02}, full[:len(full)-4], {photon.Magic, 4, 1, 0, 1, 1, 'Q'}}

	for _, ch := range []Channel{LobbyChannel, GameChannel} {
		d := newDispatcher(ch, Toggles{StripPasswords: true, ShowMobileGames: true})
		for _, f := range frames {
			v, err := d.Handle(f, ToClient)
			require.NoError(t, err)
			assert.Equal(t, Verdict{Action: Forward}, v)
		}
	}
}

func TestHandleAllTogglesOffForwardsOriginal(t *testing.T) {
	t.Parallel()

	d := newDispatcher(LobbyChannel, Toggles{})
	frame := gameListFrame(t, photon.Hashtable{
		{Key: "r1", Value: room(PropRoomName, "a", PropPassword, "pw", PropStoreID, StoreMobile)},
	})
	v, err := d.Handle(frame, ToClient)
	require.NoError(t, err)
	assert.Equal(t, Forward, v.Action)
	assert.Nil(t, v.Data)
}

func TestHandleStripPasswordReplaces(t *testing.T) {
	t.Parallel()

	d := newDispatcher(LobbyChannel, Toggles{StripPasswords: true})
	frame := gameListFrame(t, photon.Hashtable{
		{Key: "r1", Value: room(PropRoomName, "dust", PropPassword, "secret")},
	})
	v, err := d.Handle(frame, ToClient)
	require.NoError(t, err)
	require.Equal(t, Replace, v.Action)

	msg, err := photon.Decode(v.Data)
	require.NoError(t, err)
	ev, ok := msg.(*photon.EventData)
	require.True(t, ok)
	assert.Equal(t, photon.EvGameList, ev.EventCode)
	assert.Len(t, ev.Params, 2)

	list, err := photon.RoomInfoListFromParameters(ev.Params)
	require.NoError(t, err)
	r := roomAt(t, list, "r1")
	assert.Equal(t, "[p] dust", prop(t, r, PropRoomName))
	assert.Equal(t, "", prop(t, r, PropPassword))
}

func TestHandleAuthenticateThenPinVersion(t *testing.T) {
	t.Parallel()

	d := newDispatcher(LobbyChannel, Toggles{ShowOtherVersions: true})
	frame := gameListFrame(t, photon.Hashtable{
		{Key: "r1", Value: room(PropRoomName, "a", PropGameVersion, "1.80.0")},
	})

	// version unknown: nothing to do
	v, err := d.Handle(frame, ToClient)
	require.NoError(t, err)
	assert.Equal(t, Forward, v.Action)

	auth := authFrame(t, "1.89.0_1.99")
	v, err = d.Handle(auth, ToServer)
	require.NoError(t, err)
	assert.Equal(t, Forward, v.Action)
	version, ok := d.Session().GameVersion()
	require.True(t, ok)
	assert.Equal(t, "1.89.0_1.99", version)

	v, err = d.Handle(frame, ToClient)
	require.NoError(t, err)
	require.Equal(t, Replace, v.Action)
	msg, err := photon.Decode(v.Data)
	require.NoError(t, err)
	list, err := photon.RoomInfoListFromParameters(msg.(*photon.EventData).Params)
	require.NoError(t, err)
	r := roomAt(t, list, "r1")
	assert.Equal(t, "1.89.0", prop(t, r, PropGameVersion))
	assert.Equal(t, "[1.80.0] a", prop(t, r, PropRoomName))
}

func TestHandleGameChannelNeverRewrites(t *testing.T) {
	t.Parallel()

	d := newDispatcher(GameChannel, Toggles{StripPasswords: true})
	frame := gameListFrame(t, photon.Hashtable{{Key: "r1", Value: room(PropRoomName, "a", PropPassword, "pw")}})
	v, err := d.Handle(frame, ToClient)
	require.NoError(t, err)
	assert.Equal(t, Forward, v.Action)

	resp := encode(t, joinResponse(3, photon.Hashtable{{Key: int32(3), Value: actorProps("me", "u")}}))
	v, err = d.Handle(resp, ToClient)
	require.NoError(t, err)
	assert.Equal(t, Forward, v.Action)
	id, ok := d.Session().PlayerID()
	require.True(t, ok)
	assert.Equal(t, int32(3), id)
}

func TestHandleRecoverableHookErrorForwards(t *testing.T) {
	t.Parallel()

	d := newDispatcher(LobbyChannel, Toggles{StripPasswords: true})
	// game list event without the list parameter
	frame := encode(t, &photon.EventData{EventCode: photon.EvGameList})
	v, err := d.Handle(frame, ToClient)
	require.NoError(t, err)
	assert.Equal(t, Forward, v.Action)
}

func TestHandleClosedSession(t *testing.T) {
	t.Parallel()

	d := newDispatcher(LobbyChannel, Toggles{StripPasswords: true})
	d.Session().Close()

	v, err := d.Handle(authFrame(t, "1.0"), ToServer)
	assert.ErrorIs(t, err, ErrSessionUnavailable)
	assert.Equal(t, Forward, v.Action)

	// frames not touching the session are unaffected
	v, err = d.Handle(encode(t, &photon.EventData{EventCode: 7}), ToClient)
	require.NoError(t, err)
	assert.Equal(t, Forward, v.Action)
}

func TestHandleTraceTierIsSeparate(t *testing.T) {
	t.Parallel()

	var summary, trace bytes.Buffer
	d := NewDispatcher(LobbyChannel, NewSession(Toggles{}), Options{
		Log:   zerolog.New(&summary),
		Trace: zerolog.New(&trace).Level(zerolog.TraceLevel),
	})
	_, err := d.Handle(authFrame(t, "1.89.0"), ToServer)
	require.NoError(t, err)

	assert.Contains(t, summary.String(), `"name":"OperationRequest"`)
	assert.NotContains(t, summary.String(), "user-1")
	assert.Contains(t, trace.String(), "user-1")
}
