package hax

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/RelayHax/internal/photon"
)

func room(kv ...string) photon.Hashtable {
	h := photon.Hashtable{{Key: photon.RoomPropMaxPlayers, Value: byte(12)}}
	for i := 0; i+1 < len(kv); i += 2 {
		h = append(h, photon.Entry{Key: kv[i], Value: kv[i+1]})
	}
	return h
}

func listing(rooms ...any) photon.RoomInfoList {
	var games photon.Hashtable
	for i := 0; i+1 < len(rooms); i += 2 {
		games = append(games, photon.Entry{Key: rooms[i], Value: rooms[i+1]})
	}
	return photon.RoomInfoList{Games: games}
}

func roomAt(t *testing.T, l photon.RoomInfoList, name string) photon.RoomInfo {
	t.Helper()
	v, ok := l.Games.Get(name)
	require.True(t, ok, "room %q missing", name)
	r, err := photon.RoomInfoFromValue(v)
	require.NoError(t, err)
	return r
}

func prop(t *testing.T, r photon.RoomInfo, key string) string {
	t.Helper()
	v, ok := r.CustomString(key)
	require.True(t, ok, "property %q missing", key)
	return v
}

func withVersion(v string, t Toggles) Flags {
	return Flags{Toggles: t, GameVersion: v, HasGameVersion: v != ""}
}

func TestRewriteAllTogglesOff(t *testing.T) {
	t.Parallel()

	in := listing("r1", room(PropRoomName, "a", PropPassword, "secret", PropStoreID, StoreMobile, PropGameVersion, "1.0"))
	out, changed := NewLobbyEngine(zerolog.Nop()).Rewrite(in, withVersion("1.89.0", Toggles{}))
	assert.False(t, changed)
	assert.Equal(t, in, out)
}

func TestRewriteNeverTouchesOtherGame(t *testing.T) {
	t.Parallel()

	e := NewLobbyEngine(zerolog.Nop())
	for mask := 0; mask < 8; mask++ {
		toggles := Toggles{
			StripPasswords:    mask&1 != 0,
			ShowMobileGames:   mask&2 != 0,
			ShowOtherVersions: mask&4 != 0,
		}
		in := listing("other", room(
			PropOtherGameVer, OtherGamePrefix+"2.0",
			PropRoomName, "x",
			PropPassword, "pw",
			PropStoreID, StoreMobile,
			PropGameVersion, "0.1",
		))
		_, changed := e.Rewrite(in, withVersion("1.89.0", toggles))
		assert.False(t, changed, "toggles %+v", toggles)
	}
}

func TestRewriteExemptionKeyIsCaseSensitive(t *testing.T) {
	t.Parallel()

	// "gameVersion" with this prefix is an ordinary room of our own title.
	in := listing("r1", room(PropRoomName, "a", PropGameVersion, OtherGamePrefix+"1"))
	out, changed := NewLobbyEngine(zerolog.Nop()).Rewrite(in, withVersion("1.89.0", Toggles{ShowOtherVersions: true}))
	require.True(t, changed)
	assert.Equal(t, "1.89.0", prop(t, roomAt(t, out, "r1"), PropGameVersion))
}

func TestRewriteStripPassword(t *testing.T) {
	t.Parallel()

	in := listing("r1", room(PropRoomName, "dust", PropPassword, "secret"))
	out, changed := NewLobbyEngine(zerolog.Nop()).Rewrite(in, withVersion("", Toggles{StripPasswords: true}))
	require.True(t, changed)

	r := roomAt(t, out, "r1")
	assert.Equal(t, "", prop(t, r, PropPassword))
	assert.Equal(t, "[p] dust", prop(t, r, PropRoomName))

	// input listing untouched
	assert.Equal(t, "secret", prop(t, roomAt(t, in, "r1"), PropPassword))
}

func TestRewritePlatform(t *testing.T) {
	t.Parallel()

	in := listing(
		"mobile", room(PropRoomName, "m", PropStoreID, StoreMobile),
		"steam", room(PropRoomName, "s", PropStoreID, "STEAM"),
		"web", room(PropRoomName, "w", PropStoreID, StoreWeb),
	)
	out, changed := NewLobbyEngine(zerolog.Nop()).Rewrite(in, withVersion("", Toggles{ShowMobileGames: true}))
	require.True(t, changed)

	cases := map[string]string{"mobile": "[M] m", "steam": "[STEAM] s", "web": "w"}
	for name, want := range cases {
		r := roomAt(t, out, name)
		assert.Equal(t, StoreWeb, prop(t, r, PropStoreID), name)
		assert.Equal(t, want, prop(t, r, PropRoomName), name)
	}
}

func TestRewriteVersion(t *testing.T) {
	t.Parallel()

	in := listing(
		"old", room(PropRoomName, "o", PropGameVersion, "1.80.0"),
		"same", room(PropRoomName, "s", PropGameVersion, "1.89.0"),
	)
	out, changed := NewLobbyEngine(zerolog.Nop()).Rewrite(in, withVersion("1.89.0_1.99", Toggles{ShowOtherVersions: true}))
	require.True(t, changed)

	old := roomAt(t, out, "old")
	assert.Equal(t, "1.89.0", prop(t, old, PropGameVersion))
	assert.Equal(t, "[1.80.0] o", prop(t, old, PropRoomName))

	same := roomAt(t, out, "same")
	assert.Equal(t, "s", prop(t, same, PropRoomName))
}

func TestRewriteVersionUnknownWarnsAndContinues(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	e := NewLobbyEngine(zerolog.New(&buf))
	in := listing(
		"r1", room(PropRoomName, "a", PropGameVersion, "1.80.0"),
		"r2", room(PropRoomName, "b", PropGameVersion, "1.80.0", PropPassword, "pw"),
	)
	out, changed := e.Rewrite(in, Flags{Toggles: Toggles{ShowOtherVersions: true, StripPasswords: true}})
	require.True(t, changed)

	r1 := roomAt(t, out, "r1")
	assert.Equal(t, "a", prop(t, r1, PropRoomName))
	assert.Equal(t, "1.80.0", prop(t, r1, PropGameVersion))

	r2 := roomAt(t, out, "r2")
	assert.Equal(t, "[p] b", prop(t, r2, PropRoomName))
	assert.Equal(t, "1.80.0", prop(t, r2, PropGameVersion))

	assert.Contains(t, buf.String(), `"level":"warn"`)
	assert.Contains(t, buf.String(), "game version not known")
}

func TestRewritePrefixOrder(t *testing.T) {
	t.Parallel()

	in := listing("r1", room(PropRoomName, "n", PropStoreID, StoreMobile, PropGameVersion, "1.80.0", PropPassword, "pw"))
	out, changed := NewLobbyEngine(zerolog.Nop()).Rewrite(in, withVersion("1.89.0", Toggles{
		StripPasswords:    true,
		ShowMobileGames:   true,
		ShowOtherVersions: true,
	}))
	require.True(t, changed)
	assert.Equal(t, "[p] [1.80.0] [M] n", prop(t, roomAt(t, out, "r1"), PropRoomName))
}

func TestRewriteNothingToDo(t *testing.T) {
	t.Parallel()

	in := listing(
		"r1", room(PropRoomName, "a", PropStoreID, StoreWeb, PropGameVersion, "1.89.0", PropPassword, ""),
		"removed", photon.Hashtable{{Key: photon.RoomPropRemoved, Value: true}},
		byte(3), "not a room",
	)
	_, changed := NewLobbyEngine(zerolog.Nop()).Rewrite(in, withVersion("1.89.0", Toggles{
		StripPasswords:    true,
		ShowMobileGames:   true,
		ShowOtherVersions: true,
	}))
	assert.False(t, changed)
}

func TestRewriteKeepsRoomOrder(t *testing.T) {
	t.Parallel()

	in := listing(
		"a", room(PropRoomName, "a"),
		"b", room(PropRoomName, "b", PropPassword, "pw"),
		"c", room(PropRoomName, "c"),
	)
	out, changed := NewLobbyEngine(zerolog.Nop()).Rewrite(in, withVersion("", Toggles{StripPasswords: true}))
	require.True(t, changed)
	require.Len(t, out.Games, 3)
	for i, name := range []string{"a", "b", "c"} {
		assert.Equal(t, name, out.Games[i].Key)
	}
	assert.Equal(t, in.Games[0], out.Games[0])
}
