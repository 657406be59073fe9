package hax

import (
	"strings"

	"github.com/rs/zerolog"

	"github.com/dkeye/RelayHax/internal/photon"
)

// Custom room properties used by the lobby rules. Keys are case sensitive: the
// lower-case "gameversion" belongs to another title sharing the relay.
const (
	PropRoomName     = "roomName"
	PropStoreID      = "storeID"
	PropGameVersion  = "gameVersion"
	PropPassword     = "password"
	PropOtherGameVer = "gameversion"
	OtherGamePrefix  = "newfps-"
	StoreWeb         = "BALYZE_WEB"
	StoreMobile      = "BALYZE_MOBILE"
	mobileNamePrefix = "[M] "
	passwordPrefix   = "[p] "
	versionSeparator = "_"
)

// LobbyEngine rewrites room listings. Rewrite is not idempotent (name prefixes
// stack) so it must run at most once per listing.
type LobbyEngine struct {
	log zerolog.Logger
}

func NewLobbyEngine(log zerolog.Logger) *LobbyEngine {
	return &LobbyEngine{log: log.With().Str("module", "hax.lobby").Logger()}
}

// Rewrite returns a new listing and true if at least one room was altered.
// The input listing is never modified.
func (e *LobbyEngine) Rewrite(list photon.RoomInfoList, flags Flags) (photon.RoomInfoList, bool) {
	if !flags.StripPasswords && !flags.ShowMobileGames && !flags.ShowOtherVersions {
		return list, false
	}

	var out photon.Hashtable
	changed := false
	for i, entry := range list.Games {
		name, isName := entry.Key.(string)
		room, err := photon.RoomInfoFromValue(entry.Value)
		if !isName || err != nil {
			continue
		}
		next, altered := e.rewriteRoom(name, room, flags)
		if !altered {
			continue
		}
		if out == nil {
			out = list.Games.Clone()
		}
		out[i] = photon.Entry{Key: entry.Key, Value: next.Props}
		changed = true
	}
	if !changed {
		return list, false
	}
	return photon.RoomInfoList{Games: out}, true
}

// rewriteRoom applies the rules in order: platform, version, password.
func (e *LobbyEngine) rewriteRoom(name string, room photon.RoomInfo, flags Flags) (photon.RoomInfo, bool) {
	if isOtherGame(room) {
		return room, false
	}

	altered := false
	apply := func(next photon.RoomInfo, ok bool) {
		if ok {
			room, altered = next, true
		}
	}

	if flags.ShowMobileGames {
		apply(maskPlatform(room))
	}
	if flags.ShowOtherVersions {
		if flags.HasGameVersion {
			apply(pinVersion(room, localVersion(flags.GameVersion)))
		} else {
			e.log.Warn().Str("room", name).Msg("game version not known yet, cannot adjust room version")
		}
	}
	if flags.StripPasswords {
		apply(stripPassword(room))
	}
	return room, altered
}

func isOtherGame(room photon.RoomInfo) bool {
	v, ok := room.CustomString(PropOtherGameVer)
	return ok && strings.HasPrefix(v, OtherGamePrefix)
}

// localVersion drops the build suffix of versions like "1.89.0_1.99".
func localVersion(v string) string {
	before, _, _ := strings.Cut(v, versionSeparator)
	return before
}

func withNamePrefix(room photon.RoomInfo, prefix string) photon.RoomInfo {
	name, ok := room.CustomString(PropRoomName)
	if !ok {
		return room
	}
	return room.WithCustomString(PropRoomName, prefix+name)
}

// maskPlatform makes rooms from other stores show up in the web client.
func maskPlatform(room photon.RoomInfo) (photon.RoomInfo, bool) {
	store, ok := room.CustomString(PropStoreID)
	if !ok || store == StoreWeb {
		return room, false
	}
	prefix := "[" + store + "] "
	if store == StoreMobile {
		prefix = mobileNamePrefix
	}
	room = withNamePrefix(room, prefix)
	return room.WithCustomString(PropStoreID, StoreWeb), true
}

func pinVersion(room photon.RoomInfo, local string) (photon.RoomInfo, bool) {
	actual, ok := room.CustomString(PropGameVersion)
	if !ok || actual == local {
		return room, false
	}
	room = withNamePrefix(room, "["+actual+"] ")
	return room.WithCustomString(PropGameVersion, local), true
}

func stripPassword(room photon.RoomInfo) (photon.RoomInfo, bool) {
	pw, ok := room.CustomString(PropPassword)
	if !ok || pw == "" {
		return room, false
	}
	room = withNamePrefix(room, passwordPrefix)
	return room.WithCustomString(PropPassword, ""), true
}
