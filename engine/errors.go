package engine

import "errors"

var (
	ErrNotInRoom        = errors.New("not in a room")
	ErrNotHost          = errors.New("only the host can do that")
	ErrNotInLobby       = errors.New("game already started")
	ErrNotEnoughPlayers = errors.New("need at least 2 connected players")
	ErrNoMusicAuth      = errors.New("host has not connected a music account")
	ErrNoPlaylist       = errors.New("no playlist loaded")
	ErrNotPlaying       = errors.New("no round in progress")
	ErrEliminated       = errors.New("eliminated players cannot submit")
)
