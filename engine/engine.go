package engine

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/alessisheinman/Disk-Jockey/match"
	"github.com/alessisheinman/Disk-Jockey/room"
	"github.com/samber/lo"
)

var (
	gameStartDelay       = 5 * time.Second
	postEliminationDelay = 3 * time.Second
	fetchTimeout         = 15 * time.Second
)

// Engine drives every room's rounds: countdown, track fetch, submissions,
// reveal, elimination, game over. All room state transitions happen under
// the room lock; Spotify calls never do.
type Engine struct {
	registry *room.Registry
	gateway  Gateway
	sender   Sender

	mu     sync.Mutex
	timers map[string]*roomTimers
}

func New(registry *room.Registry, gateway Gateway, sender Sender) *Engine {
	return &Engine{
		registry: registry,
		gateway:  gateway,
		sender:   sender,
		timers:   make(map[string]*roomTimers),
	}
}

// StartGame begins the countdown. The caller must already be authorized
// as the room's host.
func (e *Engine) StartGame(code string) error {
	r, ok := e.registry.GetRoom(code)
	if !ok {
		return ErrNotInRoom
	}

	r.Lock()
	if r.Game.Status != room.StatusLobby {
		r.Unlock()
		return ErrNotInLobby
	}
	if r.ConnectedCount() < 2 {
		r.Unlock()
		return ErrNotEnoughPlayers
	}
	if r.MusicAuth == nil {
		r.Unlock()
		return ErrNoMusicAuth
	}
	if r.Playlist == nil {
		r.Unlock()
		return ErrNoPlaylist
	}

	for _, p := range r.PlayersInOrder() {
		resetPlayer(p)
	}
	r.UsedTrackIDs = make(map[string]bool)
	r.Game = room.GameState{Status: room.StatusStarting}
	r.Unlock()

	e.sender.Broadcast(code, "gameStarting", GameStartingPayload{StartsIn: int(gameStartDelay.Milliseconds())})
	e.armRevealTimer(code, gameStartDelay, func() { e.startNextRound(code) })
	return nil
}

// startNextRound fetches a track and opens a new guessing round. It is
// invoked by the countdown, the reveal timer, elimination scheduling, and
// resume. The Spotify round-trip happens with the room lock released; the
// result is discarded if the room moved on in the meantime.
func (e *Engine) startNextRound(code string) {
	r, ok := e.registry.GetRoom(code)
	if !ok {
		return
	}

	r.Lock()
	if r.Game.IsPaused {
		r.Unlock()
		return
	}
	switch r.Game.Status {
	case room.StatusLobby, room.StatusGameOver:
		r.Unlock()
		return
	}

	active := activePlayers(r)
	if len(active) <= 1 {
		winnerID := ""
		if len(active) == 1 {
			winnerID = active[0].ID
		}
		r.Unlock()
		e.EndGame(code, winnerID)
		return
	}

	auth := *r.MusicAuth
	playlist := *r.Playlist
	used := make(map[string]bool, len(r.UsedTrackIDs))
	for id := range r.UsedTrackIDs {
		used[id] = true
	}
	roundBefore := r.Game.CurrentRound
	statusBefore := r.Game.Status
	r.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	auth, err := e.gateway.EnsureValidToken(ctx, auth)
	if err != nil {
		log.Printf("room %s: token refresh failed, ending game: %s", code, err)
		e.EndGame(code, "")
		return
	}

	track, err := e.gateway.RandomTrack(ctx, auth, playlist.ID, playlist.TotalTracks, used)
	if err != nil {
		log.Printf("room %s: track fetch failed, ending game: %s", code, err)
		e.EndGame(code, "")
		return
	}
	clearedUsed := false
	if track == nil {
		// No unused track found (all played, or every probe missed); retry
		// once on the same playlist with a cleared used-set.
		clearedUsed = true
		track, err = e.gateway.RandomTrack(ctx, auth, playlist.ID, playlist.TotalTracks, map[string]bool{})
		if err != nil {
			log.Printf("room %s: track fetch failed, ending game: %s", code, err)
			e.EndGame(code, "")
			return
		}
	}
	if track == nil {
		log.Printf("room %s: playlist exhausted, ending game", code)
		e.EndGame(code, "")
		return
	}

	r.Lock()
	if r.Game.IsPaused || r.Game.Status != statusBefore || r.Game.CurrentRound != roundBefore {
		// The room changed while we were talking to Spotify.
		r.Unlock()
		return
	}

	r.MusicAuth = &auth
	if clearedUsed {
		r.UsedTrackIDs = make(map[string]bool)
	}
	r.UsedTrackIDs[track.ID] = true

	for _, p := range r.PlayersInOrder() {
		p.HasSubmitted = false
		p.CurrentAnswer = nil
		p.LastResult = nil
	}

	r.Game.CurrentRound++
	r.Game.Status = room.StatusPlaying
	r.Game.CurrentTrack = track

	now := time.Now()
	roundDuration := time.Duration(r.Settings.RoundDurationMs) * time.Millisecond
	r.Game.RoundStartTime = now.UnixMilli()
	r.Game.RoundEndTime = now.Add(roundDuration).UnixMilli()

	roundNumber := r.Game.CurrentRound
	durationMs := r.Settings.RoundDurationMs
	hostConn := ""
	if host := r.Player(r.HostID); host != nil {
		hostConn = host.ConnectionID
	}
	r.Unlock()

	e.sender.Broadcast(code, "roundStarted", RoundStartedPayload{
		RoundNumber: roundNumber,
		DurationMs:  durationMs,
		TrackURI:    track.URI,
	})
	if hostConn != "" {
		positionMs := 0
		e.sender.SendToConnection(hostConn, "playbackCommand", PlaybackCommandPayload{
			Command:    "play",
			TrackURI:   track.URI,
			PositionMs: &positionMs,
		})
	}

	e.armRoundTimer(code, roundDuration, func() { e.endRound(code, roundNumber) })
}

// SubmitAnswer records a guess. When the last active player submits, the
// round ends immediately.
func (e *Engine) SubmitAnswer(connectionID, songTitle, artist string) error {
	r, player, ok := e.registry.GetPlayerByConnection(connectionID)
	if !ok {
		return ErrNotInRoom
	}

	r.Lock()
	if player.IsEliminated {
		r.Unlock()
		return ErrEliminated
	}
	if r.Game.Status != room.StatusPlaying || r.Game.IsPaused {
		r.Unlock()
		return ErrNotPlaying
	}

	player.CurrentAnswer = &room.Answer{
		SongTitle:   songTitle,
		Artist:      artist,
		SubmittedAt: time.Now(),
	}
	player.HasSubmitted = true

	roundNumber := r.Game.CurrentRound
	allSubmitted := lo.EveryBy(activePlayers(r), func(p *room.Player) bool {
		return p.HasSubmitted
	})
	payload := PlayerSubmittedPayload{PlayerID: player.ID, Nickname: player.Nickname}
	r.Unlock()

	e.sender.Broadcast(r.Code, "playerSubmitted", payload)

	if allSubmitted {
		e.cancelRoundTimer(r.Code)
		e.endRound(r.Code, roundNumber)
	}
	return nil
}

// endRound scores the round and broadcasts the reveal. Reached from the
// round timer or from the last submission; the status check makes the two
// paths race-safe.
func (e *Engine) endRound(code string, roundNumber int) {
	r, ok := e.registry.GetRoom(code)
	if !ok {
		return
	}

	r.Lock()
	if r.Game.Status != room.StatusPlaying || r.Game.CurrentRound != roundNumber || r.Game.IsPaused {
		r.Unlock()
		return
	}

	r.Game.Status = room.StatusRoundReveal
	track := r.Game.CurrentTrack

	results := make([]RoundResult, 0, r.PlayerCount())
	for _, p := range r.PlayersInOrder() {
		if p.IsEliminated {
			continue
		}

		res := RoundResult{
			PlayerID:  p.ID,
			Nickname:  p.Nickname,
			Submitted: p.HasSubmitted,
		}
		if p.HasSubmitted && p.CurrentAnswer != nil {
			score := match.ScoreAnswer(p.CurrentAnswer.SongTitle, p.CurrentAnswer.Artist,
				track.Name, track.ArtistNames())
			p.LastResult = &score
			res.Result = score.Result
			res.SongCorrect = &score.SongCorrect
			res.ArtistCorrect = &score.ArtistCorrect
			res.Answer = p.CurrentAnswer
		} else {
			p.LastResult = &match.Score{Result: match.ResultNone}
			res.Result = match.ResultNone
		}

		p.Pace = match.ClampPace(p.Pace + match.PaceDelta(res.Result))
		res.Pace = p.Pace
		results = append(results, res)
	}

	revealDuration := time.Duration(r.Settings.RevealDurationMs) * time.Millisecond
	isEliminationRound := roundNumber%6 == 0
	hostConn := ""
	if host := r.Player(r.HostID); host != nil {
		hostConn = host.ConnectionID
	}
	r.Unlock()

	if hostConn != "" {
		e.sender.SendToConnection(hostConn, "playbackCommand", PlaybackCommandPayload{Command: "stop"})
	}
	e.sender.Broadcast(code, "roundEnded", RoundEndedPayload{
		Track:       track,
		Results:     results,
		NextRoundIn: int(revealDuration.Milliseconds()),
	})

	if isEliminationRound {
		e.armRevealTimer(code, revealDuration, func() { e.checkEliminations(code, roundNumber) })
	} else {
		e.armRevealTimer(code, revealDuration, func() { e.startNextRound(code) })
	}
}

// checkEliminations removes players whose pace lags the leader by at
// least the round's threshold, then schedules either the next round or
// the game end.
func (e *Engine) checkEliminations(code string, roundNumber int) {
	r, ok := e.registry.GetRoom(code)
	if !ok {
		return
	}

	r.Lock()
	if r.Game.Status != room.StatusRoundReveal || r.Game.CurrentRound != roundNumber || r.Game.IsPaused {
		r.Unlock()
		return
	}
	r.Game.Status = room.StatusEliminationCheck

	threshold := match.EliminationThreshold(roundNumber)
	alive := lo.Filter(r.PlayersInOrder(), func(p *room.Player, _ int) bool {
		return !p.IsEliminated
	})

	leaderPace := 0
	for _, p := range alive {
		if p.Pace > leaderPace {
			leaderPace = p.Pace
		}
	}

	var eliminated, survivors []PlayerStanding
	for _, p := range alive {
		standing := PlayerStanding{PlayerID: p.ID, Nickname: p.Nickname, Pace: p.Pace}
		if leaderPace-p.Pace >= threshold {
			p.IsEliminated = true
			p.EliminatedRound = roundNumber
			eliminated = append(eliminated, standing)
		} else {
			survivors = append(survivors, standing)
		}
	}

	winnerID := ""
	if len(survivors) == 1 {
		winnerID = survivors[0].PlayerID
	}
	gameEnds := len(survivors) <= 1
	r.Unlock()

	e.sender.Broadcast(code, "eliminationCheck", EliminationCheckPayload{
		Round:      roundNumber,
		Threshold:  threshold,
		LeaderPace: leaderPace,
		Eliminated: eliminated,
		Survivors:  survivors,
	})

	if gameEnds {
		e.armRevealTimer(code, postEliminationDelay, func() { e.EndGame(code, winnerID) })
	} else {
		e.armRevealTimer(code, postEliminationDelay, func() { e.startNextRound(code) })
	}
}

// EndGame closes the game and broadcasts final standings. An empty
// winnerID means nobody won (track exhaustion, a failed token refresh or
// track fetch, or no active player left).
func (e *Engine) EndGame(code, winnerID string) {
	r, ok := e.registry.GetRoom(code)
	if !ok {
		return
	}

	r.Lock()
	if r.Game.Status == room.StatusGameOver || r.Game.Status == room.StatusLobby {
		r.Unlock()
		return
	}
	r.Game.Status = room.StatusGameOver
	r.Game.WinnerID = winnerID

	standings := finalStandings(r, winnerID)
	winnerNickname := ""
	if winner := r.Player(winnerID); winner != nil {
		winnerNickname = winner.Nickname
	}
	hostConn := ""
	if host := r.Player(r.HostID); host != nil {
		hostConn = host.ConnectionID
	}
	r.Unlock()

	e.cancelAllTimers(code)

	if hostConn != "" {
		e.sender.SendToConnection(hostConn, "playbackCommand", PlaybackCommandPayload{Command: "stop"})
	}
	e.sender.Broadcast(code, "gameOver", GameOverPayload{
		WinnerID:       winnerID,
		WinnerNickname: winnerNickname,
		FinalStandings: standings,
	})
}

// RestartGame drops the room back to a fresh lobby. Host-only.
func (e *Engine) RestartGame(connectionID string) error {
	r, player, ok := e.registry.GetPlayerByConnection(connectionID)
	if !ok {
		return ErrNotInRoom
	}
	if !player.IsHost {
		return ErrNotHost
	}

	e.cancelAllTimers(r.Code)

	r.Lock()
	r.Game = room.GameState{Status: room.StatusLobby}
	r.UsedTrackIDs = make(map[string]bool)
	for _, p := range r.PlayersInOrder() {
		resetPlayer(p)
	}
	snapshot := r.SnapshotLocked()
	r.Unlock()

	e.sender.Broadcast(r.Code, "roomUpdated", RoomUpdatedPayload{Room: snapshot})
	return nil
}

// HandleHostPause is called when the host's connection drops during play.
// The running round is abandoned; its timer is cancelled best-effort.
func (e *Engine) HandleHostPause(code, reason string) {
	e.cancelRoundTimer(code)
	e.sender.Broadcast(code, "gamePaused", GamePausedPayload{Reason: reason})
}

// ResumeGame clears the pause set by a host disconnect. The round the
// host dropped out of is forfeited; play picks up at the next round.
func (e *Engine) ResumeGame(code string) {
	r, ok := e.registry.GetRoom(code)
	if !ok {
		return
	}

	r.Lock()
	if !r.Game.IsPaused {
		r.Unlock()
		return
	}
	r.Game.IsPaused = false
	r.Game.PauseReason = ""
	wasPlaying := r.Game.Status == room.StatusPlaying
	r.Unlock()

	e.sender.Broadcast(code, "gameResumed", struct{}{})

	if wasPlaying {
		e.cancelRoundTimer(code)
		e.startNextRound(code)
	}
}

// DropRoom releases engine resources after a room is deleted.
func (e *Engine) DropRoom(code string) {
	e.cancelAllTimers(code)
}

func activePlayers(r *room.Room) []*room.Player {
	return lo.Filter(r.PlayersInOrder(), func(p *room.Player, _ int) bool {
		return p.IsConnected && !p.IsEliminated
	})
}

func resetPlayer(p *room.Player) {
	p.Pace = 10
	p.IsEliminated = false
	p.HasSubmitted = false
	p.CurrentAnswer = nil
	p.LastResult = nil
	p.EliminatedRound = 0
}
