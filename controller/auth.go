package controller

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/alessisheinman/Disk-Jockey/config"
	"github.com/alessisheinman/Disk-Jockey/requests"
	"github.com/alessisheinman/Disk-Jockey/spotify"
)

// oauthState travels through Spotify's state parameter so the callback
// knows which room started the flow.
type oauthState struct {
	RoomCode  string `json:"roomCode"`
	Timestamp int64  `json:"ts"`
}

const stateMaxAge = 10 * time.Minute

// BeginMusicAuth redirects the host's browser to Spotify's consent page.
func (c *Controller) BeginMusicAuth(w http.ResponseWriter, r *http.Request) {
	roomCode := strings.ToUpper(r.URL.Query().Get("roomCode"))
	if roomCode == "" {
		requests.RespondBadRequest(w)
		return
	}

	state, err := encodeState(oauthState{RoomCode: roomCode, Timestamp: time.Now().UnixMilli()})
	if err != nil {
		log.Printf("encode oauth state: %s", err)
		requests.RespondInternalError(w)
		return
	}

	http.Redirect(w, r, c.Gateway.AuthURL(state), http.StatusSeeOther)
}

// MusicAuthCallback completes the code exchange and sends the browser
// back to the room. Tokens ride in the URL fragment, which never reaches
// server logs.
func (c *Controller) MusicAuthCallback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	state, err := decodeState(query.Get("state"))
	if err != nil {
		log.Printf("bad oauth state: %s", err)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("bad state in spotify request"))
		return
	}

	roomURL := fmt.Sprintf("%s/room/%s", config.GetBaseURL(), state.RoomCode)

	if spotifyError := query.Get("error"); spotifyError != "" {
		log.Printf("spotify error: %s", spotifyError)
		http.Redirect(w, r, roomURL+"#error="+url.QueryEscape(spotifyError), http.StatusSeeOther)
		return
	}

	code := query.Get("code")
	if code == "" {
		log.Printf("no code in spotify request")
		http.Redirect(w, r, roomURL+"#error="+url.QueryEscape("No code present in Spotify request"), http.StatusSeeOther)
		return
	}

	auth, err := c.Gateway.Exchange(r.Context(), code)
	if err != nil {
		log.Printf("get spotify token: %s", err)
		http.Redirect(w, r, roomURL+"#error="+url.QueryEscape("Error getting Spotify token"), http.StatusSeeOther)
		return
	}

	fragment := url.Values{}
	fragment.Set("accessToken", auth.AccessToken)
	fragment.Set("refreshToken", auth.RefreshToken)
	fragment.Set("expiresIn", fmt.Sprintf("%d", int(time.Until(auth.Expiry).Seconds())))
	http.Redirect(w, r, roomURL+"#"+fragment.Encode(), http.StatusSeeOther)
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type RefreshResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int    `json:"expiresIn"`
}

// RefreshMusicToken trades a refresh token for a fresh access token pair.
func (c *Controller) RefreshMusicToken(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
		requests.RespondBadRequest(w)
		return
	}

	auth, err := c.Gateway.Refresh(r.Context(), spotify.Auth{RefreshToken: req.RefreshToken})
	if err != nil {
		log.Printf("refresh spotify token: %s", err)
		requests.RespondWithError(w, http.StatusBadGateway, err.Error())
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(RefreshResponse{
		AccessToken:  auth.AccessToken,
		RefreshToken: auth.RefreshToken,
		ExpiresIn:    int(time.Until(auth.Expiry).Seconds()),
	})
}

func encodeState(s oauthState) (string, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(data), nil
}

func decodeState(raw string) (oauthState, error) {
	data, err := base64.URLEncoding.DecodeString(raw)
	if err != nil {
		return oauthState{}, err
	}
	var s oauthState
	if err := json.Unmarshal(data, &s); err != nil {
		return oauthState{}, err
	}
	if s.RoomCode == "" {
		return oauthState{}, fmt.Errorf("state missing room code")
	}
	if age := time.Since(time.UnixMilli(s.Timestamp)); age > stateMaxAge {
		return oauthState{}, fmt.Errorf("state expired (%s old)", age.Round(time.Second))
	}
	return s, nil
}
