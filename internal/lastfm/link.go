// Package lastfm implements the minimal last.fm account-link handshake a
// user's last_fm_link field needs: exchanging an authorized request
// token for a session key. Scrobbling itself lives outside this package;
// it stops at producing a session key a caller can persist on the user
// record.
//
// Wraps the same shkh/lastfm-go library a sibling project's
// internal/lastfm/client.go uses for the same token->session exchange,
// trimmed here to the link-only subset (no scrobbling, no desktop OAuth
// callback server, since this link flow is driven by its own HTTP API
// rather than a local browser callback).
package lastfm

import (
	"fmt"

	"github.com/shkh/lastfm-go/lastfm"

	"github.com/agersant/polaris/internal/apperr"
)

// Linker exchanges last.fm auth tokens for session keys under one
// registered API key/secret pair.
type Linker struct {
	apiKey    string
	apiSecret string
}

// NewLinker builds a Linker over a last.fm API key/secret pair, obtained
// once from last.fm and configured at process start.
func NewLinker(apiKey, apiSecret string) *Linker {
	return &Linker{apiKey: apiKey, apiSecret: apiSecret}
}

// RequestToken asks last.fm for a fresh unauthorized token the caller
// embeds in the authorization URL handed to the user's browser.
func (l *Linker) RequestToken() (string, error) {
	api := lastfm.New(l.apiKey, l.apiSecret)
	token, err := api.GetToken()
	if err != nil {
		return "", apperr.Wrap(apperr.IO, "request last.fm token", err)
	}
	return token, nil
}

// AuthURL returns the URL the user must visit to authorize token.
func (l *Linker) AuthURL(token string) string {
	return fmt.Sprintf("https://www.last.fm/api/auth/?api_key=%s&token=%s", l.apiKey, token)
}

// ExchangeSession trades an authorized token for a durable session key
// and the linked last.fm username.
func (l *Linker) ExchangeSession(token string) (username, sessionKey string, err error) {
	api := lastfm.New(l.apiKey, l.apiSecret)
	if err := api.LoginWithToken(token); err != nil {
		return "", "", apperr.Wrap(apperr.Unauthorized, "exchange last.fm session", err)
	}
	sessionKey = api.GetSessionKey()

	info, err := api.User.GetInfo(nil)
	if err != nil {
		// The session key is valid even if the follow-up lookup fails;
		// callers persist it regardless of whether we can name the user.
		return "", sessionKey, nil
	}
	return info.Name, sessionKey, nil
}
