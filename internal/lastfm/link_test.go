package lastfm

import "testing"

func TestAuthURL(t *testing.T) {
	l := NewLinker("abc123", "secret")
	got := l.AuthURL("tok-456")
	want := "https://www.last.fm/api/auth/?api_key=abc123&token=tok-456"
	if got != want {
		t.Fatalf("AuthURL = %q, want %q", got, want)
	}
}
