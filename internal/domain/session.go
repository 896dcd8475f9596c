package domain

// TokenSource exposes the current session token. An empty string means no
// session.
type TokenSource interface {
	Token() string
}

// SessionEvents lets consumers react to session boundaries. The returned
// function removes the listener.
type SessionEvents interface {
	OnLogin(fn func(token string)) func()
	OnLogout(fn func()) func()
}

// SessionProvider is the full session collaborator.
type SessionProvider interface {
	TokenSource
	SessionEvents
	Login(token string) error
	Logout() error
}
