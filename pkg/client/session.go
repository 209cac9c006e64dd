package client

// sessionKey identifies a cached credential.
type sessionKey struct {
	Server   string
	Database string
	User     string
}

// Credentials is a resolved identity: the numeric user id and the password
// that authenticates it.
type Credentials struct {
	UID      int64
	Password string
}

// SessionCache caches resolved credentials per (server, database, user) so
// repeated logins avoid a remote authenticate call. It lives for as long as
// the process that created it and is not safe for concurrent use without
// external locking.
type SessionCache struct {
	entries map[sessionKey]Credentials
}

// NewSessionCache creates an empty cache. A cache may be shared between
// clients talking to the same or different servers.
func NewSessionCache() *SessionCache {
	return &SessionCache{entries: make(map[sessionKey]Credentials)}
}

func (sc *SessionCache) lookup(key sessionKey) (Credentials, bool) {
	creds, ok := sc.entries[key]
	return creds, ok
}

func (sc *SessionCache) store(key sessionKey, creds Credentials) {
	sc.entries[key] = creds
}

func (sc *SessionCache) invalidate(key sessionKey) {
	delete(sc.entries, key)
}
