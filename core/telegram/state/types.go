package state

// State identifies a finite-state-machine step used in conversations.
type State string

const (
	// StateIdle indicates there is no active conversation with the user.
	StateIdle State = "idle"
)

// Manager keeps at most one session per user and serializes access per user.
// Sessions of different users never contend for the same lock.
type Manager[S any] interface {
	// Update runs fn while holding the user's lock. fn receives the current
	// session (nil when none exists) and returns the session to keep;
	// returning nil removes it.
	Update(userID int64, fn func(cur *S) *S)
	// Get returns a copy of the user's session.
	Get(userID int64) (S, bool)
	// Len returns the number of stored sessions.
	Len() int
}
