// Package identity abstracts the source of the current user. The
// tracker only needs a stable name to partition storage by and a flag
// telling it whether the session is ephemeral.
package identity

// User identifies the owner of the current session's data.
type User struct {
	// Name partitions the persistent store; two users never share keys.
	Name string

	// Ephemeral marks a demo/guest session: nothing is persisted and
	// every mutation is rejected.
	Ephemeral bool
}

// Provider supplies the current user.
type Provider interface {
	Current() User
}

// Static is a Provider with a fixed user, configured at startup.
type Static struct {
	user User
}

func NewStatic(name string, ephemeral bool) *Static {
	if name == "" {
		name = "guest"
	}
	return &Static{user: User{Name: name, Ephemeral: ephemeral}}
}

func (s *Static) Current() User {
	return s.user
}
