package models

// Permission levels checked at each operation.
const (
	PermissionGreeter   = 20
	PermissionScheduler = 50
	PermissionAdmin     = 100
)

// Session is an authenticated operator as recorded by the session store.
type Session struct {
	ID         string `json:"-"`
	Username   string `json:"username"`
	Permission int    `json:"permission"`
}

// Allows reports whether the session meets the required level.
func (s Session) Allows(level int) bool {
	return s.Permission >= level
}
