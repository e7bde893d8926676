package userline

// UserRecord is a single entry of the remote user directory.
type UserRecord struct {
	ID       int64  `json:"id" yaml:"id"`
	Name     string `json:"name" yaml:"name"`
	Username string `json:"username" yaml:"username"`
	Email    string `json:"email" yaml:"email"`
}

// State is the closed set of outcomes the widget can display.
// Only the variants declared in this file implement it.
type State interface {
	String() string
	isState()
}

// Idle means no query has been entered.
type Idle struct{}

// Searching means a lookup is in flight for the current query.
type Searching struct{}

// Found holds the record whose username matched the query exactly.
type Found struct {
	User UserRecord
}

// NotFound means the lookup succeeded but no username matched.
type NotFound struct{}

// Failed means the lookup failed for a reason other than cancellation.
type Failed struct {
	Message string
}

func (Idle) isState()      {}
func (Searching) isState() {}
func (Found) isState()     {}
func (NotFound) isState()  {}
func (Failed) isState()    {}

func (Idle) String() string      { return "idle" }
func (Searching) String() string { return "searching" }
func (Found) String() string     { return "found" }
func (NotFound) String() string  { return "not-found" }
func (Failed) String() string    { return "failed" }
