package userline

import "fmt"

const (
	idlePrompt     = "Enter the username"
	searchingText  = "Searching..."
	notFoundText   = "No user found"
	genericFailure = "something went wrong"
	failedTemplate = "Error: %s"
)

// Render projects a state onto the text shown below the search field.
func Render(state State) string {
	switch s := state.(type) {
	case Idle:
		return idlePrompt
	case Searching:
		return searchingText
	case Found:
		return s.User.Name + "\n" + s.User.Username + "\n" + s.User.Email
	case NotFound:
		return notFoundText
	case Failed:
		return fmt.Sprintf(failedTemplate, s.Message)
	default:
		panic(fmt.Sprintf("userline: unhandled state %T", state))
	}
}
