package userline

import (
	"time"

	"github.com/atotto/clipboard"
)

type Options struct {
	Prompt       string
	Placeholder  string
	Debounce     time.Duration
	InitialQuery string

	// OnStateChange is called from the program loop after every transition
	OnStateChange func(State)

	// Clipboard receives the email of a found user on ctrl+y; nil disables it
	Clipboard func(string) error
}

func NewOptions() Options {
	return Options{
		Prompt:    "Username: ",
		Debounce:  DefaultDebounce,
		Clipboard: clipboard.WriteAll,
	}
}
