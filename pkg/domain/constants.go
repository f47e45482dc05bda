package domain

// Seed intent ids. They are fixed so that an export from one editor session
// can be imported into any other: protection is tied to these ids.
const (
	GreetID    = "greet"
	FallbackID = "fallback"
)

// Defaults applied by NodeOperations.
const (
	DefaultLabel = "New Intent"
	CopySuffix   = " (Copy)"
)
