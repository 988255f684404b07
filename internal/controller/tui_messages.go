package controller

// Message types.
type runStartedMsg struct {
	total int
}

type nodeStartedMsg struct {
	ref   string
	index int
	total int
}

type nodeFinishedMsg struct {
	ref string
	err error
}

type nodeSkippedMsg struct {
	ref   string
	cause string
}

type artifactsMsg struct {
	root  string
	count int
}

type printMsg struct {
	text string
}

type runDoneMsg struct{}
