package command_router

// Handler runs one command. Output happens through the speech synthesizer;
// a returned error is contained at the dispatch boundary.
type Handler func() error

// Command binds a trigger keyword to its handler. Table order is dispatch
// priority: the first trigger found in an utterance wins.
type Command struct {
	Trigger string
	Handler Handler
}

type Interface interface {
	Dispatch(text string) bool
}
