package listener

import "voice-assistant/command_router"

type Interface interface {
	Run() error
	RequestStop()
	SetRouter(router command_router.Interface)
}
