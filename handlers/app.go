package handlers

import (
	"backrooms/llm"
	"backrooms/social"
)

// App bundles the external clients the handlers need. Built once in main
// and shared; nothing here is request-scoped.
type App struct {
	Gen        llm.Generator
	Social     *social.XClient
	Dispatcher *social.Dispatcher
}

func NewApp(gen llm.Generator, socialClient *social.XClient, dispatcher *social.Dispatcher) *App {
	return &App{
		Gen:        gen,
		Social:     socialClient,
		Dispatcher: dispatcher,
	}
}
