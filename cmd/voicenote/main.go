package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	Execute()
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
