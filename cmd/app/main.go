package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/yanqian/faq-chatbot/pkg/logger"
)

func main() {
	os.Exit(run())
}

// run returns the process exit code so deferred cleanup runs before exiting.
func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log := logger.New()
	app, err := initializeApp()
	if err != nil {
		log.Error("faq chatbot failed to start", "error", err)
		return 1
	}

	if err := app.Run(ctx); err != nil {
		log.Error("faq chatbot stopped with error", "error", err)
		return 1
	}
	log.Info("faq chatbot stopped")
	return 0
}
