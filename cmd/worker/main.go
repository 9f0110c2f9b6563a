package main // Notification worker: drains the email queue over SMTP

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/iliyamo/venue-reservation/internal/config"
	"github.com/iliyamo/venue-reservation/internal/logger"
	"github.com/iliyamo/venue-reservation/internal/mailer"
	"github.com/iliyamo/venue-reservation/internal/queue"
)

func main() {
	_ = godotenv.Load()
	logger.Init(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	url := config.RabbitURL()
	logger.Get().Info("email worker starting", "queue", queue.EmailQueueName)
	err := queue.StartEmailConsumer(ctx, url, mailer.NewSMTPNotifier(config.LoadSMTPConfig()))
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("email worker", "err", err)
	}
	logger.Get().Info("email worker stopped")
}
