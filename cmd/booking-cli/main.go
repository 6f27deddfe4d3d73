// Command booking-cli takes a table reservation at the terminal and forwards
// it to the automation webhook, the same way the web form does.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/joho/godotenv"

	"github.com/wolfman30/mojito-booking/internal/app/bootstrap"
	"github.com/wolfman30/mojito-booking/internal/booking"
	appconfig "github.com/wolfman30/mojito-booking/internal/config"
	"github.com/wolfman30/mojito-booking/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.NewWithWriter(cfg.LogLevel, os.Stderr)

	client, err := bootstrap.BuildWebhookClient(cfg, nil, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "booking-cli: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	controller := booking.NewController(booking.NewForm(), client, booking.WithLogger(logger.Component("booking")))
	p := &surveyPrompter{stdio: terminal.Stdio{In: os.Stdin, Out: os.Stdout, Err: os.Stderr}}

	fmt.Println("Reserve Your Spot - Book a Table")
	status, err := run(ctx, p, controller, os.Stdout)
	switch {
	case errors.Is(err, errAborted), errors.Is(err, context.Canceled):
		os.Exit(130)
	case err != nil:
		fmt.Fprintf(os.Stderr, "booking-cli: %v\n", err)
		os.Exit(1)
	case status != booking.StatusSuccess:
		os.Exit(2)
	}
}
