// Command paywatch follows payment confirmation of a single order against a
// running server, the same way the storefront thank-you page does.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/Shivanshu999/casePlus/internal/confirm"
	"go.uber.org/zap"
)

func main() {
	var (
		baseURL  string
		orderID  string
		token    string
		interval time.Duration
		timeout  time.Duration
		attempts int
	)

	flag.StringVar(&baseURL, "s", "http://localhost:8080", "server base URL")
	flag.StringVar(&orderID, "o", "", "order id to watch")
	flag.StringVar(&token, "t", "", "auth token")
	flag.DurationVar(&interval, "i", confirm.DefaultInterval, "poll interval")
	flag.DurationVar(&timeout, "w", confirm.DefaultTimeout, "verification timeout")
	flag.IntVar(&attempts, "n", confirm.DefaultMaxAttempts, "max automatic retries")
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("Error initializing logger: %v", err)
	}
	defer logger.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	source := confirm.NewHTTPSource(baseURL, token)
	watcher := confirm.New(source, orderID, confirm.Options{
		Interval:    interval,
		MaxAttempts: attempts,
		Timeout:     timeout,
		Logger:      logger,
	})

	go func() {
		for range watcher.Updates() {
			snap := watcher.Snapshot()
			switch snap.State {
			case confirm.StateTimedOutPending:
				fmt.Println("Payment verification delayed. The order was received; checking again...")
				watcher.CheckAgain()
			case confirm.StateError:
				fmt.Printf("Status query failed after %d attempts: %v\n", snap.Attempts, snap.Err)
				cancel()
			}
		}
	}()

	if err := watcher.Run(ctx); err != nil {
		logger.Fatal("watch failed", zap.Error(err))
	}

	snap := watcher.Snapshot()
	if snap.Detail != nil {
		fmt.Printf("Payment confirmed for order %s: amount %d, created %s\n",
			snap.Detail.OrderID, snap.Detail.Amount, snap.Detail.CreatedAt.Format(time.RFC3339))
	}
}
