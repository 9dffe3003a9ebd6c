package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"potd/internal/app"
)

func main() {
	var cfgPath string
	flag.StringVar(&cfgPath, "config", "./potd.yaml", "path to config file (yaml or json)")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := app.New(cfgPath)
	if err != nil {
		fmt.Println("fatal:", err)
		os.Exit(1)
	}

	if err := a.Start(ctx); err != nil {
		fmt.Println("fatal start:", err)
		os.Exit(1)
	}

	select {
	case <-ctx.Done():
	case <-a.Done():
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer stopCancel()
	if err := a.Stop(stopCtx); err != nil {
		fmt.Println("fatal stop:", err)
		os.Exit(1)
	}
}
