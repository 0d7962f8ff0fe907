package main

import (
	"fmt"
	"os"
)

// @title Pantry Sync API
// @version 1.0.0
// @description Appointment scheduling and realtime fulfillment sync for food pantry distributions
// @BasePath /
// @schemes http

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
