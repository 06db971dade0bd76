package main

import (
	"log"

	"techtrack/internal/app"
)

func main() {
	if err := app.New().Run(); err != nil {
		log.Fatalf("❌ techtrack failed to start: %v", err)
	}
}
