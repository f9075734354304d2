package main

import (
	"log"

	"github.com/blitzkrieg267/newsHub/internal/app"
)

func main() {
	if err := app.Run(); err != nil {
		log.Fatalf("newsHub stopped: %v", err)
	}
}
