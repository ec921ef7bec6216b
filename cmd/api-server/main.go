package main

import (
	"log"

	"github.com/futig/rag-console/internal/builder"
)

func main() {
	app, err := builder.Build()
	if err != nil {
		log.Fatal("Failed to build API server: ", err)
	}

	if err := app.Run(); err != nil {
		log.Fatal("API server error: ", err)
	}
}
