package main

import (
	"context"
	"log"

	"github.com/dalemusser/applyform/app"
	"github.com/dalemusser/applyform/internal/app/bootstrap"
)

func main() {
	if err := app.Run(context.Background(), bootstrap.Hooks); err != nil {
		log.Fatal(err)
	}
}
