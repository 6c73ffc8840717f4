package main

import (
	"context"
	"log"

	"github.com/dmitrijs2005/sessionkeeper/internal/gateway"
)

func main() {

	ctx := context.Background()
	app, err := gateway.NewApp(ctx, gateway.LoadConfig())
	if err != nil {
		log.Fatalf("%v", err)
	}

	if err := app.Run(ctx); err != nil {
		log.Fatalf("%v", err)
	}

}
