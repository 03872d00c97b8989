package main

import (
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/opsdeck/field-ops-api/api/handlers"

	"go.uber.org/zap"

	"github.com/opsdeck/field-ops-api/config"
)

func main() {
	a := handlers.App{}
	a.Config = *config.New()

	if err := a.Initialize(); err != nil { //initialize database, cache, scheduler and router
		log.Fatal(err)
	}

	port := os.Getenv("PORT")
	baseURL := os.Getenv("BASE_URL")
	zap.S().Infow("field-ops-api is up and running",
		"port", port,
		"url", baseURL,
	)
	log.Fatal(http.ListenAndServe(fmt.Sprintf(":%v", port), a.Router))
}
