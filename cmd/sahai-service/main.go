package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/krishisahai/sahai/sahaiservice"
)

func main() {
	// .env is optional; real deployments set variables in the environment.
	if err := godotenv.Load(); err == nil {
		log.Debug().Msg("loaded .env file")
	}

	if err := sahaiservice.Run(); err != nil {
		log.Error().Err(err).Msg("service exited with error")
		os.Exit(1)
	}
}
