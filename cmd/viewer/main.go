package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/mdobak/go-xerrors"

	"github.com/Eudaldz/aicitychallenge-viewer/internal/app"
)

func main() {
	_ = godotenv.Load()

	application, err := app.NewApp()
	if err != nil {
		log.Fatalf("Failed to build session: %v", xerrors.New(err))
	}
	defer application.Close()

	if err := application.Run(); err != nil {
		log.Fatalf("Server stopped: %v", xerrors.New(err))
	}
}
