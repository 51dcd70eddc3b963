package main

import (
	"log"

	"autocaption/internal/bootstrap"
)

func main() {
	if err := bootstrap.NewRootCommand().Execute(); err != nil {
		log.Fatalf("run app: %v", err)
	}
}
