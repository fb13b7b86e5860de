package main

import (
	"context"

	"github.com/joho/godotenv"
)

func main() {
	// Local runs keep credentials in a .env file; absence is fine.
	_ = godotenv.Load()

	Execute(context.Background())
}
