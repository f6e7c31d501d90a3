// Command devtoken mints an API token for local testing:
//
//	go run ./cmd/devtoken -uid artisan-1 -role artisan -email a@example.com
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/01moynul/artisansloom-golang/internal/auth"
	"github.com/01moynul/artisansloom-golang/internal/models"
)

func main() {
	uid := flag.String("uid", "", "user id (token subject)")
	role := flag.String("role", string(models.RoleCustomer), "customer, artisan or admin")
	email := flag.String("email", "", "email claim")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	_ = godotenv.Load()
	secret := os.Getenv("JWT_SECRET")

	tokens, err := auth.NewTokenManager(secret, *ttl)
	if err != nil {
		fmt.Fprintln(os.Stderr, "devtoken: set JWT_SECRET:", err)
		os.Exit(1)
	}
	token, err := tokens.GenerateToken(models.Caller{UID: *uid, Role: models.Role(*role), Email: *email})
	if err != nil {
		fmt.Fprintln(os.Stderr, "devtoken:", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
