// Command devtoken prints a signed access token for local testing of the
// reservation API.  Usage: devtoken -user 3 -role USER
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/iliyamo/venue-reservation/internal/model"
	"github.com/iliyamo/venue-reservation/internal/utils"
)

func main() {
	_ = godotenv.Load()
	user := flag.Uint64("user", 1, "user id placed in the sub claim")
	role := flag.String("role", string(model.RoleUser), "role claim")
	ttl := flag.Int("ttl", 60, "lifetime in minutes")
	flag.Parse()

	if !model.Role(*role).Valid() {
		fmt.Fprintf(os.Stderr, "unknown role %q, want one of %v\n", *role, model.Roles())
		os.Exit(2)
	}
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		fmt.Fprintln(os.Stderr, "JWT_SECRET is not set")
		os.Exit(1)
	}
	tok, err := utils.NewAccessToken(secret, *user, *role, *ttl)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println(tok.Token)
}
