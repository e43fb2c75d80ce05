//go:build ignore

// issue_token prints a signed bearer token for local testing.
//
//	JWT_SECRET=dev go run scripts/issue_token.go -buyer buyer-1 -email b@example.com
//	JWT_SECRET=dev go run scripts/issue_token.go -buyer ops -role admin
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"shopfront/internal/auth"
)

func main() {
	buyer := flag.String("buyer", "buyer-1", "buyer ID (sub claim)")
	email := flag.String("email", "", "email claim used for notifications")
	role := flag.String("role", auth.RoleCustomer, "role claim (customer or admin)")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Fatal("JWT_SECRET must be set")
	}

	tokens := auth.NewTokenManager(secret, os.Getenv("JWT_ISSUER"))
	token, err := tokens.Issue(auth.Principal{BuyerID: *buyer, Email: *email, Role: *role}, *ttl)
	if err != nil {
		log.Fatalf("Failed to issue token: %v", err)
	}

	fmt.Println(token)
}
