// Package main is a development utility that generates a JWT signing secret
// and a ready-to-run SQL INSERT for a demo user with a random password, so a
// local PostgreSQL-backed server can be started and logged into without going
// through signup. Do not reuse the generated secret in production.
//
//	go run ./scripts/generate-key.go [email]
package main

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"log"
	"os"

	"github.com/google/uuid"
	"github.com/hookline/hookline/internal/auth"
)

func main() {
	email := "demo@hookline.local"
	if len(os.Args) > 1 {
		email = os.Args[1]
	}

	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		log.Fatal(err)
	}

	pwBytes := make([]byte, 12)
	if _, err := rand.Read(pwBytes); err != nil {
		log.Fatal(err)
	}
	password := base64.RawURLEncoding.EncodeToString(pwBytes)

	hash, err := auth.NewPasswordHasher(auth.DefaultBcryptCost).Hash(password)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println("==========================================================")
	fmt.Println("JWT Secret")
	fmt.Println("==========================================================")
	fmt.Printf("\nHOOKLINE_AUTH_JWT_SECRET=%s\n", hex.EncodeToString(secret))
	fmt.Println("\n==========================================================")
	fmt.Println("Demo user")
	fmt.Println("==========================================================")
	fmt.Printf("\nEmail:    %s\nPassword: %s\n", email, password)
	fmt.Println("\n==========================================================")
	fmt.Println("SQL Insert:")
	fmt.Println("==========================================================")
	fmt.Printf(`
INSERT INTO users (id, username, email, password_hash, full_name)
VALUES ('%s', 'demo', '%s', '%s', 'Demo User');
`, uuid.New().String(), email, hash)
	fmt.Println("==========================================================")
}
