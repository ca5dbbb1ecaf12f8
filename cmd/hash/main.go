// Package main prints the bcrypt hash of a password. Hookline stores only
// password hashes, so this tool is used to seed or reset user rows in the
// PostgreSQL backend by hand without running the signup flow.
//
//	hash [-cost N] [password]
//
// Without an argument the password is prompted for on the terminal without
// echo, or read as one line from stdin when stdin is not a terminal.
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hookline/hookline/internal/auth"
	"github.com/hookline/hookline/internal/validation"
	"golang.org/x/term"
)

func main() {
	cost := flag.Int("cost", auth.DefaultBcryptCost, "bcrypt cost (4-31)")
	flag.Parse()

	password, err := obtainPassword(flag.Args(), os.Stdin, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	hash, err := hashPassword(password, *cost)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(hash)
}

// hashPassword applies the signup password rules before hashing so a seeded
// user can always log in through the API.
func hashPassword(password string, cost int) (string, error) {
	if err := validation.ValidatePassword(password); err != nil {
		return "", err
	}
	return auth.NewPasswordHasher(cost).Hash(password)
}

func obtainPassword(args []string, in *os.File, prompt io.Writer) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}

	if term.IsTerminal(int(in.Fd())) {
		fmt.Fprint(prompt, "Password: ")
		pw, err := term.ReadPassword(int(in.Fd()))
		fmt.Fprintln(prompt)
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(pw), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("failed to read password from stdin: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
