package main

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"
)

const minPassphraseLength = 6

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch command := os.Args[1]; command {
	case "hash":
		if !hashPassphrase() {
			os.Exit(1)
		}
	case "check":
		if !checkPassphrase() {
			os.Exit(1)
		}
	default:
		// Sanitize command input using allowlist before echoing it back
		sanitized := sanitizeCommand(command)
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", sanitized) //nolint:gosec // input is sanitized via allowlist in sanitizeCommand
		printUsage()
		os.Exit(1)
	}
}

// sanitizeCommand returns a safe representation of a command string for display.
// It uses an allowlist approach, replacing any character that is not alphanumeric,
// a hyphen, or an underscore with '_'.
func sanitizeCommand(cmd string) string {
	var b strings.Builder
	b.Grow(len(cmd))
	for _, r := range cmd {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}

func printUsage() {
	fmt.Println("GifForge Passphrase Utility")
	fmt.Println("")
	fmt.Println("Usage: hashpw <command>")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  hash    - Read a passphrase and print its bcrypt hash")
	fmt.Println("  check   - Verify a passphrase against ACCESS_PASSPHRASE_HASH")
	fmt.Println("")
	fmt.Println("Environment:")
	fmt.Println("  ACCESS_PASSPHRASE_HASH - Existing hash used by the check command")
	fmt.Printf("  BCRYPT_COST            - Hash cost, %d to %d (default: %d)\n", bcrypt.MinCost, bcrypt.MaxCost, bcrypt.DefaultCost)
}

func hashPassphrase() bool {
	interactive := term.IsTerminal(int(syscall.Stdin))

	passphrase, err := readPassphrase("New passphrase: ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading passphrase: %v\n", err)
		return false
	}

	var confirm []byte
	if interactive {
		confirm, err = readPassphrase("Confirm passphrase: ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading passphrase: %v\n", err)
			return false
		}
	}

	if err := validatePassphrase(passphrase, confirm, interactive); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return false
	}

	cost, ok := bcryptCost()
	if !ok {
		return false
	}

	hash, err := bcrypt.GenerateFromPassword(passphrase, cost)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to hash passphrase: %v\n", err)
		return false
	}

	// The hash alone goes to stdout so output can be captured directly
	fmt.Println(string(hash))
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Set this as ACCESS_PASSPHRASE_HASH to enable the access gate.")
	return true
}

func checkPassphrase() bool {
	hash := os.Getenv("ACCESS_PASSPHRASE_HASH")
	if hash == "" {
		fmt.Fprintln(os.Stderr, "Error: ACCESS_PASSPHRASE_HASH is not set")
		return false
	}

	passphrase, err := readPassphrase("Passphrase: ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading passphrase: %v\n", err)
		return false
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), passphrase); err != nil {
		fmt.Println("Result: passphrase does NOT match")
		return false
	}

	fmt.Println("Result: passphrase matches")
	return true
}

// validatePassphrase checks length and, when requireMatch is set, that
// both entries agree.
func validatePassphrase(passphrase, confirm []byte, requireMatch bool) error {
	if requireMatch && !bytes.Equal(passphrase, confirm) {
		return fmt.Errorf("passphrases do not match")
	}
	if len(passphrase) < minPassphraseLength {
		return fmt.Errorf("passphrase must be at least %d characters", minPassphraseLength)
	}
	return nil
}

// bcryptCost resolves the hashing cost, optionally overridden through
// BCRYPT_COST.
func bcryptCost() (int, bool) {
	value := os.Getenv("BCRYPT_COST")
	if value == "" {
		return bcrypt.DefaultCost, true
	}
	cost, err := strconv.Atoi(value)
	if err != nil || cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		fmt.Fprintf(os.Stderr, "Error: BCRYPT_COST must be an integer between %d and %d\n", bcrypt.MinCost, bcrypt.MaxCost)
		return 0, false
	}
	return cost, true
}

// readPassphrase reads without echo from a terminal, or a single line
// when input is piped so scripts can feed the passphrase.
func readPassphrase(prompt string) ([]byte, error) {
	if term.IsTerminal(int(syscall.Stdin)) {
		fmt.Print(prompt)
		passphrase, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		return passphrase, err
	}

	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return nil, err
	}
	return []byte(strings.TrimRight(line, "\r\n")), nil
}
