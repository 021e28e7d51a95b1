package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"photo-gallery/internal/database"

	"golang.org/x/term"
)

const (
	// Default timeout for database operations
	defaultTimeout = 30 * time.Second
	// Default database directory path
	defaultDatabaseDir = "/database"
)

func main() {
	if len(os.Args) < 3 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	username := os.Args[2]

	// Create a context that cancels on interrupt signals
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nInterrupted, shutting down...")
		cancel()
	}()

	databaseDir := os.Getenv("DATABASE_DIR")
	if databaseDir == "" {
		databaseDir = defaultDatabaseDir
	}
	dbPath := filepath.Join(databaseDir, "gallery.db")

	db, err := database.New(ctx, dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to connect to database: %v\n", err)
		fmt.Fprintf(os.Stderr, "Make sure DATABASE_DIR is set correctly (current: %s)\n", databaseDir)
		os.Exit(1)
	}
	defer func() {
		if err := db.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
		}
	}()

	switch command {
	case "create":
		if !createUser(ctx, db, username, false) {
			os.Exit(1)
		}
	case "create-admin":
		if !createUser(ctx, db, username, true) {
			os.Exit(1)
		}
	case "reset":
		if !resetPassword(ctx, db, username) {
			os.Exit(1)
		}
	default:
		// Sanitize command input using allowlist to break taint chain
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", sanitizeArg(command))
		printUsage()
		os.Exit(1)
	}
}

// sanitizeArg returns a safe representation of a command-line argument for
// display. Any character that is not alphanumeric, a hyphen, or an underscore
// is replaced with '_'.
func sanitizeArg(arg string) string {
	var b strings.Builder
	b.Grow(len(arg))
	for _, r := range arg {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}

func printUsage() {
	fmt.Println("Photo Gallery User Management")
	fmt.Println("")
	fmt.Println("Usage: resetpw <command> <username>")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  create        - Create a new user")
	fmt.Println("  create-admin  - Create a new admin user")
	fmt.Println("  reset         - Reset an existing user's password")
	fmt.Println("")
	fmt.Println("Environment:")
	fmt.Printf("  DATABASE_DIR - Path to database directory (default: %s)\n", defaultDatabaseDir)
}

func promptPassword() (string, bool) {
	fmt.Print("New Password: ")
	password, err := term.ReadPassword(syscall.Stdin)
	fmt.Println()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading password: %v\n", err)
		return "", false
	}

	fmt.Print("Confirm Password: ")
	confirm, err := term.ReadPassword(syscall.Stdin)
	fmt.Println()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading password: %v\n", err)
		return "", false
	}

	if !bytes.Equal(password, confirm) {
		fmt.Fprintln(os.Stderr, "Error: Passwords do not match")
		return "", false
	}

	if len(password) < 6 {
		fmt.Fprintln(os.Stderr, "Error: Password must be at least 6 characters")
		return "", false
	}

	return string(password), true
}

func createUser(ctx context.Context, db *database.Database, username string, isAdmin bool) bool {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	password, ok := promptPassword()
	if !ok {
		return false
	}

	if _, err := db.CreateUser(ctx, username, password, isAdmin); err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to create user: %v\n", err)
		return false
	}

	if isAdmin {
		fmt.Printf("Admin user %s created.\n", sanitizeArg(username))
	} else {
		fmt.Printf("User %s created.\n", sanitizeArg(username))
	}
	return true
}

func resetPassword(ctx context.Context, db *database.Database, username string) bool {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if !db.HasUsers(ctx) {
		fmt.Fprintln(os.Stderr, "Error: No users exist yet. Use the create command first.")
		return false
	}

	password, ok := promptPassword()
	if !ok {
		return false
	}

	if err := db.SetPassword(ctx, username, password); err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to update password: %v\n", err)
		return false
	}

	fmt.Println("Password updated successfully.")
	return true
}
