package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/pulsefeed/pulsefeed/internal/auth"
	"github.com/pulsefeed/pulsefeed/internal/client"
	"github.com/pulsefeed/pulsefeed/internal/config"
	httpapp "github.com/pulsefeed/pulsefeed/internal/http"
	"github.com/pulsefeed/pulsefeed/internal/rate"
	"github.com/pulsefeed/pulsefeed/internal/store"
	"github.com/pulsefeed/pulsefeed/internal/store/postgres"
	"github.com/pulsefeed/pulsefeed/internal/store/sqlite"
)

// Set via -ldflags at build time.
var (
	version   = "dev"
	commit    = "none"
	buildTime = "unknown"
)

// CLIConfig holds the CLI client configuration persisted to disk.
type CLIConfig struct {
	BaseURL string `json:"base_url"`
	Email   string `json:"email"`
	Token   string `json:"token"`
}

func main() {
	if len(os.Args) < 2 {
		runServer()
		return
	}

	cmd := os.Args[1]

	if cmd == "-h" || cmd == "--help" || cmd == "help" {
		printUsage()
		return
	}

	if cmd == "-v" || cmd == "--version" || cmd == "version" {
		fmt.Printf("pulsefeed %s (%s, built %s)\n", version, commit, buildTime)
		return
	}

	if strings.HasPrefix(cmd, "-") {
		runServer()
		return
	}

	args := os.Args[2:]

	switch cmd {
	case "server", "serve":
		runServer()
	case "register":
		cmdRegister(args)
	case "login":
		cmdLogin(args)
	case "post":
		cmdPost(args)
	case "read", "list":
		cmdRead(args)
	case "like":
		cmdLike(args)
	case "unlike":
		cmdUnlike(args)
	case "comment":
		cmdComment(args)
	case "delete", "rm":
		cmdDelete(args)
	case "status", "whoami":
		cmdStatus(args)
	case "stats":
		cmdStats(args)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`pulsefeed - Social posting platform

Usage: pulsefeed <command> [options]

Quick Start:
  pulsefeed register --name "Jane" --email jane@example.com --password secret1
  pulsefeed post --text "Hello world"

Client Commands:
  register            Create an account and authenticate
  login               Log in with an existing account
  post                Create a new post
  read                Read posts (or one post with its comments)
  like                Like a post
  unlike              Remove your like from a post
  comment             Comment on a post (or delete your comment)
  delete              Delete your own post
  status              Show current config and token status
  stats               Show site statistics

Server:
  server              Start the Pulsefeed server (default if no command)

Examples:
  pulsefeed register --name "Jane" --email jane@example.com --password secret1
  pulsefeed post --text "My first post"
  pulsefeed read --limit 10
  pulsefeed read --post <post-id>
  pulsefeed like --post <post-id>
  pulsefeed comment --post <post-id> --text "Great post!"
  pulsefeed comment --post <post-id> --remove <comment-id>

Environment Variables (server):
  PULSEFEED_ADDR        Listen address (default: :8080)
  PULSEFEED_STORAGE     Storage backend: sqlite or postgres (default: sqlite)
  PULSEFEED_DB          SQLite database path (default: pulsefeed.db)
  PULSEFEED_PG_DSN      PostgreSQL DSN (when PULSEFEED_STORAGE=postgres)
  PULSEFEED_JWT_SECRET  Token signing secret
  PULSEFEED_TOKEN_TTL   Token lifetime (default: 24h)`)
}

// ============================================================================
// SERVER
// ============================================================================

func runServer() {
	cfg := config.Load()
	cfg.Version = version
	cfg.Commit = commit
	cfg.BuildTime = buildTime

	var (
		st  store.Store
		err error
	)
	switch cfg.Storage {
	case "postgres":
		st, err = postgres.Open(context.Background(), cfg.PostgresDSN)
	case "sqlite":
		st, err = sqlite.Open(cfg.DBPath)
	default:
		log.Fatalf("unknown storage backend %q", cfg.Storage)
	}
	if err != nil {
		log.Fatalf("failed to open %s store: %v", cfg.Storage, err)
	}
	defer st.Close()

	limiter := rate.NewMemory()
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			limiter.Prune()
		}
	}()

	authSvc := auth.NewService(cfg.JWTSecret, cfg.TokenTTL)
	server := httpapp.NewServer(st, authSvc, limiter, cfg)

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("pulsefeed listening on %s (storage: %s)", cfg.Addr, cfg.Storage)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Println("shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(ctx)
}

// ============================================================================
// CLIENT COMMANDS
// ============================================================================

func cmdRegister(args []string) {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	name := fs.String("name", "", "Display name (required)")
	email := fs.String("email", "", "Email address (required)")
	password := fs.String("password", "", "Password, 6+ characters (required)")
	url := fs.String("url", "http://localhost:8080", "Pulsefeed server URL")
	fs.Parse(args)

	if *name == "" || *email == "" || *password == "" {
		fmt.Fprintln(os.Stderr, "Error: --name, --email, and --password are required")
		fmt.Fprintln(os.Stderr, "Usage: pulsefeed register --name <name> --email <email> --password <password>")
		os.Exit(1)
	}

	c := client.New(strings.TrimSuffix(*url, "/"))
	err := c.Register(*name, *email, *password)
	if errors.Is(err, client.ErrAlreadyRegistered) {
		fmt.Printf("Account '%s' already exists, logging in instead\n", *email)
		err = c.Login(*email, *password)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	cfg := CLIConfig{
		BaseURL: c.BaseURL,
		Email:   *email,
		Token:   c.Token,
	}
	if err := saveCLIConfig(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✓ Authenticated as '%s'\n", *email)
	fmt.Printf("  Config: %s\n", cliConfigPath())
	fmt.Println("\nReady to post! Example:")
	fmt.Println("  pulsefeed post --text \"Hello Pulsefeed\"")
}

func cmdLogin(args []string) {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "Email address")
	password := fs.String("password", "", "Password (required)")
	url := fs.String("url", "", "Pulsefeed server URL")
	fs.Parse(args)

	cfg, _ := loadCLIConfig()
	if *email == "" {
		*email = cfg.Email
	}
	if *url == "" {
		*url = cfg.BaseURL
	}
	if *url == "" {
		*url = "http://localhost:8080"
	}
	if *email == "" || *password == "" {
		fmt.Fprintln(os.Stderr, "Error: --email and --password are required")
		os.Exit(1)
	}

	c := client.New(strings.TrimSuffix(*url, "/"))
	if err := c.Login(*email, *password); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	cfg = CLIConfig{BaseURL: c.BaseURL, Email: *email, Token: c.Token}
	if err := saveCLIConfig(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✓ Logged in as '%s'\n", *email)
}

func cmdPost(args []string) {
	fs := flag.NewFlagSet("post", flag.ExitOnError)
	text := fs.String("text", "", "Post text (required)")
	fs.Parse(args)

	if *text == "" {
		fmt.Fprintln(os.Stderr, "Error: --text is required")
		os.Exit(1)
	}

	c, err := loadAuthenticatedClient()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	post, err := c.CreatePost(*text)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("✓ Posted")
	fmt.Printf("  ID: %s\n", post.ID)
}

func cmdRead(args []string) {
	fs := flag.NewFlagSet("read", flag.ExitOnError)
	postID := fs.String("post", "", "Get a specific post with comments")
	limit := fs.Int("limit", 10, "Number of posts")
	fs.Parse(args)

	c, err := loadAuthenticatedClient()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *postID != "" {
		post, err := c.GetPost(*postID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("\n%s\n", post.Text)
		fmt.Printf("  By: %s | Likes: %d | Comments: %d | %s\n",
			post.Name, len(post.Likes), len(post.Comments), post.CreatedAt.Format(time.RFC3339))
		if len(post.Comments) > 0 {
			fmt.Printf("\n  --- Comments (%d) ---\n", len(post.Comments))
			for _, comment := range post.Comments {
				fmt.Printf("  [%s] %s: %s\n", comment.ID, comment.Name, comment.Text)
			}
		}
		return
	}

	posts, err := c.ListPosts()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if len(posts) > *limit {
		posts = posts[:*limit]
	}

	fmt.Println("\nPulsefeed (newest first)")
	for i, p := range posts {
		fmt.Printf("\n%d. %s\n", i+1, p.Text)
		fmt.Printf("   %s | %d likes | %d comments | %s\n", p.Name, len(p.Likes), len(p.Comments), p.ID)
	}
}

func cmdLike(args []string) {
	fs := flag.NewFlagSet("like", flag.ExitOnError)
	postID := fs.String("post", "", "Post ID (required)")
	fs.Parse(args)

	if *postID == "" {
		fmt.Fprintln(os.Stderr, "Error: --post is required")
		os.Exit(1)
	}

	c, err := loadAuthenticatedClient()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	likes, err := c.Like(*postID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✓ Liked post %s (%d likes)\n", *postID, len(likes))
}

func cmdUnlike(args []string) {
	fs := flag.NewFlagSet("unlike", flag.ExitOnError)
	postID := fs.String("post", "", "Post ID (required)")
	fs.Parse(args)

	if *postID == "" {
		fmt.Fprintln(os.Stderr, "Error: --post is required")
		os.Exit(1)
	}

	c, err := loadAuthenticatedClient()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	likes, err := c.Unlike(*postID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✓ Unliked post %s (%d likes)\n", *postID, len(likes))
}

func cmdComment(args []string) {
	fs := flag.NewFlagSet("comment", flag.ExitOnError)
	postID := fs.String("post", "", "Post ID (required)")
	text := fs.String("text", "", "Comment text")
	remove := fs.String("remove", "", "Comment ID to delete instead of adding")
	fs.Parse(args)

	if *postID == "" {
		fmt.Fprintln(os.Stderr, "Error: --post is required")
		os.Exit(1)
	}
	if (*text == "" && *remove == "") || (*text != "" && *remove != "") {
		fmt.Fprintln(os.Stderr, "Error: provide exactly one of --text or --remove")
		os.Exit(1)
	}

	c, err := loadAuthenticatedClient()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *remove != "" {
		comments, err := c.DeleteComment(*postID, *remove)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("✓ Deleted comment %s (%d remaining)\n", *remove, len(comments))
		return
	}

	comments, err := c.AddComment(*postID, *text)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("✓ Commented on post %s (%d comments)\n", *postID, len(comments))
}

func cmdDelete(args []string) {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	postID := fs.String("post", "", "Post ID to delete (required)")
	fs.Parse(args)

	if *postID == "" {
		fmt.Fprintln(os.Stderr, "Error: --post is required")
		fmt.Fprintln(os.Stderr, "Usage: pulsefeed delete --post <id>")
		os.Exit(1)
	}

	c, err := loadAuthenticatedClient()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := c.DeletePost(*postID); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✓ Deleted post %s\n", *postID)
}

func cmdStatus(args []string) {
	cfg, err := loadCLIConfig()
	if err != nil {
		fmt.Println("Status: Not logged in")
		fmt.Println("\nRun: pulsefeed register --name <name> --email <email> --password <password>")
		return
	}

	fmt.Printf("Email:  %s\n", cfg.Email)
	fmt.Printf("Server: %s\n", cfg.BaseURL)

	if cfg.Token == "" {
		fmt.Println("Token:  Not authenticated")
		fmt.Println("\nRun: pulsefeed login --password <password>")
		return
	}

	c := client.New(cfg.BaseURL)
	c.Token = cfg.Token
	user, err := c.CurrentUser()
	if err != nil {
		fmt.Println("Token:  Invalid or expired")
		fmt.Println("\nRun: pulsefeed login --password <password>")
		return
	}
	fmt.Printf("Token:  Valid (user %s, joined %s)\n", user.Name, user.CreatedAt.Format("2006-01-02"))
}

func cmdStats(args []string) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	url := fs.String("url", "", "Pulsefeed server URL")
	fs.Parse(args)

	cfg, _ := loadCLIConfig()
	baseURL := *url
	if baseURL == "" {
		baseURL = cfg.BaseURL
	}
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	c := client.New(baseURL)
	stats, err := c.Stats()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Users:    %d\n", stats["users"])
	fmt.Printf("Posts:    %d\n", stats["posts"])
	fmt.Printf("Comments: %d\n", stats["comments"])
}

// ============================================================================
// HELPERS
// ============================================================================

func pulsefeedDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".pulsefeed")
}

func cliConfigPath() string {
	return filepath.Join(pulsefeedDir(), "config.json")
}

func loadCLIConfig() (CLIConfig, error) {
	data, err := os.ReadFile(cliConfigPath())
	if err != nil {
		return CLIConfig{}, errors.New("not logged in")
	}
	var cfg CLIConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return CLIConfig{}, err
	}
	return cfg, nil
}

func saveCLIConfig(cfg CLIConfig) error {
	if err := os.MkdirAll(pulsefeedDir(), 0700); err != nil {
		return err
	}
	data, _ := json.MarshalIndent(cfg, "", "  ")
	return os.WriteFile(cliConfigPath(), data, 0600)
}

func loadAuthenticatedClient() (*client.Client, error) {
	cfg, err := loadCLIConfig()
	if err != nil {
		return nil, err
	}
	if cfg.Token == "" {
		return nil, errors.New("not authenticated - run 'pulsefeed login'")
	}

	c := client.New(cfg.BaseURL)
	c.Token = cfg.Token
	return c, nil
}
