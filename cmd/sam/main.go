// ABOUTME: Terminal chat client for the Sam assistant with OAuth2 session management
// ABOUTME: Wires the session manager, conversation engine, and local stores together

package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"

	"github.com/samhq/sam-client/internal/archive"
	"github.com/samhq/sam-client/internal/assistant"
	"github.com/samhq/sam-client/internal/config"
	"github.com/samhq/sam-client/internal/conversation"
	"github.com/samhq/sam-client/internal/dedupe"
	"github.com/samhq/sam-client/internal/session"
	"github.com/samhq/sam-client/internal/tokenstore"
	"github.com/samhq/sam-client/internal/transcript"
)

// Version is set by goreleaser at build time.
var version = "dev"

const loginWait = 5 * time.Minute

// getConfigPath returns the path to the client config file.
// Priority: SAM_CONFIG env var > XDG_CONFIG_HOME/sam/config.yaml > ~/.config/sam/config.yaml
func getConfigPath() string {
	if envPath := os.Getenv("SAM_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "sam", "config.yaml")
}

func main() {
	configPath := flag.String("config", getConfigPath(), "Path to config file")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("sam %s\n", version)
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, *configPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("\nGoodbye!")
}

// app bundles the wired components for the interactive loop
type app struct {
	cfg     *config.Config
	manager *session.Manager
	engine  *conversation.Engine
	convo   *conversation.Store
	arch    *archive.Archive
	guard   *dedupe.Guard
	logger  *slog.Logger
}

func run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Logging)
	slog.SetDefault(logger)

	tokens, err := tokenstore.NewSQLiteStore(cfg.Storage.TokenPath)
	if err != nil {
		return fmt.Errorf("opening token store: %w", err)
	}
	defer tokens.Close()

	provider := session.NewProvider(cfg.Provider)
	manager := session.NewManager(tokens, provider, logger)

	var arch *archive.Archive
	if cfg.Storage.ArchivePath != "" {
		arch, err = archive.New(cfg.Storage.ArchivePath)
		if err != nil {
			return fmt.Errorf("opening message archive: %w", err)
		}
		defer arch.Close()
	}

	convo := conversation.NewStore()
	convo.AppendMessage(conversation.Greeting())

	client := assistant.New(cfg.Assistant.BaseURL, cfg.Assistant.Timeout)
	engine := conversation.NewEngine(convo, manager, client, logger)
	if arch != nil {
		engine.SetArchiver(arch)
	}

	a := &app{
		cfg:     cfg,
		manager: manager,
		engine:  engine,
		convo:   convo,
		arch:    arch,
		guard:   dedupe.NewGuard(2*time.Second, 64),
		logger:  logger,
	}

	engine.Subscribe(func(ev conversation.Event) {
		if ev == conversation.EventPanelRevealed {
			a.printDocuments()
		}
	})

	fmt.Printf("sam %s\n", version)

	// Load-time authentication pass
	if err := manager.Initialize(ctx, ""); err != nil {
		if errors.Is(err, session.ErrNotAuthenticated) {
			fmt.Println("Not signed in. Use /login to sign in.")
		} else {
			logger.Warn("session initialization failed", "error", err)
			fmt.Println("Could not restore your session. Use /login to sign in.")
		}
	} else {
		fmt.Println("Signed in.")
	}

	a.printLastMessage()
	fmt.Println("Type a message and press Enter. /help for commands. Ctrl+C to quit.")
	fmt.Println()

	return a.loop(ctx)
}

// loop reads input lines until the context is canceled or stdin closes
func (a *app) loop(ctx context.Context) error {
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("> ")

		inputCh := make(chan string, 1)
		errCh := make(chan error, 1)

		go func() {
			if scanner.Scan() {
				inputCh <- scanner.Text()
			} else {
				if err := scanner.Err(); err != nil {
					errCh <- err
				} else {
					errCh <- io.EOF
				}
			}
		}()

		var input string
		select {
		case <-ctx.Done():
			return nil
		case err := <-errCh:
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("reading input: %w", err)
		case input = <-inputCh:
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			done, err := a.command(ctx, input)
			if err != nil {
				fmt.Println(err)
			}
			if done {
				return nil
			}
			continue
		}

		a.send(ctx, input)
	}
}

// send runs one conversational turn and prints the outcome
func (a *app) send(ctx context.Context, content string) {
	if a.guard.Duplicate(content) {
		fmt.Println("(duplicate message ignored)")
		return
	}

	err := a.engine.Send(ctx, content)
	switch {
	case errors.Is(err, session.ErrNotAuthenticated):
		fmt.Println("You must be logged in. Use /login to sign in.")
		return
	case errors.Is(err, conversation.ErrBusy):
		fmt.Println("Still waiting on the previous message.")
		return
	case err != nil:
		fmt.Printf("Send failed: %v\n", err)
		return
	}

	a.printLastMessage()
}

// command dispatches a /command. The bool return requests exit.
func (a *app) command(ctx context.Context, input string) (bool, error) {
	cmd, arg, _ := strings.Cut(input, " ")
	arg = strings.TrimSpace(arg)

	switch cmd {
	case "/quit", "/exit", "/q":
		return true, nil

	case "/help":
		a.printHelp()

	case "/login":
		return false, a.login(ctx)

	case "/logout":
		if err := a.manager.Logout(ctx); err != nil {
			return false, err
		}
		fmt.Println("Signed out.")

	case "/attach":
		if arg == "" {
			return false, errors.New("usage: /attach <file>")
		}
		doc, err := a.engine.AttachFile(arg)
		if err != nil {
			return false, err
		}
		a.printLastMessage()
		fmt.Printf("Attached %s (%s)\n", doc.Name, doc.ID)

	case "/docs":
		a.printDocuments()

	case "/open":
		if arg == "" {
			return false, errors.New("usage: /open <document-id>")
		}
		doc, ok := a.convo.Document(arg)
		if !ok {
			return false, fmt.Errorf("unknown document %q", arg)
		}
		if err := a.engine.SelectDocument(doc.ID); err != nil {
			return false, err
		}
		fmt.Printf("%s: %s\n", doc.Name, doc.URL)

	case "/save":
		fields := strings.Fields(arg)
		if len(fields) != 2 {
			return false, errors.New("usage: /save <document-id> <destination>")
		}
		return false, a.saveDocument(fields[0], fields[1])

	case "/export":
		if arg == "" {
			return false, errors.New("usage: /export <file.html>")
		}
		return false, a.export(arg)

	case "/history":
		return false, a.printHistory(ctx)

	default:
		fmt.Printf("Unknown command %s. /help for commands.\n", cmd)
	}

	return false, nil
}

// login runs the interactive browser flow: start the loopback listener,
// show the hosted login URL, wait for the code, and run the auth pass.
func (a *app) login(ctx context.Context) error {
	cb, err := session.NewCallbackServer(a.cfg.Provider.RedirectURI)
	if err != nil {
		return err
	}
	if err := cb.Start(); err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		cb.Shutdown(shutdownCtx)
	}()

	fmt.Println("Open this URL in your browser to sign in:")
	fmt.Println("  " + a.manager.LoginURL())
	fmt.Println("Waiting for the sign-in to complete...")

	var code string
	select {
	case <-ctx.Done():
		return nil
	case <-time.After(loginWait):
		return errors.New("sign-in timed out")
	case code = <-cb.Code():
	}

	if err := a.manager.Initialize(ctx, code); err != nil {
		return fmt.Errorf("sign-in failed: %w", err)
	}

	fmt.Println("Signed in.")
	return nil
}

// saveDocument copies a locally attached document to dest
func (a *app) saveDocument(id, dest string) error {
	doc, ok := a.convo.Document(id)
	if !ok {
		return fmt.Errorf("unknown document %q", id)
	}

	src, found := strings.CutPrefix(doc.URL, "file://")
	if !found {
		return fmt.Errorf("document %q is not a local file", id)
	}

	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("reading %s: %w", doc.Name, err)
	}
	if err := os.WriteFile(dest, data, 0644); err != nil {
		return fmt.Errorf("saving %s: %w", doc.Name, err)
	}

	fmt.Printf("Saved %s to %s\n", doc.Name, dest)
	return nil
}

// export writes the conversation transcript as HTML
func (a *app) export(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating transcript file: %w", err)
	}
	defer f.Close()

	if err := transcript.Write(f, a.convo.Messages()); err != nil {
		return err
	}

	fmt.Printf("Transcript written to %s\n", path)
	return nil
}

// printHistory shows archived messages from previous runs
func (a *app) printHistory(ctx context.Context) error {
	if a.arch == nil {
		return errors.New("archiving is disabled (set storage.archive_path)")
	}

	msgs, err := a.arch.Recent(ctx, 50)
	if err != nil {
		return err
	}
	if len(msgs) == 0 {
		fmt.Println("No archived messages.")
		return nil
	}

	for _, m := range msgs {
		a.printMessage(m)
	}
	return nil
}

func (a *app) printLastMessage() {
	msgs := a.convo.Messages()
	if len(msgs) == 0 {
		return
	}
	a.printMessage(msgs[len(msgs)-1])
}

func (a *app) printMessage(m conversation.Message) {
	if m.IsLoading {
		return
	}
	label := color.New(color.FgGreen, color.Bold).Sprint("you")
	if m.Sender == conversation.SenderBot {
		label = color.New(color.FgCyan, color.Bold).Sprint("sam")
	}
	fmt.Printf("%s %s %s\n", label, color.HiBlackString(m.Timestamp.Format("15:04")), m.Content)
}

func (a *app) printDocuments() {
	docs := a.convo.Documents()
	if len(docs) == 0 {
		fmt.Println("No documents.")
		return
	}

	fmt.Println("Documents:")
	for _, d := range docs {
		marker := " "
		if d.IsReferenced {
			marker = color.CyanString("*")
		}
		fmt.Printf("  %s %s  %s\n", marker, d.ID, d.Name)
	}
}

func (a *app) printHelp() {
	fmt.Println(`Commands:
  /login                   Sign in via your browser
  /logout                  Sign out and clear stored tokens
  /attach <file>           Attach a local file as a document
  /docs                    List documents
  /open <document-id>      Mark a document referenced and show its location
  /save <document-id> <to> Copy an attached document to a new location
  /export <file.html>      Export the conversation as an HTML transcript
  /history                 Show archived messages from previous runs
  /quit                    Exit`)
}
