// Command client is a headless collaborative editor. It opens one file,
// relays keystrokes typed on stdin into the document and prints edits
// arriving from other collaborators. Useful for exercising the sync path
// without a UI.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"inkwell/internal/config"
	"inkwell/internal/delta"
	"inkwell/internal/domain/models"
	"inkwell/internal/editor"
	"inkwell/internal/realtime"
	"inkwell/internal/repository/postgres"
	"inkwell/internal/state"
	syncpkg "inkwell/internal/sync"
)

func main() {
	_ = godotenv.Load()

	var (
		serverURL   = flag.String("server", "ws://localhost:8080/ws", "realtime server websocket URL")
		token       = flag.String("token", os.Getenv("INKWELL_TOKEN"), "bearer token")
		fileID      = flag.String("file", "", "file id to open")
		workspaceID = flag.String("workspace", "", "workspace id of the file")
		folderID    = flag.String("folder", "", "folder id of the file")
		userID      = flag.String("user", "", "user id to edit as")
		name        = flag.String("name", "headless", "display name shown on the cursor")
	)
	flag.Parse()

	if *fileID == "" || *workspaceID == "" || *folderID == "" || *userID == "" {
		flag.Usage()
		os.Exit(2)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	cfg := config.Load()
	tunables, err := config.LoadTunables()
	if err != nil {
		log.Fatalf("load tunables: %v", err)
	}

	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}
	defer pool.Close()

	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: postgres.NewTableNames(cfg.TablePrefix),
		Logger: logger,
	}

	dialer := &realtime.SharedDialer{URL: *serverURL + "?token=" + *token, Logger: logger}
	conn, err := dialer.Connect(ctx)
	if err != nil {
		log.Fatalf("connect realtime server: %v", err)
	}
	defer conn.Close()

	store := state.NewStore()
	co := syncpkg.NewCoordinator(syncpkg.CoordinatorConfig{
		Store:      store,
		Workspaces: postgres.NewWorkspaceRepository(repoConfig),
		Folders:    postgres.NewFolderRepository(repoConfig),
		Files:      postgres.NewFileRepository(repoConfig),
		Realtime:   conn,
		Logger:     logger,
		Debounce:   tunables.DebounceDelay,
	})

	feed := syncpkg.NewFeedConsumer(store, nil, logger, func() string { return *fileID })
	feed.Start(conn)
	defer feed.Stop()

	buf := editor.NewBuffer()
	buf.OnContentChange(func(change *delta.Delta, source editor.Source) {
		if source == editor.SourceAPI {
			fmt.Printf("\r[remote] %q\n> ", buf.GetContents().PlainText())
		}
	})

	session, err := co.Open(ctx, models.KindFile, *fileID, *workspaceID, *folderID, buf,
		models.PresenceEntry{UserID: *userID, DisplayName: *name})
	if err != nil {
		log.Fatalf("open file: %v", err)
	}
	defer session.Close()

	fmt.Printf("opened %s: %q\n", *fileID, buf.GetContents().PlainText())
	fmt.Println("type a line to append it; ctrl-d to quit")

	// Each stdin line becomes one append at the end of the document.
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Print("> ")
	for scanner.Scan() {
		line := scanner.Text()
		if line != "" {
			buf.ApplyUser(delta.New().Retain(buf.Length(), nil).Insert(line + "\n", nil))
		}
		fmt.Print("> ")
	}

	session.Flush()
	fmt.Println()
}
