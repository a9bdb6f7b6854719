package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"maitred/internal/api"
	"maitred/internal/chat"
	"maitred/internal/config"
	"maitred/internal/database"
	"maitred/internal/storage"
)

var (
	configFile = flag.String("config", "configs/config.yaml", "Path to configuration file")
	logFile    = flag.String("log", "", "Write logs to this file (the terminal is owned by the UI)")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Printf("Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	// Anything written to the terminal would corrupt the UI.
	logOut := io.Discard
	if *logFile != "" {
		f, err := tea.LogToFile(*logFile, "maitredctl")
		if err != nil {
			fmt.Printf("Error opening log file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		logOut = f
	}
	log.SetOutput(logOut)

	if err := database.InitDB(cfg.Storage.Driver, cfg.Storage.DSN); err != nil {
		fmt.Printf("Error opening session store: %v\n", err)
		os.Exit(1)
	}
	defer database.CloseDB()

	store, err := storage.NewStore(database.GetDB())
	if err != nil {
		fmt.Printf("Error opening session store: %v\n", err)
		os.Exit(1)
	}
	session := storage.NewSession(store)
	if _, err := session.Token(); err != nil {
		fmt.Println("Not signed in. Run `maitred login <email> <password>` first.")
		os.Exit(1)
	}

	client, err := api.NewClient(cfg.Backend.BaseURL, session,
		api.WithTimeout(cfg.Backend.Timeout),
		api.WithRestaurantCache(session, cfg.Dashboard.CacheTTL),
		api.WithLogger(log.New(logOut, "[api] ", log.LstdFlags)),
	)
	if err != nil {
		fmt.Printf("Error creating backend client: %v\n", err)
		os.Exit(1)
	}

	var chatClient *chat.Client
	if cfg.Chat.URL != "" {
		chatClient, err = chat.NewClient(cfg.Chat.URL, session,
			chat.WithNamespace(cfg.Chat.Namespace),
			chat.WithBackend(client),
			chat.WithTypingTimeout(cfg.Chat.TypingTimeout),
			chat.WithReconnect(cfg.Chat.ReconnectAttempts, 0, 0),
			chat.WithLogger(log.New(logOut, "[chat] ", log.LstdFlags)),
		)
		if err != nil {
			fmt.Printf("Error creating chat client: %v\n", err)
			os.Exit(1)
		}
		// Connection failures surface in the chat view through State.LastError.
		go chatClient.Connect(context.Background())
		defer chatClient.Close()
	}

	var chatPort Chat
	if chatClient != nil {
		chatPort = chatClient
	}

	m := initialModel(client, chatPort, cfg.Dashboard.RestaurantSlug, cfg.Dashboard.PollInterval, cfg.Backend.Timeout)
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Printf("Error running program: %v", err)
		os.Exit(1)
	}
}
