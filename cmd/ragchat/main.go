// Command ragchat is a terminal client for the document question
// answering backend.
//
// Usage:
//
//	ragchat [flags]
//
// Flags:
//
//	-config string  Path to the YAML configuration file (default: ./ragchat.yaml if present)
//	-q string       Ask a single question, print the transcript and exit
//	-chat string    Resume a stored chat by id (requires store.path)
//	-docs string    Restrict a -q question to cited documents matching a glob or id
//	-export string  Write the conversation as JSON to this path on exit
//	-list           List stored chats and exit
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"slices"

	"github.com/fwojciec/ragchat"
	"github.com/fwojciec/ragchat/backend"
	bt "github.com/fwojciec/ragchat/bubbletea"
	"github.com/fwojciec/ragchat/config"
	"github.com/fwojciec/ragchat/i18n"
	ragjson "github.com/fwojciec/ragchat/json"
	"github.com/fwojciec/ragchat/sqlite"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "ragchat: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath = flag.String("config", "", "Path to the YAML configuration file")
		question   = flag.String("q", "", "Ask a single question, print the transcript and exit")
		chatID     = flag.String("chat", "", "Resume a stored chat by id (requires store.path)")
		docs       = flag.String("docs", "", "Restrict a -q question to cited documents matching a glob or id")
		exportPath = flag.String("export", "", "Write the conversation as JSON to this path on exit")
		list       = flag.Bool("list", false, "List stored chats and exit")
	)
	flag.Parse()

	// Handle OS signals for graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	var store *sqlite.Store
	if cfg.Store.Path != "" {
		store, err = sqlite.Open(cfg.Store.Path, sqlite.WithLogger(logger))
		if err != nil {
			return err
		}
		defer store.Close()
	}

	if *list {
		return listChats(ctx, os.Stdout, store)
	}

	tr := i18n.New(cfg.Locale)
	client := backend.New(cfg.Backend.BaseURL,
		backend.WithToken(cfg.Backend.Token),
		backend.WithTimeout(cfg.Backend.Timeout),
		backend.WithLogger(logger),
	)
	chat := ragchat.NewChat(client)

	convOpts := []ragchat.ConversationOption{ragchat.WithTranslator(tr)}
	if store != nil {
		convOpts = append(convOpts, ragchat.WithObserver(store.Observer(ctx)))
	}

	var conv *ragchat.Conversation
	if *question != "" {
		conv, err = openConversation(ctx, store, *chatID, convOpts...)
		if err != nil {
			return err
		}
		logger.Info("asking", zap.String("thread_id", conv.ID()))
		err = ask(ctx, chat, conv, *question, *docs, os.Stdout, tr)
	} else {
		conv, err = runTUI(ctx, chat, store, *chatID, tr, convOpts)
	}

	if *exportPath != "" && conv != nil {
		if serr := ragjson.Save(*exportPath, conv); serr != nil {
			return errors.Join(err, fmt.Errorf("export: %w", serr))
		}
		fmt.Fprintf(os.Stderr, "Conversation exported to %s\n", *exportPath)
	}
	return err
}

// runTUI runs the interactive client and returns the conversation shown
// when it exited.
func runTUI(ctx context.Context, chat *ragchat.Chat, store *sqlite.Store, chatID string, tr *i18n.Translator, convOpts []ragchat.ConversationOption) (*ragchat.Conversation, error) {
	feed := bt.NewFeed()
	defer feed.Close()

	opts := append(slices.Clone(convOpts), ragchat.WithObserver(feed.Observe))
	conv, err := openConversation(ctx, store, chatID, opts...)
	if err != nil {
		return nil, err
	}

	m := bt.New(chat.Send, conv, ragchat.DefaultTheme(),
		bt.WithFeed(feed),
		bt.WithTranslator(tr),
		bt.WithExamples(tr.Examples()),
		bt.WithNewConversation(func() *ragchat.Conversation {
			return ragchat.NewConversation(opts...)
		}),
	)
	final, err := bt.Run(ctx, m)
	if err != nil {
		return final.Conversation(), fmt.Errorf("TUI: %w", err)
	}
	return final.Conversation(), nil
}

// openConversation resumes chatID from store, or starts a new conversation
// when chatID is empty.
func openConversation(ctx context.Context, store *sqlite.Store, chatID string, opts ...ragchat.ConversationOption) (*ragchat.Conversation, error) {
	if chatID == "" {
		return ragchat.NewConversation(opts...), nil
	}
	if store == nil {
		return nil, errors.New("-chat requires store.path to be configured")
	}
	conv, err := store.LoadConversation(ctx, chatID, opts...)
	if err != nil {
		return nil, fmt.Errorf("resume chat: %w", err)
	}
	return conv, nil
}

// ensureDir creates the parent directory of path.
func ensureDir(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create directory for %s: %w", path, err)
	}
	return nil
}
