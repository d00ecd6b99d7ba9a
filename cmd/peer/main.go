package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/astromechza/docrelay/pkg/client"
	"github.com/astromechza/docrelay/pkg/presence"
	"github.com/astromechza/docrelay/pkg/relay"
)

// peer is a terminal participant: it joins one document, prints what other
// participants do, and relays each stdin line as a content change.
func main() {
	if err := mainInner(); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}

func mainInner() error {
	urlVar := flag.String("url", "ws://localhost:8080/ws", "the relay websocket endpoint")
	docVar := flag.String("doc", "", "the document id to join")
	nameVar := flag.String("name", fmt.Sprintf("peer-%d", os.Getpid()), "the display name presented to other participants")
	colorVar := flag.String("color", "#4f46e5", "the display color presented to other participants")
	flag.Parse()

	if *docVar == "" {
		return errors.New("a -doc id is required")
	}

	cfg := client.DefaultConfig(*urlVar)
	cfg.Name = *nameVar
	cfg.Color = *colorVar
	c := client.New(cfg)

	c.OnUsersList(func(users []presence.Participant) {
		slog.Info("already editing", "count", len(users))
		for _, u := range users {
			slog.Info("peer", "id", u.ID, "name", u.Name)
		}
	})
	c.OnUserJoined(func(u presence.Participant) {
		slog.Info("peer joined", "id", u.ID, "name", u.Name)
	})
	c.OnUserLeft(func(id string) {
		slog.Info("peer left", "id", id)
	})
	c.OnContentChanged(func(ev relay.ContentChanged) {
		slog.Info("content changed", "from", ev.UserID, "#content", len(ev.Content))
		fmt.Println(ev.Content)
	})
	c.OnTitleChanged(func(ev relay.TitleChanged) {
		slog.Info("title changed", "from", ev.UserID, "title", ev.Title)
	})
	c.OnCursorMoved(func(ev relay.CursorMoved) {
		slog.Info("cursor moved", "from", ev.UserID, "position", ev.Position)
	})
	c.OnError(func(err error) {
		slog.Error("client error", "err", err)
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := c.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer c.Close()

	if err := c.Join(ctx, *docVar); err != nil {
		return fmt.Errorf("failed to join: %w", err)
	}
	slog.Info("joined", "doc", *docVar)

	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(os.Stdin)
		for sc.Scan() {
			lines <- sc.Text()
		}
	}()

	exit := make(chan os.Signal, 1) // we need to reserve to buffer size 1, so the notifier are not blocked
	signal.Notify(exit, syscall.SIGINT, syscall.SIGTERM)

	var content string
	for {
		select {
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if content == "" {
				content = line
			} else {
				content += "\n" + line
			}
			if err := c.SendContent(ctx, *docVar, content); err != nil {
				return fmt.Errorf("failed to send content: %w", err)
			}
			if err := c.MoveCursor(ctx, *docVar, len(content)); err != nil {
				return fmt.Errorf("failed to report cursor: %w", err)
			}
		case sig := <-exit:
			slog.Info("Signal caught", "sig", sig)
			return nil
		}
	}
}
