// Package main provides a tool to seed the database with development data.
//
// It creates a dev user with a session token, a few tags, and bookmarks
// linked to them, so the extension and web UI have something to talk to.
//
// Usage:
//
//	PAGETAGZ_DB_PATH=pagetagz.db go run ./cmd/seed
//	go run ./cmd/seed --email you@example.com
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/pagetagz/pagetagz-server/internal/domain"
	"github.com/pagetagz/pagetagz-server/internal/id"
	"github.com/pagetagz/pagetagz-server/internal/logger"
	"github.com/pagetagz/pagetagz-server/internal/service"
	"github.com/pagetagz/pagetagz-server/internal/store/sqlite"
)

var email = flag.String("email", "dev@pagetagz.local", "Email for the seeded user")

type seedTag struct {
	name        string
	description string
	bookmarks   []seedBookmark
}

type seedBookmark struct {
	url   string
	title string
}

var seedData = []seedTag{
	{
		name:        "Go",
		description: "Language references",
		bookmarks: []seedBookmark{
			{url: "https://go.dev/doc/", title: "Go Documentation"},
			{url: "https://go.dev/blog/", title: "The Go Blog"},
			{url: "https://pkg.go.dev/", title: "Go Packages"},
		},
	},
	{
		name:        "News",
		description: "",
		bookmarks: []seedBookmark{
			{url: "https://news.ycombinator.com/", title: "Hacker News"},
			{url: "https://lobste.rs/", title: "Lobsters"},
		},
	},
	{
		name:        "Reading",
		description: "Longer reads",
		bookmarks:   nil,
	},
}

func main() {
	flag.Parse()

	dbPath := os.Getenv("PAGETAGZ_DB_PATH")
	if dbPath == "" {
		dbPath = "pagetagz.db"
	}

	fmt.Printf("Opening database at: %s\n", dbPath)

	log.SetFlags(0)
	st, err := sqlite.Open(dbPath, logger.Discard().Logger)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer st.Close()

	ctx := context.Background()

	user, err := st.GetUserByEmail(ctx, *email)
	if err != nil {
		user = &domain.User{
			ID:          id.MustGenerate(id.PrefixUser),
			Email:       *email,
			DisplayName: "Dev User",
			CreatedAt:   time.Now().UTC(),
		}
		if err := st.CreateUser(ctx, user); err != nil {
			log.Fatalf("Failed to create user: %v", err)
		}
		fmt.Printf("Created user %s (%s)\n", user.Email, user.ID)
	} else {
		fmt.Printf("Reusing user %s (%s)\n", user.Email, user.ID)
	}

	sessions := service.NewSessionService(st, logger.Discard().Logger)
	session, err := sessions.CreateSession(ctx, user)
	if err != nil {
		log.Fatalf("Failed to create session: %v", err)
	}

	tags := service.NewTagService(st, nil, logger.Discard().Logger)
	bookmarks := service.NewBookmarkService(st, nil, nil, nil, logger.Discard().Logger)

	for _, seed := range seedData {
		tag, err := tags.CreateTag(ctx, user.ID, seed.name, seed.description)
		if err != nil {
			log.Printf("Skipping tag %q: %v", seed.name, err)
			continue
		}
		fmt.Printf("Created tag %s (%s)\n", tag.Name, tag.ID)

		for _, b := range seed.bookmarks {
			bookmark, err := bookmarks.CreateBookmark(ctx, user.ID, service.CreateBookmarkInput{
				URL:    b.url,
				Title:  b.title,
				TagIDs: []string{tag.ID},
			})
			if err != nil {
				log.Printf("  Skipping bookmark %q: %v", b.url, err)
				continue
			}
			fmt.Printf("  Created bookmark %s (%s)\n", bookmark.Title, bookmark.ID)
		}
	}

	fmt.Printf("\nSession token (expires %s):\n%s\n", session.ExpiresAt.Format(time.RFC3339), session.Token)
}
