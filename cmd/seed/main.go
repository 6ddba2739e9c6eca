package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/pulsefeed/pulsefeed/internal/client"
)

var users = []struct {
	name  string
	email string
}{
	{"Ada Lovelace", "ada@example.com"},
	{"Grace Hopper", "grace@example.com"},
	{"Alan Turing", "alan@example.com"},
	{"Katherine Johnson", "katherine@example.com"},
	{"Edsger Dijkstra", "edsger@example.com"},
}

var posts = []string{
	"Just shipped my first Go service to production. The deploy took 12 seconds.",
	"Hot take: a boring database schema is the best feature your app can have.",
	"Spent the morning chasing a race condition. It was a missing unique index all along.",
	"What's everyone reading this week? Looking for systems design recommendations.",
	"Finally wrote down our incident runbook. Future me says thanks.",
	"Reminder: your backup strategy is only as good as your last restore test.",
	"Migrated the feed service off the ORM today. Queries are readable again.",
	"TIL you can attach a rate limit to almost anything and sleep better at night.",
	"Pair programming works best when both people can reach the keyboard.",
	"The best code review comment I ever got was 'what happens when this is empty?'",
}

var comments = []string{
	"Great post! This is exactly what I needed to read today.",
	"I disagree with the premise here, but it's well argued.",
	"Has anyone benchmarked this? I'd love to see numbers.",
	"This reminds me of a production incident we had last year.",
	"Interesting take. I wonder how this scales.",
	"I've been working on something similar. Happy to compare notes!",
	"Can you share more details about the implementation?",
	"Would love a follow-up post on this topic.",
	"Tried this today and it works great.",
	"Not sure I agree, but appreciate the perspective.",
}

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "Pulsefeed server URL")
	flag.Parse()

	log.Printf("Seeding database at %s...\n", *baseURL)

	// Register all users and keep their authenticated clients
	var clients []*client.Client
	for _, u := range users {
		c := client.New(*baseURL)
		err := c.Register(u.name, u.email, "password123")
		if errors.Is(err, client.ErrAlreadyRegistered) {
			err = c.Login(u.email, "password123")
		}
		if err != nil {
			log.Fatalf("register %s: %v", u.email, err)
		}
		log.Printf("✓ Registered: %s", u.name)
		clients = append(clients, c)
	}

	// Create posts from random users
	var postIDs []string
	for _, text := range posts {
		idx := rand.Intn(len(clients))
		post, err := clients[idx].CreatePost(text)
		if err != nil {
			log.Printf("✗ Failed to post: %v", err)
			continue
		}
		postIDs = append(postIDs, post.ID)
		log.Printf("✓ Posted by %s: %.40s...", users[idx].name, text)

		// Small delay to spread out created_at times
		time.Sleep(50 * time.Millisecond)
	}

	// Comment from random users
	for _, postID := range postIDs {
		numComments := rand.Intn(4) + 1
		for i := 0; i < numComments; i++ {
			idx := rand.Intn(len(clients))
			text := comments[rand.Intn(len(comments))]
			if _, err := clients[idx].AddComment(postID, text); err != nil {
				log.Printf("✗ Failed to comment: %v", err)
			}
		}
	}
	log.Printf("✓ Added comments")

	// Each user likes some random posts; duplicate likes are rejected
	// by the server, so just skip them.
	for _, c := range clients {
		numLikes := rand.Intn(len(postIDs)/2) + 1
		for i := 0; i < numLikes; i++ {
			postID := postIDs[rand.Intn(len(postIDs))]
			if _, err := c.Like(postID); err != nil {
				continue
			}
		}
	}
	log.Printf("✓ Added likes")

	stats, err := client.New(*baseURL).Stats()
	if err != nil {
		log.Fatalf("stats: %v", err)
	}

	fmt.Println("\n=== Seed Complete ===")
	fmt.Printf("Users:    %d\n", stats["users"])
	fmt.Printf("Posts:    %d\n", stats["posts"])
	fmt.Printf("Comments: %d\n", stats["comments"])
	fmt.Println("\nBrowse with: pulsefeed read --url", *baseURL)
}
