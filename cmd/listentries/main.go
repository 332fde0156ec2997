// Command listentries prints the unread entries of every Feedly category.
//
//	listentries --api-key <token> --user-id <id> [--count 20] [--all]
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"fdly/internal/feedly"
	"fdly/internal/logger"
	"fdly/internal/models"
)

func main() {
	apiKey := flag.String("api-key", os.Getenv("FEEDLY_API_KEY"), "Feedly developer access token")
	userID := flag.String("user-id", os.Getenv("FEEDLY_USER_ID"), "Feedly user id")
	count := flag.Int("count", 20, "entries per category")
	all := flag.Bool("all", false, "include already read entries")
	flag.Parse()

	logger.Init("warn")

	if *apiKey == "" || *userID == "" {
		fmt.Fprintln(os.Stderr, "usage: listentries --api-key <token> --user-id <id>")
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	client := feedly.New(
		models.User{ID: *userID, AuthToken: *apiKey},
		feedly.WithLogger(logger.Component("feedly")),
	)

	opts := feedly.DefaultEntriesOptions()
	opts.Count = *count
	opts.UnreadOnly = !*all

	if err := run(ctx, client, opts, os.Stdout); err != nil {
		logger.Log.Fatal(err)
	}
}

func run(ctx context.Context, client *feedly.Client, opts feedly.EntriesOptions, out io.Writer) error {
	if !client.IsAvailable(ctx) {
		return fmt.Errorf("feedly is not available at %s", client.RootURL())
	}
	if !client.CanAuthenticate(ctx) {
		return fmt.Errorf("could not authenticate user %s", client.User().ID)
	}

	categories, err := client.Categories(ctx)
	if err != nil {
		return err
	}

	labels := make([]string, 0, len(categories))
	for label := range categories {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	for _, label := range labels {
		id := categories[label]
		fmt.Fprintf(out, "==== %s(%s) ====\n", label, id)

		page, err := client.Entries(ctx, id, opts)
		if err != nil {
			return err
		}
		for _, entry := range page.Entries {
			fmt.Fprintf(out, "%s\n\t%s\n", entry.Title, entry.ID)
		}
	}
	return nil
}
