package main

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"
)

var (
	queueType  string
	timeFilter string
	kinds      string
	community  string
	page       int
	pageSize   int
)

var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "List a moderation queue",
	Long: `List the contents of a moderation queue.

Queue types: removed, spammed, reported, unmoderated, edited`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return listQueue()
	},
}

func init() {
	queueCmd.Flags().StringVar(&queueType, "type", "reported", "Queue type: removed, spammed, reported, unmoderated, edited")
	queueCmd.Flags().StringVar(&timeFilter, "time", "newest first", "Sort order: 'newest first' or 'oldest first'")
	queueCmd.Flags().StringVar(&kinds, "kinds", "posts and comments", "Item kinds: posts, comments, or 'posts and comments'")
	queueCmd.Flags().StringVar(&community, "community", "all", "Community scope (name, or 'all' for every community you moderate)")
	queueCmd.Flags().IntVar(&page, "page", 1, "Page number")
	queueCmd.Flags().IntVar(&pageSize, "page-size", 25, "Items per page")
}

type queueItem struct {
	Kind string `json:"kind"`
	Post *struct {
		ID             string `json:"id"`
		Title          string `json:"title"`
		AuthorUsername string `json:"author_username"`
		CommunityName  string `json:"community_name"`
	} `json:"post,omitempty"`
	Comment *struct {
		ID             string `json:"id"`
		Body           string `json:"body"`
		AuthorUsername string `json:"author_username"`
		CommunityName  string `json:"community_name"`
	} `json:"comment,omitempty"`
	UserVote string `json:"userVote"`
}

func listQueue() error {
	params := url.Values{}
	params.Set("queue_type", queueType)
	params.Set("time_filter", timeFilter)
	params.Set("kinds", kinds)
	params.Set("community", community)
	params.Set("page", strconv.Itoa(page))
	params.Set("page_size", strconv.Itoa(pageSize))

	body, err := doRequest("GET", "/api/v1/mod/queue?"+params.Encode(), nil)
	if err != nil {
		return err
	}

	if output == "json" {
		fmt.Println(string(body))
		return nil
	}

	var resp struct {
		Items []queueItem `json:"items"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if len(resp.Items) == 0 {
		fmt.Println("Queue is empty.")
		return nil
	}

	for _, item := range resp.Items {
		vote := ""
		if item.UserVote != "" && item.UserVote != "none" {
			vote = "  [voted " + item.UserVote + "]"
		}
		switch item.Kind {
		case "post":
			if item.Post != nil {
				fmt.Printf("post     %s  [%s] %s (by %s)%s\n",
					item.Post.ID, item.Post.CommunityName, truncate(item.Post.Title, 60), item.Post.AuthorUsername, vote)
			}
		case "comment":
			if item.Comment != nil {
				fmt.Printf("comment  %s  [%s] %s (by %s)%s\n",
					item.Comment.ID, item.Comment.CommunityName, truncate(item.Comment.Body, 60), item.Comment.AuthorUsername, vote)
			}
		}
	}
	fmt.Printf("\n%d item(s), page %d\n", len(resp.Items), page)

	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
