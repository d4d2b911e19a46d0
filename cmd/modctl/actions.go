package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var removalReason string

var actionCmd = &cobra.Command{
	Use:   "action <remove|spam|report|approve> <item_type> <item_id>",
	Short: "Apply a moderation transition to an item",
	Long: `Apply a moderation transition to a post or comment.

Examples:
  modctl action remove post 4f1c...  --reason "Off topic"
  modctl action approve comment 9a2b...`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return applyAction(args[0], args[1], args[2])
	},
}

var historyCmd = &cobra.Command{
	Use:   "history <item_type> <item_id>",
	Short: "Show an item's moderation history, oldest first",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return showHistory(args[0], args[1])
	},
}

func init() {
	actionCmd.Flags().StringVar(&removalReason, "reason", "", "Removal reason (required by some communities for remove/spam)")
}

func applyAction(action, itemType, itemID string) error {
	switch action {
	case "remove", "spam", "report", "approve":
	default:
		return fmt.Errorf("unknown action %q: want remove, spam, report or approve", action)
	}

	payload := map[string]any{
		"item_id":   itemID,
		"item_type": itemType,
	}
	if removalReason != "" {
		payload["removal_reason"] = removalReason
	}

	body, err := doRequest("POST", "/api/v1/mod/items/"+action, payload)
	if err != nil {
		return err
	}

	if output == "json" {
		fmt.Println(string(body))
		return nil
	}

	var resp struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	fmt.Println(resp.Message)

	return nil
}

func showHistory(itemType, itemID string) error {
	body, err := doRequest("GET", "/api/v1/mod/items/"+itemType+"/"+itemID+"/history", nil)
	if err != nil {
		return err
	}

	if output == "json" {
		fmt.Println(string(body))
		return nil
	}

	var resp struct {
		Events []struct {
			State     string `json:"state"`
			Actor     string `json:"actor"`
			Reason    string `json:"reason"`
			CreatedAt string `json:"created_at"`
		} `json:"events"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if len(resp.Events) == 0 {
		fmt.Println("No moderation history.")
		return nil
	}

	for _, ev := range resp.Events {
		line := fmt.Sprintf("%s  %-9s by %s", ev.CreatedAt, ev.State, ev.Actor)
		if ev.Reason != "" {
			line += "  (" + ev.Reason + ")"
		}
		fmt.Println(line)
	}

	return nil
}
