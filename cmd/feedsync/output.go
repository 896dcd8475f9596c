package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"feedsync/internal/domain"
)

type outputFormat int

const (
	formatText outputFormat = iota
	formatJSON
	formatYAML
)

func (o *cliOptions) format() outputFormat {
	switch {
	case o.jsonOutput:
		return formatJSON
	case o.yamlOutput:
		return formatYAML
	default:
		return formatText
	}
}

var stdout io.Writer = os.Stdout

func writeJSON(value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, string(data))
	return nil
}

func writeYAML(value any) error {
	enc := yaml.NewEncoder(stdout)
	enc.SetIndent(2)
	if err := enc.Encode(value); err != nil {
		return err
	}
	return enc.Close()
}

func writeStructured(format outputFormat, value any) (bool, error) {
	switch format {
	case formatJSON:
		return true, writeJSON(value)
	case formatYAML:
		return true, writeYAML(value)
	default:
		return false, nil
	}
}

func printList(result *domain.ListResult, format outputFormat) error {
	if result == nil {
		return nil
	}
	if done, err := writeStructured(format, result); done {
		return err
	}
	fmt.Fprintf(stdout, "unread=%d total=%d\n", result.UnreadCount, result.Total)
	for _, n := range result.Notifications {
		fmt.Fprintln(stdout, formatNotification(n))
	}
	return nil
}

func printCount(count int, format outputFormat) error {
	collection := domain.Collection{UnreadCount: count}
	payload := map[string]any{"unread_count": count, "display": collection.DisplayCount()}
	if done, err := writeStructured(format, payload); done {
		return err
	}
	fmt.Fprintf(stdout, "unread=%s\n", collection.DisplayCount())
	return nil
}

func printMarkResult(action string, result domain.Collection, format outputFormat) error {
	payload := map[string]any{"action": action, "unread_count": result.UnreadCount}
	if done, err := writeStructured(format, payload); done {
		return err
	}
	fmt.Fprintf(stdout, "%s unread=%d\n", action, result.UnreadCount)
	return nil
}

func printNotification(n domain.Notification, format outputFormat) error {
	if done, err := writeStructured(format, n); done {
		return err
	}
	fmt.Fprintln(stdout, formatNotification(n))
	return nil
}

func printStateChange(change domain.StateChange, format outputFormat) error {
	payload := map[string]any{
		"channel": string(change.To),
		"from":    string(change.From),
		"at":      change.At.UTC().Format(time.RFC3339),
	}
	if change.Err != nil {
		payload["error"] = change.Err.Error()
	}
	if done, err := writeStructured(format, payload); done {
		return err
	}
	line := fmt.Sprintf("channel %s -> %s", change.From, change.To)
	if change.Err != nil {
		line += " (" + change.Err.Error() + ")"
	}
	fmt.Fprintln(stdout, line)
	return nil
}

func formatNotification(n domain.Notification) string {
	marker := "*"
	if n.Read {
		marker = " "
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\t%-7s\t%s\t%s", marker, n.CreatedAt.Local().Format("2006-01-02 15:04"), n.Category, n.ID, n.Title)
	if n.Message != nil && *n.Message != "" {
		fmt.Fprintf(&b, " - %s", *n.Message)
	}
	if n.Link != nil && *n.Link != "" {
		fmt.Fprintf(&b, " <%s>", *n.Link)
	}
	return b.String()
}
