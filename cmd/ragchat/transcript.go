package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fwojciec/ragchat"
	bt "github.com/fwojciec/ragchat/bubbletea"
	"github.com/fwojciec/ragchat/glob"
	"github.com/fwojciec/ragchat/goldmark"
	"github.com/fwojciec/ragchat/sqlite"
)

// ask runs a single turn and prints it. A non-empty docs pattern restricts
// retrieval to documents already cited in conv.
func ask(ctx context.Context, chat *ragchat.Chat, conv *ragchat.Conversation, question, docs string, w io.Writer, tr bt.Translator) error {
	var ids []int
	if docs != "" {
		sel, err := glob.Select(conv.Documents(), docs)
		if err != nil {
			return err
		}
		if len(sel) == 0 {
			return fmt.Errorf("no cited document matches %q", docs)
		}
		ids = glob.IDs(sel)
	}

	turn, err := chat.Send(ctx, conv, question, ragchat.WithDocuments(ids))
	if err != nil {
		return err
	}
	if err := writeTranscript(w, []ragchat.Message{turn.User(), turn.Reply()}, tr, goldmark.DefaultWidth); err != nil {
		return err
	}
	return turn.Err()
}

// writeTranscript renders msgs the way the TUI shows them.
func writeTranscript(w io.Writer, msgs []ragchat.Message, tr bt.Translator, width int) error {
	theme := ragchat.DefaultTheme()
	styles := bt.NewStyles(theme)
	for i, msg := range msgs {
		var block bt.MessageBlock
		switch msg.Role {
		case ragchat.RoleUser:
			block = bt.NewUserMessageBlock(msg, styles)
		case ragchat.RoleAssistant:
			block = bt.NewAssistantBlock(msg, theme, styles, tr)
		default:
			continue
		}
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, trimLines(block.View(width))+"\n"); err != nil {
			return err
		}
	}
	return nil
}

// trimLines drops the padding lipgloss adds to wrapped lines.
func trimLines(s string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " ")
	}
	return strings.Join(lines, "\n")
}

// listChats prints stored chats, most recently updated first.
func listChats(ctx context.Context, w io.Writer, store *sqlite.Store) error {
	if store == nil {
		return errors.New("-list requires store.path to be configured")
	}
	chats, err := store.ListConversations(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tUPDATED\tMESSAGES\tTITLE")
	for _, c := range chats {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", c.ID, c.UpdatedAt.Local().Format("2006-01-02 15:04"), c.Messages, c.Title)
	}
	return tw.Flush()
}
