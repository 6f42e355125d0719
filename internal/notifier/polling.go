package notifier

import (
	"context"
	"net/http"
	"strconv"
	"strings"
)

// CommandHandler is called when a user command is received.
type CommandHandler func(command string) string

type telegramUpdate struct {
	UpdateID int `json:"update_id"`
	Message  *struct {
		Text string `json:"text"`
		Chat struct {
			ID int64 `json:"id"`
		} `json:"chat"`
	} `json:"message"`
}

type getUpdatesRequest struct {
	Offset         int      `json:"offset"`
	Timeout        int      `json:"timeout"`
	AllowedUpdates []string `json:"allowed_updates"`
}

// StartPolling long-polls for commands from the operator chat and replies there.
// Messages from any other chat are dropped. Blocks until ctx is cancelled.
func (t *TelegramNotifier) StartPolling(ctx context.Context, handler CommandHandler) {
	client := &http.Client{Timeout: t.PollTimeout + t.Client.Timeout, Transport: t.Client.Transport}
	offset := 0

	t.log.Info("telegram polling started", "chat_id", t.ChatID)
	for {
		var updates []telegramUpdate
		err := t.call(ctx, client, "getUpdates", getUpdatesRequest{
			Offset:         offset,
			Timeout:        int(t.PollTimeout.Seconds()),
			AllowedUpdates: []string{"message"},
		}, &updates)
		if ctx.Err() != nil {
			t.log.Info("telegram polling stopped")
			return
		}
		if err != nil {
			t.log.Warn("polling failed", "error", err, "retry_in", t.RetryDelay)
			if !sleepCtx(ctx, t.RetryDelay) {
				t.log.Info("telegram polling stopped")
				return
			}
			continue
		}

		for _, u := range updates {
			offset = u.UpdateID + 1
			t.dispatch(ctx, u, handler)
		}
	}
}

func (t *TelegramNotifier) dispatch(ctx context.Context, u telegramUpdate, handler CommandHandler) {
	if u.Message == nil {
		return
	}
	text := normalizeCommand(u.Message.Text)
	if text == "" {
		return
	}
	if chat := strconv.FormatInt(u.Message.Chat.ID, 10); chat != t.ChatID {
		t.log.Warn("ignoring command from unknown chat", "chat_id", chat)
		return
	}

	t.log.Info("received command", "command", text)
	if reply := handler(text); reply != "" {
		if err := t.SendContext(ctx, reply); err != nil {
			t.log.Error("send reply", "error", err)
		}
	}
}

// normalizeCommand trims text and drops the @botname suffix Telegram adds to
// commands in group chats, so "/status@fundbot" becomes "/status".
func normalizeCommand(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return text
	}
	cmd, rest, _ := strings.Cut(text, " ")
	if at := strings.IndexByte(cmd, '@'); at > 0 {
		cmd = cmd[:at]
	}
	if rest == "" {
		return cmd
	}
	return cmd + " " + strings.TrimSpace(rest)
}
