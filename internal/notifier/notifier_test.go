package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ZeitFund/internal/logger"
	"ZeitFund/internal/model"
)

var ztg = Units{Symbol: "ZTG", Decimals: 10}

func TestUnits_Format(t *testing.T) {
	assert.Equal(t, "12.5 ZTG", ztg.Format(math.NewInt(125_000_000_000)))
	assert.Equal(t, "0.0000000001 ZTG", ztg.Format(math.NewInt(1)))
	assert.Equal(t, "0 ZTG", ztg.Format(math.ZeroInt()))
}

func TestFormatFundStatus(t *testing.T) {
	s := model.FundSummary{
		Name:             "alpha",
		Phase:            model.PhaseCollecting,
		FundingGoal:      math.NewInt(1000),
		TotalContributed: math.NewInt(600),
		TotalShares:      math.NewInt(600),
		Depositors:       2,
		VaultBalance:     math.ZeroInt(),
	}
	out := FormatFundStatus(s, Units{Symbol: "ZTG"})
	assert.Contains(t, out, "collecting")
	assert.Contains(t, out, "Contributed: 600 ZTG (60.00%)")
	assert.Contains(t, out, "Depositors: 2")
}

func TestFormatClaimable(t *testing.T) {
	out := FormatClaimable("alice", math.NewInt(600), math.NewInt(60), time.Time{}, Units{Symbol: "ZTG"})
	assert.Contains(t, out, "Claimable: 60 ZTG")
	assert.Contains(t, out, "never")
}

func newTestTelegram(t *testing.T, h http.Handler) *TelegramNotifier {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	tn := NewTelegramNotifier("token", "42", "", logger.Nop())
	tn.BaseURL = srv.URL
	tn.PollTimeout = time.Second
	tn.RetryDelay = 50 * time.Millisecond
	return tn
}

func writeOK(w http.ResponseWriter, result string) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"ok":true,"result":` + result + `}`))
}

func TestTelegramNotifier_Send(t *testing.T) {
	var got sendMessageRequest
	tn := newTestTelegram(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bottoken/sendMessage", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeOK(w, `{}`)
	}))

	require.NoError(t, tn.Send("hello"))
	assert.Equal(t, "42", got.ChatID)
	assert.Equal(t, "hello", got.Text)
	assert.Equal(t, "HTML", got.ParseMode)
}

func TestTelegramNotifier_SendReportsAPIError(t *testing.T) {
	tn := newTestTelegram(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok":false,"description":"Bad Request: chat not found"}`))
	}))

	err := tn.Send("hello")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "sendMessage", apiErr.Method)
	assert.Contains(t, apiErr.Description, "chat not found")
}

func TestTelegramNotifier_SendWithRetryStopsOnCancel(t *testing.T) {
	var calls int32
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	tn := newTestTelegram(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		cancel()
		w.WriteHeader(http.StatusBadGateway)
	}))

	err := tn.SendWithRetry(ctx, "hello", 3)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestStartPolling_AnswersOnlyTheOperatorChat(t *testing.T) {
	var polls int32
	var mu sync.Mutex
	var commands []string
	replies := make(chan sendMessageRequest, 4)

	mux := http.NewServeMux()
	mux.HandleFunc("/bottoken/getUpdates", func(w http.ResponseWriter, r *http.Request) {
		var req getUpdatesRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if atomic.AddInt32(&polls, 1) == 1 {
			assert.Equal(t, 0, req.Offset)
			writeOK(w, `[
				{"update_id": 7, "message": {"text": "/history alice", "chat": {"id": 999}}},
				{"update_id": 8, "message": {"text": "/claimable@fundbot alice", "chat": {"id": 42}}}
			]`)
			return
		}
		assert.Equal(t, 9, req.Offset)
		<-r.Context().Done()
	})
	mux.HandleFunc("/bottoken/sendMessage", func(w http.ResponseWriter, r *http.Request) {
		var msg sendMessageRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&msg))
		replies <- msg
		writeOK(w, `{}`)
	})
	tn := newTestTelegram(t, mux)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		tn.StartPolling(ctx, func(cmd string) string {
			mu.Lock()
			commands = append(commands, cmd)
			mu.Unlock()
			return "ok: " + cmd
		})
		close(done)
	}()

	select {
	case msg := <-replies:
		assert.Equal(t, "42", msg.ChatID)
		assert.Equal(t, "ok: /claimable alice", msg.Text)
	case <-time.After(5 * time.Second):
		t.Fatal("no reply sent")
	}
	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("polling did not stop")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"/claimable alice"}, commands)
}

func TestStartPolling_BacksOffOnAPIError(t *testing.T) {
	var polls int32
	tn := newTestTelegram(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&polls, 1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"ok":false,"error_code":401,"description":"Unauthorized"}`))
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	tn.StartPolling(ctx, func(string) string { return "" })

	n := atomic.LoadInt32(&polls)
	assert.GreaterOrEqual(t, n, int32(2))
	assert.LessOrEqual(t, n, int32(12))
}

func TestNormalizeCommand(t *testing.T) {
	assert.Equal(t, "/status", normalizeCommand("  /status@fundbot "))
	assert.Equal(t, "/claimable alice", normalizeCommand("/claimable@fundbot   alice"))
	assert.Equal(t, "/shares bob", normalizeCommand("/shares bob"))
	assert.Equal(t, "hello @you", normalizeCommand("hello @you"))
	assert.Equal(t, "", normalizeCommand("   "))
}

func TestUnits_Parse(t *testing.T) {
	v, err := ztg.Parse("12.5")
	require.NoError(t, err)
	assert.Equal(t, int64(125_000_000_000), v.Int64())

	v, err = Units{Symbol: "ZTG"}.Parse("1000")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), v.Int64())

	_, err = Units{Symbol: "ZTG", Decimals: 2}.Parse("0.001")
	assert.Error(t, err)

	_, err = ztg.Parse("ten")
	assert.Error(t, err)

	_, err = ztg.Parse("1e80")
	assert.ErrorContains(t, err, "too large")
}
