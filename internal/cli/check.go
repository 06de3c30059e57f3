package cli

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"telegram-itmo-schedule/internal/domain/model"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/cobra"
)

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Diagnose a deployed bot",
		Long: `Runs the deployment checklist against the current environment: required
variables, bot identity via getMe, SCHEDULE_JSON validity, the public ops
endpoints, and the webhook binding Telegram reports. Exits non-zero when any
check fails.`,
		RunE: runCheckAll,
	}
}

func runCheckAll(cmd *cobra.Command, args []string) error {
	w := cmd.OutOrStdout()

	checks := []struct {
		name string
		fn   func(io.Writer) bool
	}{
		{"environment", checkEnv},
		{"bot identity", checkBotIdentity},
		{"schedule payload", checkSchedulePayload},
		{"ops endpoints", checkService},
		{"webhook binding", checkWebhookBinding},
	}

	failed := 0
	for _, c := range checks {
		fmt.Fprintf(w, "== %s ==\n", c.name)
		if !c.fn(w) {
			failed++
		}
		fmt.Fprintln(w)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d checks failed", failed, len(checks))
	}
	fmt.Fprintln(w, "All checks passed")
	return nil
}

// baseURL derives the public base URL the same way the bot's config does.
func baseURL() string {
	if app := os.Getenv("RENDER_APP_NAME"); app != "" {
		return "https://" + app + ".onrender.com"
	}
	if app := os.Getenv("RENDER_SERVICE_NAME"); app != "" {
		return "https://" + app + ".onrender.com"
	}
	if u := os.Getenv("WEBHOOK_URL"); u != "" {
		u = strings.TrimSuffix(u, "/")
		return strings.TrimSuffix(u, "/webhook")
	}
	return ""
}

func checkEnv(w io.Writer) bool {
	ok := true

	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	switch {
	case token == "":
		fmt.Fprintln(w, "❌ TELEGRAM_BOT_TOKEN is not set")
		ok = false
	case len(token) < 40:
		fmt.Fprintf(w, "⚠️  TELEGRAM_BOT_TOKEN looks short (%d chars)\n", len(token))
	default:
		fmt.Fprintln(w, "✅ TELEGRAM_BOT_TOKEN is set")
	}

	if baseURL() == "" {
		fmt.Fprintln(w, "❌ no public URL: set RENDER_APP_NAME or WEBHOOK_URL")
		ok = false
	} else {
		fmt.Fprintf(w, "✅ public URL: %s\n", baseURL())
	}

	if os.Getenv("SCHEDULE_JSON") != "" {
		fmt.Fprintln(w, "✅ SCHEDULE_JSON is set")
	} else {
		fmt.Fprintln(w, "⚠️  SCHEDULE_JSON is not set (portal or empty source will serve)")
	}

	if port := os.Getenv("PORT"); port != "" {
		fmt.Fprintf(w, "✅ PORT: %s\n", port)
	} else {
		fmt.Fprintln(w, "⚠️  PORT is not set, the bot defaults to 10000")
	}

	return ok
}

func checkBotIdentity(w io.Writer) bool {
	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		fmt.Fprintln(w, "⚠️  skipped, no token")
		return true
	}
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		fmt.Fprintf(w, "❌ getMe failed: %v\n", err)
		return false
	}
	fmt.Fprintf(w, "✅ @%s (id %d)\n", bot.Self.UserName, bot.Self.ID)
	return true
}

func checkSchedulePayload(w io.Writer) bool {
	payload := os.Getenv("SCHEDULE_JSON")
	if payload == "" {
		fmt.Fprintln(w, "⚠️  skipped, SCHEDULE_JSON is not set")
		return true
	}
	sched, err := model.ParseSchedule([]byte(payload))
	if err != nil {
		fmt.Fprintf(w, "❌ %v\n", err)
		return false
	}
	if sched.Days() == 0 {
		fmt.Fprintln(w, "⚠️  payload is valid but covers no days")
		return true
	}
	fmt.Fprintf(w, "✅ payload covers %d days\n", sched.Days())
	return true
}

func checkService(w io.Writer) bool {
	base := baseURL()
	if base == "" {
		fmt.Fprintln(w, "⚠️  skipped, no public URL")
		return true
	}

	client := &http.Client{Timeout: 10 * time.Second}
	ok := true
	for _, path := range []string{"/", "/health", "/status", "/check-webhook"} {
		resp, err := client.Get(base + path)
		if err != nil {
			fmt.Fprintf(w, "❌ GET %s: %v\n", path, err)
			ok = false
			continue
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			fmt.Fprintf(w, "❌ GET %s: HTTP %d\n", path, resp.StatusCode)
			ok = false
		} else {
			fmt.Fprintf(w, "✅ GET %s\n", path)
		}
	}
	return ok
}

func checkWebhookBinding(w io.Writer) bool {
	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	base := baseURL()
	if token == "" || base == "" {
		fmt.Fprintln(w, "⚠️  skipped, needs a token and a public URL")
		return true
	}

	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		fmt.Fprintf(w, "❌ getMe failed: %v\n", err)
		return false
	}
	info, err := bot.GetWebhookInfo()
	if err != nil {
		fmt.Fprintf(w, "❌ getWebhookInfo failed: %v\n", err)
		return false
	}

	expected := base + "/webhook"
	fmt.Fprintf(w, "   bound URL:    %s\n", info.URL)
	fmt.Fprintf(w, "   expected URL: %s\n", expected)
	fmt.Fprintf(w, "   pending updates: %d\n", info.PendingUpdateCount)
	if info.LastErrorMessage != "" {
		fmt.Fprintf(w, "⚠️  last delivery error: %s\n", info.LastErrorMessage)
	}

	if info.URL != expected {
		fmt.Fprintln(w, "❌ webhook is not bound to this deployment")
		return false
	}
	fmt.Fprintln(w, "✅ webhook bound correctly")
	return true
}
