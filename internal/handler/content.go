package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
)

// The content endpoints feed the dashboard's home page with sample
// data. Tips and quotes rotate deterministically on the day of year;
// the rest are static placeholders until real sources (command usage
// stats, gateway metrics) are wired in. Responses are cached by the
// Redis response-cache middleware, so none of this needs to be fast.

var tips = []string{
	"Use /help to see all available bot commands!",
	"You can mention the bot to get a quick response.",
	"Set up custom prefixes for different servers.",
	"Use reaction roles to let users self-assign roles.",
	"Enable logging to track server activity.",
	"Schedule messages with the reminder command.",
	"Create custom commands for frequently asked questions.",
	"Set up welcome messages for new members.",
	"Configure auto-moderation to keep your server safe.",
	"Use version control (Git) for all your projects.",
	"Document your code - your future self will thank you.",
	"Break large problems into smaller, manageable pieces.",
	"Join our Discord server for support and updates.",
	"Check out the API documentation for integration options.",
	"Use the Swagger UI to explore the API interactively.",
	"Enable notifications to stay updated on new features.",
	"Plan your tasks at the start of each day.",
	"Automate repetitive tasks whenever possible.",
}

type quote struct {
	Text   string `json:"text"`
	Author string `json:"author"`
	Source string `json:"source,omitempty"`
}

var quotes = []quote{
	{Text: "The best way to predict the future is to create it.", Author: "Peter Drucker"},
	{Text: "Code is like humor. When you have to explain it, it's bad.", Author: "Cory House"},
	{Text: "First, solve the problem. Then, write the code.", Author: "John Johnson"},
	{Text: "Simplicity is the soul of efficiency.", Author: "Austin Freeman"},
	{Text: "Make it work, make it right, make it fast.", Author: "Kent Beck"},
	{Text: "Talk is cheap. Show me the code.", Author: "Linus Torvalds"},
	{Text: "Programs must be written for people to read.", Author: "Harold Abelson", Source: "SICP"},
	{Text: "Quality is not an act, it is a habit.", Author: "Aristotle"},
	{Text: "Stay hungry, stay foolish.", Author: "Steve Jobs", Source: "Stanford Commencement"},
	{Text: "Debugging is twice as hard as writing the code.", Author: "Brian Kernighan"},
	{Text: "Learning never exhausts the mind.", Author: "Leonardo da Vinci"},
	{Text: "The journey of a thousand miles begins with one step.", Author: "Lao Tzu", Source: "Tao Te Ching"},
}

type changelogEntry struct {
	Type        string `json:"type"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Date        string `json:"date"`
}

var changelog = []changelogEntry{
	{"feature", "Dynamic Content Dashboard", "New home page with auto-generated content including tips, stats, and activity feed", "2026-01-05"},
	{"improvement", "WebSocket Performance", "Improved real-time messaging latency by 40%", "2026-01-03"},
	{"fix", "Auth Token Refresh", "Fixed token refresh race condition in concurrent requests", "2026-01-02"},
	{"security", "Security Update", "Updated dependencies to patch known vulnerabilities", "2025-12-25"},
	{"feature", "Trending Commands", "Dashboard now shows trending bot commands", "2025-12-20"},
	{"improvement", "Mobile Responsiveness", "Improved layout for mobile devices", "2025-12-15"},
	{"fix", "Timezone Handling", "Fixed timezone issues in activity timestamps", "2025-12-10"},
	{"feature", "Activity Feed", "Real-time activity feed showing recent events", "2025-12-05"},
}

type trendingItem struct {
	Name   string `json:"name"`
	Count  int64  `json:"count"`
	Unit   string `json:"unit"`
	Trend  string `json:"trend"`
	Change int    `json:"change"`
}

var trending = []trendingItem{
	{"/help", 2847, "uses", "up", 15},
	{"/play", 1923, "uses", "up", 8},
	{"/stats", 1456, "uses", "down", -3},
	{"/weight", 892, "uses", "up", 22},
	{"/remind", 567, "uses", "neutral", 0},
}

type activityEntry struct {
	Type        string `json:"type"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Timestamp   string `json:"timestamp"`
}

// ContentHandler serves the mock dashboard content endpoints.
type ContentHandler struct{}

func NewContentHandler() *ContentHandler { return &ContentHandler{} }

// DailyTip returns the tip of the day, rotating on day of year.
func (h *ContentHandler) DailyTip(c echo.Context) error {
	day := time.Now().UTC().YearDay()
	return c.JSON(http.StatusOK, echo.Map{"content": tips[day%len(tips)]})
}

// Quote returns the quote of the day, rotating on day of year.
func (h *ContentHandler) Quote(c echo.Context) error {
	day := time.Now().UTC().YearDay()
	return c.JSON(http.StatusOK, quotes[day%len(quotes)])
}

// Changelog returns recent changelog entries, newest first.
func (h *ContentHandler) Changelog(c echo.Context) error {
	limit := parseLimit(c.QueryParam("limit"), 5, len(changelog))
	return c.JSON(http.StatusOK, changelog[:limit])
}

// Trending returns the most used bot commands.
func (h *ContentHandler) Trending(c echo.Context) error {
	return c.JSON(http.StatusOK, trending)
}

// Activity returns a recent activity feed with relative timestamps.
func (h *ContentHandler) Activity(c echo.Context) error {
	limit := parseLimit(c.QueryParam("limit"), 10, 10)
	now := time.Now().UTC()
	ago := func(d time.Duration) string { return now.Add(-d).Format(time.RFC3339) }

	activities := []activityEntry{
		{"command", "Command Executed", "User123 used /help in #general", ago(2 * time.Minute)},
		{"user", "New Member", "JohnDoe joined the server", ago(5 * time.Minute)},
		{"message", "Message Milestone", "Server reached 100,000 messages!", ago(10 * time.Minute)},
		{"system", "Bot Restarted", "Scheduled maintenance completed", ago(time.Hour)},
		{"command", "Command Executed", "Alice used /play in #music", ago(3 * time.Hour)},
		{"user", "Member Left", "Bob left the server", ago(4 * time.Hour)},
		{"command", "Command Executed", "Charlie used /stats in #bot-commands", ago(5 * time.Hour)},
		{"system", "Daily Backup", "Automatic backup completed successfully", ago(8 * time.Hour)},
		{"user", "New Member", "Diana joined the server", ago(12 * time.Hour)},
		{"system", "Token Maintenance", "Expired refresh tokens purged", ago(24 * time.Hour)},
	}
	return c.JSON(http.StatusOK, activities[:limit])
}

// Stats returns headline bot statistics.
func (h *ContentHandler) Stats(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"serverCount":   42,
		"totalUsers":    12847,
		"commandsToday": 1523,
		"uptime":        "99.9%",
	})
}

func parseLimit(s string, def, max int) int {
	n := def
	if s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			n = v
		}
	}
	if n > max {
		n = max
	}
	return n
}
