package telegram

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"meal-scheduler/internal/clipper"
	"meal-scheduler/internal/config"
	"meal-scheduler/internal/loader"
	"meal-scheduler/internal/plan"
	"meal-scheduler/internal/projection"
	"meal-scheduler/internal/scheduler"
	"meal-scheduler/pkg/logger"
)

// Bot wraps the Telegram API around the scheduling commands.
type Bot struct {
	api       *tgbotapi.BotAPI
	scheduler *scheduler.Scheduler
	clipper   *clipper.Clipper
	cfg       *config.Config
	log       *logger.Logger
}

// NewBot initializes the Telegram Bot.
func NewBot(cfg *config.Config, sched *scheduler.Scheduler, clip *clipper.Clipper, log *logger.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram api: %w", err)
	}

	log.Infow("Authorized on telegram", "account", api.Self.UserName)

	return &Bot{
		api:       api,
		scheduler: sched,
		clipper:   clip,
		cfg:       cfg,
		log:       log,
	}, nil
}

// Run polls for updates until the context is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	updateCfg := tgbotapi.NewUpdate(0)
	updateCfg.Timeout = 30
	updates := b.api.GetUpdatesChan(updateCfg)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update := <-updates:
			if update.Message == nil {
				continue
			}
			if update.Message.From.ID != b.cfg.TelegramAllowUserID {
				b.log.Warnw("Unauthorized access attempt",
					"user_id", update.Message.From.ID, "username", update.Message.From.UserName)
				continue
			}
			go b.processMessage(update.Message)
		}
	}
}

func (b *Bot) processMessage(msg *tgbotapi.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	text := strings.TrimSpace(msg.Text)
	command, arg := splitCommand(text)

	// A bare URL is a clip request.
	if strings.HasPrefix(text, "http://") || strings.HasPrefix(text, "https://") {
		command, arg = "/clip", text
	}

	userID := fmt.Sprintf("%d", msg.From.ID)

	switch command {
	case "/plan":
		b.handlePlan(ctx, msg.Chat.ID, userID, arg)
	case "/weeks":
		b.handleWeeks(ctx, msg.Chat.ID, userID)
	case "/week":
		b.handleWeek(ctx, msg.Chat.ID, userID, arg)
	case "/shop":
		b.handleShop(ctx, msg.Chat.ID, userID, arg)
	case "/redo":
		b.handleRedo(ctx, msg.Chat.ID, userID, arg)
	case "/redoall":
		b.handleRedoAll(ctx, msg.Chat.ID, userID, arg)
	case "/clip":
		b.handleClip(ctx, msg.Chat.ID, arg)
	default:
		b.send(msg.Chat.ID, helpText)
	}
}

const helpText = `🍽 *Meal Scheduler*

/plan N - generate N weeks of meals
/weeks - list your scheduled weeks
/week N - show one week in detail
/shop N - shopping list for a week
/redo N - regenerate one upcoming week
/redoall confirm - regenerate every upcoming week
/clip URL - import a recipe from the web`

func splitCommand(text string) (string, string) {
	parts := strings.SplitN(text, " ", 2)
	command := parts[0]
	if i := strings.Index(command, "@"); i >= 0 {
		command = command[:i]
	}
	if len(parts) == 2 {
		return command, strings.TrimSpace(parts[1])
	}
	return command, ""
}

func (b *Bot) handlePlan(ctx context.Context, chatID int64, userID, arg string) {
	weekCount, err := strconv.Atoi(arg)
	if err != nil || weekCount < 1 {
		b.send(chatID, "Usage: /plan N (number of weeks, e.g. /plan 3)")
		return
	}

	statusID := b.send(chatID, "🧑‍🍳 *Thinking...* \n(Filling your weeks from the recipe pool)")

	summary, err := b.scheduler.GenerateMultiWeek(ctx, userID, weekCount)
	if err != nil {
		b.edit(chatID, statusID, commandErrorText(err))
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("✅ *Generated %d weeks*\n\n", summary.TotalWeeks))
	sb.WriteString(formatWeekView(summary.FirstWeek))
	b.edit(chatID, statusID, sb.String())
}

func (b *Bot) handleWeeks(ctx context.Context, chatID int64, userID string) {
	weeks, err := b.scheduler.ListWeeks(ctx, userID)
	if err != nil {
		b.send(chatID, commandErrorText(err))
		return
	}
	b.send(chatID, formatWeekList(weeks))
}

func (b *Bot) handleWeek(ctx context.Context, chatID int64, userID, arg string) {
	view, err := b.resolveWeek(ctx, userID, arg)
	if err != nil {
		b.send(chatID, commandErrorText(err))
		return
	}
	if view == nil {
		b.send(chatID, "🤷 No such week. Try /weeks first.")
		return
	}
	b.send(chatID, formatWeekView(view))
}

func (b *Bot) handleShop(ctx context.Context, chatID int64, userID, arg string) {
	view, err := b.resolveWeek(ctx, userID, arg)
	if err != nil {
		b.send(chatID, commandErrorText(err))
		return
	}
	if view == nil {
		b.send(chatID, "🤷 No such week. Try /weeks first.")
		return
	}
	list, err := b.scheduler.GetShoppingList(ctx, view.WeekID)
	if err != nil {
		b.send(chatID, commandErrorText(err))
		return
	}
	b.send(chatID, formatShoppingList(view, list))
}

func (b *Bot) handleRedo(ctx context.Context, chatID int64, userID, arg string) {
	target, err := b.resolveWeek(ctx, userID, arg)
	if err != nil {
		b.send(chatID, commandErrorText(err))
		return
	}
	if target == nil {
		b.send(chatID, "🤷 No such week. Try /weeks first.")
		return
	}

	statusID := b.send(chatID, "🔄 *Regenerating week...*")
	view, err := b.scheduler.RegenerateWeek(ctx, userID, target.WeekID)
	if err != nil {
		b.edit(chatID, statusID, commandErrorText(err))
		return
	}
	b.edit(chatID, statusID, "✅ *Week regenerated*\n\n"+formatWeekView(view))
}

func (b *Bot) handleRedoAll(ctx context.Context, chatID int64, userID, arg string) {
	statusID := b.send(chatID, "🔄 *Regenerating upcoming weeks...*")
	batch, err := b.scheduler.RegenerateAllFuture(ctx, userID, arg == "confirm")
	if err != nil {
		if errors.Is(err, plan.ErrConfirmationRequired) {
			b.edit(chatID, statusID, "⚠️ This replaces every upcoming week. Send */redoall confirm* to proceed.")
			return
		}
		b.edit(chatID, statusID, commandErrorText(err))
		return
	}
	b.edit(chatID, statusID, formatBatchResult(batch))
}

func (b *Bot) handleClip(ctx context.Context, chatID int64, url string) {
	if url == "" {
		b.send(chatID, "Usage: /clip URL")
		return
	}
	statusID := b.send(chatID, "✂️ *Clipping recipe...* \n(Extracting and saving to your pool)")

	rec, err := b.clipper.ClipURL(ctx, url)
	if err != nil {
		b.edit(chatID, statusID, commandErrorText(err))
		return
	}
	b.edit(chatID, statusID, fmt.Sprintf("✅ *Recipe Saved!*\n\n*Title:* %s\n*Course:* %s", rec.Title, rec.CourseType))
}

// resolveWeek turns a user argument into a week view: a 1-based position from
// /weeks, or a raw week id.
func (b *Bot) resolveWeek(ctx context.Context, userID, arg string) (*projection.WeekView, error) {
	if n, err := strconv.Atoi(arg); err == nil {
		weeks, err := b.scheduler.ListWeeks(ctx, userID)
		if err != nil {
			return nil, err
		}
		if n < 1 || n > len(weeks) {
			return nil, nil
		}
		return b.scheduler.GetWeek(ctx, weeks[n-1].WeekID)
	}
	if arg == "" {
		// Default to the first upcoming-or-current week.
		weeks, err := b.scheduler.ListWeeks(ctx, userID)
		if err != nil || len(weeks) == 0 {
			return nil, err
		}
		return b.scheduler.GetWeek(ctx, weeks[0].WeekID)
	}
	return b.scheduler.GetWeek(ctx, arg)
}

func (b *Bot) send(chatID int64, text string) int {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = "Markdown"
	sent, err := b.api.Send(msg)
	if err != nil {
		b.log.Errorw("Failed to send message", "error", err)
		return 0
	}
	return sent.MessageID
}

func (b *Bot) edit(chatID int64, messageID int, text string) {
	if messageID == 0 {
		b.send(chatID, text)
		return
	}
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ParseMode = "Markdown"
	if _, err := b.api.Send(edit); err != nil {
		b.log.Errorw("Failed to edit message", "error", err)
	}
}

func commandErrorText(err error) string {
	var tierErr *scheduler.TierLimitError
	var insufficient *loader.InsufficientRecipesError
	switch {
	case errors.As(err, &tierErr):
		return fmt.Sprintf("⛔ *Recipe limit reached* (%d of %d on the %s tier). Upgrade or remove recipes first.", tierErr.Count, tierErr.Limit, tierErr.Tier)
	case errors.As(err, &insufficient):
		return "📚 *Not enough recipes yet:*\n" + formatCounts(insufficient)
	case errors.Is(err, plan.ErrWeekLocked):
		return "🔒 That week is locked and can't be regenerated."
	case errors.Is(err, plan.ErrWeekAlreadyStarted):
		return "🔒 That week has already started and can't be regenerated."
	case errors.Is(err, scheduler.ErrAlgorithmTimeout):
		return "⏳ Generation timed out. Please try again in a moment."
	default:
		safeErr := strings.ReplaceAll(err.Error(), "`", "'")
		return fmt.Sprintf("❌ *Error:*\n```\n%v\n```", safeErr)
	}
}

func formatCounts(err *loader.InsufficientRecipesError) string {
	categories := make([]string, 0, len(err.Counts))
	for category := range err.Counts {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	var sb strings.Builder
	for _, category := range categories {
		count := err.Counts[category]
		sb.WriteString(fmt.Sprintf("• %s: %d of %d\n", courseLabel(category), count.Have, count.Needed))
	}
	return sb.String()
}

func formatWeekView(view *projection.WeekView) string {
	var sb strings.Builder
	lock := ""
	if view.IsLocked {
		lock = " 🔒"
	}
	sb.WriteString(fmt.Sprintf("📅 *Week of %s* (%s)%s\n\n", view.StartDate.Format("Jan 2"), view.Status, lock))

	day := time.Time{}
	for _, slot := range view.Slots {
		if !slot.Date.Equal(day) {
			day = slot.Date
			sb.WriteString(fmt.Sprintf("*%s*\n", day.Format("Monday Jan 2")))
		}
		sb.WriteString(fmt.Sprintf("• %s: %s", courseLabel(string(slot.Course)), slotTitle(slot.RecipeTitle, slot.RecipeID)))
		if slot.AccompanimentRecipeID != "" {
			sb.WriteString(fmt.Sprintf(" + %s", slotTitle(slot.AccompanimentTitle, slot.AccompanimentRecipeID)))
		}
		if slot.PrepRequired {
			sb.WriteString(" ⏰")
		}
		sb.WriteString("\n")
	}

	if len(view.Failures) > 0 {
		sb.WriteString("\n⚠️ *Unfilled slots:*\n")
		for _, f := range view.Failures {
			sb.WriteString(fmt.Sprintf("• %s %s: %s\n", f.Date.Format("Jan 2"), courseLabel(string(f.Course)), f.Reason))
		}
	}
	return sb.String()
}

// slotTitle prefers the projected recipe title, falling back to the raw id
// for rows materialized before the recipe was known.
func slotTitle(title, id string) string {
	if title != "" {
		return title
	}
	return id
}

func formatWeekList(weeks []projection.WeekSummary) string {
	if len(weeks) == 0 {
		return "🤷 No weeks scheduled yet. Try /plan 3."
	}
	var sb strings.Builder
	sb.WriteString("🗓 *Your weeks*\n\n")
	for i, w := range weeks {
		lock := ""
		if w.IsLocked {
			lock = " 🔒"
		}
		sb.WriteString(fmt.Sprintf("%d. Week of %s - %s%s\n", i+1, w.StartDate.Format("Jan 2"), w.Status, lock))
	}
	return sb.String()
}

func formatBatchResult(batch *scheduler.BatchResult) string {
	var sb strings.Builder
	sb.WriteString("🔄 *Batch regeneration*\n\n")
	for _, o := range batch.Outcomes {
		switch o.Status {
		case scheduler.OutcomeSucceeded:
			sb.WriteString(fmt.Sprintf("✅ Week of %s regenerated\n", o.StartDate.Format("Jan 2")))
		case scheduler.OutcomeSkipped:
			sb.WriteString(fmt.Sprintf("⏭ Week of %s skipped (%s)\n", o.StartDate.Format("Jan 2"), o.Reason))
		case scheduler.OutcomeFailed:
			sb.WriteString(fmt.Sprintf("❌ Week of %s failed: %s\n", o.StartDate.Format("Jan 2"), o.Reason))
		}
	}
	return sb.String()
}

func formatShoppingList(view *projection.WeekView, list *projection.ShoppingListView) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🛒 *Shopping List - week of %s*\n\n", view.StartDate.Format("Jan 2")))
	if list == nil || len(list.Items) == 0 {
		sb.WriteString("_Nothing to buy_\n")
		return sb.String()
	}
	for _, item := range list.Items {
		sb.WriteString(fmt.Sprintf("• %s\n", item))
	}
	return sb.String()
}

func courseLabel(course string) string {
	return strings.ReplaceAll(course, "_", " ")
}
