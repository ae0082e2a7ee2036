package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"waterscribe/internal/model"
	"waterscribe/internal/service"
)

type conversationStage int

const (
	stageNone conversationStage = iota
	stageName
	stageDescription
	stageRecurring
	stageFrequency
	stageDate
)

const (
	cbCompletePrefix = "complete:"
	cbDeletePrefix   = "delete:"
)

const recentLogLimit = 10

type conversationState struct {
	stage conversationStage
	input service.CreateTaskInput
}

type confirmationAction int

const (
	actionComplete confirmationAction = iota
	actionDelete
)

type confirmationRequest struct {
	taskID uint
	action confirmationAction
}

// sender is the part of the Telegram API the handlers use.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Services are the tracker operations the bot exposes.
type Services struct {
	Scheduler   *service.Scheduler
	Maintenance *service.MaintenanceService
	Summary     *service.SummaryService
	Clock       service.Clock
}

// Bot serves tank owners over Telegram private chats.
type Bot struct {
	api    sender
	poller *tgbotapi.BotAPI
	svc    Services
	log    zerolog.Logger

	allowed       map[int64]struct{}
	conversations map[int64]*conversationState
	confirmations map[int64]confirmationRequest
	mu            sync.Mutex
}

// New authorizes against the Bot API. An empty allow-list serves every
// private chat.
func New(token string, svc Services, allowed []int64, log zerolog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	log.Info().Str("account", api.Self.UserName).Msg("bot authorized")

	b := newBot(api, svc, allowed, log)
	b.poller = api
	return b, nil
}

func newBot(api sender, svc Services, allowed []int64, log zerolog.Logger) *Bot {
	if svc.Clock == nil {
		svc.Clock = service.SystemClock
	}
	set := make(map[int64]struct{}, len(allowed))
	for _, id := range allowed {
		set[id] = struct{}{}
	}
	return &Bot{
		api:           api,
		svc:           svc,
		log:           log.With().Str("component", "bot").Logger(),
		allowed:       set,
		conversations: make(map[int64]*conversationState),
		confirmations: make(map[int64]confirmationRequest),
	}
}

// Start polls updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	if b.poller == nil {
		return errors.New("bot has no api connection")
	}
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.poller.GetUpdatesChan(updateConfig)

	b.log.Info().Msg("start polling updates")

	go func() {
		<-ctx.Done()
		b.poller.StopReceivingUpdates()
	}()

	for update := range updates {
		b.dispatch(ctx, update)
	}
	return nil
}

func (b *Bot) dispatch(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		cb := update.CallbackQuery
		if cb.From == nil || !b.isAllowed(cb.From.ID) {
			return
		}
		if err := b.handleCallback(ctx, cb); err != nil {
			b.log.Error().Err(err).Int64("user_id", cb.From.ID).Msg("handle callback")
		}
	case update.Message != nil:
		msg := update.Message
		if msg.Chat == nil || !msg.Chat.IsPrivate() || msg.From == nil || !b.isAllowed(msg.From.ID) {
			return
		}
		if err := b.handleMessage(ctx, msg); err != nil {
			b.log.Error().Err(err).Int64("user_id", msg.From.ID).Msg("handle message")
		}
	}
}

func (b *Bot) isAllowed(userID int64) bool {
	if len(b.allowed) == 0 {
		return true
	}
	_, ok := b.allowed[userID]
	return ok
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if !msg.IsCommand() && isCancelDialogInput(msg.Text) {
		b.clearConversation(msg.From.ID)
		b.clearConfirmation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "⏪ Input cancelled.")
	}

	if !msg.IsCommand() {
		if handled, err := b.handleMenuAlias(ctx, msg); handled {
			return err
		}
	}

	if msg.IsCommand() {
		b.log.Debug().Int64("user_id", msg.From.ID).Str("command", msg.Command()).Msg("command")
		return b.handleCommand(ctx, msg)
	}

	if pending, ok := b.getConfirmation(msg.From.ID); ok {
		return b.handleConfirmationResponse(ctx, msg, pending)
	}

	if b.hasConversation(msg.From.ID) {
		return b.handleConversation(ctx, msg)
	}

	return b.sendText(msg.Chat.ID, "I did not get that. Send /newtask to schedule a task or /help for the command list.")
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	switch msg.Command() {
	case "start":
		return b.handleStart(msg)
	case "help":
		return b.handleHelp(msg)
	case "newtask":
		return b.startNewTaskConversation(msg)
	case "tasks":
		return b.sendTaskList(ctx, msg.Chat.ID)
	case "complete":
		return b.handleComplete(ctx, msg)
	case "delete":
		return b.handleDelete(ctx, msg)
	case "log":
		return b.handleLog(ctx, msg)
	case "stats":
		return b.handleStats(ctx, msg)
	case "cancel":
		b.clearConversation(msg.From.ID)
		b.clearConfirmation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "⏪ Input cancelled.")
	default:
		return b.sendText(msg.Chat.ID, "Unknown command. See /help.")
	}
}

func (b *Bot) handleStart(msg *tgbotapi.Message) error {
	name := strings.TrimSpace(msg.From.FirstName)
	if name == "" {
		name = "there"
	}
	text := fmt.Sprintf("👋 Hi, %s!\n<b>I keep track of your tank maintenance schedule.</b>\n\n%s", escape(name), commandList)
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleHelp(msg *tgbotapi.Message) error {
	return b.sendText(msg.Chat.ID, "ℹ️ <b>Commands</b>\n"+commandList)
}

const commandList = "• /newtask: schedule a task step by step\n" +
	"• /tasks: active tasks, soonest first\n" +
	"• /complete &lt;id&gt;: mark a task done\n" +
	"• /delete &lt;id&gt;: remove a task\n" +
	"• /log: recent maintenance\n" +
	"• /stats: tank summary\n" +
	"• /cancel: abort the current input"

func (b *Bot) startNewTaskConversation(msg *tgbotapi.Message) error {
	b.clearConfirmation(msg.From.ID)
	b.setConversation(msg.From.ID, &conversationState{stage: stageName})
	return b.sendWithReplyMarkup(msg.Chat.ID, "🆕 New task.\n<b>Step 1:</b> what should it be called?", cancelKeyboard())
}

func (b *Bot) handleConversation(ctx context.Context, msg *tgbotapi.Message) error {
	state := b.getConversation(msg.From.ID)
	if state == nil {
		return nil
	}

	text := strings.TrimSpace(msg.Text)
	switch state.stage {
	case stageName:
		if text == "" {
			return b.sendWithReplyMarkup(msg.Chat.ID, "Task name is required.", cancelKeyboard())
		}
		state.input.TaskName = text
		state.stage = stageDescription
		return b.sendWithReplyMarkup(msg.Chat.ID, "✏️ Add a short description (or Skip).", skipKeyboard())
	case stageDescription:
		if !isSkipInput(text) {
			state.input.Description = text
		}
		state.stage = stageRecurring
		return b.sendWithReplyMarkup(msg.Chat.ID, "🔁 Does it repeat?", yesNoKeyboard())
	case stageRecurring:
		switch {
		case isYesInput(text):
			recurring := true
			state.input.IsRecurring = &recurring
			state.stage = stageFrequency
			return b.sendWithReplyMarkup(msg.Chat.ID, "📆 Every how many days? (e.g. 7)", cancelKeyboard())
		case isNoInput(text):
			recurring := false
			state.input.IsRecurring = &recurring
			state.stage = stageDate
			return b.sendWithReplyMarkup(msg.Chat.ID, "📅 When? Use <code>2026-03-01</code> or <code>2026-03-01 18:00</code>.", cancelKeyboard())
		default:
			return b.sendWithReplyMarkup(msg.Chat.ID, "Answer Yes or No.", yesNoKeyboard())
		}
	case stageFrequency:
		days, err := strconv.Atoi(text)
		if err != nil {
			return b.sendWithReplyMarkup(msg.Chat.ID, "Frequency must be a whole number of days.", cancelKeyboard())
		}
		state.input.FrequencyDays = &days
		return b.finishTaskCreation(ctx, msg.From.ID, msg.Chat.ID, state)
	case stageDate:
		state.input.SpecificDate = text
		return b.finishTaskCreation(ctx, msg.From.ID, msg.Chat.ID, state)
	default:
		b.clearConversation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "Input reset. Start again with /newtask.")
	}
}

// finishTaskCreation keeps the dialog open on a validation error so the user
// can retry the last step.
func (b *Bot) finishTaskCreation(ctx context.Context, userID, chatID int64, state *conversationState) error {
	task, err := b.svc.Scheduler.Create(ctx, state.input)
	if err != nil {
		var ve *service.ValidationError
		if errors.As(err, &ve) {
			return b.sendWithReplyMarkup(chatID, escape(ve.Message)+". Try again.", cancelKeyboard())
		}
		b.clearConversation(userID)
		return b.sendText(chatID, "Could not save the task, storage is unavailable.")
	}
	b.clearConversation(userID)

	b.log.Info().Uint("task_id", task.ID).Int64("user_id", userID).Bool("recurring", task.IsRecurring).Msg("task created")

	var summary strings.Builder
	summary.WriteString("✅ <b>Task scheduled</b>\n")
	summary.WriteString(fmt.Sprintf("• <b>ID:</b> %d\n", task.ID))
	summary.WriteString(fmt.Sprintf("• <b>Name:</b> %s\n", escape(task.TaskName)))
	if task.Description != "" {
		summary.WriteString(fmt.Sprintf("• <b>Description:</b> %s\n", escape(task.Description)))
	}
	if task.IsRecurring && task.FrequencyDays != nil {
		summary.WriteString(fmt.Sprintf("• <b>Repeats:</b> every %d days\n", *task.FrequencyDays))
	}
	summary.WriteString(fmt.Sprintf("• <b>Next due:</b> %s\n", formatDue(task.NextDue)))

	if err := b.sendTextWithRemove(chatID, strings.TrimSpace(summary.String())); err != nil {
		return err
	}
	return b.sendTaskList(ctx, chatID)
}

func (b *Bot) handleComplete(ctx context.Context, msg *tgbotapi.Message) error {
	id, err := parseCommandID(msg.CommandArguments())
	if err != nil {
		return b.sendText(msg.Chat.ID, "Give the task ID: /complete 12")
	}
	return b.completeAndReport(ctx, msg.Chat.ID, id, false)
}

func (b *Bot) handleDelete(ctx context.Context, msg *tgbotapi.Message) error {
	id, err := parseCommandID(msg.CommandArguments())
	if err != nil {
		return b.sendText(msg.Chat.ID, "Give the task ID: /delete 12")
	}
	return b.deleteAndReport(ctx, msg.Chat.ID, id, false)
}

func (b *Bot) handleLog(ctx context.Context, msg *tgbotapi.Message) error {
	entries, err := b.svc.Maintenance.Recent(ctx, recentLogLimit)
	if err != nil {
		b.log.Error().Err(err).Msg("list maintenance")
		return b.sendText(msg.Chat.ID, "Could not load the maintenance log.")
	}
	return b.sendText(msg.Chat.ID, formatLog(entries))
}

func (b *Bot) handleStats(ctx context.Context, msg *tgbotapi.Message) error {
	summary, err := b.svc.Summary.Stats(ctx)
	if err != nil {
		b.log.Error().Err(err).Msg("stats")
		return b.sendText(msg.Chat.ID, "Could not build the summary.")
	}
	return b.sendText(msg.Chat.ID, formatStats(summary, b.svc.Summary.DueSoonWindow(), b.svc.Summary.RecentWindow()))
}

func (b *Bot) handleConfirmationResponse(ctx context.Context, msg *tgbotapi.Message, req confirmationRequest) error {
	text := strings.TrimSpace(msg.Text)
	switch {
	case isConfirmInput(text):
		b.clearConfirmation(msg.From.ID)
		if req.action == actionDelete {
			return b.deleteAndReport(ctx, msg.Chat.ID, req.taskID, true)
		}
		return b.completeAndReport(ctx, msg.Chat.ID, req.taskID, true)
	case isCancelInput(text):
		b.clearConfirmation(msg.From.ID)
		return b.sendMenuPlaceholder(msg.Chat.ID)
	default:
		prompt := "Confirm or cancel completing the task."
		if req.action == actionDelete {
			prompt = "Confirm or cancel deleting the task."
		}
		return b.sendWithReplyMarkup(msg.Chat.ID, prompt, confirmKeyboard())
	}
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb.Message == nil || cb.Message.Chat == nil {
		return nil
	}
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		b.log.Warn().Err(err).Msg("callback ack")
	}

	data := cb.Data
	switch {
	case strings.HasPrefix(data, cbCompletePrefix):
		taskID, err := parseTaskID(data, cbCompletePrefix)
		if err != nil {
			return nil
		}
		return b.askConfirmation(ctx, cb.Message.Chat.ID, cb.From.ID, taskID, actionComplete)
	case strings.HasPrefix(data, cbDeletePrefix):
		taskID, err := parseTaskID(data, cbDeletePrefix)
		if err != nil {
			return nil
		}
		return b.askConfirmation(ctx, cb.Message.Chat.ID, cb.From.ID, taskID, actionDelete)
	default:
		return nil
	}
}

func (b *Bot) askConfirmation(ctx context.Context, chatID, userID int64, taskID uint, action confirmationAction) error {
	task, err := b.svc.Scheduler.Get(ctx, taskID)
	if err != nil {
		if service.IsSwallowable(err) {
			return b.sendText(chatID, "Task not found.")
		}
		return err
	}
	if action == actionComplete && !task.Active {
		return b.sendText(chatID, "That task is already done.")
	}

	text := fmt.Sprintf("Mark \"%s\" (#%d) as done?", escape(task.TaskName), task.ID)
	if action == actionDelete {
		text = fmt.Sprintf("Delete \"%s\" (#%d)? Its maintenance history stays.", escape(task.TaskName), task.ID)
	}
	b.setConfirmation(userID, confirmationRequest{taskID: task.ID, action: action})
	return b.sendWithReplyMarkup(chatID, text, confirmKeyboard())
}

func (b *Bot) completeAndReport(ctx context.Context, chatID int64, taskID uint, refresh bool) error {
	result, err := b.svc.Scheduler.Complete(ctx, taskID, "")
	if err != nil {
		if service.IsSwallowable(err) {
			return b.sendTextWithRemove(chatID, "That task is already done or no longer exists.")
		}
		b.log.Error().Err(err).Uint("task_id", taskID).Msg("complete task")
		return b.sendTextWithRemove(chatID, "Could not complete the task, storage is unavailable.")
	}

	task := result.Task
	info := fmt.Sprintf("✅ \"%s\" done and retired.", escape(task.TaskName))
	if task.IsRecurring {
		info = fmt.Sprintf("♻️ \"%s\" done. Next due %s.", escape(task.TaskName), formatDue(task.NextDue))
	}
	if err := b.sendTextWithRemove(chatID, info); err != nil {
		return err
	}
	if !refresh {
		return nil
	}
	return b.sendTaskList(ctx, chatID)
}

func (b *Bot) deleteAndReport(ctx context.Context, chatID int64, taskID uint, refresh bool) error {
	task, err := b.svc.Scheduler.Get(ctx, taskID)
	if err != nil {
		if service.IsSwallowable(err) {
			return b.sendTextWithRemove(chatID, "Task not found or already deleted.")
		}
		b.log.Error().Err(err).Uint("task_id", taskID).Msg("get task")
		return b.sendTextWithRemove(chatID, "Could not delete the task, storage is unavailable.")
	}
	if err := b.svc.Scheduler.Delete(ctx, taskID); err != nil {
		b.log.Error().Err(err).Uint("task_id", taskID).Msg("delete task")
		return b.sendTextWithRemove(chatID, "Could not delete the task, storage is unavailable.")
	}

	if err := b.sendTextWithRemove(chatID, fmt.Sprintf("🗑 \"%s\" deleted.", escape(task.TaskName))); err != nil {
		return err
	}
	if !refresh {
		return nil
	}
	return b.sendTaskList(ctx, chatID)
}

func (b *Bot) sendTaskList(ctx context.Context, chatID int64) error {
	tasks, err := b.svc.Scheduler.ListActive(ctx)
	if err != nil {
		b.log.Error().Err(err).Msg("list tasks")
		return b.sendText(chatID, "Could not load tasks.")
	}
	if len(tasks) == 0 {
		return b.sendText(chatID, "No active tasks. Add one with /newtask.")
	}

	now := b.svc.Clock.Now()
	window := b.svc.Summary.DueSoonWindow()

	var builder strings.Builder
	builder.WriteString("📋 <b>Scheduled tasks</b>\n\n")
	buttons := make([][]tgbotapi.InlineKeyboardButton, 0, len(tasks))
	for _, task := range tasks {
		builder.WriteString(formatTask(task, now, window))
		buttons = append(buttons, taskButtons(task))
	}

	msg := tgbotapi.NewMessage(chatID, strings.TrimSpace(builder.String()))
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(buttons...)
	msg.ParseMode = tgbotapi.ModeHTML
	_, err = b.api.Send(msg)
	return err
}

func taskButtons(task model.ScheduledTask) []tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("✅ #%d · %s", task.ID, shortTitle(task.TaskName, 20)), fmt.Sprintf("%s%d", cbCompletePrefix, task.ID)),
		tgbotapi.NewInlineKeyboardButtonData("🗑 Delete", fmt.Sprintf("%s%d", cbDeletePrefix, task.ID)),
	)
}

func (b *Bot) handleMenuAlias(ctx context.Context, msg *tgbotapi.Message) (bool, error) {
	text := strings.TrimSpace(strings.ToLower(msg.Text))
	switch text {
	case strings.ToLower(menuLabelNewTask):
		return true, b.startNewTaskConversation(msg)
	case strings.ToLower(menuLabelTasks):
		return true, b.sendTaskList(ctx, msg.Chat.ID)
	case strings.ToLower(menuLabelLog):
		return true, b.handleLog(ctx, msg)
	case strings.ToLower(menuLabelStats):
		return true, b.handleStats(ctx, msg)
	default:
		return false, nil
	}
}

func (b *Bot) sendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = mainMenuKeyboard()
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) sendTextWithRemove(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(true)
	if _, err := b.api.Send(msg); err != nil {
		return err
	}
	return b.sendMenuPlaceholder(chatID)
}

func (b *Bot) sendWithReplyMarkup(chatID int64, text string, markup interface{}) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = markup
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) sendMenuPlaceholder(chatID int64) error {
	msg := tgbotapi.NewMessage(chatID, "🔹 Main menu")
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = mainMenuKeyboard()
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) getConfirmation(userID int64) (confirmationRequest, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	req, ok := b.confirmations[userID]
	return req, ok
}

func (b *Bot) setConfirmation(userID int64, req confirmationRequest) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.confirmations[userID] = req
}

func (b *Bot) clearConfirmation(userID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.confirmations, userID)
}

func (b *Bot) setConversation(userID int64, state *conversationState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.conversations[userID] = state
}

func (b *Bot) getConversation(userID int64) *conversationState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conversations[userID]
}

func (b *Bot) hasConversation(userID int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.conversations[userID]
	return ok
}

func (b *Bot) clearConversation(userID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.conversations, userID)
}
