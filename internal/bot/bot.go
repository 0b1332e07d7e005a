package bot

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"jmsmp/config"
	"jmsmp/internal/domain"
	"jmsmp/internal/models"
	"jmsmp/internal/repository"
	"jmsmp/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"gorm.io/gorm"
)

// Bot is the Telegram review channel: it posts a card with decision buttons
// for each new application, and funnels button callbacks into the same
// ApplicationService.Decide the web console uses.
type Bot struct {
	api   *tgbotapi.BotAPI
	cfg   *config.TelegramConfig
	apps  *repository.ApplicationRepository
	users *repository.UserRepository
	admin *repository.AdminRepository
	svc   *service.ApplicationService
}

// New returns nil without error when no token is configured.
func New(
	cfg *config.TelegramConfig,
	apps *repository.ApplicationRepository,
	users *repository.UserRepository,
	admin *repository.AdminRepository,
	svc *service.ApplicationService,
) (*Bot, error) {
	if cfg.BotToken == "" {
		return nil, nil
	}
	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, err
	}
	return &Bot{api: api, cfg: cfg, apps: apps, users: users, admin: admin, svc: svc}, nil
}

// Start begins long polling in a goroutine.
func (b *Bot) Start() {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	u.AllowedUpdates = []string{"message", "callback_query"}
	updates := b.api.GetUpdatesChan(u)
	log.Printf("[bot] started as @%s", b.api.Self.UserName)
	go func() {
		for update := range updates {
			switch {
			case update.CallbackQuery != nil:
				b.handleCallback(update.CallbackQuery)
			case update.Message != nil && update.Message.IsCommand():
				b.handleCommand(update.Message)
			}
		}
	}()
}

// callbackPayload is the opaque action payload attached to the inline
// keyboard. Keys are short to stay under Telegram's 64-byte callback limit.
type callbackPayload struct {
	A  string `json:"a"`           // approve | reject | role
	ID uint   `json:"id"`          // application id
	R  string `json:"r,omitempty"` // role to grant (action "role" only)
}

// reviewAction is the parsed, tagged form of a callback payload.
type reviewAction struct {
	Decision  string
	RoleGrant string
}

func parseCallback(data string) (uint, reviewAction, error) {
	var p callbackPayload
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return 0, reviewAction{}, err
	}
	switch p.A {
	case "approve":
		return p.ID, reviewAction{Decision: domain.StatusAccepted}, nil
	case "reject":
		return p.ID, reviewAction{Decision: domain.StatusRejected}, nil
	case "role":
		return p.ID, reviewAction{Decision: domain.StatusAccepted, RoleGrant: p.R}, nil
	default:
		return 0, reviewAction{}, fmt.Errorf("unknown action %q", p.A)
	}
}

func (b *Bot) handleCallback(cq *tgbotapi.CallbackQuery) {
	toast, app := b.processCallback(cq)
	b.toast(cq.ID, toast)
	if app == nil {
		return
	}
	// Rewrite the origin card with the new status and drop the buttons.
	edit := tgbotapi.NewEditMessageTextAndMarkup(
		cq.Message.Chat.ID, cq.Message.MessageID,
		b.formatCard(app),
		tgbotapi.NewInlineKeyboardMarkup(),
	)
	edit.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.api.Send(edit); err != nil {
		log.Printf("[bot] edit message failed for app %d: %v", app.ID, err)
	}
}

// processCallback validates the callback and applies the decision, returning
// the toast text and the decided application (nil when nothing was decided).
func (b *Bot) processCallback(cq *tgbotapi.CallbackQuery) (string, *models.Application) {
	// Telegram omits Message for callbacks on cards older than 48h.
	if cq.Message == nil {
		return "❌ Сообщение устарело", nil
	}
	id, action, err := parseCallback(cq.Data)
	if err != nil {
		return "❌ Ошибка обработки запроса", nil
	}
	actor, err := b.resolveAdmin(cq.From, cq.Message.Chat.ID)
	if err != nil {
		return "❌ Недостаточно прав", nil
	}
	app, err := b.svc.Decide(actor, id, action.Decision, action.RoleGrant)
	if err != nil {
		return decideErrorText(err), nil
	}
	if app.Status == domain.StatusAccepted {
		return "Заявка одобрена", app
	}
	return "Заявка отклонена", app
}

func decideErrorText(err error) string {
	switch {
	case errors.Is(err, service.ErrForbidden):
		return "❌ Недостаточно прав"
	case errors.Is(err, service.ErrApplicationNotFound):
		return "❌ Заявка не найдена"
	case errors.Is(err, service.ErrInvalidTransition):
		return "⚠️ Заявка уже рассмотрена"
	default:
		return "❌ Ошибка обработки запроса"
	}
}

func (b *Bot) toast(callbackID, text string) {
	if _, err := b.api.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		log.Printf("[bot] answer callback failed: %v", err)
	}
}

// resolveAdmin maps the Telegram invoker to an internal admin identity: a
// matching admin account wins; otherwise membership of the configured admin
// chat grants the review role with a synthetic reviewer handle.
func (b *Bot) resolveAdmin(from *tgbotapi.User, chatID int64) (*models.User, error) {
	if from.UserName != "" {
		u, err := b.users.FindAdminByTelegram(from.UserName, domain.Permissions[domain.OpReviewApplications])
		if err == nil {
			return u, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}
	if b.cfg.AdminChatID != 0 && chatID == b.cfg.AdminChatID {
		return &models.User{
			Username: "Telegram:" + strconv.FormatInt(from.ID, 10),
			Role:     domain.RoleAdmin,
		}, nil
	}
	return nil, errors.New("not an admin")
}

// ApplicationSubmitted posts the review card with decision buttons to the
// admin chat and stores the message id on the application for later editing.
// Implements service.ReviewNotifier.
func (b *Bot) ApplicationSubmitted(app *models.Application, applicant *models.User) {
	if b.cfg.AdminChatID == 0 {
		return
	}
	msg := tgbotapi.NewMessage(b.cfg.AdminChatID, b.formatCardFor(app, applicant))
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.ReplyMarkup = reviewKeyboard(app.ID)
	sent, err := b.api.Send(msg)
	if err != nil {
		log.Printf("[bot] application card send failed for app %d: %v", app.ID, err)
		return
	}
	if err := b.apps.SetTelegramMessageID(app.ID, sent.MessageID); err != nil {
		log.Printf("[bot] storing message id failed for app %d: %v", app.ID, err)
	}
}

func reviewKeyboard(appID uint) tgbotapi.InlineKeyboardMarkup {
	data := func(p callbackPayload) string {
		b, _ := json.Marshal(p)
		return string(b)
	}
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Одобрить", data(callbackPayload{A: "approve", ID: appID})),
			tgbotapi.NewInlineKeyboardButtonData("❌ Отклонить", data(callbackPayload{A: "reject", ID: appID})),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("👑 Администратор", data(callbackPayload{A: "role", ID: appID, R: domain.RoleAdmin})),
			tgbotapi.NewInlineKeyboardButtonData("💼 Куратор", data(callbackPayload{A: "role", ID: appID, R: domain.RoleCurator})),
		),
	)
}

func (b *Bot) formatCard(app *models.Application) string {
	applicant, err := b.users.GetByUsername(app.Username)
	if err != nil {
		applicant = &models.User{Username: app.Username, Role: "—"}
	}
	return b.formatCardFor(app, applicant)
}

func (b *Bot) formatCardFor(app *models.Application, applicant *models.User) string {
	typeEmoji, typeName := "🎮", "на сервер"
	if app.Type == domain.AppTypeStudio {
		typeEmoji, typeName = "🎨", "в студию"
	}
	statusEmoji := "⏳"
	switch app.Status {
	case domain.StatusAccepted:
		statusEmoji = "✅"
	case domain.StatusRejected:
		statusEmoji = "❌"
	}
	reviewed := "Не рассмотрена"
	if app.ReviewedBy != nil {
		reviewed = *app.ReviewedBy
	}
	card := fmt.Sprintf(
		"%s *Заявка %s*\n\n"+
			"👤 *Пользователь:* %s\n"+
			"🏷️ *Роль:* %s\n"+
			"📅 *Дата подачи:* %s\n"+
			"👑 *Рассмотрена:* %s\n"+
			"📊 *Статус:* %s %s",
		typeEmoji, typeName,
		applicant.Username, applicant.Role,
		app.CreatedAt.Format("02.01.2006 15:04"),
		reviewed,
		statusEmoji, app.Status,
	)
	if app.ReviewedAt != nil {
		card += fmt.Sprintf("\n⏰ *Дата решения:* %s", app.ReviewedAt.Format("02.01.2006 15:04"))
	}
	return card
}

func (b *Bot) handleCommand(msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start":
		b.handleStart(msg)
	case "stats":
		b.handleStats(msg)
	}
}

func (b *Bot) handleStart(msg *tgbotapi.Message) {
	_, err := b.resolveAdmin(msg.From, msg.Chat.ID)
	var text string
	if err == nil {
		text = "👑 *JMSMP Admin Bot*\n\n" +
			"Добро пожаловать в панель администратора!\n\n" +
			"*Доступные команды:*\n" +
			"/stats - Статистика системы\n\n" +
			"Бот автоматически уведомляет о новых заявках."
	} else {
		text = "🎮 *JMSMP Bot*\n\n" +
			"Этот бот предназначен для администраторов сервера.\n" +
			"Для игроков доступен веб-сайт с полным функционалом."
	}
	reply := tgbotapi.NewMessage(msg.Chat.ID, text)
	reply.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.api.Send(reply); err != nil {
		log.Printf("[bot] start reply failed: %v", err)
	}
}

func (b *Bot) handleStats(msg *tgbotapi.Message) {
	if _, err := b.resolveAdmin(msg.From, msg.Chat.ID); err != nil {
		return
	}
	stats, err := b.admin.GetDashboardStats()
	if err != nil {
		reply := tgbotapi.NewMessage(msg.Chat.ID, "❌ Ошибка получения статистики")
		b.api.Send(reply)
		return
	}
	text := fmt.Sprintf(
		"📊 *Статистика системы JMSMP*\n\n"+
			"👥 *Пользователи:* %d\n"+
			"🟢 *Онлайн:* %d\n"+
			"📋 *Заявки на рассмотрении:* %d\n"+
			"✅ *Одобренных заявок:* %d\n"+
			"🖼️ *Фотографий в галерее:* %d\n"+
			"⏰ *Обновлено:* %s",
		stats.TotalUsers, stats.OnlineUsers,
		stats.PendingApplications, stats.AcceptedApplications,
		stats.TotalPhotos,
		time.Now().Format("02.01.2006 15:04"),
	)
	reply := tgbotapi.NewMessage(msg.Chat.ID, text)
	reply.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.api.Send(reply); err != nil {
		log.Printf("[bot] stats reply failed: %v", err)
	}
}
