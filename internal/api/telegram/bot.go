package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	app "plant-id/internal/application"
	"plant-id/internal/domain/entity"
	apperrors "plant-id/internal/platform/errors"
)

const (
	msgStart = `👋 你好！我是植物识别机器人。

📸 随时发给我一张植物照片，我会告诉你它是什么，以及怎么养护。

📋 命令：
/check — 开始识别
/help — 帮助
/cancel — 取消当前操作`

	msgHelp = `ℹ️ 使用方法：

1️⃣ 随时发送一张照片（或图片文件），无需先输入命令
2️⃣ 等待 AI 分析图片
3️⃣ 收到识别卡片：名称、简介、养护建议和冷知识

💡 建议：
• 光线充足
• 让植物占据画面主体
• 照片清晰不模糊

📋 命令：
/check — 提示发送照片
/cancel — 取消操作`

	msgAwaitingPhoto    = "📸 请发送要识别的照片。"
	msgCancelled        = "❌ 已取消。发送 /check 开始新的识别。"
	msgSendPhoto        = "📸 请发送一张照片进行识别。"
	msgUnknownCommand   = "❓ 未知命令。发送 /help 查看帮助。"
	msgProcessing       = "⏳ 正在识别中..."
	msgStillProcessing  = "⏳ 上一张图片还在识别中，请稍候。"
	msgDownloadError    = "⚠️ 无法下载图片，请重新发送。"
	msgDecodeError      = "⚠️ 图片处理失败，请重试（可能是图片格式不支持）"
	msgConfigError      = "⚠️ 服务配置错误，请联系管理员。"
	msgIdentifyError    = "⚠️ 识别过程中发生未知错误，请检查网络或重试"
	msgIdentifyNextHint = "发送下一张照片继续识别。"
)

const (
	downloadTimeout = 30 * time.Second
	opDownload      = "telegram.download"
)

// Bot Telegram-фронтенд распознавания
type Bot struct {
	api      *tgbotapi.BotAPI
	users    *app.UserService
	sessions *app.Sessions
	files    *resty.Client
	logger   *slog.Logger

	inflight sync.WaitGroup
}

// NewBot создаёт бота и проверяет токен
func NewBot(token string, users *app.UserService, sessions *app.Sessions, logger *slog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindConfig, "telegram.new", "authorize bot", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("telegram bot authorized", "account", api.Self.UserName)

	return &Bot{
		api:      api,
		users:    users,
		sessions: sessions,
		files:    resty.New().SetTimeout(downloadTimeout),
		logger:   logger,
	}, nil
}

// Run читает обновления до отмены контекста и дожидается начатых распознаваний
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	defer b.inflight.Wait()

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			b.handleMessage(ctx, update.Message)
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}

	user, err := b.users.Get(ctx, msg.From.ID, msg.Chat.ID)
	if err != nil {
		b.logger.Error("get user", "user_id", msg.From.ID, "error", err)
		return
	}

	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}

	fileID, name, ok := imageFile(msg)
	if !ok {
		b.sendMessage(msg.Chat.ID, msgSendPhoto)
		return
	}

	if user.Processing() {
		b.sendMessage(msg.Chat.ID, msgStillProcessing)
		return
	}

	b.inflight.Add(1)
	go func() {
		defer b.inflight.Done()
		b.handleImage(ctx, msg, fileID, name)
	}()
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	var (
		reply string
		err   error
	)

	switch msg.Command() {
	case "start":
		_, err = b.users.Cancel(ctx, msg.From.ID, msg.Chat.ID)
		reply = msgStart
	case "help":
		reply = msgHelp
	case "check":
		_, err = b.users.BeginCheck(ctx, msg.From.ID, msg.Chat.ID)
		reply = msgAwaitingPhoto
	case "cancel":
		_, err = b.users.Cancel(ctx, msg.From.ID, msg.Chat.ID)
		reply = msgCancelled
	default:
		reply = msgUnknownCommand
	}

	if err != nil {
		b.logger.Error("update user state", "user_id", msg.From.ID, "command", msg.Command(), "error", err)
	}
	b.sendMessage(msg.Chat.ID, reply)
}

// handleImage скачивает изображение и прогоняет его через сессию пользователя
func (b *Bot) handleImage(ctx context.Context, msg *tgbotapi.Message, fileID, name string) {
	userID, chatID := msg.From.ID, msg.Chat.ID

	if _, err := b.users.BeginProcessing(ctx, userID, chatID); err != nil {
		b.logger.Error("update user state", "user_id", userID, "error", err)
	}
	b.sendMessage(chatID, msgProcessing)

	result, err := b.identify(ctx, userID, fileID, name)
	if apperrors.IsKind(err, apperrors.KindBusy) {
		b.sendMessage(chatID, msgStillProcessing)
		return
	}

	if _, stateErr := b.users.Cancel(ctx, userID, chatID); stateErr != nil {
		b.logger.Error("update user state", "user_id", userID, "error", stateErr)
	}

	if err != nil {
		b.logger.Warn("identify photo", "user_id", userID, "kind", apperrors.KindOf(err), "error", err)
		b.sendMessage(chatID, replyFor(err))
		return
	}

	b.sendMessage(chatID, RenderCard(result)+"\n"+msgIdentifyNextHint)
}

func (b *Bot) identify(ctx context.Context, userID int64, fileID, name string) (entity.Identification, error) {
	data, err := b.downloadFile(ctx, fileID)
	if err != nil {
		return nil, err
	}

	return b.sessions.For(userID).Identify(ctx, entity.RawImage{Data: data, Name: name})
}

// downloadFile скачивает файл из Telegram
func (b *Bot) downloadFile(ctx context.Context, fileID string) ([]byte, error) {
	file, err := b.api.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindTransport, opDownload, "get file", err)
	}

	resp, err := b.files.R().SetContext(ctx).Get(file.Link(b.api.Token))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindTransport, opDownload, "download file", err)
	}
	if resp.IsError() {
		return nil, apperrors.New(apperrors.KindTransport, opDownload, fmt.Sprintf("download file: status %d", resp.StatusCode()))
	}

	return resp.Body(), nil
}

// sendMessage отправляет текстовое сообщение
func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("send message", "chat_id", chatID, "error", err)
	}
}

// imageFile выбирает фото наибольшего размера или документ-изображение.
func imageFile(msg *tgbotapi.Message) (fileID, name string, ok bool) {
	if len(msg.Photo) > 0 {
		photo := msg.Photo[len(msg.Photo)-1]
		return photo.FileID, "photo", true
	}
	if msg.Document != nil && strings.HasPrefix(msg.Document.MimeType, "image/") {
		return msg.Document.FileID, msg.Document.FileName, true
	}
	return "", "", false
}

func replyFor(err error) string {
	switch apperrors.KindOf(err) {
	case apperrors.KindBusy:
		return msgStillProcessing
	case apperrors.KindDecode:
		return msgDecodeError
	case apperrors.KindConfig:
		return msgConfigError
	}
	var appErr *apperrors.Error
	if errors.As(err, &appErr) && appErr.Op == opDownload {
		return msgDownloadError
	}
	return msgIdentifyError
}
