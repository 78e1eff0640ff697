// Package bot is the Telegram front-end. A chat walks a four-step
// conversation (product name, CAS number, volume, packaging), then the
// verification pipeline runs and the ranked suppliers come back as one HTML
// message. Conversations are per-chat; verifications run concurrently.
package bot

import (
	"context"
	"fmt"
	"html"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/kulmaganbetov/china-factories-bot/internal/model"
	"github.com/kulmaganbetov/china-factories-bot/internal/report"
)

// Sender is the slice of the Telegram API the bot sends through.
// *tgbotapi.BotAPI satisfies it.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Runner executes a verification run end to end. *pipeline.Pipeline
// satisfies it.
type Runner interface {
	Run(ctx context.Context, req model.ProductRequest) (*model.Run, error)
}

type step int

const (
	stepProduct step = iota
	stepCAS
	stepVolume
	stepPackaging
)

// conversation is one chat's partially filled product request.
type conversation struct {
	step step
	req  model.ProductRequest
}

// Bot drives the conversation state machine over a Telegram update stream.
type Bot struct {
	api         Sender
	runner      Runner
	resultsPath string

	mu    sync.Mutex
	convs map[int64]*conversation

	wg sync.WaitGroup
}

// New builds a Bot. An empty resultsPath skips the JSON results document.
func New(api Sender, runner Runner, resultsPath string) *Bot {
	return &Bot{
		api:         api,
		runner:      runner,
		resultsPath: resultsPath,
		convs:       make(map[int64]*conversation),
	}
}

// Run consumes updates until ctx is cancelled or the channel closes, then
// waits for in-flight verifications to finish before returning.
func (b *Bot) Run(ctx context.Context, updates tgbotapi.UpdatesChannel) error {
	defer b.wg.Wait()
	zap.L().Info("bot: listening")
	for {
		select {
		case <-ctx.Done():
			zap.L().Info("bot: stopping")
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.Text == "" {
		return
	}
	chatID := msg.Chat.ID

	if msg.IsCommand() {
		b.handleCommand(ctx, chatID, msg.Command())
		return
	}
	b.advance(ctx, chatID, strings.TrimSpace(msg.Text))
}

func (b *Bot) handleCommand(ctx context.Context, chatID int64, command string) {
	switch command {
	case "start":
		b.endConversation(chatID)
		b.reply(chatID, welcomeMessage)
	case "search":
		b.startConversation(chatID)
		b.reply(chatID, searchPrompt)
	case "cancel":
		b.endConversation(chatID)
		b.reply(chatID, cancelledMessage)
	case "skip":
		b.advance(ctx, chatID, "")
	default:
		// Unknown commands get no reply.
	}
}

// advance feeds one answer into the chat's conversation. An empty answer
// skips the current field; the product name cannot be skipped.
func (b *Bot) advance(ctx context.Context, chatID int64, text string) {
	b.mu.Lock()
	conv, ok := b.convs[chatID]
	if !ok {
		b.mu.Unlock()
		b.reply(chatID, idleHintMessage)
		return
	}

	if conv.step == stepProduct && text == "" {
		b.mu.Unlock()
		b.reply(chatID, productRequiredMessage)
		return
	}

	var ready bool
	switch conv.step {
	case stepProduct:
		conv.req.Name = text
		conv.step = stepCAS
	case stepCAS:
		conv.req.CASNumber = text
		conv.step = stepVolume
	case stepVolume:
		conv.req.Volume = text
		conv.step = stepPackaging
	case stepPackaging:
		conv.req.Packaging = text
		delete(b.convs, chatID)
		ready = true
	}
	next := conv.step
	req := conv.req
	b.mu.Unlock()

	if ready {
		b.beginVerification(ctx, chatID, req)
		return
	}
	switch next {
	case stepCAS:
		b.reply(chatID, fmt.Sprintf(productAckFormat, html.EscapeString(req.Name)))
	case stepVolume:
		b.reply(chatID, volumePrompt)
	case stepPackaging:
		b.reply(chatID, packagingPrompt)
	}
}

// beginVerification acknowledges the request and runs it in the background
// so the update loop keeps serving other chats.
func (b *Bot) beginVerification(ctx context.Context, chatID int64, req model.ProductRequest) {
	b.reply(chatID, buildSummary(req))

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.verify(ctx, chatID, req)
	}()
}

func (b *Bot) verify(ctx context.Context, chatID int64, req model.ProductRequest) {
	run, err := b.runner.Run(ctx, req)
	if err != nil {
		zap.L().Error("bot: verification failed", zap.String("product", req.Name), zap.Error(err))
		b.reply(chatID, fmt.Sprintf(searchErrorFormat, html.EscapeString(err.Error())))
		return
	}

	if run.Result == nil || len(run.Result.Suppliers) == 0 {
		b.reply(chatID, notFoundMessage)
		return
	}

	b.reply(chatID, renderResults(run.Result.Suppliers))

	if b.resultsPath != "" {
		doc := report.NewDocument(req, run.Result)
		if err := report.WriteJSON(b.resultsPath, doc); err != nil {
			zap.L().Warn("bot: write results document", zap.String("path", b.resultsPath), zap.Error(err))
		}
	}
}

func (b *Bot) startConversation(chatID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.convs[chatID] = &conversation{step: stepProduct}
}

func (b *Bot) endConversation(chatID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.convs, chatID)
}

func (b *Bot) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if _, err := b.api.Send(msg); err != nil {
		zap.L().Warn("bot: send message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}
