package usecase

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/iamvkosarev/pink-ai-bot/config"
	"github.com/iamvkosarev/pink-ai-bot/internal/model"
	"github.com/iamvkosarev/pink-ai-bot/pkg/local"
	"github.com/iamvkosarev/pink-ai-bot/pkg/markup"
	"github.com/iamvkosarev/pink-ai-bot/pkg/mathexpr"
	"github.com/sourcegraph/conc/panics"
)

type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string) (model.Image, error)
}

type ChatUsecaseDeps struct {
	Intent  *IntentUsecase
	History *HistoryUsecase
	Text    TextGenerator
	Image   ImageGenerator
}

// ChatUsecase routes a user message to a canned reply, the calculator or a
// remote model. At most one chat request and one image request are in flight;
// further submissions are rejected with model.ErrBusy.
type ChatUsecase struct {
	ChatUsecaseDeps
	cfg config.Chat

	mu         sync.Mutex
	chatState  model.GenerationState
	imageState model.GenerationState
	rnd        *rand.Rand
}

func NewChatUsecase(deps ChatUsecaseDeps, cfg config.Chat) *ChatUsecase {
	return &ChatUsecase{
		ChatUsecaseDeps: deps,
		cfg:             cfg,
		rnd:             rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *ChatUsecase) HandleUserRequest(ctx context.Context, lang local.Language, text string) (model.Reply, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return model.Reply{}, model.ErrEmptyRequest
	}
	if !c.begin(&c.chatState) {
		return model.Reply{}, model.ErrBusy
	}
	defer c.finish(&c.chatState)

	var (
		reply model.Reply
		err   error
		pc    panics.Catcher
	)
	pc.Try(func() {
		reply, err = c.handle(ctx, lang, text)
	})
	if recovered := pc.Recovered(); recovered != nil {
		return model.Reply{}, fmt.Errorf("failed to handle request: %w", recovered.AsError())
	}
	return reply, err
}

// HandleImageRequest serves the standalone image form. It shares nothing with
// the chat log.
func (c *ChatUsecase) HandleImageRequest(ctx context.Context, prompt string) (model.Image, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return model.Image{}, model.ErrEmptyRequest
	}
	if c.Image == nil {
		return model.Image{}, model.ErrMissingCredential
	}
	if !c.begin(&c.imageState) {
		return model.Image{}, model.ErrBusy
	}
	defer c.finish(&c.imageState)

	ctx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	defer cancel()

	var (
		image model.Image
		err   error
		pc    panics.Catcher
	)
	pc.Try(func() {
		image, err = c.Image.GenerateImage(ctx, prompt)
	})
	if recovered := pc.Recovered(); recovered != nil {
		return model.Image{}, fmt.Errorf("failed to generate image: %w", recovered.AsError())
	}
	return image, err
}

func (c *ChatUsecase) State() model.GenerationState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.chatState
}

func (c *ChatUsecase) ImageState() model.GenerationState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.imageState
}

// EvaluateMessage answers a math request in full, including the fixed
// message for text without a usable expression.
func (c *ChatUsecase) EvaluateMessage(lang local.Language, text string) string {
	value, err := mathexpr.Evaluate(mathexpr.Extract(text))
	if err != nil {
		log.Printf("math calculation error: %v", err)
		return TextMathInvalid.Text(lang)
	}
	return TextMathResult.Format(lang, value)
}

func (c *ChatUsecase) handle(ctx context.Context, lang local.Language, text string) (model.Reply, error) {
	if _, err := c.History.Append(ctx, model.MessageKindUser, text); err != nil {
		log.Printf("failed to add user message to history: %v", err)
	}

	intent := c.Intent.Classify(text)
	dispatchCtx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	defer cancel()

	reply, err := c.dispatch(dispatchCtx, lang, intent, text)
	if err != nil {
		return model.Reply{Intent: intent}, err
	}

	reply.Text = markup.Format(reply.Text)
	if _, err = c.History.Append(ctx, model.MessageKindAssistant, reply.Text); err != nil {
		log.Printf("failed to add answer to history: %v", err)
	}
	return reply, nil
}

func (c *ChatUsecase) dispatch(ctx context.Context, lang local.Language, intent model.Intent, text string) (model.Reply, error) {
	switch intent {
	case model.IntentGreeting, model.IntentGoodbye, model.IntentThanks:
		return model.Reply{Intent: intent, Text: c.cannedReply(lang, intent)}, nil
	case model.IntentMath:
		if mathexpr.Extract(text) == "" {
			return c.generateText(ctx, intent, text)
		}
		return model.Reply{Intent: intent, Text: c.EvaluateMessage(lang, text)}, nil
	case model.IntentImage:
		if c.cfg.RouteImageIntent && c.Image != nil {
			image, err := c.Image.GenerateImage(ctx, text)
			if err != nil {
				return model.Reply{}, err
			}
			return model.Reply{Intent: intent, Text: TextImageCaption.Format(lang, text), Image: &image}, nil
		}
		return c.generateText(ctx, intent, text)
	default:
		return c.generateText(ctx, intent, text)
	}
}

func (c *ChatUsecase) generateText(ctx context.Context, intent model.Intent, text string) (model.Reply, error) {
	answer, err := c.Text.GenerateText(ctx, text)
	if err != nil {
		return model.Reply{}, err
	}
	return model.Reply{Intent: intent, Text: answer}, nil
}

func (c *ChatUsecase) cannedReply(lang local.Language, intent model.Intent) string {
	replies := cannedReplies[intent]
	c.mu.Lock()
	idx := c.rnd.Intn(len(replies))
	c.mu.Unlock()
	return replies[idx].Text(lang)
}

func (c *ChatUsecase) begin(state *model.GenerationState) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if *state != model.GenerationStateIdle {
		return false
	}
	*state = model.GenerationStateAwaitingResponse
	return true
}

func (c *ChatUsecase) finish(state *model.GenerationState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	*state = model.GenerationStateIdle
}
