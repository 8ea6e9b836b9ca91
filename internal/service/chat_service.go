package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"pagechat-backend/internal/config"
	"pagechat-backend/internal/model"
	"pagechat-backend/internal/storage"
	"pagechat-backend/internal/utils"
	"pagechat-backend/pkg/logger"

	einoModel "github.com/cloudwego/eino/components/model"
)

var (
	ErrEmptyQuestion = errors.New("question is empty")
	ErrNoPageContent = errors.New("no page content loaded")
)

type State string

const (
	StateIdle       State = "idle"
	StateDebouncing State = "debouncing"
	StateRequesting State = "requesting"
)

const (
	fallbackResponse = "No response generated"
	errorPrefix      = "❌ Error: "
	subscriberBuffer = 64
)

// ChatService answers questions about the current page. At most one
// request is pending: a new submission cancels the debounce timer and any
// in-flight completion. Each submission bumps the generation counter and a
// completion only reaches the transcript if its generation is still current.
type ChatService struct {
	chatModel  einoModel.BaseChatModel
	transcript storage.Transcript
	cache      storage.ResponseCache
	tokens     *utils.TokenCounter

	debounce    time.Duration
	maxContent  int
	temperature float32
	maxTokens   int

	mu         sync.Mutex
	content    *model.ExtractedContent
	state      State
	generation uint64
	timer      *time.Timer
	cancel     context.CancelFunc

	subMu       sync.Mutex
	subscribers map[chan model.ChatMessage]struct{}
}

func NewChatService(chatModel einoModel.BaseChatModel, transcript storage.Transcript, cache storage.ResponseCache, cfg *config.Config) *ChatService {
	s := &ChatService{
		chatModel:   chatModel,
		transcript:  transcript,
		cache:       cache,
		debounce:    cfg.Chat.Debounce,
		maxContent:  cfg.Chat.MaxContentChars,
		temperature: cfg.LLM.Temperature,
		maxTokens:   cfg.LLM.MaxTokens,
		state:       StateIdle,
		subscribers: make(map[chan model.ChatMessage]struct{}),
	}
	if cfg.Chat.EstimateTokens {
		s.tokens = utils.NewTokenCounter(cfg.LLM.Model)
		go func() {
			if err := s.tokens.Load(); err != nil {
				logger.Warnf("token estimates disabled: %v", err)
			}
		}()
	}
	return s
}

// Submit queues question for an answer. It fails with ErrEmptyQuestion or
// ErrNoPageContent and otherwise returns nil; the answer arrives later in
// the transcript.
func (s *ChatService) Submit(question string) error {
	question = strings.TrimSpace(question)
	if question == "" {
		return ErrEmptyQuestion
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.content == nil {
		return ErrNoPageContent
	}

	s.preemptLocked()
	gen := s.generation
	s.appendLocked(model.NewChatMessage(model.RoleUser, question))

	s.state = StateDebouncing
	s.timer = time.AfterFunc(s.debounce, func() {
		s.dispatch(gen, question)
	})
	return nil
}

// dispatch runs once the debounce window has elapsed.
func (s *ChatService) dispatch(gen uint64, question string) {
	s.mu.Lock()
	if gen != s.generation || s.content == nil {
		s.mu.Unlock()
		return
	}
	content := s.content
	s.timer = nil
	s.mu.Unlock()

	text, truncated := truncateRunes(content.TextContent, s.maxContent)
	if truncated {
		logger.Debugf("page content truncated to %d characters", s.maxContent)
	}

	messages, err := buildMessages(context.Background(), text, question)
	if err != nil {
		logger.Errorf("build prompt: %v", err)
		s.finish(gen, errorPrefix+err.Error())
		return
	}

	fingerprint := Fingerprint(messages)
	if cached, ok := s.cache.Get(fingerprint); ok {
		logger.Debugf("response cache hit %s", fingerprint[:12])
		s.finish(gen, cached)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		return
	}
	s.cancel = cancel
	s.state = StateRequesting
	s.mu.Unlock()

	fields := logger.Fields{"url": content.SourceURL, "generation": gen}
	if s.tokens != nil {
		estimate, ok := 0, true
		for _, m := range messages {
			n, loaded := s.tokens.Estimate(m.Content)
			if !loaded {
				ok = false
				break
			}
			estimate += n
		}
		if ok {
			fields["prompt_tokens"] = estimate
		}
	}
	logger.WithFields(fields).Info("sending completion request")

	resp, err := s.chatModel.Generate(ctx, messages,
		einoModel.WithTemperature(s.temperature),
		einoModel.WithMaxTokens(s.maxTokens),
	)
	if err != nil {
		reqErr := model.ClassifyError(ctx, err)
		if reqErr.Kind == model.RequestAborted {
			logger.Debugf("completion for generation %d aborted", gen)
			s.release(gen)
			return
		}
		logger.Warnf("completion failed: %v", reqErr)
		s.finish(gen, errorPrefix+reqErr.Error())
		return
	}

	answer := ""
	if resp != nil {
		answer = resp.Content
	}
	if answer == "" {
		answer = fallbackResponse
	}
	s.cache.Put(fingerprint, answer)
	s.finish(gen, answer)
}

// finish appends the assistant reply for gen unless a newer submission
// has taken over.
func (s *ChatService) finish(gen uint64, reply string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation {
		return
	}
	s.appendLocked(model.NewChatMessage(model.RoleAssistant, reply))
	s.releaseLocked()
}

func (s *ChatService) release(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen == s.generation {
		s.releaseLocked()
	}
}

func (s *ChatService) releaseLocked() {
	s.cancel = nil
	s.timer = nil
	s.state = StateIdle
}

// preemptLocked invalidates whatever is pending.
func (s *ChatService) preemptLocked() {
	s.generation++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.state = StateIdle
}

func (s *ChatService) appendLocked(msg model.ChatMessage) {
	if err := s.transcript.Append(msg); err != nil {
		logger.Errorf("append %s message: %v", msg.Role, err)
		return
	}
	s.broadcast(msg)
}

// PostNotice appends an assistant message that is not a reply, such as the
// page greeting.
func (s *ChatService) PostNotice(text string) model.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg := model.NewChatMessage(model.RoleAssistant, text)
	s.appendLocked(msg)
	return msg
}

// SetContent replaces the page the questions are answered from and drops
// any pending request built on the old one. A non-empty greeting is
// appended before any question can be accepted for the new page.
func (s *ChatService) SetContent(content *model.ExtractedContent, greeting string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.preemptLocked()
	s.content = content
	if greeting != "" {
		s.appendLocked(model.NewChatMessage(model.RoleAssistant, greeting))
	}
}

func (s *ChatService) Content() *model.ExtractedContent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.content
}

// Reset clears the transcript, cancels pending work and forgets the page.
func (s *ChatService) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.preemptLocked()
	s.content = nil
	s.transcript.Clear()
}

func (s *ChatService) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *ChatService) Messages() []model.ChatMessage {
	return s.transcript.List()
}

func (s *ChatService) TranscriptLen() int {
	return s.transcript.Len()
}

func (s *ChatService) CachedResponses() int {
	return s.cache.Len()
}

// Subscribe streams every message appended from now on. The returned
// function unsubscribes and closes the channel. Slow subscribers miss
// messages rather than block the transcript.
func (s *ChatService) Subscribe() (<-chan model.ChatMessage, func()) {
	ch := make(chan model.ChatMessage, subscriberBuffer)

	s.subMu.Lock()
	s.subscribers[ch] = struct{}{}
	s.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subscribers, ch)
			s.subMu.Unlock()
			close(ch)
		})
	}
}

func (s *ChatService) broadcast(msg model.ChatMessage) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	for ch := range s.subscribers {
		select {
		case ch <- msg:
		default:
			logger.Warnf("dropping message %s for slow subscriber", msg.ID)
		}
	}
}

// Close cancels pending work; used on shutdown.
func (s *ChatService) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.preemptLocked()
}
