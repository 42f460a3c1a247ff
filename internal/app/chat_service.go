package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"babymeasure/internal/domain"
	"babymeasure/internal/extract"
)

// ChatService is the entry point for chat messages from every front end.
// It is safe for concurrent use.
type ChatService struct {
	extractor  *extract.Extractor
	dispatcher *Dispatcher
	logger     *zap.Logger
	metrics    *Metrics
	now        func() time.Time
}

// NewChatService creates a ChatService.
func NewChatService(ex *extract.Extractor, d *Dispatcher, logger *zap.Logger, metrics *Metrics) *ChatService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatService{extractor: ex, dispatcher: d, logger: logger, metrics: metrics, now: time.Now}
}

// Reply answers a chat message. It never fails: every problem is turned
// into an apologetic answer.
func (s *ChatService) Reply(ctx context.Context, text string) (resp domain.Response) {
	defer func() {
		if r := recover(); r != nil {
			s.metrics.RecordFailure("panic")
			s.logger.Error("panic while answering message",
				zap.String("text", text),
				zap.Error(fmt.Errorf("%v", r)),
				zap.Stack("stack"),
			)
			resp = domain.Response{Text: apology}
		}
	}()

	now := s.now()
	ins := s.extractor.Extract(text, now)
	s.logger.Debug("extracted instruction", zap.String("text", text), zap.Stringer("instruction", ins))
	return s.dispatcher.Dispatch(ctx, ins, now)
}

// Explain returns the instruction text would be turned into, without
// running it.
func (s *ChatService) Explain(text string) domain.Instruction {
	return s.extractor.Extract(text, s.now())
}
