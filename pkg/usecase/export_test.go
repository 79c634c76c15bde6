package usecase

import (
	"time"

	"github.com/m-mizutani/gollem"
	"github.com/notelens/notelens/pkg/domain/model/auth"
)

var (
	WindowMessages        = windowMessages
	BuildChatSystemPrompt = buildChatSystemPrompt
)

func NewEventEmittingTool(inner gollem.Tool, sink EventSink) gollem.Tool {
	return &eventEmittingTool{inner: inner, sink: sink}
}

func (uc *AuthUseCase) CacheIdentity(credential string, id *auth.Identity) {
	uc.cache.set(credential, id, time.Time{})
}
