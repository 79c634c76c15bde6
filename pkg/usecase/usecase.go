package usecase

import (
	"github.com/m-mizutani/gollem"
	"github.com/notelens/notelens/pkg/domain/interfaces"
	"github.com/notelens/notelens/pkg/service/embedding"
	"github.com/notelens/notelens/pkg/service/syncer"
)

type UseCases struct {
	repo     interfaces.Repository
	chatOpts []ChatOption

	Chat  *ChatUseCase
	Notes *NotesUseCase
	Auth  AuthUseCaseInterface
}

type Option func(*UseCases)

func WithAuth(auth AuthUseCaseInterface) Option {
	return func(uc *UseCases) {
		uc.Auth = auth
	}
}

// WithChatOptions forwards options to the chat use case
func WithChatOptions(opts ...ChatOption) Option {
	return func(uc *UseCases) {
		uc.chatOpts = append(uc.chatOpts, opts...)
	}
}

func New(repo interfaces.Repository, llmClient gollem.LLMClient, embedder *embedding.Embedder, sync *syncer.Syncer, opts ...Option) *UseCases {
	uc := &UseCases{
		repo: repo,
	}

	for _, opt := range opts {
		opt(uc)
	}

	uc.Chat = NewChatUseCase(repo, llmClient, embedder, uc.chatOpts...)
	uc.Notes = NewNotesUseCase(repo, sync)

	return uc
}
