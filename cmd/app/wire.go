//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/yanqian/faq-chatbot/internal/bootstrap"
	"github.com/yanqian/faq-chatbot/internal/domain/conversation"
	"github.com/yanqian/faq-chatbot/internal/domain/faq"
	"github.com/yanqian/faq-chatbot/internal/infra/config"
	"github.com/yanqian/faq-chatbot/internal/infra/convlog"
	httpiface "github.com/yanqian/faq-chatbot/internal/interface/http"
	"github.com/yanqian/faq-chatbot/pkg/logger"
)

func initializeApp() (*bootstrap.App, error) {
	wire.Build(
		config.Load,
		logger.New,
		provideFAQConfig,
		provideConversationConfig,
		provideValkeyClient,
		providePostgresPool,
		provideBackendClient,
		provideStemmer,
		provideValidator,
		providePicker,
		provideEmbedder,
		provideFileSource,
		provideFAQSource,
		provideDatasetWatcher,
		provideFAQStore,
		provideSessionStore,
		provideLogSink,
		provideQueue,
		provideAnswerer,
		faq.NewCatalog,
		faq.NewSelector,
		faq.NewService,
		convlog.NewDispatcher,
		conversation.NewService,
		wire.Bind(new(conversation.Recorder), new(*convlog.Dispatcher)),
		httpiface.NewHandler,
		httpiface.NewRouter,
		bootstrap.NewApp,
	)
	return nil, nil
}
