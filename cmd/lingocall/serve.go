package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"lingocall/internal/api"
	"lingocall/internal/config"
	"lingocall/internal/domain"
	"lingocall/internal/engine/ollama"
	"lingocall/internal/engine/whisper"
	"lingocall/internal/handler"
	"lingocall/internal/persist"
	"lingocall/internal/repository"
	"lingocall/internal/repository/memory"
	"lingocall/internal/service"
	"lingocall/internal/tokenizer"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	tele "gopkg.in/telebot.v3"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the Telegram bot and the status API",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := zap.NewProduction()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		defer logger.Sync()

		return serve(logger)
	},
}

func serve(logger *zap.Logger) error {
	logger.Info("Starting lingocall")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger.Info("Configuration loaded successfully", zap.String("store", cfg.Store.Driver))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStores(cfg, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	queue := persist.NewQueue(persist.DefaultSize, logger)
	vocab := memory.NewWriteBehind(st.vocab, queue, logger)
	warmVocabulary(vocab, st.contacts, logger)

	scheduler := service.NewScheduler(vocab, tokenizer.New(), logger)
	learners := service.NewLearnerService(st.learners, cfg.BotPassword, cfg.Call.NativeLanguage)

	generator := ollama.New(cfg.Engines.OllamaURL, cfg.Engines.OllamaModel)
	if !generator.IsRunning(ctx) {
		logger.Warn("Ollama is not reachable, contacts will use fixed lines", zap.String("url", cfg.Engines.OllamaURL))
	}

	bot, err := tele.NewBot(tele.Settings{
		Token:  cfg.BotToken,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	})
	if err != nil {
		return fmt.Errorf("failed to create bot: %w", err)
	}
	logger.Info("Telegram bot initialized")

	capture := handler.NewVoiceCapture()
	speaker := handler.NewChatSpeaker(bot)

	orchestrator := service.NewOrchestrator(service.OrchestratorDeps{
		Scheduler:   scheduler,
		Generator:   generator,
		Transcriber: whisper.New(cfg.Engines.WhisperURL, ""),
		Speaker:     speaker,
		Capture:     capture,
		Contacts:    st.contacts,
		Queue:       queue,
	}, service.OrchestratorConfig{
		NativeLanguage: cfg.Call.NativeLanguage,
		ListenWindow:   cfg.Call.ListenWindow,
		HistoryWindow:  cfg.Call.HistoryWindow,
		StickyFallback: cfg.Call.StickyFallback,
	}, logger)
	orchestrator.OnTransition(func(from, to domain.CallState) {
		logger.Debug("Call state changed", zap.String("from", string(from)), zap.String("to", string(to)))
	})

	h := handler.NewHandler(bot, learners, scheduler, orchestrator, st.contacts, capture, speaker, logger)
	h.RegisterHandlers()
	logger.Info("Handlers registered")

	g, gctx := errgroup.WithContext(ctx)

	// The queue outlives gctx and is stopped by shutdown.
	queueCtx, stopQueue := context.WithCancel(context.Background())
	defer stopQueue()

	g.Go(func() error {
		return queue.Run(queueCtx)
	})

	g.Go(func() error {
		logger.Info("Bot started successfully")
		bot.Start()
		return nil
	})

	var srv *http.Server
	if cfg.APIAddr != "" {
		srv = &http.Server{
			Addr: cfg.APIAddr,
			Handler: api.NewHandler(api.Deps{
				Calls:    orchestrator,
				Schedule: scheduler,
				Queue:    queue,
				Logger:   logger,
			}),
			ReadHeaderTimeout: 5 * time.Second,
			BaseContext: func(_ net.Listener) context.Context {
				return gctx
			},
		}

		g.Go(func() error {
			logger.Info("Status API listening", zap.String("addr", cfg.APIAddr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("status api: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutdown signal received, stopping bot...")
		return shutdown(orchestrator, bot, srv, stopQueue)
	})

	err = g.Wait()
	logger.Info("Stopped gracefully")
	return err
}

type callEnder interface {
	EndConversation()
}

type botStopper interface {
	Stop()
}

// shutdown ends the active call, stops the bot and the status API, and only
// then lets the persist queue drain. srv may be nil.
func shutdown(calls callEnder, bot botStopper, srv *http.Server, stopQueue context.CancelFunc) error {
	defer stopQueue()

	calls.EndConversation()
	bot.Stop()

	if srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("status api shutdown: %w", err)
	}
	return nil
}

// warmVocabulary loads the words of every contact language into memory.
// A failed warm-up only means words are read through on first use.
func warmVocabulary(vocab *memory.WriteBehind, contacts repository.ContactRepository, logger *zap.Logger) {
	list, err := contacts.ListContacts()
	if err != nil {
		logger.Warn("Failed to list contacts for warm-up", zap.Error(err))
		return
	}

	seen := make(map[string]bool)
	for _, c := range list {
		if seen[c.Language] {
			continue
		}
		seen[c.Language] = true

		n, err := vocab.Warm(c.Language)
		if err != nil {
			logger.Warn("Failed to warm vocabulary", zap.String("language", c.Language), zap.Error(err))
			continue
		}
		logger.Info("Vocabulary warmed", zap.String("language", c.Language), zap.Int("words", n))
	}
}
