package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/DarcRosya/Uchat-sub001/config"
	unread_cache "github.com/DarcRosya/Uchat-sub001/internal/cache"
	"github.com/DarcRosya/Uchat-sub001/internal/entity"
	"github.com/DarcRosya/Uchat-sub001/internal/queue"
	chat_repo "github.com/DarcRosya/Uchat-sub001/internal/repo/chat"
	user_repo "github.com/DarcRosya/Uchat-sub001/internal/repo/user"
	chat_service "github.com/DarcRosya/Uchat-sub001/internal/use-case/chat-case"
	membership_service "github.com/DarcRosya/Uchat-sub001/internal/use-case/membership-case"
	"github.com/DarcRosya/Uchat-sub001/state"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	if err := config.LoadConfig(); err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appState, err := state.InitAppState(ctx, stop)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize application state")
	}
	defer appState.Close()

	if err := appState.DB.AutoMigrate(
		&entity.User{},
		&entity.ChatRoom{},
		&entity.RoomMember{},
		&entity.PermissionOverride{},
		&entity.Contact{},
	); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate relational schema")
	}

	roomRepo := chat_repo.NewRoomRepo(appState)
	messageRepo := chat_repo.NewMessageRepo(appState)
	userRepo := user_repo.NewUserRepo(appState)

	if mr, ok := messageRepo.(*chat_repo.MessageRepo); ok {
		if err := mr.EnsureIndexes(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to ensure message indexes")
		}
	}

	unreadCache := unread_cache.NewUnreadCache(appState.Redis, messageRepo, config.Conf.UnreadTTL())
	producer := queue.NewProducer(appState.Redis)

	chatSvc := chat_service.NewChatService(roomRepo, messageRepo, userRepo, unreadCache, producer)
	membershipSvc := membership_service.NewMembershipService(roomRepo, userRepo)

	runUntilShutdown(ctx, chatSvc, membershipSvc)
}

// runUntilShutdown keeps the wired services alive for externally attached
// transports (HTTP, websocket fan-out) until the process is asked to stop.
func runUntilShutdown(ctx context.Context, _ chat_service.ChatServiceContract, _ membership_service.MembershipServiceContract) {
	log.Info().Str("app", config.Conf.App.Name).Msg("chat core initialized, transport attaches externally")
	<-ctx.Done()
	log.Info().Msg("Shutdown initiated...")
}
