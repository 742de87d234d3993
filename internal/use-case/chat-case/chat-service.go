package chat_service

import (
	"context"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/v2/bson"

	unread_cache "github.com/DarcRosya/Uchat-sub001/internal/cache"
	"github.com/DarcRosya/Uchat-sub001/internal/dtos/chat_dto"
	"github.com/DarcRosya/Uchat-sub001/internal/entity"
	app_error "github.com/DarcRosya/Uchat-sub001/internal/errors"
	"github.com/DarcRosya/Uchat-sub001/internal/permission"
	"github.com/DarcRosya/Uchat-sub001/internal/queue"
	chat_repo "github.com/DarcRosya/Uchat-sub001/internal/repo/chat"
	user_repo "github.com/DarcRosya/Uchat-sub001/internal/repo/user"
)

type ChatService struct {
	RoomRepo    chat_repo.RoomRepoContract
	MessageRepo chat_repo.MessageRepoContract
	UserRepo    user_repo.UserRepoContract
	Unread      unread_cache.UnreadCacheContract
	Producer    queue.Producer
	Validate    *validator.Validate
}

func NewChatService(
	roomRepo chat_repo.RoomRepoContract,
	messageRepo chat_repo.MessageRepoContract,
	userRepo user_repo.UserRepoContract,
	unread unread_cache.UnreadCacheContract,
	producer queue.Producer,
) ChatServiceContract {
	return &ChatService{
		RoomRepo:    roomRepo,
		MessageRepo: messageRepo,
		UserRepo:    userRepo,
		Unread:      unread,
		Producer:    producer,
		Validate:    chat_dto.NewValidator(),
	}
}

// SendMessage runs the two-store send saga: validate everything up front,
// insert the message document outside any relational transaction, then
// commit the relational aggregates as one unit. A relational failure after
// the insert triggers a compensating document delete; if that delete also
// fails the error carries NeedsReconciliation for the background job.
func (c *ChatService) SendMessage(ctx context.Context, req chat_dto.SendMessageRequest, senderID int64) (*chat_dto.SendMessageResponse, *app_error.AppError) {
	if err := c.Validate.Struct(req); err != nil {
		return nil, app_error.NewValidationError(err.Error(), "request")
	}

	room, appErr := c.RoomRepo.FindRoomByID(ctx, req.ChatRoomID)
	if appErr != nil {
		return nil, appErr
	}

	member, appErr := c.RoomRepo.FindMember(ctx, room.ID, senderID)
	if appErr != nil {
		if appErr.Code == http.StatusNotFound {
			return nil, app_error.NewAuthorizationError("sender is not a member of this chat room", "membership")
		}
		return nil, appErr
	}

	override, appErr := c.RoomRepo.FindOverride(ctx, room.ID, senderID)
	if appErr != nil {
		return nil, appErr
	}

	caps := permission.Resolve(*member, override, *room)
	if !caps.CanSendType(req.Type) {
		return nil, app_error.NewAuthorizationError("sending this message type is not allowed in this room", "capability")
	}

	sender, appErr := c.UserRepo.FindUserByID(ctx, senderID)
	if appErr != nil {
		return nil, appErr
	}

	members, appErr := c.RoomRepo.FindRoomMembers(ctx, room.ID)
	if appErr != nil {
		return nil, appErr
	}
	memberIDs := make([]int64, 0, len(members))
	for _, m := range members {
		memberIDs = append(memberIDs, m.UserID)
	}

	sentAt := time.Now().UTC()
	msg := c.buildMessage(req, sender, sentAt)

	var replyTo *bson.ObjectID
	if req.ReplyTo != nil {
		objID, err := bson.ObjectIDFromHex(*req.ReplyTo)
		if err != nil {
			return nil, app_error.NewValidationError("invalid reply_to id", "reply-to")
		}
		replyTo = &objID
	}
	msg.ReplyTo = replyTo

	// document insert first: if it fails nothing else has happened yet,
	// so the abort is clean
	msgID, appErr := c.MessageRepo.InsertMessage(ctx, msg)
	if appErr != nil {
		return nil, appErr
	}

	if appErr := c.RoomRepo.ApplySendAggregates(ctx, room.ID, senderID, memberIDs, sentAt); appErr != nil {
		// compensation must survive the caller's cancellation, which may
		// be the very reason the relational commit failed
		if delErr := c.MessageRepo.DeleteMessage(context.WithoutCancel(ctx), msgID); delErr != nil {
			log.Error().
				Str("message_id", msgID.Hex()).
				Int64("chat_id", room.ID).
				Msg("compensating delete failed, orphaned message document left for reconciliation")
			return nil, app_error.NewPartialFailure("message send failed and could not be compensated", true)
		}
		return nil, appErr
	}

	c.Unread.Increment(ctx, room.ID, memberIDs, senderID)
	c.notifyFanout(ctx, room.ID, msgID.Hex(), senderID, memberIDs, sentAt)

	return &chat_dto.SendMessageResponse{
		MessageID:  msgID.Hex(),
		ChatRoomID: room.ID,
		SentAt:     sentAt,
	}, nil
}

func (c *ChatService) buildMessage(req chat_dto.SendMessageRequest, sender *entity.User, sentAt time.Time) *entity.Message {
	msgType := req.Type
	if msgType == "" {
		msgType = entity.MessageTypeText
	}

	attachments := make([]entity.Attachment, 0, len(req.Attachments))
	for _, a := range req.Attachments {
		attachments = append(attachments, entity.Attachment{
			ID:           uuid.NewString(),
			FileName:     a.FileName,
			ContentType:  a.ContentType,
			Size:         a.Size,
			URL:          a.URL,
			ThumbnailURL: a.ThumbnailURL,
			Width:        a.Width,
			Height:       a.Height,
		})
	}

	return &entity.Message{
		ChatID: req.ChatRoomID,
		Sender: entity.SenderSnapshot{
			UserID:      sender.ID,
			Username:    sender.Username,
			DisplayName: sender.DisplayName,
			AvatarURL:   sender.AvatarURL,
		},
		Content:     req.Content,
		Type:        msgType,
		Attachments: attachments,
		ReadBy:      []int64{sender.ID},
		SentAt:      sentAt,
	}
}

// notifyFanout hands the committed message to the push service's queue.
// Delivery is the consumer's problem; a failed enqueue never fails the send.
func (c *ChatService) notifyFanout(ctx context.Context, chatID int64, messageID string, senderID int64, memberIDs []int64, sentAt time.Time) {
	recipients := make([]int64, 0, len(memberIDs))
	for _, id := range memberIDs {
		if id != senderID {
			recipients = append(recipients, id)
		}
	}

	job := queue.Job{
		ID:   uuid.NewString(),
		Type: queue.JobTypeMessageSent,
		Payload: queue.MustMarshal(queue.MessageSentPayload{
			ChatRoomID:   chatID,
			MessageID:    messageID,
			SenderID:     senderID,
			RecipientIDs: recipients,
			SentAt:       sentAt,
		}),
		Priority:  1,
		MaxRetry:  3,
		CreatedAt: sentAt.Unix(),
		ExpireAt:  sentAt.Add(time.Minute).Unix(),
	}
	if err := c.Producer.Enqueue(ctx, job); err != nil {
		log.Warn().Err(err).Str("message_id", messageID).Msg("failed to enqueue fan-out job")
	}
}

func (c *ChatService) GetMessages(ctx context.Context, req chat_dto.GetMessagesRequest, chatRoomID, userID int64) (*chat_dto.GetMessagesResponse, *app_error.AppError) {
	if err := c.Validate.Struct(req); err != nil {
		return nil, app_error.NewValidationError(err.Error(), "request")
	}

	if appErr := c.requireMembership(ctx, chatRoomID, userID); appErr != nil {
		return nil, appErr
	}

	limit := req.Limit
	if limit == 0 {
		limit = 20
	}

	messages, appErr := c.MessageRepo.GetMessages(ctx, chatRoomID, limit, req.BeforeID)
	if appErr != nil {
		return nil, appErr
	}

	respMessages := make([]chat_dto.ChatMessage, 0, len(messages))
	for _, msg := range messages {
		respMessages = append(respMessages, toChatMessage(msg))
	}

	var nextCursor *string
	if len(messages) > 0 {
		firstMsgID := messages[0].ID.Hex()
		nextCursor = &firstMsgID
	}

	return &chat_dto.GetMessagesResponse{
		Messages:   respMessages,
		NextCursor: nextCursor,
		HasMore:    len(messages) == limit,
	}, nil
}

func toChatMessage(msg *entity.Message) chat_dto.ChatMessage {
	content := msg.Content
	var attachments []chat_dto.AttachmentPayload
	if msg.IsDeleted {
		// soft-deleted bodies never leave the store layer
		content = ""
	} else {
		for _, a := range msg.Attachments {
			attachments = append(attachments, chat_dto.AttachmentPayload{
				FileName:     a.FileName,
				ContentType:  a.ContentType,
				Size:         a.Size,
				URL:          a.URL,
				ThumbnailURL: a.ThumbnailURL,
				Width:        a.Width,
				Height:       a.Height,
			})
		}
	}

	var replyTo *string
	if msg.ReplyTo != nil {
		hexID := msg.ReplyTo.Hex()
		replyTo = &hexID
	}

	return chat_dto.ChatMessage{
		MessageID:   msg.ID.Hex(),
		SenderID:    msg.Sender.UserID,
		SenderName:  msg.Sender.DisplayName,
		Content:     content,
		Type:        msg.Type,
		Attachments: attachments,
		ReplyTo:     replyTo,
		Reactions:   msg.Reactions,
		IsDeleted:   msg.IsDeleted,
		SentAt:      msg.SentAt,
		EditedAt:    msg.EditedAt,
	}
}

func (c *ChatService) EditMessage(ctx context.Context, req chat_dto.EditMessageRequest, userID int64) *app_error.AppError {
	if err := c.Validate.Struct(req); err != nil {
		return app_error.NewValidationError(err.Error(), "request")
	}

	msgID, _ := bson.ObjectIDFromHex(req.MessageID)
	msg, appErr := c.MessageRepo.FindMessageByID(ctx, msgID)
	if appErr != nil {
		return appErr
	}
	if msg.Sender.UserID != userID {
		return app_error.NewAuthorizationError("only the sender can edit a message", "sender")
	}
	if msg.IsDeleted {
		return app_error.NewNotFoundError("message not found or has been deleted", "not-found")
	}

	return c.MessageRepo.UpdateMessageContent(ctx, msgID, req.Content, time.Now().UTC())
}

func (c *ChatService) AddReaction(ctx context.Context, req chat_dto.ReactionRequest, userID int64) *app_error.AppError {
	return c.applyReaction(ctx, req, userID, c.MessageRepo.AddReaction)
}

func (c *ChatService) RemoveReaction(ctx context.Context, req chat_dto.ReactionRequest, userID int64) *app_error.AppError {
	return c.applyReaction(ctx, req, userID, c.MessageRepo.RemoveReaction)
}

func (c *ChatService) applyReaction(ctx context.Context, req chat_dto.ReactionRequest, userID int64, op func(context.Context, bson.ObjectID, string, int64) *app_error.AppError) *app_error.AppError {
	if err := c.Validate.Struct(req); err != nil {
		return app_error.NewValidationError(err.Error(), "request")
	}

	msgID, _ := bson.ObjectIDFromHex(req.MessageID)
	msg, appErr := c.MessageRepo.FindMessageByID(ctx, msgID)
	if appErr != nil {
		return appErr
	}

	if appErr := c.requireMembership(ctx, msg.ChatID, userID); appErr != nil {
		return appErr
	}

	return op(ctx, msgID, req.Emoji, userID)
}

// MarkChatRead stamps the user into every unread message's read-by set and
// zeroes the cached counter.
func (c *ChatService) MarkChatRead(ctx context.Context, chatRoomID, userID int64) *app_error.AppError {
	if appErr := c.requireMembership(ctx, chatRoomID, userID); appErr != nil {
		return appErr
	}

	if appErr := c.MessageRepo.MarkChatRead(ctx, chatRoomID, userID); appErr != nil {
		return appErr
	}

	c.Unread.Reset(ctx, chatRoomID, userID)
	return nil
}

func (c *ChatService) DeleteMessage(ctx context.Context, messageID string, userID int64) *app_error.AppError {
	msgID, err := bson.ObjectIDFromHex(messageID)
	if err != nil {
		return app_error.NewValidationError("invalid message id", "message-id")
	}

	msg, appErr := c.MessageRepo.FindMessageByID(ctx, msgID)
	if appErr != nil {
		return appErr
	}

	if msg.Sender.UserID != userID {
		room, appErr := c.RoomRepo.FindRoomByID(ctx, msg.ChatID)
		if appErr != nil {
			return appErr
		}
		member, appErr := c.RoomRepo.FindMember(ctx, msg.ChatID, userID)
		if appErr != nil {
			if appErr.Code == http.StatusNotFound {
				return app_error.NewAuthorizationError("no permission to delete this message", "capability")
			}
			return appErr
		}
		override, appErr := c.RoomRepo.FindOverride(ctx, msg.ChatID, userID)
		if appErr != nil {
			return appErr
		}
		if !permission.Resolve(*member, override, *room).DeleteMessages {
			return app_error.NewAuthorizationError("no permission to delete this message", "capability")
		}
	}

	return c.MessageRepo.SoftDeleteMessage(ctx, msgID)
}

func (c *ChatService) GetUnreadCount(ctx context.Context, chatRoomID, userID int64) (int64, *app_error.AppError) {
	if appErr := c.requireMembership(ctx, chatRoomID, userID); appErr != nil {
		return 0, appErr
	}
	return c.Unread.GetCount(ctx, chatRoomID, userID)
}

func (c *ChatService) requireMembership(ctx context.Context, chatRoomID, userID int64) *app_error.AppError {
	if _, appErr := c.RoomRepo.FindMember(ctx, chatRoomID, userID); appErr != nil {
		if appErr.Code == http.StatusNotFound {
			return app_error.NewAuthorizationError("user is not a member of this chat room", "membership")
		}
		return appErr
	}
	return nil
}
