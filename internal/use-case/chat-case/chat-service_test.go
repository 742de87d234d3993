package chat_service

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/DarcRosya/Uchat-sub001/internal/dtos/chat_dto"
	"github.com/DarcRosya/Uchat-sub001/internal/entity"
	app_error "github.com/DarcRosya/Uchat-sub001/internal/errors"
	"github.com/DarcRosya/Uchat-sub001/internal/queue"
)

// ---- fakes ----

type fakeRoomRepo struct {
	room        *entity.ChatRoom
	members     []*entity.RoomMember
	override    *entity.PermissionOverride
	overrideFor int64
	aggErr      *app_error.AppError
	aggCalls    int
}

func (f *fakeRoomRepo) FindRoomByID(_ context.Context, roomID int64) (*entity.ChatRoom, *app_error.AppError) {
	if f.room == nil || f.room.ID != roomID {
		return nil, app_error.NewNotFoundError("room not found", "room-id")
	}
	return f.room, nil
}

func (f *fakeRoomRepo) FindMember(_ context.Context, roomID, userID int64) (*entity.RoomMember, *app_error.AppError) {
	for _, m := range f.members {
		if m.RoomID == roomID && m.UserID == userID {
			return m, nil
		}
	}
	return nil, app_error.NewNotFoundError("user is not a member of this room", "membership")
}

func (f *fakeRoomRepo) FindRoomMembers(_ context.Context, roomID int64) ([]*entity.RoomMember, *app_error.AppError) {
	return f.members, nil
}

func (f *fakeRoomRepo) CountMembers(_ context.Context, roomID int64) (int64, *app_error.AppError) {
	return int64(len(f.members)), nil
}

func (f *fakeRoomRepo) FindOverride(_ context.Context, roomID, userID int64) (*entity.PermissionOverride, *app_error.AppError) {
	if f.override != nil && f.overrideFor == userID {
		return f.override, nil
	}
	return nil, nil
}

func (f *fakeRoomRepo) CreateRoomWithMembers(_ context.Context, _ *entity.ChatRoom, _ []entity.RoomMember) *app_error.AppError {
	return nil
}

func (f *fakeRoomRepo) InsertMember(_ context.Context, _ *entity.RoomMember) *app_error.AppError {
	return nil
}

func (f *fakeRoomRepo) DeleteMember(_ context.Context, _, _ int64) *app_error.AppError {
	return nil
}

func (f *fakeRoomRepo) UpdateMemberRole(_ context.Context, _, _ int64, _ string) *app_error.AppError {
	return nil
}

func (f *fakeRoomRepo) ApplySendAggregates(_ context.Context, _, _ int64, _ []int64, _ time.Time) *app_error.AppError {
	f.aggCalls++
	return f.aggErr
}

type fakeMessageRepo struct {
	inserted  []*entity.Message
	insertErr *app_error.AppError
	deleteErr *app_error.AppError
	deleted   []bson.ObjectID
	softDel   []bson.ObjectID
	edited    bool
	marked    bool
	unread    int64
}

func (f *fakeMessageRepo) InsertMessage(_ context.Context, msg *entity.Message) (bson.ObjectID, *app_error.AppError) {
	if f.insertErr != nil {
		return bson.NilObjectID, f.insertErr
	}
	if msg.ID.IsZero() {
		msg.ID = bson.NewObjectID()
	}
	f.inserted = append(f.inserted, msg)
	return msg.ID, nil
}

func (f *fakeMessageRepo) DeleteMessage(_ context.Context, messageID bson.ObjectID) *app_error.AppError {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, messageID)
	return nil
}

func (f *fakeMessageRepo) SoftDeleteMessage(_ context.Context, messageID bson.ObjectID) *app_error.AppError {
	f.softDel = append(f.softDel, messageID)
	return nil
}

func (f *fakeMessageRepo) FindMessageByID(_ context.Context, messageID bson.ObjectID) (*entity.Message, *app_error.AppError) {
	for _, m := range f.inserted {
		if m.ID == messageID {
			return m, nil
		}
	}
	return nil, app_error.NewNotFoundError("message not found or has been deleted", "not-found")
}

func (f *fakeMessageRepo) UpdateMessageContent(_ context.Context, _ bson.ObjectID, _ string, _ time.Time) *app_error.AppError {
	f.edited = true
	return nil
}

func (f *fakeMessageRepo) AddReaction(_ context.Context, _ bson.ObjectID, _ string, _ int64) *app_error.AppError {
	return nil
}

func (f *fakeMessageRepo) RemoveReaction(_ context.Context, _ bson.ObjectID, _ string, _ int64) *app_error.AppError {
	return nil
}

func (f *fakeMessageRepo) MarkChatRead(_ context.Context, _, _ int64) *app_error.AppError {
	f.marked = true
	return nil
}

func (f *fakeMessageRepo) CountUnread(_ context.Context, _, _ int64) (int64, *app_error.AppError) {
	return f.unread, nil
}

func (f *fakeMessageRepo) GetMessages(_ context.Context, _ int64, _ int, _ *string) ([]*entity.Message, *app_error.AppError) {
	return f.inserted, nil
}

type fakeUserRepo struct {
	users map[int64]*entity.User
}

func (f *fakeUserRepo) FindUserByID(_ context.Context, userID int64) (*entity.User, *app_error.AppError) {
	if u, ok := f.users[userID]; ok {
		return u, nil
	}
	return nil, app_error.NewNotFoundError("cannot find user", "user-id")
}

func (f *fakeUserRepo) FindUsersByIDs(_ context.Context, userIDs []int64) (map[int64]*entity.User, *app_error.AppError) {
	out := make(map[int64]*entity.User)
	for _, id := range userIDs {
		if u, ok := f.users[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}

type unreadCall struct {
	chatID       int64
	participants []int64
	exclude      int64
}

type fakeUnread struct {
	increments []unreadCall
	resets     []unreadCall
	count      int64
}

func (f *fakeUnread) Increment(_ context.Context, chatID int64, participantIDs []int64, excludeUserID int64) {
	f.increments = append(f.increments, unreadCall{chatID: chatID, participants: participantIDs, exclude: excludeUserID})
}

func (f *fakeUnread) GetCount(_ context.Context, chatID, userID int64) (int64, *app_error.AppError) {
	return f.count, nil
}

func (f *fakeUnread) Reset(_ context.Context, chatID, userID int64) {
	f.resets = append(f.resets, unreadCall{chatID: chatID, exclude: userID})
}

type fakeProducer struct {
	jobs []queue.Job
	err  error
}

func (f *fakeProducer) Enqueue(_ context.Context, job queue.Job) error {
	if f.err != nil {
		return f.err
	}
	f.jobs = append(f.jobs, job)
	return nil
}

// ---- fixtures ----

func fullDefaults() entity.RoomDefaults {
	return entity.RoomDefaults{
		AllowSendText:    true,
		AllowSendPhoto:   true,
		AllowSendVideo:   true,
		AllowSendSticker: true,
		AllowSendMusic:   true,
		AllowSendFile:    true,
	}
}

type testEnv struct {
	svc      *ChatService
	rooms    *fakeRoomRepo
	messages *fakeMessageRepo
	users    *fakeUserRepo
	unread   *fakeUnread
	producer *fakeProducer
}

func newTestEnv() *testEnv {
	rooms := &fakeRoomRepo{
		room: &entity.ChatRoom{ID: 1, Name: "general", RT: entity.RoomTypePrivate, Defaults: fullDefaults()},
		members: []*entity.RoomMember{
			{RoomID: 1, UserID: 10, Role: entity.RoleOwner},
			{RoomID: 1, UserID: 11, Role: entity.RoleMember},
			{RoomID: 1, UserID: 12, Role: entity.RoleMember},
		},
	}
	messages := &fakeMessageRepo{}
	users := &fakeUserRepo{users: map[int64]*entity.User{
		10: {ID: 10, Username: "u1", DisplayName: "User One"},
		11: {ID: 11, Username: "u2", DisplayName: "User Two"},
		12: {ID: 12, Username: "u3", DisplayName: "User Three"},
	}}
	unread := &fakeUnread{}
	producer := &fakeProducer{}

	svc := NewChatService(rooms, messages, users, unread, producer).(*ChatService)
	return &testEnv{svc: svc, rooms: rooms, messages: messages, users: users, unread: unread, producer: producer}
}

// ---- tests ----

func TestSendMessage_Success(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	resp, appErr := env.svc.SendMessage(ctx, chat_dto.SendMessageRequest{ChatRoomID: 1, Content: "hi"}, 11)

	require.Nil(t, appErr)
	require.NotNil(t, resp)
	assert.Equal(t, int64(1), resp.ChatRoomID)
	_, err := bson.ObjectIDFromHex(resp.MessageID)
	assert.NoError(t, err, "message id should be a valid ObjectID hex")

	require.Len(t, env.messages.inserted, 1)
	msg := env.messages.inserted[0]
	assert.Equal(t, "hi", msg.Content)
	assert.Equal(t, entity.MessageTypeText, msg.Type)
	assert.Equal(t, int64(11), msg.Sender.UserID)
	assert.Equal(t, "User Two", msg.Sender.DisplayName, "sender snapshot denormalized at send time")
	assert.Contains(t, msg.ReadBy, int64(11), "sender has read their own message")

	assert.Equal(t, 1, env.rooms.aggCalls, "relational aggregates applied exactly once")

	require.Len(t, env.unread.increments, 1)
	assert.Equal(t, int64(11), env.unread.increments[0].exclude)
	assert.ElementsMatch(t, []int64{10, 11, 12}, env.unread.increments[0].participants)

	require.Len(t, env.producer.jobs, 1)
	assert.Equal(t, queue.JobTypeMessageSent, env.producer.jobs[0].Type)
}

func TestSendMessage_ContentTooLong(t *testing.T) {
	env := newTestEnv()

	resp, appErr := env.svc.SendMessage(context.Background(), chat_dto.SendMessageRequest{
		ChatRoomID: 1,
		Content:    strings.Repeat("a", 5001),
	}, 11)

	assert.Nil(t, resp)
	require.NotNil(t, appErr)
	assert.Equal(t, http.StatusBadRequest, appErr.Code)
	assert.Empty(t, env.messages.inserted, "no document written on validation failure")
	assert.Zero(t, env.rooms.aggCalls, "no relational change on validation failure")
}

func TestSendMessage_EmptyContentAndAttachments(t *testing.T) {
	env := newTestEnv()

	_, appErr := env.svc.SendMessage(context.Background(), chat_dto.SendMessageRequest{ChatRoomID: 1}, 11)

	require.NotNil(t, appErr)
	assert.Equal(t, http.StatusBadRequest, appErr.Code)
}

func TestSendMessage_TooManyAttachments(t *testing.T) {
	env := newTestEnv()

	attachments := make([]chat_dto.AttachmentPayload, 11)
	for i := range attachments {
		attachments[i] = chat_dto.AttachmentPayload{
			FileName: "f.png", ContentType: "image/png", Size: 1, URL: "https://cdn.example.com/f.png",
		}
	}

	_, appErr := env.svc.SendMessage(context.Background(), chat_dto.SendMessageRequest{
		ChatRoomID:  1,
		Attachments: attachments,
	}, 11)

	require.NotNil(t, appErr)
	assert.Equal(t, http.StatusBadRequest, appErr.Code)
}

func TestSendMessage_RoomNotFound(t *testing.T) {
	env := newTestEnv()

	_, appErr := env.svc.SendMessage(context.Background(), chat_dto.SendMessageRequest{ChatRoomID: 999, Content: "hi"}, 11)

	require.NotNil(t, appErr)
	assert.Equal(t, http.StatusNotFound, appErr.Code)
}

func TestSendMessage_NotAMember(t *testing.T) {
	env := newTestEnv()

	_, appErr := env.svc.SendMessage(context.Background(), chat_dto.SendMessageRequest{ChatRoomID: 1, Content: "hi"}, 99)

	require.NotNil(t, appErr)
	assert.Equal(t, http.StatusForbidden, appErr.Code)
	assert.Empty(t, env.messages.inserted)
}

func TestSendMessage_RoomDefaultDeniesType(t *testing.T) {
	env := newTestEnv()
	env.rooms.room.Defaults.AllowSendPhoto = false

	_, appErr := env.svc.SendMessage(context.Background(), chat_dto.SendMessageRequest{
		ChatRoomID: 1, Content: "pic", Type: entity.MessageTypePhoto,
	}, 11)

	require.NotNil(t, appErr)
	assert.Equal(t, http.StatusForbidden, appErr.Code)
	assert.Empty(t, env.messages.inserted)
}

func TestSendMessage_OverrideDeniesMember(t *testing.T) {
	env := newTestEnv()
	denied := false
	env.rooms.override = &entity.PermissionOverride{RoomID: 1, UserID: 11, CanSendText: &denied}
	env.rooms.overrideFor = 11

	_, appErr := env.svc.SendMessage(context.Background(), chat_dto.SendMessageRequest{ChatRoomID: 1, Content: "hi"}, 11)

	require.NotNil(t, appErr)
	assert.Equal(t, http.StatusForbidden, appErr.Code)
}

func TestSendMessage_OwnerIgnoresDenyingOverride(t *testing.T) {
	env := newTestEnv()
	denied := false
	env.rooms.override = &entity.PermissionOverride{RoomID: 1, UserID: 10, CanSendText: &denied}
	env.rooms.overrideFor = 10

	resp, appErr := env.svc.SendMessage(context.Background(), chat_dto.SendMessageRequest{ChatRoomID: 1, Content: "hi"}, 10)

	require.Nil(t, appErr)
	require.NotNil(t, resp)
}

func TestSendMessage_DocumentInsertFails(t *testing.T) {
	env := newTestEnv()
	env.messages.insertErr = app_error.NewInternalError("mongo down", "mongo")

	resp, appErr := env.svc.SendMessage(context.Background(), chat_dto.SendMessageRequest{ChatRoomID: 1, Content: "hi"}, 11)

	assert.Nil(t, resp)
	require.NotNil(t, appErr)
	assert.False(t, appErr.NeedsReconciliation)
	assert.Zero(t, env.rooms.aggCalls, "no relational transaction after a failed insert")
	assert.Empty(t, env.messages.deleted, "nothing to compensate")
}

func TestSendMessage_RelationalFailsCompensationSucceeds(t *testing.T) {
	env := newTestEnv()
	env.rooms.aggErr = app_error.NewInternalError("commit failed", "db-error")

	resp, appErr := env.svc.SendMessage(context.Background(), chat_dto.SendMessageRequest{ChatRoomID: 1, Content: "hi"}, 11)

	assert.Nil(t, resp, "no messageId exposed on a compensated failure")
	require.NotNil(t, appErr)
	assert.False(t, appErr.NeedsReconciliation)
	require.Len(t, env.messages.deleted, 1, "compensating delete removed the document")
	assert.Equal(t, env.messages.inserted[0].ID, env.messages.deleted[0])
	assert.Empty(t, env.unread.increments, "no side effects after a failed send")
	assert.Empty(t, env.producer.jobs)
}

func TestSendMessage_CompensationAlsoFails(t *testing.T) {
	env := newTestEnv()
	env.rooms.aggErr = app_error.NewInternalError("commit failed", "db-error")
	env.messages.deleteErr = app_error.NewInternalError("mongo down", "mongo")

	resp, appErr := env.svc.SendMessage(context.Background(), chat_dto.SendMessageRequest{ChatRoomID: 1, Content: "hi"}, 11)

	assert.Nil(t, resp)
	require.NotNil(t, appErr)
	assert.True(t, appErr.NeedsReconciliation, "orphaned document flagged for the reconciliation job")
}

func TestSendMessage_QueueFailureDoesNotFailSend(t *testing.T) {
	env := newTestEnv()
	env.producer.err = assert.AnError

	resp, appErr := env.svc.SendMessage(context.Background(), chat_dto.SendMessageRequest{ChatRoomID: 1, Content: "hi"}, 11)

	require.Nil(t, appErr)
	require.NotNil(t, resp)
}

func TestEditMessage_NotSender(t *testing.T) {
	env := newTestEnv()
	_, appErr := env.svc.SendMessage(context.Background(), chat_dto.SendMessageRequest{ChatRoomID: 1, Content: "hi"}, 11)
	require.Nil(t, appErr)
	msgID := env.messages.inserted[0].ID.Hex()

	editErr := env.svc.EditMessage(context.Background(), chat_dto.EditMessageRequest{MessageID: msgID, Content: "edited"}, 12)

	require.NotNil(t, editErr)
	assert.Equal(t, http.StatusForbidden, editErr.Code)
	assert.False(t, env.messages.edited)
}

func TestEditMessage_BySender(t *testing.T) {
	env := newTestEnv()
	_, appErr := env.svc.SendMessage(context.Background(), chat_dto.SendMessageRequest{ChatRoomID: 1, Content: "hi"}, 11)
	require.Nil(t, appErr)
	msgID := env.messages.inserted[0].ID.Hex()

	editErr := env.svc.EditMessage(context.Background(), chat_dto.EditMessageRequest{MessageID: msgID, Content: "edited"}, 11)

	require.Nil(t, editErr)
	assert.True(t, env.messages.edited)
}

func TestMarkChatRead_ResetsCounter(t *testing.T) {
	env := newTestEnv()

	appErr := env.svc.MarkChatRead(context.Background(), 1, 12)

	require.Nil(t, appErr)
	assert.True(t, env.messages.marked)
	require.Len(t, env.unread.resets, 1)
	assert.Equal(t, int64(1), env.unread.resets[0].chatID)
}

func TestDeleteMessage_SoftDeleteOnly(t *testing.T) {
	env := newTestEnv()
	_, appErr := env.svc.SendMessage(context.Background(), chat_dto.SendMessageRequest{ChatRoomID: 1, Content: "hi"}, 11)
	require.Nil(t, appErr)
	msgID := env.messages.inserted[0].ID

	delErr := env.svc.DeleteMessage(context.Background(), msgID.Hex(), 11)

	require.Nil(t, delErr)
	assert.Contains(t, env.messages.softDel, msgID)
	assert.Empty(t, env.messages.deleted, "user deletion never hard-deletes")
}

func TestDeleteMessage_MemberWithoutCapability(t *testing.T) {
	env := newTestEnv()
	_, appErr := env.svc.SendMessage(context.Background(), chat_dto.SendMessageRequest{ChatRoomID: 1, Content: "hi"}, 11)
	require.Nil(t, appErr)
	msgID := env.messages.inserted[0].ID.Hex()

	delErr := env.svc.DeleteMessage(context.Background(), msgID, 12)

	require.NotNil(t, delErr)
	assert.Equal(t, http.StatusForbidden, delErr.Code)
}

func TestDeleteMessage_OwnerDeletesOthersMessage(t *testing.T) {
	env := newTestEnv()
	_, appErr := env.svc.SendMessage(context.Background(), chat_dto.SendMessageRequest{ChatRoomID: 1, Content: "hi"}, 11)
	require.Nil(t, appErr)
	msgID := env.messages.inserted[0].ID

	delErr := env.svc.DeleteMessage(context.Background(), msgID.Hex(), 10)

	require.Nil(t, delErr)
	assert.Contains(t, env.messages.softDel, msgID)
}
