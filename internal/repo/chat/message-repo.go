package chat_repo

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/DarcRosya/Uchat-sub001/internal/entity"
	app_error "github.com/DarcRosya/Uchat-sub001/internal/errors"
	"github.com/DarcRosya/Uchat-sub001/state"
)

const (
	MessageDatabase   = "chat_db"
	MessageCollection = "messages"
)

type MessageRepo struct {
	AppState *state.AppState
}

func NewMessageRepo(appState *state.AppState) MessageRepoContract {
	return &MessageRepo{
		AppState: appState,
	}
}

func (r *MessageRepo) collection() *mongo.Collection {
	return r.AppState.Mongo.Database(MessageDatabase).Collection(MessageCollection)
}

// EnsureIndexes backs the per-chat history scan and the unread fallback
// scan. Called once at startup.
func (r *MessageRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection().Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "chat_id", Value: 1}, {Key: "_id", Value: -1}}},
		{Keys: bson.D{{Key: "chat_id", Value: 1}, {Key: "read_by", Value: 1}}},
	})
	return err
}

func (r *MessageRepo) InsertMessage(ctx context.Context, msg *entity.Message) (bson.ObjectID, *app_error.AppError) {
	if msg.ID.IsZero() {
		msg.ID = bson.NewObjectID()
	}
	if _, err := r.collection().InsertOne(ctx, msg); err != nil {
		return bson.NilObjectID, app_error.NewAppError(http.StatusInternalServerError, fmt.Sprintf("failed to create message: %v", err), "mongo")
	}
	return msg.ID, nil
}

// DeleteMessage is a physical delete, used only to compensate a failed
// relational commit. User-visible deletion goes through SoftDeleteMessage.
func (r *MessageRepo) DeleteMessage(ctx context.Context, messageID bson.ObjectID) *app_error.AppError {
	res, err := r.collection().DeleteOne(ctx, bson.M{"_id": messageID})
	if err != nil {
		return app_error.NewAppError(http.StatusInternalServerError, fmt.Sprintf("failed to delete message: %v", err), "mongo")
	}
	if res.DeletedCount == 0 {
		return app_error.NewNotFoundError("message not found", "not-found")
	}
	return nil
}

func (r *MessageRepo) SoftDeleteMessage(ctx context.Context, messageID bson.ObjectID) *app_error.AppError {
	_, err := r.collection().UpdateOne(ctx,
		bson.M{"_id": messageID},
		bson.M{"$set": bson.M{"is_deleted": true}},
	)
	if err != nil {
		return app_error.NewAppError(http.StatusInternalServerError, fmt.Sprintf("failed to soft delete message: %v", err), "mongo")
	}
	return nil
}

func (r *MessageRepo) FindMessageByID(ctx context.Context, messageID bson.ObjectID) (*entity.Message, *app_error.AppError) {
	var message entity.Message
	if err := r.collection().FindOne(ctx, bson.M{"_id": messageID}).Decode(&message); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, app_error.NewNotFoundError("message not found or has been deleted", "not-found")
		}
		return nil, app_error.NewAppError(http.StatusInternalServerError, fmt.Sprintf("failed to fetch message: %v", err), "mongo")
	}
	return &message, nil
}

func (r *MessageRepo) UpdateMessageContent(ctx context.Context, messageID bson.ObjectID, content string, editedAt time.Time) *app_error.AppError {
	res, err := r.collection().UpdateOne(ctx,
		bson.M{"_id": messageID, "is_deleted": false},
		bson.M{"$set": bson.M{"content": content, "edited_at": editedAt}},
	)
	if err != nil {
		return app_error.NewAppError(http.StatusInternalServerError, "failed to update message", "mongo")
	}
	if res.MatchedCount == 0 {
		return app_error.NewNotFoundError("message not found or has been deleted", "not-found")
	}
	return nil
}

func (r *MessageRepo) AddReaction(ctx context.Context, messageID bson.ObjectID, emoji string, userID int64) *app_error.AppError {
	res, err := r.collection().UpdateOne(ctx,
		bson.M{"_id": messageID, "is_deleted": false},
		bson.M{"$addToSet": bson.M{"reactions." + emoji: userID}},
	)
	if err != nil {
		return app_error.NewAppError(http.StatusInternalServerError, fmt.Sprintf("failed to add reaction: %v", err), "mongo")
	}
	if res.MatchedCount == 0 {
		return app_error.NewNotFoundError("message not found or has been deleted", "not-found")
	}
	return nil
}

func (r *MessageRepo) RemoveReaction(ctx context.Context, messageID bson.ObjectID, emoji string, userID int64) *app_error.AppError {
	res, err := r.collection().UpdateOne(ctx,
		bson.M{"_id": messageID},
		bson.M{"$pull": bson.M{"reactions." + emoji: userID}},
	)
	if err != nil {
		return app_error.NewAppError(http.StatusInternalServerError, fmt.Sprintf("failed to remove reaction: %v", err), "mongo")
	}
	if res.MatchedCount == 0 {
		return app_error.NewNotFoundError("message not found", "not-found")
	}
	return nil
}

func (r *MessageRepo) MarkChatRead(ctx context.Context, chatID, userID int64) *app_error.AppError {
	_, err := r.collection().UpdateMany(ctx,
		bson.M{"chat_id": chatID, "read_by": bson.M{"$ne": userID}},
		bson.M{"$addToSet": bson.M{"read_by": userID}},
	)
	if err != nil {
		return app_error.NewAppError(http.StatusInternalServerError, fmt.Sprintf("failed to mark chat read: %v", err), "mongo")
	}
	return nil
}

// CountUnread is the authoritative unread scan the cache falls back to:
// live messages in the chat whose read-by set excludes the user.
func (r *MessageRepo) CountUnread(ctx context.Context, chatID, userID int64) (int64, *app_error.AppError) {
	count, err := r.collection().CountDocuments(ctx, bson.M{
		"chat_id":    chatID,
		"is_deleted": false,
		"read_by":    bson.M{"$ne": userID},
	})
	if err != nil {
		return 0, app_error.NewAppError(http.StatusInternalServerError, fmt.Sprintf("failed to count unread messages: %v", err), "mongo")
	}
	return count, nil
}

func (r *MessageRepo) GetMessages(ctx context.Context, chatID int64, limit int, beforeID *string) ([]*entity.Message, *app_error.AppError) {
	filter := bson.M{"chat_id": chatID}

	// cursor pagination: ObjectIDs are time-ordered, so _id < beforeID
	// pages backwards through history
	if beforeID != nil {
		objID, err := bson.ObjectIDFromHex(*beforeID)
		if err != nil {
			return nil, app_error.NewValidationError(fmt.Sprintf("error when trying to parse before_id: %v", err), "before-id")
		}
		filter["_id"] = bson.M{"$lt": objID}
	}

	cur, err := r.collection().Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "_id", Value: -1}}).SetLimit(int64(limit)))
	if err != nil {
		return nil, app_error.NewAppError(http.StatusInternalServerError, fmt.Sprintf("failed to fetch messages: %v", err), "mongo")
	}
	defer cur.Close(ctx)

	var messages []*entity.Message
	if err := cur.All(ctx, &messages); err != nil {
		return nil, app_error.NewAppError(http.StatusInternalServerError, fmt.Sprintf("failed to decode messages: %v", err), "mongo")
	}

	// ascending order for the caller (oldest to newest)
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nil
}
