package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	bookingserrors "clinicdesk/internal/bookings/errors"
	"clinicdesk/pkg/config"
	mongotx "clinicdesk/pkg/db/mongo"
	"clinicdesk/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Bookings"

	// Upper bound on a single booking's duration. Matches the model
	// validation (duration_min <= 1440) and bounds the range prefilter.
	maxBookingDuration = 24 * time.Hour
)

type mongoBookingRepository struct {
	cfg        *config.Config
	db         *mongo.Database
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

type BookingRepository interface {
	Create(ctx context.Context, booking *model.Booking) error
	FindByID(ctx context.Context, id string) (*model.Booking, error)
	Update(ctx context.Context, id string, booking *model.Booking) (*mongo.UpdateResult, error)
	FindByRange(ctx context.Context, from, to time.Time, kind model.BookingKind) ([]*model.Booking, error)
	FindByResourceAndRange(ctx context.Context, resourceID string, from, to time.Time, excludeID string) ([]*model.Booking, error)
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

func NewMongoBookingRepository(cfg *config.Config) BookingRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoBookingRepository{
		cfg:        cfg,
		db:         db,
		collection: db.Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

// withTimeout wraps the context with a timeout if not already in a transaction.
// When inside a transaction (SessionContext), returns the original context unchanged
// with a no-op cancel function, as we cannot wrap SessionContext without breaking
// transaction semantics.
func (r *mongoBookingRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}

	deadline, hasDeadline := ctx.Deadline()
	if !hasDeadline {
		return context.WithTimeout(ctx, timeout)
	}

	remaining := time.Until(deadline)
	if remaining < timeout {
		return context.WithTimeout(ctx, remaining)
	}

	return context.WithTimeout(ctx, timeout)
}

func (r *mongoBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	booking.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.collection.InsertOne(ctx, booking)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		booking.ID = oid.Hex()
	}
	return nil
}

func (r *mongoBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	filter := bson.M{"_id": objectID}

	var booking model.Booking
	err = r.collection.FindOne(ctx, filter).Decode(&booking)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bookingserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find booking: %w", err)
	}

	return &booking, nil
}

func (r *mongoBookingRepository) Update(ctx context.Context, id string, booking *model.Booking) (*mongo.UpdateResult, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	booking.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)

	filter := bson.M{"_id": objectID}
	update := bson.M{
		"$set": bson.M{
			"kind":          booking.Kind,
			"start_time":    booking.Start,
			"duration_min":  booking.DurationMin,
			"patient_ref":   booking.PatientRef,
			"patient_name":  booking.PatientName,
			"label":         booking.Label,
			"resources":     booking.Resources,
			"notes":         booking.Notes,
			"status":        booking.Status,
			"cancel_reason": booking.CancelReason,
			"updated_at":    booking.UpdatedAt,
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return nil, fmt.Errorf("failed to update booking: %w", err)
	}

	if result.MatchedCount == 0 {
		return nil, bookingserrors.ErrNotFound
	}

	return result, nil
}

// FindByRange returns active bookings overlapping the half-open window
// [from, to), sorted by start time. Cancelled bookings are never returned.
// An empty kind matches all kinds.
func (r *mongoBookingRepository) FindByRange(ctx context.Context, from, to time.Time, kind model.BookingKind) ([]*model.Booking, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := r.buildRangeFilter(from, to)
	if kind != "" {
		filter["kind"] = kind
	}

	return r.findOverlapping(ctx, filter, from)
}

// FindByResourceAndRange returns active bookings that hold resourceID and
// overlap [from, to). excludeID, when non-empty, removes that booking from
// the result so updates do not conflict with themselves.
func (r *mongoBookingRepository) FindByResourceAndRange(ctx context.Context, resourceID string, from, to time.Time, excludeID string) ([]*model.Booking, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := r.buildRangeFilter(from, to)
	filter["resources"] = resourceID

	if excludeID != "" {
		objectID, err := primitive.ObjectIDFromHex(excludeID)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, excludeID)
		}
		filter["_id"] = bson.M{"$ne": objectID}
	}

	return r.findOverlapping(ctx, filter, from)
}

// buildRangeFilter prefilters on start_time only. End times are derived from
// duration_min, so the lower bound is widened by the maximum duration and the
// exact end > from check happens after decoding.
func (r *mongoBookingRepository) buildRangeFilter(from, to time.Time) bson.M {
	return bson.M{
		"status": bson.M{"$ne": model.StatusCancelled},
		"start_time": bson.M{
			"$lt": to,
			"$gt": from.Add(-maxBookingDuration),
		},
	}
}

func (r *mongoBookingRepository) findOverlapping(ctx context.Context, filter bson.M, from time.Time) ([]*model.Booking, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "start_time", Value: 1}, {Key: "_id", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find bookings: %w", err)
	}
	defer cursor.Close(ctx)

	var candidates []*model.Booking
	if err = cursor.All(ctx, &candidates); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}

	bookings := make([]*model.Booking, 0, len(candidates))
	for _, b := range candidates {
		if b.End().After(from) {
			bookings = append(bookings, b)
		}
	}

	return bookings, nil
}

func (r *mongoBookingRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
