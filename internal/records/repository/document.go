package repository

import (
	"context"
	"fmt"
	"time"

	"clinicdesk/pkg/config"
	"clinicdesk/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const CollectionName = "Patient_documents"

type DocumentRepository interface {
	Create(ctx context.Context, doc *model.PatientDocument) error
	FindByPatientRef(ctx context.Context, patientRef string) ([]*model.PatientDocument, error)
}

type mongoDocumentRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoDocumentRepository(cfg *config.Config) DocumentRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoDocumentRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoDocumentRepository) Create(ctx context.Context, doc *model.PatientDocument) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	doc.UploadedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.collection.InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("failed to store patient document: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		doc.ID = oid.Hex()
	}
	return nil
}

func (r *mongoDocumentRepository) FindByPatientRef(ctx context.Context, patientRef string) ([]*model.PatientDocument, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "uploaded_at", Value: -1}}).
		SetProjection(bson.M{"content": 0}) // listings never carry the payload

	cursor, err := r.collection.Find(ctx, bson.M{"patient_ref": patientRef}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find patient documents: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []*model.PatientDocument
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode patient documents: %w", err)
	}

	return docs, nil
}
