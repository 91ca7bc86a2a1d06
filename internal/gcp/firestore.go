package gcp

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"github.com/Lllllllleong/symbolscraperpredictor/internal/models"
)

// NewFirestoreClient creates and returns a new Firestore client for the given project ID.
func NewFirestoreClient(ctx context.Context, projectID string) (*firestore.Client, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID must be provided to create a firestore client")
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore client: %w", err)
	}

	return client, nil
}

// FindOne returns the first document in collection whose field equals value,
// or nil when there is none.
func FindOne(ctx context.Context, client *firestore.Client, collection, field string, value any) (*firestore.DocumentSnapshot, error) {
	docs, err := client.Collection(collection).Where(field, "==", value).Limit(1).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to query %s by %s: %w", collection, field, err)
	}
	if len(docs) == 0 {
		return nil, nil
	}
	return docs[0], nil
}

// FirestoreRecords stores prediction records in one Firestore collection.
type FirestoreRecords struct {
	Client     *firestore.Client
	Collection string
}

// FindByHash returns the ID and contents of the record for fileHash, or an
// empty ID and nil record when there is none.
func (r FirestoreRecords) FindByHash(ctx context.Context, fileHash string) (string, *models.PredictionRecord, error) {
	snap, err := FindOne(ctx, r.Client, r.Collection, "fileHash", fileHash)
	if err != nil || snap == nil {
		return "", nil, err
	}
	var record models.PredictionRecord
	if err := snap.DataTo(&record); err != nil {
		return "", nil, fmt.Errorf("failed to decode record %s: %w", snap.Ref.ID, err)
	}
	return snap.Ref.ID, &record, nil
}

// Create adds record and returns its generated ID.
func (r FirestoreRecords) Create(ctx context.Context, record models.PredictionRecord) (string, error) {
	ref, _, err := r.Client.Collection(r.Collection).Add(ctx, record)
	if err != nil {
		return "", fmt.Errorf("failed to create record: %w", err)
	}
	return ref.ID, nil
}

// Update applies updates to the record with ID docID.
func (r FirestoreRecords) Update(ctx context.Context, docID string, updates []firestore.Update) error {
	if _, err := r.Client.Collection(r.Collection).Doc(docID).Update(ctx, updates); err != nil {
		return fmt.Errorf("failed to update record %s: %w", docID, err)
	}
	return nil
}
