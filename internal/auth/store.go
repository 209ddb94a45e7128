package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Sentinel errors for credential storage.
var (
	ErrCredentialNotFound = errors.New("credential not found")
	ErrCorruptCredential  = errors.New("stored credential is corrupt")
)

// Store persists a single credential.
// Load returns ErrCredentialNotFound when nothing has been saved yet.
type Store interface {
	Load(ctx context.Context) (*Credential, error)
	Save(ctx context.Context, cred *Credential) error
	Close() error
}

// credentialRecord is the Firestore document layout.
type credentialRecord struct {
	AccessToken  string    `firestore:"access_token"`
	RefreshToken string    `firestore:"refresh_token"`
	TokenType    string    `firestore:"token_type"`
	Expiry       time.Time `firestore:"expiry"`
	Scopes       []string  `firestore:"scopes"`
	UpdatedAt    time.Time `firestore:"updated_at"`
}

func (r credentialRecord) credential() *Credential {
	return &Credential{
		AccessToken:  r.AccessToken,
		RefreshToken: r.RefreshToken,
		TokenType:    r.TokenType,
		Expiry:       r.Expiry,
		Scopes:       r.Scopes,
	}
}

// FirestoreStore keeps the credential in a Firestore document so several
// machines can share one authorization.
type FirestoreStore struct {
	client     *firestore.Client
	collection string
	document   string
}

// NewFirestoreStore creates a new FirestoreStore.
func NewFirestoreStore(ctx context.Context, projectID, collection, document string) (*FirestoreStore, error) {
	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}

	return NewFirestoreStoreWithClient(client, collection, document), nil
}

// NewFirestoreStoreWithClient creates a new FirestoreStore with an existing Firestore client.
func NewFirestoreStoreWithClient(client *firestore.Client, collection, document string) *FirestoreStore {
	return &FirestoreStore{
		client:     client,
		collection: collection,
		document:   document,
	}
}

// Close closes the Firestore client.
func (s *FirestoreStore) Close() error {
	return s.client.Close()
}

// Load reads the credential document.
func (s *FirestoreStore) Load(ctx context.Context) (*Credential, error) {
	doc, err := s.client.Collection(s.collection).Doc(s.document).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrCredentialNotFound
		}
		return nil, fmt.Errorf("failed to get credential: %w", err)
	}

	var record credentialRecord
	if err := doc.DataTo(&record); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptCredential, err)
	}

	return record.credential(), nil
}

// Save writes the credential inside a transaction. A stored credential that
// supersedes cred was written by a concurrent refresh and is kept.
func (s *FirestoreStore) Save(ctx context.Context, cred *Credential) error {
	ref := s.client.Collection(s.collection).Doc(s.document)

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(ref)
		if err != nil && status.Code(err) != codes.NotFound {
			return err
		}
		if err == nil && doc.Exists() {
			var existing credentialRecord
			if doc.DataTo(&existing) == nil && existing.credential().supersedes(cred) {
				return nil
			}
		}

		return tx.Set(ref, credentialRecord{
			AccessToken:  cred.AccessToken,
			RefreshToken: cred.RefreshToken,
			TokenType:    cred.TokenType,
			Expiry:       cred.Expiry,
			Scopes:       cred.Scopes,
			UpdatedAt:    time.Now(),
		})
	})
	if err != nil {
		return fmt.Errorf("failed to store credential: %w", err)
	}
	return nil
}

// Ensure FirestoreStore implements Store.
var _ Store = (*FirestoreStore)(nil)
