package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"go.pilab.hu/tubedash/domain"
	"go.pilab.hu/tubedash/internal/crypto"
)

// CredentialRepositoryMongo implements domain.CredentialRepository. Token
// values are sealed with the cipher before they touch a document; version
// filtering on the update makes CompareAndSwap atomic without transactions.
type CredentialRepositoryMongo struct {
	collection *mongo.Collection
	cipher     *crypto.TokenCipher
}

func NewCredentialRepositoryMongo(ctx context.Context, db *mongo.Database, cipher *crypto.TokenCipher) (*CredentialRepositoryMongo, error) {
	repo := &CredentialRepositoryMongo{
		collection: db.Collection(CredentialsCollection),
		cipher:     cipher,
	}
	if err := repo.createIndexes(ctx); err != nil {
		log.Warn().Err(err).Msg("failed to create credentials indexes")
	}
	return repo, nil
}

func (r *CredentialRepositoryMongo) createIndexes(ctx context.Context) error {
	indexModels := []mongo.IndexModel{
		{
			// At most one credential per (user, provider) pair.
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "provider", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			// A provider account links to at most one local user.
			Keys:    bson.D{{Key: "provider", Value: 1}, {Key: "provider_account_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	_, err := r.collection.Indexes().CreateMany(ctx, indexModels)
	if err != nil {
		return fmt.Errorf("creating indexes for %s collection: %w", CredentialsCollection, err)
	}
	return nil
}

func (r *CredentialRepositoryMongo) GetByUserAndProvider(ctx context.Context, userID, provider string) (*domain.TokenRecord, error) {
	var rec domain.TokenRecord
	filter := bson.M{"user_id": userID, "provider": provider}
	err := r.collection.FindOne(ctx, filter).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrCredentialNotFound
	}
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Str("provider", provider).Msg("error reading credential")
		return nil, err
	}
	if err := r.openRecord(&rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *CredentialRepositoryMongo) CompareAndSwap(ctx context.Context, userID, provider string, expectedVersion int64, rec *domain.TokenRecord) error {
	sealed := *rec
	if err := r.sealRecord(&sealed); err != nil {
		return err
	}

	set := bson.M{
		"access_token":        sealed.AccessToken,
		"provider_account_id": sealed.ProviderAccountID,
		"version":             expectedVersion + 1,
		"updated_at":          time.Now().UTC(),
	}
	unset := bson.M{}
	if sealed.RefreshToken != "" {
		set["refresh_token"] = sealed.RefreshToken
	} else {
		unset["refresh_token"] = ""
	}
	if sealed.ExpiresAt != nil {
		set["expires_at"] = *sealed.ExpiresAt
	} else {
		unset["expires_at"] = ""
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	filter := bson.M{"user_id": userID, "provider": provider, "version": expectedVersion}
	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Str("provider", provider).Msg("error writing credential")
		return err
	}
	if result.MatchedCount == 0 {
		// Either the version moved on or the record is gone; the caller
		// re-reads to find out which.
		if _, getErr := r.GetByUserAndProvider(ctx, userID, provider); errors.Is(getErr, domain.ErrCredentialNotFound) {
			return domain.ErrCredentialNotFound
		}
		return domain.ErrVersionConflict
	}
	return nil
}

func (r *CredentialRepositoryMongo) Upsert(ctx context.Context, rec *domain.TokenRecord) error {
	sealed := *rec
	if err := r.sealRecord(&sealed); err != nil {
		return err
	}

	now := time.Now().UTC()
	set := bson.M{
		"access_token":        sealed.AccessToken,
		"provider_account_id": sealed.ProviderAccountID,
		"updated_at":          now,
	}
	unset := bson.M{}
	if sealed.RefreshToken != "" {
		set["refresh_token"] = sealed.RefreshToken
	} else {
		unset["refresh_token"] = ""
	}
	if sealed.ExpiresAt != nil {
		set["expires_at"] = *sealed.ExpiresAt
	} else {
		unset["expires_at"] = ""
	}

	update := bson.M{
		"$set":         set,
		"$inc":         bson.M{"version": 1},
		"$setOnInsert": bson.M{"created_at": now},
	}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	filter := bson.M{"user_id": rec.UserID, "provider": rec.Provider}
	_, err := r.collection.UpdateOne(ctx, filter, update, options.UpdateOne().SetUpsert(true))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return errors.New("provider account already linked to another user")
		}
		log.Error().Err(err).Str("user_id", rec.UserID).Str("provider", rec.Provider).Msg("error upserting credential")
		return err
	}
	return nil
}

func (r *CredentialRepositoryMongo) sealRecord(rec *domain.TokenRecord) error {
	access, err := r.cipher.Seal(rec.AccessToken)
	if err != nil {
		return fmt.Errorf("sealing access token: %w", err)
	}
	refresh, err := r.cipher.Seal(rec.RefreshToken)
	if err != nil {
		return fmt.Errorf("sealing refresh token: %w", err)
	}
	rec.AccessToken, rec.RefreshToken = access, refresh
	return nil
}

func (r *CredentialRepositoryMongo) openRecord(rec *domain.TokenRecord) error {
	access, err := r.cipher.Open(rec.AccessToken)
	if err != nil {
		return fmt.Errorf("opening access token: %w", err)
	}
	refresh, err := r.cipher.Open(rec.RefreshToken)
	if err != nil {
		return fmt.Errorf("opening refresh token: %w", err)
	}
	rec.AccessToken, rec.RefreshToken = access, refresh
	return nil
}

var _ domain.CredentialRepository = (*CredentialRepositoryMongo)(nil)
