package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/taskforge/backoffice/internal/core/domain"
)

const collectionUsers = "users"

// UserRepository implements ports.UserRepository on MongoDB.
type UserRepository struct {
	coll *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{coll: db.Collection(collectionUsers)}
}

type mongoUser struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Name         string             `bson:"name"`
	Email        string             `bson:"email"`
	PasswordHash string             `bson:"password_hash"`
	Role         string             `bson:"role"`
	Active       bool               `bson:"active"`
	Blocked      bool               `bson:"blocked"`

	ProfileCompleted       bool `bson:"profile_completed"`
	QualificationCompleted bool `bson:"qualification_completed"`
	KYCCompleted           bool `bson:"kyc_completed"`

	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func (mu *mongoUser) toDomain() *domain.User {
	return &domain.User{
		ID:                     mu.ID.Hex(),
		Name:                   mu.Name,
		Email:                  mu.Email,
		PasswordHash:           mu.PasswordHash,
		Role:                   domain.Role(mu.Role),
		Active:                 mu.Active,
		Blocked:                mu.Blocked,
		ProfileCompleted:       mu.ProfileCompleted,
		QualificationCompleted: mu.QualificationCompleted,
		KYCCompleted:           mu.KYCCompleted,
		CreatedAt:              mu.CreatedAt,
		UpdatedAt:              mu.UpdatedAt,
	}
}

// Create inserts a new user document. A duplicate email surfaces as
// domain.ErrUserExists (backed by the unique index from EnsureIndexes).
func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	now := time.Now().UTC()
	doc := mongoUser{
		Name:                   user.Name,
		Email:                  user.Email,
		PasswordHash:           user.PasswordHash,
		Role:                   string(user.Role),
		Active:                 user.Active,
		Blocked:                user.Blocked,
		ProfileCompleted:       user.ProfileCompleted,
		QualificationCompleted: user.QualificationCompleted,
		KYCCompleted:           user.KYCCompleted,
		CreatedAt:              now,
		UpdatedAt:              now,
	}

	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		doc.ID = oid
	}
	return doc.toDomain(), nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *UserRepository) FindAll(ctx context.Context) ([]*domain.User, error) {
	return r.findMany(ctx, bson.M{})
}

// FindRegisteredBetween returns users whose created_at falls inside
// [start, end].
func (r *UserRepository) FindRegisteredBetween(ctx context.Context, start, end time.Time) ([]*domain.User, error) {
	return r.findMany(ctx, bson.M{
		"created_at": bson.M{"$gte": start.UTC(), "$lte": end.UTC()},
	})
}

// UpdatePassword replaces the stored credential hash for the given email.
func (r *UserRepository) UpdatePassword(ctx context.Context, email, passwordHash string) (*domain.User, error) {
	return r.findOneAndUpdate(ctx,
		bson.M{"email": email},
		bson.M{"password_hash": passwordHash})
}

func (r *UserRepository) SetBlocked(ctx context.Context, id string, blocked bool) (*domain.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}
	return r.findOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{"blocked": blocked})
}

func (r *UserRepository) CompleteOnboardingStep(ctx context.Context, id string, step domain.OnboardingStep) (*domain.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}

	var field string
	switch step {
	case domain.StepProfile:
		field = "profile_completed"
	case domain.StepQualification:
		field = "qualification_completed"
	case domain.StepKYC:
		field = "kyc_completed"
	default:
		return nil, domain.ErrUnknownOnboardingStep
	}

	return r.findOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{field: true})
}

// CountActive counts accounts that are active and not blocked.
func (r *UserRepository) CountActive(ctx context.Context) (int64, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{"active": true, "blocked": false})
	if err != nil {
		return 0, fmt.Errorf("count active users: %w", err)
	}
	return n, nil
}

// EnsureIndexes creates the unique email index. Must run before the service
// accepts registrations, otherwise duplicate accounts can slip in.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "created_at", Value: 1}}},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexes)
	return err
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	var mu mongoUser
	if err := r.coll.FindOne(ctx, filter).Decode(&mu); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return mu.toDomain(), nil
}

func (r *UserRepository) findMany(ctx context.Context, filter bson.M) ([]*domain.User, error) {
	cur, err := r.coll.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("find users: %w", err)
	}
	defer cur.Close(ctx)

	var users []*domain.User
	for cur.Next(ctx) {
		var mu mongoUser
		if err := cur.Decode(&mu); err != nil {
			return nil, fmt.Errorf("decode user: %w", err)
		}
		users = append(users, mu.toDomain())
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}

// findOneAndUpdate applies a $set and returns the post-update document.
func (r *UserRepository) findOneAndUpdate(ctx context.Context, filter, set bson.M) (*domain.User, error) {
	set["updated_at"] = time.Now().UTC()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var mu mongoUser
	err := r.coll.FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, opts).Decode(&mu)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	return mu.toDomain(), nil
}
