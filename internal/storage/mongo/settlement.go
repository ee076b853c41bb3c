package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Avishkar0827/Expense-Manager/internal/core"
)

// ---- SharedExpenseStore ----

func (v *expenseStore) coll() *mongo.Collection {
	return v.db.Collection(collExpenses)
}

func (v *expenseStore) Insert(ctx context.Context, e core.SharedExpense) error {
	if _, err := v.coll().InsertOne(ctx, toExpenseDoc(e)); err != nil {
		return fmt.Errorf("insert shared expense: %w", err)
	}
	return nil
}

func (v *expenseStore) Get(ctx context.Context, id string) (core.SharedExpense, error) {
	var doc expenseDoc
	err := v.coll().FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return core.SharedExpense{}, core.NotFoundf("expense %s", id)
	}
	if err != nil {
		return core.SharedExpense{}, fmt.Errorf("load shared expense: %w", err)
	}
	return doc.expense(), nil
}

func (v *expenseStore) Delete(ctx context.Context, id string) error {
	res, err := v.coll().DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return fmt.Errorf("delete shared expense: %w", err)
	}
	if res.DeletedCount == 0 {
		return core.NotFoundf("expense %s", id)
	}
	return nil
}

func (v *expenseStore) ListForUser(ctx context.Context, user string) ([]core.SharedExpense, error) {
	filter := bson.D{{Key: "$or", Value: bson.A{
		bson.D{{Key: "paid_by", Value: user}},
		bson.D{{Key: "split_between.user", Value: user}},
	}}}
	cur, err := v.coll().Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "date", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("list shared expenses: %w", err)
	}
	defer cur.Close(ctx)

	var out []core.SharedExpense
	for cur.Next(ctx) {
		var doc expenseDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode shared expense: %w", err)
		}
		out = append(out, doc.expense())
	}
	return out, cur.Err()
}

// ---- FriendshipStore ----

func (v *friendStore) coll() *mongo.Collection {
	return v.db.Collection(collFriendships)
}

func (v *friendStore) Insert(ctx context.Context, f core.Friendship) error {
	f = core.NewFriendship(f.UserA, f.UserB)
	_, err := v.coll().InsertOne(ctx, friendshipDoc{
		UserA:     f.UserA,
		UserB:     f.UserB,
		CreatedAt: time.Now().UTC(),
	})
	if mongo.IsDuplicateKeyError(err) {
		return core.Conflictf("friendship between %s and %s already exists", f.UserA, f.UserB)
	}
	if err != nil {
		return fmt.Errorf("insert friendship: %w", err)
	}
	return nil
}

func (v *friendStore) Delete(ctx context.Context, f core.Friendship) error {
	f = core.NewFriendship(f.UserA, f.UserB)
	res, err := v.coll().DeleteOne(ctx, bson.D{
		{Key: "user_a", Value: f.UserA},
		{Key: "user_b", Value: f.UserB},
	})
	if err != nil {
		return fmt.Errorf("delete friendship: %w", err)
	}
	if res.DeletedCount == 0 {
		return core.NotFoundf("friendship between %s and %s", f.UserA, f.UserB)
	}
	return nil
}

func (v *friendStore) ListForUser(ctx context.Context, user string) ([]core.Friendship, error) {
	filter := bson.D{{Key: "$or", Value: bson.A{
		bson.D{{Key: "user_a", Value: user}},
		bson.D{{Key: "user_b", Value: user}},
	}}}
	cur, err := v.coll().Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list friendships: %w", err)
	}
	defer cur.Close(ctx)

	var out []core.Friendship
	for cur.Next(ctx) {
		var doc friendshipDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode friendship: %w", err)
		}
		out = append(out, core.Friendship{UserA: doc.UserA, UserB: doc.UserB})
	}
	return out, cur.Err()
}

// ---- UserStore ----

func (v *userStore) coll() *mongo.Collection {
	return v.db.Collection(collUsers)
}

func (v *userStore) Upsert(ctx context.Context, u core.User) error {
	set := bson.D{}
	if u.Username != "" {
		set = append(set, bson.E{Key: "username", Value: u.Username})
	}
	if u.Email != "" {
		set = append(set, bson.E{Key: "email", Value: strings.ToLower(u.Email)})
	}

	update := bson.D{{Key: "$setOnInsert", Value: bson.D{{Key: "_id", Value: u.ID}}}}
	if len(set) > 0 {
		update = append(update, bson.E{Key: "$set", Value: set})
	}

	_, err := v.coll().UpdateOne(ctx,
		bson.D{{Key: "_id", Value: u.ID}}, update,
		options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

func (v *userStore) FindByID(ctx context.Context, id string) (core.User, error) {
	var doc userDoc
	err := v.coll().FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return core.User{}, core.NotFoundf("user %s", id)
	}
	if err != nil {
		return core.User{}, fmt.Errorf("find user: %w", err)
	}
	return core.User(doc), nil
}

func (v *userStore) FindByEmail(ctx context.Context, email string) (core.User, error) {
	var doc userDoc
	err := v.coll().FindOne(ctx, bson.D{{Key: "email", Value: strings.ToLower(email)}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return core.User{}, core.NotFoundf("user with email %s", email)
	}
	if err != nil {
		return core.User{}, fmt.Errorf("find user by email: %w", err)
	}
	return core.User(doc), nil
}

func (v *userStore) Search(ctx context.Context, query, excludeID string) ([]core.User, error) {
	re := primitive.Regex{Pattern: regexp.QuoteMeta(query), Options: "i"}
	filter := bson.D{
		{Key: "_id", Value: bson.D{{Key: "$ne", Value: excludeID}}},
		{Key: "$or", Value: bson.A{
			bson.D{{Key: "username", Value: re}},
			bson.D{{Key: "email", Value: re}},
		}},
	}
	cur, err := v.coll().Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	defer cur.Close(ctx)

	var out []core.User
	for cur.Next(ctx) {
		var doc userDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode user: %w", err)
		}
		out = append(out, core.User(doc))
	}
	return out, cur.Err()
}
