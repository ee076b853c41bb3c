package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Avishkar0827/Expense-Manager/internal/core"
)

func arrayField(kind core.TransactionKind) string {
	if kind == core.KindIncome {
		return "incomes"
	}
	return "expenses"
}

func (v *ledgerStore) coll() *mongo.Collection {
	return v.db.Collection(collLedgers)
}

func (v *ledgerStore) findAndUpdate(ctx context.Context, filter, update bson.D, opts ...*options.FindOneAndUpdateOptions) (core.Ledger, error) {
	opts = append(opts, options.FindOneAndUpdate().SetReturnDocument(options.After))

	var doc ledgerDoc
	err := v.coll().FindOneAndUpdate(ctx, filter, update, opts...).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return core.Ledger{}, core.NotFoundf("ledger update matched no document")
	}
	if err != nil {
		return core.Ledger{}, fmt.Errorf("update ledger: %w", err)
	}
	return doc.ledger(), nil
}

func (v *ledgerStore) GetOrCreate(ctx context.Context, owner string) (core.Ledger, error) {
	return v.findAndUpdate(ctx,
		bson.D{{Key: "_id", Value: owner}},
		bson.D{{Key: "$setOnInsert", Value: bson.D{
			{Key: "incomes", Value: bson.A{}},
			{Key: "expenses", Value: bson.A{}},
			{Key: "categories", Value: core.DefaultCategories()},
			{Key: "balance_cents", Value: int64(0)},
		}}},
		options.FindOneAndUpdate().SetUpsert(true))
}

func (v *ledgerStore) AppendTransaction(ctx context.Context, owner string, t core.Transaction, delta core.Money) (core.Ledger, error) {
	return v.findAndUpdate(ctx,
		bson.D{{Key: "_id", Value: owner}},
		bson.D{
			{Key: "$push", Value: bson.D{{Key: arrayField(t.Kind), Value: toTxDoc(t)}}},
			{Key: "$inc", Value: bson.D{{Key: "balance_cents", Value: int64(delta)}}},
			{Key: "$setOnInsert", Value: bson.D{{Key: "categories", Value: core.DefaultCategories()}}},
		},
		options.FindOneAndUpdate().SetUpsert(true))
}

func (v *ledgerStore) ReplaceTransaction(ctx context.Context, owner string, t core.Transaction, delta core.Money) (core.Ledger, error) {
	field := arrayField(t.Kind)
	l, err := v.findAndUpdate(ctx,
		bson.D{{Key: "_id", Value: owner}, {Key: field + ".id", Value: t.ID}},
		bson.D{
			{Key: "$set", Value: bson.D{{Key: field + ".$", Value: toTxDoc(t)}}},
			{Key: "$inc", Value: bson.D{{Key: "balance_cents", Value: int64(delta)}}},
		})
	if core.IsNotFound(err) {
		return core.Ledger{}, core.NotFoundf("transaction %s", t.ID)
	}
	return l, err
}

func (v *ledgerStore) RemoveTransaction(ctx context.Context, owner string, kind core.TransactionKind, id string, delta core.Money) (core.Ledger, error) {
	field := arrayField(kind)
	l, err := v.findAndUpdate(ctx,
		bson.D{{Key: "_id", Value: owner}, {Key: field + ".id", Value: id}},
		bson.D{
			{Key: "$pull", Value: bson.D{{Key: field, Value: bson.D{{Key: "id", Value: id}}}}},
			{Key: "$inc", Value: bson.D{{Key: "balance_cents", Value: int64(delta)}}},
		})
	if core.IsNotFound(err) {
		return core.Ledger{}, core.NotFoundf("transaction %s", id)
	}
	return l, err
}

func (v *ledgerStore) AddCategory(ctx context.Context, owner, name string) (core.Ledger, error) {
	if _, err := v.GetOrCreate(ctx, owner); err != nil {
		return core.Ledger{}, err
	}
	return v.findAndUpdate(ctx,
		bson.D{{Key: "_id", Value: owner}},
		bson.D{{Key: "$addToSet", Value: bson.D{{Key: "categories", Value: name}}}})
}

// RemoveCategory pulls the category and its expenses in one write,
// then stores the balance recomputed from the remaining entries. The
// recompute is a second write on the same document, matching the
// cascade's read-modify-write shape.
func (v *ledgerStore) RemoveCategory(ctx context.Context, owner, name string) (core.Ledger, error) {
	l, err := v.findAndUpdate(ctx,
		bson.D{{Key: "_id", Value: owner}},
		bson.D{{Key: "$pull", Value: bson.D{
			{Key: "categories", Value: name},
			{Key: "expenses", Value: bson.D{{Key: "category", Value: name}}},
		}}})
	if err != nil {
		return core.Ledger{}, err
	}

	l.Balance = l.RecomputeBalance()
	_, err = v.coll().UpdateOne(ctx,
		bson.D{{Key: "_id", Value: owner}},
		bson.D{{Key: "$set", Value: bson.D{{Key: "balance_cents", Value: int64(l.Balance)}}}})
	if err != nil {
		return core.Ledger{}, fmt.Errorf("store recomputed balance: %w", err)
	}
	return l, nil
}
