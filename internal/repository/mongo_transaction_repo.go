package repository

import (
	"context"
	"fmt"
	"math"
	"time"

	"product_transactions/internal/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoCollection is the collection name mongoose derives for a
// ProductTransaction model, so existing databases can be read as is.
const MongoCollection = "producttransactions"

type transactionDoc struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty"`
	SourceID           *int64             `bson:"sourceId,omitempty"`
	DateOfSale         time.Time          `bson:"dateOfSale"`
	ProductTitle       string             `bson:"productTitle"`
	ProductDescription string             `bson:"productDescription"`
	Price              float64            `bson:"price"`
	IsSold             bool               `bson:"isSold"`
	Category           string             `bson:"category"`
	Image              string             `bson:"image,omitempty"`
}

func (d *transactionDoc) toDomain() *domain.Transaction {
	return &domain.Transaction{
		ID:                 d.ID.Hex(),
		SourceID:           d.SourceID,
		DateOfSale:         d.DateOfSale,
		ProductTitle:       d.ProductTitle,
		ProductDescription: d.ProductDescription,
		Price:              d.Price,
		IsSold:             d.IsSold,
		Category:           d.Category,
		Image:              d.Image,
	}
}

type MongoTransactionRepository struct {
	client *mongo.Client
	coll   *mongo.Collection
}

func NewMongoTransactionRepository(client *mongo.Client, database string) *MongoTransactionRepository {
	return &MongoTransactionRepository{
		client: client,
		coll:   client.Database(database).Collection(MongoCollection),
	}
}

// EnsureIndexes creates the date index and the natural-key index on sourceId
func (r *MongoTransactionRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "dateOfSale", Value: 1}}},
		{
			Keys:    bson.D{{Key: "sourceId", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		},
	})
	if err != nil {
		return fmt.Errorf("create indexes: %w", err)
	}
	return nil
}

// mongoFilter renders f as a query document
func mongoFilter(f domain.Filter) bson.M {
	if f.MatchNone {
		return bson.M{"_id": bson.M{"$exists": false}}
	}

	var and bson.A

	date := bson.M{}
	if f.From != nil {
		date["$gte"] = *f.From
	}
	if f.To != nil {
		date["$lt"] = *f.To
	}
	if len(date) > 0 {
		and = append(and, bson.M{"dateOfSale": date})
	}
	if f.MonthOfYear != 0 {
		and = append(and, bson.M{"$expr": bson.M{"$eq": bson.A{
			bson.M{"$month": bson.M{"date": "$dateOfSale", "timezone": f.Loc().String()}},
			int(f.MonthOfYear),
		}}})
	}
	if f.Sold != nil {
		and = append(and, bson.M{"isSold": *f.Sold})
	}
	if f.SearchPattern != "" {
		re := primitive.Regex{Pattern: f.SearchPattern, Options: "i"}
		and = append(and, bson.M{"$or": bson.A{
			bson.M{"productTitle": re},
			bson.M{"productDescription": re},
			bson.M{"$expr": bson.M{"$regexMatch": bson.M{
				"input":   bson.M{"$toString": "$price"},
				"regex":   f.SearchPattern,
				"options": "i",
			}}},
		}})
	}

	if len(and) == 0 {
		return bson.M{}
	}
	return bson.M{"$and": and}
}

func (r *MongoTransactionRepository) Find(ctx context.Context, f domain.Filter, skip, limit int64) ([]*domain.Transaction, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetSkip(skip).
		SetLimit(limit)

	cur, err := r.coll.Find(ctx, mongoFilter(f), opts)
	if err != nil {
		return nil, fmt.Errorf("find transactions: %w", err)
	}
	defer cur.Close(ctx)

	result := make([]*domain.Transaction, 0)
	for cur.Next(ctx) {
		var doc transactionDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		result = append(result, doc.toDomain())
	}
	return result, cur.Err()
}

func (r *MongoTransactionRepository) Count(ctx context.Context, f domain.Filter) (int64, error) {
	n, err := r.coll.CountDocuments(ctx, mongoFilter(f))
	if err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	return n, nil
}

func (r *MongoTransactionRepository) SumPrice(ctx context.Context, f domain.Filter) (float64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: mongoFilter(f)}},
		{{Key: "$group", Value: bson.M{"_id": nil, "totalSaleAmount": bson.M{"$sum": "$price"}}}},
	}

	cur, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, fmt.Errorf("sum prices: %w", err)
	}
	defer cur.Close(ctx)

	var out []struct {
		Total float64 `bson:"totalSaleAmount"`
	}
	if err := cur.All(ctx, &out); err != nil {
		return 0, fmt.Errorf("sum prices: %w", err)
	}
	if len(out) == 0 {
		return 0, nil
	}
	return out[0].Total, nil
}

// PriceHistogram uses $bucket without a default bucket, so a negative price
// is reported up front instead of surfacing as a server error.
func (r *MongoTransactionRepository) PriceHistogram(ctx context.Context, f domain.Filter) ([]int64, error) {
	match := mongoFilter(f)

	below, err := r.coll.CountDocuments(ctx, bson.M{"$and": bson.A{
		match,
		bson.M{"price": bson.M{"$lt": domain.PriceBoundaries[0]}},
	}})
	if err != nil {
		return nil, fmt.Errorf("price histogram: %w", err)
	}
	if below > 0 {
		return nil, fmt.Errorf("%w: %d transactions", domain.ErrPriceOutOfRange, below)
	}

	boundaries := bson.A{}
	for _, b := range domain.PriceBoundaries {
		boundaries = append(boundaries, b)
	}
	boundaries = append(boundaries, math.Inf(1))

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$bucket", Value: bson.M{
			"groupBy":    "$price",
			"boundaries": boundaries,
			"output":     bson.M{"count": bson.M{"$sum": 1}},
		}}},
	}

	cur, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("price histogram: %w", err)
	}
	defer cur.Close(ctx)

	var out []struct {
		Lower float64 `bson:"_id"`
		Count int64   `bson:"count"`
	}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("price histogram: %w", err)
	}

	counts := make([]int64, len(domain.PriceBoundaries))
	for _, b := range out {
		i, err := domain.BucketIndex(b.Lower)
		if err != nil {
			return nil, err
		}
		counts[i] = b.Count
	}
	return counts, nil
}

func (r *MongoTransactionRepository) CountByCategory(ctx context.Context, f domain.Filter) ([]*domain.CategoryCount, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: mongoFilter(f)}},
		{{Key: "$group", Value: bson.M{"_id": "$category", "count": bson.M{"$sum": 1}}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
	}

	cur, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("count by category: %w", err)
	}
	defer cur.Close(ctx)

	var out []struct {
		Category string `bson:"_id"`
		Count    int64  `bson:"count"`
	}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("count by category: %w", err)
	}

	result := make([]*domain.CategoryCount, 0, len(out))
	for _, c := range out {
		result = append(result, &domain.CategoryCount{Category: c.Category, Count: c.Count})
	}
	return result, nil
}

// InsertMany upserts keyed documents with $setOnInsert so re-seeding never
// duplicates them; documents without a SourceID are plain inserts.
func (r *MongoTransactionRepository) InsertMany(ctx context.Context, txs []*domain.Transaction) (int64, error) {
	if len(txs) == 0 {
		return 0, nil
	}

	ids := make([]primitive.ObjectID, len(txs))
	models := make([]mongo.WriteModel, 0, len(txs))
	for i, tx := range txs {
		ids[i] = primitive.NewObjectID()
		doc := transactionDoc{
			ID:                 ids[i],
			SourceID:           tx.SourceID,
			DateOfSale:         tx.DateOfSale,
			ProductTitle:       tx.ProductTitle,
			ProductDescription: tx.ProductDescription,
			Price:              tx.Price,
			IsSold:             tx.IsSold,
			Category:           tx.Category,
			Image:              tx.Image,
		}
		if tx.SourceID == nil {
			models = append(models, mongo.NewInsertOneModel().SetDocument(doc))
			continue
		}
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"sourceId": *tx.SourceID}).
			SetUpdate(bson.M{"$setOnInsert": doc}).
			SetUpsert(true))
	}

	res, err := r.coll.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(true))
	if err != nil {
		return 0, fmt.Errorf("bulk insert: %w", err)
	}

	for i, tx := range txs {
		if tx.SourceID == nil {
			tx.ID = ids[i].Hex()
			continue
		}
		if _, ok := res.UpsertedIDs[int64(i)]; ok {
			tx.ID = ids[i].Hex()
		}
	}
	return res.InsertedCount + res.UpsertedCount, nil
}

func (r *MongoTransactionRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx, nil)
}

func (r *MongoTransactionRepository) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = r.client.Disconnect(ctx)
}
