package db

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"Tunebox/core/query"
	"Tunebox/logger"
	"Tunebox/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore MongoDB 实现，pipeline 直接翻译为聚合管道
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

// ConnectMongo 建立 MongoDB 连接并确认可用
func ConnectMongo(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	logger.Info("Successfully connected to MongoDB", logger.String("database", database))
	return &MongoStore{client: client, db: client.Database(database)}, nil
}

// EnsureIndexes 创建唯一索引和外键索引
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	unique := options.Index().SetUnique(true)
	specs := map[string][]mongo.IndexModel{
		model.CollArtists: {
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "search", Value: 1}}},
		},
		model.CollAccounts: {
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: unique},
		},
		model.CollPlaylists: {
			{Keys: bson.D{{Key: "userId", Value: 1}}},
			{Keys: bson.D{{Key: "categoryId", Value: 1}}},
		},
		model.CollSongs: {
			{Keys: bson.D{{Key: "playlistId", Value: 1}}},
			{Keys: bson.D{{Key: "userId", Value: 1}}},
		},
	}
	for coll, idx := range specs {
		if _, err := s.db.Collection(coll).Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("create indexes on %s: %w", coll, err)
		}
	}
	return nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *MongoStore) Insert(ctx context.Context, coll string, doc any) error {
	_, err := s.db.Collection(coll).InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	return err
}

func (s *MongoStore) FindByID(ctx context.Context, coll, id string, dest any) error {
	return s.FindOne(ctx, coll, []query.Cond{query.Eq("_id", id)}, dest)
}

func (s *MongoStore) FindOne(ctx context.Context, coll string, filter []query.Cond, dest any) error {
	err := s.db.Collection(coll).FindOne(ctx, MongoFilter(filter)).Decode(dest)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNoDocument
	}
	return err
}

func (s *MongoStore) Find(ctx context.Context, coll string, filter []query.Cond, keys []query.SortKey, dest any) error {
	opts := options.Find()
	if len(keys) > 0 {
		opts.SetSort(mongoSort(keys))
	}
	cur, err := s.db.Collection(coll).Find(ctx, MongoFilter(filter), opts)
	if err != nil {
		return err
	}
	return cur.All(ctx, dest)
}

func (s *MongoStore) Count(ctx context.Context, coll string, filter []query.Cond) (int64, error) {
	return s.db.Collection(coll).CountDocuments(ctx, MongoFilter(filter))
}

func (s *MongoStore) Update(ctx context.Context, coll, id string, fields map[string]any) error {
	res, err := s.db.Collection(coll).UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNoDocument
	}
	return nil
}

func (s *MongoStore) Increment(ctx context.Context, coll, id, field string, delta int64) (int64, error) {
	var doc bson.M
	err := s.db.Collection(coll).FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$inc": bson.M{field: delta}},
		options.FindOneAndUpdate().
			SetReturnDocument(options.After).
			SetProjection(bson.M{field: 1}),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, ErrNoDocument
	}
	if err != nil {
		return 0, err
	}
	n, _ := toFloat(doc[field])
	return int64(n), nil
}

func (s *MongoStore) Delete(ctx context.Context, coll, id string) error {
	res, err := s.db.Collection(coll).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNoDocument
	}
	return nil
}

func (s *MongoStore) Aggregate(ctx context.Context, coll string, p query.Pipeline, dest any) error {
	pipe, err := MongoPipeline(p)
	if err != nil {
		return err
	}
	cur, err := s.db.Collection(coll).Aggregate(ctx, pipe)
	if err != nil {
		return err
	}
	return cur.All(ctx, dest)
}

func (s *MongoStore) AggregateCount(ctx context.Context, coll string, p query.Pipeline) (int64, error) {
	pipe, err := MongoPipeline(p)
	if err != nil {
		return 0, err
	}
	pipe = append(pipe, bson.D{{Key: "$count", Value: "n"}})
	cur, err := s.db.Collection(coll).Aggregate(ctx, pipe)
	if err != nil {
		return 0, err
	}
	var out []struct {
		N int64 `bson:"n"`
	}
	if err := cur.All(ctx, &out); err != nil {
		return 0, err
	}
	if len(out) == 0 {
		return 0, nil
	}
	return out[0].N, nil
}

// MongoFilter 把条件翻译为查询文档
func MongoFilter(conds []query.Cond) bson.D {
	filter := bson.D{}
	for _, c := range conds {
		switch c.Op {
		case query.OpEq:
			filter = append(filter, bson.E{Key: c.Field, Value: c.Value})
		case query.OpContainsFold:
			needle, _ := c.Value.(string)
			filter = append(filter, bson.E{Key: c.Field, Value: primitive.Regex{Pattern: regexp.QuoteMeta(needle), Options: "i"}})
		case query.OpNonEmpty:
			filter = append(filter, bson.E{Key: c.Field + ".0", Value: bson.M{"$exists": true}})
		}
	}
	return filter
}

func mongoSort(keys []query.SortKey) bson.D {
	d := make(bson.D, 0, len(keys))
	for _, k := range keys {
		dir := 1
		if k.Desc {
			dir = -1
		}
		d = append(d, bson.E{Key: k.Field, Value: dir})
	}
	return d
}

// MongoPipeline 把 query.Pipeline 翻译为聚合管道
func MongoPipeline(p query.Pipeline) (mongo.Pipeline, error) {
	out := make(mongo.Pipeline, 0, len(p))
	for _, st := range p {
		switch st := st.(type) {
		case query.Match:
			out = append(out, bson.D{{Key: "$match", Value: MongoFilter(st.Conds)}})
		case query.Lookup:
			out = append(out, bson.D{{Key: "$lookup", Value: bson.D{
				{Key: "from", Value: st.From},
				{Key: "localField", Value: st.LocalField},
				{Key: "foreignField", Value: st.ForeignField},
				{Key: "as", Value: st.As},
			}}})
		case query.Unwind:
			out = append(out, bson.D{{Key: "$unwind", Value: bson.D{
				{Key: "path", Value: "$" + st.Path},
				{Key: "preserveNullAndEmptyArrays", Value: st.PreserveEmpty},
			}}})
		case query.Project:
			fields := bson.D{{Key: "_id", Value: 0}}
			for _, f := range st.Fields {
				if f.SizeOf != "" {
					fields = append(fields, bson.E{Key: f.Out, Value: bson.D{{Key: "$size", Value: "$" + f.SizeOf}}})
					continue
				}
				fields = append(fields, bson.E{Key: f.Out, Value: "$" + f.Source})
			}
			out = append(out, bson.D{{Key: "$project", Value: fields}})
		case query.Sort:
			out = append(out, bson.D{{Key: "$sort", Value: mongoSort(st.Keys)}})
		case query.Skip:
			out = append(out, bson.D{{Key: "$skip", Value: st.N}})
		case query.Limit:
			if st.N <= 0 {
				return nil, fmt.Errorf("%w: limit must be positive", ErrUnsupported)
			}
			out = append(out, bson.D{{Key: "$limit", Value: st.N}})
		default:
			return nil, fmt.Errorf("%w: stage %T", ErrUnsupported, st)
		}
	}
	return out, nil
}
