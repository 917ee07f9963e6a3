package store

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"brandpulse/logger"
	"brandpulse/models"
)

// MongoStore keeps snapshots in two collections: articles (active) and
// articles_archive. The refresh timestamp is the snapshot key.
type MongoStore struct {
	client  *mongo.Client
	col     *mongo.Collection
	archive *mongo.Collection
	log     logger.Logger
}

func NewMongoStore(ctx context.Context, uri, dbName string, log logger.Logger) (*MongoStore, error) {
	if uri == "" {
		return nil, fmt.Errorf("mongo uri is not set")
	}
	if dbName == "" {
		dbName = "brandpulse"
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		return nil, err
	}

	db := client.Database(dbName)
	s := &MongoStore{
		client:  client,
		col:     db.Collection("articles"),
		archive: db.Collection("articles_archive"),
		log:     logger.OrNop(log),
	}
	if err := s.ensureIndexes(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	model := mongo.IndexModel{Keys: bson.D{{Key: "refresh_timestamp", Value: -1}}}
	if _, err := s.col.Indexes().CreateOne(ctx, model); err != nil {
		return err
	}
	_, err := s.archive.Indexes().CreateOne(ctx, model)
	return err
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *MongoStore) Save(ctx context.Context, articles []models.Article, ts time.Time) (string, error) {
	if len(articles) == 0 {
		return "", nil
	}
	docs := make([]interface{}, 0, len(articles))
	for _, a := range articles {
		a.RefreshTimestamp = ts
		docs = append(docs, a)
	}
	if _, err := s.col.InsertMany(ctx, docs); err != nil {
		return "", err
	}
	locator := ts.Format(SnapshotTimeLayout)
	s.log.Infof("saved %d articles to mongo snapshot %s", len(articles), locator)
	return locator, nil
}

func (s *MongoStore) LoadLatest(ctx context.Context) ([]models.Article, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "refresh_timestamp", Value: -1}})

	var newest models.Article
	err := s.col.FindOne(ctx, bson.M{}, opts).Decode(&newest)
	if err == mongo.ErrNoDocuments {
		return []models.Article{}, nil
	}
	if err != nil {
		return nil, err
	}
	return s.LoadByTimestamp(ctx, newest.RefreshTimestamp)
}

func (s *MongoStore) LoadByTimestamp(ctx context.Context, ts time.Time) ([]models.Article, error) {
	filter := bson.M{"refresh_timestamp": ts}

	for _, col := range []*mongo.Collection{s.col, s.archive} {
		cursor, err := col.Find(ctx, filter)
		if err != nil {
			return nil, err
		}
		var articles []models.Article
		if err := cursor.All(ctx, &articles); err != nil {
			return nil, err
		}
		if len(articles) > 0 {
			return articles, nil
		}
	}
	return []models.Article{}, nil
}

func (s *MongoStore) ListTimestamps(ctx context.Context) ([]time.Time, error) {
	values, err := s.col.Distinct(ctx, "refresh_timestamp", bson.M{})
	if err != nil {
		return nil, err
	}

	var timestamps []time.Time
	for _, v := range values {
		if dt, ok := v.(primitive.DateTime); ok {
			timestamps = append(timestamps, dt.Time())
		}
	}
	sort.Slice(timestamps, func(i, j int) bool { return timestamps[i].After(timestamps[j]) })
	return timestamps, nil
}

func (s *MongoStore) ArchiveOlderThan(ctx context.Context, days int) error {
	cutoff := time.Now().AddDate(0, 0, -days)
	filter := bson.M{"refresh_timestamp": bson.M{"$lt": cutoff}}

	cursor, err := s.col.Find(ctx, filter)
	if err != nil {
		return err
	}
	var old []models.Article
	if err := cursor.All(ctx, &old); err != nil {
		return err
	}
	if len(old) == 0 {
		return nil
	}

	docs := make([]interface{}, 0, len(old))
	for _, a := range old {
		docs = append(docs, a)
	}
	if _, err := s.archive.InsertMany(ctx, docs); err != nil {
		return err
	}
	if _, err := s.col.DeleteMany(ctx, filter); err != nil {
		return err
	}
	s.log.Infof("archived %d articles older than %d days", len(old), days)
	return nil
}
