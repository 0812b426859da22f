// internal/app/store/docstore/mongo.go
package docstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/linlinlin97264/topic-manage/internal/app/system/txn"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Nested documents carry their owning document path in this field so
// that collection-path queries and watches can scope to one parent.
const parentField = "_parent"

// watchPollInterval is the fallback polling cadence used when the
// server cannot serve change streams (standalone, no oplog).
const watchPollInterval = 3 * time.Second

// Mongo is the production Store, mapping logical paths onto MongoDB
// collections: "topics/{id}" lives in collection "topics" keyed by _id,
// "topics/{id}/posts/{id}" in collection "topics_posts" with a _parent
// field pointing back at the topic document.
type Mongo struct {
	client *mongo.Client
	db     *mongo.Database
	log    *zap.Logger
}

// NewMongo wraps an existing client/database pair.
func NewMongo(client *mongo.Client, db *mongo.Database, logger *zap.Logger) *Mongo {
	return &Mongo{client: client, db: db, log: logger}
}

// EnsureIndexes creates the indexes the repositories rely on. Called
// once at startup from the schema hook.
func (m *Mongo) EnsureIndexes(ctx context.Context) error {
	users := m.db.Collection("users")
	if _, err := users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("idx_users_email"),
	}); err != nil {
		return fmt.Errorf("users indexes: %w", err)
	}

	accounts := m.db.Collection("accounts")
	if _, err := accounts.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("idx_accounts_email"),
	}); err != nil {
		return fmt.Errorf("accounts indexes: %w", err)
	}

	posts := m.db.Collection("topics_posts")
	if _, err := posts.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: parentField, Value: 1}},
		Options: options.Index().SetName("idx_topics_posts_parent"),
	}); err != nil {
		return fmt.Errorf("posts indexes: %w", err)
	}

	resets := m.db.Collection("password_resets")
	if _, err := resets.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "expires_at", Value: 1}},
		Options: options.Index().SetName("idx_password_resets_ttl").SetExpireAfterSeconds(0),
	}); err != nil {
		return fmt.Errorf("password reset indexes: %w", err)
	}

	states := m.db.Collection("oauth_states")
	if _, err := states.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "state", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("idx_oauth_states_state"),
		},
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetName("idx_oauth_states_ttl").SetExpireAfterSeconds(0),
		},
	}); err != nil {
		return fmt.Errorf("oauth state indexes: %w", err)
	}
	return nil
}

func (m *Mongo) Get(ctx context.Context, path string) (Document, error) {
	p, err := parseDocPath(path)
	if err != nil {
		return Document{}, err
	}
	return m.getWith(ctx, m.db, path, p)
}

func (m *Mongo) getWith(ctx context.Context, db *mongo.Database, path string, p parsedPath) (Document, error) {
	var fields bson.M
	err := db.Collection(p.collection()).FindOne(ctx, docFilter(p)).Decode(&fields)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Document{}, ErrNoDocument
		}
		return Document{}, err
	}
	return Document{Path: path, ID: p.id(), Fields: Fields(fields)}, nil
}

func (m *Mongo) Put(ctx context.Context, path string, fields Fields) error {
	p, err := parseDocPath(path)
	if err != nil {
		return err
	}
	doc := putBody(p, fields)
	opts := options.Replace().SetUpsert(true)
	_, err = m.db.Collection(p.collection()).ReplaceOne(ctx, docFilter(p), doc, opts)
	return err
}

func (m *Mongo) Update(ctx context.Context, path string, fields Fields) error {
	p, err := parseDocPath(path)
	if err != nil {
		return err
	}
	res, err := m.db.Collection(p.collection()).UpdateOne(ctx, docFilter(p), updateBody(fields))
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNoDocument
	}
	return nil
}

func (m *Mongo) Delete(ctx context.Context, path string) error {
	p, err := parseDocPath(path)
	if err != nil {
		return err
	}
	_, err = m.db.Collection(p.collection()).DeleteOne(ctx, docFilter(p))
	return err
}

func (m *Mongo) Query(ctx context.Context, collectionPath string, filter Fields) ([]Document, error) {
	p, err := parseCollectionPath(collectionPath)
	if err != nil {
		return nil, err
	}

	mf := bson.M{}
	for k, v := range filter {
		mf[k] = v
	}
	if parent := p.parentDocPath(); parent != "" {
		mf[parentField] = parent
	}

	cur, err := m.db.Collection(p.collection()).Find(ctx, mf)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []Document
	for cur.Next(ctx) {
		var fields bson.M
		if err := cur.Decode(&fields); err != nil {
			return nil, err
		}
		id, _ := fields["_id"].(string)
		out = append(out, Document{
			Path:   collectionPath + "/" + id,
			ID:     id,
			Fields: Fields(fields),
		})
	}
	return out, cur.Err()
}

func (m *Mongo) RunTxn(ctx context.Context, fn func(tx Txn) error) error {
	err := txn.WithTransaction(ctx, m.client, m.log, func(txCtx context.Context) error {
		t := &mongoTxn{ctx: txCtx, store: m}
		if err := fn(t); err != nil {
			return err
		}
		return t.err
	})
	if err != nil && isWriteConflict(err) {
		return fmt.Errorf("%w: %v", ErrTxnConflict, err)
	}
	return err
}

// isWriteConflict reports whether the server aborted the transaction
// because of a concurrent writer; the driver already retried transient
// cases before this error made it out.
func isWriteConflict(err error) bool {
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		if cmdErr.Code == 112 { // WriteConflict
			return true
		}
		return cmdErr.HasErrorLabel("TransientTransactionError")
	}
	return false
}

// mongoTxn applies writes immediately inside the session transaction;
// the session abort discards them if the callback fails. The first
// write error is remembered and aborts the commit.
type mongoTxn struct {
	ctx   context.Context
	store *Mongo
	err   error
}

func (t *mongoTxn) Get(path string) (Document, error) {
	p, err := parseDocPath(path)
	if err != nil {
		return Document{}, err
	}
	return t.store.getWith(t.ctx, t.store.db, path, p)
}

func (t *mongoTxn) Put(path string, fields Fields) {
	if t.err != nil {
		return
	}
	t.err = t.store.Put(t.ctx, path, fields)
}

func (t *mongoTxn) Update(path string, fields Fields) {
	if t.err != nil {
		return
	}
	t.err = t.store.Update(t.ctx, path, fields)
}

func (t *mongoTxn) Delete(path string) {
	if t.err != nil {
		return
	}
	t.err = t.store.Delete(t.ctx, path)
}

// mongoBatch commits its deletes inside one transaction so a cascade is
// all-or-nothing.
type mongoBatch struct {
	store *Mongo
	paths []string
}

func (m *Mongo) Batch() Batch {
	return &mongoBatch{store: m}
}

func (b *mongoBatch) Delete(path string) {
	b.paths = append(b.paths, path)
}

func (b *mongoBatch) Commit(ctx context.Context) error {
	return b.store.RunTxn(ctx, func(tx Txn) error {
		for _, path := range b.paths {
			tx.Delete(path)
		}
		return nil
	})
}

func (m *Mongo) Watch(ctx context.Context, collectionPath string) (<-chan Event, error) {
	p, err := parseCollectionPath(collectionPath)
	if err != nil {
		return nil, err
	}

	pipeline := mongo.Pipeline{}
	if parent := p.parentDocPath(); parent != "" {
		pipeline = append(pipeline, bson.D{{Key: "$match", Value: bson.M{
			"$or": bson.A{
				bson.M{"fullDocument." + parentField: parent},
				bson.M{"operationType": "delete"},
			},
		}}})
	}

	opts := options.ChangeStream().SetFullDocument(options.UpdateLookup)
	stream, err := m.db.Collection(p.collection()).Watch(ctx, pipeline, opts)
	if err != nil {
		if txn.IsNotSupported(err) {
			m.log.Warn("change streams unavailable; falling back to polling",
				zap.String("collection", collectionPath), zap.Error(err))
			return m.pollWatch(ctx, collectionPath), nil
		}
		return nil, err
	}

	ch := make(chan Event, 16)
	go func() {
		defer close(ch)
		defer stream.Close(context.Background())
		for stream.Next(ctx) {
			var change struct {
				OperationType string `bson:"operationType"`
				DocumentKey   struct {
					ID string `bson:"_id"`
				} `bson:"documentKey"`
				FullDocument bson.M `bson:"fullDocument"`
			}
			if err := stream.Decode(&change); err != nil {
				m.log.Warn("change stream decode failed", zap.Error(err))
				continue
			}
			path := collectionPath + "/" + change.DocumentKey.ID
			ev := Event{Path: path}
			if change.OperationType == "delete" {
				ev.Type = EventDelete
			} else {
				ev.Type = EventPut
				ev.Doc = Document{Path: path, ID: change.DocumentKey.ID, Fields: Fields(change.FullDocument)}
			}
			select {
			case ch <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch, nil
}

// pollWatch diffs periodic queries when change streams are unavailable.
// Good enough for dev against a standalone server; production runs a
// replica set and never takes this path.
func (m *Mongo) pollWatch(ctx context.Context, collectionPath string) <-chan Event {
	ch := make(chan Event, 16)
	go func() {
		defer close(ch)
		known := make(map[string]Fields)
		ticker := time.NewTicker(watchPollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			docs, err := m.Query(ctx, collectionPath, nil)
			if err != nil {
				continue
			}
			seen := make(map[string]struct{}, len(docs))
			for _, doc := range docs {
				seen[doc.Path] = struct{}{}
				prev, ok := known[doc.Path]
				if ok && fmt.Sprint(prev) == fmt.Sprint(doc.Fields) {
					continue
				}
				known[doc.Path] = doc.Fields
				select {
				case ch <- Event{Type: EventPut, Path: doc.Path, Doc: doc}:
				default:
				}
			}
			for path := range known {
				if _, ok := seen[path]; !ok {
					delete(known, path)
					select {
					case ch <- Event{Type: EventDelete, Path: path}:
					default:
					}
				}
			}
		}
	}()
	return ch
}

func (m *Mongo) NewID() string {
	return primitive.NewObjectID().Hex()
}

func docFilter(p parsedPath) bson.M {
	f := bson.M{"_id": p.id()}
	if parent := p.parentDocPath(); parent != "" {
		f[parentField] = parent
	}
	return f
}

func putBody(p parsedPath, fields Fields) bson.M {
	body := bson.M{}
	for k, v := range fields {
		body[k] = v
	}
	body["_id"] = p.id()
	if parent := p.parentDocPath(); parent != "" {
		body[parentField] = parent
	}
	return body
}

func updateBody(fields Fields) bson.M {
	set := bson.M{}
	addEach := bson.M{}
	pullAll := bson.M{}
	for k, v := range fields {
		switch op := v.(type) {
		case Union:
			addEach[k] = bson.M{"$each": op.Values}
		case Remove:
			pullAll[k] = op.Values
		default:
			set[k] = v
		}
	}
	update := bson.M{}
	if len(set) > 0 {
		update["$set"] = set
	}
	if len(addEach) > 0 {
		update["$addToSet"] = addEach
	}
	if len(pullAll) > 0 {
		update["$pullAll"] = pullAll
	}
	return update
}
