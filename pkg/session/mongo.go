package session

import (
	"context"
	stderrors "errors"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/blurtapp/blurt/pkg/cache"
	"github.com/blurtapp/blurt/pkg/errors"
	"github.com/blurtapp/blurt/pkg/observability"
)

// Collection names in the cloud database.
const (
	SessionsCollection  = "sessions"
	TemplatesCollection = "templates"
)

// DefaultMongoDatabase is used when no database name is configured.
const DefaultMongoDatabase = "blurt"

// MongoOptions configures [NewMongoStore].
type MongoOptions struct {
	URI      string
	Database string
	UserID   string
}

// MongoStore is the cloud [Backend]. Every document carries the owning
// user id and every query is scoped to the current user.
type MongoStore struct {
	client    *mongo.Client
	sessions  *mongo.Collection
	templates *mongo.Collection
	now       func() time.Time

	mu     sync.RWMutex
	userID string
}

// NewMongoStore connects and pings the server.
func NewMongoStore(ctx context.Context, opts MongoOptions) (*MongoStore, error) {
	if opts.URI == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "mongo URI is required for cloud storage")
	}
	if opts.Database == "" {
		opts.Database = DefaultMongoDatabase
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(opts.URI))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "connect to mongo")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, cache.Retryable(errors.Wrap(errors.ErrCodeNetwork, err, "ping mongo"))
	}

	db := client.Database(opts.Database)
	return &MongoStore{
		client:    client,
		sessions:  db.Collection(SessionsCollection),
		templates: db.Collection(TemplatesCollection),
		now:       time.Now,
		userID:    opts.UserID,
	}, nil
}

// SetUser switches the user every later call is scoped to.
func (s *MongoStore) SetUser(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userID = userID
}

func (s *MongoStore) user() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.userID == "" {
		return "", errors.New(errors.ErrCodeUnauthorized, "not signed in")
	}
	return s.userID, nil
}

// List returns the user's sessions, newest start first.
func (s *MongoStore) List(ctx context.Context) (sessions []Session, err error) {
	start := time.Now()
	defer func() {
		observability.Store().OnLoad(ctx, "mongo", "session", len(sessions), time.Since(start), err)
	}()

	userID, err := s.user()
	if err != nil {
		return nil, err
	}
	cur, err := s.sessions.Find(ctx, bson.M{"user_id": userID},
		options.Find().SetSort(bson.D{{Key: "started_at_ms", Value: -1}}))
	if err != nil {
		return nil, classify(err, "list sessions")
	}
	defer cur.Close(ctx)

	var docs []sessionDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, classify(err, "decode sessions")
	}
	sessions = make([]Session, len(docs))
	for i, d := range docs {
		sessions[i] = d.session()
	}
	return sessions, nil
}

// Get implements [Store].
func (s *MongoStore) Get(ctx context.Context, id string) (*Session, error) {
	userID, err := s.user()
	if err != nil {
		return nil, err
	}
	var doc sessionDoc
	err = s.sessions.FindOne(ctx, bson.M{"_id": id, "user_id": userID}).Decode(&doc)
	if stderrors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, classify(err, "get session "+id)
	}
	sess := doc.session()
	return &sess, nil
}

// Save upserts the session by id.
func (s *MongoStore) Save(ctx context.Context, sess *Session) (err error) {
	start := time.Now()
	defer func() { observability.Store().OnSave(ctx, "mongo", "session", time.Since(start), err) }()

	userID, err := s.user()
	if err != nil {
		return err
	}
	doc := newSessionDoc(sess, userID, s.now())
	_, err = s.sessions.ReplaceOne(ctx, bson.M{"_id": sess.ID, "user_id": userID}, doc,
		options.Replace().SetUpsert(true))
	if err != nil {
		return classify(err, "save session "+sess.ID)
	}
	return nil
}

// Delete implements [Store].
func (s *MongoStore) Delete(ctx context.Context, id string) error {
	userID, err := s.user()
	if err != nil {
		return err
	}
	if _, err := s.sessions.DeleteOne(ctx, bson.M{"_id": id, "user_id": userID}); err != nil {
		return classify(err, "delete session "+id)
	}
	return nil
}

// ListTemplates returns the user's templates, most recently updated first.
func (s *MongoStore) ListTemplates(ctx context.Context) (templates []Template, err error) {
	start := time.Now()
	defer func() {
		observability.Store().OnLoad(ctx, "mongo", "template", len(templates), time.Since(start), err)
	}()

	userID, err := s.user()
	if err != nil {
		return nil, err
	}
	cur, err := s.templates.Find(ctx, bson.M{"user_id": userID},
		options.Find().SetSort(bson.D{{Key: "updated_at_ms", Value: -1}}))
	if err != nil {
		return nil, classify(err, "list templates")
	}
	defer cur.Close(ctx)

	var docs []templateDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, classify(err, "decode templates")
	}
	templates = make([]Template, len(docs))
	for i, d := range docs {
		templates[i] = d.template()
	}
	return templates, nil
}

// SaveTemplate upserts the template by id.
func (s *MongoStore) SaveTemplate(ctx context.Context, t Template) (err error) {
	start := time.Now()
	defer func() { observability.Store().OnSave(ctx, "mongo", "template", time.Since(start), err) }()

	userID, err := s.user()
	if err != nil {
		return err
	}
	_, err = s.templates.ReplaceOne(ctx, bson.M{"_id": t.ID, "user_id": userID}, newTemplateDoc(t, userID),
		options.Replace().SetUpsert(true))
	if err != nil {
		return classify(err, "save template "+t.ID)
	}
	return nil
}

// DeleteTemplate implements [TemplateStore].
func (s *MongoStore) DeleteTemplate(ctx context.Context, id string) error {
	userID, err := s.user()
	if err != nil {
		return err
	}
	if _, err := s.templates.DeleteOne(ctx, bson.M{"_id": id, "user_id": userID}); err != nil {
		return classify(err, "delete template "+id)
	}
	return nil
}

// Close disconnects the client.
func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// classify marks network failures and timeouts retryable.
func classify(err error, op string) error {
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) {
		return cache.Retryable(errors.Wrap(errors.ErrCodeNetwork, err, "%s", op))
	}
	return errors.Wrap(errors.ErrCodeInternal, err, "%s", op)
}

// =============================================================================
// Documents
// =============================================================================

type noteDoc struct {
	ID          string  `bson:"id"`
	Text        string  `bson:"text"`
	X           float64 `bson:"x"`
	Y           float64 `bson:"y"`
	CreatedAtMs int64   `bson:"created_at_ms"`
}

type sessionDoc struct {
	ID            string    `bson:"_id"`
	UserID        string    `bson:"user_id"`
	SchemaVersion int       `bson:"schema_version,omitempty"`
	Title         string    `bson:"title"`
	Prompt        string    `bson:"prompt,omitempty"`
	DurationSec   int       `bson:"duration_sec"`
	StartedAtMs   int64     `bson:"started_at_ms"`
	EndedAtMs     *int64    `bson:"ended_at_ms,omitempty"`
	Notes         []noteDoc `bson:"notes"`
	UpdatedAtMs   int64     `bson:"updated_at_ms"`
}

func newSessionDoc(s *Session, userID string, now time.Time) sessionDoc {
	notes := make([]noteDoc, len(s.Notes))
	for i, n := range s.Notes {
		notes[i] = noteDoc(n)
	}
	version := s.SchemaVersion
	if version == 0 {
		version = SchemaVersion
	}
	return sessionDoc{
		ID:            s.ID,
		UserID:        userID,
		SchemaVersion: version,
		Title:         s.Title,
		Prompt:        s.Prompt,
		DurationSec:   s.DurationSec,
		StartedAtMs:   s.StartedAtMs,
		EndedAtMs:     s.EndedAtMs,
		Notes:         notes,
		UpdatedAtMs:   now.UnixMilli(),
	}
}

func (d sessionDoc) session() Session {
	notes := make([]Note, len(d.Notes))
	for i, n := range d.Notes {
		notes[i] = Note(n)
	}
	s := Session{
		ID:            d.ID,
		SchemaVersion: d.SchemaVersion,
		Title:         d.Title,
		Prompt:        d.Prompt,
		DurationSec:   d.DurationSec,
		StartedAtMs:   d.StartedAtMs,
		EndedAtMs:     d.EndedAtMs,
		Notes:         notes,
	}
	s.Normalize()
	return s
}

type templateDoc struct {
	ID                 string `bson:"_id"`
	UserID             string `bson:"user_id"`
	Name               string `bson:"name"`
	TitleDefault       string `bson:"title_default"`
	PromptDefault      string `bson:"prompt_default,omitempty"`
	DurationSecDefault int    `bson:"duration_sec_default"`
	UpdatedAtMs        int64  `bson:"updated_at_ms"`
}

func newTemplateDoc(t Template, userID string) templateDoc {
	return templateDoc{
		ID:                 t.ID,
		UserID:             userID,
		Name:               t.Name,
		TitleDefault:       t.TitleDefault,
		PromptDefault:      t.PromptDefault,
		DurationSecDefault: t.DurationSecDefault,
		UpdatedAtMs:        t.UpdatedAtMs,
	}
}

func (d templateDoc) template() Template {
	return Template{
		ID:                 d.ID,
		Name:               d.Name,
		TitleDefault:       d.TitleDefault,
		PromptDefault:      d.PromptDefault,
		DurationSecDefault: d.DurationSecDefault,
		UpdatedAtMs:        d.UpdatedAtMs,
	}
}

var _ Backend = (*MongoStore)(nil)
