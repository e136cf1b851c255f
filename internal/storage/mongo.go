package storage

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"board/internal/domain"
)

// MongoOptions addresses a MongoDB deployment.
type MongoOptions struct {
	// URI is a full mongodb:// or mongodb+srv:// string; it wins over Host/Port.
	URI      string
	Host     string
	Port     int
	Database string
	Username string
	Password string
}

// Mongo implements every board store on top of MongoDB.
type Mongo struct {
	client *mongo.Client
	db     *mongo.Database
}

func mongoURI(o MongoOptions) string {
	if o.URI != "" {
		uri := o.URI
		// Atlas connection strings ship with a placeholder for the password.
		if o.Password != "" {
			uri = strings.ReplaceAll(uri, "<password>", o.Password)
			uri = strings.ReplaceAll(uri, "<db_password>", o.Password)
		}
		return uri
	}
	port := o.Port
	if port == 0 {
		port = 27017
	}
	if o.Username != "" {
		return fmt.Sprintf("mongodb://%s:%s@%s:%d", o.Username, o.Password, o.Host, port)
	}
	return fmt.Sprintf("mongodb://%s:%d", o.Host, port)
}

// OpenMongo connects, pings and ensures indexes.
func OpenMongo(ctx context.Context, o MongoOptions) (*Mongo, error) {
	dbName := o.Database
	if dbName == "" {
		dbName = "board"
	}
	client, err := mongo.Connect(options.Client().ApplyURI(mongoURI(o)))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	m := &Mongo{client: client, db: client.Database(dbName)}
	for _, coll := range []string{"elements", "material_blocks"} {
		_, err := m.db.Collection(coll).Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys: bson.D{{Key: "board_id", Value: 1}},
		})
		if err != nil {
			client.Disconnect(context.Background())
			return nil, fmt.Errorf("index %s: %w", coll, err)
		}
	}
	log.Printf("storage: connected to mongo database %s", dbName)
	return m, nil
}

func (m *Mongo) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}

func mongoNotFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.ErrNotFound
	}
	return err
}

// ── Boards ─────────────────────────────────────────────────

type boardDoc struct {
	ID        string    `bson:"_id"`
	Name      string    `bson:"name"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func (m *Mongo) CreateBoard(ctx context.Context, b *domain.Board) error {
	if b.ID == "" {
		b.ID = domain.NewID()
	}
	ts := now()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = ts
	}
	b.UpdatedAt = ts
	_, err := m.db.Collection("boards").InsertOne(ctx, boardDoc(*b))
	if err != nil {
		return fmt.Errorf("insert board: %w", err)
	}
	return nil
}

func (m *Mongo) GetBoard(ctx context.Context, id string) (*domain.Board, error) {
	var d boardDoc
	if err := m.db.Collection("boards").FindOne(ctx, bson.M{"_id": id}).Decode(&d); err != nil {
		return nil, fmt.Errorf("get board %s: %w", id, mongoNotFound(err))
	}
	b := domain.Board(d)
	return &b, nil
}

func (m *Mongo) ListBoards(ctx context.Context) ([]domain.Board, error) {
	cur, err := m.db.Collection("boards").Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list boards: %w", err)
	}
	var docs []boardDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("list boards: %w", err)
	}
	out := make([]domain.Board, len(docs))
	for i, d := range docs {
		out[i] = domain.Board(d)
	}
	return out, nil
}

func (m *Mongo) RenameBoard(ctx context.Context, id, name string) error {
	res, err := m.db.Collection("boards").UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{"name": name, "updated_at": now()}})
	if err != nil {
		return fmt.Errorf("rename board: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("rename board %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (m *Mongo) DeleteBoard(ctx context.Context, id string) error {
	for _, coll := range []string{"elements", "material_blocks"} {
		if _, err := m.db.Collection(coll).DeleteMany(ctx, bson.M{"board_id": id}); err != nil {
			return fmt.Errorf("delete board %s: %w", id, err)
		}
	}
	if _, err := m.db.Collection("board_views").DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("delete board %s: %w", id, err)
	}
	if _, err := m.db.Collection("boards").DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("delete board %s: %w", id, err)
	}
	return nil
}

// ── Elements ───────────────────────────────────────────────

type elementDoc struct {
	ID        string             `bson:"_id"`
	BoardID   string             `bson:"board_id"`
	Type      domain.ElementType `bson:"type"`
	X         float64            `bson:"x"`
	Y         float64            `bson:"y"`
	Width     float64            `bson:"width"`
	Height    float64            `bson:"height"`
	Rotation  float64            `bson:"rotation"`
	ZIndex    int                `bson:"z_index"`
	Payload   domain.Payload     `bson:"payload"`
	CreatedAt time.Time          `bson:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at"`
}

func (m *Mongo) ListElements(ctx context.Context, boardID string) ([]domain.Element, error) {
	cur, err := m.db.Collection("elements").Find(ctx, bson.M{"board_id": boardID},
		options.Find().SetSort(bson.D{{Key: "z_index", Value: 1}, {Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list elements: %w", err)
	}
	var docs []elementDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("list elements: %w", err)
	}
	out := make([]domain.Element, len(docs))
	for i, d := range docs {
		out[i] = domain.Element(d)
	}
	return out, nil
}

func (m *Mongo) CreateElement(ctx context.Context, e *domain.Element) error {
	if err := e.Validate(); err != nil {
		return err
	}
	if e.ID == "" || domain.IsTempID(e.ID) {
		e.ID = domain.NewID()
	}
	ts := now()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = ts
	}
	e.UpdatedAt = ts
	if _, err := m.db.Collection("elements").InsertOne(ctx, elementDoc(*e)); err != nil {
		return fmt.Errorf("insert element: %w", err)
	}
	return nil
}

func (m *Mongo) UpdateElement(ctx context.Context, id string, patch domain.ElementPatch) (*domain.Element, error) {
	set := bson.M{"updated_at": now()}
	if patch.X != nil {
		set["x"] = *patch.X
	}
	if patch.Y != nil {
		set["y"] = *patch.Y
	}
	if patch.Width != nil {
		set["width"] = *patch.Width
	}
	if patch.Height != nil {
		set["height"] = *patch.Height
	}
	if patch.Rotation != nil {
		set["rotation"] = *patch.Rotation
	}
	if patch.ZIndex != nil {
		set["z_index"] = *patch.ZIndex
	}
	if patch.Payload != nil {
		set["payload"] = *patch.Payload
	}
	var d elementDoc
	err := m.db.Collection("elements").FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&d)
	if err != nil {
		return nil, fmt.Errorf("update element %s: %w", id, mongoNotFound(err))
	}
	e := domain.Element(d)
	return &e, nil
}

func (m *Mongo) DeleteElement(ctx context.Context, id string) error {
	if _, err := m.db.Collection("elements").DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("delete element %s: %w", id, err)
	}
	return nil
}

// ── Material blocks ────────────────────────────────────────

type blockDoc struct {
	ID         string    `bson:"_id"`
	BoardID    string    `bson:"board_id"`
	X          float64   `bson:"x"`
	Y          float64   `bson:"y"`
	Width      float64   `bson:"width"`
	Height     float64   `bson:"height"`
	Title      string    `bson:"title"`
	CardsCount int       `bson:"cards_count"`
	CreatedAt  time.Time `bson:"created_at"`
	UpdatedAt  time.Time `bson:"updated_at"`
}

func (m *Mongo) ListBlocks(ctx context.Context, boardID string) ([]domain.MaterialBlock, error) {
	cur, err := m.db.Collection("material_blocks").Find(ctx, bson.M{"board_id": boardID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list blocks: %w", err)
	}
	var docs []blockDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("list blocks: %w", err)
	}
	out := make([]domain.MaterialBlock, len(docs))
	for i, d := range docs {
		out[i] = domain.MaterialBlock(d)
	}
	return out, nil
}

func (m *Mongo) CreateBlock(ctx context.Context, b *domain.MaterialBlock) error {
	if b.ID == "" || domain.IsTempID(b.ID) {
		b.ID = domain.NewID()
	}
	ts := now()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = ts
	}
	b.UpdatedAt = ts
	if _, err := m.db.Collection("material_blocks").InsertOne(ctx, blockDoc(*b)); err != nil {
		return fmt.Errorf("insert block: %w", err)
	}
	return nil
}

func (m *Mongo) UpdateBlock(ctx context.Context, id string, patch domain.BlockPatch) (*domain.MaterialBlock, error) {
	set := bson.M{"updated_at": now()}
	if patch.X != nil {
		set["x"] = *patch.X
	}
	if patch.Y != nil {
		set["y"] = *patch.Y
	}
	if patch.Width != nil {
		set["width"] = *patch.Width
	}
	if patch.Height != nil {
		set["height"] = *patch.Height
	}
	if patch.Title != nil {
		set["title"] = *patch.Title
	}
	var d blockDoc
	err := m.db.Collection("material_blocks").FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&d)
	if err != nil {
		return nil, fmt.Errorf("update block %s: %w", id, mongoNotFound(err))
	}
	b := domain.MaterialBlock(d)
	return &b, nil
}

func (m *Mongo) DeleteBlock(ctx context.Context, id string) error {
	if _, err := m.db.Collection("material_blocks").DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("delete block %s: %w", id, err)
	}
	return nil
}

// ── Views and settings ─────────────────────────────────────

type viewDoc struct {
	BoardID   string    `bson:"_id"`
	Record    string    `bson:"record_json"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func (m *Mongo) LoadView(ctx context.Context, boardID string) (*domain.ViewRecord, error) {
	var d viewDoc
	err := m.db.Collection("board_views").FindOne(ctx, bson.M{"_id": boardID}).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load view %s: %w", boardID, err)
	}
	return domain.ParseViewRecord([]byte(d.Record))
}

func (m *Mongo) SaveView(ctx context.Context, boardID string, r domain.ViewRecord) error {
	data, err := r.Encode()
	if err != nil {
		return err
	}
	_, err = m.db.Collection("board_views").ReplaceOne(ctx, bson.M{"_id": boardID},
		viewDoc{BoardID: boardID, Record: string(data), UpdatedAt: now()},
		options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save view %s: %w", boardID, err)
	}
	return nil
}

type settingDoc struct {
	Key   string `bson:"_id"`
	Value string `bson:"value"`
}

func (m *Mongo) GetSetting(ctx context.Context, key string) (string, bool, error) {
	var d settingDoc
	err := m.db.Collection("app_settings").FindOne(ctx, bson.M{"_id": key}).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get setting %s: %w", key, err)
	}
	return d.Value, true, nil
}

func (m *Mongo) SetSetting(ctx context.Context, key, value string) error {
	_, err := m.db.Collection("app_settings").ReplaceOne(ctx, bson.M{"_id": key},
		settingDoc{Key: key, Value: value}, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("set setting %s: %w", key, err)
	}
	return nil
}

// ── Approvals ──────────────────────────────────────────────

type approvalDoc struct {
	ID          string    `bson:"_id"`
	Tool        string    `bson:"tool"`
	Description string    `bson:"description"`
	Status      string    `bson:"status"`
	Metadata    string    `bson:"metadata"`
	CreatedAt   time.Time `bson:"created_at"`
}

func (d approvalDoc) approval() domain.Approval {
	return domain.Approval{
		ID: d.ID, Tool: d.Tool, Description: d.Description,
		Status: domain.ApprovalStatus(d.Status), Metadata: d.Metadata, CreatedAt: d.CreatedAt,
	}
}

func (m *Mongo) CreateApproval(ctx context.Context, a *domain.Approval) error {
	if a.ID == "" {
		a.ID = domain.NewID()
	}
	if a.Status == "" {
		a.Status = domain.ApprovalPending
	}
	if a.Metadata == "" {
		a.Metadata = "{}"
	}
	a.CreatedAt = time.Now().UTC()
	_, err := m.db.Collection("mcp_approvals").InsertOne(ctx, approvalDoc{
		ID: a.ID, Tool: a.Tool, Description: a.Description,
		Status: string(a.Status), Metadata: a.Metadata, CreatedAt: a.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("insert approval: %w", err)
	}
	return nil
}

func (m *Mongo) GetApproval(ctx context.Context, id string) (*domain.Approval, error) {
	var d approvalDoc
	if err := m.db.Collection("mcp_approvals").FindOne(ctx, bson.M{"_id": id}).Decode(&d); err != nil {
		return nil, fmt.Errorf("get approval %s: %w", id, mongoNotFound(err))
	}
	a := d.approval()
	return &a, nil
}

func (m *Mongo) ListPendingApprovals(ctx context.Context) ([]domain.Approval, error) {
	cur, err := m.db.Collection("mcp_approvals").Find(ctx,
		bson.M{"status": string(domain.ApprovalPending)},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list approvals: %w", err)
	}
	var docs []approvalDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode approvals: %w", err)
	}
	out := make([]domain.Approval, len(docs))
	for i, d := range docs {
		out[i] = d.approval()
	}
	return out, nil
}

func (m *Mongo) ResolveApproval(ctx context.Context, id string, status domain.ApprovalStatus) error {
	res, err := m.db.Collection("mcp_approvals").UpdateOne(ctx,
		bson.M{"_id": id, "status": string(domain.ApprovalPending)},
		bson.M{"$set": bson.M{"status": string(status)}})
	if err != nil {
		return fmt.Errorf("resolve approval %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("resolve approval %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (m *Mongo) DeleteApproval(ctx context.Context, id string) error {
	if _, err := m.db.Collection("mcp_approvals").DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("delete approval %s: %w", id, err)
	}
	return nil
}
