package database

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/SusheelSathyaraj/PaperPipe/config"
	"github.com/SusheelSathyaraj/PaperPipe/monitoring"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoDBClient stores each data row as one document in a collection named
// after the table. Unlike the SQL targets an append is not atomic: an ordered
// InsertMany keeps the documents written before the failing one.
type MongoDBClient struct {
	URI      string
	DBName   string
	Client   *mongo.Client
	Database *mongo.Database
	ctx      context.Context
}

// creating a new MongoDbClient using manual parameters
func NewMongoDBClient(uri, dbname string) *MongoDBClient {
	return &MongoDBClient{
		URI:    uri,
		DBName: dbname,
		ctx:    context.Background(),
	}
}

// creating a new MongoDBClient using config
func NewMongoDBClientFromConfig(cfg *config.Config) *MongoDBClient {
	uri := cfg.MongoDB.URI
	if uri == "" {
		//building uri from config
		u := url.URL{
			Scheme: "mongodb",
			User:   userInfo(cfg.MongoDB.User, cfg.MongoDB.Password),
			Host:   net.JoinHostPort(cfg.MongoDB.Host, strconv.Itoa(cfg.MongoDB.Port)),
			Path:   "/" + cfg.MongoDB.DBName,
		}
		uri = u.String()
	}

	return &MongoDBClient{
		URI:    uri,
		DBName: cfg.MongoDB.DBName,
		ctx:    context.Background(),
	}
}

// connecting to mongoDB
func (m *MongoDBClient) Connect() error {
	//setting client options
	clientOptions := options.Client().ApplyURI(m.URI)

	//setting timeout for connection
	ctx, cancel := context.WithTimeout(m.ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	//checking connection
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(ctx)
		return fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	m.Client = client
	m.Database = client.Database(m.DBName)

	monitoring.DefaultLogger.Info("Successfully connected to MongoDB database %s", m.DBName)
	return nil
}

// closing the mongodb connection
func (m *MongoDBClient) Close() error {
	if m.Client != nil {
		ctx, cancel := context.WithTimeout(m.ctx, 5*time.Second)
		defer cancel()
		return m.Client.Disconnect(ctx)
	}
	return nil
}

func (m *MongoDBClient) ResetTable(ctx context.Context, table string) error {
	if m.Database == nil {
		return fmt.Errorf("mongodb connection not established")
	}
	if _, err := m.Database.Collection(table).DeleteMany(ctx, bson.D{}); err != nil {
		return fmt.Errorf("failed to reset collection %s: %w", table, err)
	}
	return nil
}

func (m *MongoDBClient) AppendRows(ctx context.Context, table string, rows [][]interface{}) error {
	if m.Database == nil {
		return fmt.Errorf("mongodb connection not established")
	}

	columns, data, err := splitHeader(rows)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}

	docs := make([]interface{}, len(data))
	for i, row := range data {
		doc := make(bson.D, len(columns))
		for j, col := range columns {
			doc[j] = bson.E{Key: col, Value: row[j]}
		}
		docs[i] = doc
	}

	opts := options.InsertMany().SetOrdered(true)
	if _, err := m.Database.Collection(table).InsertMany(ctx, docs, opts); err != nil {
		return fmt.Errorf("failed to append %d documents to %s: %w", len(docs), table, err)
	}
	return nil
}
