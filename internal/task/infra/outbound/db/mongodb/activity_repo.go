package mongodb

import (
	"context"
	"fmt"
	"time"

	taskDomain "github.com/davicafu/hrlab/internal/task/domain"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// ActivityArchiveMongoDB guarda copias del log de actividad en MongoDB para
// retención a largo plazo, fuera de la base transaccional.
type ActivityArchiveMongoDB struct {
	client *mongo.Client
	coll   *mongo.Collection
}

var _ taskDomain.ActivityArchive = (*ActivityArchiveMongoDB)(nil)

func NewActivityArchiveMongoDB(ctx context.Context, client *mongo.Client, dbName string) (*ActivityArchiveMongoDB, error) {
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("could not ping mongoDB: %w", err)
	}

	return &ActivityArchiveMongoDB{
		client: client,
		coll:   client.Database(dbName).Collection("task_activities"),
	}, nil
}

// --- Structs de BSON para el mapeo ---
// Se definen localmente para no "contaminar" el dominio con tags de BSON.

type mongoActivity struct {
	ID             uuid.UUID              `bson:"_id"`
	TaskID         uuid.UUID              `bson:"taskId"`
	PerformedBy    uuid.UUID              `bson:"performedBy"`
	Action         string                 `bson:"action"`
	PreviousStatus *string                `bson:"previousStatus,omitempty"`
	NewStatus      *string                `bson:"newStatus,omitempty"`
	Details        map[string]interface{} `bson:"details,omitempty"`
	CreatedAt      time.Time              `bson:"createdAt"`
}

func toMongoActivity(a *taskDomain.TaskActivity) *mongoActivity {
	m := &mongoActivity{
		ID:          a.ID,
		TaskID:      a.TaskID,
		PerformedBy: a.PerformedBy,
		Action:      string(a.Action),
		Details:     a.Details,
		CreatedAt:   a.CreatedAt,
	}
	if a.PreviousStatus != nil {
		s := string(*a.PreviousStatus)
		m.PreviousStatus = &s
	}
	if a.NewStatus != nil {
		s := string(*a.NewStatus)
		m.NewStatus = &s
	}
	return m
}

func fromMongoActivity(m *mongoActivity) *taskDomain.TaskActivity {
	a := &taskDomain.TaskActivity{
		ID:          m.ID,
		TaskID:      m.TaskID,
		PerformedBy: m.PerformedBy,
		Action:      taskDomain.ActivityAction(m.Action),
		Details:     m.Details,
		CreatedAt:   m.CreatedAt,
	}
	if m.PreviousStatus != nil {
		s := taskDomain.TaskStatus(*m.PreviousStatus)
		a.PreviousStatus = &s
	}
	if m.NewStatus != nil {
		s := taskDomain.TaskStatus(*m.NewStatus)
		a.NewStatus = &s
	}
	return a
}

// ArchiveBatch inserta un lote de registros. Los duplicados (re-archivado del
// mismo registro) se ignoran: el _id es el de la actividad original.
func (r *ActivityArchiveMongoDB) ArchiveBatch(ctx context.Context, activities []*taskDomain.TaskActivity) error {
	if len(activities) == 0 {
		return nil
	}

	docs := make([]interface{}, 0, len(activities))
	for _, a := range activities {
		docs = append(docs, toMongoActivity(a))
	}

	_, err := r.coll.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil
		}
		return fmt.Errorf("failed to archive activity batch: %w", err)
	}
	return nil
}

func (r *ActivityArchiveMongoDB) FetchByTask(ctx context.Context, taskID uuid.UUID) ([]*taskDomain.TaskActivity, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cursor, err := r.coll.Find(ctx, bson.M{"taskId": taskID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var activities []*taskDomain.TaskActivity
	for cursor.Next(ctx) {
		var m mongoActivity
		if err := cursor.Decode(&m); err != nil {
			return nil, err
		}
		activities = append(activities, fromMongoActivity(&m))
	}

	return activities, cursor.Err()
}
