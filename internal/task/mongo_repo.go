package task

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Sharleen10/todolist/internal/clock"
)

const (
	tasksCollection    = "tasks"
	countersCollection = "counters"
)

// MongoRepo persists tasks as documents with integer _id values allocated
// from a counters collection.
type MongoRepo struct {
	mu       sync.Mutex
	tasks    *mongo.Collection
	counters *mongo.Collection
	clock    clock.Clock
	logger   logrus.FieldLogger
}

func NewMongoRepo(ctx context.Context, db *mongo.Database, opts ...Option) (*MongoRepo, error) {
	o := buildOptions(opts)
	r := &MongoRepo{
		tasks:    db.Collection(tasksCollection),
		counters: db.Collection(countersCollection),
		clock:    o.clock,
		logger:   o.logger,
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := r.tasks.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "project", Value: 1}}},
		{Keys: bson.D{{Key: "labels", Value: 1}}},
		{Keys: bson.D{{Key: "priority", Value: 1}}},
	})
	if err != nil {
		r.logger.WithError(err).Warn("failed to create task indexes")
	}
	return r, nil
}

func filterDoc(f Filter) bson.M {
	q := bson.M{}
	if f.Project != "" {
		q["project"] = f.Project
	}
	if f.Label != "" {
		q["labels"] = f.Label
	}
	if f.Priority != "" {
		q["priority"] = f.Priority
	}
	return q
}

func (r *MongoRepo) List(ctx context.Context, filter Filter) ([]Task, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := r.tasks.Find(ctx, filterDoc(filter), opts)
	if err != nil {
		r.logger.WithError(err).Error("failed to list tasks")
		return nil, unavailable("list tasks", err)
	}
	defer cursor.Close(ctx)

	out := []Task{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, unavailable("decode tasks", err)
	}
	for i := range out {
		normalizeTask(&out[i])
	}
	return out, nil
}

func (r *MongoRepo) Get(ctx context.Context, id int) (Task, error) {
	var t Task
	err := r.tasks.FindOne(ctx, bson.M{"_id": id}).Decode(&t)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Task{}, ErrNotFound
	}
	if err != nil {
		r.logger.WithError(err).WithField("task_id", id).Error("failed to find task")
		return Task{}, unavailable("get task", err)
	}
	normalizeTask(&t)
	return t, nil
}

func (r *MongoRepo) nextID(ctx context.Context) (int, error) {
	var counter struct {
		Seq int `bson:"seq"`
	}
	err := r.counters.FindOneAndUpdate(
		ctx,
		bson.M{"_id": tasksCollection},
		bson.M{"$inc": bson.M{"seq": 1}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return 0, unavailable("allocate task id", err)
	}
	return counter.Seq, nil
}

func (r *MongoRepo) Create(ctx context.Context, in Input) (Task, error) {
	t, err := in.build(r.clock.Now())
	if err != nil {
		return Task{}, err
	}

	id, err := r.nextID(ctx)
	if err != nil {
		return Task{}, err
	}
	t.ID = id

	if _, err := r.tasks.InsertOne(ctx, t); err != nil {
		r.logger.WithError(err).Error("failed to create task")
		return Task{}, unavailable("insert task", err)
	}
	r.logger.WithField("task_id", t.ID).Debug("task created")
	return t, nil
}

func (r *MongoRepo) modify(ctx context.Context, id int, fn func(t *Task) error) (Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, err := r.Get(ctx, id)
	if err != nil {
		return Task{}, err
	}
	if err := fn(&t); err != nil {
		return Task{}, err
	}

	res, err := r.tasks.ReplaceOne(ctx, bson.M{"_id": id}, t)
	if err != nil {
		r.logger.WithError(err).WithField("task_id", id).Error("failed to update task")
		return Task{}, unavailable("replace task", err)
	}
	if res.MatchedCount == 0 {
		return Task{}, ErrNotFound
	}
	return t, nil
}

func (r *MongoRepo) Update(ctx context.Context, id int, p Patch) (Task, error) {
	return r.modify(ctx, id, func(t *Task) error {
		return applyPatch(t, p, r.clock.Now())
	})
}

func (r *MongoRepo) Delete(ctx context.Context, id int) (Task, error) {
	var t Task
	err := r.tasks.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&t)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Task{}, ErrNotFound
	}
	if err != nil {
		r.logger.WithError(err).WithField("task_id", id).Error("failed to delete task")
		return Task{}, unavailable("delete task", err)
	}
	normalizeTask(&t)
	return t, nil
}

func (r *MongoRepo) SetCompleted(ctx context.Context, id int, completed bool) (Task, error) {
	return r.Update(ctx, id, Patch{Completed: &completed})
}

func (r *MongoRepo) AddSubtask(ctx context.Context, id int, in SubtaskInput) (Task, error) {
	return r.modify(ctx, id, func(t *Task) error {
		now := r.clock.Now()
		st, err := newSubtask(in, now)
		if err != nil {
			return err
		}
		t.Subtasks = append(t.Subtasks, st)
		t.touch(now)
		return nil
	})
}

func (r *MongoRepo) Ping(ctx context.Context) error {
	if err := r.tasks.Database().Client().Ping(ctx, nil); err != nil {
		return unavailable(fmt.Sprintf("ping %s", r.tasks.Database().Name()), err)
	}
	return nil
}
