package db

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"path"

	firebase "firebase.google.com/go/v4"
	rtdb "firebase.google.com/go/v4/db"
)

// RTDBStore keeps records in the Firebase Realtime Database under
// <root>/<collection>/<id>.
type RTDBStore struct {
	client *rtdb.Client
	root   string
}

// NewRTDBStore connects to the realtime database configured on the app.
func NewRTDBStore(ctx context.Context, app *firebase.App, root string) (*RTDBStore, error) {
	client, err := app.Database(ctx)
	if err != nil {
		return nil, fmt.Errorf("error initializing Realtime Database client: %w", err)
	}

	log.Printf("✅ Connected to Realtime Database (root: %s)", root)

	return &RTDBStore{
		client: client,
		root:   root,
	}, nil
}

func (s *RTDBStore) ref(collection string, id ...string) *rtdb.Ref {
	return s.client.NewRef(path.Join(append([]string{s.root, collection}, id...)...))
}

type queryNodeSnapshot struct {
	node rtdb.QueryNode
}

func (s queryNodeSnapshot) Key() string { return s.node.Key() }

func (s queryNodeSnapshot) DataTo(v interface{}) error {
	return s.node.Unmarshal(v)
}

func (s *RTDBStore) Get(ctx context.Context, collection, id string, v interface{}) error {
	var raw json.RawMessage
	if err := s.ref(collection, id).Get(ctx, &raw); err != nil {
		return fmt.Errorf("failed to get %s/%s: %w", collection, id, err)
	}
	if len(raw) == 0 || string(raw) == "null" {
		return ErrNotFound
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("failed to parse %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *RTDBStore) Set(ctx context.Context, collection, id string, v interface{}) error {
	if err := s.ref(collection, id).Set(ctx, v); err != nil {
		return fmt.Errorf("failed to set %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *RTDBStore) Update(ctx context.Context, collection, id string, fields map[string]interface{}) error {
	if err := s.ref(collection, id).Update(ctx, fields); err != nil {
		return fmt.Errorf("failed to update %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *RTDBStore) Delete(ctx context.Context, collection, id string) error {
	if err := s.ref(collection, id).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", collection, id, err)
	}
	return nil
}

// NewID allocates a push key. The child is created with an empty value
// and is expected to be overwritten by the caller's Set.
func (s *RTDBStore) NewID(ctx context.Context, collection string) (string, error) {
	child, err := s.ref(collection).Push(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to allocate key in %s: %w", collection, err)
	}
	return child.Key, nil
}

func (s *RTDBStore) All(ctx context.Context, collection string) ([]Snapshot, error) {
	nodes, err := s.ref(collection).OrderByKey().GetOrdered(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", collection, err)
	}
	return wrapNodes(nodes), nil
}

func (s *RTDBStore) WhereEqual(ctx context.Context, collection, field string, value interface{}) ([]Snapshot, error) {
	nodes, err := s.ref(collection).OrderByChild(field).EqualTo(value).GetOrdered(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s by %s: %w", collection, field, err)
	}
	return wrapNodes(nodes), nil
}

func (s *RTDBStore) Increment(ctx context.Context, collection, id string, floor int64) (int64, error) {
	var next int64
	err := s.ref(collection, id).Transaction(ctx, func(node rtdb.TransactionNode) (interface{}, error) {
		var counter struct {
			Value int64 `json:"value"`
		}
		if err := node.Unmarshal(&counter); err != nil {
			return nil, err
		}
		next = nextCounter(counter.Value, floor)
		return map[string]interface{}{"value": next}, nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to increment %s/%s: %w", collection, id, err)
	}
	return next, nil
}

// Close is a no-op; the realtime database client holds no connections.
func (s *RTDBStore) Close() error {
	return nil
}

func wrapNodes(nodes []rtdb.QueryNode) []Snapshot {
	result := make([]Snapshot, 0, len(nodes))
	for _, node := range nodes {
		result = append(result, queryNodeSnapshot{node: node})
	}
	return result
}
