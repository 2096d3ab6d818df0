package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"amora_server/utils"
)

// MemoryStore is an in-process DocumentStore. Documents are kept in the same
// attribute-value form DynamoDB stores, so tag handling and filter semantics
// match the DynamoDB backend.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]map[string]types.AttributeValue
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: make(map[string]map[string]map[string]types.AttributeValue),
	}
}

func (s *MemoryStore) Put(ctx context.Context, collection, id string, doc interface{}) error {
	return s.write(collection, id, doc, false)
}

func (s *MemoryStore) Create(ctx context.Context, collection, id string, doc interface{}) error {
	return s.write(collection, id, doc, true)
}

func (s *MemoryStore) write(collection, id string, doc interface{}, mustBeNew bool) error {
	item, err := attributevalue.MarshalMap(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal item for '%s': %w", collection, err)
	}
	item[KeyAttribute] = &types.AttributeValueMemberS{Value: id}

	s.mu.Lock()
	defer s.mu.Unlock()
	docs, ok := s.collections[collection]
	if !ok {
		docs = make(map[string]map[string]types.AttributeValue)
		s.collections[collection] = docs
	}
	if _, taken := docs[id]; taken && mustBeNew {
		return ErrAlreadyExists
	}
	docs[id] = item
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, collection, id string, out interface{}) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.collections[collection][id]
	if !ok {
		return ErrNotFound
	}
	return attributevalue.UnmarshalMap(item, out)
}

func (s *MemoryStore) Update(ctx context.Context, collection, id string, fields map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.collections[collection][id]
	if !ok {
		return ErrNotFound
	}
	updated := make(map[string]types.AttributeValue, len(item)+len(fields))
	for k, v := range item {
		updated[k] = v
	}
	for name, value := range fields {
		av, err := attributevalue.Marshal(value)
		if err != nil {
			return fmt.Errorf("failed to marshal field '%s': %w", name, err)
		}
		updated[name] = av
	}
	s.collections[collection][id] = updated
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.collections[collection], id)
	return nil
}

func (s *MemoryStore) Query(ctx context.Context, collection string, filters []Filter, out interface{}) error {
	want := make([]types.AttributeValue, len(filters))
	for i, f := range filters {
		av, err := attributevalue.Marshal(f.Value)
		if err != nil {
			return fmt.Errorf("marshal filter value for '%s': %w", f.Field, err)
		}
		want[i] = av
	}

	s.mu.RLock()
	docs := s.collections[collection]
	ids := make([]string, 0, len(docs))
	for id := range docs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	items := make([]map[string]types.AttributeValue, 0)
	for _, id := range ids {
		item := docs[id]
		if matches(item, filters, want) {
			items = append(items, item)
		}
	}
	s.mu.RUnlock()

	return attributevalue.UnmarshalListOfMaps(items, out)
}

func matches(item map[string]types.AttributeValue, filters []Filter, want []types.AttributeValue) bool {
	for i, f := range filters {
		attr, ok := item[f.Field]
		if !ok {
			return false
		}
		switch f.Op {
		case OpEquals, "":
			if !utils.AttributeEquals(attr, want[i]) {
				return false
			}
		case OpContains:
			if !utils.AttributeContains(attr, want[i]) {
				return false
			}
		default:
			return false
		}
	}
	return true
}
