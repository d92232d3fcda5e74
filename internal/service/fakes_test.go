package service

import (
	"context"
	"errors"
	"sync"

	"klens/internal/models"
	"klens/internal/repository"
)

type fakeCompleter struct {
	mu       sync.Mutex
	response string
	err      error
	panicMsg string
	prompts  []string
	systems  []string
}

func (f *fakeCompleter) Complete(_ context.Context, systemPrompt, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.systems = append(f.systems, systemPrompt)
	f.prompts = append(f.prompts, prompt)
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	return f.response, f.err
}

func (f *fakeCompleter) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

type fakeStore struct {
	mu        sync.Mutex
	docs      map[string]*models.Document
	deleted   []string
	insertErr error
	deleteErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{docs: make(map[string]*models.Document)}
}

func (f *fakeStore) Insert(_ context.Context, doc *models.Document) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return f.insertErr
	}
	if _, ok := f.docs[doc.ID]; ok {
		return errors.New("duplicate id")
	}
	f.docs[doc.ID] = doc
	return nil
}

func (f *fakeStore) DeleteByPath(_ context.Context, storedPath string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, storedPath)
	if f.deleteErr != nil {
		return 0, f.deleteErr
	}
	var n int64
	for id, doc := range f.docs {
		if doc.StoredPath == storedPath {
			delete(f.docs, id)
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) GetByID(_ context.Context, id string) (*models.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.docs[id]
	if !ok {
		return nil, repository.ErrDocumentNotFound
	}
	return doc, nil
}

func (f *fakeStore) List(_ context.Context, _, _ int) ([]*models.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	docs := make([]*models.Document, 0, len(f.docs))
	for _, doc := range f.docs {
		docs = append(docs, doc)
	}
	return docs, nil
}

func (f *fakeStore) Close() error { return nil }

func (f *fakeStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.docs)
}
