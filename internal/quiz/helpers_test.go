package quiz

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"

	"github.com/pavelanni/quizrunner/internal/model"
)

// memSource serves test documents from a map.
type memSource struct {
	docs map[string]string
}

func (m memSource) Fetch(_ context.Context, id string) ([]byte, error) {
	doc, ok := m.docs[id]
	if !ok {
		return nil, &FetchError{SourceID: id, Status: 404}
	}
	return []byte(doc), nil
}

func (m memSource) List(context.Context) ([]string, error) {
	ids := make([]string, 0, len(m.docs))
	for id := range m.docs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// memStore keeps the serialized log like a key-value store would.
type memStore struct {
	mu      sync.Mutex
	value   []byte
	saveErr error
}

func (m *memStore) Load(context.Context) (model.HistoryLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.value == nil {
		return model.HistoryLog{}, nil
	}
	var log model.HistoryLog
	if err := json.Unmarshal(m.value, &log); err != nil {
		return nil, err
	}
	return log, nil
}

func (m *memStore) Save(_ context.Context, log model.HistoryLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	data, err := json.Marshal(log)
	if err != nil {
		return err
	}
	m.value = data
	return nil
}

func (m *memStore) Delete(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.value = nil
	return nil
}

var errBoom = errors.New("boom")

const threeQuestions = `{
	"questions": [
		{"question": "Capital of France?", "options": ["A) Paris", "B) Rome"], "correctAnswer": "A"},
		{"question": "2+2?", "options": ["A) 3", "B) 4"], "correctAnswer": "B"},
		{"question": "Largest planet?", "options": ["A) Mars", "B) Venus", "C) Jupiter"], "correctAnswer": "C"}
	]
}`

func questionSet(id string, correct ...string) model.QuestionSet {
	qs := model.QuestionSet{SourceID: id}
	for _, c := range correct {
		qs.Questions = append(qs.Questions, model.Question{
			Prompt:        "Question " + c,
			Options:       []string{"A) one", "B) two", "C) three"},
			CorrectAnswer: c,
		})
	}
	return qs
}
