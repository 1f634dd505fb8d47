package shortener_test

import (
	"context"
	"errors"

	"github.com/serroba/lleria/internal/shortener"
	"github.com/serroba/lleria/internal/store"
)

var errMock = errors.New("mock error")

// mockStore wraps a MemoryStore and can be configured to fail or to report collisions.
type mockStore struct {
	*store.MemoryStore

	connectErr   error
	getByURLErr  error
	getByCodeErr error
	saveErr      error
	listErr      error

	// saveErrs are returned by successive Save calls before saveErr applies.
	saveErrs []error
	// urlMisses forces the first n GetByOriginalURL calls to miss.
	urlMisses int
	// codeTaken makes every GetByCode report an existing record.
	codeTaken bool

	connectCalls   int
	saveCalls      int
	getByCodeCalls int
	getByURLCalls  int
}

func newMockStore() *mockStore {
	return &mockStore{MemoryStore: store.NewMemoryStore()}
}

func (m *mockStore) Connect(ctx context.Context) error {
	m.connectCalls++

	if m.connectErr != nil {
		return m.connectErr
	}

	return m.MemoryStore.Connect(ctx)
}

func (m *mockStore) Save(ctx context.Context, shortURL *shortener.ShortURL) error {
	m.saveCalls++

	if len(m.saveErrs) > 0 {
		err := m.saveErrs[0]
		m.saveErrs = m.saveErrs[1:]

		if err != nil {
			return err
		}
	}

	if m.saveErr != nil {
		return m.saveErr
	}

	return m.MemoryStore.Save(ctx, shortURL)
}

func (m *mockStore) GetByCode(ctx context.Context, code shortener.Code) (*shortener.ShortURL, error) {
	m.getByCodeCalls++

	if m.getByCodeErr != nil {
		return nil, m.getByCodeErr
	}

	if m.codeTaken {
		return &shortener.ShortURL{Code: code, OriginalURL: "https://taken.example.com"}, nil
	}

	return m.MemoryStore.GetByCode(ctx, code)
}

func (m *mockStore) GetByOriginalURL(ctx context.Context, originalURL string) (*shortener.ShortURL, error) {
	m.getByURLCalls++

	if m.getByURLErr != nil {
		return nil, m.getByURLErr
	}

	if m.urlMisses > 0 {
		m.urlMisses--

		return nil, shortener.ErrNotFound
	}

	return m.MemoryStore.GetByOriginalURL(ctx, originalURL)
}

func (m *mockStore) List(ctx context.Context) ([]*shortener.ShortURL, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}

	return m.MemoryStore.List(ctx)
}

type recordedShorten struct {
	kind          shortener.ErrorKind
	alreadyExists bool
}

// fakeRecorder captures engine outcomes.
type fakeRecorder struct {
	shortens []recordedShorten
	attempts []int
	resolves []bool
}

func (f *fakeRecorder) ShortenCompleted(kind shortener.ErrorKind, alreadyExists bool) {
	f.shortens = append(f.shortens, recordedShorten{kind: kind, alreadyExists: alreadyExists})
}

func (f *fakeRecorder) AllocationAttempts(attempts int) {
	f.attempts = append(f.attempts, attempts)
}

func (f *fakeRecorder) ResolveCompleted(found bool, _ error) {
	f.resolves = append(f.resolves, found)
}
