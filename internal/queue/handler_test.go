package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mothership-gmbh/sw6-simple-api-sub000/internal/domain"
	"github.com/mothership-gmbh/sw6-simple-api-sub000/internal/product"
	apperrors "github.com/mothership-gmbh/sw6-simple-api-sub000/pkg/errors"
)

type mockPayloadRepository struct {
	mock.Mock
}

func (m *mockPayloadRepository) Create(ctx context.Context, body json.RawMessage) (*domain.Payload, error) {
	args := m.Called(ctx, body)
	p, _ := args.Get(0).(*domain.Payload)
	return p, args.Error(1)
}

func (m *mockPayloadRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Payload, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(*domain.Payload)
	return p, args.Error(1)
}

func (m *mockPayloadRepository) Claim(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *mockPayloadRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.PayloadStatus, errMsg *string) error {
	args := m.Called(ctx, id, status, errMsg)
	return args.Error(0)
}

func (m *mockPayloadRepository) ListIDsByStatus(ctx context.Context, status domain.PayloadStatus, limit int) ([]uuid.UUID, error) {
	args := m.Called(ctx, status, limit)
	ids, _ := args.Get(0).([]uuid.UUID)
	return ids, args.Error(1)
}

func (m *mockPayloadRepository) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

type mockProducts struct {
	mock.Mock
}

func (m *mockProducts) Create(ctx context.Context, raw map[string]interface{}) (*product.Result, error) {
	args := m.Called(ctx, raw)
	r, _ := args.Get(0).(*product.Result)
	return r, args.Error(1)
}

type recordingDispatcher struct {
	subjects []string
	messages []interface{}
	err      error
}

func (d *recordingDispatcher) Dispatch(ctx context.Context, subject string, msg interface{}) error {
	d.subjects = append(d.subjects, subject)
	d.messages = append(d.messages, msg)
	return d.err
}

func storedPayload(body string) *domain.Payload {
	return &domain.Payload{ID: uuid.New(), Payload: json.RawMessage(body), Status: domain.PayloadStatusNew}
}

func TestEnqueueStoresAndDispatches(t *testing.T) {
	repo := new(mockPayloadRepository)
	dispatcher := &recordingDispatcher{}
	h := NewHandler(repo, nil, dispatcher, "simple-api.payload", nil)

	body := json.RawMessage(`{"sku":"ms-123"}`)
	p := storedPayload(string(body))
	repo.On("Create", mock.Anything, body).Return(p, nil)

	got, err := h.Enqueue(context.Background(), body)
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)
	assert.Equal(t, []string{"simple-api.payload"}, dispatcher.subjects)
	assert.Equal(t, domain.PayloadMessage{PayloadID: p.ID.String()}, dispatcher.messages[0])
	repo.AssertExpectations(t)
}

func TestEnqueueSurvivesDispatchFailure(t *testing.T) {
	repo := new(mockPayloadRepository)
	h := NewHandler(repo, nil, &recordingDispatcher{err: errors.New("no broker")}, "s", nil)

	p := storedPayload(`{}`)
	repo.On("Create", mock.Anything, mock.Anything).Return(p, nil)

	got, err := h.Enqueue(context.Background(), json.RawMessage(`{}`))
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)
}

func TestEnqueueRejectsNonObject(t *testing.T) {
	repo := new(mockPayloadRepository)
	h := NewHandler(repo, nil, nil, "s", nil)

	_, err := h.Enqueue(context.Background(), json.RawMessage(`[1,2]`))
	assert.Equal(t, apperrors.CodeInvalidPayload, apperrors.Code(err))
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestHandleCompletes(t *testing.T) {
	repo := new(mockPayloadRepository)
	products := new(mockProducts)
	h := NewHandler(repo, products, nil, "s", nil)

	p := storedPayload(`{"sku":"ms-123","price":20}`)
	repo.On("GetByID", mock.Anything, p.ID).Return(p, nil)
	repo.On("Claim", mock.Anything, p.ID).Return(true, nil)
	products.On("Create", mock.Anything, map[string]interface{}{"sku": "ms-123", "price": float64(20)}).
		Return(&product.Result{ID: "abc", SKU: "ms-123"}, nil)
	repo.On("UpdateStatus", mock.Anything, p.ID, domain.PayloadStatusCompleted, (*string)(nil)).Return(nil)

	require.NoError(t, h.Handle(context.Background(), p.ID))
	repo.AssertExpectations(t)
	products.AssertExpectations(t)
}

func TestHandleRecordsFailure(t *testing.T) {
	repo := new(mockPayloadRepository)
	products := new(mockProducts)
	h := NewHandler(repo, products, nil, "s", nil)

	p := storedPayload(`{"sku":"ms-123"}`)
	cause := &apperrors.ErrLookup{Code: apperrors.CodeInvalidTaxValue, Value: "25"}
	repo.On("GetByID", mock.Anything, p.ID).Return(p, nil)
	repo.On("Claim", mock.Anything, p.ID).Return(true, nil)
	products.On("Create", mock.Anything, mock.Anything).Return(nil, cause)
	repo.On("UpdateStatus", mock.Anything, p.ID, domain.PayloadStatusError, mock.MatchedBy(func(msg *string) bool {
		return msg != nil && *msg == "invalid tax value: 25"
	})).Return(nil)

	err := h.Handle(context.Background(), p.ID)
	var procErr *apperrors.ErrProcessing
	require.ErrorAs(t, err, &procErr)
	assert.Equal(t, p.ID.String(), procErr.PayloadID)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidTaxValue))
	repo.AssertExpectations(t)
}

func TestHandleSkipsClaimedPayload(t *testing.T) {
	repo := new(mockPayloadRepository)
	products := new(mockProducts)
	h := NewHandler(repo, products, nil, "s", nil)

	p := storedPayload(`{}`)
	p.Status = domain.PayloadStatusCompleted
	repo.On("GetByID", mock.Anything, p.ID).Return(p, nil)
	repo.On("Claim", mock.Anything, p.ID).Return(false, nil)

	require.NoError(t, h.Handle(context.Background(), p.ID))
	products.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestHandleUnknownPayload(t *testing.T) {
	repo := new(mockPayloadRepository)
	h := NewHandler(repo, nil, nil, "s", nil)

	id := uuid.New()
	repo.On("GetByID", mock.Anything, id).Return(nil, &apperrors.ErrNotFound{Resource: "payload", ID: id.String()})

	err := h.Handle(context.Background(), id)
	var notFound *apperrors.ErrNotFound
	assert.ErrorAs(t, err, &notFound)
}

func TestHandleMessageRejectsBadID(t *testing.T) {
	h := NewHandler(new(mockPayloadRepository), nil, nil, "s", nil)
	assert.Error(t, h.HandleMessage(context.Background(), domain.PayloadMessage{PayloadID: "nope"}))
}

func TestProcessNewContinuesPastFailures(t *testing.T) {
	repo := new(mockPayloadRepository)
	products := new(mockProducts)
	h := NewHandler(repo, products, nil, "s", nil)

	ok := storedPayload(`{"sku":"a"}`)
	bad := storedPayload(`{"sku":"b"}`)
	repo.On("ListIDsByStatus", mock.Anything, domain.PayloadStatusNew, batchSize).Return([]uuid.UUID{bad.ID, ok.ID}, nil)
	for _, p := range []*domain.Payload{ok, bad} {
		repo.On("GetByID", mock.Anything, p.ID).Return(p, nil)
		repo.On("Claim", mock.Anything, p.ID).Return(true, nil)
	}
	products.On("Create", mock.Anything, map[string]interface{}{"sku": "b"}).Return(nil, errors.New("boom"))
	products.On("Create", mock.Anything, map[string]interface{}{"sku": "a"}).Return(&product.Result{ID: "1", SKU: "a"}, nil)
	repo.On("UpdateStatus", mock.Anything, bad.ID, domain.PayloadStatusError, mock.Anything).Return(nil)
	repo.On("UpdateStatus", mock.Anything, ok.ID, domain.PayloadStatusCompleted, (*string)(nil)).Return(nil)

	stats, err := h.ProcessNew(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Stats{Processed: 1, Failed: 1}, stats)
	repo.AssertNumberOfCalls(t, "ListIDsByStatus", 1)
}

func TestCleanupDeletesOlderRows(t *testing.T) {
	repo := new(mockPayloadRepository)
	h := NewHandler(repo, nil, nil, "s", nil)

	start := time.Now()
	repo.On("DeleteOlderThan", mock.Anything, mock.MatchedBy(func(before time.Time) bool {
		want := start.AddDate(0, 0, -7)
		return !before.Before(want) && before.Sub(want) < time.Minute
	})).Return(int64(3), nil)

	deleted, err := h.Cleanup(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, int64(3), deleted)
	repo.AssertExpectations(t)
}

func TestCleanupRejectsNegativeDays(t *testing.T) {
	h := NewHandler(new(mockPayloadRepository), nil, nil, "s", nil)
	_, err := h.Cleanup(context.Background(), -1)
	assert.Error(t, err)
}

func TestJSONHandlerDecodes(t *testing.T) {
	var got domain.PayloadMessage
	handler := JSONHandler(func(ctx context.Context, msg domain.PayloadMessage) error {
		got = msg
		return nil
	})

	require.NoError(t, handler(context.Background(), []byte(`{"payload_id":"42"}`)))
	assert.Equal(t, "42", got.PayloadID)
	assert.Error(t, handler(context.Background(), []byte(`nope`)))
}
