package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thejoaov/cadweb-api/internal/pix"
)

type memPixStore struct {
	mu  sync.Mutex
	txs map[string]pix.Transaction
}

func newMemPixStore() *memPixStore {
	return &memPixStore{txs: map[string]pix.Transaction{}}
}

func (s *memPixStore) Simulate(_ context.Context, in pix.SimulateInput) (pix.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := pix.Transaction{
		ID:            uuid.NewString(),
		TransactionID: in.TransactionID,
		CPF:           in.CPF,
		AmountCents:   in.AmountCents,
		CreatedAt:     time.Now().UTC(),
	}
	s.txs[in.TransactionID] = t
	return t, nil
}

func (s *memPixStore) GetByTransactionID(_ context.Context, id string) (pix.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.txs[id]
	if !ok {
		return pix.Transaction{}, pix.ErrNotFound
	}
	return t, nil
}

func (s *memPixStore) DeleteByTransactionID(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.txs[id]; !ok {
		return pix.ErrNotFound
	}
	delete(s.txs, id)
	return nil
}

func newPixRig(store *memPixStore) *chi.Mux {
	r := chi.NewRouter()
	h := &PixHandler{Store: store}
	h.RegisterPublic(r)
	h.Register(r)
	return r
}

// The back-office polls by transaction id: 404 until the payer page writes
// the simulated payment, then the transaction appears.
func TestPixPollSeesPaymentAfterSimulation(t *testing.T) {
	r := newPixRig(newMemPixStore())
	txID := uuid.NewString()

	w := doRequest(t, r, http.MethodGet, "/pix/"+txID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(t, r, http.MethodPost, "/pix/simulate", pix.SimulateInput{
		TransactionID: txID,
		CPF:           "529.982.247-25",
		AmountCents:   2550,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doRequest(t, r, http.MethodGet, "/pix/"+txID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var got pix.Transaction
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, txID, got.TransactionID)
	assert.Equal(t, int64(2550), got.AmountCents)
	assert.Equal(t, "52998224725", got.CPF, "cpf is stored digits-only")
}

func TestPixSimulateValidation(t *testing.T) {
	r := newPixRig(newMemPixStore())

	w := doRequest(t, r, http.MethodPost, "/pix/simulate", pix.SimulateInput{
		TransactionID: "not-a-uuid", CPF: "52998224725", AmountCents: 100,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(t, r, http.MethodPost, "/pix/simulate", pix.SimulateInput{
		TransactionID: uuid.NewString(), CPF: "123", AmountCents: 100,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(t, r, http.MethodPost, "/pix/simulate", pix.SimulateInput{
		TransactionID: uuid.NewString(), CPF: "52998224725", AmountCents: 0,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPixDelete(t *testing.T) {
	store := newMemPixStore()
	r := newPixRig(store)
	txID := uuid.NewString()

	_, err := store.Simulate(context.Background(), pix.SimulateInput{
		TransactionID: txID, CPF: "52998224725", AmountCents: 100,
	})
	require.NoError(t, err)

	w := doRequest(t, r, http.MethodDelete, "/pix/"+txID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doRequest(t, r, http.MethodDelete, "/pix/"+txID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
