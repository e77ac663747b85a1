package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/nicofratini/prospeo-bolt/internal/repository"
)

type fakePropertyStore struct {
	createFn func(ctx context.Context, p *repository.Property) error
	listFn   func(ctx context.Context, userID string) ([]*repository.Property, error)
	getFn    func(ctx context.Context, id, userID string) (*repository.Property, error)
	updateFn func(ctx context.Context, p *repository.Property) error
	deleteFn func(ctx context.Context, id, userID string) error
}

func (f *fakePropertyStore) Create(ctx context.Context, p *repository.Property) error {
	return f.createFn(ctx, p)
}
func (f *fakePropertyStore) ListByOwner(ctx context.Context, userID string) ([]*repository.Property, error) {
	return f.listFn(ctx, userID)
}
func (f *fakePropertyStore) GetByIDAndOwner(ctx context.Context, id, userID string) (*repository.Property, error) {
	return f.getFn(ctx, id, userID)
}
func (f *fakePropertyStore) Update(ctx context.Context, p *repository.Property) error {
	return f.updateFn(ctx, p)
}
func (f *fakePropertyStore) DeleteByIDAndOwner(ctx context.Context, id, userID string) error {
	return f.deleteFn(ctx, id, userID)
}

func TestPropertyCreate(t *testing.T) {
	store := &fakePropertyStore{
		createFn: func(ctx context.Context, p *repository.Property) error {
			p.ID = sampleUID
			return nil
		},
	}
	h := NewPropertyHandler(store)

	c, rec := newTestContext(http.MethodPost, "/v1/properties",
		`{"name":"Villa Rosa","property_type":"house","price":420000}`)
	asSession(c, ownerID)

	if err := h.Create(c); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}
	var got repository.Property
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.ID != sampleUID || got.Name != "Villa Rosa" {
		t.Fatalf("unexpected body: %+v", got)
	}
	if got.Status != "active" {
		t.Fatalf("omitted status should default to active, got %q", got.Status)
	}
}

func TestPropertyCreateValidation(t *testing.T) {
	h := NewPropertyHandler(&fakePropertyStore{})

	cases := map[string]struct {
		body string
		want string
	}{
		"missing name": {`{}`, "name is required"},
		"bad type":     {`{"name":"x","property_type":"castle"}`, "property_type must be one of: house, apartment"},
		"bad status":   {`{"name":"x","status":"listed"}`, "status must be one of"},
		"zero price":   {`{"name":"x","price":0}`, "price must be greater than 0"},
		"unknown key":  {`{"name":"x","surprise":true}`, "invalid request body"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			c, _ := newTestContext(http.MethodPost, "/v1/properties", tc.body)
			asSession(c, ownerID)
			ae := wantStatusErr(t, h.Create(c), http.StatusBadRequest)
			if !strings.Contains(ae.Message, tc.want) {
				t.Fatalf("message %q does not mention %q", ae.Message, tc.want)
			}
		})
	}
}

func TestPropertyGetForeignIs404(t *testing.T) {
	store := &fakePropertyStore{
		getFn: func(ctx context.Context, id, userID string) (*repository.Property, error) {
			if userID != ownerID {
				t.Fatalf("store queried with user %q", userID)
			}
			return nil, repository.ErrPropertyNotFound
		},
	}
	h := NewPropertyHandler(store)

	c, _ := newTestContext(http.MethodGet, "/", "")
	c.SetParamNames("id")
	c.SetParamValues(sampleUID)
	asSession(c, ownerID)

	ae := wantStatusErr(t, h.Get(c), http.StatusNotFound)
	if ae.Message != "property not found" {
		t.Fatalf("message = %q", ae.Message)
	}
}

func TestPropertyDeleteMissingStays404(t *testing.T) {
	store := &fakePropertyStore{
		deleteFn: func(ctx context.Context, id, userID string) error {
			return repository.ErrPropertyNotFound
		},
	}
	h := NewPropertyHandler(store)

	for i := 0; i < 2; i++ {
		c, _ := newTestContext(http.MethodDelete, "/", "")
		c.SetParamNames("id")
		c.SetParamValues(sampleUID)
		asSession(c, ownerID)
		wantStatusErr(t, h.Delete(c), http.StatusNotFound)
	}
}

func TestPropertyListScopedToOwner(t *testing.T) {
	var askedFor string
	store := &fakePropertyStore{
		listFn: func(ctx context.Context, userID string) ([]*repository.Property, error) {
			askedFor = userID
			return []*repository.Property{}, nil
		},
	}
	h := NewPropertyHandler(store)

	c, rec := newTestContext(http.MethodGet, "/v1/properties", "")
	asSession(c, ownerID)
	if err := h.List(c); err != nil {
		t.Fatalf("List: %v", err)
	}
	if askedFor != ownerID {
		t.Fatalf("listed for %q, want %q", askedFor, ownerID)
	}
	if !strings.Contains(rec.Body.String(), `"properties":[]`) {
		t.Fatalf("empty list should serialize as [], got %s", rec.Body.String())
	}
}
