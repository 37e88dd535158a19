package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"agrigenie/internal/model"
	"agrigenie/internal/service"
	"agrigenie/internal/validation"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testListing() *model.Listing {
	return &model.Listing{
		ID:           uuid.New(),
		FarmerID:     testFarmer.ID,
		CropName:     "Rice",
		Quantity:     decimal.NewFromInt(100),
		Unit:         "kg",
		PricePerUnit: decimal.NewFromInt(40),
		Available:    true,
	}
}

func TestListingHandler_Create(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		mockReturn     *model.Listing
		mockError      error
		expectedStatus int
		expectService  bool
	}{
		{
			name:           "Success",
			body:           `{"crop_name":"Rice","quantity":100,"unit":"kg","price_per_unit":"40"}`,
			mockReturn:     testListing(),
			expectedStatus: http.StatusCreated,
			expectService:  true,
		},
		{
			name:           "Validation failure",
			body:           `{"crop_name":"Rice","quantity":0,"unit":"kg","price_per_unit":40}`,
			mockError:      &validation.Error{Violations: []validation.FieldViolation{{Field: "quantity", Message: "Quantity must be a positive number"}}},
			expectedStatus: http.StatusBadRequest,
			expectService:  true,
		},
		{
			name:           "Buyer forbidden",
			body:           `{"crop_name":"Rice"}`,
			mockError:      model.ErrFarmerOnly,
			expectedStatus: http.StatusForbidden,
			expectService:  true,
		},
		{
			name:           "Invalid JSON",
			body:           `{"crop_name":`,
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockListingService)
			h := NewListingHandler(mockService, zerolog.Nop())
			if tt.expectService {
				mockService.On("Create", mock.Anything, testFarmer, mock.AnythingOfType("model.ListingInput")).
					Return(tt.mockReturn, tt.mockError)
			}

			w := httptest.NewRecorder()
			h.Create(w, newRequest(http.MethodPost, "/api/marketplace/listings", tt.body, testFarmer))

			assert.Equal(t, tt.expectedStatus, w.Code)
			mockService.AssertExpectations(t)
			if !tt.expectService {
				mockService.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
			}
		})
	}
}

func TestListingHandler_Create_PassesRawAmounts(t *testing.T) {
	mockService := new(MockListingService)
	h := NewListingHandler(mockService, zerolog.Nop())
	mockService.On("Create", mock.Anything, testFarmer, mock.MatchedBy(func(in model.ListingInput) bool {
		return in.Quantity != nil && string(*in.Quantity) == "12.5" &&
			in.PricePerUnit != nil && string(*in.PricePerUnit) == "abc"
	})).Return(testListing(), nil)

	w := httptest.NewRecorder()
	h.Create(w, newRequest(http.MethodPost, "/api/marketplace/listings", `{"quantity":12.5,"price_per_unit":"abc"}`, testFarmer))

	assert.Equal(t, http.StatusCreated, w.Code)
	mockService.AssertExpectations(t)
}

func TestListingHandler_List(t *testing.T) {
	tests := []struct {
		name           string
		query          string
		expected       service.ListingQuery
		expectedStatus int
	}{
		{
			name:           "Defaults",
			query:          "",
			expected:       service.ListingQuery{AvailableOnly: true},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "All filters",
			query:          "?farmer_only=true&available_only=false&crop_name=rice&limit=20",
			expected:       service.ListingQuery{FarmerOnly: true, CropName: "rice", Limit: 20},
			expectedStatus: http.StatusOK,
		},
		{name: "Invalid limit", query: "?limit=ten", expectedStatus: http.StatusBadRequest},
		{name: "Negative limit", query: "?limit=-1", expectedStatus: http.StatusBadRequest},
		{name: "Invalid flag", query: "?farmer_only=maybe", expectedStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockListingService)
			h := NewListingHandler(mockService, zerolog.Nop())
			if tt.expectedStatus == http.StatusOK {
				mockService.On("List", mock.Anything, testFarmer, tt.expected).Return([]model.Listing{*testListing()}, nil)
			}

			w := httptest.NewRecorder()
			h.List(w, newRequest(http.MethodGet, "/api/marketplace/listings"+tt.query, "", testFarmer))

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusOK {
				var listings []model.Listing
				require.NoError(t, json.NewDecoder(w.Body).Decode(&listings))
				assert.Len(t, listings, 1)
			}
			mockService.AssertExpectations(t)
		})
	}
}

func TestListingHandler_Toggle(t *testing.T) {
	listing := testListing()
	intruder := model.Actor{ID: uuid.New(), Role: model.RoleFarmer}

	tests := []struct {
		name           string
		actor          model.Actor
		id             string
		mockReturn     *model.Listing
		mockError      error
		expectedStatus int
		expectService  bool
	}{
		{
			name:  "Owner toggles",
			actor: testFarmer,
			id:    listing.ID.String(),
			mockReturn: func() *model.Listing {
				l := *listing
				l.Available = false
				return &l
			}(),
			expectedStatus: http.StatusOK,
			expectService:  true,
		},
		{
			name:           "Non-owner forbidden",
			actor:          intruder,
			id:             listing.ID.String(),
			mockError:      model.ErrNotListingOwner,
			expectedStatus: http.StatusForbidden,
			expectService:  true,
		},
		{
			name:           "Missing listing",
			actor:          testFarmer,
			id:             listing.ID.String(),
			mockError:      model.ErrListingNotFound,
			expectedStatus: http.StatusNotFound,
			expectService:  true,
		},
		{
			name:           "Malformed id",
			actor:          testFarmer,
			id:             "123",
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockListingService)
			h := NewListingHandler(mockService, zerolog.Nop())
			if tt.expectService {
				mockService.On("ToggleAvailability", mock.Anything, tt.actor, listing.ID).Return(tt.mockReturn, tt.mockError)
			}

			w := httptest.NewRecorder()
			h.Toggle(w, newRequest(http.MethodPost, "/api/marketplace/listings/"+tt.id+"/toggle", "", tt.actor, "id", tt.id))

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusOK {
				var got model.Listing
				require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
				assert.False(t, got.Available)
			}
			mockService.AssertExpectations(t)
		})
	}
}

func TestListingHandler_GetUpdateDelete(t *testing.T) {
	listing := testListing()
	id := listing.ID.String()

	t.Run("Get", func(t *testing.T) {
		mockService := new(MockListingService)
		mockService.On("Get", mock.Anything, listing.ID).Return(listing, nil)
		h := NewListingHandler(mockService, zerolog.Nop())

		w := httptest.NewRecorder()
		h.Get(w, newRequest(http.MethodGet, "/api/marketplace/listings/"+id, "", model.Actor{}, "id", id))

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Update", func(t *testing.T) {
		mockService := new(MockListingService)
		mockService.On("Update", mock.Anything, testFarmer, listing.ID, mock.MatchedBy(func(in model.ListingInput) bool {
			return in.Available != nil && !*in.Available && in.CropName == nil
		})).Return(listing, nil)
		h := NewListingHandler(mockService, zerolog.Nop())

		w := httptest.NewRecorder()
		h.Update(w, newRequest(http.MethodPut, "/api/marketplace/listings/"+id, `{"available":false}`, testFarmer, "id", id))

		assert.Equal(t, http.StatusOK, w.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("Delete closes referenced listing", func(t *testing.T) {
		mockService := new(MockListingService)
		mockService.On("Delete", mock.Anything, testFarmer, listing.ID).Return(&model.DeleteListingResult{
			ID: listing.ID, Deleted: false, Message: "Listing has existing orders and was marked as unavailable instead",
		}, nil)
		h := NewListingHandler(mockService, zerolog.Nop())

		w := httptest.NewRecorder()
		h.Delete(w, newRequest(http.MethodDelete, "/api/marketplace/listings/"+id, "", testFarmer, "id", id))

		assert.Equal(t, http.StatusOK, w.Code)
		var result model.DeleteListingResult
		require.NoError(t, json.NewDecoder(w.Body).Decode(&result))
		assert.False(t, result.Deleted)
	})

	t.Run("MyListings service failure", func(t *testing.T) {
		mockService := new(MockListingService)
		mockService.On("MyListings", mock.Anything, testFarmer).Return(nil, errors.New("timeout"))
		h := NewListingHandler(mockService, zerolog.Nop())

		w := httptest.NewRecorder()
		h.MyListings(w, newRequest(http.MethodGet, "/api/marketplace/listings/my-listings", "", testFarmer))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}
