package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/farmland-registry/internal/model"
	"github.com/iliyamo/farmland-registry/internal/queue"
	"github.com/iliyamo/farmland-registry/internal/repository"
	queue_publisher "github.com/iliyamo/farmland-registry/internal/service"
)

// FarmerHandler implements the farmer CRUD endpoints.
type FarmerHandler struct {
	Farmers *repository.FarmerRepo
}

func NewFarmerHandler(f *repository.FarmerRepo) *FarmerHandler {
	return &FarmerHandler{Farmers: f}
}

type farmerAddReq struct {
	PhoneNumber string `json:"phone_number"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	FarmName    string `json:"farm_name"`
	DateOfBirth string `json:"date_of_birth"` // YYYY-MM-DD
	Email       string `json:"email"`
	Address     string `json:"address"`
	Photo       string `json:"photo"`
}

type farmerUpdReq struct {
	ID          uint64  `json:"id"`
	PhoneNumber *string `json:"phone_number"`
	FarmName    *string `json:"farm_name"`
	Email       *string `json:"email"`
	Address     *string `json:"address"`
	Photo       *string `json:"photo"`
}

// farmerResp is the API shape of a farmer: the record plus the derived
// field statistics, with the birth date serialized date-only.
type farmerResp struct {
	ID                uint64        `json:"id"`
	PhoneNumber       string        `json:"phone_number"`
	FirstName         string        `json:"first_name"`
	LastName          string        `json:"last_name"`
	FarmName          string        `json:"farm_name"`
	DateOfBirth       string        `json:"date_of_birth"`
	Email             string        `json:"email"`
	Address           string        `json:"address"`
	Photo             string        `json:"photo,omitempty"`
	Fields            []model.Field `json:"fields"`
	NumberOfFields    int           `json:"number_of_fields"`
	TotalAreaHectares float64       `json:"total_area_hectares"`
}

func toFarmerResp(f *model.Farmer) farmerResp {
	fields := f.Fields
	if fields == nil {
		fields = []model.Field{}
	}
	return farmerResp{
		ID:                f.ID,
		PhoneNumber:       f.PhoneNumber,
		FirstName:         f.FirstName,
		LastName:          f.LastName,
		FarmName:          f.FarmName,
		DateOfBirth:       f.DateOfBirth.Format("2006-01-02"),
		Email:             f.Email,
		Address:           f.Address,
		Photo:             f.Photo,
		Fields:            fields,
		NumberOfFields:    f.NumberOfFields(),
		TotalAreaHectares: f.TotalAreaHectares(),
	}
}

// List handles GET /farmers/ with optional first_name/last_name filters.
// Every farmer comes back with fields eager-loaded so the derived counts
// are consistent with the listed parcels.
func (h *FarmerHandler) List(c echo.Context) error {
	filter := repository.FarmerFilter{
		FirstName: c.QueryParam("first_name"),
		LastName:  c.QueryParam("last_name"),
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	farmers, err := h.Farmers.List(ctx, filter)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]farmerResp, 0, len(farmers))
	for _, f := range farmers {
		out = append(out, toFarmerResp(f))
	}
	return c.JSON(http.StatusOK, out)
}

// Get handles GET /farmers/:id and returns the full record with fields.
func (h *FarmerHandler) Get(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	f, err := h.Farmers.GetWithFields(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrFarmerNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "farmer not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, toFarmerResp(f))
}

// Create handles POST /farmers/add/.
func (h *FarmerHandler) Create(c echo.Context) error {
	var req farmerAddReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if errs := validateFarmer(req); len(errs) > 0 {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"detail": errs})
	}
	dob, _ := time.Parse("2006-01-02", req.DateOfBirth) // validated above

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	f := &model.Farmer{
		PhoneNumber: req.PhoneNumber,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		FarmName:    req.FarmName,
		DateOfBirth: dob,
		Email:       req.Email,
		Address:     req.Address,
		Photo:       req.Photo,
	}
	if err := h.Farmers.Create(ctx, f); err != nil {
		if errors.Is(err, repository.ErrEmailExists) || errors.Is(err, repository.ErrPhoneExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "farmer already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create farmer failed"})
	}

	_ = queue_publisher.PublishFarmerRegistered(c.Request().Context(), queue.FarmerRegisteredEvent{
		FarmerID:     f.ID,
		Email:        f.Email,
		FarmName:     f.FarmName,
		RegisteredAt: time.Now().UTC().Format(time.RFC3339),
	})

	return c.JSON(http.StatusOK, echo.Map{"message": "farmer added", "farmer": toFarmerResp(f)})
}

// Update handles PUT /farmers/update_description/, a partial update
// addressed by id.  Absent members leave their columns untouched.
func (h *FarmerHandler) Update(c echo.Context) error {
	var req farmerUpdReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.ID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "id is required"})
	}
	if req.Email != nil && !emailRe.MatchString(*req.Email) {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"detail": []fieldError{{"email", "invalid email format"}}})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	upd := repository.FarmerUpdate{
		PhoneNumber: req.PhoneNumber,
		FarmName:    req.FarmName,
		Email:       req.Email,
		Address:     req.Address,
		Photo:       req.Photo,
	}
	if err := h.Farmers.Update(ctx, req.ID, upd); err != nil {
		switch {
		case errors.Is(err, repository.ErrFarmerNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "farmer not found"})
		case errors.Is(err, repository.ErrEmailExists), errors.Is(err, repository.ErrPhoneExists):
			return c.JSON(http.StatusConflict, echo.Map{"error": "email or phone already in use"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update farmer failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "farmer updated"})
}

// Delete handles DELETE /farmers/delete/:id.  The farmer's fields are
// removed in the same transaction.
func (h *FarmerHandler) Delete(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Farmers.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrFarmerNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "farmer not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete farmer failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "farmer deleted"})
}
