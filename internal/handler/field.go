package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/farmland-registry/internal/model"
	"github.com/iliyamo/farmland-registry/internal/repository"
)

// FieldHandler implements the field (land parcel) CRUD endpoints.
type FieldHandler struct {
	Fields *repository.FieldRepo
}

func NewFieldHandler(f *repository.FieldRepo) *FieldHandler {
	return &FieldHandler{Fields: f}
}

type fieldAddReq struct {
	Name                  string  `json:"name"`
	AreaHectares          float64 `json:"area_hectares"`
	CropRotation          string  `json:"crop_rotation"`
	CultivationTechnology string  `json:"cultivation_technology"`
	Coordinates           string  `json:"coordinates"`
	FarmerID              uint64  `json:"farmer_id"`
}

type fieldUpdReq struct {
	Name                  *string  `json:"name"`
	AreaHectares          *float64 `json:"area_hectares"`
	CropRotation          *string  `json:"crop_rotation"`
	CultivationTechnology *string  `json:"cultivation_technology"`
	Coordinates           *string  `json:"coordinates"`
	FarmerID              *uint64  `json:"farmer_id"`
}

func validateFieldAdd(req fieldAddReq) []fieldError {
	var errs []fieldError
	if strings.TrimSpace(req.Name) == "" {
		errs = append(errs, fieldError{"name", "name is required"})
	}
	if req.AreaHectares <= 0 {
		errs = append(errs, fieldError{"area_hectares", "area must be greater than zero"})
	}
	if !validCoordinates(req.Coordinates) {
		errs = append(errs, fieldError{"coordinates", "must be a JSON array of {lat, lon} points"})
	}
	if req.FarmerID == 0 {
		errs = append(errs, fieldError{"farmer_id", "farmer_id is required"})
	}
	return errs
}

// List handles GET /fields/ and returns every field with the owning
// farmer's last name.
func (h *FieldHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	fields, err := h.Fields.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if fields == nil {
		fields = []*repository.FieldWithFarmer{}
	}
	return c.JSON(http.StatusOK, fields)
}

// Get handles GET /fields/:id.
func (h *FieldHandler) Get(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	f, err := h.Fields.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrFieldNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "field not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, f)
}

// Create handles POST /fields/add/.  The owning farmer must exist and the
// field name must be free; both are checked inside the insert transaction.
func (h *FieldHandler) Create(c echo.Context) error {
	var req fieldAddReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if errs := validateFieldAdd(req); len(errs) > 0 {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"detail": errs})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	f := &model.Field{
		Name:                  req.Name,
		AreaHectares:          req.AreaHectares,
		CropRotation:          req.CropRotation,
		CultivationTechnology: req.CultivationTechnology,
		Coordinates:           req.Coordinates,
		FarmerID:              req.FarmerID,
	}
	if err := h.Fields.Create(ctx, f); err != nil {
		switch {
		case errors.Is(err, repository.ErrFarmerNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "farmer not found"})
		case errors.Is(err, repository.ErrFieldNameExists):
			return c.JSON(http.StatusConflict, echo.Map{"error": "field name already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create field failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "field added", "field": f})
}

// Update handles PUT /fields/update/:id.  Absent members leave their columns
// untouched; a farmer_id change is validated against the farmers table.
func (h *FieldHandler) Update(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req fieldUpdReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	var errs []fieldError
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		errs = append(errs, fieldError{"name", "name must not be empty"})
	}
	if req.AreaHectares != nil && *req.AreaHectares <= 0 {
		errs = append(errs, fieldError{"area_hectares", "area must be greater than zero"})
	}
	if req.Coordinates != nil && !validCoordinates(*req.Coordinates) {
		errs = append(errs, fieldError{"coordinates", "must be a JSON array of {lat, lon} points"})
	}
	if len(errs) > 0 {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"detail": errs})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	upd := repository.FieldUpdate{
		Name:                  req.Name,
		AreaHectares:          req.AreaHectares,
		CropRotation:          req.CropRotation,
		CultivationTechnology: req.CultivationTechnology,
		Coordinates:           req.Coordinates,
		FarmerID:              req.FarmerID,
	}
	if err := h.Fields.Update(ctx, id, upd); err != nil {
		switch {
		case errors.Is(err, repository.ErrFieldNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "field not found"})
		case errors.Is(err, repository.ErrFarmerNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "farmer not found"})
		case errors.Is(err, repository.ErrFieldNameExists):
			return c.JSON(http.StatusConflict, echo.Map{"error": "field name already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update field failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "field updated"})
}

// Delete handles DELETE /fields/delete/:id.
func (h *FieldHandler) Delete(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Fields.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrFieldNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "field not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete field failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "field deleted"})
}
