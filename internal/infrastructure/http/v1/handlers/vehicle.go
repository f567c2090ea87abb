package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"taller/internal/core/apperror"
	"taller/internal/core/id"
	"taller/internal/domain/catalogs/vehicle"
	"taller/internal/infrastructure/http/v1/dto"
)

// VehicleHandler extends the generic catalog handler with plate lookup and
// per-client listing.
type VehicleHandler struct {
	*CatalogHandler[*vehicle.Vehicle, dto.CreateVehicleRequest, dto.UpdateVehicleRequest]
	service *vehicle.Service
}

// NewVehicleHandler wires the generic catalog handler with vehicle mappers.
func NewVehicleHandler(
	base *BaseHandler,
	service *vehicle.Service,
) *VehicleHandler {
	config := CatalogHandlerConfig[
		*vehicle.Vehicle,
		dto.CreateVehicleRequest,
		dto.UpdateVehicleRequest,
	]{
		Service:    service.CatalogService,
		EntityName: "vehicle",

		MapCreateDTO: func(req dto.CreateVehicleRequest) *vehicle.Vehicle {
			return req.ToEntity()
		},

		MapUpdateDTO: func(req dto.UpdateVehicleRequest, existing *vehicle.Vehicle) *vehicle.Vehicle {
			req.ApplyTo(existing)
			return existing
		},

		MapToDTO: func(v *vehicle.Vehicle) any {
			return dto.FromVehicle(v)
		},
	}

	return &VehicleHandler{
		CatalogHandler: NewCatalogHandler(base, config),
		service:        service,
	}
}

// GetByPlate handles GET /vehicles/by-plate/:plate.
func (h *VehicleHandler) GetByPlate(c *gin.Context) {
	ctx := c.Request.Context()

	v, err := h.service.FindByPlate(ctx, c.Param("plate"))
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromVehicle(v))
}

// ListByClient handles GET /clients/:id/vehicles.
func (h *VehicleHandler) ListByClient(c *gin.Context) {
	ctx := c.Request.Context()

	clientID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	filter, ok := h.ParseListFilter(c)
	if !ok {
		return
	}

	result, err := h.service.ListByClient(ctx, clientID, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, h.ListResponse(result))
}
