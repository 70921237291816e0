package httpgin

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hryhoriev/parkgo/internal/domain"
	redisrepo "github.com/hryhoriev/parkgo/internal/repository/redis"
	"github.com/hryhoriev/parkgo/internal/service"
	"github.com/hryhoriev/parkgo/internal/service/admin"
	"github.com/hryhoriev/parkgo/internal/service/query"
	"github.com/hryhoriev/parkgo/internal/service/tariff"
	"github.com/hryhoriev/parkgo/internal/service/tickets"
	"github.com/hryhoriev/parkgo/internal/ws"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func NewRouter(
	svcs *service.Services,
	hub *ws.Hub,
	idem *redisrepo.IdempotencyStore,
	logger *slog.Logger,
	middlewares ...gin.HandlerFunc,
) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery(), LoggingMiddleware(logger), RequestIDMiddleware(), CORS())
	for _, m := range middlewares {
		if m != nil {
			r.Use(m)
		}
	}

	// Swagger UI
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// health
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// live occupancy feed
	r.GET("/ws", WebSocketUpgrade(hub, logger))

	v1 := r.Group("/api/v1")

	master := v1.Group("/master")
	{
		master.GET("/gates", handleListGates(svcs))
		master.GET("/gates/:id", handleGetGate(svcs))
		master.GET("/zones", handleListZones(svcs))
		master.GET("/zones/:id", handleGetZone(svcs))
		master.GET("/categories", handleListCategories(svcs))
	}

	ticketsGroup := v1.Group("/tickets")
	{
		ticketsGroup.POST("/checkin", handleCheckin(svcs, idem))
		ticketsGroup.POST("/checkout", handleCheckout(svcs))
		ticketsGroup.GET("/:id", handleGetTicket(svcs))
	}

	subs := v1.Group("/subscriptions")
	{
		subs.GET("/plate/:plate", handleGetSubscriptionByPlate(svcs))
		subs.GET("/:id", handleGetSubscription(svcs))
	}

	// TODO: add admin auth middleware once the operator console gets accounts
	adminGroup := v1.Group("/admin")
	{
		adminGroup.GET("/reports/parking-state", handleParkingStateReport(svcs))
		adminGroup.PUT("/categories/:id", handleUpdateCategory(svcs))
		adminGroup.PUT("/zones/:id/open", handleSetZoneOpen(svcs))
		adminGroup.POST("/subscriptions", handleCreateSubscription(svcs))

		adminGroup.GET("/rush-windows", handleListRushWindows(svcs))
		adminGroup.POST("/rush-windows", handleCreateRushWindow(svcs))
		adminGroup.PUT("/rush-windows/:id", handleUpdateRushWindow(svcs))
		adminGroup.PUT("/rush-windows/:id/active", handleToggleRushWindow(svcs))
		adminGroup.DELETE("/rush-windows/:id", handleDeleteRushWindow(svcs))

		adminGroup.GET("/vacations", handleListVacations(svcs))
		adminGroup.POST("/vacations", handleCreateVacation(svcs))
		adminGroup.PUT("/vacations/:id", handleUpdateVacation(svcs))
		adminGroup.PUT("/vacations/:id/active", handleToggleVacation(svcs))
		adminGroup.DELETE("/vacations/:id", handleDeleteVacation(svcs))
	}

	return r
}

// --- Handlers with Swagger annotations ---

// @Summary  List gates
// @Success  200  {array}  domain.Gate
// @Router   /api/v1/master/gates [get]
func handleListGates(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		gates, err := svcs.Query.Gates(c.Request.Context())
		if err != nil {
			respondErr(c, err)
			return
		}
		// ETag + Cache-Control 60s
		writeJSONWithCache(c, http.StatusOK, gates, "public, max-age=60", true)
	}
}

// @Summary  Get gate
// @Param    id  path  string  true  "Gate ID"
// @Success  200  {object}  domain.Gate
// @Failure  404  {object}  ErrorResponse
// @Router   /api/v1/master/gates/{id} [get]
func handleGetGate(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		gate, err := svcs.Query.Gate(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondErr(c, err)
			return
		}
		writeJSONWithCache(c, http.StatusOK, gate, "public, max-age=60", true)
	}
}

// @Summary  List zone states
// @Param    gateId  query  string  false  "restrict to zones served by this gate"
// @Success  200  {array}  domain.ZoneState
// @Router   /api/v1/master/zones [get]
func handleListZones(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		if gateID := c.Query("gateId"); gateID != "" {
			states, err := svcs.Query.ZoneStatesForGate(c.Request.Context(), gateID)
			if err != nil {
				respondErr(c, err)
				return
			}
			c.JSON(http.StatusOK, states)
			return
		}
		c.JSON(http.StatusOK, svcs.Query.ZoneStates(c.Request.Context()))
	}
}

// @Summary  Get zone state
// @Param    id  path  string  true  "Zone ID"
// @Success  200  {object}  domain.ZoneState
// @Failure  404  {object}  ErrorResponse
// @Router   /api/v1/master/zones/{id} [get]
func handleGetZone(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		state, err := svcs.Query.ZoneState(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, state)
	}
}

// @Summary  List categories
// @Success  200  {array}  domain.Category
// @Router   /api/v1/master/categories [get]
func handleListCategories(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		categories, err := svcs.Query.Categories(c.Request.Context())
		if err != nil {
			respondErr(c, err)
			return
		}
		writeJSONWithCache(c, http.StatusOK, categories, "public, max-age=60", true)
	}
}

// @Summary  Check a vehicle in (idempotent)
// @Param    req body  CheckinRequest true "payload"
// @Header   201 {string} Idempotency-Key "echo"
// @Success  201 {object} CheckinResponse
// @Failure  400 {object} ErrorResponse
// @Failure  404 {object} ErrorResponse "zone not found"
// @Failure  409 {object} ErrorResponse "zone closed or full / idem in progress"
// @Failure  429 {object} ErrorResponse "rate limited"
// @Router   /api/v1/tickets/checkin [post]
func handleCheckin(
	svcs *service.Services,
	idem *redisrepo.IdempotencyStore,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CheckinRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		idemKey := strings.TrimSpace(c.GetHeader("Idempotency-Key"))
		var idemStorageKey string
		if idem != nil && idemKey != "" {
			idemStorageKey = redisrepo.KeyIdemCheckin(req.GateID, idemKey)

			if payload, ok, _ := idem.GetResult(
				c.Request.Context(),
				idemStorageKey,
			); ok {
				c.Header("Idempotency-Key", idemKey)
				c.Data(
					http.StatusCreated,
					"application/json; charset=utf-8",
					[]byte(payload),
				)
				return
			}

			locked, err := idem.AcquireLock(
				c.Request.Context(),
				idemStorageKey,
				60*time.Second,
			)
			if err != nil {
				respondErr(c, err)
				return
			}
			if !locked {
				if payload, ok, _ := idem.GetResult(
					c.Request.Context(),
					idemStorageKey,
				); ok {
					c.Header("Idempotency-Key", idemKey)
					c.Data(
						http.StatusCreated,
						"application/json; charset=utf-8",
						[]byte(payload),
					)
					return
				}
				c.Header("Retry-After", "1")
				c.JSON(
					http.StatusConflict,
					ErrorResponse{Error: "idempotency key in progress"},
				)
				return
			}
		}

		rlKey := "ip:" + c.ClientIP()

		result, err := svcs.Tickets.CheckIn(
			c.Request.Context(),
			req.ZoneID,
			req.GateID,
			req.Plate,
			rlKey,
		)
		if err != nil {
			if idemStorageKey != "" && idem != nil {
				_ = idem.Release(c.Request.Context(), idemStorageKey)
			}
			if isRateLimitedErr(err) {
				c.Header("Retry-After", "60")
				c.JSON(
					http.StatusTooManyRequests,
					ErrorResponse{Error: err.Error()},
				)
				return
			}
			respondErr(c, err)
			return
		}

		resp := CheckinResponse{
			Ticket:    result.Ticket,
			ZoneState: result.ZoneState,
		}
		if result.Subscription != nil {
			resp.Subscriber = &SubscriberBrief{
				SubscriptionID: result.Subscription.ID,
				UserName:       result.Subscription.UserName,
			}
		}

		if idemStorageKey != "" && idem != nil {
			b, _ := json.Marshal(resp)
			_ = idem.SaveResult(c.Request.Context(), idemStorageKey, string(b))
			c.Header("Idempotency-Key", idemKey)
		}

		c.JSON(http.StatusCreated, resp)
	}
}

// @Summary  Check a vehicle out
// @Param    req body  CheckoutRequest true "payload"
// @Success  200 {object} CheckoutResponse
// @Failure  404 {object} ErrorResponse "ticket not found"
// @Failure  409 {object} ErrorResponse "already checked out"
// @Router   /api/v1/tickets/checkout [post]
func handleCheckout(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CheckoutRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		result, err := svcs.Tickets.CheckOut(c.Request.Context(), req.TicketID)
		if err != nil {
			respondErr(c, err)
			return
		}

		c.JSON(http.StatusOK, CheckoutResponse{
			Receipt:   result.Receipt,
			ZoneState: result.ZoneState,
		})
	}
}

// @Summary  Get ticket
// @Param    id  path  string  true  "Ticket ID"
// @Success  200 {object} domain.Ticket
// @Failure  404 {object} ErrorResponse
// @Router   /api/v1/tickets/{id} [get]
func handleGetTicket(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		t, err := svcs.Tickets.Ticket(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, t)
	}
}

// @Summary  Get subscription
// @Param    id  path  string  true  "Subscription ID"
// @Success  200 {object} SubscriptionResponse
// @Failure  404 {object} ErrorResponse
// @Router   /api/v1/subscriptions/{id} [get]
func handleGetSubscription(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		sub, displayID, err := svcs.Query.Subscription(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, SubscriptionResponse{
			Subscription: sub,
			DisplayID:    displayID,
		})
	}
}

// @Summary  Find active subscription by plate
// @Param    plate  path  string  true  "License plate"
// @Success  200 {object} domain.Subscription
// @Failure  404 {object} ErrorResponse
// @Router   /api/v1/subscriptions/plate/{plate} [get]
func handleGetSubscriptionByPlate(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		sub, err := svcs.Query.SubscriptionByPlate(c.Request.Context(), c.Param("plate"))
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, sub)
	}
}

// @Summary  Parking state report
// @Success  200 {object} admin.StateReport
// @Router   /api/v1/admin/reports/parking-state [get]
func handleParkingStateReport(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		report, err := svcs.Admin.ParkingStateReport(c.Request.Context())
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, report)
	}
}

// @Summary  Update category rates
// @Param    id   path  string  true  "Category ID"
// @Param    req  body  UpdateCategoryRequest true "payload"
// @Success  200 {object} domain.Category
// @Failure  404 {object} ErrorResponse
// @Router   /api/v1/admin/categories/{id} [put]
func handleUpdateCategory(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req UpdateCategoryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		category, err := svcs.Admin.SetCategoryRates(
			c.Request.Context(),
			actorID(c),
			c.Param("id"),
			req.RateNormal,
			req.RateSpecial,
		)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, category)
	}
}

// @Summary  Open or close a zone
// @Param    id   path  string  true  "Zone ID"
// @Param    req  body  SetZoneOpenRequest true "payload"
// @Success  200 {object} domain.ZoneState
// @Failure  404 {object} ErrorResponse
// @Router   /api/v1/admin/zones/{id}/open [put]
func handleSetZoneOpen(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req SetZoneOpenRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		state, err := svcs.Admin.SetZoneOpen(
			c.Request.Context(),
			actorID(c),
			c.Param("id"),
			*req.Open,
		)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, state)
	}
}

// @Summary  Issue subscription
// @Param    req body  CreateSubscriptionRequest true "payload"
// @Success  201 {object} SubscriptionResponse
// @Failure  400 {object} ErrorResponse
// @Router   /api/v1/admin/subscriptions [post]
func handleCreateSubscription(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateSubscriptionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		starts, err := parseDateOrTime(req.StartsAt)
		if err != nil {
			badRequest(c, "invalid startsAt")
			return
		}
		expires, err := parseDateOrTime(req.ExpiresAt)
		if err != nil {
			badRequest(c, "invalid expiresAt")
			return
		}

		cars := make([]domain.Car, 0, len(req.Cars))
		for _, car := range req.Cars {
			cars = append(cars, domain.Car{
				Plate: car.Plate,
				Brand: car.Brand,
				Model: car.Model,
				Color: car.Color,
			})
		}

		created, err := svcs.Admin.CreateSubscription(
			c.Request.Context(),
			actorID(c),
			admin.NewSubscription{
				UserName:   req.UserName,
				CategoryID: req.CategoryID,
				Cars:       cars,
				StartsAt:   starts,
				ExpiresAt:  expires,
			},
		)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, SubscriptionResponse{
			Subscription: created.Subscription,
			DisplayID:    created.DisplayID,
		})
	}
}

// @Summary  List rush windows
// @Success  200 {array} domain.RushWindow
// @Router   /api/v1/admin/rush-windows [get]
func handleListRushWindows(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		windows, err := svcs.Admin.ListRushWindows(c.Request.Context())
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, windows)
	}
}

// @Summary  Create rush window
// @Param    req body  RushWindowRequest true "payload"
// @Success  201 {object} domain.RushWindow
// @Failure  400 {object} ErrorResponse
// @Router   /api/v1/admin/rush-windows [post]
func handleCreateRushWindow(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RushWindowRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		window, err := svcs.Admin.CreateRushWindow(
			c.Request.Context(),
			actorID(c),
			admin.NewRushWindow{
				WeekDay: *req.WeekDay,
				From:    req.From,
				To:      req.To,
				Active:  boolOrDefault(req.Active, true),
			},
		)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, window)
	}
}

// @Summary  Update rush window
// @Param    id   path  string  true  "Window ID"
// @Param    req  body  RushWindowRequest true "payload"
// @Success  200 {object} domain.RushWindow
// @Failure  404 {object} ErrorResponse
// @Router   /api/v1/admin/rush-windows/{id} [put]
func handleUpdateRushWindow(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RushWindowRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		window, err := svcs.Admin.UpdateRushWindow(
			c.Request.Context(),
			actorID(c),
			c.Param("id"),
			admin.NewRushWindow{
				WeekDay: *req.WeekDay,
				From:    req.From,
				To:      req.To,
				Active:  boolOrDefault(req.Active, true),
			},
		)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, window)
	}
}

// @Summary  Toggle rush window
// @Param    id   path  string  true  "Window ID"
// @Param    req  body  ToggleActiveRequest true "payload"
// @Success  204
// @Failure  404 {object} ErrorResponse
// @Router   /api/v1/admin/rush-windows/{id}/active [put]
func handleToggleRushWindow(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ToggleActiveRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		if err := svcs.Admin.SetRushWindowActive(
			c.Request.Context(),
			actorID(c),
			c.Param("id"),
			*req.Active,
		); err != nil {
			respondErr(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// @Summary  Delete rush window
// @Param    id  path  string  true  "Window ID"
// @Success  204
// @Failure  404 {object} ErrorResponse
// @Router   /api/v1/admin/rush-windows/{id} [delete]
func handleDeleteRushWindow(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svcs.Admin.DeleteRushWindow(
			c.Request.Context(),
			actorID(c),
			c.Param("id"),
		); err != nil {
			respondErr(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// @Summary  List vacations
// @Success  200 {array} domain.VacationWindow
// @Router   /api/v1/admin/vacations [get]
func handleListVacations(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		windows, err := svcs.Admin.ListVacations(c.Request.Context())
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, windows)
	}
}

// @Summary  Create vacation
// @Param    req body  VacationRequest true "payload"
// @Success  201 {object} domain.VacationWindow
// @Failure  400 {object} ErrorResponse
// @Router   /api/v1/admin/vacations [post]
func handleCreateVacation(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		in, ok := bindVacation(c)
		if !ok {
			return
		}
		window, err := svcs.Admin.CreateVacation(c.Request.Context(), actorID(c), in)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, window)
	}
}

// @Summary  Update vacation
// @Param    id   path  string  true  "Window ID"
// @Param    req  body  VacationRequest true "payload"
// @Success  200 {object} domain.VacationWindow
// @Failure  404 {object} ErrorResponse
// @Router   /api/v1/admin/vacations/{id} [put]
func handleUpdateVacation(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		in, ok := bindVacation(c)
		if !ok {
			return
		}
		window, err := svcs.Admin.UpdateVacation(c.Request.Context(), actorID(c), c.Param("id"), in)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, window)
	}
}

// @Summary  Toggle vacation
// @Param    id   path  string  true  "Window ID"
// @Param    req  body  ToggleActiveRequest true "payload"
// @Success  204
// @Failure  404 {object} ErrorResponse
// @Router   /api/v1/admin/vacations/{id}/active [put]
func handleToggleVacation(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ToggleActiveRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		if err := svcs.Admin.SetVacationActive(
			c.Request.Context(),
			actorID(c),
			c.Param("id"),
			*req.Active,
		); err != nil {
			respondErr(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// @Summary  Delete vacation
// @Param    id  path  string  true  "Window ID"
// @Success  204
// @Failure  404 {object} ErrorResponse
// @Router   /api/v1/admin/vacations/{id} [delete]
func handleDeleteVacation(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svcs.Admin.DeleteVacation(
			c.Request.Context(),
			actorID(c),
			c.Param("id"),
		); err != nil {
			respondErr(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// --- Helpers ---

func bindVacation(c *gin.Context) (admin.NewVacation, bool) {
	var req VacationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return admin.NewVacation{}, false
	}
	from, err := parseDateOrTime(req.From)
	if err != nil {
		badRequest(c, "invalid from")
		return admin.NewVacation{}, false
	}
	to, err := parseDateOrTime(req.To)
	if err != nil {
		badRequest(c, "invalid to")
		return admin.NewVacation{}, false
	}
	return admin.NewVacation{
		Name:   req.Name,
		From:   from,
		To:     to,
		Active: boolOrDefault(req.Active, true),
	}, true
}

func actorID(c *gin.Context) string {
	if id := strings.TrimSpace(c.GetHeader("X-Admin-ID")); id != "" {
		return id
	}
	return "admin"
}

func boolOrDefault(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg})
}

func isRateLimitedErr(err error) bool {
	return err != nil && strings.Contains(err.Error(), "rate limited")
}

func respondErr(c *gin.Context, err error) {
	if err == nil {
		c.Status(http.StatusNoContent)
		return
	}

	switch {
	// tickets service
	case errors.Is(err, tickets.ErrZoneNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "zone not found"})
		return
	case errors.Is(err, tickets.ErrZoneClosed):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "zone closed"})
		return
	case errors.Is(err, tickets.ErrZoneFull):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "zone full"})
		return
	case errors.Is(err, tickets.ErrTicketNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "ticket not found"})
		return
	case errors.Is(err, tickets.ErrAlreadyCheckedOut):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "ticket already checked out"})
		return
	case errors.Is(err, tickets.ErrDataConsistency):
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "data consistency failure"})
		return
	// tariff
	case errors.Is(err, tariff.ErrInvalidInterval):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid billing interval"})
		return
	// query service
	case errors.Is(err, query.ErrGateNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "gate not found"})
		return
	case errors.Is(err, query.ErrZoneNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "zone not found"})
		return
	case errors.Is(err, query.ErrSubscriptionNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "subscription not found"})
		return
	// admin service
	case errors.Is(err, admin.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	case errors.Is(err, admin.ErrCategoryNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "category not found"})
		return
	case errors.Is(err, admin.ErrZoneNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "zone not found"})
		return
	case errors.Is(err, admin.ErrWindowNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "window not found"})
		return
	}

	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
}
