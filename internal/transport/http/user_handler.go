package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/yuridenisov/oims/internal/service/directory"
)

// UserHandler обслуживает HTTP-операции над справочником клиентов.
type UserHandler struct {
	directory *directory.Service
	orders    *OrderHandler
	logger    *log.Entry
}

// NewUserHandler создаёт handler клиентов. OrderHandler нужен для
// вложенного маршрута заказов клиента.
func NewUserHandler(svc *directory.Service, orders *OrderHandler, logger *log.Entry) *UserHandler {
	if logger == nil {
		logger = log.New().WithField("component", "http-users")
	}
	return &UserHandler{directory: svc, orders: orders, logger: logger}
}

// RegisterRoutes вешает маршруты клиентов на роутер.
func (h *UserHandler) RegisterRoutes(router gin.IRouter) {
	users := router.Group("/users")
	{
		users.POST("", h.CreateUser)
		users.GET("", h.ListUsers)
		users.GET("/check-phone", h.CheckPhone)
		users.GET("/:id", h.GetUser)
		users.PATCH("/:id", h.UpdateUser)
		users.DELETE("/:id", h.DeleteUser)
		if h.orders != nil {
			users.GET("/:id/orders", h.orders.UserOrders)
		}
	}
}

type createUserRequest struct {
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name" binding:"required"`
	Phone     string `json:"phone" binding:"required"`
	Email     string `json:"email"`
	Address   string `json:"address" binding:"required"`
}

type updateUserRequest struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Phone     *string `json:"phone"`
	Email     *string `json:"email"`
	Address   *string `json:"address"`
}

// CreateUser добавляет клиента.
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	created, err := h.directory.CreateUser(directory.CreateUserInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		Email:     req.Email,
		Address:   req.Address,
	})
	if err != nil {
		h.logger.WithError(err).Warn("create user rejected")
		respondError(c, err)
		return
	}
	SuccessResponse(c, http.StatusCreated, "user created", toUserDTO(created))
}

// GetUser возвращает клиента по идентификатору.
func (h *UserHandler) GetUser(c *gin.Context) {
	found, err := h.directory.GetUser(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "user retrieved", toUserDTO(found))
}

// ListUsers возвращает всех клиентов.
func (h *UserHandler) ListUsers(c *gin.Context) {
	users, err := h.directory.ListUsers()
	if err != nil {
		respondError(c, err)
		return
	}
	dtos := make([]userDTO, 0, len(users))
	for _, u := range users {
		dtos = append(dtos, toUserDTO(u))
	}
	SuccessResponse(c, http.StatusOK, "users retrieved", dtos)
}

// UpdateUser меняет поля клиента.
func (h *UserHandler) UpdateUser(c *gin.Context) {
	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	updated, err := h.directory.UpdateUser(c.Param("id"), directory.UpdateUserInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		Email:     req.Email,
		Address:   req.Address,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "user updated", toUserDTO(updated))
}

// DeleteUser удаляет клиента без заказов.
func (h *UserHandler) DeleteUser(c *gin.Context) {
	if err := h.directory.DeleteUser(c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "user deleted", nil)
}

// CheckPhone проверяет, зарегистрирован ли телефон.
func (h *UserHandler) CheckPhone(c *gin.Context) {
	result, err := h.directory.CheckPhone(c.Query("phone"))
	if err != nil {
		respondError(c, err)
		return
	}

	data := gin.H{"exists": result.Exists}
	if result.User != nil {
		data["user"] = toUserDTO(*result.User)
	}
	SuccessResponse(c, http.StatusOK, "phone checked", data)
}
