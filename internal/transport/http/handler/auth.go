package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"causebridge/internal/domain"
	"causebridge/internal/service"
	httpez "causebridge/internal/transport/http/ez"
)

type Auth struct{ Env }

func (*Auth) Priority() int { return 10 }

type loginIn struct {
	Name     string `json:"name" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Auth) MountAPI(g *gin.RouterGroup) {
	ez := httpez.New(g.Group("/auth"), h.log())

	httpez.RegisterAction(ez, httpez.Action[service.RegisterInput, *service.RegisterResult]{
		Method: http.MethodPost,
		Path:   "/register",
		Binder: httpez.BindJSON,
		Status: http.StatusCreated,
		Handler: func(c *gin.Context, s *domain.Session, in *service.RegisterInput) (*service.RegisterResult, error) {
			return h.Svc.Identity.Register(c.Request.Context(), s, *in)
		},
	})

	httpez.RegisterAction(ez, httpez.Action[loginIn, *service.LoginResult]{
		Method: http.MethodPost,
		Path:   "/login",
		Binder: httpez.BindJSON,
		Handler: func(c *gin.Context, _ *domain.Session, in *loginIn) (*service.LoginResult, error) {
			out, err := h.Svc.Identity.Authenticate(c.Request.Context(), in.Name, in.Password)
			if err != nil {
				return nil, err
			}
			h.Cookie.set(c, out.CookieID, out.ExpiresAt)
			return out, nil
		},
	})

	httpez.RegisterAction(ez, httpez.Action[struct{}, httpez.NoContent]{
		Method: http.MethodPost,
		Path:   "/logout",
		Auth:   true,
		Handler: func(c *gin.Context, s *domain.Session, _ *struct{}) (httpez.NoContent, error) {
			if err := h.Svc.Identity.EndSession(c.Request.Context(), s); err != nil {
				return httpez.NoContent{}, err
			}
			h.Cookie.clear(c)
			return httpez.NoContent{}, nil
		},
	})

	httpez.RegisterAction(ez, httpez.Action[struct{}, *service.Profile]{
		Method: http.MethodGet,
		Path:   "/user",
		Auth:   true,
		Handler: func(c *gin.Context, s *domain.Session, _ *struct{}) (*service.Profile, error) {
			return h.Svc.Identity.CurrentProfile(c.Request.Context(), s)
		},
	})
}
