package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"causebridge/internal/domain"
	"causebridge/internal/service"
	httpez "causebridge/internal/transport/http/ez"
	resp "causebridge/internal/transport/http/response"
)

// Admin is mounted on a group that already requires the admin role; the
// services check it again.
type Admin struct{ Env }

var adminOnly = []domain.Role{domain.RoleAdmin}

func (h *Admin) MountAdmin(g *gin.RouterGroup) {
	ez := httpez.New(g, h.log())

	httpez.RegisterAction(ez, httpez.Action[struct{}, resp.Data[[]domain.User]]{
		Method: http.MethodGet,
		Path:   "/users",
		Auth:   true,
		Roles:  adminOnly,
		Handler: func(c *gin.Context, s *domain.Session, _ *struct{}) (resp.Data[[]domain.User], error) {
			list, err := h.Svc.Registry.ListUsers(c.Request.Context(), s)
			return resp.Data[[]domain.User]{Data: list}, err
		},
	})

	httpez.RegisterAction(ez, httpez.Action[struct{}, resp.Data[[]domain.Cause]]{
		Method: http.MethodGet,
		Path:   "/causes",
		Auth:   true,
		Roles:  adminOnly,
		Handler: func(c *gin.Context, s *domain.Session, _ *struct{}) (resp.Data[[]domain.Cause], error) {
			list, err := h.Svc.Registry.ListCauses(c.Request.Context(), s)
			return resp.Data[[]domain.Cause]{Data: list}, err
		},
	})

	httpez.RegisterAction(ez, httpez.Action[struct{}, *domain.User]{
		Method: http.MethodGet,
		Path:   "/user/:id",
		Auth:   true,
		Roles:  adminOnly,
		Handler: func(c *gin.Context, s *domain.Session, _ *struct{}) (*domain.User, error) {
			id, err := httpez.ParamID(c, "id")
			if err != nil {
				return nil, err
			}
			d, err := h.Svc.Registry.AdminUser(c.Request.Context(), s, id)
			if err != nil {
				return nil, err
			}
			return d.User, nil
		},
	})

	httpez.RegisterAction(ez, httpez.Action[struct{}, resp.Data[[]domain.Cause]]{
		Method: http.MethodGet,
		Path:   "/user/:id/causes",
		Auth:   true,
		Roles:  adminOnly,
		Handler: func(c *gin.Context, s *domain.Session, _ *struct{}) (resp.Data[[]domain.Cause], error) {
			id, err := httpez.ParamID(c, "id")
			if err != nil {
				return resp.Data[[]domain.Cause]{}, err
			}
			d, err := h.Svc.Registry.AdminUser(c.Request.Context(), s, id)
			if err != nil {
				return resp.Data[[]domain.Cause]{}, err
			}
			return resp.Data[[]domain.Cause]{Data: d.Causes}, nil
		},
	})

	toggle := func(path string, verify bool) {
		httpez.RegisterAction(ez, httpez.Action[struct{}, *service.VerifyResult]{
			Method: http.MethodPatch,
			Path:   path,
			Auth:   true,
			Roles:  adminOnly,
			Handler: func(c *gin.Context, s *domain.Session, _ *struct{}) (*service.VerifyResult, error) {
				id, err := httpez.ParamID(c, "auth_id")
				if err != nil {
					return nil, err
				}
				if verify {
					return h.Svc.Verification.Verify(c.Request.Context(), s, id)
				}
				return h.Svc.Verification.Unverify(c.Request.Context(), s, id)
			},
		})
	}
	toggle("/verify/:auth_id", true)
	toggle("/unverify/:auth_id", false)

	httpez.RegisterAction(ez, httpez.Action[struct{}, httpez.NoContent]{
		Method: http.MethodDelete,
		Path:   "/delete/user/:id",
		Auth:   true,
		Roles:  adminOnly,
		Handler: func(c *gin.Context, s *domain.Session, _ *struct{}) (httpez.NoContent, error) {
			id, err := httpez.ParamID(c, "id")
			if err != nil {
				return httpez.NoContent{}, err
			}
			return httpez.NoContent{}, h.Svc.Registry.DeleteUser(c.Request.Context(), s, id)
		},
	})

	httpez.RegisterAction(ez, httpez.Action[struct{}, httpez.NoContent]{
		Method: http.MethodDelete,
		Path:   "/delete/cause/:id",
		Auth:   true,
		Roles:  adminOnly,
		Handler: func(c *gin.Context, s *domain.Session, _ *struct{}) (httpez.NoContent, error) {
			id, err := httpez.ParamID(c, "id")
			if err != nil {
				return httpez.NoContent{}, err
			}
			return httpez.NoContent{}, h.Svc.Registry.DeleteCause(c.Request.Context(), s, id)
		},
	})
}
