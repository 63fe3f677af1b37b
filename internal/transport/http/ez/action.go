package ez

import (
	"errors"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"causebridge/internal/domain"
	mdw "causebridge/internal/transport/http/middleware"
	resp "causebridge/internal/transport/http/response"
)

// Binder picks where the action input comes from.
type Binder string

const (
	BindJSON  Binder = "json"
	BindQuery Binder = "query"
	BindNone  Binder = "none"
)

// EZ registers actions on one router group.
type EZ struct {
	g   *gin.RouterGroup
	log *zap.Logger
}

func New(g *gin.RouterGroup, l *zap.Logger) EZ {
	if l == nil {
		l = zap.NewNop()
	}
	return EZ{g: g, log: l}
}

// Action is one endpoint: I is the bound input, O the success body.
type Action[I any, O any] struct {
	Method string
	Path   string
	Binder Binder
	Auth   bool          // a live session is required
	Roles  []domain.Role // restricts Auth actions to these roles
	Status int           // success status, 200 when zero
	// Handler gets the caller's session, nil for anonymous requests.
	Handler func(c *gin.Context, s *domain.Session, in *I) (O, error)
}

// NoContent is the output of actions that answer with an empty body.
type NoContent struct{}

func RegisterAction[I any, O any](e EZ, a Action[I, O]) {
	h := func(c *gin.Context) {
		s := mdw.SessionFrom(c)
		if a.Auth {
			if s == nil {
				err := mdw.SessionErr(c)
				if err == nil {
					err = domain.AuthErr("login required")
				}
				resp.Fail(c, e.log, err)
				return
			}
			if len(a.Roles) > 0 && !slices.Contains(a.Roles, s.Role) {
				resp.Fail(c, e.log, domain.Permission("forbidden"))
				return
			}
		}

		var in I
		if err := bind(c, a.Binder, &in); err != nil {
			var mbe *http.MaxBytesError
			if errors.As(err, &mbe) {
				resp.Abort(c, http.StatusRequestEntityTooLarge, "request body too large")
				return
			}
			resp.Fail(c, e.log, domain.Validation("malformed request: "+err.Error()))
			return
		}

		out, err := a.Handler(c, s, &in)
		if err != nil {
			resp.Fail(c, e.log, err)
			return
		}
		if _, empty := any(out).(NoContent); empty {
			status := a.Status
			if status == 0 {
				status = http.StatusNoContent
			}
			c.Status(status)
			return
		}
		resp.OK(c, a.Status, out)
	}

	switch strings.ToUpper(a.Method) {
	case http.MethodGet:
		e.g.GET(a.Path, h)
	case http.MethodPut:
		e.g.PUT(a.Path, h)
	case http.MethodPatch:
		e.g.PATCH(a.Path, h)
	case http.MethodDelete:
		e.g.DELETE(a.Path, h)
	default:
		e.g.POST(a.Path, h)
	}
}

func bind(c *gin.Context, b Binder, in any) error {
	switch b {
	case BindJSON:
		if c.Request.ContentLength == 0 {
			return nil
		}
		return c.ShouldBindJSON(in)
	case BindQuery:
		return c.ShouldBindQuery(in)
	}
	return nil
}

// ParamID reads a positive numeric path parameter.
func ParamID(c *gin.Context, name string) (uint, error) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || v == 0 {
		return 0, domain.Validationf("%s must be a positive integer", name)
	}
	return uint(v), nil
}
