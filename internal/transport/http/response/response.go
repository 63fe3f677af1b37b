package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"causebridge/internal/domain"
)

// Body is the shape of every error response.
type Body struct {
	Error string `json:"error"`
}

// Data wraps listings so the top level is always an object.
type Data[T any] struct {
	Data T `json:"data"`
}

// OK writes data with status, 200 when status is zero.
func OK(c *gin.Context, status int, data any) {
	if status == 0 {
		status = http.StatusOK
	}
	if data == nil {
		c.Status(status)
		return
	}
	c.JSON(status, data)
}

// Abort writes a fixed status and message and stops the chain.
func Abort(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, Body{Error: msg})
}

// Fail translates err into its status and a client-safe message. Internal
// failures are logged with their cause and reported generically.
func Fail(c *gin.Context, l *zap.Logger, err error) {
	kind := domain.KindOf(err)
	status := StatusOf(kind)
	msg := "internal error"

	var de *domain.Error
	if errors.As(err, &de) && kind != domain.KindInternal {
		msg = de.Public()
	}
	if l != nil {
		switch kind {
		case domain.KindInternal:
			l.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		case domain.KindTransient:
			l.Warn("request failed transiently", zap.String("path", c.FullPath()), zap.Error(err))
		}
	}
	c.AbortWithStatusJSON(status, Body{Error: msg})
}
