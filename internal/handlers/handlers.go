// Package handlers implements the callable operations of the API. Every
// operation is a POST whose body is {"data": {...}} and whose reply is
// {"result": {...}} or {"error": {"status", "message", "details"}}.
package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/01moynul/artisansloom-golang/internal/ai"
	"github.com/01moynul/artisansloom-golang/internal/apperrors"
	"github.com/01moynul/artisansloom-golang/internal/marketplace"
	"github.com/01moynul/artisansloom-golang/internal/middleware"
	"github.com/01moynul/artisansloom-golang/internal/models"
	"github.com/01moynul/artisansloom-golang/internal/notify"
)

// ListingAssistant generates listing copy. *ai.Service implements it.
type ListingAssistant interface {
	GenerateListingCopy(ctx context.Context, req ai.ListingRequest) (*ai.ListingCopy, error)
}

// Handlers struct holds all dependencies for our handlers.
type Handlers struct {
	Market    *marketplace.Service
	Notifier  notify.Publisher
	Assistant ListingAssistant // nil when no Gemini key is configured
	Log       *zap.Logger
}

func init() {
	// Report validation failures with the JSON field names clients send.
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
	}
}

// request is the callable envelope.
type request[T any] struct {
	Data T `json:"data"`
}

// bind decodes the "data" member of the body into T. On failure it writes
// an INVALID_ARGUMENT response and returns false.
func bind[T any](h *Handlers, c *gin.Context, op string) (T, bool) {
	var req request[T]
	err := c.ShouldBindJSON(&req)
	if errors.Is(err, io.EOF) {
		// An empty body is an empty "data" object.
		err = binding.Validator.ValidateStruct(&req)
	}
	if err != nil {
		h.fail(c, apperrors.InvalidArgument(op, "%s", bindMessage(err)))
		return req.Data, false
	}
	return req.Data, true
}

func bindMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "request body must be {\"data\": {...}} with valid JSON"
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fe.Field()+" is required")
		case "gte", "gt":
			msgs = append(msgs, fe.Field()+" must be "+fe.Tag()+" "+fe.Param())
		default:
			msgs = append(msgs, fe.Field()+" is invalid")
		}
	}
	return strings.Join(msgs, "; ")
}

// ok writes a successful callable response.
func (h *Handlers) ok(c *gin.Context, result any) {
	c.JSON(http.StatusOK, gin.H{"result": result})
}

// fail writes err as a callable error. Internal causes are logged, never
// returned.
func (h *Handlers) fail(c *gin.Context, err error) {
	if apperrors.CodeOf(err) == apperrors.CodeInternal {
		h.Log.Error("operation failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	_ = c.Error(err)
	middleware.Abort(c, err)
}

// caller returns the authenticated caller or writes UNAUTHENTICATED.
func (h *Handlers) caller(c *gin.Context) (models.Caller, bool) {
	caller, ok := middleware.CallerFrom(c)
	if !ok {
		h.fail(c, apperrors.Unauthenticated("handlers", "authentication required"))
		return models.Caller{}, false
	}
	return caller, true
}

// publish sends a notification event. Failures are logged: the operation
// itself already succeeded.
func (h *Handlers) publish(ctx context.Context, t notify.EventType, payload any) {
	if h.Notifier == nil {
		return
	}
	e, err := notify.NewEvent(t, payload, time.Now())
	if err == nil {
		err = h.Notifier.Publish(ctx, e)
	}
	if err != nil {
		h.Log.Warn("failed to publish notification", zap.String("event", string(t)), zap.Error(err))
	}
}
