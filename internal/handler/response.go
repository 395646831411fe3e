package handler

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"go-retail-ws/internal/middleware"
	"go-retail-ws/internal/service"
	"go-retail-ws/pkg/apperror"
	"go-retail-ws/pkg/logger"
	"go-retail-ws/pkg/query"
)

// Response is the envelope every endpoint answers with.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   any    `json:"error,omitempty"`
}

// ErrorBody is the error half of a failed Response.
type ErrorBody struct {
	Code    apperror.Code `json:"code"`
	Details any           `json:"details,omitempty"`
	Trace   string        `json:"trace,omitempty"`
}

type PageMeta struct {
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
	Total    int64 `json:"total"`
}

type Paged struct {
	Items any      `json:"items"`
	Meta  PageMeta `json:"meta"`
}

func ok(c *fiber.Ctx, message string, data any) error {
	return c.JSON(Response{Success: true, Message: message, Data: data})
}

func created(c *fiber.Ctx, message string, data any) error {
	return c.Status(fiber.StatusCreated).JSON(Response{Success: true, Message: message, Data: data})
}

func paged(c *fiber.Ctx, items any, page query.Page, total int64) error {
	return c.JSON(Response{Success: true, Data: Paged{
		Items: items,
		Meta:  PageMeta{Page: page.Number, PageSize: page.Limit(), Total: total},
	}})
}

// NewErrorHandler renders any error as a failed envelope. Untyped errors
// become a generic 500; the error chain is shown only in development.
func NewErrorHandler(log *logger.Logger, dev bool) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(Response{Success: false, Message: fe.Message})
		}

		typed := apperror.As(err)
		if typed == nil {
			typed = apperror.Internal(err, "unexpected error")
		}
		meta := apperror.MetadataFor(typed.Code())

		ctx := log.WithField(c.UserContext(), "code", string(typed.Code()))
		if typed.Code() == apperror.CodeInternal {
			log.Error(ctx, "request failed: "+c.Method()+" "+c.Path(), err)
		}

		message := typed.Message()
		if typed.Code() == apperror.CodeInternal && !dev {
			message = meta.PublicMessage
		}
		body := ErrorBody{Code: typed.Code()}
		if meta.DetailsAllowed || dev {
			body.Details = typed.Details()
		}
		if dev {
			body.Trace = err.Error()
		}
		return c.Status(meta.HTTPStatus).JSON(Response{Success: false, Message: message, Error: body})
	}
}

func bind(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return apperror.Wrap(apperror.CodeValidation, err, "invalid JSON body")
	}
	return nil
}

func paramUUID(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, apperror.Validation("invalid " + name)
	}
	return id, nil
}

// queryUUID returns nil when the parameter is absent.
func queryUUID(c *fiber.Ctx, name string) (*uuid.UUID, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, apperror.Validation("invalid " + name)
	}
	return &id, nil
}

func pageOf(c *fiber.Ctx) query.Page {
	return query.NewPage(c.QueryInt("page", 1), c.QueryInt("page_size", query.DefaultPageSize))
}

func queryBool(c *fiber.Ctx, name string) bool {
	v, err := strconv.ParseBool(c.Query(name))
	return err == nil && v
}

func actor(c *fiber.Ctx) service.Actor {
	return middleware.Actor(c)
}
