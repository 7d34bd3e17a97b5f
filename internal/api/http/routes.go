package httpapi

import (
	"bytes"
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/temperature-monitoring/internal/config"
	"github.com/i474232898/temperature-monitoring/internal/monitor"
	"github.com/i474232898/temperature-monitoring/internal/regress"
	"github.com/i474232898/temperature-monitoring/internal/store"
)

var validate = validator.New()

// RegisterRoutes wires the HTTP handlers into the Fiber app. The
// handlers pull results from the core and own no business state.
func RegisterRoutes(app *fiber.App, service *monitor.Service, settings *config.Manager) {
	v1 := app.Group("/api/v1")

	v1.Get("/readings", func(c *fiber.Ctx) error {
		f, err := parseFilterQuery(c)
		if err != nil {
			return toHTTPError(err)
		}
		readings := service.FilteredReadings(f)
		return c.JSON(fiber.Map{
			"count":    len(readings),
			"readings": readings,
		})
	})

	v1.Post("/readings", func(c *fiber.Ctx) error {
		var r monitor.Reading
		if err := c.BodyParser(&r); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid reading payload")
		}
		added, err := service.AddReading(r)
		if err != nil {
			return toHTTPError(err)
		}
		return c.Status(fiber.StatusCreated).JSON(added)
	})

	v1.Delete("/readings/:id", func(c *fiber.Ctx) error {
		// Stale selectors are tolerated: deleting a missing reading is
		// a no-op, not an error.
		service.DeleteReading(c.Params("id"))
		return c.SendStatus(fiber.StatusNoContent)
	})

	v1.Post("/readings/import", func(c *fiber.Ctx) error {
		var req importRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid import payload")
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		mode, err := monitor.ParseImportMode(req.Mode)
		if err != nil {
			return toHTTPError(err)
		}
		n, err := service.ImportReadings(req.Rows, mode)
		if err != nil {
			return toHTTPError(err)
		}
		return c.JSON(fiber.Map{"imported": n, "mode": mode})
	})

	v1.Get("/readings/export", func(c *fiber.Ctx) error {
		var buf bytes.Buffer
		if err := store.WriteCSV(&buf, service.ExportReadings()); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to export readings")
		}
		c.Set(fiber.HeaderContentType, "text/csv")
		c.Set(fiber.HeaderContentDisposition, `attachment; filename="temp_history.csv"`)
		return c.Send(buf.Bytes())
	})

	v1.Get("/stats", func(c *fiber.Ctx) error {
		f, err := parseFilterQuery(c)
		if err != nil {
			return toHTTPError(err)
		}
		return c.JSON(service.Stats(f))
	})

	v1.Get("/models", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"active": service.ActiveModel(),
			"models": service.Models(),
		})
	})

	v1.Put("/models/active", func(c *fiber.Ctx) error {
		var req activeModelRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid model payload")
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := service.SetActiveModel(req.Name); err != nil {
			return toHTTPError(err)
		}
		return c.JSON(fiber.Map{"active": req.Name})
	})

	v1.Post("/models/retrain", func(c *fiber.Ctx) error {
		if err := service.Retrain(c.Query("name")); err != nil {
			return toHTTPError(err)
		}
		return c.JSON(fiber.Map{
			"active": service.ActiveModel(),
			"models": service.Models(),
		})
	})

	v1.Post("/models/select-best", func(c *fiber.Ctx) error {
		best, err := service.SelectBestModel()
		if err != nil {
			return toHTTPError(err)
		}
		return c.JSON(fiber.Map{
			"active": best,
			"models": service.Models(),
		})
	})

	v1.Get("/predict/next", func(c *fiber.Ctx) error {
		pred, err := service.NextValue()
		if err != nil {
			return toHTTPError(err)
		}
		return c.JSON(pred)
	})

	v1.Get("/predict/forecast", func(c *fiber.Ctx) error {
		days := settings.Get().PredictionDays
		if q := c.Query("days"); q != "" {
			n, err := strconv.Atoi(q)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "days must be an integer")
			}
			days = n
		}
		forecast, err := service.ExtendedForecast(days)
		if err != nil {
			return toHTTPError(err)
		}
		return c.JSON(fiber.Map{
			"model":    service.ActiveModel(),
			"days":     days,
			"forecast": forecast,
		})
	})

	v1.Get("/config", func(c *fiber.Ctx) error {
		return c.JSON(settings.Get())
	})

	v1.Put("/config", func(c *fiber.Ctx) error {
		updated, err := settings.Update(c.Body())
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return c.JSON(updated)
	})

	v1.Post("/system/reset", func(c *fiber.Ctx) error {
		if err := service.Reset(); err != nil {
			return toHTTPError(err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}

// importRequest is the batch import payload. The batch is atomic: the
// core rejects it entirely when any row is invalid.
type importRequest struct {
	Mode string           `json:"mode" validate:"omitempty,oneof=replace merge"`
	Rows []monitor.Reading `json:"rows" validate:"required,min=1"`
}

type activeModelRequest struct {
	Name string `json:"name" validate:"required"`
}

func parseFilterQuery(c *fiber.Ctx) (monitor.Filter, error) {
	period, err := monitor.ParsePeriod(c.Query("period"))
	if err != nil {
		return monitor.Filter{}, err
	}
	return monitor.Filter{
		Period: period,
		Rating: monitor.Rating(c.Query("rating")),
		Search: c.Query("q"),
	}, nil
}

// toHTTPError maps domain errors to HTTP status codes. Training and
// prediction failures surface as "insufficient data" rather than server
// errors.
func toHTTPError(err error) error {
	var (
		verr      *monitor.ValidationError
		ierr      *monitor.ImportError
		perr      *monitor.PersistenceError
		insuff    *regress.InsufficientDataError
		untrained *regress.ModelNotTrainedError
	)
	switch {
	case errors.As(err, &verr), errors.As(err, &ierr), errors.Is(err, regress.ErrUnknownModel):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.As(err, &insuff), errors.As(err, &untrained):
		return fiber.NewError(fiber.StatusUnprocessableEntity, "insufficient data: "+err.Error())
	case errors.As(err, &perr):
		return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
	}
	return fiber.NewError(fiber.StatusInternalServerError, err.Error())
}
