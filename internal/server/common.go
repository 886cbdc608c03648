package server

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	lineitemdomain "github.com/tradecrew/tradecrew/internal/lineitem/domain"
	"gorm.io/datatypes"
)

// IDs travel as decimal strings on the wire; int64 snowflakes lose precision
// in JSON number form.
func pathID(c *gin.Context) (snowflake.ID, error) {
	raw := strings.TrimSpace(c.Param("id"))
	if raw == "" {
		return 0, invalidRequestError()
	}
	id, err := snowflake.ParseString(raw)
	if err != nil {
		return 0, newValidationError("id", "invalid_id", "invalid identifier")
	}
	return id, nil
}

func optionalID(raw *string) (*snowflake.ID, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	id, err := snowflake.ParseString(strings.TrimSpace(*raw))
	if err != nil {
		return nil, newValidationError("client_id", "invalid_id", "invalid identifier")
	}
	return &id, nil
}

func requiredID(raw, field string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(raw))
	if err != nil {
		return 0, newValidationError(field, "invalid_id", "invalid identifier")
	}
	return id, nil
}

type lineItemPayload struct {
	Title       *string `json:"title"`
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitAmount  int64   `json:"unit_amount"`
}

func toLineItems(payloads []lineItemPayload) []lineitemdomain.LineItem {
	items := make([]lineitemdomain.LineItem, 0, len(payloads))
	for _, p := range payloads {
		items = append(items, lineitemdomain.LineItem{
			Title:       p.Title,
			Description: p.Description,
			Quantity:    p.Quantity,
			UnitAmount:  p.UnitAmount,
		})
	}
	return items
}

func toMetadata(m map[string]any) datatypes.JSONMap {
	if m == nil {
		return nil
	}
	return datatypes.JSONMap(m)
}

func parseOptionalTime(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, newValidationError("time", "invalid_time", "invalid RFC3339 timestamp")
	}
	return &t, nil
}
