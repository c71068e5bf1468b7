package echoapi

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/jukutrack/core"
)

// Ordering binds the `ordering` query param; comma-separated field names,
// a leading "-" flips the direction. eg. ?ordering=grade,-created_at
type Ordering struct {
	Orderings []core.DBOrdering
}

func (o *Ordering) Bind(ctx echo.Context) {
	raw := strings.TrimSpace(ctx.QueryParam("ordering"))
	if raw == "" {
		return
	}
	for _, field := range strings.Split(raw, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		ord := core.DBOrdering{Field: field, Ascending: true}
		if strings.HasPrefix(field, "-") {
			ord.Field = field[1:]
			ord.Ascending = false
		}
		o.Orderings = append(o.Orderings, ord)
	}
}
