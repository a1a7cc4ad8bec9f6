package store

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

func parseNullUUID(raw sql.NullString) (*uuid.UUID, error) {
	if !raw.Valid || raw.String == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw.String)
	if err != nil {
		return nil, fmt.Errorf("parsing id %q: %w", raw.String, err)
	}
	return &id, nil
}

// formatMonths renders an eligible-months set as "1,6,12". Empty set = "".
func formatMonths(months []time.Month) string {
	parts := make([]string, len(months))
	for i, m := range months {
		parts[i] = strconv.Itoa(int(m))
	}
	return strings.Join(parts, ",")
}

func parseMonths(raw string) ([]time.Month, error) {
	if raw == "" {
		return nil, nil
	}
	var out []time.Month
	for _, part := range strings.Split(raw, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n < 1 || n > 12 {
			return nil, fmt.Errorf("invalid month %q", part)
		}
		out = append(out, time.Month(n))
	}
	return out, nil
}
