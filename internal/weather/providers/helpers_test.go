package providers

import (
	"encoding/json"
	"errors"

	"github.com/akovalyk/weather-resolver/internal/weather"
)

func decodeJSON(s string, v any) error {
	return json.Unmarshal([]byte(s), v)
}

func asStageError(err error, target **weather.StageError) bool {
	return errors.As(err, target)
}
