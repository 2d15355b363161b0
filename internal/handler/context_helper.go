package handler

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-substitution-api/internal/middleware"
	appErrors "github.com/noah-isme/sma-substitution-api/pkg/errors"
)

const dateLayout = "2006-01-02"

func schoolID(c *gin.Context) string {
	return c.Param(middleware.SchoolParam)
}

// queryDate parses a YYYY-MM-DD query value as a UTC calendar date.
func queryDate(c *gin.Context, key string) (time.Time, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return time.Time{}, appErrors.Clone(appErrors.ErrValidation, key+" is required")
	}
	date, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, key+" must be YYYY-MM-DD")
	}
	return date, nil
}

func optionalQueryDate(c *gin.Context, key string) (*time.Time, error) {
	if strings.TrimSpace(c.Query(key)) == "" {
		return nil, nil
	}
	date, err := queryDate(c, key)
	if err != nil {
		return nil, err
	}
	return &date, nil
}

func queryPeriod(c *gin.Context) (int, error) {
	raw := strings.TrimSpace(c.Query("period"))
	if raw == "" {
		return 0, appErrors.Clone(appErrors.ErrValidation, "period is required")
	}
	period, err := strconv.Atoi(raw)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "period must be a number")
	}
	return period, nil
}
