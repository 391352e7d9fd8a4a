package http

import (
	"io"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/valyala/fastjson"

	"github.com/wekeepgrowing/semo-syslog/internal/domain/entity"
	apperrors "github.com/wekeepgrowing/semo-syslog/pkg/errors"
)

const maxBodyBytes = 1 << 20

var bodyParsers fastjson.ParserPool

// logQueryParams are the list, export and filter query parameters.
type logQueryParams struct {
	Page        int    `query:"page" validate:"omitempty,min=1"`
	Limit       int    `query:"limit" validate:"omitempty,min=1,max=100"`
	Level       string `query:"level" validate:"omitempty,levelfilter"`
	Source      string `query:"source" validate:"max=100"`
	Category    string `query:"category" validate:"max=50"`
	TimeRange   string `query:"timeRange" validate:"omitempty,timerange"`
	Search      string `query:"search" validate:"max=200"`
	Resolved    string `query:"resolved" validate:"omitempty,oneof=true false"`
	Environment string `query:"environment" validate:"omitempty,environment"`
}

func (p logQueryParams) toQuery() entity.LogQuery {
	q := entity.LogQuery{
		Page:        p.Page,
		Limit:       p.Limit,
		Level:       p.Level,
		Source:      p.Source,
		Category:    p.Category,
		TimeRange:   p.TimeRange,
		Search:      p.Search,
		Environment: p.Environment,
	}
	if p.Resolved != "" {
		b := p.Resolved == "true"
		q.Resolved = &b
	}
	return q
}

func bindLogQuery(c echo.Context) (entity.LogQuery, error) {
	var p logQueryParams
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &p); err != nil {
		return entity.LogQuery{}, apperrors.NewValidationError("query", "page and limit must be integers")
	}
	if err := c.Validate(&p); err != nil {
		return entity.LogQuery{}, err
	}
	return p.toQuery(), nil
}

type trendParams struct {
	Hours int `query:"hours" validate:"omitempty,min=1,max=168"`
	Step  int `query:"step" validate:"omitempty,min=1,max=24"`
}

func bindTrendParams(c echo.Context) (trendParams, error) {
	var p trendParams
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &p); err != nil {
		return p, apperrors.NewValidationError("hours", "must be an integer")
	}
	if err := c.Validate(&p); err != nil {
		return p, err
	}
	if p.Hours == 0 {
		p.Hours = 24
	}
	if p.Step == 0 {
		p.Step = 1
	}
	return p, nil
}

type exportParams struct {
	Format   string `query:"format" validate:"omitempty,oneof=json csv"`
	Compress string `query:"compress" validate:"omitempty,oneof=gzip zstd"`
}

// createLogRequest is the body of POST /api/system-logs.
type createLogRequest struct {
	Level       string                 `json:"level" validate:"required,loglevel"`
	Message     string                 `json:"message" validate:"required,max=1000"`
	Source      string                 `json:"source" validate:"required,max=100"`
	Category    string                 `json:"category" validate:"omitempty,max=50"`
	Details     map[string]interface{} `json:"details"`
	Tags        []string               `json:"tags" validate:"omitempty,max=20,dive,max=30"`
	Environment string                 `json:"environment" validate:"omitempty,environment"`
	StackTrace  string                 `json:"stackTrace" validate:"max=10000"`
}

func (r createLogRequest) toRecord() *entity.LogRecord {
	level, _ := entity.ParseLevel(r.Level)
	return &entity.LogRecord{
		Level:       level,
		Message:     r.Message,
		Source:      strings.TrimSpace(r.Source),
		Category:    strings.TrimSpace(r.Category),
		Details:     r.Details,
		Tags:        r.Tags,
		Environment: entity.Environment(r.Environment),
		StackTrace:  r.StackTrace,
	}
}

// clearLogsRequest is the body of DELETE /api/system-logs/clear.
type clearLogsRequest struct {
	Level     string `json:"level" validate:"omitempty,levelfilter"`
	OlderThan int    `json:"olderThan" validate:"min=0,max=3650"`
	All       bool   `json:"all"`
}

func readBody(c echo.Context) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxBodyBytes+1))
	if err != nil {
		return nil, apperrors.InvalidArgument("could not read request body", err)
	}
	if len(body) > maxBodyBytes {
		return nil, apperrors.NewAppError(apperrors.ErrInvalidArgument, "request body too large", nil)
	}
	return body, nil
}

// parseCreateLog decodes the body with fastjson so that type mismatches are
// reported per field instead of as one decode error.
func parseCreateLog(body []byte) (createLogRequest, error) {
	var req createLogRequest

	p := bodyParsers.Get()
	defer bodyParsers.Put(p)

	v, err := p.ParseBytes(body)
	if err != nil {
		return req, apperrors.NewValidationError("body", "must be valid JSON")
	}
	obj, err := v.Object()
	if err != nil {
		return req, apperrors.NewValidationError("body", "must be a JSON object")
	}

	verr := &apperrors.ValidationError{}
	str := func(key string) string {
		f := obj.Get(key)
		if f == nil || f.Type() == fastjson.TypeNull {
			return ""
		}
		if f.Type() != fastjson.TypeString {
			verr.Add(key, "must be a string")
			return ""
		}
		return string(f.GetStringBytes())
	}

	req.Level = str("level")
	req.Message = str("message")
	req.Source = str("source")
	req.Category = str("category")
	req.Environment = str("environment")
	req.StackTrace = str("stackTrace")

	if d := obj.Get("details"); d != nil && d.Type() != fastjson.TypeNull {
		if d.Type() != fastjson.TypeObject {
			verr.Add("details", "must be an object")
		} else {
			req.Details = jsonValue(d).(map[string]interface{})
		}
	}

	if t := obj.Get("tags"); t != nil && t.Type() != fastjson.TypeNull {
		items, err := t.Array()
		if err != nil {
			verr.Add("tags", "must be an array of strings")
		}
		for i, item := range items {
			if item.Type() != fastjson.TypeString {
				verr.Add("tags["+strconv.Itoa(i)+"]", "must be a string")
				continue
			}
			req.Tags = append(req.Tags, string(item.GetStringBytes()))
		}
	}

	return req, verr.OrNil()
}

// parseClearLogs accepts olderThan as a number or a numeric string.
func parseClearLogs(body []byte) (clearLogsRequest, error) {
	var req clearLogsRequest
	if len(strings.TrimSpace(string(body))) == 0 {
		return req, nil
	}

	p := bodyParsers.Get()
	defer bodyParsers.Put(p)

	v, err := p.ParseBytes(body)
	if err != nil {
		return req, apperrors.NewValidationError("body", "must be valid JSON")
	}
	if v.Type() != fastjson.TypeObject {
		return req, apperrors.NewValidationError("body", "must be a JSON object")
	}

	verr := &apperrors.ValidationError{}
	if l := v.Get("level"); l != nil && l.Type() != fastjson.TypeNull {
		if l.Type() != fastjson.TypeString {
			verr.Add("level", "must be a string")
		} else {
			req.Level = string(l.GetStringBytes())
		}
	}
	if o := v.Get("olderThan"); o != nil && o.Type() != fastjson.TypeNull {
		switch o.Type() {
		case fastjson.TypeNumber:
			n, err := o.Int()
			if err != nil {
				verr.Add("olderThan", "must be a whole number of days")
			}
			req.OlderThan = n
		case fastjson.TypeString:
			s := strings.TrimSpace(string(o.GetStringBytes()))
			if s != "" {
				n, err := strconv.Atoi(s)
				if err != nil {
					verr.Add("olderThan", "must be a whole number of days")
				}
				req.OlderThan = n
			}
		default:
			verr.Add("olderThan", "must be a whole number of days")
		}
	}
	if a := v.Get("all"); a != nil && a.Type() != fastjson.TypeNull {
		b, err := a.Bool()
		if err != nil {
			verr.Add("all", "must be a boolean")
		}
		req.All = b
	}
	return req, verr.OrNil()
}

// jsonValue converts a fastjson value into plain Go values.
func jsonValue(v *fastjson.Value) interface{} {
	switch v.Type() {
	case fastjson.TypeObject:
		o, _ := v.Object()
		out := make(map[string]interface{}, o.Len())
		o.Visit(func(key []byte, val *fastjson.Value) {
			out[string(key)] = jsonValue(val)
		})
		return out
	case fastjson.TypeArray:
		items, _ := v.Array()
		out := make([]interface{}, len(items))
		for i, item := range items {
			out[i] = jsonValue(item)
		}
		return out
	case fastjson.TypeString:
		return string(v.GetStringBytes())
	case fastjson.TypeNumber:
		if n, err := v.Int64(); err == nil {
			return n
		}
		return v.GetFloat64()
	case fastjson.TypeTrue:
		return true
	case fastjson.TypeFalse:
		return false
	}
	return nil
}
