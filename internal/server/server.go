package server

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/danmuck/fixwire/internal/config"
	"github.com/danmuck/fixwire/internal/observability"
	"github.com/danmuck/fixwire/internal/protocol/fix"
	"github.com/danmuck/fixwire/internal/protocol/frame"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

const (
	metricsSource = "http"
	version       = "0.1.0"
)

var (
	ErrBodyTooLarge = errors.New("server: request body too large")
	ErrBadTag       = errors.New("server: tag must be a non-negative integer")
)

// Server exposes the field scanner over HTTP.
type Server struct {
	Name     string
	Addr     string
	Appeared time.Time

	cfg    config.ServerConfig
	router *gin.Engine
}

func New(cfg config.ServerConfig) *Server {
	observability.RegisterMetrics()
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestLogger(log.Logger))
	r.Use(observability.RequestMetricsMiddleware(cfg.Name))
	r.Use(cors.New(cors.Config{
		AllowOrigins: normalizeOrigins(cfg.CorsOrigins),
		AllowMethods: []string{"GET", "POST"},
		AllowHeaders: []string{"Origin", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	s := &Server{
		Name:     cfg.Name,
		Addr:     cfg.Addr,
		Appeared: time.Now(),
		cfg:      cfg,
		router:   r,
	}
	s.registerRoutes()
	return s
}

func (s *Server) HTTPRouter() *gin.Engine {
	return s.router
}

func (s *Server) Serve() error {
	log.Info().Str("name", s.Name).Str("addr", s.Addr).Msg("fixwire server listening")
	return s.router.Run(s.Addr)
}

func (s *Server) registerRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"uptime":  time.Since(s.Appeared).String(),
			"service": s.Name,
			"version": version,
		})
	})
	s.router.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"ready":   true,
			"uptime":  time.Since(s.Appeared).String(),
			"service": s.Name,
			"version": version,
		})
	})
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.router.POST("/parse", s.handleParse)
	s.router.POST("/parse/tags/:tag", s.handleTag)
	s.router.POST("/parse/batch", s.handleBatch)
}

// FieldView is one parsed field in API responses.
type FieldView struct {
	Tag   int    `json:"tag"`
	Name  string `json:"name,omitempty"`
	Value string `json:"value"`
}

// MessageView is one parsed message in API responses.
type MessageView struct {
	Count  int         `json:"count"`
	Fields []FieldView `json:"fields"`
	Error  string      `json:"error,omitempty"`
}

func (s *Server) handleParse(c *gin.Context) {
	idx, ok := s.parseBody(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, messageView(idx))
}

func (s *Server) handleTag(c *gin.Context) {
	tag, err := strconv.Atoi(c.Param("tag"))
	if err != nil || tag < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": ErrBadTag.Error()})
		return
	}
	idx, ok := s.parseBody(c)
	if !ok {
		return
	}
	value, found := idx.GetString(tag)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "tag not found", "tag": tag})
		return
	}
	c.JSON(http.StatusOK, FieldView{Tag: tag, Name: fix.TagName(tag), Value: value})
}

func (s *Server) handleBatch(c *gin.Context) {
	delim, ok := s.delimiter(c)
	if !ok {
		return
	}
	mode, err := frame.ParseMode(c.Query("mode"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	scanner := fix.Scanner{Delimiter: delim}
	reader := frame.NewReader(c.Request.Body, mode, delim, frame.Limits{MaxMessageBytes: s.cfg.MaxMessageBytes})
	var (
		messages  []MessageView
		total     int
		malformed int
	)
	for {
		msg, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			status := http.StatusBadRequest
			if errors.Is(err, frame.ErrMessageTooLarge) {
				status = http.StatusRequestEntityTooLarge
				observability.RecordParse(metricsSource, observability.OutcomeTooLarge, 0, 0)
			}
			c.Set(observability.CtxParseError, err.Error())
			c.JSON(status, gin.H{"error": err.Error(), "parsed": len(messages)})
			return
		}
		idx, err := s.parse(scanner, msg)
		if err != nil {
			malformed++
			messages = append(messages, MessageView{Fields: []FieldView{}, Error: err.Error()})
			continue
		}
		total += idx.Len()
		messages = append(messages, messageView(idx))
	}
	c.Set(observability.CtxFieldCount, total)
	c.JSON(http.StatusOK, gin.H{"messages": messages, "count": len(messages), "malformed": malformed})
}

// parseBody reads and parses the request body, writing the error response
// itself when it returns false.
func (s *Server) parseBody(c *gin.Context) (*fix.Index, bool) {
	delim, ok := s.delimiter(c)
	if !ok {
		return nil, false
	}
	body, err := s.readBody(c)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, ErrBodyTooLarge) {
			status = http.StatusRequestEntityTooLarge
			observability.RecordParse(metricsSource, observability.OutcomeTooLarge, 0, 0)
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return nil, false
	}
	idx, err := s.parse(fix.Scanner{Delimiter: delim}, body)
	if err != nil {
		c.Set(observability.CtxParseError, err.Error())
		resp := gin.H{"error": err.Error()}
		var mte *fix.MalformedTagError
		if errors.As(err, &mte) {
			resp["offset"] = mte.Offset
		}
		c.JSON(http.StatusUnprocessableEntity, resp)
		return nil, false
	}
	c.Set(observability.CtxFieldCount, idx.Len())
	return idx, true
}

// parse indexes msg in place. The index must not outlive msg, which for
// batch requests is only until the next frame is read.
func (s *Server) parse(scanner fix.Scanner, msg []byte) (*fix.Index, error) {
	start := time.Now()
	idx := fix.NewIndex(msg, s.cfg.InitialCapacity)
	if err := scanner.Parse(msg, idx); err != nil {
		observability.RecordParse(metricsSource, observability.OutcomeMalformed, 0, 0)
		return nil, err
	}
	observability.RecordParse(metricsSource, observability.OutcomeOK, idx.Len(), time.Since(start))
	return idx, nil
}

func (s *Server) readBody(c *gin.Context) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, int64(s.cfg.MaxMessageBytes)))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, ErrBodyTooLarge
		}
		return nil, err
	}
	return bytes.TrimRight(body, "\r\n"), nil
}

func (s *Server) delimiter(c *gin.Context) (byte, bool) {
	raw, ok := c.GetQuery("delim")
	if !ok {
		return s.cfg.DelimiterByte(), true
	}
	d, err := config.ParseDelimiter(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return 0, false
	}
	return d, true
}

func messageView(idx *fix.Index) MessageView {
	fields := make([]FieldView, 0, idx.Len())
	src := idx.Source()
	idx.Each(func(f fix.Field) bool {
		fields = append(fields, FieldView{
			Tag:   f.Tag,
			Name:  fix.TagName(f.Tag),
			Value: string(f.Value(src)),
		})
		return true
	})
	return MessageView{Count: len(fields), Fields: fields}
}

func normalizeOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"http://localhost:3000"}
	}
	return origins
}
