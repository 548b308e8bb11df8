package middleware

import (
	"context"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AuditAction represents the state transition being audited
type AuditAction string

const (
	AuditActionCreateCommunity AuditAction = "community.create"
	AuditActionCreateEvent     AuditAction = "event.create"
	AuditActionCancelEvent     AuditAction = "event.cancel"
	AuditActionJoin            AuditAction = "attendee.join"
	AuditActionVerify          AuditAction = "attendee.verify"
	AuditActionReject          AuditAction = "attendee.reject"
	AuditActionClaim           AuditAction = "attendee.claim"
	AuditActionOther           AuditAction = "other"
)

// AuditEntry represents a single audit log entry. Every signed
// transition is recorded with the identity that requested it and the
// co-signing authority when one was presented.
type AuditEntry struct {
	ID           string      `json:"id"`
	Identity     string      `json:"identity,omitempty"`
	Cosigner     string      `json:"cosigner,omitempty"`
	Action       AuditAction `json:"action"`
	ResourceType string      `json:"resource_type"`
	ResourceID   string      `json:"resource_id,omitempty"`
	Status       int         `json:"status"`
	IPAddress    string      `json:"ip_address,omitempty"`
	UserAgent    string      `json:"user_agent,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
}

// AuditConfig holds configuration for the audit middleware
type AuditConfig struct {
	// DB is the PostgreSQL connection pool for storing audit logs
	DB *pgxpool.Pool
	// BufferSize is the size of the async audit buffer (default: 1000)
	BufferSize int
	// FlushInterval is how often to flush the buffer (default: 5 seconds)
	FlushInterval time.Duration
	// BatchSize is the maximum number of entries to insert in one batch (default: 100)
	BatchSize int
	// SkipPaths is a list of paths to skip auditing
	SkipPaths []string
}

// DefaultAuditConfig returns default configuration
func DefaultAuditConfig(db *pgxpool.Pool) *AuditConfig {
	return &AuditConfig{
		DB:            db,
		BufferSize:    1000,
		FlushInterval: 5 * time.Second,
		BatchSize:     100,
		SkipPaths:     []string{"/health", "/ready", "/metrics"},
	}
}

// AuditLogger handles async audit logging
type AuditLogger struct {
	config    *AuditConfig
	buffer    chan *AuditEntry
	wg        sync.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once

	// For testing: collect entries instead of writing to DB
	testMode    bool
	testEntries []*AuditEntry
	testMu      sync.Mutex
}

// NewAuditLogger creates a new audit logger
func NewAuditLogger(config *AuditConfig) *AuditLogger {
	if config.BufferSize <= 0 {
		config.BufferSize = 1000
	}
	if config.FlushInterval <= 0 {
		config.FlushInterval = 5 * time.Second
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 100
	}

	ctx, cancel := context.WithCancel(context.Background())

	al := &AuditLogger{
		config: config,
		buffer: make(chan *AuditEntry, config.BufferSize),
		ctx:    ctx,
		cancel: cancel,
	}

	al.wg.Add(1)
	go al.worker()

	return al
}

// Log adds an audit entry to the buffer (non-blocking)
func (al *AuditLogger) Log(entry *AuditEntry) {
	select {
	case al.buffer <- entry:
	default:
		// Buffer full, drop entry
	}
}

// Close gracefully shuts down the audit logger
func (al *AuditLogger) Close() error {
	al.closeOnce.Do(func() {
		al.cancel()
		close(al.buffer)
		al.wg.Wait()
	})
	return nil
}

// SetTestMode enables test mode which collects entries instead of writing to DB
func (al *AuditLogger) SetTestMode(enabled bool) {
	al.testMu.Lock()
	defer al.testMu.Unlock()
	al.testMode = enabled
	if enabled {
		al.testEntries = make([]*AuditEntry, 0)
	}
}

// GetTestEntries returns collected test entries (only in test mode)
func (al *AuditLogger) GetTestEntries() []*AuditEntry {
	al.testMu.Lock()
	defer al.testMu.Unlock()
	result := make([]*AuditEntry, len(al.testEntries))
	copy(result, al.testEntries)
	return result
}

// worker processes audit entries in the background
func (al *AuditLogger) worker() {
	defer al.wg.Done()

	ticker := time.NewTicker(al.config.FlushInterval)
	defer ticker.Stop()

	batch := make([]*AuditEntry, 0, al.config.BatchSize)

	for {
		select {
		case entry, ok := <-al.buffer:
			if !ok {
				if len(batch) > 0 {
					al.flush(batch)
				}
				return
			}
			batch = append(batch, entry)
			if len(batch) >= al.config.BatchSize {
				al.flush(batch)
				batch = make([]*AuditEntry, 0, al.config.BatchSize)
			}
		case <-ticker.C:
			if len(batch) > 0 {
				al.flush(batch)
				batch = make([]*AuditEntry, 0, al.config.BatchSize)
			}
		case <-al.ctx.Done():
			if len(batch) > 0 {
				al.flush(batch)
			}
			return
		}
	}
}

// flush writes a batch of entries to the database
func (al *AuditLogger) flush(entries []*AuditEntry) {
	if len(entries) == 0 {
		return
	}

	al.testMu.Lock()
	if al.testMode {
		al.testEntries = append(al.testEntries, entries...)
		al.testMu.Unlock()
		return
	}
	al.testMu.Unlock()

	if al.config.DB == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	query := `
		INSERT INTO audit_logs (
			id, identity, cosigner, action, resource_type, resource_id,
			status, ip_address, user_agent, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	for _, entry := range entries {
		// Audit writes must not block or fail the application.
		_, _ = al.config.DB.Exec(ctx, query,
			entry.ID, entry.Identity, entry.Cosigner,
			string(entry.Action), entry.ResourceType, entry.ResourceID,
			entry.Status, entry.IPAddress, entry.UserAgent, entry.CreatedAt,
		)
	}
}

// AuditMiddleware records every mutating request with the signed
// identity that made it.
func AuditMiddleware(logger *AuditLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, skip := range logger.config.SkipPaths {
			if path == skip {
				c.Next()
				return
			}
		}
		if c.Request.Method == "GET" || c.Request.Method == "HEAD" || c.Request.Method == "OPTIONS" {
			c.Next()
			return
		}

		c.Next()

		identity, _ := GetIdentity(c)
		cosigner, _ := GetCosigner(c)
		resourceType, resourceID := extractResource(path)

		logger.Log(&AuditEntry{
			ID:           uuid.New().String(),
			Identity:     identity,
			Cosigner:     cosigner,
			Action:       actionFor(path),
			ResourceType: resourceType,
			ResourceID:   resourceID,
			Status:       c.Writer.Status(),
			IPAddress:    clientIP(c),
			UserAgent:    c.Request.UserAgent(),
			CreatedAt:    time.Now().UTC(),
		})
	}
}

// actionFor maps a request path to the transition it performs.
func actionFor(path string) AuditAction {
	switch {
	case strings.HasSuffix(path, "/join"):
		return AuditActionJoin
	case strings.HasSuffix(path, "/verify"):
		return AuditActionVerify
	case strings.HasSuffix(path, "/reject"):
		return AuditActionReject
	case strings.HasSuffix(path, "/claim"):
		return AuditActionClaim
	case strings.HasSuffix(path, "/cancel"):
		return AuditActionCancelEvent
	case strings.Contains(path, "/events"):
		return AuditActionCreateEvent
	case strings.Contains(path, "/communities"):
		return AuditActionCreateCommunity
	}
	return AuditActionOther
}

// extractResource pulls the resource type and ID out of a path like
// /api/v1/events/<id>/join.
func extractResource(path string) (resourceType, resourceID string) {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	for i, seg := range segments {
		switch seg {
		case "communities", "events", "attendees":
			resourceType = strings.TrimSuffix(seg, "s")
			if i+1 < len(segments) {
				resourceID = segments[i+1]
			}
		}
	}
	return resourceType, resourceID
}

func clientIP(c *gin.Context) string {
	if forwarded := c.GetHeader("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}
	if realIP := c.GetHeader("X-Real-IP"); realIP != "" {
		return realIP
	}
	host, _, err := net.SplitHostPort(c.Request.RemoteAddr)
	if err != nil {
		return c.Request.RemoteAddr
	}
	return host
}
