// internal/storage/cache.go
package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rkbisoi/applus-backend-demo/internal/common/database"
	"github.com/rkbisoi/applus-backend-demo/internal/common/logger"
	"github.com/rkbisoi/applus-backend-demo/internal/models"
)

const (
	certCacheKeyPrefix    = "cert:"
	certAppCacheKeyPrefix = "cert:app:"
)

// CertificateCache is a read-through cache for issued certificates. A nil
// cache is valid and all operations on it are no-ops, so callers never need
// to branch on whether Redis is configured.
type CertificateCache struct {
	client *database.RedisClient
	ttl    time.Duration
	logger logger.Logger
}

func NewCertificateCache(client *database.RedisClient, ttl time.Duration, log logger.Logger) *CertificateCache {
	return &CertificateCache{
		client: client,
		ttl:    ttl,
		logger: log,
	}
}

// Get returns the cached certificate or nil on a miss or cache error.
func (c *CertificateCache) Get(ctx context.Context, certificateID string) *models.Certificate {
	return c.lookup(ctx, certCacheKeyPrefix+certificateID)
}

// GetByApplication returns the cached certificate for an application.
func (c *CertificateCache) GetByApplication(ctx context.Context, applicationID string) *models.Certificate {
	return c.lookup(ctx, certAppCacheKeyPrefix+applicationID)
}

func (c *CertificateCache) lookup(ctx context.Context, key string) *models.Certificate {
	if c == nil || c.client == nil {
		return nil
	}
	data, err := c.client.Get(ctx, key)
	if err != nil {
		return nil
	}
	var cert models.Certificate
	if err := json.Unmarshal([]byte(data), &cert); err != nil {
		c.logger.Warn("Dropping unparseable cache entry", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		return nil
	}
	return &cert
}

// Put caches the certificate under both its own ID and its application ID.
// Cache write failures are logged and otherwise ignored.
func (c *CertificateCache) Put(ctx context.Context, cert *models.Certificate) {
	if c == nil || c.client == nil || cert == nil {
		return
	}
	data, err := json.Marshal(cert)
	if err != nil {
		return
	}
	for _, key := range []string{
		certCacheKeyPrefix + cert.CertificateID,
		certAppCacheKeyPrefix + cert.ApplicationID,
	} {
		if err := c.client.Set(ctx, key, data, c.ttl); err != nil {
			c.logger.Warn("Certificate cache write failed", map[string]interface{}{
				"key":   key,
				"error": err.Error(),
			})
		}
	}
}

// Invalidate removes both cache entries for the certificate.
func (c *CertificateCache) Invalidate(ctx context.Context, cert *models.Certificate) {
	if c == nil || c.client == nil || cert == nil {
		return
	}
	if err := c.client.Del(ctx,
		certCacheKeyPrefix+cert.CertificateID,
		certAppCacheKeyPrefix+cert.ApplicationID,
	); err != nil {
		c.logger.Warn("Certificate cache invalidation failed", map[string]interface{}{
			"certificate_id": cert.CertificateID,
			"error":          err.Error(),
		})
	}
}
