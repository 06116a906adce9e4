package handlers

import (
	"context"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-resty/resty/v2"

	"github.com/SAP-F-2025/lms-service/internal/config"
	"github.com/SAP-F-2025/lms-service/internal/services"
	"github.com/SAP-F-2025/lms-service/internal/utils"
	"github.com/SAP-F-2025/lms-service/internal/validator"
)

var allowedSlipTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/webp":      true,
	"application/pdf": true,
}

// SlipGuard checks with a HEAD request that a payment slip URL points at a
// reasonably sized image or PDF before the upload reaches the service.
type SlipGuard struct {
	BaseHandler
	client   *resty.Client
	maxBytes int64
}

func NewSlipGuard(cfg config.UploadConfig, logger utils.Logger) *SlipGuard {
	client := resty.New().
		SetTimeout(cfg.SlipCheckTimeout).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(3)).
		SetHeader("User-Agent", "lms-service-slip-guard")

	return &SlipGuard{
		BaseHandler: NewBaseHandler(logger),
		client:      client,
		maxBytes:    cfg.MaxSlipBytes,
	}
}

// Check returns a BadRequest service error describing why rawURL is refused.
func (g *SlipGuard) Check(ctx context.Context, rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return services.BadRequest("Slip URL must be an absolute http(s) URL")
	}

	resp, err := g.client.R().SetContext(ctx).Head(u.String())
	if err != nil {
		return services.BadRequest("Slip URL is not reachable")
	}
	if resp.StatusCode() >= http.StatusBadRequest {
		return services.BadRequest("Slip URL is not reachable (status %d)", resp.StatusCode())
	}

	mediaType, _, err := mime.ParseMediaType(resp.Header().Get("Content-Type"))
	if err != nil || !allowedSlipTypes[strings.ToLower(mediaType)] {
		return services.BadRequest("Slip must be a JPEG, PNG or WebP image, or a PDF")
	}

	if g.maxBytes > 0 {
		if size, err := strconv.ParseInt(resp.Header().Get("Content-Length"), 10, 64); err == nil && size > g.maxBytes {
			return services.BadRequest("Slip is larger than %d bytes", g.maxBytes)
		}
	}
	return nil
}

// Middleware reads slipUrl from the JSON body and runs Check. The body stays
// available to the handler through ShouldBindBodyWith.
func (g *SlipGuard) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req validator.UploadSlipRequest
		if err := c.ShouldBindBodyWith(&req, binding.JSON); err != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid request payload", err.Error())
			return
		}

		if err := g.Check(c.Request.Context(), req.SlipURL); err != nil {
			g.LogRequest(c, "Slip rejected", "slip_url", req.SlipURL, "reason", err.Error())
			g.handleServiceError(c, err)
			return
		}
		c.Next()
	}
}
