package vpn

import (
	"context"
	"crypto/tls"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/wisphive/fleetd/pkg/models"
)

const webhookTimeout = 10 * time.Second

// Notifier POSTs to a VPN server's webhook endpoint when its managed
// configuration changes. Delivery is best-effort: every failure mode is
// logged, none is surfaced to the job runner, and there are no retries.
// The endpoint reprovisions itself on the next poll either way.
type Notifier struct {
	client  *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewNotifier creates a notifier. With debug set, server certificates
// are not verified; local test endpoints rarely carry trusted certs.
func NewNotifier(debug bool, logger *zap.Logger) *Notifier {
	transport := http.DefaultTransport
	if debug {
		transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}
	return &Notifier{
		client:  &http.Client{Transport: transport, Timeout: webhookTimeout},
		limiter: rate.NewLimiter(rate.Every(time.Second), 5),
		logger:  logger,
	}
}

// Notify POSTs to the VPN's webhook endpoint with the auth token as the
// key query parameter. VPNs without an endpoint or token are skipped.
func (n *Notifier) Notify(ctx context.Context, vpn *models.Vpn) {
	if vpn.WebhookEndpoint == "" || vpn.AuthToken == "" {
		n.logger.Debug("vpn has no webhook endpoint configured",
			zap.String("vpn_id", vpn.ID),
		)
		return
	}

	if err := n.limiter.Wait(ctx); err != nil {
		n.logger.Warn("webhook notification dropped before send",
			zap.String("vpn_id", vpn.ID),
			zap.Error(err),
		)
		return
	}

	endpoint := vpn.WebhookEndpoint + "?key=" + url.QueryEscape(vpn.AuthToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		n.logger.Error("failed to build webhook request",
			zap.String("vpn_id", vpn.ID),
			zap.Error(err),
		)
		return
	}

	resp, err := n.client.Do(req)
	if err != nil {
		n.logger.Error("failed to reach vpn webhook endpoint",
			zap.String("vpn_id", vpn.ID),
			zap.String("host", vpn.Host),
			zap.Error(err),
		)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		n.logger.Info("vpn webhook notified",
			zap.String("vpn_id", vpn.ID),
			zap.String("host", vpn.Host),
		)
		return
	}
	n.logger.Error("vpn webhook returned unexpected status",
		zap.String("vpn_id", vpn.ID),
		zap.String("host", vpn.Host),
		zap.Int("status", resp.StatusCode),
	)
}
