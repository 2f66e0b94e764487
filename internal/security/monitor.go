package security

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Alerter delivers security alerts to an operator channel.
type Alerter interface {
	SendAlert(ctx context.Context, severity, title, message string) error
}

// LogAlerter is an Alerter that writes alerts to the security log.
type LogAlerter struct {
	Logger *Logger
}

// SendAlert logs the alert as a critical entry.
func (a LogAlerter) SendAlert(ctx context.Context, severity, title, message string) error {
	a.Logger.Critical(title, fmt.Errorf("%s", message),
		zap.String("event_type", string(EventAlert)),
		zap.String("severity", severity))
	return nil
}

// SecurityMonitor counts access denials per IP and raises an alert when one
// address crosses the configured threshold within a monitoring interval.
type SecurityMonitor struct {
	logger  *Logger
	config  *SecurityConfig
	alerter Alerter

	mu         sync.Mutex
	denials    map[string]int
	windowFrom time.Time
	now        func() time.Time
}

// NewSecurityMonitor creates a monitor.
func NewSecurityMonitor(logger *Logger, config *SecurityConfig, alerter Alerter) *SecurityMonitor {
	return &SecurityMonitor{
		logger:     logger,
		config:     config,
		alerter:    alerter,
		denials:    make(map[string]int),
		windowFrom: time.Now(),
		now:        time.Now,
	}
}

// MonitorDenial records a 401/403/429 answered to ip. The alert fires once,
// exactly when the count reaches the threshold.
func (m *SecurityMonitor) MonitorDenial(ctx context.Context, ip string, status int) {
	m.mu.Lock()
	m.resetIfExpiredLocked()
	m.denials[ip]++
	count := m.denials[ip]
	m.mu.Unlock()

	if count != m.config.AlertThresholdDenials {
		return
	}

	msg := fmt.Sprintf("%d denied requests from %s within %s (last status %d)",
		count, ip, m.config.MonitoringInterval, status)
	if err := m.alerter.SendAlert(ctx, "HIGH", "Repeated denied requests", msg); err != nil {
		m.logger.Error("failed to send security alert", err)
	}
}

// Denials returns the current count for ip.
func (m *SecurityMonitor) Denials(ip string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resetIfExpiredLocked()
	return m.denials[ip]
}

func (m *SecurityMonitor) resetIfExpiredLocked() {
	if m.now().Sub(m.windowFrom) < m.config.MonitoringInterval {
		return
	}
	m.denials = make(map[string]int)
	m.windowFrom = m.now()
}
