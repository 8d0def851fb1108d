package connector

// EnableDebugMode enables verbose request/response logging and full error
// serialization.
func (c *Connector) EnableDebugMode() {
	c.debugMode.Store(true)
	c.logger.Info("debug mode enabled")
}

// DisableDebugMode disables debug mode.
func (c *Connector) DisableDebugMode() {
	c.debugMode.Store(false)
	c.logger.Info("debug mode disabled")
}

// IsDebugMode returns whether debug mode is currently enabled.
func (c *Connector) IsDebugMode() bool {
	return c.debugMode.Load()
}

// GetDebugInfo returns a snapshot of connector state for debugging.
// Credentials are never included.
func (c *Connector) GetDebugInfo() map[string]interface{} {
	metrics := c.tr.GetMetrics()

	info := map[string]interface{}{
		"version":   Version,
		"endpoint":  c.endpoint,
		"debugMode": c.IsDebugMode(),
		"transport": map[string]interface{}{
			"healthy":        c.tr.IsHealthy(),
			"totalRequests":  metrics.TotalRequests,
			"totalErrors":    metrics.TotalErrors,
			"averageLatency": metrics.AverageLatency.String(),
			"bytesSent":      metrics.BytesSent,
			"bytesReceived":  metrics.BytesReceived,
		},
		"options": map[string]interface{}{
			"timeout":          c.opts.Timeout.String(),
			"defaultBatchSize": c.opts.DefaultBatchSize,
			"verboseErrors":    c.opts.VerboseErrors,
		},
	}

	c.hooksMu.RLock()
	hookNames := make([]string, 0, len(c.hooks))
	for _, entry := range c.hooks {
		hookNames = append(hookNames, entry.hook.Name())
	}
	c.hooksMu.RUnlock()
	info["hooks"] = hookNames

	return info
}
