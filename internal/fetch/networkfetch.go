package fetch

import (
	"context"
	"io"
	"log/slog"
	"net/url"

	"fetchcore/internal/observability/logging"
	"fetchcore/internal/observability/metrics"
	"fetchcore/internal/observability/tracing"
)

// httpNetworkFetch implements §4.3's http_network_fetch: it opens the
// connector, submits method/URL/headers/body, and on success spawns a
// background goroutine that streams the body into the response's Body
// slot (Empty → Receiving → Done), per the concurrency model in §5.
func httpNetworkFetch(ctx context.Context, connector Connector, req *Request, maxBodyBytes int64) *Response {
	ctx, span := tracing.GetTracer().Start(ctx, "http_network_fetch")
	defer span.End()

	logger := logging.WithFetchID(ctx, logging.FromContext(ctx))

	creq := &ConnectorRequest{
		URL:     req.CurrentURL(),
		Method:  req.Method,
		Headers: req.Headers,
		Body:    req.Body,
	}

	cresp, err := connector.ObtainResponse(ctx, creq)
	if err != nil {
		logger.Warn("network fetch failed", slog.String("url", creq.URL.String()), slog.Any("error", err))
		metrics.NetworkErrorsTotal.WithLabelValues("connector").Inc()
		return NetworkError()
	}

	urlList := make([]*url.URL, len(req.URLList))
	copy(urlList, req.URLList)

	resp := &Response{
		URL:        cresp.URL,
		Status:     cresp.Status,
		Headers:    cresp.Headers,
		URLList:    urlList,
		ResponseType: ResponseTypeDefault,
		HTTPSState: cresp.HTTPSState,
		Body:       NewBody(),
	}

	body := resp.Body
	go func() {
		defer cresp.Body.Close()
		body.StartReceiving()

		limited := io.LimitReader(cresp.Body, maxBodyBytes+1)
		data, readErr := io.ReadAll(limited)
		if readErr != nil {
			logger.Debug("network fetch body read failed", slog.Any("error", readErr))
			body.Terminate(data)
			return
		}
		if int64(len(data)) > maxBodyBytes {
			logger.Debug("network fetch body exceeded max size, truncating", slog.Int64("max_bytes", maxBodyBytes))
			body.Terminate(data[:maxBodyBytes])
			return
		}
		body.Finish(data)
	}()

	return resp
}
